package config

import (
	"fmt"
	"os"

	"github.com/kamaD-y/dcp-ops-monitor/models"
	"gopkg.in/yaml.v3"
)

// LoadCredentials reads the login values from the YAML file at path, or from
// DCPMON_LOGIN_* / DCPMON_START_URL when path is empty. The result is
// validated and never cached.
//
// File format:
//
//	login_user_id: "..."
//	login_password: "..."
//	login_birthdate: "19800101"
//	start_url: "https://..."
func LoadCredentials(path string) (models.Credentials, error) {
	var creds models.Credentials

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return models.Credentials{}, fmt.Errorf("failed to read credentials file: %w", err)
		}
		if err := yaml.Unmarshal(data, &creds); err != nil {
			return models.Credentials{}, fmt.Errorf("failed to parse credentials file: %w", err)
		}
	} else {
		creds = models.Credentials{
			UserID:    getenv("LOGIN_USER_ID"),
			Password:  getenv("LOGIN_PASSWORD"),
			Birthdate: getenv("LOGIN_BIRTHDATE"),
			StartURL:  getenv("START_URL"),
		}
	}

	if err := creds.Validate(); err != nil {
		return models.Credentials{}, err
	}
	return creds, nil
}
