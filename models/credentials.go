package models

import (
	"errors"
	"fmt"
	"log/slog"
)

// Credentials are the three login form values plus the login start URL.
type Credentials struct {
	UserID    string `yaml:"login_user_id"`
	Password  string `yaml:"login_password"`
	Birthdate string `yaml:"login_birthdate"`
	StartURL  string `yaml:"start_url"`
}

// Validate reports the first missing field.
func (c Credentials) Validate() error {
	switch {
	case c.UserID == "":
		return errors.New("credentials: user id is required")
	case c.Password == "":
		return errors.New("credentials: password is required")
	case c.Birthdate == "":
		return errors.New("credentials: birthdate is required")
	case c.StartURL == "":
		return errors.New("credentials: start url is required")
	}
	return nil
}

// String never includes the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{UserID: %q, Password: ***, Birthdate: ***, StartURL: %q}", c.UserID, c.StartURL)
}

// LogValue keeps secrets out of structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user_id", c.UserID),
		slog.String("start_url", c.StartURL),
	)
}
