package extractor

import (
	"errors"
	"testing"

	"github.com/kamaD-y/dcp-ops-monitor/models"
)

func TestParseYen(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1,234,567円", 1234567},
		{"-1,234,567円", -1234567},
		{"0円", 0},
		{"  12,345円\n", 12345},
		{"１２３，４５６円", 123456},
		{"－１,０００円", -1000},
		{"−500円", -500},
		{"ー42円", -42},
		{"+7円", 7},
		{"￥3,000", 3000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseYen(tt.in)
			if err != nil {
				t.Fatalf("ParseYen(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseYen(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseYen_Rejects(t *testing.T) {
	for _, in := range []string{"", "円", "0.01円", "1,234.5円", "abc円", "   "} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseYen(in)
			if err == nil {
				t.Fatalf("ParseYen(%q) should fail", in)
			}
			var perr *models.ParseAmountError
			if !errors.As(err, &perr) {
				t.Errorf("ParseYen(%q) error type = %T, want *models.ParseAmountError", in, err)
			}
		})
	}
}
