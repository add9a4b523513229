package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wareflow/wareflow-backend/internal/catalog/repository"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name     string
		title    string
		expected string
	}{
		{"simple", "Desk Lamp", "desk-lamp"},
		{"mixed case", "OFFICE Chair", "office-chair"},
		{"punctuation collapses", "Mouse, Wireless (Black)", "mouse-wireless-black"},
		{"leading and trailing space", "  Monitor Stand  ", "monitor-stand"},
		{"repeated separators", "USB -- Cable", "usb-cable"},
		{"digits kept", "Cable 2m", "cable-2m"},
		{"unicode letters kept", "Büroklammer", "büroklammer"},
		{"trailing punctuation", "Notebook!", "notebook"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, repository.Slugify(tc.title))
		})
	}
}
