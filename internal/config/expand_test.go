package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"bare tilde", "~", home},
		{"tilde path", "~/data/alerts.db", filepath.Join(home, "data", "alerts.db")},
		{"absolute", "/var/lib/pulse", "/var/lib/pulse"},
		{"tilde user unsupported", "~bob/x", "~bob/x"},
		{"tilde mid path", "/tmp/~/x", "/tmp/~/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandTilde(tt.input))
		})
	}
}

func TestExpand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USER", "pulsetest")
	host, _ := os.Hostname()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "/var/lib/pulse", "/var/lib/pulse"},
		{"home", "${HOME}/pulse", home + "/pulse"},
		{"user", "/srv/${USER}/alerts.db", "/srv/pulsetest/alerts.db"},
		{"hostname", "/data/${HOSTNAME}.db", "/data/" + host + ".db"},
		{"tilde untouched", "~/pulse", "~/pulse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Expand(tt.input))
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USER", "pulsetest")

	assert.Equal(t, filepath.Join(home, "pulsetest.db"), ExpandPath("~/${USER}.db"))
}
