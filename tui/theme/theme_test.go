package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewThemeWithName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"kanagawa", "kanagawa"},
		{" Terminal ", "terminal"},
		{"unknown", defaultThemeName},
		{"", defaultThemeName},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NewThemeWithName(tt.in).Name)
		})
	}
}

func TestThemeFromEnvironment(t *testing.T) {
	t.Setenv(ThemeEnv, "terminal")
	assert.Equal(t, "terminal", NewTheme().Name)
}

func TestNormalizeThemeName(t *testing.T) {
	assert.Equal(t, "kanagawa-dark", normalizeThemeName("Kanagawa_Dark"))
	assert.Equal(t, "a-b", normalizeThemeName("A B"))
}
