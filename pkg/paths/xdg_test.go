package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHomeOverride(t *testing.T) {
	root := t.TempDir()
	t.Setenv(HomeEnv, root)

	assert.Equal(t, filepath.Join(root, "config"), ConfigDir())
	assert.Equal(t, filepath.Join(root, "state"), StateDir())
	assert.Equal(t, filepath.Join(root, "state", "logs"), LogDir())
	assert.Equal(t, filepath.Join(root, "state", "state.yml"), StateFile())

	require.NoError(t, EnsureDirs())
	assert.DirExists(t, LogDir())
}

func TestXDGVariables(t *testing.T) {
	t.Setenv(HomeEnv, "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	assert.Equal(t, filepath.Join("/xdg/config", "ckan-console"), ConfigDir())
	assert.Equal(t, filepath.Join("/xdg/state", "ckan-console"), StateDir())
}
