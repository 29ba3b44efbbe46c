package instance

import (
	"testing"

	"github.com/grovetools/ckanconsole/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelect(t *testing.T) {
	c := NewContext()
	assert.Nil(t, c.Current())
	assert.False(t, c.HasInstance())
	assert.Equal(t, "", c.Name())

	inst := &models.Instance{Name: "KSP1", Path: "/games/ksp"}
	c.Select(inst)

	require.NotNil(t, c.Current())
	assert.Equal(t, "KSP1", c.Name())
	assert.True(t, c.HasInstance())

	// The caller's value is copied
	inst.Name = "changed"
	assert.Equal(t, "KSP1", c.Name())

	c.Select(nil)
	assert.Nil(t, c.Current())
	assert.False(t, c.HasInstance())
}

func TestWatch(t *testing.T) {
	c := NewContext()

	var seen []string
	cancel := c.Watch(func(inst *models.Instance) {
		if inst == nil {
			seen = append(seen, "<none>")
			return
		}
		seen = append(seen, inst.Name)
	})

	c.Select(&models.Instance{Name: "KSP1"})
	c.Select(nil)
	cancel()
	c.Select(&models.Instance{Name: "KSP2"})

	assert.Equal(t, []string{"KSP1", "<none>"}, seen)
}
