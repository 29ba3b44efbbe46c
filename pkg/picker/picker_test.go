package picker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/grovetools/ckanconsole/pkg/bridge"
	"github.com/grovetools/ckanconsole/pkg/bridge/bridgetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*bridge.Host, *bridgetest.FakeHost) {
	t.Helper()
	fake := bridgetest.NewFakeHost()
	fake.Respond(bridge.CmdSelectDirectory, nil)
	host, err := bridge.NewHost(fake)
	require.NoError(t, err)
	return host, fake
}

func TestEventName(t *testing.T) {
	assert.Equal(t, "path-directory-selected", EventName("path"))
	assert.Equal(t, "deployment-directory-selected", EventName("deployment"))
}

func TestOpenSendsEventName(t *testing.T) {
	host, fake := setup(t)
	s := New(host, "game-dir", nil)
	defer s.Close()

	require.NoError(t, s.Open(context.Background()))

	calls := fake.CallsTo(bridge.CmdSelectDirectory)
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"event":"game-dir"}`, string(calls[0].Args))
	assert.Equal(t, "", s.Value(), "open does not wait for the dialog")
}

func TestOpenFailure(t *testing.T) {
	host, fake := setup(t)
	fake.Fail(bridge.CmdSelectDirectory, "no display")
	s := New(host, "game-dir", nil)
	defer s.Close()

	assert.Error(t, s.Open(context.Background()))
}

func TestLastEventWins(t *testing.T) {
	host, fake := setup(t)
	s := New(host, "game-dir", nil)
	defer s.Close()

	var seen []string
	s.OnChange(func(v string) { seen = append(seen, v) })

	fake.Emit("game-dir", "/first")
	fake.Emit("game-dir", "/second")

	assert.Equal(t, "/second", s.Value())
	assert.Equal(t, []string{"/first", "/second"}, seen)
}

func TestCancelledDialogKeepsValue(t *testing.T) {
	host, fake := setup(t)
	s := New(host, "game-dir", nil)
	defer s.Close()

	fake.Emit("game-dir", "/games/ksp")
	fake.Emit("game-dir", json.RawMessage(`null`))
	fake.Emit("game-dir", json.RawMessage(`{"bad": true}`))

	assert.Equal(t, "/games/ksp", s.Value())
}

func TestSetByHand(t *testing.T) {
	host, fake := setup(t)
	s := New(host, "game-dir", nil)
	defer s.Close()

	var seen []string
	s.OnChange(func(v string) { seen = append(seen, v) })

	s.Set("/typed")
	assert.Equal(t, "/typed", s.Value())
	assert.Empty(t, seen)

	fake.Emit("game-dir", "/picked")
	assert.Equal(t, "/picked", s.Value())
	assert.Equal(t, []string{"/picked"}, seen)
}

func TestSessionsAreIsolated(t *testing.T) {
	host, fake := setup(t)
	game := New(host, "game-dir", nil)
	defer game.Close()
	deploy := New(host, "deploy-dir", nil)
	defer deploy.Close()

	fake.Emit("game-dir", "/games/ksp")
	assert.Equal(t, "/games/ksp", game.Value())
	assert.Equal(t, "", deploy.Value())

	fake.Emit("deploy-dir", "/games/ksp/GameData")
	assert.Equal(t, "/games/ksp", game.Value())
	assert.Equal(t, "/games/ksp/GameData", deploy.Value())

	fake.Emit("other-dir", "/elsewhere")
	assert.Equal(t, "/games/ksp", game.Value())
	assert.Equal(t, "/games/ksp/GameData", deploy.Value())
}

func TestNoMutationAfterClose(t *testing.T) {
	host, fake := setup(t)
	s := New(host, "game-dir", nil)

	calls := 0
	s.OnChange(func(string) { calls++ })

	fake.Emit("game-dir", "/before")
	s.Close()
	s.Close()

	fake.Emit("game-dir", "/after")
	s.Set("/typed-after")

	assert.Equal(t, "/before", s.Value())
	assert.Equal(t, 1, calls)
	assert.True(t, s.Closed())
	assert.Equal(t, 0, fake.Subscribers("game-dir"))
}
