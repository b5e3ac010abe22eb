package displayclient

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	org := "org-1"
	state := DeviceState{
		DeviceID:       "device-1",
		PairingCode:    "123456",
		Paired:         true,
		OrganisationID: &org,
	}
	require.NoError(t, SaveState(path, state))

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestLoadStateMissingFile(t *testing.T) {
	loaded, err := LoadState(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, DeviceState{}, loaded)
}

func TestWipeState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, SaveState(path, DeviceState{DeviceID: "device-1"}))

	require.NoError(t, WipeState(path))
	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, DeviceState{}, loaded)

	// wiping twice is fine
	require.NoError(t, WipeState(path))
}
