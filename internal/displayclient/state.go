package displayclient

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
)

// DeviceState is the device's persisted identity, written to a local file so
// a restarted device resumes polling instead of pairing again. It is wiped
// wholesale when the server no longer knows the device id.
type DeviceState struct {
	DeviceID        string  `json:"deviceId"`
	PairingCode     string  `json:"pairingCode"`
	Paired          bool    `json:"paired"`
	OrganisationID  *string `json:"organisationId"`
	AssignedDayPlan *string `json:"assignedDayPlan"`
}

// LoadState reads the state file. A missing file yields an empty state and no
// error.
func LoadState(path string) (DeviceState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DeviceState{}, nil
	}
	if err != nil {
		return DeviceState{}, err
	}

	var state DeviceState
	if err := json.Unmarshal(data, &state); err != nil {
		return DeviceState{}, err
	}
	return state, nil
}

// SaveState writes the state file.
func SaveState(path string, state DeviceState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// WipeState removes the state file; missing files are not an error.
func WipeState(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
