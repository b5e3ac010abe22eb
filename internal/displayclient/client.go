package displayclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// InitResult is the response to a pairing init: the code an operator types in
// and the device id all subsequent polls use.
type InitResult struct {
	Success  bool   `json:"success"`
	Code     string `json:"code"`
	DeviceID string `json:"deviceId"`
}

// InitDevice registers a brand-new display with the server and returns its
// pairing code and device id.
func InitDevice(ctx context.Context, baseURL string) (InitResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/displays/pairing/init", nil)
	if err != nil {
		return InitResult{}, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return InitResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return InitResult{}, fmt.Errorf("pairing init failed: http %d", resp.StatusCode)
	}

	var result InitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return InitResult{}, err
	}
	return result, nil
}
