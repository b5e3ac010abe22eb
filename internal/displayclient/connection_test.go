package displayclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

// fastOptions shrinks every interval so a full backoff/timeout cycle fits in
// a test run.
func fastOptions() Options {
	return Options{
		MinInterval:      5 * time.Millisecond,
		MaxInterval:      40 * time.Millisecond,
		BackoffFactor:    2,
		RequestTimeout:   time.Second,
		HardTimeout:      time.Minute,
		ActiveInterval:   5 * time.Millisecond,
		PairedInterval:   8 * time.Millisecond,
		UnpairedInterval: 10 * time.Millisecond,
	}
}

func pairedStatus(withPlan bool) DisplayStatus {
	org := "org-1"
	status := DisplayStatus{
		Status:         model.DisplayStatusPaired,
		IsPaired:       true,
		OrganisationID: &org,
		DeviceName:     "Lobby screen",
	}
	if withPlan {
		status.DayPlan = &model.DayPlanWithItems{
			DayPlan: model.DayPlan{ID: "plan-1", Name: "Day 1", Date: "2026-09-01"},
		}
	}
	return status
}

func writeStatus(w http.ResponseWriter, status DisplayStatus) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func TestPollDeliversStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/displays/pairing/status/device-1", r.URL.Path)
		writeStatus(w, pairedStatus(true))
	}))
	defer srv.Close()

	updates := make(chan DisplayStatus, 16)
	conn := New(srv.URL, "device-1", fastOptions(), Callbacks{
		OnStatusUpdate: func(s DisplayStatus) { updates <- s },
	})
	conn.Start()
	defer conn.Stop()

	select {
	case status := <-updates:
		assert.True(t, status.IsPaired)
		require.NotNil(t, status.DayPlan)
		assert.Equal(t, "plan-1", status.DayPlan.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no status update received")
	}
}

func TestActivityBasedIntervals(t *testing.T) {
	cases := []struct {
		name   string
		status DisplayStatus
		want   time.Duration
	}{
		{"active", pairedStatus(true), fastOptions().ActiveInterval},
		{"paired idle", pairedStatus(false), fastOptions().PairedInterval},
		{"unpaired", DisplayStatus{Status: model.DisplayStatusPending}, fastOptions().UnpairedInterval},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeStatus(w, tc.status)
			}))
			defer srv.Close()

			updates := make(chan DisplayStatus, 16)
			conn := New(srv.URL, "device-1", fastOptions(), Callbacks{
				OnStatusUpdate: func(s DisplayStatus) { updates <- s },
			})
			conn.Start()
			defer conn.Stop()

			select {
			case <-updates:
			case <-time.After(2 * time.Second):
				t.Fatal("no status update received")
			}

			assert.Equal(t, tc.want, conn.GetConnectionState().CurrentInterval)
		})
	}
}

func TestConnectionLostOnThirdFailure(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var (
		mu     sync.Mutex
		events []bool
	)
	conn := New(srv.URL, "device-1", fastOptions(), Callbacks{
		OnConnectionChange: func(connected bool) {
			mu.Lock()
			events = append(events, connected)
			mu.Unlock()
		},
	})
	conn.Start()
	defer conn.Stop()

	// let well over 3 polls fail; the callback must still fire only once
	require.Eventually(t, func() bool { return requests.Load() >= 6 }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false}, events)
}

func TestConnectionRecoveryNotifies(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 4 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeStatus(w, pairedStatus(false))
	}))
	defer srv.Close()

	var (
		mu     sync.Mutex
		events []bool
	)
	conn := New(srv.URL, "device-1", fastOptions(), Callbacks{
		OnConnectionChange: func(connected bool) {
			mu.Lock()
			events = append(events, connected)
			mu.Unlock()
		},
	})
	conn.Start()
	defer conn.Stop()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 2
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{false, true}, events)

	state := conn.GetConnectionState()
	assert.True(t, state.IsConnected)
	assert.Zero(t, state.ConsecutiveFailures)
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	opts := fastOptions()
	conn := New(srv.URL, "device-1", opts, Callbacks{})
	conn.Start()
	defer conn.Stop()

	var (
		last      time.Duration
		monotonic = true
	)
	require.Eventually(t, func() bool {
		state := conn.GetConnectionState()
		if state.CurrentInterval < last {
			monotonic = false
		}
		last = state.CurrentInterval
		return state.CurrentInterval == opts.MaxInterval
	}, 2*time.Second, 2*time.Millisecond)
	assert.True(t, monotonic, "backoff must never shrink while failing")

	// stays pinned at the cap
	require.Eventually(t, func() bool { return requests.Load() >= 8 }, 3*time.Second, 5*time.Millisecond)
	assert.Equal(t, opts.MaxInterval, conn.GetConnectionState().CurrentInterval)
}

func TestDeviceGoneStopsPollingAndRequestsRepair(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var repairs atomic.Int32
	conn := New(srv.URL, "device-1", fastOptions(), Callbacks{
		OnRepairRequired: func() { repairs.Add(1) },
	})
	conn.Start()
	defer conn.Stop()

	require.Eventually(t, func() bool { return repairs.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	// polling must have stopped with the repair request
	settled := requests.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, requests.Load())
	assert.Equal(t, int32(1), repairs.Load())
}

func TestHardTimeoutFiresOnce(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			writeStatus(w, pairedStatus(false))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.HardTimeout = 60 * time.Millisecond

	var timeouts atomic.Int32
	conn := New(srv.URL, "device-1", opts, Callbacks{
		OnTimeout: func() { timeouts.Add(1) },
	})
	conn.Start()
	defer conn.Stop()

	require.Eventually(t, func() bool { return timeouts.Load() == 1 }, 3*time.Second, 5*time.Millisecond)

	settled := requests.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, settled, requests.Load(), "polling must stop after the hard timeout")
	assert.Equal(t, int32(1), timeouts.Load())
}

func TestHardTimeoutNeedsAPriorSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.HardTimeout = 20 * time.Millisecond

	var timeouts atomic.Int32
	conn := New(srv.URL, "device-1", opts, Callbacks{
		OnTimeout: func() { timeouts.Add(1) },
	})
	conn.Start()
	defer conn.Stop()

	// a device that never reached the server keeps retrying forever
	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, timeouts.Load())
}

func TestUpdateDeviceIDSwitchesIdentity(t *testing.T) {
	var newIDPolls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/displays/pairing/status/device-2" {
			newIDPolls.Add(1)
		}
		writeStatus(w, pairedStatus(false))
	}))
	defer srv.Close()

	conn := New(srv.URL, "device-1", fastOptions(), Callbacks{})
	conn.Start()
	defer conn.Stop()

	conn.UpdateDeviceID("device-2")

	require.Eventually(t, func() bool { return newIDPolls.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	state := conn.GetConnectionState()
	assert.Zero(t, state.ConsecutiveFailures)
}

func TestStartIsIdempotentAndStopIsFinal(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeStatus(w, pairedStatus(false))
	}))
	defer srv.Close()

	conn := New(srv.URL, "device-1", fastOptions(), Callbacks{})
	conn.Start()
	conn.Start()
	conn.Start()

	require.Eventually(t, func() bool { return requests.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	conn.Stop()
	conn.Stop()
	time.Sleep(30 * time.Millisecond)
	settled := requests.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, requests.Load())
}

func TestRefreshDuringInFlightPollLeavesOneChain(t *testing.T) {
	release := make(chan struct{})
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			<-release
		}
		writeStatus(w, pairedStatus(false))
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.PairedInterval = time.Minute // park each chain after its first poll

	conn := New(srv.URL, "device-1", opts, Callbacks{})
	conn.Start()
	defer conn.Stop()

	// first poll is stuck in the handler when Refresh arrives
	require.Eventually(t, func() bool { return requests.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	conn.Refresh()

	// the refresh chain completes and parks its timer
	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return requests.Load() == 2 && conn.timer != nil
	}, 2*time.Second, 5*time.Millisecond)

	conn.mu.Lock()
	parked := conn.timer
	conn.mu.Unlock()

	// when the stuck poll finally returns it must not schedule a second chain
	close(release)
	time.Sleep(50 * time.Millisecond)

	conn.mu.Lock()
	defer conn.mu.Unlock()
	assert.Same(t, parked, conn.timer, "an orphaned poll must not replace the live chain's timer")
	assert.Equal(t, int32(2), requests.Load())
}

func TestRefreshPollsImmediately(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		writeStatus(w, pairedStatus(false))
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.PairedInterval = time.Minute // park the poller after the first poll

	conn := New(srv.URL, "device-1", opts, Callbacks{})
	conn.Start()
	defer conn.Stop()

	require.Eventually(t, func() bool { return requests.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	conn.Refresh()
	require.Eventually(t, func() bool { return requests.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
}
