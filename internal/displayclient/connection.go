// Package displayclient maintains a device's soft session with the pairing
// status endpoint. There is no server push: the Connection polls, tuning its
// interval to observed activity, backing off exponentially under failure and
// giving up entirely after a hard timeout.
package displayclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lu2a-dev/dayplaner/internal/model"
)

// ErrDeviceGone reports that the server no longer knows this device id. The
// identity is unrecoverable: the caller must discard persisted state and
// re-enter the pairing flow with a fresh init.
var ErrDeviceGone = errors.New("device not found")

// DisplayStatus is the parsed status poll payload.
type DisplayStatus struct {
	Status         string                  `json:"status"`
	IsPaired       bool                    `json:"isPaired"`
	OrganisationID *string                 `json:"organisationId"`
	DeviceName     string                  `json:"deviceName"`
	DayPlan        *model.DayPlanWithItems `json:"dayPlan"`
	WasReset       bool                    `json:"wasReset"`
	ResetReason    string                  `json:"resetReason"`
}

// ConnectionState is a snapshot of the poller's health. IsConnected means
// "zero consecutive failures", not "has ever connected".
type ConnectionState struct {
	IsConnected         bool
	LastSeen            time.Time
	ConsecutiveFailures int
	CurrentInterval     time.Duration
}

// Callbacks are invoked from the poll goroutine, never with the connection's
// lock held. Any of them may be nil.
type Callbacks struct {
	// OnStatusUpdate fires on every successful poll.
	OnStatusUpdate func(DisplayStatus)
	// OnConnectionChange fires once with false on the 3rd consecutive
	// failure, and once with true when polling recovers.
	OnConnectionChange func(bool)
	// OnTimeout fires once when the hard timeout elapses; polling has
	// already stopped.
	OnTimeout func()
	// OnRepairRequired fires once when the server returns not-found for the
	// device id; polling has stopped and the caller must re-pair.
	OnRepairRequired func()
}

// Options tune the polling policy. Zero values take the defaults below.
type Options struct {
	MinInterval    time.Duration // immediate-poll floor, default 2s
	MaxInterval    time.Duration // backoff cap, default 60s
	BackoffFactor  float64       // per-failure growth, default 1.5
	RequestTimeout time.Duration // per-request abort, default 10s
	HardTimeout    time.Duration // continuous failure budget, default 5m

	// Activity-based intervals applied after a successful poll.
	ActiveInterval   time.Duration // paired with a day plan, default 3s
	PairedInterval   time.Duration // paired, no day plan, default 5s
	UnpairedInterval time.Duration // waiting for an operator, default 10s
}

func (o Options) withDefaults() Options {
	if o.MinInterval == 0 {
		o.MinInterval = 2 * time.Second
	}
	if o.MaxInterval == 0 {
		o.MaxInterval = 60 * time.Second
	}
	if o.BackoffFactor == 0 {
		o.BackoffFactor = 1.5
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.HardTimeout == 0 {
		o.HardTimeout = 5 * time.Minute
	}
	if o.ActiveInterval == 0 {
		o.ActiveInterval = 3 * time.Second
	}
	if o.PairedInterval == 0 {
		o.PairedInterval = 5 * time.Second
	}
	if o.UnpairedInterval == 0 {
		o.UnpairedInterval = 10 * time.Second
	}
	return o
}

// Connection is a long-lived poller for one device session. At most one poll
// chain is live: Start and Refresh bump a generation counter, and a chain
// whose generation is stale stops instead of scheduling.
type Connection struct {
	baseURL string
	client  *http.Client
	opts    Options
	cb      Callbacks

	mu          sync.Mutex
	deviceID    string
	active      bool
	timer       *time.Timer
	gen         int
	interval    time.Duration
	failures    int
	lastSuccess time.Time
}

// New builds a Connection for deviceID against baseURL (e.g.
// "http://host:8080/api"). It does not start polling.
func New(baseURL, deviceID string, opts Options, cb Callbacks) *Connection {
	o := opts.withDefaults()
	return &Connection{
		baseURL:  baseURL,
		deviceID: deviceID,
		client:   &http.Client{},
		opts:     o,
		cb:       cb,
		interval: o.MinInterval,
	}
}

// Start begins polling with an immediate first poll. Calling Start on an
// active connection is a no-op.
func (c *Connection) Start() {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return
	}
	c.active = true
	c.failures = 0
	c.interval = c.opts.MinInterval
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	go c.poll(gen)
}

// Stop cancels any pending poll. Idempotent.
func (c *Connection) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Refresh drops the pending timer and polls immediately at the minimum
// interval, for callers expecting the status to change soon. Bumping the
// generation orphans a poll that is still in flight, so it cannot schedule a
// second chain when it returns. No-op when stopped.
func (c *Connection) Refresh() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.interval = c.opts.MinInterval
	c.gen++
	gen := c.gen
	active := c.active
	c.mu.Unlock()

	if active {
		go c.poll(gen)
	}
}

// UpdateDeviceID switches to a new identity (after a hard reset) and clears
// the failure state. If the connection is active it refreshes immediately;
// a stopped connection must be Start()ed again.
func (c *Connection) UpdateDeviceID(newDeviceID string) {
	c.mu.Lock()
	c.deviceID = newDeviceID
	c.failures = 0
	c.lastSuccess = time.Time{}
	c.mu.Unlock()

	c.Refresh()
}

// GetConnectionState returns a snapshot of the poller's health.
func (c *Connection) GetConnectionState() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConnectionState{
		IsConnected:         c.failures == 0,
		LastSeen:            c.lastSuccess,
		ConsecutiveFailures: c.failures,
		CurrentInterval:     c.interval,
	}
}

func (c *Connection) poll(gen int) {
	c.mu.Lock()
	if !c.active || gen != c.gen {
		c.mu.Unlock()
		return
	}
	deviceID := c.deviceID
	c.mu.Unlock()

	status, err := c.fetchStatus(deviceID)
	switch {
	case err == nil:
		c.handleSuccess(status)
	case errors.Is(err, ErrDeviceGone):
		c.handleDeviceGone()
		return
	default:
		if timedOut := c.handleFailure(err); timedOut {
			return
		}
	}

	c.scheduleNext(gen)
}

func (c *Connection) fetchStatus(deviceID string) (DisplayStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/displays/pairing/status/"+deviceID, nil)
	if err != nil {
		return DisplayStatus{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return DisplayStatus{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return DisplayStatus{}, ErrDeviceGone
	}
	if resp.StatusCode != http.StatusOK {
		return DisplayStatus{}, fmt.Errorf("http %d", resp.StatusCode)
	}

	var status DisplayStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return DisplayStatus{}, err
	}
	return status, nil
}

func (c *Connection) handleSuccess(status DisplayStatus) {
	c.mu.Lock()
	wasDisconnected := c.failures > 0
	c.failures = 0
	c.lastSuccess = time.Now()

	// Activity-based tuning, independent of failure backoff: a display
	// showing a plan polls tightly because the schedule may be edited live.
	switch {
	case status.IsPaired && status.DayPlan != nil:
		c.interval = c.opts.ActiveInterval
	case status.IsPaired:
		c.interval = c.opts.PairedInterval
	default:
		c.interval = c.opts.UnpairedInterval
	}
	c.mu.Unlock()

	if wasDisconnected && c.cb.OnConnectionChange != nil {
		c.cb.OnConnectionChange(true)
	}
	if c.cb.OnStatusUpdate != nil {
		c.cb.OnStatusUpdate(status)
	}
}

// handleFailure absorbs one failed poll. It reports true when the hard
// timeout fired, in which case polling has stopped for good.
func (c *Connection) handleFailure(err error) bool {
	log.Error().Err(err).Msg("display status poll failed")

	c.mu.Lock()
	c.failures++

	if !c.lastSuccess.IsZero() && time.Since(c.lastSuccess) > c.opts.HardTimeout {
		c.active = false
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.mu.Unlock()

		log.Error().Msg("display connection timed out")
		if c.cb.OnTimeout != nil {
			c.cb.OnTimeout()
		}
		return true
	}

	next := time.Duration(float64(c.interval) * c.opts.BackoffFactor)
	if next > c.opts.MaxInterval {
		next = c.opts.MaxInterval
	}
	c.interval = next
	lost := c.failures == 3
	c.mu.Unlock()

	if lost && c.cb.OnConnectionChange != nil {
		c.cb.OnConnectionChange(false)
	}
	return false
}

func (c *Connection) handleDeviceGone() {
	log.Error().Msg("device id not known by server, re-pairing required")
	c.Stop()
	if c.cb.OnRepairRequired != nil {
		c.cb.OnRepairRequired()
	}
}

func (c *Connection) scheduleNext(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || gen != c.gen {
		return
	}
	c.timer = time.AfterFunc(c.interval, func() { c.poll(gen) })
}
