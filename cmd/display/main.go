// Command display is a headless presentation device. It registers itself with
// the server, prints its pairing code, and then polls for the day plan it
// should show.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lu2a-dev/dayplaner/internal/displayclient"
	"github.com/lu2a-dev/dayplaner/internal/mqtt"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080/api", "base URL of the day plan API")
		statePath = flag.String("state", "display-state.json", "path of the device state file")
		brokerURL = flag.String("mqtt", "", "optional MQTT broker URL for refresh nudges")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	state, err := displayclient.LoadState(*statePath)
	if err != nil {
		log.Fatal().Err(err).Msg("could not read state file")
	}

	if state.DeviceID == "" {
		state = register(*serverURL, *statePath)
	}
	if !state.Paired {
		fmt.Printf("\n  Pairing code: %s\n\n", state.PairingCode)
	}

	conn := newConnection(*serverURL, *statePath, state)
	conn.Start()
	defer conn.Stop()

	if *brokerURL != "" {
		subscribeRefresh(*brokerURL, state.DeviceID, conn)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
}

// register asks the server for a fresh device identity and persists it.
func register(serverURL, statePath string) displayclient.DeviceState {
	result, err := displayclient.InitDevice(context.Background(), serverURL)
	if err != nil {
		log.Fatal().Err(err).Msg("device registration failed")
	}

	state := displayclient.DeviceState{
		DeviceID:    result.DeviceID,
		PairingCode: result.Code,
	}
	if err := displayclient.SaveState(statePath, state); err != nil {
		log.Fatal().Err(err).Msg("could not write state file")
	}

	log.Info().Str("device_id", state.DeviceID).Msg("device registered")
	return state
}

func newConnection(serverURL, statePath string, state displayclient.DeviceState) *displayclient.Connection {
	var conn *displayclient.Connection

	conn = displayclient.New(serverURL, state.DeviceID, displayclient.Options{}, displayclient.Callbacks{
		OnStatusUpdate: func(status displayclient.DisplayStatus) {
			if status.WasReset {
				log.Warn().Str("reason", status.ResetReason).Msg("pairing was reset by the server")
			}
			render(status)

			state.Paired = status.IsPaired
			state.OrganisationID = status.OrganisationID
			state.AssignedDayPlan = nil
			if status.DayPlan != nil {
				state.AssignedDayPlan = &status.DayPlan.ID
			}
			if err := displayclient.SaveState(statePath, state); err != nil {
				log.Warn().Err(err).Msg("could not persist state")
			}
		},
		OnConnectionChange: func(connected bool) {
			if connected {
				log.Info().Msg("connection restored")
			} else {
				log.Warn().Msg("connection lost, retrying with backoff")
			}
		},
		OnTimeout: func() {
			log.Fatal().Msg("server unreachable for too long, giving up")
		},
		OnRepairRequired: func() {
			log.Warn().Msg("device unknown to the server, re-pairing")
			if err := displayclient.WipeState(statePath); err != nil {
				log.Warn().Err(err).Msg("could not wipe state")
			}
			state = register(serverURL, statePath)
			fmt.Printf("\n  Pairing code: %s\n\n", state.PairingCode)
			conn.UpdateDeviceID(state.DeviceID)
			conn.Start()
		},
	})

	return conn
}

// render is the whole "screen" of this headless build.
func render(status displayclient.DisplayStatus) {
	if !status.IsPaired {
		return
	}
	if status.DayPlan == nil {
		log.Info().Str("name", status.DeviceName).Msg("paired, waiting for a day plan")
		return
	}

	fmt.Printf("\n== %s (%s) ==\n", status.DayPlan.Name, status.DayPlan.Date)
	for _, item := range status.DayPlan.ScheduleItems {
		line := fmt.Sprintf("  %s  %s", item.Time, item.Title)
		if item.Speaker != nil {
			line += " - " + *item.Speaker
		}
		if item.Location != nil {
			line += " @ " + *item.Location
		}
		fmt.Println(line)
	}
}

// subscribeRefresh listens for the server's per-device nudge topic and polls
// immediately instead of waiting out the current interval.
func subscribeRefresh(brokerURL, deviceID string, conn *displayclient.Connection) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID("display-" + deviceID).
		SetAutoReconnect(true)

	client := pahomqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Warn().Err(token.Error()).Msg("mqtt connect failed, refresh nudges disabled")
		return
	}

	topic := mqtt.RefreshTopic(deviceID)
	client.Subscribe(topic, 0, func(_ pahomqtt.Client, _ pahomqtt.Message) {
		log.Debug().Msg("refresh nudge received")
		conn.Refresh()
	})
	log.Info().Str("topic", topic).Msg("subscribed for refresh nudges")
}
