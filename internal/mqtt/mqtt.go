// Package mqtt publishes best-effort refresh nudges to display devices.
// Polling remains the source of truth; a nudge only tells a subscribed device
// that its status is worth re-fetching now rather than on the next interval.
package mqtt

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// RefreshTopic is the per-device topic a display may subscribe to.
func RefreshTopic(deviceID string) string {
	return fmt.Sprintf("display/%s/refresh", deviceID)
}

// Publisher implements pairing.Notifier over an MQTT broker.
type Publisher struct {
	client mqtt.Client
}

// NewPublisher connects to the broker. brokerURL is e.g. "tcp://host:1883".
func NewPublisher(brokerURL, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(mqtt.Client) {
		log.Info().Str("broker", brokerURL).Msg("connected to MQTT broker")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &Publisher{client: client}, nil
}

// NotifyDisplay publishes an empty refresh nudge for one device. Failures are
// logged and swallowed; devices fall back to their regular poll interval.
func (p *Publisher) NotifyDisplay(deviceID string) {
	token := p.client.Publish(RefreshTopic(deviceID), 0, false, []byte{})
	go func() {
		if token.Wait(); token.Error() != nil {
			log.Warn().Err(token.Error()).Str("device_id", deviceID).Msg("failed to publish refresh nudge")
		}
	}()
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
