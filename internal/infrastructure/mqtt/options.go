package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/aerial-hk/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	keepAlive      = 30 * time.Second

	// quiesceMillis lets the offline notice leave before the socket closes.
	quiesceMillis = 250

	// Telemetry events are a few hundred bytes; anything near this is a bug.
	maxPayloadSize = 64 << 10
)

// Presence states published on the system status topic.
const (
	presenceOnline  = "online"
	presenceOffline = "offline"
)

// presence is the retained document on the system status topic. The broker
// publishes the will form when the controller drops off without saying
// goodbye.
type presence struct {
	Vehicle string `json:"vehicle"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
	At      string `json:"at,omitempty"`
}

func (p presence) encode() []byte {
	b, _ := json.Marshal(p) //nolint:errcheck // strings only
	return b
}

func announce(vehicleID, status, reason string) []byte {
	return presence{
		Vehicle: vehicleID,
		Status:  status,
		Reason:  reason,
		At:      time.Now().UTC().Format(time.RFC3339),
	}.encode()
}

// clientOptions maps the mqtt section of config.yaml onto paho options.
// The session is clean because the controller never subscribes.
func clientOptions(cfg config.MQTTConfig, vehicleID string) *pahomqtt.ClientOptions {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}

	will := presence{Vehicle: vehicleID, Status: presenceOffline, Reason: "connection_lost"}
	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(seconds(cfg.Reconnect.InitialDelay)).
		SetMaxReconnectInterval(seconds(cfg.Reconnect.MaxDelay)).
		SetWill(Topics{}.SystemStatus(), string(will.encode()), 1, true)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username).SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return opts
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
