package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSBridge subscribes to publisher events on NATS and dispatches them
// into the Manager.
type NATSBridge struct {
	conn     *nats.Conn
	hub      *Manager
	tenantID string
	logger   zerolog.Logger
}

func NewNATSBridge(natsURL, tenantID string, hub *Manager, logger zerolog.Logger) (*NATSBridge, error) {
	nc, err := nats.Connect(natsURL, nats.Name("orderhub-realtime"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBridge{conn: nc, hub: hub, tenantID: tenantID, logger: logger}, nil
}

// EventSubject is the subject publishers use for one event kind.
func EventSubject(tenantID, kind string) string {
	return fmt.Sprintf("tenant.%s.events.%s", tenantID, kind)
}

// Subscribe listens on tenant.<tenantID>.events.*
func (b *NATSBridge) Subscribe() error {
	subject := EventSubject(b.tenantID, "*")
	_, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		b.handle(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", subject, err)
	}

	b.logger.Info().Str("subject", subject).Msg("NATS bridge subscribed")
	return nil
}

func (b *NATSBridge) handle(subject string, data []byte) {
	kind, err := parseKindFromSubject(subject)
	if err != nil {
		b.logger.Warn().Err(err).Str("subject", subject).Msg("NATS bad subject")
		return
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		b.logger.Warn().Err(err).Str("subject", subject).Msg("NATS unmarshal event")
		return
	}
	ev.Kind = kind

	delivered, err := b.hub.Dispatch(ev)
	if err != nil {
		b.logger.Warn().Err(err).Str("subject", subject).Msg("NATS event rejected")
		return
	}
	b.logger.Debug().Str("kind", kind).Int("delivered", delivered).Msg("NATS event dispatched")
}

// Close drains the NATS connection.
func (b *NATSBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Error().Err(err).Msg("NATS drain")
	}
}

// parseKindFromSubject extracts the kind from "tenant.<tid>.events.<kind>".
func parseKindFromSubject(subject string) (string, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 4 {
		return "", fmt.Errorf("expected 4 parts, got %d", len(parts))
	}
	if parts[0] != "tenant" || parts[2] != "events" {
		return "", fmt.Errorf("unexpected subject layout %q", subject)
	}
	if parts[3] == "" {
		return "", fmt.Errorf("empty event kind")
	}
	return parts[3], nil
}
