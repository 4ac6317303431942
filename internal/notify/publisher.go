package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"crewpay-orchestrator/internal/domain"
)

// Publisher dispatches notification records to NATS for consumption by
// the delivery service. Delivery itself (email, SMS) is out of scope.
//
// Subject convention: notifications.crewpay.<type>
//
// Publish operations are non-fatal: errors are logged but never
// propagated, so dispatch failures never fail a workflow run.
type Publisher struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// Event is the JSON payload published per notification.
type Event struct {
	RunID        string              `json:"run_id"`
	Notification domain.Notification `json:"notification"`
}

func NewPublisher(conn *nats.Conn, log zerolog.Logger) *Publisher {
	return &Publisher{conn: conn, log: log}
}

func (p *Publisher) Publish(ctx context.Context, runID string, n domain.Notification) {
	if p == nil || p.conn == nil {
		return
	}

	data, err := json.Marshal(Event{RunID: runID, Notification: n})
	if err != nil {
		p.log.Warn().Err(err).Str("run_id", runID).Msg("notify: failed to marshal event")
		return
	}

	subject := fmt.Sprintf("notifications.crewpay.%s", n.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.Warn().Err(err).
			Str("subject", subject).
			Str("run_id", runID).
			Str("recipient", n.Recipient).
			Msg("notify: publish failed")
		return
	}

	p.log.Debug().
		Str("subject", subject).
		Str("run_id", runID).
		Str("recipient", n.Recipient).
		Msg("notify: published")
}
