// Package worker turns order events into customer and admin emails.
package worker

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/you/curtain-store/pkg/events"
	"github.com/you/curtain-store/pkg/mailer"
	"github.com/you/curtain-store/pkg/mq"
)

type OrderMailer struct {
	m          mailer.Mailer
	adminEmail string
	log        zerolog.Logger
}

func NewOrderMailer(m mailer.Mailer, adminEmail string, log zerolog.Logger) *OrderMailer {
	return &OrderMailer{m: m, adminEmail: adminEmail, log: log}
}

// Handle is an mq.Handler. Undecodable payloads are dead-lettered. A
// delivery failure is requeued only when no mail went out; once one
// recipient has been mailed a retry would mail them again, so the event
// is dead-lettered instead. Unknown events are acked and skipped.
func (w *OrderMailer) Handle(ctx context.Context, env mq.Envelope) (bool, error) {
	l := w.log.With().Str("event", env.Event).Str("event_id", env.ID).Logger()

	switch env.Event {
	case events.RKOrderPlaced, events.RKOrderCancelled:
	default:
		l.Debug().Msg("skip unknown event")
		return false, nil
	}

	o, err := events.Decode[events.Order](env.Data)
	if err != nil {
		l.Error().Err(err).Msg("bad payload")
		return false, err
	}
	msgs, err := mailer.OrderMessages(env.Event, o, w.adminEmail)
	if err != nil {
		l.Error().Err(err).Msg("render mail")
		return false, err
	}

	var errs []error
	sent := 0
	for _, m := range msgs {
		if err := w.m.Send(ctx, m); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	if err := errors.Join(errs...); err != nil {
		if sent > 0 {
			l.Error().Err(err).Uint("order_id", o.ID).Int("sent", sent).Int("failed", len(errs)).
				Msg("mail partly failed, dead-letter")
			return false, err
		}
		l.Warn().Err(err).Uint("order_id", o.ID).Msg("mail failed, requeue")
		return true, err
	}
	l.Info().Uint("order_id", o.ID).Int("mails", len(msgs)).Msg("order mailed")
	return false, nil
}
