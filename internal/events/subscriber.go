package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	DeadLetterSubject = "warbler.events.failed"

	maxRetries = 3
	retryDelay = 2 * time.Second
)

// ActivitySubjects are the wildcards the activity worker listens on.
var ActivitySubjects = []string{"message.*", "user.*"}

// Activity is a received event before it is decoded into its typed form.
type Activity struct {
	Subject   string `json:"-"`
	EventType string `json:"event_type"`
	Data      []byte `json:"-"`
}

// Decode unmarshals the raw event into v.
func (a Activity) Decode(v any) error {
	return json.Unmarshal(a.Data, v)
}

type ActivityHandler func(ctx context.Context, activity Activity) error

// ErrMalformedEvent marks events that will never succeed; they skip retries.
var ErrMalformedEvent = errors.New("malformed event")

type subscriberConn interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subject string, data []byte) error
}

type ActivitySubscriber struct {
	conn    subscriberConn
	nc      *nats.Conn
	handle  ActivityHandler
	retries int
	sleep   func(time.Duration)
	subs    []*nats.Subscription
}

func NewActivitySubscriber(natsURL string, handle ActivityHandler) (*ActivitySubscriber, error) {
	nc, err := nats.Connect(natsURL, nats.Name("warbler-worker"))
	if err != nil {
		return nil, err
	}
	slog.Info("Activity subscriber connected to NATS.", "url", natsURL)

	return &ActivitySubscriber{
		conn:    nc,
		nc:      nc,
		handle:  handle,
		retries: maxRetries,
		sleep:   time.Sleep,
	}, nil
}

// Start subscribes to every activity subject.
func (s *ActivitySubscriber) Start() error {
	for _, subject := range ActivitySubjects {
		sub, err := s.conn.Subscribe(subject, s.onMessage)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
		slog.Info("Activity subscriber listening", "subject", subject)
	}
	return nil
}

// Close drains the subscriptions and the connection.
func (s *ActivitySubscriber) Close() {
	if s.nc == nil {
		return
	}
	if err := s.nc.Drain(); err != nil {
		slog.Warn("nats drain failed", "error", err)
	}
}

func (s *ActivitySubscriber) onMessage(msg *nats.Msg) {
	s.process(context.Background(), msg.Subject, msg.Data)
}

// process runs the handler with retries. Events that still fail are
// forwarded to DeadLetterSubject.
func (s *ActivitySubscriber) process(ctx context.Context, subject string, data []byte) {
	activity := Activity{Subject: subject, Data: data}
	if err := json.Unmarshal(data, &activity); err != nil {
		slog.ErrorContext(ctx, "failed to unmarshal activity event", "subject", subject, "error", err)
		s.deadLetter(ctx, subject, data)
		return
	}

	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		if err = s.handle(ctx, activity); err == nil {
			return
		}
		if errors.Is(err, ErrMalformedEvent) {
			break
		}
		slog.WarnContext(ctx, "activity handler failed",
			"subject", subject, "attempt", attempt, "error", err)
		if attempt < s.retries {
			s.sleep(retryDelay)
		}
	}

	slog.ErrorContext(ctx, "activity event dropped", "subject", subject, "error", err)
	s.deadLetter(ctx, subject, data)
}

func (s *ActivitySubscriber) deadLetter(ctx context.Context, subject string, data []byte) {
	if err := s.conn.Publish(DeadLetterSubject, data); err != nil {
		slog.ErrorContext(ctx, "failed to publish to dead letter subject", "subject", subject, "error", err)
	}
}
