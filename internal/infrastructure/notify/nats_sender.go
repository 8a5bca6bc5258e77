package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"cardtrack/internal/errs"
	"cardtrack/internal/ports"
)

// publisher is the subset of *nats.Conn the sender needs.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// Message is the JSON body published for one notification batch.
type Message struct {
	Tokens   []string `json:"tokens"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Category string   `json:"category"`
	SentAt   string   `json:"sentAt"`
}

// NATSSender publishes notifications to a push gateway listening on a NATS subject.
type NATSSender struct {
	conn    publisher
	subject string
	now     func() time.Time
	close   func()
}

// DialNATS connects to url and returns a sender publishing on subject.
func DialNATS(url string, subject string) (*NATSSender, error) {
	nc, err := nats.Connect(url,
		nats.Name("cardtrack-notifier"),
		nats.RetryOnFailedConnect(false),
	)
	if err != nil {
		return nil, errs.Wrapf(err, "connect nats %s", url)
	}
	s, err := newNATSSender(nc, subject)
	if err != nil {
		nc.Close()
		return nil, err
	}
	s.close = nc.Close
	return s, nil
}

func newNATSSender(conn publisher, subject string) (*NATSSender, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}
	return &NATSSender{conn: conn, subject: subject, now: time.Now}, nil
}

func (s *NATSSender) SendToMany(ctx context.Context, tokens []string, n ports.Notification) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if len(tokens) == 0 {
		return nil
	}

	data, err := json.Marshal(Message{
		Tokens:   tokens,
		Title:    n.Title,
		Body:     n.Body,
		Category: n.Category,
		SentAt:   s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return errs.Wrap(err, "marshal notification")
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		return errs.Wrapf(err, "publish to %s", s.subject)
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return errs.Wrap(err, "flush nats connection")
	}
	return nil
}

// Close closes the connection opened by DialNATS.
func (s *NATSSender) Close() {
	if s.close != nil {
		s.close()
	}
}
