package handoff

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/apidoc/internal/content"
	"git.home.luguber.info/inful/apidoc/internal/foundation/errors"
	"git.home.luguber.info/inful/apidoc/internal/logfields"
)

// streamPublisher is the part of jetstream.JetStream the publisher needs.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSConfig configures the JetStream publisher.
type NATSConfig struct {
	URL     string
	Subject string
	Stream  string
	Timeout time.Duration
}

// NATSPublisher publishes one JetStream message per page. Message IDs combine
// the build ID and page path so a retried build does not duplicate pages.
type NATSPublisher struct {
	conn    *nats.Conn
	js      streamPublisher
	subject string
	timeout time.Duration
	logger  *slog.Logger
}

// NewNATSPublisher connects to NATS and makes sure the stream exists.
func NewNATSPublisher(ctx context.Context, cfg NATSConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(cfg.URL, nats.Name("apidoc"))
	if err != nil {
		return nil, errors.HandoffError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.URL).
			Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryHandoff, "failed to create JetStream context").Build()
	}
	if cfg.Stream != "" {
		_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "apidoc page handoff",
			Subjects:    []string{cfg.Subject + ".>"},
		})
		if err != nil {
			conn.Close()
			return nil, errors.WrapError(err, errors.CategoryHandoff, "failed to ensure handoff stream").
				WithContext("stream", cfg.Stream).
				Build()
		}
	}
	logger.Info("NATS handoff initialized", slog.String("url", cfg.URL), logfields.Subject(cfg.Subject))

	p := newNATSPublisher(js, cfg, logger)
	p.conn = conn
	return p, nil
}

func newNATSPublisher(js streamPublisher, cfg NATSConfig, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &NATSPublisher{js: js, subject: cfg.Subject, timeout: timeout, logger: logger}
}

// Subject returns the subject a build's pages are published on.
func (p *NATSPublisher) Subject(buildID string) string {
	return p.subject + "." + buildID
}

func (p *NATSPublisher) Publish(ctx context.Context, buildID string, root *content.Page) (int, error) {
	subject := p.Subject(buildID)
	published := 0
	for _, msg := range Flatten(buildID, root) {
		data, err := json.Marshal(msg)
		if err != nil {
			return published, errors.ContentError("failed to encode page message").WithCause(err).Build()
		}
		id := buildID + "/" + strings.Join(msg.Path, "/")
		pctx, cancel := context.WithTimeout(ctx, p.timeout)
		_, err = p.js.Publish(pctx, subject, data, jetstream.WithMsgID(id))
		cancel()
		if err != nil {
			return published, errors.HandoffError("failed to publish page").
				WithCause(err).
				WithContext("subject", subject).
				WithContext("page", id).
				Build()
		}
		published++
		p.logger.Debug("Published page", logfields.Subject(subject), logfields.Page(id))
	}
	return published, nil
}

func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}
