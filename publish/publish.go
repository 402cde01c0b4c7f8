// Package publish sends validation results to NATS.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/qfai/issue"
	"github.com/c360studio/qfai/validation"
)

// DefaultSubject is the subject validation results are published on.
const DefaultSubject = "qfai.validation.result"

// Publisher is the subset of *nats.Conn used here.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// flusher is implemented by *nats.Conn.
type flusher interface {
	FlushWithContext(ctx context.Context) error
}

// ResultEvent is the message published for one run.
type ResultEvent struct {
	RunID        string                  `json:"run_id"`
	ToolVersion  string                  `json:"tool_version"`
	Root         string                  `json:"root"`
	Failed       bool                    `json:"failed"`
	Counts       issue.Counts            `json:"counts"`
	Issues       []issue.Issue           `json:"issues"`
	Traceability validation.Traceability `json:"traceability"`
	PublishedAt  time.Time               `json:"published_at"`
}

// NewResultEvent builds the event for result.
func NewResultEvent(root string, result *validation.Result, failed bool) ResultEvent {
	return ResultEvent{
		RunID:        result.RunID,
		ToolVersion:  result.ToolVersion,
		Root:         root,
		Failed:       failed,
		Counts:       result.Counts,
		Issues:       result.Issues,
		Traceability: result.Traceability,
		PublishedAt:  time.Now().UTC(),
	}
}

// PublishResult publishes event on subject and flushes when the publisher
// supports it. A nil publisher is a no-op.
func PublishResult(ctx context.Context, p Publisher, subject string, event ResultEvent) error {
	if p == nil {
		return nil
	}
	if subject == "" {
		subject = DefaultSubject
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal result event: %w", err)
	}
	if err := p.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	if f, ok := p.(flusher); ok {
		if err := f.FlushWithContext(ctx); err != nil {
			return fmt.Errorf("flush %s: %w", subject, err)
		}
	}
	return nil
}

// Connect opens a NATS connection for publishing results.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("qfai"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(2),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", url, err)
	}
	logger.Debug("Connected to NATS", slog.String("url", nc.ConnectedUrl()))
	return nc, nil
}
