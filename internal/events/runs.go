// Package events publishes run lifecycle events to Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/hourbid/internal/hourlybid"
)

const (
	EventRunCompleted     = "hourbid.run.completed"
	defaultPublishTimeout = 10 * time.Second
)

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// RunCompleted is the JSON payload of a run-completed event.
type RunCompleted struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Succeeded     bool      `json:"succeeded"`
	Error         string    `json:"error,omitempty"`
	Campaigns     int       `json:"campaigns"`
	Skipped       int       `json:"skipped"`
	SheetsCreated int       `json:"sheets_created"`
	Adjustments   int       `json:"adjustments"`
}

// RunPublisher implements hourlybid.RunNotifier on a Pub/Sub topic.
type RunPublisher struct {
	pub     publisher
	timeout time.Duration
	now     func() time.Time
}

// NewRunPublisher wraps a topic publisher.
func NewRunPublisher(p *gcppubsub.Publisher) (*RunPublisher, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return newRunPublisher(&gcpPublisher{Publisher: p}), nil
}

func newRunPublisher(pub publisher) *RunPublisher {
	return &RunPublisher{pub: pub, timeout: defaultPublishTimeout, now: time.Now}
}

func (p *RunPublisher) NotifyRun(ctx context.Context, summary hourlybid.Summary, runErr error) error {
	event := RunCompleted{
		RunID:         summary.RunID,
		StartedAt:     summary.StartedAt,
		FinishedAt:    p.now().UTC(),
		Succeeded:     runErr == nil,
		Campaigns:     summary.Campaigns,
		Skipped:       summary.Skipped,
		SheetsCreated: summary.SheetsCreated,
		Adjustments:   summary.Adjustments,
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": EventRunCompleted,
			"run_id":     summary.RunID,
			"succeeded":  strconv.FormatBool(event.Succeeded),
			"created_at": event.FinishedAt.Format(time.RFC3339Nano),
		},
	}

	publishCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	result := p.pub.Publish(publishCtx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}

var _ hourlybid.RunNotifier = (*RunPublisher)(nil)
