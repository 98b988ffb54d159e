package history

import (
	"context"

	"go.uber.org/multierr"

	"github.com/angelmondragon/hourbid/pkg/db/models"
)

// Recorder stores the adjustments a run applied.
type Recorder interface {
	Record(ctx context.Context, rows []models.BidAdjustment) error
}

// Fanout sends every batch to all recorders and combines their errors.
type Fanout []Recorder

func (f Fanout) Record(ctx context.Context, rows []models.BidAdjustment) error {
	if len(rows) == 0 {
		return nil
	}
	var err error
	for _, r := range f {
		if r == nil {
			continue
		}
		err = multierr.Append(err, r.Record(ctx, rows))
	}
	return err
}

// Nop discards history.
type Nop struct{}

func (Nop) Record(context.Context, []models.BidAdjustment) error { return nil }
