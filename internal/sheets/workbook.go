package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/hourbid/internal/bidding"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
)

// Sheet is one tab of the reporting workbook.
type Sheet struct {
	ID    int64
	Title string
}

// CellValue is a single A1 cell write.
type CellValue struct {
	Cell  string
	Value any
}

// Workbook is the spreadsheet surface the bidder needs.
type Workbook interface {
	SheetByName(ctx context.Context, title string) (Sheet, bool, error)
	DuplicateSheet(ctx context.Context, source Sheet, title string) (Sheet, error)
	WriteValues(ctx context.Context, sheet Sheet, values []CellValue) error
}

// EnsureSheet returns the sheet named title, cloning the template when it
// does not exist yet. created reports whether a clone was made.
func EnsureSheet(ctx context.Context, wb Workbook, title, template string) (sheet Sheet, created bool, err error) {
	sheet, found, err := wb.SheetByName(ctx, title)
	if err != nil {
		return Sheet{}, false, err
	}
	if found {
		return sheet, false, nil
	}

	tmpl, found, err := wb.SheetByName(ctx, template)
	if err != nil {
		return Sheet{}, false, err
	}
	if !found {
		return Sheet{}, false, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("template sheet %q not found", template))
	}
	sheet, err = wb.DuplicateSheet(ctx, tmpl, title)
	if err != nil {
		return Sheet{}, false, err
	}
	return sheet, true, nil
}

// Batch collects the cell writes of one campaign so they can be flushed in a
// single call. Later writes to the same cell replace earlier ones.
type Batch struct {
	sheet  Sheet
	order  []string
	values map[string]any
}

func NewBatch(sheet Sheet) *Batch {
	return &Batch{sheet: sheet, values: map[string]any{}}
}

// SetAdjustment stages the display value of a modifier and the column's
// last-updated timestamp.
func (b *Batch) SetAdjustment(slot bidding.Slot, modifier float64, at time.Time) {
	b.set(CellFor(slot), bidding.SheetValue(modifier))
	b.set(TimestampCell(slot.DayOfWeek), FormatTimestamp(at))
}

func (b *Batch) set(cell string, value any) {
	if _, ok := b.values[cell]; !ok {
		b.order = append(b.order, cell)
	}
	b.values[cell] = value
}

// Len is the number of distinct cells staged.
func (b *Batch) Len() int {
	return len(b.order)
}

// Values returns the staged writes in first-write order.
func (b *Batch) Values() []CellValue {
	out := make([]CellValue, 0, len(b.order))
	for _, cell := range b.order {
		out = append(out, CellValue{Cell: cell, Value: b.values[cell]})
	}
	return out
}

// Flush writes the staged cells. Empty batches make no call.
func (b *Batch) Flush(ctx context.Context, wb Workbook) error {
	if b.Len() == 0 {
		return nil
	}
	return wb.WriteValues(ctx, b.sheet, b.Values())
}
