package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	pkgbigquery "github.com/angelmondragon/hourbid/pkg/bigquery"
	"github.com/angelmondragon/hourbid/pkg/db/models"
)

// AdjustmentsTable describes the analytics table, partitioned by the day the
// modifier was applied. The schema follows the bigquery tags on the model.
func AdjustmentsTable(name string) (pkgbigquery.TableSpec, error) {
	schema, err := bigquery.InferSchema(models.BidAdjustment{})
	if err != nil {
		return pkgbigquery.TableSpec{}, fmt.Errorf("infer adjustments schema: %w", err)
	}
	return pkgbigquery.TableSpec{
		Name:           strings.TrimSpace(name),
		Schema:         schema,
		PartitionField: "applied_at",
	}, nil
}

type rowInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQuerySink streams adjustment history to an analytics table.
type BigQuerySink struct {
	client rowInserter
	table  string
}

func NewBigQuerySink(client rowInserter, table string) (*BigQuerySink, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, errors.New("bigquery table required")
	}
	return &BigQuerySink{client: client, table: table}, nil
}

func (s *BigQuerySink) Record(ctx context.Context, rows []models.BidAdjustment) error {
	if len(rows) == 0 {
		return nil
	}
	payload := make([]any, 0, len(rows))
	for i := range rows {
		payload = append(payload, &rows[i])
	}
	if err := s.client.InsertRows(ctx, s.table, payload); err != nil {
		return fmt.Errorf("stream %d adjustments to %s: %w", len(rows), s.table, err)
	}
	return nil
}

var _ Recorder = (*BigQuerySink)(nil)
