package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/hourbid/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.BidAdjustment{}))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func sampleRows(runID string, applied time.Time) []models.BidAdjustment {
	return []models.BidAdjustment{
		{RunID: runID, CampaignID: 42, CampaignName: "Brand", DayOfWeek: "WEDNESDAY", Hour: 14, Modifier: 0.75, Rule: "no_conversions", CampaignCPA: 20, AppliedAt: applied},
		{RunID: runID, CampaignID: 42, CampaignName: "Brand", DayOfWeek: "WEDNESDAY", Hour: 15, Modifier: 1, Rule: "neutral", CampaignCPA: 20, AppliedAt: applied},
	}
}

func TestRepositoryRecordAndList(t *testing.T) {
	db := newTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)
	ctx := context.Background()
	applied := time.Date(2026, 10, 21, 14, 10, 0, 0, time.UTC)

	rows := sampleRows("run-1", applied)
	require.NoError(t, repo.Record(ctx, rows))
	assert.Empty(t, rows[0].ID, "caller rows are not mutated")

	// Same run and slot again is ignored.
	require.NoError(t, repo.Record(ctx, sampleRows("run-1", applied)))

	stored, err := repo.ListByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.NotEmpty(t, stored[0].ID)
	assert.Equal(t, 14, stored[0].Hour)
	assert.Equal(t, "no_conversions", stored[0].Rule)

	require.NoError(t, repo.Record(ctx, sampleRows("run-2", applied.Add(time.Hour))))
	recent, err := repo.ListByCampaign(ctx, 42, applied.Add(30*time.Minute), 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "run-2", recent[0].RunID)

	limited, err := repo.ListByCampaign(ctx, 42, applied.Add(-time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRepositoryRecordDuplicateIDIsConflict(t *testing.T) {
	repo, err := NewRepository(newTestDB(t))
	require.NoError(t, err)
	ctx := context.Background()
	applied := time.Date(2026, 10, 21, 14, 10, 0, 0, time.UTC)

	first := sampleRows("run-1", applied)[:1]
	first[0].ID = "adj-1"
	require.NoError(t, repo.Record(ctx, first))

	other := sampleRows("run-2", applied)[:1]
	other[0].ID = "adj-1"
	err = repo.Record(ctx, other)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestRepositoryRecordEmptyIsNoop(t *testing.T) {
	repo, err := NewRepository(newTestDB(t))
	require.NoError(t, err)
	require.NoError(t, repo.Record(context.Background(), nil))
}

func TestRepositoryDeleteAppliedBefore(t *testing.T) {
	db := newTestDB(t)
	repo, err := NewRepository(db)
	require.NoError(t, err)
	ctx := context.Background()
	old := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, sampleRows("old", old)))
	require.NoError(t, repo.Record(ctx, sampleRows("recent", recent)))

	var deleted int64
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = repo.DeleteAppliedBefore(ctx, tx, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
		return err
	}))
	assert.Equal(t, int64(2), deleted)

	left, err := repo.ListByRun(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, left)
	kept, err := repo.ListByRun(ctx, "recent")
	require.NoError(t, err)
	assert.Len(t, kept, 2)
}

func TestNewRepositoryRequiresDB(t *testing.T) {
	_, err := NewRepository(nil)
	require.Error(t, err)
}

type fakeInserter struct {
	table string
	rows  []any
	err   error
}

func (f *fakeInserter) InsertRows(_ context.Context, table string, rows []any) error {
	f.table = table
	f.rows = rows
	return f.err
}

func TestBigQuerySink(t *testing.T) {
	inserter := &fakeInserter{}
	sink, err := NewBigQuerySink(inserter, " bid_adjustments ")
	require.NoError(t, err)

	rows := sampleRows("run-1", time.Now())
	require.NoError(t, sink.Record(context.Background(), rows))
	assert.Equal(t, "bid_adjustments", inserter.table)
	require.Len(t, inserter.rows, 2)
	assert.Equal(t, 15, inserter.rows[1].(*models.BidAdjustment).Hour)

	inserter.err = errors.New("quota exceeded")
	err = sink.Record(context.Background(), rows)
	require.ErrorIs(t, err, inserter.err)

	_, err = NewBigQuerySink(nil, "t")
	require.Error(t, err)
	_, err = NewBigQuerySink(inserter, "")
	require.Error(t, err)
}

func TestAdjustmentsTableSchema(t *testing.T) {
	spec, err := AdjustmentsTable(" bid_adjustments ")
	require.NoError(t, err)
	assert.Equal(t, "bid_adjustments", spec.Name)
	assert.Equal(t, "applied_at", spec.PartitionField)

	types := map[string]bigquery.FieldType{}
	for _, field := range spec.Schema {
		types[field.Name] = field.Type
	}
	assert.Equal(t, bigquery.TimestampFieldType, types["applied_at"])
	assert.Equal(t, bigquery.FloatFieldType, types["modifier"])
	assert.Equal(t, bigquery.IntegerFieldType, types["campaign_id"])
	assert.NotContains(t, types, "created_at")
}

type failingRecorder struct{ err error }

func (f failingRecorder) Record(context.Context, []models.BidAdjustment) error { return f.err }

func TestFanoutCombinesErrors(t *testing.T) {
	first := errors.New("db down")
	second := errors.New("bq down")
	inserter := &fakeInserter{}
	sink, err := NewBigQuerySink(inserter, "bid_adjustments")
	require.NoError(t, err)

	fanout := Fanout{failingRecorder{err: first}, nil, sink, failingRecorder{err: second}, Nop{}}
	err = fanout.Record(context.Background(), sampleRows("run-1", time.Now()))
	require.ErrorIs(t, err, first)
	require.ErrorIs(t, err, second)
	assert.Len(t, inserter.rows, 2, "later recorders still run after a failure")

	require.NoError(t, Fanout{failingRecorder{err: first}}.Record(context.Background(), nil))
}
