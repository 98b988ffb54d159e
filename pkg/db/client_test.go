package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/hourbid/pkg/config"
	"github.com/angelmondragon/hourbid/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestDialectorForRejectsUnknownDriver(t *testing.T) {
	if _, err := dialectorFor(config.DBConfig{DSN: "x", Driver: "mysql"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
	dialector, err := dialectorFor(config.DBConfig{DSN: "file::memory:", Driver: DriverSQLite})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dialector.Name() != "sqlite" {
		t.Fatalf("expected sqlite dialector, got %s", dialector.Name())
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatal("expected missing DSN error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(errors.New("UNIQUE constraint failed: bid_adjustments.run_id"), "") {
		t.Fatal("expected sqlite unique violation to match")
	}
	if !IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "ux_bid_adjustments_slot"`), "ux_bid_adjustments_slot") {
		t.Fatal("expected postgres constraint to match")
	}
	if !IsUniqueViolation(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), "ux_bid_adjustments_slot") {
		t.Fatal("expected translated duplicate key to match")
	}
	if IsUniqueViolation(nil, "") || IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("unexpected match")
	}
}

func TestNewOpensSQLiteAndTranslatesDuplicates(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "history.db")
	client, err := New(ctx, config.DBConfig{DSN: dsn, Driver: DriverSQLite, MaxOpenConns: 1}, nil)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if client.Driver() != DriverSQLite {
		t.Fatalf("expected sqlite driver, got %s", client.Driver())
	}
	if err := client.DB().AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := client.DB().Create(&testModel{ID: 1, Name: "first"}).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	err = client.DB().Create(&testModel{ID: 1, Name: "again"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestQueryLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	buf := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Format: "json", Output: buf})
	ql := newQueryLogger(logg, 10*time.Millisecond)
	ctx := context.Background()
	statement := func() (string, int64) { return "SELECT 1", 1 }

	ql.Trace(ctx, time.Now(), statement, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected fast query to be quiet at warn level, got %s", buf.String())
	}

	ql.Trace(ctx, time.Now().Add(-time.Second), statement, nil)
	if !strings.Contains(buf.String(), `"message":"slow query"`) || !strings.Contains(buf.String(), `"sql":"SELECT 1"`) {
		t.Fatalf("expected slow query entry, got %s", buf.String())
	}

	buf.Reset()
	ql.Trace(ctx, time.Now(), statement, gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("expected record-not-found to be quiet, got %s", buf.String())
	}
	ql.Trace(ctx, time.Now(), statement, errors.New("no such table"))
	if !strings.Contains(buf.String(), `"message":"query failed"`) {
		t.Fatalf("expected failure entry, got %s", buf.String())
	}

	buf.Reset()
	ql.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), statement, errors.New("no such table"))
	if buf.Len() != 0 {
		t.Fatalf("expected silent mode to drop entries, got %s", buf.String())
	}
}
