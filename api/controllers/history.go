package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/hourbid/api/responses"
	"github.com/angelmondragon/hourbid/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
	"github.com/angelmondragon/hourbid/pkg/logger"
)

const (
	defaultHistoryWindow = 7 * 24 * time.Hour
	defaultHistoryLimit  = 500
)

// HistoryReader is the read side of the adjustment history.
type HistoryReader interface {
	ListByRun(ctx context.Context, runID string) ([]models.BidAdjustment, error)
	ListByCampaign(ctx context.Context, campaignID int64, since time.Time, limit int) ([]models.BidAdjustment, error)
}

// RunAdjustments lists every modifier written by one run.
func RunAdjustments(repo HistoryReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runId")
		rows, err := repo.ListByRun(r.Context(), runID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list run adjustments"))
			return
		}
		if len(rows) == 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "run not found"))
			return
		}
		responses.WriteList(w, rows)
	}
}

// CampaignAdjustments lists a campaign's recent modifiers. The window defaults
// to the last seven days and accepts an RFC3339 since parameter.
func CampaignAdjustments(repo HistoryReader, logg *logger.Logger, now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID, err := strconv.ParseInt(chi.URLParam(r, "campaignId"), 10, 64)
		if err != nil || campaignID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid campaign id"))
			return
		}

		since := now().Add(-defaultHistoryWindow)
		if raw := r.URL.Query().Get("since"); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "since must be RFC3339").
					WithDetails(map[string]string{"field": "since"}))
				return
			}
			since = parsed
		}

		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer").
					WithDetails(map[string]string{"field": "limit"}))
				return
			}
			limit = min(parsed, defaultHistoryLimit)
		}

		rows, err := repo.ListByCampaign(r.Context(), campaignID, since, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list campaign adjustments"))
			return
		}
		responses.WriteList(w, rows)
	}
}
