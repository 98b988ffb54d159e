package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/angelmondragon/hourbid/pkg/config"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
	"github.com/angelmondragon/hourbid/pkg/logger"
)

const valueInputOption = "USER_ENTERED"

// GoogleWorkbook is a Workbook backed by the Sheets v4 API.
type GoogleWorkbook struct {
	service       *gsheets.Service
	spreadsheetID string
}

// NewGoogleWorkbook opens the spreadsheet behind rawURL. Service account
// credentials win over the fallback token source; extra options are appended
// last so callers can override the endpoint or HTTP client.
func NewGoogleWorkbook(ctx context.Context, rawURL string, cfg config.SheetsConfig, fallback oauth2.TokenSource, logg *logger.Logger, extra ...option.ClientOption) (*GoogleWorkbook, error) {
	spreadsheetID, err := ParseSpreadsheetURL(rawURL)
	if err != nil {
		return nil, err
	}

	opts := append(clientOptions(cfg, fallback), extra...)
	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sheets client")
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "spreadsheet_id", spreadsheetID), "sheets client initialized")
	}
	return &GoogleWorkbook{service: service, spreadsheetID: spreadsheetID}, nil
}

func clientOptions(cfg config.SheetsConfig, fallback oauth2.TokenSource) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case fallback != nil:
		opts = append(opts, option.WithTokenSource(fallback))
	}
	return opts
}

// SpreadsheetID is the document the workbook writes to.
func (w *GoogleWorkbook) SpreadsheetID() string {
	return w.spreadsheetID
}

func (w *GoogleWorkbook) SheetByName(ctx context.Context, title string) (Sheet, bool, error) {
	doc, err := w.service.Spreadsheets.Get(w.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return Sheet{}, false, pkgerrors.WrapRemote(err, "get spreadsheet")
	}
	for _, s := range doc.Sheets {
		if s == nil || s.Properties == nil {
			continue
		}
		if s.Properties.Title == title {
			return Sheet{ID: s.Properties.SheetId, Title: s.Properties.Title}, true, nil
		}
	}
	return Sheet{}, false, nil
}

func (w *GoogleWorkbook) DuplicateSheet(ctx context.Context, source Sheet, title string) (Sheet, error) {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			DuplicateSheet: &gsheets.DuplicateSheetRequest{
				SourceSheetId: source.ID,
				NewSheetName:  title,
				// The template is usually the first tab, whose id is 0.
				ForceSendFields: []string{"SourceSheetId"},
			},
		}},
	}
	resp, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return Sheet{}, pkgerrors.WrapRemote(err, fmt.Sprintf("duplicate sheet %q", source.Title))
	}
	if len(resp.Replies) == 0 || resp.Replies[0].DuplicateSheet == nil || resp.Replies[0].DuplicateSheet.Properties == nil {
		return Sheet{}, pkgerrors.New(pkgerrors.CodeDependency, "duplicate sheet returned no properties")
	}
	props := resp.Replies[0].DuplicateSheet.Properties
	return Sheet{ID: props.SheetId, Title: props.Title}, nil
}

func (w *GoogleWorkbook) WriteValues(ctx context.Context, sheet Sheet, values []CellValue) error {
	if len(values) == 0 {
		return nil
	}
	data := make([]*gsheets.ValueRange, 0, len(values))
	for _, v := range values {
		data = append(data, &gsheets.ValueRange{
			Range:  A1Range(sheet.Title, v.Cell),
			Values: [][]any{{v.Value}},
		})
	}
	req := &gsheets.BatchUpdateValuesRequest{
		ValueInputOption: valueInputOption,
		Data:             data,
	}
	if _, err := w.service.Spreadsheets.Values.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return pkgerrors.WrapRemote(err, fmt.Sprintf("write %d cells to %q", len(values), sheet.Title))
	}
	return nil
}

// A1Range qualifies a cell with its sheet title, quoting as Sheets requires.
func A1Range(title, cell string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + cell
}

var _ Workbook = (*GoogleWorkbook)(nil)
