package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"motocusto/internal/ports"
)

// Header is written on the first row of an empty sheet. User is last so
// one spreadsheet can hold every rider's entries.
var Header = []any{
	"ID", "Date", "Distance", "Gross", "Food", "Other",
	"Maintenance", "Total expense", "Net profit", "Expense %", "User",
}

const lastColumn = "K"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.SheetWriter = (*Client)(nil)

// Options selects the spreadsheet and the service-account credentials.
// CredentialsJSON wins over CredentialsFile.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID and one of GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Lancamentos").
func NewFromEnv(ctx context.Context) (*Client, error) {
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, Options{
		SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID")),
		SheetName:       strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME")),
		CredentialsJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		CredentialsFile: file,
	})
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.SpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := loadCredentials(opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", opts.SpreadsheetID)

	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if sheetName == "" {
		sheetName = "Lancamentos"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func loadCredentials(opts Options) ([]byte, error) {
	switch {
	case opts.CredentialsJSON != "":
		return []byte(opts.CredentialsJSON), nil
	case opts.CredentialsFile != "":
		b, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// UpsertEntry overwrites the row whose column A holds the entry ID, or
// appends a new row when there is none.
func (c *Client) UpsertEntry(ctx context.Context, row ports.SheetRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if row.Entry.ID == "" {
		return errors.New("entry without id cannot be mirrored")
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	values := FormatRow(row)

	if len(ids) == 0 {
		rng := fmt.Sprintf("%s!A1:%s2", c.sheetName, lastColumn)
		vr := &gsheet.ValueRange{Values: [][]any{Header, values}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
			return fmt.Errorf("write header and first row in %s: %w", c.sheetName, err)
		}
		return nil
	}

	if n := FindRow(ids, row.Entry.ID); n > 0 {
		rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, n, lastColumn, n)
		vr := &gsheet.ValueRange{Values: [][]any{values}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
			return fmt.Errorf("update row %d in %s: %w", n, c.sheetName, err)
		}
		return nil
	}

	rng := fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	if _, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do(); err != nil {
		return fmt.Errorf("append row to %s: %w", c.sheetName, err)
	}
	return nil
}

// DeleteEntry removes the row of the entry. A missing row is not an error.
func (c *Client) DeleteEntry(ctx context.Context, entryID string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	n := FindRow(ids, entryID)
	if n == 0 {
		return nil
	}

	sheetID, err := c.sheetID(ctx)
	if err != nil {
		return err
	}
	// StartIndex is 0 for the first row and would be dropped by omitempty.
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:         sheetID,
					Dimension:       "ROWS",
					StartIndex:      int64(n - 1),
					EndIndex:        int64(n),
					ForceSendFields: []string{"StartIndex"},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in %s: %w", n, c.sheetName, err)
	}
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return toStrings(resp.Values), nil
}

func (c *Client) sheetID(ctx context.Context) (int64, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read spreadsheet properties: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == c.sheetName {
			return s.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", c.sheetName)
}

// FormatRow lays out an entry and its breakdown in column order.
func FormatRow(row ports.SheetRow) []any {
	b := row.Breakdown
	return []any{
		row.Entry.ID,
		row.Entry.Date.String(),
		b.Distance,
		row.Entry.GrossEarnings,
		row.Entry.FoodExpense,
		row.Entry.OtherExpenses,
		b.MaintenanceCost,
		b.TotalExpense,
		b.NetProfit,
		b.ExpensePercentage,
		row.UserID,
	}
}

// FindRow returns the 1-based row number holding id in column A, or 0.
func FindRow(ids []string, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, v := range ids {
		if strings.TrimSpace(v) == id {
			return i + 1
		}
	}
	return 0
}

// toStrings flattens the first cell of every row. Empty rows keep their slot
// so indexes still match sheet rows.
func toStrings(rows [][]any) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			out[i] = fmt.Sprint(row[0])
		}
	}
	return out
}
