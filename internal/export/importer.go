// internal/export/importer.go
package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"fieldsales-console/internal/audit"
	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/notify"
	"fieldsales-console/pkg/columns"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const maxXLSRows = 100000

// storeFields sets one Store field from a cell. Keys are JSON field names.
var storeFields = map[string]func(*models.Store, string) error{
	"storeName":        func(s *models.Store, v string) error { s.StoreName = v; return nil },
	"clientFirstName":  func(s *models.Store, v string) error { s.ClientFirstName = v; return nil },
	"clientLastName":   func(s *models.Store, v string) error { s.ClientLastName = v; return nil },
	"primaryContact":   func(s *models.Store, v string) error { s.PrimaryContact = v; return nil },
	"secondaryContact": func(s *models.Store, v string) error { s.SecondaryContact = v; return nil },
	"email":            func(s *models.Store, v string) error { s.Email = v; return nil },
	"addressLine1":     func(s *models.Store, v string) error { s.AddressLine1 = v; return nil },
	"addressLine2":     func(s *models.Store, v string) error { s.AddressLine2 = v; return nil },
	"villageOrCity":    func(s *models.Store, v string) error { s.Village = v; return nil },
	"district":         func(s *models.Store, v string) error { s.District = v; return nil },
	"city":             func(s *models.Store, v string) error { s.City = v; return nil },
	"state":            func(s *models.Store, v string) error { s.State = v; return nil },
	"country":          func(s *models.Store, v string) error { s.Country = v; return nil },
	"pincode":          func(s *models.Store, v string) error { s.Pincode = v; return nil },
	"industry":         func(s *models.Store, v string) error { s.Industry = v; return nil },
	"clientName": func(s *models.Store, v string) error {
		parts := strings.Fields(v)
		if len(parts) > 0 {
			s.ClientFirstName = parts[0]
			s.ClientLastName = strings.Join(parts[1:], " ")
		}
		return nil
	},
	"clientType": func(s *models.Store, v string) error {
		s.ClientType = v
		return nil
	},
	"intent": func(s *models.Store, v string) error {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		s.Intent = int(n)
		return nil
	},
	"monthlySale": func(s *models.Store, v string) error {
		n, err := strconv.ParseFloat(v, 64)
		s.MonthlySale = n
		return err
	},
	"latitude": func(s *models.Store, v string) error {
		n, err := strconv.ParseFloat(v, 64)
		s.Latitude = n
		return err
	},
	"longitude": func(s *models.Store, v string) error {
		n, err := strconv.ParseFloat(v, 64)
		s.Longitude = n
		return err
	},
	"createdAt": func(s *models.Store, v string) error {
		d, err := normalizeDate(v)
		s.CreatedAt = d
		return err
	},
}

// RowError reports a sheet row that could not be read. Row is 1-based as
// shown by spreadsheet programs.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// ReadCustomers reads stores from an .xlsx or .xls sheet. The first row holds
// headers, matched case-insensitively against column keys and display
// headers. Rows with bad cells are returned as RowErrors next to the good
// ones.
func ReadCustomers(path string, registry *columns.Registry) ([]models.Store, []RowError, error) {
	read, invalid, err := readCustomers(path, registry)
	if err != nil {
		return nil, nil, err
	}
	stores := make([]models.Store, len(read))
	for i, r := range read {
		stores[i] = r.store
	}
	return stores, invalid, nil
}

type sheetStore struct {
	row   int
	store models.Store
}

func readCustomers(path string, registry *columns.Registry) ([]sheetStore, []RowError, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, nil, apperrors.NewImportFailedError(filepath.Base(path), err)
	}
	if registry == nil {
		registry = columns.Default()
	}

	fields := mapHeaders(rows[0], registry)
	if _, ok := fields["storeName"]; !ok {
		return nil, nil, apperrors.NewImportFailedError(filepath.Base(path), errors.New("no customer name column"))
	}

	var (
		stores  []sheetStore
		invalid []RowError
	)
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		var s models.Store
		var rowErr error
		for _, key := range storeFieldOrder {
			idx, ok := fields[key]
			if !ok {
				continue
			}
			v := cell(row, idx)
			if v == "" {
				continue
			}
			if err := storeFields[key](&s, v); err != nil {
				rowErr = fmt.Errorf("%s: %w", key, err)
				break
			}
		}
		if rowErr != nil {
			invalid = append(invalid, RowError{Row: i + 2, Err: rowErr})
			continue
		}
		stores = append(stores, sheetStore{row: i + 2, store: s})
	}
	return stores, invalid, nil
}

// storeFieldOrder applies sheet columns in a fixed order. The combined
// clientName goes first so explicit first/last name columns win over it.
var storeFieldOrder = func() []string {
	keys := make([]string, 0, len(storeFields))
	for k := range storeFields {
		if k != "clientName" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return append([]string{"clientName"}, keys...)
}()

func readRows(path string) ([][]string, error) {
	var rows [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls":
		book, err := xls.Open(path, "utf-8")
		if err != nil {
			return nil, err
		}
		if book.NumSheets() == 0 {
			return nil, errors.New("no worksheet found")
		}
		rows = book.ReadAllCells(maxXLSRows)
	case ".xlsx", ".xlsm":
		book, err := excelize.OpenFile(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = book.Close() }()

		sheet := book.GetSheetName(0)
		if sheet == "" {
			return nil, errors.New("no worksheet found")
		}
		rows, err = book.GetRows(sheet)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if len(rows) == 0 {
		return nil, errors.New("worksheet is empty")
	}
	return rows, nil
}

// mapHeaders resolves header cells to store field keys.
func mapHeaders(header []string, registry *columns.Registry) map[string]int {
	aliases := make(map[string]string, len(storeFields))
	for key := range storeFields {
		aliases[normalizeHeader(key)] = key
	}
	if entity, err := registry.Entity("stores"); err == nil {
		for _, c := range entity.Columns {
			if _, ok := storeFields[c.Key]; ok {
				aliases[normalizeHeader(c.Header)] = c.Key
			}
		}
	}

	out := make(map[string]int)
	for idx, h := range header {
		key, ok := aliases[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := out[key]; !seen {
			out[key] = idx
		}
	}
	return out
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), ""))
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// normalizeDate accepts backend dates and Excel serial day numbers.
func normalizeDate(v string) (string, error) {
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if serial < 1 || serial > 2958465 {
			return "", fmt.Errorf("date serial %v out of range", serial)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return "", err
		}
		return t.Format(listing.DateLayout), nil
	}
	t, ok := listing.ParseDate(v)
	if !ok {
		return "", fmt.Errorf("unrecognised date %q", v)
	}
	return t.Format(listing.DateLayout), nil
}

// Creator stores one imported customer.
type Creator interface {
	Create(ctx context.Context, store models.Store) (*models.Store, error)
}

// ImportSummary counts the outcome of an import.
type ImportSummary struct {
	Read    int
	Created int
	Failed  []RowError
}

// ImportCustomers reads path and creates every valid store through c. A
// failed create is recorded and the import continues with the next row.
func (e *Exporter) ImportCustomers(ctx context.Context, path string, c Creator) (ImportSummary, error) {
	stores, invalid, err := readCustomers(path, e.opts.Registry)
	if err != nil {
		e.logger.Error("import failed", map[string]interface{}{"path": path, "error": err.Error()})
		return ImportSummary{}, err
	}

	summary := ImportSummary{Read: len(stores) + len(invalid), Failed: invalid}
	for _, s := range stores {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, err := c.Create(ctx, s.store); err != nil {
			summary.Failed = append(summary.Failed, RowError{Row: s.row, Err: err})
			continue
		}
		summary.Created++
	}

	outcome := "success"
	if len(summary.Failed) > 0 {
		outcome = "partial"
	}
	e.logger.Info("import finished", map[string]interface{}{
		"path":    path,
		"read":    summary.Read,
		"created": summary.Created,
		"failed":  len(summary.Failed),
	})
	if err := e.opts.Audit.Record(ctx, audit.Entry{
		Action:       audit.ActionImport,
		ResourceType: "store",
		ResourceID:   filepath.Base(path),
		Outcome:      outcome,
		Details:      map[string]interface{}{"read": summary.Read, "created": summary.Created, "failed": len(summary.Failed)},
	}); err != nil {
		e.logger.Warn("audit record failed", map[string]interface{}{"error": err})
	}
	notify.Dispatch(ctx, e.opts.Notifier, e.logger, notify.Event{
		Kind:      notify.EventImportFinished,
		Subject:   "Customer import finished: " + filepath.Base(path),
		Body:      fmt.Sprintf("%d of %d customers created.", summary.Created, summary.Read),
		Recipient: e.opts.Recipient,
		Attributes: map[string]string{
			"created": strconv.Itoa(summary.Created),
			"failed":  strconv.Itoa(len(summary.Failed)),
		},
	})
	return summary, nil
}
