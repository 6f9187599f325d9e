// internal/export/exporter.go
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"fieldsales-console/internal/audit"
	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/common/metrics"
	"fieldsales-console/internal/crm"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/notify"
	"fieldsales-console/pkg/columns"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	VisitsFile    = "visits.csv"
	CustomersFile = "customers.xlsx"
)

// Observer is told about every finished export.
type Observer interface {
	RecordExport(ctx context.Context, format string, rows int, err error)
}

// Result describes a written export.
type Result struct {
	Path   string
	Format string
	Rows   int
}

type Options struct {
	Dir           string
	AdminPageSize int
	MaxPages      int
	Recipient     string
	Registry      *columns.Registry
	Audit         audit.Recorder
	Notifier      notify.Notifier
	Observer      Observer
	Logger        logger.Logger
}

// Exporter writes list exports into one directory. A file only appears under
// its final name once it has been written completely.
type Exporter struct {
	opts   Options
	logger logger.Logger
}

func New(opts Options) *Exporter {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.AdminPageSize <= 0 {
		opts.AdminPageSize = 10000
	}
	if opts.Registry == nil {
		opts.Registry = columns.Default()
	}
	if opts.Audit == nil {
		opts.Audit = audit.NoOp{}
	}
	return &Exporter{opts: opts, logger: logger.Component(opts.Logger, "export")}
}

// Scratch creates a private directory under the export dir. Callers that
// serve a file straight back point Job.Dir at it so concurrent runs never
// share a path. The returned func removes the directory and its contents.
func (e *Exporter) Scratch() (string, func(), error) {
	if err := os.MkdirAll(e.opts.Dir, 0o755); err != nil {
		return "", nil, err
	}
	dir, err := os.MkdirTemp(e.opts.Dir, ".run-")
	if err != nil {
		return "", nil, err
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// Job is one export run.
type Job[T any] struct {
	Entity   string
	Format   string
	FileName string
	Keys     []string
	Row      func(T) columns.Row
	Fetch    PageFunc[T]
	Query    listing.Query
	// Paged walks every page of Query; otherwise one oversized page is asked for.
	Paged bool
	// Dir overrides Options.Dir for this run.
	Dir string
}

// VisitsJob exports the visit list as visits.csv. Team-scoped queries are
// walked page by page; admin queries are fetched at once.
func VisitsJob(fetch PageFunc[models.Visit], q listing.Query, keys []string, teamScoped bool) Job[models.Visit] {
	return Job[models.Visit]{
		Entity:   "visits",
		Format:   FormatCSV,
		FileName: VisitsFile,
		Keys:     keys,
		Row:      crm.VisitRow,
		Fetch:    fetch,
		Query:    q,
		Paged:    teamScoped,
	}
}

// CustomersJob exports every store as customers.xlsx.
func CustomersJob(list func(ctx context.Context) ([]models.Store, error), keys []string) Job[models.Store] {
	return Job[models.Store]{
		Entity:   "stores",
		Format:   FormatXLSX,
		FileName: CustomersFile,
		Keys:     keys,
		Row:      crm.StoreRow,
		Fetch:    FromList(list),
	}
}

// Run collects, projects and writes job. Any failure aborts the run and
// leaves no file behind.
func Run[T any](ctx context.Context, e *Exporter, job Job[T]) (Result, error) {
	res, err := run(ctx, e, job)
	e.finish(ctx, job.Format, res, err)
	return res, err
}

func run[T any](ctx context.Context, e *Exporter, job Job[T]) (Result, error) {
	entity, err := e.opts.Registry.Entity(job.Entity)
	if err != nil {
		return Result{}, apperrors.NewExportFailedError(job.Format, err)
	}
	keys := job.Keys
	if len(keys) == 0 {
		keys = entity.DefaultKeys()
	}
	header, err := Headers(entity, keys)
	if err != nil {
		return Result{}, apperrors.NewExportFailedError(job.Format, err)
	}

	var items []T
	if job.Paged {
		items, err = CollectPages(ctx, job.Fetch, job.Query, e.opts.MaxPages)
	} else {
		items, err = CollectOnce(ctx, job.Fetch, job.Query, e.opts.AdminPageSize)
	}
	if err != nil {
		return Result{}, err
	}

	records := make([][]string, len(items))
	for i, item := range items {
		records[i] = job.Row(item).Project(keys)
	}

	dir := e.opts.Dir
	if job.Dir != "" {
		dir = job.Dir
	}
	target := filepath.Join(dir, job.FileName)
	switch job.Format {
	case FormatCSV:
		err = writeAtomic(target, func(f *os.File) error { return writeCSV(f, header, records) })
	case FormatXLSX:
		err = writeAtomic(target, func(f *os.File) error { return writeXLSX(f, entity, keys, header, records) })
	default:
		err = fmt.Errorf("unknown format %q", job.Format)
	}
	if err != nil {
		return Result{}, apperrors.NewExportFailedError(job.Format, err)
	}
	return Result{Path: target, Format: job.Format, Rows: len(records)}, nil
}

func (e *Exporter) finish(ctx context.Context, format string, res Result, err error) {
	if e.opts.Observer != nil {
		e.opts.Observer.RecordExport(ctx, format, res.Rows, err)
	}
	if err != nil {
		metrics.Exports.WithLabelValues(format, "failed").Inc()
		e.logger.Error("export failed", map[string]interface{}{
			"format": format,
			"error":  err.Error(),
		})
		return
	}

	metrics.Exports.WithLabelValues(format, "success").Inc()
	metrics.ExportRows.WithLabelValues(format).Observe(float64(res.Rows))
	e.logger.Info("export written", map[string]interface{}{
		"format": format,
		"path":   res.Path,
		"rows":   res.Rows,
	})

	if err := e.opts.Audit.Record(ctx, audit.Entry{
		Action:       audit.ActionExport,
		ResourceType: format,
		ResourceID:   filepath.Base(res.Path),
		Outcome:      "success",
		Details:      map[string]interface{}{"rows": res.Rows},
	}); err != nil {
		e.logger.Warn("audit record failed", map[string]interface{}{"error": err})
	}
	notify.Dispatch(ctx, e.opts.Notifier, e.logger, notify.Event{
		Kind:      notify.EventExportReady,
		Subject:   "Export ready: " + filepath.Base(res.Path),
		Body:      fmt.Sprintf("%d rows written.", res.Rows),
		Recipient: e.opts.Recipient,
		Attributes: map[string]string{
			"path": res.Path,
			"rows": strconv.Itoa(res.Rows),
		},
	})
}

// Headers maps keys to their display headers, keeping the order of keys.
func Headers(entity columns.Entity, keys []string) ([]string, error) {
	cols, err := entity.Select(keys)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Header
	}
	return out, nil
}

// writeAtomic writes into a temp file next to target and renames it into
// place once write succeeds.
func writeAtomic(target string, write func(*os.File) error) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmpPath := filepath.Join(dir, "."+filepath.Base(target)+"-"+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

func writeCSV(f *os.File, header []string, records [][]string) error {
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return w.Error()
}

const customersSheet = "Customers"

func writeXLSX(f *os.File, entity columns.Entity, keys, header []string, records [][]string) error {
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()

	index, err := book.NewSheet(customersSheet)
	if err != nil {
		return err
	}
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	book.SetActiveSheet(index)

	for c, v := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := book.SetCellValue(customersSheet, cell, v); err != nil {
			return err
		}
	}

	kinds := make([]string, len(keys))
	for i, k := range keys {
		if col, ok := entity.Column(k); ok {
			kinds[i] = col.Kind
		}
	}
	for r, rec := range records {
		for c, v := range rec {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := book.SetCellValue(customersSheet, cell, cellValue(kinds[c], v)); err != nil {
				return err
			}
		}
	}

	if len(header) > 0 {
		last, _ := excelize.ColumnNumberToName(len(header))
		_ = book.SetColWidth(customersSheet, "A", last, 20)
		style, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err == nil {
			_ = book.SetCellStyle(customersSheet, "A1", last+"1", style)
		}
	}

	_, err = book.WriteTo(f)
	return err
}

// cellValue keeps numeric columns numeric in the sheet.
func cellValue(kind, v string) interface{} {
	if kind == columns.KindNumber && v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return v
}
