// cmd/console/commands.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"fieldsales-console/internal/common/config"
	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/crm"
	"fieldsales-console/internal/export"
	"fieldsales-console/internal/listing"
	"fieldsales-console/internal/models"
	"fieldsales-console/internal/search"
	"fieldsales-console/internal/server"
	"fieldsales-console/internal/session"
)

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func dateRange(from, to string) (listing.DateRange, error) {
	var r listing.DateRange
	if from != "" {
		t, ok := listing.ParseDate(from)
		if !ok {
			return r, apperrors.NewValidationError("invalid date", map[string]string{"from": from})
		}
		r.From = t
	}
	if to != "" {
		t, ok := listing.ParseDate(to)
		if !ok {
			return r, apperrors.NewValidationError("invalid date", map[string]string{"to": to})
		}
		r.To = t
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, apperrors.NewValidationError("to is before from", nil)
	}
	return r, nil
}

// ==========================
// Session
// ==========================

func runServe(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", a.cfg.Server.Address, "listen address")
	_ = fs.Parse(args)

	srv := server.New(server.Deps{
		Shell:     a.shell,
		Store:     a.store,
		Visits:    a.visits,
		Stores:    a.stores,
		Employees: crm.NewEmployees(a.deps),
		Exporter:  a.exporter,
		Search:    a.index,
		Registry:  a.registry,
		Checks:    a.checks(),
		Logger:    a.log,
	})
	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      srv.Handler(),
		ReadTimeout:  config.GetDuration(a.cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(a.cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("console listening", map[string]interface{}{"addr": *addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received, draining requests", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", os.Getenv("CONSOLE_PASSWORD"), "password (defaults to $CONSOLE_PASSWORD)")
	_ = fs.Parse(args)

	if *username == "" || *password == "" {
		return apperrors.NewValidationError("username and password are required", nil)
	}
	view, err := a.shell.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	return printJSON(view.User)
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if _, err := a.shell.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("logged out")
	return nil
}

func runWhoami(_ context.Context, a *app, _ []string) error {
	view := a.shell.View()
	if view.Login {
		return session.ErrNoToken
	}
	return printJSON(view.User)
}

func runNav(_ context.Context, a *app, _ []string) error {
	view := a.shell.View()
	if view.Login {
		return session.ErrNoToken
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, e := range view.Nav {
		fmt.Fprintf(w, "%s\t%s\n", e.Label, e.Path)
	}
	return w.Flush()
}

// ==========================
// Lists
// ==========================

type listOptions struct {
	text   string
	status string
	sort   string
	page   int
	size   int
	keys   []string
	rng    listing.DateRange
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	entity := fs.String("entity", "visits", "visits, stores, employees, tasks, expenses or attendance")
	text := fs.String("q", "", "text filter")
	status := fs.String("status", "", "status selector")
	sortKey := fs.String("sort", "", "sort column")
	page := fs.Int("page", 1, "page number")
	size := fs.Int("size", a.cfg.Listing.PageSize, "page size")
	keys := fs.String("keys", "", "comma separated columns")
	from := fs.String("from", "", "start date")
	to := fs.String("to", "", "end date")
	_ = fs.Parse(args)

	rng, err := dateRange(*from, *to)
	if err != nil {
		return err
	}
	opts := listOptions{text: *text, status: *status, sort: *sortKey, page: *page, size: *size, keys: splitKeys(*keys), rng: rng}

	switch *entity {
	case "visits":
		return showList(ctx, a, opts, listing.Config[models.Visit]{
			Fetch: a.visits.PagedFetcher(), ID: crm.VisitID, Row: crm.VisitRow, Mode: listing.ServerSide,
		})
	case "stores":
		return showList(ctx, a, opts, listing.Config[models.Store]{
			Fetch: a.stores.FilterFetcher(), ID: crm.StoreID, Row: crm.StoreRow, Mode: listing.ServerSide,
		})
	case "employees":
		return showList(ctx, a, opts, listing.Config[models.Employee]{
			Fetch: crm.NewEmployees(a.deps).Fetcher(), ID: crm.EmployeeID, Row: crm.EmployeeRow,
		})
	case "tasks":
		return showList(ctx, a, opts, listing.Config[models.Task]{
			Fetch: crm.NewTasks(a.deps).Fetcher(), ID: crm.TaskID, Row: crm.TaskRow, DateKey: "dueDate",
		})
	case "expenses":
		return showList(ctx, a, opts, listing.Config[models.Expense]{
			Fetch: crm.NewExpenses(a.deps).Fetcher(), ID: crm.ExpenseID, Row: crm.ExpenseRow, DateKey: "expenseDate",
		})
	case "attendance":
		return showList(ctx, a, opts, listing.Config[models.Attendance]{
			Fetch: crm.NewAttendance(a.deps).Fetcher(), ID: crm.AttendanceID, Row: crm.AttendanceRow, DateKey: "checkinDate",
		})
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unknown entity %q", *entity), nil)
	}
}

// showList drives one list controller to a settled state and prints the
// visible page.
func showList[T any](ctx context.Context, a *app, opts listOptions, cfg listing.Config[T]) error {
	name := entityName[T]()
	entity, err := a.registry.Entity(name)
	if err != nil {
		return err
	}
	cfg.Entity = entity
	cfg.PageSize = opts.size
	cfg.Debounce = time.Millisecond
	cfg.Credentials = a.store
	cfg.Logger = a.log

	c := listing.New(cfg)
	defer c.Close()

	if opts.text != "" {
		c.SetFilter(listing.SearchKey, opts.text)
	}
	if opts.status != "" {
		c.SetSelector("status", opts.status)
	}
	if !opts.rng.IsZero() {
		c.SetRange(opts.rng.From, opts.rng.To)
	}
	if opts.sort != "" {
		c.SortBy(opts.sort)
	}
	if opts.page > 1 {
		c.SetPage(opts.page)
	}
	c.Refresh()

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	st := c.Snapshot()
	if st.Err != nil {
		return st.Err
	}

	keys := opts.keys
	if len(keys) == 0 {
		keys = c.VisibleColumns()
	}
	header, err := export.Headers(entity, keys)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, item := range st.Items {
		fmt.Fprintln(w, strings.Join(cfg.Row(item).Project(keys), "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\npage %d, %d of %d", st.Query.Page, len(st.Items), st.TotalCount)
	if opts.status != "" && cfg.Mode == listing.ServerSide {
		fmt.Print(" (total before the status filter)")
	}
	fmt.Println()
	return nil
}

func entityName[T any]() string {
	var zero T
	switch any(zero).(type) {
	case models.Visit:
		return "visits"
	case models.Store:
		return "stores"
	case models.Employee:
		return "employees"
	case models.Task:
		return "tasks"
	case models.Expense:
		return "expenses"
	case models.Attendance:
		return "attendance"
	default:
		return ""
	}
}

func runVisit(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return apperrors.NewValidationError("usage: console visit <id>", nil)
	}
	visit, status, err := a.visits.Status(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{"visit": visit, "status": status})
}

// ==========================
// Export / Import
// ==========================

func runExportVisits(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export-visits", flag.ExitOnError)
	keys := fs.String("keys", "", "comma separated columns (default: the list's default columns)")
	from := fs.String("from", "", "start date")
	to := fs.String("to", "", "end date")
	_ = fs.Parse(args)

	rng, err := dateRange(*from, *to)
	if err != nil {
		return err
	}
	token, err := session.RequireToken(a.store)
	if err != nil {
		return err
	}

	q := listing.Query{Range: rng, Size: a.cfg.Export.PageSize}
	teamScoped := a.store.Role() == models.RoleManager && a.store.TeamID() != 0
	fetch := func(ctx context.Context, q listing.Query) (models.Page[models.Visit], error) {
		return a.visits.ScopedPage(ctx, token, q)
	}

	res, err := export.Run(ctx, a.exporter, export.VisitsJob(fetch, q, splitKeys(*keys), teamScoped))
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", res.Rows, res.Path)
	return nil
}

func runExportCustomers(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export-customers", flag.ExitOnError)
	keys := fs.String("keys", "", "comma separated columns")
	_ = fs.Parse(args)

	if _, err := session.RequireToken(a.store); err != nil {
		return err
	}
	res, err := export.Run(ctx, a.exporter, export.CustomersJob(a.stores.GetAll, splitKeys(*keys)))
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", res.Rows, res.Path)
	return nil
}

func runImportCustomers(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("import-customers", flag.ExitOnError)
	file := fs.String("file", "", "path to an .xlsx or .xls sheet")
	_ = fs.Parse(args)

	if *file == "" {
		return apperrors.NewValidationError("-file is required", nil)
	}
	if _, err := session.RequireToken(a.store); err != nil {
		return err
	}

	summary, err := a.exporter.ImportCustomers(ctx, *file, a.stores)
	if err != nil {
		return err
	}
	fmt.Printf("read %d rows, created %d, failed %d\n", summary.Read, summary.Created, len(summary.Failed))
	for _, f := range summary.Failed {
		fmt.Printf("  row %d: %v\n", f.Row, f.Err)
	}
	return nil
}

// ==========================
// Search / Audit
// ==========================

func requireIndex(a *app) error {
	if a.index == nil {
		return apperrors.NewValidationError("search is disabled; set database.elasticsearch.enabled", nil)
	}
	return nil
}

func runIndexStores(ctx context.Context, a *app, _ []string) error {
	if err := requireIndex(a); err != nil {
		return err
	}
	stores, err := a.stores.GetAll(ctx)
	if err != nil {
		return err
	}
	if err := a.index.EnsureIndex(ctx); err != nil {
		return err
	}
	n, err := a.index.IndexStores(ctx, stores)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d of %d stores into %s\n", n, len(stores), a.index.Index())
	return nil
}

func runSearchStores(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("search-stores", flag.ExitOnError)
	text := fs.String("q", "", "text to match")
	city := fs.String("city", "", "exact city")
	clientType := fs.String("type", "", "exact client type")
	size := fs.Int("size", 20, "max hits")
	_ = fs.Parse(args)

	if err := requireIndex(a); err != nil {
		return err
	}
	res, err := a.index.Search(ctx, search.Query{Text: *text, City: *city, ClientType: *clientType, Size: *size})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCustomer Name\tClient Name\tCity\tPhone")
	for _, d := range res.Hits {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", d.ID, d.StoreName, d.ClientName, d.City, d.PrimaryContact)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d hits\n", res.Total)
	return nil
}

func runAudit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	limit := fs.Int("limit", 50, "number of entries")
	_ = fs.Parse(args)

	entries, err := a.recent(ctx, *limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTOR\tACTION\tRESOURCE\tOUTCOME")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s/%s\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.Actor, e.Action, e.ResourceType, e.ResourceID, e.Outcome)
	}
	return w.Flush()
}
