// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"fieldsales-console/internal/audit"
	"fieldsales-console/internal/common/auth"
	"fieldsales-console/internal/common/config"
	"fieldsales-console/internal/common/database"
	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/crm"
	"fieldsales-console/internal/search"
	"fieldsales-console/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The suite talks to Redis, PostgreSQL and Elasticsearch on localhost and
// only runs when CONSOLE_E2E is set.
func TestMain(m *testing.M) {
	if os.Getenv("CONSOLE_E2E") == "" {
		fmt.Println("skipping e2e suite: CONSOLE_E2E is not set")
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func loadConfig(t *testing.T) *config.Config {
	cfg, err := config.Load()
	require.NoError(t, err)

	// force localhost for e2e runs
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.Addresses = nil
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"
	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "console-stores"
	}
	cfg.Database.Elasticsearch.Index += "-e2e"
	return cfg
}

// crmBackend stands in for the CRM REST API.
func crmBackend(t *testing.T) *httptest.Server {
	routes := map[string]string{
		"POST /user/token":              "tok-e2e",
		"GET /user/manage/current-user": `{"username":"e2e","authorities":[{"authority":"ROLE_ADMIN"}]}`,
		"POST /user/logout":             "",
		"GET /store/getAll":             `[{"id":1,"storeName":"Sharma Traders","city":"Pune","clientType":"Retail"},{"id":2,"storeName":"Mehta Stores","city":"Nagpur","clientType":"Wholesale"}]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ==========================
// 1. Service Connectivity
// ==========================
func TestServiceConnectivity(t *testing.T) {
	cfg := loadConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	defer pg.Close()
	assert.NoError(t, pg.Ping(ctx), "PostgreSQL ping failed")

	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	assert.NoError(t, rdb.Ping(ctx), "Redis ping failed")

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err, "Elasticsearch client creation failed")
	assert.NoError(t, es.Ping(ctx), "Elasticsearch ping failed")
}

// ==========================
// 2. Session In Redis + Audit In PostgreSQL
// ==========================
func TestLoginPersistsAndAudits(t *testing.T) {
	cfg := loadConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	log := logger.NewTestLogger(t)

	rdb := database.NewRedis(cfg.Database.Redis)
	defer rdb.Close()
	prefix := fmt.Sprintf("console-e2e-%d", time.Now().UnixNano())
	storage := session.NewRedisStorage(rdb.Client, prefix)
	t.Cleanup(func() { _ = storage.Clear(context.Background()) })

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer pg.Close()
	recorder := audit.NewPostgresRecorder(pg.DB, log)
	require.NoError(t, recorder.EnsureSchema(ctx))

	backend := crmBackend(t)
	transport := crmhttp.NewClient(backend.URL, 5*time.Second, log)
	store := session.NewStore(auth.NewClient(transport, ""), storage, log, session.WithAudit(recorder))

	require.NoError(t, store.Login(ctx, "e2e", "secret"))
	assert.True(t, store.IsAdmin())

	persisted, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-e2e", persisted.Token)

	entries, err := recorder.Recent(ctx, 10)
	require.NoError(t, err)
	found := false
	for _, e := range entries {
		if e.Action == audit.ActionLogin && e.Actor == "e2e" && e.Outcome == "success" {
			found = true
			break
		}
	}
	assert.True(t, found, "login entry missing from audit trail")

	require.NoError(t, store.Logout(ctx))
	persisted, err = storage.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted.Token)
}

// ==========================
// 3. Store Index In Elasticsearch
// ==========================
func TestStoreIndexRoundTrip(t *testing.T) {
	cfg := loadConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	log := logger.NewTestLogger(t)

	backend := crmBackend(t)
	transport := crmhttp.NewClient(backend.URL, 5*time.Second, log)
	store := session.NewStore(auth.NewClient(transport, ""), session.NewMemoryStorage(), log)
	require.NoError(t, store.Login(ctx, "e2e", "secret"))

	stores := crm.NewStores(crm.Deps{
		HTTP:        transport,
		Credentials: store,
		Validator:   validation.Default(),
		Logger:      log,
	})
	all, err := stores.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	index := search.NewStoreIndex(es.Client, cfg.Database.Elasticsearch.Index, log)
	require.NoError(t, index.EnsureIndex(ctx))
	t.Cleanup(func() {
		for _, s := range all {
			_ = index.Delete(context.Background(), s.ID)
		}
	})

	n, err := index.IndexStores(ctx, all)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := index.Search(ctx, search.Query{Text: "sharma", Size: 10})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "Sharma Traders", res.Hits[0].StoreName)

	res, err = index.Search(ctx, search.Query{City: "Nagpur", Size: 10})
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, int64(2), res.Hits[0].ID)
}
