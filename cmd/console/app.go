// cmd/console/app.go
package main

import (
	"context"
	"fmt"
	"strings"

	"fieldsales-console/internal/audit"
	"fieldsales-console/internal/common/auth"
	awsclients "fieldsales-console/internal/common/aws"
	"fieldsales-console/internal/common/config"
	"fieldsales-console/internal/common/database"
	crmhttp "fieldsales-console/internal/common/http"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/common/observability"
	"fieldsales-console/internal/common/validation"
	"fieldsales-console/internal/crm"
	"fieldsales-console/internal/export"
	"fieldsales-console/internal/notify"
	"fieldsales-console/internal/search"
	"fieldsales-console/internal/server"
	"fieldsales-console/internal/session"
	"fieldsales-console/internal/shell"
	"fieldsales-console/pkg/columns"

	"github.com/prometheus/client_golang/prometheus"
)

// app is the composition root. Optional backends stay nil when disabled.
type app struct {
	cfg *config.Config
	log logger.Logger

	obs     *observability.Observability
	tracing *observability.Tracing

	redis    *database.RedisClient
	postgres *database.PostgresClient
	elastic  *database.ElasticsearchClient

	audit    audit.Recorder
	notifier notify.Notifier
	registry *columns.Registry

	store    *session.Store
	shell    *shell.Shell
	deps     crm.Deps
	stores   *crm.Stores
	visits   *crm.Visits
	exporter *export.Exporter
	index    *search.StoreIndex
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, audit: audit.NoOp{}, registry: columns.Default()}

	a.obs = observability.New(cfg.Observability.ServiceName, prometheus.DefaultRegisterer, log)
	tracing, err := observability.NewTracing(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.tracing = tracing

	storage, err := a.sessionStorage()
	if err != nil {
		a.close()
		return nil, err
	}
	if err := a.connectAudit(ctx); err != nil {
		a.close()
		return nil, err
	}
	if err := a.connectSearch(); err != nil {
		a.close()
		return nil, err
	}
	a.notifier = a.notifiers(ctx)

	transport := crmhttp.NewClient(cfg.API.BaseURL, config.GetDuration(cfg.API.Timeout), log)
	authClient := auth.NewClient(transport, cfg.Auth.ValidatePath)

	a.store = session.NewStore(authClient, storage, log,
		session.WithAudit(a.audit),
		session.WithObserver(a.obs),
	)
	a.shell = shell.New(a.store, validatorFor(cfg.Auth.Rehydrate, authClient), log)

	a.deps = crm.Deps{
		HTTP:        transport,
		Credentials: a.store,
		Validator:   validation.Default(),
		Audit:       a.audit,
		Notifier:    a.notifier,
		Logger:      log,
	}
	a.stores = crm.NewStores(a.deps)
	a.visits = crm.NewVisits(a.deps)
	a.exporter = export.New(export.Options{
		Dir:           cfg.Export.Dir,
		AdminPageSize: cfg.Export.AdminPageSize,
		MaxPages:      cfg.Export.MaxPages,
		Recipient:     cfg.Export.Recipient,
		Registry:      a.registry,
		Audit:         a.audit,
		Notifier:      a.notifier,
		Observer:      a.obs,
		Logger:        log,
	})

	if err := a.shell.Boot(ctx); err != nil {
		a.log.Warn("session rehydrate failed", map[string]interface{}{"error": err.Error()})
	}
	return a, nil
}

func validatorFor(policy string, client *auth.Client) auth.TokenValidator {
	switch policy {
	case config.RehydrateExpiry:
		return auth.ExpiryValidator{}
	case config.RehydrateRemote:
		return auth.RemoteValidator{Client: client}
	default:
		return auth.TrustValidator{}
	}
}

func (a *app) sessionStorage() (session.Storage, error) {
	switch a.cfg.Storage.Backend {
	case config.StorageMemory:
		return session.NewMemoryStorage(), nil
	case config.StorageRedis:
		a.redis = database.NewRedis(a.cfg.Database.Redis)
		return session.NewRedisStorage(a.redis.Client, a.cfg.Storage.KeyPrefix), nil
	case config.StorageFile, "":
		return session.NewFileStorage(a.cfg.Storage.FilePath), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", a.cfg.Storage.Backend)
	}
}

func (a *app) connectAudit(ctx context.Context) error {
	if !a.cfg.Database.Postgres.Enabled {
		return nil
	}
	pg, err := database.NewPostgres(a.cfg.Database.Postgres)
	if err != nil {
		return err
	}
	a.postgres = pg

	recorder := audit.NewPostgresRecorder(pg.DB, a.log)
	if err := recorder.EnsureSchema(ctx); err != nil {
		return err
	}
	a.audit = recorder
	return nil
}

func (a *app) connectSearch() error {
	if !a.cfg.Database.Elasticsearch.Enabled {
		return nil
	}
	es, err := database.NewElasticsearch(a.cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}
	a.elastic = es
	a.index = search.NewStoreIndex(es.Client, a.cfg.Database.Elasticsearch.Index, a.log)
	return nil
}

// notifiers fans out to every enabled channel. A channel that cannot be set
// up is logged and skipped.
func (a *app) notifiers(ctx context.Context) notify.Notifier {
	var out notify.Multi
	integrations := a.cfg.Integrations

	if integrations.AWS.SES.Enabled || integrations.AWS.SNS.Enabled {
		awsCfg, err := awsclients.LoadConfig(ctx, integrations.AWS.Region)
		if err != nil {
			a.log.Warn("aws notifications disabled", map[string]interface{}{"error": err.Error()})
		} else {
			if integrations.AWS.SES.Enabled {
				out = append(out, notify.NewEmail(awsclients.NewSESClient(awsCfg), integrations.AWS.SES.FromEmail, a.cfg.Export.Recipient))
			}
			if integrations.AWS.SNS.Enabled {
				out = append(out, notify.NewTopic(awsclients.NewSNSClient(awsCfg), integrations.AWS.SNS.TopicARN))
			}
		}
	}

	if integrations.Telegram.Enabled {
		bot, err := notify.NewTelegramBot(integrations.Telegram.BotToken, integrations.Telegram.ChatID)
		if err != nil {
			a.log.Warn("telegram notifications disabled", map[string]interface{}{"error": err.Error()})
		} else {
			out = append(out, bot)
		}
	}

	if len(out) == 0 {
		return notify.Nop{}
	}
	return out
}

// checks lists the backends /readyz pings.
func (a *app) checks() map[string]server.Pinger {
	out := map[string]server.Pinger{}
	if a.redis != nil {
		out["redis"] = a.redis
	}
	if a.postgres != nil {
		out["postgres"] = a.postgres
	}
	if a.elastic != nil {
		out["elasticsearch"] = a.elastic
	}
	return out
}

func (a *app) recent(ctx context.Context, limit int) ([]audit.Entry, error) {
	pg, ok := a.audit.(*audit.PostgresRecorder)
	if !ok {
		return nil, fmt.Errorf("audit trail is disabled; set database.postgres.enabled")
	}
	return pg.Recent(ctx, limit)
}

func (a *app) close() {
	var errs []string
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if a.tracing != nil {
		a.tracing.Shutdown()
	}
	if a.obs != nil {
		a.obs.Shutdown()
	}
	if len(errs) > 0 {
		a.log.Warn("shutdown errors", map[string]interface{}{"errors": strings.Join(errs, "; ")})
	}
}
