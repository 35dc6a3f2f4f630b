// cmd/matcher-service/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"program-matcher/internal/api"
	"program-matcher/internal/catalog"
	"program-matcher/internal/common/aws"
	"program-matcher/internal/common/camunda"
	"program-matcher/internal/common/config"
	"program-matcher/internal/common/database"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/common/observability"
	"program-matcher/internal/common/sheets"
	"program-matcher/internal/common/zoho"
	"program-matcher/internal/leads"
	"program-matcher/internal/matcher"

	notifylead "program-matcher/internal/workers/leads/notify-lead"
	submitlead "program-matcher/internal/workers/leads/submit-lead"
	matchprograms "program-matcher/internal/workers/matching/match-programs"

	"go.uber.org/zap"
)

const retryDelay = 2 * time.Second

// clients holds the optional backing services. A nil field means the
// service is not configured.
type clients struct {
	pg    *database.PostgresClient
	es    *database.ElasticsearchClient
	redis *database.RedisClient
	zeebe *camunda.Client
}

func (c *clients) Close(log logger.Logger) {
	if c.zeebe != nil {
		if err := c.zeebe.Close(); err != nil {
			log.Error("error closing zeebe client", map[string]interface{}{"error": err})
		}
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}
	if c.pg != nil {
		_ = c.pg.Close()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.Build(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.App.Name,
	})
	if err != nil {
		zapLog = logger.New(cfg.Logging.Level, "console")
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	log.Info("starting matcher service", map[string]interface{}{
		"environment": cfg.App.Environment,
		"version":     cfg.App.Version,
	})

	obs := observability.New(cfg.App.Name)

	ctx := context.Background()

	deps, err := connect(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("backing services unavailable", zap.Error(err))
	}

	catalogSvc, err := buildCatalog(ctx, cfg, deps, obs, log)
	if err != nil {
		zapLog.Fatal("program catalog unavailable", zap.Error(err))
	}

	notifyInline := !(deps.zeebe != nil && config.IsWorkerEnabled(cfg, notifylead.TaskType))
	leadSvc, err := buildLeads(ctx, cfg, deps, catalogSvc, notifyInline, log)
	if err != nil {
		zapLog.Fatal("lead service setup failed", zap.Error(err))
	}

	var pool *camunda.WorkerPool
	if deps.zeebe != nil {
		pool, err = startWorkers(cfg, deps.zeebe, catalogSvc, leadSvc, obs, log)
		if err != nil {
			zapLog.Fatal("invalid worker configuration", zap.Error(err))
		}
	}

	apiDeps := api.Dependencies{
		Catalog:       catalogSvc,
		Leads:         leadSvc,
		Readiness:     readinessChecks(deps),
		Logger:        log,
		SubmitTimeout: config.GetDuration(cfg.Leads.SubmitTimeout),
	}
	// The notify-lead process starts from the lead-submitted message.
	if !notifyInline {
		apiDeps.Events = deps.zeebe
	}
	server := api.NewServer(cfg.HTTP, apiDeps)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err := <-serverErr:
		if err != nil {
			log.Error("http server failed", map[string]interface{}{"error": err})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", map[string]interface{}{"error": err})
	}
	if pool != nil {
		pool.Close()
	}
	deps.Close(log)
	if err := obs.Shutdown(shutdownCtx); err != nil {
		log.Warn("observability shutdown failed", map[string]interface{}{"error": err})
	}

	log.Info("matcher service stopped", nil)
}

func connect(ctx context.Context, cfg *config.Config, log logger.Logger) (*clients, error) {
	c := &clients{}

	if cfg.Database.Postgres.Enabled() {
		err := camunda.RetryWithBackoff(ctx, 15, retryDelay, log, "PostgreSQL connection", func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			c.pg = pg
			return nil
		})
		if err != nil {
			return nil, err
		}
		if err := c.pg.Migrate(ctx); err != nil {
			return nil, err
		}
		log.Info("PostgreSQL connected successfully", nil)
	}

	if cfg.Database.Elasticsearch.Enabled() {
		err := camunda.RetryWithBackoff(ctx, 15, retryDelay, log, "Elasticsearch connection", func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			c.es = es
			return nil
		})
		if err != nil {
			return nil, err
		}
		log.Info("Elasticsearch connected successfully", nil)
	}

	if cfg.Database.Redis.Enabled() {
		err := camunda.RetryWithBackoff(ctx, 10, retryDelay, log, "Redis connection", func() error {
			rc, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				_ = rc.Close()
				return err
			}
			c.redis = rc
			return nil
		})
		if err != nil {
			return nil, err
		}
		log.Info("Redis connected successfully", nil)
	}

	if cfg.Camunda.Enabled {
		zc, err := camunda.Connect(ctx, &camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		}, 10, log)
		if err != nil {
			return nil, err
		}
		c.zeebe = zc
		log.Info("Zeebe client connected successfully", nil)
	}

	return c, nil
}

func buildCatalog(ctx context.Context, cfg *config.Config, c *clients, obs *observability.Observability, log logger.Logger) (*catalog.Service, error) {
	var src catalog.Source
	switch cfg.Dataset.Source {
	case "elasticsearch":
		src = catalog.NewElasticsearchSource(c.es.Client, cfg.Database.Elasticsearch.ProgramIndex)
	default:
		src = catalog.NewXLSXSource(cfg.Dataset.Path)
	}

	var cat *catalog.Catalog
	err := camunda.RetryWithBackoff(ctx, 3, retryDelay, log, "catalog load", func() error {
		var err error
		cat, err = catalog.Load(ctx, src)
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Info("program catalog loaded", map[string]interface{}{
		"source":    src.Name(),
		"programs":  cat.Len(),
		"countries": len(cat.Countries()),
		"version":   cat.Version(),
	})

	var cache *catalog.MatchCache
	if c.redis != nil {
		cache = catalog.NewMatchCache(c.redis, time.Duration(cfg.Database.Redis.CacheTTL)*time.Second)
	}

	return catalog.NewService(cat, matcher.New(cfg.Matcher), cache, obs, log), nil
}

func buildLeads(ctx context.Context, cfg *config.Config, c *clients, m leads.Matcher, notifyInline bool, log logger.Logger) (*leads.Service, error) {
	deps := leads.Dependencies{
		Matcher: m,
		Logger:  log,
	}

	if cfg.Sheets.Configured() {
		sheet, err := sheets.New(cfg.Sheets)
		if err != nil {
			return nil, err
		}
		deps.Sheet = sheet
	} else {
		log.Warn("sheets credentials missing, lead submissions will be rejected", nil)
	}

	if c.pg != nil {
		deps.Store = leads.NewStore(c.pg)
	}
	if c.redis != nil {
		deps.Deduper = leads.NewDeduper(c.redis, time.Duration(cfg.Leads.DedupeWindow)*time.Second)
	}

	zc := cfg.Integrations.Zoho
	if zc.Enabled {
		deps.CRM = zoho.NewCRMClient(zc.BaseURL, zc.AuthToken, config.GetDuration(zc.Timeout))
	}

	notifier, err := buildNotifier(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	deps.Notifier = notifier

	return leads.NewService(deps, leads.Options{
		MatchedTopN:  cfg.Leads.MatchedTopN,
		NotifyInline: notifyInline,
	}), nil
}

func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*leads.Notifier, error) {
	awsCfg := cfg.Integrations.AWS
	notes := cfg.Notifications

	var email leads.EmailSender
	if notes.Email.Enabled && awsCfg.SES.Enabled {
		ses, err := aws.NewSESClient(ctx, awsCfg.Region, awsCfg.SES.FromEmail)
		if err != nil {
			return nil, err
		}
		email = ses
	}

	var sms leads.SMSSender
	if notes.SMS.Enabled && awsCfg.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, awsCfg.Region, awsCfg.SNS.DefaultSMSSenderID)
		if err != nil {
			return nil, err
		}
		sms = sns
	}

	return leads.NewNotifier(email, notes.Email.Recipients, sms, notes.SMS.Message, log)
}

func startWorkers(cfg *config.Config, zc *camunda.Client, cat *catalog.Service, svc *leads.Service, obs *observability.Observability, log logger.Logger) (*camunda.WorkerPool, error) {
	mcfg := config.GetWorkerConfig(cfg, matchprograms.TaskType)
	matchCfg := matchprograms.FromWorkerConfig(mcfg)
	if err := matchCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", matchprograms.TaskType, err)
	}
	scfg := config.GetWorkerConfig(cfg, submitlead.TaskType)
	submitCfg := submitlead.FromWorkerConfig(scfg)
	if err := submitCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", submitlead.TaskType, err)
	}
	ncfg := config.GetWorkerConfig(cfg, notifylead.TaskType)
	notifyCfg := notifylead.FromWorkerConfig(ncfg)
	if err := notifyCfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", notifylead.TaskType, err)
	}

	pool := camunda.NewWorkerPool(zc.Zeebe(), obs, log)

	matchHandler := matchprograms.NewHandler(matchCfg, cat, log)
	pool.Start(matchprograms.TaskType, mcfg, matchHandler.Handle)

	submitHandler := submitlead.NewHandler(submitCfg, svc, log)
	pool.Start(submitlead.TaskType, scfg, submitHandler.Handle)

	notifyHandler := notifylead.NewHandler(notifyCfg, svc.Notifier(), log)
	pool.Start(notifylead.TaskType, ncfg, notifyHandler.Handle)

	log.Info("workers registered", map[string]interface{}{"running": pool.Running()})
	return pool, nil
}

func readinessChecks(c *clients) []api.ReadinessCheck {
	var checks []api.ReadinessCheck
	if c.pg != nil {
		checks = append(checks, api.ReadinessCheck{Name: "postgres", Check: c.pg.Ping})
	}
	if c.es != nil {
		checks = append(checks, api.ReadinessCheck{Name: "elasticsearch", Check: c.es.Ping})
	}
	if c.redis != nil {
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: c.redis.Ping})
	}
	if c.zeebe != nil {
		checks = append(checks, api.ReadinessCheck{Name: "zeebe", Check: c.zeebe.HealthCheck})
	}
	return checks
}
