package main

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/db"
	"github.com/sells-group/assessment-cli/internal/fetcher"
	"github.com/sells-group/assessment-cli/internal/generate"
	"github.com/sells-group/assessment-cli/internal/monitoring"
	"github.com/sells-group/assessment-cli/internal/pipeline"
	"github.com/sells-group/assessment-cli/internal/prompt"
	"github.com/sells-group/assessment-cli/internal/registry"
	"github.com/sells-group/assessment-cli/internal/scorer"
	"github.com/sells-group/assessment-cli/internal/store"
)

// pipelineEnv holds the store, generator and pipeline shared by the serve
// and advise commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Rules    *registry.RuleCache
	Metrics  *monitoring.Metrics
	Health   *monitoring.Checker
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured knowledge backend.
func initStore(ctx context.Context) (store.Store, error) {
	k := cfg.Knowledge
	switch k.Driver {
	case store.DriverCosmos:
		return store.NewCosmos(store.CosmosConfig{
			Endpoint:     k.Endpoint,
			Key:          k.Key,
			Database:     k.Database,
			Container:    k.Container,
			PartitionKey: k.PartitionKey,
		})
	case store.DriverPostgres:
		return store.NewPostgres(ctx, k.DatabaseURL, db.PoolConfig{MaxConns: k.MaxConns})
	case store.DriverSQLite:
		return store.NewSQLite(k.Path)
	case store.DriverMemory:
		if k.Path == "" {
			zap.L().Warn("knowledge.path not set, using an empty in-memory knowledge base")
			return store.NewMemory(), nil
		}
		mem, err := store.LoadMemory(k.Path)
		if err != nil {
			return nil, err
		}
		zap.L().Info("knowledge fixture loaded", zap.String("path", k.Path), zap.Int("answers", mem.Len()))
		return mem, nil
	default:
		return nil, eris.Errorf("unsupported knowledge driver: %s", k.Driver)
	}
}

// ruleTableOptions maps the rules config section onto table read options.
func ruleTableOptions() fetcher.TableOptions {
	opts := fetcher.TableOptions{Sheet: cfg.Rules.Sheet}
	if r, size := utf8.DecodeRuneInString(cfg.Rules.Delimiter); size > 0 {
		opts.Delimiter = r
	}
	return opts
}

// generateSettings maps the generation config section onto provider settings.
func generateSettings() generate.Settings {
	g := cfg.Generation
	return generate.Settings{
		Provider:         g.Provider,
		Endpoint:         g.Endpoint,
		APIKey:           g.APIKey(),
		Deployment:       g.Deployment,
		APIVersion:       g.APIVersion,
		Model:            g.Model,
		Temperature:      g.Temperature,
		MaxTokens:        g.MaxTokens,
		RatePerSec:       g.RatePerSec,
		Burst:            g.Burst,
		Attempts:         g.Attempts,
		BreakerThreshold: g.BreakerThreshold,
		BreakerCooldown:  time.Duration(g.BreakerCooldownSecs) * time.Second,
	}
}

// initPipeline validates config for mode, opens the store, builds the
// generator and assembles the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	policy, err := scorer.ParsePolicy(cfg.Scoring.Policy)
	if err != nil {
		return nil, err
	}

	templates, err := prompt.LoadTemplates(cfg.Prompt.TemplatesPath)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	metrics := monitoring.NewMetrics()
	metrics.Registry().MustRegister(collectors.NewBuildInfoCollector())

	gen, err := generate.New(generateSettings(), metrics)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	rules := registry.NewRuleCache(cfg.Rules.Path, ruleTableOptions())
	lookup := store.NewLookup(st, metrics).
		WithTimeout(time.Duration(cfg.Knowledge.LookupTimeoutSecs) * time.Second)

	p := pipeline.New(rules, lookup, prompt.NewAssembler(templates), gen, pipeline.Options{
		Policy:         policy,
		MaxConcurrency: cfg.Pipeline.MaxConcurrency,
		ItemTimeout:    time.Duration(cfg.Pipeline.ItemTimeoutSecs) * time.Second,
	}, metrics)

	health := monitoring.NewChecker(5 * time.Second)
	health.Register("knowledge", st.Ping)
	health.Register("rules", func(context.Context) error {
		_, err := rules.Get()
		return err
	})

	zap.L().Info("pipeline initialized",
		zap.String("knowledge_driver", cfg.Knowledge.Driver),
		zap.String("provider", cfg.Generation.Provider),
		zap.String("rules", rules.Path()),
		zap.String("policy", string(policy)),
	)

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
		Rules:    rules,
		Metrics:  metrics,
		Health:   health,
	}, nil
}
