package registry

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/fetcher"
	"github.com/sells-group/assessment-cli/internal/model"
)

// RuleCache loads the rule table on first use and keeps it for the life of
// the process. A failed load is not cached; the next call tries again.
type RuleCache struct {
	path string
	opts fetcher.TableOptions
	load func(string, fetcher.TableOptions) (model.RuleTable, error)

	mu    sync.Mutex
	table model.RuleTable
}

// NewRuleCache returns a cache backed by LoadRules.
func NewRuleCache(path string, opts fetcher.TableOptions) *RuleCache {
	return &RuleCache{path: path, opts: opts, load: LoadRules}
}

// StaticRules returns a cache pre-filled with table. Used by tests and by
// callers that already hold a parsed table.
func StaticRules(table model.RuleTable) *RuleCache {
	return &RuleCache{table: table, load: LoadRules}
}

// Path returns the rule source path.
func (c *RuleCache) Path() string { return c.path }

// Get returns the cached table, loading it if needed.
func (c *RuleCache) Get() (model.RuleTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table != nil {
		return c.table, nil
	}

	table, err := c.load(c.path, c.opts)
	if err != nil {
		zap.L().Error("registry: rule table load failed", zap.String("path", c.path), zap.Error(err))
		return nil, err
	}
	zap.L().Info("registry: rule table loaded",
		zap.String("path", c.path),
		zap.Int("questions", len(table)),
	)
	c.table = table
	return table, nil
}
