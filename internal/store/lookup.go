package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/monitoring"
)

// ErrUnavailable marks a knowledge lookup that failed because the backend
// could not be reached or returned an error.
var ErrUnavailable = eris.New("knowledge store unavailable")

// Lookup adapts a Store to the pipeline's lookup contract: it never fails.
// Backend errors are logged, metered and reported as not found.
type Lookup struct {
	store   Store
	metrics *monitoring.Metrics
	timeout time.Duration
}

// NewLookup wraps s. metrics may be nil.
func NewLookup(s Store, metrics *monitoring.Metrics) *Lookup {
	return &Lookup{store: s, metrics: metrics}
}

// WithTimeout bounds each lookup call. Zero means no bound beyond ctx.
func (l *Lookup) WithTimeout(d time.Duration) *Lookup {
	l.timeout = d
	return l
}

// Lookup returns the template answer text for the pair and whether one was found.
func (l *Lookup) Lookup(ctx context.Context, questionID, category string) (string, bool) {
	if l == nil {
		return "", false
	}
	if l.store == nil {
		l.metrics.ObserveLookup(monitoring.LookupUnavailable)
		return "", false
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	a, err := l.store.GetAnswer(ctx, questionID, category)
	if err != nil {
		l.metrics.ObserveLookup(monitoring.LookupUnavailable)
		zap.L().Warn("knowledge lookup failed, treating as not found",
			zap.String("question_id", questionID),
			zap.String("category", category),
			zap.Error(eris.Wrap(ErrUnavailable, err.Error())),
		)
		return "", false
	}
	if a == nil {
		l.metrics.ObserveLookup(monitoring.LookupMiss)
		zap.L().Debug("knowledge answer not found",
			zap.String("question_id", questionID),
			zap.String("category", category),
		)
		return "", false
	}
	l.metrics.ObserveLookup(monitoring.LookupHit)
	return a.Text, true
}
