package driver

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/metrics"
	"github.com/yourorg/rips-import/internal/types"
)

// Reporter receives the audit trail of a run. Reporting never fails a
// handler; sinks log their own errors.
type Reporter interface {
	Report(ctx context.Context, o types.Outcome)
}

// Reporters fans an outcome out to every sink in order.
type Reporters []Reporter

func (rs Reporters) Report(ctx context.Context, o types.Outcome) {
	for _, r := range rs {
		if r != nil {
			r.Report(ctx, o)
		}
	}
}

// LogReporter writes outcomes to a zap logger.
type LogReporter struct{ Log *zap.Logger }

func (r LogReporter) Report(_ context.Context, o types.Outcome) {
	fields := []zap.Field{
		zap.String("run_id", o.RunID),
		zap.Int("client", o.ClientNumber),
		zap.String("kind", string(o.Kind)),
	}
	if o.Message != "" {
		fields = append(fields, zap.String("message", o.Message))
	}
	switch o.Kind {
	case types.OutcomeStopped:
		r.Log.Error("import outcome", fields...)
	case types.OutcomeSkipped:
		r.Log.Warn("import outcome", fields...)
	default:
		r.Log.Info("import outcome", fields...)
	}
}

// MetricsReporter counts outcomes in the prometheus collectors.
type MetricsReporter struct{}

func (MetricsReporter) Report(_ context.Context, o types.Outcome) {
	switch o.Kind {
	case types.OutcomeSkipped:
		metrics.ClientsSkipped.Inc()
	case types.OutcomeRegistered:
		metrics.ClientsRegistered.Inc()
	case types.OutcomeMatched:
		metrics.ClientsMatched.Inc()
	case types.OutcomeServiceAdded:
		metrics.ServicesAdded.Inc()
	case types.OutcomeActionAdded:
		metrics.ActionsAdded.Inc()
	case types.OutcomeStopped:
		metrics.ImportsAborted.Inc()
	case types.OutcomeCompleted:
		if o.ClientNumber == 0 {
			metrics.ImportsFinished.Inc()
		}
	}
}

// Recorder persists outcomes; db.OutcomeRepository implements it.
type Recorder interface {
	Record(ctx context.Context, o types.Outcome) (types.Outcome, error)
}

// RecorderReporter writes outcomes through a Recorder.
type RecorderReporter struct {
	Recorder Recorder
	Log      *zap.Logger
}

func (r RecorderReporter) Report(ctx context.Context, o types.Outcome) {
	if _, err := r.Recorder.Record(ctx, o); err != nil && r.Log != nil {
		r.Log.Warn("record outcome", zap.String("kind", string(o.Kind)), zap.Error(err))
	}
}
