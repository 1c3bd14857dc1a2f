package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/yourorg/rips-import/internal/iopkg"
	"github.com/yourorg/rips-import/internal/runstate"
	"github.com/yourorg/rips-import/internal/types"
)

// ExportReport writes the error log, one message per line, to p.ReportURI.
func (a *Activities) ExportReport(ctx context.Context, p types.ReportParams) (types.ReportResult, error) {
	st, err := a.store.Load(ctx)
	if err != nil && !errors.Is(err, runstate.ErrSchemaVersion) {
		return types.ReportResult{}, err
	}
	n, err := iopkg.WriteLines(ctx, p.ReportURI, st.ErrorLog)
	if err != nil {
		return types.ReportResult{}, fmt.Errorf("write report %s: %w", p.ReportURI, err)
	}
	activity.GetLogger(ctx).Info("report written", "runID", p.RunID, "uri", p.ReportURI, "lines", n)
	return types.ReportResult{URI: p.ReportURI, Lines: n}, nil
}
