package workflow

import (
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/yourorg/rips-import/internal/activities"
	"github.com/yourorg/rips-import/internal/types"
)

// WorkflowName is the registered name of ImportRunWorkflow.
const WorkflowName = "ImportRunWorkflow"

// Registered activity names.
const (
	DriveBatchName    = "Activities.DriveBatch"
	ExportReportName  = "Activities.ExportReport"
	ClearRunStateName = "Activities.ClearRunState"
)

// Registry is satisfied by a Temporal worker and by the test environment.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register adds ImportRunWorkflow and its activities to r.
func Register(r Registry, a *activities.Activities) {
	r.RegisterActivityWithOptions(a.DriveBatch, activity.RegisterOptions{Name: DriveBatchName})
	r.RegisterActivityWithOptions(a.ExportReport, activity.RegisterOptions{Name: ExportReportName})
	r.RegisterActivityWithOptions(a.ClearRunState, activity.RegisterOptions{Name: ClearRunStateName})
	r.RegisterWorkflowWithOptions(ImportRunWorkflow, workflow.RegisterOptions{Name: WorkflowName})
}

// ImportRunWorkflow drives one batch to the end, then optionally exports the
// error log and clears the run state.
func ImportRunWorkflow(ctx workflow.Context, p types.ImportRunParams) (types.ImportRunResult, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 1 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    5 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	// one heartbeat per page load; a batch can run for hours
	driveAO := ao
	driveAO.StartToCloseTimeout = 12 * time.Hour
	driveAO.HeartbeatTimeout = 5 * time.Minute
	driveCtx := workflow.WithActivityOptions(ctx, driveAO)

	var out types.ImportRunResult
	if err := workflow.ExecuteActivity(driveCtx, DriveBatchName, p).Get(ctx, &out.Drive); err != nil {
		return out, err
	}

	if p.ReportURI != "" {
		rp := types.ReportParams{RunID: out.Drive.RunID, ReportURI: p.ReportURI}
		var rr types.ReportResult
		if err := workflow.ExecuteActivity(ctx, ExportReportName, rp).Get(ctx, &rr); err != nil {
			return out, err
		}
		out.Report = &rr
	}

	if p.ClearOnFinish {
		if err := workflow.ExecuteActivity(ctx, ClearRunStateName).Get(ctx, nil); err != nil {
			return out, err
		}
		out.Cleared = true
	}
	workflow.GetLogger(ctx).Info("import run done", "runID", out.Drive.RunID, "messages", out.Drive.Messages)
	return out, nil
}
