package activities

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/browser"
	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/ingest"
	"github.com/yourorg/rips-import/internal/runstate"
	"github.com/yourorg/rips-import/internal/types"
)

// DriveBatch runs the import in a browser until the run state finishes. With
// an InputURI the first attempt begins that batch; retries and runs without
// one resume the stored batch from its current client.
func (a *Activities) DriveBatch(ctx context.Context, p types.ImportRunParams) (types.DriveResult, error) {
	info := activity.GetInfo(ctx)
	logger := activity.GetLogger(ctx)

	sess, err := a.open(ctx, a.cfg.Browser(), a.log)
	if err != nil {
		return types.DriveResult{}, fmt.Errorf("open browser: %w", err)
	}
	defer sess.Close()

	d := driver.New(a.store, sess.Page(), sess, a.rep, a.cfg.Driver(), a.log)
	res := types.DriveResult{}
	begin := p.InputURI != "" && info.Attempt <= 1

	if begin {
		logger.Info("loading batch", "inputURI", p.InputURI)
		parsed, err := ingest.Load(ctx, p.InputURI)
		if err != nil {
			return res, temporal.NewNonRetryableApplicationError(err.Error(), "InvalidInput", err)
		}
		if err := d.Begin(ctx, parsed.Batch, p.Settings); err != nil {
			if errors.Is(err, driver.ErrNoTargetTab) || errors.Is(err, driver.ErrTooManyTabs) {
				return res, temporal.NewNonRetryableApplicationError(err.Error(), "TabCount", err)
			}
			return res, err
		}
		for _, m := range parsed.Messages() {
			if err := a.store.AddMessage(ctx, m); err != nil {
				return res, err
			}
		}
		res.Records = len(parsed.Batch)
	} else {
		st, err := a.store.Load(ctx)
		if err != nil {
			return res, temporal.NewNonRetryableApplicationError(err.Error(), "RunState", err)
		}
		res.Records = len(st.ClientData)
		res.ClientIndex = st.ClientIndex
		logger.Info("resuming batch", "action", string(st.Action), "clientIndex", st.ClientIndex, "attempt", info.Attempt)
	}
	res.RunID = d.RunID()

	r := browser.NewRunner(d, sess.Loads(), a.log)
	r.OnCycle = func(st runstate.State) {
		res.PageLoads++
		if !st.Action.Idle() {
			res.ClientIndex = st.ClientIndex
		}
		activity.RecordHeartbeat(ctx, st.ClientIndex)
	}
	if err := r.Run(ctx, !begin); err != nil {
		a.log.Error("batch aborted", zap.String("run_id", res.RunID), zap.Error(err))
		return res, err
	}

	st, err := a.store.Load(ctx)
	if err != nil {
		return res, err
	}
	res.Messages = len(st.ErrorLog)
	logger.Info("batch finished", "runID", res.RunID, "records", res.Records, "messages", res.Messages)
	return res, nil
}
