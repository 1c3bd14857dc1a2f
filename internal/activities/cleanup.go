package activities

import (
	"context"

	"go.temporal.io/sdk/activity"
)

// ClearRunState resets every run state key. Safe to call on a cleared store.
func (a *Activities) ClearRunState(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	activity.GetLogger(ctx).Info("run state cleared")
	return nil
}
