package browser

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/runstate"
)

// Handler is the import driver as seen by the runner.
type Handler interface {
	OnPageLoad(ctx context.Context) error
	State(ctx context.Context) (runstate.State, error)
	Stop(ctx context.Context, msg string) error
}

// Runner feeds page loads to the driver until the run finishes.
type Runner struct {
	h     Handler
	loads <-chan struct{}
	log   *zap.Logger

	// Stall bounds the wait for the next page load. Zero waits forever.
	Stall time.Duration
	// OnCycle, when set, sees the state after every handled load.
	OnCycle func(runstate.State)
}

func NewRunner(h Handler, loads <-chan struct{}, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{h: h, loads: loads, log: log, Stall: 2 * time.Minute}
}

// Run handles page loads until the state goes idle, normally by reaching
// FINISHED_STATE. With kick set the page already on screen is handled first,
// which resumes a run whose last load was never handled. A handler error
// stops the run with the error text before it is returned.
func (r *Runner) Run(ctx context.Context, kick bool) error {
	if kick {
		if done, err := r.cycle(ctx); done || err != nil {
			return err
		}
	} else if done, err := r.finished(ctx); done || err != nil {
		return err
	}
	for {
		if err := r.next(ctx); err != nil {
			return err
		}
		if done, err := r.cycle(ctx); done || err != nil {
			return err
		}
	}
}

// next blocks until the next page load.
func (r *Runner) next(ctx context.Context) error {
	var stall <-chan time.Time
	if r.Stall > 0 {
		t := time.NewTimer(r.Stall)
		defer t.Stop()
		stall = t.C
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-stall:
		return r.abort(ErrStalled)
	case _, ok := <-r.loads:
		if !ok {
			return r.abort(ErrClosed)
		}
	}
	return nil
}

func (r *Runner) cycle(ctx context.Context) (bool, error) {
	if err := r.h.OnPageLoad(ctx); err != nil {
		if ctx.Err() != nil {
			return true, err
		}
		return true, r.abort(err)
	}
	return r.finished(ctx)
}

func (r *Runner) finished(ctx context.Context) (bool, error) {
	st, err := r.h.State(ctx)
	if err != nil {
		return true, r.abort(err)
	}
	if r.OnCycle != nil {
		r.OnCycle(st)
	}
	return st.Action.Idle(), nil
}

// abort makes a best-effort stop so the persisted state does not resume into
// the failure, then returns err.
func (r *Runner) abort(err error) error {
	r.log.Error("import aborted", zap.Error(err))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := r.h.Stop(ctx, err.Error()); serr != nil {
		r.log.Warn("stop after failure", zap.Error(serr))
	}
	return err
}
