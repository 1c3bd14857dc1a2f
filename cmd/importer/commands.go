package main

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/rips-import/internal/browser"
	"github.com/yourorg/rips-import/internal/driver"
	"github.com/yourorg/rips-import/internal/ingest"
	"github.com/yourorg/rips-import/internal/iopkg"
	"github.com/yourorg/rips-import/internal/metrics"
	"github.com/yourorg/rips-import/internal/runstate"
	"github.com/yourorg/rips-import/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file|s3://bucket/key>",
		Short: "Parse a sheet and report accepted and rejected rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ingest.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "columns: %v\n", res.Header)
			fmt.Fprintf(out, "records: %d\n", len(res.Batch))
			for _, m := range res.Messages() {
				fmt.Fprintln(out, m)
			}
			return nil
		},
	}
}

// settingsFlags binds the import settings; --settings takes a JSON document
// and wins over the individual flags.
type settingsFlags struct {
	raw string
	s   types.Settings
}

func (f *settingsFlags) bind(cmd *cobra.Command) {
	d := types.DefaultSettings()
	fl := cmd.Flags()
	fl.StringVar(&f.raw, "settings", "", "settings JSON (matchSettings, searchSettings, otherSettings)")
	fl.BoolVar(&f.s.MatchSettings.MatchFirst, "match-first", d.MatchSettings.MatchFirst, "match results on first name")
	fl.BoolVar(&f.s.MatchSettings.MatchLast, "match-last", d.MatchSettings.MatchLast, "match results on last name")
	fl.BoolVar(&f.s.SearchSettings.ByStarsNumber, "by-stars", d.SearchSettings.ByStarsNumber, "search by StARS number")
	fl.BoolVar(&f.s.SearchSettings.ByUnhcr, "by-unhcr", d.SearchSettings.ByUnhcr, "search by UNHCR number")
	fl.BoolVar(&f.s.SearchSettings.ByPhone, "by-phone", d.SearchSettings.ByPhone, "search by main phone")
	fl.BoolVar(&f.s.SearchSettings.ByOtherPhone, "by-other-phone", d.SearchSettings.ByOtherPhone, "search by other phone")
	fl.BoolVar(&f.s.OtherSettings.CreateNew, "create-new", d.OtherSettings.CreateNew, "register clients no search found")
}

func (f *settingsFlags) settings() (types.Settings, error) {
	if f.raw == "" {
		return f.s, nil
	}
	var s types.Settings
	if err := json.Unmarshal([]byte(f.raw), &s); err != nil {
		return types.Settings{}, fmt.Errorf("--settings: %w", err)
	}
	return s, nil
}

func startCmd() *cobra.Command {
	var sf settingsFlags
	cmd := &cobra.Command{
		Use:   "start <file|s3://bucket/key>",
		Short: "Begin a batch in the browser and drive it to the end",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			settings, err := sf.settings()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res, err := ingest.Load(ctx, args[0])
			if err != nil {
				return err
			}
			return e.drive(ctx, func(ctx context.Context, d *driver.Driver) (bool, error) {
				if err := d.Begin(ctx, res.Batch, settings); err != nil {
					return false, err
				}
				for _, m := range res.Messages() {
					if err := e.store.AddMessage(ctx, m); err != nil {
						return false, err
					}
				}
				e.log.Info("batch loaded", zap.String("source", args[0]),
					zap.Int("records", len(res.Batch)), zap.Int("rejected", len(res.Rejected)))
				return false, nil
			})
		}),
	}
	sf.bind(cmd)
	return cmd
}

func resumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Continue the stored batch from the page on screen",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			st, err := e.store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if st.Action.Idle() {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing to resume (%s)\n", st.Action)
				return nil
			}
			return e.drive(cmd.Context(), func(context.Context, *driver.Driver) (bool, error) {
				return true, nil
			})
		}),
	}
}

// drive opens the browser, lets prepare set the run up and then feeds page
// loads to the driver until the run is idle. prepare reports whether the
// page already on screen still has to be handled.
func (e *env) drive(ctx context.Context, prepare func(context.Context, *driver.Driver) (bool, error)) error {
	metrics.Init()
	go func() {
		if err := metrics.Serve(e.cfg.MetricsAddr); err != nil {
			e.log.Warn("metrics server", zap.Error(err))
		}
	}()

	rep, err := e.reporter(ctx)
	if err != nil {
		return err
	}
	sess, err := browser.Open(ctx, e.cfg.Browser(), e.log)
	if err != nil {
		return err
	}
	defer sess.Close()

	d := driver.New(e.store, sess.Page(), sess, rep, e.cfg.Driver(), e.log)
	kick, err := prepare(ctx, d)
	if err != nil {
		return err
	}
	if err := browser.NewRunner(d, sess.Loads(), e.log).Run(ctx, kick); err != nil {
		return err
	}
	st, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	e.log.Info("import finished", zap.String("run_id", d.RunID()), zap.Int("messages", len(st.ErrorLog)))
	return nil
}

func statusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the run state and the error log",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			st, err := e.store.Load(cmd.Context())
			if err != nil && !errors.Is(err, runstate.ErrSchemaVersion) {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			if err != nil {
				fmt.Fprintln(out, "warning:", err)
			}
			fmt.Fprintf(out, "action:  %s\n", st.Action)
			if n := len(st.ClientData); n > 0 {
				fmt.Fprintf(out, "client:  %d of %d\n", st.ClientIndex+1, n)
			}
			for _, m := range st.ErrorLog {
				fmt.Fprintln(out, m)
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the state as JSON")
	return cmd
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [message]",
		Short: "Stop the current batch, logging message",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			msg := ""
			if len(args) == 1 {
				msg = args[0]
			}
			return e.store.Stop(cmd.Context(), msg)
		}),
	}
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Reset every run state key",
		Args:  cobra.NoArgs,
		RunE: withEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			return e.store.Clear(cmd.Context())
		}),
	}
}

func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report [file|s3://bucket/key]",
		Short: "Write the error log, one message per line (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			st, err := e.store.Load(cmd.Context())
			if err != nil && !errors.Is(err, runstate.ErrSchemaVersion) {
				return err
			}
			if len(args) == 0 {
				for _, m := range st.ErrorLog {
					fmt.Fprintln(cmd.OutOrStdout(), m)
				}
				return nil
			}
			n, err := iopkg.WriteLines(cmd.Context(), args[0], st.ErrorLog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d lines to %s\n", n, args[0])
			return nil
		}),
	}
}
