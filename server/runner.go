package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pthm-cable/bounce/game"
	"github.com/pthm-cable/bounce/telemetry"
)

// Runner plays a session and publishes it to a hub.
type Runner struct {
	Session *game.Session
	Hub     *Hub

	// Every is the number of ticks between published snapshots.
	Every int
	// Interval is the wall-clock time per tick; zero runs unpaced.
	Interval time.Duration
	// Pause is the number of ticks a finished race keeps streaming.
	Pause int
	// Loop restarts the chain with the next seed after its last level.
	Loop bool
}

// Run steps the session until ctx is done or, without Loop, the chain ends.
func (r *Runner) Run(ctx context.Context) error {
	every := max(r.Every, 1)
	r.Session.OnRace = func(rr telemetry.RaceResult) {
		rr.LogStats()
		if err := r.Hub.PublishResult(rr, r.Session.Standings()); err != nil {
			slog.Error("publishing result", "error", err)
		}
	}

	var tick <-chan time.Time
	if r.Interval > 0 {
		t := time.NewTicker(r.Interval)
		defer t.Stop()
		tick = t.C
	}

	if err := r.Hub.PublishSnapshot(r.Session.Snapshot()); err != nil {
		return err
	}

	held := 0
	for n := 1; ; n++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		r.Session.Step()
		if n%every == 0 {
			if err := r.Hub.PublishSnapshot(r.Session.Snapshot()); err != nil {
				return err
			}
		}

		if !r.Session.Finished() {
			continue
		}
		if held++; held < r.Pause {
			continue
		}
		held = 0
		if r.Session.Done() && !r.Loop {
			return r.Hub.PublishSnapshot(r.Session.Snapshot())
		}
		if err := r.Session.Next(); err != nil {
			return fmt.Errorf("advancing chain: %w", err)
		}
	}
}

// Serve runs the runner and an HTTP server on addr until ctx is done or
// the runner stops. The server keeps serving results after a finite chain
// ends, until ctx is done.
func Serve(ctx context.Context, addr string, r *Runner) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(r.Hub).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- r.Run(ctx) }()

	var err error
	select {
	case err = <-errCh:
	case err = <-runErr:
		if err == nil {
			slog.Info("chain complete, serving results until interrupted")
			select {
			case <-ctx.Done():
			case err = <-errCh:
			}
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}
