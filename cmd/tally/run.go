package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/goodtune/tally/internal/analytics"
	"github.com/goodtune/tally/internal/metrics"
	"github.com/goodtune/tally/internal/storage"
	"github.com/goodtune/tally/internal/timer"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:     "run REF",
	Aliases: []string{"start"},
	Short:   "Run the timer for an activity",
	Long: `Start the timer for an activity and control it from standard input:

  p, pause        pause the timer
  r, resume       resume a paused timer
  s, stop         stop, save the entry and exit
  switch REF      save the current run and start timing another activity
  status          show the current state
  help            show this help

Interrupting (Ctrl-C) or closing standard input also stops and saves the run.`,
	Example: `  tally run Reading`,
	Args:    cobra.ExactArgs(1),
	RunE:    runTimer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runTimer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	activity, err := resolveActivity(ctx, a.store, args[0])
	if err != nil {
		return err
	}

	// Initialize Metrics Server
	if a.cfg.Metrics.Enabled {
		metricsAddr := fmt.Sprintf("%s:%d", a.cfg.Metrics.BindAddress, a.cfg.Metrics.Port)
		metricsServer := metrics.NewServer(metricsAddr, a.logger)
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			if err := metricsServer.Stop(); err != nil {
				a.logger.Error().Err(err).Msg("Error stopping metrics server")
			}
		}()
	}

	tm := timer.New(a.store, timer.Config{
		TickInterval: parseDuration(a.cfg.Timer.TickInterval, timer.DefaultTickInterval),
	}, a.logger)

	// Save a run still active on any exit path
	defer func() {
		if err := tm.Close(context.Background()); err != nil {
			a.logger.Error().Err(err).Msg("Failed to save running timer")
		}
	}()

	c := newConsole(tm, a.store, cmd.OutOrStdout())
	return c.run(ctx, activity.ID, cmd.InOrStdin())
}

// console drives a timer from line commands and renders its events
type console struct {
	timer *timer.Timer
	store storage.Store
	out   io.Writer
	mu    sync.Mutex

	green  *color.Color
	yellow *color.Color
	cyan   *color.Color
	red    *color.Color
}

func newConsole(tm *timer.Timer, store storage.Store, out io.Writer) *console {
	return &console{
		timer:  tm,
		store:  store,
		out:    out,
		green:  color.New(color.FgGreen, color.Bold),
		yellow: color.New(color.FgYellow, color.Bold),
		cyan:   color.New(color.FgCyan, color.Bold),
		red:    color.New(color.FgRed, color.Bold),
	}
}

// run starts activityID and processes commands until stop, EOF or ctx is done
func (c *console) run(ctx context.Context, activityID string, in io.Reader) error {
	unsubscribe := c.timer.Subscribe(c.render)
	defer unsubscribe()

	if _, err := c.timer.Start(ctx, activityID); err != nil {
		return err
	}

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.printf("\nInterrupted, saving the current run\n")
			return c.stop(context.Background())
		case line, ok := <-lines:
			if !ok {
				return c.stop(ctx)
			}
			finished, err := c.handle(ctx, line)
			if finished {
				return err
			}
			if err != nil {
				c.printf("%s\n", c.red.Sprint(err))
			}
		}
	}
}

// handle executes one command line. done reports that the session is over.
func (c *console) handle(ctx context.Context, line string) (done bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch strings.ToLower(fields[0]) {
	case "p", "pause":
		return false, c.timer.Pause()
	case "r", "resume":
		return false, c.timer.Resume()
	case "s", "stop", "q", "quit", "exit":
		return true, c.stop(ctx)
	case "switch", "sw":
		if len(fields) < 2 {
			return false, fmt.Errorf("usage: switch REF")
		}
		activity, err := resolveActivity(ctx, c.store, strings.Join(fields[1:], " "))
		if err != nil {
			return false, err
		}
		previous, err := c.timer.Start(ctx, activity.ID)
		if previous != nil && err == nil {
			c.printf("Saved %s\n", analytics.FormatDuration(previous.Duration))
		}
		return false, err
	case "status", "st":
		c.status()
		return false, nil
	case "help", "h", "?":
		c.printf("%s\n", "commands: p(ause), r(esume), s(top), switch REF, status, help")
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q (try help)", fields[0])
	}
}

func (c *console) stop(ctx context.Context) error {
	entry, err := c.timer.Stop(ctx)
	if err != nil {
		return err
	}
	if entry != nil {
		c.printf("Saved %s\n", analytics.FormatDuration(entry.Duration))
	}
	return nil
}

func (c *console) status() {
	snap := c.timer.Snapshot()
	if snap.Mode == timer.ModeIdle {
		c.printf("Timer is idle\n")
		return
	}
	c.printf("%s %s  %s  (started %s)\n",
		snap.Activity.Name, snap.Mode, timer.FormatElapsed(snap.Elapsed), snap.StartedAt.Format("15:04"))
}

// render is the timer subscriber; ticks rewrite the current line
func (c *console) render(e timer.Event) {
	name := e.Snapshot.Activity.Name
	elapsed := timer.FormatElapsed(e.Snapshot.Elapsed)

	switch e.Kind {
	case timer.EventTick:
		c.printf("\r%s  %s ", name, elapsed)
	case timer.EventStarted:
		c.printf("%s %s\n", c.green.Sprint("▶ Started"), name)
	case timer.EventPaused:
		c.printf("\n%s %s at %s\n", c.yellow.Sprint("⏸ Paused"), name, elapsed)
	case timer.EventResumed:
		c.printf("%s %s at %s\n", c.green.Sprint("▶ Resumed"), name, elapsed)
	case timer.EventStopped:
		c.printf("\n%s %s after %s\n", c.cyan.Sprint("■ Stopped"), name, elapsed)
	}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}
