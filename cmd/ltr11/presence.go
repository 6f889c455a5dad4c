package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/ltr11/internal/acquisition"
	"github.com/banshee-data/ltr11/internal/config"
	"github.com/banshee-data/ltr11/internal/detection"
	"github.com/banshee-data/ltr11/internal/device"
	"github.com/banshee-data/ltr11/internal/policy"
	"github.com/banshee-data/ltr11/internal/radar"
)

func durationOf(d time.Duration) config.Duration { return config.Duration(d) }

// runFor runs r until ctx is done, d elapses (when positive) or r fails.
// Interruption and timeout are a normal end.
func runFor(ctx context.Context, d time.Duration, r *policy.Runner) error {
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	err := r.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

var (
	defaultBlankCommands = map[string][]string{
		config.BlankModeOff:  {"xset", "dpms", "force", "off"},
		config.BlankModeLock: {"loginctl", "lock-session"},
	}
	// A locked session is unlocked by the user, so lock mode has no wake
	// command.
	defaultWakeCommands = map[string][]string{
		config.BlankModeOff: {"xset", "dpms", "force", "on"},
	}
)

// commandDisplay implements policy.DisplayActions by running external
// commands. An empty command only logs.
type commandDisplay struct {
	blank []string
	wake  []string
	run   func(argv []string) error
}

func newCommandDisplay(cfg config.BlankingConfig) *commandDisplay {
	blank, wake := cfg.BlankCommand, cfg.WakeCommand
	if len(blank) == 0 {
		blank = defaultBlankCommands[cfg.Mode]
		if len(wake) == 0 {
			wake = defaultWakeCommands[cfg.Mode]
		}
	}
	return &commandDisplay{blank: blank, wake: wake, run: runCommand}
}

func (d *commandDisplay) Blank() error { return d.exec("blank", d.blank) }
func (d *commandDisplay) Wake() error  { return d.exec("wake", d.wake) }

func (d *commandDisplay) exec(action string, argv []string) error {
	if len(argv) == 0 {
		log.Printf("display %s", action)
		return nil
	}
	log.Printf("display %s: %s", action, strings.Join(argv, " "))
	if err := d.run(argv); err != nil {
		return fmt.Errorf("%s command %q: %w", action, argv[0], err)
	}
	return nil
}

func runCommand(argv []string) error {
	out, err := exec.Command(argv[0], argv[1:]...).CombinedOutput()
	if err != nil && len(bytes.TrimSpace(out)) > 0 {
		return fmt.Errorf("%w: %s", err, bytes.TrimSpace(out))
	}
	return err
}

func newDetectCmd(a *app) *cobra.Command {
	var (
		count    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Poll the motion detector and print each reading",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			m := detection.New(s)
			out := cmd.OutOrStdout()
			ctx := cmd.Context()
			for i := 0; count <= 0 || i < count; i++ {
				if i > 0 {
					select {
					case <-ctx.Done():
						return nil
					case <-time.After(interval):
					}
				}
				d, err := m.Poll()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s motion=%t direction=%s\n", time.Now().Format(time.TimeOnly), d.Motion, d.Direction)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 10, "number of readings (0 polls until interrupted)")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "time between readings")
	return cmd
}

func newBlankCmd(a *app) *cobra.Command {
	var (
		interval    time.Duration
		countdown   int
		mode        string
		sensitivity uint8
		duration    time.Duration
		dryRun      bool
	)
	defaults := config.Defaults().Blanking

	cmd := &cobra.Command{
		Use:   "blank",
		Short: "Turn the display off or lock it when nobody is in front of the sensor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fl := cmd.Flags()
			b := a.cfg.Blanking
			if fl.Changed("interval") {
				b.Interval = durationOf(interval)
			}
			if fl.Changed("countdown") {
				b.Countdown = countdown
			}
			if fl.Changed("mode") {
				b.Mode = mode
			}
			if fl.Changed("sensitivity") {
				b.Sensitivity = sensitivity
			}
			a.cfg.Blanking = b
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := device.Apply(s, a.cfg.Radar.WithThreshold(b.Sensitivity)); err != nil {
				return err
			}

			display := newCommandDisplay(b)
			if dryRun {
				display.blank, display.wake = nil, nil
			}
			p := policy.NewBlanking(policy.BlankingConfig{Countdown: b.Countdown, Threshold: b.Sensitivity}, display)

			out := cmd.OutOrStdout()
			r := policy.NewRunner(detection.New(s), p, b.Interval.D(),
				policy.WithTickHook(func(now time.Time, d radar.Detection, snap policy.Snapshot) {
					fmt.Fprintf(out, "%s motion=%t %s countdown=%d\n", now.Format(time.TimeOnly), d.Motion, snap.State, snap.Countdown)
				}))
			return runFor(cmd.Context(), duration, r)
		},
	}

	fl := cmd.Flags()
	fl.DurationVar(&interval, "interval", defaults.Interval.D(), "time between detector polls")
	fl.IntVar(&countdown, "countdown", defaults.Countdown, "motionless polls before blanking")
	fl.StringVar(&mode, "mode", defaults.Mode, "off turns the screen off, lock locks the session")
	fl.Uint8Var(&sensitivity, "sensitivity", defaults.Sensitivity, "detection threshold (0 most sensitive, 15 least)")
	fl.DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	fl.BoolVar(&dryRun, "dry-run", false, "log display actions instead of running commands")
	return cmd
}

func newEscalateCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		waitTime time.Duration
		near     uint8
		far      uint8
		duration time.Duration
	)
	defaults := config.Defaults().Escalation

	cmd := &cobra.Command{
		Use:   "escalate",
		Short: "Drop sensitivity while a target is close and restore it when it leaves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fl := cmd.Flags()
			e := a.cfg.Escalation
			if fl.Changed("interval") {
				e.Interval = durationOf(interval)
			}
			if fl.Changed("wait-time") {
				e.WaitTime = durationOf(waitTime)
			}
			if fl.Changed("near-threshold") {
				e.NearThreshold = near
			}
			if fl.Changed("far-threshold") {
				e.FarThreshold = far
			}
			a.cfg.Escalation = e
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			eng := acquisition.New(s, acquisition.WithPollInterval(a.cfg.Acquisition.PollInterval.D()))
			p := policy.NewEscalation(policy.EscalationConfig{
				Base:          a.cfg.Radar,
				WaitTime:      e.WaitTime.D(),
				NearThreshold: e.NearThreshold,
				FarThreshold:  e.FarThreshold,
			}, eng)
			if err := eng.Reconfigure(p.FarConfiguration()); err != nil {
				return err
			}
			defer func() {
				if eng.Streaming() {
					if err := eng.Stop(); err != nil {
						log.Printf("stop acquisition: %v", err)
					}
				}
			}()

			out := cmd.OutOrStdout()
			last := p.Snapshot().State
			fmt.Fprintf(out, "%s %s threshold=%d\n", time.Now().Format(time.TimeOnly), last, p.Snapshot().Threshold)
			r := policy.NewRunner(detection.New(s), p, e.Interval.D(),
				policy.WithTickHook(func(now time.Time, _ radar.Detection, snap policy.Snapshot) {
					if snap.State == last {
						return
					}
					last = snap.State
					fmt.Fprintf(out, "%s %s threshold=%d\n", now.Format(time.TimeOnly), snap.State, snap.Threshold)
				}))
			return runFor(cmd.Context(), duration, r)
		},
	}

	fl := cmd.Flags()
	fl.DurationVar(&interval, "interval", defaults.Interval.D(), "time between detector polls")
	fl.DurationVar(&waitTime, "wait-time", defaults.WaitTime.D(), "motionless time before sensitivity is restored")
	fl.Uint8Var(&near, "near-threshold", defaults.NearThreshold, "threshold while a target is close")
	fl.Uint8Var(&far, "far-threshold", defaults.FarThreshold, "threshold while nobody is close")
	fl.DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}

func newDirectionCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "direction",
		Short: "Print each change between approaching and departing motion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := device.Apply(s, a.cfg.Radar); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := policy.NewDirectionWatch(func(now time.Time, d radar.Detection) {
				fmt.Fprintf(out, "%s %s motion=%t\n", now.Format(time.TimeOnly), d.Direction, d.Motion)
			})
			return runFor(cmd.Context(), duration, policy.NewRunner(detection.New(s), w, interval))
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", policy.EscalationInterval, "time between detector polls")
	cmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	return cmd
}
