package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/ltr11/internal/acquisition"
	"github.com/banshee-data/ltr11/internal/config"
	"github.com/banshee-data/ltr11/internal/device"
)

func newCaptureCmd(a *app) *cobra.Command {
	var (
		samples      int
		frames       int
		warmup       int
		pollInterval time.Duration
		csvPath      string
	)
	defaults := config.Defaults().Acquisition

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture raw I/Q frames and print per-frame statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fl := cmd.Flags()
			acq := a.cfg.Acquisition
			if fl.Changed("samples") {
				acq.Samples = samples
			}
			if fl.Changed("warmup") {
				acq.WarmupSamples = warmup
			}
			if fl.Changed("poll-interval") {
				acq.PollInterval = durationOf(pollInterval)
			}
			if acq.Samples < 1 || frames < 1 || acq.WarmupSamples < 0 {
				return fmt.Errorf("need at least one sample and one frame")
			}

			s, err := a.openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := device.Apply(s, a.cfg.Radar); err != nil {
				return err
			}
			eng := acquisition.New(s, acquisition.WithPollInterval(acq.PollInterval.D()))
			if err := eng.Start(); err != nil {
				return err
			}
			defer func() {
				if eng.Streaming() {
					if err := eng.Stop(); err != nil {
						log.Printf("stop acquisition: %v", err)
					}
				}
			}()

			ctx := cmd.Context()
			if err := eng.Discard(ctx, acq.WarmupSamples); err != nil {
				return fmt.Errorf("warmup: %w", err)
			}

			summaries := cmd.OutOrStdout()
			var w *csv.Writer
			var file io.WriteCloser
			defer func() {
				if file != nil {
					_ = file.Close()
				}
			}()
			if csvPath != "" {
				var sink io.Writer = cmd.OutOrStdout()
				if csvPath == "-" {
					summaries = cmd.ErrOrStderr()
				} else {
					f, err := a.create(csvPath)
					if err != nil {
						return err
					}
					file = f
					sink = f
				}
				w = csv.NewWriter(sink)
				if err := w.Write([]string{"frame", "index", "i", "q"}); err != nil {
					return err
				}
			}

			for frame := 0; frame < frames; frame++ {
				ifi, ifq, err := eng.Fetch(ctx, acq.Samples)
				if err != nil {
					return fmt.Errorf("frame %d: %w", frame, err)
				}
				fmt.Fprintf(summaries, "frame %d: %s\n", frame, acquisition.Summarize(ifi, ifq))

				if w == nil {
					continue
				}
				f := strconv.Itoa(frame)
				for i := range ifi {
					rec := []string{
						f,
						strconv.Itoa(i),
						strconv.FormatFloat(ifi[i], 'g', -1, 64),
						strconv.FormatFloat(ifq[i], 'g', -1, 64),
					}
					if err := w.Write(rec); err != nil {
						return err
					}
				}
			}

			if w == nil {
				return nil
			}
			w.Flush()
			if err := w.Error(); err != nil {
				return err
			}
			if file != nil {
				f := file
				file = nil
				if err := f.Close(); err != nil {
					return fmt.Errorf("close %s: %w", csvPath, err)
				}
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&samples, "samples", "n", defaults.Samples, "I/Q pairs per frame")
	fl.IntVar(&frames, "frames", 1, "number of frames to capture")
	fl.IntVar(&warmup, "warmup", defaults.WarmupSamples, "pairs to read and drop after starting")
	fl.DurationVar(&pollInterval, "poll-interval", defaults.PollInterval.D(), "wait between empty FIFO reads")
	fl.StringVar(&csvPath, "csv", "", "write samples as CSV to this file (- for stdout)")
	return cmd
}
