package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mxschlz/psypy/internal/config"
	"github.com/mxschlz/psypy/internal/events"
	"github.com/mxschlz/psypy/internal/session"
	"github.com/mxschlz/psypy/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "psypy",
		Short: "Experiment session tooling",
		Long:  "psypy manages experiment sessions: settings, per-run event logs and their finalized timing tables.",
	}

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(reportCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// simulateCmd runs a scripted session end-to-end on the simulated display,
// producing the same artifacts a real run would.
func simulateCmd() *cobra.Command {
	var (
		settingsPath string
		outputStr    string
		trials       int
		framerate    float64
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted session on the simulated display",
		RunE: func(cmd *cobra.Command, args []string) error {
			display := session.NewSimDisplay(framerate)
			s, err := session.New(outputStr, settingsPath, display)
			if err != nil {
				return err
			}

			if s.Settings.Results.Enabled {
				archive, err := store.Open(s.Settings.Results, s.Log)
				if err != nil {
					return err
				}
				s.AttachArchiver(archive)
			}

			if err := s.DisplayText("Press a key to start."); err != nil {
				return err
			}
			if err := s.StartExperiment(); err != nil {
				return err
			}

			for trial := 0; trial < trials; trial++ {
				s.LogEvent(trial, "fixation", 0, "")
				for i := 0; i < 3; i++ {
					if err := display.Flip(); err != nil {
						return err
					}
					s.TickFrame()
				}
				s.LogEvent(trial, "stim", 1, "")
				for i := 0; i < 6; i++ {
					if err := display.Flip(); err != nil {
						return err
					}
					s.TickFrame()
				}
				s.LogEvent(trial, events.EventResponse, 1, "space")
			}

			if err := s.Close(); err != nil {
				return err
			}
			fmt.Printf("wrote %s/%s.tsv (%d events)\n", s.OutputDir, s.OutputStr, trials*3)
			return nil
		},
	}

	cmd.Flags().StringVarP(&settingsPath, "settings", "s", "", "settings file (defaults when empty)")
	cmd.Flags().StringVarP(&outputStr, "output", "o", "sim_run-1", "output name for the run's files")
	cmd.Flags().IntVarP(&trials, "trials", "n", 5, "number of scripted trials")
	cmd.Flags().Float64Var(&framerate, "framerate", 120, "simulated refresh rate in Hz")
	return cmd
}

// validateCmd resolves a settings file against the defaults and prints the
// result. With --watch it re-validates whenever the file changes.
func validateCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "validate [settings-file]",
		Short: "Resolve and print session settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}

			if err := printResolved(path); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			if path == "" {
				return fmt.Errorf("--watch requires a settings file")
			}
			return watchSettings(path)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-validate on file change")
	return cmd
}

func printResolved(path string) error {
	s, err := config.Load(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	os.Stdout.Write(data)
	return nil
}

func watchSettings(path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	fmt.Fprintf(os.Stderr, "watching %s\n", path)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fmt.Fprintf(os.Stderr, "--- %s changed\n", ev.Name)
			if err := printResolved(path); err != nil {
				fmt.Fprintln(os.Stderr, "invalid:", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "watch error:", err)
		case <-sig:
			return nil
		}
	}
}

// reportCmd reads a finalized table back and checks that its duration column
// is consistent with its own onsets.
func reportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <log.tsv>",
		Short: "Summarize a run table and verify its durations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := events.ReadTSV(args[0])
			if err != nil {
				return err
			}

			responses := 0
			var nonresp []int
			for i, r := range rows {
				if r.EventType == events.EventResponse {
					responses++
				} else {
					nonresp = append(nonresp, i)
				}
			}

			mismatches := 0
			for k, idx := range nonresp {
				if k == len(nonresp)-1 {
					break // the last duration depends on the stop time, which the table does not carry
				}
				if rows[idx].Duration == nil {
					mismatches++
					continue
				}
				want := rows[nonresp[k+1]].Onset - rows[idx].Onset
				if math.Abs(*rows[idx].Duration-want) > 1e-9 {
					fmt.Printf("row %d: duration %v, expected %v\n", idx, *rows[idx].Duration, want)
					mismatches++
				}
			}

			fmt.Printf("%s: %d events (%d responses, %d phases)\n",
				args[0], len(rows), responses, len(nonresp))
			if len(rows) > 0 {
				fmt.Printf("first onset %.4f, last onset %.4f\n", rows[0].Onset, rows[len(rows)-1].Onset)
			}
			if mismatches > 0 {
				return fmt.Errorf("%d duration mismatches", mismatches)
			}
			fmt.Println("durations consistent")
			return nil
		},
	}
}
