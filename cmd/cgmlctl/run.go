package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cyberiada-go/cgml/driver"
	"github.com/cyberiada-go/cgml/obs"

	_ "github.com/cyberiada-go/cgml/devices/counter"
	_ "github.com/cyberiada-go/cgml/devices/eyebear"
	_ "github.com/cyberiada-go/cgml/devices/gardener"
	_ "github.com/cyberiada-go/cgml/devices/impulse"
	_ "github.com/cyberiada-go/cgml/devices/reader"
	_ "github.com/cyberiada-go/cgml/devices/timer"
)

var (
	configPath string
	noTUI      bool
)

var runCmd = &cobra.Command{
	Use:   "run <cgml-file>",
	Short: "Parse, build, and run a CGML state machine document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML file with parameters, pre-posted events, and run options")
	runCmd.Flags().BoolVar(&noTUI, "no-tui", false, "print the trace to stdout instead of the bubbletea progress view")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	docPath := args[0]

	cfg, err := loadRunConfig(configPath)
	if err != nil {
		return err
	}

	flush, err := initSentry(cfg.SentryDSN)
	if err != nil {
		return fmt.Errorf("initializing sentry: %w", err)
	}
	defer flush()

	text, err := os.ReadFile(docPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", docPath, err)
	}

	sm, diags, err := driver.Parse(text)
	if err != nil {
		reportDeviceFault(err)
		return err
	}
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.String())
	}

	rt, err := driver.Build(sm, cfg.Parameters)
	if err != nil {
		reportDeviceFault(err)
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := driver.RunOptions{
		Infinite: cfg.Infinite,
		Timeout:  cfg.Timeout,
	}

	if noTUI {
		return runHeadless(ctx, rt, cfg, opts)
	}
	return runWithTUI(ctx, rt, cfg, opts, docPath)
}

func runHeadless(ctx context.Context, rt *driver.Runtime, cfg RunConfig, opts driver.RunOptions) error {
	opts.OnDispatch = func(signal, current string) {
		fmt.Printf("%s -> %s\n", signal, current)
	}
	res, err := driver.Run(ctx, rt, cfg.PrePosted, opts)
	if err != nil {
		obs.LogFatal(ctx, "run failed", err)
		reportDeviceFault(err)
		return err
	}
	printSummary(res)
	return nil
}

// runResult carries a completed Run's outcome from the background
// goroutine back to the command after the TUI program exits.
type runResult struct {
	res *driver.Result
	err error
}

func runWithTUI(ctx context.Context, rt *driver.Runtime, cfg RunConfig, opts driver.RunOptions, title string) error {
	model := newProgressModel(title)
	program := tea.NewProgram(model)

	opts.OnDispatch = func(signal, current string) {
		program.Send(dispatchMsg{signal: signal, current: current})
	}

	finalCh := make(chan runResult, 1)
	go func() {
		res, err := driver.Run(ctx, rt, cfg.PrePosted, opts)
		timedOut := res != nil && res.TimedOut
		program.Send(doneMsg{timedOut: timedOut, err: err})
		finalCh <- runResult{res: res, err: err}
	}()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}

	out := <-finalCh
	if out.err != nil {
		obs.LogFatal(ctx, "run failed", out.err)
		reportDeviceFault(out.err)
		return out.err
	}
	printSummary(out.res)
	return nil
}

func printSummary(res *driver.Result) {
	fmt.Printf("\nevents dispatched: %d, called events: %d, timed_out: %v\n",
		len(res.Events), len(res.CalledEvents), res.TimedOut)
	for id, inst := range res.Components {
		fmt.Printf("component %s (%s)\n", id, inst.Type)
	}
}
