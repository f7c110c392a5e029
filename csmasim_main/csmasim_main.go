// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package csmasim_main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/openthread/csmasim/cli"
	"github.com/openthread/csmasim/clock"
	"github.com/openthread/csmasim/logger"
	"github.com/openthread/csmasim/progctx"
	"github.com/openthread/csmasim/simulation"
	"github.com/openthread/csmasim/visualize"
	visualizeGrpc "github.com/openthread/csmasim/visualize/grpc"
	visualizeMulti "github.com/openthread/csmasim/visualize/multi"
	visualizeStatslog "github.com/openthread/csmasim/visualize/statslog"
	visualizeXlsx "github.com/openthread/csmasim/visualize/xlsx"
)

type MainArgs struct {
	Scenario    string
	LogLevel    string
	Seed        int64
	Clock       string
	Speed       float64
	OutputDir   string
	Xlsx        string
	GrpcAddr    string
	Interactive bool
	NoStats     bool
}

// parseArgs parses the command line and returns the names of the flags that were given.
func parseArgs(fs *flag.FlagSet, argv []string) (*MainArgs, map[string]bool, error) {
	args := &MainArgs{}
	fs.StringVar(&args.Scenario, "scenario", "", "load a YAML scenario file")
	fs.StringVar(&args.LogLevel, "log", "info", "set logging level: trace, debug, info, warn, error.")
	fs.Int64Var(&args.Seed, "seed", simulation.DefaultSeed, "set the random seed (0 picks a new seed for every run)")
	fs.StringVar(&args.Clock, "clock", string(clock.ModeVirtual), "clock mode: virtual or real")
	fs.Float64Var(&args.Speed, "speed", simulation.DefaultSpeed, "set simulating speed for the real clock")
	fs.StringVar(&args.OutputDir, "out", simulation.DefaultOutputDir, "directory for result files (empty for none)")
	fs.StringVar(&args.Xlsx, "xlsx", "", "save results to this Excel workbook, or to <run-id>.xlsx in this directory")
	fs.StringVar(&args.GrpcAddr, "grpc", "", "serve results over gRPC on this address, e.g. localhost:9000")
	fs.BoolVar(&args.Interactive, "interactive", false, "configure and run from the console")
	fs.BoolVar(&args.NoStats, "no-stats", false, "do not write the CSV event log and text report")

	if err := fs.Parse(argv); err != nil {
		return nil, nil, err
	}
	given := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		given[f.Name] = true
	})
	return args, given, nil
}

// createConfig builds the configuration from the scenario file, if any, and the flags given.
func createConfig(args *MainArgs, given map[string]bool) (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if len(args.Scenario) > 0 {
		var err error
		if cfg, err = simulation.LoadScenario(args.Scenario); err != nil {
			return nil, err
		}
	}

	if given["seed"] {
		cfg.Seed = args.Seed
	}
	if given["clock"] {
		cfg.ClockMode = clock.Mode(args.Clock)
	}
	if given["speed"] {
		cfg.Speed = args.Speed
	}
	if given["out"] {
		cfg.OutputDir = args.OutputDir
	}
	return cfg, nil
}

func createVisualizer(args *MainArgs, cfg *simulation.Config) visualize.Visualizer {
	mv := visualizeMulti.NewMultiVisualizer()
	if len(args.GrpcAddr) > 0 {
		mv.AddVisualizer(visualizeGrpc.NewGrpcVisualizer(args.GrpcAddr))
	}
	if len(cfg.OutputDir) > 0 && !args.NoStats {
		mv.AddVisualizer(visualizeStatslog.NewStatslogVisualizer(cfg.OutputDir))
	}
	if len(args.Xlsx) > 0 {
		mv.AddVisualizer(visualizeXlsx.NewXlsxVisualizer(args.Xlsx))
	}
	if mv.Len() == 0 {
		return visualize.NewNopVisualizer()
	}
	return mv
}

// Main runs the program with the given command line arguments until the run is done, the console is
// closed, or a signal is received.
func Main(ctx *progctx.ProgCtx, argv []string, cliOptions *cli.CliOptions) error {
	args, given, err := parseArgs(flag.NewFlagSet("csmasim", flag.ContinueOnError), argv)
	if err != nil {
		return err
	}
	level, err := logger.ParseLevelString(args.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)

	cfg, err := createConfig(args, given)
	if err != nil {
		return err
	}

	handleSignals(ctx)

	vis := createVisualizer(args, cfg)
	vis.Init()
	ctx.Go("visualizer", vis.Run)
	defer func() {
		ctx.Cancel(nil)
		vis.Stop()
		logger.Debugf("waiting for csmasim to stop gracefully ...")
		ctx.Wait()
	}()

	if args.Interactive {
		rt := cli.NewCmdRunner(ctx, cfg, vis)
		console := cli.NewCliInstance()
		ctx.Defer(console.Stop)
		if err = console.Run(rt, cliOptions); err != nil && ctx.Err() == nil {
			return errors.Wrapf(err, "console exit")
		}
		return nil
	}

	sim, err := simulation.NewSimulation(cfg, vis)
	if err != nil {
		return err
	}
	res, err := sim.Run(ctx)
	if err != nil && ctx.Err() == nil {
		return err
	}

	stdout := io.Writer(os.Stdout)
	if cliOptions != nil && cliOptions.Stdout != nil {
		stdout = cliOptions.Stdout
	}
	writeReport(stdout, res)

	if len(args.GrpcAddr) > 0 && ctx.Err() == nil {
		logger.Infof("results are served on %s, press Ctrl-C to exit", args.GrpcAddr)
		<-ctx.Done()
	}
	return nil
}

func writeReport(w io.Writer, res *visualize.RunResult) {
	_, _ = fmt.Fprintf(w, "Run %s (%s), duration %s\n\n", res.RunId, res.Title, visualize.FormatSimTime(res.Duration))
	visualize.WriteCoordinates(w, res.Nodes)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Energy consumed (mW):")
	visualize.WriteEnergyTotals(w, res.Energy)
	for _, id := range res.Transmitters {
		_, _ = fmt.Fprintln(w)
		visualize.WriteBackoffTable(w, id, res.History[id])
	}
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")
		defer signal.Stop(c)

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}
