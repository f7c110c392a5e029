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

package cli

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/logger"
	"github.com/openthread/csmasim/progctx"
	"github.com/openthread/csmasim/simulation"
	"github.com/openthread/csmasim/topology"
	. "github.com/openthread/csmasim/types"
	"github.com/openthread/csmasim/visualize"
)

const (
	Prompt = "> "
)

var ErrExit = errors.New("console exit")

type CommandContext struct {
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

// CmdRunner executes console commands against a configuration that is edited in place, and keeps the
// last simulation that was run for the result commands.
type CmdRunner struct {
	ctx     *progctx.ProgCtx
	cfg     *simulation.Config
	vis     visualize.Visualizer
	lastSim *simulation.Simulation
	help    Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, cfg *simulation.Config, vis visualize.Visualizer) *CmdRunner {
	if cfg == nil {
		cfg = simulation.DefaultConfig()
	}
	return &CmdRunner{
		ctx:  ctx,
		cfg:  cfg,
		vis:  vis,
		help: newHelp(),
	}
}

// RunCommand parses and executes one command line. It returns ErrExit after the exit command, or the
// program context's error once the program is exiting.
func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() != nil {
		return rt.ctx.Err()
	}

	cmd := Command{}
	if err := parseBytes([]byte(cmdline), &cmd); err != nil {
		if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
			return err
		}
		return nil
	}
	if cmd.Exit != nil {
		return ErrExit
	}
	rt.execute(&cmd, output)
	return rt.ctx.Err()
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	return rt.RunCommand(cmdline, output)
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

// Config returns the configuration being edited.
func (rt *CmdRunner) Config() *simulation.Config {
	return rt.cfg
}

// LastSimulation returns the simulation of the last run command, or nil.
func (rt *CmdRunner) LastSimulation() *simulation.Simulation {
	return rt.lastSim
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()
		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	// run the corresponding command
	if cmd.Add != nil {
		rt.executeAdd(cc, cc.Add)
	} else if cmd.Energy != nil {
		rt.executeEnergy(cc, cc.Energy)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cc.Help)
	} else if cmd.History != nil {
		rt.executeHistory(cc, cc.History)
	} else if cmd.Load != nil {
		rt.executeLoad(cc, cc.Load)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cc.LogLevel)
	} else if cmd.Neighbors != nil {
		rt.executeNeighbors(cc, cc.Neighbors)
	} else if cmd.Nodes != nil {
		rt.executeNodes(cc, cc.Nodes)
	} else if cmd.Range != nil {
		rt.executeRange(cc, cc.Range)
	} else if cmd.Run != nil {
		rt.executeRun(cc, cc.Run)
	} else if cmd.Rx != nil {
		rt.executeRoles(cc, cc.Rx.Nodes, RoleReceiver)
	} else if cmd.Save != nil {
		rt.executeSave(cc, cc.Save)
	} else if cmd.Seed != nil {
		rt.executeSeed(cc, cc.Seed)
	} else if cmd.Table != nil {
		rt.executeTable(cc, cc.Table)
	} else if cmd.Tx != nil {
		rt.executeRoles(cc, cc.Tx.Nodes, RoleTransmitter)
	} else {
		logger.Panicf("unimplemented command: %v", reflect.TypeOf(cmd))
	}
}

func (rt *CmdRunner) executeAdd(cc *CommandContext, cmd *AddCmd) {
	x, err := strconv.ParseFloat(cmd.X, 64)
	if err != nil {
		cc.error(err)
		return
	}
	y, err := strconv.ParseFloat(cmd.Y, 64)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputf("%d\n", rt.cfg.AddNode(x, y))
}

func (rt *CmdRunner) executeNodes(cc *CommandContext, cmd *NodesCmd) {
	for _, n := range rt.cfg.Nodes {
		cc.outputf("%d\t%s\tx=%g\ty=%g\trole=%s\n", n.ID, GetNodeName(n.ID), n.X, n.Y, rt.cfg.Role(n.ID))
	}
}

func (rt *CmdRunner) executeRoles(cc *CommandContext, nodes []NodeSelector, role Role) {
	selected := &rt.cfg.Transmitters
	taken := rt.cfg.Receivers
	if role == RoleReceiver {
		selected = &rt.cfg.Receivers
		taken = rt.cfg.Transmitters
	}

	if len(nodes) == 0 {
		cc.outputf("%v\n", *selected)
		return
	}

	ids := make([]NodeId, len(nodes))
	for i, ns := range nodes {
		ids[i] = ns.Id
	}
	if err := simulation.ValidateRoles(len(rt.cfg.Nodes), ids, taken); err != nil {
		cc.error(err)
		return
	}
	*selected = ids
}

func (rt *CmdRunner) executeRange(cc *CommandContext, cmd *RangeCmd) {
	if len(cmd.Val) == 0 {
		cc.outputf("%g\n", rt.cfg.Mac.TransmissionRange)
		return
	}
	r, err := strconv.ParseFloat(cmd.Val, 64)
	if err != nil {
		cc.error(err)
		return
	}
	if r <= 0 {
		cc.errorf("range must be positive")
		return
	}
	rt.cfg.Mac.TransmissionRange = r
}

func (rt *CmdRunner) executeSeed(cc *CommandContext, cmd *SeedCmd) {
	if cmd.Val == nil {
		cc.outputf("%d\n", rt.cfg.Seed)
		return
	}
	rt.cfg.Seed = int64(*cmd.Val)
}

func (rt *CmdRunner) executeLoad(cc *CommandContext, cmd *LoadCmd) {
	cfg, err := simulation.LoadScenario(unquote(cmd.Path))
	if err != nil {
		cc.error(err)
		return
	}
	rt.cfg = cfg
	cc.outputf("%d nodes, transmitters %v, receivers %v\n", len(cfg.Nodes), cfg.Transmitters, cfg.Receivers)
}

func (rt *CmdRunner) executeSave(cc *CommandContext, cmd *SaveCmd) {
	data, err := simulation.MarshalScenario(rt.cfg)
	if err != nil {
		cc.error(err)
		return
	}
	cc.error(os.WriteFile(unquote(cmd.Path), data, 0644))
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if len(cmd.Level) == 0 {
		cc.outputf("%v\n", logger.GetLevel())
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	logger.SetLevel(level)
}

func (rt *CmdRunner) executeNeighbors(cc *CommandContext, cmd *NeighborsCmd) {
	topo := topology.New(rt.cfg.Nodes, rt.cfg.Mac.TransmissionRange)
	ids := make([]NodeId, 0, topo.Size())
	if cmd.Node != nil {
		if !rt.isValidNode(cmd.Node.Id) {
			cc.errorf("node %d not found", cmd.Node.Id)
			return
		}
		ids = append(ids, cmd.Node.Id)
	} else {
		for _, n := range rt.cfg.Nodes {
			ids = append(ids, n.ID)
		}
	}

	for _, id := range ids {
		names := make([]string, 0)
		for _, nb := range topo.Neighbors(id) {
			names = append(names, fmt.Sprintf("%s (%.2f)", GetNodeName(nb), topo.Distance(id, nb)))
		}
		cc.outputf("%s: %s\n", GetNodeName(id), strings.Join(names, ", "))
	}
}

func (rt *CmdRunner) executeRun(cc *CommandContext, cmd *RunCmd) {
	cfg := *rt.cfg
	sim, err := simulation.NewSimulation(&cfg, rt.vis)
	if err != nil {
		cc.error(err)
		return
	}
	rt.lastSim = sim

	res, err := sim.Run(rt.ctx)
	if err != nil {
		cc.error(err)
		return
	}
	cc.outputf("run %s done in %s\n", res.RunId, visualize.FormatSimTime(res.Duration))
	for _, id := range res.Transmitters {
		c := res.Counters[id]
		cc.outputf("%s: attempts=%d successes=%d give-ups=%d out-of-range=%d busy=%d collisions=%d\n",
			GetNodeName(id), c.Attempts, c.Successes, c.GiveUps, c.OutOfRange, c.ReceiverBusy, c.Collisions)
	}
}

func (rt *CmdRunner) lastResult(cc *CommandContext) *visualize.RunResult {
	if rt.lastSim == nil || rt.lastSim.Result() == nil {
		cc.errorf("no simulation has been run")
		return nil
	}
	return rt.lastSim.Result()
}

func (rt *CmdRunner) executeEnergy(cc *CommandContext, cmd *EnergyCmd) {
	res := rt.lastResult(cc)
	if res == nil {
		return
	}
	if cmd.Detail == nil {
		visualize.WriteEnergyTotals(cc.output, res.Energy)
		return
	}

	ids := make([]NodeId, 0, len(res.EnergyDetail))
	for id := range res.EnergyDetail {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		var line strings.Builder
		line.WriteString(GetNodeName(id))
		for _, a := range energy.Activities() {
			line.WriteString(fmt.Sprintf("\t%s=%g", a, res.EnergyDetail[id][a]))
		}
		cc.outputf("%s\n", line.String())
	}
}

func (rt *CmdRunner) executeHistory(cc *CommandContext, cmd *HistoryCmd) {
	res := rt.lastResult(cc)
	if res == nil {
		return
	}
	history, ok := res.History[cmd.Node.Id]
	if !ok {
		cc.errorf("%s is not a transmitter", GetNodeName(cmd.Node.Id))
		return
	}

	type sampleYaml struct {
		Cw   int    `yaml:"cw"`
		Time uint64 `yaml:"time_us"`
	}
	items := make([]sampleYaml, len(history))
	for i, s := range history {
		items[i] = sampleYaml{Cw: s.Cw, Time: s.Timestamp}
	}
	cc.outputItemsAsYaml(items)
}

func (rt *CmdRunner) executeTable(cc *CommandContext, cmd *TableCmd) {
	res := rt.lastResult(cc)
	if res == nil {
		return
	}
	ids := res.Transmitters
	if len(cmd.Nodes) > 0 {
		ids = make([]NodeId, 0, len(cmd.Nodes))
		for _, ns := range cmd.Nodes {
			if _, ok := res.History[ns.Id]; !ok {
				cc.errorf("%s is not a transmitter", GetNodeName(ns.Id))
				return
			}
			ids = append(ids, ns.Id)
		}
	}
	for _, id := range ids {
		visualize.WriteBackoffTable(cc.output, id, res.History[id])
	}
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) == 0 {
		cc.outputf("%s", rt.help.outputGeneralHelp())
	} else {
		cc.outputf("%s", rt.help.outputCommandHelp(cmd.HelpTopic))
	}
}

func (rt *CmdRunner) isValidNode(id NodeId) bool {
	return id >= 0 && id < len(rt.cfg.Nodes)
}

func unquote(s string) string {
	if uq, err := strconv.Unquote(s); err == nil {
		return uq
	}
	return s
}
