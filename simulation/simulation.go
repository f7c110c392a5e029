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

package simulation

import (
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/openthread/csmasim/clock"
	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/logger"
	"github.com/openthread/csmasim/mac"
	"github.com/openthread/csmasim/prng"
	. "github.com/openthread/csmasim/types"
	"github.com/openthread/csmasim/visualize"
)

// Simulation is one run of a configured network: the transmitters contend for their receivers until
// every transmitter has made its pass.
type Simulation struct {
	cfg            *Config
	runId          string
	clock          clock.Clock
	network        *mac.Network
	vis            visualize.Visualizer
	kpiMgr         *KpiManager
	energyAnalyser *energy.EnergyAnalyser

	lock    sync.Mutex
	started bool
	result  *visualize.RunResult
}

// NewSimulation validates cfg and builds the network. On an invalid configuration nothing is built and
// the returned error wraps ErrInvalidConfiguration.
//
// The seed of the prng package and the time source of the node loggers are process-wide, and
// NewSimulation resets both. Only one simulation may be built and run at a time.
func NewSimulation(cfg *Config, vis visualize.Visualizer) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if vis == nil {
		vis = visualize.NewNopVisualizer()
	}
	if len(cfg.OutputDir) > 0 {
		if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
			return nil, errors.Wrapf(err, "create output directory %s", cfg.OutputDir)
		}
	}

	prng.Init(cfg.Seed)
	s := &Simulation{
		cfg:            cfg,
		runId:          uuid.NewString(),
		clock:          clock.New(cfg.ClockMode, cfg.Speed),
		vis:            vis,
		kpiMgr:         NewKpiManager(),
		energyAnalyser: energy.NewEnergyAnalyser(),
	}
	s.energyAnalyser.SetTitle(cfg.Title)
	logger.SetTimeSource(s.clock.Now)

	network, err := mac.NewNetwork(mac.NetworkConfig{
		Params:   cfg.Mac,
		Costs:    cfg.Energy,
		Clock:    s.clock,
		Nodes:    cfg.Nodes,
		Energy:   s.energyAnalyser,
		Observer: s,
		LogDir:   cfg.OutputDir,
	})
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "%v", err)
	}
	s.network = network
	s.kpiMgr.Init(s)

	s.vis.SetRunInfo(visualize.RunInfo{
		RunId:        s.runId,
		Title:        cfg.Title,
		Seed:         prng.RootSeed(),
		Params:       cfg.Mac,
		Transmitters: cfg.Transmitters,
		Receivers:    cfg.Receivers,
	})
	for _, n := range cfg.Nodes {
		s.vis.AddNode(n.ID, n.X, n.Y, cfg.Role(n.ID))
	}
	logger.Debugf("simulation %s: %d nodes, transmitters %v, receivers %v", s.runId, len(cfg.Nodes),
		cfg.Transmitters, cfg.Receivers)
	return s, nil
}

func (s *Simulation) Config() *Config {
	return s.cfg
}

func (s *Simulation) RunId() string {
	return s.runId
}

// Seed returns the seed the random sources of this run were derived from.
func (s *Simulation) Seed() int64 {
	return prng.RootSeed()
}

func (s *Simulation) Now() Timestamp {
	return s.clock.Now()
}

func (s *Simulation) Network() *mac.Network {
	return s.network
}

func (s *Simulation) Kpi() *KpiManager {
	return s.kpiMgr
}

func (s *Simulation) EnergyAnalyser() *energy.EnergyAnalyser {
	return s.energyAnalyser
}

// Result returns the result of the run, or nil if the run has not finished.
func (s *Simulation) Result() *visualize.RunResult {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.result
}

func (s *Simulation) OnMacStateChange(nodeid NodeId, peer NodeId, ts Timestamp, state MacState) {
	s.kpiMgr.onMacStateChange(nodeid, state)
	s.vis.AdvanceTime(ts)
	s.vis.OnMacStateChange(nodeid, peer, ts, state)
}

func (s *Simulation) OnSample(nodeid NodeId, sample mac.Sample) {
	s.vis.OnSample(nodeid, sample)
}

func (s *Simulation) OnBackoff(nodeid NodeId, ts Timestamp, retries int, slots int) {
	s.kpiMgr.onBackoff(nodeid, slots)
	s.vis.OnBackoff(nodeid, ts, retries, slots)
}

func (s *Simulation) OnNavUpdate(nodeid NodeId, ts Timestamp, slots float64) {
	s.kpiMgr.onNavUpdate(nodeid)
	s.vis.OnNavUpdate(nodeid, ts, slots)
}

func (s *Simulation) OnEnergy(nodeid NodeId, ts Timestamp, activity energy.Activity, amount float64) {
	s.vis.OnEnergy(nodeid, ts, activity, amount)
}

func (s *Simulation) OnAttemptDone(sender NodeId, receiver NodeId, ts Timestamp, outcome mac.Outcome) {
	s.kpiMgr.onAttemptDone(sender, outcome)
	s.vis.OnAttemptDone(sender, receiver, ts, outcome)
}

func (s *Simulation) buildResult(err error) *visualize.RunResult {
	res := &visualize.RunResult{
		RunId:        s.runId,
		Title:        s.cfg.Title,
		Duration:     s.Now(),
		Err:          err,
		Nodes:        s.cfg.Nodes,
		Transmitters: s.cfg.Transmitters,
		Receivers:    s.cfg.Receivers,
		Energy:       s.energyAnalyser.Totals(),
		EnergyDetail: make(map[NodeId]map[energy.Activity]float64, len(s.cfg.Nodes)),
		History:      make(map[NodeId][]mac.Sample, len(s.cfg.Transmitters)),
		Counters:     s.kpiMgr.Counters(),
	}
	for _, node := range s.network.Nodes() {
		res.EnergyDetail[node.Id] = node.Energy().ByActivity()
	}
	for _, id := range s.cfg.Transmitters {
		res.History[id] = s.network.Node(id).History()
	}
	return res
}
