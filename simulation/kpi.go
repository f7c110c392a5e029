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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/openthread/csmasim/logger"
	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
	"github.com/openthread/csmasim/visualize"
)

type NodeCountersStore map[NodeId]visualize.OutcomeCounters

// KpiManager counts the outcomes of a run and writes them, with energy and contention window figures, to
// a JSON file.
type KpiManager struct {
	sim       *Simulation
	data      *Kpi
	counters  NodeCountersStore
	isRunning bool
	lock      sync.Mutex
}

// NewKpiManager creates a new KPI manager/bookkeeper for a particular simulation.
func NewKpiManager() *KpiManager {
	return &KpiManager{}
}

// Init inits the KPI manager for the given simulation.
func (km *KpiManager) Init(sim *Simulation) {
	logger.AssertNil(km.sim)
	logger.AssertFalse(km.isRunning)
	km.sim = sim
	km.data = &Kpi{Status: "ok"}
	km.counters = NodeCountersStore{}
}

func (km *KpiManager) Start() {
	logger.AssertNotNil(km.sim)
	km.lock.Lock()
	defer km.lock.Unlock()
	km.data.TimeUs.StartTimeUs = km.sim.Now()
	km.isRunning = true
}

// Stop ends the KPI period and computes the KPIs. A non-nil err marks the run as interrupted.
func (km *KpiManager) Stop(err error) {
	km.lock.Lock()
	defer km.lock.Unlock()
	if !km.isRunning {
		return
	}
	km.isRunning = false
	if err != nil {
		km.data.Status = fmt.Sprintf("interrupted: %v", err)
	}
	km.calculateKpis()
}

func (km *KpiManager) IsRunning() bool {
	km.lock.Lock()
	defer km.lock.Unlock()
	return km.isRunning
}

// Counters returns a copy of the per-node outcome counters.
func (km *KpiManager) Counters() NodeCountersStore {
	km.lock.Lock()
	defer km.lock.Unlock()
	ret := make(NodeCountersStore, len(km.counters))
	for id, c := range km.counters {
		ret[id] = c
	}
	return ret
}

// Data returns the KPIs computed by the last Stop.
func (km *KpiManager) Data() Kpi {
	km.lock.Lock()
	defer km.lock.Unlock()
	return *km.data
}

func (km *KpiManager) update(nodeid NodeId, f func(c *visualize.OutcomeCounters)) {
	km.lock.Lock()
	defer km.lock.Unlock()
	c := km.counters[nodeid]
	f(&c)
	km.counters[nodeid] = c
}

func (km *KpiManager) onMacStateChange(nodeid NodeId, state MacState) {
	switch state {
	case MacReceiverBusy:
		km.update(nodeid, func(c *visualize.OutcomeCounters) { c.ReceiverBusy++ })
	case MacCollision:
		km.update(nodeid, func(c *visualize.OutcomeCounters) { c.Collisions++ })
	}
}

func (km *KpiManager) onBackoff(nodeid NodeId, slots int) {
	km.update(nodeid, func(c *visualize.OutcomeCounters) {
		c.BackoffDraws++
		c.BackoffSlots += slots
	})
}

func (km *KpiManager) onNavUpdate(nodeid NodeId) {
	km.update(nodeid, func(c *visualize.OutcomeCounters) { c.NavUpdates++ })
}

func (km *KpiManager) onAttemptDone(sender NodeId, outcome mac.Outcome) {
	km.update(sender, func(c *visualize.OutcomeCounters) { c.Count(outcome) })
}

func (km *KpiManager) getDefaultSaveFileName() string {
	return filepath.Join(km.sim.cfg.OutputDir, fmt.Sprintf("%s_kpi.json", km.sim.RunId()))
}

func (km *KpiManager) SaveDefaultFile() error {
	return km.SaveFile(km.getDefaultSaveFileName())
}

func (km *KpiManager) SaveFile(fn string) error {
	logger.AssertNotNil(km.sim)
	km.lock.Lock()
	if km.isRunning {
		km.calculateKpis()
	}
	km.data.FileTime = time.Now().Format(time.RFC3339)
	js, err := json.MarshalIndent(km.data, "", "    ")
	km.lock.Unlock()
	if err != nil {
		logger.Errorf("Could not marshal KPI JSON data: %v", err)
		return err
	}

	if err = os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return err
	}
	if err = os.WriteFile(fn, js, 0644); err != nil {
		logger.Errorf("Could not write KPI JSON file %s: %v", fn, err)
		return err
	}
	return nil
}

// calculateKpis must be called with km.lock held.
func (km *KpiManager) calculateKpis() {
	sim := km.sim
	km.data.RunId = sim.RunId()
	km.data.Title = sim.cfg.Title
	km.data.Seed = sim.Seed()

	// time
	km.data.TimeUs.EndTimeUs = sim.Now()
	km.data.TimeUs.PeriodUs = km.data.TimeUs.EndTimeUs - km.data.TimeUs.StartTimeUs
	km.data.TimeSec.StartTimeSec = float64(km.data.TimeUs.StartTimeUs) / 1e6
	km.data.TimeSec.EndTimeSec = float64(km.data.TimeUs.EndTimeUs) / 1e6
	km.data.TimeSec.PeriodSec = float64(km.data.TimeUs.PeriodUs) / 1e6

	// nodes
	km.data.Nodes = make(map[NodeId]*KpiNode, len(sim.cfg.Nodes))
	km.data.Totals = visualize.OutcomeCounters{}
	for _, node := range sim.network.Nodes() {
		kn := &KpiNode{
			Role:     sim.cfg.Role(node.Id).String(),
			EnergyMw: node.EnergyConsumed(),
			Energy:   make(map[string]float64),
			Counters: km.counters[node.Id],
		}
		for a, e := range node.Energy().ByActivity() {
			kn.Energy[a.String()] = e
		}
		history := node.History()
		for _, s := range history {
			kn.MeanCw += float64(s.Cw)
			if s.Cw > kn.MaxCw {
				kn.MaxCw = s.Cw
			}
		}
		if len(history) > 0 {
			kn.MeanCw /= float64(len(history))
		}
		if kn.Counters.BackoffDraws > 0 {
			kn.CollisionRate = 100.0 * float64(kn.Counters.Collisions) / float64(kn.Counters.BackoffDraws)
		}
		km.data.Nodes[node.Id] = kn
		addCounters(&km.data.Totals, kn.Counters)
	}
}

func addCounters(dst *visualize.OutcomeCounters, c visualize.OutcomeCounters) {
	dst.Attempts += c.Attempts
	dst.Successes += c.Successes
	dst.GiveUps += c.GiveUps
	dst.OutOfRange += c.OutOfRange
	dst.AlreadyTransmitting += c.AlreadyTransmitting
	dst.Aborted += c.Aborted
	dst.ReceiverBusy += c.ReceiverBusy
	dst.Collisions += c.Collisions
	dst.BackoffDraws += c.BackoffDraws
	dst.BackoffSlots += c.BackoffSlots
	dst.NavUpdates += c.NavUpdates
}
