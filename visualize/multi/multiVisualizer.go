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

package visualize_multi

import (
	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
	"github.com/openthread/csmasim/visualize"
)

type MultiVisualizer struct {
	vs []visualize.Visualizer
}

// NewMultiVisualizer creates a new Visualizer that multiplexes to multiple Visualizers.
func NewMultiVisualizer(vs ...visualize.Visualizer) *MultiVisualizer {
	return &MultiVisualizer{vs: vs}
}

func (mv *MultiVisualizer) AddVisualizer(vs ...visualize.Visualizer) {
	mv.vs = append(mv.vs, vs...)
}

func (mv *MultiVisualizer) Len() int {
	return len(mv.vs)
}

func (mv *MultiVisualizer) Init() {
	for _, v := range mv.vs {
		v.Init()
	}
}

// Run runs every Visualizer but the first in its own goroutine, and the first in the current one.
func (mv *MultiVisualizer) Run() {
	if len(mv.vs) == 0 {
		return
	}
	for i := 1; i < len(mv.vs); i++ {
		go mv.vs[i].Run()
	}
	mv.vs[0].Run()
}

func (mv *MultiVisualizer) Stop() {
	for _, v := range mv.vs {
		v.Stop()
	}
}

func (mv *MultiVisualizer) SetRunInfo(info visualize.RunInfo) {
	for _, v := range mv.vs {
		v.SetRunInfo(info)
	}
}

func (mv *MultiVisualizer) AddNode(nodeid NodeId, x float64, y float64, role Role) {
	for _, v := range mv.vs {
		v.AddNode(nodeid, x, y, role)
	}
}

func (mv *MultiVisualizer) AdvanceTime(ts Timestamp) {
	for _, v := range mv.vs {
		v.AdvanceTime(ts)
	}
}

func (mv *MultiVisualizer) OnRunDone(result *visualize.RunResult) {
	for _, v := range mv.vs {
		v.OnRunDone(result)
	}
}

func (mv *MultiVisualizer) OnMacStateChange(nodeid NodeId, peer NodeId, ts Timestamp, state MacState) {
	for _, v := range mv.vs {
		v.OnMacStateChange(nodeid, peer, ts, state)
	}
}

func (mv *MultiVisualizer) OnSample(nodeid NodeId, sample mac.Sample) {
	for _, v := range mv.vs {
		v.OnSample(nodeid, sample)
	}
}

func (mv *MultiVisualizer) OnBackoff(nodeid NodeId, ts Timestamp, retries int, slots int) {
	for _, v := range mv.vs {
		v.OnBackoff(nodeid, ts, retries, slots)
	}
}

func (mv *MultiVisualizer) OnNavUpdate(nodeid NodeId, ts Timestamp, slots float64) {
	for _, v := range mv.vs {
		v.OnNavUpdate(nodeid, ts, slots)
	}
}

func (mv *MultiVisualizer) OnEnergy(nodeid NodeId, ts Timestamp, activity energy.Activity, amount float64) {
	for _, v := range mv.vs {
		v.OnEnergy(nodeid, ts, activity, amount)
	}
}

func (mv *MultiVisualizer) OnAttemptDone(sender NodeId, receiver NodeId, ts Timestamp, outcome mac.Outcome) {
	for _, v := range mv.vs {
		v.OnAttemptDone(sender, receiver, ts, outcome)
	}
}
