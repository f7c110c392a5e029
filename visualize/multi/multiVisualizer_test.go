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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
	"github.com/openthread/csmasim/visualize"
)

type countingVisualizer struct {
	visualize.Visualizer
	nodes    int
	states   []MacState
	outcomes []mac.Outcome
	done     *visualize.RunResult
}

func (cv *countingVisualizer) AddNode(NodeId, float64, float64, Role) {
	cv.nodes++
}

func (cv *countingVisualizer) OnMacStateChange(_ NodeId, _ NodeId, _ Timestamp, state MacState) {
	cv.states = append(cv.states, state)
}

func (cv *countingVisualizer) OnAttemptDone(_ NodeId, _ NodeId, _ Timestamp, outcome mac.Outcome) {
	cv.outcomes = append(cv.outcomes, outcome)
}

func (cv *countingVisualizer) OnRunDone(result *visualize.RunResult) {
	cv.done = result
}

func TestMultiVisualizerForwards(t *testing.T) {
	a := &countingVisualizer{Visualizer: visualize.NewNopVisualizer()}
	b := &countingVisualizer{Visualizer: visualize.NewNopVisualizer()}
	mv := NewMultiVisualizer(a)
	mv.AddVisualizer(b)
	assert.Equal(t, 2, mv.Len())

	mv.Init()
	mv.AddNode(0, 1, 2, RoleTransmitter)
	mv.OnMacStateChange(0, 1, 10, MacBackoff)
	mv.OnAttemptDone(0, 1, 20, mac.OutcomeSuccess)
	mv.OnSample(0, mac.Sample{Cw: 1, Timestamp: 5})
	result := &visualize.RunResult{RunId: "x"}
	mv.OnRunDone(result)
	mv.Stop()

	for _, cv := range []*countingVisualizer{a, b} {
		assert.Equal(t, 1, cv.nodes)
		assert.Equal(t, []MacState{MacBackoff}, cv.states)
		assert.Equal(t, []mac.Outcome{mac.OutcomeSuccess}, cv.outcomes)
		assert.Same(t, result, cv.done)
	}
}
