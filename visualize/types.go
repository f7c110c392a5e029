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

package visualize

import (
	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
)

// Visualizer is a sink for what happens during a simulation run. Besides the live MAC events it gets
// the run setup before the run starts and the final results once it is done.
type Visualizer interface {
	mac.Observer

	Init()
	Run()
	Stop()

	SetRunInfo(info RunInfo)
	AddNode(nodeid NodeId, x float64, y float64, role Role)
	AdvanceTime(ts Timestamp)
	OnRunDone(result *RunResult)
}

// RunInfo describes a simulation run.
type RunInfo struct {
	RunId        string
	Title        string
	Seed         int64
	Params       mac.Params
	Transmitters []NodeId
	Receivers    []NodeId
}

// OutcomeCounters counts the attempt outcomes and handshake failures of a node. NavUpdates counts
// the reservations the node overheard.
type OutcomeCounters struct {
	Attempts            int `json:"attempts"`
	Successes           int `json:"successes"`
	GiveUps             int `json:"give_ups"`
	OutOfRange          int `json:"out_of_range"`
	AlreadyTransmitting int `json:"already_transmitting"`
	Aborted             int `json:"aborted"`
	ReceiverBusy        int `json:"receiver_busy"`
	Collisions          int `json:"collisions"`
	BackoffDraws        int `json:"backoff_draws"`
	BackoffSlots        int `json:"backoff_slots"`
	NavUpdates          int `json:"nav_updates"`
}

// Count adds an attempt outcome.
func (c *OutcomeCounters) Count(outcome mac.Outcome) {
	c.Attempts++
	switch outcome {
	case mac.OutcomeSuccess:
		c.Successes++
	case mac.OutcomeGiveUp:
		c.GiveUps++
	case mac.OutcomeOutOfRange:
		c.OutOfRange++
	case mac.OutcomeAlreadyTransmitting:
		c.AlreadyTransmitting++
	case mac.OutcomeAborted:
		c.Aborted++
	}
}

// RunResult holds the outputs of a finished run.
type RunResult struct {
	RunId        string
	Title        string
	Duration     Timestamp
	Err          error
	Nodes        []NodeConfig
	Transmitters []NodeId
	Receivers    []NodeId
	Energy       map[NodeId]float64
	EnergyDetail map[NodeId]map[energy.Activity]float64
	History      map[NodeId][]mac.Sample
	Counters     map[NodeId]OutcomeCounters
}
