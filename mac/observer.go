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

package mac

import (
	"github.com/openthread/csmasim/energy"
	. "github.com/openthread/csmasim/types"
)

// Outcome is the result of one attempt of a sender to deliver to a receiver.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeGiveUp
	OutcomeOutOfRange
	OutcomeAlreadyTransmitting
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeGiveUp:
		return "give-up"
	case OutcomeOutOfRange:
		return "out-of-range"
	case OutcomeAlreadyTransmitting:
		return "already-transmitting"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Observer is notified of what happens in the network. Calls come from the senders' control flows
// concurrently and must not block.
type Observer interface {
	OnMacStateChange(nodeid NodeId, peer NodeId, ts Timestamp, state MacState)
	OnSample(nodeid NodeId, sample Sample)
	OnBackoff(nodeid NodeId, ts Timestamp, retries int, slots int)
	OnNavUpdate(nodeid NodeId, ts Timestamp, slots float64)
	OnEnergy(nodeid NodeId, ts Timestamp, activity energy.Activity, amount float64)
	OnAttemptDone(sender NodeId, receiver NodeId, ts Timestamp, outcome Outcome)
}

type NopObserver struct{}

func (NopObserver) OnMacStateChange(NodeId, NodeId, Timestamp, MacState) {}
func (NopObserver) OnSample(NodeId, Sample) {}
func (NopObserver) OnBackoff(NodeId, Timestamp, int, int) {}
func (NopObserver) OnNavUpdate(NodeId, Timestamp, float64) {}
func (NopObserver) OnEnergy(NodeId, Timestamp, energy.Activity, float64) {}
func (NopObserver) OnAttemptDone(NodeId, NodeId, Timestamp, Outcome) {}
