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
	"math/rand"
	"sync"

	"github.com/pkg/errors"

	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/logger"
	. "github.com/openthread/csmasim/types"
)

// Sample is one entry of a node's contention window history.
type Sample struct {
	Cw        int
	Timestamp Timestamp
}

// Node is a station of the simulated network with its contention state. All mutable state is
// guarded by the node's lock; other nodes only touch it through ReceiveRts, ReleaseRts and UpdateNav.
type Node struct {
	Id   NodeId
	X, Y float64

	lock           sync.Mutex
	state          MacState
	retries        int
	backoffCounter int
	transmitting   bool
	nav            float64
	navExpiry      Timestamp
	rtsReceived    bool
	rtsFrom        NodeId
	history        []Sample
	neighbors      []*Node

	energy *energy.NodeEnergy
	rng    *rand.Rand
	log    *logger.NodeLogger
}

func newNode(cfg NodeConfig, meter *energy.NodeEnergy, rng *rand.Rand, log *logger.NodeLogger) *Node {
	return &Node{
		Id:      cfg.ID,
		X:       cfg.X,
		Y:       cfg.Y,
		state:   MacIdle,
		rtsFrom: InvalidNodeId,
		energy:  meter,
		rng:     rng,
		log:     log,
	}
}

func (node *Node) String() string {
	return GetNodeName(node.Id)
}

// Neighbors returns the nodes within transmission range. The returned slice must not be modified.
func (node *Node) Neighbors() []*Node {
	return node.neighbors
}

func (node *Node) IsNeighbor(other *Node) bool {
	for _, nb := range node.neighbors {
		if nb == other {
			return true
		}
	}
	return false
}

func (node *Node) State() MacState {
	node.lock.Lock()
	defer node.lock.Unlock()
	return node.state
}

func (node *Node) setState(state MacState) {
	node.lock.Lock()
	node.state = state
	node.lock.Unlock()
}

func (node *Node) Retries() int {
	node.lock.Lock()
	defer node.lock.Unlock()
	return node.retries
}

// ContentionWindow returns the current contention window, 2^retries.
func (node *Node) ContentionWindow() int {
	node.lock.Lock()
	defer node.lock.Unlock()
	return ContentionWindow(node.retries)
}

// BackoffCounter returns the slot count of the last backoff draw.
func (node *Node) BackoffCounter() int {
	node.lock.Lock()
	defer node.lock.Unlock()
	return node.backoffCounter
}

func (node *Node) IsTransmitting() bool {
	node.lock.Lock()
	defer node.lock.Unlock()
	return node.transmitting
}

func (node *Node) setTransmitting(transmitting bool) {
	node.lock.Lock()
	node.transmitting = transmitting
	node.lock.Unlock()
}

// Nav returns the last NAV duration received, in slots.
func (node *Node) Nav() float64 {
	node.lock.Lock()
	defer node.lock.Unlock()
	return node.nav
}

// NavExpiry returns the time at which the last NAV received expires.
func (node *Node) NavExpiry() Timestamp {
	node.lock.Lock()
	defer node.lock.Unlock()
	return node.navExpiry
}

// RtsReceived returns true while the node has accepted an RTS and the exchange is not finished.
func (node *Node) RtsReceived() bool {
	node.lock.Lock()
	defer node.lock.Unlock()
	return node.rtsReceived
}

// ReceiveRts claims the node for an exchange with sender. Only the first claimant succeeds; any
// other sender gets ErrReceiverBusy until the claim is released.
func (node *Node) ReceiveRts(sender NodeId) error {
	node.lock.Lock()
	defer node.lock.Unlock()

	if node.rtsReceived {
		return errors.Wrapf(ErrReceiverBusy, "%s already accepted RTS from %s", node, GetNodeName(node.rtsFrom))
	}
	node.rtsReceived = true
	node.rtsFrom = sender
	return nil
}

// ReleaseRts releases the claim of sender, if sender holds it.
func (node *Node) ReleaseRts(sender NodeId) {
	node.lock.Lock()
	defer node.lock.Unlock()

	if node.rtsReceived && node.rtsFrom == sender {
		node.rtsReceived = false
		node.rtsFrom = InvalidNodeId
	}
}

// UpdateNav records an overheard reservation of the medium for the given number of slots.
func (node *Node) UpdateNav(slots float64, expiry Timestamp) {
	node.lock.Lock()
	defer node.lock.Unlock()

	node.nav = slots
	if expiry > node.navExpiry {
		node.navExpiry = expiry
	}
}

// EnergyConsumed returns the total energy consumed by the node.
func (node *Node) EnergyConsumed() float64 {
	return node.energy.Total()
}

// Energy returns the energy meter of the node.
func (node *Node) Energy() *energy.NodeEnergy {
	return node.energy
}

// History returns a copy of the contention window history.
func (node *Node) History() []Sample {
	node.lock.Lock()
	defer node.lock.Unlock()

	res := make([]Sample, len(node.history))
	copy(res, node.history)
	return res
}

func (node *Node) appendSample(now Timestamp) Sample {
	s := Sample{Cw: ContentionWindow(node.retries), Timestamp: now}
	logger.AssertTrue(len(node.history) == 0 || node.history[len(node.history)-1].Timestamp < now,
		"%s: history timestamps must be strictly increasing", node)
	node.history = append(node.history, s)
	return s
}

func (node *Node) incRetries() int {
	node.lock.Lock()
	defer node.lock.Unlock()
	node.retries++
	return node.retries
}

// recordSuccess resets the retries and appends the (1, now) sample.
func (node *Node) recordSuccess(now Timestamp) Sample {
	node.lock.Lock()
	defer node.lock.Unlock()
	node.retries = 0
	return node.appendSample(now)
}

func (node *Node) resetRetries() {
	node.lock.Lock()
	node.retries = 0
	node.lock.Unlock()
}
