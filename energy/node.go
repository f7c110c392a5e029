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

package energy

import (
	"sync"

	"github.com/openthread/csmasim/logger"
	. "github.com/openthread/csmasim/types"
)

// NodeEnergy accumulates the energy consumed by one node, in total and per activity.
type NodeEnergy struct {
	lock       sync.Mutex
	nodeId     NodeId
	total      float64
	byActivity [numActivities]float64
}

func NewNodeEnergy(nodeId NodeId) *NodeEnergy {
	return &NodeEnergy{
		nodeId: nodeId,
	}
}

func (node *NodeEnergy) NodeId() NodeId {
	return node.nodeId
}

// Add adds amount for activity a. Energy is strictly additive: a negative amount is an error.
func (node *NodeEnergy) Add(a Activity, amount float64) {
	logger.AssertTrue(amount >= 0, "negative energy increment %f for %s", amount, a)

	node.lock.Lock()
	defer node.lock.Unlock()
	node.total += amount
	node.byActivity[a] += amount
}

// Total returns the energy consumed so far.
func (node *NodeEnergy) Total() float64 {
	node.lock.Lock()
	defer node.lock.Unlock()
	return node.total
}

// ByActivity returns the energy consumed so far, split by activity.
func (node *NodeEnergy) ByActivity() map[Activity]float64 {
	node.lock.Lock()
	defer node.lock.Unlock()

	res := make(map[Activity]float64, numActivities)
	for i, v := range node.byActivity {
		res[Activity(i)] = v
	}
	return res
}
