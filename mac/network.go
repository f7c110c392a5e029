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
	"github.com/pkg/errors"

	"github.com/openthread/csmasim/clock"
	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/logger"
	"github.com/openthread/csmasim/prng"
	"github.com/openthread/csmasim/topology"
	. "github.com/openthread/csmasim/types"
)

// NetworkConfig holds everything needed to build a Network.
type NetworkConfig struct {
	Params   Params
	Costs    energy.CostTable
	Clock    clock.Clock
	Nodes    []NodeConfig
	Energy   *energy.EnergyAnalyser
	Observer Observer
	LogDir   string
}

// Network is the set of nodes of one simulation, with the parameters and the clock they share.
type Network struct {
	params   Params
	costs    energy.CostTable
	clock    clock.Clock
	topo     *topology.Topology
	nodes    []*Node
	energy   *energy.EnergyAnalyser
	observer Observer
}

// NewNetwork builds the nodes and computes their neighbors once. Node ids must be 0..len(Nodes)-1 in order.
func NewNetwork(cfg NetworkConfig) (*Network, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Costs.Validate(); err != nil {
		return nil, err
	}
	for i, nc := range cfg.Nodes {
		if nc.ID != i {
			return nil, errors.Errorf("node %d has id %d", i, nc.ID)
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewVirtualClock()
	}
	if cfg.Energy == nil {
		cfg.Energy = energy.NewEnergyAnalyser()
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}

	nw := &Network{
		params:   cfg.Params,
		costs:    cfg.Costs,
		clock:    cfg.Clock,
		topo:     topology.New(cfg.Nodes, cfg.Params.TransmissionRange),
		nodes:    make([]*Node, len(cfg.Nodes)),
		energy:   cfg.Energy,
		observer: cfg.Observer,
	}
	for i, nc := range cfg.Nodes {
		nw.nodes[i] = newNode(nc, nw.energy.AddNode(nc.ID), prng.NewNodeRand(), logger.GetNodeLogger(cfg.LogDir, nc.ID))
	}
	for _, node := range nw.nodes {
		for _, nbId := range nw.topo.Neighbors(node.Id) {
			node.neighbors = append(node.neighbors, nw.nodes[nbId])
		}
	}
	return nw, nil
}

func (nw *Network) Params() Params {
	return nw.params
}

func (nw *Network) Costs() energy.CostTable {
	return nw.costs
}

func (nw *Network) Clock() clock.Clock {
	return nw.clock
}

func (nw *Network) Topology() *topology.Topology {
	return nw.topo
}

func (nw *Network) Energy() *energy.EnergyAnalyser {
	return nw.energy
}

func (nw *Network) Nodes() []*Node {
	return nw.nodes
}

func (nw *Network) Node(id NodeId) *Node {
	if id < 0 || id >= len(nw.nodes) {
		return nil
	}
	return nw.nodes[id]
}

func (nw *Network) Now() Timestamp {
	return nw.clock.Now()
}

func (nw *Network) addEnergy(node *Node, a energy.Activity, amount float64) {
	node.energy.Add(a, amount)
	nw.observer.OnEnergy(node.Id, nw.Now(), a, amount)
}

func (nw *Network) setState(node *Node, peer NodeId, state MacState) {
	node.setState(state)
	nw.observer.OnMacStateChange(node.Id, peer, nw.Now(), state)
}
