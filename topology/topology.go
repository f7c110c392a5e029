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

// Package topology holds the fixed node positions of a simulation and the neighbor relation derived
// from a transmission range.
package topology

import (
	"math"
	"sort"

	. "github.com/openthread/csmasim/types"
)

// Site is the position of a single node of the topology.
type Site struct {
	Id NodeId

	// Node position in distance units.
	X, Y float64
}

// GetDistanceTo gets the Euclidean distance to another Site.
func (s *Site) GetDistanceTo(other *Site) (dist float64) {
	dx := other.X - s.X
	dy := other.Y - s.Y
	dist = math.Sqrt(dx*dx + dy*dy)
	return
}

// Topology is an immutable set of sites and their neighbor relation.
type Topology struct {
	sites     []Site
	rangeDist float64
	neighbors map[NodeId][]NodeId
}

// New creates the topology for the given node configs; node ids must be 0..len(cfgs)-1 in order.
func New(cfgs []NodeConfig, transmissionRange float64) *Topology {
	sites := make([]Site, len(cfgs))
	for i, cfg := range cfgs {
		sites[i] = Site{Id: cfg.ID, X: cfg.X, Y: cfg.Y}
	}
	return &Topology{
		sites:     sites,
		rangeDist: transmissionRange,
		neighbors: BuildNeighbors(sites, transmissionRange),
	}
}

// BuildNeighbors computes, for every ordered pair of distinct sites, a directed neighbor edge if the
// distance between them is within transmissionRange. Each neighbor list is sorted by node id.
func BuildNeighbors(sites []Site, transmissionRange float64) map[NodeId][]NodeId {
	res := make(map[NodeId][]NodeId, len(sites))
	for i := range sites {
		a := &sites[i]
		res[a.Id] = []NodeId{}
		for j := range sites {
			b := &sites[j]
			if a.Id == b.Id {
				continue
			}
			if a.GetDistanceTo(b) <= transmissionRange {
				res[a.Id] = append(res[a.Id], b.Id)
			}
		}
		sort.Ints(res[a.Id])
	}
	return res
}

// Size returns the number of nodes.
func (t *Topology) Size() int {
	return len(t.sites)
}

// Range returns the transmission range the neighbor relation was built with.
func (t *Topology) Range() float64 {
	return t.rangeDist
}

// Site returns the site of a node.
func (t *Topology) Site(id NodeId) Site {
	return t.sites[id]
}

// Sites returns a copy of all sites.
func (t *Topology) Sites() []Site {
	res := make([]Site, len(t.sites))
	copy(res, t.sites)
	return res
}

// Neighbors returns the neighbor ids of a node. The returned slice must not be modified.
func (t *Topology) Neighbors(id NodeId) []NodeId {
	return t.neighbors[id]
}

// Distance returns the distance between two nodes.
func (t *Topology) Distance(a, b NodeId) float64 {
	return t.sites[a].GetDistanceTo(&t.sites[b])
}

// InRange returns true if b is a neighbor of a.
func (t *Topology) InRange(a, b NodeId) bool {
	for _, n := range t.neighbors[a] {
		if n == b {
			return true
		}
	}
	return false
}
