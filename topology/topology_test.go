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

package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/openthread/csmasim/types"
)

func TestGetDistanceTo(t *testing.T) {
	a := Site{Id: 0, X: 0, Y: 0}
	b := Site{Id: 1, X: 3, Y: 4}
	assert.Equal(t, 5.0, a.GetDistanceTo(&b))
	assert.Equal(t, 5.0, b.GetDistanceTo(&a))
}

func TestBuildNeighbors(t *testing.T) {
	cfgs := []NodeConfig{
		{ID: 0, X: 0, Y: 0},
		{ID: 1, X: 5, Y: 0},
		{ID: 2, X: 15, Y: 0}, // exactly at range from node 0
		{ID: 3, X: 40, Y: 40},
	}
	topo := New(cfgs, 15)

	assert.Equal(t, 4, topo.Size())
	assert.Equal(t, []NodeId{1, 2}, topo.Neighbors(0))
	assert.Equal(t, []NodeId{0, 2}, topo.Neighbors(1))
	assert.Equal(t, []NodeId{0, 1}, topo.Neighbors(2))
	assert.Equal(t, []NodeId{}, topo.Neighbors(3))

	assert.True(t, topo.InRange(0, 2))
	assert.False(t, topo.InRange(0, 3))
	assert.False(t, topo.InRange(0, 0))
	assert.Equal(t, 10.0, topo.Distance(1, 2))
}

func TestNeighborRelationIsSymmetric(t *testing.T) {
	cfgs := []NodeConfig{
		{ID: 0, X: 1, Y: 7},
		{ID: 1, X: 12, Y: -3},
		{ID: 2, X: 4, Y: 4},
		{ID: 3, X: -9, Y: 11},
		{ID: 4, X: 20, Y: 20},
	}
	topo := New(cfgs, 15)
	for a := 0; a < topo.Size(); a++ {
		for b := 0; b < topo.Size(); b++ {
			assert.Equal(t, topo.InRange(a, b), topo.InRange(b, a))
		}
	}
}
