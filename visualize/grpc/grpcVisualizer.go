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

package visualize_grpc

import (
	"net"
	"sync"

	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/logger"
	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
	"github.com/openthread/csmasim/visualize"
)

type nodeInfo struct {
	x, y   float64
	role   Role
	state  MacState
	cw     int
	energy float64
}

type grpcVisualizer struct {
	server *grpcServer

	sync.Mutex
	info   visualize.RunInfo
	nodes  map[NodeId]*nodeInfo
	order  []NodeId
	now    Timestamp
	result *visualize.RunResult
}

// NewGrpcVisualizer creates a new Visualizer that serves the run over gRPC on address.
func NewGrpcVisualizer(address string) visualize.Visualizer {
	return newGrpcVisualizer(address)
}

func newGrpcVisualizer(address string) *grpcVisualizer {
	gv := &grpcVisualizer{
		nodes: make(map[NodeId]*nodeInfo),
	}
	gv.server = newGrpcServer(gv, address)
	return gv
}

func (gv *grpcVisualizer) Init() {
}

func (gv *grpcVisualizer) Run() {
	if err := gv.server.Run(); err != nil {
		logger.Warnf("gRPC server quit: %v", err)
	}
}

// serve runs the server on an existing listener.
func (gv *grpcVisualizer) serve(lis net.Listener) {
	if err := gv.server.Serve(lis); err != nil {
		logger.Warnf("gRPC server quit: %v", err)
	}
}

func (gv *grpcVisualizer) Stop() {
	gv.server.stop()
}

func (gv *grpcVisualizer) SetRunInfo(info visualize.RunInfo) {
	gv.Lock()
	gv.info = info
	gv.Unlock()

	gv.server.SendEvent(map[string]interface{}{
		"type":   "run",
		"run_id": info.RunId,
		"title":  info.Title,
	})
}

func (gv *grpcVisualizer) AddNode(nodeid NodeId, x float64, y float64, role Role) {
	gv.Lock()
	if _, ok := gv.nodes[nodeid]; !ok {
		gv.order = append(gv.order, nodeid)
	}
	gv.nodes[nodeid] = &nodeInfo{x: x, y: y, role: role, state: MacIdle}
	gv.Unlock()

	gv.server.SendEvent(map[string]interface{}{
		"type": "add_node",
		"node": nodeid,
		"x":    x,
		"y":    y,
		"role": role.String(),
	})
}

func (gv *grpcVisualizer) AdvanceTime(ts Timestamp) {
	gv.Lock()
	gv.now = ts
	gv.Unlock()
}

func (gv *grpcVisualizer) OnMacStateChange(nodeid NodeId, peer NodeId, ts Timestamp, state MacState) {
	gv.Lock()
	if n := gv.nodes[nodeid]; n != nil {
		n.state = state
	}
	gv.now = ts
	gv.Unlock()

	gv.server.SendEvent(map[string]interface{}{
		"type":  "state",
		"node":  nodeid,
		"peer":  peer,
		"ts":    ts,
		"state": state.String(),
	})
}

func (gv *grpcVisualizer) OnSample(nodeid NodeId, sample mac.Sample) {
	gv.Lock()
	if n := gv.nodes[nodeid]; n != nil {
		n.cw = sample.Cw
	}
	gv.Unlock()

	gv.server.SendEvent(map[string]interface{}{
		"type": "cw",
		"node": nodeid,
		"ts":   sample.Timestamp,
		"cw":   sample.Cw,
	})
}

func (gv *grpcVisualizer) OnBackoff(nodeid NodeId, ts Timestamp, retries int, slots int) {
	gv.server.SendEvent(map[string]interface{}{
		"type":    "backoff",
		"node":    nodeid,
		"ts":      ts,
		"retries": retries,
		"slots":   slots,
	})
}

func (gv *grpcVisualizer) OnNavUpdate(nodeid NodeId, ts Timestamp, slots float64) {
	gv.server.SendEvent(map[string]interface{}{
		"type":  "nav",
		"node":  nodeid,
		"ts":    ts,
		"slots": slots,
	})
}

func (gv *grpcVisualizer) OnEnergy(nodeid NodeId, ts Timestamp, activity energy.Activity, amount float64) {
	gv.Lock()
	defer gv.Unlock()
	if n := gv.nodes[nodeid]; n != nil {
		n.energy += amount
	}
}

func (gv *grpcVisualizer) OnAttemptDone(sender NodeId, receiver NodeId, ts Timestamp, outcome mac.Outcome) {
	gv.server.SendEvent(map[string]interface{}{
		"type":     "attempt",
		"node":     sender,
		"peer":     receiver,
		"ts":       ts,
		"outcome":  outcome.String(),
		"watchers": gv.server.numWatchers(),
	})
}

func (gv *grpcVisualizer) OnRunDone(result *visualize.RunResult) {
	gv.Lock()
	gv.result = result
	gv.now = result.Duration
	gv.Unlock()

	gv.server.SendEvent(map[string]interface{}{
		"type":     "done",
		"run_id":   result.RunId,
		"duration": result.Duration,
	})
}

// summary returns the current state of the run as structpb-compatible values.
func (gv *grpcVisualizer) summary() map[string]interface{} {
	gv.Lock()
	defer gv.Unlock()

	nodes := make([]interface{}, 0, len(gv.order))
	for _, id := range gv.order {
		n := gv.nodes[id]
		nodes = append(nodes, map[string]interface{}{
			"id":     id,
			"name":   GetNodeName(id),
			"x":      n.x,
			"y":      n.y,
			"role":   n.role.String(),
			"state":  n.state.String(),
			"cw":     n.cw,
			"energy": n.energy,
		})
	}

	res := map[string]interface{}{
		"run_id":  gv.info.RunId,
		"title":   gv.info.Title,
		"seed":    gv.info.Seed,
		"time_us": gv.now,
		"done":    gv.result != nil,
		"nodes":   nodes,
	}
	if gv.result != nil {
		energyTotals := make(map[string]interface{}, len(gv.result.Energy))
		for id, e := range gv.result.Energy {
			energyTotals[GetNodeName(id)] = e
		}
		res["energy"] = energyTotals
		if gv.result.Err != nil {
			res["error"] = gv.result.Err.Error()
		}
	}
	return res
}
