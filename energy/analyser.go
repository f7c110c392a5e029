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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/openthread/csmasim/logger"
	. "github.com/openthread/csmasim/types"
)

// NetworkConsumption is a snapshot of the mean energy consumed per node, by activity.
type NetworkConsumption struct {
	Timestamp  Timestamp
	Total      float64
	ByActivity map[Activity]float64
}

// EnergyAnalyser keeps the energy meters of all nodes of a simulation and a history of network-wide
// snapshots.
type EnergyAnalyser struct {
	lock           sync.Mutex
	nodes          map[NodeId]*NodeEnergy
	networkHistory []NetworkConsumption
	title          string
}

func NewEnergyAnalyser() *EnergyAnalyser {
	return &EnergyAnalyser{
		nodes:          make(map[NodeId]*NodeEnergy),
		networkHistory: make([]NetworkConsumption, 0, 64),
	}
}

// AddNode creates the meter of a node, or returns the existing one.
func (e *EnergyAnalyser) AddNode(nodeId NodeId) *NodeEnergy {
	e.lock.Lock()
	defer e.lock.Unlock()

	if node, ok := e.nodes[nodeId]; ok {
		return node
	}
	node := NewNodeEnergy(nodeId)
	e.nodes[nodeId] = node
	return node
}

func (e *EnergyAnalyser) GetNode(nodeId NodeId) *NodeEnergy {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.nodes[nodeId]
}

func (e *EnergyAnalyser) SetTitle(title string) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.title = title
}

// Totals returns the total energy consumed per node.
func (e *EnergyAnalyser) Totals() map[NodeId]float64 {
	e.lock.Lock()
	defer e.lock.Unlock()

	res := make(map[NodeId]float64, len(e.nodes))
	for id, node := range e.nodes {
		res[id] = node.Total()
	}
	return res
}

func (e *EnergyAnalyser) GetNetworkEnergyHistory() []NetworkConsumption {
	e.lock.Lock()
	defer e.lock.Unlock()

	res := make([]NetworkConsumption, len(e.networkHistory))
	copy(res, e.networkHistory)
	return res
}

// StoreNetworkEnergy appends a network snapshot taken at timestamp.
func (e *EnergyAnalyser) StoreNetworkEnergy(timestamp Timestamp) {
	e.lock.Lock()
	defer e.lock.Unlock()

	snapshot := NetworkConsumption{
		Timestamp:  timestamp,
		ByActivity: make(map[Activity]float64, numActivities),
	}
	if len(e.nodes) > 0 {
		netSize := float64(len(e.nodes))
		for _, node := range e.nodes {
			for a, v := range node.ByActivity() {
				snapshot.ByActivity[a] += v / netSize
				snapshot.Total += v / netSize
			}
		}
	}
	e.networkHistory = append(e.networkHistory, snapshot)
}

// SaveEnergyDataToFile writes <dir>/energy_results/<name>_nodes.txt with the per-node breakdown and
// <dir>/energy_results/<name>.txt with the network history. An empty name falls back to the title.
func (e *EnergyAnalyser) SaveEnergyDataToFile(dir string, name string, timestamp Timestamp) error {
	e.lock.Lock()
	if name == "" {
		if e.title == "" {
			name = "energy"
		} else {
			name = e.title
		}
	}
	e.lock.Unlock()

	resultsDir := filepath.Join(dir, "energy_results")
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", resultsDir)
	}

	path := filepath.Join(resultsDir, name)
	fileNodes, err := os.Create(path + "_nodes.txt")
	if err != nil {
		return errors.Wrap(err, "create nodes energy file")
	}
	defer fileNodes.Close()

	fileNetwork, err := os.Create(path + ".txt")
	if err != nil {
		return errors.Wrap(err, "create network energy file")
	}
	defer fileNetwork.Close()

	e.WriteEnergyByNodes(fileNodes, timestamp)
	e.writeNetworkEnergy(fileNetwork, timestamp)
	logger.Debugf("energy results saved to %s", resultsDir)
	return nil
}

// WriteEnergyByNodes writes a tab-separated table with one row per node.
func (e *EnergyAnalyser) WriteEnergyByNodes(w io.Writer, timestamp Timestamp) {
	e.lock.Lock()
	defer e.lock.Unlock()

	fmt.Fprintf(w, "Duration of the simulated network (in milliseconds): %d\n", timestamp/1000)
	fmt.Fprintf(w, "Node\tTotal (mW)")
	for _, a := range Activities() {
		fmt.Fprintf(w, "\t%s", a)
	}
	fmt.Fprintln(w)

	sortedNodes := make([]NodeId, 0, len(e.nodes))
	for id := range e.nodes {
		sortedNodes = append(sortedNodes, id)
	}
	sort.Ints(sortedNodes)

	for _, id := range sortedNodes {
		node := e.nodes[id]
		byActivity := node.ByActivity()
		fmt.Fprintf(w, "%s\t%f", GetNodeName(id), node.Total())
		for _, a := range Activities() {
			fmt.Fprintf(w, "\t%f", byActivity[a])
		}
		fmt.Fprintln(w)
	}
}

func (e *EnergyAnalyser) writeNetworkEnergy(w io.Writer, timestamp Timestamp) {
	e.lock.Lock()
	defer e.lock.Unlock()

	fmt.Fprintf(w, "Duration of the simulated network (in milliseconds): %d\n", timestamp/1000)
	fmt.Fprintf(w, "Time (ms)\tTotal (mW)")
	for _, a := range Activities() {
		fmt.Fprintf(w, "\t%s", a)
	}
	fmt.Fprintln(w)
	for _, snapshot := range e.networkHistory {
		fmt.Fprintf(w, "%d\t%f", snapshot.Timestamp/1000, snapshot.Total)
		for _, a := range Activities() {
			fmt.Fprintf(w, "\t%f", snapshot.ByActivity[a])
		}
		fmt.Fprintln(w)
	}
}
