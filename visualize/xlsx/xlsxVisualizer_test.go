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

package visualize_xlsx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
	"github.com/openthread/csmasim/visualize"
)

func TestXlsxVisualizerSavesWorkbook(t *testing.T) {
	dir := t.TempDir()
	v := NewXlsxVisualizer(dir)
	v.SetRunInfo(visualize.RunInfo{RunId: "r1"})
	v.AddNode(0, 0, 0, RoleTransmitter)
	v.AddNode(1, 5, 0, RoleReceiver)
	v.OnRunDone(&visualize.RunResult{
		RunId:        "r1",
		Nodes:        []NodeConfig{{ID: 0}, {ID: 1, X: 5}},
		Transmitters: []NodeId{0},
		Energy:       map[NodeId]float64{0: 1.2, 1: 2},
		EnergyDetail: map[NodeId]map[energy.Activity]float64{
			0: {energy.ActivityIdle: 1, energy.ActivityDifs: 0.2},
			1: {energy.ActivityRts: 2},
		},
		History: map[NodeId][]mac.Sample{0: {{Cw: 1, Timestamp: 50000}, {Cw: 1, Timestamp: 120000}}},
		Counters: map[NodeId]visualize.OutcomeCounters{
			0: {Attempts: 1, Successes: 1, BackoffDraws: 1},
		},
	})

	f, err := excelize.OpenFile(filepath.Join(dir, "r1.xlsx"))
	require.Nil(t, err)
	defer f.Close()

	assert.Equal(t, []string{nodesSheet, energySheet, outcomesSheet, BackoffSheetName(0)}, f.GetSheetList())

	role, err := f.GetCellValue(nodesSheet, "D2")
	require.Nil(t, err)
	assert.Equal(t, "tx", role)
	name, err := f.GetCellValue(nodesSheet, "A3")
	require.Nil(t, err)
	assert.Equal(t, "Node 2", name)

	rows, err := f.GetRows(BackoffSheetName(0))
	require.Nil(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Contention Window", rows[0][1])
	assert.Equal(t, "1", rows[2][1])
	assert.Equal(t, "0.12", rows[2][2])

	successes, err := f.GetCellValue(outcomesSheet, "C2")
	require.Nil(t, err)
	assert.Equal(t, "1", successes)
}
