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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/logger"
	. "github.com/openthread/csmasim/types"
	"github.com/openthread/csmasim/visualize"
)

const (
	nodesSheet    = "Nodes"
	energySheet   = "Energy"
	outcomesSheet = "Outcomes"
)

// xlsxVisualizer writes the results of a run to an Excel workbook once the run is done.
type xlsxVisualizer struct {
	visualize.Visualizer

	lock     sync.Mutex
	path     string
	fileName string
	roles    map[NodeId]Role
}

// NewXlsxVisualizer creates a new Visualizer that saves the results of a run as a workbook. If
// fileName is a directory, the workbook is named after the run id.
func NewXlsxVisualizer(fileName string) visualize.Visualizer {
	return &xlsxVisualizer{
		Visualizer: visualize.NewNopVisualizer(),
		path:       fileName,
		fileName:   fileName,
		roles:      make(map[NodeId]Role),
	}
}

func (xv *xlsxVisualizer) SetRunInfo(info visualize.RunInfo) {
	xv.lock.Lock()
	defer xv.lock.Unlock()
	xv.fileName = xv.path
	if st, err := os.Stat(xv.path); err == nil && st.IsDir() {
		xv.fileName = filepath.Join(xv.path, fmt.Sprintf("%s.xlsx", info.RunId))
	}
}

func (xv *xlsxVisualizer) AddNode(nodeid NodeId, x float64, y float64, role Role) {
	xv.lock.Lock()
	defer xv.lock.Unlock()
	xv.roles[nodeid] = role
}

func (xv *xlsxVisualizer) OnRunDone(result *visualize.RunResult) {
	xv.lock.Lock()
	defer xv.lock.Unlock()

	if err := SaveWorkbook(xv.fileName, result, xv.roles); err != nil {
		logger.Errorf("saving results workbook failed: %+v", err)
		return
	}
	logger.Infof("results saved to %s", xv.fileName)
}

// SaveWorkbook writes a results workbook: node table, energy breakdown, outcome counters, and one
// backoff table sheet per transmitter.
func SaveWorkbook(fileName string, result *visualize.RunResult, roles map[NodeId]Role) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warnf("closing workbook failed: %v", err)
		}
	}()

	for _, sheet := range []string{nodesSheet, energySheet, outcomesSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "create sheet %s", sheet)
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return errors.Wrap(err, "delete default sheet")
	}

	headersNodes := []interface{}{"Node", "X", "Y", "Role", "Energy (mW)"}
	_ = f.SetSheetRow(nodesSheet, "A1", &headersNodes)
	for i, n := range result.Nodes {
		row := []interface{}{GetNodeName(n.ID), n.X, n.Y, roles[n.ID].String(), result.Energy[n.ID]}
		_ = f.SetSheetRow(nodesSheet, fmt.Sprintf("A%d", i+2), &row)
	}

	headersEnergy := []interface{}{"Node"}
	for _, a := range energy.Activities() {
		headersEnergy = append(headersEnergy, a.String())
	}
	_ = f.SetSheetRow(energySheet, "A1", &headersEnergy)
	ids := sortedIds(result.EnergyDetail)
	for i, id := range ids {
		row := []interface{}{GetNodeName(id)}
		for _, a := range energy.Activities() {
			row = append(row, result.EnergyDetail[id][a])
		}
		_ = f.SetSheetRow(energySheet, fmt.Sprintf("A%d", i+2), &row)
	}

	headersOutcomes := []interface{}{"Node", "Attempts", "Successes", "Give-ups", "Out of range", "Receiver busy",
		"Collisions", "Backoff draws", "Backoff slots", "NAV updates", "Collision rate (%)"}
	_ = f.SetSheetRow(outcomesSheet, "A1", &headersOutcomes)
	ids = sortedIds(result.Counters)
	for i, id := range ids {
		c := result.Counters[id]
		var collisionRate float64
		if c.BackoffDraws > 0 {
			collisionRate = float64(c.Collisions) / float64(c.BackoffDraws) * 100
		}
		row := []interface{}{GetNodeName(id), c.Attempts, c.Successes, c.GiveUps, c.OutOfRange, c.ReceiverBusy,
			c.Collisions, c.BackoffDraws, c.BackoffSlots, c.NavUpdates, collisionRate}
		_ = f.SetSheetRow(outcomesSheet, fmt.Sprintf("A%d", i+2), &row)
	}

	for _, id := range result.Transmitters {
		sheet := BackoffSheetName(id)
		if _, err := f.NewSheet(sheet); err != nil {
			return errors.Wrapf(err, "create sheet %s", sheet)
		}
		headers := []interface{}{"Backoff Period (s)", "Contention Window", "Time (s)"}
		_ = f.SetSheetRow(sheet, "A1", &headers)
		for i, r := range visualize.BackoffTable(result.History[id]) {
			row := []interface{}{r.Period.Seconds(), r.Cw, float64(r.Time) / 1e6}
			_ = f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row)
		}
	}

	if dir := filepath.Dir(fileName); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create directory %s", dir)
		}
	}
	return errors.Wrapf(f.SaveAs(fileName), "save %s", fileName)
}

// BackoffSheetName returns the name of the backoff table sheet of a transmitter.
func BackoffSheetName(id NodeId) string {
	return fmt.Sprintf("Backoff %s", GetNodeName(id))
}

func sortedIds[V any](m map[NodeId]V) []NodeId {
	ids := make([]NodeId, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
