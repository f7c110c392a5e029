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

package visualize_statslog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/logger"
	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
	. "github.com/openthread/csmasim/visualize"
)

// statslogVisualizer writes a CSV log of the MAC events of a run and, when the run is done, a text
// report with the backoff table of every transmitter.
type statslogVisualizer struct {
	lock           sync.Mutex
	outputDir      string
	logFile        *os.File
	logFileName    string
	reportFileName string
	isFileEnabled  bool
	timestampUs    Timestamp
	numEntries     int
	roles          map[NodeId]Role
}

// NewStatslogVisualizer creates a new Visualizer that writes a log of MAC events to file.
func NewStatslogVisualizer(outputDir string) Visualizer {
	return &statslogVisualizer{
		outputDir:     outputDir,
		isFileEnabled: true,
		roles:         make(map[NodeId]Role, 16),
	}
}

// SetRunInfo starts a new CSV log for the run, closing the log of the previous run.
func (sv *statslogVisualizer) SetRunInfo(info RunInfo) {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	sv.close()
	sv.isFileEnabled = true
	sv.numEntries = 0
	sv.timestampUs = 0
	sv.logFileName = getStatsLogFileName(sv.outputDir, info.RunId)
	sv.reportFileName = getReportFileName(sv.outputDir, info.RunId)
	if err := os.MkdirAll(sv.outputDir, 0775); err != nil {
		logger.Errorf("creating output directory %s failed: %+v", sv.outputDir, err)
		sv.isFileEnabled = false
		return
	}
	sv.createLogFile()
}

func (sv *statslogVisualizer) Init() {
}

func (sv *statslogVisualizer) Run() {
	// no goroutine
}

func (sv *statslogVisualizer) Stop() {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	sv.close()
	logger.Debugf("statslogVisualizer stopped, %d entries written to %s.", sv.numEntries, sv.logFileName)
}

func (sv *statslogVisualizer) AddNode(nodeid NodeId, x float64, y float64, role Role) {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	sv.roles[nodeid] = role
	sv.writeLogEntry(sv.timestampUs, nodeid, "node", InvalidNodeId, fmt.Sprintf("%s %g %g", role, x, y))
}

func (sv *statslogVisualizer) AdvanceTime(ts Timestamp) {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	sv.timestampUs = ts
}

func (sv *statslogVisualizer) OnMacStateChange(nodeid NodeId, peer NodeId, ts Timestamp, state MacState) {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	sv.writeLogEntry(ts, nodeid, "state", peer, state.String())
}

func (sv *statslogVisualizer) OnSample(nodeid NodeId, sample mac.Sample) {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	sv.writeLogEntry(sample.Timestamp, nodeid, "cw", InvalidNodeId, fmt.Sprintf("%d", sample.Cw))
}

func (sv *statslogVisualizer) OnBackoff(nodeid NodeId, ts Timestamp, retries int, slots int) {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	sv.writeLogEntry(ts, nodeid, "backoff", InvalidNodeId, fmt.Sprintf("%d/%d", slots, mac.ContentionWindow(retries)))
}

func (sv *statslogVisualizer) OnNavUpdate(nodeid NodeId, ts Timestamp, slots float64) {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	sv.writeLogEntry(ts, nodeid, "nav", InvalidNodeId, fmt.Sprintf("%g", slots))
}

func (sv *statslogVisualizer) OnEnergy(NodeId, Timestamp, energy.Activity, float64) {
}

func (sv *statslogVisualizer) OnAttemptDone(sender NodeId, receiver NodeId, ts Timestamp, outcome mac.Outcome) {
	sv.lock.Lock()
	defer sv.lock.Unlock()
	sv.writeLogEntry(ts, sender, "attempt", receiver, outcome.String())
}

func (sv *statslogVisualizer) OnRunDone(result *RunResult) {
	sv.lock.Lock()
	defer sv.lock.Unlock()

	if sv.reportFileName == "" {
		return
	}
	f, err := os.Create(sv.reportFileName)
	if err != nil {
		logger.Errorf("creating report file %s failed: %+v", sv.reportFileName, err)
		return
	}
	defer f.Close()

	fmt.Fprintf(f, "Run %s (%s)\n\nNode Coordinates:\n", result.RunId, result.Title)
	WriteCoordinates(f, result.Nodes)
	fmt.Fprintf(f, "\nTotal energy consumed by each node:\n")
	WriteEnergyTotals(f, result.Energy)
	for _, id := range result.Transmitters {
		fmt.Fprintln(f)
		WriteBackoffTable(f, id, result.History[id])
	}
	logger.Debugf("report file '%s' written.", sv.reportFileName)
}

func (sv *statslogVisualizer) createLogFile() {
	logger.AssertNil(sv.logFile)

	var err error
	_ = os.Remove(sv.logFileName)

	sv.logFile, err = os.OpenFile(sv.logFileName, os.O_CREATE|os.O_WRONLY, 0664)
	if err != nil {
		logger.Errorf("creating new stats log file %s failed: %+v", sv.logFileName, err)
		sv.isFileEnabled = false
		return
	}
	sv.writeLogFileHeader()
	logger.Debugf("Stats log file '%s' created.", sv.logFileName)
}

func (sv *statslogVisualizer) writeLogFileHeader() {
	// RFC 4180 CSV file: no leading or trailing spaces in header field names
	header := "timeSec,node,event,peer,value"
	_ = sv.writeToLogFile(header)
}

func (sv *statslogVisualizer) writeLogEntry(ts Timestamp, nodeid NodeId, event string, peer NodeId, value string) {
	timeSec := float64(ts) / 1e6
	peerStr := ""
	if peer != InvalidNodeId {
		peerStr = fmt.Sprintf("%d", peer+1)
	}
	entry := fmt.Sprintf("%.6f,%d,%s,%s,%s", timeSec, nodeid+1, event, peerStr, value)
	if sv.writeToLogFile(entry) == nil {
		sv.numEntries++
	}
}

func (sv *statslogVisualizer) writeToLogFile(line string) error {
	if !sv.isFileEnabled || sv.logFile == nil {
		return nil
	}
	_, err := sv.logFile.WriteString(line + "\n")
	if err != nil {
		sv.close()
		sv.isFileEnabled = false
		logger.Errorf("couldn't write to stats log file (%s), closing it", sv.logFileName)
	}
	return err
}

func (sv *statslogVisualizer) close() {
	if sv.logFile != nil {
		_ = sv.logFile.Close()
		sv.logFile = nil
		sv.isFileEnabled = false
	}
}

func getStatsLogFileName(outputDir string, runId string) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s_stats.csv", runId))
}

func getReportFileName(outputDir string, runId string) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s_report.txt", runId))
}
