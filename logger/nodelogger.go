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

package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/openthread/csmasim/types"
)

// NodeLogger is a node-specific log object. The display level and an optional log file can be set per node.
type NodeLogger struct {
	Id           NodeId
	displayLevel Level

	logFile       *os.File
	logFileName   string
	isFileEnabled bool
	lock          sync.Mutex
}

// TimeSource returns the current simulation time, used to stamp node log lines.
type TimeSource func() Timestamp

var (
	nodeLogs   = make(map[NodeId]*NodeLogger, 10)
	mutex      = sync.Mutex{}
	timeSource TimeSource
)

// SetTimeSource sets the simulation time source used by all NodeLoggers.
func SetTimeSource(ts TimeSource) {
	mutex.Lock()
	timeSource = ts
	mutex.Unlock()
}

// GetNodeLogger gets the NodeLogger instance for the given node, creating it if needed. If outputDir is
// non-empty, the node's log lines are also written to a file in that directory.
func GetNodeLogger(outputDir string, nodeid NodeId) *NodeLogger {
	mutex.Lock()
	defer mutex.Unlock()

	nl, ok := nodeLogs[nodeid]
	if !ok {
		nl = &NodeLogger{
			Id:           nodeid,
			displayLevel: DefaultLevel,
		}
		nodeLogs[nodeid] = nl
	}
	if len(outputDir) > 0 && nl.logFile == nil {
		nl.logFileName = getLogFileName(outputDir, nodeid)
		nl.isFileEnabled = true
		nl.createLogFile()
	}
	return nl
}

// CloseNodeLoggers closes all node log files and forgets all NodeLoggers.
func CloseNodeLoggers() {
	mutex.Lock()
	defer mutex.Unlock()

	for _, nl := range nodeLogs {
		nl.lock.Lock()
		nl.close()
		nl.lock.Unlock()
	}
	nodeLogs = make(map[NodeId]*NodeLogger, 10)
}

func getLogFileName(outputDir string, nodeId NodeId) string {
	return filepath.Join(outputDir, fmt.Sprintf("node_%d.log", nodeId+1))
}

func (nl *NodeLogger) createLogFile() {
	var err error
	nl.logFile, err = os.OpenFile(nl.logFileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0664)
	if err != nil {
		Errorf("creating node log file %s failed: %+v", nl.logFileName, err)
		nl.isFileEnabled = false
		return
	}

	header := fmt.Sprintf("#\n# csmasim log for %s Created %s\n", GetNodeName(nl.Id),
		time.Now().Format(time.RFC3339)) +
		"# SimTimeUs    Lev   Message"
	nl.writeToLogFile(header)
}

// SetDisplayLevel sets the level up to which this node's messages are shown on the console.
func (nl *NodeLogger) SetDisplayLevel(level Level) {
	nl.lock.Lock()
	nl.displayLevel = level
	nl.lock.Unlock()
}

func (nl *NodeLogger) Tracef(format string, args ...interface{}) {
	nl.Logf(TraceLevel, format, args...)
}

func (nl *NodeLogger) Debugf(format string, args ...interface{}) {
	nl.Logf(DebugLevel, format, args...)
}

func (nl *NodeLogger) Infof(format string, args ...interface{}) {
	nl.Logf(InfoLevel, format, args...)
}

func (nl *NodeLogger) Warnf(format string, args ...interface{}) {
	nl.Logf(WarnLevel, format, args...)
}

// Logf logs a node-specific message. File output takes every level; the console only shows messages
// within both the node's display level and the global level.
func (nl *NodeLogger) Logf(level Level, format string, args ...interface{}) {
	ts := currentTime()
	nl.lock.Lock()
	defer nl.lock.Unlock()

	display := level <= nl.displayLevel && level <= GetLevel()
	if !display && !nl.isFileEnabled {
		return
	}

	msg := getMessage(format, args)
	if nl.isFileEnabled {
		nl.writeToLogFile(fmt.Sprintf("%11d %-5s %s", ts, level.String(), msg))
	}
	if display {
		logAlways(level, fmt.Sprintf("%-8s %11d %s", GetNodeName(nl.Id), ts, msg))
	}
}

// NodeLogf logs a formatted log message for the specific nodeid; correct NodeLogger object will be auto-found.
func NodeLogf(nodeid NodeId, level Level, format string, args ...interface{}) {
	GetNodeLogger("", nodeid).Logf(level, format, args...)
}

func (nl *NodeLogger) writeToLogFile(line string) {
	if !nl.isFileEnabled {
		return
	}
	if _, err := nl.logFile.WriteString(line + "\n"); err != nil {
		nl.close()
		Errorf("couldn't write to node log file (%s), closing it", nl.logFileName)
	}
}

func (nl *NodeLogger) close() {
	if nl.logFile != nil {
		_ = nl.logFile.Close()
		nl.logFile = nil
	}
	nl.isFileEnabled = false
}

func currentTime() Timestamp {
	mutex.Lock()
	ts := timeSource
	mutex.Unlock()
	if ts == nil {
		return 0
	}
	return ts()
}
