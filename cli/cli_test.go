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

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/csmasim/progctx"
	"github.com/openthread/csmasim/simulation"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	assert.NotNil(t, parseBytes([]byte("wrongcmd"), &cmd))

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add 1 2"), &cmd))
	require.NotNil(t, cmd.Add)
	assert.Equal(t, "1", cmd.Add.X)
	assert.Equal(t, "2", cmd.Add.Y)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("add -5 2.5"), &cmd))
	require.NotNil(t, cmd.Add)
	assert.Equal(t, "-5", cmd.Add.X)
	assert.Equal(t, "2.5", cmd.Add.Y)
	assert.NotNil(t, parseBytes([]byte("add 1"), &cmd))

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("tx 1 2"), &cmd))
	require.NotNil(t, cmd.Tx)
	assert.Equal(t, []NodeSelector{{Id: 1}, {Id: 2}}, cmd.Tx.Nodes)

	cmd = Command{}
	assert.Nil(t, parseBytes([]byte("rx"), &cmd))
	require.NotNil(t, cmd.Rx)
	assert.Len(t, cmd.Rx.Nodes, 0)

	cmd = Command{}
	assert.True(t, parseBytes([]byte("range 20"), &cmd) == nil && cmd.Range != nil && cmd.Range.Val == "20")
	cmd = Command{}
	assert.True(t, parseBytes([]byte("range"), &cmd) == nil && cmd.Range != nil && cmd.Range.Val == "")
	cmd = Command{}
	assert.True(t, parseBytes([]byte("seed 42"), &cmd) == nil && cmd.Seed != nil && *cmd.Seed.Val == 42)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("load \"a.yaml\""), &cmd) == nil && cmd.Load != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("save \"a.yaml\""), &cmd) == nil && cmd.Save != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("run"), &cmd) == nil && cmd.Run != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("energy"), &cmd) == nil && cmd.Energy != nil && cmd.Energy.Detail == nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("energy detail"), &cmd) == nil && cmd.Energy != nil && cmd.Energy.Detail != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("history 0"), &cmd) == nil && cmd.History != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("table"), &cmd) == nil && cmd.Table != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("table 0 1"), &cmd) == nil && cmd.Table != nil && len(cmd.Table.Nodes) == 2)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("neighbors"), &cmd) == nil && cmd.Neighbors != nil && cmd.Neighbors.Node == nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("neighbors 3"), &cmd) == nil && cmd.Neighbors != nil && cmd.Neighbors.Node.Id == 3)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("nodes"), &cmd) == nil && cmd.Nodes != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("log"), &cmd) == nil && cmd.LogLevel != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("log debug"), &cmd) == nil && cmd.LogLevel != nil && cmd.LogLevel.Level == "debug")
	cmd = Command{}
	assert.True(t, parseBytes([]byte("help"), &cmd) == nil && cmd.Help != nil)
	cmd = Command{}
	assert.True(t, parseBytes([]byte("help tx"), &cmd) == nil && cmd.Help != nil && cmd.Help.HelpTopic == "tx")
	cmd = Command{}
	assert.True(t, parseBytes([]byte("exit"), &cmd) == nil && cmd.Exit != nil)
}

func newTestRunner(t *testing.T) *CmdRunner {
	ctx := progctx.New(context.Background())
	t.Cleanup(func() { ctx.Cancel(nil) })
	cfg := simulation.DefaultConfig()
	cfg.Seed = 1
	cfg.OutputDir = ""
	return NewCmdRunner(ctx, cfg, nil)
}

func runCommand(t *testing.T, rt *CmdRunner, cmd string) string {
	var out bytes.Buffer
	require.Nil(t, rt.RunCommand(cmd, &out))
	return out.String()
}

func TestConfigureAndRun(t *testing.T) {
	rt := newTestRunner(t)

	assert.Equal(t, "0\nDone\n", runCommand(t, rt, "add 0 0"))
	assert.Equal(t, "1\nDone\n", runCommand(t, rt, "add 5 0"))
	assert.Equal(t, "2\nDone\n", runCommand(t, rt, "add 100 0"))

	assert.Contains(t, runCommand(t, rt, "run"), "Error:")

	assert.Equal(t, "Done\n", runCommand(t, rt, "tx 0"))
	assert.Contains(t, runCommand(t, rt, "rx 0"), "Error:")
	assert.Contains(t, runCommand(t, rt, "rx 7"), "Error:")
	assert.Equal(t, "Done\n", runCommand(t, rt, "rx 1 2"))
	assert.Equal(t, "[0]\nDone\n", runCommand(t, rt, "tx"))

	nodes := runCommand(t, rt, "nodes")
	assert.Contains(t, nodes, "Node 1\tx=0\ty=0\trole=tx")
	assert.Contains(t, nodes, "Node 3\tx=100\ty=0\trole=rx")

	neighbors := runCommand(t, rt, "neighbors 0")
	assert.Equal(t, "Node 1: Node 2 (5.00)\nDone\n", neighbors)

	assert.Contains(t, runCommand(t, rt, "energy"), "Error: no simulation has been run")

	out := runCommand(t, rt, "run")
	assert.Contains(t, out, "Node 1: attempts=2 successes=1 give-ups=0 out-of-range=1 busy=0 collisions=0")
	assert.True(t, strings.HasSuffix(out, "Done\n"))

	table := runCommand(t, rt, "table")
	assert.Contains(t, table, "Backoff Table for Node 1:")
	assert.Contains(t, table, "0.00\t\t1\t\t\t00:00:00.050")
	assert.Contains(t, table, "0.07\t\t1\t\t\t00:00:00.120")

	assert.Equal(t, "- {cw: 1, time_us: 50000}\n- {cw: 1, time_us: 120000}\nDone\n", runCommand(t, rt, "history 0"))
	assert.Contains(t, runCommand(t, rt, "history 1"), "Error:")

	energyOut := runCommand(t, rt, "energy")
	assert.Contains(t, energyOut, "Node 2")
	assert.Contains(t, runCommand(t, rt, "energy detail"), "rts=2")
}

func TestRangeSeedAndLog(t *testing.T) {
	rt := newTestRunner(t)

	assert.Equal(t, "15\nDone\n", runCommand(t, rt, "range"))
	assert.Equal(t, "Done\n", runCommand(t, rt, "range 22.5"))
	assert.Equal(t, 22.5, rt.Config().Mac.TransmissionRange)
	assert.Equal(t, "Done\n", runCommand(t, rt, "seed 7"))
	assert.Equal(t, "7\nDone\n", runCommand(t, rt, "seed"))
	assert.Contains(t, runCommand(t, rt, "log bogus"), "Error:")
}

func TestSaveAndLoad(t *testing.T) {
	rt := newTestRunner(t)
	runCommand(t, rt, "add 0 0")
	runCommand(t, rt, "add 5 0")
	runCommand(t, rt, "tx 1")
	runCommand(t, rt, "rx 0")

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	assert.Equal(t, "Done\n", runCommand(t, rt, "save \""+path+"\""))
	_, err := os.Stat(path)
	require.Nil(t, err)

	rt2 := newTestRunner(t)
	out := runCommand(t, rt2, "load \""+path+"\"")
	assert.Equal(t, "2 nodes, transmitters [1], receivers [0]\nDone\n", out)
	assert.Equal(t, rt.Config().Nodes, rt2.Config().Nodes)
}

func TestHelp(t *testing.T) {
	rt := newTestRunner(t)
	general := runCommand(t, rt, "help")
	for _, c := range []string{"add", "energy", "history", "load", "neighbors", "run", "rx", "table", "tx"} {
		assert.Contains(t, general, c)
	}
	assert.Contains(t, runCommand(t, rt, "help add"), "add <x> <y>")
	assert.Contains(t, runCommand(t, rt, "help nope"), "Non-existent command")
}

func TestExit(t *testing.T) {
	rt := newTestRunner(t)
	var out bytes.Buffer
	assert.Equal(t, ErrExit, rt.RunCommand("exit", &out))
}
