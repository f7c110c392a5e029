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

package simulation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openthread/csmasim/clock"
	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
)

const testScenario = `
title: hidden terminal
seed: 42
timing: {difs: 40ms, slot: 10ms}
contention: {max_retries: 5}
range: 20
honor_nav: true
energy: {idle: 1.5, rts: 3}
nodes:
  - pos: [0, 0]
  - pos: [5, 0]
  - pos: [-5, 0]
transmitters: [1, 2]
receivers: [0]
`

func TestParseScenario(t *testing.T) {
	cfg, err := ParseScenario([]byte(testScenario))
	require.Nil(t, err)

	assert.Equal(t, "hidden terminal", cfg.Title)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, clock.ModeVirtual, cfg.ClockMode)
	assert.Equal(t, 40*time.Millisecond, cfg.Mac.Difs)
	assert.Equal(t, mac.DefaultSifs, cfg.Mac.Sifs)
	assert.Equal(t, 10*time.Millisecond, cfg.Mac.SlotTime)
	assert.Equal(t, mac.DefaultCwMin, cfg.Mac.CwMin)
	assert.Equal(t, 5, cfg.Mac.MaxRetries)
	assert.Equal(t, 20.0, cfg.Mac.TransmissionRange)
	assert.True(t, cfg.Mac.HonorNav)
	assert.Equal(t, 1.5, cfg.Energy.Idle)
	assert.Equal(t, 3.0, cfg.Energy.Rts)
	assert.Equal(t, 10.0, cfg.Energy.Transmission)
	assert.Equal(t, []NodeConfig{{ID: 0}, {ID: 1, X: 5}, {ID: 2, X: -5}}, cfg.Nodes)
	assert.Equal(t, []NodeId{1, 2}, cfg.Transmitters)
	assert.Equal(t, []NodeId{0}, cfg.Receivers)
	assert.Nil(t, cfg.Validate())
}

func TestParseScenarioErrors(t *testing.T) {
	_, err := ParseScenario([]byte("nodes: [{pos: [1]}]"))
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = ParseScenario([]byte("timing: {difs: soon}"))
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.Nil(t, os.WriteFile(path, []byte(testScenario), 0644))

	cfg, err := LoadScenario(path)
	require.Nil(t, err)
	assert.Len(t, cfg.Nodes, 3)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, err)
}

func TestMarshalScenarioRoundTrip(t *testing.T) {
	cfg, err := ParseScenario([]byte(testScenario))
	require.Nil(t, err)

	data, err := MarshalScenario(cfg)
	require.Nil(t, err)
	cfg2, err := ParseScenario(data)
	require.Nil(t, err)
	assert.Equal(t, cfg, cfg2)
}
