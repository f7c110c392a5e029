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
	"github.com/pkg/errors"

	"github.com/openthread/csmasim/clock"
	"github.com/openthread/csmasim/energy"
	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
)

const (
	DefaultTitle     = "csmasim"
	DefaultOutputDir = "./tmp"
	DefaultSeed      = 0
	DefaultSpeed     = 1.0
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

type Config struct {
	Title     string
	Mac       mac.Params
	Energy    energy.CostTable
	Seed      int64
	ClockMode clock.Mode
	Speed     float64
	OutputDir string

	Nodes        []NodeConfig
	Transmitters []NodeId
	Receivers    []NodeId
}

func DefaultConfig() *Config {
	return &Config{
		Title:     DefaultTitle,
		Mac:       mac.DefaultParams(),
		Energy:    energy.DefaultCostTable(),
		Seed:      DefaultSeed,
		ClockMode: clock.ModeVirtual,
		Speed:     DefaultSpeed,
		OutputDir: DefaultOutputDir,
	}
}

// AddNode appends a node at (x, y) and returns its id.
func (cfg *Config) AddNode(x, y float64) NodeId {
	id := len(cfg.Nodes)
	cfg.Nodes = append(cfg.Nodes, NodeConfig{ID: id, X: x, Y: y})
	return id
}

// Role returns the role a node plays in the configured run.
func (cfg *Config) Role(id NodeId) Role {
	for _, tx := range cfg.Transmitters {
		if tx == id {
			return RoleTransmitter
		}
	}
	for _, rx := range cfg.Receivers {
		if rx == id {
			return RoleReceiver
		}
	}
	return RoleNone
}

// Validate checks the configuration. Every returned error wraps ErrInvalidConfiguration.
func (cfg *Config) Validate() error {
	if len(cfg.Nodes) == 0 {
		return errors.Wrap(ErrInvalidConfiguration, "no nodes")
	}
	for i, n := range cfg.Nodes {
		if n.ID != i {
			return errors.Wrapf(ErrInvalidConfiguration, "node at index %d has id %d", i, n.ID)
		}
	}
	if err := cfg.Mac.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidConfiguration, "%v", err)
	}
	if err := cfg.Energy.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidConfiguration, "%v", err)
	}
	switch cfg.ClockMode {
	case clock.ModeVirtual:
	case clock.ModeReal:
		if cfg.Speed <= 0 {
			return errors.Wrapf(ErrInvalidConfiguration, "speed must be positive, got %f", cfg.Speed)
		}
	default:
		return errors.Wrapf(ErrInvalidConfiguration, "unknown clock mode %q", cfg.ClockMode)
	}

	if err := ValidateRoles(len(cfg.Nodes), cfg.Transmitters, nil); err != nil {
		return errors.Wrapf(err, "transmitters")
	}
	if err := ValidateRoles(len(cfg.Nodes), cfg.Receivers, cfg.Transmitters); err != nil {
		return errors.Wrapf(err, "receivers")
	}
	return nil
}

// ValidateRoles checks a role selection: non-empty, indices within 0..numNodes-1, no duplicates, and
// disjoint from taken.
func ValidateRoles(numNodes int, selected []NodeId, taken []NodeId) error {
	if len(selected) == 0 {
		return errors.Wrap(ErrInvalidConfiguration, "no node selected")
	}
	seen := make(map[NodeId]struct{}, len(selected)+len(taken))
	for _, id := range taken {
		seen[id] = struct{}{}
	}
	for _, id := range selected {
		if id < 0 || id >= numNodes {
			return errors.Wrapf(ErrInvalidConfiguration, "index %d out of range 0..%d", id, numNodes-1)
		}
		if _, ok := seen[id]; ok {
			return errors.Wrapf(ErrInvalidConfiguration, "duplicate index %d", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
