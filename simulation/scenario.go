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
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/openthread/csmasim/clock"
	"github.com/openthread/csmasim/energy"
	. "github.com/openthread/csmasim/types"
)

type yamlTiming struct {
	Difs time.Duration `yaml:"difs"`
	Sifs time.Duration `yaml:"sifs"`
	Slot time.Duration `yaml:"slot"`
}

type yamlContention struct {
	CwMin      int `yaml:"cw_min"`
	CwMax      int `yaml:"cw_max"`
	MaxRetries int `yaml:"max_retries"`
}

type yamlNode struct {
	Pos []float64 `yaml:"pos,flow"`
}

// yamlScenario is the on-disk form of a Config.
type yamlScenario struct {
	Title        string           `yaml:"title"`
	Seed         int64            `yaml:"seed"`
	Clock        string           `yaml:"clock"`
	Speed        float64          `yaml:"speed"`
	Output       string           `yaml:"output"`
	Timing       yamlTiming       `yaml:"timing"`
	Contention   yamlContention   `yaml:"contention"`
	Range        float64          `yaml:"range"`
	HonorNav     bool             `yaml:"honor_nav"`
	Energy       energy.CostTable `yaml:"energy"`
	Nodes        []yamlNode       `yaml:"nodes"`
	Transmitters []NodeId         `yaml:"transmitters,flow"`
	Receivers    []NodeId         `yaml:"receivers,flow"`
}

func newYamlScenario(cfg *Config) *yamlScenario {
	ys := &yamlScenario{
		Title:  cfg.Title,
		Seed:   cfg.Seed,
		Clock:  string(cfg.ClockMode),
		Speed:  cfg.Speed,
		Output: cfg.OutputDir,
		Timing: yamlTiming{
			Difs: cfg.Mac.Difs,
			Sifs: cfg.Mac.Sifs,
			Slot: cfg.Mac.SlotTime,
		},
		Contention: yamlContention{
			CwMin:      cfg.Mac.CwMin,
			CwMax:      cfg.Mac.CwMax,
			MaxRetries: cfg.Mac.MaxRetries,
		},
		Range:        cfg.Mac.TransmissionRange,
		HonorNav:     cfg.Mac.HonorNav,
		Energy:       cfg.Energy,
		Transmitters: cfg.Transmitters,
		Receivers:    cfg.Receivers,
	}
	for _, n := range cfg.Nodes {
		ys.Nodes = append(ys.Nodes, yamlNode{Pos: []float64{n.X, n.Y}})
	}
	return ys
}

func (ys *yamlScenario) config() (*Config, error) {
	cfg := &Config{
		Title:        ys.Title,
		Seed:         ys.Seed,
		ClockMode:    clock.Mode(ys.Clock),
		Speed:        ys.Speed,
		OutputDir:    ys.Output,
		Energy:       ys.Energy,
		Transmitters: ys.Transmitters,
		Receivers:    ys.Receivers,
	}
	cfg.Mac.Difs = ys.Timing.Difs
	cfg.Mac.Sifs = ys.Timing.Sifs
	cfg.Mac.SlotTime = ys.Timing.Slot
	cfg.Mac.CwMin = ys.Contention.CwMin
	cfg.Mac.CwMax = ys.Contention.CwMax
	cfg.Mac.MaxRetries = ys.Contention.MaxRetries
	cfg.Mac.TransmissionRange = ys.Range
	cfg.Mac.HonorNav = ys.HonorNav

	for i, n := range ys.Nodes {
		if len(n.Pos) != 2 {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "node %d: pos needs 2 coordinates, got %d", i, len(n.Pos))
		}
		cfg.AddNode(n.Pos[0], n.Pos[1])
	}
	return cfg, nil
}

// ParseScenario parses a YAML scenario. Fields that are not given keep their default values.
func ParseScenario(data []byte) (*Config, error) {
	ys := newYamlScenario(DefaultConfig())
	if err := yaml.Unmarshal(data, ys); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "%v", err)
	}
	return ys.config()
}

// LoadScenario reads and parses a YAML scenario file.
func LoadScenario(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario %s", path)
	}
	cfg, err := ParseScenario(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}
	return cfg, nil
}

// MarshalScenario renders cfg as a YAML scenario that ParseScenario reads back.
func MarshalScenario(cfg *Config) ([]byte, error) {
	return yaml.Marshal(newYamlScenario(cfg))
}
