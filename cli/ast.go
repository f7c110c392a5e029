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
	"strconv"

	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Add       *AddCmd       `  @@` //nolint
	Energy    *EnergyCmd    `| @@` //nolint
	Exit      *ExitCmd      `| @@` //nolint
	Help      *HelpCmd      `| @@` //nolint
	History   *HistoryCmd   `| @@` //nolint
	Load      *LoadCmd      `| @@` //nolint
	LogLevel  *LogLevelCmd  `| @@` //nolint
	Neighbors *NeighborsCmd `| @@` //nolint
	Nodes     *NodesCmd     `| @@` //nolint
	Range     *RangeCmd     `| @@` //nolint
	Run       *RunCmd       `| @@` //nolint
	Rx        *RxCmd        `| @@` //nolint
	Save      *SaveCmd      `| @@` //nolint
	Seed      *SeedCmd      `| @@` //nolint
	Table     *TableCmd     `| @@` //nolint
	Tx        *TxCmd        `| @@` //nolint
}

// noinspection GoStructTag
type NodeSelector struct {
	Id int `@Int` //nolint
}

func (ns *NodeSelector) String() string {
	return strconv.Itoa(ns.Id)
}

// noinspection GoStructTag
type AddCmd struct {
	Cmd struct{} `"add"`                      //nolint
	X   string   `@( ["-"] ( Int | Float ) )` //nolint
	Y   string   `@( ["-"] ( Int | Float ) )` //nolint
}

// noinspection GoStructTag
type EnergyCmd struct {
	Cmd    struct{} `"energy"`      //nolint
	Detail *string  `[ @"detail" ]` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type HistoryCmd struct {
	Cmd  struct{}     `"history"` //nolint
	Node NodeSelector `@@`        //nolint
}

// noinspection GoStructTag
type LoadCmd struct {
	Cmd  struct{} `"load"`  //nolint
	Path string   `@String` //nolint
}

// noinspection GoStructTag
type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                          //nolint
	Level string   `[ @( "trace"|"debug"|"info"|"warn"|"error"|"off"|"default" ) ]` //nolint
}

// noinspection GoStructTag
type NeighborsCmd struct {
	Cmd  struct{}      `"neighbors"` //nolint
	Node *NodeSelector `[ @@ ]`      //nolint
}

// noinspection GoStructTag
type NodesCmd struct {
	Cmd struct{} `"nodes"` //nolint
}

// noinspection GoStructTag
type RangeCmd struct {
	Cmd struct{} `"range"`              //nolint
	Val string   `[ @( Int | Float ) ]` //nolint
}

// noinspection GoStructTag
type RunCmd struct {
	Cmd struct{} `"run"` //nolint
}

// noinspection GoStructTag
type RxCmd struct {
	Cmd   struct{}       `"rx"`        //nolint
	Nodes []NodeSelector `[ ( @@ )+ ]` //nolint
}

// noinspection GoStructTag
type SaveCmd struct {
	Cmd  struct{} `"save"`  //nolint
	Path string   `@String` //nolint
}

// noinspection GoStructTag
type SeedCmd struct {
	Cmd struct{} `"seed"`   //nolint
	Val *int     `[ @Int ]` //nolint
}

// noinspection GoStructTag
type TableCmd struct {
	Cmd   struct{}       `"table"`     //nolint
	Nodes []NodeSelector `[ ( @@ )+ ]` //nolint
}

// noinspection GoStructTag
type TxCmd struct {
	Cmd   struct{}       `"tx"`        //nolint
	Nodes []NodeSelector `[ ( @@ )+ ]` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func parseBytes(b []byte, cmd *Command) error {
	return commandParser.ParseBytes(b, cmd)
}
