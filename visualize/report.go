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

package visualize

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/openthread/csmasim/mac"
	. "github.com/openthread/csmasim/types"
)

// BackoffRow is one row of a backoff table.
type BackoffRow struct {
	Period time.Duration // time since the first sample
	Cw     int
	Time   Timestamp
}

// BackoffTable converts a contention window history into table rows.
func BackoffTable(history []mac.Sample) []BackoffRow {
	rows := make([]BackoffRow, len(history))
	if len(history) == 0 {
		return rows
	}
	start := history[0].Timestamp
	for i, s := range history {
		rows[i] = BackoffRow{
			Period: time.Duration(s.Timestamp-start) * time.Microsecond,
			Cw:     s.Cw,
			Time:   s.Timestamp,
		}
	}
	return rows
}

// FormatSimTime formats a simulation timestamp as hh:mm:ss.mmm.
func FormatSimTime(ts Timestamp) string {
	ms := ts / 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// WriteBackoffTable writes the backoff table of a node.
func WriteBackoffTable(w io.Writer, nodeid NodeId, history []mac.Sample) {
	fmt.Fprintf(w, "Backoff Table for %s:\n", GetNodeName(nodeid))
	fmt.Fprintf(w, "Backoff Period\tContention Window\tTime\n")
	for _, row := range BackoffTable(history) {
		fmt.Fprintf(w, "%.2f\t\t%d\t\t\t%s\n", row.Period.Seconds(), row.Cw, FormatSimTime(row.Time))
	}
}

// WriteCoordinates writes the position of every node.
func WriteCoordinates(w io.Writer, nodes []NodeConfig) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s: (%g, %g)\n", GetNodeName(n.ID), n.X, n.Y)
	}
}

// WriteEnergyTotals writes the total energy consumed by each node, with a proportional bar.
func WriteEnergyTotals(w io.Writer, totals map[NodeId]float64) {
	ids := make([]NodeId, 0, len(totals))
	maxEnergy := 0.0
	for id, e := range totals {
		ids = append(ids, id)
		if e > maxEnergy {
			maxEnergy = e
		}
	}
	sort.Ints(ids)

	const barWidth = 40
	for _, id := range ids {
		bar := 0
		if maxEnergy > 0 {
			bar = int(totals[id] / maxEnergy * barWidth)
		}
		fmt.Fprintf(w, "%-8s %10.4f %s\n", GetNodeName(id)+":", totals[id], strings.Repeat("#", bar))
	}
}
