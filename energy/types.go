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

package energy

import (
	"strings"

	"github.com/pkg/errors"
)

// Activity is a kind of node activity that costs energy.
type Activity int

const (
	ActivitySleep Activity = iota
	ActivityIdle
	ActivityBackoff
	ActivityRts
	ActivityCts
	ActivitySifs
	ActivityDifs
	ActivityTransmission

	numActivities = int(ActivityTransmission) + 1
)

var activityNames = [numActivities]string{
	"sleep", "idle", "backoff", "rts", "cts", "sifs", "difs", "transmission",
}

func (a Activity) String() string {
	if a < 0 || int(a) >= numActivities {
		return "unknown"
	}
	return activityNames[a]
}

// Activities returns all activity kinds in table order.
func Activities() []Activity {
	res := make([]Activity, numActivities)
	for i := range res {
		res[i] = Activity(i)
	}
	return res
}

// ParseActivity parses an activity name, case-insensitive.
func ParseActivity(s string) (Activity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range activityNames {
		if name == s {
			return Activity(i), nil
		}
	}
	return -1, errors.Errorf("unknown activity '%s'", s)
}

/*
 * Default energy cost per activity, in milliwatts. Every occurrence of an activity adds its cost
 * once; the backoff cost is additionally scaled by the drawn counter and the distance to the target.
 */
const (
	DefaultSleepCost        float64 = 0.1
	DefaultIdleCost         float64 = 1
	DefaultBackoffCost      float64 = 0.5
	DefaultRtsCost          float64 = 2
	DefaultCtsCost          float64 = 2
	DefaultSifsCost         float64 = 0.2
	DefaultDifsCost         float64 = 0.2
	DefaultTransmissionCost float64 = 10
)

// CostTable holds the energy cost of each activity.
type CostTable struct {
	Sleep        float64 `yaml:"sleep"`
	Idle         float64 `yaml:"idle"`
	Backoff      float64 `yaml:"backoff"`
	Rts          float64 `yaml:"rts"`
	Cts          float64 `yaml:"cts"`
	Sifs         float64 `yaml:"sifs"`
	Difs         float64 `yaml:"difs"`
	Transmission float64 `yaml:"transmission"`
}

func DefaultCostTable() CostTable {
	return CostTable{
		Sleep:        DefaultSleepCost,
		Idle:         DefaultIdleCost,
		Backoff:      DefaultBackoffCost,
		Rts:          DefaultRtsCost,
		Cts:          DefaultCtsCost,
		Sifs:         DefaultSifsCost,
		Difs:         DefaultDifsCost,
		Transmission: DefaultTransmissionCost,
	}
}

// Validate checks that no cost is negative.
func (ct CostTable) Validate() error {
	for _, a := range Activities() {
		if ct.base(a) < 0 {
			return errors.Errorf("negative energy cost for activity %s", a)
		}
	}
	return nil
}

func (ct CostTable) base(a Activity) float64 {
	switch a {
	case ActivitySleep:
		return ct.Sleep
	case ActivityIdle:
		return ct.Idle
	case ActivityBackoff:
		return ct.Backoff
	case ActivityRts:
		return ct.Rts
	case ActivityCts:
		return ct.Cts
	case ActivitySifs:
		return ct.Sifs
	case ActivityDifs:
		return ct.Difs
	case ActivityTransmission:
		return ct.Transmission
	default:
		return 0
	}
}

// Cost returns the energy increment of one occurrence of activity a. For ActivityBackoff the cost is
// Backoff * (backoffCounter / cwMin) * distance, where distance defaults to 1 when not given; the
// other activities ignore backoffCounter, cwMin and distance.
func (ct CostTable) Cost(a Activity, backoffCounter int, cwMin int, distance ...float64) float64 {
	if a != ActivityBackoff {
		return ct.base(a)
	}

	dist := 1.0
	if len(distance) > 0 {
		dist = distance[0]
	}
	if cwMin <= 0 {
		return 0
	}
	return ct.Backoff * (float64(backoffCounter) / float64(cwMin)) * dist
}
