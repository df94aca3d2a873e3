// Package workload computes availability and capacity figures for agents.
// All functions are pure; callers pass the clock in.
package workload

import (
	"math"
	"time"

	"github.com/trunkline/trunkline/internal/models"
)

// Availability tiers. The boundaries are policy constants: fresher presence
// and a more active status score higher, and scores only decrease as the
// heartbeat goes stale.
const (
	availableStaleness = 5 * time.Minute
	busyStaleness      = 15 * time.Minute
	awayStaleness      = 30 * time.Minute
)

// Availability scores an agent's readiness to take work on a 0-100 scale
// from presence status and heartbeat staleness. Agents with no recorded
// heartbeat score 0.
func Availability(status string, lastSeen *time.Time, now time.Time) int {
	if lastSeen == nil {
		return 0
	}
	stale := now.Sub(*lastSeen)
	switch {
	case status == models.AgentAvailable && stale < availableStaleness:
		return 100
	case status == models.AgentBusy && stale < busyStaleness:
		return 75
	case status == models.AgentAway && stale < awayStaleness:
		return 50
	default:
		return 0
	}
}

// Workload returns the percentage of capacity consumed by active
// conversations. Values above 100 are reported as-is: the engine treats
// workload >= 100 as ineligible, so overload must stay visible.
func Workload(activeCount, maxCapacity int) int {
	if maxCapacity <= 0 {
		return 100
	}
	return int(math.Round(float64(activeCount) / float64(maxCapacity) * 100))
}

// InWorkingHours reports whether now falls on one of the agent's working
// weekdays and within [start, end) of the declared schedule. Schedule times
// use "HH:MM"; a schedule that fails to parse counts as out of hours.
func InWorkingHours(days []time.Weekday, start, end string, now time.Time) bool {
	onDay := false
	for _, d := range days {
		if now.Weekday() == d {
			onDay = true
			break
		}
	}
	if !onDay {
		return false
	}

	startMin, ok := parseClock(start)
	if !ok {
		return false
	}
	endMin, ok := parseClock(end)
	if !ok {
		return false
	}
	nowMin := now.Hour()*60 + now.Minute()
	return nowMin >= startMin && nowMin < endMin
}

// parseClock converts "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
