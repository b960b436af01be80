// Package alert implements the freeze alert decision logic: classifying an
// hourly forecast window into first-frost, second-frost, and extended-freeze
// events, deduplicated against the persisted alert history.
//
// Evaluation is pure. It performs no I/O, cannot fail, and returns an updated
// history value alongside the emitted events; the runner owns persistence.
package alert

import (
	"fmt"
	"strings"
	"time"

	"freezewatch/internal/types"
)

// FreezingThresholdF is the frost threshold: any hour at or below this
// temperature counts as frost.
const FreezingThresholdF = 32.0

// ExtendedFreezeMinHours is the minimum run length that qualifies as an
// extended freeze. A single isolated sub-freezing hour never qualifies.
const ExtendedFreezeMinHours = 2

// secondFrostGap is the minimum elapsed time between the recorded first frost
// and a freeze run that can fire a second-frost alert.
const secondFrostGap = 24 * time.Hour

// extendedFreezeRetention bounds how long alerted extended-freeze keys are
// kept in the history before being pruned.
const extendedFreezeRetention = 14 * 24 * time.Hour

// eventTimeLayout formats run start times inside alert message bodies.
const eventTimeLayout = "01/02 03:04PM MST"

// FreezeRuns scans a chronological hourly forecast and returns the maximal
// contiguous runs of points at or below the freezing threshold. Contiguity
// requires successive timestamps exactly one hour apart: a gap in the data
// ends the current run without counting as either freezing or non-freezing.
func FreezeRuns(points []types.ForecastPoint) []types.FreezeRun {
	var runs []types.FreezeRun

	i := 0
	for i < len(points) {
		if points[i].TemperatureF > FreezingThresholdF {
			i++
			continue
		}

		run := types.FreezeRun{
			Start:    points[i].Timestamp,
			Hours:    1,
			MinTempF: points[i].TemperatureF,
		}

		j := i + 1
		for j < len(points) &&
			points[j].TemperatureF <= FreezingThresholdF &&
			points[j].Timestamp.Sub(points[j-1].Timestamp) == time.Hour {
			if points[j].TemperatureF < run.MinTempF {
				run.MinTempF = points[j].TemperatureF
			}
			run.Hours++
			j++
		}

		runs = append(runs, run)
		i = j
	}

	return runs
}

// Evaluate applies the decision rules, in order, to a forecast window:
//
//  1. First Frost: the earliest sub-freezing hour fires once per season,
//     gated by the history's first-frost timestamp.
//  2. Second Frost: the earliest freeze run starting at least 24 elapsed
//     hours after the recorded first frost fires once, gated by the
//     history's second-frost timestamp.
//  3. Extended Freeze: every run of two or more consecutive sub-freezing
//     hours fires independently, keyed by start time and duration so a run
//     already alerted in a prior invocation never re-fires.
//
// An empty or frost-free forecast yields no events and an unchanged history.
func Evaluate(points []types.ForecastPoint, history types.AlertHistory, now time.Time) (types.AlertHistory, []types.AlertEvent) {
	updated := history.Clone()

	runs := FreezeRuns(points)
	if len(runs) == 0 {
		return updated, nil
	}

	var events []types.AlertEvent

	// Rule 1: first frost, earliest qualifying hour wins.
	if updated.FirstFrostAlerted == nil {
		first := runs[0]
		start := first.Start
		updated.FirstFrostAlerted = &start
		events = append(events, newEvent(types.AlertFirstFrost, "First frost warning", first))
	}

	// Rule 2: second frost, at least 24 elapsed hours after the first.
	if updated.FirstFrostAlerted != nil && updated.SecondFrostAlerted == nil {
		cutoff := updated.FirstFrostAlerted.Add(secondFrostGap)
		for _, run := range runs {
			if run.Start.Before(cutoff) {
				continue
			}
			start := run.Start
			updated.SecondFrostAlerted = &start
			events = append(events, newEvent(types.AlertSecondFrost, "Second frost warning", run))
			break
		}
	}

	// Rule 3: extended freezes, one event per not-yet-alerted run.
	for _, run := range runs {
		if run.Hours < ExtendedFreezeMinHours {
			continue
		}
		key := run.Key()
		if updated.HasExtendedFreezeAlert(key) {
			continue
		}
		updated.ExtendedFreezeAlerts = append(updated.ExtendedFreezeAlerts, key)
		events = append(events, newEvent(types.AlertExtendedFreeze, "Extended freeze", run))
	}

	updated.ExtendedFreezeAlerts = pruneExpiredKeys(updated.ExtendedFreezeAlerts, now)

	return updated, events
}

// newEvent builds the alert event with its human-readable message body. The
// body is deliberately terse: the destination may be an email-to-SMS gateway.
func newEvent(kind types.AlertKind, title string, run types.FreezeRun) types.AlertEvent {
	msg := fmt.Sprintf("%s\n%s\nLow: %.0fF\nDuration: %dhrs",
		title,
		run.Start.Format(eventTimeLayout),
		run.MinTempF,
		run.Hours,
	)
	return types.AlertEvent{
		Kind:    kind,
		Message: msg,
		Run:     run,
	}
}

// pruneExpiredKeys drops extended-freeze keys whose run started more than the
// retention window before now. Keys that fail to parse are dropped as well;
// they can never match a future run key and would otherwise pile up forever.
func pruneExpiredKeys(keys []string, now time.Time) []string {
	if len(keys) == 0 {
		return keys
	}

	cutoff := now.Add(-extendedFreezeRetention)
	kept := keys[:0]
	for _, key := range keys {
		sep := strings.LastIndexByte(key, '_')
		if sep <= 0 {
			continue
		}
		start, err := time.Parse(time.RFC3339, key[:sep])
		if err != nil {
			continue
		}
		if start.After(cutoff) {
			kept = append(kept, key)
		}
	}
	return kept
}

// Summary reports the minimum forecast temperatures used in the no-alert
// status notification.
type Summary struct {
	Min48hF *float64
	Min7dF  *float64
}

// Summarize computes the 48-hour and 7-day minimum temperatures over the
// forecast window. Nil fields mean no data was available for that span.
func Summarize(points []types.ForecastPoint) Summary {
	var s Summary
	for i, pt := range points {
		t := pt.TemperatureF
		if s.Min7dF == nil || t < *s.Min7dF {
			v := t
			s.Min7dF = &v
		}
		if i < 48 && (s.Min48hF == nil || t < *s.Min48hF) {
			v := t
			s.Min48hF = &v
		}
	}
	return s
}
