// Package types defines the shared domain types for the freezewatch service:
// forecast points, freeze runs, alert events, and the persisted alert history.
package types

import (
	"fmt"
	"time"
)

// ForecastPoint is a single hourly temperature sample from a forecast provider.
// Timestamps are location-local; temperatures are degrees Fahrenheit.
type ForecastPoint struct {
	Timestamp    time.Time `json:"timestamp"`
	TemperatureF float64   `json:"temperature_f"`
}

// FreezeRun is a maximal contiguous sequence of hourly forecast points at or
// below the freezing threshold. Contiguity means successive points exactly one
// hour apart; a gap in the hourly data ends the run.
type FreezeRun struct {
	Start    time.Time `json:"start_time"`
	Hours    int       `json:"duration_hours"`
	MinTempF float64   `json:"min_temp_f"`
}

// Key returns the stable identifier used to deduplicate extended freeze
// alerts across runs of the program. The format matches the keys stored in
// the alert history file: "<start RFC3339>_<duration hours>".
func (r FreezeRun) Key() string {
	return fmt.Sprintf("%s_%d", r.Start.Format(time.RFC3339), r.Hours)
}

// AlertKind identifies the freeze condition an alert describes.
type AlertKind string

const (
	AlertFirstFrost     AlertKind = "first_frost"
	AlertSecondFrost    AlertKind = "second_frost"
	AlertExtendedFreeze AlertKind = "extended_freeze"
)

// Headline returns the display name used in message subjects and bodies.
func (k AlertKind) Headline() string {
	switch k {
	case AlertFirstFrost:
		return "FIRST FROST"
	case AlertSecondFrost:
		return "SECOND FROST"
	case AlertExtendedFreeze:
		return "EXTENDED FREEZE"
	default:
		return string(k)
	}
}

// AlertEvent is a transient alert decision produced by the evaluator and
// consumed immediately by the notifier. It is never persisted.
type AlertEvent struct {
	Kind    AlertKind
	Message string
	Run     FreezeRun
}

// AlertHistory is the persisted record of alerts already sent this season.
// It is loaded at run start, threaded through the evaluator as a value, and
// saved once at run end by the runner. The evaluator never persists it.
//
// FirstFrostAlerted, once set, is never cleared within a season.
type AlertHistory struct {
	FirstFrostAlerted    *time.Time `json:"first_frost_alerted"`
	SecondFrostAlerted   *time.Time `json:"second_frost_alerted"`
	ExtendedFreezeAlerts []string   `json:"extended_freeze_alerts"`
}

// HasExtendedFreezeAlert reports whether the given run key was already
// alerted in a previous run of the program.
func (h AlertHistory) HasExtendedFreezeAlert(key string) bool {
	for _, k := range h.ExtendedFreezeAlerts {
		if k == key {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so the evaluator can mutate its result without
// aliasing the caller's history value.
func (h AlertHistory) Clone() AlertHistory {
	out := AlertHistory{}
	if h.FirstFrostAlerted != nil {
		t := *h.FirstFrostAlerted
		out.FirstFrostAlerted = &t
	}
	if h.SecondFrostAlerted != nil {
		t := *h.SecondFrostAlerted
		out.SecondFrostAlerted = &t
	}
	if h.ExtendedFreezeAlerts != nil {
		out.ExtendedFreezeAlerts = append([]string(nil), h.ExtendedFreezeAlerts...)
	}
	return out
}
