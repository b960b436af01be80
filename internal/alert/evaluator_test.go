package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freezewatch/internal/types"
)

var pacific = mustLoadLocation("America/Los_Angeles")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// hourlyWindow builds a chronological hourly forecast starting at start, one
// point per temperature.
func hourlyWindow(start time.Time, temps ...float64) []types.ForecastPoint {
	points := make([]types.ForecastPoint, len(temps))
	for i, t := range temps {
		points[i] = types.ForecastPoint{
			Timestamp:    start.Add(time.Duration(i) * time.Hour),
			TemperatureF: t,
		}
	}
	return points
}

// mildWeek is a 7-day window with every hour above freezing.
func mildWeek(start time.Time) []types.ForecastPoint {
	temps := make([]float64, 7*24)
	for i := range temps {
		temps[i] = 45
	}
	return hourlyWindow(start, temps...)
}

func TestFreezeRuns(t *testing.T) {
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, pacific)

	t.Run("no freezing hours yields no runs", func(t *testing.T) {
		runs := FreezeRuns(hourlyWindow(start, 40, 38, 35, 33))
		assert.Empty(t, runs)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		runs := FreezeRuns(hourlyWindow(start, 40, 32, 40))
		require.Len(t, runs, 1)
		assert.Equal(t, 1, runs[0].Hours)
		assert.Equal(t, 32.0, runs[0].MinTempF)
	})

	t.Run("consecutive freezing hours form one run with min temp", func(t *testing.T) {
		runs := FreezeRuns(hourlyWindow(start, 40, 31, 28, 30, 40))
		require.Len(t, runs, 1)
		assert.Equal(t, start.Add(time.Hour), runs[0].Start)
		assert.Equal(t, 3, runs[0].Hours)
		assert.Equal(t, 28.0, runs[0].MinTempF)
	})

	t.Run("separate runs are reported independently", func(t *testing.T) {
		runs := FreezeRuns(hourlyWindow(start, 31, 31, 40, 40, 30, 29))
		require.Len(t, runs, 2)
		assert.Equal(t, 2, runs[0].Hours)
		assert.Equal(t, 2, runs[1].Hours)
	})

	t.Run("a gap in the hourly data breaks the run", func(t *testing.T) {
		points := []types.ForecastPoint{
			{Timestamp: start, TemperatureF: 30},
			{Timestamp: start.Add(time.Hour), TemperatureF: 30},
			// Two missing hours, then more freezing data.
			{Timestamp: start.Add(4 * time.Hour), TemperatureF: 29},
			{Timestamp: start.Add(5 * time.Hour), TemperatureF: 29},
		}
		runs := FreezeRuns(points)
		require.Len(t, runs, 2)
		assert.Equal(t, start, runs[0].Start)
		assert.Equal(t, 2, runs[0].Hours)
		assert.Equal(t, start.Add(4*time.Hour), runs[1].Start)
		assert.Equal(t, 2, runs[1].Hours)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, FreezeRuns(nil))
	})
}

func TestEvaluateNoFreezingConditions(t *testing.T) {
	now := time.Date(2025, 11, 1, 6, 0, 0, 0, pacific)
	first := now.AddDate(0, 0, -3)
	history := types.AlertHistory{
		FirstFrostAlerted:    &first,
		ExtendedFreezeAlerts: []string{"2025-10-30T02:00:00-07:00_3"},
	}

	updated, events := Evaluate(mildWeek(now), history, now)

	assert.Empty(t, events)
	assert.Equal(t, history, updated)
}

func TestEvaluateEmptyForecast(t *testing.T) {
	now := time.Date(2025, 11, 1, 6, 0, 0, 0, pacific)
	updated, events := Evaluate(nil, types.AlertHistory{}, now)
	assert.Empty(t, events)
	assert.Equal(t, types.AlertHistory{}, updated)
}

func TestEvaluateFirstFrost(t *testing.T) {
	now := time.Date(2025, 11, 1, 6, 0, 0, 0, pacific)

	t.Run("earliest freezing hour fires and is recorded", func(t *testing.T) {
		points := hourlyWindow(now, 40, 38, 31, 40, 30)

		updated, events := Evaluate(points, types.AlertHistory{}, now)

		require.NotEmpty(t, events)
		assert.Equal(t, types.AlertFirstFrost, events[0].Kind)
		assert.Contains(t, events[0].Message, "First frost warning")
		require.NotNil(t, updated.FirstFrostAlerted)
		assert.True(t, updated.FirstFrostAlerted.Equal(now.Add(2*time.Hour)))
	})

	t.Run("seasonal gate: never re-fires once recorded", func(t *testing.T) {
		first := now.AddDate(0, 0, -10)
		history := types.AlertHistory{FirstFrostAlerted: &first}
		points := hourlyWindow(now, 40, 31, 40)

		updated, events := Evaluate(points, history, now)

		for _, ev := range events {
			assert.NotEqual(t, types.AlertFirstFrost, ev.Kind)
		}
		assert.True(t, updated.FirstFrostAlerted.Equal(first))
	})

	t.Run("isolated single freezing hour fires first frost but not extended freeze", func(t *testing.T) {
		points := hourlyWindow(now, 40, 30, 40, 40)

		_, events := Evaluate(points, types.AlertHistory{}, now)

		require.Len(t, events, 1)
		assert.Equal(t, types.AlertFirstFrost, events[0].Kind)
	})
}

func TestEvaluateSecondFrost(t *testing.T) {
	now := time.Date(2025, 11, 1, 6, 0, 0, 0, pacific)
	first := time.Date(2025, 11, 1, 23, 0, 0, 0, pacific)

	t.Run("frost less than 24h after first does not fire", func(t *testing.T) {
		history := types.AlertHistory{FirstFrostAlerted: &first}
		// Next local day, but only a few hours after the first frost.
		points := hourlyWindow(time.Date(2025, 11, 2, 6, 0, 0, 0, pacific), 30, 40)

		updated, events := Evaluate(points, history, now)

		for _, ev := range events {
			assert.NotEqual(t, types.AlertSecondFrost, ev.Kind)
		}
		assert.Nil(t, updated.SecondFrostAlerted)
	})

	t.Run("frost more than 24h after first fires exactly once", func(t *testing.T) {
		history := types.AlertHistory{FirstFrostAlerted: &first}
		frostAt := time.Date(2025, 11, 3, 5, 0, 0, 0, pacific)
		points := hourlyWindow(frostAt, 31, 40)

		updated, events := Evaluate(points, history, now)

		require.Len(t, events, 1)
		assert.Equal(t, types.AlertSecondFrost, events[0].Kind)
		require.NotNil(t, updated.SecondFrostAlerted)
		assert.True(t, updated.SecondFrostAlerted.Equal(frostAt))

		// Re-running with the updated history yields nothing new.
		updated2, events2 := Evaluate(points, updated, now)
		assert.Empty(t, events2)
		assert.Equal(t, updated, updated2)
	})

	t.Run("exactly 24h after first fires", func(t *testing.T) {
		history := types.AlertHistory{FirstFrostAlerted: &first}
		points := hourlyWindow(first.Add(24*time.Hour), 32)

		updated, events := Evaluate(points, history, now)

		require.Len(t, events, 1)
		assert.Equal(t, types.AlertSecondFrost, events[0].Kind)
		require.NotNil(t, updated.SecondFrostAlerted)
	})

	t.Run("not evaluated when first frost unrecorded and window has one run", func(t *testing.T) {
		points := hourlyWindow(now, 31, 40)

		updated, events := Evaluate(points, types.AlertHistory{}, now)

		require.Len(t, events, 1)
		assert.Equal(t, types.AlertFirstFrost, events[0].Kind)
		assert.Nil(t, updated.SecondFrostAlerted)
	})

	t.Run("first and second frost can both fire in one window", func(t *testing.T) {
		// Frost at hour 0, mild gap, frost again 26 hours later.
		points := append(
			hourlyWindow(now, 30, 40),
			hourlyWindow(now.Add(26*time.Hour), 29, 40)...,
		)

		updated, events := Evaluate(points, types.AlertHistory{}, now)

		require.Len(t, events, 2)
		assert.Equal(t, types.AlertFirstFrost, events[0].Kind)
		assert.Equal(t, types.AlertSecondFrost, events[1].Kind)
		require.NotNil(t, updated.FirstFrostAlerted)
		require.NotNil(t, updated.SecondFrostAlerted)
	})
}

func TestEvaluateExtendedFreeze(t *testing.T) {
	now := time.Date(2025, 11, 1, 6, 0, 0, 0, pacific)

	t.Run("three consecutive freezing hours fire once with duration 3", func(t *testing.T) {
		first := now.AddDate(0, 0, -10)
		second := now.AddDate(0, 0, -8)
		history := types.AlertHistory{FirstFrostAlerted: &first, SecondFrostAlerted: &second}
		points := hourlyWindow(now, 31, 31, 31)

		updated, events := Evaluate(points, history, now)

		require.Len(t, events, 1)
		assert.Equal(t, types.AlertExtendedFreeze, events[0].Kind)
		assert.Equal(t, 3, events[0].Run.Hours)
		assert.Contains(t, events[0].Message, "Duration: 3hrs")

		// Idempotence: the same forecast against the updated history is silent.
		updated2, events2 := Evaluate(points, updated, now)
		assert.Empty(t, events2)
		assert.Equal(t, updated, updated2)
	})

	t.Run("distinct runs in one window each fire", func(t *testing.T) {
		first := now.AddDate(0, 0, -10)
		second := now.AddDate(0, 0, -8)
		history := types.AlertHistory{FirstFrostAlerted: &first, SecondFrostAlerted: &second}
		points := hourlyWindow(now, 31, 31, 40, 40, 29, 29, 29)

		updated, events := Evaluate(points, history, now)

		require.Len(t, events, 2)
		assert.Equal(t, types.AlertExtendedFreeze, events[0].Kind)
		assert.Equal(t, types.AlertExtendedFreeze, events[1].Kind)
		assert.Len(t, updated.ExtendedFreezeAlerts, 2)
	})

	t.Run("stale keys are pruned after 14 days", func(t *testing.T) {
		first := now.AddDate(0, 0, -30)
		second := now.AddDate(0, 0, -28)
		old := now.AddDate(0, 0, -20)
		history := types.AlertHistory{
			FirstFrostAlerted:  &first,
			SecondFrostAlerted: &second,
			ExtendedFreezeAlerts: []string{
				types.FreezeRun{Start: old, Hours: 4}.Key(),
			},
		}
		points := hourlyWindow(now, 31, 40)

		updated, events := Evaluate(points, history, now)

		assert.Empty(t, events)
		assert.Empty(t, updated.ExtendedFreezeAlerts)
	})
}

// TestEvaluateConcreteScenario reproduces the canonical walkthrough: a mild
// week except for two consecutive freezing hours on day 3 at 05:00 and 06:00.
func TestEvaluateConcreteScenario(t *testing.T) {
	now := time.Date(2025, 11, 1, 6, 0, 0, 0, pacific)
	points := mildWeek(now)

	frostStart := time.Date(2025, 11, 3, 5, 0, 0, 0, pacific)
	for i := range points {
		switch {
		case points[i].Timestamp.Equal(frostStart):
			points[i].TemperatureF = 29
		case points[i].Timestamp.Equal(frostStart.Add(time.Hour)):
			points[i].TemperatureF = 28
		}
	}

	updated, events := Evaluate(points, types.AlertHistory{}, now)

	require.Len(t, events, 2)
	assert.Equal(t, types.AlertFirstFrost, events[0].Kind)
	assert.Equal(t, types.AlertExtendedFreeze, events[1].Kind)
	assert.Equal(t, 2, events[1].Run.Hours)
	assert.Equal(t, 28.0, events[1].Run.MinTempF)

	require.NotNil(t, updated.FirstFrostAlerted)
	assert.True(t, updated.FirstFrostAlerted.Equal(frostStart))
	assert.Nil(t, updated.SecondFrostAlerted)
	require.Len(t, updated.ExtendedFreezeAlerts, 1)
	assert.Equal(t, types.FreezeRun{Start: frostStart, Hours: 2}.Key(), updated.ExtendedFreezeAlerts[0])
}

func TestPruneExpiredKeys(t *testing.T) {
	now := time.Date(2025, 11, 15, 6, 0, 0, 0, pacific)

	recent := types.FreezeRun{Start: now.AddDate(0, 0, -2), Hours: 2}.Key()
	stale := types.FreezeRun{Start: now.AddDate(0, 0, -20), Hours: 5}.Key()

	kept := pruneExpiredKeys([]string{recent, stale, "garbage", ""}, now)

	assert.Equal(t, []string{recent}, kept)
}

func TestSummarize(t *testing.T) {
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, pacific)

	t.Run("empty forecast yields nil minimums", func(t *testing.T) {
		sum := Summarize(nil)
		assert.Nil(t, sum.Min48hF)
		assert.Nil(t, sum.Min7dF)
	})

	t.Run("7 day minimum beyond the 48h cutoff", func(t *testing.T) {
		temps := make([]float64, 7*24)
		for i := range temps {
			temps[i] = 50
		}
		temps[10] = 41  // within 48h
		temps[100] = 33 // beyond 48h
		sum := Summarize(hourlyWindow(start, temps...))

		require.NotNil(t, sum.Min48hF)
		require.NotNil(t, sum.Min7dF)
		assert.Equal(t, 41.0, *sum.Min48hF)
		assert.Equal(t, 33.0, *sum.Min7dF)
	})
}
