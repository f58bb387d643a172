package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/checkin"
	"github.com/shopspring/decimal"
)

type SinglePunchPolicy string

const (
	// SinglePunchLookback leaves the missing side of a lone punch unset and
	// looks back for the previous working day's checkout.
	SinglePunchLookback SinglePunchPolicy = "lookback"
	// SinglePunchSameAsIn uses the lone punch as both in and out.
	SinglePunchSameAsIn SinglePunchPolicy = "same_as_in"
)

// Aggregator pairs one employee-day of events into in/out/worked hours.
type Aggregator struct {
	Policy       SinglePunchPolicy
	LookbackDays int
}

// Day aggregates deduplicated, time-ordered events of a single day.
func (a Aggregator) Day(events []checkin.Event) attendance.DaySummary {
	if len(events) == 0 {
		return attendance.DaySummary{}
	}

	if len(events) == 1 {
		ts := events[0].Timestamp
		s := attendance.DaySummary{HasSignal: true}
		switch {
		case a.Policy == SinglePunchSameAsIn:
			s.InTime, s.OutTime = &ts, &ts
		case events[0].IsOut():
			s.OutTime = &ts
		default:
			s.InTime = &ts
		}
		return s
	}

	in := events[0].Timestamp
	for _, ev := range events {
		if ev.IsIn() {
			in = ev.Timestamp
			break
		}
	}

	out := events[len(events)-1].Timestamp
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].IsOut() {
			out = events[i].Timestamp
			break
		}
	}

	return attendance.DaySummary{
		HasSignal:   true,
		InTime:      &in,
		OutTime:     &out,
		WorkedHours: WorkedHours(&in, &out),
	}
}

// OpensSession reports whether the day is a lone punch that starts a session.
func (a Aggregator) OpensSession(events []checkin.Event) bool {
	return a.Policy == SinglePunchLookback && len(events) == 1 && !events[0].IsOut()
}

// PriorOut walks back from date over at most LookbackDays prior working days'
// events and returns the latest OUT-equivalent punch found. eventsOn must
// return the deduplicated, ordered events of a civil date.
func (a Aggregator) PriorOut(date time.Time, eventsOn func(time.Time) []checkin.Event, isWorkingDay func(time.Time) bool) *time.Time {
	for i := 1; i <= a.LookbackDays; i++ {
		d := date.AddDate(0, 0, -i)
		if !isWorkingDay(d) {
			continue
		}
		day := eventsOn(d)
		if len(day) == 0 {
			continue
		}
		for j := len(day) - 1; j >= 0; j-- {
			if day[j].IsOut() {
				ts := day[j].Timestamp
				return &ts
			}
		}
		if len(day) > 1 {
			ts := day[len(day)-1].Timestamp
			return &ts
		}
	}
	return nil
}

// WorkedHours is the in-to-out span in hours rounded to 2 decimals; zero when
// either side is missing or out does not follow in.
func WorkedHours(in, out *time.Time) float64 {
	if in == nil || out == nil || !out.After(*in) {
		return 0
	}
	span := decimal.NewFromInt(int64(out.Sub(*in)))
	return span.Div(hourUnit).Round(2).InexactFloat64()
}

var hourUnit = decimal.NewFromInt(int64(time.Hour))
