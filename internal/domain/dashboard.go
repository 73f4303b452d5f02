package domain

import (
	"fmt"
	"iter"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RecentEntryCount is how many of the newest entries a dashboard carries.
const RecentEntryCount = 5

// DailyPoint is one bucket of the dashboard chart.
type DailyPoint struct {
	Date            time.Time
	Label           string
	TotalDeposit    decimal.Decimal
	TotalWithdrawal decimal.Decimal
}

// DailySeries buckets entry totals by UTC creation date.
type DailySeries struct {
	dates   []time.Time
	buckets map[time.Time]*DailyPoint
}

// NewDailySeries groups entries by creation day. Totals come from Compute.
func NewDailySeries(entries []*Entry) *DailySeries {
	s := &DailySeries{buckets: make(map[time.Time]*DailyPoint)}
	for _, e := range entries {
		day := startOfDay(e.CreatedAt)
		p, ok := s.buckets[day]
		if !ok {
			p = &DailyPoint{Date: day, Label: DayLabel(day)}
			s.buckets[day] = p
			s.dates = append(s.dates, day)
		}
		t := Compute(e)
		p.TotalDeposit = p.TotalDeposit.Add(t.TotalDeposit)
		p.TotalWithdrawal = p.TotalWithdrawal.Add(t.TotalWithdrawal)
	}
	sort.Slice(s.dates, func(i, j int) bool { return s.dates[i].Before(s.dates[j]) })
	return s
}

// Len is the number of distinct days.
func (s *DailySeries) Len() int { return len(s.dates) }

// All yields the buckets keyed by date in ascending order. It can be ranged
// over any number of times.
func (s *DailySeries) All() iter.Seq2[time.Time, DailyPoint] {
	return func(yield func(time.Time, DailyPoint) bool) {
		for _, day := range s.dates {
			if !yield(day, *s.buckets[day]) {
				return
			}
		}
	}
}

// Labels yields the chart label of each bucket in order.
func (s *DailySeries) Labels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, p := range s.All() {
			if !yield(p.Label) {
				return
			}
		}
	}
}

// DayLabel formats day as "D/M".
func DayLabel(day time.Time) string {
	return fmt.Sprintf("%d/%d", day.Day(), int(day.Month()))
}

// Dashboard summarises a set of entries.
type Dashboard struct {
	Totals Totals
	Daily  *DailySeries
	Recent []*Entry
}

// Summarise aggregates entries, which may be in any order.
func Summarise(entries []*Entry) Dashboard {
	var d Dashboard
	for _, e := range entries {
		d.Totals = d.Totals.Add(Compute(e))
	}
	d.Daily = NewDailySeries(entries)

	recent := slices.Clone(entries)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > RecentEntryCount {
		recent = recent[:RecentEntryCount]
	}
	d.Recent = recent
	return d
}
