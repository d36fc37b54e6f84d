package calendar

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"salonpro-crm/models"
)

const DefaultSlotLength = 15 * time.Minute

type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

func ParseView(s string) (View, bool) {
	switch View(s) {
	case ViewDay, ViewWeek, ViewMonth:
		return View(s), true
	case "":
		return ViewWeek, true
	}
	return "", false
}

type Options struct {
	Location     *time.Location
	SlotLength   time.Duration
	WorkingHours map[string]interface{}
	MemberColors map[uuid.UUID]string
}

type DayGrid struct {
	Date   time.Time   `json:"date"`
	Open   time.Time   `json:"open"`
	Close  time.Time   `json:"close"`
	Closed bool        `json:"closed"`
	Slots  []TimeRange `json:"slots"`
	Events []Event     `json:"events"`
}

type WeekGrid struct {
	Start time.Time `json:"start"`
	Days  []DayGrid `json:"days"`
}

type MonthCell struct {
	Date    time.Time `json:"date"`
	InMonth bool      `json:"inMonth"`
	Events  []Event   `json:"events"`
}

type MonthGrid struct {
	Year  int           `json:"year"`
	Month time.Month    `json:"month"`
	Weeks [][]MonthCell `json:"weeks"`
}

// Renderer projects appointments onto calendar grids in one location.
type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.SlotLength <= 0 {
		opts.SlotLength = DefaultSlotLength
	}
	return &Renderer{opts: opts}
}

func (r *Renderer) Location() *time.Location { return r.opts.Location }

// Range returns the time window a view needs loaded for date.
func (r *Renderer) Range(view View, date time.Time) TimeRange {
	date = dateOnly(date.In(r.opts.Location))
	switch view {
	case ViewDay:
		return dayRange(date)
	case ViewMonth:
		first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
		start := WeekStart(first)
		last := first.AddDate(0, 1, -1)
		end := WeekStart(last).AddDate(0, 0, 7)
		return TimeRange{Start: start, End: end}
	default:
		start := WeekStart(date)
		return TimeRange{Start: start, End: start.AddDate(0, 0, 7)}
	}
}

// Day builds the time grid for one day. The grid spans the salon's opening
// hours, widened to whole hours when appointments fall outside them.
func (r *Renderer) Day(date time.Time, orders []models.Order, f Filter) DayGrid {
	date = dateOnly(date.In(r.opts.Location))
	day := dayRange(date)
	hours := HoursFor(r.opts.WorkingHours, date.Weekday())

	grid := DayGrid{
		Date:   date,
		Open:   atMinute(date, hours.Open),
		Close:  atMinute(date, hours.Close),
		Closed: hours.Closed,
	}

	events := r.eventsWithin(day, orders, f)
	for _, e := range events {
		start, end := e.Order.StartAt.In(date.Location()), e.Order.EndAt.In(date.Location())
		if start.Before(grid.Open) {
			grid.Open = maxTime(floorHour(start), day.Start)
		}
		if end.After(grid.Close) {
			ceil := floorHour(end)
			if ceil.Before(end) {
				ceil = ceil.Add(time.Hour)
			}
			grid.Close = minTime(ceil, day.End)
		}
	}

	for i := range events {
		visStart := maxTime(events[i].Order.StartAt, day.Start)
		visEnd := minTime(events[i].Order.EndAt, day.End)
		events[i].OffsetMinutes = int(visStart.Sub(grid.Open) / time.Minute)
		events[i].DurationMinutes = int(visEnd.Sub(visStart) / time.Minute)
		events[i].Continues = events[i].Order.EndAt.After(day.End)
	}

	grid.Events = AssignLanes(events)
	grid.Slots, _ = SplitToSlots(TimeRange{Start: grid.Open, End: grid.Close}, r.opts.SlotLength)
	return grid
}

// Week builds seven day grids starting on the Monday of date's week.
func (r *Renderer) Week(date time.Time, orders []models.Order, f Filter) WeekGrid {
	start := WeekStart(date.In(r.opts.Location))
	week := WeekGrid{Start: start, Days: make([]DayGrid, 0, 7)}
	for i := 0; i < 7; i++ {
		week.Days = append(week.Days, r.Day(start.AddDate(0, 0, i), orders, f))
	}
	return week
}

// Month builds whole Monday-first weeks covering date's month. Cells outside
// the month still list their appointments, flagged with InMonth=false.
func (r *Renderer) Month(date time.Time, orders []models.Order, f Filter) MonthGrid {
	date = date.In(r.opts.Location)
	span := r.Range(ViewMonth, date)
	grid := MonthGrid{Year: date.Year(), Month: date.Month()}

	var week []MonthCell
	for d := span.Start; d.Before(span.End); d = d.AddDate(0, 0, 1) {
		events := r.eventsWithin(dayRange(d), orders, f)
		for i := range events {
			events[i].Lanes = 1
		}
		week = append(week, MonthCell{
			Date:    d,
			InMonth: d.Month() == date.Month(),
			Events:  events,
		})
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = nil
		}
	}
	return grid
}

// eventsWithin returns styled events for the filtered orders overlapping tr,
// sorted by start.
func (r *Renderer) eventsWithin(tr TimeRange, orders []models.Order, f Filter) []Event {
	events := []Event{}
	for _, o := range orders {
		if !f.Match(o) {
			continue
		}
		if !(TimeRange{Start: o.StartAt, End: o.EndAt}).Overlaps(tr) {
			continue
		}
		e := Event{Order: o, Style: StyleFor(o.Status)}
		if o.TeamMemberID != nil {
			if c, ok := r.opts.MemberColors[*o.TeamMemberID]; ok {
				e.MemberColor = c
			}
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Order.StartAt.Before(events[j].Order.StartAt)
	})
	return events
}

func floorHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
