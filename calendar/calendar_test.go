package calendar

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonpro-crm/models"
)

func mustTime(t *testing.T, year int, month time.Month, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func appt(start, end time.Time, status string) models.Order {
	return models.Order{ID: uuid.New(), StartAt: start, EndAt: end, Status: status}
}

func TestNewTimeRange_Invalid(t *testing.T) {
	start := mustTime(t, 2026, 10, 17, 10, 0)
	_, err := NewTimeRange(start, start)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, err = NewTimeRange(time.Time{}, start)
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestSplitToSlots(t *testing.T) {
	tr := TimeRange{Start: mustTime(t, 2026, 10, 17, 9, 0), End: mustTime(t, 2026, 10, 17, 10, 10)}

	slots, err := SplitToSlots(tr, 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	assert.Equal(t, mustTime(t, 2026, 10, 17, 9, 45), slots[3].Start)
	assert.Equal(t, mustTime(t, 2026, 10, 17, 10, 0), slots[3].End)

	_, err = SplitToSlots(tr, 0)
	assert.ErrorIs(t, err, ErrSlotDuration)
}

func TestOverlaps_TouchingRangesDoNot(t *testing.T) {
	a := TimeRange{Start: mustTime(t, 2026, 10, 17, 9, 0), End: mustTime(t, 2026, 10, 17, 10, 0)}
	b := TimeRange{Start: mustTime(t, 2026, 10, 17, 10, 0), End: mustTime(t, 2026, 10, 17, 11, 0)}
	c := TimeRange{Start: mustTime(t, 2026, 10, 17, 9, 59), End: mustTime(t, 2026, 10, 17, 10, 30)}

	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(b))
}

func TestWeekStart(t *testing.T) {
	monday := mustTime(t, 2026, 10, 12, 0, 0)
	assert.Equal(t, monday, WeekStart(mustTime(t, 2026, 10, 17, 15, 30)))
	assert.Equal(t, monday, WeekStart(mustTime(t, 2026, 10, 18, 23, 0)))
	assert.Equal(t, monday, WeekStart(mustTime(t, 2026, 10, 12, 8, 0)))
}

func TestAssignLanes(t *testing.T) {
	a := appt(mustTime(t, 2026, 10, 17, 9, 0), mustTime(t, 2026, 10, 17, 10, 0), models.OrderConfirmed)
	b := appt(mustTime(t, 2026, 10, 17, 9, 30), mustTime(t, 2026, 10, 17, 10, 30), models.OrderConfirmed)
	c := appt(mustTime(t, 2026, 10, 17, 10, 0), mustTime(t, 2026, 10, 17, 11, 0), models.OrderConfirmed)
	d := appt(mustTime(t, 2026, 10, 17, 12, 0), mustTime(t, 2026, 10, 17, 13, 0), models.OrderConfirmed)

	events := AssignLanes([]Event{{Order: d}, {Order: c}, {Order: b}, {Order: a}})
	require.Len(t, events, 4)

	byID := map[uuid.UUID]Event{}
	for _, e := range events {
		byID[e.Order.ID] = e
	}
	assert.Equal(t, 0, byID[a.ID].Lane)
	assert.Equal(t, 1, byID[b.ID].Lane)
	assert.Equal(t, 0, byID[c.ID].Lane)
	assert.Equal(t, 2, byID[a.ID].Lanes)
	assert.Equal(t, 2, byID[b.ID].Lanes)
	assert.Equal(t, 2, byID[c.ID].Lanes)
	assert.Equal(t, 0, byID[d.ID].Lane)
	assert.Equal(t, 1, byID[d.ID].Lanes)
}

func TestFilter(t *testing.T) {
	member := uuid.New()
	other := uuid.New()

	assigned := appt(mustTime(t, 2026, 10, 17, 9, 0), mustTime(t, 2026, 10, 17, 10, 0), models.OrderConfirmed)
	assigned.TeamMemberID = &member
	unassigned := appt(mustTime(t, 2026, 10, 17, 11, 0), mustTime(t, 2026, 10, 17, 12, 0), models.OrderPending)
	deleted := appt(mustTime(t, 2026, 10, 17, 13, 0), mustTime(t, 2026, 10, 17, 14, 0), models.OrderDeleted)
	deleted.TeamMemberID = &member

	all := []models.Order{assigned, unassigned, deleted}

	assert.Len(t, Filter{}.Apply(all), 2)
	assert.Len(t, Filter{ShowDeleted: true}.Apply(all), 3)
	assert.Len(t, Filter{Statuses: []string{models.OrderDeleted}}.Apply(all), 0)
	assert.Equal(t, []models.Order{assigned}, Filter{TeamMemberIDs: []uuid.UUID{member}}.Apply(all))
	assert.Empty(t, Filter{TeamMemberIDs: []uuid.UUID{other}}.Apply(all))
	assert.Equal(t, []models.Order{unassigned}, Filter{Statuses: []string{models.OrderPending}}.Apply(all))
}

func TestHoursFor(t *testing.T) {
	schedule := map[string]interface{}(models.DefaultWorkingHours())

	sat := HoursFor(schedule, time.Saturday)
	assert.Equal(t, Hours{Open: 9 * 60, Close: 21 * 60}, sat)

	sun := HoursFor(schedule, time.Sunday)
	assert.True(t, sun.Closed)
	assert.Equal(t, 10*60, sun.Open)

	broken := map[string]interface{}{"monday": map[string]interface{}{"open": "late", "close": "20:00"}}
	assert.Equal(t, Hours{Open: defaultOpenMinute, Close: defaultCloseMinute}, HoursFor(broken, time.Monday))
	assert.Equal(t, Hours{Open: defaultOpenMinute, Close: defaultCloseMinute}, HoursFor(nil, time.Tuesday))
}

func TestDayGrid_WidensAroundEarlyAppointment(t *testing.T) {
	member := uuid.New()
	r := NewRenderer(Options{
		WorkingHours: models.DefaultWorkingHours(),
		MemberColors: map[uuid.UUID]string{member: "#ff00aa"},
	})

	early := appt(mustTime(t, 2026, 10, 17, 8, 30), mustTime(t, 2026, 10, 17, 9, 15), models.OrderConfirmed)
	early.TeamMemberID = &member
	later := appt(mustTime(t, 2026, 10, 17, 15, 0), mustTime(t, 2026, 10, 17, 16, 0), models.OrderCancelled)
	otherDay := appt(mustTime(t, 2026, 10, 18, 10, 0), mustTime(t, 2026, 10, 18, 11, 0), models.OrderConfirmed)

	grid := r.Day(mustTime(t, 2026, 10, 17, 0, 0), []models.Order{later, otherDay, early}, Filter{})

	assert.Equal(t, mustTime(t, 2026, 10, 17, 8, 0), grid.Open)
	assert.Equal(t, mustTime(t, 2026, 10, 17, 21, 0), grid.Close)
	assert.Len(t, grid.Slots, 13*4)
	require.Len(t, grid.Events, 2)

	first := grid.Events[0]
	assert.Equal(t, early.ID, first.Order.ID)
	assert.Equal(t, 30, first.OffsetMinutes)
	assert.Equal(t, 45, first.DurationMinutes)
	assert.Equal(t, "#ff00aa", first.MemberColor)

	second := grid.Events[1]
	assert.True(t, second.Style.StrikeThrough)
	assert.Equal(t, 7*60, second.OffsetMinutes)
}

func TestDayGrid_AppointmentPastMidnight(t *testing.T) {
	r := NewRenderer(Options{})
	late := appt(mustTime(t, 2026, 10, 17, 23, 0), mustTime(t, 2026, 10, 18, 1, 0), models.OrderConfirmed)

	today := r.Day(mustTime(t, 2026, 10, 17, 0, 0), []models.Order{late}, Filter{})
	require.Len(t, today.Events, 1)
	assert.True(t, today.Events[0].Continues)
	assert.Equal(t, 60, today.Events[0].DurationMinutes)
	assert.Equal(t, mustTime(t, 2026, 10, 18, 0, 0), today.Close)

	tomorrow := r.Day(mustTime(t, 2026, 10, 18, 0, 0), []models.Order{late}, Filter{})
	require.Len(t, tomorrow.Events, 1)
	assert.Equal(t, mustTime(t, 2026, 10, 18, 0, 0), tomorrow.Open)
	assert.Equal(t, 0, tomorrow.Events[0].OffsetMinutes)
}

func TestWeekGrid(t *testing.T) {
	r := NewRenderer(Options{})
	wed := appt(mustTime(t, 2026, 10, 14, 10, 0), mustTime(t, 2026, 10, 14, 11, 0), models.OrderPending)

	week := r.Week(mustTime(t, 2026, 10, 17, 12, 0), []models.Order{wed}, Filter{})
	assert.Equal(t, mustTime(t, 2026, 10, 12, 0, 0), week.Start)
	require.Len(t, week.Days, 7)
	assert.Equal(t, time.Monday, week.Days[0].Date.Weekday())
	assert.Len(t, week.Days[2].Events, 1)
	assert.Empty(t, week.Days[0].Events)
}

func TestMonthGrid(t *testing.T) {
	r := NewRenderer(Options{})
	spill := appt(mustTime(t, 2026, 9, 29, 10, 0), mustTime(t, 2026, 9, 29, 11, 0), models.OrderCompleted)
	first := appt(mustTime(t, 2026, 10, 1, 10, 0), mustTime(t, 2026, 10, 1, 11, 0), models.OrderConfirmed)

	month := r.Month(mustTime(t, 2026, 10, 17, 0, 0), []models.Order{spill, first}, Filter{})
	require.Len(t, month.Weeks, 5)
	for _, w := range month.Weeks {
		require.Len(t, w, 7)
		assert.Equal(t, time.Monday, w[0].Date.Weekday())
	}

	assert.Equal(t, mustTime(t, 2026, 9, 28, 0, 0), month.Weeks[0][0].Date)
	assert.False(t, month.Weeks[0][1].InMonth)
	assert.Len(t, month.Weeks[0][1].Events, 1)
	assert.True(t, month.Weeks[0][3].InMonth)
	assert.Len(t, month.Weeks[0][3].Events, 1)
	assert.Equal(t, mustTime(t, 2026, 11, 1, 0, 0), month.Weeks[4][6].Date)
}

func TestSnap(t *testing.T) {
	assert.Equal(t, mustTime(t, 2026, 10, 17, 10, 0), Snap(mustTime(t, 2026, 10, 17, 10, 7), SnapIncrement))
	assert.Equal(t, mustTime(t, 2026, 10, 17, 10, 15), Snap(mustTime(t, 2026, 10, 17, 10, 8), SnapIncrement))
	assert.Equal(t, mustTime(t, 2026, 10, 17, 11, 0), Snap(mustTime(t, 2026, 10, 17, 10, 53), SnapIncrement))
}

func TestPointerToTime(t *testing.T) {
	open := mustTime(t, 2026, 10, 17, 9, 0)

	got, err := PointerToTime(open, 130, 60)
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, 2026, 10, 17, 11, 15), got)

	got, err = PointerToTime(open, -40, 60)
	require.NoError(t, err)
	assert.Equal(t, open, got)

	_, err = PointerToTime(open, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidPointer)
}

func TestReschedule_KeepsDuration(t *testing.T) {
	member := uuid.New()
	o := appt(mustTime(t, 2026, 10, 17, 9, 0), mustTime(t, 2026, 10, 17, 9, 45), models.OrderConfirmed)

	moved, err := Reschedule(o, Move{Start: mustTime(t, 2026, 10, 17, 14, 7), TeamMemberID: &member})
	require.NoError(t, err)
	assert.Equal(t, mustTime(t, 2026, 10, 17, 14, 0), moved.StartAt)
	assert.Equal(t, mustTime(t, 2026, 10, 17, 14, 45), moved.EndAt)
	assert.Equal(t, member, *moved.TeamMemberID)
	assert.Equal(t, mustTime(t, 2026, 10, 17, 9, 0), o.StartAt, "original left untouched")

	o.Status = models.OrderDeleted
	_, err = Reschedule(o, Move{Start: mustTime(t, 2026, 10, 17, 14, 0)})
	assert.ErrorIs(t, err, ErrDeletedOrder)

	broken := appt(mustTime(t, 2026, 10, 17, 9, 0), mustTime(t, 2026, 10, 17, 9, 0), models.OrderPending)
	_, err = Reschedule(broken, Move{Start: mustTime(t, 2026, 10, 17, 14, 0)})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
}

func TestStyleFor(t *testing.T) {
	assert.True(t, StyleFor(models.OrderDeleted).StrikeThrough)
	assert.Less(t, StyleFor(models.OrderNoShow).Opacity, 1.0)
	assert.Equal(t, StyleFor(models.OrderPending), StyleFor("mystery"))
}
