package controllers_test

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"salonpro-crm/config"
	"salonpro-crm/models"
)

// 2026-10-19 is a Monday; the default hours open it at 09:00.
var monday = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return monday.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func TestCreateAppointmentDefaultsEndAndPrice(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	client := env.createClient(s, "Anna", "+391111111111")
	cut := env.createService(s, "Cut", 30, 45)
	color := env.createService(s, "Colour", 55.5, 60)

	order := env.book(s, client, at(10, 0), cut.ID, color.ID)

	assert.True(t, order.StartAt.Equal(at(10, 0)))
	assert.True(t, order.EndAt.Equal(at(11, 45)))
	assert.InDelta(t, 85.5, order.Price, 0.001)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, client.CustomerUUID, order.CustomerUUID)
	require.Len(t, order.Services, 2)
	assert.Equal(t, "Cut", order.Services[0].Name)
}

func TestCreateAppointmentRejectsUnknownReferences(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	other := env.register("Other Salon", "owner@other.test", "+391234567899")
	client := env.createClient(s, "Anna", "+391111111111")
	foreign := env.createService(other, "Cut", 30, 45)

	w := env.do(http.MethodPost, "/api/appointments", s.token, gin.H{
		"clientId": client.ID, "startAt": at(10, 0), "serviceIds": []any{foreign.ID},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/appointments", s.token, gin.H{
		"clientId": client.ID, "startAt": at(10, 0), "teamMemberId": other.userID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/appointments", s.token, gin.H{
		"clientId": client.ID, "startAt": at(10, 0), "endAt": at(9, 0),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletedAppointmentsAreHiddenUnlessRequested(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	client := env.createClient(s, "Anna", "+391111111111")
	cut := env.createService(s, "Cut", 30, 45)

	kept := env.book(s, client, at(10, 0), cut.ID)
	gone := env.book(s, client, at(12, 0), cut.ID)

	w := env.do(http.MethodDelete, "/api/appointments/"+gone.ID.String(), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Order
	require.NoError(t, config.DB.First(&stored, "id = ?", gone.ID).Error)
	assert.Equal(t, models.OrderDeleted, stored.Status)

	w = env.do(http.MethodGet, "/api/appointments?from=2026-10-19&to=2026-10-19", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Order](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)

	w = env.do(http.MethodGet, "/api/appointments?showDeleted=true", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Order](t, w), 2)

	w = env.do(http.MethodPut, "/api/appointments/"+gone.ID.String(), s.token, gin.H{"notes": "late"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/appointments/"+gone.ID.String()+"/status", s.token, gin.H{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.OrderConfirmed, decode[models.Order](t, w).Status)
}

func TestUpdateAppointmentKeepsDurationWhenStartChanges(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	client := env.createClient(s, "Anna", "+391111111111")
	cut := env.createService(s, "Cut", 30, 45)
	order := env.book(s, client, at(10, 0), cut.ID)

	w := env.do(http.MethodPut, "/api/appointments/"+order.ID.String(), s.token, gin.H{
		"startAt": at(14, 0), "teamMemberId": s.userID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Order](t, w)
	assert.True(t, updated.EndAt.Equal(at(14, 45)))
	require.NotNil(t, updated.TeamMemberID)
	assert.Equal(t, s.userID, *updated.TeamMemberID)

	w = env.do(http.MethodPut, "/api/appointments/"+order.ID.String(), s.token, gin.H{"unassign": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[models.Order](t, w).TeamMemberID)
}

func TestMoveAppointmentByPointer(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	client := env.createClient(s, "Anna", "+391111111111")
	cut := env.createService(s, "Cut", 30, 60)
	order := env.book(s, client, at(10, 0), cut.ID)

	w := env.do(http.MethodPut, "/api/appointments/"+order.ID.String()+"/move", s.token, gin.H{
		"date": "2026-10-19", "offsetPx": 150, "pxPerHour": 60,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[models.Order](t, w)
	assert.True(t, moved.StartAt.Equal(at(11, 30)), moved.StartAt)
	assert.True(t, moved.EndAt.Equal(at(12, 30)), moved.EndAt)

	var stored models.Order
	require.NoError(t, config.DB.First(&stored, "id = ?", order.ID).Error)
	assert.True(t, stored.StartAt.Equal(at(11, 30)))

	state, err := env.rt.State(context.Background(), s.salonID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		o, ok := state.Get(order.ID)
		return ok && o.StartAt.Equal(at(11, 30))
	}, time.Second, 10*time.Millisecond)
}

func TestMoveAppointmentByPointerUsesFilteredGrid(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	client := env.createClient(s, "Anna", "+391111111111")
	cut := env.createService(s, "Cut", 30, 60)
	env.book(s, client, at(7, 0), cut.ID)
	order := env.book(s, client, at(10, 0), cut.ID)

	w := env.do(http.MethodPut, "/api/appointments/"+order.ID.String(), s.token, gin.H{"teamMemberId": s.userID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Unfiltered the grid opens at 07:00; the owner's lane alone opens at 09:00.
	w = env.do(http.MethodPut, "/api/appointments/"+order.ID.String()+"/move", s.token, gin.H{
		"date": "2026-10-19", "offsetPx": 0, "pxPerHour": 60, "member": []any{s.userID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[models.Order](t, w).StartAt.Equal(at(9, 0)))

	w = env.do(http.MethodPut, "/api/appointments/"+order.ID.String()+"/move", s.token, gin.H{
		"date": "2026-10-19", "offsetPx": 0, "pxPerHour": 60,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[models.Order](t, w).StartAt.Equal(at(7, 0)))

	w = env.do(http.MethodPut, "/api/appointments/"+order.ID.String()+"/move", s.token, gin.H{
		"date": "2026-10-19", "offsetPx": 0, "pxPerHour": 60, "status": []any{"bogus"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveAppointmentSnapsExplicitStart(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	client := env.createClient(s, "Anna", "+391111111111")
	cut := env.createService(s, "Cut", 30, 45)
	order := env.book(s, client, at(10, 0), cut.ID)

	w := env.do(http.MethodPut, "/api/appointments/"+order.ID.String()+"/move", s.token, gin.H{
		"start": at(15, 8), "teamMemberId": s.userID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	moved := decode[models.Order](t, w)
	assert.True(t, moved.StartAt.Equal(at(15, 15)))
	assert.True(t, moved.EndAt.Equal(at(16, 0)))
	require.NotNil(t, moved.TeamMemberID)

	w = env.do(http.MethodPut, "/api/appointments/"+order.ID.String()+"/move", s.token, gin.H{
		"date": "2026-10-19", "offsetPx": 30, "pxPerHour": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPut, "/api/appointments/"+order.ID.String()+"/move", s.token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMoveAppointmentRevertsWhenWriteFails(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	client := env.createClient(s, "Anna", "+391111111111")
	cut := env.createService(s, "Cut", 30, 60)
	order := env.book(s, client, at(10, 0), cut.ID)

	require.NoError(t, config.DB.Callback().Update().Before("gorm:update").Register("test:fail_update", func(db *gorm.DB) {
		_ = db.AddError(errors.New("disk full"))
	}))

	w := env.do(http.MethodPut, "/api/appointments/"+order.ID.String()+"/move", s.token, gin.H{"start": at(16, 0)})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	state, err := env.rt.State(context.Background(), s.salonID)
	require.NoError(t, err)
	o, ok := state.Get(order.ID)
	require.True(t, ok)
	assert.True(t, o.StartAt.Equal(at(10, 0)), o.StartAt)
}

func TestCalendarDayViewAssignsLanes(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	anna := env.createClient(s, "Anna", "+391111111111")
	bea := env.createClient(s, "Bea", "+391111111112")
	cut := env.createService(s, "Cut", 30, 60)

	env.book(s, anna, at(10, 0), cut.ID)
	env.book(s, bea, at(10, 30), cut.ID)
	env.book(s, anna, at(8, 15), cut.ID)

	w := env.do(http.MethodGet, "/api/calendar?view=day&date=2026-10-19", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		View string `json:"view"`
		Grid struct {
			Open   time.Time `json:"open"`
			Close  time.Time `json:"close"`
			Events []struct {
				Lane          int `json:"lane"`
				Lanes         int `json:"lanes"`
				OffsetMinutes int `json:"offsetMinutes"`
				Order         models.Order
			} `json:"events"`
		} `json:"grid"`
	}](t, w)

	assert.Equal(t, "day", resp.View)
	assert.True(t, resp.Grid.Open.Equal(at(8, 0)), resp.Grid.Open)
	require.Len(t, resp.Grid.Events, 3)

	overlapping := 0
	for _, e := range resp.Grid.Events {
		if e.Lanes == 2 {
			overlapping++
		}
	}
	assert.Equal(t, 2, overlapping)
	assert.Equal(t, 15, resp.Grid.Events[0].OffsetMinutes)

	w = env.do(http.MethodGet, "/api/calendar?view=day&date=2026-10-19&member="+s.userID.String(), s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"lanes":2`)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/calendar?view=year", s.token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/calendar?status=bogus", s.token, nil).Code)
}

func TestCalendarMonthViewFlagsDaysOutsideMonth(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")

	w := env.do(http.MethodGet, "/api/calendar?view=month&date=2026-10-19", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[struct {
		Grid struct {
			Month int `json:"month"`
			Weeks [][]struct {
				Date    time.Time `json:"date"`
				InMonth bool      `json:"inMonth"`
			} `json:"weeks"`
		} `json:"grid"`
	}](t, w)

	assert.Equal(t, 10, resp.Grid.Month)
	require.NotEmpty(t, resp.Grid.Weeks)
	first := resp.Grid.Weeks[0][0]
	assert.Equal(t, time.Monday, first.Date.Weekday())
	assert.False(t, first.InMonth)
}

func TestStreamStartsWithSnapshot(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	client := env.createClient(s, "Anna", "+391111111111")
	cut := env.createService(s, "Cut", 30, 45)
	order := env.book(s, client, at(10, 0), cut.ID)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/realtime/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: snapshot", strings.TrimSpace(event))
	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, data, order.ID.String())
}
