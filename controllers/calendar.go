package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonpro-crm/calendar"
	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

// GetCalendar renders the day, week or month grid around ?date (default today).
// member and status may repeat or be comma separated.
func GetCalendar(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	view, ok := calendar.ParseView(c.Query("view"))
	if !ok {
		utils.RespondWithError(c, http.StatusBadRequest, "view must be day, week or month")
		return
	}

	date := time.Now().In(Location)
	if raw := c.Query("date"); raw != "" {
		d, err := utils.ParseDate(raw, Location)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		date = d
	}

	filter, err := buildFilter(queryList(c, "member"), queryList(c, "status"), c.Query("showDeleted") == "true")
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	renderer, err := salonRenderer(salonID)
	if err != nil {
		respondDBError(c, err, "Salon not found")
		return
	}

	span := renderer.Range(view, date)
	orders, err := ordersOverlapping(salonID, span)
	if err != nil {
		respondDBError(c, err, "")
		return
	}

	var grid any
	switch view {
	case calendar.ViewDay:
		grid = renderer.Day(date, orders, filter)
	case calendar.ViewWeek:
		grid = renderer.Week(date, orders, filter)
	default:
		grid = renderer.Month(date, orders, filter)
	}

	c.JSON(http.StatusOK, gin.H{
		"view":  view,
		"start": span.Start,
		"end":   span.End,
		"grid":  grid,
	})
}

// salonRenderer builds a renderer with the salon's working hours and member colours.
func salonRenderer(salonID uuid.UUID) (*calendar.Renderer, error) {
	var salon models.Salon
	if err := config.DB.Select("id", "working_hours").First(&salon, "id = ?", salonID).Error; err != nil {
		return nil, err
	}

	var members []models.User
	if err := config.DB.Select("id", "color").Where("salon_id = ?", salonID).Find(&members).Error; err != nil {
		return nil, err
	}
	colors := make(map[uuid.UUID]string, len(members))
	for _, m := range members {
		if m.Color != "" {
			colors[m.ID] = m.Color
		}
	}

	return calendar.NewRenderer(calendar.Options{
		Location:     Location,
		WorkingHours: salon.WorkingHours,
		MemberColors: colors,
	}), nil
}

func ordersOverlapping(salonID uuid.UUID, span calendar.TimeRange) ([]models.Order, error) {
	var orders []models.Order
	err := config.DB.Where("salon_id = ? AND start_at < ? AND end_at > ?", salonID, span.End.UTC(), span.Start.UTC()).
		Order("start_at").Find(&orders).Error
	return orders, err
}

// buildFilter validates the member and status selections of a calendar view.
func buildFilter(members, statuses []string, showDeleted bool) (calendar.Filter, error) {
	filter := calendar.Filter{ShowDeleted: showDeleted}
	for _, raw := range members {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.New("Invalid team member ID format")
		}
		filter.TeamMemberIDs = append(filter.TeamMemberIDs, id)
	}
	for _, s := range statuses {
		if !models.ValidOrderStatus(s) {
			return filter, errors.New("Invalid status: " + s)
		}
		filter.Statuses = append(filter.Statuses, s)
	}
	return filter, nil
}

// gridOpen is the top of the day grid a client sees for day under filter,
// used to turn a drop position back into a time.
func gridOpen(salonID uuid.UUID, day time.Time, filter calendar.Filter) (time.Time, error) {
	renderer, err := salonRenderer(salonID)
	if err != nil {
		return time.Time{}, err
	}
	orders, err := ordersOverlapping(salonID, renderer.Range(calendar.ViewDay, day))
	if err != nil {
		return time.Time{}, err
	}
	return renderer.Day(day, orders, filter).Open, nil
}

func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, v := range c.QueryArray(key) {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
