package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonpro-crm/calendar"
	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/realtime"
	"salonpro-crm/utils"
)

type CreateAppointmentInput struct {
	ClientID     uuid.UUID   `json:"clientId" binding:"required"`
	TeamMemberID *uuid.UUID  `json:"teamMemberId"`
	StartAt      time.Time   `json:"startAt" binding:"required"`
	EndAt        *time.Time  `json:"endAt"`
	ServiceIDs   []uuid.UUID `json:"serviceIds"`
	Price        *float64    `json:"price" binding:"omitempty,min=0"`
	Status       string      `json:"status" binding:"omitempty,oneof=pending confirmed"`
	Notes        string      `json:"notes"`
}

type UpdateAppointmentInput struct {
	TeamMemberID *uuid.UUID   `json:"teamMemberId"`
	Unassign     bool         `json:"unassign"`
	StartAt      *time.Time   `json:"startAt"`
	EndAt        *time.Time   `json:"endAt"`
	ServiceIDs   *[]uuid.UUID `json:"serviceIds"`
	Price        *float64     `json:"price" binding:"omitempty,min=0"`
	Notes        *string      `json:"notes"`
}

type UpdateStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed completed cancelled no_show"`
}

// MoveAppointmentInput is a drag-and-drop target: either an absolute Start, or
// a pointer position on the day grid of Date. Member, Status and ShowDeleted
// repeat the filters of the grid the drop happened on.
type MoveAppointmentInput struct {
	Start        *time.Time `json:"start"`
	Date         string     `json:"date"`
	OffsetPx     *float64   `json:"offsetPx"`
	PxPerHour    float64    `json:"pxPerHour"`
	TeamMemberID *uuid.UUID `json:"teamMemberId"`
	Member       []string   `json:"member"`
	Status       []string   `json:"status"`
	ShowDeleted  bool       `json:"showDeleted"`
}

// CreateAppointment creates an appointment priced from its services.
func CreateAppointment(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var client models.Client
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, input.ClientID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Client not found")
		} else {
			respondDBError(c, err, "")
		}
		return
	}
	if input.TeamMemberID != nil {
		if err := requireTeamMember(salonID, *input.TeamMemberID); err != nil {
			respondLookupError(c, err)
			return
		}
	}

	snapshots, err := serviceSnapshots(salonID, input.ServiceIDs)
	if err != nil {
		respondLookupError(c, err)
		return
	}

	order := models.Order{
		SalonID:      salonID,
		CustomerUUID: client.CustomerUUID,
		TeamMemberID: input.TeamMemberID,
		StartAt:      dbTime(input.StartAt),
		Status:       input.Status,
		Services:     snapshots,
		Notes:        input.Notes,
	}
	order.EndAt = appointmentEnd(order.StartAt, input.EndAt, snapshots)
	order.Price = appointmentPrice(input.Price, snapshots)
	if !order.EndAt.After(order.StartAt) {
		utils.RespondWithError(c, http.StatusBadRequest, calendar.ErrInvalidTimeRange.Error())
		return
	}

	if err := config.DB.Create(&order).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create appointment")
		return
	}

	publishOrder(c.Request.Context(), realtime.EventInsert, nil, &order)
	c.JSON(http.StatusCreated, order)
}

// GetAppointments lists orders. Optional query: from/to (YYYY-MM-DD, to inclusive),
// clientId, member, status, showDeleted=true.
func GetAppointments(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	query := config.DB.Where("salon_id = ?", salonID)
	if raw := c.Query("from"); raw != "" {
		from, err := utils.ParseDate(raw, Location)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		query = query.Where("end_at > ?", from.UTC())
	}
	if raw := c.Query("to"); raw != "" {
		to, err := utils.ParseDate(raw, Location)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		query = query.Where("start_at < ?", to.AddDate(0, 0, 1).UTC())
	}
	if raw := c.Query("clientId"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
			return
		}
		var client models.Client
		if err := config.DB.Unscoped().Select("customer_uuid").
			Where("salon_id = ? AND id = ?", salonID, clientID).First(&client).Error; err != nil {
			respondDBError(c, err, "Client not found")
			return
		}
		query = query.Where("customer_uuid = ?", client.CustomerUUID)
	}
	if raw := c.Query("member"); raw != "" {
		memberID, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid team member ID format")
			return
		}
		query = query.Where("team_member_id = ?", memberID)
	}
	if status := c.Query("status"); status != "" {
		if !models.ValidOrderStatus(status) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid status")
			return
		}
		query = query.Where("status = ?", status)
	} else if c.Query("showDeleted") != "true" {
		query = query.Where("status <> ?", models.OrderDeleted)
	}

	var orders []models.Order
	if err := query.Order("start_at").Find(&orders).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve appointments")
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GetAppointment returns one appointment of the caller's salon.
func GetAppointment(c *gin.Context) {
	order, ok := loadOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateAppointment edits an appointment; changing the start keeps its duration.
func UpdateAppointment(c *gin.Context) {
	order, ok := loadOrder(c)
	if !ok {
		return
	}
	if order.IsDeleted() {
		utils.RespondWithError(c, http.StatusBadRequest, calendar.ErrDeletedOrder.Error())
		return
	}

	var input UpdateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	before := order
	duration := order.Duration()

	if input.Unassign {
		order.TeamMemberID = nil
	} else if input.TeamMemberID != nil {
		if err := requireTeamMember(order.SalonID, *input.TeamMemberID); err != nil {
			respondLookupError(c, err)
			return
		}
		order.TeamMemberID = input.TeamMemberID
	}

	if input.ServiceIDs != nil {
		snapshots, err := serviceSnapshots(order.SalonID, *input.ServiceIDs)
		if err != nil {
			respondLookupError(c, err)
			return
		}
		order.Services = snapshots
		if input.Price == nil {
			order.Price = appointmentPrice(nil, snapshots)
		}
		if input.EndAt == nil && totalDuration(snapshots) > 0 {
			duration = totalDuration(snapshots)
		}
	}
	if input.StartAt != nil {
		order.StartAt = dbTime(*input.StartAt)
	}
	if input.EndAt != nil {
		order.EndAt = dbTime(*input.EndAt)
	} else {
		order.EndAt = order.StartAt.Add(duration)
	}
	if input.Price != nil {
		order.Price = *input.Price
	}
	if input.Notes != nil {
		order.Notes = *input.Notes
	}

	if !order.EndAt.After(order.StartAt) {
		utils.RespondWithError(c, http.StatusBadRequest, calendar.ErrInvalidTimeRange.Error())
		return
	}

	if err := config.DB.Model(&order).Select("team_member_id", "start_at", "end_at", "services", "price", "notes").
		Updates(&order).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update appointment")
		return
	}

	publishOrder(c.Request.Context(), realtime.EventUpdate, &before, &order)
	c.JSON(http.StatusOK, order)
}

// UpdateAppointmentStatus changes the lifecycle status. A deleted appointment
// can be restored this way; deleting goes through DELETE.
func UpdateAppointmentStatus(c *gin.Context) {
	order, ok := loadOrder(c)
	if !ok {
		return
	}

	var input UpdateStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Status == order.Status {
		c.JSON(http.StatusOK, order)
		return
	}

	before := order
	order.Status = input.Status
	if err := config.DB.Model(&order).Update("status", order.Status).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update status")
		return
	}

	publishOrder(c.Request.Context(), realtime.EventUpdate, &before, &order)
	c.JSON(http.StatusOK, order)
}

// DeleteAppointment marks the order deleted. Rows are kept so history and
// scoring stay intact.
func DeleteAppointment(c *gin.Context) {
	order, ok := loadOrder(c)
	if !ok {
		return
	}
	if order.IsDeleted() {
		c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
		return
	}

	before := order
	order.Status = models.OrderDeleted
	if err := config.DB.Model(&order).Update("status", order.Status).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete appointment")
		return
	}

	publishOrder(c.Request.Context(), realtime.EventUpdate, &before, &order)
	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}

// MoveAppointment reschedules by drag and drop. The move is pushed to
// subscribers before the write and reverted if the write fails.
func MoveAppointment(c *gin.Context) {
	order, ok := loadOrder(c)
	if !ok {
		return
	}

	var input MoveAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var start time.Time
	switch {
	case input.Start != nil:
		start = input.Start.In(Location)
	case input.Date != "" && input.OffsetPx != nil:
		day, err := utils.ParseDate(input.Date, Location)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		filter, err := buildFilter(input.Member, input.Status, input.ShowDeleted)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		open, err := gridOpen(order.SalonID, day, filter)
		if err != nil {
			respondDBError(c, err, "")
			return
		}
		start, err = calendar.PointerToTime(open, *input.OffsetPx, input.PxPerHour)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	default:
		utils.RespondWithError(c, http.StatusBadRequest, "Provide start, or date with offsetPx and pxPerHour")
		return
	}

	if input.TeamMemberID != nil {
		if err := requireTeamMember(order.SalonID, *input.TeamMemberID); err != nil {
			respondLookupError(c, err)
			return
		}
	}

	moved, err := calendar.Reschedule(order, calendar.Move{Start: start, TeamMemberID: input.TeamMemberID})
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	moved.StartAt = dbTime(moved.StartAt)
	moved.EndAt = dbTime(moved.EndAt)

	revert := func() {}
	if Realtime != nil {
		if r, err := Realtime.Optimistic(c.Request.Context(), moved); err != nil {
			Log.Warn("optimistic move skipped", "orderID", order.ID, "error", err)
		} else {
			revert = r
		}
	}

	if err := config.DB.Model(&moved).Select("start_at", "end_at", "team_member_id").Updates(&moved).Error; err != nil {
		revert()
		Log.Error("appointment move failed", "orderID", order.ID, "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to move appointment")
		return
	}

	publishOrder(c.Request.Context(), realtime.EventUpdate, &order, &moved)
	c.JSON(http.StatusOK, moved)
}

func loadOrder(c *gin.Context) (models.Order, bool) {
	var order models.Order
	salonID, ok := utils.SalonID(c)
	if !ok {
		return order, false
	}
	orderID, ok := utils.ParamUUID(c, "id", "appointment")
	if !ok {
		return order, false
	}
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, orderID).First(&order).Error; err != nil {
		respondDBError(c, err, "Appointment not found")
		return order, false
	}
	return order, true
}

func requireTeamMember(salonID, userID uuid.UUID) error {
	var user models.User
	err := config.DB.Select("id", "is_active").Where("salon_id = ? AND id = ?", salonID, userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &lookupError{"Team member not found"}
	}
	if err != nil {
		return err
	}
	if !user.IsActive {
		return &lookupError{"Team member is deactivated"}
	}
	return nil
}

// serviceSnapshots freezes the requested catalog services in request order.
func serviceSnapshots(salonID uuid.UUID, ids []uuid.UUID) ([]models.OrderService, error) {
	if len(ids) == 0 {
		return []models.OrderService{}, nil
	}
	var services []models.Service
	if err := config.DB.Where("salon_id = ? AND id IN ?", salonID, ids).Find(&services).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}

	out := make([]models.OrderService, 0, len(ids))
	var missing []string
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			missing = append(missing, id.String())
			continue
		}
		out = append(out, s.Snapshot())
	}
	if len(missing) > 0 {
		return nil, &lookupError{"Service not found: " + strings.Join(missing, ", ")}
	}
	return out, nil
}

func totalDuration(services []models.OrderService) time.Duration {
	var minutes int
	for _, s := range services {
		minutes += s.DurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// appointmentEnd defaults to start plus the booked services' duration.
func appointmentEnd(start time.Time, end *time.Time, services []models.OrderService) time.Time {
	if end != nil {
		return dbTime(*end)
	}
	return start.Add(totalDuration(services))
}

// appointmentPrice defaults to the sum of the service snapshots.
func appointmentPrice(price *float64, services []models.OrderService) float64 {
	if price != nil {
		return *price
	}
	var total float64
	for _, s := range services {
		total += s.Price
	}
	return total
}

func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
