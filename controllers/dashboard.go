package controllers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

const (
	dashboardListSize  = 7
	reminderWindowDays = 7
)

type UpcomingEvent struct {
	Name string `json:"name"`
	Date string `json:"date"` // "Today", "Tomorrow", "3 days"
	Days int    `json:"days"`
}

type RecentClient struct {
	Name      string `json:"name"`
	Service   string `json:"service"`
	VisitDate string `json:"visitDate"` // "Today", "Yesterday", "4 days ago"
}

type UpcomingReminder struct {
	Name string `json:"name"`
	Type string `json:"type"` // "Birthday" or "Anniversary"
	Date string `json:"date"`
	Days int    `json:"days"`
}

type TodayAppointment struct {
	ID       uuid.UUID `json:"id"`
	Client   string    `json:"client"`
	StartAt  time.Time `json:"startAt"`
	EndAt    time.Time `json:"endAt"`
	Status   string    `json:"status"`
	Services string    `json:"services"`
}

// GetDashboardOverview returns client and revenue totals, today's appointments
// and upcoming birthdays and reminders.
func GetDashboardOverview(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	now := time.Now().In(Location)
	today := utils.BeginningOfDay(now)
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, Location)

	var totalClients int64
	config.DB.Model(&models.Client{}).Where("salon_id = ?", salonID).Count(&totalClients)

	var monthlyRevenue float64
	config.DB.Model(&models.Invoice{}).
		Where("salon_id = ? AND invoice_date >= ?", salonID, firstOfMonth.UTC()).
		Select("COALESCE(SUM(total), 0)").Scan(&monthlyRevenue)

	var totalInvoices int64
	config.DB.Model(&models.Invoice{}).Where("salon_id = ?", salonID).Count(&totalInvoices)

	var clients []models.Client
	if err := config.DB.Select("id", "name", "customer_uuid", "birthday", "anniversary").
		Where("salon_id = ?", salonID).Find(&clients).Error; err != nil {
		respondDBError(c, err, "")
		return
	}

	birthdays, birthdayCount := upcomingBirthdays(clients, now)

	todays, err := todaysAppointments(salonID, clients, today)
	if err != nil {
		respondDBError(c, err, "")
		return
	}

	recent, err := recentClients(salonID, now)
	if err != nil {
		respondDBError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalClients":   totalClients,
		"monthlyRevenue": monthlyRevenue,
		"totalInvoices":  totalInvoices,
		"upcomingBirthdays": gin.H{
			"count": birthdayCount,
			"list":  birthdays,
		},
		"todayAppointments": todays,
		"recentClients":     recent,
		"upcomingReminders": upcomingReminders(clients, now),
	})
}

// upcomingBirthdays returns the next birthdays until the end of the year and how many there are.
func upcomingBirthdays(clients []models.Client, now time.Time) ([]UpcomingEvent, int) {
	var events []UpcomingEvent
	for _, cl := range clients {
		if cl.Birthday == nil {
			continue
		}
		next := utils.NextAnniversary(cl.Birthday.In(now.Location()), now)
		if next.Year() != now.Year() {
			continue
		}
		days := utils.DaysBetween(now, next)
		events = append(events, UpcomingEvent{Name: cl.Name, Date: next.Format("01-02"), Days: days})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Days < events[j].Days })
	count := len(events)
	if len(events) > dashboardListSize {
		events = events[:dashboardListSize]
	}
	return events, count
}

// upcomingReminders lists birthdays and anniversaries in the reminder window.
func upcomingReminders(clients []models.Client, now time.Time) []UpcomingReminder {
	var out []UpcomingReminder
	add := func(name, kind string, date *time.Time) {
		if date == nil {
			return
		}
		next := utils.NextAnniversary(date.In(now.Location()), now)
		days := utils.DaysBetween(now, next)
		if days >= reminderWindowDays {
			return
		}
		out = append(out, UpcomingReminder{Name: name, Type: kind, Date: utils.RelativeDayLabel(days), Days: days})
	}
	for _, cl := range clients {
		add(cl.Name, "Birthday", cl.Birthday)
		add(cl.Name, "Anniversary", cl.Anniversary)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Days < out[j].Days })
	if len(out) > dashboardListSize {
		out = out[:dashboardListSize]
	}
	return out
}

func todaysAppointments(salonID uuid.UUID, clients []models.Client, today time.Time) ([]TodayAppointment, error) {
	var orders []models.Order
	err := config.DB.Where("salon_id = ? AND start_at >= ? AND start_at < ? AND status <> ?",
		salonID, today.UTC(), today.AddDate(0, 0, 1).UTC(), models.OrderDeleted).
		Order("start_at").Find(&orders).Error
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(clients))
	for _, cl := range clients {
		names[cl.CustomerUUID] = cl.Name
	}

	out := make([]TodayAppointment, 0, len(orders))
	for _, o := range orders {
		out = append(out, TodayAppointment{
			ID:       o.ID,
			Client:   names[o.CustomerUUID],
			StartAt:  o.StartAt,
			EndAt:    o.EndAt,
			Status:   o.Status,
			Services: serviceNames(o),
		})
	}
	return out, nil
}

// recentClients returns the last three distinct invoiced clients.
func recentClients(salonID uuid.UUID, now time.Time) ([]RecentClient, error) {
	var invoices []models.Invoice
	err := config.DB.Preload("Items").Where("salon_id = ?", salonID).
		Order("invoice_date DESC").Limit(50).Find(&invoices).Error
	if err != nil || len(invoices) == 0 {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ClientID)
	}
	var clients []models.Client
	if err := config.DB.Unscoped().Select("id", "name").Where("id IN ?", ids).Find(&clients).Error; err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(clients))
	for _, cl := range clients {
		names[cl.ID] = cl.Name
	}

	var out []RecentClient
	seen := make(map[uuid.UUID]bool)
	for _, inv := range invoices {
		if seen[inv.ClientID] {
			continue
		}
		seen[inv.ClientID] = true

		lines := make([]string, 0, len(inv.Items))
		for _, it := range inv.Items {
			lines = append(lines, it.ServiceName)
		}
		out = append(out, RecentClient{
			Name:      names[inv.ClientID],
			Service:   strings.Join(lines, ", "),
			VisitDate: daysAgoLabel(utils.DaysBetween(inv.InvoiceDate.In(now.Location()), now)),
		})
		if len(out) >= 3 {
			break
		}
	}
	return out, nil
}

func daysAgoLabel(days int) string {
	switch days {
	case 0:
		return "Today"
	case 1:
		return "Yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

func serviceNames(o models.Order) string {
	names := make([]string, 0, len(o.Services))
	for _, s := range o.Services {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}
