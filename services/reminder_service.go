package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"salonpro-crm/logger"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

// birthdays and anniversaries are announced this many days ahead
const reminderLeadDays = 7

type ReminderService struct {
	db       *gorm.DB
	sender   MessageSender
	log      *logger.Logger
	loc      *time.Location
	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

func NewReminderService(db *gorm.DB, sender MessageSender, schedule string, loc *time.Location, log *logger.Logger) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{
		db:       db,
		sender:   sender,
		log:      log.With("service", "ReminderService"),
		loc:      loc,
		schedule: schedule,
		now:      time.Now,
	}
}

// StartScheduler registers the daily run on the configured cron spec.
func (s *ReminderService) StartScheduler() error {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.schedule, func() {
		s.SendDailyReminders(context.Background())
	}); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.log.Info("Reminder scheduler started", "schedule", s.schedule)
	return nil
}

// Stop waits for a running job to finish.
func (s *ReminderService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *ReminderService) SendDailyReminders(ctx context.Context) {
	s.log.Info("Starting daily reminder processing")

	var salons []models.Salon
	if err := s.db.WithContext(ctx).Find(&salons).Error; err != nil {
		s.log.Error("Failed to fetch salons", "error", err)
		return
	}

	total := 0
	for _, salon := range salons {
		total += s.ProcessSalonReminders(ctx, salon)
	}
	s.log.Info("Daily reminder processing completed", "salons", len(salons), "sent", total)
}

// ProcessSalonReminders sends the salon's due reminders and returns how many went out.
func (s *ReminderService) ProcessSalonReminders(ctx context.Context, salon models.Salon) int {
	log := s.log.With("salonID", salon.ID)
	if !salon.SMSNotifications && !salon.WhatsAppNotifications {
		log.Debug("Notifications disabled, skipping salon")
		return 0
	}

	today := utils.BeginningOfDay(s.now().In(s.loc))
	sent := 0

	if salon.BirthdayReminders || salon.AnniversaryReminders {
		var clients []models.Client
		if err := s.db.WithContext(ctx).
			Where("salon_id = ? AND is_active = ?", salon.ID, true).
			Where("(birthday IS NOT NULL OR anniversary IS NOT NULL)").
			Find(&clients).Error; err != nil {
			log.Error("Failed to fetch clients", "error", err)
		} else {
			if salon.BirthdayReminders {
				sent += s.sendDateReminders(ctx, salon, clients, models.ReminderBirthday, today)
			}
			if salon.AnniversaryReminders {
				sent += s.sendDateReminders(ctx, salon, clients, models.ReminderAnniversary, today)
			}
		}
	}

	if salon.AppointmentReminders {
		sent += s.sendAppointmentReminders(ctx, salon, today)
	}
	return sent
}

func (s *ReminderService) sendDateReminders(ctx context.Context, salon models.Salon, clients []models.Client, kind string, today time.Time) int {
	template, ok := s.activeTemplate(ctx, salon.ID, kind)
	if !ok {
		return 0
	}

	sent := 0
	for _, client := range clients {
		date := client.Birthday
		if kind == models.ReminderAnniversary {
			date = client.Anniversary
		}
		if date == nil {
			continue
		}
		next := utils.NextAnniversary(*date, today)
		days := utils.DaysBetween(today, next)
		if days > reminderLeadDays {
			continue
		}
		windowStart := next.AddDate(0, 0, -reminderLeadDays)
		if s.alreadySent(ctx, client.ID, kind, nil, windowStart) {
			continue
		}
		msg := RenderTemplate(template.Message, map[string]string{
			"CustomerName": client.Name,
			"SalonName":    salon.Name,
			"Date":         next.Format("02 Jan"),
			"Days":         utils.RelativeDayLabel(days),
		})
		if s.deliver(ctx, salon, client, template, nil, kind, msg) {
			sent++
		}
	}
	return sent
}

func (s *ReminderService) sendAppointmentReminders(ctx context.Context, salon models.Salon, today time.Time) int {
	template, ok := s.activeTemplate(ctx, salon.ID, models.ReminderAppointment)
	if !ok {
		return 0
	}

	from := today.AddDate(0, 0, 1)
	to := from.AddDate(0, 0, 1)
	var orders []models.Order
	if err := s.db.WithContext(ctx).
		Where("salon_id = ? AND start_at >= ? AND start_at < ?", salon.ID, from.UTC(), to.UTC()).
		Where("status IN ?", []string{models.OrderPending, models.OrderConfirmed}).
		Order("start_at").
		Find(&orders).Error; err != nil {
		s.log.Error("Failed to fetch tomorrow's appointments", "salonID", salon.ID, "error", err)
		return 0
	}

	sent := 0
	for _, o := range orders {
		var client models.Client
		if err := s.db.WithContext(ctx).
			Where("salon_id = ? AND customer_uuid = ?", salon.ID, o.CustomerUUID).
			First(&client).Error; err != nil {
			s.log.Warn("Appointment without client", "orderID", o.ID, "error", err)
			continue
		}
		orderID := o.ID
		if s.alreadySent(ctx, client.ID, models.ReminderAppointment, &orderID, time.Time{}) {
			continue
		}
		start := o.StartAt.In(s.loc)
		msg := RenderTemplate(template.Message, map[string]string{
			"CustomerName": client.Name,
			"SalonName":    salon.Name,
			"Date":         start.Format("02 Jan"),
			"Time":         start.Format("15:04"),
			"Days":         utils.RelativeDayLabel(1),
		})
		if s.deliver(ctx, salon, client, template, &orderID, models.ReminderAppointment, msg) {
			sent++
		}
	}
	return sent
}

func (s *ReminderService) activeTemplate(ctx context.Context, salonID uuid.UUID, kind string) (models.ReminderTemplate, bool) {
	var template models.ReminderTemplate
	if err := s.db.WithContext(ctx).
		Where("salon_id = ? AND type = ? AND is_active = ?", salonID, kind, true).
		First(&template).Error; err != nil {
		s.log.Debug("No active template", "salonID", salonID, "type", kind, "error", err)
		return template, false
	}
	return template, true
}

func (s *ReminderService) alreadySent(ctx context.Context, clientID uuid.UUID, kind string, orderID *uuid.UUID, since time.Time) bool {
	q := s.db.WithContext(ctx).Model(&models.ReminderLog{}).
		Where("client_id = ? AND type = ? AND status = ?", clientID, kind, "sent")
	if orderID != nil {
		q = q.Where("order_id = ?", *orderID)
	}
	if !since.IsZero() {
		q = q.Where("sent_at >= ?", since.UTC())
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		s.log.Warn("Failed to check reminder log", "clientID", clientID, "error", err)
		return false
	}
	return count > 0
}

// deliver sends one reminder and logs the attempt either way.
func (s *ReminderService) deliver(ctx context.Context, salon models.Salon, client models.Client, template models.ReminderTemplate, orderID *uuid.UUID, kind, message string) bool {
	channel := ChannelSMS
	if salon.WhatsAppNotifications && strings.HasPrefix(client.Phone, "+") {
		channel = ChannelWhatsApp
	} else if !salon.SMSNotifications {
		return false
	}

	status, errorMsg := "sent", ""
	sid, err := s.sender.Send(ctx, channel, client.Phone, message)
	if err != nil {
		s.log.Warn("Failed to send reminder", "clientID", client.ID, "channel", channel, "error", err)
		status, errorMsg = "failed", err.Error()
	} else {
		s.log.Debug("Reminder sent", "clientID", client.ID, "channel", channel, "sid", sid)
	}

	entry := models.ReminderLog{
		SalonID:      salon.ID,
		ClientID:     client.ID,
		TemplateID:   template.ID,
		OrderID:      orderID,
		Type:         kind,
		Message:      message,
		Status:       status,
		ErrorMessage: errorMsg,
		Channel:      channel,
		SentAt:       s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Error("Failed to log reminder", "clientID", client.ID, "error", err)
	}
	return status == "sent"
}

// RenderTemplate replaces [Key] placeholders with values.
func RenderTemplate(message string, values map[string]string) string {
	for k, v := range values {
		message = strings.ReplaceAll(message, "["+k+"]", v)
	}
	return message
}

// DefaultTemplates are created for every new salon.
func DefaultTemplates(salonID uuid.UUID) []models.ReminderTemplate {
	return []models.ReminderTemplate{
		{SalonID: salonID, Type: models.ReminderBirthday, IsActive: true,
			Message: "Hi [CustomerName], happy early birthday from [SalonName]! Treat yourself this week."},
		{SalonID: salonID, Type: models.ReminderAnniversary, IsActive: true,
			Message: "Hi [CustomerName], [SalonName] wishes you a happy anniversary on [Date]!"},
		{SalonID: salonID, Type: models.ReminderAppointment, IsActive: true,
			Message: "Hi [CustomerName], see you [Days] at [Time] at [SalonName]."},
	}
}
