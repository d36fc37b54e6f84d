package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

type UpdateProfileInput struct {
	SalonName    *string `json:"salonName"`
	SalonAddress *string `json:"salonAddress"`
	Name         *string `json:"name"`
	Phone        *string `json:"phone" binding:"omitempty,phone"`
	Email        *string `json:"email" binding:"omitempty,email"`
}

// RequireOwner blocks team members without the owner role.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := utils.UserID(c)
		if !ok {
			return
		}
		var user models.User
		if err := config.DB.Select("id", "role", "is_active").First(&user, "id = ?", userID).Error; err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
			return
		}
		if user.Role != models.RoleOwner || !user.IsActive {
			utils.RespondWithError(c, http.StatusForbidden, "Owner access required")
			return
		}
		c.Next()
	}
}

// GetProfile returns the user and salon profile.
func GetProfile(c *gin.Context) {
	userID, ok := utils.UserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := config.DB.Preload("Salon").First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
		return
	}
	if user.Salon == nil {
		utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
		return
	}
	salon := user.Salon

	c.JSON(http.StatusOK, gin.H{
		"name":                  user.Name,
		"phone":                 user.Phone,
		"email":                 user.Email,
		"role":                  user.Role,
		"salonName":             salon.Name,
		"salonAddress":          salon.Address,
		"workingHours":          salon.WorkingHours,
		"birthdayReminders":     salon.BirthdayReminders,
		"anniversaryReminders":  salon.AnniversaryReminders,
		"appointmentReminders":  salon.AppointmentReminders,
		"whatsAppNotifications": salon.WhatsAppNotifications,
		"smsNotifications":      salon.SMSNotifications,
	})
}

// UpdateProfile edits the user and salon profile.
func UpdateProfile(c *gin.Context) {
	userID, ok := utils.UserID(c)
	if !ok {
		return
	}
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	userUpdates := map[string]interface{}{}
	if input.Name != nil {
		userUpdates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		userUpdates["phone"] = *input.Phone
	}
	if input.Email != nil {
		var count int64
		if err := config.DB.Model(&models.User{}).Where("email = ? AND id <> ?", *input.Email, userID).Count(&count).Error; err != nil {
			respondDBError(c, err, "")
			return
		}
		if count > 0 {
			utils.RespondWithError(c, http.StatusConflict, "Email already registered")
			return
		}
		userUpdates["email"] = *input.Email
	}

	salonUpdates := map[string]interface{}{}
	if input.SalonName != nil {
		salonUpdates["name"] = strings.TrimSpace(*input.SalonName)
	}
	if input.SalonAddress != nil {
		salonUpdates["address"] = *input.SalonAddress
	}

	if len(userUpdates) > 0 {
		if err := config.DB.Model(&models.User{}).Where("id = ?", userID).Updates(userUpdates).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
			return
		}
	}
	if len(salonUpdates) > 0 {
		if err := config.DB.Model(&models.Salon{}).Where("id = ?", salonID).Updates(salonUpdates).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update salon")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

// UpdateWorkingHours replaces the salon's weekly opening hours.
func UpdateWorkingHours(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var input struct {
		WorkingHours datatypes.JSONMap `json:"workingHours" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	if err := config.DB.Model(&models.Salon{}).Where("id = ?", salonID).
		Update("working_hours", input.WorkingHours).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update working hours")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Working hours updated"})
}

// UpdateNotificationSettings toggles the salon's notification channels.
func UpdateNotificationSettings(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var input struct {
		BirthdayReminders     *bool `json:"birthdayReminders"`
		AnniversaryReminders  *bool `json:"anniversaryReminders"`
		AppointmentReminders  *bool `json:"appointmentReminders"`
		WhatsAppNotifications *bool `json:"whatsAppNotifications"`
		SMSNotifications      *bool `json:"smsNotifications"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	updates := map[string]interface{}{}
	set := func(column string, v *bool) {
		if v != nil {
			updates[column] = *v
		}
	}
	set("birthday_reminders", input.BirthdayReminders)
	set("anniversary_reminders", input.AnniversaryReminders)
	set("appointment_reminders", input.AppointmentReminders)
	set("whats_app_notifications", input.WhatsAppNotifications)
	set("sms_notifications", input.SMSNotifications)
	if len(updates) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "No settings provided")
		return
	}

	if err := config.DB.Model(&models.Salon{}).Where("id = ?", salonID).Updates(updates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notification settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification settings updated"})
}

type UpdateReminderSettingInput struct {
	Type     string  `json:"type" binding:"required,oneof=birthday anniversary appointment"`
	IsActive *bool   `json:"isActive"`
	Message  *string `json:"message"`
}

// UpdateReminderSetting sets the message of one reminder type.
func UpdateReminderSetting(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var input UpdateReminderSettingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	var template models.ReminderTemplate
	if err := config.DB.Where("salon_id = ? AND type = ?", salonID, input.Type).First(&template).Error; err != nil {
		respondDBError(c, err, "Reminder template not found")
		return
	}

	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}
	if input.Message != nil {
		template.Message = *input.Message
	}

	if err := config.DB.Save(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update reminder setting")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reminder setting updated"})
}

// GetReminderSettings lists the salon's reminder messages.
func GetReminderSettings(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var templates []models.ReminderTemplate
	if err := config.DB.Where("salon_id = ?", salonID).Find(&templates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch reminder settings")
		return
	}

	settings := gin.H{}
	for _, t := range templates {
		settings[t.Type+"_reminder"] = t.IsActive
		settings[t.Type+"_message"] = t.Message
	}

	c.JSON(http.StatusOK, settings)
}

type UpdateWebConfigInput struct {
	Slug           *string `json:"slug"`
	Enabled        *bool   `json:"enabled"`
	Headline       *string `json:"headline"`
	BookingEnabled *bool   `json:"bookingEnabled"`
	AccentColor    *string `json:"accentColor" binding:"omitempty,hexcolor"`
}

// GetWebConfig returns the salon's public page settings.
func GetWebConfig(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var web models.WebConfig
	if err := config.DB.Where("salon_id = ?", salonID).First(&web).Error; err != nil {
		respondDBError(c, err, "Web page not configured")
		return
	}
	c.JSON(http.StatusOK, web)
}

// UpdateWebConfig edits the salon's public page settings.
func UpdateWebConfig(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var input UpdateWebConfigInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var web models.WebConfig
	if err := config.DB.Where("salon_id = ?", salonID).First(&web).Error; err != nil {
		respondDBError(c, err, "Web page not configured")
		return
	}

	if input.Slug != nil {
		webSlug := slug.Make(*input.Slug)
		if webSlug == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid slug")
			return
		}
		var count int64
		if err := config.DB.Model(&models.WebConfig{}).Where("slug = ? AND id <> ?", webSlug, web.ID).Count(&count).Error; err != nil {
			respondDBError(c, err, "")
			return
		}
		if count > 0 {
			utils.RespondWithError(c, http.StatusConflict, "Slug already taken")
			return
		}
		web.Slug = webSlug
	}
	if input.Enabled != nil {
		web.Enabled = *input.Enabled
	}
	if input.Headline != nil {
		web.Headline = *input.Headline
	}
	if input.BookingEnabled != nil {
		web.BookingEnabled = *input.BookingEnabled
	}
	if input.AccentColor != nil {
		web.AccentColor = *input.AccentColor
	}

	if err := config.DB.Save(&web).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update web page")
		return
	}
	c.JSON(http.StatusOK, web)
}
