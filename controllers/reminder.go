package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

type CreateReminderTemplateInput struct {
	Type    string `json:"type" binding:"required,oneof=birthday anniversary appointment"`
	Message string `json:"message" binding:"required"`
}

type UpdateReminderTemplateInput struct {
	Type     *string `json:"type" binding:"omitempty,oneof=birthday anniversary appointment"`
	Message  *string `json:"message"`
	IsActive *bool   `json:"isActive"`
}

// CreateReminderTemplate adds a template. A salon keeps one template per type.
func CreateReminderTemplate(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var input CreateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existing models.ReminderTemplate
	if err := config.DB.Where("salon_id = ? AND type = ?", salonID, input.Type).
		First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondDBError(c, err, "")
		return
	}

	template := models.ReminderTemplate{
		SalonID:  salonID,
		Type:     input.Type,
		Message:  input.Message,
		IsActive: true,
	}
	if err := config.DB.Create(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetReminderTemplates lists the salon's reminder templates.
func GetReminderTemplates(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var templates []models.ReminderTemplate
	if err := config.DB.Where("salon_id = ?", salonID).Order("type").Find(&templates).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve templates")
		return
	}

	c.JSON(http.StatusOK, templates)
}

// GetReminderTemplate returns one reminder template.
func GetReminderTemplate(c *gin.Context) {
	template, ok := loadTemplate(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, template)
}

// UpdateReminderTemplate edits a reminder template.
func UpdateReminderTemplate(c *gin.Context) {
	template, ok := loadTemplate(c)
	if !ok {
		return
	}

	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Type != nil && *input.Type != template.Type {
		var existing models.ReminderTemplate
		if err := config.DB.Where("salon_id = ? AND type = ?", template.SalonID, *input.Type).
			First(&existing).Error; err == nil {
			utils.RespondWithError(c, http.StatusConflict, "Template for this type already exists")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			respondDBError(c, err, "")
			return
		}
		template.Type = *input.Type
	}
	if input.Message != nil {
		template.Message = *input.Message
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&template).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteReminderTemplate deletes a reminder template.
func DeleteReminderTemplate(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	templateID, ok := utils.ParamUUID(c, "id", "template")
	if !ok {
		return
	}

	result := config.DB.Where("salon_id = ? AND id = ?", salonID, templateID).Delete(&models.ReminderTemplate{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete template")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Template not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Template deleted successfully"})
}

// GetReminderLogs lists delivery attempts, newest first. ?limit= caps the page (default 50).
func GetReminderLogs(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			utils.RespondWithError(c, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	query := config.DB.Where("salon_id = ?", salonID)
	if kind := c.Query("type"); kind != "" {
		query = query.Where("type = ?", kind)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var logs []models.ReminderLog
	if err := query.Order("sent_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve reminder logs")
		return
	}

	c.JSON(http.StatusOK, logs)
}

// RunReminders processes the caller's salon immediately instead of waiting for the daily job.
func RunReminders(c *gin.Context) {
	if Reminders == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Messaging is not configured")
		return
	}
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var salon models.Salon
	if err := config.DB.First(&salon, "id = ?", salonID).Error; err != nil {
		respondDBError(c, err, "Salon not found")
		return
	}

	sent := Reminders.ProcessSalonReminders(c.Request.Context(), salon)
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

func loadTemplate(c *gin.Context) (models.ReminderTemplate, bool) {
	var template models.ReminderTemplate
	salonID, ok := utils.SalonID(c)
	if !ok {
		return template, false
	}
	templateID, ok := utils.ParamUUID(c, "id", "template")
	if !ok {
		return template, false
	}
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, templateID).First(&template).Error; err != nil {
		respondDBError(c, err, "Template not found")
		return template, false
	}
	return template, true
}
