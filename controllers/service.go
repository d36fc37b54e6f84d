package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

type CreateServiceInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"min=0"`
	Duration    int     `json:"duration" binding:"min=0"` // minutes
	Category    string  `json:"category"`
	Premium     bool    `json:"premium"`
}

type UpdateServiceInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,min=0"`
	Duration    *int     `json:"duration" binding:"omitempty,min=0"`
	Category    *string  `json:"category"`
	Premium     *bool    `json:"premium"`
	IsActive    *bool    `json:"isActive"`
}

// CreateService adds a service to the catalog.
func CreateService(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var input CreateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	service := models.Service{
		SalonID:     salonID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Price:       input.Price,
		Duration:    input.Duration,
		Category:    input.Category,
		Premium:     input.Premium,
		IsActive:    true,
	}
	if service.Category == "" {
		service.Category = "General"
	}

	if err := config.DB.Create(&service).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create service")
		return
	}

	c.JSON(http.StatusCreated, service)
}

// GetServices lists the catalog, optionally narrowed by ?category= and ?active=.
func GetServices(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	query := config.DB.Where("salon_id = ?", salonID)
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var services []models.Service
	if err := query.Order("category, name").Find(&services).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve services")
		return
	}

	c.JSON(http.StatusOK, services)
}

// GetService returns one catalog service.
func GetService(c *gin.Context) {
	service, ok := loadService(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, service)
}

// UpdateService edits a catalog service.
func UpdateService(c *gin.Context) {
	service, ok := loadService(c)
	if !ok {
		return
	}

	var input UpdateServiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Name != nil {
		service.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		service.Description = *input.Description
	}
	if input.Price != nil {
		service.Price = *input.Price
	}
	if input.Duration != nil {
		service.Duration = *input.Duration
	}
	if input.Category != nil {
		service.Category = *input.Category
	}
	if input.Premium != nil {
		service.Premium = *input.Premium
	}
	if input.IsActive != nil {
		service.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&service).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update service")
		return
	}

	c.JSON(http.StatusOK, service)
}

// DeleteService soft deletes a service. Booked orders keep their snapshot.
func DeleteService(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	serviceID, ok := utils.ParamUUID(c, "id", "service")
	if !ok {
		return
	}

	result := config.DB.Where("salon_id = ? AND id = ?", salonID, serviceID).Delete(&models.Service{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete service")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Service not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service deleted successfully"})
}

func loadService(c *gin.Context) (models.Service, bool) {
	var service models.Service
	salonID, ok := utils.SalonID(c)
	if !ok {
		return service, false
	}
	serviceID, ok := utils.ParamUUID(c, "id", "service")
	if !ok {
		return service, false
	}
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, serviceID).First(&service).Error; err != nil {
		respondDBError(c, err, "Service not found")
		return service, false
	}
	return service, true
}
