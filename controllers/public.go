package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

type PublicSalon struct {
	Slug           string                 `json:"slug"`
	Name           string                 `json:"name"`
	Address        string                 `json:"address"`
	Headline       string                 `json:"headline"`
	AccentColor    string                 `json:"accentColor"`
	BookingEnabled bool                   `json:"bookingEnabled"`
	WorkingHours   map[string]interface{} `json:"workingHours,omitempty"`
	Services       []PublicService        `json:"services,omitempty"`
}

type PublicService struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Duration int     `json:"duration"`
}

// ListPublicSalons lists the salons that published their web page.
func ListPublicSalons(c *gin.Context) {
	var configs []models.WebConfig
	if err := config.DB.Preload("Salon").Where("enabled = ?", true).Order("slug").Find(&configs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve salons")
		return
	}

	out := make([]PublicSalon, 0, len(configs))
	for _, w := range configs {
		if w.Salon == nil {
			continue
		}
		out = append(out, publicSalon(w))
	}
	c.JSON(http.StatusOK, out)
}

// GetPublicSalon returns one published salon page with its active services.
func GetPublicSalon(c *gin.Context) {
	var web models.WebConfig
	if err := config.DB.Preload("Salon").
		Where("slug = ? AND enabled = ?", c.Param("slug"), true).
		First(&web).Error; err != nil || web.Salon == nil {
		if err == nil {
			utils.RespondWithError(c, http.StatusNotFound, "Salon not found")
			return
		}
		respondDBError(c, err, "Salon not found")
		return
	}

	var services []models.Service
	if err := config.DB.Where("salon_id = ? AND is_active = ?", web.SalonID, true).
		Order("category, name").Find(&services).Error; err != nil {
		respondDBError(c, err, "")
		return
	}

	page := publicSalon(web)
	page.WorkingHours = web.Salon.WorkingHours
	for _, s := range services {
		page.Services = append(page.Services, PublicService{
			Name: s.Name, Category: s.Category, Price: s.Price, Duration: s.Duration,
		})
	}
	c.JSON(http.StatusOK, page)
}

func publicSalon(w models.WebConfig) PublicSalon {
	return PublicSalon{
		Slug:           w.Slug,
		Name:           w.Salon.Name,
		Address:        w.Salon.Address,
		Headline:       w.Headline,
		AccentColor:    w.AccentColor,
		BookingEnabled: w.BookingEnabled,
	}
}
