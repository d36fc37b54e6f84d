package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

type AddEmployeeInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
	Password string `json:"password" binding:"required,min=8"`
	Color    string `json:"color" binding:"omitempty,hexcolor"`
}

type UpdateEmployeeInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone" binding:"omitempty,phone"`
	Color    *string `json:"color" binding:"omitempty,hexcolor"`
	IsActive *bool   `json:"isActive"`
}

// GetEmployees lists the salon's team, owner included. ?active=true hides deactivated members.
func GetEmployees(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	query := config.DB.Where("salon_id = ?", salonID)
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var users []models.User
	if err := query.Order("name").Find(&users).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve team members")
		return
	}

	c.JSON(http.StatusOK, users)
}

// AddEmployee adds a team member to the owner's salon.
func AddEmployee(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	var input AddEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existing models.User
	if err := config.DB.Unscoped().Where("email = ?", input.Email).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondDBError(c, err, "")
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(input.Name),
		Email:    input.Email,
		Phone:    input.Phone,
		Password: input.Password,
		Color:    input.Color,
		Role:     models.RoleEmployee,
		SalonID:  salonID,
		IsActive: true,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to add team member")
		return
	}

	Log.Info("team member added", "salonID", salonID, "userID", user.ID)
	c.JSON(http.StatusCreated, user)
}

// UpdateEmployee edits a team member.
func UpdateEmployee(c *gin.Context) {
	user, ok := loadEmployee(c)
	if !ok {
		return
	}

	var input UpdateEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.IsActive != nil && !*input.IsActive && user.Role == models.RoleOwner {
		utils.RespondWithError(c, http.StatusBadRequest, "The owner cannot be deactivated")
		return
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Color != nil {
		updates["color"] = *input.Color
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := config.DB.Model(&user).Updates(updates).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update team member")
			return
		}
		config.DB.First(&user, "id = ?", user.ID)
	}

	c.JSON(http.StatusOK, user)
}

// DeleteEmployee deactivates a team member. Their appointments keep the assignment.
func DeleteEmployee(c *gin.Context) {
	user, ok := loadEmployee(c)
	if !ok {
		return
	}
	if user.Role == models.RoleOwner {
		utils.RespondWithError(c, http.StatusBadRequest, "The owner cannot be deactivated")
		return
	}

	if err := config.DB.Model(&user).Update("is_active", false).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to deactivate team member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Team member deactivated"})
}

func loadEmployee(c *gin.Context) (models.User, bool) {
	var user models.User
	salonID, ok := utils.SalonID(c)
	if !ok {
		return user, false
	}
	userID, ok := utils.ParamUUID(c, "id", "team member")
	if !ok {
		return user, false
	}
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, userID).First(&user).Error; err != nil {
		respondDBError(c, err, "Team member not found")
		return user, false
	}
	return user, true
}
