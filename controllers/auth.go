package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/services"
	"salonpro-crm/utils"
)

type RegisterInput struct {
	Email        string            `json:"email" binding:"required,email"`
	Phone        string            `json:"phone" binding:"required,phone"`
	Name         string            `json:"name" binding:"required"`
	Password     string            `json:"password" binding:"required,min=8"`
	SalonName    string            `json:"salonName" binding:"required"`
	SalonAddress string            `json:"salonAddress"`
	WorkingHours datatypes.JSONMap `json:"workingHours"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // email or phone
	Password   string `json:"password" binding:"required"`
}

// Register creates the salon, its owner account, default reminder templates
// and a disabled public page in one transaction.
func Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var existingUser models.User
	result := config.DB.Where("email = ? OR phone = ?", input.Email, input.Phone).First(&existingUser)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		respondDBError(c, result.Error, "")
		return
	}

	salon := models.Salon{
		Name:         input.SalonName,
		Address:      input.SalonAddress,
		WorkingHours: input.WorkingHours,
	}
	if salon.WorkingHours == nil {
		salon.WorkingHours = models.DefaultWorkingHours()
	}

	user := models.User{
		Email:    input.Email,
		Phone:    input.Phone,
		Name:     input.Name,
		Password: input.Password, // hashed in BeforeCreate
		Role:     models.RoleOwner,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&salon).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create salon")
		return
	}
	user.SalonID = salon.ID
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}
	templates := services.DefaultTemplates(salon.ID)
	if err := tx.Create(&templates).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create reminder templates")
		return
	}
	web := models.WebConfig{
		SalonID:     salon.ID,
		Slug:        slug.Make(salon.Name) + "-" + strings.ToLower(utils.GenerateRandomString(4)),
		Headline:    salon.Name,
		AccentColor: "#8b5cf6",
	}
	if err := tx.Create(&web).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create web page config")
		return
	}
	if err := tx.Commit().Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to complete registration")
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), salon.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	setTokenCookie(c, token)

	Log.Info("salon registered", "salonID", salon.ID, "userID", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userSummary(user, salon),
	})
}

// Login signs a user in by email or phone.
func Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)

	var user models.User
	result := config.DB.Preload("Salon").Where("email = ? OR phone = ?", identifier, identifier).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			respondDBError(c, result.Error, "")
		}
		return
	}

	if !user.IsActive || !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateToken(user.ID.String(), user.SalonID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	now := time.Now().UTC()
	config.DB.Model(&user).Update("last_login", &now)
	setTokenCookie(c, token)

	var salon models.Salon
	if user.Salon != nil {
		salon = *user.Salon
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userSummary(user, salon),
	})
}

// Me returns the signed-in user and their salon.
func Me(c *gin.Context) {
	userID, ok := utils.UserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := config.DB.Preload("Salon").First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var salon models.Salon
	if user.Salon != nil {
		salon = *user.Salon
	}
	c.JSON(http.StatusOK, gin.H{"user": userSummary(user, salon)})
}

func setTokenCookie(c *gin.Context, token string) {
	c.SetCookie("token", token, utils.TokenExpiryHours()*3600, "/", "", true, true)
}

func userSummary(user models.User, salon models.Salon) gin.H {
	return gin.H{
		"id":        user.ID,
		"email":     user.Email,
		"phone":     user.Phone,
		"name":      user.Name,
		"role":      user.Role,
		"salonId":   user.SalonID,
		"salonName": salon.Name,
	}
}
