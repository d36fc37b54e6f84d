package controllers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/scoring"
	"salonpro-crm/services"
	"salonpro-crm/utils"
)

const maxPhotoBytes = 5 << 20

type CreateClientInput struct {
	Name        string     `json:"name" binding:"required"`
	Phone       string     `json:"phone" binding:"required,phone"`
	Email       *string    `json:"email" binding:"omitempty,email"`
	Tags        []string   `json:"tags"`
	Birthday    *time.Time `json:"birthday"`
	Anniversary *time.Time `json:"anniversary"`
	Notes       string     `json:"notes"`
	Coupon      *string    `json:"coupon"`
}

type UpdateClientInput struct {
	Name        *string    `json:"name"`
	Phone       *string    `json:"phone" binding:"omitempty,phone"`
	Email       *string    `json:"email" binding:"omitempty,email"`
	Tags        *[]string  `json:"tags"`
	Birthday    *time.Time `json:"birthday"`
	Anniversary *time.Time `json:"anniversary"`
	Notes       *string    `json:"notes"`
	Coupon      *string    `json:"coupon"`
	IsActive    *bool      `json:"isActive"`
}

// ScoreSummary is the compact score shown in client lists.
type ScoreSummary struct {
	Score             int           `json:"score"`
	ReturnProbability int           `json:"returnProbability"`
	Level             scoring.Level `json:"level"`
}

type clientView struct {
	models.Client
	PhotoURL string        `json:"photoUrl,omitempty"`
	Score    *ScoreSummary `json:"score,omitempty"`
}

// CreateClient creates a client with a phone unique in the salon.
func CreateClient(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	userID, ok := utils.UserID(c)
	if !ok {
		return
	}

	var input CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if taken, err := phoneTaken(salonID, input.Phone, uuid.Nil); err != nil {
		respondDBError(c, err, "")
		return
	} else if taken {
		utils.RespondWithError(c, http.StatusConflict, "Client with this phone number already exists")
		return
	}

	client := models.Client{
		SalonID:         salonID,
		CreatedByUserID: userID,
		Name:            strings.TrimSpace(input.Name),
		Phone:           input.Phone,
		Tags:            normalizeTags(input.Tags),
		Birthday:        input.Birthday,
		Anniversary:     input.Anniversary,
		Notes:           input.Notes,
		Coupon:          blankToNil(input.Coupon),
		IsActive:        true,
	}
	if input.Email != nil {
		client.Email = *input.Email
	}

	if err := config.DB.Create(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, client)
}

// GetClients lists the salon's clients. Optional query: tag, search, active,
// withScore=true.
func GetClients(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	query := config.DB.Where("salon_id = ?", salonID)
	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		like := "%" + search + "%"
		query = query.Where("(LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?)", like, like, like)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("is_active = ?", active == "true")
	}

	var clients []models.Client
	if err := query.Order("name").Find(&clients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
		filtered := clients[:0]
		for _, cl := range clients {
			if cl.HasTag(tag) {
				filtered = append(filtered, cl)
			}
		}
		clients = filtered
	}

	views := make([]clientView, len(clients))
	for i := range clients {
		views[i] = clientView{Client: clients[i]}
	}

	if c.Query("withScore") == "true" && len(clients) > 0 {
		results, err := scoreClients(salonID, clients, time.Now().In(Location))
		if err != nil {
			respondDBError(c, err, "")
			return
		}
		for i := range views {
			r := results[clients[i].CustomerUUID]
			views[i].Score = &ScoreSummary{Score: r.Score, ReturnProbability: r.ReturnProbability, Level: r.Level}
		}
	}

	c.JSON(http.StatusOK, views)
}

// GetClient returns one client with a signed photo URL when one is stored.
func GetClient(c *gin.Context) {
	client, ok := loadClient(c)
	if !ok {
		return
	}

	view := clientView{Client: client}
	if Photos != nil && client.PhotoObject != "" {
		if url, err := Photos.URL(client.PhotoObject); err == nil {
			view.PhotoURL = url
		}
	}
	c.JSON(http.StatusOK, view)
}

// UpdateClient applies a partial update to a client.
func UpdateClient(c *gin.Context) {
	client, ok := loadClient(c)
	if !ok {
		return
	}

	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Name != nil {
		client.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil && *input.Phone != client.Phone {
		if taken, err := phoneTaken(client.SalonID, *input.Phone, client.ID); err != nil {
			respondDBError(c, err, "")
			return
		} else if taken {
			utils.RespondWithError(c, http.StatusConflict, "Another client with this phone number already exists")
			return
		}
		client.Phone = *input.Phone
	}
	if input.Email != nil {
		client.Email = *input.Email
	}
	if input.Tags != nil {
		client.Tags = normalizeTags(*input.Tags)
	}
	if input.Birthday != nil {
		client.Birthday = input.Birthday
	}
	if input.Anniversary != nil {
		client.Anniversary = input.Anniversary
	}
	if input.Notes != nil {
		client.Notes = *input.Notes
	}
	if input.Coupon != nil {
		client.Coupon = blankToNil(input.Coupon)
	}
	if input.IsActive != nil {
		client.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient soft deletes a client. Their orders stay for reporting.
func DeleteClient(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	clientID, ok := utils.ParamUUID(c, "id", "client")
	if !ok {
		return
	}

	result := config.DB.Where("salon_id = ? AND id = ?", salonID, clientID).Delete(&models.Client{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete client")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

// GetClientScore returns the full score card for one client.
func GetClientScore(c *gin.Context) {
	client, ok := loadClient(c)
	if !ok {
		return
	}

	var orders []models.Order
	if err := config.DB.Where("salon_id = ? AND customer_uuid = ?", client.SalonID, client.CustomerUUID).
		Order("start_at").Find(&orders).Error; err != nil {
		respondDBError(c, err, "")
		return
	}

	result := scoring.Evaluate(orders, &client, time.Now().In(Location))
	c.JSON(http.StatusOK, gin.H{
		"clientId": client.ID,
		"name":     client.Name,
		"result":   result,
	})
}

// UploadClientPhoto stores the multipart "photo" file and links it to the client.
func UploadClientPhoto(c *gin.Context) {
	if Photos == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Photo storage is not configured")
		return
	}
	client, ok := loadClient(c)
	if !ok {
		return
	}

	header, err := c.FormFile("photo")
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Photo file is required")
		return
	}
	if header.Size > maxPhotoBytes {
		utils.RespondWithError(c, http.StatusRequestEntityTooLarge, "Photo exceeds 5 MB")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		utils.RespondWithError(c, http.StatusBadRequest, "Photo must be an image")
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Unreadable photo")
		return
	}
	defer file.Close()

	key := services.PhotoKey(client.SalonID, client.ID, filepath.Ext(header.Filename))
	if err := Photos.Upload(c.Request.Context(), key, contentType, file); err != nil {
		Log.Error("photo upload failed", "clientID", client.ID, "error", err)
		utils.RespondWithError(c, http.StatusBadGateway, "Failed to store photo")
		return
	}

	if old := client.PhotoObject; old != "" && old != key {
		if err := Photos.Delete(c.Request.Context(), old); err != nil {
			Log.Warn("removing previous photo failed", "key", old, "error", err)
		}
	}
	if err := config.DB.Model(&client).Update("photo_object", key).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	url, _ := Photos.URL(key)
	c.JSON(http.StatusOK, gin.H{"photoUrl": url})
}

func loadClient(c *gin.Context) (models.Client, bool) {
	var client models.Client
	salonID, ok := utils.SalonID(c)
	if !ok {
		return client, false
	}
	clientID, ok := utils.ParamUUID(c, "id", "client")
	if !ok {
		return client, false
	}
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, clientID).First(&client).Error; err != nil {
		respondDBError(c, err, "Client not found")
		return client, false
	}
	return client, true
}

func phoneTaken(salonID uuid.UUID, phone string, except uuid.UUID) (bool, error) {
	var existing models.Client
	err := config.DB.Where("salon_id = ? AND phone = ? AND id <> ?", salonID, phone, except).First(&existing).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return false, err
}

// scoreClients evaluates every client against their orders, loaded in one query.
func scoreClients(salonID uuid.UUID, clients []models.Client, now time.Time) (map[uuid.UUID]scoring.Result, error) {
	ids := make([]uuid.UUID, len(clients))
	for i, cl := range clients {
		ids[i] = cl.CustomerUUID
	}

	var orders []models.Order
	if err := config.DB.Where("salon_id = ? AND customer_uuid IN ?", salonID, ids).
		Order("start_at").Find(&orders).Error; err != nil {
		return nil, err
	}

	byClient := make(map[uuid.UUID][]models.Order, len(clients))
	for _, o := range orders {
		byClient[o.CustomerUUID] = append(byClient[o.CustomerUUID], o)
	}

	results := make(map[uuid.UUID]scoring.Result, len(clients))
	for i := range clients {
		cl := &clients[i]
		results[cl.CustomerUUID] = scoring.Evaluate(byClient[cl.CustomerUUID], cl, now)
	}
	return results, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
