package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

const maxChatBody = 2000

type PostMessageInput struct {
	Body string `json:"body" binding:"required"`
}

// GetMessages returns recent team chat messages, oldest first. ?before=<RFC3339>
// pages backwards; ?limit= defaults to 50.
func GetMessages(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			utils.RespondWithError(c, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	query := config.DB.Where("salon_id = ?", salonID)
	if raw := c.Query("before"); raw != "" {
		before, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "before must be an RFC3339 time")
			return
		}
		query = query.Where("created_at < ?", before.UTC())
	}

	var messages []models.ChatMessage
	if err := query.Order("created_at DESC").Limit(limit).Find(&messages).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve messages")
		return
	}

	// newest were fetched first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	if err := attachSenderNames(salonID, messages); err != nil {
		respondDBError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, messages)
}

// PostMessage stores a chat message and pushes it to the salon's chat stream.
func PostMessage(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	userID, ok := utils.UserID(c)
	if !ok {
		return
	}

	var input PostMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	body := strings.TrimSpace(input.Body)
	if body == "" || len(body) > maxChatBody {
		utils.RespondWithError(c, http.StatusBadRequest, "Message must be between 1 and 2000 characters")
		return
	}

	msg := models.ChatMessage{
		SalonID:   salonID,
		SenderID:  userID,
		Body:      body,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := config.DB.Create(&msg).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to send message")
		return
	}

	var sender models.User
	if err := config.DB.Select("name").First(&sender, "id = ?", userID).Error; err == nil {
		msg.SenderName = sender.Name
	}

	if Realtime != nil {
		if err := Realtime.PublishChat(c.Request.Context(), &msg); err != nil {
			Log.Warn("publish chat message failed", "messageID", msg.ID, "error", err)
		}
	}

	c.JSON(http.StatusCreated, msg)
}

func attachSenderNames(salonID uuid.UUID, messages []models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	var users []models.User
	if err := config.DB.Unscoped().Select("id", "name").Where("salon_id = ?", salonID).Find(&users).Error; err != nil {
		return err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	for i := range messages {
		messages[i].SenderName = names[messages[i].SenderID]
	}
	return nil
}
