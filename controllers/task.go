package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"salonpro-crm/config"
	"salonpro-crm/models"
	"salonpro-crm/utils"
)

type CreateTaskInput struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
	ClientID    *uuid.UUID `json:"clientId"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high"`
}

type UpdateTaskInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	AssigneeID  *uuid.UUID `json:"assigneeId"`
	ClientID    *uuid.UUID `json:"clientId"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    *string    `json:"priority" binding:"omitempty,oneof=low medium high"`
	Status      *string    `json:"status" binding:"omitempty,oneof=todo in_progress done"`
}

// CreateTask creates a task.
func CreateTask(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	userID, ok := utils.UserID(c)
	if !ok {
		return
	}

	var input CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !taskReferencesValid(c, salonID, input.AssigneeID, input.ClientID) {
		return
	}

	task := models.Task{
		SalonID:     salonID,
		CreatedByID: userID,
		AssigneeID:  input.AssigneeID,
		ClientID:    input.ClientID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
	}
	if err := config.DB.Create(&task).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create task")
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTasks lists tasks by due date. Optional query: status, assignee (a UUID or "me").
func GetTasks(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}

	query := config.DB.Where("salon_id = ?", salonID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if raw := c.Query("assignee"); raw != "" {
		var assignee uuid.UUID
		if raw == "me" {
			if assignee, ok = utils.UserID(c); !ok {
				return
			}
		} else {
			id, err := uuid.Parse(raw)
			if err != nil {
				utils.RespondWithError(c, http.StatusBadRequest, "Invalid assignee ID format")
				return
			}
			assignee = id
		}
		query = query.Where("assignee_id = ?", assignee)
	}

	var tasks []models.Task
	if err := query.Order("due_date IS NULL, due_date, created_at").Find(&tasks).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve tasks")
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// UpdateTask edits a task.
func UpdateTask(c *gin.Context) {
	task, ok := loadTask(c)
	if !ok {
		return
	}

	var input UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !taskReferencesValid(c, task.SalonID, input.AssigneeID, input.ClientID) {
		return
	}

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.AssigneeID != nil {
		task.AssigneeID = input.AssigneeID
	}
	if input.ClientID != nil {
		task.ClientID = input.ClientID
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		task.SetStatus(*input.Status, time.Now().UTC())
	}

	if err := config.DB.Save(&task).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// CompleteTask toggles a task between done and todo.
func CompleteTask(c *gin.Context) {
	task, ok := loadTask(c)
	if !ok {
		return
	}

	if task.Status == models.TaskDone {
		task.SetStatus(models.TaskTodo, time.Now().UTC())
	} else {
		task.SetStatus(models.TaskDone, time.Now().UTC())
	}

	if err := config.DB.Model(&task).Select("status", "completed_at").Updates(&task).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update task")
		return
	}

	c.JSON(http.StatusOK, task)
}

// DeleteTask deletes a task.
func DeleteTask(c *gin.Context) {
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	taskID, ok := utils.ParamUUID(c, "id", "task")
	if !ok {
		return
	}

	result := config.DB.Where("salon_id = ? AND id = ?", salonID, taskID).Delete(&models.Task{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete task")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Task not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func loadTask(c *gin.Context) (models.Task, bool) {
	var task models.Task
	salonID, ok := utils.SalonID(c)
	if !ok {
		return task, false
	}
	taskID, ok := utils.ParamUUID(c, "id", "task")
	if !ok {
		return task, false
	}
	if err := config.DB.Where("salon_id = ? AND id = ?", salonID, taskID).First(&task).Error; err != nil {
		respondDBError(c, err, "Task not found")
		return task, false
	}
	return task, true
}

func taskReferencesValid(c *gin.Context, salonID uuid.UUID, assigneeID, clientID *uuid.UUID) bool {
	if assigneeID != nil {
		if err := requireTeamMember(salonID, *assigneeID); err != nil {
			respondLookupError(c, err)
			return false
		}
	}
	if clientID != nil {
		if err := requireClient(config.DB, salonID, *clientID); err != nil {
			respondLookupError(c, err)
			return false
		}
	}
	return true
}
