package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskDone       = "done"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SalonID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"salonId"`
	CreatedByID uuid.UUID  `gorm:"type:uuid" json:"createdById"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index" json:"assigneeId"`
	ClientID    *uuid.UUID `gorm:"type:uuid;index" json:"clientId"`

	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Priority    string     `gorm:"type:varchar(10);default:'medium'" json:"priority"`
	Status      string     `gorm:"type:varchar(20);index;default:'todo'" json:"status"`
	CompletedAt *time.Time `json:"completedAt"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	return
}

// SetStatus moves the task and keeps CompletedAt in step with the done state.
func (t *Task) SetStatus(status string, now time.Time) {
	t.Status = status
	if status == TaskDone {
		if t.CompletedAt == nil {
			t.CompletedAt = &now
		}
		return
	}
	t.CompletedAt = nil
}
