package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"salonpro-crm/logger"
	"salonpro-crm/models"
	"salonpro-crm/realtime"
	"salonpro-crm/services"
	"salonpro-crm/utils"
)

// Collaborators wired once at startup. Nil values disable the feature that needs them.
var (
	Realtime  *realtime.Adapter
	Photos    services.PhotoStore
	Mailer    services.Mailer
	Reminders *services.ReminderService
	Location  = time.UTC
	Log       = logger.Nop()
)

type Dependencies struct {
	Realtime  *realtime.Adapter
	Photos    services.PhotoStore
	Mailer    services.Mailer
	Reminders *services.ReminderService
	Location  *time.Location
	Logger    *logger.Logger
}

func Configure(d Dependencies) {
	Realtime = d.Realtime
	Photos = d.Photos
	Mailer = d.Mailer
	Reminders = d.Reminders
	if d.Location != nil {
		Location = d.Location
	}
	if d.Logger != nil {
		Log = d.Logger.With("component", "controllers")
	}
}

// publishOrder announces a committed order write. Failures are logged; the
// write itself already succeeded.
func publishOrder(ctx context.Context, typ realtime.EventType, old, new *models.Order) {
	if Realtime == nil {
		return
	}
	if err := Realtime.PublishOrder(ctx, typ, old, new); err != nil {
		Log.Warn("publish order change failed", "type", typ, "error", err)
	}
}

// respondDBError maps gorm errors to HTTP answers.
func respondDBError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusNotFound, notFound)
		return
	}
	Log.Error("database error", "path", c.FullPath(), "error", err)
	utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
}
