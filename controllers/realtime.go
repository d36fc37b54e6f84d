package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salonpro-crm/realtime"
	"salonpro-crm/utils"
)

// StreamChanges opens the salon's SSE stream. The first event is a snapshot
// of the current orders; deltas and chat messages follow.
func StreamChanges(c *gin.Context) {
	if Realtime == nil {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Realtime updates are not available")
		return
	}
	salonID, ok := utils.SalonID(c)
	if !ok {
		return
	}
	userID, ok := utils.UserID(c)
	if !ok {
		return
	}

	state, err := Realtime.State(c.Request.Context(), salonID)
	if err != nil {
		Log.Error("loading realtime state failed", "salonID", salonID, "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to load appointments")
		return
	}

	hub := Realtime.Hub()
	client := hub.NewClient(userID)
	ordersChannel := realtime.OrdersChannel(salonID)
	hub.AddChannel(client, ordersChannel)
	if c.Query("chat") != "false" {
		hub.AddChannel(client, realtime.ChatChannel(salonID))
	}
	defer hub.CloseClient(client)

	hub.Send(client, realtime.Message{
		Channel: ordersChannel,
		Event:   realtime.StreamSnapshot,
		Data:    state.Snapshot(),
	})

	hub.Serve(c.Writer, c.Request, client)
}
