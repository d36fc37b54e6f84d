package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SalonID reads the authenticated salon from the request context. On failure it
// has already written the error response.
func SalonID(c *gin.Context) (uuid.UUID, bool) {
	return contextUUID(c, "salonId", "Salon ID not found in context", "Invalid salon ID format")
}

// UserID reads the authenticated user from the request context.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	return contextUUID(c, "userId", "User ID not found in context", "Invalid user ID format")
}

// ParamUUID parses a path parameter, answering 400 when it is malformed.
func ParamUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

func contextUUID(c *gin.Context, key, missing, invalid string) (uuid.UUID, bool) {
	raw, exists := c.Get(key)
	if !exists {
		RespondWithError(c, http.StatusUnauthorized, missing)
		return uuid.Nil, false
	}
	s, _ := raw.(string)
	id, err := uuid.Parse(s)
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, invalid)
		return uuid.Nil, false
	}
	return id, true
}
