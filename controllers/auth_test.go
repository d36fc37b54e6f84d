package controllers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"salonpro-crm/config"
	"salonpro-crm/models"
)

func TestRegisterCreatesSalonOwnerAndDefaults(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")

	var salon models.Salon
	require.NoError(t, config.DB.First(&salon, "id = ?", s.salonID).Error)
	assert.Equal(t, "Glow Studio", salon.Name)
	assert.NotEmpty(t, salon.WorkingHours)

	var owner models.User
	require.NoError(t, config.DB.First(&owner, "id = ?", s.userID).Error)
	assert.Equal(t, models.RoleOwner, owner.Role)
	assert.NotEqual(t, "s3cret-pass", owner.Password)

	var templates []models.ReminderTemplate
	require.NoError(t, config.DB.Where("salon_id = ?", s.salonID).Find(&templates).Error)
	assert.Len(t, templates, 3)

	var web models.WebConfig
	require.NoError(t, config.DB.Where("salon_id = ?", s.salonID).First(&web).Error)
	assert.Contains(t, web.Slug, "glow-studio-")
	assert.False(t, web.Enabled)
}

func TestRegisterRejectsDuplicateEmailOrPhone(t *testing.T) {
	env := newEnv(t)
	env.register("Glow Studio", "owner@glow.test", "+391234567890")

	w := env.do(http.MethodPost, "/auth/register", "", gin.H{
		"email": "other@glow.test", "phone": "+391234567890", "name": "Other",
		"password": "s3cret-pass", "salonName": "Other Salon",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidatesInput(t *testing.T) {
	env := newEnv(t)
	w := env.do(http.MethodPost, "/auth/register", "", gin.H{
		"email": "not-an-email", "phone": "abc", "name": "X", "password": "short", "salonName": "S",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginByEmailOrPhone(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")

	for _, id := range []string{"owner@glow.test", "+391234567890"} {
		w := env.do(http.MethodPost, "/auth/login", "", gin.H{"identifier": id, "password": "s3cret-pass"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := env.sessionFrom(w)
		assert.Equal(t, s.userID, got.userID)
		assert.Equal(t, s.salonID, got.salonID)
	}

	w := env.do(http.MethodPost, "/auth/login", "", gin.H{"identifier": "owner@glow.test", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var owner models.User
	require.NoError(t, config.DB.First(&owner, "id = ?", s.userID).Error)
	assert.NotNil(t, owner.LastLogin)
}

func TestMeRequiresToken(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/auth/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/auth/me", "garbage", nil).Code)

	w := env.do(http.MethodGet, "/auth/me", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		User struct {
			SalonName string `json:"salonName"`
			Role      string `json:"role"`
		} `json:"user"`
	}](t, w)
	assert.Equal(t, "Glow Studio", resp.User.SalonName)
	assert.Equal(t, models.RoleOwner, resp.User.Role)
}

func TestEmployeesAreManagedByOwnerOnly(t *testing.T) {
	env := newEnv(t)
	owner := env.register("Glow Studio", "owner@glow.test", "+391234567890")

	w := env.do(http.MethodPost, "/api/employees", owner.token, gin.H{
		"name": "Giulia", "email": "giulia@glow.test", "password": "s3cret-pass", "color": "#ff8800",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	employee := decode[models.User](t, w)
	assert.Equal(t, models.RoleEmployee, employee.Role)
	assert.Equal(t, owner.salonID, employee.SalonID)

	w = env.do(http.MethodPost, "/auth/login", "", gin.H{"identifier": "giulia@glow.test", "password": "s3cret-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	staff := env.sessionFrom(w)

	w = env.do(http.MethodPost, "/api/employees", staff.token, gin.H{
		"name": "Marco", "email": "marco@glow.test", "password": "s3cret-pass",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(http.MethodGet, "/api/employees", staff.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.User](t, w), 2)

	w = env.do(http.MethodDelete, "/api/employees/"+owner.userID.String(), owner.token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, "/api/employees/"+employee.ID.String(), owner.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodPost, "/auth/login", "", gin.H{"identifier": "giulia@glow.test", "password": "s3cret-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileAndWebConfig(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")

	w := env.do(http.MethodPut, "/api/profile", s.token, gin.H{"salonName": "Glow Studio Milano", "salonAddress": "Via Roma 1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPut, "/api/profile/notifications", s.token, gin.H{"smsNotifications": true, "appointmentReminders": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/api/profile", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[map[string]any](t, w)
	assert.Equal(t, "Glow Studio Milano", profile["salonName"])
	assert.Equal(t, true, profile["smsNotifications"])
	assert.Equal(t, false, profile["appointmentReminders"])
	assert.Equal(t, true, profile["birthdayReminders"])

	w = env.do(http.MethodPut, "/api/profile/reminders", s.token, gin.H{"type": "appointment", "message": "See you tomorrow [ClientName]"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPut, "/api/profile/web", s.token, gin.H{"slug": "Glow Milano", "enabled": true, "accentColor": "#112233"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "glow-milano", decode[models.WebConfig](t, w).Slug)

	w = env.do(http.MethodPut, "/api/profile/web", s.token, gin.H{"slug": "Bellezza Città"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "bellezza-citta", decode[models.WebConfig](t, w).Slug)

	w = env.do(http.MethodPut, "/api/profile/web", s.token, gin.H{"accentColor": "red"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	require.NoError(t, config.DB.Callback().Query().Before("gorm:query").Register("test:fail_count", func(db *gorm.DB) {
		if _, ok := db.Statement.Dest.(*int64); ok {
			_ = db.AddError(errors.New("connection reset"))
		}
	}))
	w = env.do(http.MethodPut, "/api/profile/web", s.token, gin.H{"slug": "glow-roma"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRegisterTransliteratesSalonSlug(t *testing.T) {
	env := newEnv(t)
	s := env.register("Bellezza Città", "owner@bellezza.test", "+391234567890")

	var web models.WebConfig
	require.NoError(t, config.DB.First(&web, "salon_id = ?", s.salonID).Error)
	assert.Regexp(t, `^bellezza-citta-[a-z0-9]{4}$`, web.Slug)
}

func TestPublicSalonPages(t *testing.T) {
	env := newEnv(t)
	s := env.register("Glow Studio", "owner@glow.test", "+391234567890")
	env.register("Hidden Salon", "owner@hidden.test", "+391234567891")
	env.createService(s, "Cut", 30, 45)

	w := env.do(http.MethodGet, "/public/salons", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]any](t, w))

	w = env.do(http.MethodPut, "/api/profile/web", s.token, gin.H{"slug": "glow", "enabled": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/public/salons", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]map[string]any](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Glow Studio", list[0]["name"])

	w = env.do(http.MethodGet, "/public/salons/glow", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[struct {
		Name     string           `json:"name"`
		Services []map[string]any `json:"services"`
	}](t, w)
	assert.Equal(t, "Glow Studio", page.Name)
	assert.Len(t, page.Services, 1)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/public/salons/nope", "", nil).Code)
}
