package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"salonpro-crm/config"
	"salonpro-crm/controllers"
	"salonpro-crm/logger"
	"salonpro-crm/metrics"
	"salonpro-crm/models"
	"salonpro-crm/realtime"
	"salonpro-crm/routes"
	"salonpro-crm/services"
	"salonpro-crm/utils"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []services.Email
}

func (f *fakeMailer) Send(ctx context.Context, msg services.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

type fakePhotos struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakePhotos) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = raw
	return nil
}

func (f *fakePhotos) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakePhotos) URL(key string) (string, error) {
	return "https://storage.example.com/" + key + "?signed", nil
}

type testEnv struct {
	t      *testing.T
	router *gin.Engine
	rt     *realtime.Adapter
	mailer *fakeMailer
	photos *fakePhotos
}

type session struct {
	token   string
	userID  uuid.UUID
	salonID uuid.UUID
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")
	utils.SetBcryptCost(bcrypt.MinCost)
	utils.RegisterValidators()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  gormlogger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))
	config.DB = db

	rt := realtime.NewAdapter(realtime.Options{
		BatchWindow: 10 * time.Millisecond,
		Loader: func(ctx context.Context, salonID uuid.UUID) ([]models.Order, error) {
			var orders []models.Order
			err := config.DB.WithContext(ctx).Where("salon_id = ?", salonID).Find(&orders).Error
			return orders, err
		},
	})
	require.NoError(t, rt.Start(context.Background()))
	t.Cleanup(func() { _ = rt.Close() })

	env := &testEnv{
		t:      t,
		rt:     rt,
		mailer: &fakeMailer{},
		photos: &fakePhotos{objects: map[string][]byte{}},
	}
	controllers.Configure(controllers.Dependencies{
		Realtime: rt,
		Photos:   env.photos,
		Mailer:   env.mailer,
		Location: time.UTC,
		Logger:   logger.Nop(),
	})

	settings := &config.Settings{AllowedOrigins: []string{"http://localhost:3000"}}
	env.router = routes.SetupRouter(settings, logger.Nop(), metrics.Nop(), nil)
	return env
}

func (e *testEnv) do(method, path, token string, body any) *httptest.ResponseRecorder {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) register(salonName, email, phone string) session {
	e.t.Helper()
	w := e.do(http.MethodPost, "/auth/register", "", gin.H{
		"email":     email,
		"phone":     phone,
		"name":      "Owner of " + salonName,
		"password":  "s3cret-pass",
		"salonName": salonName,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return e.sessionFrom(w)
}

func (e *testEnv) sessionFrom(w *httptest.ResponseRecorder) session {
	e.t.Helper()
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID      uuid.UUID `json:"id"`
			SalonID uuid.UUID `json:"salonId"`
		} `json:"user"`
	}
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(e.t, resp.Token)
	return session{token: resp.Token, userID: resp.User.ID, salonID: resp.User.SalonID}
}

func (e *testEnv) createClient(s session, name, phone string, tags ...string) models.Client {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/clients", s.token, gin.H{"name": name, "phone": phone, "tags": tags})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Client](e.t, w)
}

func (e *testEnv) createService(s session, name string, price float64, minutes int) models.Service {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/services", s.token, gin.H{"name": name, "price": price, "duration": minutes})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Service](e.t, w)
}

func (e *testEnv) book(s session, client models.Client, start time.Time, serviceIDs ...uuid.UUID) models.Order {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/appointments", s.token, gin.H{
		"clientId":   client.ID,
		"startAt":    start,
		"serviceIds": serviceIDs,
	})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Order](e.t, w)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
