package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

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

func main() {
	settings := config.Load()

	log, err := logger.New(settings.Mode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	logger.SetDefault(log)
	if !settings.EnvFile {
		log.Info("no .env file found, using process environment")
	}

	if settings.Mode == "prod" || settings.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if settings.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	utils.RegisterValidators()

	if err := config.ConnectDB(settings.DatabaseURL); err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	if err := models.AutoMigrate(config.DB); err != nil {
		log.Fatal("auto migration failed", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := settings.Location()
	adapter, err := newRealtime(ctx, settings, log, rec)
	if err != nil {
		log.Fatal("realtime setup failed", "error", err)
	}
	defer adapter.Close()

	deps := controllers.Dependencies{Realtime: adapter, Location: loc, Logger: log}

	if sender, err := services.NewTwilioSender(services.TwilioConfig{
		AccountSID:     settings.TwilioAccountSID,
		AuthToken:      settings.TwilioAuthToken,
		PhoneNumber:    settings.TwilioPhoneNumber,
		WhatsAppNumber: settings.TwilioWhatsAppNumber,
	}); err != nil {
		log.Warn("reminders disabled", "reason", err)
	} else {
		reminders := services.NewReminderService(config.DB, sender, settings.ReminderSchedule, loc, log)
		if err := reminders.StartScheduler(); err != nil {
			log.Fatal("reminder scheduler failed", "error", err)
		}
		defer reminders.Stop()
		deps.Reminders = reminders
	}

	if settings.SendGridAPIKey != "" {
		mailer, err := services.NewSendGridMailer(settings.SendGridAPIKey, settings.MailFromName, settings.MailFrom, log)
		if err != nil {
			log.Fatal("mailer setup failed", "error", err)
		}
		deps.Mailer = mailer
	}

	if settings.StorageBucket != "" {
		photos, err := services.NewGCSPhotoStore(ctx, settings.StorageBucket, settings.PhotoURLTTL, log)
		if err != nil {
			log.Fatal("photo storage setup failed", "error", err)
		}
		deps.Photos = photos
	}

	controllers.Configure(deps)

	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           routes.SetupRouter(settings, log, rec, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// newRealtime uses Redis pub/sub when REDIS_ADDR is set so several instances
// share one change feed; otherwise events stay in process.
func newRealtime(ctx context.Context, settings *config.Settings, log *logger.Logger, rec metrics.Recorder) (*realtime.Adapter, error) {
	var bus realtime.Bus = realtime.NewLocalBus()
	if settings.RedisAddr != "" {
		rb, err := realtime.NewRedisBus(realtime.RedisOptions{
			Addr:     settings.RedisAddr,
			Password: settings.RedisPass,
			DB:       settings.RedisDB,
			Channel:  settings.RedisTopic,
		}, log)
		if err != nil {
			return nil, err
		}
		bus = rb
	}

	adapter := realtime.NewAdapter(realtime.Options{
		Bus:         bus,
		BatchWindow: settings.BatchWindow,
		Loader:      loadSalonOrders,
		Logger:      log,
		Metrics:     rec,
	})
	if err := adapter.Start(ctx); err != nil {
		return nil, err
	}
	return adapter, nil
}

func loadSalonOrders(ctx context.Context, salonID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := config.DB.WithContext(ctx).
		Where("salon_id = ? AND status <> ?", salonID, models.OrderDeleted).
		Order("start_at").Find(&orders).Error
	return orders, err
}
