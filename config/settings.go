package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Settings struct {
	Port           string
	Mode           string
	DatabaseURL    string
	JWTSecret      string
	JWTExpiryHours int
	Timezone       string
	AllowedOrigins []string

	BatchWindow time.Duration
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	RedisTopic  string

	TwilioAccountSID     string
	TwilioAuthToken      string
	TwilioPhoneNumber    string
	TwilioWhatsAppNumber string
	ReminderSchedule     string

	SendGridAPIKey string
	MailFrom       string
	MailFromName   string

	StorageBucket string
	PhotoURLTTL   time.Duration

	// EnvFile reports whether a .env file was read.
	EnvFile bool
}

// Load reads .env (if present) and then the process environment.
func Load() *Settings {
	envFile := godotenv.Load() == nil

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_MODE", "development")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("TZ_NAME", "Europe/Rome")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REALTIME_BATCH_WINDOW", 100*time.Millisecond)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CHANNEL", "orders-feed")
	v.SetDefault("REMINDER_SCHEDULE", "0 9 * * *")
	v.SetDefault("MAIL_FROM_NAME", "SalonPro")
	v.SetDefault("PHOTO_URL_TTL", 15*time.Minute)
	v.AutomaticEnv()

	return &Settings{
		EnvFile:        envFile,
		Port:           v.GetString("PORT"),
		Mode:           v.GetString("APP_MODE"),
		DatabaseURL:    v.GetString("DB_URL"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		JWTExpiryHours: v.GetInt("JWT_EXPIRY_HOURS"),
		Timezone:       v.GetString("TZ_NAME"),
		AllowedOrigins: splitList(v.GetString("CORS_ORIGINS")),

		BatchWindow: v.GetDuration("REALTIME_BATCH_WINDOW"),
		RedisAddr:   v.GetString("REDIS_ADDR"),
		RedisPass:   v.GetString("REDIS_PASSWORD"),
		RedisDB:     v.GetInt("REDIS_DB"),
		RedisTopic:  v.GetString("REDIS_CHANNEL"),

		TwilioAccountSID:     v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:      v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber:    v.GetString("TWILIO_PHONE_NUMBER"),
		TwilioWhatsAppNumber: v.GetString("TWILIO_WHATSAPP_NUMBER"),
		ReminderSchedule:     v.GetString("REMINDER_SCHEDULE"),

		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		MailFrom:       v.GetString("MAIL_FROM"),
		MailFromName:   v.GetString("MAIL_FROM_NAME"),

		StorageBucket: v.GetString("GCS_BUCKET"),
		PhotoURLTTL:   v.GetDuration("PHOTO_URL_TTL"),
	}
}

// Location resolves the configured timezone, falling back to UTC.
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
