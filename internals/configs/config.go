package configs

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	JWTSecret      string
	GoogleClientID string

	// Conf holds every setting; env vars override the defaults below.
	Conf *viper.Viper
)

func init() {
	Conf = viper.New()
	setDefaults(Conf)
	Conf.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("APP_NAME", "Colegio")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_STATEMENT_TIMEOUT_MS", 3000)
	v.SetDefault("APP_TIMEZONE", "America/Lima")
	v.SetDefault("MORA_CRON", "10 0 * * *")
	v.SetDefault("JWT_ACCESS_TTL", 24*time.Hour)
	v.SetDefault("UPLOAD_DIR", "./public/uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 4<<20)
	v.SetDefault("UPLOAD_REAPER_CRON", "30 2 * * *")
	v.SetDefault("UPLOAD_RETENTION", 72*time.Hour)
	v.SetDefault("UPLOAD_REAPER_DRY_RUN", false)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("MIDTRANS_USE_PROD", false)
	v.SetDefault("MIDTRANS_CURRENCY", "IDR")
	v.SetDefault("MAIL_FROM", "cobranzas@localhost")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("RUN_SEEDS", false)
	v.SetDefault("SEED_DIR", "internals/seeds")
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[WARN] .env not found, using system environment")
		} else {
			log.Println("[INFO] .env loaded")
		}
	} else {
		log.Println("[INFO] running on Railway, using system environment")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	GoogleClientID = GetEnv("GOOGLE_CLIENT_ID")

	if JWTSecret == "" {
		log.Println("[ERROR] JWT_SECRET is not set")
	}
	if GoogleClientID == "" {
		log.Println("[WARN] GOOGLE_CLIENT_ID is not set, Google login disabled")
	}
}

// GetEnv returns the configured value for key, falling back to defaultValue
// (or the registered default) when the variable is absent.
func GetEnv(key string, defaultValue ...string) string {
	if _, exists := os.LookupEnv(key); !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(Conf.GetString(key))
}

func GetBool(key string) bool              { return Conf.GetBool(key) }
func GetInt64(key string) int64            { return Conf.GetInt64(key) }
func GetDuration(key string) time.Duration { return Conf.GetDuration(key) }

func IsProduction() bool {
	return strings.EqualFold(GetEnv("APP_ENV"), "production")
}

// SchoolLocation is the timezone used to turn instants into civil dates
// (due dates, "today" for overdue checks, the accrual cron).
func SchoolLocation() *time.Location {
	if loc, err := time.LoadLocation(GetEnv("APP_TIMEZONE")); err == nil {
		return loc
	}
	log.Printf("[WARN] invalid APP_TIMEZONE %q, falling back to UTC", GetEnv("APP_TIMEZONE"))
	return time.UTC
}
