package routes

import (
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"colegio_backend/internals/configs"
	compService "colegio_backend/internals/features/finance/comprobantes/service"
	"colegio_backend/internals/helpers/mailer"
	"colegio_backend/internals/helpers/storage"
	schoolMiddleware "colegio_backend/internals/middlewares/auth_school"
	routeDetails "colegio_backend/internals/route/details"
)

var startTime time.Time

// NewStorage builds the upload backend from the environment.
func NewStorage() storage.Storage {
	return storage.New(storage.Config{
		OSSEndpoint:   configs.GetEnv("ALI_OSS_ENDPOINT"),
		OSSAccessKey:  configs.GetEnv("ALI_OSS_ACCESS_KEY"),
		OSSSecretKey:  configs.GetEnv("ALI_OSS_SECRET_KEY"),
		OSSToken:      configs.GetEnv("ALI_OSS_SECURITY_TOKEN"),
		OSSBucket:     configs.GetEnv("ALI_OSS_BUCKET"),
		OSSPublicBase: configs.GetEnv("ALI_OSS_PUBLIC_BASE"),
		LocalDir:      configs.GetEnv("UPLOAD_DIR"),
		LocalBaseURL:  strings.TrimRight(configs.GetEnv("PUBLIC_BASE_URL"), "/") + "/uploads",
	})
}

func SetupRoutes(app *fiber.App, db *gorm.DB, st storage.Storage) {
	startTime = time.Now()
	BaseRoutes(app, db)

	loc := configs.SchoolLocation()
	appName := configs.GetEnv("APP_NAME")
	fin := routeDetails.Finance{
		DB:  db,
		Loc: loc,
		Notifier: compService.MailNotifier{
			DB: db,
			Mailer: mailer.New(
				configs.GetEnv("SENDGRID_API_KEY"),
				mail.Address{Name: appName, Address: configs.GetEnv("MAIL_FROM")},
				appName,
			),
		},
	}

	protected := schoolMiddleware.AuthJWT(schoolMiddleware.AuthJWTOpts{
		Secret:              configs.JWTSecret,
		BlacklistChecker:    schoolMiddleware.BlacklistFromDB(db, configs.JWTSecret),
		AllowCookieFallback: true,
	})

	// ===================== AUTH =====================
	log.Println("[INFO] Setting up AuthRoutes...")
	routeDetails.AuthRoutes(app, db, protected)

	// ===================== GROUPS =====================
	public := app.Group("/api/public")
	userLoose := app.Group("/api/u", protected)
	admin := app.Group("/api/a/:school_id", protected, schoolMiddleware.RequireSchoolStaff())

	// ===================== MOUNT ROUTES =====================
	log.Println("[INFO] Mounting Documento routes...")
	routeDetails.DocumentoPublicRoutes(public, db)

	// Mounted before the /:school_id group so "uploads" never reaches the school guard.
	log.Println("[INFO] Mounting Upload routes...")
	routeDetails.UploadUserRoutes(userLoose, st, configs.GetInt64("UPLOAD_MAX_BYTES"))
	if st.Name() == "local" {
		app.Static("/uploads", configs.GetEnv("UPLOAD_DIR"), fiber.Static{MaxAge: 3600})
	}

	user := userLoose.Group("/:school_id", schoolMiddleware.RequireSchoolMember())

	log.Println("[INFO] Mounting Finance routes...")
	routeDetails.FinancePublicRoutes(public, fin)
	routeDetails.FinanceUserRoutes(user, fin)
	routeDetails.FinanceAdminRoutes(admin, fin)
}
