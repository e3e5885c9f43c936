package details

import (
	"time"

	CobranzaRoute "colegio_backend/internals/features/finance/cobranzas/route"
	ComprobanteRoute "colegio_backend/internals/features/finance/comprobantes/route"
	compService "colegio_backend/internals/features/finance/comprobantes/service"
	ConceptoRoute "colegio_backend/internals/features/finance/conceptos/route"
	CronogramaRoute "colegio_backend/internals/features/finance/cronogramas/route"
	PasarelaRoute "colegio_backend/internals/features/finance/pasarela/route"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Finance bundles what every finance route needs besides the router.
type Finance struct {
	DB       *gorm.DB
	Loc      *time.Location
	Notifier compService.Notifier
}

// /api/public
func FinancePublicRoutes(r fiber.Router, f Finance) {
	PasarelaRoute.PasarelaPublicRoutes(r, f.DB, f.Loc, f.Notifier)
}

// /api/u/:school_id
func FinanceUserRoutes(r fiber.Router, f Finance) {
	ConceptoRoute.ConceptoUserRoutes(r, f.DB)
	CronogramaRoute.CronogramaUserRoutes(r, f.DB, f.Loc)
	ComprobanteRoute.ComprobanteUserRoutes(r, f.DB, f.Loc, f.Notifier)
	PasarelaRoute.PasarelaUserRoutes(r, f.DB, f.Loc, f.Notifier)
}

// /api/a/:school_id
func FinanceAdminRoutes(r fiber.Router, f Finance) {
	ConceptoRoute.ConceptoAdminRoutes(r, f.DB)
	CronogramaRoute.CronogramaAdminRoutes(r, f.DB, f.Loc)
	ComprobanteRoute.ComprobanteAdminRoutes(r, f.DB, f.Loc, f.Notifier)
	CobranzaRoute.CobranzaAdminRoutes(r, f.DB, f.Loc)
}
