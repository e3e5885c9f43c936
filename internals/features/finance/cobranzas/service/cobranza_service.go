package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cronoService "colegio_backend/internals/features/finance/cronogramas/service"
	helper "colegio_backend/internals/helpers"
	"colegio_backend/internals/helpers/dbtime"
)

// Estadisticas are collection totals for one school, computed on every call
// from the ledger after late fees are brought up to date.
type Estadisticas struct {
	Pendiente decimal.Decimal `json:"pendiente"`
	Cobrado   decimal.Decimal `json:"cobrado"`
	Vencidos  int64           `json:"vencidos"`
	MoraTotal decimal.Decimal `json:"mora_total"`
	Entradas  int64           `json:"entradas"`
}

type EstadisticasConcepto struct {
	ConceptoID     uuid.UUID `json:"concepto_id"`
	ConceptoNombre string    `json:"concepto_nombre"`
	Estadisticas
}

type Service struct {
	DB     *gorm.DB
	Loc    *time.Location
	Now    func() time.Time
	Ledger *cronoService.Service
}

func New(db *gorm.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{DB: db, Loc: loc, Now: time.Now, Ledger: cronoService.New(db, loc)}
}

func (s *Service) Today() time.Time {
	return dbtime.CivilDate(s.Now(), s.Loc)
}

// Tenant scope goes through the student, not the denormalized school column
// of the ledger row.
const statsSelect = `
	COALESCE(SUM(CASE WHEN c.cronograma_pagado = ?
		THEN c.cronograma_monto + c.cronograma_mora_acumulada - c.cronograma_monto_pagado
		ELSE 0 END), 0) AS pendiente,
	COALESCE(SUM(c.cronograma_monto_pagado), 0) AS cobrado,
	COALESCE(SUM(CASE WHEN c.cronograma_pagado = ? AND c.cronograma_fecha_vencimiento < ?
		THEN 1 ELSE 0 END), 0) AS vencidos,
	COALESCE(SUM(c.cronograma_mora_acumulada), 0) AS mora_total,
	COUNT(*) AS entradas`

type statsRow struct {
	ConceptoID     uuid.UUID
	ConceptoNombre string
	Pendiente      decimal.Decimal
	Cobrado        decimal.Decimal
	Vencidos       int64
	MoraTotal      decimal.Decimal
	Entradas       int64
}

func (r statsRow) stats() Estadisticas {
	return Estadisticas{
		Pendiente: helper.Round2(r.Pendiente),
		Cobrado:   helper.Round2(r.Cobrado),
		Vencidos:  r.Vencidos,
		MoraTotal: helper.Round2(r.MoraTotal),
		Entradas:  r.Entradas,
	}
}

// accrue persists late fees owed as of the reference date. A future date is
// capped at today.
func (s *Service) accrue(ctx context.Context, schoolID uuid.UUID, asOf time.Time) error {
	if today := s.Today(); asOf.After(today) {
		asOf = today
	}
	_, err := s.Ledger.AccrueLateFees(ctx, &schoolID, asOf)
	return err
}

func (s *Service) base(ctx context.Context, schoolID uuid.UUID) *gorm.DB {
	return s.DB.WithContext(ctx).
		Table("cronograma_pagos AS c").
		Joins("JOIN students AS s ON s.student_id = c.cronograma_student_id").
		Where("s.student_school_id = ?", schoolID)
}

// GetStats: pendiente is the outstanding balance of unpaid entries; vencidos
// counts unpaid entries due before today.
func (s *Service) GetStats(ctx context.Context, schoolID uuid.UUID, today time.Time) (Estadisticas, error) {
	today = dbtime.Normalize(today)
	if err := s.accrue(ctx, schoolID, today); err != nil {
		return Estadisticas{}, err
	}
	var row statsRow
	err := s.base(ctx, schoolID).
		Select(statsSelect, false, false, today).
		Scan(&row).Error
	if err != nil {
		return Estadisticas{}, err
	}
	return row.stats(), nil
}

// GetStatsByConcepto breaks the same figures down per concepto.
func (s *Service) GetStatsByConcepto(ctx context.Context, schoolID uuid.UUID, today time.Time) ([]EstadisticasConcepto, error) {
	today = dbtime.Normalize(today)
	if err := s.accrue(ctx, schoolID, today); err != nil {
		return nil, err
	}
	var rows []statsRow
	err := s.base(ctx, schoolID).
		Joins("JOIN conceptos_pago AS k ON k.concepto_id = c.cronograma_concepto_id").
		Select("k.concepto_id AS concepto_id, k.concepto_nombre AS concepto_nombre,"+statsSelect, false, false, today).
		Group("k.concepto_id, k.concepto_nombre").
		Order("k.concepto_nombre").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]EstadisticasConcepto, 0, len(rows))
	for _, r := range rows {
		out = append(out, EstadisticasConcepto{
			ConceptoID:     r.ConceptoID,
			ConceptoNombre: r.ConceptoNombre,
			Estadisticas:   r.stats(),
		})
	}
	return out, nil
}
