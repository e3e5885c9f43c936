package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	conceptoModel "colegio_backend/internals/features/finance/conceptos/model"
	"colegio_backend/internals/features/finance/cronogramas/model"
	studentModel "colegio_backend/internals/features/students/model"
	helper "colegio_backend/internals/helpers"
	"colegio_backend/internals/helpers/dbtime"
)

type Service struct {
	DB *gorm.DB
	// Loc turns instants into civil dates (due dates, today).
	Loc *time.Location
	Now func() time.Time
}

func New(db *gorm.DB, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{DB: db, Loc: loc, Now: time.Now}
}

// Today is the current civil date in the school timezone.
func (s *Service) Today() time.Time {
	return dbtime.CivilDate(s.Now(), s.Loc)
}

/* =========================================================
   GENERATE
========================================================= */

type GenerateInput struct {
	ConceptoID       uuid.UUID
	Monto            *decimal.Decimal // defaults to the concept's suggested amount
	FechaVencimiento time.Time
	AnioAcademico    *int // defaults to the due date's year
	SectionID        *uuid.UUID
}

type GenerateResult struct {
	Creados  int64
	Omitidos int64
}

// GenerateForCohort creates one entry per active student of the school (or
// section). Tuples that already exist are skipped, so re-running is a no-op.
func (s *Service) GenerateForCohort(ctx context.Context, schoolID uuid.UUID, in GenerateInput) (GenerateResult, error) {
	var res GenerateResult
	if in.FechaVencimiento.IsZero() {
		return res, helper.NewFieldError("fecha_vencimiento", "is required")
	}
	if in.Monto != nil && (!in.Monto.IsPositive() || !helper.HasAtMostTwoDecimals(*in.Monto)) {
		return res, helper.NewFieldError("monto", "must be a positive amount with at most 2 decimals")
	}
	venc := dbtime.Normalize(in.FechaVencimiento)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var concepto conceptoModel.ConceptoPago
		if err := tx.Where("concepto_id = ? AND concepto_school_id = ?", in.ConceptoID, schoolID).
			First(&concepto).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConceptoNotFound
			}
			return err
		}
		switch concepto.ConceptoEstado {
		case conceptoModel.ConceptoActivo:
		case conceptoModel.ConceptoDesactivado:
			return ErrConceptoInactivo
		default:
			return fmt.Errorf("concepto %s has unknown estado %q", concepto.ConceptoID, concepto.ConceptoEstado)
		}

		monto := concepto.ConceptoMontoSugerido
		if in.Monto != nil {
			monto = *in.Monto
		}
		anio := venc.Year()
		if in.AnioAcademico != nil {
			anio = *in.AnioAcademico
		}

		q := tx.Model(&studentModel.Student{}).
			Where("student_school_id = ? AND student_estado = ?", schoolID, studentModel.StudentActivo)
		if in.SectionID != nil {
			q = q.Where("student_section_id = ?", *in.SectionID)
		}
		var studentIDs []uuid.UUID
		if err := q.Order("student_id").Pluck("student_id", &studentIDs).Error; err != nil {
			return err
		}
		if len(studentIDs) == 0 {
			return nil
		}

		rows := make([]model.CronogramaPago, 0, len(studentIDs))
		for _, sid := range studentIDs {
			rows = append(rows, model.CronogramaPago{
				CronogramaSchoolID:         schoolID,
				CronogramaStudentID:        sid,
				CronogramaConceptoID:       concepto.ConceptoID,
				CronogramaAnioAcademico:    anio,
				CronogramaFechaVencimiento: venc,
				CronogramaMonto:            monto,
				CronogramaMontoPagado:      decimal.Zero,
				CronogramaMoraAcumulada:    decimal.Zero,
			})
		}

		ins := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "cronograma_student_id"},
				{Name: "cronograma_concepto_id"},
				{Name: "cronograma_fecha_vencimiento"},
			},
			DoNothing: true,
		}).CreateInBatches(&rows, 500)
		if ins.Error != nil {
			return fmt.Errorf("insert cronograma: %w", ins.Error)
		}
		res.Creados = ins.RowsAffected
		res.Omitidos = int64(len(rows)) - ins.RowsAffected
		return nil
	})
	return res, err
}

/* =========================================================
   LATE FEES
========================================================= */

type AccrualResult struct {
	AsOf         time.Time
	Revisadas    int64
	Actualizadas int64
}

type moraRow struct {
	ID         uuid.UUID       `gorm:"column:cronograma_id"`
	Venc       time.Time       `gorm:"column:cronograma_fecha_vencimiento"`
	Mora       decimal.Decimal `gorm:"column:cronograma_mora_acumulada"`
	MoraDiaria decimal.Decimal `gorm:"column:concepto_mora_diaria"`
}

const accrualBatch = 500

// AccrueLateFees recomputes the late fee of every unpaid overdue entry as of
// asOf. Stored fees only ever go up, so repeating a run (or running with an
// earlier asOf) changes nothing. A nil schoolID covers every school.
func (s *Service) AccrueLateFees(ctx context.Context, schoolID *uuid.UUID, asOf time.Time) (AccrualResult, error) {
	asOf = dbtime.Normalize(asOf)
	res := AccrualResult{AsOf: asOf}
	db := s.DB.WithContext(ctx)

	last := uuid.Nil
	for {
		q := db.Table("cronograma_pagos AS cp").
			Select("cp.cronograma_id, cp.cronograma_fecha_vencimiento, cp.cronograma_mora_acumulada, c.concepto_mora_diaria").
			Joins("JOIN conceptos_pago c ON c.concepto_id = cp.cronograma_concepto_id").
			Where("cp.cronograma_pagado = ? AND cp.cronograma_fecha_vencimiento < ?", false, asOf).
			Where("c.concepto_mora_diaria > 0").
			Where("cp.cronograma_id > ?", last)
		if schoolID != nil {
			q = q.Where("cp.cronograma_school_id = ?", *schoolID)
		}
		var batch []moraRow
		if err := q.Order("cp.cronograma_id").Limit(accrualBatch).Scan(&batch).Error; err != nil {
			return res, err
		}
		if len(batch) == 0 {
			return res, nil
		}

		for _, r := range batch {
			res.Revisadas++
			mora := MoraPara(r.Venc, asOf, r.MoraDiaria)
			if !mora.GreaterThan(r.Mora) {
				continue
			}
			// guarded update keeps the fee monotonic against concurrent writers
			upd := db.Model(&model.CronogramaPago{}).
				Where("cronograma_id = ? AND cronograma_pagado = ? AND cronograma_mora_acumulada < ?", r.ID, false, mora).
				Updates(map[string]any{
					"cronograma_mora_acumulada":    mora,
					"cronograma_mora_calculada_al": asOf,
					"cronograma_updated_at":        time.Now().UTC(),
				})
			if upd.Error != nil {
				return res, fmt.Errorf("accrue %s: %w", r.ID, upd.Error)
			}
			res.Actualizadas += upd.RowsAffected
		}
		if len(batch) < accrualBatch {
			return res, nil
		}
		last = batch[len(batch)-1].ID
	}
}

// refreshMora brings e's late fee up to date for s.Today() inside tx.
func (s *Service) refreshMora(tx *gorm.DB, e *model.CronogramaPago) error {
	if e.CronogramaPagado {
		return nil
	}
	var concepto conceptoModel.ConceptoPago
	if err := tx.Where("concepto_id = ?", e.CronogramaConceptoID).First(&concepto).Error; err != nil {
		return fmt.Errorf("load concepto: %w", err)
	}
	today := s.Today()
	mora := MoraPara(e.CronogramaFechaVencimiento, today, concepto.ConceptoMoraDiaria)
	if !mora.GreaterThan(e.CronogramaMoraAcumulada) {
		return nil
	}
	e.CronogramaMoraAcumulada = mora
	e.CronogramaMoraCalculadaAl = &today
	return tx.Model(e).
		Select("cronograma_mora_acumulada", "cronograma_mora_calculada_al", "cronograma_updated_at").
		Updates(map[string]any{
			"cronograma_mora_acumulada":    mora,
			"cronograma_mora_calculada_al": today,
			"cronograma_updated_at":        time.Now().UTC(),
		}).Error
}

/* =========================================================
   PAYMENTS
========================================================= */

type PaymentInput struct {
	Monto         decimal.Decimal
	Origen        model.OrigenPago
	ComprobanteID *uuid.UUID
	AplicadoPor   *uuid.UUID
}

// LockEntry loads an entry of schoolID with a row lock (no-op on SQLite).
func LockEntry(tx *gorm.DB, schoolID, id uuid.UUID) (*model.CronogramaPago, error) {
	var e model.CronogramaPago
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cronograma_id = ? AND cronograma_school_id = ?", id, schoolID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CurrentEntry locks the entry and refreshes its late fee; callers use it to
// check an amount against the up-to-date outstanding balance.
func (s *Service) CurrentEntry(tx *gorm.DB, schoolID, id uuid.UUID) (*model.CronogramaPago, error) {
	e, err := LockEntry(tx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if err := s.refreshMora(tx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// ApplyPayment settles in.Monto against the entry. It must run inside the
// caller's transaction; any error leaves the ledger for that tx untouched.
func (s *Service) ApplyPayment(tx *gorm.DB, schoolID, entryID uuid.UUID, in PaymentInput) (*model.CronogramaPago, error) {
	if !in.Monto.IsPositive() || !helper.HasAtMostTwoDecimals(in.Monto) {
		return nil, helper.NewFieldError("monto", "must be a positive amount with at most 2 decimals")
	}

	e, err := s.CurrentEntry(tx, schoolID, entryID)
	if err != nil {
		return nil, err
	}
	if e.CronogramaPagado {
		return nil, ErrYaPagado
	}
	saldo := e.Saldo()
	if in.Monto.GreaterThan(saldo) {
		return nil, fmt.Errorf("%w: monto %s, saldo %s", ErrSobrepago, in.Monto.StringFixed(2), saldo.StringFixed(2))
	}

	now := time.Now().UTC()
	e.CronogramaMontoPagado = e.CronogramaMontoPagado.Add(in.Monto)
	if e.Saldo().IsZero() {
		e.CronogramaPagado = true
		e.CronogramaPagadoAt = &now
	}
	e.CronogramaUpdatedAt = now
	if err := tx.Model(e).
		Select("cronograma_monto_pagado", "cronograma_pagado", "cronograma_pagado_at", "cronograma_updated_at").
		Updates(e).Error; err != nil {
		return nil, fmt.Errorf("update cronograma: %w", err)
	}

	pago := model.PagoAplicado{
		PagoCronogramaID:  e.CronogramaID,
		PagoComprobanteID: in.ComprobanteID,
		PagoMonto:         in.Monto,
		PagoOrigen:        in.Origen,
		PagoAplicadoPor:   in.AplicadoPor,
		PagoAplicadoAt:    now,
	}
	if err := tx.Create(&pago).Error; err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, ErrPagoDuplicado
		}
		return nil, fmt.Errorf("insert pago aplicado: %w", err)
	}
	return e, nil
}

// RegisterManualPayment is the cash-desk path: a staff member records money
// received in person.
func (s *Service) RegisterManualPayment(ctx context.Context, schoolID, entryID uuid.UUID, monto decimal.Decimal, by uuid.UUID) (*model.CronogramaPago, error) {
	var out *model.CronogramaPago
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := s.ApplyPayment(tx, schoolID, entryID, PaymentInput{
			Monto:       monto,
			Origen:      model.OrigenManual,
			AplicadoPor: &by,
		})
		out = e
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

/* =========================================================
   ADMIN ADJUST / DELETE
========================================================= */

type AdjustInput struct {
	Monto            *decimal.Decimal
	FechaVencimiento *time.Time
}

// Adjust changes principal and/or due date. The accrued fee is kept, and the
// paid flag is recomputed from the new balance.
func (s *Service) Adjust(ctx context.Context, schoolID, id uuid.UUID, in AdjustInput) (*model.CronogramaPago, error) {
	if in.Monto != nil && (!in.Monto.IsPositive() || !helper.HasAtMostTwoDecimals(*in.Monto)) {
		return nil, helper.NewFieldError("monto", "must be a positive amount with at most 2 decimals")
	}
	var out *model.CronogramaPago
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := LockEntry(tx, schoolID, id)
		if err != nil {
			return err
		}
		if in.Monto != nil {
			e.CronogramaMonto = *in.Monto
		}
		if in.FechaVencimiento != nil {
			e.CronogramaFechaVencimiento = dbtime.Normalize(*in.FechaVencimiento)
		}
		if e.CronogramaMontoPagado.GreaterThan(e.Total()) {
			return ErrAjusteInvalido
		}
		now := time.Now().UTC()
		switch paid := e.Saldo().IsZero(); {
		case paid && !e.CronogramaPagado:
			e.CronogramaPagado = true
			e.CronogramaPagadoAt = &now
		case !paid && e.CronogramaPagado:
			e.CronogramaPagado = false
			e.CronogramaPagadoAt = nil
		}
		e.CronogramaUpdatedAt = now
		if err := tx.Model(e).
			Select("cronograma_monto", "cronograma_fecha_vencimiento", "cronograma_pagado", "cronograma_pagado_at", "cronograma_updated_at").
			Updates(e).Error; err != nil {
			if helper.IsUniqueViolation(err) {
				return ErrEntradaDuplicada
			}
			return err
		}
		out = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an entry that never received money nor a comprobante.
func (s *Service) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		e, err := LockEntry(tx, schoolID, id)
		if err != nil {
			return err
		}
		if !e.CronogramaMontoPagado.IsZero() {
			return ErrTieneMovimientos
		}
		var n int64
		if err := tx.Model(&model.PagoAplicado{}).Where("pago_cronograma_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			if err := tx.Table("comprobantes_pago").Where("comprobante_cronograma_id = ?", id).Count(&n).Error; err != nil {
				return err
			}
		}
		if n > 0 {
			return ErrTieneMovimientos
		}
		if err := tx.Delete(&model.CronogramaPago{}, "cronograma_id = ?", id).Error; err != nil {
			// a comprobante may reference the entry after the count above
			if helper.IsForeignKeyViolation(err) {
				return ErrTieneMovimientos
			}
			return err
		}
		return nil
	})
}

/* =========================================================
   QUERIES
========================================================= */

// Get returns the entry with its late fee brought up to today.
func (s *Service) Get(ctx context.Context, schoolID, id uuid.UUID) (*model.CronogramaPago, error) {
	db := s.DB.WithContext(ctx)
	var e model.CronogramaPago
	err := db.Where("cronograma_id = ? AND cronograma_school_id = ?", id, schoolID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.refreshMora(db, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Service) Pagos(ctx context.Context, entryID uuid.UUID) ([]model.PagoAplicado, error) {
	var list []model.PagoAplicado
	err := s.DB.WithContext(ctx).
		Where("pago_cronograma_id = ?", entryID).
		Order("pago_aplicado_at ASC").
		Find(&list).Error
	return list, err
}

type ListFilter struct {
	StudentIDs []uuid.UUID // empty = all students of the school
	ConceptoID *uuid.UUID
	Estado     string // pagado | pendiente | vencido
	Anio       *int
	Order      string
	Limit      int
	Offset     int
}

// List accrues the school's late fees up to today before reading.
func (s *Service) List(ctx context.Context, schoolID uuid.UUID, f ListFilter) ([]model.CronogramaPago, int64, error) {
	if _, err := s.AccrueLateFees(ctx, &schoolID, s.Today()); err != nil {
		return nil, 0, err
	}
	q := s.DB.WithContext(ctx).Model(&model.CronogramaPago{}).
		Where("cronograma_school_id = ?", schoolID)
	if len(f.StudentIDs) > 0 {
		q = q.Where("cronograma_student_id IN ?", f.StudentIDs)
	}
	if f.ConceptoID != nil {
		q = q.Where("cronograma_concepto_id = ?", *f.ConceptoID)
	}
	if f.Anio != nil {
		q = q.Where("cronograma_anio_academico = ?", *f.Anio)
	}
	switch f.Estado {
	case "pagado":
		q = q.Where("cronograma_pagado = ?", true)
	case "pendiente":
		q = q.Where("cronograma_pagado = ?", false)
	case "vencido":
		q = q.Where("cronograma_pagado = ? AND cronograma_fecha_vencimiento < ?", false, s.Today())
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Order == "" {
		f.Order = "cronograma_fecha_vencimiento ASC"
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var list []model.CronogramaPago
	if err := q.Order(f.Order).Order("cronograma_id").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}
