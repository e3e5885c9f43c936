package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CronogramaPago is one scheduled charge for one student. Invariants:
//
//	monto_pagado <= monto + mora_acumulada
//	pagado == (saldo == 0)
//	mora_acumulada never decreases
type CronogramaPago struct {
	CronogramaID         uuid.UUID `gorm:"column:cronograma_id;type:uuid;primaryKey" json:"cronograma_id"`
	CronogramaSchoolID   uuid.UUID `gorm:"column:cronograma_school_id;type:uuid;not null;index:ix_cronograma_school_pagado,priority:1" json:"cronograma_school_id"`
	CronogramaStudentID  uuid.UUID `gorm:"column:cronograma_student_id;type:uuid;not null;uniqueIndex:uq_cronograma_student_concepto_venc,priority:1" json:"cronograma_student_id"`
	CronogramaConceptoID uuid.UUID `gorm:"column:cronograma_concepto_id;type:uuid;not null;index;uniqueIndex:uq_cronograma_student_concepto_venc,priority:2" json:"cronograma_concepto_id"`

	CronogramaAnioAcademico    int       `gorm:"column:cronograma_anio_academico;not null" json:"cronograma_anio_academico"`
	CronogramaFechaVencimiento time.Time `gorm:"column:cronograma_fecha_vencimiento;type:date;not null;uniqueIndex:uq_cronograma_student_concepto_venc,priority:3;index:ix_cronograma_school_pagado,priority:3" json:"cronograma_fecha_vencimiento"`

	CronogramaMonto         decimal.Decimal `gorm:"column:cronograma_monto;type:numeric(12,2);not null" json:"cronograma_monto"`
	CronogramaMontoPagado   decimal.Decimal `gorm:"column:cronograma_monto_pagado;type:numeric(12,2);not null" json:"cronograma_monto_pagado"`
	CronogramaMoraAcumulada decimal.Decimal `gorm:"column:cronograma_mora_acumulada;type:numeric(12,2);not null" json:"cronograma_mora_acumulada"`
	// civil date the late fee was last computed for
	CronogramaMoraCalculadaAl *time.Time `gorm:"column:cronograma_mora_calculada_al;type:date" json:"cronograma_mora_calculada_al,omitempty"`

	CronogramaPagado   bool       `gorm:"column:cronograma_pagado;not null;index:ix_cronograma_school_pagado,priority:2" json:"cronograma_pagado"`
	CronogramaPagadoAt *time.Time `gorm:"column:cronograma_pagado_at" json:"cronograma_pagado_at,omitempty"`

	CronogramaCreatedAt time.Time `gorm:"column:cronograma_created_at;not null" json:"cronograma_created_at"`
	CronogramaUpdatedAt time.Time `gorm:"column:cronograma_updated_at;not null" json:"cronograma_updated_at"`
}

func (CronogramaPago) TableName() string { return "cronograma_pagos" }

func (m *CronogramaPago) BeforeCreate(tx *gorm.DB) error {
	if m.CronogramaID == uuid.Nil {
		m.CronogramaID = uuid.New()
	}
	now := time.Now().UTC()
	if m.CronogramaCreatedAt.IsZero() {
		m.CronogramaCreatedAt = now
	}
	m.CronogramaUpdatedAt = now
	return nil
}

// Total is principal plus accrued late fee.
func (m *CronogramaPago) Total() decimal.Decimal {
	return m.CronogramaMonto.Add(m.CronogramaMoraAcumulada)
}

// Saldo is the outstanding balance, never negative.
func (m *CronogramaPago) Saldo() decimal.Decimal {
	s := m.Total().Sub(m.CronogramaMontoPagado)
	if s.IsNegative() {
		return decimal.Zero
	}
	return s
}

// Vencido: unpaid and the due date is before today (civil dates).
func (m *CronogramaPago) Vencido(today time.Time) bool {
	return !m.CronogramaPagado && m.CronogramaFechaVencimiento.Before(today)
}

// =========================================================
// PagoAplicado is the append-only settlement history.
// =========================================================

type OrigenPago string

const (
	OrigenComprobante OrigenPago = "COMPROBANTE"
	OrigenPasarela    OrigenPago = "PASARELA"
	OrigenManual      OrigenPago = "MANUAL"
)

type PagoAplicado struct {
	PagoID            uuid.UUID       `gorm:"column:pago_id;type:uuid;primaryKey" json:"pago_id"`
	PagoCronogramaID  uuid.UUID       `gorm:"column:pago_cronograma_id;type:uuid;not null;index" json:"pago_cronograma_id"`
	PagoComprobanteID *uuid.UUID      `gorm:"column:pago_comprobante_id;type:uuid;uniqueIndex" json:"pago_comprobante_id,omitempty"`
	PagoMonto         decimal.Decimal `gorm:"column:pago_monto;type:numeric(12,2);not null" json:"pago_monto"`
	PagoOrigen        OrigenPago      `gorm:"column:pago_origen;type:varchar(12);not null" json:"pago_origen"`
	PagoAplicadoPor   *uuid.UUID      `gorm:"column:pago_aplicado_por;type:uuid" json:"pago_aplicado_por,omitempty"`
	PagoAplicadoAt    time.Time       `gorm:"column:pago_aplicado_at;not null" json:"pago_aplicado_at"`
}

func (PagoAplicado) TableName() string { return "pagos_aplicados" }

func (m *PagoAplicado) BeforeCreate(tx *gorm.DB) error {
	if m.PagoID == uuid.Nil {
		m.PagoID = uuid.New()
	}
	if m.PagoAplicadoAt.IsZero() {
		m.PagoAplicadoAt = time.Now().UTC()
	}
	return nil
}
