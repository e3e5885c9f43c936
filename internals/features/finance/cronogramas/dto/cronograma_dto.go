package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"colegio_backend/internals/features/finance/cronogramas/model"
	"colegio_backend/internals/helpers/dbtime"
)

/* =========================================================
   REQUEST
========================================================= */

type GenerateRequest struct {
	ConceptoID       uuid.UUID        `json:"concepto_id" validate:"required"`
	Monto            *decimal.Decimal `json:"monto,omitempty" validate:"omitempty,money"`
	FechaVencimiento string           `json:"fecha_vencimiento" validate:"required"`
	AnioAcademico    *int             `json:"anio_academico,omitempty" validate:"omitempty,min=2000,max=2100"`
	SectionID        *uuid.UUID       `json:"section_id,omitempty"`
}

type AccrueRequest struct {
	// defaults to today in the school timezone
	AsOf string `json:"as_of,omitempty"`
}

type ManualPaymentRequest struct {
	Monto decimal.Decimal `json:"monto" validate:"money"`
}

type AdjustRequest struct {
	Monto            *decimal.Decimal `json:"monto,omitempty" validate:"omitempty,money"`
	FechaVencimiento *string          `json:"fecha_vencimiento,omitempty"`
}

/* =========================================================
   RESPONSE
========================================================= */

type GenerateResponse struct {
	Creados  int64 `json:"creados"`
	Omitidos int64 `json:"omitidos"`
}

type AccrueResponse struct {
	AsOf         string `json:"as_of"`
	Revisadas    int64  `json:"revisadas"`
	Actualizadas int64  `json:"actualizadas"`
}

type CronogramaResponse struct {
	ID               uuid.UUID       `json:"cronograma_id"`
	SchoolID         uuid.UUID       `json:"school_id"`
	StudentID        uuid.UUID       `json:"student_id"`
	ConceptoID       uuid.UUID       `json:"concepto_id"`
	AnioAcademico    int             `json:"anio_academico"`
	FechaVencimiento string          `json:"fecha_vencimiento"`
	Monto            decimal.Decimal `json:"monto"`
	MontoPagado      decimal.Decimal `json:"monto_pagado"`
	MoraAcumulada    decimal.Decimal `json:"mora_acumulada"`
	Saldo            decimal.Decimal `json:"saldo"`
	Pagado           bool            `json:"pagado"`
	PagadoAt         *time.Time      `json:"pagado_at,omitempty"`
	Vencido          bool            `json:"vencido"`
	CreatedAt        time.Time       `json:"created_at"`
}

func ToCronogramaResponse(m model.CronogramaPago, today time.Time) CronogramaResponse {
	return CronogramaResponse{
		ID:               m.CronogramaID,
		SchoolID:         m.CronogramaSchoolID,
		StudentID:        m.CronogramaStudentID,
		ConceptoID:       m.CronogramaConceptoID,
		AnioAcademico:    m.CronogramaAnioAcademico,
		FechaVencimiento: dbtime.Format(m.CronogramaFechaVencimiento),
		Monto:            m.CronogramaMonto,
		MontoPagado:      m.CronogramaMontoPagado,
		MoraAcumulada:    m.CronogramaMoraAcumulada,
		Saldo:            m.Saldo(),
		Pagado:           m.CronogramaPagado,
		PagadoAt:         m.CronogramaPagadoAt,
		Vencido:          m.Vencido(today),
		CreatedAt:        m.CronogramaCreatedAt,
	}
}

func ToCronogramaResponses(list []model.CronogramaPago, today time.Time) []CronogramaResponse {
	out := make([]CronogramaResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToCronogramaResponse(m, today))
	}
	return out
}

type PagoAplicadoResponse struct {
	ID            uuid.UUID        `json:"pago_id"`
	ComprobanteID *uuid.UUID       `json:"comprobante_id,omitempty"`
	Monto         decimal.Decimal  `json:"monto"`
	Origen        model.OrigenPago `json:"origen"`
	AplicadoAt    time.Time        `json:"aplicado_at"`
}

func ToPagoAplicadoResponses(list []model.PagoAplicado) []PagoAplicadoResponse {
	out := make([]PagoAplicadoResponse, 0, len(list))
	for _, p := range list {
		out = append(out, PagoAplicadoResponse{
			ID:            p.PagoID,
			ComprobanteID: p.PagoComprobanteID,
			Monto:         p.PagoMonto,
			Origen:        p.PagoOrigen,
			AplicadoAt:    p.PagoAplicadoAt,
		})
	}
	return out
}
