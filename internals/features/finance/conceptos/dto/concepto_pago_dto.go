package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"colegio_backend/internals/features/finance/conceptos/model"
)

/* =========================================================
   REQUEST
========================================================= */

// ConceptoUpsertRequest creates when ID is nil, updates otherwise.
type ConceptoUpsertRequest struct {
	ID            *uuid.UUID      `json:"concepto_id,omitempty"`
	Nombre        string          `json:"concepto_nombre" validate:"required,min=2,max=120"`
	Descripcion   *string         `json:"concepto_descripcion,omitempty" validate:"omitempty,max=500"`
	MontoSugerido decimal.Decimal `json:"concepto_monto_sugerido" validate:"money"`
	Moneda        string          `json:"concepto_moneda" validate:"omitempty,len=3,alpha,uppercase"`
	MoraDiaria    decimal.Decimal `json:"concepto_mora_diaria" validate:"money_nonneg"`
	Estado        string          `json:"concepto_estado" validate:"omitempty,oneof=ACTIVO DESACTIVADO"`
}

func (r *ConceptoUpsertRequest) Normalize() {
	r.Nombre = strings.TrimSpace(r.Nombre)
	r.Moneda = strings.ToUpper(strings.TrimSpace(r.Moneda))
	if r.Moneda == "" {
		r.Moneda = "PEN"
	}
	r.Estado = strings.ToUpper(strings.TrimSpace(r.Estado))
	if r.Descripcion != nil {
		d := strings.TrimSpace(*r.Descripcion)
		if d == "" {
			r.Descripcion = nil
		} else {
			r.Descripcion = &d
		}
	}
}

func (r ConceptoUpsertRequest) ApplyTo(m *model.ConceptoPago) {
	m.ConceptoNombre = r.Nombre
	m.ConceptoDescripcion = r.Descripcion
	m.ConceptoMontoSugerido = r.MontoSugerido
	m.ConceptoMoneda = r.Moneda
	m.ConceptoMoraDiaria = r.MoraDiaria
	if r.Estado != "" {
		m.ConceptoEstado = model.ConceptoEstado(r.Estado)
	}
}

/* =========================================================
   RESPONSE
========================================================= */

type ConceptoResponse struct {
	ID            uuid.UUID            `json:"concepto_id"`
	SchoolID      uuid.UUID            `json:"concepto_school_id"`
	Nombre        string               `json:"concepto_nombre"`
	Descripcion   *string              `json:"concepto_descripcion,omitempty"`
	MontoSugerido decimal.Decimal      `json:"concepto_monto_sugerido"`
	Moneda        string               `json:"concepto_moneda"`
	MoraDiaria    decimal.Decimal      `json:"concepto_mora_diaria"`
	Estado        model.ConceptoEstado `json:"concepto_estado"`
	CreatedAt     time.Time            `json:"concepto_created_at"`
	UpdatedAt     time.Time            `json:"concepto_updated_at"`
}

func ToConceptoResponse(m model.ConceptoPago) ConceptoResponse {
	return ConceptoResponse{
		ID:            m.ConceptoID,
		SchoolID:      m.ConceptoSchoolID,
		Nombre:        m.ConceptoNombre,
		Descripcion:   m.ConceptoDescripcion,
		MontoSugerido: m.ConceptoMontoSugerido,
		Moneda:        m.ConceptoMoneda,
		MoraDiaria:    m.ConceptoMoraDiaria,
		Estado:        m.ConceptoEstado,
		CreatedAt:     m.ConceptoCreatedAt,
		UpdatedAt:     m.ConceptoUpdatedAt,
	}
}

func ToConceptoResponses(list []model.ConceptoPago) []ConceptoResponse {
	out := make([]ConceptoResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToConceptoResponse(m))
	}
	return out
}

// DeactivateResponse carries the in-use warning.
type DeactivateResponse struct {
	Concepto ConceptoResponse `json:"concepto"`
	EnUso    bool             `json:"en_uso"`
	Entradas int64            `json:"entradas_cronograma"`
	Aviso    string           `json:"aviso,omitempty"`
}
