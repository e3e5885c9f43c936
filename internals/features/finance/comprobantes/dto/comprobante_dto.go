package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"colegio_backend/internals/features/finance/comprobantes/model"
	"colegio_backend/internals/helpers/dbtime"
)

/* =========================================================
   REQUEST
========================================================= */

type SubmitRequest struct {
	CronogramaID    uuid.UUID       `json:"cronograma_id" validate:"required"`
	Monto           decimal.Decimal `json:"monto" validate:"money"`
	Metodo          string          `json:"metodo" validate:"required,oneof=TRANSFERENCIA DEPOSITO EFECTIVO"`
	EvidenciaURL    *string         `json:"evidencia_url,omitempty" validate:"omitempty,url,max=1000"`
	Banco           *string         `json:"banco,omitempty" validate:"omitempty,max=80"`
	NumeroOperacion *string         `json:"numero_operacion,omitempty" validate:"omitempty,max=60"`
	FechaOperacion  *string         `json:"fecha_operacion,omitempty"`
}

func (r *SubmitRequest) Normalize() {
	r.Metodo = strings.ToUpper(strings.TrimSpace(r.Metodo))
	r.EvidenciaURL = trimPtr(r.EvidenciaURL)
	r.Banco = trimPtr(r.Banco)
	r.NumeroOperacion = trimPtr(r.NumeroOperacion)
	r.FechaOperacion = trimPtr(r.FechaOperacion)
}

type RejectRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3,max=500"`
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

/* =========================================================
   RESPONSE
========================================================= */

type ComprobanteResponse struct {
	ID              uuid.UUID               `json:"comprobante_id"`
	SchoolID        uuid.UUID               `json:"school_id"`
	CronogramaID    uuid.UUID               `json:"cronograma_id"`
	Monto           decimal.Decimal         `json:"monto"`
	Metodo          model.MetodoPago        `json:"metodo"`
	EvidenciaURL    *string                 `json:"evidencia_url,omitempty"`
	Banco           *string                 `json:"banco,omitempty"`
	NumeroOperacion *string                 `json:"numero_operacion,omitempty"`
	FechaOperacion  string                  `json:"fecha_operacion,omitempty"`
	Estado          model.EstadoComprobante `json:"estado"`
	MotivoRechazo   *string                 `json:"motivo_rechazo,omitempty"`
	EnviadoPor      uuid.UUID               `json:"enviado_por"`
	ResueltoPor     *uuid.UUID              `json:"resuelto_por,omitempty"`
	ResueltoAt      *time.Time              `json:"resuelto_at,omitempty"`
	DocumentoID     *uuid.UUID              `json:"documento_id,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

func ToComprobanteResponse(m model.ComprobantePago) ComprobanteResponse {
	out := ComprobanteResponse{
		ID:              m.ComprobanteID,
		SchoolID:        m.ComprobanteSchoolID,
		CronogramaID:    m.ComprobanteCronogramaID,
		Monto:           m.ComprobanteMonto,
		Metodo:          m.ComprobanteMetodo,
		EvidenciaURL:    m.ComprobanteEvidenciaURL,
		Banco:           m.ComprobanteBanco,
		NumeroOperacion: m.ComprobanteNumeroOperacion,
		Estado:          m.ComprobanteEstado,
		MotivoRechazo:   m.ComprobanteMotivoRechazo,
		EnviadoPor:      m.ComprobanteEnviadoPor,
		ResueltoPor:     m.ComprobanteResueltoPor,
		ResueltoAt:      m.ComprobanteResueltoAt,
		DocumentoID:     m.ComprobanteDocumentoID,
		CreatedAt:       m.ComprobanteCreatedAt,
	}
	if m.ComprobanteFechaOperacion != nil {
		out.FechaOperacion = dbtime.Format(*m.ComprobanteFechaOperacion)
	}
	return out
}

func ToComprobanteResponses(list []model.ComprobantePago) []ComprobanteResponse {
	out := make([]ComprobanteResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToComprobanteResponse(m))
	}
	return out
}
