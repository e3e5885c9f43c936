package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// =========================================================
// ENUMS
// =========================================================

type EstadoComprobante string

const (
	EstadoPendiente EstadoComprobante = "PENDIENTE"
	EstadoAprobado  EstadoComprobante = "APROBADO"
	EstadoRechazado EstadoComprobante = "RECHAZADO"
)

// Terminal states are immutable.
func (e EstadoComprobante) Terminal() bool {
	switch e {
	case EstadoAprobado, EstadoRechazado:
		return true
	}
	return false
}

func (e EstadoComprobante) Valid() bool {
	switch e {
	case EstadoPendiente, EstadoAprobado, EstadoRechazado:
		return true
	}
	return false
}

type MetodoPago string

const (
	MetodoTransferencia MetodoPago = "TRANSFERENCIA"
	MetodoDeposito      MetodoPago = "DEPOSITO"
	MetodoEfectivo      MetodoPago = "EFECTIVO"
	MetodoPasarela      MetodoPago = "PASARELA"
)

// =========================================================
// MODEL
// =========================================================

type ComprobantePago struct {
	ComprobanteID           uuid.UUID `gorm:"column:comprobante_id;type:uuid;primaryKey" json:"comprobante_id"`
	ComprobanteSchoolID     uuid.UUID `gorm:"column:comprobante_school_id;type:uuid;not null;index:ix_comprobante_school_estado,priority:1" json:"comprobante_school_id"`
	ComprobanteCronogramaID uuid.UUID `gorm:"column:comprobante_cronograma_id;type:uuid;not null;index" json:"comprobante_cronograma_id"`

	ComprobanteMonto           decimal.Decimal `gorm:"column:comprobante_monto;type:numeric(12,2);not null" json:"comprobante_monto"`
	ComprobanteMetodo          MetodoPago      `gorm:"column:comprobante_metodo;type:varchar(16);not null" json:"comprobante_metodo"`
	ComprobanteEvidenciaURL    *string         `gorm:"column:comprobante_evidencia_url;type:text" json:"comprobante_evidencia_url,omitempty"`
	ComprobanteBanco           *string         `gorm:"column:comprobante_banco;type:varchar(80)" json:"comprobante_banco,omitempty"`
	ComprobanteNumeroOperacion *string         `gorm:"column:comprobante_numero_operacion;type:varchar(60)" json:"comprobante_numero_operacion,omitempty"`
	ComprobanteFechaOperacion  *time.Time      `gorm:"column:comprobante_fecha_operacion;type:date" json:"comprobante_fecha_operacion,omitempty"`

	ComprobanteEstado        EstadoComprobante `gorm:"column:comprobante_estado;type:varchar(12);not null;index:ix_comprobante_school_estado,priority:2" json:"comprobante_estado"`
	ComprobanteMotivoRechazo *string           `gorm:"column:comprobante_motivo_rechazo;type:text" json:"comprobante_motivo_rechazo,omitempty"`

	ComprobanteEnviadoPor  uuid.UUID  `gorm:"column:comprobante_enviado_por;type:uuid;not null;index" json:"comprobante_enviado_por"`
	ComprobanteResueltoPor *uuid.UUID `gorm:"column:comprobante_resuelto_por;type:uuid" json:"comprobante_resuelto_por,omitempty"`
	ComprobanteResueltoAt  *time.Time `gorm:"column:comprobante_resuelto_at" json:"comprobante_resuelto_at,omitempty"`
	// receipt issued on approval
	ComprobanteDocumentoID *uuid.UUID `gorm:"column:comprobante_documento_id;type:uuid" json:"comprobante_documento_id,omitempty"`

	// gateway order id (PASARELA only)
	ComprobanteExternalID *string           `gorm:"column:comprobante_external_id;type:varchar(64);uniqueIndex" json:"comprobante_external_id,omitempty"`
	ComprobanteMetadata   datatypes.JSONMap `gorm:"column:comprobante_metadata" json:"comprobante_metadata,omitempty"`

	ComprobanteCreatedAt time.Time `gorm:"column:comprobante_created_at;not null" json:"comprobante_created_at"`
	ComprobanteUpdatedAt time.Time `gorm:"column:comprobante_updated_at;not null" json:"comprobante_updated_at"`
}

func (ComprobantePago) TableName() string { return "comprobantes_pago" }

func (m *ComprobantePago) BeforeCreate(tx *gorm.DB) error {
	if m.ComprobanteID == uuid.Nil {
		m.ComprobanteID = uuid.New()
	}
	if m.ComprobanteEstado == "" {
		m.ComprobanteEstado = EstadoPendiente
	}
	now := time.Now().UTC()
	if m.ComprobanteCreatedAt.IsZero() {
		m.ComprobanteCreatedAt = now
	}
	m.ComprobanteUpdatedAt = now
	return nil
}
