package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EstadoEvento string

const (
	EventoRecibido  EstadoEvento = "RECIBIDO"
	EventoProcesado EstadoEvento = "PROCESADO"
	EventoIgnorado  EstadoEvento = "IGNORADO"
	EventoFallido   EstadoEvento = "FALLIDO"
)

// EventoPasarela logs every gateway notification, valid or not, for audit and replay.
type EventoPasarela struct {
	EventoID            uuid.UUID  `gorm:"column:evento_id;type:uuid;primaryKey" json:"evento_id"`
	EventoSchoolID      *uuid.UUID `gorm:"column:evento_school_id;type:uuid;index" json:"evento_school_id,omitempty"`
	EventoComprobanteID *uuid.UUID `gorm:"column:evento_comprobante_id;type:uuid;index" json:"evento_comprobante_id,omitempty"`

	EventoProveedor     string            `gorm:"column:evento_proveedor;type:varchar(20);not null" json:"evento_proveedor"`
	EventoOrderID       string            `gorm:"column:evento_order_id;type:varchar(64);not null;index" json:"evento_order_id"`
	EventoTipo          string            `gorm:"column:evento_tipo;type:varchar(30)" json:"evento_tipo"`
	EventoTransaccionID *string           `gorm:"column:evento_transaccion_id;type:varchar(64)" json:"evento_transaccion_id,omitempty"`
	EventoFirmaValida   bool              `gorm:"column:evento_firma_valida;not null" json:"evento_firma_valida"`
	EventoPayload       datatypes.JSONMap `gorm:"column:evento_payload" json:"evento_payload"`

	EventoEstado      EstadoEvento `gorm:"column:evento_estado;type:varchar(12);not null" json:"evento_estado"`
	EventoError       *string      `gorm:"column:evento_error;type:text" json:"evento_error,omitempty"`
	EventoRecibidoAt  time.Time    `gorm:"column:evento_recibido_at;not null" json:"evento_recibido_at"`
	EventoProcesadoAt *time.Time   `gorm:"column:evento_procesado_at" json:"evento_procesado_at,omitempty"`
}

func (EventoPasarela) TableName() string { return "pasarela_eventos" }

func (m *EventoPasarela) BeforeCreate(tx *gorm.DB) error {
	if m.EventoID == uuid.Nil {
		m.EventoID = uuid.New()
	}
	if m.EventoEstado == "" {
		m.EventoEstado = EventoRecibido
	}
	if m.EventoRecibidoAt.IsZero() {
		m.EventoRecibidoAt = time.Now().UTC()
	}
	return nil
}
