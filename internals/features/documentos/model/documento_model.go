package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TipoDocumento string

const (
	TipoReciboPago TipoDocumento = "RECIBO_PAGO"
)

// DocumentoEmitido is any document the school issues with a public
// verification code printed on it.
type DocumentoEmitido struct {
	DocumentoID           uuid.UUID         `gorm:"column:documento_id;type:uuid;primaryKey" json:"documento_id"`
	DocumentoSchoolID     uuid.UUID         `gorm:"column:documento_school_id;type:uuid;not null;index" json:"documento_school_id"`
	DocumentoTipo         TipoDocumento     `gorm:"column:documento_tipo;type:varchar(20);not null" json:"documento_tipo"`
	DocumentoCodigo       string            `gorm:"column:documento_codigo;type:varchar(16);not null;uniqueIndex" json:"documento_codigo"`
	DocumentoReferenciaID uuid.UUID         `gorm:"column:documento_referencia_id;type:uuid;not null;index" json:"documento_referencia_id"`
	DocumentoTitulo       string            `gorm:"column:documento_titulo;type:varchar(200);not null" json:"documento_titulo"`
	DocumentoMetadata     datatypes.JSONMap `gorm:"column:documento_metadata" json:"documento_metadata,omitempty"`
	DocumentoEmitidoAt    time.Time         `gorm:"column:documento_emitido_at;not null" json:"documento_emitido_at"`
}

func (DocumentoEmitido) TableName() string { return "documentos_emitidos" }

func (m *DocumentoEmitido) BeforeCreate(tx *gorm.DB) error {
	if m.DocumentoID == uuid.Nil {
		m.DocumentoID = uuid.New()
	}
	if m.DocumentoEmitidoAt.IsZero() {
		m.DocumentoEmitidoAt = time.Now().UTC()
	}
	return nil
}
