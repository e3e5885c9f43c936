package model

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// =========================================================
// ENUM lifecycle
// =========================================================

type ConceptoEstado string

const (
	ConceptoActivo      ConceptoEstado = "ACTIVO"
	ConceptoDesactivado ConceptoEstado = "DESACTIVADO"
)

func (e ConceptoEstado) Valid() bool {
	switch e {
	case ConceptoActivo, ConceptoDesactivado:
		return true
	}
	return false
}

// =========================================================
// MODEL
// =========================================================

type ConceptoPago struct {
	ConceptoID       uuid.UUID `gorm:"column:concepto_id;type:uuid;primaryKey" json:"concepto_id"`
	ConceptoSchoolID uuid.UUID `gorm:"column:concepto_school_id;type:uuid;not null;uniqueIndex:uq_concepto_school_nombre_key,priority:1;index:ix_concepto_school_estado,priority:1" json:"concepto_school_id"`

	ConceptoNombre      string  `gorm:"column:concepto_nombre;type:varchar(120);not null" json:"concepto_nombre"`
	ConceptoNombreKey   string  `gorm:"column:concepto_nombre_key;type:varchar(120);not null;uniqueIndex:uq_concepto_school_nombre_key,priority:2" json:"-"`
	ConceptoDescripcion *string `gorm:"column:concepto_descripcion;type:text" json:"concepto_descripcion,omitempty"`

	ConceptoMontoSugerido decimal.Decimal `gorm:"column:concepto_monto_sugerido;type:numeric(12,2);not null" json:"concepto_monto_sugerido"`
	ConceptoMoneda        string          `gorm:"column:concepto_moneda;type:varchar(3);not null" json:"concepto_moneda"`
	// absolute amount per day late
	ConceptoMoraDiaria decimal.Decimal `gorm:"column:concepto_mora_diaria;type:numeric(12,2);not null" json:"concepto_mora_diaria"`

	ConceptoEstado ConceptoEstado `gorm:"column:concepto_estado;type:varchar(12);not null;index:ix_concepto_school_estado,priority:2" json:"concepto_estado"`

	ConceptoCreatedAt time.Time `gorm:"column:concepto_created_at;not null" json:"concepto_created_at"`
	ConceptoUpdatedAt time.Time `gorm:"column:concepto_updated_at;not null" json:"concepto_updated_at"`
}

func (ConceptoPago) TableName() string { return "conceptos_pago" }

func (m *ConceptoPago) IsActivo() bool { return m.ConceptoEstado == ConceptoActivo }

// =========================================================
// HOOKS
// =========================================================

func (m *ConceptoPago) BeforeCreate(tx *gorm.DB) error {
	if m.ConceptoID == uuid.Nil {
		m.ConceptoID = uuid.New()
	}
	if m.ConceptoEstado == "" {
		m.ConceptoEstado = ConceptoActivo
	}
	m.ConceptoNombreKey = NombreKey(m.ConceptoNombre)
	now := time.Now().UTC()
	if m.ConceptoCreatedAt.IsZero() {
		m.ConceptoCreatedAt = now
	}
	m.ConceptoUpdatedAt = now
	return nil
}

func (m *ConceptoPago) BeforeSave(tx *gorm.DB) error {
	m.ConceptoNombreKey = NombreKey(m.ConceptoNombre)
	m.ConceptoUpdatedAt = time.Now().UTC()
	return nil
}

// NombreKey folds case, accents and inner whitespace: "Pensión  Marzo" == "pension marzo".
func NombreKey(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(strings.TrimSpace(s))) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
