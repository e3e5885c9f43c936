package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"colegio_backend/internals/features/documentos/model"
	helper "colegio_backend/internals/helpers"
)

var ErrNotFound = errors.New("document not found")

// Crockford base32: no I, L, O, U so codes survive being read aloud or retyped.
const codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const CodeLength = 12

// NewCode returns a random verification code.
func NewCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, CodeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

// NormalizeCode upper-cases, strips separators and maps look-alike letters.
func NormalizeCode(s string) string {
	r := strings.NewReplacer("-", "", " ", "", "I", "1", "L", "1", "O", "0")
	return r.Replace(strings.ToUpper(strings.TrimSpace(s)))
}

type IssueInput struct {
	SchoolID     uuid.UUID
	Tipo         model.TipoDocumento
	ReferenciaID uuid.UUID
	Titulo       string
	Metadata     map[string]any
}

// Issue stores a document inside tx, retrying on the rare code collision.
func Issue(tx *gorm.DB, in IssueInput) (*model.DocumentoEmitido, error) {
	for attempt := 0; attempt < 3; attempt++ {
		code, err := NewCode()
		if err != nil {
			return nil, err
		}
		doc := model.DocumentoEmitido{
			DocumentoSchoolID:     in.SchoolID,
			DocumentoTipo:         in.Tipo,
			DocumentoCodigo:       code,
			DocumentoReferenciaID: in.ReferenciaID,
			DocumentoTitulo:       in.Titulo,
			DocumentoMetadata:     datatypes.JSONMap(in.Metadata),
		}
		// a savepoint keeps the outer transaction usable after a collision on Postgres
		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Create(&doc).Error
		})
		if err == nil {
			return &doc, nil
		}
		if !helper.IsUniqueViolation(err) {
			return nil, fmt.Errorf("issue document: %w", err)
		}
	}
	return nil, errors.New("issue document: could not allocate a unique code")
}

type Service struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{DB: db} }

// Verify looks a document up by its public code.
func (s *Service) Verify(ctx context.Context, code string) (*model.DocumentoEmitido, error) {
	code = NormalizeCode(code)
	if len(code) != CodeLength {
		return nil, ErrNotFound
	}
	var doc model.DocumentoEmitido
	err := s.DB.WithContext(ctx).Where("documento_codigo = ?", code).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Service) ByReferencia(ctx context.Context, tipo model.TipoDocumento, refID uuid.UUID) (*model.DocumentoEmitido, error) {
	var doc model.DocumentoEmitido
	err := s.DB.WithContext(ctx).
		Where("documento_tipo = ? AND documento_referencia_id = ?", tipo, refID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
