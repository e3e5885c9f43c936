package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"colegio_backend/internals/features/finance/conceptos/dto"
	"colegio_backend/internals/features/finance/conceptos/model"
	helper "colegio_backend/internals/helpers"
)

var (
	ErrNotFound        = errors.New("concepto not found")
	ErrNombreDuplicado = errors.New("a concepto with this name already exists")
)

type Service struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// ListActive returns the concepts offered for new charges, ordered by name.
func (s *Service) ListActive(ctx context.Context, schoolID uuid.UUID) ([]model.ConceptoPago, error) {
	var list []model.ConceptoPago
	err := s.DB.WithContext(ctx).
		Where("concepto_school_id = ? AND concepto_estado = ?", schoolID, model.ConceptoActivo).
		Order("concepto_nombre ASC").
		Find(&list).Error
	return list, err
}

type ListFilter struct {
	Estado string
	Q      string
	Order  string
	Limit  int
	Offset int
}

func (s *Service) List(ctx context.Context, schoolID uuid.UUID, f ListFilter) ([]model.ConceptoPago, int64, error) {
	q := s.DB.WithContext(ctx).Model(&model.ConceptoPago{}).
		Where("concepto_school_id = ?", schoolID)
	if e := model.ConceptoEstado(strings.ToUpper(strings.TrimSpace(f.Estado))); e.Valid() {
		q = q.Where("concepto_estado = ?", e)
	}
	if key := model.NombreKey(f.Q); key != "" {
		q = q.Where("concepto_nombre_key LIKE ?", "%"+key+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Order == "" {
		f.Order = "concepto_nombre ASC"
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var list []model.ConceptoPago
	if err := q.Order(f.Order).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (s *Service) Get(ctx context.Context, schoolID, id uuid.UUID) (*model.ConceptoPago, error) {
	return findConcepto(s.DB.WithContext(ctx), schoolID, id)
}

func findConcepto(db *gorm.DB, schoolID, id uuid.UUID) (*model.ConceptoPago, error) {
	var m model.ConceptoPago
	err := db.Where("concepto_id = ? AND concepto_school_id = ?", id, schoolID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert creates a concept when in.ID is nil, otherwise updates it in place.
func (s *Service) Upsert(ctx context.Context, schoolID uuid.UUID, in dto.ConceptoUpsertRequest) (*model.ConceptoPago, bool, error) {
	in.Normalize()
	if err := helper.Validate(in); err != nil {
		return nil, false, err
	}

	var (
		out     model.ConceptoPago
		created bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ID == nil {
			created = true
			out = model.ConceptoPago{ConceptoSchoolID: schoolID, ConceptoEstado: model.ConceptoActivo}
		} else {
			cur, err := findConcepto(tx, schoolID, *in.ID)
			if err != nil {
				return err
			}
			out = *cur
		}
		in.ApplyTo(&out)

		dup, err := nombreTaken(tx, schoolID, model.NombreKey(out.ConceptoNombre), out.ConceptoID)
		if err != nil {
			return err
		}
		if dup {
			return ErrNombreDuplicado
		}

		if created {
			return tx.Create(&out).Error
		}
		return tx.Save(&out).Error
	})
	if err != nil {
		if helper.IsUniqueViolation(err) {
			return nil, false, ErrNombreDuplicado
		}
		return nil, false, err
	}
	return &out, created, nil
}

func nombreTaken(tx *gorm.DB, schoolID uuid.UUID, key string, exceptID uuid.UUID) (bool, error) {
	q := tx.Model(&model.ConceptoPago{}).
		Where("concepto_school_id = ? AND concepto_nombre_key = ?", schoolID, key)
	if exceptID != uuid.Nil {
		q = q.Where("concepto_id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

type DeactivateResult struct {
	Concepto model.ConceptoPago
	// EnUso is the in-use warning: ledger entries still reference the concept.
	EnUso    bool
	Entradas int64
}

// Deactivate never deletes; existing ledger entries keep pointing at the concept.
func (s *Service) Deactivate(ctx context.Context, schoolID, id uuid.UUID) (*DeactivateResult, error) {
	var res DeactivateResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m, err := findConcepto(tx, schoolID, id)
		if err != nil {
			return err
		}
		if m.IsActivo() {
			m.ConceptoEstado = model.ConceptoDesactivado
			if err := tx.Save(m).Error; err != nil {
				return fmt.Errorf("deactivate concepto: %w", err)
			}
		}
		if err := tx.Table("cronograma_pagos").
			Where("cronograma_concepto_id = ?", id).
			Count(&res.Entradas).Error; err != nil {
			return err
		}
		res.Concepto = *m
		res.EnUso = res.Entradas > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
