package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentEstado string

const (
	StudentActivo   StudentEstado = "ACTIVO"
	StudentRetirado StudentEstado = "RETIRADO"
)

type Student struct {
	StudentID        uuid.UUID     `gorm:"column:student_id;type:uuid;primaryKey" json:"student_id"`
	StudentSchoolID  uuid.UUID     `gorm:"column:student_school_id;type:uuid;not null;index:ix_student_school_section,priority:1;uniqueIndex:uq_student_school_codigo,priority:1" json:"student_school_id"`
	StudentSectionID *uuid.UUID    `gorm:"column:student_section_id;type:uuid;index:ix_student_school_section,priority:2" json:"student_section_id,omitempty"`
	StudentCodigo    string        `gorm:"column:student_codigo;type:varchar(30);not null;uniqueIndex:uq_student_school_codigo,priority:2" json:"student_codigo"`
	StudentNombre    string        `gorm:"column:student_nombre;type:varchar(160);not null" json:"student_nombre"`
	StudentEstado    StudentEstado `gorm:"column:student_estado;type:varchar(12);not null" json:"student_estado"`

	StudentCreatedAt time.Time `gorm:"column:student_created_at;not null" json:"student_created_at"`
	StudentUpdatedAt time.Time `gorm:"column:student_updated_at;not null" json:"student_updated_at"`
}

func (Student) TableName() string { return "students" }

func (m *Student) BeforeCreate(tx *gorm.DB) error {
	if m.StudentID == uuid.Nil {
		m.StudentID = uuid.New()
	}
	if m.StudentEstado == "" {
		m.StudentEstado = StudentActivo
	}
	now := time.Now().UTC()
	if m.StudentCreatedAt.IsZero() {
		m.StudentCreatedAt = now
	}
	m.StudentUpdatedAt = now
	return nil
}

// StudentGuardian links a parent account to a student; it is what lets a
// parent see and pay the student's ledger.
type StudentGuardian struct {
	StudentGuardianStudentID uuid.UUID `gorm:"column:student_guardian_student_id;type:uuid;primaryKey" json:"student_id"`
	StudentGuardianUserID    uuid.UUID `gorm:"column:student_guardian_user_id;type:uuid;primaryKey;index" json:"user_id"`
	StudentGuardianRelacion  string    `gorm:"column:student_guardian_relacion;type:varchar(30)" json:"relacion,omitempty"`
	StudentGuardianCreatedAt time.Time `gorm:"column:student_guardian_created_at;not null" json:"created_at"`
}

func (StudentGuardian) TableName() string { return "student_guardians" }

func (m *StudentGuardian) BeforeCreate(tx *gorm.DB) error {
	if m.StudentGuardianCreatedAt.IsZero() {
		m.StudentGuardianCreatedAt = time.Now().UTC()
	}
	return nil
}
