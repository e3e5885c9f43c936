package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"colegio_backend/internals/features/students/model"
)

// IsGuardianOf reports whether userID is registered as a guardian of studentID.
func IsGuardianOf(ctx context.Context, db *gorm.DB, userID, studentID uuid.UUID) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&model.StudentGuardian{}).
		Where("student_guardian_user_id = ? AND student_guardian_student_id = ?", userID, studentID).
		Count(&n).Error
	return n > 0, err
}

// StudentIDsForGuardian lists the students a parent may act for within schoolID.
func StudentIDsForGuardian(ctx context.Context, db *gorm.DB, schoolID, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := db.WithContext(ctx).
		Table("student_guardians AS g").
		Joins("JOIN students s ON s.student_id = g.student_guardian_student_id").
		Where("g.student_guardian_user_id = ? AND s.student_school_id = ?", userID, schoolID).
		Pluck("g.student_guardian_student_id", &ids).Error
	return ids, err
}
