package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;type:varchar(160);not null;uniqueIndex" json:"email"`
	FullName  string    `gorm:"column:full_name;type:varchar(160);not null" json:"full_name"`
	Password  *string   `gorm:"column:password;type:varchar(100)" json:"-"`
	GoogleID  *string   `gorm:"column:google_id;type:varchar(64);uniqueIndex" json:"-"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (m *User) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	return nil
}

// UserSchoolRole grants a role within one school (tenant).
type UserSchoolRole struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	SchoolID  uuid.UUID `gorm:"column:school_id;type:uuid;primaryKey" json:"school_id"`
	Role      string    `gorm:"column:role;type:varchar(20);primaryKey" json:"role"`
	CreatedAt time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (UserSchoolRole) TableName() string { return "user_school_roles" }

func (m *UserSchoolRole) BeforeCreate(tx *gorm.DB) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return nil
}

type TokenBlacklist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	ExpiredAt time.Time `gorm:"column:expired_at;not null;index" json:"expired_at"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (TokenBlacklist) TableName() string { return "token_blacklist" }
