// Package testutil opens an in-memory database with the full schema and
// creates the rows most service tests start from.
package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	database "colegio_backend/internals/databases"
	conceptoModel "colegio_backend/internals/features/finance/conceptos/model"
	cronoModel "colegio_backend/internals/features/finance/cronogramas/model"
	studentModel "colegio_backend/internals/features/students/model"
	authModel "colegio_backend/internals/features/users/auth/model"
)

// OpenDB returns a private in-memory database named after the test. A single
// connection keeps SQLite from failing concurrent writers with SQLITE_BUSY.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err, "open db")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models()...), "migrate")
	return db
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date is a civil date (UTC midnight).
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateUser inserts an active user holding role in every school given.
func CreateUser(t *testing.T, db *gorm.DB, email, role string, schools ...uuid.UUID) authModel.User {
	t.Helper()
	u := authModel.User{Email: email, FullName: "Usuario " + email, IsActive: true}
	require.NoError(t, db.Create(&u).Error, "create user")
	for _, s := range schools {
		require.NoError(t, db.Create(&authModel.UserSchoolRole{UserID: u.ID, SchoolID: s, Role: role}).Error)
	}
	return u
}

// CreateStudent inserts an active student; guardians are linked when given.
func CreateStudent(t *testing.T, db *gorm.DB, schoolID uuid.UUID, codigo string, guardians ...uuid.UUID) studentModel.Student {
	t.Helper()
	st := studentModel.Student{
		StudentSchoolID: schoolID,
		StudentCodigo:   codigo,
		StudentNombre:   "Alumno " + codigo,
	}
	require.NoError(t, db.Create(&st).Error, "create student")
	for _, g := range guardians {
		require.NoError(t, db.Create(&studentModel.StudentGuardian{
			StudentGuardianStudentID: st.StudentID,
			StudentGuardianUserID:    g,
		}).Error)
	}
	return st
}

func CreateConcepto(t *testing.T, db *gorm.DB, schoolID uuid.UUID, nombre, monto, moraDiaria string) conceptoModel.ConceptoPago {
	t.Helper()
	c := conceptoModel.ConceptoPago{
		ConceptoSchoolID:      schoolID,
		ConceptoNombre:        nombre,
		ConceptoMontoSugerido: Dec(monto),
		ConceptoMoneda:        "PEN",
		ConceptoMoraDiaria:    Dec(moraDiaria),
	}
	require.NoError(t, db.Create(&c).Error, "create concepto")
	return c
}

func CreateEntry(t *testing.T, db *gorm.DB, schoolID, studentID, conceptoID uuid.UUID, venc time.Time, monto string) cronoModel.CronogramaPago {
	t.Helper()
	e := cronoModel.CronogramaPago{
		CronogramaSchoolID:         schoolID,
		CronogramaStudentID:        studentID,
		CronogramaConceptoID:       conceptoID,
		CronogramaAnioAcademico:    venc.Year(),
		CronogramaFechaVencimiento: venc,
		CronogramaMonto:            Dec(monto),
		CronogramaMontoPagado:      decimal.Zero,
		CronogramaMoraAcumulada:    decimal.Zero,
	}
	require.NoError(t, db.Create(&e).Error, "create cronograma")
	return e
}

// ReloadEntry reads the entry back from the database.
func ReloadEntry(t *testing.T, db *gorm.DB, id uuid.UUID) cronoModel.CronogramaPago {
	t.Helper()
	var e cronoModel.CronogramaPago
	require.NoError(t, db.First(&e, "cronograma_id = ?", id).Error)
	return e
}

// FixedClock returns a Now func pinned to noon of the given civil date in loc.
func FixedClock(day time.Time, loc *time.Location) func() time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc)
	}
}
