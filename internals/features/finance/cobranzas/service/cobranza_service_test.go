package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	cronoModel "colegio_backend/internals/features/finance/cronogramas/model"
	"colegio_backend/internals/testutil"
)

func setState(t *testing.T, db *gorm.DB, e cronoModel.CronogramaPago, pagado, mora string, paid bool) {
	t.Helper()
	require.NoError(t, db.Model(&cronoModel.CronogramaPago{}).
		Where("cronograma_id = ?", e.CronogramaID).
		Updates(map[string]any{
			"cronograma_monto_pagado":   testutil.Dec(pagado),
			"cronograma_mora_acumulada": testutil.Dec(mora),
			"cronograma_pagado":         paid,
		}).Error)
}

func TestGetStats(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()
	other := uuid.New()

	pension := testutil.CreateConcepto(t, db, school, "Pensión", "300", "1")
	matricula := testutil.CreateConcepto(t, db, school, "Matrícula", "350", "0")
	a := testutil.CreateStudent(t, db, school, "A-1")
	b := testutil.CreateStudent(t, db, school, "A-2")
	x := testutil.CreateStudent(t, db, other, "X-1")

	overdue := testutil.CreateEntry(t, db, school, a.StudentID, pension.ConceptoID, testutil.Date(2026, time.March, 1), "300")
	setState(t, db, overdue, "0", "14", false)
	partial := testutil.CreateEntry(t, db, school, b.StudentID, pension.ConceptoID, testutil.Date(2026, time.April, 1), "300")
	setState(t, db, partial, "100", "0", false)
	paid := testutil.CreateEntry(t, db, school, a.StudentID, matricula.ConceptoID, testutil.Date(2026, time.February, 1), "350")
	setState(t, db, paid, "350", "0", true)
	testutil.CreateEntry(t, db, other, x.StudentID, uuid.New(), testutil.Date(2026, time.January, 1), "500")

	svc := New(db, time.UTC)
	svc.Now = testutil.FixedClock(testutil.Date(2026, time.March, 15), time.UTC)
	st, err := svc.GetStats(ctx, school, testutil.Date(2026, time.March, 15))
	require.NoError(t, err)

	assert.True(t, st.Pendiente.Equal(testutil.Dec("514")), "pendiente %s", st.Pendiente)
	assert.True(t, st.Cobrado.Equal(testutil.Dec("450")), "cobrado %s", st.Cobrado)
	assert.True(t, st.MoraTotal.Equal(testutil.Dec("14")), "mora %s", st.MoraTotal)
	assert.EqualValues(t, 1, st.Vencidos)
	assert.EqualValues(t, 3, st.Entradas)

	// before any due date nothing is overdue
	st, err = svc.GetStats(ctx, school, testutil.Date(2026, time.January, 1))
	require.NoError(t, err)
	assert.Zero(t, st.Vencidos)

	byConcepto, err := svc.GetStatsByConcepto(ctx, school, testutil.Date(2026, time.March, 15))
	require.NoError(t, err)
	require.Len(t, byConcepto, 2)
	assert.Equal(t, "Matrícula", byConcepto[0].ConceptoNombre)
	assert.True(t, byConcepto[0].Cobrado.Equal(testutil.Dec("350")))
	assert.True(t, byConcepto[0].Pendiente.IsZero())
	assert.Equal(t, pension.ConceptoID, byConcepto[1].ConceptoID)
	assert.True(t, byConcepto[1].Pendiente.Equal(testutil.Dec("514")))
	assert.EqualValues(t, 1, byConcepto[1].Vencidos)
	assert.EqualValues(t, 2, byConcepto[1].Entradas)
}

func TestGetStatsEmptySchool(t *testing.T) {
	db := testutil.OpenDB(t)
	st, err := New(db, time.UTC).GetStats(context.Background(), uuid.New(), testutil.Date(2026, time.March, 1))
	require.NoError(t, err)
	assert.True(t, st.Pendiente.IsZero())
	assert.True(t, st.Cobrado.IsZero())
	assert.Zero(t, st.Entradas)
}

func TestGetStatsAccruesLateFeesOnRead(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()

	pension := testutil.CreateConcepto(t, db, school, "Pensión", "300", "2")
	st := testutil.CreateStudent(t, db, school, "A-1")
	entry := testutil.CreateEntry(t, db, school, st.StudentID, pension.ConceptoID, testutil.Date(2025, time.March, 5), "300")

	svc := New(db, time.UTC)
	svc.Now = testutil.FixedClock(testutil.Date(2025, time.March, 20), time.UTC)

	stats, err := svc.GetStats(ctx, school, testutil.Date(2025, time.March, 10))
	require.NoError(t, err)
	assert.True(t, stats.MoraTotal.Equal(testutil.Dec("10")), "mora %s", stats.MoraTotal)
	assert.True(t, stats.Pendiente.Equal(testutil.Dec("310")), "pendiente %s", stats.Pendiente)
	assert.EqualValues(t, 1, stats.Vencidos)
	assert.True(t, testutil.ReloadEntry(t, db, entry.CronogramaID).CronogramaMoraAcumulada.Equal(testutil.Dec("10")))

	// a date past today accrues only up to today
	byConcepto, err := svc.GetStatsByConcepto(ctx, school, testutil.Date(2025, time.April, 30))
	require.NoError(t, err)
	require.Len(t, byConcepto, 1)
	assert.True(t, byConcepto[0].MoraTotal.Equal(testutil.Dec("30")), "mora %s", byConcepto[0].MoraTotal)
	assert.True(t, byConcepto[0].Pendiente.Equal(testutil.Dec("330")))

	// an earlier date never lowers a stored fee
	stats, err = svc.GetStats(ctx, school, testutil.Date(2025, time.March, 6))
	require.NoError(t, err)
	assert.True(t, stats.MoraTotal.Equal(testutil.Dec("30")))
}
