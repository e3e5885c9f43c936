package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	conceptoModel "colegio_backend/internals/features/finance/conceptos/model"
	"colegio_backend/internals/features/finance/cronogramas/model"
	studentModel "colegio_backend/internals/features/students/model"
	"colegio_backend/internals/testutil"
)

func newLedger(db *gorm.DB, today time.Time) *Service {
	svc := New(db, time.UTC)
	svc.Now = testutil.FixedClock(today, time.UTC)
	return svc
}

func TestMoraPara(t *testing.T) {
	venc := testutil.Date(2026, time.March, 1)
	rate := testutil.Dec("1.25")

	tests := []struct {
		name string
		asOf time.Time
		rate decimal.Decimal
		want string
	}{
		{"before due date", testutil.Date(2026, time.February, 20), rate, "0"},
		{"on due date", venc, rate, "0"},
		{"one day late", testutil.Date(2026, time.March, 2), rate, "1.25"},
		{"ten days late", testutil.Date(2026, time.March, 11), rate, "12.5"},
		{"across month end", testutil.Date(2026, time.April, 1), rate, "38.75"},
		{"no rate", testutil.Date(2026, time.April, 1), decimal.Zero, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoraPara(venc, tt.asOf, tt.rate)
			assert.True(t, got.Equal(testutil.Dec(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestGenerateForCohortIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newLedger(db, testutil.Date(2026, time.March, 1))
	ctx := context.Background()
	school := uuid.New()

	c := testutil.CreateConcepto(t, db, school, "Pensión Marzo", "300", "1")
	testutil.CreateStudent(t, db, school, "A-1")
	testutil.CreateStudent(t, db, school, "A-2")
	retirado := testutil.CreateStudent(t, db, school, "A-3")
	require.NoError(t, db.Model(&retirado).Update("student_estado", studentModel.StudentRetirado).Error)
	testutil.CreateStudent(t, db, uuid.New(), "B-1") // other school

	in := GenerateInput{ConceptoID: c.ConceptoID, FechaVencimiento: testutil.Date(2026, time.March, 31)}
	res, err := svc.GenerateForCohort(ctx, school, in)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Creados)
	assert.EqualValues(t, 0, res.Omitidos)

	res, err = svc.GenerateForCohort(ctx, school, in)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Creados)
	assert.EqualValues(t, 2, res.Omitidos)

	list, total, err := svc.List(ctx, school, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, e := range list {
		assert.True(t, e.CronogramaMonto.Equal(testutil.Dec("300")))
		assert.Equal(t, 2026, e.CronogramaAnioAcademico)
		assert.False(t, e.CronogramaPagado)
	}
}

func TestGenerateForCohortOverridesAndSection(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newLedger(db, testutil.Date(2026, time.March, 1))
	school := uuid.New()
	section := uuid.New()

	c := testutil.CreateConcepto(t, db, school, "Taller", "50", "0")
	inSection := testutil.CreateStudent(t, db, school, "A-1")
	require.NoError(t, db.Model(&inSection).Update("student_section_id", section).Error)
	testutil.CreateStudent(t, db, school, "A-2")

	monto := testutil.Dec("45.50")
	anio := 2025
	res, err := svc.GenerateForCohort(context.Background(), school, GenerateInput{
		ConceptoID:       c.ConceptoID,
		Monto:            &monto,
		FechaVencimiento: testutil.Date(2026, time.January, 15),
		AnioAcademico:    &anio,
		SectionID:        &section,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Creados)

	list, _, err := svc.List(context.Background(), school, ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, inSection.StudentID, list[0].CronogramaStudentID)
	assert.True(t, list[0].CronogramaMonto.Equal(monto))
	assert.Equal(t, 2025, list[0].CronogramaAnioAcademico)
}

func TestGenerateForCohortRejectsInactiveOrUnknownConcepto(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := newLedger(db, testutil.Date(2026, time.March, 1))
	school := uuid.New()
	testutil.CreateStudent(t, db, school, "A-1")

	c := testutil.CreateConcepto(t, db, school, "Antiguo", "100", "0")
	require.NoError(t, db.Model(&c).Update("concepto_estado", conceptoModel.ConceptoDesactivado).Error)

	venc := testutil.Date(2026, time.March, 31)
	_, err := svc.GenerateForCohort(context.Background(), school, GenerateInput{ConceptoID: c.ConceptoID, FechaVencimiento: venc})
	assert.ErrorIs(t, err, ErrConceptoInactivo)

	_, err = svc.GenerateForCohort(context.Background(), uuid.New(), GenerateInput{ConceptoID: c.ConceptoID, FechaVencimiento: venc})
	assert.ErrorIs(t, err, ErrConceptoNotFound)

	var n int64
	require.NoError(t, db.Model(&model.CronogramaPago{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAccrueLateFeesIsMonotonic(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()
	svc := newLedger(db, testutil.Date(2026, time.March, 11))

	conMora := testutil.CreateConcepto(t, db, school, "Pensión", "300", "1")
	sinMora := testutil.CreateConcepto(t, db, school, "Matrícula", "350", "0")
	st := testutil.CreateStudent(t, db, school, "A-1")
	venc := testutil.Date(2026, time.March, 1)

	late := testutil.CreateEntry(t, db, school, st.StudentID, conMora.ConceptoID, venc, "300")
	noRate := testutil.CreateEntry(t, db, school, st.StudentID, sinMora.ConceptoID, venc, "350")
	notDue := testutil.CreateEntry(t, db, school, st.StudentID, conMora.ConceptoID, testutil.Date(2026, time.March, 31), "300")

	res, err := svc.AccrueLateFees(ctx, &school, svc.Today())
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Revisadas)
	assert.EqualValues(t, 1, res.Actualizadas)

	e := testutil.ReloadEntry(t, db, late.CronogramaID)
	assert.True(t, e.CronogramaMoraAcumulada.Equal(testutil.Dec("10")), "mora %s", e.CronogramaMoraAcumulada)
	assert.True(t, e.Saldo().Equal(testutil.Dec("310")))
	require.NotNil(t, e.CronogramaMoraCalculadaAl)

	// same day again: nothing changes
	res, err = svc.AccrueLateFees(ctx, &school, svc.Today())
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Actualizadas)

	// an earlier as-of date never lowers the stored fee
	_, err = svc.AccrueLateFees(ctx, nil, testutil.Date(2026, time.March, 5))
	require.NoError(t, err)
	e = testutil.ReloadEntry(t, db, late.CronogramaID)
	assert.True(t, e.CronogramaMoraAcumulada.Equal(testutil.Dec("10")))

	// later date raises it
	_, err = svc.AccrueLateFees(ctx, nil, testutil.Date(2026, time.March, 16))
	require.NoError(t, err)
	e = testutil.ReloadEntry(t, db, late.CronogramaID)
	assert.True(t, e.CronogramaMoraAcumulada.Equal(testutil.Dec("15")))

	assert.True(t, testutil.ReloadEntry(t, db, noRate.CronogramaID).CronogramaMoraAcumulada.IsZero())
	assert.True(t, testutil.ReloadEntry(t, db, notDue.CronogramaID).CronogramaMoraAcumulada.IsZero())
}

func TestAccrueLateFeesSkipsPaidEntries(t *testing.T) {
	db := testutil.OpenDB(t)
	school := uuid.New()
	svc := newLedger(db, testutil.Date(2026, time.February, 20))

	c := testutil.CreateConcepto(t, db, school, "Pensión", "300", "1")
	st := testutil.CreateStudent(t, db, school, "A-1")
	e := testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 1), "300")

	_, err := svc.RegisterManualPayment(context.Background(), school, e.CronogramaID, testutil.Dec("300"), uuid.New())
	require.NoError(t, err)

	res, err := svc.AccrueLateFees(context.Background(), &school, testutil.Date(2026, time.April, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.Revisadas)
	assert.True(t, testutil.ReloadEntry(t, db, e.CronogramaID).CronogramaMoraAcumulada.IsZero())
}

func TestManualPaymentSettlesEntry(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()
	staff := uuid.New()
	svc := newLedger(db, testutil.Date(2026, time.February, 20))

	c := testutil.CreateConcepto(t, db, school, "Pensión", "300", "1")
	st := testutil.CreateStudent(t, db, school, "A-1")
	e := testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 1), "300")

	got, err := svc.RegisterManualPayment(ctx, school, e.CronogramaID, testutil.Dec("100"), staff)
	require.NoError(t, err)
	assert.False(t, got.CronogramaPagado)
	assert.True(t, got.Saldo().Equal(testutil.Dec("200")))

	_, err = svc.RegisterManualPayment(ctx, school, e.CronogramaID, testutil.Dec("200.01"), staff)
	assert.ErrorIs(t, err, ErrSobrepago)

	got, err = svc.RegisterManualPayment(ctx, school, e.CronogramaID, testutil.Dec("200"), staff)
	require.NoError(t, err)
	assert.True(t, got.CronogramaPagado)
	assert.NotNil(t, got.CronogramaPagadoAt)

	_, err = svc.RegisterManualPayment(ctx, school, e.CronogramaID, testutil.Dec("1"), staff)
	assert.ErrorIs(t, err, ErrYaPagado)

	pagos, err := svc.Pagos(ctx, e.CronogramaID)
	require.NoError(t, err)
	require.Len(t, pagos, 2)
	assert.Equal(t, model.OrigenManual, pagos[0].PagoOrigen)

	stored := testutil.ReloadEntry(t, db, e.CronogramaID)
	assert.True(t, stored.CronogramaMontoPagado.Equal(testutil.Dec("300")))
	assert.True(t, stored.CronogramaPagado)
}

func TestPaymentIncludesLateFeeAccruedUpToToday(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()
	// five days late, never accrued by the job
	svc := newLedger(db, testutil.Date(2026, time.March, 6))

	c := testutil.CreateConcepto(t, db, school, "Pensión", "300", "2")
	st := testutil.CreateStudent(t, db, school, "A-1")
	e := testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 1), "300")

	_, err := svc.RegisterManualPayment(ctx, school, e.CronogramaID, testutil.Dec("300"), uuid.New())
	require.NoError(t, err)

	stored := testutil.ReloadEntry(t, db, e.CronogramaID)
	assert.True(t, stored.CronogramaMoraAcumulada.Equal(testutil.Dec("10")))
	assert.False(t, stored.CronogramaPagado)
	assert.True(t, stored.Saldo().Equal(testutil.Dec("10")))
}

func TestPaymentRejectsInvalidAmountsAndForeignSchool(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()
	svc := newLedger(db, testutil.Date(2026, time.February, 1))

	c := testutil.CreateConcepto(t, db, school, "Pensión", "300", "0")
	st := testutil.CreateStudent(t, db, school, "A-1")
	e := testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 1), "300")

	_, err := svc.RegisterManualPayment(ctx, school, e.CronogramaID, testutil.Dec("0"), uuid.New())
	assert.Error(t, err)
	_, err = svc.RegisterManualPayment(ctx, school, e.CronogramaID, testutil.Dec("10.001"), uuid.New())
	assert.Error(t, err)
	_, err = svc.RegisterManualPayment(ctx, uuid.New(), e.CronogramaID, testutil.Dec("10"), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, testutil.ReloadEntry(t, db, e.CronogramaID).CronogramaMontoPagado.IsZero())
}

func TestAdjustRecomputesPaidFlag(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()
	svc := newLedger(db, testutil.Date(2026, time.February, 1))

	c := testutil.CreateConcepto(t, db, school, "Pensión", "300", "0")
	st := testutil.CreateStudent(t, db, school, "A-1")
	e := testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 1), "300")
	_, err := svc.RegisterManualPayment(ctx, school, e.CronogramaID, testutil.Dec("250"), uuid.New())
	require.NoError(t, err)

	lower := testutil.Dec("250")
	got, err := svc.Adjust(ctx, school, e.CronogramaID, AdjustInput{Monto: &lower})
	require.NoError(t, err)
	assert.True(t, got.CronogramaPagado)

	higher := testutil.Dec("280")
	venc := testutil.Date(2026, time.April, 1)
	got, err = svc.Adjust(ctx, school, e.CronogramaID, AdjustInput{Monto: &higher, FechaVencimiento: &venc})
	require.NoError(t, err)
	assert.False(t, got.CronogramaPagado)
	assert.Nil(t, got.CronogramaPagadoAt)
	assert.True(t, got.Saldo().Equal(testutil.Dec("30")))
	assert.True(t, got.CronogramaFechaVencimiento.Equal(venc))

	tooLow := testutil.Dec("100")
	_, err = svc.Adjust(ctx, school, e.CronogramaID, AdjustInput{Monto: &tooLow})
	assert.ErrorIs(t, err, ErrAjusteInvalido)
}

func TestDeleteOnlyWithoutMovements(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()
	svc := newLedger(db, testutil.Date(2026, time.February, 1))

	c := testutil.CreateConcepto(t, db, school, "Pensión", "300", "0")
	st := testutil.CreateStudent(t, db, school, "A-1")
	clean := testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 1), "300")
	paid := testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.April, 1), "300")
	_, err := svc.RegisterManualPayment(ctx, school, paid.CronogramaID, testutil.Dec("10"), uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, school, clean.CronogramaID))
	_, err = svc.Get(ctx, school, clean.CronogramaID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, school, paid.CronogramaID), ErrTieneMovimientos)
}

func TestListFiltersByEstado(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()
	svc := newLedger(db, testutil.Date(2026, time.March, 15))

	c := testutil.CreateConcepto(t, db, school, "Pensión", "300", "0")
	st := testutil.CreateStudent(t, db, school, "A-1")
	overdue := testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 1), "300")
	testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.April, 1), "300")
	paid := testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.February, 1), "300")
	_, err := svc.RegisterManualPayment(ctx, school, paid.CronogramaID, testutil.Dec("300"), uuid.New())
	require.NoError(t, err)

	_, total, err := svc.List(ctx, school, ListFilter{Estado: "pendiente"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	list, total, err := svc.List(ctx, school, ListFilter{Estado: "vencido"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, overdue.CronogramaID, list[0].CronogramaID)

	_, total, err = svc.List(ctx, school, ListFilter{Estado: "pagado"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestReadsAccrueLateFees(t *testing.T) {
	db := testutil.OpenDB(t)
	ctx := context.Background()
	school := uuid.New()
	svc := newLedger(db, testutil.Date(2026, time.March, 11))

	c := testutil.CreateConcepto(t, db, school, "Pensión", "300", "2")
	a := testutil.CreateStudent(t, db, school, "A-1")
	b := testutil.CreateStudent(t, db, school, "A-2")
	first := testutil.CreateEntry(t, db, school, a.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 1), "300")
	second := testutil.CreateEntry(t, db, school, b.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 6), "300")

	e, err := svc.Get(ctx, school, first.CronogramaID)
	require.NoError(t, err)
	assert.True(t, e.CronogramaMoraAcumulada.Equal(testutil.Dec("20")), "mora %s", e.CronogramaMoraAcumulada)
	assert.True(t, testutil.ReloadEntry(t, db, first.CronogramaID).CronogramaMoraAcumulada.Equal(testutil.Dec("20")))

	list, _, err := svc.List(ctx, school, ListFilter{StudentIDs: []uuid.UUID{b.StudentID}})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.CronogramaID, list[0].CronogramaID)
	assert.True(t, list[0].CronogramaMoraAcumulada.Equal(testutil.Dec("10")), "mora %s", list[0].CronogramaMoraAcumulada)
}
