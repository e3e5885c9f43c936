package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"colegio_backend/internals/features/finance/conceptos/dto"
	"colegio_backend/internals/features/finance/conceptos/model"
	helper "colegio_backend/internals/helpers"
	"colegio_backend/internals/testutil"
)

func req(nombre, monto, mora string) dto.ConceptoUpsertRequest {
	return dto.ConceptoUpsertRequest{
		Nombre:        nombre,
		MontoSugerido: testutil.Dec(monto),
		MoraDiaria:    testutil.Dec(mora),
	}
}

func TestUpsertCreatesAndUpdates(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := New(db)
	ctx := context.Background()
	school := uuid.New()

	c, created, err := svc.Upsert(ctx, school, req("  Pensión Marzo ", "300", "1.50"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Pensión Marzo", c.ConceptoNombre)
	assert.Equal(t, "PEN", c.ConceptoMoneda)
	assert.Equal(t, model.ConceptoActivo, c.ConceptoEstado)

	upd := req("Pensión Marzo", "320.00", "2")
	upd.ID = &c.ConceptoID
	c2, created, err := svc.Upsert(ctx, school, upd)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, c.ConceptoID, c2.ConceptoID)

	got, err := svc.Get(ctx, school, c.ConceptoID)
	require.NoError(t, err)
	assert.True(t, got.ConceptoMontoSugerido.Equal(testutil.Dec("320")))
	assert.True(t, got.ConceptoMoraDiaria.Equal(testutil.Dec("2")))
}

func TestUpsertRejectsDuplicateNameIgnoringCaseAndAccents(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := New(db)
	ctx := context.Background()
	school := uuid.New()

	_, _, err := svc.Upsert(ctx, school, req("Pensión Marzo", "300", "0"))
	require.NoError(t, err)

	_, _, err = svc.Upsert(ctx, school, req("PENSION   marzo", "250", "0"))
	assert.ErrorIs(t, err, ErrNombreDuplicado)

	// same name in another school is fine
	_, _, err = svc.Upsert(ctx, uuid.New(), req("Pension Marzo", "250", "0"))
	assert.NoError(t, err)
}

func TestUpsertValidatesMoney(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := New(db)
	school := uuid.New()

	cases := map[string]dto.ConceptoUpsertRequest{
		"zero amount":    req("Matrícula", "0", "0"),
		"three decimals": req("Matrícula", "10.005", "0"),
		"negative mora":  req("Matrícula", "10", "-1"),
		"name too short": req("M", "10", "0"),
		"bad currency":   {Nombre: "Matrícula", MontoSugerido: testutil.Dec("10"), Moneda: "SOLES"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Upsert(context.Background(), school, in)
			var fe *helper.FieldErrors
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestUpdateUnknownConcepto(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := New(db)

	in := req("Taller", "50", "0")
	id := uuid.New()
	in.ID = &id
	_, _, err := svc.Upsert(context.Background(), uuid.New(), in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivateKeepsRowAndWarnsWhenInUse(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := New(db)
	ctx := context.Background()
	school := uuid.New()

	c := testutil.CreateConcepto(t, db, school, "Pensión", "300", "1")
	st := testutil.CreateStudent(t, db, school, "A-1")
	testutil.CreateEntry(t, db, school, st.StudentID, c.ConceptoID, testutil.Date(2026, time.March, 31), "300")

	res, err := svc.Deactivate(ctx, school, c.ConceptoID)
	require.NoError(t, err)
	assert.True(t, res.EnUso)
	assert.EqualValues(t, 1, res.Entradas)
	assert.Equal(t, model.ConceptoDesactivado, res.Concepto.ConceptoEstado)

	// deactivating twice is harmless
	res, err = svc.Deactivate(ctx, school, c.ConceptoID)
	require.NoError(t, err)
	assert.Equal(t, model.ConceptoDesactivado, res.Concepto.ConceptoEstado)

	active, err := svc.ListActive(ctx, school)
	require.NoError(t, err)
	assert.Empty(t, active)

	var n int64
	require.NoError(t, db.Model(&model.ConceptoPago{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestDeactivateUnusedConcepto(t *testing.T) {
	db := testutil.OpenDB(t)
	svc := New(db)
	school := uuid.New()
	c := testutil.CreateConcepto(t, db, school, "Uniforme", "80", "0")

	res, err := svc.Deactivate(context.Background(), school, c.ConceptoID)
	require.NoError(t, err)
	assert.False(t, res.EnUso)

	_, err = svc.Deactivate(context.Background(), uuid.New(), c.ConceptoID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNombreKey(t *testing.T) {
	assert.Equal(t, "pension marzo", model.NombreKey("  Pensión   MARZO "))
	assert.Equal(t, model.NombreKey("Matrícula"), model.NombreKey("matricula"))
}
