package helper

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type amountInput struct {
	Monto decimal.Decimal `json:"monto" validate:"money"`
	Mora  decimal.Decimal `json:"mora_diaria" validate:"money_nonneg"`
	Name  string          `json:"nombre" validate:"required,max=10"`
}

func TestMoneyTags(t *testing.T) {
	cases := []struct {
		name   string
		monto  string
		mora   string
		fields []string
	}{
		{"valid", "350.00", "1.5", nil},
		{"zero mora", "0.01", "0", nil},
		{"zero amount", "0", "0", []string{"monto"}},
		{"negative amount", "-10", "0", []string{"monto"}},
		{"three decimals", "10.005", "0.001", []string{"monto", "mora_diaria"}},
		{"negative mora", "10", "-1", []string{"mora_diaria"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(amountInput{
				Monto: decimal.RequireFromString(tc.monto),
				Mora:  decimal.RequireFromString(tc.mora),
				Name:  "Pension",
			})
			if tc.fields == nil {
				assert.NoError(t, err)
				return
			}
			var fe *FieldErrors
			require.True(t, errors.As(err, &fe), "want *FieldErrors, got %v", err)
			keys := make([]string, 0, len(fe.Fields))
			for k := range fe.Fields {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tc.fields, keys)
		})
	}
}

func TestValidationMessagesUseJSONNames(t *testing.T) {
	err := Validate(amountInput{Monto: decimal.NewFromInt(1), Name: ""})
	var fe *FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"is required"}, fe.Fields["nombre"])
	assert.Contains(t, fe.Error(), "nombre: is required")

	err = Validate(amountInput{Monto: decimal.NewFromInt(1), Name: "demasiado largo"})
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"must be at most 10"}, fe.Fields["nombre"])
}

func TestHasAtMostTwoDecimals(t *testing.T) {
	assert.True(t, HasAtMostTwoDecimals(decimal.RequireFromString("10")))
	assert.True(t, HasAtMostTwoDecimals(decimal.RequireFromString("10.50")))
	assert.False(t, HasAtMostTwoDecimals(decimal.RequireFromString("10.501")))
	assert.Equal(t, "10.51", Round2(decimal.RequireFromString("10.505")).StringFixed(2))
}

func parse(t *testing.T, query string, opt Options) Params {
	t.Helper()
	var got Params
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParseFiber(c, "fecha", "asc", opt)
		return nil
	})
	_, err := app.Test(httptest.NewRequest("GET", "/"+query, nil), -1)
	require.NoError(t, err)
	return got
}

func TestParseFiber(t *testing.T) {
	p := parse(t, "", DefaultOpts)
	assert.Equal(t, Params{Page: 1, PerPage: 25, SortBy: "fecha", SortOrder: "asc"}, p)
	assert.Equal(t, 0, p.Offset())

	p = parse(t, "?page=3&limit=10&sort_by=monto&order=DESC", DefaultOpts)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 10, p.Limit())
	assert.Equal(t, 20, p.Offset())
	assert.Equal(t, "monto", p.SortBy)
	assert.Equal(t, "desc", p.SortOrder)

	p = parse(t, "?page=-2&per_page=100000", DefaultOpts)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 200, p.PerPage)

	p = parse(t, "?page=4&per_page=all", ExportOpts)
	assert.True(t, p.All)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10_000, p.PerPage)

	p = parse(t, "?per_page=all", DefaultOpts)
	assert.False(t, p.All)
	assert.Equal(t, 25, p.PerPage)
}

func TestSafeOrderClause(t *testing.T) {
	allowed := map[string]string{"fecha": "fecha_vencimiento", "monto": "monto"}

	clause, err := Params{SortBy: "monto", SortOrder: "asc"}.SafeOrderClause(allowed, "fecha")
	require.NoError(t, err)
	assert.Equal(t, "monto ASC", clause)

	clause, err = Params{SortBy: "monto; DROP TABLE x", SortOrder: "up"}.SafeOrderClause(allowed, "fecha")
	require.NoError(t, err)
	assert.Equal(t, "fecha_vencimiento DESC", clause)

	_, err = Params{}.SafeOrderClause(allowed, "missing")
	assert.Error(t, err)
}

func TestBuildMeta(t *testing.T) {
	m := BuildMeta(51, Params{Page: 2, PerPage: 25})
	assert.Equal(t, 3, m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	m = BuildMeta(0, Params{Page: 1, PerPage: 25})
	assert.Equal(t, 0, m.TotalPages)
	assert.False(t, m.HasNext)
}
