package valores

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		name  string
		in    any
		scale int32
		want  string
	}{
		{"br com milhar", "1.234,56", 2, "1234.56"},
		{"br arredonda half up", "0,125", 2, "0.13"},
		{"br negativo arredonda para longe do zero", "-0,125", 2, "-0.13"},
		{"espacos", "  10,5 ", 2, "10.5"},
		{"int", 7, 4, "7"},
		{"float", 1234.565, 2, "1234.57"},
		{"decimal", decimal.RequireFromString("2.00005"), 4, "2.0001"},
		{"sem escala", "1,23456", SemEscala, "1.23456"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDecimal(tc.in, tc.scale)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(*got), "got %s", got)
		})
	}
}

func TestParseDecimalVazio(t *testing.T) {
	for _, in := range []any{nil, "", "   ", "None", "none", (*decimal.Decimal)(nil)} {
		got, err := ParseDecimal(in, 2)
		assert.NoError(t, err)
		assert.Nil(t, got, "entrada %#v", in)
	}
}

func TestParseDecimalMalformado(t *testing.T) {
	_, err := ParseDecimal("12,3,4", 2)
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "12,3,4", fe.Valor)

	_, err = ParseDecimal("abc", 2)
	assert.True(t, errors.As(err, &fe))

	_, err = ParseDecimal(struct{}{}, 2)
	assert.True(t, errors.As(err, &fe))

	for _, f := range []any{math.NaN(), math.Inf(1), math.Inf(-1), float32(math.Inf(1))} {
		got, err := ParseDecimal(f, 2)
		assert.Nil(t, got)
		assert.True(t, errors.As(err, &fe), "entrada %v", f)
	}
}

func TestParseDecimalOrZero(t *testing.T) {
	d, err := ParseDecimalOrZero("xx", 2)
	assert.Error(t, err)
	assert.True(t, d.IsZero())

	d, err = ParseDecimalOrZero("", 2)
	assert.NoError(t, err)
	assert.True(t, d.IsZero())
}

func TestParseDecimalLenient(t *testing.T) {
	assert.Equal(t, 0.5081, ParseDecimalLenient("0.5081"))
	assert.Equal(t, 1234.56, ParseDecimalLenient("1.234,56"))
	assert.Equal(t, 12.5, ParseDecimalLenient("12,5"))
	assert.Equal(t, 0.0, ParseDecimalLenient("lixo"))
	assert.Equal(t, 0.0, ParseDecimalLenient(""))
}

func TestFormatBR(t *testing.T) {
	assert.Equal(t, "1.234,56", FormatBR(decimal.RequireFromString("1234.56"), 2))
	assert.Equal(t, "1.234.567,0000", FormatBR(decimal.RequireFromString("1234567"), 4))
	assert.Equal(t, "-987,65", FormatBR(decimal.RequireFromString("-987.645"), 2))
	assert.Equal(t, "0,00", FormatBR(decimal.Zero, 2))
	assert.Equal(t, "100", FormatBR(decimal.NewFromInt(100), 0))
}

func TestFormatBRIdaEVolta(t *testing.T) {
	for _, s := range []string{"0", "0.01", "61.73", "1234.56", "-1234567.89", "999999.99"} {
		d := decimal.RequireFromString(s)
		back, err := ParseDecimal(FormatBR(d, 2), 2)
		require.NoError(t, err)
		assert.True(t, d.Equal(*back), "%s -> %s -> %s", s, FormatBR(d, 2), back)
	}
}

func TestParseData(t *testing.T) {
	want := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"01/02/2024", "2024-02-01", " 01/02/2024 13:45:00", "2024-02-01T10:00:00Z", "20240201"} {
		got, err := ParseData(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseData("31/31/2024")
	var fe *FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestCompetencia(t *testing.T) {
	d := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03", Competencia(d))
	assert.Equal(t, "Mar-2024", CompetenciaBR(d))
	assert.Equal(t, "Dez-2023", CompetenciaBRDe("2023-12"))
	assert.Equal(t, "", CompetenciaBRDe("xx"))
	assert.Equal(t, "", Competencia(time.Time{}))
	assert.Equal(t, "2024-03-15", DataISO(d))
}
