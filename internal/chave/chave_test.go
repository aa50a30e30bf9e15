package chave

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stik/comissys/internal/valores"
)

func TestConstruirInvarianteDeFormato(t *testing.T) {
	a, err := Construir(" ABC ", "x", "Y", "seller", "01/02/2024")
	require.NoError(t, err)
	b, err := Construir("abc", "x", "y", "SELLER", "2024-02-01")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, "abc|x|y|seller|2024-02-01", a.String())
}

func TestStringSeparadorDentroDoCampo(t *testing.T) {
	a, err := Construir("10", "tinta|azul", "t", "joao", "05/02/2024")
	require.NoError(t, err)
	b, err := Construir("10", "tinta", "azul|t", "joao", "05/02/2024")
	require.NoError(t, err)
	c, err := Construir("10", `tinta\`, "azul|t", "joao", "05/02/2024")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a.String(), b.String())
	assert.NotEqual(t, b.String(), c.String())
	assert.Equal(t, `10|tinta\|azul|t|joao|2024-02-05`, a.String())
}

func TestConstruirComTime(t *testing.T) {
	d := time.Date(2024, time.February, 1, 15, 30, 0, 0, time.UTC)
	a, err := Construir("1", "Art", "T", "V", d)
	require.NoError(t, err)
	b, err := Construir("1", "art", "t", "v", &d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "2024-02-01", a.Recebimento)
}

func TestConstruirDocumentoRepetidoEmArtigosDiferentes(t *testing.T) {
	a, _ := Construir("100", "Fita A", "NF 100", "Ana", "10/01/2024")
	b, _ := Construir("100", "Fita B", "NF 100", "Ana", "10/01/2024")
	assert.NotEqual(t, a, b)

	set := map[Chave]struct{}{a: {}, b: {}}
	assert.Len(t, set, 2)
}

func TestConstruirDataInvalida(t *testing.T) {
	_, err := Construir("1", "a", "t", "v", "99/99/2024")
	var fe *valores.FormatError
	assert.True(t, errors.As(err, &fe))

	_, err = Construir("1", "a", "t", "v", 42)
	assert.Error(t, err)
}

func TestConstruirSemData(t *testing.T) {
	c, err := Construir("1", "a", "t", "v", "")
	require.NoError(t, err)
	assert.Equal(t, "", c.Recebimento)
}
