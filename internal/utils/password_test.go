package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashSenha(t *testing.T) {
	hash, err := HashSenha("s3gredo")
	require.NoError(t, err)
	assert.NotEqual(t, "s3gredo", hash)
	assert.True(t, CheckSenha(hash, "s3gredo"))
	assert.False(t, CheckSenha(hash, "outra"))
	assert.False(t, CheckSenha("não é bcrypt", "s3gredo"))
}

func TestGerarSenhaTemporaria(t *testing.T) {
	s, err := GerarSenhaTemporaria(16)
	require.NoError(t, err)
	assert.Len(t, s, 16)
	assert.Regexp(t, `^[a-zA-Z0-9]+$`, s)

	s, err = GerarSenhaTemporaria(0)
	require.NoError(t, err)
	assert.Len(t, s, 12)
}
