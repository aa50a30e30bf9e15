// Package chave monta a identidade normalizada de uma linha de comissão, usada
// para comparar registros do ERP com o extrato local.
package chave

import (
	"fmt"
	"strings"
	"time"

	"github.com/stik/comissys/internal/valores"
)

// Chave identifica uma linha de comissão. É comparável e pode ser usada como chave de map.
//
// A mesma combinação (documento, artigo, título, vendedor, data) em dois registros
// reais distintos colide; isso é uma limitação conhecida e não é desambiguado aqui.
type Chave struct {
	Documento   string
	Artigo      string
	Titulo      string
	Vendedor    string
	Recebimento string // YYYY-MM-DD
}

// Construir normaliza os campos (trim + minúsculas) e a data de recebimento.
// recebimento aceita time.Time, *time.Time ou string (dia primeiro).
func Construir(documento, artigo, titulo, vendedor string, recebimento any) (Chave, error) {
	data, err := normalizarData(recebimento)
	if err != nil {
		return Chave{}, err
	}
	return Chave{
		Documento:   normalizar(documento),
		Artigo:      normalizar(artigo),
		Titulo:      normalizar(titulo),
		Vendedor:    normalizar(vendedor),
		Recebimento: data,
	}, nil
}

// String é a forma persistida na coluna "chave" do extrato. "|" e "\" dentro
// dos campos são escapados, então chaves diferentes nunca geram a mesma string.
func (c Chave) String() string {
	campos := []string{c.Documento, c.Artigo, c.Titulo, c.Vendedor, c.Recebimento}
	for i, campo := range campos {
		campos[i] = escapar.Replace(campo)
	}
	return strings.Join(campos, "|")
}

var escapar = strings.NewReplacer(`\`, `\\`, "|", `\|`)

func normalizar(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizarData(v any) (string, error) {
	switch d := v.(type) {
	case time.Time:
		return valores.DataISO(d), nil
	case *time.Time:
		if d == nil {
			return "", nil
		}
		return valores.DataISO(*d), nil
	case string:
		if strings.TrimSpace(d) == "" {
			return "", nil
		}
		t, err := valores.ParseData(d)
		if err != nil {
			return "", err
		}
		return valores.DataISO(t), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("tipo de data não suportado: %T", v)
	}
}
