package comissao

import "strings"

// GrupoDesconhecido é devolvido para UFs fora da tabela; nenhuma faixa usa esse grupo.
const GrupoDesconhecido = 0

// regioesPadrao reproduz a tabela do ERP tal como ele emite a UF (nomes e siglas misturados).
// Não há canonicalização: "Bahia" não é "BAHIA".
var regioesPadrao = map[string]int{
	"BAHIA":               1,
	"ALAGOAS":             1,
	"SERGIPE":             1,
	"PARAIBA":             1,
	"RIO GRANDE DO NORTE": 1,
	"PIAUI":               1,
	"MARANHAO":            1,

	"Santa Catarina":    2,
	"Rio Grande do Sul": 2,

	"Rio de Janeiro": 3,
	"Goiás":          3,
	"SP":             3,
	"Minas Gerais":   3,

	"PE": 4,
	"CE": 5,
}

// TabelaRegioes mapeia UF para grupo de região.
type TabelaRegioes struct {
	grupos map[string]int
}

// NovaTabelaRegioes copia m; se m estiver vazio usa a tabela padrão.
func NovaTabelaRegioes(m map[string]int) *TabelaRegioes {
	if len(m) == 0 {
		m = regioesPadrao
	}
	grupos := make(map[string]int, len(m))
	for uf, g := range m {
		grupos[uf] = g
	}
	return &TabelaRegioes{grupos: grupos}
}

// Grupo devolve o grupo da UF; só espaços nas pontas são ignorados.
func (t *TabelaRegioes) Grupo(uf string) int {
	if g, ok := t.grupos[strings.TrimSpace(uf)]; ok {
		return g
	}
	return GrupoDesconhecido
}
