package fonte

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stik/comissys/internal/logger"
	"github.com/stik/comissys/internal/valores"
)

// CSVFonte lê uma exportação do relatório de títulos recebidos (separador ';',
// números no formato brasileiro). Usada quando não há acesso direto ao ERP.
type CSVFonte struct {
	Path       string
	Resolvedor PercentualResolver
}

func NewCSVFonte(path string, resolvedor PercentualResolver) *CSVFonte {
	return &CSVFonte{Path: path, Resolvedor: resolvedor}
}

func (f *CSVFonte) Buscar(ctx context.Context, escopo Escopo) ([]Linha, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("abrir exportação do ERP: %w", err)
	}
	defer file.Close()
	return LerCSV(ctx, file, escopo, f.Resolvedor)
}

// LerCSV interpreta a exportação e devolve as linhas dentro do escopo. Valores
// numéricos inválidos viram zero e são registrados em log; linhas sem data de
// recebimento válida são descartadas.
func LerCSV(ctx context.Context, r io.Reader, escopo Escopo, res PercentualResolver) ([]Linha, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ler cabeçalho: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, obrigatoria := range []string{"ID", "Vendedor", "Titulo", "Artigo", "Recebimento"} {
		if _, ok := idx[obrigatoria]; !ok {
			return nil, fmt.Errorf("coluna obrigatória ausente: %s", obrigatoria)
		}
	}

	var linhas []Linha
	numLinha := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		numLinha++
		if err != nil {
			return nil, fmt.Errorf("linha %d: %w", numLinha, err)
		}

		campo := func(nome string) string {
			if i, ok := idx[nome]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		numero := func(nome string, scale int32) decimal.Decimal {
			d, err := valores.ParseDecimalOrZero(campo(nome), scale)
			if err != nil {
				logger.L.Warn("Valor numérico inválido na exportação, usando zero",
					"linha", numLinha, "coluna", nome, "erro", err)
			}
			return d
		}
		data := func(nome string) *time.Time {
			s := campo(nome)
			if s == "" {
				return nil
			}
			t, err := valores.ParseData(s)
			if err != nil {
				logger.L.Warn("Data inválida na exportação, ignorada", "linha", numLinha, "coluna", nome, "erro", err)
				return nil
			}
			return &t
		}

		recebimento := data("Recebimento")
		if recebimento == nil {
			logger.L.Warn("Linha sem data de recebimento descartada", "linha", numLinha)
			continue
		}
		vendedor := campo("Vendedor")
		if !escopo.Contem(*recebimento, vendedor) {
			continue
		}

		l := Linha{
			Documento:          documentoNumerico(campo("ID")),
			Vendedor:           vendedor,
			Titulo:             campo("Titulo"),
			Cliente:            campo("Cliente"),
			UF:                 campo("UF"),
			Artigo:             campo("Artigo"),
			LinhaProduto:       campo("Linha"),
			Recebido:           numero("Recebido", valores.EscalaMoeda),
			ICMSST:             numero("ICMSST", valores.EscalaMoeda),
			Frete:              numero("Frete", valores.EscalaMoeda),
			RecebimentoLiquido: numero("Rec Liquido", valores.EscalaMoeda),
			PrazoMedio:         numero("Prazo Médio", valores.EscalaMoeda),
			PrecoMedio:         numero("Preço Médio", valores.EscalaPreco),
			PrecoVenda:         numero("Preço Venda", valores.EscalaPreco),
			MeioPagamento:      campo("M Pagamento"),
			Emissao:            data("Emissão"),
			Vencimento:         data("Vencimento"),
			Recebimento:        *recebimento,
		}
		if s := campo("VendedorID"); s != "" {
			if id, err := strconv.ParseInt(s, 10, 64); err == nil {
				l.VendedorID = &id
			}
		}
		if s := campo("CdObjMae"); s != "" {
			if id, err := strconv.ParseInt(s, 10, 64); err == nil {
				l.ArtigoMaeID = id
			}
		}
		if l.PrecoVenda.IsZero() {
			l.PrecoVenda = l.PrecoMedio
		}

		var informado decimal.NullDecimal
		if s := campo("Percentual_Comissao"); s != "" {
			p, err := valores.ParseDecimal(s, valores.EscalaPercentual)
			if err != nil {
				logger.L.Warn("Percentual inválido na exportação, ignorado", "linha", numLinha, "erro", err)
			} else if p != nil {
				informado = decimal.NullDecimal{Decimal: *p, Valid: true}
			}
		}
		if err := definirPercentualPadrao(ctx, res, &l, informado); err != nil {
			return nil, err
		}
		linhas = append(linhas, l)
	}
	return linhas, nil
}
