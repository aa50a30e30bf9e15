// Package notificacao envia aos vendedores o extrato de comissões validado.
package notificacao

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stik/comissys/internal/extrato"
	"github.com/stik/comissys/internal/valores"
)

// Destinatarios resolve o e-mail de um vendedor. *config.AppConfig satisfaz.
type Destinatarios interface {
	EmailVendedor(vendedor string) (string, bool)
}

// Mensagem é o extrato já renderizado.
type Mensagem struct {
	Para    string
	Cc      []string
	Assunto string
	Texto   string
	HTML    string
}

func assunto(vendedor string) string {
	return fmt.Sprintf("Extrato de Comissão - %s (Validação)", vendedor)
}

// MontarMensagem renderiza o extrato de um vendedor, agrupado por competência.
func MontarMensagem(para string, cc []string, vendedor string, ls []extrato.Lancamento) Mensagem {
	ordenadas := append([]extrato.Lancamento(nil), ls...)
	sort.SliceStable(ordenadas, func(i, j int) bool {
		if !ordenadas[i].Recebimento.Equal(ordenadas[j].Recebimento) {
			return ordenadas[i].Recebimento.Before(ordenadas[j].Recebimento)
		}
		return ordenadas[i].Documento < ordenadas[j].Documento
	})

	var txt, htm strings.Builder
	fmt.Fprintf(&txt, "Olá %s,\n\nSegue o extrato de comissões validado.\n\n", vendedor)
	fmt.Fprintf(&htm, `<html><body style="font-family: Arial, sans-serif;"><p>Olá %s,</p><p>Segue o extrato de comissões validado.</p>`, html.EscapeString(vendedor))
	htm.WriteString(`<table border="1" cellpadding="4" cellspacing="0"><tr><th>Competência</th><th>Recebimento</th><th>Documento</th><th>Cliente</th><th>Artigo</th><th>Rec. Líquido</th><th>%</th><th>Comissão</th></tr>`)

	total := decimal.Zero
	for _, l := range ordenadas {
		comp := valores.CompetenciaBRDe(l.Competencia)
		receb := l.Recebimento.Format("02/01/2006")
		liq := valores.FormatBR(l.RecebimentoLiquido, valores.EscalaMoeda)
		pct := valores.FormatBR(l.PercentualComissao, valores.EscalaMoeda)
		com := valores.FormatBR(l.ValorComissao, valores.EscalaMoeda)
		total = total.Add(l.ValorComissao)

		fmt.Fprintf(&txt, "%s  %s  Doc %s  %s  %s  R$ %s  %s%%  R$ %s\n",
			comp, receb, l.Documento, l.Cliente, l.Artigo, liq, pct, com)
		fmt.Fprintf(&htm, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			comp, receb, html.EscapeString(l.Documento), html.EscapeString(l.Cliente), html.EscapeString(l.Artigo), liq, pct, com)
	}
	tot := valores.FormatBR(total, valores.EscalaMoeda)
	fmt.Fprintf(&txt, "\nTotal: R$ %s\n", tot)
	fmt.Fprintf(&htm, `<tr><td colspan="7"><b>Total</b></td><td><b>%s</b></td></tr></table></body></html>`, tot)

	return Mensagem{
		Para:    para,
		Cc:      cc,
		Assunto: assunto(vendedor),
		Texto:   txt.String(),
		HTML:    htm.String(),
	}
}
