package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	actionLabelRe = regexp.MustCompile(`(?i)^A[cç][aã]o:\s*(.*)`)
	articleRe     = regexp.MustCompile(`(?i)^Art\.?\s*(6|7|8)\s*º?\s*(?:\((\d+)\))?\s*:\s*(.*)`)
	digitsRe      = regexp.MustCompile(`[0-9]+`)
)

// capturePatterns is the ordered label table for item fields. Two labels may
// feed the same key ("Qtd. Planejada" and "Quantidade Planejada" are the same
// field in different document vintages).
var capturePatterns = []struct {
	key     string
	pattern *regexp.Regexp
}{
	{"bem", regexp.MustCompile(`(?i)^(?:Bem|Material)/Servi[cç]o:\s*(.*)`)},
	{"descricao", regexp.MustCompile(`(?i)^Descri[cç][aã]o:\s*(.*)`)},
	{"destinacao", regexp.MustCompile(`(?i)^Destina[cç][aã]o:\s*(.*)`)},
	{"unidade", regexp.MustCompile(`(?i)^Unidade de Medida:\s*(.*)`)},
	{"quantidade", regexp.MustCompile(`(?i)^Qtd\.?\s*Planejada:\s*(.*)`)},
	{"quantidade", regexp.MustCompile(`(?i)^Quantidade Planejada:\s*(.*)`)},
	{"natureza", regexp.MustCompile(`(?i)^Natureza\s*\(ND\):\s*(.*)`)},
	{"instituicao", regexp.MustCompile(`(?i)^Institui[cç][aã]o:\s*(.*)`)},
	{"valor_total", regexp.MustCompile(`(?i)^Valor Total:\s*(.*)`)},
}

// stopPatterns terminate accumulation of the preceding free-text field
// without opening a new one. They mark where the boilerplate value block of
// an item begins.
var stopPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^C[oó]d\.?\s*Senasp:`),
	regexp.MustCompile(`(?i)^Valor Origin[aá]rio Planejado:`),
	regexp.MustCompile(`(?i)^Valor Suplementar Planejado:`),
	regexp.MustCompile(`(?i)^Valor Rendimento Planejado:`),
}

// Fields is the flat record extracted from one item's raw line group. All
// values are whitespace-collapsed and dash-blanked; missing labels yield "".
type Fields struct {
	Acao        string
	Art         string
	ArtNum      string
	Bem         string
	Descricao   string
	Destinacao  string
	Unidade     string
	Quantidade  string
	Natureza    string
	Instituicao string
	ValorTotal  string
}

// ExtractFields applies the label-driven state machine to one item's raw
// lines. A line matching no label while a field is active continues that
// field; lines before the first recognized label are dropped.
func ExtractFields(lines []string) Fields {
	buffers := make(map[string][]string)
	artNum := ""
	active := ""

	appendTo := func(key, text string) {
		if text != "" {
			buffers[key] = append(buffers[key], text)
		}
	}

	for _, line := range lines {
		stopped := false
		for _, stop := range stopPatterns {
			if stop.MatchString(line) {
				active = ""
				stopped = true
				break
			}
		}
		if stopped {
			continue
		}

		if m := actionLabelRe.FindStringSubmatch(line); m != nil {
			active = "acao"
			appendTo(active, strings.TrimSpace(m[1]))
			continue
		}

		if m := articleRe.FindStringSubmatch(line); m != nil {
			active = "art"
			appendTo(active, strings.TrimSpace(m[3]))
			artNum = m[1]
			continue
		}

		matched := false
		for _, cp := range capturePatterns {
			if m := cp.pattern.FindStringSubmatch(line); m != nil {
				active = cp.key
				appendTo(active, strings.TrimSpace(m[1]))
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		if active != "" {
			appendTo(active, line)
		}
	}

	join := func(key string) string {
		return BlankDashOnly(strings.Join(buffers[key], " "))
	}
	return Fields{
		Acao:        join("acao"),
		Art:         join("art"),
		ArtNum:      artNum,
		Bem:         join("bem"),
		Descricao:   join("descricao"),
		Destinacao:  join("destinacao"),
		Unidade:     join("unidade"),
		Quantidade:  join("quantidade"),
		Natureza:    join("natureza"),
		Instituicao: join("instituicao"),
		ValorTotal:  join("valor_total"),
	}
}

// ParseQuantity strips non-digits and parses what remains. The boolean is
// false when the value carries no digits at all.
func ParseQuantity(value string) (int, bool) {
	digits := strings.Join(digitsRe.FindAllString(value, -1), "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ComposeMaterial folds the material, description and destination texts into
// the single-column rendering used when the template has no dedicated
// description/destination columns. Empty parts are omitted.
func ComposeMaterial(bem, descricao, destinacao string) string {
	var parts []string
	if bem != "" {
		parts = append(parts, "Bem/Serviço: "+bem)
	}
	if descricao != "" {
		parts = append(parts, "Descrição: "+descricao)
	}
	if destinacao != "" {
		parts = append(parts, "Destinação: "+destinacao)
	}
	return strings.Join(parts, " | ")
}
