// Package parser turns the line stream extracted from a Plano de Aplicação
// document into structured goal, item and narrative records. The source format
// has no grammar, only positional label conventions, so everything here is a
// label-driven accumulator over an ordered line sequence.
package parser

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	dashOnlyRe      = regexp.MustCompile(`^[-–—]+$`)
	timestampLineRe = regexp.MustCompile(`^\d{2}/\d{2}/\d{4},`)
	footerDateRe    = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
)

const portalURLPrefix = "https://apps.mj.gov.br/"

// Normalize collapses internal whitespace runs to single spaces and trims.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// BlankDashOnly normalizes text and maps dash-only values ("-", "––") to "".
// A lone run of dashes is the source convention for "not provided".
func BlankDashOnly(text string) string {
	text = Normalize(text)
	if dashOnlyRe.MatchString(text) {
		return ""
	}
	return text
}

// CleanLines drops the noise the text extractor leaves behind: print
// timestamps, the page footer carrying the document title and a date, and
// portal URLs. Blank lines are removed and the rest are trimmed.
func CleanLines(lines []string) []string {
	cleaned := make([]string, 0, len(lines))
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if timestampLineRe.MatchString(line) {
			continue
		}
		if strings.Contains(line, "Planos de Aplicação") && footerDateRe.MatchString(line) {
			continue
		}
		if strings.HasPrefix(line, portalURLPrefix) {
			continue
		}
		cleaned = append(cleaned, line)
	}
	return cleaned
}

// SplitPageText re-breaks raw page text so goal and item markers start their
// own line, then cleans the result. Callers that already hold one entry per
// source line can call CleanLines directly.
func SplitPageText(text string) []string {
	text = strings.ReplaceAll(text, "\f", "\n")
	text = goalMarkerInlineRe.ReplaceAllString(text, "\n$1\n")
	text = itemMarkerInlineRe.ReplaceAllString(text, "\n$1\n")
	return CleanLines(strings.Split(text, "\n"))
}

var (
	goalMarkerInlineRe = regexp.MustCompile(`(?i)(META ESPEC[ÍI]FICA\s+\d+)`)
	itemMarkerInlineRe = regexp.MustCompile(`(?i)(Item\s*\d+\s*(?:Planejado|Aprovado|Cancelado)?)`)
)
