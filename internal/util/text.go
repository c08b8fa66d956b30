package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

type abbreviation struct {
	word  string
	short string
}

// Applied in order; a word takes the first rule it ends with, so "GRUA" becomes
// "GR." while "AVENIDAS" keeps its trailing letter and is left alone.
var abbreviations = []abbreviation{
	{"AVENIDA", "AV."},
	{"RUA", "R."},
	{"RODOVIA", "ROD."},
	{"TRAVESSA", "TRAV."},
	{"ESTRADA", "EST."},
	{"PRACA", "PÇA."},
	{"PRAÇA", "PÇA."},
	{"SERVIÇOS", "SERV."},
	{"COMÉRCIO", "COM."},
}

// NormalizeText uppercases label text (pt-BR casing) and shortens the common
// address and company words so they fit the fixed label fields.
func NormalizeText(input string) string {
	if input == "" {
		return ""
	}
	s := cases.Upper(language.BrazilianPortuguese).String(norm.NFC.String(input))

	var out strings.Builder
	out.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); {
		if !isWordRune(runes[i]) {
			out.WriteRune(runes[i])
			i++
			continue
		}
		j := i
		for j < len(runes) && isWordRune(runes[j]) {
			j++
		}
		out.WriteString(abbreviate(string(runes[i:j])))
		i = j
	}
	return out.String()
}

func abbreviate(word string) string {
	for _, a := range abbreviations {
		if stem, ok := strings.CutSuffix(word, a.word); ok {
			return stem + a.short
		}
	}
	return word
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.Is(unicode.Mn, r)
}

// NormalizeTaxID keeps only the ASCII digits of a CNPJ/CPF.
func NormalizeTaxID(input string) string {
	var out strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// FormatCNPJ renders a 14 digit tax id as 00.000.000/0000-00; anything else is
// returned as given.
func FormatCNPJ(taxID string) string {
	d := NormalizeTaxID(taxID)
	if len(d) != 14 {
		return taxID
	}
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
}
