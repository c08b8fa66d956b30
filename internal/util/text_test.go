package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"AVENIDA BRASIL", "AV. BRASIL"},
		{"PRAÇA DA SÉ", "PÇA. DA SÉ"},
		{"praca da sé", "PÇA. DA SÉ"},
		{"rua são joão, 12", "R. SÃO JOÃO, 12"},
		{"GRUA", "GR."},
		{"RUAS", "RUAS"},
		{"AVENIDAS", "AVENIDAS"},
		{"ESTRADARUA", "ESTRADAR."},
		{"PRESTAÇÃO DE SERVIÇOS", "PRESTAÇÃO DE SERV."},
		{"Rodovia BR-101 KM 3", "ROD. BR-101 KM 3"},
		{"travessa das flores", "TRAV. DAS FLORES"},
		{"Estrada velha", "EST. VELHA"},
		{"Comércio e Serviços Ltda", "COM. E SERV. LTDA"},
		{"RUA RUA", "R. R."},
		{"AVENIDA,RUA-RODOVIA", "AV.,R.-ROD."},
		{"", ""},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeText(tc.input))
		})
	}
}

func TestNormalizeTextDecomposedInput(t *testing.T) {
	// "PRAÇA" with a combining cedilla.
	assert.Equal(t, "PÇA. XV", NormalizeText("PRAÇA XV"))
}

func TestNormalizeTextIsStable(t *testing.T) {
	in := "Avenida Paulista, 1000"
	once := NormalizeText(in)
	assert.Equal(t, once, NormalizeText(in))
	assert.Equal(t, once, NormalizeText(once))
}

func TestNormalizeTaxID(t *testing.T) {
	assert.Equal(t, "12345678000199", NormalizeTaxID("12.345.678/0001-99"))
	assert.Equal(t, "12345678000199", NormalizeTaxID("12345678000199"))
	assert.Equal(t, "", NormalizeTaxID("n/a"))
}

func TestFormatCNPJ(t *testing.T) {
	assert.Equal(t, "12.345.678/0001-99", FormatCNPJ("12345678000199"))
	assert.Equal(t, "123", FormatCNPJ("123"))
}
