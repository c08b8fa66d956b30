package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectNFe(t *testing.T) {
	full := readFixture(t, "nfe_full.xml")

	cases := []struct {
		name        string
		fileName    string
		contentType string
		content     []byte
		want        bool
	}{
		{"signed nfe", "35240112345678000199550010000001231000001230-procNFe.xml", "application/xml", full, true},
		{"nfe with generic type", "nota.XML", "application/octet-stream", full, true},
		{"nfe without extension", "attachment", "", full, true},
		{"plain xml", "pedido.xml", "text/xml", []byte(`<pedido><item/></pedido>`), false},
		{"pdf danfe", "danfe.pdf", "application/pdf", []byte("%PDF-1.4"), false},
		{"bare infNFe", "nota.xml", "", []byte(`<infNFe><ide/></infNFe>`), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := DetectNFe(tc.fileName, tc.contentType, tc.content)
			assert.Equal(t, tc.want, res.IsNFe)
			assert.LessOrEqual(t, res.Score, 1.0)
		})
	}
}
