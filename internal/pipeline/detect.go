package pipeline

import (
	"bytes"
	"strings"
)

type DetectResult struct {
	IsNFe  bool
	Score  float64
	Reason string
}

var nfeMarkers = []struct {
	token  []byte
	weight float64
}{
	{[]byte("<infNFe"), 0.5},
	{[]byte("portalfiscal.inf.br/nfe"), 0.3},
	{[]byte("<nfeProc"), 0.2},
	{[]byte("<NFe"), 0.2},
	{[]byte("<emit"), 0.1},
	{[]byte("<nNF"), 0.1},
}

// DetectNFe decides whether a mail attachment is an NF-e XML document worth
// sending to the extractor.
func DetectNFe(fileName, contentType string, content []byte) DetectResult {
	name := strings.ToLower(strings.TrimSpace(fileName))
	ct := strings.ToLower(contentType)

	score := 0.0
	if strings.HasSuffix(name, ".xml") {
		score += 0.2
	}
	if strings.Contains(ct, "xml") {
		score += 0.1
	}
	for _, m := range nfeMarkers {
		if bytes.Contains(content, m.token) {
			score += m.weight
		}
	}
	if score > 1 {
		score = 1
	}

	isNFe := score >= 0.6
	reason := "rules_negative"
	if isNFe {
		reason = "rules_positive"
	}
	return DetectResult{IsNFe: isNFe, Score: score, Reason: reason}
}
