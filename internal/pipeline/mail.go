package pipeline

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/jhillyerd/enmime"
)

// MailDocuments is what one raw message contributes to a batch.
type MailDocuments struct {
	Subject   string
	Documents []Document
	// Ignored lists attachment names that did not look like NF-e XML.
	Ignored []string
}

// ExtractNFeFromEmailRaw parses a raw RFC 5322 message and keeps the
// attachments that look like NF-e documents, in message order.
func ExtractNFeFromEmailRaw(raw []byte) (MailDocuments, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return MailDocuments{}, err
	}

	out := MailDocuments{Subject: env.GetHeader("Subject")}
	parts := make([]*enmime.Part, 0, len(env.Attachments)+len(env.Inlines))
	parts = append(parts, env.Attachments...)
	parts = append(parts, env.Inlines...)

	seen := map[string]int{}
	for _, part := range parts {
		filename := strings.TrimSpace(part.FileName)
		if filename == "" {
			filename = "attachment.xml"
		}
		detect := DetectNFe(filename, part.ContentType, part.Content)
		if !detect.IsNFe {
			out.Ignored = append(out.Ignored, filename)
			continue
		}
		seen[filename]++
		if n := seen[filename]; n > 1 {
			filename = strings.TrimSuffix(filename, ".xml") + "-" + strconv.Itoa(n) + ".xml"
		}
		out.Documents = append(out.Documents, Document{Name: filename, Content: part.Content})
	}
	return out, nil
}
