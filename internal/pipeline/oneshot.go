package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
)

// ReadDocuments loads XML files from disk for one upload batch. Files over
// maxBytes are refused; maxBytes <= 0 disables the limit.
func ReadDocuments(paths []string, maxBytes int64) ([]Document, error) {
	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		if !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil, errors.Newf("not an xml file: %s", path)
		}
		blob, err := readLimited(path, maxBytes)
		if err != nil {
			return nil, err
		}
		docs = append(docs, Document{Name: filepath.Base(path), Content: blob})
	}
	return docs, nil
}

func readLimited(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if maxBytes <= 0 {
		return io.ReadAll(f)
	}
	blob, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(blob)) > maxBytes {
		return nil, errors.Newf("file too large: %s exceeds %d bytes", path, maxBytes)
	}
	return blob, nil
}
