package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDocuments(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "a.XML")
	big := filepath.Join(dir, "b.xml")
	other := filepath.Join(dir, "c.pdf")
	require.NoError(t, os.WriteFile(small, []byte("<NFe/>"), 0o644))
	require.NoError(t, os.WriteFile(big, make([]byte, 64), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("%PDF"), 0o644))

	docs, err := ReadDocuments([]string{small, big}, 0)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.XML", docs[0].Name)
	assert.Equal(t, []byte("<NFe/>"), docs[0].Content)

	_, err = ReadDocuments([]string{small, big}, 32)
	assert.ErrorContains(t, err, "too large")

	_, err = ReadDocuments([]string{other}, 0)
	assert.ErrorContains(t, err, "not an xml file")

	_, err = ReadDocuments([]string{filepath.Join(dir, "missing.xml")}, 0)
	assert.Error(t, err)
}
