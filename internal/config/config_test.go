package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LABEL_WIDTH_MM", "")
	t.Setenv("LABEL_HEIGHT_MM", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100.0, cfg.LabelWidthMM)
	assert.Equal(t, 70.0, cfg.LabelHeightMM)
	assert.Equal(t, int64(5<<20), cfg.MaxDocumentBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LABEL_WIDTH_MM", "150")
	t.Setenv("IMAP_SECURE", "off")
	t.Setenv("MAIL_LISTENER_FETCH_MAX", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 150.0, cfg.LabelWidthMM)
	assert.False(t, cfg.IMAPSecure)
	assert.Equal(t, 20, cfg.MailListenerFetchMax)
}

func TestLoadRejectsInvalidLabelSize(t *testing.T) {
	t.Setenv("LABEL_HEIGHT_MM", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	var cfg Config
	assert.Error(t, cfg.Require("IMAP_HOST", "  "))
	assert.NoError(t, cfg.Require("IMAP_HOST", "imap.example.com"))
}
