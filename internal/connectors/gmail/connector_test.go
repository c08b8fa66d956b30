package gmail

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceivedAt(t *testing.T) {
	assert.Equal(t, "2026-02-08T13:04:05Z", receivedAt("Sun, 08 Feb 2026 10:04:05 -0300", 0))
	assert.Equal(t, "2026-02-08T00:00:00Z", receivedAt("garbage", 1770508800000))
	assert.NotEmpty(t, receivedAt("", 0))
}

func TestDecodeBase64URL(t *testing.T) {
	raw := []byte("Subject: NF-e\r\n\r\n<?xml?>")

	decoded, err := decodeBase64URL(base64.RawURLEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	decoded, err = decodeBase64URL(base64.URLEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	_, err = decodeBase64URL("***")
	assert.Error(t, err)
}
