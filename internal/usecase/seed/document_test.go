package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
documents:
  - text: "Refunds are issued to the original payment method within 5 business days."
    metadata:
      category: Refund
  - text: "Orders ship within 24 hours. Tracking links are emailed on dispatch."
`

func TestParseDocuments(t *testing.T) {
	t.Run("Should decode text and metadata", func(t *testing.T) {
		docs, err := ParseDocuments([]byte(sample))

		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "Refund", docs[0].Metadata["category"])
		assert.Nil(t, docs[1].Metadata)
	})

	t.Run("Should reject blank text", func(t *testing.T) {
		_, err := ParseDocuments([]byte("documents:\n  - text: \"  \"\n"))
		assert.Error(t, err)
	})

	t.Run("Should reject invalid YAML", func(t *testing.T) {
		_, err := ParseDocuments([]byte("documents: ["))
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	docs, err := LoadFile(path)

	require.NoError(t, err)
	assert.Len(t, docs, 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
