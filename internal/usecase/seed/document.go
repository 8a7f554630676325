package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is one reference document in a seed file.
type Document struct {
	Text     string         `yaml:"text"`
	Metadata map[string]any `yaml:"metadata"`
}

type seedFile struct {
	Documents []Document `yaml:"documents"`
}

// LoadFile reads reference documents from a YAML file.
func LoadFile(path string) ([]Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	return ParseDocuments(data)
}

// ParseDocuments decodes a seed file. Documents with blank text are rejected.
func ParseDocuments(data []byte) ([]Document, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, d := range f.Documents {
		if strings.TrimSpace(d.Text) == "" {
			return nil, fmt.Errorf("document %d: text is required", i)
		}
	}
	return f.Documents, nil
}
