package db

import (
	"strings"
	"testing"
)

func TestIndexBuilder_KnowledgeIndex(t *testing.T) {
	idx, err := NewIndex("customer-inquiries").
		Prefix("inquirydesk:kb:").
		Text("__content").
		Tag("source").
		VectorHNSW("vector", 384, DistanceCosine, 16, 200).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if idx.StorageType != StorageHash {
		t.Errorf("storage = %q, want HASH", idx.StorageType)
	}
	if len(idx.Fields) != 3 {
		t.Fatalf("fields count = %d, want 3", len(idx.Fields))
	}
	f := idx.Fields[2]
	if f.VectorAlgo != VectorHNSW || f.VectorDim != 384 || f.VectorDistance != DistanceCosine {
		t.Errorf("unexpected vector field %+v", f)
	}
	if f.VectorM != 16 || f.VectorEFConstruct != 200 {
		t.Errorf("M/EF = %d/%d, want 16/200", f.VectorM, f.VectorEFConstruct)
	}
}

func TestIndexBuilder_Validation(t *testing.T) {
	tests := []struct {
		name    string
		builder *IndexBuilder
	}{
		{"empty name", NewIndex("").Text("f")},
		{"invalid name", NewIndex("bad name!").Text("f")},
		{"no fields", NewIndex("idx")},
		{"duplicate field", NewIndex("idx").Text("f").Tag("f")},
		{"zero dim", NewIndex("idx").VectorHNSW("vector", 0, DistanceCosine, 16, 200)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.builder.Build(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestIndexDefinition_String(t *testing.T) {
	idx, err := NewIndex("kb").Prefix("kb:").Text("__content").VectorHNSW("vector", 4, DistanceCosine, 0, 0).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := idx.String()
	for _, want := range []string{"FT.CREATE kb", "ON HASH", "PREFIX kb:", "__content TEXT", "vector VECTOR HNSW"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestIsValidIdentifier(t *testing.T) {
	tests := map[string]bool{
		"customer-inquiries": true,
		"inquirydesk:kb:idx": true,
		"with space":         false,
		"":                   false,
		"emoji🙂":             false,
	}
	for in, want := range tests {
		if got := IsValidIdentifier(in); got != want {
			t.Errorf("IsValidIdentifier(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	err := &Error{Op: OpSearch, Err: ErrIndexNotFound}
	if err.Error() != "FT.SEARCH: db: index not found" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != ErrIndexNotFound {
		t.Error("Unwrap mismatch")
	}
}
