package generation

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
)

func TestContextBlock(t *testing.T) {
	tests := []struct {
		name string
		docs []domret.Document
		want string
	}{
		{"none", nil, ""},
		{"one", []domret.Document{{Text: "D1"}}, "D1"},
		{"ordered", []domret.Document{{Text: "D1"}, {Text: "D2"}, {Text: "D3"}}, "D1\n\nD2\n\nD3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContextBlock(tt.docs); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildMessages(t *testing.T) {
	docs := []domret.Document{{Text: "Orders ship in 3 days."}, {Text: "Track at /orders."}}
	msgs := BuildMessages("My order #123 never arrived", docs)

	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != domain.RoleSystem || msgs[1].Role != domain.RoleUser {
		t.Fatalf("unexpected roles %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Content != "My order #123 never arrived" {
		t.Errorf("user message must be the inquiry verbatim, got %q", msgs[1].Content)
	}

	system := msgs[0].Content
	for _, want := range []string{
		"expert customer support",
		"Context:\nOrders ship in 3 days.\n\nTrack at /orders.\n",
		`"category", "urgency", "reply"`,
		"Refund, Order Status, Complaint, Product Question, Technical Issue, Other",
		"Low, Medium, High",
	} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt missing %q:\n%s", want, system)
		}
	}
	if strings.Contains(system, "{context}") {
		t.Error("context placeholder not substituted")
	}
}
