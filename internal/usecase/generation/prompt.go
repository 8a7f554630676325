package generation

import (
	"strings"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
)

const contextSeparator = "\n\n"

const systemTemplate = `You are an expert customer support AI.
Analyze the inquiry using the provided Context.

Context:
{context}

Output JSON with keys: "category", "urgency", "reply".
1. Category: {categories}.
2. Urgency: {urgencies}.
3. Reply: Professional, empathetic, specific.`

// ContextBlock joins document texts in order, separated by a blank line.
func ContextBlock(docs []domret.Document) string {
	return strings.Join(domret.Texts(docs), contextSeparator)
}

// BuildMessages renders the system instruction with the context block, followed by the inquiry.
func BuildMessages(query string, docs []domret.Document) []domain.Message {
	system := strings.NewReplacer(
		"{context}", ContextBlock(docs),
		"{categories}", strings.Join(triage.Categories, ", "),
		"{urgencies}", strings.Join(triage.Urgencies, ", "),
	).Replace(systemTemplate)

	return []domain.Message{
		{Role: domain.RoleSystem, Content: system},
		{Role: domain.RoleUser, Content: query},
	}
}
