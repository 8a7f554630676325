package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/inquirydesk/internal/domain"
	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
)

// ParseResult decodes model output into a triage.Result.
// The trimmed output must be a JSON object whose category, urgency and reply are strings.
// Extra keys are ignored; values outside the known vocabularies pass through unchanged.
func ParseResult(raw string) (triage.Result, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &fields); err != nil {
		return triage.Result{}, fmt.Errorf("%w: %w", domain.ErrMalformedOutput, err)
	}
	if fields == nil {
		return triage.Result{}, fmt.Errorf("%w: not an object", domain.ErrMalformedOutput)
	}

	var res triage.Result
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"category", &res.Category},
		{"urgency", &res.Urgency},
		{"reply", &res.Reply},
	} {
		if err := stringField(fields, f.key, f.dst); err != nil {
			return triage.Result{}, err
		}
	}
	return res, nil
}

func stringField(fields map[string]json.RawMessage, key string, dst *string) error {
	v, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: missing %q", domain.ErrMalformedOutput, key)
	}
	// json.Unmarshal accepts null into a string; only quoted values count.
	if !bytes.HasPrefix(bytes.TrimSpace(v), []byte(`"`)) {
		return fmt.Errorf("%w: %q is not a string", domain.ErrMalformedOutput, key)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%w: %q: %w", domain.ErrMalformedOutput, key, err)
	}
	return nil
}
