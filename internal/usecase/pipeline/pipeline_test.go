package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
	"github.com/kailas-cloud/inquirydesk/internal/metrics"
	"github.com/kailas-cloud/inquirydesk/internal/usecase/generation"
	"github.com/kailas-cloud/inquirydesk/internal/usecase/retrieval"
)

func TestProcess_RunsStagesInOrder(t *testing.T) {
	docs := []domret.Document{{Text: "D1"}, {Text: "D2"}}
	ret := &mockRetriever{docs: docs}
	gen := &mockGenerator{res: okResult}

	res := New(ret, gen, WithTopK(5)).Process(context.Background(), "My order #123 never arrived")

	if res != okResult {
		t.Fatalf("got %+v, want %+v", res, okResult)
	}
	if len(ret.queries) != 1 || ret.queries[0] != "My order #123 never arrived" || ret.ks[0] != 5 {
		t.Errorf("unexpected retrieve call %v %v", ret.queries, ret.ks)
	}
	if gen.calls != 1 || len(gen.docs) != 2 || gen.docs[0].Text != "D1" {
		t.Errorf("generator must receive retrieved documents, got %v", gen.docs)
	}
}

func TestProcess_DefaultTopK(t *testing.T) {
	ret := &mockRetriever{}
	New(ret, &mockGenerator{res: okResult}, WithTopK(0)).Process(context.Background(), "q")
	if ret.ks[0] != domret.DefaultK {
		t.Errorf("expected default k %d, got %d", domret.DefaultK, ret.ks[0])
	}
}

func TestProcess_Totality(t *testing.T) {
	inputs := map[string]string{
		"empty":     "",
		"long":      strings.Repeat("where is my parcel? ", 5000),
		"non-ascii": "Мой заказ №123 не пришёл 📦 注文が届きません",
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			res := New(&mockRetriever{}, &mockGenerator{res: okResult}).Process(context.Background(), in)
			if res.Category == "" || res.Urgency == "" || res.Reply == "" {
				t.Fatalf("all fields must be present, got %+v", res)
			}
		})
	}
}

func TestProcess_RetrievalDegradation(t *testing.T) {
	for name, idx := range map[string]stubIndex{
		"index down": {err: errors.New("connection refused")},
		"no matches": {},
	} {
		t.Run(name, func(t *testing.T) {
			gen := &mockGenerator{res: okResult}
			ret := retrieval.New(stubEmbedder{}, idx, zap.NewNop())

			res := New(ret, gen).Process(context.Background(), "q")

			if res != okResult {
				t.Fatalf("got %+v", res)
			}
			if gen.calls != 1 {
				t.Fatalf("generate must still run, got %d calls", gen.calls)
			}
			if gen.docs == nil || len(gen.docs) != 0 {
				t.Errorf("expected empty context, got %v", gen.docs)
			}
		})
	}
}

func TestProcess_GenerationFallbackPassesThrough(t *testing.T) {
	before := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues(metrics.OutcomeGenerationFallback))

	model := &stubModel{out: "not json at all"}
	res := New(&mockRetriever{}, generation.New(model, zap.NewNop())).Process(context.Background(), "q")

	if res != triage.GenerationFallback() {
		t.Fatalf("got %+v", res)
	}
	after := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues(metrics.OutcomeGenerationFallback))
	if after != before+1 {
		t.Error("expected generation_fallback outcome counted")
	}
}

func TestProcess_PanicYieldsProcessingFallback(t *testing.T) {
	tests := []struct {
		name string
		ret  *mockRetriever
		gen  *mockGenerator
	}{
		{"retriever panics", &mockRetriever{panicV: "boom"}, &mockGenerator{res: okResult}},
		{"generator panics", &mockRetriever{}, &mockGenerator{panicV: errors.New("kaboom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues(metrics.OutcomeProcessingFallback))

			res := New(tt.ret, tt.gen).Process(context.Background(), "q")

			if res.Category != triage.CategoryOther || res.Urgency != triage.UrgencyMedium {
				t.Fatalf("unexpected fallback %+v", res)
			}
			if !strings.HasPrefix(res.Reply, "Processing failed: ") {
				t.Fatalf("reply must carry the failure, got %q", res.Reply)
			}
			if res == triage.GenerationFallback() {
				t.Fatal("processing fallback must differ from generation fallback")
			}
			after := testutil.ToFloat64(metrics.PipelineRunsTotal.WithLabelValues(metrics.OutcomeProcessingFallback))
			if after != before+1 {
				t.Error("expected processing_fallback outcome counted")
			}
		})
	}
}

func TestProcess_PanicMessageIncluded(t *testing.T) {
	res := New(&mockRetriever{panicV: "index exploded"}, &mockGenerator{}).Process(context.Background(), "q")
	if res.Reply != "Processing failed: panic: index exploded" {
		t.Errorf("unexpected reply %q", res.Reply)
	}
}

func TestProcess_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ret := &mockRetriever{}
	gen := &mockGenerator{res: okResult}
	res := New(ret, gen).Process(ctx, "q")

	if !strings.HasPrefix(res.Reply, triage.ProcessingFailedPrefix) || !strings.Contains(res.Reply, "context canceled") {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(ret.queries) != 0 || gen.calls != 0 {
		t.Error("no stage may run on a cancelled context")
	}
}

func TestProcess_CancelledBetweenStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ret := &mockRetriever{onCall: cancel}
	gen := &mockGenerator{res: okResult}
	res := New(ret, gen).Process(ctx, "q")

	if res.Reply != "Processing failed: before generate: context canceled" {
		t.Fatalf("unexpected reply %q", res.Reply)
	}
	if gen.calls != 0 {
		t.Error("generate must not run after cancellation")
	}
}

func TestProcess_EndToEnd(t *testing.T) {
	idx := stubIndex{matches: []domret.Match{
		{Document: domret.Document{Text: "D1"}, Score: 0.9},
		{Document: domret.Document{Text: "D2"}, Score: 0.7},
		{Document: domret.Document{Text: "D3"}, Score: 0.5},
	}}
	model := &stubModel{
		out: `{"category": "Order Status", "urgency": "High", "reply": "We're sorry, we're checking with the carrier."}`,
	}
	p := New(
		retrieval.New(stubEmbedder{}, idx, zap.NewNop()),
		generation.New(model, zap.NewNop()),
		WithTopK(3),
		WithLogger(zap.NewNop()),
	)

	res := p.Process(context.Background(), "My order #123 never arrived")

	if res != okResult {
		t.Fatalf("got %+v, want %+v", res, okResult)
	}
	if !strings.Contains(model.messages[0].Content, "D1\n\nD2\n\nD3") {
		t.Errorf("context not ordered by score:\n%s", model.messages[0].Content)
	}
	if model.messages[1].Content != "My order #123 never arrived" {
		t.Errorf("unexpected user message %q", model.messages[1].Content)
	}
}

func TestProcess_Concurrent(t *testing.T) {
	gen := &mockGenerator{res: okResult}
	p := New(&mockRetriever{docs: []domret.Document{{Text: "D1"}}}, gen)

	var wg sync.WaitGroup
	results := make([]triage.Result, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Process(context.Background(), "q")
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if res != okResult {
			t.Fatalf("run %d: got %+v", i, res)
		}
	}
	if gen.calls != len(results) {
		t.Errorf("expected %d generate calls, got %d", len(results), gen.calls)
	}
}
