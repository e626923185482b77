package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nazoreki/nazoreki-api/internal/catalog"
	"github.com/nazoreki/nazoreki-api/internal/event"
	"github.com/nazoreki/nazoreki-api/internal/fetch"
	"github.com/nazoreki/nazoreki-api/internal/llm"
	"github.com/nazoreki/nazoreki-api/internal/repair"
)

// fakeClient scripts one response or error per model identifier and
// records the order in which models were invoked.
type fakeClient struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
	prompts   []string
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls = append(f.calls, req.Model)
	if len(req.Messages) > 0 {
		f.prompts = append(f.prompts, req.Messages[len(req.Messages)-1].Content)
	}
	if err, ok := f.errs[req.Model]; ok {
		return openai.ChatCompletionResponse{}, err
	}
	content := f.responses[req.Model]
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

type staticResolver struct {
	ids []string
}

func (s *staticResolver) Candidates(context.Context) []catalog.Candidate {
	out := make([]catalog.Candidate, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, catalog.Candidate{Identifier: id, Origin: catalog.OriginStaticFallback})
	}
	return out
}

func notFoundErr() error {
	return &openai.APIError{HTTPStatusCode: http.StatusNotFound, Message: "model is not found"}
}

func authErr() error {
	return &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "API key not valid"}
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
}

func pageServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newExtractor(client llm.Client, resolver CandidateResolver) *Extractor {
	return &Extractor{
		Fetcher:  &fetch.Client{},
		Resolver: resolver,
		Client:   client,
		Repairer: &repair.Repairer{Now: fixedNow},
		APIKey:   "test-key",
	}
}

const validResponse = `{"title":"Great Escape","start_date":"2025-01-10"}`

func TestExtract_CascadesPastUnavailableModels(t *testing.T) {
	srv := pageServer(t, "<html><body><p>event page</p></body></html>")
	client := &fakeClient{
		errs:      map[string]error{"a": notFoundErr(), "b": notFoundErr()},
		responses: map[string]string{"c": validResponse},
	}
	x := newExtractor(client, &staticResolver{ids: []string{"a", "b", "c", "d"}})

	ev, err := x.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Title != "Great Escape" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if got := strings.Join(client.calls, ","); got != "a,b,c" {
		t.Fatalf("expected stop at first success, calls: %s", got)
	}
}

func TestExtract_AuthErrorAbortsImmediately(t *testing.T) {
	srv := pageServer(t, "<html><body>x</body></html>")
	client := &fakeClient{errs: map[string]error{"a": authErr()}}
	x := newExtractor(client, &staticResolver{ids: []string{"a", "b", "c"}})

	_, err := x.Extract(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected error")
	}
	if llm.Classify(err) != llm.OutcomeCredential {
		t.Fatalf("expected credential classification, got %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected no candidates after auth failure, calls: %v", client.calls)
	}
}

func TestExtract_QuotaErrorAbortsWithoutCascade(t *testing.T) {
	srv := pageServer(t, "<html><body>x</body></html>")
	quota := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "quota exceeded"}
	client := &fakeClient{errs: map[string]error{"a": quota}}
	x := newExtractor(client, &staticResolver{ids: []string{"a", "b"}})

	_, err := x.Extract(context.Background(), srv.URL)
	if err == nil || len(client.calls) != 1 {
		t.Fatalf("expected immediate abort, err=%v calls=%v", err, client.calls)
	}
}

func TestExtract_ParseErrorIsFatalDespiteRemainingCandidates(t *testing.T) {
	srv := pageServer(t, "<html><body>x</body></html>")
	client := &fakeClient{responses: map[string]string{"a": "sorry, here is prose"}}
	x := newExtractor(client, &staticResolver{ids: []string{"a", "b"}})

	_, err := x.Extract(context.Background(), srv.URL)
	var perr *repair.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *repair.ParseError, got %v", err)
	}
	if len(client.calls) != 1 {
		t.Fatalf("expected no retry after parse error, calls: %v", client.calls)
	}
}

func TestExtract_ValidationErrorSurfacesPerFieldMessages(t *testing.T) {
	srv := pageServer(t, "<html><body>x</body></html>")
	client := &fakeClient{responses: map[string]string{"a": `{"title":"x","start_date":"someday"}`}}
	x := newExtractor(client, &staticResolver{ids: []string{"a"}})

	_, err := x.Extract(context.Background(), srv.URL)
	var verr *event.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *event.ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "start_date") {
		t.Fatalf("expected per-field message, got %v", verr)
	}
}

func TestExtract_ExhaustionNamesEveryCandidateTried(t *testing.T) {
	srv := pageServer(t, "<html><body>x</body></html>")
	client := &fakeClient{errs: map[string]error{"a": notFoundErr(), "b": notFoundErr(), "c": notFoundErr()}}
	x := newExtractor(client, &staticResolver{ids: []string{"a", "b", "c"}})

	_, err := x.Extract(context.Background(), srv.URL)
	var xerr *ExhaustedError
	if !errors.As(err, &xerr) {
		t.Fatalf("expected *ExhaustedError, got %v", err)
	}
	if strings.Join(xerr.Candidates, ",") != "a,b,c" {
		t.Fatalf("expected all candidates recorded, got %v", xerr.Candidates)
	}
	if xerr.LastErr == nil || !strings.Contains(xerr.Error(), "a, b, c") {
		t.Fatalf("expected aggregate message naming candidates, got %v", xerr)
	}
}

func TestExtract_MissingAPIKeyFailsBeforeAnyCall(t *testing.T) {
	client := &fakeClient{}
	x := newExtractor(client, &staticResolver{ids: []string{"a"}})
	x.APIKey = ""

	_, err := x.Extract(context.Background(), "https://example.test/e")
	if !errors.Is(err, llm.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("expected no provider calls, got %v", client.calls)
	}
}

func TestExtract_FetchFailureAbortsPipeline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := &fakeClient{}
	x := newExtractor(client, &staticResolver{ids: []string{"a"}})

	_, err := x.Extract(context.Background(), srv.URL)
	var ferr *fetch.Error
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *fetch.Error, got %v", err)
	}
	if len(client.calls) != 0 {
		t.Fatalf("fetch failure must abort before provider calls")
	}
}

func TestExtract_EndToEndScenario(t *testing.T) {
	srv := pageServer(t, `<html>
	  <head><meta property="og:image" content="/img/a.png"></head>
	  <body><p>Great Escape, Jan 10-20, Tokyo</p></body>
	</html>`)

	response := `{"title":"Great Escape","start_date":"2025-01-10","end_date":"2025-01-20","location":null,"area":null,"type":null,"maker":null,"price":null,"description":null,"image_url":null}`
	client := &fakeClient{responses: map[string]string{"m": response}}
	x := newExtractor(client, &staticResolver{ids: []string{"m"}})

	ev, err := x.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Title != "Great Escape" || ev.StartDate != "2025-01-10" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.EndDate == nil || *ev.EndDate != "2025-01-20" {
		t.Fatalf("expected end_date round-trip, got %+v", ev.EndDate)
	}
	if ev.ImageURL == nil || *ev.ImageURL != srv.URL+"/img/a.png" {
		t.Fatalf("expected image filled from extracted og:image, got %+v", ev.ImageURL)
	}
	if ev.Location != nil {
		t.Fatalf("expected null location to survive, got %+v", ev.Location)
	}
	if len(client.prompts) != 1 || !strings.Contains(client.prompts[0], "Great Escape, Jan 10-20, Tokyo") {
		t.Fatalf("expected body text verbatim in prompt")
	}
}
