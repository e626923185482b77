package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestClassify_NotFoundStatusIsUnavailable(t *testing.T) {
	err := &openai.APIError{HTTPStatusCode: http.StatusNotFound, Message: "model gemini-x is not found"}
	if got := Classify(err); got != OutcomeUnavailable {
		t.Fatalf("expected unavailable, got %v", got)
	}
}

func TestClassify_UnknownModelMessageIsUnavailable(t *testing.T) {
	// Some compatibility layers report unknown models with a 400 status.
	err := &openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "models/gemini-x is not found for API version v1"}
	if got := Classify(err); got != OutcomeUnavailable {
		t.Fatalf("expected unavailable, got %v", got)
	}
}

func TestClassify_AuthStatusesAreCredential(t *testing.T) {
	for _, code := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		err := &openai.APIError{HTTPStatusCode: code, Message: "API key not valid"}
		if got := Classify(err); got != OutcomeCredential {
			t.Fatalf("status %d: expected credential, got %v", code, got)
		}
	}
}

func TestClassify_MissingKeySentinelIsCredential(t *testing.T) {
	if got := Classify(fmt.Errorf("generate: %w", ErrMissingAPIKey)); got != OutcomeCredential {
		t.Fatalf("expected credential, got %v", got)
	}
}

func TestClassify_QuotaIsRejected(t *testing.T) {
	err := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "quota exceeded"}
	if got := Classify(err); got != OutcomeRejected {
		t.Fatalf("expected rejected, got %v", got)
	}
}

func TestClassify_TransportErrorIsRejected(t *testing.T) {
	if got := Classify(errors.New("dial tcp: connection refused")); got != OutcomeRejected {
		t.Fatalf("expected rejected, got %v", got)
	}
}

func TestClassify_WrappedAPIErrorStillDispatches(t *testing.T) {
	inner := &openai.APIError{HTTPStatusCode: http.StatusNotFound, Message: "no such model"}
	err := fmt.Errorf("call model: %w", inner)
	if got := Classify(err); got != OutcomeUnavailable {
		t.Fatalf("expected unavailable through wrapping, got %v", got)
	}
}
