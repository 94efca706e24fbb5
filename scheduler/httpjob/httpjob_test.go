package httpjob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shreyas/cadence/scheduler/execution"
	"github.com/shreyas/cadence/scheduler/retry"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid http", "http://example.com/api", false},
		{"valid https with port", "https://example.com:8080/api", false},
		{"empty", "", true},
		{"not a url", "not a url", true},
		{"no scheme", "example.com/api", true},
		{"ftp scheme", "ftp://example.com/file", true},
		{"file scheme", "file:///etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateURL(tt.in)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %q", tt.in)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.in, err)
			}
		})
	}
}

func TestAtMostOnce_SucceedsOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	aj, err := AtMostOnce(Request{ID: "j1", Name: "ping", URL: srv.URL})
	if err != nil {
		t.Fatalf("AtMostOnce err = %v", err)
	}

	exec := execution.New("e1", aj, time.Now(), context.Background())
	if err := aj.Execute(exec, nil, func() {}); err != nil {
		t.Fatalf("Execute err = %v", err)
	}
}

func TestAtMostOnce_ReturnsErrorOnNon2xx_NoRetryByDefault(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	aj, err := AtMostOnce(Request{ID: "j1", Name: "ping", URL: srv.URL})
	if err != nil {
		t.Fatalf("AtMostOnce err = %v", err)
	}

	exec := execution.New("e1", aj, time.Now(), context.Background())
	if err := aj.Execute(exec, nil, func() {}); err == nil {
		t.Fatalf("expected error on 500 response")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no HTTP-layer retry)", calls)
	}
}

func TestAtMostOnce_JobLevelPolicyStillRetriesWholeCall(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	policy := &retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	aj, err := AtMostOnce(Request{ID: "j1", Name: "ping", URL: srv.URL, Policy: policy})
	if err != nil {
		t.Fatalf("AtMostOnce err = %v", err)
	}

	exec := execution.New("e1", aj, time.Now(), context.Background())
	if err := aj.Execute(exec, nil, func() {}); err != nil {
		t.Fatalf("Execute err = %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestAtLeastOnce_RejectsInvalidURL(t *testing.T) {
	if _, err := AtLeastOnce(Request{ID: "j1", Name: "bad", URL: "not a url"}); err == nil {
		t.Fatalf("expected error for invalid url")
	}
}

func TestAtLeastOnce_SucceedsOn2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	aj, err := AtLeastOnce(Request{ID: "j1", Name: "ping", URL: srv.URL})
	if err != nil {
		t.Fatalf("AtLeastOnce err = %v", err)
	}

	exec := execution.New("e1", aj, time.Now(), context.Background())
	if err := aj.Execute(exec, nil, func() {}); err != nil {
		t.Fatalf("Execute err = %v", err)
	}
}
