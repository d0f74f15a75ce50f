package bridge

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// recordingDisplay captures everything delivered to it.
type recordingDisplay struct {
	mu      sync.Mutex
	results []GenerationResult
	errs    []error
}

func (d *recordingDisplay) ShowResult(result GenerationResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, result)
}

func (d *recordingDisplay) ShowError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs = append(d.errs, err)
}

func (d *recordingDisplay) snapshot() ([]GenerationResult, []error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]GenerationResult(nil), d.results...), append([]error(nil), d.errs...)
}

func TestGenerateSendsExactBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Generate(context.Background(), GenerationRequest{
		Description: "Sort a list",
		Language:    "python",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := `{"description":"Sort a list","language":"python"}`
	if gotBody != want {
		t.Errorf("request body = %q, want %q", gotBody, want)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
}

func TestGenerateEmptyFieldsStillPresent(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Generate(context.Background(), GenerationRequest{}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := `{"description":"","language":""}`
	if gotBody != want {
		t.Errorf("request body = %q, want %q", gotBody, want)
	}
}

func TestGenerateRoutesFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"planning":"P","design":"D","code":"C","testing":"T"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Generate(context.Background(), GenerationRequest{Description: "x", Language: "go"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if res.Planning != "P" || res.Design != "D" || res.Code != "C" || res.Testing != "T" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestGenerateMissingFieldIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"planning":"P","design":"D","code":"C"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Generate(context.Background(), GenerationRequest{Description: "x", Language: "go"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Testing != "" {
		t.Errorf("missing field should decode empty, got %q", res.Testing)
	}
}

func TestGenerateStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	display := &recordingDisplay{}
	err := c.Submit(context.Background(), GenerationRequest{}, display)
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}

	var be *Error
	if !errors.As(err, &be) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if be.Kind != KindStatus || be.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected classification: kind=%s status=%d", be.Kind, be.StatusCode)
	}

	results, errs := display.snapshot()
	if len(results) != 0 {
		t.Error("no result should reach the display on failure")
	}
	if len(errs) != 1 {
		t.Errorf("error should be delivered to the display, got %d", len(errs))
	}
}

func TestGenerateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Generate(context.Background(), GenerationRequest{})
	if err == nil {
		t.Fatal("expected error for closed server")
	}
	if kind, ok := KindOf(err); !ok || kind != KindTransport {
		t.Errorf("expected transport kind, got %v (ok=%t)", kind, ok)
	}
}

func TestGenerateDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Generate(context.Background(), GenerationRequest{})
	if err == nil {
		t.Fatal("expected error for malformed body")
	}
	if kind, ok := KindOf(err); !ok || kind != KindDecode {
		t.Errorf("expected decode kind, got %v (ok=%t)", kind, ok)
	}
}

func TestSubmitDropsSupersededResponse(t *testing.T) {
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) == `{"description":"first","language":"go"}` {
			close(firstStarted)
			<-release
			_, _ = w.Write([]byte(`{"code":"stale"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":"fresh"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	display := &recordingDisplay{}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.Submit(context.Background(), GenerationRequest{Description: "first", Language: "go"}, display)
	}()
	<-firstStarted

	// The second submission supersedes the first and completes immediately.
	if err := c.Submit(context.Background(), GenerationRequest{Description: "second", Language: "go"}, display); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	close(release)
	wg.Wait()

	results, errs := display.snapshot()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one delivered result, got %d", len(results))
	}
	if results[0].Code != "fresh" {
		t.Errorf("superseded response should be dropped, displayed %q", results[0].Code)
	}
}

// TestSubmitStaleNeverLandsAfterFresh shakes the schedule where a superseded
// submission has already received its response and races a fresher one to the
// display. Whatever the interleaving, the display must end on the fresh
// result.
func TestSubmitStaleNeverLandsAfterFresh(t *testing.T) {
	for i := 0; i < 50; i++ {
		staleArrived := make(chan struct{})
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			if string(body) == `{"description":"stale","language":"go"}` {
				close(staleArrived)
				<-release
				_, _ = w.Write([]byte(`{"code":"stale"}`))
				return
			}
			_, _ = w.Write([]byte(`{"code":"fresh"}`))
		}))

		c := NewClient(srv.URL)
		display := &recordingDisplay{}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Submit(context.Background(), GenerationRequest{Description: "stale", Language: "go"}, display)
		}()
		<-staleArrived

		// Release the stale response and immediately race it with a
		// fresher submission.
		close(release)
		if err := c.Submit(context.Background(), GenerationRequest{Description: "fresh", Language: "go"}, display); err != nil {
			t.Fatalf("Submit: %v", err)
		}
		wg.Wait()
		srv.Close()

		results, errs := display.snapshot()
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(results) == 0 || len(results) > 2 {
			t.Fatalf("expected one or two delivered results, got %d", len(results))
		}
		if last := results[len(results)-1].Code; last != "fresh" {
			t.Fatalf("display ended on %q, want the fresh result last", last)
		}
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"planning":"P","design":"D","code":"C","testing":"T"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	display := &recordingDisplay{}
	req := GenerationRequest{Description: "same", Language: "go"}

	if err := c.Submit(context.Background(), req, display); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if err := c.Submit(context.Background(), req, display); err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	results, _ := display.snapshot()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0] != results[1] {
		t.Errorf("identical requests should display identical contents: %+v vs %+v", results[0], results[1])
	}
}
