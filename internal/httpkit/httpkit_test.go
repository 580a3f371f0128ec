package httpkit

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkemble/relay/internal/buildinfo"
)

func TestNewClientSetsUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewClient()
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	DrainAndClose(resp.Body, 1024)

	if gotUA != buildinfo.UserAgent() {
		t.Errorf("User-Agent = %q, want %q", gotUA, buildinfo.UserAgent())
	}
}

func TestNewClientDoesNotOverrideUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewClient()
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	req.Header.Set("User-Agent", "custom/1.0")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	DrainAndClose(resp.Body, 1024)

	if gotUA != "custom/1.0" {
		t.Errorf("User-Agent = %q, want caller's header preserved", gotUA)
	}
}

func TestWithTimeout(t *testing.T) {
	client := NewClient(WithTimeout(5 * time.Second))
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}
}

func TestReadErrorBody(t *testing.T) {
	body := io.NopCloser(strings.NewReader("something went wrong"))
	if got := ReadErrorBody(body, 4096); got != "something went wrong" {
		t.Errorf("ReadErrorBody() = %q", got)
	}

	if got := ReadErrorBody(nil, 4096); got != "" {
		t.Errorf("ReadErrorBody(nil) = %q, want empty", got)
	}
}

func TestReadErrorBodyTruncates(t *testing.T) {
	body := io.NopCloser(strings.NewReader(strings.Repeat("x", 100)))
	if got := ReadErrorBody(body, 10); len(got) != 10 {
		t.Errorf("len = %d, want 10", len(got))
	}
}

func TestDrainAndCloseNil(t *testing.T) {
	// Must not panic.
	DrainAndClose(nil, 1024)
}
