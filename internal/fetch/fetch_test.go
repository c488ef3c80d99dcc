package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func testFetcher(timeout time.Duration) *Fetcher {
	return New(Config{Timeout: timeout, UserAgent: "facefetch-test/1.0"})
}

func TestFetcher_Do_Success(t *testing.T) {
	body := []byte("fake image bytes")
	var gotUserAgent, gotReferer string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(body)
	}))
	defer server.Close()

	f := testFetcher(5 * time.Second)
	result, err := f.Do(context.Background(), server.URL+"/img.jpg")
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if string(result.Body) != string(body) {
		t.Errorf("Body = %q, want %q", result.Body, body)
	}
	if result.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", result.ContentType)
	}
	if gotUserAgent != "facefetch-test/1.0" {
		t.Errorf("User-Agent = %q, want facefetch-test/1.0", gotUserAgent)
	}
	if gotReferer != server.URL {
		t.Errorf("Referer = %q, want %q", gotReferer, server.URL)
	}
}

func TestFetcher_Do_StatusClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{"not found is permanent", http.StatusNotFound, false},
		{"forbidden is permanent", http.StatusForbidden, false},
		{"server error is transient", http.StatusInternalServerError, true},
		{"bad gateway is transient", http.StatusBadGateway, true},
		{"request timeout is transient", http.StatusRequestTimeout, true},
		{"too many requests is transient", http.StatusTooManyRequests, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			f := testFetcher(5 * time.Second)
			_, err := f.Do(context.Background(), server.URL)
			if err == nil {
				t.Fatal("Do() succeeded, want error")
			}

			var fe *Error
			if !errors.As(err, &fe) {
				t.Fatalf("error type = %T, want *fetch.Error", err)
			}
			if fe.Transient != tt.wantTransient {
				t.Errorf("Transient = %v, want %v (detail: %s)", fe.Transient, tt.wantTransient, fe.Detail)
			}
			if !strings.Contains(fe.Detail, "bad status code") {
				t.Errorf("Detail = %q, want a bad status code message", fe.Detail)
			}
		})
	}
}

func TestFetcher_Do_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	f := testFetcher(50 * time.Millisecond)
	_, err := f.Do(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Do() succeeded, want timeout error")
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *fetch.Error", err)
	}
	if !fe.Transient {
		t.Errorf("timeout should be transient, got permanent: %s", fe.Detail)
	}
}

func TestFetcher_Do_MalformedURL(t *testing.T) {
	f := testFetcher(time.Second)

	tests := []string{
		"://not-a-url",
		"no-scheme.example.com/img.jpg",
		"",
	}

	for _, rawURL := range tests {
		_, err := f.Do(context.Background(), rawURL)
		if err == nil {
			t.Errorf("Do(%q) succeeded, want error", rawURL)
			continue
		}
		var fe *Error
		if !errors.As(err, &fe) {
			t.Fatalf("error type = %T, want *fetch.Error", err)
		}
		if fe.Transient {
			t.Errorf("Do(%q): malformed URL should be permanent", rawURL)
		}
	}
}

func TestFetcher_Do_RedirectLoop(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL, http.StatusFound)
	}))
	defer server.Close()

	f := testFetcher(5 * time.Second)
	_, err := f.Do(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Do() succeeded, want redirect error")
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *fetch.Error", err)
	}
	if fe.Transient {
		t.Errorf("redirect loop should be permanent: %s", fe.Detail)
	}
}

func TestFetcher_Do_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 256))
	}))
	defer server.Close()

	f := New(Config{Timeout: time.Second, UserAgent: "test", MaxBodyBytes: 100})
	_, err := f.Do(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Do() succeeded, want body-too-large error")
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *fetch.Error", err)
	}
	if fe.Transient {
		t.Error("oversized body should be permanent")
	}
	if !strings.Contains(fe.Detail, "exceeds") {
		t.Errorf("Detail = %q, want an exceeds message", fe.Detail)
	}
}

func TestRefererFor(t *testing.T) {
	tests := []struct {
		name   string
		rawURL string
		want   string
	}{
		{"plain host", "http://example.com/a/b.jpg?x=1", "http://example.com"},
		{"host with port", "http://example.com:8080/a.jpg", "http://example.com:8080"},
		{"fansshare gets www prefix", "http://fansshare.com/photo.jpg", "http://www.fansshare.com"},
		{"https preserved", "https://cdn.example.org/i.png", "https://cdn.example.org"},
		{"international host punycoded", "http://bücher.example/i.jpg", "http://xn--bcher-kva.example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.rawURL)
			if err != nil {
				t.Fatalf("url.Parse(%q) error = %v", tt.rawURL, err)
			}
			if got := refererFor(u); got != tt.want {
				t.Errorf("refererFor(%q) = %q, want %q", tt.rawURL, got, tt.want)
			}
		})
	}
}

func TestIsTransientStatus(t *testing.T) {
	transient := []int{500, 502, 503, 504, 408, 429}
	for _, status := range transient {
		if !isTransientStatus(status) {
			t.Errorf("isTransientStatus(%d) = false, want true", status)
		}
	}

	permanent := []int{400, 401, 403, 404, 410}
	for _, status := range permanent {
		if isTransientStatus(status) {
			t.Errorf("isTransientStatus(%d) = true, want false", status)
		}
	}
}
