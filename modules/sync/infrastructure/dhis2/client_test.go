package dhis2

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/icddrb/eregistry/pkg/syncfault"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL+"/", "admin", "district", srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNew(t *testing.T) {
	for _, tc := range []struct {
		name string
		base string
		user string
	}{
		{name: "missing base", base: " ", user: "u"},
		{name: "bad url", base: "http://[::1", user: "u"},
		{name: "bad scheme", base: "ftp://x", user: "u"},
		{name: "no host", base: "http://", user: "u"},
		{name: "no user", base: "http://x", user: " "},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.base, tc.user, "p", nil); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	c, err := New("https://play.dhis2.org/", "admin", "district", nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL != "https://play.dhis2.org" || c.httpClient == nil || c.httpClient.Timeout == 0 {
		t.Fatalf("client=%+v", c)
	}
}

func TestClientGet(t *testing.T) {
	t.Run("basic auth and date header", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != "admin" || pass != "district" {
				t.Errorf("auth=%s/%s ok=%v", user, pass, ok)
			}
			if r.URL.Path != "/api/constants" || r.URL.Query().Get("paging") != "false" {
				t.Errorf("url=%s", r.URL)
			}
			w.Header().Set("Date", "Fri, 02 Jan 2026 03:04:05 GMT")
			_, _ = w.Write([]byte(`{}`))
		})
		resp, err := c.get(context.Background(), "constants", "/constants", map[string][]string{"paging": {"false"}})
		if err != nil {
			t.Fatal(err)
		}
		if !resp.serverTime.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
			t.Fatalf("server time=%v", resp.serverTime)
		}
	})

	t.Run("status maps to fault", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(strings.Repeat("x", errorBodyLimit+100)))
		})
		_, err := c.get(context.Background(), "constants", "constants", nil)
		f, ok := syncfault.As(err)
		if !ok || f.Kind != syncfault.KindAuth || f.StatusCode != http.StatusUnauthorized || f.Op != "constants" {
			t.Fatalf("err=%v", err)
		}
		if len(f.Message) != errorBodyLimit {
			t.Fatalf("message len=%d", len(f.Message))
		}
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := c.get(context.Background(), "x", "x", nil)
		if kind, _ := syncfault.KindOf(err); kind != syncfault.KindServer {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("transport", func(t *testing.T) {
		c, _ := New("http://dhis2.invalid", "u", "p", &http.Client{
			Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("dial") }),
		})
		_, err := c.get(context.Background(), "x", "x", nil)
		if kind, _ := syncfault.KindOf(err); kind != syncfault.KindTransport {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("missing date uses clock", func(t *testing.T) {
		fixed := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
		c, _ := New("http://dhis2.invalid", "u", "p", &http.Client{
			Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: 200, Header: http.Header{}, Body: http.NoBody}, nil
			}),
		})
		c.now = func() time.Time { return fixed }
		resp, err := c.get(context.Background(), "x", "x", nil)
		if err != nil {
			t.Fatal(err)
		}
		if !resp.serverTime.Equal(fixed) {
			t.Fatalf("server time=%v", resp.serverTime)
		}
	})

	t.Run("decode", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{`))
		})
		var out map[string]any
		_, err := c.getJSON(context.Background(), "x", "x", nil, &out)
		if kind, _ := syncfault.KindOf(err); kind != syncfault.KindDecode {
			t.Fatalf("err=%v", err)
		}
	})
}
