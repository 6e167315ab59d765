package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, h http.HandlerFunc, interval time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		Endpoint:   srv.URL,
		HTTPClient: srv.Client(),
		Interval:   interval,
		UserAgent:  "dispatchhub-test",
	})
}

func TestGeocode_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("q"); got != "1 Main St, Springfield" {
			t.Errorf("q = %q", got)
		}
		if q.Get("format") != "json" || q.Get("limit") != "1" {
			t.Errorf("unexpected query params: %v", q)
		}
		if ua := r.Header.Get("User-Agent"); ua != "dispatchhub-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"32.0853","lon":"34.7818","display_name":"x"}]`))
	}, time.Millisecond)

	loc, err := c.Geocode(context.Background(), "1 Main St, Springfield")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}
	if loc.Latitude != 32.0853 || loc.Longitude != 34.7818 {
		t.Errorf("unexpected location: %+v", loc)
	}
}

func TestGeocode_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"empty results", http.StatusOK, `[]`, ErrNoResults},
		{"server error", http.StatusInternalServerError, ``, nil},
		{"bad json", http.StatusOK, `{not json`, nil},
		{"non numeric lat", http.StatusOK, `[{"lat":"north","lon":"1"}]`, nil},
		{"rate limited", http.StatusTooManyRequests, ``, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, time.Millisecond)

			_, err := c.Geocode(context.Background(), "somewhere")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGeocode_RateLimitedHalvesLimit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, time.Millisecond)

	before := c.Limit()
	if _, err := c.Geocode(context.Background(), "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got, want := c.Limit(), before/2; got != want {
		t.Errorf("limit after 429 = %v, want %v", got, want)
	}
}

func TestGeocode_BackOffFloor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, time.Minute)

	// The bucket starts full, so the first call does not wait.
	if _, err := c.Geocode(context.Background(), "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if got := c.Limit(); got != rate.Every(time.Minute) {
		t.Errorf("limit = %v, want floor %v", got, rate.Every(time.Minute))
	}
}

func TestGeocode_WaitHonorsContext(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`[{"lat":"1","lon":"2"}]`))
	}, time.Hour)

	if _, err := c.Geocode(context.Background(), "first"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Geocode(ctx, "second"); err == nil {
		t.Fatal("expected the limiter to refuse the second call")
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1", calls)
	}
}
