package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestRateLimiter_AllowsWithinBudget(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, logrus.New())
	defer rl.Stop()

	limited := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/weather", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), 1))
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestRateLimiter_RejectsPastBurst(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, logrus.New())
	defer rl.Stop()

	limited := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/weather", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), 1))
		last = httptest.NewRecorder()
		limited.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimiter_BudgetsArePerUser(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1, logrus.New())
	defer rl.Stop()

	limited := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, userID := range []int64{1, 2} {
		req := httptest.NewRequest("GET", "/weather", nil)
		req = req.WithContext(ContextWithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("user %d: expected 200, got %d", userID, rec.Code)
		}
	}
}

func TestRateLimiter_MissingUserRejected(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(10, logrus.New())
	defer rl.Stop()

	limited := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, httptest.NewRequest("GET", "/weather", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
