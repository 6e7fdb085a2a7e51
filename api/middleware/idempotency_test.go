package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/opticamarket/marketplace-backend/pkg/enums"
	pkgerrors "github.com/opticamarket/marketplace-backend/pkg/errors"
)

type memoryStore struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.data[key], _ = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	return true, m.Set(ctx, key, value, ttl)
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("test:%s:%s", scope, id)
}

func postOrder(body, key string) *http.Request {
	req := requestWithPattern(http.MethodPost, "/api/v1/orders", "/api/v1/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	return payload.Error.Code
}

func TestReplayTTLSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{"order create", http.MethodPost, "/api/v1/orders", orderReplayTTL, true},
		{"order checkout", http.MethodPost, "/api/v1/orders/{orderId}/checkout", catalogReplayTTL, true},
		{"seller product", http.MethodPost, "/api/v1/seller/products", catalogReplayTTL, true},
		{"admin product", http.MethodPost, "/api/admin/v1/products", catalogReplayTTL, true},
		{"address create", http.MethodPost, "/api/v1/addresses", catalogReplayTTL, true},
		{"order list", http.MethodGet, "/api/v1/orders", 0, false},
		{"payment record", http.MethodPost, "/api/v1/orders/{orderId}/payment", 0, false},
		{"default address", http.MethodPost, "/api/v1/addresses/{addressId}/default", 0, false},
	}

	for _, tt := range tests {
		ttl, ok := replayTTL(tt.method, tt.pattern)
		if ok != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, ok)
		}
		if ok && ttl != tt.want {
			t.Fatalf("%s: expected ttl=%v got %v", tt.name, tt.want, ttl)
		}
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusCreated)
	})

	resp := httptest.NewRecorder()
	Idempotency(newMemoryStore(), nil)(handler).ServeHTTP(resp, postOrder(`{"items":[]}`, ""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if called {
		t.Fatalf("handler should not run without idempotency key")
	}
}

func TestIdempotencyReplaysStoredOrder(t *testing.T) {
	store := newMemoryStore()
	mw := Idempotency(store, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"o-1"}}`))
	})

	first := httptest.NewRecorder()
	mw(handler).ServeHTTP(first, postOrder(`{"items":[1]}`, "abc"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", first.Code)
	}
	for key, ttl := range store.ttls {
		if ttl != orderReplayTTL {
			t.Fatalf("expected %s stored for %v, got %v", key, orderReplayTTL, ttl)
		}
	}

	replay := httptest.NewRecorder()
	mw(handler).ServeHTTP(replay, postOrder(`{"items":[1]}`, "abc"))
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", replay.Code)
	}
	if replay.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type preserved")
	}
	if replay.Header().Get("Idempotent-Replay") != "true" {
		t.Fatalf("expected replay marker header")
	}
	if replay.Body.String() != `{"data":{"id":"o-1"}}` {
		t.Fatalf("expected stored body got %s", replay.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	mw := Idempotency(newMemoryStore(), nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), postOrder(`{"items":[1]}`, "xyz"))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, postOrder(`{"items":[2]}`, "xyz"))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeIdempotency, code)
	}
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := newMemoryStore()
	mw := Idempotency(store, nil)
	var inner *httptest.ResponseRecorder
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatalf("duplicate should not reach the handler")
			})).ServeHTTP(inner, postOrder(`{"items":[1]}`, "dup"))
		}
		w.WriteHeader(http.StatusCreated)
	})

	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, postOrder(`{"items":[1]}`, "dup"))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected original to succeed, got %d", resp.Code)
	}
	if inner.Code != http.StatusConflict {
		t.Fatalf("expected in-flight duplicate 409 got %d", inner.Code)
	}
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := newMemoryStore()
	mw := Idempotency(store, nil)
	status := http.StatusServiceUnavailable
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), postOrder(`{}`, "retry"))
	if len(store.data) != 0 {
		t.Fatalf("expected key released after 5xx, got %v", store.data)
	}

	status = http.StatusCreated
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, postOrder(`{}`, "retry"))
	if resp.Code != http.StatusCreated || calls != 2 {
		t.Fatalf("expected retry to run handler, code=%d calls=%d", resp.Code, calls)
	}
}

func TestIdempotencyKeepsClientErrors(t *testing.T) {
	mw := Idempotency(newMemoryStore(), nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusConflict)
	})

	mw(handler).ServeHTTP(httptest.NewRecorder(), postOrder(`{}`, "stock"))
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, postOrder(`{}`, "stock"))
	if resp.Code != http.StatusConflict || calls != 1 {
		t.Fatalf("expected stored 409 replay, code=%d calls=%d", resp.Code, calls)
	}
}

func TestIdempotencyScopesByUser(t *testing.T) {
	mw := Idempotency(newMemoryStore(), nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for _, user := range []uuid.UUID{uuid.New(), uuid.New()} {
		req := postOrder(`{}`, "same-key")
		req = req.WithContext(WithActor(req.Context(), user, enums.UserRoleCustomer))
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("expected handler to run once per user, ran %d times", calls)
	}
}

func TestIdempotencySkipsUnmatchedRoutes(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	resp := httptest.NewRecorder()
	req := requestWithPattern(http.MethodGet, "/api/v1/orders", "/api/v1/orders", nil)
	Idempotency(newMemoryStore(), nil)(handler).ServeHTTP(resp, req)
	if !called || resp.Code != http.StatusOK {
		t.Fatalf("expected passthrough, got %d", resp.Code)
	}
}

func TestRoutePatternFallsBackToPathUnderMount(t *testing.T) {
	req := requestWithPattern(http.MethodPost, "/api/v1/orders/", "/api/*", nil)
	if got := routePattern(req); got != "/api/v1/orders" {
		t.Fatalf("expected request path, got %q", got)
	}

	req = requestWithPattern(http.MethodPost, "/api/v1/orders/abc/checkout", "/api/*", nil)
	if _, ok := replayTTL(req.Method, routePattern(req)); !ok {
		t.Fatalf("expected checkout path to require idempotency")
	}
}
