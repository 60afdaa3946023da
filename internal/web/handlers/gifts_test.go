package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/giftlink/backend/internal/database"
)

// memoryGiftStore mimics the MongoDB store: ids are ObjectIDs and stored
// documents gain an _id field.
type memoryGiftStore struct {
	mu      sync.Mutex
	order   []primitive.ObjectID
	docs    map[primitive.ObjectID]database.Gift
	err     error
	created []database.Gift
}

func newMemoryGiftStore() *memoryGiftStore {
	return &memoryGiftStore{docs: make(map[primitive.ObjectID]database.Gift)}
}

func (s *memoryGiftStore) ListGifts(context.Context) ([]database.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	gifts := make([]database.Gift, 0, len(s.order))
	for _, id := range s.order {
		gifts = append(gifts, s.docs[id])
	}
	return gifts, nil
}

func (s *memoryGiftStore) GetGift(_ context.Context, id string) (database.Gift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("gift %q: %w", id, database.ErrNotFound)
	}
	gift, ok := s.docs[oid]
	if !ok {
		return nil, fmt.Errorf("gift %q: %w", id, database.ErrNotFound)
	}
	return gift, nil
}

func (s *memoryGiftStore) CreateGift(_ context.Context, gift database.Gift) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, gift)

	id := primitive.NewObjectID()
	stored := database.Gift{"_id": id}
	for k, v := range gift {
		stored[k] = v
	}
	s.docs[id] = stored
	s.order = append(s.order, id)
	return id, nil
}

func newTestServer(t *testing.T, store GiftStore) *httptest.Server {
	t.Helper()
	h := New(store, stubPinger{err: database.ErrNotConnected})

	r := chi.NewRouter()
	r.Mount("/api/gifts", h.GiftsRouter())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp, data
}

func TestGiftLifecycle(t *testing.T) {
	srv := newTestServer(t, newMemoryGiftStore())
	base := srv.URL + "/api/gifts"

	resp, body := doRequest(t, http.MethodPost, base+"/", `{"name":"Bike"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}

	var created struct {
		Message    string         `json:"message"`
		InsertedID string         `json:"insertedId"`
		Gift       map[string]any `json:"gift"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Message != "Gift created successfully" {
		t.Fatalf("unexpected message %q", created.Message)
	}
	if _, err := primitive.ObjectIDFromHex(created.InsertedID); err != nil {
		t.Fatalf("expected hex ObjectID, got %q", created.InsertedID)
	}
	if len(created.Gift) != 1 || created.Gift["name"] != "Bike" {
		t.Fatalf("expected echoed gift {name:Bike}, got %v", created.Gift)
	}

	resp, body = doRequest(t, http.MethodGet, base+"/"+created.InsertedID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var fetched map[string]any
	if err := json.Unmarshal(body, &fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched["_id"] != created.InsertedID || fetched["name"] != "Bike" || len(fetched) != 2 {
		t.Fatalf("expected {_id:%s, name:Bike}, got %v", created.InsertedID, fetched)
	}

	resp, body = doRequest(t, http.MethodGet, base+"/deadbeefdeadbeefdeadbeef", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if string(body) != "Gift not found" {
		t.Fatalf("expected plain not-found body, got %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}

	resp, body = doRequest(t, http.MethodGet, base+"/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var listed []map[string]any
	if err := json.Unmarshal(body, &listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed) != 1 || listed[0]["_id"] != created.InsertedID {
		t.Fatalf("expected list with created gift, got %v", listed)
	}
}

func TestListGifts_Empty(t *testing.T) {
	srv := newTestServer(t, newMemoryGiftStore())

	resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/gifts/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected empty array, got %q", body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %q", ct)
	}
}

func TestGetGift_InvalidIDsAreNotFound(t *testing.T) {
	srv := newTestServer(t, newMemoryGiftStore())

	for _, id := range []string{"not-an-id", "123", "zzzzzzzzzzzzzzzzzzzzzzzz", "deadbeefdeadbeefdeadbeefdeadbeef"} {
		t.Run(id, func(t *testing.T) {
			resp, body := doRequest(t, http.MethodGet, srv.URL+"/api/gifts/"+id, "")
			if resp.StatusCode != http.StatusNotFound {
				t.Fatalf("expected 404, got %d: %s", resp.StatusCode, body)
			}
		})
	}
}

func TestStoreErrorsReachBoundary(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		method   string
		path     string
		body     string
		expected int
	}{
		{
			name:     "list timeout",
			err:      errors.New("context deadline exceeded"),
			method:   http.MethodGet,
			path:     "/api/gifts/",
			expected: http.StatusInternalServerError,
		},
		{
			name:     "get write failure",
			err:      errors.New("socket closed"),
			method:   http.MethodGet,
			path:     "/api/gifts/deadbeefdeadbeefdeadbeef",
			expected: http.StatusInternalServerError,
		},
		{
			name:     "create failure",
			err:      errors.New("write concern error"),
			method:   http.MethodPost,
			path:     "/api/gifts/",
			body:     `{"name":"Bike"}`,
			expected: http.StatusInternalServerError,
		},
		{
			name:     "connection failure",
			err:      fmt.Errorf("%w: %w", database.ErrConnect, errors.New("connection refused")),
			method:   http.MethodGet,
			path:     "/api/gifts/",
			expected: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemoryGiftStore()
			store.err = tt.err
			srv := newTestServer(t, store)

			resp, body := doRequest(t, tt.method, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, resp.StatusCode)
			}

			var payload map[string]string
			if err := json.Unmarshal(body, &payload); err != nil {
				t.Fatalf("expected JSON error body, got %q", body)
			}
			if payload["error"] == "" {
				t.Fatal("expected error message in body")
			}
			if strings.Contains(string(body), tt.err.Error()) {
				t.Fatal("expected internal error detail not to leak into response")
			}
		})
	}
}

func TestCreateGift_RejectsNonObjects(t *testing.T) {
	bodies := map[string]string{
		"empty":         "",
		"null":          "null",
		"array":         `[{"name":"Bike"}]`,
		"string":        `"Bike"`,
		"truncated":     `{"name":`,
		"two documents": `{"name":"Bike"} {"name":"Lamp"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			store := newMemoryGiftStore()
			srv := newTestServer(t, store)

			req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/gifts/", strings.NewReader(body))
			if err != nil {
				t.Fatalf("failed to build request: %v", err)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if len(store.created) != 0 {
				t.Fatal("expected nothing to be stored")
			}
		})
	}
}

func TestCreateGift_StoresBodyAsIs(t *testing.T) {
	store := newMemoryGiftStore()
	srv := newTestServer(t, store)

	body := `{"name":"Bike","quantity":2,"price":129.99,"serial":5000000000,"tags":["red",1],"owner":{"age":7}}`
	resp, data := doRequest(t, http.MethodPost, srv.URL+"/api/gifts/", body)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, data)
	}

	if len(store.created) != 1 {
		t.Fatalf("expected 1 stored gift, got %d", len(store.created))
	}
	gift := store.created[0]

	if gift["quantity"] != int32(2) {
		t.Fatalf("expected int32 quantity, got %T %v", gift["quantity"], gift["quantity"])
	}
	if gift["price"] != 129.99 {
		t.Fatalf("expected float price, got %T %v", gift["price"], gift["price"])
	}
	if gift["serial"] != int64(5000000000) {
		t.Fatalf("expected int64 serial, got %T %v", gift["serial"], gift["serial"])
	}
	tags, ok := gift["tags"].([]any)
	if !ok || tags[0] != "red" || tags[1] != int32(1) {
		t.Fatalf("unexpected tags %#v", gift["tags"])
	}
	owner, ok := gift["owner"].(map[string]any)
	if !ok || owner["age"] != int32(7) {
		t.Fatalf("unexpected owner %#v", gift["owner"])
	}

	var created map[string]any
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	echoed, ok := created["gift"].(map[string]any)
	if !ok || echoed["quantity"] != float64(2) || echoed["name"] != "Bike" {
		t.Fatalf("expected echoed gift, got %v", created["gift"])
	}
	if _, ok := echoed["_id"]; ok {
		t.Fatal("expected echoed gift without _id")
	}
}
