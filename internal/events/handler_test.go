package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventscan/backend/internal/connect"
	"github.com/eventscan/backend/internal/credentials"
)

type call struct {
	credential, start, end string
}

type fakeLister struct {
	mu     sync.Mutex
	events []connect.EventListing
	err    error
	calls  []call
}

func (f *fakeLister) ListEvents(_ context.Context, credential, start, end string) ([]connect.EventListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{credential, start, end})
	return f.events, f.err
}

func newRouter(t *testing.T, lister Lister, store credentials.Store, now time.Time) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(lister, store, time.UTC, nil)
	h.now = func() time.Time { return now }
	r := gin.New()
	r.GET("/events", h.List)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestList_DefaultsToToday(t *testing.T) {
	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), credentials.PasskeyKey, "PK1"))
	lister := &fakeLister{events: []connect.EventListing{{Name: "Open House", ID: "GID-100"}}}
	r := newRouter(t, lister, store, time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC))

	w := get(r, "/events")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"data":{"date":"2024-03-05","events":[{"name":"Open House","id":"GID-100"}]}}`, w.Body.String())

	require.Len(t, lister.calls, 1)
	assert.Equal(t, call{"PK1", "05 Mar 2024 12:00 AM", "05 Mar 2024 11:59 PM"}, lister.calls[0])
}

func TestList_DateParam(t *testing.T) {
	lister := &fakeLister{}
	r := newRouter(t, lister, credentials.NewMemoryStore(), time.Now())

	w := get(r, "/events?date=2024-12-31")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "31 Dec 2024 12:00 AM", lister.calls[0].start)
	assert.Equal(t, "", lister.calls[0].credential)

	w = get(r, "/events?date=31/12/2024")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestList_EmptyIsArray(t *testing.T) {
	r := newRouter(t, &fakeLister{}, credentials.NewMemoryStore(), time.Now())
	w := get(r, "/events")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Events json.RawMessage `json:"events"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "[]", string(body.Data.Events))
}

func TestList_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"invalid passkey", connect.ErrInvalidCredential, http.StatusUnauthorized, "invalid passkey"},
		{"transport", fmt.Errorf("%w: dial tcp: refused", connect.ErrTransport), http.StatusBadGateway, "attendance service unreachable"},
		{"unknown", connect.ErrUnknown, http.StatusBadGateway, "unexpected response"},
		{"mismatch", &connect.MismatchError{Names: 2, IDs: 1}, http.StatusBadGateway, "unexpected response"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(t, &fakeLister{err: tc.err}, credentials.NewMemoryStore(), time.Now())
			w := get(r, "/events")
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, w.Body.String(), tc.msg)
		})
	}
}
