package scans

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventscan/backend/internal/connect"
	"github.com/eventscan/backend/internal/credentials"
	"github.com/eventscan/backend/internal/middleware"
	"github.com/eventscan/backend/internal/models"
)

type fakeAttender struct {
	mu      sync.Mutex
	outcome connect.Outcome
	err     error
	reqs    []connect.AttendanceRequest
}

func (f *fakeAttender) MarkAttended(_ context.Context, req connect.AttendanceRequest) (connect.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.outcome, f.err
}

type memLog struct {
	mu    sync.Mutex
	scans []models.Scan
	err   error
}

func (m *memLog) Create(_ context.Context, s *models.Scan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	s.ID = uuid.New()
	m.scans = append(m.scans, *s)
	return nil
}

func (m *memLog) ListByEvent(_ context.Context, gid string) ([]models.Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Scan
	for _, s := range m.scans {
		if s.EventGID == gid {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memLog) CountByEvent(ctx context.Context, gid string) (models.ScanCounts, error) {
	list, _ := m.ListByEvent(ctx, gid)
	var c models.ScanCounts
	for _, s := range list {
		c.Total++
		switch s.Outcome {
		case "attended":
			c.Attended++
		case "rejected":
			c.Rejected++
		}
	}
	return c, nil
}

// memGate admits each (event, contact) once.
type memGate struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (g *memGate) Acquire(_ context.Context, gid, contact string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.seen == nil {
		g.seen = make(map[string]bool)
	}
	k := gid + ":" + contact
	if g.seen[k] {
		return false, nil
	}
	g.seen[k] = true
	return true, nil
}

type prefs struct{ alternate bool }

func (p prefs) GetBool(context.Context, string, bool) (bool, error) { return p.alternate, nil }
func (p prefs) SetBool(context.Context, string, bool) error         { return nil }

type recPublisher struct {
	mu    sync.Mutex
	scans []models.Scan
}

func (p *recPublisher) PublishScan(_ string, s models.Scan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scans = append(p.scans, s)
}

type fixture struct {
	attender *fakeAttender
	log      *memLog
	gate     *memGate
	pub      *recPublisher
	router   *gin.Engine
}

func newFixture(t *testing.T, outcome connect.Outcome, alternate bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		attender: &fakeAttender{outcome: outcome},
		log:      &memLog{},
		gate:     &memGate{},
		pub:      &recPublisher{},
	}
	store := credentials.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), credentials.PasskeyKey, "PK1"))
	h := NewHandler(f.attender, store, f.log, f.gate, prefs{alternate}, f.pub, nil)
	opID := uuid.MustParse("7d4b3c2a-1111-4222-8333-944455556666")
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextOperatorID, opID)
		c.Next()
	})
	r.POST("/events/:gid/scans", h.Scan)
	r.GET("/events/:gid/scans", h.List)
	f.router = r
	return f
}

func (f *fixture) scan(gid, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/events/"+gid+"/scans", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type scanBody struct {
	Success bool       `json:"success"`
	Data    ScanResult `json:"data"`
	Error   string     `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) scanBody {
	t.Helper()
	var b scanBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	return b
}

func TestScan_Attended(t *testing.T) {
	f := newFixture(t, connect.OutcomeAttended, false)

	w := f.scan("GID-100", `{"contact_id":"C-42"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	b := decode(t, w)
	assert.True(t, b.Success)
	assert.Equal(t, "success", b.Data.Tone)
	assert.Equal(t, "attended", b.Data.Scan.Outcome)
	require.NotNil(t, b.Data.Scan.OperatorID)

	require.Len(t, f.attender.reqs, 1)
	assert.Equal(t, connect.AttendanceRequest{Credential: "PK1", EventID: "GID-100", ContactID: "C-42"}, f.attender.reqs[0])
	assert.Len(t, f.log.scans, 1)
	assert.Len(t, f.pub.scans, 1)
}

func TestScan_AlternateTone(t *testing.T) {
	f := newFixture(t, connect.OutcomeAttended, true)
	b := decode(t, f.scan("GID-100", `{"contact_id":"C-42"}`))
	assert.Equal(t, "bronco", b.Data.Tone)
}

func TestScan_Rejected(t *testing.T) {
	f := newFixture(t, connect.OutcomeRejected, true)
	w := f.scan("GID-100", `{"contact_id":"C-42"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	b := decode(t, w)
	assert.False(t, b.Success)
	assert.Equal(t, "failure", b.Data.Tone)
	assert.Equal(t, "rejected", b.Data.Scan.Outcome)
}

func TestScan_TransportError(t *testing.T) {
	f := newFixture(t, connect.OutcomeTransportError, false)
	f.attender.err = connect.ErrTransport
	w := f.scan("GID-100", `{"contact_id":"C-42"}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
	b := decode(t, w)
	assert.Equal(t, "transport_error", b.Data.Scan.Outcome)
	assert.Equal(t, "failure", b.Data.Tone)
}

func TestScan_EmptyContactBecomesError(t *testing.T) {
	f := newFixture(t, connect.OutcomeRejected, false)
	f.scan("GID-100", `{"contact_id":""}`)
	require.Len(t, f.attender.reqs, 1)
	assert.Equal(t, MissingContactID, f.attender.reqs[0].ContactID)
}

func TestScan_DuplicateWithinPause(t *testing.T) {
	f := newFixture(t, connect.OutcomeAttended, false)
	require.Equal(t, http.StatusOK, f.scan("GID-100", `{"contact_id":"C-42"}`).Code)
	assert.Equal(t, http.StatusConflict, f.scan("GID-100", `{"contact_id":"C-42"}`).Code)
	assert.Equal(t, http.StatusOK, f.scan("GID-200", `{"contact_id":"C-42"}`).Code)
	assert.Len(t, f.attender.reqs, 2)
}

func TestScan_GateDownStillScans(t *testing.T) {
	f := newFixture(t, connect.OutcomeAttended, false)
	f.gate.err = errors.New("redis down")
	assert.Equal(t, http.StatusOK, f.scan("GID-100", `{"contact_id":"C-42"}`).Code)
	assert.Equal(t, http.StatusOK, f.scan("GID-100", `{"contact_id":"C-42"}`).Code)
}

func TestScan_LogFailureStillReportsOutcome(t *testing.T) {
	f := newFixture(t, connect.OutcomeAttended, false)
	f.log.err = errors.New("db down")
	assert.Equal(t, http.StatusOK, f.scan("GID-100", `{"contact_id":"C-42"}`).Code)
}

func TestScan_BadBody(t *testing.T) {
	f := newFixture(t, connect.OutcomeAttended, false)
	assert.Equal(t, http.StatusBadRequest, f.scan("GID-100", `not json`).Code)
	assert.Empty(t, f.attender.reqs)
}

func TestList(t *testing.T) {
	f := newFixture(t, connect.OutcomeAttended, false)
	f.scan("GID-100", `{"contact_id":"C-1"}`)
	f.scan("GID-100", `{"contact_id":"C-2"}`)
	f.attender.outcome = connect.OutcomeRejected
	f.scan("GID-100", `{"contact_id":"C-3"}`)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events/GID-100/scans", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var b struct {
		Data struct {
			Scans  []models.Scan     `json:"scans"`
			Counts models.ScanCounts `json:"counts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &b))
	assert.Len(t, b.Data.Scans, 3)
	assert.Equal(t, models.ScanCounts{Total: 3, Attended: 2, Rejected: 1}, b.Data.Counts)
}
