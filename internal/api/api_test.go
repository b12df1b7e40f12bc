package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Tenders/internal/domain"
	"github.com/shaiso/Tenders/internal/index"
	"github.com/shaiso/Tenders/internal/mq"
)

// --- Fakes ---

type fakeSyncer struct {
	settings []domain.SyncSettings
	result   domain.SyncResult
}

func (f *fakeSyncer) Run(_ context.Context, settings domain.SyncSettings) domain.SyncResult {
	f.settings = append(f.settings, settings)
	return f.result
}

type fakeDispatcher struct {
	payloads []mq.SyncRequestedPayload
	err      error
}

func (f *fakeDispatcher) PublishSyncRequested(_ context.Context, p mq.SyncRequestedPayload) error {
	if f.err != nil {
		return f.err
	}
	f.payloads = append(f.payloads, p)
	return nil
}

type fakeLogs struct {
	logs  []domain.SyncLog
	limit int
	err   error
}

func (f *fakeLogs) ListRecent(_ context.Context, limit int) ([]domain.SyncLog, error) {
	f.limit = limit
	return f.logs, f.err
}

type fakeIndex struct {
	stats    *index.Stats
	recent   []domain.Fields
	limit    int
	statsNow time.Time
	err      error
}

func (f *fakeIndex) Stats(_ context.Context, now time.Time) (*index.Stats, error) {
	f.statsNow = now
	return f.stats, f.err
}

func (f *fakeIndex) Recent(_ context.Context, limit int) ([]domain.Fields, error) {
	f.limit = limit
	return f.recent, f.err
}

func (f *fakeIndex) Ping(context.Context) (*index.ClusterInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	info := &index.ClusterInfo{ClusterName: "test-cluster"}
	info.Version.Number = "8.17.0"
	return info, nil
}

type testEnv struct {
	syncer     *fakeSyncer
	dispatcher *fakeDispatcher
	logs       *fakeLogs
	index      *fakeIndex
	mux        *http.ServeMux
}

func newTestEnv(withDispatcher bool) *testEnv {
	env := &testEnv{
		syncer: &fakeSyncer{result: domain.SyncResult{
			Success: true,
			Message: "Sync completed: 2 added, 0 updated, 0 failed",
			Stats:   &domain.SyncStats{Total: 2, Added: 2},
		}},
		dispatcher: &fakeDispatcher{},
		logs:       &fakeLogs{},
		index:      &fakeIndex{stats: &index.Stats{TotalTenders: 10}},
		mux:        http.NewServeMux(),
	}

	cfg := Config{
		Syncer: env.syncer,
		Logs:   env.logs,
		Index:  env.index,
		Now:    func() time.Time { return time.Date(2025, 4, 17, 12, 0, 0, 0, time.UTC) },
	}
	if withDispatcher {
		cfg.Dispatcher = env.dispatcher
	}

	NewHandler(cfg).RegisterRoutes(env.mux)
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

// --- Sync Tests ---

func TestRunSync_Success(t *testing.T) {
	env := newTestEnv(false)

	rec := env.do(http.MethodPost, "/api/v1/sync", `{"pageSize":10,"fields":["tenderId"]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Data domain.SyncResult `json:"data"`
	}](t, rec)
	if !resp.Data.Success || resp.Data.Stats == nil || resp.Data.Stats.Added != 2 {
		t.Errorf("unexpected result %+v", resp.Data)
	}

	if len(env.syncer.settings) != 1 {
		t.Fatalf("expected 1 sync, got %d", len(env.syncer.settings))
	}
	got := env.syncer.settings[0]
	if got.PageSize == nil || *got.PageSize != 10 || len(got.Fields) != 1 {
		t.Errorf("settings not forwarded: %+v", got)
	}
}

func TestRunSync_EmptyBody(t *testing.T) {
	env := newTestEnv(false)

	rec := env.do(http.MethodPost, "/api/v1/sync", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body should use defaults, got %d", rec.Code)
	}
	if env.syncer.settings[0].PageSize != nil {
		t.Error("expected empty settings")
	}
}

func TestRunSync_EmptyBodyUsesDefaults(t *testing.T) {
	env := newTestEnv(false)
	mux := http.NewServeMux()
	NewHandler(Config{
		Syncer:   env.syncer,
		Defaults: domain.SyncSettings{PageSize: domain.Int(30)},
	}).RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := env.syncer.settings[0].PageSize; got == nil || *got != 30 {
		t.Errorf("expected default page size 30, got %v", got)
	}

	// Явное тело, даже пустой объект, заменяет настройки по умолчанию
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/sync", strings.NewReader("{}")))
	if env.syncer.settings[1].PageSize != nil {
		t.Error("explicit body must not be merged with defaults")
	}
}

func TestRunSync_InvalidBody(t *testing.T) {
	env := newTestEnv(false)

	rec := env.do(http.MethodPost, "/api/v1/sync", `{"pageSize":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if len(env.syncer.settings) != 0 {
		t.Error("sync must not run on invalid body")
	}
}

func TestRunSync_Failure(t *testing.T) {
	env := newTestEnv(false)
	env.syncer.result = domain.SyncResult{Success: false, Message: "Error fetching from API: timeout"}

	rec := env.do(http.MethodPost, "/api/v1/sync", "{}")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	resp := decode[struct {
		Data domain.SyncResult `json:"data"`
	}](t, rec)
	if resp.Data.Success || !strings.HasPrefix(resp.Data.Message, "Error fetching from API") {
		t.Errorf("unexpected result %+v", resp.Data)
	}
}

func TestRunSync_Async(t *testing.T) {
	env := newTestEnv(true)

	rec := env.do(http.MethodPost, "/api/v1/sync?async=true", `{"tenderCategory":2}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body)
	}
	resp := decode[struct {
		Data SyncAcceptedResponse `json:"data"`
	}](t, rec)
	if resp.Data.SyncID == "" || resp.Data.Status != "queued" {
		t.Errorf("unexpected response %+v", resp.Data)
	}

	if len(env.dispatcher.payloads) != 1 {
		t.Fatalf("expected 1 published request, got %d", len(env.dispatcher.payloads))
	}
	p := env.dispatcher.payloads[0]
	if p.SyncID != resp.Data.SyncID || p.Source != "api" {
		t.Errorf("unexpected payload %+v", p)
	}
	if p.Settings.TenderCategory == nil || *p.Settings.TenderCategory != 2 {
		t.Errorf("settings not forwarded: %+v", p.Settings)
	}
	if len(env.syncer.settings) != 0 {
		t.Error("async request must not run the sync inline")
	}
}

func TestRunSync_AsyncWithoutBroker(t *testing.T) {
	env := newTestEnv(false)

	rec := env.do(http.MethodPost, "/api/v1/sync?async=1", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestRunSync_AsyncPublishError(t *testing.T) {
	env := newTestEnv(true)
	env.dispatcher.err = errors.New("channel closed")

	rec := env.do(http.MethodPost, "/api/v1/sync?async=true", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestRunSync_InvalidAsyncFlag(t *testing.T) {
	env := newTestEnv(true)

	rec := env.do(http.MethodPost, "/api/v1/sync?async=maybe", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

// --- Logs Tests ---

func TestListSyncLogs(t *testing.T) {
	env := newTestEnv(false)
	env.logs.logs = []domain.SyncLog{
		{ID: 2, SyncTime: time.Date(2025, 4, 17, 11, 0, 0, 0, time.UTC), TotalTenders: 50, NewTendersCount: 3},
		{ID: 1, SyncTime: time.Date(2025, 4, 17, 10, 0, 0, 0, time.UTC), TotalTenders: 50, NewTendersCount: 50},
	}

	rec := env.do(http.MethodGet, "/api/v1/sync/logs", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.logs.limit != 20 {
		t.Errorf("expected default limit 20, got %d", env.logs.limit)
	}
	resp := decode[struct {
		Data  []SyncLogResponse `json:"data"`
		Total int               `json:"total"`
	}](t, rec)
	if resp.Total != 2 || resp.Data[0].ID != 2 || resp.Data[1].NewTendersCount != 50 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestListSyncLogs_Limit(t *testing.T) {
	env := newTestEnv(false)

	env.do(http.MethodGet, "/api/v1/sync/logs?limit=500", "")
	if env.logs.limit != 100 {
		t.Errorf("limit should be capped at 100, got %d", env.logs.limit)
	}

	for _, bad := range []string{"0", "-1", "abc"} {
		rec := env.do(http.MethodGet, "/api/v1/sync/logs?limit="+bad, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", bad, rec.Code)
		}
	}
}

func TestListSyncLogs_StoreError(t *testing.T) {
	env := newTestEnv(false)
	env.logs.err = errors.New("db down")

	rec := env.do(http.MethodGet, "/api/v1/sync/logs", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

// --- Tenders Tests ---

func TestTenderStats(t *testing.T) {
	env := newTestEnv(false)
	env.index.stats = &index.Stats{
		TotalTenders:  10,
		NewTodayCount: 4,
		ByStatus:      map[string]int64{"1": 7},
		ByCategory:    map[string]int64{"2": 10},
	}

	rec := env.do(http.MethodGet, "/api/v1/tenders/stats", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[struct {
		Data index.Stats `json:"data"`
	}](t, rec)
	if resp.Data.TotalTenders != 10 || resp.Data.NewTodayCount != 4 || resp.Data.ByStatus["1"] != 7 {
		t.Errorf("unexpected stats %+v", resp.Data)
	}
	if !env.index.statsNow.Equal(time.Date(2025, 4, 17, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("stats should use the handler clock, got %v", env.index.statsNow)
	}
}

func TestTenderStats_IndexError(t *testing.T) {
	env := newTestEnv(false)
	env.index.err = errors.New("connection refused")

	rec := env.do(http.MethodGet, "/api/v1/tenders/stats", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
	resp := decode[ErrorResponse](t, rec)
	if resp.Error.Code != ErrCodeUpstream {
		t.Errorf("expected %s, got %s", ErrCodeUpstream, resp.Error.Code)
	}
}

func TestRecentTenders(t *testing.T) {
	env := newTestEnv(false)

	var doc domain.Fields
	if err := json.Unmarshal([]byte(`{"tenderName":"b","tenderId":2}`), &doc); err != nil {
		t.Fatal(err)
	}
	env.index.recent = []domain.Fields{doc}

	rec := env.do(http.MethodGet, "/api/v1/tenders/recent", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.index.limit != index.DefaultRecentLimit {
		t.Errorf("expected default limit %d, got %d", index.DefaultRecentLimit, env.index.limit)
	}
	if !strings.Contains(rec.Body.String(), `{"tenderName":"b","tenderId":2}`) {
		t.Errorf("document field order should be preserved: %s", rec.Body)
	}

	env.do(http.MethodGet, "/api/v1/tenders/recent?limit=7", "")
	if env.index.limit != 7 {
		t.Errorf("expected limit 7, got %d", env.index.limit)
	}
}

// --- Service Tests ---

func TestHealth(t *testing.T) {
	env := newTestEnv(false)

	rec := env.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[HealthResponse](t, rec)
	if resp.ClusterName != "test-cluster" || resp.Version != "8.17.0" {
		t.Errorf("unexpected health %+v", resp)
	}

	if resp.Status != "ok" || resp.RabbitMQ != "disabled" {
		t.Errorf("expected ok without broker, got %+v", resp)
	}

	env.index.err = errors.New("down")
	rec = env.do(http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

type fakeBroker struct{ connected bool }

func (f fakeBroker) IsConnected() bool { return f.connected }

func TestHealth_BrokerDown(t *testing.T) {
	h := NewHandler(Config{Index: &fakeIndex{}, Broker: fakeBroker{connected: false}})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decode[HealthResponse](t, rec)
	if resp.Status != "degraded" || resp.RabbitMQ != "unavailable" {
		t.Errorf("expected degraded, got %+v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(false)

	rec := env.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRecovery(t *testing.T) {
	handler := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(false)

	rec := env.do(http.MethodGet, "/api/v1/sync/logs", "")
	if rec.Header().Get(HeaderRequestID) == "" {
		t.Error("expected generated request id in response")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/logs", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "req-42" {
		t.Errorf("expected propagated request id, got %q", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(false)

	rec := env.do(http.MethodGet, "/api/v1/sync", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
