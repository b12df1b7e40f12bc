package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Tenders/internal/domain"
	"github.com/shaiso/Tenders/internal/index"
	"github.com/shaiso/Tenders/internal/source"
)

// --- Fakes ---

// fakeFetcher возвращает заранее заданные страницы.
type fakeFetcher struct {
	pages  [][]domain.RawTender
	err    error
	calls  []source.Params
	cancel context.CancelFunc
}

func (f *fakeFetcher) Fetch(ctx context.Context, params source.Params) ([]domain.RawTender, error) {
	f.calls = append(f.calls, params)
	if f.cancel != nil {
		f.cancel()
		return nil, fmt.Errorf("%w: %w", source.ErrFetch, context.Canceled)
	}
	if f.err != nil {
		return nil, f.err
	}
	page := len(f.calls) - 1
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

// fakeIndex хранит документы в памяти и отвечает как _bulk.
type fakeIndex struct {
	mu       sync.Mutex
	docs     map[string]domain.Fields
	requests int
	err      error
	reject   map[string]bool
	truncate int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string]domain.Fields), reject: make(map[string]bool)}
}

func (f *fakeIndex) Bulk(_ context.Context, docs []domain.Document) ([]index.BulkItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests++
	if f.err != nil {
		return nil, f.err
	}

	items := make([]index.BulkItem, 0, len(docs))
	for _, doc := range docs {
		if f.reject[doc.ID] {
			items = append(items, index.BulkItem{ID: doc.ID, Status: 400, Error: "mapper_parsing_exception: bad"})
			continue
		}
		result := index.ResultCreated
		status := 201
		if _, ok := f.docs[doc.ID]; ok {
			result, status = index.ResultUpdated, 200
		}
		f.docs[doc.ID] = doc.Fields
		items = append(items, index.BulkItem{ID: doc.ID, Status: status, Result: result})
	}
	if f.truncate > 0 && f.truncate < len(items) {
		items = items[:f.truncate]
	}
	return items, nil
}

type fakeLogs struct {
	entries []domain.SyncLog
	err     error
}

func (f *fakeLogs) Create(_ context.Context, log *domain.SyncLog) error {
	if f.err != nil {
		return f.err
	}
	log.ID = int64(len(f.entries) + 1)
	log.SyncTime = time.Now()
	f.entries = append(f.entries, *log)
	return nil
}

type fakeNotifier struct {
	syncIDs []string
	results []domain.SyncResult
}

func (f *fakeNotifier) PublishSyncCompleted(_ context.Context, syncID string, result domain.SyncResult) error {
	f.syncIDs = append(f.syncIDs, syncID)
	f.results = append(f.results, result)
	return errors.New("broker unavailable")
}

func records(t *testing.T, bodies ...string) []domain.RawTender {
	t.Helper()
	out := make([]domain.RawTender, 0, len(bodies))
	for _, b := range bodies {
		var rec domain.RawTender
		if err := json.Unmarshal([]byte(b), &rec); err != nil {
			t.Fatalf("bad fixture %s: %v", b, err)
		}
		out = append(out, rec)
	}
	return out
}

type harness struct {
	fetcher *fakeFetcher
	index   *fakeIndex
	logs    *fakeLogs
	states  []domain.SyncState
	syncer  *Syncer
}

func newHarness(pages ...[]domain.RawTender) *harness {
	h := &harness{
		fetcher: &fakeFetcher{pages: pages},
		index:   newFakeIndex(),
		logs:    &fakeLogs{},
	}
	h.syncer = New(Config{
		Fetcher:      h.fetcher,
		Index:        h.index,
		Logs:         h.logs,
		OnTransition: func(s domain.SyncState) { h.states = append(h.states, s) },
	})
	return h
}

func assertStats(t *testing.T, got *domain.SyncStats, want domain.SyncStats) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected stats %+v, got none", want)
	}
	if *got != want {
		t.Errorf("expected stats %+v, got %+v", want, *got)
	}
	if !got.Consistent() {
		t.Errorf("stats are inconsistent: %+v", *got)
	}
}

// --- Scenarios ---

func TestRun_EmptyResult(t *testing.T) {
	h := newHarness([]domain.RawTender{})

	result := h.syncer.Run(context.Background(), domain.SyncSettings{})

	if !result.Success {
		t.Errorf("expected success, got %+v", result)
	}
	if result.Message != "API returned 0 tenders to sync" {
		t.Errorf("unexpected message %q", result.Message)
	}
	assertStats(t, result.Stats, domain.SyncStats{})
	if h.index.requests != 0 {
		t.Errorf("expected no bulk request, got %d", h.index.requests)
	}
}

func TestRun_FetchFailure(t *testing.T) {
	h := newHarness()
	h.fetcher.err = fmt.Errorf("%w: %w", source.ErrFetch, &source.StatusError{StatusCode: 500, Body: "boom"})

	result := h.syncer.Run(context.Background(), domain.SyncSettings{})

	if result.Success {
		t.Error("expected failure")
	}
	if !strings.HasPrefix(result.Message, "Error fetching from API: ") {
		t.Errorf("unexpected message %q", result.Message)
	}
	if !strings.Contains(result.Message, "500") {
		t.Errorf("message should carry the status: %q", result.Message)
	}
	if result.Stats != nil {
		t.Errorf("expected no stats, got %+v", result.Stats)
	}
	if len(h.logs.entries) != 0 {
		t.Error("no sync log expected on fetch failure")
	}
	if h.states[len(h.states)-1] != domain.SyncStateDone {
		t.Errorf("expected DONE as final state, got %v", h.states)
	}
	for _, s := range h.states {
		if s == domain.SyncStateIndexing || s == domain.SyncStateLogging {
			t.Errorf("unexpected state %s after fetch failure", s)
		}
	}
}

func TestRun_MalformedResponse(t *testing.T) {
	h := newHarness()
	h.fetcher.err = fmt.Errorf("%w: neither results nor data array found", source.ErrMalformedResponse)

	result := h.syncer.Run(context.Background(), domain.SyncSettings{})

	if result.Success || result.Stats != nil {
		t.Errorf("expected failure without stats, got %+v", result)
	}
	if !strings.HasPrefix(result.Message, "Error fetching from API: ") {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestRun_NewRecordThenResync(t *testing.T) {
	h := newHarness(records(t, `{"tenderId":123,"tenderName":"Supply"}`))

	first := h.syncer.Run(context.Background(), domain.SyncSettings{})
	if !first.Success {
		t.Fatalf("expected success, got %+v", first)
	}
	assertStats(t, first.Stats, domain.SyncStats{Total: 1, Added: 1})
	if first.Message != "Sync completed: 1 added, 0 updated, 0 failed" {
		t.Errorf("unexpected message %q", first.Message)
	}
	if len(h.logs.entries) != 1 || h.logs.entries[0].NewTendersCount != 1 || h.logs.entries[0].TotalTenders != 1 {
		t.Errorf("unexpected sync logs %+v", h.logs.entries)
	}

	// Повторный запуск с тем же источником
	h.fetcher.calls = nil
	second := h.syncer.Run(context.Background(), domain.SyncSettings{})
	assertStats(t, second.Stats, domain.SyncStats{Total: 1, Updated: 1})
	if len(h.index.docs) != 1 {
		t.Errorf("upsert must not duplicate documents, got %d", len(h.index.docs))
	}
	if len(h.logs.entries) != 2 || h.logs.entries[1].NewTendersCount != 0 {
		t.Errorf("unexpected sync logs %+v", h.logs.entries)
	}
}

func TestRun_RecordWithoutID(t *testing.T) {
	h := newHarness(records(t,
		`{"tenderId":1}`,
		`{"tenderName":"orphan","agencyName":"x"}`,
	))

	result := h.syncer.Run(context.Background(), domain.SyncSettings{})

	assertStats(t, result.Stats, domain.SyncStats{Total: 2, Added: 1, Failed: 1})
	if len(h.index.docs) != 1 {
		t.Errorf("rejected record must not reach the index, got %d docs", len(h.index.docs))
	}
	if !result.Success {
		t.Error("partial failure is still a successful sync")
	}
}

func TestRun_Duplicates(t *testing.T) {
	h := newHarness(records(t,
		`{"tenderId":7,"tenderName":"first"}`,
		`{"tenderId":7,"tenderName":"second"}`,
	))

	result := h.syncer.Run(context.Background(), domain.SyncSettings{})

	assertStats(t, result.Stats, domain.SyncStats{Total: 2, Added: 1, Duplicates: 1})
	name, _ := h.index.docs["7"].String("tenderName")
	if name != "first" {
		t.Errorf("expected first occurrence indexed, got %q", name)
	}
}

func TestRun_ItemFailures(t *testing.T) {
	h := newHarness(records(t, `{"tenderId":1}`, `{"tenderId":2}`, `{"tenderId":3}`))
	h.index.reject["2"] = true

	result := h.syncer.Run(context.Background(), domain.SyncSettings{})

	assertStats(t, result.Stats, domain.SyncStats{Total: 3, Added: 2, Failed: 1})
	if result.Message != "Sync completed: 2 added, 0 updated, 1 failed" {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestRun_MissingItemsCountAsFailed(t *testing.T) {
	h := newHarness(records(t, `{"tenderId":1}`, `{"tenderId":2}`))
	h.index.truncate = 1

	result := h.syncer.Run(context.Background(), domain.SyncSettings{})

	assertStats(t, result.Stats, domain.SyncStats{Total: 2, Added: 1, Failed: 1})
}

func TestRun_IndexingFailure(t *testing.T) {
	h := newHarness(records(t, `{"tenderId":1}`))
	h.index.err = errors.New("connection refused")

	result := h.syncer.Run(context.Background(), domain.SyncSettings{})

	if result.Success {
		t.Error("expected failure")
	}
	if !strings.HasPrefix(result.Message, "Error indexing to Elasticsearch: ") {
		t.Errorf("unexpected message %q", result.Message)
	}
	if !strings.Contains(result.Message, "connection refused") {
		t.Errorf("message should carry the cause: %q", result.Message)
	}
	if result.Stats != nil {
		t.Errorf("expected no stats, got %+v", result.Stats)
	}
	if len(h.logs.entries) != 0 {
		t.Error("no sync log expected when indexing failed")
	}
}

func TestRun_LogFailureDoesNotFailSync(t *testing.T) {
	h := newHarness(records(t, `{"tenderId":1}`))
	h.logs.err = errors.New("db down")

	result := h.syncer.Run(context.Background(), domain.SyncSettings{})

	if !result.Success {
		t.Errorf("log failure must not fail the sync: %+v", result)
	}
	assertStats(t, result.Stats, domain.SyncStats{Total: 1, Added: 1})
}

func TestRun_StateOrder(t *testing.T) {
	h := newHarness(records(t, `{"tenderId":1}`))

	h.syncer.Run(context.Background(), domain.SyncSettings{})

	want := []domain.SyncState{
		domain.SyncStateNormalizing,
		domain.SyncStateFetching,
		domain.SyncStateTransforming,
		domain.SyncStateIndexing,
		domain.SyncStateLogging,
		domain.SyncStateDone,
	}
	if len(h.states) != len(want) {
		t.Fatalf("expected states %v, got %v", want, h.states)
	}
	for i := range want {
		if h.states[i] != want[i] {
			t.Errorf("state %d: expected %s, got %s", i, want[i], h.states[i])
		}
	}
}

func TestRun_ForwardsSettings(t *testing.T) {
	h := newHarness([]domain.RawTender{})

	h.syncer.Run(context.Background(), domain.SyncSettings{
		PageSize:       domain.Int(10),
		TenderCategory: domain.Int(2),
	})

	if len(h.fetcher.calls) != 1 {
		t.Fatalf("expected one fetch, got %d", len(h.fetcher.calls))
	}
	if got := h.fetcher.calls[0].Encode(); got != "PageSize=10&TenderCategory=2" {
		t.Errorf("unexpected params %s", got)
	}
}

func TestRun_MultiplePages(t *testing.T) {
	h := newHarness(
		records(t, `{"tenderId":1}`, `{"tenderId":2}`),
		records(t, `{"tenderId":2}`, `{"tenderId":3}`),
		records(t, `{"tenderId":4}`),
	)

	result := h.syncer.Run(context.Background(), domain.SyncSettings{PageSize: domain.Int(2), Pages: 5})

	if len(h.fetcher.calls) != 3 {
		t.Fatalf("expected to stop after the short page, got %d fetches", len(h.fetcher.calls))
	}
	if v, _ := h.fetcher.calls[1].Get(source.ParamPageNumber); v != "2" {
		t.Errorf("expected PageNumber=2 on the second fetch, got %q", v)
	}
	assertStats(t, result.Stats, domain.SyncStats{Total: 5, Added: 4, Duplicates: 1})
	if len(h.logs.entries) != 1 {
		t.Errorf("expected one sync log per run, got %d", len(h.logs.entries))
	}
}

func TestRun_Cancelled(t *testing.T) {
	h := newHarness(records(t, `{"tenderId":1}`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := h.syncer.Run(ctx, domain.SyncSettings{})

	if result.Success || result.Stats != nil {
		t.Errorf("expected failure without stats, got %+v", result)
	}
	if !strings.HasPrefix(result.Message, "Sync cancelled: ") {
		t.Errorf("unexpected message %q", result.Message)
	}
	if len(h.fetcher.calls) != 0 {
		t.Error("cancelled run must not call the external API")
	}
}

func TestRun_CancelledDuringFetch(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.fetcher.cancel = cancel

	result := h.syncer.Run(ctx, domain.SyncSettings{})

	if !strings.HasPrefix(result.Message, "Sync cancelled: ") {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestRun_NotifiesCompletion(t *testing.T) {
	h := newHarness(records(t, `{"tenderId":1}`))
	notifier := &fakeNotifier{}
	h.syncer.notifier = notifier

	result := h.syncer.RunWithID(context.Background(), "sync-42", domain.SyncSettings{})

	if !result.Success {
		t.Error("publish failure must not fail the sync")
	}
	if len(notifier.syncIDs) != 1 || notifier.syncIDs[0] != "sync-42" {
		t.Errorf("unexpected notifications %v", notifier.syncIDs)
	}
	if notifier.results[0].Message != result.Message {
		t.Errorf("notification should carry the result")
	}
}

func TestRun_ConcurrentRuns(t *testing.T) {
	idx := newFakeIndex()
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var rec domain.RawTender
			json.Unmarshal([]byte(fmt.Sprintf(`{"tenderId":%d}`, i+1)), &rec)

			s := New(Config{
				Fetcher: &fakeFetcher{pages: [][]domain.RawTender{{rec}}},
				Index:   idx,
			})
			if r := s.Run(context.Background(), domain.SyncSettings{}); !r.Success {
				t.Errorf("run %d failed: %s", i, r.Message)
			}
		}(i)
	}
	wg.Wait()

	if len(idx.docs) != 4 {
		t.Errorf("expected 4 documents, got %d", len(idx.docs))
	}
}
