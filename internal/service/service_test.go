package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"painsignal/internal/models"
	"painsignal/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockClassifier is a mock implementation of Classifier
type MockClassifier struct {
	mu           sync.Mutex
	calls        int
	classifyFunc func(ctx context.Context, text string) models.Classification
}

func (m *MockClassifier) Classify(ctx context.Context, text string) models.Classification {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.classifyFunc != nil {
		return m.classifyFunc(ctx, text)
	}
	return models.Classification{
		Industry:              "SaaS",
		Sentiment:             "Frustration",
		ConfidenceScore:       82,
		ConfidenceExplanation: "clear pain",
	}
}

func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type recordingNotifier struct {
	mu      sync.Mutex
	records []*models.PainPointRecord
}

func (n *recordingNotifier) Notify(rec *models.PainPointRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.records = append(n.records, rec)
}

// memStore is an in-memory PainPointStore with optional hooks and injected errors.
type memStore struct {
	mu      sync.Mutex
	records []*models.PainPointRecord
	nextID  int
	calls   int

	insertErr  error
	countHook  func()
	oldestHook func()
}

func (m *memStore) Insert(_ context.Context, rec *models.PainPointRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.insertErr != nil {
		return m.insertErr
	}
	m.nextID++
	rec.ID = fmt.Sprintf("id-%03d", m.nextID)
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *memStore) List(_ context.Context, opts repository.ListOptions) ([]*models.PainPointRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	out := []*models.PainPointRecord{}
	for _, r := range m.records {
		if !opts.IncludeTest && r.IsTest {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	m.calls++
	n := int64(len(m.records))
	hook := m.countHook
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return n, nil
}

func (m *memStore) Oldest(_ context.Context) (*models.PainPointRecord, error) {
	m.mu.Lock()
	m.calls++
	var oldest *models.PainPointRecord
	for _, r := range m.records {
		if oldest == nil || r.CreatedAt < oldest.CreatedAt {
			oldest = r
		}
	}
	hook := m.oldestHook
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return oldest, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for i, r := range m.records {
		if r.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memStore) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (m *memStore) storeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// barrier returns a function that blocks until n callers have reached it.
func barrier(n int) func() {
	var wg sync.WaitGroup
	wg.Add(n)
	return func() {
		wg.Done()
		wg.Wait()
	}
}

type fixture struct {
	svc        *IngestionService
	classifier *MockClassifier
	primary    *memStore
	public     *memStore
	notifier   *recordingNotifier
}

func newFixture(maxPublic int) *fixture {
	f := &fixture{
		classifier: &MockClassifier{},
		primary:    &memStore{},
		public:     &memStore{},
		notifier:   &recordingNotifier{},
	}
	logger := zap.NewNop()
	f.svc = NewIngestionService(
		f.classifier,
		f.primary,
		NewBoundedPublicStore(f.public, logger),
		f.notifier,
		IngestionOptions{MaxPublicEntries: maxPublic, MaxDescriptionLength: 5000},
		logger,
	)
	return f
}

func strPtr(s string) *string { return &s }

func seed(store *memStore, n int, base time.Time) {
	for i := 0; i < n; i++ {
		_ = store.Insert(context.Background(), &models.PainPointRecord{
			Description: fmt.Sprintf("seed %d", i),
			CreatedAt:   models.FormatTimestamp(base.Add(time.Duration(i) * time.Second)),
		})
	}
}

func TestIngest_Primary(t *testing.T) {
	f := newFixture(10)

	rec, err := f.svc.Ingest(context.Background(),
		models.PainPointSubmission{Description: strPtr("  Invoices get lost every week  ")},
		models.TargetPrimary)
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Invoices get lost every week", rec.Description)
	assert.Equal(t, "SaaS", rec.Industry)
	assert.Equal(t, "Frustration", rec.Sentiment)
	assert.Equal(t, 82, rec.ConfidenceScore)
	assert.Equal(t, "clear pain", rec.ConfidenceExplanation)
	assert.False(t, rec.IsTest)
	assert.False(t, rec.IsAnonymous)

	_, err = time.Parse(models.TimestampLayout, rec.CreatedAt)
	assert.NoError(t, err)

	assert.Equal(t, 1, f.primary.size())
	assert.Equal(t, 0, f.public.size())
	require.Len(t, f.notifier.records, 1)
	assert.Equal(t, rec.ID, f.notifier.records[0].ID)
}

func TestIngest_ValidationShortCircuits(t *testing.T) {
	tests := []struct {
		name   string
		sub    models.PainPointSubmission
		target models.Target
	}{
		{"missing description", models.PainPointSubmission{}, models.TargetPrimary},
		{"empty description", models.PainPointSubmission{Description: strPtr("")}, models.TargetPrimary},
		{"whitespace description", models.PainPointSubmission{Description: strPtr(" \n\t ")}, models.TargetPublic},
		{"unknown target", models.PainPointSubmission{Description: strPtr("text")}, models.Target("archive")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(10)

			rec, err := f.svc.Ingest(context.Background(), tt.sub, tt.target)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, ErrValidation)

			assert.Zero(t, f.classifier.Calls())
			assert.Zero(t, f.primary.storeCalls())
			assert.Zero(t, f.public.storeCalls())
			assert.Empty(t, f.notifier.records)
		})
	}
}

func TestIngest_TestMarker(t *testing.T) {
	f := newFixture(10)
	ctx := context.Background()

	marked, err := f.svc.Ingest(ctx, models.PainPointSubmission{Description: strPtr("App crashes daily [TEST]")}, models.TargetPrimary)
	require.NoError(t, err)
	assert.True(t, marked.IsTest)

	plain, err := f.svc.Ingest(ctx, models.PainPointSubmission{Description: strPtr("App crashes daily")}, models.TargetPrimary)
	require.NoError(t, err)
	assert.False(t, plain.IsTest)

	visible, err := f.svc.List(ctx, false, 0)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, plain.ID, visible[0].ID)

	all, err := f.svc.List(ctx, true, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestIngest_MalformedClassificationFallsBack(t *testing.T) {
	f := newFixture(10)
	f.classifier.classifyFunc = func(ctx context.Context, text string) models.Classification {
		return models.Classification{Industry: " ", ConfidenceScore: 250}
	}

	rec, err := f.svc.Ingest(context.Background(), models.PainPointSubmission{Description: strPtr("text")}, models.TargetPrimary)
	require.NoError(t, err)

	assert.Equal(t, models.UnknownIndustry, rec.Industry)
	assert.Equal(t, models.NeutralSentiment, rec.Sentiment)
	assert.Equal(t, 100, rec.ConfidenceScore)
	assert.Equal(t, models.NoExplanation, rec.ConfidenceExplanation)
}

func TestIngest_DefaultClassificationStillSaved(t *testing.T) {
	f := newFixture(10)
	f.classifier.classifyFunc = func(ctx context.Context, text string) models.Classification {
		return models.DefaultClassification()
	}

	rec, err := f.svc.Ingest(context.Background(), models.PainPointSubmission{Description: strPtr("text")}, models.TargetPrimary)
	require.NoError(t, err)
	assert.Equal(t, 0, rec.ConfidenceScore)
	assert.NotEmpty(t, rec.ConfidenceExplanation)
	assert.Equal(t, 1, f.primary.size())
}

func TestIngest_PersistenceError(t *testing.T) {
	f := newFixture(10)
	f.primary.insertErr = errors.New("disk full")

	rec, err := f.svc.Ingest(context.Background(), models.PainPointSubmission{Description: strPtr("text")}, models.TargetPrimary)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, f.notifier.records)
}

func TestIngest_PublicTruncatesAndMarksAnonymous(t *testing.T) {
	f := newFixture(10)
	long := strings.Repeat("é", 6000)

	var classified string
	f.classifier.classifyFunc = func(ctx context.Context, text string) models.Classification {
		classified = text
		return models.Classification{Industry: "x", Sentiment: "y", ConfidenceScore: 10, ConfidenceExplanation: "z"}
	}

	rec, err := f.svc.Ingest(context.Background(), models.PainPointSubmission{Description: &long}, models.TargetPublic)
	require.NoError(t, err)

	assert.True(t, rec.IsAnonymous)
	assert.Equal(t, 5000, len([]rune(rec.Description)))
	assert.Equal(t, rec.Description, classified)
	assert.Equal(t, 1, f.public.size())
	assert.Equal(t, 0, f.primary.size())
}

func TestIngest_PrimaryDoesNotTruncate(t *testing.T) {
	f := newFixture(10)
	long := strings.Repeat("a", 6000)

	rec, err := f.svc.Ingest(context.Background(), models.PainPointSubmission{Description: &long}, models.TargetPrimary)
	require.NoError(t, err)
	assert.Len(t, rec.Description, 6000)
}

func TestIngest_PublicEvictsOldestAtCapacity(t *testing.T) {
	const maxEntries = 3
	f := newFixture(maxEntries)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(f.public, maxEntries, base)

	oldest, err := f.public.Oldest(context.Background())
	require.NoError(t, err)

	rec, err := f.svc.Ingest(context.Background(), models.PainPointSubmission{Description: strPtr("new")}, models.TargetPublic)
	require.NoError(t, err)

	assert.Equal(t, maxEntries, f.public.size())
	assert.False(t, f.public.has(oldest.ID))
	assert.True(t, f.public.has(rec.ID))
}

func TestIngest_PublicBelowCapacityKeepsAll(t *testing.T) {
	f := newFixture(3)
	seed(f.public, 2, time.Now().Add(-time.Hour))

	_, err := f.svc.Ingest(context.Background(), models.PainPointSubmission{Description: strPtr("new")}, models.TargetPublic)
	require.NoError(t, err)
	assert.Equal(t, 3, f.public.size())
}

// Two inserts that both observe a full collection delete the same oldest
// entry, so the collection ends one over the cap.
func TestIngest_PublicEvictionRace(t *testing.T) {
	const maxEntries = 3
	f := newFixture(maxEntries)
	seed(f.public, maxEntries, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	f.public.countHook = barrier(2)
	f.public.oldestHook = barrier(2)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Ingest(context.Background(),
				models.PainPointSubmission{Description: strPtr(fmt.Sprintf("concurrent %d", i))},
				models.TargetPublic)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, maxEntries+1, f.public.size())
}

func TestEvictIfFull_EmptyCollection(t *testing.T) {
	store := &memStore{}
	b := NewBoundedPublicStore(store, zap.NewNop())

	require.NoError(t, b.EvictIfFull(context.Background(), 0))
	assert.Equal(t, 0, store.size())
}

func TestIngest_NilNotifier(t *testing.T) {
	logger := zap.NewNop()
	primary := &memStore{}
	svc := NewIngestionService(&MockClassifier{}, primary, NewBoundedPublicStore(&memStore{}, logger), nil, IngestionOptions{}, logger)

	_, err := svc.Ingest(context.Background(), models.PainPointSubmission{Description: strPtr("text")}, models.TargetPrimary)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.size())
}

func TestIngest_ConcurrentSubmissions(t *testing.T) {
	f := newFixture(1000)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			target := models.TargetPrimary
			if i%2 == 0 {
				target = models.TargetPublic
			}
			_, err := f.svc.Ingest(context.Background(),
				models.PainPointSubmission{Description: strPtr(fmt.Sprintf("pain %d", i))}, target)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, f.primary.size())
	assert.Equal(t, 10, f.public.size())
	assert.Equal(t, 20, f.classifier.Calls())
}

// memWaitlist is an in-memory WaitlistStore.
type memWaitlist struct {
	mu      sync.Mutex
	entries map[string]*models.WaitlistEntry
	findErr error
}

func (m *memWaitlist) FindByEmail(_ context.Context, email string) (*models.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.entries[email], nil
}

func (m *memWaitlist) Insert(_ context.Context, entry *models.WaitlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = map[string]*models.WaitlistEntry{}
	}
	entry.ID = fmt.Sprintf("w-%d", len(m.entries)+1)
	m.entries[entry.Email] = entry
	return nil
}

func TestWaitlist_JoinThenDuplicate(t *testing.T) {
	svc := NewWaitlistService(&memWaitlist{}, zap.NewNop())
	ctx := context.Background()

	entry, err := svc.Join(ctx, models.WaitlistRequest{Email: strPtr("Foo@Example.com ")})
	require.NoError(t, err)
	assert.Equal(t, "foo@example.com", entry.Email)
	assert.NotEmpty(t, entry.ID)
	assert.NotEmpty(t, entry.SignedUpAt)

	_, err = svc.Join(ctx, models.WaitlistRequest{Email: strPtr("foo@example.com")})
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := svc.Find(ctx, "foo@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entry.ID, found.ID)

	missing, err := svc.Find(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestWaitlist_Validation(t *testing.T) {
	svc := NewWaitlistService(&memWaitlist{}, zap.NewNop())

	for _, email := range []*string{nil, strPtr(""), strPtr("not-an-email"), strPtr("a@b")} {
		_, err := svc.Join(context.Background(), models.WaitlistRequest{Email: email})
		assert.ErrorIs(t, err, ErrValidation)
	}

	_, err := svc.Find(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWaitlist_StoreFailure(t *testing.T) {
	svc := NewWaitlistService(&memWaitlist{findErr: errors.New("offline")}, zap.NewNop())

	_, err := svc.Join(context.Background(), models.WaitlistRequest{Email: strPtr("a@b.co")})
	assert.ErrorIs(t, err, ErrPersistence)
}
