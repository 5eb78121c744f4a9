package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"intern-hub/internal/model"
	"intern-hub/internal/storage"
	"intern-hub/internal/tagger"
)

func TestRunOncePublishesAcceptedPostings(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{postings: []model.RawPosting{
		{Source: "alpha-board", ExternalID: "p1", CompanyName: "Acme Corp", Title: "Backend Intern"},
		{Source: "alpha-board", ExternalID: "p2", Title: "Senior Engineer"},
	}}
	store := newStubStore()
	tg := &stubTagger{results: map[string]tagger.Result{
		"p1": {
			Outcome:    tagger.OutcomeAccepted,
			Internship: &model.Internship{Title: "Backend Intern", Openings: 1},
			Pairings:   []model.InternshipTopic{{TopicID: 7, RelevanceScore: 0.9}},
		},
		"p2": {Outcome: tagger.OutcomeRejected, Reason: "not an internship"},
	}}
	notif := &stubNotifier{}

	sched := NewScheduler(fetcher, store, tg, notif, Config{Interval: "1h"})
	created, err := sched.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if created != 1 {
		t.Fatalf("expected one published internship, got %d", created)
	}

	if len(store.internships) != 1 || store.internships[0].Title != "Backend Intern" {
		t.Fatalf("unexpected published internships: %+v", store.internships)
	}
	if store.internships[0].CompanyID != store.companies["Acme Corp"].ID {
		t.Fatalf("internship must link to the resolved company")
	}
	if len(store.pairings) != 1 || store.pairings[0].TopicID != 7 {
		t.Fatalf("unexpected pairings: %+v", store.pairings)
	}

	if store.statuses["p1"] != model.RawPostingProcessed {
		t.Fatalf("accepted posting must be marked processed, got %s", store.statuses["p1"])
	}
	if store.statuses["p2"] != model.RawPostingRejected || store.reasons["p2"] != "not an internship" {
		t.Fatalf("rejected posting must carry reason, got %s / %s", store.statuses["p2"], store.reasons["p2"])
	}

	if len(notif.batches) != 1 || len(notif.batches[0]) != 1 {
		t.Fatalf("expected one notification batch with one internship, got %+v", notif.batches)
	}
	if notif.batches[0][0].Company == nil || notif.batches[0][0].Company.Name != "Acme Corp" {
		t.Fatalf("notification must carry the resolved company")
	}
}

func TestRunOnceFallsBackToSourceAsCompanyName(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{postings: []model.RawPosting{
		{Source: "alpha-board", ExternalID: "p1", Title: "Backend Intern"},
	}}
	store := newStubStore()
	tg := &stubTagger{results: map[string]tagger.Result{
		"p1": {Outcome: tagger.OutcomeAccepted, Internship: &model.Internship{Title: "Backend Intern"}},
	}}

	sched := NewScheduler(fetcher, store, tg, nil, Config{})
	if _, err := sched.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce error: %v", err)
	}
	if _, ok := store.companies["alpha-board"]; !ok {
		t.Fatalf("expected company named after source, got %v", store.companies)
	}
}

func TestRunOnceStopsWhenNothingPending(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	store := newStubStore()
	tg := &stubTagger{}

	sched := NewScheduler(fetcher, store, tg, nil, Config{})
	created, err := sched.RunOnce(context.Background())
	if err != nil || created != 0 {
		t.Fatalf("expected clean no-op, got %d / %v", created, err)
	}
	if store.topicsListed {
		t.Fatalf("no pending postings must mean no topic lookup")
	}
}

func TestRunOncePropagatesTaggerErrors(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{postings: []model.RawPosting{{Source: "alpha-board", ExternalID: "p1", Title: "Intern"}}}
	store := newStubStore()
	tg := &stubTagger{err: errors.New("chat http 500")}

	sched := NewScheduler(fetcher, store, tg, nil, Config{})
	if _, err := sched.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected tagger error to propagate")
	}
	if len(store.statuses) != 0 {
		t.Fatalf("failed run must not update posting status")
	}
}

func TestRunOnceGuardsAgainstOverlap(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	store := newStubStore()
	sched := NewScheduler(fetcher, store, &stubTagger{}, nil, Config{})

	sched.running.Store(true)
	created, err := sched.RunOnce(context.Background())
	if err != nil || created != 0 {
		t.Fatalf("overlapping run must be a no-op, got %d / %v", created, err)
	}
	if fetcher.calls != 0 {
		t.Fatalf("overlapping run must not fetch")
	}
}

func TestStartRunsOnTicks(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	store := newStubStore()
	sched := NewScheduler(fetcher, store, &stubTagger{}, nil, Config{Interval: "1h"})

	ch := make(chan time.Time, 1)
	sched.newTicker = func(d time.Duration) ticker {
		return stubTicker{ch: ch}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	ch <- time.Now()
	deadline := time.After(2 * time.Second)
	for fetcher.fetchCount() == 0 {
		select {
		case <-deadline:
			t.Fatalf("tick did not trigger a run")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

func TestParseScheduleAcceptsDurationAndCron(t *testing.T) {
	t.Parallel()

	d, cronCfg := parseSchedule("45m")
	if d != 45*time.Minute || cronCfg.schedule != nil {
		t.Fatalf("expected plain duration, got %v / %+v", d, cronCfg)
	}

	d, cronCfg = parseSchedule("*/30 2,14 * * *")
	if d != 0 || cronCfg.schedule == nil {
		t.Fatalf("expected cron schedule, got %v / %+v", d, cronCfg)
	}
	at := time.Date(2026, 3, 1, 2, 30, 0, 0, time.UTC)
	if !cronCfg.schedule.matches(at) {
		t.Fatalf("expected %v to match spec", at)
	}
	next, err := cronCfg.schedule.next(time.Date(2026, 3, 1, 2, 31, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("next error: %v", err)
	}
	if next.Hour() != 14 || next.Minute() != 0 {
		t.Fatalf("expected next run at 14:00, got %v", next)
	}

	d, cronCfg = parseSchedule("not a schedule")
	if d != 2*time.Hour || cronCfg.schedule != nil {
		t.Fatalf("expected default interval, got %v / %+v", d, cronCfg)
	}
}

func TestParseCronFieldRejectsBadValues(t *testing.T) {
	t.Parallel()

	if _, err := parseCronSpec("* * *"); err == nil {
		t.Fatalf("expected error for short spec")
	}
	if _, err := parseCronField("61", 0, 59); err == nil {
		t.Fatalf("expected error for out-of-range value")
	}
	if _, err := parseCronField("*/0", 0, 59); err == nil {
		t.Fatalf("expected error for zero step")
	}
}

// --- stubs ---

type stubFetcher struct {
	postings []model.RawPosting
	mu       sync.Mutex
	calls    int
}

func (s *stubFetcher) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.postings, nil
}

func (s *stubFetcher) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubStore struct {
	raw          map[string]model.RawPosting
	statuses     map[string]model.RawPostingStatus
	reasons      map[string]string
	companies    map[string]*model.Company
	internships  []model.Internship
	pairings     []model.InternshipTopic
	topicsListed bool
	nextID       uint
}

func newStubStore() *stubStore {
	return &stubStore{
		raw:       make(map[string]model.RawPosting),
		statuses:  make(map[string]model.RawPostingStatus),
		reasons:   make(map[string]string),
		companies: make(map[string]*model.Company),
	}
}

func (s *stubStore) UpsertRawPostings(ctx context.Context, postings []model.RawPosting) (storage.RawUpsertResult, error) {
	res := storage.RawUpsertResult{}
	for _, p := range postings {
		if _, ok := s.raw[p.ExternalID]; !ok {
			s.nextID++
			p.ID = s.nextID
			p.Status = model.RawPostingPending
			s.raw[p.ExternalID] = p
			res.Created++
			res.NewPostings = append(res.NewPostings, p)
		}
	}
	return res, nil
}

func (s *stubStore) ListRawPostings(ctx context.Context, query storage.RawPostingQuery) ([]model.RawPosting, error) {
	var out []model.RawPosting
	for _, p := range s.raw {
		if p.Status == model.RawPostingPending {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubStore) UpdateRawPostingStatus(ctx context.Context, id uint, update storage.RawPostingUpdate) error {
	for ext, p := range s.raw {
		if p.ID == id {
			p.Status = update.Status
			s.raw[ext] = p
			s.statuses[ext] = update.Status
			s.reasons[ext] = update.Reason
			return nil
		}
	}
	return errors.New("posting not found")
}

func (s *stubStore) ListTopics(ctx context.Context) ([]model.Topic, error) {
	s.topicsListed = true
	return []model.Topic{{ID: 7, Slug: "python"}}, nil
}

func (s *stubStore) EnsureImportedCompany(ctx context.Context, name, source string) (*model.Company, error) {
	if c, ok := s.companies[name]; ok {
		return c, nil
	}
	s.nextID++
	c := &model.Company{ID: s.nextID, Name: name}
	s.companies[name] = c
	return c, nil
}

func (s *stubStore) CreateInternship(ctx context.Context, internship *model.Internship, pairings []model.InternshipTopic) error {
	s.nextID++
	internship.ID = s.nextID
	s.internships = append(s.internships, *internship)
	s.pairings = append(s.pairings, pairings...)
	return nil
}

type stubTagger struct {
	results map[string]tagger.Result
	err     error
}

func (s *stubTagger) Process(ctx context.Context, raw model.RawPosting, topics []model.Topic) (tagger.Result, error) {
	if s.err != nil {
		return tagger.Result{}, s.err
	}
	if res, ok := s.results[raw.ExternalID]; ok {
		return res, nil
	}
	return tagger.Result{Outcome: tagger.OutcomeRejected, Reason: "no stub result"}, nil
}

type stubNotifier struct {
	batches [][]model.Internship
}

func (s *stubNotifier) Notify(ctx context.Context, internships []model.Internship) error {
	s.batches = append(s.batches, internships)
	return nil
}

type stubTicker struct {
	ch chan time.Time
}

func (s stubTicker) C() <-chan time.Time { return s.ch }
func (s stubTicker) Stop()               {}
