package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"intern-hub/internal/importer"
	"intern-hub/internal/model"
	"intern-hub/internal/storage"
	"intern-hub/internal/tagger"

	"golang.org/x/sync/errgroup"
)

// Config 用于调度配置，Interval 支持 Go 时长或 5 段 cron 表达式。
type Config struct {
	Interval        string `yaml:"interval" json:"interval"`
	Timeout         string `yaml:"timeout" json:"timeout"`
	TaggerBatchSize int    `yaml:"tagger_batch_size" json:"tagger_batch_size"`
}

// Store 抽象存储接口，便于测试替换。
type Store interface {
	UpsertRawPostings(ctx context.Context, postings []model.RawPosting) (storage.RawUpsertResult, error)
	ListRawPostings(ctx context.Context, query storage.RawPostingQuery) ([]model.RawPosting, error)
	UpdateRawPostingStatus(ctx context.Context, id uint, update storage.RawPostingUpdate) error
	ListTopics(ctx context.Context) ([]model.Topic, error)
	EnsureImportedCompany(ctx context.Context, name, source string) (*model.Company, error)
	CreateInternship(ctx context.Context, internship *model.Internship, pairings []model.InternshipTopic) error
}

// PostingTagger 抽象打标接口。
type PostingTagger interface {
	Process(ctx context.Context, raw model.RawPosting, topics []model.Topic) (tagger.Result, error)
}

// Notifier 用于发送新岗位通知。
type Notifier interface {
	Notify(ctx context.Context, internships []model.Internship) error
}

// Scheduler 负责周期性导入合作板块岗位并发布为正式实习。
type Scheduler struct {
	fetcher   importer.PostingFetcher
	store     Store
	tagger    PostingTagger
	notif     Notifier
	interval  time.Duration
	cronSpec  string
	cron      *cronSchedule
	timeout   time.Duration
	batchSize int
	running   atomic.Bool
	newTicker func(time.Duration) ticker
	now       func() time.Time
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewScheduler 创建 Scheduler，解析配置的间隔与超时。
func NewScheduler(f importer.PostingFetcher, s Store, t PostingTagger, n Notifier, cfg Config) *Scheduler {
	interval, cronCfg := parseSchedule(cfg.Interval)
	timeout := 30 * time.Second
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			timeout = d
		}
	}
	batch := cfg.TaggerBatchSize
	if batch <= 0 {
		batch = 20
	}

	return &Scheduler{
		fetcher:   f,
		store:     s,
		tagger:    t,
		notif:     n,
		interval:  interval,
		cronSpec:  cronCfg.spec,
		cron:      cronCfg.schedule,
		timeout:   timeout,
		batchSize: batch,
		newTicker: defaultTicker,
		now:       time.Now,
	}
}

// Start 启动调度循环，直到上下文取消。
func (s *Scheduler) Start(ctx context.Context) error {
	if s.fetcher == nil || s.store == nil || s.tagger == nil {
		return fmt.Errorf("scheduler missing dependencies")
	}

	g, ctx := errgroup.WithContext(ctx)

	if s.cron != nil {
		g.Go(func() error {
			return s.startCron(ctx)
		})
	} else {
		tick := s.newTicker(s.interval)
		ch := tick.C()

		g.Go(func() error {
			defer tick.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ch:
					if _, err := s.runOnce(ctx); err != nil {
						return err
					}
				drain:
					for {
						select {
						case <-ch:
							continue
						default:
							break drain
						}
					}
				}
			}
		})
	}

	return g.Wait()
}

// RunOnce 对外暴露单次导入接口，便于手动刷新。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	return s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) (int, error) {
	if s.running.Swap(true) {
		return 0, nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fetched, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch postings: %w", err)
	}

	if _, err := s.store.UpsertRawPostings(ctx, fetched); err != nil {
		return 0, fmt.Errorf("upsert raw postings: %w", err)
	}

	pending, err := s.store.ListRawPostings(ctx, storage.RawPostingQuery{Status: model.RawPostingPending, Limit: s.batchSize})
	if err != nil {
		return 0, fmt.Errorf("list raw postings: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	topics, err := s.store.ListTopics(ctx)
	if err != nil {
		return 0, fmt.Errorf("list topics: %w", err)
	}

	published := make([]model.Internship, 0, len(pending))
	for _, raw := range pending {
		res, err := s.tagger.Process(ctx, raw, topics)
		if err != nil {
			return 0, fmt.Errorf("process raw posting %d: %w", raw.ID, err)
		}

		update := storage.RawPostingUpdate{Status: model.RawPostingRejected, Reason: res.Reason, Trace: res.Trace}
		if res.Outcome == tagger.OutcomeAccepted && res.Internship != nil {
			internship, err := s.publish(ctx, raw, res)
			if err != nil {
				return 0, err
			}
			published = append(published, *internship)
			update.Status = model.RawPostingProcessed
			update.Reason = ""
		}
		if err := s.store.UpdateRawPostingStatus(ctx, raw.ID, update); err != nil {
			return 0, fmt.Errorf("update raw posting status: %w", err)
		}
	}

	if s.notif != nil && len(published) > 0 {
		if err := s.notif.Notify(ctx, published); err != nil {
			return len(published), fmt.Errorf("notify: %w", err)
		}
	}

	return len(published), nil
}

// publish 把打标产出落库为正式岗位，企业不存在时按名称创建。
func (s *Scheduler) publish(ctx context.Context, raw model.RawPosting, res tagger.Result) (*model.Internship, error) {
	name := strings.TrimSpace(raw.CompanyName)
	if name == "" {
		name = raw.Source
	}
	company, err := s.store.EnsureImportedCompany(ctx, name, raw.Source)
	if err != nil {
		return nil, fmt.Errorf("resolve company for posting %d: %w", raw.ID, err)
	}

	internship := *res.Internship
	internship.CompanyID = company.ID
	if err := s.store.CreateInternship(ctx, &internship, res.Pairings); err != nil {
		return nil, fmt.Errorf("publish posting %d: %w", raw.ID, err)
	}
	internship.Company = company
	internship.Pairings = res.Pairings
	return &internship, nil
}

func defaultTicker(d time.Duration) ticker {
	t := time.NewTicker(d)
	return tickerWrapper{t}
}

type tickerWrapper struct {
	*time.Ticker
}

func (t tickerWrapper) C() <-chan time.Time { return t.Ticker.C }
func (t tickerWrapper) Stop()               { t.Ticker.Stop() }

func (s *Scheduler) startCron(ctx context.Context) error {
	if s.cron == nil {
		return fmt.Errorf("cron schedule missing")
	}

	for {
		next, err := s.cron.next(s.now())
		if err != nil {
			return fmt.Errorf("compute next cron time: %w", err)
		}
		wait := time.Until(next)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			if _, err := s.runOnce(ctx); err != nil {
				return err
			}
		}
	}
}

type cronConfig struct {
	spec     string
	schedule *cronSchedule
}

func parseSchedule(value string) (time.Duration, cronConfig) {
	trimmed := strings.TrimSpace(value)
	if trimmed != "" {
		if d, err := time.ParseDuration(trimmed); err == nil && d > 0 {
			return d, cronConfig{}
		}
		schedule, err := parseCronSpec(trimmed)
		if err == nil {
			return 0, cronConfig{spec: trimmed, schedule: schedule}
		}
	}

	return 2 * time.Hour, cronConfig{}
}

type cronSchedule struct {
	minutes map[int]struct{}
	hours   map[int]struct{}
	doms    map[int]struct{}
	months  map[int]struct{}
	dows    map[int]struct{}
}

func parseCronSpec(spec string) (*cronSchedule, error) {
	parts := strings.Fields(spec)
	if len(parts) != 5 {
		return nil, fmt.Errorf("cron spec must have 5 fields")
	}

	minutes, err := parseCronField(parts[0], 0, 59)
	if err != nil {
		return nil, fmt.Errorf("minutes: %w", err)
	}
	hours, err := parseCronField(parts[1], 0, 23)
	if err != nil {
		return nil, fmt.Errorf("hours: %w", err)
	}
	doms, err := parseCronField(parts[2], 1, 31)
	if err != nil {
		return nil, fmt.Errorf("day-of-month: %w", err)
	}
	months, err := parseCronField(parts[3], 1, 12)
	if err != nil {
		return nil, fmt.Errorf("month: %w", err)
	}
	dows, err := parseCronField(parts[4], 0, 6)
	if err != nil {
		return nil, fmt.Errorf("day-of-week: %w", err)
	}

	return &cronSchedule{minutes: minutes, hours: hours, doms: doms, months: months, dows: dows}, nil
}

func parseCronField(expr string, min, max int) (map[int]struct{}, error) {
	result := make(map[int]struct{})
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty field")
	}
	parts := strings.Split(expr, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		switch {
		case part == "*":
			for i := min; i <= max; i++ {
				result[i] = struct{}{}
			}
		case strings.HasPrefix(part, "*/"):
			step, err := strconv.Atoi(strings.TrimPrefix(part, "*/"))
			if err != nil || step <= 0 {
				return nil, fmt.Errorf("invalid step %s", part)
			}
			for i := min; i <= max; i += step {
				result[i] = struct{}{}
			}
		default:
			v, err := strconv.Atoi(part)
			if err != nil || v < min || v > max {
				return nil, fmt.Errorf("invalid value %s", part)
			}
			result[v] = struct{}{}
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no values parsed")
	}
	return result, nil
}

func (c *cronSchedule) matches(t time.Time) bool {
	if _, ok := c.minutes[t.Minute()]; !ok {
		return false
	}
	if _, ok := c.hours[t.Hour()]; !ok {
		return false
	}
	if _, ok := c.months[int(t.Month())]; !ok {
		return false
	}
	if _, ok := c.doms[t.Day()]; !ok {
		return false
	}
	if _, ok := c.dows[int(t.Weekday())]; !ok {
		return false
	}
	return true
}

func (c *cronSchedule) next(after time.Time) (time.Time, error) {
	start := after.Truncate(time.Minute).Add(time.Minute)
	for i := 0; i < 525600; i++ { // up to one year of minutes
		candidate := start.Add(time.Duration(i) * time.Minute)
		if c.matches(candidate) {
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("no matching time found")
}
