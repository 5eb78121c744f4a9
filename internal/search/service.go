package search

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"

	"intern-hub/internal/model"

	"golang.org/x/sync/errgroup"
)

// Store 抽象检索所需的全部数据访问，便于测试替换。
type Store interface {
	SearchCompanies(ctx context.Context, terms []string, limit int) ([]model.Company, error)
	SearchCompanyProfiles(ctx context.Context, terms []string, exact string) ([]model.Profile, error)
	CompaniesByProfileIDs(ctx context.Context, profileIDs []uint) ([]model.Company, error)
	SearchTopics(ctx context.Context, terms []string, limit int) ([]model.Topic, error)
	SearchInternships(ctx context.Context, terms []string, companyIDs []uint, limit int) ([]model.Internship, error)
	SearchProfiles(ctx context.Context, terms []string, exact string, exclude *uint, limit int) ([]model.Profile, error)
	ProfileByUsername(ctx context.Context, username string) (*model.Profile, error)

	ProfileByID(ctx context.Context, id uint) (*model.Profile, error)
	StudentByProfileID(ctx context.Context, profileID uint) (*model.Student, error)
	CompanyByProfileID(ctx context.Context, profileID uint) (*model.Company, error)
	StudentsByProfileIDs(ctx context.Context, profileIDs []uint) ([]model.Student, error)
	AppliedInternshipIDs(ctx context.Context, studentID uint, internshipIDs []uint) ([]uint, error)
	FollowedCompanyIDs(ctx context.Context, studentID uint, companyIDs []uint) ([]uint, error)
	FollowedTopicIDs(ctx context.Context, studentID uint, topicIDs []uint) ([]uint, error)
	LatestCompanyApplications(ctx context.Context, companyID uint, studentIDs []uint) ([]model.Application, error)
}

// Config 控制各结果集上限，均为调优值而非硬性约束。
type Config struct {
	CompanyLimit    int `yaml:"company_limit" json:"company_limit"`
	TopicLimit      int `yaml:"topic_limit" json:"topic_limit"`
	InternshipLimit int `yaml:"internship_limit" json:"internship_limit"`
	PeopleLimit     int `yaml:"people_limit" json:"people_limit"`
	SampleSize      int `yaml:"sample_size" json:"sample_size"`
}

// Service 实现全局多实体检索管线。
type Service struct {
	store  Store
	cfg    Config
	logger *log.Logger
}

// NewService 创建 Service 并填充默认上限。
func NewService(store Store, cfg Config, logger *log.Logger) *Service {
	if cfg.CompanyLimit <= 0 {
		cfg.CompanyLimit = 15
	}
	if cfg.TopicLimit <= 0 {
		cfg.TopicLimit = 10
	}
	if cfg.InternshipLimit <= 0 {
		cfg.InternshipLimit = 25
	}
	if cfg.PeopleLimit <= 0 {
		cfg.PeopleLimit = 25
	}
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = 3
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[search] ", log.LstdFlags)
	}
	return &Service{store: store, cfg: cfg, logger: logger}
}

// Results 为全局检索的统一响应载荷。
type Results struct {
	Companies   []CompanyResult    `json:"companies"`
	Internships []InternshipResult `json:"internships"`
	Topics      []TopicResult      `json:"topics"`
	Users       []PersonResult     `json:"users"`
}

// rawResults 汇集主查询的原始行，注解与装配均以此为唯一快照。
type rawResults struct {
	companies   []model.Company
	topics      []model.Topic
	internships []model.Internship
	people      []model.Profile
}

// Global 执行全局检索：校验、并发主查询、查询者注解、装配、脱敏。
// 任一主查询失败则整体失败，不返回部分结果。
func (s *Service) Global(ctx context.Context, rawQuery string, viewerProfileID *uint) (*Results, error) {
	q, err := parseQuery(rawQuery)
	if err != nil {
		return nil, err
	}

	viewer, err := s.resolveViewer(ctx, viewerProfileID)
	if err != nil {
		return nil, err
	}

	raw, err := s.dispatch(ctx, q, viewer)
	if err != nil {
		return nil, err
	}

	ann, err := s.annotate(ctx, viewer, raw)
	if err != nil {
		return nil, err
	}

	results := &Results{
		Companies:   s.assembleCompanies(raw.companies, ann),
		Internships: s.assembleInternships(raw.internships, ann),
		Topics:      s.assembleTopics(raw.topics, ann),
		Users:       s.assemblePeople(raw.people, ann),
	}
	redactPeople(results.Users, viewer)
	return results, nil
}

// dispatch 并发发起相互独立的主查询；岗位查询依赖已命中的企业集合，
// 因此串在企业查询之后。
func (s *Service) dispatch(ctx context.Context, q query, viewer Viewer) (rawResults, error) {
	var raw rawResults
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		companies, err := s.searchCompanies(gctx, q)
		if err != nil {
			return err
		}
		raw.companies = companies

		companyIDs := make([]uint, 0, len(companies))
		for _, c := range companies {
			companyIDs = append(companyIDs, c.ID)
		}
		internships, err := s.store.SearchInternships(gctx, q.terms, companyIDs, s.cfg.InternshipLimit)
		if err != nil {
			return fmt.Errorf("dispatch internships: %w", err)
		}
		raw.internships = internships
		return nil
	})

	g.Go(func() error {
		topics, err := s.store.SearchTopics(gctx, q.terms, s.cfg.TopicLimit)
		if err != nil {
			return fmt.Errorf("dispatch topics: %w", err)
		}
		raw.topics = topics
		return nil
	})

	g.Go(func() error {
		people, err := s.searchPeople(gctx, q, viewer)
		if err != nil {
			return err
		}
		raw.people = people
		return nil
	})

	if err := g.Wait(); err != nil {
		return rawResults{}, err
	}
	return raw, nil
}

// searchCompanies 先按名称/描述匹配，再把用户名命中的企业账号并入，
// 合并集按关注数倒序并截断到上限。
func (s *Service) searchCompanies(ctx context.Context, q query) ([]model.Company, error) {
	companies, err := s.store.SearchCompanies(ctx, q.terms, s.cfg.CompanyLimit)
	if err != nil {
		return nil, fmt.Errorf("dispatch companies: %w", err)
	}

	profiles, err := s.store.SearchCompanyProfiles(ctx, q.terms, q.exact)
	if err != nil {
		return nil, fmt.Errorf("dispatch company profiles: %w", err)
	}

	haveProfile := make(map[uint]struct{}, len(companies))
	for _, c := range companies {
		haveProfile[c.ProfileID] = struct{}{}
	}
	var missing []uint
	for _, p := range profiles {
		if _, ok := haveProfile[p.ID]; !ok {
			missing = append(missing, p.ID)
		}
	}

	merged, err := s.store.CompaniesByProfileIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("dispatch merged companies: %w", err)
	}

	seen := make(map[uint]struct{}, len(companies)+len(merged))
	combined := make([]model.Company, 0, len(companies)+len(merged))
	for _, c := range append(companies, merged...) {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		combined = append(combined, c)
	}
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].FollowerCount > combined[j].FollowerCount
	})
	if len(combined) > s.cfg.CompanyLimit {
		combined = combined[:s.cfg.CompanyLimit]
	}
	return combined, nil
}

// searchPeople 模糊匹配档案并排除查询者本人；@ 开头且尚未命中该用户名时
// 追加一次精确查询并并入结果。
func (s *Service) searchPeople(ctx context.Context, q query, viewer Viewer) ([]model.Profile, error) {
	people, err := s.store.SearchProfiles(ctx, q.terms, q.exact, viewer.ProfileID, s.cfg.PeopleLimit)
	if err != nil {
		return nil, fmt.Errorf("dispatch people: %w", err)
	}

	if q.usernameIntent && !containsUsername(people, q.exact) {
		extra, err := s.store.ProfileByUsername(ctx, q.exact)
		if err != nil {
			return nil, fmt.Errorf("dispatch exact username: %w", err)
		}
		if extra != nil && (viewer.ProfileID == nil || *viewer.ProfileID != extra.ID) {
			people = append(people, *extra)
		}
	}
	return people, nil
}

func containsUsername(people []model.Profile, username string) bool {
	for _, p := range people {
		if p.Username != nil && *p.Username == username {
			return true
		}
	}
	return false
}
