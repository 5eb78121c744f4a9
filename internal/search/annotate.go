package search

import (
	"context"
	"fmt"

	"intern-hub/internal/model"

	"golang.org/x/sync/errgroup"
)

// annotations 为当前请求内的查询者注解集合，仅覆盖本批结果中的实体。
type annotations struct {
	appliedInternships map[uint]struct{}
	followedCompanies  map[uint]struct{}
	followedTopics     map[uint]struct{}
	// latestApplications 以学生档案 ID 为键，仅企业查询者填充。
	latestApplications map[uint]model.Application
}

func (a annotations) hasApplied(internshipID uint) bool {
	_, ok := a.appliedInternships[internshipID]
	return ok
}

func (a annotations) followsCompany(companyID uint) bool {
	_, ok := a.followedCompanies[companyID]
	return ok
}

func (a annotations) followsTopic(topicID uint) bool {
	_, ok := a.followedTopics[topicID]
	return ok
}

// annotate 基于本批结果的 ID 集合计算查询者注解。投递集合与企业侧
// 回溯查询失败即中止（避免展示错误的隐私状态）；关注集合查询失败仅
// 记录日志并退化为空集。
func (s *Service) annotate(ctx context.Context, viewer Viewer, raw rawResults) (annotations, error) {
	ann := annotations{
		appliedInternships: map[uint]struct{}{},
		followedCompanies:  map[uint]struct{}{},
		followedTopics:     map[uint]struct{}{},
		latestApplications: map[uint]model.Application{},
	}
	if viewer.ProfileID == nil {
		return ann, nil
	}

	companyIDs, topicIDs, internshipIDs := collectIDs(raw)

	if viewer.StudentID != nil {
		studentID := *viewer.StudentID
		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			ids, err := s.store.AppliedInternshipIDs(gctx, studentID, internshipIDs)
			if err != nil {
				return fmt.Errorf("annotate applications: %w", err)
			}
			for _, id := range ids {
				ann.appliedInternships[id] = struct{}{}
			}
			return nil
		})

		g.Go(func() error {
			ids, err := s.store.FollowedCompanyIDs(gctx, studentID, companyIDs)
			if err != nil {
				s.logger.Printf("followed companies lookup failed, skipping annotations: %v", err)
				return nil
			}
			for _, id := range ids {
				ann.followedCompanies[id] = struct{}{}
			}
			return nil
		})

		g.Go(func() error {
			ids, err := s.store.FollowedTopicIDs(gctx, studentID, topicIDs)
			if err != nil {
				s.logger.Printf("followed topics lookup failed, skipping annotations: %v", err)
				return nil
			}
			for _, id := range ids {
				ann.followedTopics[id] = struct{}{}
			}
			return nil
		})

		if err := g.Wait(); err != nil {
			return annotations{}, err
		}
		return ann, nil
	}

	if viewer.CompanyID != nil {
		if err := s.annotateLatestApplications(ctx, *viewer.CompanyID, raw.people, &ann); err != nil {
			return annotations{}, err
		}
	}
	return ann, nil
}

// annotateLatestApplications 为结果中的每个学生档案回溯其投往该企业的
// 最近一次投递。
func (s *Service) annotateLatestApplications(ctx context.Context, companyID uint, people []model.Profile, ann *annotations) error {
	var profileIDs []uint
	for _, p := range people {
		if p.Role == model.RoleStudent {
			profileIDs = append(profileIDs, p.ID)
		}
	}
	if len(profileIDs) == 0 {
		return nil
	}

	students, err := s.store.StudentsByProfileIDs(ctx, profileIDs)
	if err != nil {
		return fmt.Errorf("annotate students: %w", err)
	}
	profileByStudent := make(map[uint]uint, len(students))
	studentIDs := make([]uint, 0, len(students))
	for _, st := range students {
		profileByStudent[st.ID] = st.ProfileID
		studentIDs = append(studentIDs, st.ID)
	}

	apps, err := s.store.LatestCompanyApplications(ctx, companyID, studentIDs)
	if err != nil {
		return fmt.Errorf("annotate latest applications: %w", err)
	}
	// 行已按投递时间倒序，首次出现即为该学生最近一次投递。
	for _, app := range apps {
		profileID, ok := profileByStudent[app.StudentID]
		if !ok {
			continue
		}
		if _, exists := ann.latestApplications[profileID]; exists {
			continue
		}
		ann.latestApplications[profileID] = app
	}
	return nil
}

// collectIDs 汇总本批结果中出现过的企业/主题/岗位 ID，含嵌套关系，
// 注解查询只允许覆盖这些 ID。
func collectIDs(raw rawResults) (companyIDs, topicIDs, internshipIDs []uint) {
	companySet := map[uint]struct{}{}
	topicSet := map[uint]struct{}{}
	internshipSet := map[uint]struct{}{}

	addCompany := func(id uint) {
		companySet[id] = struct{}{}
	}
	addTopic := func(id uint) {
		topicSet[id] = struct{}{}
	}
	addInternship := func(id uint) {
		internshipSet[id] = struct{}{}
	}

	for _, c := range raw.companies {
		addCompany(c.ID)
		for _, i := range c.Internships {
			addInternship(i.ID)
		}
	}
	for _, i := range raw.internships {
		addInternship(i.ID)
		addCompany(i.CompanyID)
		for _, pairing := range i.Pairings {
			addTopic(pairing.TopicID)
		}
	}
	for _, t := range raw.topics {
		addTopic(t.ID)
		for _, pairing := range t.Pairings {
			addInternship(pairing.InternshipID)
			if inn := pairing.Internship; inn != nil {
				addCompany(inn.CompanyID)
			}
		}
	}

	for id := range companySet {
		companyIDs = append(companyIDs, id)
	}
	for id := range topicSet {
		topicIDs = append(topicIDs, id)
	}
	for id := range internshipSet {
		internshipIDs = append(internshipIDs, id)
	}
	return companyIDs, topicIDs, internshipIDs
}
