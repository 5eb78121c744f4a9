package search

import (
	"time"

	"intern-hub/internal/model"
)

// CompanyResult 企业检索结果。
type CompanyResult struct {
	ID            uint               `json:"id"`
	ProfileID     uint               `json:"profile_id"`
	Name          string             `json:"name"`
	Description   string             `json:"description"`
	Website       string             `json:"website"`
	LogoURL       string             `json:"logo_url"`
	FollowerCount int                `json:"follower_count"`
	Username      *string            `json:"username"`
	IsFollowing   bool               `json:"is_following"`
	Internships   []NestedInternship `json:"internships"`
}

// NestedInternship 企业或主题下挂的岗位摘要。
type NestedInternship struct {
	ID         uint            `json:"id"`
	Title      string          `json:"title"`
	Location   string          `json:"location"`
	IsRemote   bool            `json:"is_remote"`
	Stipend    int             `json:"stipend"`
	Openings   int             `json:"openings"`
	CreatedAt  time.Time       `json:"created_at"`
	HasApplied bool            `json:"has_applied"`
	Company    *CompanySummary `json:"company,omitempty"`
}

// CompanySummary 嵌套在岗位结果中的企业摘要。
type CompanySummary struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	LogoURL     string  `json:"logo_url"`
	Username    *string `json:"username"`
	IsFollowing bool    `json:"is_following"`
}

// InternshipResult 岗位检索结果。
type InternshipResult struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	IsRemote    bool            `json:"is_remote"`
	Stipend     int             `json:"stipend"`
	Openings    int             `json:"openings"`
	CreatedAt   time.Time       `json:"created_at"`
	HasApplied  bool            `json:"has_applied"`
	Company     *CompanySummary `json:"company"`
	Topics      []TopicTag      `json:"topics"`
}

// TopicTag 岗位携带的主题标注。
type TopicTag struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	RelevanceScore float64 `json:"relevance_score"`
	IsFollowing    bool    `json:"is_following"`
}

// TopicResult 主题检索结果。
type TopicResult struct {
	ID                uint               `json:"id"`
	Name              string             `json:"name"`
	Category          string             `json:"category"`
	Description       string             `json:"description"`
	FollowerCount     int                `json:"follower_count"`
	IsFollowing       bool               `json:"is_following"`
	SampleInternships []NestedInternship `json:"sample_internships"`
}

// PersonResult 档案检索结果，经隐私过滤后输出。
type PersonResult struct {
	ProfileID         uint               `json:"profile_id"`
	Username          *string            `json:"username"`
	DisplayName       string             `json:"display_name"`
	Email             *string            `json:"email"`
	Role              model.Role         `json:"role"`
	IsPublic          bool               `json:"is_public"`
	Student           *PersonStudent     `json:"student"`
	Company           *PersonCompany     `json:"company"`
	LatestApplication *PersonApplication `json:"latest_application"`
}

// PersonStudent 学生扩展信息；非公开档案被第三方查看时仅保留 Private 标记。
type PersonStudent struct {
	Private        bool   `json:"private,omitempty"`
	ID             uint   `json:"id,omitempty"`
	University     string `json:"university,omitempty"`
	Degree         string `json:"degree,omitempty"`
	GraduationYear int    `json:"graduation_year,omitempty"`
	ResumeURL      string `json:"resume_url,omitempty"`
}

// PersonCompany 企业扩展摘要。
type PersonCompany struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}

// PersonApplication 企业查询者可见的学生最近投递。
type PersonApplication struct {
	ID              uint                    `json:"id"`
	InternshipID    uint                    `json:"internship_id"`
	InternshipTitle string                  `json:"internship_title"`
	Status          model.ApplicationStatus `json:"status"`
	CreatedAt       time.Time               `json:"created_at"`
}

func (s *Service) assembleCompanies(companies []model.Company, ann annotations) []CompanyResult {
	results := make([]CompanyResult, 0, len(companies))
	for _, c := range companies {
		nested := toSlice(c.Internships)
		if len(nested) > s.cfg.SampleSize {
			nested = nested[:s.cfg.SampleSize]
		}
		internships := make([]NestedInternship, 0, len(nested))
		for _, i := range nested {
			internships = append(internships, NestedInternship{
				ID:         i.ID,
				Title:      i.Title,
				Location:   i.Location,
				IsRemote:   i.IsRemote,
				Stipend:    i.Stipend,
				Openings:   i.Openings,
				CreatedAt:  i.CreatedAt,
				HasApplied: ann.hasApplied(i.ID),
			})
		}
		results = append(results, CompanyResult{
			ID:            c.ID,
			ProfileID:     c.ProfileID,
			Name:          c.Name,
			Description:   c.Description,
			Website:       c.Website,
			LogoURL:       c.LogoURL,
			FollowerCount: c.FollowerCount,
			Username:      companyUsername(c),
			IsFollowing:   ann.followsCompany(c.ID),
			Internships:   internships,
		})
	}
	return results
}

func (s *Service) assembleInternships(internships []model.Internship, ann annotations) []InternshipResult {
	results := make([]InternshipResult, 0, len(internships))
	for _, i := range internships {
		var company *CompanySummary
		if c := i.Company; c != nil {
			company = &CompanySummary{
				ID:          c.ID,
				Name:        c.Name,
				LogoURL:     c.LogoURL,
				Username:    companyUsername(*c),
				IsFollowing: ann.followsCompany(c.ID),
			}
		}
		topics := make([]TopicTag, 0, len(i.Pairings))
		for _, pairing := range toSlice(i.Pairings) {
			topic := pairing.Topic
			if topic == nil {
				continue
			}
			topics = append(topics, TopicTag{
				ID:             topic.ID,
				Name:           topic.Name,
				Category:       topic.Category,
				RelevanceScore: pairing.RelevanceScore,
				IsFollowing:    ann.followsTopic(topic.ID),
			})
		}
		results = append(results, InternshipResult{
			ID:          i.ID,
			Title:       i.Title,
			Description: i.Description,
			Location:    i.Location,
			IsRemote:    i.IsRemote,
			Stipend:     i.Stipend,
			Openings:    i.Openings,
			CreatedAt:   i.CreatedAt,
			HasApplied:  ann.hasApplied(i.ID),
			Company:     company,
			Topics:      topics,
		})
	}
	return results
}

func (s *Service) assembleTopics(topics []model.Topic, ann annotations) []TopicResult {
	results := make([]TopicResult, 0, len(topics))
	for _, t := range topics {
		pairings := toSlice(t.Pairings)
		samples := make([]NestedInternship, 0, s.cfg.SampleSize)
		for _, pairing := range pairings {
			if len(samples) >= s.cfg.SampleSize {
				break
			}
			inn := pairing.Internship
			if inn == nil {
				continue
			}
			var company *CompanySummary
			if c := inn.Company; c != nil {
				company = &CompanySummary{
					ID:          c.ID,
					Name:        c.Name,
					LogoURL:     c.LogoURL,
					Username:    companyUsername(*c),
					IsFollowing: ann.followsCompany(c.ID),
				}
			}
			samples = append(samples, NestedInternship{
				ID:         inn.ID,
				Title:      inn.Title,
				Location:   inn.Location,
				IsRemote:   inn.IsRemote,
				Stipend:    inn.Stipend,
				Openings:   inn.Openings,
				CreatedAt:  inn.CreatedAt,
				HasApplied: ann.hasApplied(inn.ID),
				Company:    company,
			})
		}
		results = append(results, TopicResult{
			ID:                t.ID,
			Name:              t.Name,
			Category:          t.Category,
			Description:       t.Description,
			FollowerCount:     t.FollowerCount,
			IsFollowing:       ann.followsTopic(t.ID),
			SampleInternships: samples,
		})
	}
	return results
}

func (s *Service) assemblePeople(people []model.Profile, ann annotations) []PersonResult {
	results := make([]PersonResult, 0, len(people))
	for _, p := range people {
		email := p.Email
		result := PersonResult{
			ProfileID:   p.ID,
			Username:    p.Username,
			DisplayName: p.DisplayName,
			Email:       &email,
			Role:        p.Role,
			IsPublic:    p.IsPublic,
		}
		if st := p.Student; st != nil {
			result.Student = &PersonStudent{
				ID:             st.ID,
				University:     st.University,
				Degree:         st.Degree,
				GraduationYear: st.GraduationYear,
				ResumeURL:      st.ResumeURL,
			}
		}
		if c := p.Company; c != nil {
			result.Company = &PersonCompany{
				ID:      c.ID,
				Name:    c.Name,
				LogoURL: c.LogoURL,
			}
		}
		if app, ok := ann.latestApplications[p.ID]; ok {
			title := ""
			if app.Internship != nil {
				title = app.Internship.Title
			}
			result.LatestApplication = &PersonApplication{
				ID:              app.ID,
				InternshipID:    app.InternshipID,
				InternshipTitle: title,
				Status:          app.Status,
				CreatedAt:       app.CreatedAt,
			}
		}
		results = append(results, result)
	}
	return results
}
