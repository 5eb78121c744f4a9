package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"intern-hub/internal/model"
)

// Store 定义推荐所需的数据访问。
type Store interface {
	FollowedTopicsOf(ctx context.Context, studentID uint) ([]model.Topic, error)
	FollowedCompaniesOf(ctx context.Context, studentID uint) ([]model.Company, error)
	StudentApplications(ctx context.Context, studentID uint) ([]model.Application, error)
	RecentInternships(ctx context.Context, limit int) ([]model.Internship, error)
	AppliedInternshipIDs(ctx context.Context, studentID uint, internshipIDs []uint) ([]uint, error)
}

// LLMClient 抽象大模型调用，便于测试注入。
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config 控制候选规模与提示词。
type Config struct {
	CandidateLimit int    `yaml:"candidate_limit" json:"candidate_limit"`
	PromptTemplate string `yaml:"prompt_template" json:"prompt_template"`
}

// RecommendedInternship 推荐结果中的岗位摘要。
type RecommendedInternship struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	IsRemote    bool   `json:"is_remote"`
	Stipend     int    `json:"stipend"`
}

// Recommendation 为一次推荐的完整输出。
type Recommendation struct {
	Internships []RecommendedInternship `json:"internships"`
	Advice      string                  `json:"advice"`
}

// Service 基于学生的关注与投递历史生成 AI 推荐。
type Service struct {
	store Store
	llm   LLMClient
	cfg   Config
}

// NewService 创建推荐服务。
func NewService(store Store, llm LLMClient, cfg Config) *Service {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 30
	}
	return &Service{store: store, llm: llm, cfg: cfg}
}

// ForStudent 收集学生画像与候选岗位，经 LLM 排序后返回推荐。
// LLM 给出的未知岗位 ID 会被丢弃。
func (s *Service) ForStudent(ctx context.Context, studentID uint) (*Recommendation, error) {
	topics, err := s.store.FollowedTopicsOf(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load followed topics: %w", err)
	}
	companies, err := s.store.FollowedCompaniesOf(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load followed companies: %w", err)
	}
	apps, err := s.store.StudentApplications(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}

	candidates, err := s.candidates(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Recommendation{Internships: []RecommendedInternship{}}, nil
	}

	prompt := s.buildPrompt(topics, companies, apps, candidates)
	respText, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm complete: %w", err)
	}

	var payload llmRecommendation
	if err := json.Unmarshal([]byte(respText), &payload); err != nil {
		return nil, fmt.Errorf("parse llm response: %w", err)
	}

	byID := make(map[uint]model.Internship, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	picked := make([]RecommendedInternship, 0, len(payload.InternshipIDs))
	seen := make(map[uint]struct{}, len(payload.InternshipIDs))
	for _, id := range payload.InternshipIDs {
		inn, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		companyName := ""
		if inn.Company != nil {
			companyName = inn.Company.Name
		}
		picked = append(picked, RecommendedInternship{
			ID:          inn.ID,
			Title:       inn.Title,
			CompanyName: companyName,
			Location:    inn.Location,
			IsRemote:    inn.IsRemote,
			Stipend:     inn.Stipend,
		})
	}

	return &Recommendation{Internships: picked, Advice: strings.TrimSpace(payload.Advice)}, nil
}

// candidates 返回最近岗位中该学生尚未投递的部分。
func (s *Service) candidates(ctx context.Context, studentID uint) ([]model.Internship, error) {
	recent, err := s.store.RecentInternships(ctx, s.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	ids := make([]uint, 0, len(recent))
	for _, inn := range recent {
		ids = append(ids, inn.ID)
	}
	applied, err := s.store.AppliedInternshipIDs(ctx, studentID, ids)
	if err != nil {
		return nil, fmt.Errorf("load applied set: %w", err)
	}
	appliedSet := make(map[uint]struct{}, len(applied))
	for _, id := range applied {
		appliedSet[id] = struct{}{}
	}
	filtered := make([]model.Internship, 0, len(recent))
	for _, inn := range recent {
		if _, ok := appliedSet[inn.ID]; ok {
			continue
		}
		filtered = append(filtered, inn)
	}
	return filtered, nil
}

func (s *Service) buildPrompt(topics []model.Topic, companies []model.Company, apps []model.Application, candidates []model.Internship) string {
	template := strings.TrimSpace(s.cfg.PromptTemplate)
	if template == "" {
		template = defaultPrompt
	}

	var profile strings.Builder
	profile.WriteString("关注主题: ")
	for i, t := range topics {
		if i > 0 {
			profile.WriteString(", ")
		}
		profile.WriteString(t.Name)
	}
	profile.WriteString("\n关注企业: ")
	for i, c := range companies {
		if i > 0 {
			profile.WriteString(", ")
		}
		profile.WriteString(c.Name)
	}
	profile.WriteString("\n已投递: ")
	for i, app := range apps {
		if i > 0 {
			profile.WriteString(", ")
		}
		if app.Internship != nil {
			profile.WriteString(app.Internship.Title)
		}
	}

	var list strings.Builder
	for _, inn := range candidates {
		companyName := ""
		if inn.Company != nil {
			companyName = inn.Company.Name
		}
		list.WriteString(fmt.Sprintf("- id=%d %s @ %s (%s)\n", inn.ID, inn.Title, companyName, inn.Location))
	}

	prompt := strings.ReplaceAll(template, "{{PROFILE}}", profile.String())
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATES}}", list.String())

	instructions := `\n请严格输出 JSON，对象字段:{"internship_ids":int数组,"advice":string}，internship_ids 按推荐优先级排列且只允许出现候选列表中的 id.`
	return prompt + instructions
}

const defaultPrompt = `请作为实习规划顾问，根据学生画像从候选岗位中挑选最匹配的若干个并给出一句话建议。\n学生画像:\n{{PROFILE}}\n候选岗位:\n{{CANDIDATES}}`

// llmRecommendation 对应 LLM JSON 响应。
type llmRecommendation struct {
	InternshipIDs []uint `json:"internship_ids"`
	Advice        string `json:"advice"`
}
