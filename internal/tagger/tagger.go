package tagger

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"intern-hub/internal/model"

	"gorm.io/datatypes"
)

// Config 描述抓取岗位的清洗与打标配置。
type Config struct {
	Keywords       []string   `yaml:"keywords" json:"keywords"`
	PromptTemplate string     `yaml:"prompt_template" json:"prompt_template"`
	BatchSize      int        `yaml:"batch_size" json:"batch_size"`
	Chat           ChatConfig `yaml:"chat" json:"chat"`
}

// LLMClient 抽象大模型调用，便于测试注入。
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Outcome 指示打标结果。
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Result 包含打标产出：正式岗位、主题关联及追踪信息。
type Result struct {
	Outcome    Outcome
	Internship *model.Internship
	Pairings   []model.InternshipTopic
	Reason     string
	Trace      datatypes.JSONMap
}

// Tagger 组合关键词初筛与 LLM 结构化抽取。
type Tagger struct {
	cfg Config
	llm LLMClient
}

// New 创建 Tagger。
func New(cfg Config, llm LLMClient) *Tagger {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	return &Tagger{cfg: cfg, llm: llm}
}

// BatchSize 返回单轮处理的原始岗位数量上限。
func (t *Tagger) BatchSize() int {
	return t.cfg.BatchSize
}

// Process 执行关键词初筛 + LLM 抽取，topics 为可选主题全集，
// 产出的相关度得分会被钳制到 [0,1]。
func (t *Tagger) Process(ctx context.Context, raw model.RawPosting, topics []model.Topic) (Result, error) {
	text := strings.TrimSpace(raw.Title + "\n" + raw.Summary + "\n" + raw.Content)
	if !t.containsKeyword(text) {
		return Result{Outcome: OutcomeRejected, Reason: "missing internship keywords"}, nil
	}

	prompt := t.buildPrompt(text, topics)
	respText, err := t.llm.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("llm complete: %w", err)
	}

	trace := datatypes.JSONMap{"prompt": prompt, "llm_response": respText}

	var payload llmExtraction
	if err := json.Unmarshal([]byte(respText), &payload); err != nil {
		return Result{}, fmt.Errorf("parse llm response: %w", err)
	}

	if !payload.IsInternship {
		reason := payload.Verdict
		if reason == "" {
			reason = "llm rejected"
		}
		return Result{Outcome: OutcomeRejected, Reason: reason, Trace: trace}, nil
	}

	internship, pairings := t.buildInternship(raw, payload, topics)
	return Result{Outcome: OutcomeAccepted, Internship: &internship, Pairings: pairings, Trace: trace}, nil
}

func (t *Tagger) containsKeyword(text string) bool {
	if len(t.cfg.Keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range t.cfg.Keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (t *Tagger) buildPrompt(text string, topics []model.Topic) string {
	template := strings.TrimSpace(t.cfg.PromptTemplate)
	if template == "" {
		template = defaultPrompt
	}
	slugs := make([]string, 0, len(topics))
	for _, topic := range topics {
		slugs = append(slugs, topic.Slug)
	}
	prompt := strings.ReplaceAll(template, "{{TEXT}}", text)
	prompt = strings.ReplaceAll(prompt, "{{TOPICS}}", strings.Join(slugs, ", "))

	instructions := `\n请严格输出 JSON，对象字段:{"is_internship":bool,"verdict":string,"title":string,"description":string,"location":string,"is_remote":bool,"stipend":int,"openings":int,"topics":[{"slug":string,"relevance":number}]}.`
	return prompt + instructions
}

func (t *Tagger) buildInternship(raw model.RawPosting, payload llmExtraction, topics []model.Topic) (model.Internship, []model.InternshipTopic) {
	internship := model.Internship{
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
		Location:    strings.TrimSpace(payload.Location),
		IsRemote:    payload.IsRemote,
		Stipend:     payload.Stipend,
		Openings:    payload.Openings,
		Source:      raw.Source,
	}
	if internship.Title == "" {
		internship.Title = strings.TrimSpace(raw.Title)
	}
	if internship.Description == "" {
		internship.Description = raw.Summary
	}
	if internship.Openings <= 0 {
		internship.Openings = 1
	}

	topicBySlug := make(map[string]uint, len(topics))
	for _, topic := range topics {
		topicBySlug[topic.Slug] = topic.ID
	}

	pairings := make([]model.InternshipTopic, 0, len(payload.Topics))
	seen := make(map[uint]struct{}, len(payload.Topics))
	for _, tag := range payload.Topics {
		id, ok := topicBySlug[strings.ToLower(strings.TrimSpace(tag.Slug))]
		if !ok {
			continue // 未知主题直接丢弃
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		pairings = append(pairings, model.InternshipTopic{
			TopicID:        id,
			RelevanceScore: clampRelevance(tag.Relevance),
		})
	}
	return internship, pairings
}

func clampRelevance(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

const defaultPrompt = `请作为资深校园招聘顾问，阅读以下岗位文本并输出结构化判断：\n{{TEXT}}\n可选主题: {{TOPICS}}。需要判断是否为实习岗位，并抽取岗位信息与相关主题（附 0~1 相关度）。`

// llmExtraction 对应 LLM JSON 响应。
type llmExtraction struct {
	IsInternship bool       `json:"is_internship"`
	Verdict      string     `json:"verdict"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	IsRemote     bool       `json:"is_remote"`
	Stipend      int        `json:"stipend"`
	Openings     int        `json:"openings"`
	Topics       []topicTag `json:"topics"`
}

type topicTag struct {
	Slug      string  `json:"slug"`
	Relevance float64 `json:"relevance"`
}
