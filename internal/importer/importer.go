package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"intern-hub/internal/model"

	"golang.org/x/net/html"
	"gorm.io/datatypes"
)

// Config 定义合作板块抓取配置。
type Config struct {
	BaseURL      string   `yaml:"base_url" json:"base_url"`
	Source       string   `yaml:"source" json:"source"`
	MaxAgeDays   int      `yaml:"max_age_days" json:"max_age_days"`
	MaxPages     int      `yaml:"max_pages" json:"max_pages"`
	ListingPaths []string `yaml:"listing_paths" json:"listing_paths"`
}

// PostingFetcher 抓取统一接口。
type PostingFetcher interface {
	Fetch(ctx context.Context) ([]model.RawPosting, error)
}

// BoardImporter 抓取合作实习板块的岗位列表页，解析页面内嵌的
// __BOARD_STATE__ JSON。
type BoardImporter struct {
	baseURL      string
	source       string
	listingPaths []string
	client       *http.Client
	cfg          Config
	now          func() time.Time
	logger       *log.Logger
}

// NewBoardImporter 创建抓取器，baseURL 形如 https://board.example.com。
func NewBoardImporter(cfg Config, client *http.Client) *BoardImporter {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = 30
	}
	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = "partner-board"
	}
	return &BoardImporter{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		source:       source,
		listingPaths: normalizeListingPaths(cfg.ListingPaths),
		client:       client,
		cfg:          cfg,
		now:          time.Now,
		logger:       log.New(os.Stdout, "[importer] ", log.LstdFlags),
	}
}

// Fetch 抓取最新岗位列表，按配置分页与时间窗口限制，按 external_id 去重。
func (b *BoardImporter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	cutoff := b.now().AddDate(0, 0, -b.cfg.MaxAgeDays)

	postings := make([]model.RawPosting, 0)
	seen := make(map[string]struct{})

	b.logf("start fetch: base=%s paths=%s max_pages=%d max_age_days=%d", b.baseURL, strings.Join(b.listingPaths, ","), b.cfg.MaxPages, b.cfg.MaxAgeDays)

	for _, path := range b.listingPaths {
		stopPath := false
		for page := 1; page <= b.cfg.MaxPages; page++ {
			pageURL, err := b.buildPageURL(path, page)
			if err != nil {
				return nil, fmt.Errorf("build url: %w", err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
			if err != nil {
				return nil, fmt.Errorf("new request: %w", err)
			}

			resp, err := b.client.Do(req)
			if err != nil {
				return nil, fmt.Errorf("http get: %w", err)
			}
			if resp.Body != nil {
				defer resp.Body.Close()
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("read body: %w", err)
			}

			stateJSON, err := extractBoardState(string(body))
			if err != nil {
				return nil, fmt.Errorf("extract __BOARD_STATE__: %w", err)
			}

			raw, err := parseBoardPostings(stateJSON)
			if err != nil {
				return nil, fmt.Errorf("parse postings: %w", err)
			}
			b.logf("path=%s page=%d parsed=%d", path, page, len(raw))

			pageAccepted := 0
			for _, p := range raw {
				if p.PublishedAt == "" {
					continue // 缺少发布时间，跳过
				}
				publishedAt, err := time.Parse(time.RFC3339, p.PublishedAt)
				if err != nil || publishedAt.IsZero() {
					continue
				}
				if publishedAt.Before(cutoff) {
					stopPath = true
					break
				}
				if !hasInternTag(p.Tags) {
					continue
				}

				externalID := normalizeID(p.ID)
				if externalID != "" {
					if _, exists := seen[externalID]; exists {
						continue
					}
					seen[externalID] = struct{}{}
				}

				postings = append(postings, model.RawPosting{
					Source:      b.source,
					ExternalID:  externalID,
					CompanyName: strings.TrimSpace(p.CompanyName),
					Title:       p.Title,
					Summary:     p.Summary,
					Content:     p.Content,
					URL:         b.fullURL(p.URL),
					PublishedAt: publishedAt,
					RawPayload:  toRawPayload(p),
				})
				pageAccepted++
			}

			b.logf("path=%s page=%d accepted=%d cumulative=%d", path, page, pageAccepted, len(postings))
			if stopPath {
				break
			}
		}
	}

	b.logf("fetch done total_postings=%d", len(postings))
	return postings, nil
}

func (b *BoardImporter) buildPageURL(listingPath string, page int) (string, error) {
	base, err := url.Parse(b.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base: %w", err)
	}

	path := listingPath
	if page > 1 {
		if strings.Contains(path, "?") {
			path = path + fmt.Sprintf("&page=%d", page)
		} else {
			path = path + fmt.Sprintf("?page=%d", page)
		}
	}
	full, err := base.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path: %w", err)
	}
	return full.String(), nil
}

func (b *BoardImporter) fullURL(raw string) string {
	if raw == "" {
		return b.baseURL
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return strings.TrimSuffix(b.baseURL, "/") + raw
}

func (b *BoardImporter) logf(format string, args ...any) {
	if b.logger == nil {
		b.logger = log.New(os.Stdout, "[importer] ", log.LstdFlags)
	}
	b.logger.Printf(format, args...)
}

func normalizeListingPaths(paths []string) []string {
	clean := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		clean = append(clean, p)
	}
	if len(clean) == 0 {
		return []string{"/internships?sort=new"}
	}
	return clean
}

// boardState mirrors __BOARD_STATE__ 结构（精简字段）。
type boardState struct {
	Listing *struct {
		Postings []boardPosting `json:"postings"`
	} `json:"listing"`
}

type boardTag struct {
	Name string `json:"name"`
}

type boardPosting struct {
	ID          any        `json:"id"`
	CompanyName string     `json:"company_name"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Content     string     `json:"content"`
	PublishedAt string     `json:"published_at"`
	Tags        []boardTag `json:"tags"`
	URL         string     `json:"url"`
}

func extractBoardState(htmlText string) (string, error) {
	node, err := html.Parse(strings.NewReader(htmlText))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var scriptText string
	var search func(*html.Node)
	search = func(n *html.Node) {
		if scriptText != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" {
			for _, attr := range n.Attr {
				if attr.Key == "id" && attr.Val == "__BOARD_STATE__" {
					if n.FirstChild != nil {
						scriptText = n.FirstChild.Data
					}
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			search(c)
		}
	}
	search(node)

	if scriptText == "" {
		return "", fmt.Errorf("__BOARD_STATE__ not found")
	}
	return scriptText, nil
}

func parseBoardPostings(jsonText string) ([]boardPosting, error) {
	var state boardState
	if err := json.Unmarshal([]byte(jsonText), &state); err != nil {
		return nil, fmt.Errorf("unmarshal board state: %w", err)
	}
	if state.Listing == nil {
		return nil, fmt.Errorf("listing not found in __BOARD_STATE__")
	}
	return state.Listing.Postings, nil
}

func hasInternTag(tags []boardTag) bool {
	for _, t := range tags {
		name := strings.ToLower(t.Name)
		if strings.Contains(name, "intern") || strings.Contains(t.Name, "实习") {
			return true
		}
	}
	return false
}

func normalizeID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strings.TrimSuffix(strings.TrimSuffix(fmt.Sprintf("%.f", v), ".0"), ".00")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toRawPayload(p boardPosting) datatypes.JSONMap {
	tags := make([]map[string]any, 0, len(p.Tags))
	for _, tag := range p.Tags {
		tags = append(tags, map[string]any{"name": tag.Name})
	}
	return datatypes.JSONMap{
		"id":           p.ID,
		"company_name": p.CompanyName,
		"title":        p.Title,
		"summary":      p.Summary,
		"published_at": p.PublishedAt,
		"tags":         tags,
		"url":          p.URL,
	}
}
