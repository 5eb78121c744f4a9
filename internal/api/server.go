package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"intern-hub/internal/model"
	"intern-hub/internal/recommend"
	"intern-hub/internal/search"
)

// Searcher 抽象全局检索入口。
type Searcher interface {
	Global(ctx context.Context, q string, viewerProfileID *uint) (*search.Results, error)
}

// Follows 抽象关注/取关服务。
type Follows interface {
	Follow(ctx context.Context, studentID uint, kind string, targetID uint) error
	Unfollow(ctx context.Context, studentID uint, kind string, targetID uint) error
}

// Applications 抽象投递服务。
type Applications interface {
	Apply(ctx context.Context, studentID, internshipID uint) (*model.Application, error)
}

// Recommender 抽象 AI 推荐服务。
type Recommender interface {
	ForStudent(ctx context.Context, studentID uint) (*recommend.Recommendation, error)
}

// Topics 提供主题目录。
type Topics interface {
	ListTopics(ctx context.Context) ([]model.Topic, error)
}

// Refresher 触发一次合作板块导入。
type Refresher interface {
	RunOnce(ctx context.Context) (int, error)
}

// Identity 把请求凭证解析为查询者身份。
type Identity interface {
	ProfileIDForToken(ctx context.Context, token string) (*uint, error)
	StudentByProfileID(ctx context.Context, profileID uint) (*model.Student, error)
}

// Deps 汇总 Handler 依赖；Recommender 与 Refresher 可为 nil（功能未启用）。
type Deps struct {
	Search    Searcher
	Follows   Follows
	Apps      Applications
	Recommend Recommender
	Topics    Topics
	Refresh   Refresher
	Identity  Identity
}

// followRequest 关注/取关请求体。
type followRequest struct {
	Kind     string `json:"kind"`
	TargetID uint   `json:"target_id"`
}

// applicationRequest 投递请求体。
type applicationRequest struct {
	InternshipID uint `json:"internship_id"`
}

// NewHandler 构造 HTTP 多路复用器。
func NewHandler(deps Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/api/search/global", func(w http.ResponseWriter, r *http.Request) {
		viewerID := currentProfileID(r, deps.Identity)
		results, err := deps.Search.Global(r.Context(), r.URL.Query().Get("q"), viewerID)
		if err != nil {
			if errors.Is(err, search.ErrShortQuery) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, results)
	})

	mux.HandleFunc("/api/follows", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		student, ok := currentStudent(w, r, deps.Identity)
		if !ok {
			return
		}
		var req followRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		var err error
		if r.Method == http.MethodPost {
			err = deps.Follows.Follow(r.Context(), student.ID, req.Kind, req.TargetID)
		} else {
			err = deps.Follows.Unfollow(r.Context(), student.ID, req.Kind, req.TargetID)
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/api/applications", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		student, ok := currentStudent(w, r, deps.Identity)
		if !ok {
			return
		}
		var req applicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		app, err := deps.Apps.Apply(r.Context(), student.ID, req.InternshipID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, app)
	})

	mux.HandleFunc("/api/recommendations", func(w http.ResponseWriter, r *http.Request) {
		if deps.Recommend == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "recommendations disabled"})
			return
		}
		student, ok := currentStudent(w, r, deps.Identity)
		if !ok {
			return
		}
		rec, err := deps.Recommend.ForStudent(r.Context(), student.ID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	mux.HandleFunc("/api/topics", func(w http.ResponseWriter, r *http.Request) {
		topics, err := deps.Topics.ListTopics(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, topics)
	})

	mux.HandleFunc("/api/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if deps.Refresh == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "import disabled"})
			return
		}
		created, err := deps.Refresh.RunOnce(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"created": created})
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "intern hub api"})
	})

	return mux
}

// currentProfileID 解析 Bearer 凭证，无凭证或无效凭证按匿名处理。
func currentProfileID(r *http.Request, ident Identity) *uint {
	if ident == nil {
		return nil
	}
	token := bearerToken(r)
	if token == "" {
		return nil
	}
	profileID, err := ident.ProfileIDForToken(r.Context(), token)
	if err != nil {
		return nil
	}
	return profileID
}

// currentStudent 要求请求者为已认证学生，否则写入 401/403 并返回 false。
func currentStudent(w http.ResponseWriter, r *http.Request, ident Identity) (*model.Student, bool) {
	profileID := currentProfileID(r, ident)
	if profileID == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return nil, false
	}
	student, err := ident.StudentByProfileID(r.Context(), *profileID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return nil, false
	}
	if student == nil {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "student account required"})
		return nil, false
	}
	return student, true
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
