package follow

import (
	"context"
	"fmt"
	"strings"

	"intern-hub/internal/model"
)

// Store 定义关注关系的持久化接口。
type Store interface {
	CompanyByID(ctx context.Context, id uint) (*model.Company, error)
	TopicByID(ctx context.Context, id uint) (*model.Topic, error)
	FollowCompany(ctx context.Context, studentID, companyID uint) (bool, error)
	UnfollowCompany(ctx context.Context, studentID, companyID uint) error
	FollowTopic(ctx context.Context, studentID, topicID uint) (bool, error)
	UnfollowTopic(ctx context.Context, studentID, topicID uint) error
}

// Service 负责校验并写入关注/取关。重复关注为空操作，不报错。
type Service struct {
	store Store
}

// NewService 创建关注服务。
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Follow 建立学生对企业或主题的关注。
func (s *Service) Follow(ctx context.Context, studentID uint, kind string, targetID uint) error {
	switch normalizeKind(kind) {
	case "company":
		company, err := s.store.CompanyByID(ctx, targetID)
		if err != nil {
			return err
		}
		if company == nil {
			return fmt.Errorf("company %d not found", targetID)
		}
		_, err = s.store.FollowCompany(ctx, studentID, targetID)
		return err
	case "topic":
		topic, err := s.store.TopicByID(ctx, targetID)
		if err != nil {
			return err
		}
		if topic == nil {
			return fmt.Errorf("topic %d not found", targetID)
		}
		_, err = s.store.FollowTopic(ctx, studentID, targetID)
		return err
	default:
		return fmt.Errorf("unsupported follow kind %q", kind)
	}
}

// Unfollow 解除关注，未关注时为空操作。
func (s *Service) Unfollow(ctx context.Context, studentID uint, kind string, targetID uint) error {
	switch normalizeKind(kind) {
	case "company":
		return s.store.UnfollowCompany(ctx, studentID, targetID)
	case "topic":
		return s.store.UnfollowTopic(ctx, studentID, targetID)
	default:
		return fmt.Errorf("unsupported follow kind %q", kind)
	}
}

func normalizeKind(kind string) string {
	return strings.ToLower(strings.TrimSpace(kind))
}
