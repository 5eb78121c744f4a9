package notifier

import (
	"context"
	"fmt"

	"intern-hub/internal/model"
)

// FollowerStore 定义关注者邮箱的读取接口。
type FollowerStore interface {
	FollowerEmails(ctx context.Context, companyID uint, topicIDs []uint) ([]string, error)
}

// internshipNotifier 提供统一通知接口。
type internshipNotifier interface {
	Notify(ctx context.Context, internships []model.Internship) error
}

// FollowerNotifier 把新岗位推送给关注了其企业或主题的学生，
// 每个学生收到一封聚合邮件。
type FollowerNotifier struct {
	store    FollowerStore
	emailCfg EmailConfig
	sender   EmailSender
	fallback internshipNotifier
}

// NewFollowerNotifier 创建实例。
func NewFollowerNotifier(store FollowerStore, cfg EmailConfig, sender EmailSender, fallback internshipNotifier) *FollowerNotifier {
	return &FollowerNotifier{
		store:    store,
		emailCfg: cfg,
		sender:   sender,
		fallback: fallback,
	}
}

// Notify 逐岗位解析关注者并按收件人聚合发送；没有任何关注者时退回
// fallback 通知器。
func (n *FollowerNotifier) Notify(ctx context.Context, internships []model.Internship) error {
	if len(internships) == 0 || n.store == nil {
		return nil
	}

	byEmail := make(map[string][]model.Internship)
	for _, internship := range internships {
		topicIDs := make([]uint, 0, len(internship.Pairings))
		for _, pairing := range internship.Pairings {
			topicIDs = append(topicIDs, pairing.TopicID)
		}
		emails, err := n.store.FollowerEmails(ctx, internship.CompanyID, topicIDs)
		if err != nil {
			return fmt.Errorf("resolve follower emails: %w", err)
		}
		for _, email := range emails {
			byEmail[email] = append(byEmail[email], internship)
		}
	}

	if len(byEmail) == 0 {
		if n.fallback != nil {
			return n.fallback.Notify(ctx, internships)
		}
		return nil
	}

	for email, matched := range byEmail {
		cfg := n.emailCfg
		cfg.To = []string{email}
		notifier := NewEmailNotifier(cfg, n.sender)
		if err := notifier.Notify(ctx, matched); err != nil {
			return err
		}
	}
	return nil
}
