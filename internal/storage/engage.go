package storage

import (
	"context"
	"fmt"
	"time"

	"intern-hub/internal/model"

	"gorm.io/gorm"
)

// CompanyByID 按主键查企业，未找到返回 nil。
func (s *Store) CompanyByID(ctx context.Context, id uint) (*model.Company, error) {
	var company model.Company
	err := s.db.WithContext(ctx).First(&company, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("company by id: %w", err)
	}
	return &company, nil
}

// TopicByID 按主键查主题，未找到返回 nil。
func (s *Store) TopicByID(ctx context.Context, id uint) (*model.Topic, error) {
	var topic model.Topic
	err := s.db.WithContext(ctx).First(&topic, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("topic by id: %w", err)
	}
	return &topic, nil
}

// InternshipByID 按主键查岗位，未找到返回 nil。
func (s *Store) InternshipByID(ctx context.Context, id uint) (*model.Internship, error) {
	var internship model.Internship
	err := s.db.WithContext(ctx).First(&internship, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("internship by id: %w", err)
	}
	return &internship, nil
}

// FollowCompany 建立关注并维护冗余计数，已关注时不计数、不报错。
func (s *Store) FollowCompany(ctx context.Context, studentID, companyID uint) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.CompanyFollower{}).
			Where("student_id = ? AND company_id = ?", studentID, companyID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&model.CompanyFollower{StudentID: studentID, CompanyID: companyID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Company{}).Where("id = ?", companyID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("follow company: %w", err)
	}
	return created, nil
}

// UnfollowCompany 解除关注并回退计数，未关注时为空操作。
func (s *Store) UnfollowCompany(ctx context.Context, studentID, companyID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("student_id = ? AND company_id = ?", studentID, companyID).
			Delete(&model.CompanyFollower{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&model.Company{}).
			Where("id = ? AND follower_count > 0", companyID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error
	})
	if err != nil {
		return fmt.Errorf("unfollow company: %w", err)
	}
	return nil
}

// FollowTopic 建立主题关注并维护冗余计数。
func (s *Store) FollowTopic(ctx context.Context, studentID, topicID uint) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.TopicFollower{}).
			Where("student_id = ? AND topic_id = ?", studentID, topicID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(&model.TopicFollower{StudentID: studentID, TopicID: topicID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Topic{}).Where("id = ?", topicID).
			UpdateColumn("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("follow topic: %w", err)
	}
	return created, nil
}

// UnfollowTopic 解除主题关注并回退计数。
func (s *Store) UnfollowTopic(ctx context.Context, studentID, topicID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("student_id = ? AND topic_id = ?", studentID, topicID).
			Delete(&model.TopicFollower{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&model.Topic{}).
			Where("id = ? AND follower_count > 0", topicID).
			UpdateColumn("follower_count", gorm.Expr("follower_count - 1")).Error
	})
	if err != nil {
		return fmt.Errorf("unfollow topic: %w", err)
	}
	return nil
}

// HasApplication 检查学生是否已投递该岗位。
func (s *Store) HasApplication(ctx context.Context, studentID, internshipID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Application{}).
		Where("student_id = ? AND internship_id = ?", studentID, internshipID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("has application: %w", err)
	}
	return count > 0, nil
}

// CreateApplication 写入投递记录。
func (s *Store) CreateApplication(ctx context.Context, app *model.Application) error {
	if app.Status == "" {
		app.Status = model.ApplicationPending
	}
	if err := s.db.WithContext(ctx).Create(app).Error; err != nil {
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// StudentApplications 返回学生的全部投递，按时间倒序，附带岗位。
func (s *Store) StudentApplications(ctx context.Context, studentID uint) ([]model.Application, error) {
	var apps []model.Application
	err := s.db.WithContext(ctx).
		Preload("Internship").
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("student applications: %w", err)
	}
	return apps, nil
}

// FollowedCompaniesOf 返回学生关注的全部企业。
func (s *Store) FollowedCompaniesOf(ctx context.Context, studentID uint) ([]model.Company, error) {
	var companies []model.Company
	err := s.db.WithContext(ctx).
		Joins("JOIN company_followers ON company_followers.company_id = companies.id").
		Where("company_followers.student_id = ?", studentID).
		Find(&companies).Error
	if err != nil {
		return nil, fmt.Errorf("followed companies: %w", err)
	}
	return companies, nil
}

// FollowedTopicsOf 返回学生关注的全部主题。
func (s *Store) FollowedTopicsOf(ctx context.Context, studentID uint) ([]model.Topic, error) {
	var topics []model.Topic
	err := s.db.WithContext(ctx).
		Joins("JOIN topic_followers ON topic_followers.topic_id = topics.id").
		Where("topic_followers.student_id = ?", studentID).
		Find(&topics).Error
	if err != nil {
		return nil, fmt.Errorf("followed topics: %w", err)
	}
	return topics, nil
}

// ProfileIDForToken 把会话令牌解析为档案 ID，无效或过期返回 nil。
func (s *Store) ProfileIDForToken(ctx context.Context, token string) (*uint, error) {
	var session model.Session
	err := s.db.WithContext(ctx).First(&session, "token = ?", token).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session by token: %w", err)
	}
	if !session.ExpiresAt.IsZero() && session.ExpiresAt.Before(time.Now()) {
		return nil, nil
	}
	id := session.ProfileID
	return &id, nil
}

// CreateSession 写入会话令牌，主要供种子与测试使用。
func (s *Store) CreateSession(ctx context.Context, session *model.Session) error {
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}
