package storage

import (
	"context"
	"fmt"

	"intern-hub/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RawUpsertResult 表示原始岗位写入结果。
type RawUpsertResult struct {
	Created     int
	NewPostings []model.RawPosting
}

// RawPostingQuery 描述原始岗位筛选条件。
type RawPostingQuery struct {
	Status model.RawPostingStatus
	Limit  int
}

// RawPostingUpdate 用于更新原始岗位状态与打标详情。
type RawPostingUpdate struct {
	Status model.RawPostingStatus
	Reason string
	Trace  datatypes.JSONMap
}

// UpsertRawPostings 写入抓取到的原始岗位，按 source + external_id 去重。
func (s *Store) UpsertRawPostings(ctx context.Context, postings []model.RawPosting) (RawUpsertResult, error) {
	res := RawUpsertResult{}
	if len(postings) == 0 {
		return res, nil
	}

	bySource := make(map[string][]string)
	for i := range postings {
		if postings[i].Status == "" {
			postings[i].Status = model.RawPostingPending
		}
		bySource[postings[i].Source] = append(bySource[postings[i].Source], postings[i].ExternalID)
	}

	existing := make(map[string]struct{})
	for source, ids := range bySource {
		if len(ids) == 0 {
			continue
		}
		var rows []string
		if err := s.db.WithContext(ctx).Model(&model.RawPosting{}).
			Where("source = ? AND external_id IN ?", source, ids).
			Pluck("external_id", &rows).Error; err != nil {
			return res, fmt.Errorf("query existing raw ids: %w", err)
		}
		for _, ext := range rows {
			existing[source+"|"+ext] = struct{}{}
		}
	}

	for i := range postings {
		key := postings[i].Source + "|" + postings[i].ExternalID
		if _, ok := existing[key]; !ok {
			res.Created++
			res.NewPostings = append(res.NewPostings, postings[i])
			existing[key] = struct{}{}
		}
	}

	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "source"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"company_name", "title", "summary", "content", "url", "raw_payload", "published_at", "updated_at"}),
	}).Create(&postings)
	if tx.Error != nil {
		return res, fmt.Errorf("upsert raw postings: %w", tx.Error)
	}

	return res, nil
}

// ListRawPostings 返回指定状态的原始岗位，默认 pending，按创建时间升序。
func (s *Store) ListRawPostings(ctx context.Context, query RawPostingQuery) ([]model.RawPosting, error) {
	var postings []model.RawPosting
	status := query.Status
	if status == "" {
		status = model.RawPostingPending
	}
	limit := query.Limit
	if limit <= 0 {
		limit = 50
	}
	if err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&postings).Error; err != nil {
		return nil, fmt.Errorf("list raw postings: %w", err)
	}
	return postings, nil
}

// UpdateRawPostingStatus 更新原始岗位状态及打标详情。
func (s *Store) UpdateRawPostingStatus(ctx context.Context, id uint, update RawPostingUpdate) error {
	if update.Status == "" {
		update.Status = model.RawPostingProcessed
	}
	values := map[string]any{
		"status": update.Status,
		"reason": update.Reason,
	}
	if update.Trace != nil {
		values["trace"] = update.Trace
	}
	tx := s.db.WithContext(ctx).Model(&model.RawPosting{}).Where("id = ?", id).Updates(values)
	if tx.Error != nil {
		return fmt.Errorf("update raw posting status: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("update raw posting status: id %d not found", id)
	}
	return nil
}

// EnsureImportedCompany 按名称解析企业，不存在时创建带占位档案的企业记录。
func (s *Store) EnsureImportedCompany(ctx context.Context, name, source string) (*model.Company, error) {
	var company model.Company
	err := s.db.WithContext(ctx).First(&company, "name = ?", name).Error
	if err == nil {
		return &company, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("ensure imported company: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile := model.Profile{
			DisplayName: name,
			Role:        model.RoleCompany,
			IsPublic:    true,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}
		company = model.Company{
			ProfileID:   profile.ID,
			Name:        name,
			Description: fmt.Sprintf("Imported from %s", source),
		}
		return tx.Create(&company).Error
	})
	if err != nil {
		return nil, fmt.Errorf("ensure imported company: create: %w", err)
	}
	return &company, nil
}

// CreateInternship 写入岗位及其主题关联。
func (s *Store) CreateInternship(ctx context.Context, internship *model.Internship, pairings []model.InternshipTopic) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(internship).Error; err != nil {
			return err
		}
		for i := range pairings {
			pairings[i].InternshipID = internship.ID
		}
		if len(pairings) == 0 {
			return nil
		}
		return tx.Create(&pairings).Error
	})
	if err != nil {
		return fmt.Errorf("create internship: %w", err)
	}
	return nil
}

// FollowerEmails 返回关注该企业或任一主题的学生邮箱，已去重。
func (s *Store) FollowerEmails(ctx context.Context, companyID uint, topicIDs []uint) ([]string, error) {
	var emails []string
	err := s.db.WithContext(ctx).Model(&model.Profile{}).
		Joins("JOIN students ON students.profile_id = profiles.id").
		Joins("JOIN company_followers ON company_followers.student_id = students.id").
		Where("company_followers.company_id = ?", companyID).
		Pluck("profiles.email", &emails).Error
	if err != nil {
		return nil, fmt.Errorf("company follower emails: %w", err)
	}

	if len(topicIDs) > 0 {
		var topicEmails []string
		err = s.db.WithContext(ctx).Model(&model.Profile{}).
			Joins("JOIN students ON students.profile_id = profiles.id").
			Joins("JOIN topic_followers ON topic_followers.student_id = students.id").
			Where("topic_followers.topic_id IN ?", topicIDs).
			Pluck("profiles.email", &topicEmails).Error
		if err != nil {
			return nil, fmt.Errorf("topic follower emails: %w", err)
		}
		emails = append(emails, topicEmails...)
	}

	seen := make(map[string]struct{}, len(emails))
	unique := make([]string, 0, len(emails))
	for _, email := range emails {
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		unique = append(unique, email)
	}
	return unique, nil
}
