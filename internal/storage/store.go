package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"intern-hub/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Store 封装 SQLite 数据库访问，负责档案、企业、岗位、主题及关注投递关系的读写。
type Store struct {
	db *gorm.DB
}

// NewStore 创建 Store 并自动迁移数据表。
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Profile{},
		&model.Student{},
		&model.Company{},
		&model.Internship{},
		&model.Topic{},
		&model.InternshipTopic{},
		&model.Application{},
		&model.CompanyFollower{},
		&model.TopicFollower{},
		&model.RawPosting{},
		&model.Session{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}

	return &Store{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// patternClause 把若干检索词展开为跨列的 LIKE 条件，统一转小写实现大小写不敏感匹配。
func patternClause(cols []string, terms []string) (string, []any) {
	var parts []string
	var args []any
	for _, term := range terms {
		pattern := "%" + strings.ToLower(term) + "%"
		for _, col := range cols {
			parts = append(parts, fmt.Sprintf("LOWER(%s) LIKE ?", col))
			args = append(args, pattern)
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// SearchCompanies 按名称/描述模糊匹配企业，按关注数倒序，附带档案与近期岗位。
func (s *Store) SearchCompanies(ctx context.Context, terms []string, limit int) ([]model.Company, error) {
	var companies []model.Company
	clause, args := patternClause([]string{"name", "description"}, terms)
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Preload("Internships", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where(clause, args...).
		Order("follower_count DESC").
		Limit(limit).
		Find(&companies).Error
	if err != nil {
		return nil, fmt.Errorf("search companies: %w", err)
	}
	return companies, nil
}

// SearchCompanyProfiles 查找用户名/昵称/邮箱命中的企业账号档案。
func (s *Store) SearchCompanyProfiles(ctx context.Context, terms []string, exact string) ([]model.Profile, error) {
	var profiles []model.Profile
	clause, args := patternClause([]string{"username", "display_name", "email"}, terms)
	query := "(" + clause + " OR username = ?)"
	args = append(args, exact)
	err := s.db.WithContext(ctx).
		Where("role = ?", model.RoleCompany).
		Where(query, args...).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("search company profiles: %w", err)
	}
	return profiles, nil
}

// CompaniesByProfileIDs 按档案 ID 拉取企业，用于用户名命中的合并路径。
// 该路径以切片形态附加档案，与 Preload 的单体形态并存。
func (s *Store) CompaniesByProfileIDs(ctx context.Context, profileIDs []uint) ([]model.Company, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	var companies []model.Company
	err := s.db.WithContext(ctx).
		Preload("Internships", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("profile_id IN ?", profileIDs).
		Order("follower_count DESC").
		Find(&companies).Error
	if err != nil {
		return nil, fmt.Errorf("companies by profile ids: %w", err)
	}

	var profiles []model.Profile
	if err := s.db.WithContext(ctx).Where("id IN ?", profileIDs).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("companies by profile ids: load profiles: %w", err)
	}
	byID := make(map[uint]model.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}
	for i := range companies {
		if p, ok := byID[companies[i].ProfileID]; ok {
			companies[i].Profiles = []model.Profile{p}
		}
	}
	return companies, nil
}

// SearchTopics 按名称/描述模糊匹配主题，附带按相关度倒序的岗位样例。
func (s *Store) SearchTopics(ctx context.Context, terms []string, limit int) ([]model.Topic, error) {
	var topics []model.Topic
	clause, args := patternClause([]string{"name", "description"}, terms)
	err := s.db.WithContext(ctx).
		Preload("Pairings", func(db *gorm.DB) *gorm.DB {
			return db.Order("relevance_score DESC")
		}).
		Preload("Pairings.Internship.Company").
		Where(clause, args...).
		Order("follower_count DESC").
		Limit(limit).
		Find(&topics).Error
	if err != nil {
		return nil, fmt.Errorf("search topics: %w", err)
	}
	return topics, nil
}

// SearchInternships 匹配标题/描述，或归属于已命中的企业，按发布时间倒序。
func (s *Store) SearchInternships(ctx context.Context, terms []string, companyIDs []uint, limit int) ([]model.Internship, error) {
	var internships []model.Internship
	clause, args := patternClause([]string{"title", "description"}, terms)
	if len(companyIDs) > 0 {
		clause = "(" + clause + " OR company_id IN ?)"
		args = append(args, companyIDs)
	}
	err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("Pairings", func(db *gorm.DB) *gorm.DB {
			return db.Order("relevance_score DESC")
		}).
		Preload("Pairings.Topic").
		Where(clause, args...).
		Order("created_at DESC").
		Limit(limit).
		Find(&internships).Error
	if err != nil {
		return nil, fmt.Errorf("search internships: %w", err)
	}
	return internships, nil
}

// SearchProfiles 按用户名/昵称/邮箱匹配档案（或用户名精确相等），排除查询者本人。
func (s *Store) SearchProfiles(ctx context.Context, terms []string, exact string, exclude *uint, limit int) ([]model.Profile, error) {
	var profiles []model.Profile
	clause, args := patternClause([]string{"username", "display_name", "email"}, terms)
	query := "(" + clause + " OR username = ?)"
	args = append(args, exact)
	db := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Company").
		Where(query, args...)
	if exclude != nil {
		db = db.Where("id <> ?", *exclude)
	}
	if err := db.Limit(limit).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	return profiles, nil
}

// ProfileByUsername 按用户名精确查找，未找到返回 nil。
func (s *Store) ProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	var profile model.Profile
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Company").
		First(&profile, "username = ?", username).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile by username: %w", err)
	}
	return &profile, nil
}

// ProfileByID 按主键查找档案，未找到返回 nil。
func (s *Store) ProfileByID(ctx context.Context, id uint) (*model.Profile, error) {
	var profile model.Profile
	err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("profile by id: %w", err)
	}
	return &profile, nil
}

// StudentByProfileID 查学生扩展记录，未找到返回 nil。
func (s *Store) StudentByProfileID(ctx context.Context, profileID uint) (*model.Student, error) {
	var student model.Student
	err := s.db.WithContext(ctx).First(&student, "profile_id = ?", profileID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("student by profile id: %w", err)
	}
	return &student, nil
}

// CompanyByProfileID 查企业扩展记录，未找到返回 nil。
func (s *Store) CompanyByProfileID(ctx context.Context, profileID uint) (*model.Company, error) {
	var company model.Company
	err := s.db.WithContext(ctx).First(&company, "profile_id = ?", profileID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("company by profile id: %w", err)
	}
	return &company, nil
}

// StudentsByProfileIDs 批量查学生扩展记录，供企业侧回溯投递使用。
func (s *Store) StudentsByProfileIDs(ctx context.Context, profileIDs []uint) ([]model.Student, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}
	var students []model.Student
	if err := s.db.WithContext(ctx).Where("profile_id IN ?", profileIDs).Find(&students).Error; err != nil {
		return nil, fmt.Errorf("students by profile ids: %w", err)
	}
	return students, nil
}

// AppliedInternshipIDs 返回学生在给定岗位集合中已投递的岗位 ID。
func (s *Store) AppliedInternshipIDs(ctx context.Context, studentID uint, internshipIDs []uint) ([]uint, error) {
	if len(internshipIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := s.db.WithContext(ctx).Model(&model.Application{}).
		Where("student_id = ? AND internship_id IN ?", studentID, internshipIDs).
		Pluck("internship_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("applied internship ids: %w", err)
	}
	return ids, nil
}

// FollowedCompanyIDs 返回学生在给定企业集合中已关注的企业 ID。
func (s *Store) FollowedCompanyIDs(ctx context.Context, studentID uint, companyIDs []uint) ([]uint, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := s.db.WithContext(ctx).Model(&model.CompanyFollower{}).
		Where("student_id = ? AND company_id IN ?", studentID, companyIDs).
		Pluck("company_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("followed company ids: %w", err)
	}
	return ids, nil
}

// FollowedTopicIDs 返回学生在给定主题集合中已关注的主题 ID。
func (s *Store) FollowedTopicIDs(ctx context.Context, studentID uint, topicIDs []uint) ([]uint, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := s.db.WithContext(ctx).Model(&model.TopicFollower{}).
		Where("student_id = ? AND topic_id IN ?", studentID, topicIDs).
		Pluck("topic_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("followed topic ids: %w", err)
	}
	return ids, nil
}

// LatestCompanyApplications 返回给定学生集合向该企业岗位的投递记录，按时间倒序。
func (s *Store) LatestCompanyApplications(ctx context.Context, companyID uint, studentIDs []uint) ([]model.Application, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	var apps []model.Application
	err := s.db.WithContext(ctx).
		Preload("Internship").
		Joins("JOIN internships ON internships.id = applications.internship_id").
		Where("internships.company_id = ? AND applications.student_id IN ?", companyID, studentIDs).
		Order("applications.created_at DESC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("latest company applications: %w", err)
	}
	return apps, nil
}

// ListTopics 返回全部主题，按关注数倒序。
func (s *Store) ListTopics(ctx context.Context) ([]model.Topic, error) {
	var topics []model.Topic
	if err := s.db.WithContext(ctx).Order("follower_count DESC").Find(&topics).Error; err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

// RecentInternships 返回最近发布的岗位，供推荐候选使用。
func (s *Store) RecentInternships(ctx context.Context, limit int) ([]model.Internship, error) {
	if limit <= 0 {
		limit = 50
	}
	var internships []model.Internship
	err := s.db.WithContext(ctx).
		Preload("Company").
		Preload("Pairings.Topic").
		Order("created_at DESC").
		Limit(limit).
		Find(&internships).Error
	if err != nil {
		return nil, fmt.Errorf("recent internships: %w", err)
	}
	return internships, nil
}
