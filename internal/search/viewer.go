package search

import (
	"context"
	"fmt"

	"intern-hub/internal/model"
)

// Viewer 表示发起检索的身份，全部字段可空（匿名）。
// 注解集合只反映该身份自己的关系状态。
type Viewer struct {
	ProfileID *uint
	StudentID *uint
	CompanyID *uint
}

// resolveViewer 把会话档案 ID 展开为完整的查询者上下文。
// 档案查不到按匿名处理；查询失败则中止请求，避免输出错误的隐私状态。
func (s *Service) resolveViewer(ctx context.Context, profileID *uint) (Viewer, error) {
	if profileID == nil {
		return Viewer{}, nil
	}

	profile, err := s.store.ProfileByID(ctx, *profileID)
	if err != nil {
		return Viewer{}, fmt.Errorf("resolve viewer profile: %w", err)
	}
	if profile == nil {
		return Viewer{}, nil
	}

	viewer := Viewer{ProfileID: &profile.ID}
	switch profile.Role {
	case model.RoleStudent:
		student, err := s.store.StudentByProfileID(ctx, profile.ID)
		if err != nil {
			return Viewer{}, fmt.Errorf("resolve viewer student: %w", err)
		}
		if student != nil {
			viewer.StudentID = &student.ID
		}
	case model.RoleCompany:
		company, err := s.store.CompanyByProfileID(ctx, profile.ID)
		if err != nil {
			return Viewer{}, fmt.Errorf("resolve viewer company: %w", err)
		}
		if company != nil {
			viewer.CompanyID = &company.ID
		}
	}
	return viewer, nil
}
