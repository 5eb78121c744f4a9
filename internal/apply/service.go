package apply

import (
	"context"
	"fmt"

	"intern-hub/internal/model"
)

// Store 定义投递所需的持久化接口。
type Store interface {
	InternshipByID(ctx context.Context, id uint) (*model.Internship, error)
	HasApplication(ctx context.Context, studentID, internshipID uint) (bool, error)
	CreateApplication(ctx context.Context, app *model.Application) error
}

// Service 负责校验并写入投递，每个 (student, internship) 至多一条。
type Service struct {
	store Store
}

// NewService 创建投递服务。
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Apply 校验岗位存在且未投递过，然后写入投递记录。
func (s *Service) Apply(ctx context.Context, studentID, internshipID uint) (*model.Application, error) {
	internship, err := s.store.InternshipByID(ctx, internshipID)
	if err != nil {
		return nil, err
	}
	if internship == nil {
		return nil, fmt.Errorf("internship %d not found", internshipID)
	}

	exists, err := s.store.HasApplication(ctx, studentID, internshipID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("already applied to internship %d", internshipID)
	}

	app := model.Application{
		StudentID:    studentID,
		InternshipID: internshipID,
		Status:       model.ApplicationPending,
	}
	if err := s.store.CreateApplication(ctx, &app); err != nil {
		return nil, err
	}
	return &app, nil
}
