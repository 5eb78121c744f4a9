package follow

import (
	"context"
	"strings"
	"testing"

	"intern-hub/internal/model"
)

func TestFollowValidatesTarget(t *testing.T) {
	t.Parallel()

	store := &stubStore{
		companies: map[uint]model.Company{1: {ID: 1, Name: "Acme Corp"}},
		topics:    map[uint]model.Topic{7: {ID: 7, Name: "Python"}},
	}
	svc := NewService(store)
	ctx := context.Background()

	if err := svc.Follow(ctx, 5, "company", 1); err != nil {
		t.Fatalf("follow company: %v", err)
	}
	if store.companyFollows != 1 {
		t.Fatalf("expected company follow recorded, got %d", store.companyFollows)
	}

	if err := svc.Follow(ctx, 5, " Topic ", 7); err != nil {
		t.Fatalf("kind must be normalized: %v", err)
	}
	if store.topicFollows != 1 {
		t.Fatalf("expected topic follow recorded, got %d", store.topicFollows)
	}

	if err := svc.Follow(ctx, 5, "company", 999); err == nil {
		t.Fatalf("expected error for unknown company")
	}
	if err := svc.Follow(ctx, 5, "internship", 1); err == nil || !strings.Contains(err.Error(), "unsupported follow kind") {
		t.Fatalf("expected unsupported kind error, got %v", err)
	}
}

func TestUnfollowSkipsTargetLookup(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	svc := NewService(store)
	ctx := context.Background()

	// 取关不校验目标存在，未关注时为空操作。
	if err := svc.Unfollow(ctx, 5, "company", 999); err != nil {
		t.Fatalf("unfollow company: %v", err)
	}
	if err := svc.Unfollow(ctx, 5, "topic", 999); err != nil {
		t.Fatalf("unfollow topic: %v", err)
	}
	if err := svc.Unfollow(ctx, 5, "profile", 1); err == nil {
		t.Fatalf("expected unsupported kind error")
	}
}

// --- stubs ---

type stubStore struct {
	companies      map[uint]model.Company
	topics         map[uint]model.Topic
	companyFollows int
	topicFollows   int
}

func (s *stubStore) CompanyByID(ctx context.Context, id uint) (*model.Company, error) {
	if c, ok := s.companies[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *stubStore) TopicByID(ctx context.Context, id uint) (*model.Topic, error) {
	if tp, ok := s.topics[id]; ok {
		return &tp, nil
	}
	return nil, nil
}

func (s *stubStore) FollowCompany(ctx context.Context, studentID, companyID uint) (bool, error) {
	s.companyFollows++
	return true, nil
}

func (s *stubStore) UnfollowCompany(ctx context.Context, studentID, companyID uint) error {
	return nil
}

func (s *stubStore) FollowTopic(ctx context.Context, studentID, topicID uint) (bool, error) {
	s.topicFollows++
	return true, nil
}

func (s *stubStore) UnfollowTopic(ctx context.Context, studentID, topicID uint) error {
	return nil
}
