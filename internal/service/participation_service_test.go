package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"contest-core/internal/dto"
)

func setupTestParticipationService() (ParticipationService, *mockRepos) {
	m := newMockRepos()
	clock := &testClock{t: contestStart}
	return NewParticipationService(m.repo, clock.Now, zap.NewNop()), m
}

func TestParticipationService_Join(t *testing.T) {
	svc, m := setupTestParticipationService()
	c := seedContest(m, nil)
	ctx := context.Background()

	res, err := svc.Join(ctx, c.ContestID, &dto.JoinContestRequest{UserID: "user-1", Hidden: true}, "admin-001")
	if err != nil {
		t.Fatalf("Join 应成功: %v", err)
	}
	if res.ContestID != c.ContestID || res.UserID != "user-1" || !res.Hidden {
		t.Errorf("参赛记录内容不符: %+v", res)
	}

	got, err := svc.GetByID(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("期望 user-1，实际=%s", got.UserID)
	}

	if _, err := svc.Join(ctx, c.ContestID, &dto.JoinContestRequest{UserID: "user-1"}, "admin-001"); !errors.Is(err, ErrAlreadyJoined) {
		t.Errorf("重复参赛期望 ErrAlreadyJoined，实际: %v", err)
	}
}

func TestParticipationService_Join_ContestNotFound(t *testing.T) {
	svc, _ := setupTestParticipationService()

	_, err := svc.Join(context.Background(), "nonexistent", &dto.JoinContestRequest{UserID: "user-1"}, "admin-001")
	if !errors.Is(err, ErrContestNotFound) {
		t.Errorf("期望 ErrContestNotFound，实际: %v", err)
	}
}

func TestParticipationService_GetByID_NotFound(t *testing.T) {
	svc, _ := setupTestParticipationService()

	_, err := svc.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrParticipationNotFound) {
		t.Errorf("期望 ErrParticipationNotFound，实际: %v", err)
	}
}
