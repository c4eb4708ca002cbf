package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"contest-core/internal/model"
	"contest-core/internal/repository"
	pkgerrors "contest-core/pkg/errors"
)

// ── Mock ContestRepository ──

type mockContestRepo struct {
	contests map[string]*model.Contest
	seq      int
}

func newMockContestRepo() *mockContestRepo {
	return &mockContestRepo{contests: make(map[string]*model.Contest)}
}

func (m *mockContestRepo) Create(_ context.Context, c *model.Contest) error {
	for _, existing := range m.contests {
		if existing.Name == c.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	if c.ContestID == "" {
		m.seq++
		c.ContestID = fmt.Sprintf("c-%d", m.seq)
	}
	if c.Version == 0 {
		c.Version = 1
	}
	cp := *c
	m.contests[c.ContestID] = &cp
	return nil
}

func (m *mockContestRepo) GetByID(_ context.Context, id string) (*model.Contest, error) {
	if c, ok := m.contests[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockContestRepo) GetByName(_ context.Context, name string) (*model.Contest, error) {
	for _, c := range m.contests {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockContestRepo) List(_ context.Context, filter repository.ContestFilter, offset, limit int) ([]model.Contest, int64, error) {
	all := make([]model.Contest, 0, len(m.contests))
	for _, c := range m.contests {
		if filter.Keyword != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Keyword)) {
			continue
		}
		switch filter.Status {
		case repository.ContestStatusUpcoming:
			if !c.Start.After(filter.Now) {
				continue
			}
		case repository.ContestStatusRunning:
			if c.Start.After(filter.Now) || c.Stop.Before(filter.Now) {
				continue
			}
		case repository.ContestStatusFinished:
			if !c.Stop.Before(filter.Now) {
				continue
			}
		}
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Start.After(all[j].Start) })

	total := int64(len(all))
	if offset >= len(all) {
		return []model.Contest{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockContestRepo) Update(_ context.Context, c *model.Contest) error {
	stored, ok := m.contests[c.ContestID]
	if !ok || stored.Version != c.Version {
		return pkgerrors.ErrOptimisticLock
	}
	c.Version++
	cp := *c
	m.contests[c.ContestID] = &cp
	return nil
}

func (m *mockContestRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.contests, id)
	return nil
}

// ── Mock ParticipationRepository ──

type mockParticipationRepo struct {
	participations map[string]*model.Participation
	seq            int
	locks          int // LockForUpdate 调用次数
}

func newMockParticipationRepo() *mockParticipationRepo {
	return &mockParticipationRepo{participations: make(map[string]*model.Participation)}
}

func (m *mockParticipationRepo) Create(_ context.Context, p *model.Participation) error {
	for _, existing := range m.participations {
		if existing.ContestID == p.ContestID && existing.UserID == p.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if p.ParticipationID == "" {
		m.seq++
		p.ParticipationID = fmt.Sprintf("p-%d", m.seq)
	}
	cp := *p
	m.participations[p.ParticipationID] = &cp
	return nil
}

func (m *mockParticipationRepo) GetByID(_ context.Context, id string) (*model.Participation, error) {
	if p, ok := m.participations[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockParticipationRepo) GetByContestAndUser(_ context.Context, contestID, userID string) (*model.Participation, error) {
	for _, p := range m.participations {
		if p.ContestID == contestID && p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockParticipationRepo) ListByContest(_ context.Context, contestID string) ([]model.Participation, error) {
	var result []model.Participation
	for _, p := range m.participations {
		if p.ContestID == contestID {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockParticipationRepo) LockForUpdate(ctx context.Context, id string) (*model.Participation, error) {
	m.locks++
	return m.GetByID(ctx, id)
}

// ── Mock TokenUseRepository ──

type mockTokenUseRepo struct {
	uses      []model.TokenUse
	seq       int
	createErr error
}

func newMockTokenUseRepo() *mockTokenUseRepo {
	return &mockTokenUseRepo{}
}

func (m *mockTokenUseRepo) Create(_ context.Context, use *model.TokenUse) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, u := range m.uses {
		if u.SubmissionID == use.SubmissionID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	use.TokenUseID = fmt.Sprintf("tu-%d", m.seq)
	m.uses = append(m.uses, *use)
	return nil
}

func (m *mockTokenUseRepo) ListTimestamps(_ context.Context, participationID string) ([]time.Time, error) {
	var result []time.Time
	for _, u := range m.uses {
		if u.ParticipationID == participationID {
			result = append(result, u.Timestamp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result, nil
}

func (m *mockTokenUseRepo) CountByParticipations(_ context.Context, participationIDs []string) (map[string]repository.TokenUsageSummary, error) {
	wanted := make(map[string]bool, len(participationIDs))
	for _, id := range participationIDs {
		wanted[id] = true
	}
	result := make(map[string]repository.TokenUsageSummary)
	for _, u := range m.uses {
		if !wanted[u.ParticipationID] {
			continue
		}
		sum := result[u.ParticipationID]
		sum.ParticipationID = u.ParticipationID
		sum.Count++
		if u.Timestamp.After(sum.LastUsedAt) {
			sum.LastUsedAt = u.Timestamp
		}
		result[u.ParticipationID] = sum
	}
	return result, nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct {
	events []model.SubmissionEvent
	seq    int
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{}
}

func (m *mockSubmissionRepo) Create(_ context.Context, event *model.SubmissionEvent) error {
	m.seq++
	event.SubmissionEventID = fmt.Sprintf("se-%d", m.seq)
	m.events = append(m.events, *event)
	return nil
}

func (m *mockSubmissionRepo) ListTimestamps(_ context.Context, participationID, kind string) ([]time.Time, error) {
	var result []time.Time
	for _, e := range m.events {
		if e.ParticipationID == participationID && e.Kind == kind {
			result = append(result, e.Timestamp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Before(result[j]) })
	return result, nil
}

// ── 测试辅助 ──

// mockRepos 一组 mock 仓储及其聚合
type mockRepos struct {
	contest       *mockContestRepo
	participation *mockParticipationRepo
	tokenUse      *mockTokenUseRepo
	submission    *mockSubmissionRepo
	repo          *repository.Repository
}

func newMockRepos() *mockRepos {
	m := &mockRepos{
		contest:       newMockContestRepo(),
		participation: newMockParticipationRepo(),
		tokenUse:      newMockTokenUseRepo(),
		submission:    newMockSubmissionRepo(),
	}
	m.repo = &repository.Repository{
		Contest:       m.contest,
		Participation: m.participation,
		TokenUse:      m.tokenUse,
		Submission:    m.submission,
	}
	return m
}

// testClock 可手动推进的时钟
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

var contestStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

// seedContest 直接写入一场比赛：09:00-14:00，分析模式 15:00-次日 15:00，有限令牌 2/2/30m
func seedContest(m *mockRepos, mutate func(c *model.Contest)) *model.Contest {
	c := &model.Contest{
		Name:                    "round-1",
		TokenMode:               "finite",
		TokenGenInitial:         2,
		TokenGenNumber:          2,
		TokenGenIntervalSeconds: 1800,
		Start:                   contestStart,
		Stop:                    contestStart.Add(5 * time.Hour),
		AnalysisEnabled:         true,
		AnalysisStart:           contestStart.Add(6 * time.Hour),
		AnalysisStop:            contestStart.Add(30 * time.Hour),
		AllowUserTests:          true,
	}
	if mutate != nil {
		mutate(c)
	}
	_ = m.contest.Create(context.Background(), c)
	return c
}

func seedParticipation(m *mockRepos, contestID, userID string, mutate func(p *model.Participation)) *model.Participation {
	p := &model.Participation{ContestID: contestID, UserID: userID}
	if mutate != nil {
		mutate(p)
	}
	_ = m.participation.Create(context.Background(), p)
	return p
}
