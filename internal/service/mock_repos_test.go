package service

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"bookkeeping/internal/model"
	"bookkeeping/internal/repository"
)

// ── 测试仓储聚合 ──

type mockRepos struct {
	user        *mockUserRepo
	tag         *mockTagRepo
	log         *mockLogRepo
	run         *mockRunRepo
	environment *mockEnvironmentRepo
	eosReport   *mockEosReportRepo
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		user:        newMockUserRepo(),
		tag:         newMockTagRepo(),
		log:         newMockLogRepo(),
		run:         &mockRunRepo{},
		environment: &mockEnvironmentRepo{},
		eosReport:   &mockEosReportRepo{},
	}
}

// repository 组装未绑定数据库的 Repository，Transaction 直接在其上执行
func (m *mockRepos) repository() *repository.Repository {
	return &repository.Repository{
		User:        m.user,
		Tag:         m.tag,
		Log:         m.log,
		Run:         m.run,
		Environment: m.environment,
		EosReport:   m.eosReport,
	}
}

func inPeriod(t time.Time, period repository.Period) bool {
	return !t.Before(period.From) && t.Before(period.To)
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // key: user_id
	err   error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.UserID == "" {
		user.UserID = "test-user-" + user.Email
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock TagRepository ──

type mockTagRepo struct {
	tags []model.Tag
	err  error
}

func newMockTagRepo(texts ...string) *mockTagRepo {
	m := &mockTagRepo{}
	for i, text := range texts {
		m.tags = append(m.tags, model.Tag{ID: int64(i + 1), Text: text})
	}
	return m
}

func (m *mockTagRepo) ListByTexts(_ context.Context, texts []string) ([]model.Tag, error) {
	if m.err != nil {
		return nil, m.err
	}
	wanted := make(map[string]bool, len(texts))
	for _, t := range texts {
		wanted[t] = true
	}
	var result []model.Tag
	for _, tag := range m.tags {
		if wanted[tag.Text] {
			result = append(result, tag)
		}
	}
	return result, nil
}

// ── Mock LogRepository ──

type mockLogRepo struct {
	mu        sync.Mutex
	logs      []model.Log
	nextID    int64
	err       error
	createErr error
}

func newMockLogRepo() *mockLogRepo {
	return &mockLogRepo{nextID: 1000}
}

func (m *mockLogRepo) add(logs ...model.Log) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, logs...)
}

func (m *mockLogRepo) Create(_ context.Context, log *model.Log, tags []model.Tag, runs []model.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	log.ID = m.nextID
	log.Tags = tags
	log.Runs = runs
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockLogRepo) GetByID(_ context.Context, id int64) (*model.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.logs {
		if m.logs[i].ID == id {
			log := m.logs[i]
			return &log, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLogRepo) ListByUserInPeriod(_ context.Context, userID string, period repository.Period) ([]model.Log, error) {
	return m.list(func(log *model.Log) bool {
		return log.UserID != nil && *log.UserID == userID && inPeriod(log.CreatedAt, period)
	})
}

func (m *mockLogRepo) ListByTagsInPeriod(_ context.Context, filter repository.TagFilter, period repository.Period, opts repository.LogListOptions) ([]model.Log, error) {
	if len(filter.Include) == 0 {
		return nil, nil
	}
	return m.list(func(log *model.Log) bool {
		return inPeriod(log.CreatedAt, period) &&
			log.HasTag(filter.Include...) && !log.HasTag(filter.Exclude...) &&
			(!opts.RootOnly || log.IsRoot())
	})
}

func (m *mockLogRepo) ListInPeriod(_ context.Context, period repository.Period, opts repository.LogListOptions) ([]model.Log, error) {
	return m.list(func(log *model.Log) bool {
		return inPeriod(log.CreatedAt, period) && (!opts.RootOnly || log.IsRoot())
	})
}

func (m *mockLogRepo) list(match func(*model.Log) bool) ([]model.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Log
	for i := range m.logs {
		if match(&m.logs[i]) {
			result = append(result, m.logs[i])
		}
	}
	return result, nil
}

// ── Mock RunRepository ──

type mockRunRepo struct {
	runs []model.Run
	err  error
}

func (m *mockRunRepo) ListInPeriod(_ context.Context, period repository.Period, _ repository.RunRelations) ([]model.Run, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Run
	for _, run := range m.runs {
		start, end := run.StartTime(), run.EndTime()
		if start == nil || !start.Before(period.To) {
			continue
		}
		if end != nil && end.Before(period.From) {
			continue
		}
		result = append(result, run)
	}
	return result, nil
}

func (m *mockRunRepo) ListByRunNumbers(_ context.Context, runNumbers []int64) ([]model.Run, error) {
	if m.err != nil {
		return nil, m.err
	}
	wanted := make(map[int64]bool, len(runNumbers))
	for _, n := range runNumbers {
		wanted[n] = true
	}
	var result []model.Run
	for _, run := range m.runs {
		if wanted[run.RunNumber] {
			result = append(result, run)
		}
	}
	return result, nil
}

// ── Mock EnvironmentRepository ──

type mockEnvironmentRepo struct {
	environments []model.Environment
	err          error
	// 记录最近一次查询参数
	lastGrace time.Duration
}

func (m *mockEnvironmentRepo) ListInPeriod(_ context.Context, period repository.Period, grace time.Duration, _ repository.EnvironmentRelations) ([]model.Environment, error) {
	m.lastGrace = grace
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Environment
	for _, env := range m.environments {
		if env.CreatedAt.Before(period.To) {
			// 复制运行列表，避免调用方修改测试数据
			env.Runs = append([]model.Run(nil), env.Runs...)
			result = append(result, env)
		}
	}
	return result, nil
}

// ── Mock EosReportRepository ──

type mockEosReportRepo struct {
	mu        sync.Mutex
	reports   []model.EosReport
	err       error
	createErr error
}

func (m *mockEosReportRepo) Create(_ context.Context, report *model.EosReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	report.ID = int64(len(m.reports) + 1)
	m.reports = append(m.reports, *report)
	return nil
}

func (m *mockEosReportRepo) ListByShift(_ context.Context, reportType string, shiftStart time.Time) ([]model.EosReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.EosReport
	for _, r := range m.reports {
		if r.ReportType == reportType && r.ShiftStart.Equal(shiftStart) {
			result = append(result, r)
		}
	}
	return result, nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Duration
	err     error
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{entries: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries[jti] = ttl
	return nil
}
