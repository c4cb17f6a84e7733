package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/RubachokBoss/prepai/internal/repository"
	"github.com/RubachokBoss/prepai/internal/service/integration"
)

type fakeExperienceRepo struct {
	mu        sync.Mutex
	items     []models.Experience
	clock     time.Time
	createErr error
	listErr   error
	creates   int
}

func newFakeExperienceRepo() *fakeExperienceRepo {
	return &fakeExperienceRepo{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *fakeExperienceRepo) Create(ctx context.Context, e *models.Experience) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	r.clock = r.clock.Add(time.Minute)
	e.CreatedAt = r.clock
	r.items = append(r.items, *e)
	return nil
}

func (r *fakeExperienceRepo) ListByCompany(ctx context.Context, company string, limit int) ([]models.Experience, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}

	var out []models.Experience
	for _, e := range r.items {
		if e.Company == company {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeExperienceRepo) ListCompanyNames(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var names []string
	for _, e := range r.items {
		if !seen[e.Company] {
			seen[e.Company] = true
			names = append(names, e.Company)
		}
	}
	sort.Strings(names)
	return names, nil
}

// seed добавляет запись напрямую, минуя сервис.
func (r *fakeExperienceRepo) seed(e models.Experience) {
	_ = r.Create(context.Background(), &e)
}

type fakeCompanyRepo struct {
	mu        sync.Mutex
	items     map[string]models.Company
	upsertErr error
	getErr    error
	upserts   int
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{items: map[string]models.Company{}}
}

func (r *fakeCompanyRepo) GetByName(ctx context.Context, name string) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	c, ok := r.items[name]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *fakeCompanyRepo) List(ctx context.Context) ([]models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Company, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeCompanyRepo) TransactionalUpsert(ctx context.Context, name string, mutate repository.CompanyMutation) (*models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}

	c, exists := r.items[name]
	if !exists {
		c = models.Company{Name: name}
	}
	if err := mutate(&c, exists); err != nil {
		return nil, err
	}
	c.Name = name
	r.items[name] = c
	return &c, nil
}

type fakeLLM struct {
	mu            sync.Mutex
	summary       string
	summaryErr    error
	summaryCalls  int
	lastCompany   string
	lastBlocks    []string
	roadmap       *models.Roadmap
	roadmapErr    error
	roadmapCalls  int
	lastRoadmapIn integration.RoadmapPromptInput
}

func (f *fakeLLM) Summarize(ctx context.Context, company string, blocks []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	f.lastCompany = company
	f.lastBlocks = blocks
	return f.summary, f.summaryErr
}

func (f *fakeLLM) GenerateRoadmap(ctx context.Context, in integration.RoadmapPromptInput) (*models.Roadmap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roadmapCalls++
	f.lastRoadmapIn = in
	return f.roadmap, f.roadmapErr
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.CompanyRefreshEvent
	err    error
}

func (p *fakePublisher) PublishCompanyRefresh(ctx context.Context, event *models.CompanyRefreshEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeLogoStorage struct {
	objects map[string][]byte
	err     error
}

func (s *fakeLogoStorage) UploadLogo(ctx context.Context, objectName, contentType string, content io.Reader, size int64) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return "", err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[objectName] = data
	return "http://cdn.test/company-logos/" + objectName, nil
}

func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int { return &v }
