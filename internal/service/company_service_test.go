package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type companyFixture struct {
	experiences *fakeExperienceRepo
	companies   *fakeCompanyRepo
	storage     *fakeLogoStorage
	publisher   *fakePublisher
	llm         *fakeLLM
}

func newCompanyFixture() *companyFixture {
	return &companyFixture{
		experiences: newFakeExperienceRepo(),
		companies:   newFakeCompanyRepo(),
		storage:     &fakeLogoStorage{},
		publisher:   &fakePublisher{},
		llm:         &fakeLLM{summary: "summary"},
	}
}

func (f *companyFixture) service(withPublisher bool) CompanyService {
	aggregator := NewCompanyAggregator(f.experiences, f.companies, f.llm, zerolog.Nop())
	if withPublisher {
		return NewCompanyService(f.companies, f.experiences, f.storage, aggregator, f.publisher, 1024, zerolog.Nop())
	}
	return NewCompanyService(f.companies, f.experiences, f.storage, aggregator, nil, 1024, zerolog.Nop())
}

func TestGetCompanyAggregate(t *testing.T) {
	f := newCompanyFixture()
	f.companies.items["Acme"] = models.Company{Name: "Acme", NumExperiences: 3, AvgCGPA: 7.5}
	svc := f.service(false)

	company, err := svc.GetCompanyAggregate(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, 3, company.NumExperiences)
	assert.Equal(t, "https://avatar.vercel.sh/acme.png?size=96", company.LogoURL)
	assert.Equal(t, models.DefaultAIHint, company.AIHint)

	_, err = svc.GetCompanyAggregate(context.Background(), "Initech")
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestListCompanies(t *testing.T) {
	f := newCompanyFixture()
	f.companies.items["Globex"] = models.Company{Name: "Globex", AIHint: "globe"}
	f.companies.items["Acme"] = models.Company{Name: "Acme"}

	resp, err := f.service(false).ListCompanies(context.Background())

	require.NoError(t, err)
	require.Equal(t, 2, resp.Total)
	assert.Equal(t, "Acme", resp.Companies[0].Name)
	assert.Equal(t, models.DefaultAIHint, resp.Companies[0].AIHint)
	assert.Equal(t, "globe", resp.Companies[1].AIHint)
}

func TestListCompanyExperiences(t *testing.T) {
	f := newCompanyFixture()
	f.companies.items["Acme"] = models.Company{Name: "Acme", NumExperiences: 2}
	f.experiences.seed(models.Experience{ID: "old", Company: "Acme", CGPA: 7})
	f.experiences.seed(models.Experience{ID: "new", Company: "Acme", CGPA: 8})
	f.experiences.seed(models.Experience{ID: "other", Company: "Globex", CGPA: 9})

	resp, err := f.service(false).ListCompanyExperiences(context.Background(), "Acme")

	require.NoError(t, err)
	assert.Equal(t, "Acme", resp.Company.Name)
	require.Len(t, resp.Experiences, 2)
	assert.Equal(t, "new", resp.Experiences[0].ID)
	assert.Equal(t, "old", resp.Experiences[1].ID)

	_, err = f.service(false).ListCompanyExperiences(context.Background(), "Initech")
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestUploadLogo(t *testing.T) {
	f := newCompanyFixture()
	f.companies.items["Acme Corp"] = models.Company{Name: "Acme Corp", NumExperiences: 4, AIHint: "anvils"}

	company, err := f.service(false).UploadLogo(context.Background(), &models.LogoUploadRequest{
		Company:     "Acme Corp",
		FileName:    "logo.png",
		ContentType: "image/png",
		Size:        4,
		Content:     []byte("\x89PNG"),
	})

	require.NoError(t, err)
	require.Len(t, f.storage.objects, 1)
	for name := range f.storage.objects {
		assert.True(t, strings.HasPrefix(name, "acme-corp/"), name)
		assert.True(t, strings.HasSuffix(name, ".png"), name)
		assert.Equal(t, "http://cdn.test/company-logos/"+name, company.LogoURL)
	}
	assert.Equal(t, 4, company.NumExperiences)
	assert.Equal(t, "anvils", company.AIHint)
	assert.Equal(t, company.LogoURL, f.companies.items["Acme Corp"].LogoURL)
}

func TestUploadLogo_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     *models.LogoUploadRequest
		storage bool
		wantErr error
	}{
		{
			name:    "unsupported type",
			req:     &models.LogoUploadRequest{Company: "Acme", ContentType: "application/pdf", Size: 10, Content: make([]byte, 10)},
			storage: true,
			wantErr: ErrInvalidLogo,
		},
		{
			name:    "too large",
			req:     &models.LogoUploadRequest{Company: "Acme", ContentType: "image/png", Size: 2048, Content: make([]byte, 2048)},
			storage: true,
			wantErr: ErrInvalidLogo,
		},
		{
			name:    "unknown company",
			req:     &models.LogoUploadRequest{Company: "Initech", ContentType: "image/png", Size: 10, Content: make([]byte, 10)},
			storage: true,
			wantErr: ErrCompanyNotFound,
		},
		{
			name:    "storage disabled",
			req:     &models.LogoUploadRequest{Company: "Acme", ContentType: "image/png", Size: 10, Content: make([]byte, 10)},
			storage: false,
			wantErr: ErrStorageDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCompanyFixture()
			f.companies.items["Acme"] = models.Company{Name: "Acme"}
			aggregator := NewCompanyAggregator(f.experiences, f.companies, f.llm, zerolog.Nop())

			var svc CompanyService
			if tt.storage {
				svc = NewCompanyService(f.companies, f.experiences, f.storage, aggregator, nil, 1024, zerolog.Nop())
			} else {
				svc = NewCompanyService(f.companies, f.experiences, nil, aggregator, nil, 1024, zerolog.Nop())
			}

			_, err := svc.UploadLogo(context.Background(), tt.req)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.storage.objects)
			assert.Zero(t, f.companies.upserts)
		})
	}
}

func TestRequestRefresh_Queued(t *testing.T) {
	f := newCompanyFixture()
	f.companies.items["Acme"] = models.Company{Name: "Acme", NumExperiences: 1}

	queued, err := f.service(true).RequestRefresh(context.Background(), "Acme")

	require.NoError(t, err)
	assert.True(t, queued)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.RefreshReasonManual, f.publisher.events[0].Reason)
	assert.Zero(t, f.companies.upserts)
}

func TestRequestRefresh_InlineWhenPublishFails(t *testing.T) {
	f := newCompanyFixture()
	f.publisher.err = errors.New("channel closed")
	f.experiences.seed(models.Experience{Company: "Acme", CGPA: 9, Round1: "System design round"})

	queued, err := f.service(true).RequestRefresh(context.Background(), "Acme")

	require.NoError(t, err)
	assert.False(t, queued)
	assert.Equal(t, 1, f.companies.items["Acme"].NumExperiences)
}

func TestRequestRefresh_UnknownCompany(t *testing.T) {
	for _, withPublisher := range []bool{false, true} {
		f := newCompanyFixture()
		svc := f.service(withPublisher)

		queued, err := svc.RequestRefresh(context.Background(), "NoSuchCo")

		assert.ErrorIs(t, err, ErrCompanyNotFound)
		assert.False(t, queued)
		assert.Empty(t, f.publisher.events)
		assert.Zero(t, f.companies.upserts)

		list, err := svc.ListCompanies(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, list.Total)
	}
}

func TestRequestRefresh_RequiresName(t *testing.T) {
	f := newCompanyFixture()

	_, err := f.service(false).RequestRefresh(context.Background(), "  ")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, FieldErrors(err), "name")
}
