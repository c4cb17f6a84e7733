package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var experienceCols = []string{
	"id", "name", "college", "branch", "cgpa", "company", "role", "year",
	"round1", "round2", "round3", "uid", "email", "created_at",
}

func TestExperienceRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewExperienceRepository(db, zerolog.Nop())
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO experiences")).
		WithArgs("exp-1", "Asha", "IIT", "CSE", 8.5, "Acme", "SDE", 2024,
			"Arrays", nil, nil, "user-1", "asha@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	e := &models.Experience{
		ID: "exp-1", Name: "Asha", College: "IIT", Branch: "CSE", CGPA: 8.5,
		Company: "Acme", Role: "SDE", Year: 2024, Round1: "Arrays",
		UID: "user-1", Email: "asha@example.com",
	}
	require.NoError(t, repo.Create(context.Background(), e))

	assert.Equal(t, now, e.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExperienceRepository_ListByCompany(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewExperienceRepository(db, zerolog.Nop())
	now := time.Now()

	rows := sqlmock.NewRows(experienceCols).
		AddRow("b", "Ravi", "NIT", "ECE", nil, "Acme", "SDE", 2024, "Graphs", nil, nil, "u2", "r@x.com", now).
		AddRow("a", "Asha", "IIT", "CSE", 8.0, "Acme", "SDE", 2023, nil, "LLD", "HR", "u1", "a@x.com", now.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT $2")).
		WithArgs("Acme", 10).
		WillReturnRows(rows)

	experiences, err := repo.ListByCompany(context.Background(), "Acme", 10)

	require.NoError(t, err)
	require.Len(t, experiences, 2)
	assert.Equal(t, 0.0, experiences[0].CGPA)
	assert.Equal(t, [3]string{"Graphs", "", ""}, experiences[0].Rounds())
	assert.Equal(t, [3]string{"", "LLD", "HR"}, experiences[1].Rounds())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExperienceRepository_ListByCompanyUnlimited(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewExperienceRepository(db, zerolog.Nop())

	mock.ExpectQuery(`ORDER BY created_at DESC, id DESC\s*$`).
		WithArgs("Acme").
		WillReturnRows(sqlmock.NewRows(experienceCols))

	experiences, err := repo.ListByCompany(context.Background(), "Acme", 0)

	require.NoError(t, err)
	assert.NotNil(t, experiences)
	assert.Empty(t, experiences)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExperienceRepository_ListCompanyNames(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewExperienceRepository(db, zerolog.Nop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT company FROM experiences")).
		WillReturnRows(sqlmock.NewRows([]string{"company"}).
			AddRow("Acme").
			AddRow("Globex"))

	names, err := repo.ListCompanyNames(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
