package repository

import (
	"context"
	"database/sql"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/rs/zerolog"
)

type ExperienceRepository interface {
	Create(ctx context.Context, experience *models.Experience) error
	// ListByCompany возвращает опыт компании от новых к старым; limit <= 0 снимает ограничение.
	ListByCompany(ctx context.Context, company string, limit int) ([]models.Experience, error)
	ListCompanyNames(ctx context.Context) ([]string, error)
}

type experienceRepository struct {
	*PostgresRepository
}

func NewExperienceRepository(db *sql.DB, logger zerolog.Logger) ExperienceRepository {
	return &experienceRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *experienceRepository) Create(ctx context.Context, experience *models.Experience) error {
	query := `
		INSERT INTO experiences (
			id, name, college, branch, cgpa, company, role, year,
			round1, round2, round3, uid, email, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING created_at
	`

	return r.db.QueryRowContext(ctx, query,
		experience.ID,
		experience.Name,
		experience.College,
		experience.Branch,
		experience.CGPA,
		experience.Company,
		experience.Role,
		experience.Year,
		nullString(experience.Round1),
		nullString(experience.Round2),
		nullString(experience.Round3),
		experience.UID,
		experience.Email,
	).Scan(&experience.CreatedAt)
}

func (r *experienceRepository) ListByCompany(ctx context.Context, company string, limit int) ([]models.Experience, error) {
	query := `
		SELECT id, name, college, branch, cgpa, company, role, year,
			round1, round2, round3, uid, email, created_at
		FROM experiences
		WHERE company = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{company}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	experiences := make([]models.Experience, 0)
	for rows.Next() {
		experience, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		experiences = append(experiences, experience)
	}

	return experiences, rows.Err()
}

func (r *experienceRepository) ListCompanyNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT company FROM experiences ORDER BY company`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, rows.Err()
}

// scanExperience приводит NULL-значения к нулевым значениям модели.
// Пропущенный CGPA считается нулем.
func scanExperience(rows *sql.Rows) (models.Experience, error) {
	var (
		experience             models.Experience
		cgpa                   sql.NullFloat64
		round1, round2, round3 sql.NullString
	)

	err := rows.Scan(
		&experience.ID,
		&experience.Name,
		&experience.College,
		&experience.Branch,
		&cgpa,
		&experience.Company,
		&experience.Role,
		&experience.Year,
		&round1,
		&round2,
		&round3,
		&experience.UID,
		&experience.Email,
		&experience.CreatedAt,
	)
	if err != nil {
		return experience, err
	}

	experience.CGPA = cgpa.Float64
	experience.Round1 = round1.String
	experience.Round2 = round2.String
	experience.Round3 = round3.String

	return experience, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
