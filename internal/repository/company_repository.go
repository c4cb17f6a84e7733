package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/rs/zerolog"
)

// CompanyMutation меняет запись компании внутри транзакции.
// exists == false означает, что записи еще нет и она будет создана.
type CompanyMutation func(company *models.Company, exists bool) error

type CompanyRepository interface {
	GetByName(ctx context.Context, name string) (*models.Company, error)
	List(ctx context.Context) ([]models.Company, error)
	TransactionalUpsert(ctx context.Context, name string, mutate CompanyMutation) (*models.Company, error)
}

type companyRepository struct {
	*PostgresRepository
	maxRetries int
	retryDelay time.Duration
}

func NewCompanyRepository(db *sql.DB, maxRetries int, logger zerolog.Logger) CompanyRepository {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &companyRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
		maxRetries:         maxRetries,
		retryDelay:         20 * time.Millisecond,
	}
}

const companyColumns = `name, logo_url, ai_hint, num_experiences, avg_cgpa, ai_summary, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompany(row rowScanner) (*models.Company, error) {
	company := &models.Company{}
	err := row.Scan(
		&company.Name,
		&company.LogoURL,
		&company.AIHint,
		&company.NumExperiences,
		&company.AvgCGPA,
		&company.AISummary,
		&company.CreatedAt,
		&company.UpdatedAt,
	)
	return company, err
}

func (r *companyRepository) GetByName(ctx context.Context, name string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE name = $1`

	company, err := scanCompany(r.db.QueryRowContext(ctx, query, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return company, nil
}

func (r *companyRepository) List(ctx context.Context) ([]models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]models.Company, 0)
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, *company)
	}

	return companies, rows.Err()
}

// TransactionalUpsert читает запись под блокировкой строки, применяет mutate и сохраняет результат.
// Конфликты параллельных транзакций повторяются до maxRetries раз.
func (r *companyRepository) TransactionalUpsert(ctx context.Context, name string, mutate CompanyMutation) (*models.Company, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		company, err := r.upsertOnce(ctx, name, mutate)
		if err == nil {
			return company, nil
		}
		if !isRetryableTxError(err) {
			return nil, err
		}

		lastErr = err
		r.logger.Warn().
			Err(err).
			Str("company", name).
			Int("attempt", attempt).
			Msg("Company upsert conflict, retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * r.retryDelay):
		}
	}

	return nil, fmt.Errorf("company upsert aborted after %d attempts: %w", r.maxRetries, lastErr)
}

func (r *companyRepository) upsertOnce(ctx context.Context, name string, mutate CompanyMutation) (*models.Company, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT ` + companyColumns + ` FROM companies WHERE name = $1 FOR UPDATE`

	exists := true
	company, err := scanCompany(tx.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		exists = false
		company = &models.Company{Name: name}
	} else if err != nil {
		return nil, err
	}

	if err := mutate(company, exists); err != nil {
		return nil, err
	}
	// имя является ключом и не меняется
	company.Name = name

	if exists {
		err = tx.QueryRowContext(ctx, `
			UPDATE companies
			SET logo_url = $2, ai_hint = $3, num_experiences = $4, avg_cgpa = $5, ai_summary = $6, updated_at = NOW()
			WHERE name = $1
			RETURNING updated_at
		`,
			company.Name,
			company.LogoURL,
			company.AIHint,
			company.NumExperiences,
			company.AvgCGPA,
			company.AISummary,
		).Scan(&company.UpdatedAt)
	} else {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO companies (name, logo_url, ai_hint, num_experiences, avg_cgpa, ai_summary, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			RETURNING created_at, updated_at
		`,
			company.Name,
			company.LogoURL,
			company.AIHint,
			company.NumExperiences,
			company.AvgCGPA,
			company.AISummary,
		).Scan(&company.CreatedAt, &company.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return company, nil
}
