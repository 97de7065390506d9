package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/orderpad/internal/domain"
)

// SubmissionStore implements domain.SubmissionStore using PostgreSQL.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

// NewSubmissionStore creates a SubmissionStore backed by the given pool.
func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

// Create appends a confirmed submission.
func (s *SubmissionStore) Create(ctx context.Context, sub domain.Submission) error {
	const query = `
		INSERT INTO submissions (
			id, session_id, confirmation_id, kind, symbol, quantity,
			mode, limit_price, strike, expiry, submitted_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11
		)`

	_, err := s.pool.Exec(ctx, query,
		sub.ID, sub.SessionID, sub.ConfirmationID,
		string(sub.Kind), sub.Symbol, sub.Quantity,
		string(sub.Mode), sub.LimitPrice, sub.Strike, sub.Expiry,
		sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: create submission %s: %w", sub.ID, err)
	}
	return nil
}

const submissionSelectCols = `id, session_id, confirmation_id, kind, symbol, quantity,
	mode, limit_price, strike, expiry, submitted_at`

func scanSubmission(scanner interface{ Scan(dest ...any) error }) (domain.Submission, error) {
	var sub domain.Submission
	var kind, mode string

	err := scanner.Scan(
		&sub.ID, &sub.SessionID, &sub.ConfirmationID,
		&kind, &sub.Symbol, &sub.Quantity,
		&mode, &sub.LimitPrice, &sub.Strike, &sub.Expiry,
		&sub.SubmittedAt,
	)
	if err != nil {
		return domain.Submission{}, err
	}

	sub.Kind = domain.InstrumentKind(kind)
	sub.Mode = domain.ExecutionMode(mode)
	return sub, nil
}

// GetByID retrieves a single submission by its ID.
func (s *SubmissionStore) GetByID(ctx context.Context, id string) (domain.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions WHERE id = $1`, submissionSelectCols)

	sub, err := scanSubmission(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Submission{}, domain.ErrNotFound
		}
		return domain.Submission{}, fmt.Errorf("postgres: get submission %s: %w", id, err)
	}
	return sub, nil
}

// ListRecent returns submissions ordered newest first.
func (s *SubmissionStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.Submission, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM submissions
		ORDER BY submitted_at DESC
		LIMIT $1 OFFSET $2`, submissionSelectCols)

	rows, err := s.pool.Query(ctx, query, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list submissions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list submissions: %w", err)
	}

	return subs, nil
}

// Compile-time interface check.
var _ domain.SubmissionStore = (*SubmissionStore)(nil)
