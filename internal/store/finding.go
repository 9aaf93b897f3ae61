package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/perceptlab/percept/internal/domain"
)

type FindingStore struct {
	db *pgxpool.Pool
}

func NewFindingStore(db *pgxpool.Pool) *FindingStore {
	return &FindingStore{db: db}
}

func (s *FindingStore) CreateBatch(ctx context.Context, findings []domain.Finding) error {
	for _, f := range findings {
		_, err := s.db.Exec(ctx,
			`INSERT INTO findings (id, profile_id, rule_id, type, severity, signal_key_a, signal_key_b, explanation, resolution, detected_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			f.ID, f.ProfileID, f.RuleID, f.Type, f.Severity, f.SignalKeyA, f.SignalKeyB, f.Explanation, f.Resolution, f.DetectedAt,
		)
		if err != nil {
			return fmt.Errorf("insert finding %s: %w", f.RuleID, err)
		}
	}
	return nil
}

func (s *FindingStore) GetByProfileID(ctx context.Context, profileID uuid.UUID) ([]domain.Finding, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, profile_id, rule_id, type, severity, signal_key_a, signal_key_b, explanation, resolution, detected_at
		 FROM findings WHERE profile_id = $1
		 ORDER BY detected_at`,
		profileID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanFindings(rows)
}

func (s *FindingStore) ListBySeverity(ctx context.Context, severity domain.Severity, limit int) ([]domain.Finding, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, profile_id, rule_id, type, severity, signal_key_a, signal_key_b, explanation, resolution, detected_at
		 FROM findings WHERE severity = $1
		 ORDER BY detected_at DESC
		 LIMIT $2`,
		severity, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return s.scanFindings(rows)
}

func (s *FindingStore) scanFindings(rows pgx.Rows) ([]domain.Finding, error) {
	var findings []domain.Finding
	for rows.Next() {
		var f domain.Finding
		if err := rows.Scan(
			&f.ID, &f.ProfileID, &f.RuleID, &f.Type, &f.Severity,
			&f.SignalKeyA, &f.SignalKeyB, &f.Explanation, &f.Resolution, &f.DetectedAt,
		); err != nil {
			return nil, err
		}
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// Verify interface compliance at compile time
var _ domain.FindingStore = (*FindingStore)(nil)
