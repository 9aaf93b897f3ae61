package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/perceptlab/percept/internal/domain"
	pgvector "github.com/pgvector/pgvector-go"
)

type ProfileStore struct {
	db *pgxpool.Pool
}

func NewProfileStore(db *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Create(ctx context.Context, p *domain.Profile) error {
	var embedding *pgvector.Vector
	if len(p.Embedding) > 0 {
		v := pgvector.NewVector(p.Embedding)
		embedding = &v
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO profiles (id, image_path, caption, signal_count, duration_ms, caption_embedding, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.ImagePath, p.Caption, p.SignalCount, p.Duration.Milliseconds(), embedding, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	for i, sig := range p.Signals {
		valueJSON, err := json.Marshal(sig.Value)
		if err != nil {
			return fmt.Errorf("marshal value for signal %s: %w", sig.Key, err)
		}
		tagsJSON, err := json.Marshal(sig.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags for signal %s: %w", sig.Key, err)
		}

		_, err = s.db.Exec(ctx,
			`INSERT INTO profile_signals (profile_id, ordinal, key, value, confidence, source, tags)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, i, sig.Key, valueJSON, sig.Confidence, sig.Source, tagsJSON,
		)
		if err != nil {
			return fmt.Errorf("insert signal %s: %w", sig.Key, err)
		}
	}
	return nil
}

func (s *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p := &domain.Profile{}
	var durationMS int64

	err := s.db.QueryRow(ctx,
		`SELECT id, image_path, caption, signal_count, duration_ms, created_at
		 FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.ImagePath, &p.Caption, &p.SignalCount, &durationMS, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Duration = time.Duration(durationMS) * time.Millisecond

	signals, err := s.signalsByProfileID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Signals = signals
	return p, nil
}

// List returns profiles newest first, without their signals. GetByID loads
// the full signal set.
func (s *ProfileStore) List(ctx context.Context, limit int) ([]domain.Profile, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, image_path, caption, signal_count, duration_ms, created_at
		 FROM profiles
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles query: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		var durationMS int64
		if err := rows.Scan(&p.ID, &p.ImagePath, &p.Caption, &p.SignalCount, &durationMS, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Duration = time.Duration(durationMS) * time.Millisecond
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *ProfileStore) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]domain.ProfileWithScore, error) {
	if limit <= 0 {
		limit = 10
	}

	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT id, image_path, caption, signal_count, duration_ms, created_at,
		        1 - (caption_embedding <=> $1) AS score
		 FROM profiles
		 WHERE caption_embedding IS NOT NULL
		 ORDER BY score DESC
		 LIMIT $2`,
		vec, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search similar profiles query: %w", err)
	}
	defer rows.Close()

	var results []domain.ProfileWithScore
	for rows.Next() {
		var ps domain.ProfileWithScore
		var durationMS int64
		if err := rows.Scan(&ps.ID, &ps.ImagePath, &ps.Caption, &ps.SignalCount, &durationMS, &ps.CreatedAt, &ps.Score); err != nil {
			return nil, fmt.Errorf("scan similar profile row: %w", err)
		}
		ps.Duration = time.Duration(durationMS) * time.Millisecond
		results = append(results, ps)
	}
	return results, rows.Err()
}

func (s *ProfileStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM profiles WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProfileStore) signalsByProfileID(ctx context.Context, profileID uuid.UUID) ([]domain.Signal, error) {
	rows, err := s.db.Query(ctx,
		`SELECT key, value, confidence, source, tags
		 FROM profile_signals WHERE profile_id = $1
		 ORDER BY ordinal`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("signals query: %w", err)
	}
	defer rows.Close()

	var signals []domain.Signal
	for rows.Next() {
		var sig domain.Signal
		var valueJSON, tagsJSON []byte
		if err := rows.Scan(&sig.Key, &valueJSON, &sig.Confidence, &sig.Source, &tagsJSON); err != nil {
			return nil, err
		}
		if len(valueJSON) > 0 {
			_ = json.Unmarshal(valueJSON, &sig.Value)
		}
		if len(tagsJSON) > 0 {
			_ = json.Unmarshal(tagsJSON, &sig.Tags)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// Verify interface compliance at compile time
var _ domain.ProfileStore = (*ProfileStore)(nil)
