// Package store archives completed attack chains and review decisions
// in Postgres. The reasoning core never blocks on it; archiving happens
// after a chain or decision has already been handed to the caller.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/TryMightyAI/rampart/pkg/attack"
	"github.com/TryMightyAI/rampart/pkg/planner"
)

const schema = `
CREATE TABLE IF NOT EXISTS attack_chains (
	id              TEXT PRIMARY KEY,
	start_time      TIMESTAMPTZ NOT NULL,
	end_time        TIMESTAMPTZ NOT NULL,
	attacker_ip     TEXT NOT NULL,
	target_hosts    TEXT[] NOT NULL,
	event_count     INT NOT NULL,
	phases          TEXT[] NOT NULL,
	techniques      TEXT[] NOT NULL,
	indicators      TEXT[] NOT NULL,
	training_value  DOUBLE PRECISION NOT NULL,
	payload         JSONB NOT NULL,
	archived_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS decisions (
	id               TEXT PRIMARY KEY,
	artifact_id      TEXT NOT NULL,
	decision_type    TEXT NOT NULL,
	risk_level       TEXT NOT NULL,
	risk_score       INT NOT NULL,
	human_review     BOOLEAN NOT NULL,
	escalation       TEXT NOT NULL DEFAULT '',
	artifact_payload JSONB NOT NULL,
	decision_payload JSONB NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL
);
`

// PostgresStore archives chains and decisions via the pgx stdlib driver.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to Postgres, verifies the connection, and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// SaveChain archives a completed chain. Saving the same chain twice is
// a no-op (completion sinks may fire more than once across restarts).
func (s *PostgresStore) SaveChain(ctx context.Context, chain *attack.Chain) error {
	if !chain.Completed || chain.EndTime == nil {
		return fmt.Errorf("chain %s is not completed", chain.ID)
	}
	if err := chain.Validate(); err != nil {
		return fmt.Errorf("invalid chain %s: %w", chain.ID, err)
	}

	payload, err := json.Marshal(chain)
	if err != nil {
		return fmt.Errorf("encode chain %s: %w", chain.ID, err)
	}
	phases := make([]string, len(chain.PhasesDetected))
	for i, p := range chain.PhasesDetected {
		phases[i] = string(p)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO attack_chains
			(id, start_time, end_time, attacker_ip, target_hosts, event_count,
			 phases, techniques, indicators, training_value, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO NOTHING`,
		chain.ID, chain.StartTime, *chain.EndTime, chain.AttackerIP,
		chain.TargetHosts, len(chain.Events), phases, chain.TechniquesUsed,
		chain.SuccessIndicators, chain.TrainingValue, payload)
	if err != nil {
		return fmt.Errorf("insert chain %s: %w", chain.ID, err)
	}
	return nil
}

// SaveDecision archives a review decision together with its thinking
// artifact.
func (s *PostgresStore) SaveDecision(ctx context.Context, artifact *planner.ThinkingArtifact, decision *planner.SeniorDecision) error {
	artifactPayload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", artifact.ID, err)
	}
	decisionPayload, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("encode decision %s: %w", decision.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions
			(id, artifact_id, decision_type, risk_level, risk_score,
			 human_review, escalation, artifact_payload, decision_payload, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING`,
		decision.ID, artifact.ID, string(decision.Type), string(artifact.RiskLevel),
		artifact.RiskScore, decision.HumanReviewRequired, decision.EscalationReason,
		artifactPayload, decisionPayload, artifact.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert decision %s: %w", decision.ID, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
