package store

import (
	"context"
	"database/sql"
	"fmt"

	"livre/internal/proof"
)

// PostgresRegistry persists the proof log in a single append-only table.
// The serial primary key doubles as the insertion-order cursor.
type PostgresRegistry struct {
	db *sql.DB
}

func NewPostgresRegistry(db *sql.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

// EnsureSchema creates the proofs table if missing. Kept here rather than a
// migration tool because the schema is a single table.
func (r *PostgresRegistry) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS proofs (
			id          BIGSERIAL PRIMARY KEY,
			identity_id TEXT        NOT NULL,
			template_id TEXT        NOT NULL,
			proof_hash  TEXT        NOT NULL,
			issued_at   TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("create proofs table: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS proofs_identity_idx ON proofs (identity_id, id)`)
	if err != nil {
		return fmt.Errorf("create proofs index: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) Record(ctx context.Context, bundle proof.Bundle) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO proofs (identity_id, template_id, proof_hash, issued_at) VALUES ($1, $2, $3, $4)`,
		bundle.IdentityID, bundle.TemplateID, bundle.ProofHash, bundle.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("append proof: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) ListByIdentity(ctx context.Context, identityID string) ([]proof.Bundle, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT identity_id, template_id, proof_hash, issued_at FROM proofs WHERE identity_id = $1 ORDER BY id`,
		identityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list proofs: %w", err)
	}
	defer rows.Close()

	var bundles []proof.Bundle
	for rows.Next() {
		var b proof.Bundle
		if err := rows.Scan(&b.IdentityID, &b.TemplateID, &b.ProofHash, &b.IssuedAt); err != nil {
			return nil, fmt.Errorf("scan proof record: %w", err)
		}
		bundles = append(bundles, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proof records: %w", err)
	}
	if bundles == nil {
		bundles = []proof.Bundle{}
	}
	return bundles, nil
}
