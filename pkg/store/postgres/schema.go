package postgres

import "context"

const schema = `
	CREATE TABLE IF NOT EXISTS refinement_models (
		kind TEXT NOT NULL,
		namespace TEXT NOT NULL,
		name TEXT NOT NULL,
		document JSONB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT now(),
		PRIMARY KEY (kind, namespace, name)
	);

	CREATE TABLE IF NOT EXISTS type_definitions (
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		derived_from TEXT,
		abstract BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (kind, name)
	);

	CREATE INDEX IF NOT EXISTS idx_refinement_models_kind ON refinement_models(kind);
	`

// migrate creates the necessary database tables
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}
