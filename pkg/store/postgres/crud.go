package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dd0wney/cluso-topology/pkg/model"
	"github.com/dd0wney/cluso-topology/pkg/store"
	"github.com/dd0wney/cluso-topology/pkg/topology"
)

// GetElement retrieves a model by ID
func (s *Store) GetElement(ctx context.Context, id store.ElementID) (*model.RefinementModel, error) {
	query := `
		SELECT document
		FROM refinement_models
		WHERE kind = $1 AND namespace = $2 AND name = $3
	`

	var document []byte
	err := s.pool.QueryRow(ctx, query, string(id.Kind), id.Namespace, id.Name).Scan(&document)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.NewError("GetElement", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, store.NewError("GetElement", id, err)
	}

	m, err := store.UnmarshalJSON(document)
	if err != nil {
		return nil, store.NewError("GetElement", id, err)
	}
	return m, nil
}

// SetElement inserts or replaces a model
func (s *Store) SetElement(ctx context.Context, id store.ElementID, m *model.RefinementModel) error {
	if err := id.Validate(); err != nil {
		return store.NewError("SetElement", id, err)
	}
	document, err := store.MarshalJSON(m)
	if err != nil {
		return store.NewError("SetElement", id, err)
	}

	query := `
		INSERT INTO refinement_models (kind, namespace, name, document, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (kind, namespace, name)
		DO UPDATE SET document = EXCLUDED.document, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, string(id.Kind), id.Namespace, id.Name, document); err != nil {
		return store.NewError("SetElement", id, err)
	}
	return nil
}

// Duplicate copies a model row and renames the copy inside its document
func (s *Store) Duplicate(ctx context.Context, source, target store.ElementID) error {
	if err := target.Validate(); err != nil {
		return store.NewError("Duplicate", target, err)
	}

	query := `
		INSERT INTO refinement_models (kind, namespace, name, document, updated_at)
		SELECT $4, $5, $6,
			jsonb_set(jsonb_set(jsonb_set(jsonb_set(document,
				'{id}', to_jsonb($6::text)),
				'{name}', to_jsonb($6::text)),
				'{targetNamespace}', to_jsonb($5::text)),
				'{kind}', to_jsonb($4::text)),
			now()
		FROM refinement_models
		WHERE kind = $1 AND namespace = $2 AND name = $3
		ON CONFLICT (kind, namespace, name) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		string(source.Kind), source.Namespace, source.Name,
		string(target.Kind), target.Namespace, target.Name,
	)
	if err != nil {
		return store.NewError("Duplicate", source, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing was inserted: either the source is missing or the target exists.
	exists, err := s.Exists(ctx, source)
	if err != nil {
		return store.NewError("Duplicate", source, err)
	}
	if !exists {
		return store.NewError("Duplicate", source, store.ErrNotFound)
	}
	return store.NewError("Duplicate", target, store.ErrAlreadyExists)
}

// Exists reports whether a model is stored under id
func (s *Store) Exists(ctx context.Context, id store.ElementID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM refinement_models
			WHERE kind = $1 AND namespace = $2 AND name = $3
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, string(id.Kind), id.Namespace, id.Name).Scan(&exists); err != nil {
		return false, store.NewError("Exists", id, err)
	}
	return exists, nil
}

// List returns the IDs of all models of one kind
func (s *Store) List(ctx context.Context, kind model.Kind) ([]store.ElementID, error) {
	query := `
		SELECT namespace, name
		FROM refinement_models
		WHERE kind = $1
		ORDER BY namespace, name
	`

	rows, err := s.pool.Query(ctx, query, string(kind))
	if err != nil {
		return nil, store.NewError("List", nil, err)
	}
	defer rows.Close()

	var ids []store.ElementID
	for rows.Next() {
		id := store.ElementID{Kind: kind}
		if err := rows.Scan(&id.Namespace, &id.Name); err != nil {
			return nil, store.NewError("List", nil, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewError("List", nil, err)
	}
	return ids, nil
}

// TypeDefinitions returns all type definitions of one kind
func (s *Store) TypeDefinitions(ctx context.Context, kind topology.TypeKind) (map[topology.QName]topology.TypeDefinition, error) {
	query := `
		SELECT name, COALESCE(derived_from, ''), abstract
		FROM type_definitions
		WHERE kind = $1
	`

	rows, err := s.pool.Query(ctx, query, string(kind))
	if err != nil {
		return nil, store.NewError("TypeDefinitions", nil, err)
	}
	defer rows.Close()

	out := make(map[topology.QName]topology.TypeDefinition)
	for rows.Next() {
		var name, derivedFrom string
		def := topology.TypeDefinition{Kind: kind}
		if err := rows.Scan(&name, &derivedFrom, &def.Abstract); err != nil {
			return nil, store.NewError("TypeDefinitions", nil, err)
		}
		if def.Name, err = topology.ParseQName(name); err != nil {
			return nil, store.NewError("TypeDefinitions", nil, err)
		}
		if def.DerivedFrom, err = topology.ParseQName(derivedFrom); err != nil {
			return nil, store.NewError("TypeDefinitions", nil, err)
		}
		out[def.Name] = def
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewError("TypeDefinitions", nil, err)
	}
	return out, nil
}

// DefineType inserts or replaces a type definition
func (s *Store) DefineType(ctx context.Context, def topology.TypeDefinition) error {
	query := `
		INSERT INTO type_definitions (kind, name, derived_from, abstract)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (kind, name)
		DO UPDATE SET derived_from = EXCLUDED.derived_from, abstract = EXCLUDED.abstract
	`

	_, err := s.pool.Exec(ctx, query, string(def.Kind), def.Name.String(), def.DerivedFrom.String(), def.Abstract)
	if err != nil {
		return store.NewError("DefineType", def.Name, err)
	}
	return nil
}
