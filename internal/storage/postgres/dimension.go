package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ledgercore/core/internal/ledger"
	"github.com/ledgercore/core/internal/scope"
)

// CreateDimension inserts d and its allowed values.
func (r *Repository) CreateDimension(ctx context.Context, d *ledger.Dimension) (*ledger.Dimension, error) {
	if err := scope.AssertCompanyScope(ctx, d.CompanyID); err != nil {
		return nil, err
	}

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	values, err := json.Marshal(d.Values)
	if err != nil {
		return nil, fmt.Errorf("postgres: marshal dimension values: %w", err)
	}

	_, err = r.exec(ctx).ExecContext(ctx, `
		INSERT INTO dimensions (id, company_id, type, values)
		VALUES ($1, $2, $3, $4)`,
		d.ID, d.CompanyID, d.Type, values,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: create dimension: %w", err)
	}

	return d, nil
}

// ListDimensions returns every dimension defined for the active company.
func (r *Repository) ListDimensions(ctx context.Context) ([]*ledger.Dimension, error) {
	companyID, err := scope.RequireCompany(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.exec(ctx).QueryContext(ctx, `
		SELECT id, company_id, type, values FROM dimensions WHERE company_id = $1`, companyID)
	if err != nil {
		return nil, fmt.Errorf("postgres: list dimensions: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Dimension

	for rows.Next() {
		d := &ledger.Dimension{}

		var raw []byte

		if err := rows.Scan(&d.ID, &d.CompanyID, &d.Type, &raw); err != nil {
			return nil, fmt.Errorf("postgres: scan dimension: %w", err)
		}

		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &d.Values); err != nil {
				return nil, fmt.Errorf("postgres: unmarshal dimension values: %w", err)
			}
		}

		out = append(out, d)
	}

	return out, rows.Err()
}
