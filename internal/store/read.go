package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/wirecontract/internal/ir"
)

// ReadOperationByAction returns the operation an action string routes to.
// Returns ErrNotFound (wrapped) if no operation has that action.
func (s *Store) ReadOperationByAction(ctx context.Context, action string) (*ir.OperationDescriptor, error) {
	var descriptor string
	err := s.db.QueryRowContext(ctx, `
		SELECT descriptor FROM operations WHERE soap_action = ?
	`, action).Scan(&descriptor)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("action %q: %w", action, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query operation by action: %w", err)
	}
	return unmarshalDescriptor(descriptor)
}

// ReadContractOperations returns the catalogued operations of a contract in
// declaration order. Returns an empty slice (not nil) if none exist.
func (s *Store) ReadContractOperations(ctx context.Context, contract ir.ContractContext) ([]*ir.OperationDescriptor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT descriptor
		FROM operations
		WHERE contract_namespace = ? AND contract_name = ?
		ORDER BY position ASC
	`, contract.Namespace, contract.Name)
	if err != nil {
		return nil, fmt.Errorf("query contract operations: %w", err)
	}
	defer rows.Close()

	ops := []*ir.OperationDescriptor{}
	for rows.Next() {
		var descriptor string
		if err := rows.Scan(&descriptor); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		op, err := unmarshalDescriptor(descriptor)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operations: %w", err)
	}

	// Operations decoded separately each get their own contract copy; share one.
	if len(ops) > 0 {
		shared := ops[0].Contract
		for _, op := range ops[1:] {
			op.Contract = shared
		}
	}

	return ops, nil
}

// ReadOperationHash returns the stored descriptor fingerprint of an operation.
func (s *Store) ReadOperationHash(ctx context.Context, contract ir.ContractContext, name string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT descriptor_hash FROM operations
		WHERE contract_namespace = ? AND contract_name = ? AND name = ?
	`, contract.Namespace, contract.Name, name).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("operation %s.%s: %w", contract.Name, name, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("query operation hash: %w", err)
	}
	return hash, nil
}

// ReadBuilds returns every build record ordered by seq.
// Returns an empty slice (not nil) if no builds exist.
func (s *Store) ReadBuilds(ctx context.Context) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, contract_namespace, contract_name, declaration_hash, builder_version, ir_version
		FROM builds
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := []Build{}
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.ID, &b.Seq, &b.Contract.Namespace, &b.Contract.Name,
			&b.DeclarationHash, &b.BuilderVersion, &b.IRVersion); err != nil {
			return nil, fmt.Errorf("scan build: %w", err)
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	return builds, nil
}
