package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/wirecontract/internal/ir"
)

// Build is the record of one contract build.
type Build struct {
	ID              string             `json:"id"`
	Seq             int64              `json:"seq"`
	Contract        ir.ContractContext `json:"contract"`
	DeclarationHash string             `json:"declaration_hash"`
	BuilderVersion  string             `json:"builder_version"`
	IRVersion       string             `json:"ir_version"`
}

// WriteContract records a build of decl and replaces every catalogued
// operation of that contract with ops, in one transaction.
//
// Returns ErrActionConflict (wrapped) if an operation's action is already
// routed to an operation of a different contract; nothing is written then.
func (s *Store) WriteContract(ctx context.Context, decl ir.ContractDecl, ops []*ir.OperationDescriptor) (Build, error) {
	declHash, err := ir.DeclarationHash(decl)
	if err != nil {
		return Build{}, fmt.Errorf("write contract: %w", err)
	}

	build := Build{
		ID:              s.ids.Generate(),
		Contract:        decl.Context,
		DeclarationHash: declHash,
		BuilderVersion:  ir.BuilderVersion,
		IRVersion:       ir.IRVersion,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Build{}, fmt.Errorf("write contract: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM builds`).Scan(&build.Seq); err != nil {
		return Build{}, fmt.Errorf("write contract: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds
		(id, seq, contract_namespace, contract_name, declaration_hash, builder_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		build.ID,
		build.Seq,
		build.Contract.Namespace,
		build.Contract.Name,
		build.DeclarationHash,
		build.BuilderVersion,
		build.IRVersion,
	)
	if err != nil {
		return Build{}, fmt.Errorf("write contract: insert build: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM operations
		WHERE contract_namespace = ? AND contract_name = ?
	`, decl.Context.Namespace, decl.Context.Name)
	if err != nil {
		return Build{}, fmt.Errorf("write contract: clear operations: %w", err)
	}

	for i, op := range ops {
		descriptor, hash, err := marshalDescriptor(op)
		if err != nil {
			return Build{}, fmt.Errorf("write contract: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO operations
			(contract_namespace, contract_name, name, position, soap_action, reply_action, descriptor, descriptor_hash, build_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			decl.Context.Namespace,
			decl.Context.Name,
			op.Name,
			i,
			op.SOAPAction,
			op.ReplyAction,
			descriptor,
			hash,
			build.ID,
		)
		switch constraintViolation(err) {
		case sqlite3.ErrConstraintUnique:
			return Build{}, fmt.Errorf("write contract: operation %s action %q: %w", op.Name, op.SOAPAction, ErrActionConflict)
		case sqlite3.ErrConstraintPrimaryKey:
			return Build{}, fmt.Errorf("write contract: operation %s.%s: %w", decl.Context.Name, op.Name, ErrDuplicateOperation)
		}
		if err != nil {
			return Build{}, fmt.Errorf("write contract: insert operation %s: %w", op.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Build{}, fmt.Errorf("write contract: commit: %w", err)
	}

	s.logger.DebugContext(ctx, "contract catalogued",
		"contract", decl.Context.Name,
		"build_id", build.ID,
		"seq", build.Seq,
		"operations", len(ops),
	)

	return build, nil
}

// constraintViolation returns the extended code of a SQLite constraint
// failure, or 0 if err is not one.
func constraintViolation(err error) sqlite3.ErrNoExtended {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return 0
	}
	return sqliteErr.ExtendedCode
}
