package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/wirecontract/internal/ir"
	"github.com/roach88/wirecontract/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type       string   // Assertion type for categorization
	Expected   string   // Human-readable expected outcome
	Actual     string   // Human-readable actual outcome
	Operations []string // Every built operation with its action, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nBuilt operations:\n")
	for i, op := range e.Operations {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, op)
	}

	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides catalog access for action_routes assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertOperationCount:
			err = assertOperationCount(result, assertion)
		case AssertActionRoutes:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("action_routes requires a catalog")
			} else {
				err = assertActionRoutes(actx.Ctx, actx.Store, result, assertion)
			}
		case AssertFaultPresent:
			err = assertFaultPresent(result, assertion)
		case AssertParameterDirection:
			err = assertParameterDirection(result, assertion)
		default:
			err = fmt.Errorf("unknown assertion type: %s", assertion.Type)
		}

		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, assertion.Type, err))
		}
	}

	return errs
}

// assertOperationCount checks the number of built operations.
func assertOperationCount(result *Result, assertion Assertion) error {
	if len(result.Descriptors) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:       AssertOperationCount,
		Expected:   fmt.Sprintf("%d operations", assertion.Count),
		Actual:     fmt.Sprintf("%d operations", len(result.Descriptors)),
		Operations: summarize(result.Descriptors),
	}
}

// assertActionRoutes looks the action up in the catalog and checks which
// operation it resolves to.
func assertActionRoutes(ctx context.Context, st *store.Store, result *Result, assertion Assertion) error {
	op, err := st.ReadOperationByAction(ctx, assertion.Action)
	if errors.Is(err, store.ErrNotFound) {
		return &AssertionError{
			Type:       AssertActionRoutes,
			Expected:   fmt.Sprintf("action %q routes to %s", assertion.Action, assertion.Operation),
			Actual:     "action not found in catalog",
			Operations: summarize(result.Descriptors),
		}
	}
	if err != nil {
		return err
	}

	if got := operationID(op); got != assertion.Operation {
		return &AssertionError{
			Type:       AssertActionRoutes,
			Expected:   fmt.Sprintf("action %q routes to %s", assertion.Action, assertion.Operation),
			Actual:     fmt.Sprintf("routes to %s", got),
			Operations: summarize(result.Descriptors),
		}
	}
	return nil
}

// assertFaultPresent checks that an operation declares a named fault.
func assertFaultPresent(result *Result, assertion Assertion) error {
	op, ok := result.Operation(assertion.Operation)
	if !ok {
		return fmt.Errorf("operation %s not built", assertion.Operation)
	}
	if _, ok := op.FaultByName(assertion.Fault); ok {
		return nil
	}

	names := make([]string, len(op.Faults))
	for i, f := range op.Faults {
		names[i] = f.Name
	}
	return &AssertionError{
		Type:       AssertFaultPresent,
		Expected:   fmt.Sprintf("%s declares fault %s", assertion.Operation, assertion.Fault),
		Actual:     fmt.Sprintf("faults %v", names),
		Operations: summarize(result.Descriptors),
	}
}

// assertParameterDirection checks the direction of a declared parameter.
func assertParameterDirection(result *Result, assertion Assertion) error {
	op, ok := result.Operation(assertion.Operation)
	if !ok {
		return fmt.Errorf("operation %s not built", assertion.Operation)
	}

	for _, p := range op.AllParameters {
		if p.Param.Name != assertion.Parameter {
			continue
		}
		if p.Direction == ir.Direction(assertion.Direction) {
			return nil
		}
		return &AssertionError{
			Type:       AssertParameterDirection,
			Expected:   fmt.Sprintf("%s parameter %s is %s", assertion.Operation, assertion.Parameter, assertion.Direction),
			Actual:     string(p.Direction),
			Operations: summarize(result.Descriptors),
		}
	}
	return fmt.Errorf("operation %s has no parameter %s", assertion.Operation, assertion.Parameter)
}

// summarize renders each descriptor as "<id> <action>".
func summarize(ops []*ir.OperationDescriptor) []string {
	lines := make([]string, len(ops))
	for i, op := range ops {
		lines[i] = operationID(op) + " " + op.SOAPAction
	}
	return lines
}
