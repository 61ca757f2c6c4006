package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/wirecontract/internal/compiler"
	"github.com/roach88/wirecontract/internal/ir"
	"github.com/roach88/wirecontract/internal/operation"
	"github.com/roach88/wirecontract/internal/store"
)

// Harness is the scenario execution engine.
// Each run catalogs descriptors in its own in-memory store.
type Harness struct {
	store  *store.Store
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Compile the scenario's declaration files
// 2. Validate and build every contract under the fault policy
// 3. Check cross-contract action routing
// 4. Catalog the descriptors in a fresh in-memory database
// 5. Evaluate operation expectations and assertions
//
// A returned error means the scenario could not be executed at all.
// Build failures are reported through the result (or matched against
// expect_error).
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunWithLogger is Run with progress logged to logger.
func RunWithLogger(scenario *Scenario, logger *slog.Logger) (*Result, error) {
	policy, err := operation.ParseFaultPolicy(scenario.FaultPolicy)
	if err != nil {
		return nil, err
	}

	value, err := compiler.Load("", scenario.Specs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load specs: %w", err)
	}

	st, err := store.Open(":memory:", store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{store: st, logger: logger}
	ctx := context.Background()

	result := NewResult()
	buildErrs := h.build(ctx, value, policy, result)

	if scenario.ExpectError != nil {
		h.checkExpectedError(scenario.ExpectError, buildErrs, result)
		return result, nil
	}
	for _, err := range buildErrs {
		result.AddError(err.Error())
	}
	if len(buildErrs) > 0 {
		return result, nil
	}

	for _, exp := range scenario.Operations {
		for _, msg := range checkOperation(result, exp) {
			result.AddError(msg)
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"operations", len(result.Descriptors),
		"pass", result.Pass,
	)

	return result, nil
}

// build compiles, validates, builds and catalogs every contract in value.
// Descriptors are recorded in result only when every step succeeds.
func (h *Harness) build(ctx context.Context, value cue.Value, policy operation.FaultPolicy, result *Result) []error {
	decls, errs := compiler.CompileContracts(value)
	if len(errs) > 0 {
		return errs
	}

	var built []*ir.OperationDescriptor
	for _, verr := range compiler.ValidateContracts(decls) {
		errs = append(errs, verr)
	}
	for _, decl := range decls {
		for _, verr := range compiler.ValidateContract(decl, policy) {
			errs = append(errs, fmt.Errorf("contract %s: %w", decl.Context.Name, verr))
		}
	}
	if len(errs) > 0 {
		return errs
	}

	for _, decl := range decls {
		ops, err := operation.BuildContract(decl, operation.WithFaultPolicy(policy))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		built = append(built, ops...)
	}
	if len(errs) > 0 {
		return errs
	}

	for _, verr := range compiler.ValidateDescriptors(built) {
		errs = append(errs, verr)
	}
	if len(errs) > 0 {
		return errs
	}

	for _, decl := range decls {
		ops := slices.DeleteFunc(slices.Clone(built), func(op *ir.OperationDescriptor) bool {
			return *op.Contract != decl.Context
		})
		build, err := h.store.WriteContract(ctx, *decl, ops)
		if err != nil {
			return []error{err}
		}
		h.logger.Info("contract built",
			"contract", decl.Context.Name,
			"build_id", build.ID,
			"operations", len(ops),
		)
	}

	result.Descriptors = built
	return nil
}

// checkExpectedError requires that some build error matches exp.
func (h *Harness) checkExpectedError(exp *ErrorExpectation, errs []error, result *Result) {
	if len(errs) == 0 {
		result.AddError(fmt.Sprintf("expected build error (code %q, contains %q) but build succeeded", exp.Code, exp.Contains))
		return
	}
	for _, err := range errs {
		if matchesError(exp, err) {
			h.logger.Info("expected error matched", "error", err.Error())
			return
		}
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	result.AddError(fmt.Sprintf("no build error matches (code %q, contains %q); got: %s",
		exp.Code, exp.Contains, strings.Join(msgs, "; ")))
}

func matchesError(exp *ErrorExpectation, err error) bool {
	if exp.Code != "" {
		var verr compiler.ValidationError
		if !errors.As(err, &verr) || verr.Code != exp.Code {
			return false
		}
	}
	return exp.Contains == "" || strings.Contains(err.Error(), exp.Contains)
}

// checkOperation compares one descriptor against its expectation.
func checkOperation(result *Result, exp OperationExpectation) []string {
	op, ok := result.Operation(exp.Operation)
	if !ok {
		return []string{fmt.Sprintf("%s: operation not built", exp.Operation)}
	}

	var msgs []string
	mismatch := func(field string, want, got any) {
		msgs = append(msgs, fmt.Sprintf("%s: %s: expected %v, got %v", exp.Operation, field, want, got))
	}

	e := exp.Expect
	if e.Action != "" && e.Action != op.SOAPAction {
		mismatch("action", e.Action, op.SOAPAction)
	}
	if e.ReplyAction != "" && e.ReplyAction != op.ReplyAction {
		mismatch("reply_action", e.ReplyAction, op.ReplyAction)
	}
	if e.ReturnName != "" && e.ReturnName != op.ReturnWireName {
		mismatch("return_name", e.ReturnName, op.ReturnWireName)
	}
	if e.OneWay != nil && *e.OneWay != op.IsOneWay {
		mismatch("one_way", *e.OneWay, op.IsOneWay)
	}
	if e.RequestWrapped != nil && *e.RequestWrapped != op.IsRequestWrapped {
		mismatch("request_wrapped", *e.RequestWrapped, op.IsRequestWrapped)
	}
	if e.ResponseWrapped != nil && *e.ResponseWrapped != op.IsResponseWrapped {
		mismatch("response_wrapped", *e.ResponseWrapped, op.IsResponseWrapped)
	}
	if e.In != nil {
		if got := wireNames(op.InParameters()); !slices.Equal(e.In, got) {
			mismatch("in", e.In, got)
		}
	}
	if e.Out != nil {
		if got := wireNames(op.OutParameters()); !slices.Equal(e.Out, got) {
			mismatch("out", e.Out, got)
		}
	}
	if e.Faults != nil {
		got := make([]string, len(op.Faults))
		for i, f := range op.Faults {
			got[i] = f.Name
		}
		if !slices.Equal(e.Faults, got) {
			mismatch("faults", e.Faults, got)
		}
	}
	return msgs
}

func wireNames(params []ir.ParameterDescriptor) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.WireName
	}
	return names
}
