package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wirecontract/internal/ir"
	"github.com/roach88/wirecontract/internal/operation"
	"github.com/roach88/wirecontract/internal/store"
)

// testResult builds a calculator contract and catalogs it in a temp store.
func testResult(t *testing.T) (*Result, *AssertionContext) {
	t.Helper()

	decl := ir.ContractDecl{
		Context: ir.ContractContext{Namespace: "http://tempuri.org/", Name: "ICalculator"},
		Methods: []ir.MethodDecl{
			{
				Name: "Divide",
				Params: []ir.ParamDecl{
					{Name: "dividend", Type: ir.TypeRef{Name: "int"}},
					{Name: "remainder", Type: ir.TypeRef{Name: "int"}, IsOut: true, IsByRef: true},
				},
				Return: ir.ReturnDecl{Type: ir.TypeRef{Name: "int"}},
				Faults: []ir.FaultDecl{{Detail: ir.TypeRef{Name: "DivideByZero"}}},
			},
			{
				Name:      "Reset",
				Operation: ir.OperationDecl{Action: "urn:calc:reset", IsOneWay: true},
			},
		},
	}
	ops, err := operation.BuildContract(&decl)
	require.NoError(t, err)

	st, err := store.Open(t.TempDir() + "/catalog.db")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.WriteContract(context.Background(), decl, ops)
	require.NoError(t, err)

	result := NewResult()
	result.Descriptors = ops
	return result, &AssertionContext{Store: st, Ctx: context.Background()}
}

func TestAssertOperationCount(t *testing.T) {
	result, _ := testResult(t)

	assert.NoError(t, assertOperationCount(result, Assertion{Count: 2}))

	err := assertOperationCount(result, Assertion{Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 operations")
}

func TestAssertActionRoutes(t *testing.T) {
	result, actx := testResult(t)

	tests := []struct {
		name      string
		action    string
		operation string
		contains  string
	}{
		{"default action", "http://tempuri.org/ICalculator/Divide", "ICalculator.Divide", ""},
		{"explicit action", "urn:calc:reset", "ICalculator.Reset", ""},
		{"wrong operation", "urn:calc:reset", "ICalculator.Divide", "routes to ICalculator.Reset"},
		{"unknown action", "urn:calc:nothing", "ICalculator.Divide", "action not found in catalog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertActionRoutes(actx.Ctx, actx.Store, result, Assertion{Action: tt.action, Operation: tt.operation})
			if tt.contains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestAssertFaultPresent(t *testing.T) {
	result, _ := testResult(t)

	assert.NoError(t, assertFaultPresent(result, Assertion{Operation: "ICalculator.Divide", Fault: "DivideByZeroFault"}))

	err := assertFaultPresent(result, Assertion{Operation: "ICalculator.Divide", Fault: "Overflow"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[DivideByZeroFault]")

	err = assertFaultPresent(result, Assertion{Operation: "ICalculator.Missing", Fault: "Overflow"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not built")
}

func TestAssertParameterDirection(t *testing.T) {
	result, _ := testResult(t)

	assert.NoError(t, assertParameterDirection(result, Assertion{
		Operation: "ICalculator.Divide", Parameter: "remainder", Direction: "OutOnlyRef",
	}))
	assert.NoError(t, assertParameterDirection(result, Assertion{
		Operation: "ICalculator.Divide", Parameter: "dividend", Direction: "InOnly",
	}))

	err := assertParameterDirection(result, Assertion{
		Operation: "ICalculator.Divide", Parameter: "dividend", Direction: "InAndOutRef",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: InOnly")

	err = assertParameterDirection(result, Assertion{
		Operation: "ICalculator.Divide", Parameter: "quotient", Direction: "InOnly",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no parameter quotient")
}

func TestEvaluateAssertions(t *testing.T) {
	result, actx := testResult(t)

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertOperationCount, Count: 2},
		{Type: AssertActionRoutes, Action: "urn:calc:reset", Operation: "ICalculator.Reset"},
		{Type: AssertFaultPresent, Operation: "ICalculator.Divide", Fault: "Missing"},
		{Type: "trace_order"},
	}, actx)

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "assertion 2 (fault_present)")
	assert.Contains(t, errs[1], "unknown assertion type")
}

func TestEvaluateAssertions_ActionRoutesWithoutCatalog(t *testing.T) {
	result, _ := testResult(t)

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertActionRoutes, Action: "urn:calc:reset", Operation: "ICalculator.Reset"},
	}, nil)

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a catalog")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:       AssertOperationCount,
		Expected:   "3 operations",
		Actual:     "2 operations",
		Operations: []string{"ICalculator.Add urn:add", "ICalculator.Clear urn:clear"},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: operation_count")
	assert.Contains(t, msg, "Expected: 3 operations")
	assert.Contains(t, msg, "Actual: 2 operations")
	assert.Contains(t, msg, "[1] ICalculator.Add urn:add")
	assert.Contains(t, msg, "[2] ICalculator.Clear urn:clear")
}
