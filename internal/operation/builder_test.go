package operation

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wirecontract/internal/ir"
)

var (
	intType      = ir.TypeRef{Name: "int"}
	envelopeType = ir.TypeRef{Name: "AddRequest", MessageContract: true, WrapperName: "AddRequestWrapper"}
)

func addMethod() ir.MethodDecl {
	return ir.MethodDecl{
		Name: "Add",
		Params: []ir.ParamDecl{
			{Name: "a", Type: intType},
			{Name: "b", Type: intType},
		},
		Return: ir.ReturnDecl{Type: intType},
	}
}

func TestBuildDefaults(t *testing.T) {
	op, err := Build(testContract, addMethod())
	require.NoError(t, err)

	assert.Same(t, testContract, op.Contract)
	assert.Equal(t, "Add", op.Name)
	assert.Equal(t, "http://tempuri.org/ICalculator/Add", op.SOAPAction)
	assert.Equal(t, "", op.ReplyAction)
	assert.False(t, op.IsOneWay)
	assert.False(t, op.IsRequestWrapped)
	assert.False(t, op.IsResponseWrapped)
	assert.Equal(t, "AddResult", op.ReturnWireName)
	assert.Empty(t, op.Faults)
	require.Len(t, op.AllParameters, 2)
	assert.Equal(t, "Add", op.Method.Name)
}

func TestBuildOperationAnnotation(t *testing.T) {
	m := addMethod()
	m.Operation = ir.OperationDecl{
		Name:        "Sum",
		Action:      "urn:calc:sum",
		ReplyAction: "urn:calc:sumResponse",
		IsOneWay:    true,
	}
	m.Return.Name = "total"

	op, err := Build(testContract, m)
	require.NoError(t, err)

	assert.Equal(t, "Sum", op.Name)
	assert.Equal(t, "urn:calc:sum", op.SOAPAction)
	assert.Equal(t, "urn:calc:sumResponse", op.ReplyAction)
	assert.True(t, op.IsOneWay)
	assert.Equal(t, "total", op.ReturnWireName)
}

func TestBuildReturnNameFollowsOperationName(t *testing.T) {
	m := ir.MethodDecl{Name: "GetDataAsync", Operation: ir.OperationDecl{Name: "GetData"}}

	op, err := Build(testContract, m)
	require.NoError(t, err)
	assert.Equal(t, "GetDataResult", op.ReturnWireName)
	assert.Equal(t, "http://tempuri.org/ICalculator/GetData", op.SOAPAction)
}

func TestDefaultActionTrimsOneSlash(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
	}{
		{"http://tempuri.org/", "http://tempuri.org/ICalculator/Add"},
		{"http://tempuri.org", "http://tempuri.org/ICalculator/Add"},
		{"http://tempuri.org//", "http://tempuri.org//ICalculator/Add"},
		{"urn:calc", "urn:calc/ICalculator/Add"},
		{"", "/ICalculator/Add"},
	}
	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			c := &ir.ContractContext{Namespace: tt.namespace, Name: "ICalculator"}
			assert.Equal(t, tt.want, DefaultAction(c, "Add"))
		})
	}
}

func TestBuildParameterViews(t *testing.T) {
	m := ir.MethodDecl{
		Name: "Transfer",
		Params: []ir.ParamDecl{
			{Name: "amount", Type: intType},
			{Name: "receipt", Type: ir.TypeRef{Name: "string"}, IsOut: true, IsByRef: true},
			{Name: "balance", Type: intType, IsByRef: true},
		},
	}

	op, err := Build(testContract, m)
	require.NoError(t, err)

	dirs := map[string]ir.Direction{}
	for i, p := range op.AllParameters {
		assert.Equal(t, i, p.Index)
		dirs[p.WireName] = p.Direction
	}
	assert.Equal(t, map[string]ir.Direction{
		"amount":  ir.DirectionInOnly,
		"receipt": ir.DirectionOutOnlyRef,
		"balance": ir.DirectionInAndOutRef,
	}, dirs)

	assert.Equal(t, []string{"amount", "balance"}, wireNames(op.InParameters()))
	assert.Equal(t, []string{"receipt", "balance"}, wireNames(op.OutParameters()))

	// Every parameter is covered by at least one view.
	covered := map[int]bool{}
	for _, p := range append(op.InParameters(), op.OutParameters()...) {
		covered[p.Index] = true
	}
	assert.Len(t, covered, len(op.AllParameters))
}

func wireNames(ps []ir.ParameterDescriptor) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.WireName
	}
	return names
}

func TestBuildRequestWrapped(t *testing.T) {
	outEnvelope := ir.ParamDecl{Name: "extra", Type: envelopeType, IsOut: true, IsByRef: true}

	tests := []struct {
		name   string
		params []ir.ParamDecl
		want   bool
	}{
		{"no parameters", nil, false},
		{"single plain parameter", []ir.ParamDecl{{Name: "a", Type: intType}}, false},
		{"single envelope parameter", []ir.ParamDecl{{Name: "req", Type: envelopeType}}, true},
		{"two envelope parameters", []ir.ParamDecl{{Name: "r1", Type: envelopeType}, {Name: "r2", Type: envelopeType}}, false},
		{"envelope plus out parameter", []ir.ParamDecl{{Name: "req", Type: envelopeType}, {Name: "n", Type: intType, IsOut: true, IsByRef: true}}, true},
		{"only out envelope", []ir.ParamDecl{outEnvelope}, false},
		{"ref envelope", []ir.ParamDecl{{Name: "req", Type: envelopeType, IsByRef: true}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := Build(testContract, ir.MethodDecl{Name: "Op", Params: tt.params})
			require.NoError(t, err)
			assert.Equal(t, tt.want, op.IsRequestWrapped)
		})
	}
}

func TestBuildWrappedRequestWireName(t *testing.T) {
	op, err := Build(testContract, ir.MethodDecl{
		Name:   "Add",
		Params: []ir.ParamDecl{{Name: "request", Type: envelopeType}},
	})
	require.NoError(t, err)
	assert.True(t, op.IsRequestWrapped)
	assert.Equal(t, "AddRequestWrapper", op.AllParameters[0].WireName)
}

func TestBuildResponseWrapped(t *testing.T) {
	m := addMethod()
	m.Return.Type = ir.TypeRef{Name: "AddResponse", MessageContract: true}

	op, err := Build(testContract, m)
	require.NoError(t, err)
	assert.True(t, op.IsResponseWrapped)

	void := ir.MethodDecl{Name: "Ping"}
	op, err = Build(testContract, void)
	require.NoError(t, err)
	assert.False(t, op.IsResponseWrapped)
}

func TestBuildFaultsInDeclarationOrder(t *testing.T) {
	m := addMethod()
	m.Faults = []ir.FaultDecl{
		{Detail: ir.TypeRef{Name: "Overflow"}},
		{Detail: ir.TypeRef{Name: "ValidationFault"}, Namespace: "urn:faults"},
	}

	op, err := Build(testContract, m)
	require.NoError(t, err)
	require.Len(t, op.Faults, 2)
	assert.Equal(t, "OverflowFault", op.Faults[0].Name)
	assert.Equal(t, "ValidationFaultFault", op.Faults[1].Name)
	assert.Equal(t, "ValidationFault", op.Faults[1].ElementName)
	assert.Equal(t, "urn:faults", op.Faults[1].Namespace)
}

func TestBuildFaultPolicyOption(t *testing.T) {
	m := addMethod()
	m.Faults = duplicateFaults()

	op, err := Build(testContract, m)
	require.NoError(t, err)
	assert.Len(t, op.Faults, 3)

	op, err = Build(testContract, m, WithFaultPolicy(FaultPolicyMerge))
	require.NoError(t, err)
	assert.Len(t, op.Faults, 2)

	op, err = Build(testContract, m, WithFaultPolicy(FaultPolicyReject))
	require.Error(t, err)
	assert.Nil(t, op)
	assert.Contains(t, err.Error(), "method Add")
}

func TestBuildFailsAtomically(t *testing.T) {
	m := addMethod()
	m.Params = append(m.Params, ir.ParamDecl{Name: "bad", Type: intType, IsOut: true})

	op, err := Build(testContract, m)
	require.Error(t, err)
	assert.Nil(t, op)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Add", cfgErr.Method)
	assert.Equal(t, "bad", cfgErr.Parameter)
	assert.Contains(t, err.Error(), "method Add: parameter bad")
}

func TestBuildMissingIdentity(t *testing.T) {
	tests := []struct {
		name     string
		contract *ir.ContractContext
		method   ir.MethodDecl
		field    string
	}{
		{"nil contract", nil, addMethod(), "contract"},
		{"unnamed contract", &ir.ContractContext{Namespace: "urn:x"}, addMethod(), "contract.name"},
		{"unnamed method", testContract, ir.MethodDecl{}, "method.name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := Build(tt.contract, tt.method)
			require.Error(t, err)
			assert.Nil(t, op)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestBuildIdempotent(t *testing.T) {
	m := addMethod()
	m.Params = append(m.Params, ir.ParamDecl{Name: "carry", Type: intType, IsOut: true, IsByRef: true})
	m.Faults = []ir.FaultDecl{{Detail: ir.TypeRef{Name: "Overflow"}}, {Detail: ir.TypeRef{Name: "Underflow"}}}

	first, err := Build(testContract, m)
	require.NoError(t, err)
	second, err := Build(testContract, m)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, ir.MustDescriptorHash(first), ir.MustDescriptorHash(second))
}

func TestBuildConcurrent(t *testing.T) {
	m := addMethod()
	want, err := Build(testContract, m)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*ir.OperationDescriptor, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Build(testContract, m)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestBuildContract(t *testing.T) {
	decl := &ir.ContractDecl{
		Context: ir.ContractContext{Namespace: "urn:calc/", Name: "ICalculator"},
		Methods: []ir.MethodDecl{addMethod(), {Name: "Clear"}},
	}

	ops, err := BuildContract(decl)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "urn:calc/ICalculator/Add", ops[0].SOAPAction)
	assert.Equal(t, "urn:calc/ICalculator/Clear", ops[1].SOAPAction)
	assert.Same(t, ops[0].Contract, ops[1].Contract)
}

func TestBuildContractFailure(t *testing.T) {
	decl := &ir.ContractDecl{
		Context: ir.ContractContext{Namespace: "urn:calc", Name: "ICalculator"},
		Methods: []ir.MethodDecl{
			addMethod(),
			{Name: "Broken", Params: []ir.ParamDecl{{Name: "x", IsOut: true}}},
		},
	}

	ops, err := BuildContract(decl)
	require.Error(t, err)
	assert.Nil(t, ops)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "contract ICalculator: method Broken")
}
