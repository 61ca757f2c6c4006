package ir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemaTestDescriptor() *OperationDescriptor {
	contract := &ContractContext{Namespace: "http://tempuri.org/", Name: "ICalculator"}
	param := ParamDecl{Name: "total", Type: TypeRef{Name: "int"}, IsByRef: true}
	fault := FaultDecl{Detail: TypeRef{Name: "Overflow"}}
	return &OperationDescriptor{
		Contract:   contract,
		Name:       "Accumulate",
		SOAPAction: "http://tempuri.org/ICalculator/Accumulate",
		AllParameters: []ParameterDescriptor{
			{Index: 0, Direction: DirectionInAndOutRef, WireName: "total", WireNamespace: contract.Namespace, Param: param},
		},
		Faults: []FaultDescriptor{
			{PayloadType: fault.Detail, Name: "OverflowFault", ElementName: "Overflow"},
		},
		ReturnWireName: "AccumulateResult",
		Method: MethodDecl{
			Name:   "Accumulate",
			Params: []ParamDecl{param},
			Faults: []FaultDecl{fault},
		},
	}
}

func TestDescriptorSchemaCompiles(t *testing.T) {
	schema, err := DescriptorSchema()
	require.NoError(t, err)
	require.NotNil(t, schema)

	again, err := DescriptorSchema()
	require.NoError(t, err)
	assert.Same(t, schema, again)
}

func TestValidateDescriptorJSON_Canonical(t *testing.T) {
	data, err := MarshalCanonical(schemaTestDescriptor())
	require.NoError(t, err)
	assert.NoError(t, ValidateDescriptorJSON(data))
}

func TestValidateDescriptorJSON_Rejects(t *testing.T) {
	valid, err := MarshalCanonical(schemaTestDescriptor())
	require.NoError(t, err)

	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"empty object", `{}`},
		{"unknown direction", strings.Replace(string(valid), `"InAndOutRef"`, `"OutOnly"`, 1)},
		{"empty action", strings.Replace(string(valid), `"soap_action":"http://tempuri.org/ICalculator/Accumulate"`, `"soap_action":""`, 1)},
		{"unknown field", strings.Replace(string(valid), `{"all_parameters"`, `{"extra":1,"all_parameters"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEqual(t, string(valid), tt.data)
			assert.Error(t, ValidateDescriptorJSON([]byte(tt.data)))
		})
	}
}
