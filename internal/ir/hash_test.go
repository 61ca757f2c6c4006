package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDescriptor() *OperationDescriptor {
	contract := &ContractContext{Namespace: "http://tempuri.org/", Name: "ICalculator"}
	a := ParamDecl{Name: "a", Type: TypeRef{Name: "int"}}
	b := ParamDecl{Name: "b", Type: TypeRef{Name: "int"}}
	return &OperationDescriptor{
		Contract:   contract,
		Name:       "Add",
		SOAPAction: "http://tempuri.org/ICalculator/Add",
		AllParameters: []ParameterDescriptor{
			{Index: 0, Direction: DirectionInOnly, WireName: "a", WireNamespace: contract.Namespace, Param: a},
			{Index: 1, Direction: DirectionInOnly, WireName: "b", WireNamespace: contract.Namespace, Param: b},
		},
		Faults:         []FaultDescriptor{},
		ReturnWireName: "AddResult",
		Method: MethodDecl{
			Name:   "Add",
			Params: []ParamDecl{a, b},
			Return: ReturnDecl{Type: TypeRef{Name: "int"}},
		},
	}
}

func TestDescriptorHashDeterminism(t *testing.T) {
	h1, err := DescriptorHash(sampleDescriptor())
	require.NoError(t, err)
	h2, err := DescriptorHash(sampleDescriptor())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestDescriptorHashChangesWithInput(t *testing.T) {
	base := sampleDescriptor()

	renamed := sampleDescriptor()
	renamed.SOAPAction = "urn:add"

	reordered := sampleDescriptor()
	reordered.AllParameters[0], reordered.AllParameters[1] = reordered.AllParameters[1], reordered.AllParameters[0]

	assert.NotEqual(t, MustDescriptorHash(base), MustDescriptorHash(renamed))
	assert.NotEqual(t, MustDescriptorHash(base), MustDescriptorHash(reordered))
}

func TestDeclarationHashDomainSeparation(t *testing.T) {
	op := sampleDescriptor()
	decl := ContractDecl{Context: *op.Contract, Methods: []MethodDecl{op.Method}}

	declHash, err := DeclarationHash(decl)
	require.NoError(t, err)

	assert.Len(t, declHash, 64)
	assert.NotEqual(t, MustDescriptorHash(op), declHash)
}

func TestHashWithDomainSeparator(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}
