package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/wirecontract/internal/ir"
	"github.com/roach88/wirecontract/internal/operation"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestContract builds a declaration and its descriptors.
// Each name becomes one operation taking a single int parameter.
func createTestContract(t *testing.T, namespace, name string, ops ...string) (ir.ContractDecl, []*ir.OperationDescriptor) {
	t.Helper()
	decl := ir.ContractDecl{
		Context: ir.ContractContext{Namespace: namespace, Name: name},
		Methods: []ir.MethodDecl{},
	}
	for _, op := range ops {
		decl.Methods = append(decl.Methods, ir.MethodDecl{
			Name:   op,
			Params: []ir.ParamDecl{{Name: "value", Type: ir.TypeRef{Name: "int"}}},
			Return: ir.ReturnDecl{Type: ir.TypeRef{Name: "int"}},
			Faults: []ir.FaultDecl{{Detail: ir.TypeRef{Name: "ValidationFault"}}},
		})
	}
	descriptors, err := operation.BuildContract(&decl)
	if err != nil {
		t.Fatalf("BuildContract() failed: %v", err)
	}
	return decl, descriptors
}
