package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/wirecontract/internal/ir"
	"github.com/roach88/wirecontract/internal/operation"
)

// Validation error codes (E100-E199)
const (
	// Contract errors (E101-E104)
	ErrContractNameEmpty      = "E101" // contract name is required
	ErrContractNamespaceEmpty = "E102" // contract namespace is required
	ErrContractNoOperations   = "E103" // at least one operation required
	ErrDuplicateContract      = "E104" // two contracts resolve to the same namespace and name

	// Operation errors (E110-E119)
	ErrDuplicateOperation = "E110" // two methods resolve to the same operation name
	ErrDuplicateAction    = "E111" // two operations share an action string
	ErrMethodNameEmpty    = "E112" // method identifier is required

	// Parameter errors (E120-E129)
	ErrDuplicateParameter = "E120" // two parameters share an identifier
	ErrInvalidDirection   = "E121" // output-only parameter not passed by reference
	ErrParameterTypeEmpty = "E122" // parameter type is required

	// Fault errors (E130-E139)
	ErrFaultDetailEmpty = "E130" // fault detail type is required
	ErrDuplicateFault   = "E131" // two faults share a name under FaultPolicyReject
)

// ValidationError represents a declaration validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateContract checks a contract declaration against the calling
// convention and routing rules. Returns all errors found (does not fail-fast),
// unlike operation.Build which stops at the first defect.
func ValidateContract(decl *ir.ContractDecl, policy operation.FaultPolicy) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(decl.Context.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "contract name is required and must be non-empty",
			Code:    ErrContractNameEmpty,
		})
	}
	if strings.TrimSpace(decl.Context.Namespace) == "" {
		errs = append(errs, ValidationError{
			Field:   "namespace",
			Message: "contract namespace is required and must be non-empty",
			Code:    ErrContractNamespaceEmpty,
		})
	}
	if len(decl.Methods) == 0 {
		errs = append(errs, ValidationError{
			Field:   "operations",
			Message: "at least one operation is required",
			Code:    ErrContractNoOperations,
		})
	}

	opNames := make(map[string]string)
	actions := make(map[string]string)

	for i, m := range decl.Methods {
		field := fmt.Sprintf("operations[%d]", i)
		if m.Name == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: "method name is required",
				Code:    ErrMethodNameEmpty,
			})
			continue
		}

		opName := firstNonEmpty(m.Operation.Name, m.Name)
		if prev, ok := opNames[opName]; ok {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("operation name %q of method %q already used by method %q", opName, m.Name, prev),
				Code:    ErrDuplicateOperation,
			})
		}
		opNames[opName] = m.Name

		action := firstNonEmpty(m.Operation.Action, operation.DefaultAction(&decl.Context, opName))
		if prev, ok := actions[action]; ok {
			errs = append(errs, ValidationError{
				Field:   field + ".action",
				Message: fmt.Sprintf("action %q of method %q already routes to method %q", action, m.Name, prev),
				Code:    ErrDuplicateAction,
			})
		}
		actions[action] = m.Name

		errs = append(errs, validateParams(field, m)...)
		errs = append(errs, validateFaults(field, m, policy)...)
	}

	return errs
}

func validateParams(field string, m ir.MethodDecl) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for j, p := range m.Params {
		pField := fmt.Sprintf("%s.params[%d]", field, j)
		if seen[p.Name] {
			errs = append(errs, ValidationError{
				Field:   pField + ".name",
				Message: fmt.Sprintf("duplicate parameter name %q in method %q", p.Name, m.Name),
				Code:    ErrDuplicateParameter,
			})
		}
		seen[p.Name] = true

		if p.Type.IsVoid() {
			errs = append(errs, ValidationError{
				Field:   pField + ".type",
				Message: fmt.Sprintf("parameter %q has no type", p.Name),
				Code:    ErrParameterTypeEmpty,
			})
		}

		if _, err := operation.ClassifyDirection(p.IsOut, p.IsByRef); err != nil {
			errs = append(errs, ValidationError{
				Field:   pField + ".out",
				Message: fmt.Sprintf("parameter %q is output-only but not passed by reference", p.Name),
				Code:    ErrInvalidDirection,
			})
		}
	}

	return errs
}

func validateFaults(field string, m ir.MethodDecl, policy operation.FaultPolicy) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)

	for k, decl := range m.Faults {
		fField := fmt.Sprintf("%s.faults[%d]", field, k)
		if decl.Detail.IsVoid() {
			errs = append(errs, ValidationError{
				Field:   fField + ".detail",
				Message: fmt.Sprintf("fault of method %q has no detail type", m.Name),
				Code:    ErrFaultDetailEmpty,
			})
			continue
		}

		name := operation.BuildFault(decl).Name
		if seen[name] && policy == operation.FaultPolicyReject {
			errs = append(errs, ValidationError{
				Field:   fField + ".name",
				Message: fmt.Sprintf("duplicate fault name %q in method %q", name, m.Name),
				Code:    ErrDuplicateFault,
			})
		}
		seen[name] = true
	}

	return errs
}

// ValidateContracts checks that every declaration resolves to a distinct
// {namespace, name} identity. The catalog keys operations by that pair.
func ValidateContracts(decls []*ir.ContractDecl) []ValidationError {
	var errs []ValidationError
	seen := make(map[ir.ContractContext]int)

	for i, decl := range decls {
		if prev, ok := seen[decl.Context]; ok {
			errs = append(errs, ValidationError{
				Field: fmt.Sprintf("contracts[%d]", i),
				Message: fmt.Sprintf("contract %q in namespace %q already declared by contracts[%d]",
					decl.Context.Name, decl.Context.Namespace, prev),
				Code: ErrDuplicateContract,
			})
			continue
		}
		seen[decl.Context] = i
	}

	return errs
}

// ValidateDescriptors checks built descriptors for routing collisions across
// contracts: every action string must identify exactly one operation.
func ValidateDescriptors(ops []*ir.OperationDescriptor) []ValidationError {
	var errs []ValidationError
	routes := make(map[string]string)

	for i, op := range ops {
		id := op.Contract.Name + "." + op.Name
		if prev, ok := routes[op.SOAPAction]; ok {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("operations[%d].soap_action", i),
				Message: fmt.Sprintf("action %q of %s already routes to %s", op.SOAPAction, id, prev),
				Code:    ErrDuplicateAction,
			})
			continue
		}
		routes[op.SOAPAction] = id
	}

	return errs
}
