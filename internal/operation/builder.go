package operation

import (
	"fmt"
	"strings"

	"github.com/roach88/wirecontract/internal/ir"
)

// Option configures a build.
type Option func(*options)

type options struct {
	faultPolicy FaultPolicy
}

// WithFaultPolicy selects how duplicate fault names are handled.
func WithFaultPolicy(p FaultPolicy) Option {
	return func(o *options) {
		o.faultPolicy = p
	}
}

func newOptions(opts []Option) options {
	o := options{faultPolicy: FaultPolicyPassThrough}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Build derives the descriptor of one operation. The contract is shared by
// reference and must not be modified while descriptors are in use.
//
// Build fails atomically with a *ConfigurationError when the contract or
// method identity is missing, or when a parameter cannot be classified.
func Build(contract *ir.ContractContext, method ir.MethodDecl, opts ...Option) (*ir.OperationDescriptor, error) {
	o := newOptions(opts)

	if contract == nil {
		return nil, &ConfigurationError{Method: method.Name, Field: "contract", Message: "contract is required"}
	}
	if contract.Name == "" {
		return nil, &ConfigurationError{Method: method.Name, Field: "contract.name", Message: "contract name is required"}
	}
	if method.Name == "" {
		return nil, &ConfigurationError{Field: "method.name", Message: "method name is required"}
	}

	name := firstNonEmpty(method.Operation.Name, method.Name)

	params := make([]ir.ParameterDescriptor, 0, len(method.Params))
	for i, p := range method.Params {
		pd, err := ClassifyParameter(p, i, contract)
		if err != nil {
			return nil, withMethod(err, method.Name)
		}
		params = append(params, pd)
	}

	faults, err := buildFaults(method.Faults, o.faultPolicy)
	if err != nil {
		return nil, withMethod(err, method.Name)
	}

	op := &ir.OperationDescriptor{
		Contract:          contract,
		Name:              name,
		SOAPAction:        firstNonEmpty(method.Operation.Action, DefaultAction(contract, name)),
		ReplyAction:       method.Operation.ReplyAction,
		IsOneWay:          method.Operation.IsOneWay,
		IsResponseWrapped: method.Return.Type.MessageContract,
		AllParameters:     params,
		Faults:            faults,
		ReturnWireName:    firstNonEmpty(method.Return.Name, name+"Result"),
		Method:            method,
	}

	// Only a single envelope-typed input parameter makes the request wrapped.
	in := op.InParameters()
	op.IsRequestWrapped = len(in) == 1 && in[0].Param.Type.MessageContract

	return op, nil
}

// DefaultAction returns the action string used when an operation declares
// none: "{namespace}/{contract}/{operation}", with exactly one trailing '/'
// removed from the namespace.
func DefaultAction(contract *ir.ContractContext, operation string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(contract.Namespace, "/"), contract.Name, operation)
}

// BuildContract builds every method of a contract declaration in order.
// The first failure aborts the build and no descriptors are returned.
func BuildContract(decl *ir.ContractDecl, opts ...Option) ([]*ir.OperationDescriptor, error) {
	ops := make([]*ir.OperationDescriptor, 0, len(decl.Methods))
	for _, m := range decl.Methods {
		op, err := Build(&decl.Context, m, opts...)
		if err != nil {
			return nil, fmt.Errorf("contract %s: %w", decl.Context.Name, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}
