package harness

import "github.com/roach88/wirecontract/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Descriptors holds every built operation in declaration order,
	// contract by contract. Empty when building failed.
	Descriptors []*ir.OperationDescriptor `json:"descriptors"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Descriptors: []*ir.OperationDescriptor{},
		Errors:      []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Operation returns the descriptor addressed as <Contract>.<Operation>.
func (r *Result) Operation(id string) (*ir.OperationDescriptor, bool) {
	for _, op := range r.Descriptors {
		if operationID(op) == id {
			return op, true
		}
	}
	return nil, false
}

func operationID(op *ir.OperationDescriptor) string {
	return op.Contract.Name + "." + op.Name
}
