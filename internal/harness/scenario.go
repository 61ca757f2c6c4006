package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/wirecontract/internal/ir"
	"github.com/roach88/wirecontract/internal/operation"
)

// Scenario defines a conformance test scenario.
// A scenario compiles a set of contract declarations and checks the built
// descriptors against per-operation expectations and assertions.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name" validate:"required"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" validate:"required"`

	// Specs lists paths to CUE declaration files to compile.
	// Paths are relative to the scenario file location.
	Specs []string `yaml:"specs" validate:"required,dive,required"`

	// FaultPolicy selects duplicate-fault handling. Empty means pass-through.
	FaultPolicy string `yaml:"fault_policy,omitempty"`

	// ExpectError declares that building must fail. Operations and
	// assertions are not evaluated when set.
	ExpectError *ErrorExpectation `yaml:"expect_error,omitempty"`

	// Operations lists expected descriptor properties per operation.
	Operations []OperationExpectation `yaml:"operations,omitempty" validate:"dive"`

	// Assertions validate the built descriptor set and the catalog.
	Assertions []Assertion `yaml:"assertions,omitempty" validate:"dive"`
}

// ErrorExpectation matches a build failure. Every non-empty field must match
// the same error.
type ErrorExpectation struct {
	// Code is a validation code such as "E131".
	Code string `yaml:"code,omitempty"`

	// Contains is a substring of the error message.
	Contains string `yaml:"contains,omitempty"`
}

// OperationExpectation names an operation and its expected properties.
type OperationExpectation struct {
	// Operation is <Contract>.<Operation>.
	Operation string `yaml:"operation" validate:"operation_id"`

	Expect DescriptorExpectation `yaml:"expect"`
}

// DescriptorExpectation lists descriptor properties to check.
// Unset fields are not checked; nil lists are not checked while empty lists
// require no entries.
type DescriptorExpectation struct {
	Action          string   `yaml:"action,omitempty"`
	ReplyAction     string   `yaml:"reply_action,omitempty"`
	ReturnName      string   `yaml:"return_name,omitempty"`
	OneWay          *bool    `yaml:"one_way,omitempty"`
	RequestWrapped  *bool    `yaml:"request_wrapped,omitempty"`
	ResponseWrapped *bool    `yaml:"response_wrapped,omitempty"`
	In              []string `yaml:"in,omitempty"`  // input wire names in order
	Out             []string `yaml:"out,omitempty"` // output wire names in order
	Faults          []string `yaml:"faults,omitempty"`
}

// Assertion validates the descriptor set or the catalog.
type Assertion struct {
	// Type specifies the assertion type:
	// - "operation_count": exactly Count operations were built
	// - "action_routes": the catalog routes Action to Operation
	// - "fault_present": Operation declares a fault named Fault
	// - "parameter_direction": Parameter of Operation has Direction
	Type string `yaml:"type" validate:"required"`

	// Operation is <Contract>.<Operation> (action_routes, fault_present,
	// parameter_direction).
	Operation string `yaml:"operation,omitempty"`

	// Action is the action string to route (action_routes).
	Action string `yaml:"action,omitempty"`

	// Fault is the fault name (fault_present).
	Fault string `yaml:"fault,omitempty"`

	// Parameter is the declared parameter name (parameter_direction).
	Parameter string `yaml:"parameter,omitempty"`

	// Direction is InOnly, OutOnlyRef or InAndOutRef (parameter_direction).
	Direction string `yaml:"direction,omitempty"`

	// Count is the expected number of operations (operation_count).
	Count int `yaml:"count,omitempty" validate:"gte=0"`
}

// Assertion type constants.
const (
	AssertOperationCount     = "operation_count"
	AssertActionRoutes       = "action_routes"
	AssertFaultPresent       = "fault_present"
	AssertParameterDirection = "parameter_direction"
)

// LoadScenario reads and parses a scenario YAML file, resolving spec paths
// relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving spec paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, specPath := range scenario.Specs {
		if specPath != "" && !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

var validate = newValidator()

// newValidator returns a validator that names fields by their YAML keys and
// understands operation identifiers.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("operation_id", func(fl validator.FieldLevel) bool {
		return isOperationID(fl.Field().String())
	})
	return v
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if err := validate.Struct(s); err != nil {
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			return formatValidationError(valErrs[0])
		}
		return err
	}

	if _, err := operation.ParseFaultPolicy(s.FaultPolicy); err != nil {
		return err
	}

	if s.ExpectError == nil && len(s.Operations) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("one of operations, assertions or expect_error is required")
	}

	if s.ExpectError != nil && s.ExpectError.Code == "" && s.ExpectError.Contains == "" {
		return fmt.Errorf("expect_error: code or contains is required")
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// formatValidationError converts a validator.FieldError to a message keyed by
// the YAML path of the field.
func formatValidationError(ve validator.FieldError) error {
	field := ve.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	switch ve.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "operation_id":
		return fmt.Errorf("%s: operation must be <Contract>.<Operation>, got %q", field, ve.Value())
	case "gte":
		return fmt.Errorf("%s must be at least %s", field, ve.Param())
	default:
		return fmt.Errorf("%s failed %s validation", field, ve.Tag())
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertOperationCount:
	case AssertActionRoutes:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for action_routes", index)
		}
		if !isOperationID(a.Operation) {
			return fmt.Errorf("assertions[%d]: operation must be <Contract>.<Operation> for action_routes", index)
		}
	case AssertFaultPresent:
		if !isOperationID(a.Operation) {
			return fmt.Errorf("assertions[%d]: operation must be <Contract>.<Operation> for fault_present", index)
		}
		if a.Fault == "" {
			return fmt.Errorf("assertions[%d]: fault is required for fault_present", index)
		}
	case AssertParameterDirection:
		if !isOperationID(a.Operation) {
			return fmt.Errorf("assertions[%d]: operation must be <Contract>.<Operation> for parameter_direction", index)
		}
		if a.Parameter == "" {
			return fmt.Errorf("assertions[%d]: parameter is required for parameter_direction", index)
		}
		switch ir.Direction(a.Direction) {
		case ir.DirectionInOnly, ir.DirectionOutOnlyRef, ir.DirectionInAndOutRef:
		default:
			return fmt.Errorf("assertions[%d]: unknown direction %q", index, a.Direction)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func isOperationID(id string) bool {
	contract, op, ok := strings.Cut(id, ".")
	return ok && contract != "" && op != ""
}
