package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wirecontract/internal/compiler"
	"github.com/roach88/wirecontract/internal/ir"
	"github.com/roach88/wirecontract/internal/operation"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	FaultPolicy string
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate contract declarations without building",
		Long: `Validate CUE contract declarations without writing descriptors.

Performs syntax checking, schema validation, calling-convention checks
(parameter directions, fault names) and routing checks (duplicate
operation names and action strings). Faster than build for development
feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FaultPolicy, "fault-policy", string(operation.FaultPolicyPassThrough),
		fmt.Sprintf("duplicate fault handling %v", operation.FaultPolicies))

	return cmd
}

func runValidate(opts *ValidateOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	policy, err := operation.ParseFaultPolicy(opts.FaultPolicy)
	if err != nil {
		return outputValidateError(formatter, ErrCodeBadPolicy, err.Error(), nil)
	}

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	validationErrors := loadErrorsToValidation(loadErrors)
	validationErrors = append(validationErrors, validateAll(loadResult.Contracts, policy, formatter)...)

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter)
}

// loadErrorsToValidation converts compile errors into validation errors.
func loadErrorsToValidation(errs []error) []compiler.ValidationError {
	var out []compiler.ValidationError
	for _, err := range errs {
		verr := compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			verr.Message = loadErr.Message
			verr.Code = loadErr.Code
			if loadErr.Pos.IsValid() {
				verr.Field = fmt.Sprintf("%s:%d", loadErr.Pos.Filename(), loadErr.Pos.Line())
			}
		}
		out = append(out, verr)
	}
	return out
}

// validateAll runs contract checks on every declaration, then builds the
// descriptors and checks routing across all of them.
func validateAll(decls []*ir.ContractDecl, policy operation.FaultPolicy, formatter *OutputFormatter) []compiler.ValidationError {
	allErrors := compiler.ValidateContracts(decls)
	var ops []*ir.OperationDescriptor

	for _, decl := range decls {
		formatter.VerboseLog("Validating contract: %s", decl.Context.Name)

		errs := compiler.ValidateContract(decl, policy)
		if len(errs) > 0 {
			allErrors = append(allErrors, errs...)
			continue
		}

		built, err := operation.BuildContract(decl, operation.WithFaultPolicy(policy))
		if err != nil {
			allErrors = append(allErrors, compiler.ValidationError{
				Field:   "contract." + decl.Context.Name,
				Message: err.Error(),
				Code:    ErrCodeGeneric,
			})
			continue
		}
		ops = append(ops, built...)
	}

	// Routing collisions across contracts only make sense once each one is clean
	if len(allErrors) == 0 {
		allErrors = append(allErrors, compiler.ValidateDescriptors(ops)...)
	}

	return allErrors
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true}
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ All contracts valid")
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n", err.Field)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// ValidateSpecsDir validates all contract declarations in a directory
// under the default fault policy.
func ValidateSpecsDir(specsDir string) ([]compiler.ValidationError, error) {
	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return nil, loadErrors[0]
	}

	silent := &OutputFormatter{Format: "text"}
	validationErrs := loadErrorsToValidation(loadErrors)
	validationErrs = append(validationErrs, validateAll(loadResult.Contracts, operation.FaultPolicyPassThrough, silent)...)

	return validationErrs, nil
}
