package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/wirecontract/internal/compiler"
	"github.com/roach88/wirecontract/internal/ir"
	"github.com/roach88/wirecontract/internal/operation"
	"github.com/roach88/wirecontract/internal/store"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Output      string // output file path
	Database    string // catalog path; empty skips cataloging
	FaultPolicy string
}

// ContractResult holds the descriptors built for one contract.
type ContractResult struct {
	Contract        ir.ContractContext        `json:"contract"`
	DeclarationHash string                    `json:"declaration_hash"`
	Operations      []*ir.OperationDescriptor `json:"operations"`
	Build           *store.Build              `json:"build,omitempty"`
}

// BuildResult holds every built contract.
type BuildResult struct {
	FaultPolicy operation.FaultPolicy `json:"fault_policy"`
	Contracts   []ContractResult      `json:"contracts"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build <specs-dir>",
		Short: "Build operation descriptors from contract declarations",
		Long: `Compile CUE contract declarations and build the descriptor of every
operation: action strings, wire names, parameter directions, message
wrapping and fault contracts.

With --db (or ` + EnvDatabase + `) the descriptors are recorded in the
catalog, replacing the previous build of each contract.

Examples:
  wirecontract build ./specs
  wirecontract build ./specs --output descriptors.json
  wirecontract build ./specs --db ./catalog.db --fault-policy merge`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite catalog (default $"+EnvDatabase+")")
	cmd.Flags().StringVar(&opts.FaultPolicy, "fault-policy", string(operation.FaultPolicyPassThrough),
		fmt.Sprintf("duplicate fault handling %v", operation.FaultPolicies))

	return cmd
}

func runBuild(opts *BuildOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	logger := formatter.Logger()

	policy, err := operation.ParseFaultPolicy(opts.FaultPolicy)
	if err != nil {
		return outputBuildError(formatter, ErrCodeBadPolicy, err.Error(), nil)
	}

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputBuildError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputBuildError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	logger.Debug("specs loaded", "dir", specsDir, "files", loadResult.FileCount, "contracts", len(loadResult.Contracts))

	if len(loadErrors) > 0 {
		return outputBuildErrors(formatter, loadErrors)
	}

	var validationErrs []error
	for _, verr := range compiler.ValidateContracts(loadResult.Contracts) {
		validationErrs = append(validationErrs, verr)
	}
	for _, decl := range loadResult.Contracts {
		for _, verr := range compiler.ValidateContract(decl, policy) {
			validationErrs = append(validationErrs, fmt.Errorf("contract %s: %w", decl.Context.Name, verr))
		}
	}
	if len(validationErrs) > 0 {
		return outputBuildErrors(formatter, validationErrs)
	}

	result := &BuildResult{FaultPolicy: policy, Contracts: []ContractResult{}}
	var all []*ir.OperationDescriptor
	for _, decl := range loadResult.Contracts {
		ops, err := operation.BuildContract(decl, operation.WithFaultPolicy(policy))
		if err != nil {
			return outputBuildErrors(formatter, []error{err})
		}
		hash, err := ir.DeclarationHash(*decl)
		if err != nil {
			return outputBuildError(formatter, ErrCodeGeneric, err.Error(), nil)
		}
		logger.Debug("contract built", "contract", decl.Context.Name, "operations", len(ops))

		result.Contracts = append(result.Contracts, ContractResult{
			Contract:        decl.Context,
			DeclarationHash: hash,
			Operations:      ops,
		})
		all = append(all, ops...)
	}

	var routingErrs []error
	for _, verr := range compiler.ValidateDescriptors(all) {
		routingErrs = append(routingErrs, verr)
	}
	if len(routingErrs) > 0 {
		return outputBuildErrors(formatter, routingErrs)
	}

	if opts.Database != "" {
		if err := catalogContracts(cmd, opts.Database, loadResult.Contracts, result, formatter); err != nil {
			return err
		}
	}

	if opts.Output != "" {
		if err := writeDescriptorsToFile(result, opts.Output); err != nil {
			return outputBuildError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
		logger.Debug("descriptors written", "path", opts.Output)
	}

	return outputBuildSuccess(formatter, result, opts.Output)
}

// catalogContracts records every built contract in the catalog.
func catalogContracts(cmd *cobra.Command, path string, decls []*ir.ContractDecl, result *BuildResult, formatter *OutputFormatter) error {
	st, err := store.Open(path, store.WithLogger(formatter.Logger()))
	if err != nil {
		return outputBuildError(formatter, ErrCodeCatalog, fmt.Sprintf("opening catalog: %v", err), nil)
	}
	defer st.Close()

	for i, decl := range decls {
		build, err := st.WriteContract(cmd.Context(), *decl, result.Contracts[i].Operations)
		if err != nil {
			return outputBuildError(formatter, ErrCodeCatalog, fmt.Sprintf("cataloging %s: %v", decl.Context.Name, err), nil)
		}
		result.Contracts[i].Build = &build
	}
	return nil
}

// outputBuildSuccess outputs successful build results.
func outputBuildSuccess(formatter *OutputFormatter, result *BuildResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	total := 0
	for _, c := range result.Contracts {
		total += len(c.Operations)
	}
	fmt.Fprintf(formatter.Writer, "✓ Built %d operation(s) from %d contract(s)\n\n", total, len(result.Contracts))

	for _, c := range result.Contracts {
		fmt.Fprintf(formatter.Writer, "%s (%s)\n", c.Contract.Name, c.Contract.Namespace)
		for _, op := range c.Operations {
			fmt.Fprintf(formatter.Writer, "  %s → %s\n", op.Name, op.SOAPAction)
		}
		if c.Build != nil {
			fmt.Fprintf(formatter.Writer, "  catalogued as build %d (%s)\n", c.Build.Seq, c.Build.ID)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote descriptors to %s\n", outputFile)
	}

	return nil
}

// outputBuildError outputs a single build error.
func outputBuildError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Build errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputBuildErrors outputs multiple build errors.
func outputBuildErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseBuildError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitCommandError, fmt.Sprintf("build failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Build failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseBuildError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("build failed with %d error(s)", len(errs)))
}

// parseBuildError extracts error code and message from an error.
func parseBuildError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var verr compiler.ValidationError
	if errors.As(err, &verr) {
		return verr.Code, err.Error()
	}
	var cfgErr *operation.ConfigurationError
	if errors.As(err, &cfgErr) && cfgErr.Field == "direction" {
		return compiler.ErrInvalidDirection, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// writeDescriptorsToFile writes the build result to a file as indented JSON.
func writeDescriptorsToFile(result *BuildResult, filename string) error {
	// Indented JSON for readability; canonical JSON is only used for hashing
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling descriptors: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
