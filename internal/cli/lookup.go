package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wirecontract/internal/ir"
	"github.com/roach88/wirecontract/internal/store"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	Database string
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup <action>",
		Short: "Resolve an action string to its catalogued operation",
		Long: `Resolve an incoming action string to the operation it routes to,
the way a dispatcher would, and print the operation descriptor.

Exit codes:
  0 - Action resolved
  1 - No operation routes the action
  2 - Command error (catalog missing or unreadable)

Examples:
  wirecontract lookup http://tempuri.org/ICalculator/Add --db ./catalog.db
  wirecontract lookup urn:calc:accumulate --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite catalog (default $"+EnvDatabase+")")

	return cmd
}

func runLookup(opts *LookupOptions, action string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openCatalog(opts.Database, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	op, err := st.ReadOperationByAction(cmd.Context(), action)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeUnknownAction, fmt.Sprintf("no operation routes action %q", action), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: unknown action %s", ErrCodeUnknownAction, action))
	}
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read catalog", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(op)
	}

	outputDescriptorText(formatter, op)
	return nil
}

// openCatalog opens an existing catalog. A missing path is a command error:
// store.Open would silently create an empty catalog.
func openCatalog(path string, formatter *OutputFormatter) (*store.Store, error) {
	if path == "" {
		_ = formatter.Error(ErrCodeCatalog, "no catalog given (use --db or $"+EnvDatabase+")", nil)
		return nil, NewExitError(ExitCommandError, "no catalog given")
	}
	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", path), nil)
		return nil, WrapExitError(ExitCommandError, "catalog not found", err)
	}

	st, err := store.Open(path, store.WithLogger(formatter.Logger()))
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open catalog", err)
	}
	return st, nil
}

// outputDescriptorText prints one descriptor in human-readable form.
func outputDescriptorText(formatter *OutputFormatter, op *ir.OperationDescriptor) {
	w := formatter.Writer

	fmt.Fprintf(w, "%s.%s (%s)\n", op.Contract.Name, op.Name, op.Contract.Namespace)
	fmt.Fprintf(w, "  action:       %s\n", op.SOAPAction)
	if op.ReplyAction != "" {
		fmt.Fprintf(w, "  reply action: %s\n", op.ReplyAction)
	}
	if op.IsOneWay {
		fmt.Fprintln(w, "  one-way")
	} else {
		fmt.Fprintf(w, "  returns:      %s\n", op.ReturnWireName)
	}

	var flags []string
	if op.IsRequestWrapped {
		flags = append(flags, "request wrapped")
	}
	if op.IsResponseWrapped {
		flags = append(flags, "response wrapped")
	}
	if len(flags) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(flags, ", "))
	}

	for _, p := range op.AllParameters {
		fmt.Fprintf(w, "  param %d %-12s %s {%s}\n", p.Index, p.Direction, p.WireName, p.WireNamespace)
	}
	for _, f := range op.Faults {
		fmt.Fprintf(w, "  fault %s <%s>", f.Name, f.ElementName)
		if f.Action != "" {
			fmt.Fprintf(w, " action=%s", f.Action)
		}
		fmt.Fprintln(w)
	}

	if formatter.Verbose {
		data, err := json.MarshalIndent(op, "  ", "  ")
		if err == nil {
			fmt.Fprintf(w, "  %s\n", data)
		}
	}
}
