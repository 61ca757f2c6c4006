package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/wirecontract/internal/store"
)

// BuildsOptions holds flags for the builds command.
type BuildsOptions struct {
	*RootOptions
	Database string
	Contract string // optional - filter to one contract name
}

// BuildsResult holds the catalogued build history.
type BuildsResult struct {
	Builds []store.Build `json:"builds"`
	Total  int           `json:"total"`
}

// NewBuildsCommand creates the builds command.
func NewBuildsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "builds",
		Short: "List catalogued contract builds",
		Long: `List every contract build recorded in the catalog, oldest first.

Each build records the declaration fingerprint and the builder and IR
versions that produced the catalogued descriptors.

Examples:
  wirecontract builds --db ./catalog.db
  wirecontract builds --db ./catalog.db --contract ICalculator --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuilds(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase(), "path to SQLite catalog (default $"+EnvDatabase+")")
	cmd.Flags().StringVar(&opts.Contract, "contract", "", "filter to one contract name")

	return cmd
}

func runBuilds(opts *BuildsOptions, cmd *cobra.Command) error {
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

	builds, err := st.ReadBuilds(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read builds", err)
	}

	result := BuildsResult{Builds: []store.Build{}}
	for _, b := range builds {
		if opts.Contract != "" && b.Contract.Name != opts.Contract {
			continue
		}
		result.Builds = append(result.Builds, b)
	}
	result.Total = len(result.Builds)

	if opts.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(CLIResponse{Status: "ok", Data: result})
	}

	if result.Total == 0 {
		fmt.Fprintln(formatter.Writer, "No builds catalogued.")
		return nil
	}

	for _, b := range result.Builds {
		fmt.Fprintf(formatter.Writer, "#%d %s (%s)\n", b.Seq, b.Contract.Name, b.Contract.Namespace)
		fmt.Fprintf(formatter.Writer, "  id:          %s\n", b.ID)
		fmt.Fprintf(formatter.Writer, "  declaration: %s\n", b.DeclarationHash)
		fmt.Fprintf(formatter.Writer, "  builder %s, ir %s\n", b.BuilderVersion, b.IRVersion)
	}
	fmt.Fprintf(formatter.Writer, "\n%d build(s)\n", result.Total)
	return nil
}
