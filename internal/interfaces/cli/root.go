// Package cli implements the af3portal command line: the server itself plus
// offline helpers that share its configuration.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/af3-portal/internal/config"
	"github.com/turtacn/af3-portal/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/af3-portal/pkg/errors"
)

// Build metadata, set from cmd/af3portal through -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// BuildInfo is what `af3portal version -o json` prints.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

type cliContextKey struct{}

// RootOptions are the persistent flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
}

// CLIContext is built once per invocation and handed to subcommands through
// the command context.
type CLIContext struct {
	Config       *config.Config
	ConfigPath   string
	Logger       logging.Logger
	OutputFormat string
	// LevelPinned is set when --log-level was given, so config reloads leave
	// the level alone.
	LevelPinned bool
}

// NewRootCommand returns the af3portal command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "af3portal",
		Short:   "AlphaFold 3 job submission portal",
		Long:    "af3portal serves the web form that builds alphafold3 input documents,\nsubmits them to the cluster scheduler and lists finished jobs.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (AF3_* environment variables only when empty)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json)")

	cmd.AddCommand(
		newServeCmd(),
		newRenderCmd(),
		newJobsCmd(),
		newVersionCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch strings.ToLower(opts.OutputFormat) {
	case "table", "json":
	default:
		return errors.New(errors.ErrCodeValidation, fmt.Sprintf("unknown output format %q", opts.OutputFormat))
	}

	cfg, err := config.LoadOrEnv(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	pinned := opts.LogLevel != ""
	if pinned {
		cfg.Log.Level = strings.ToLower(opts.LogLevel)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	cliCtx := &CLIContext{
		Config:       cfg,
		ConfigPath:   opts.ConfigPath,
		Logger:       logger,
		OutputFormat: strings.ToLower(opts.OutputFormat),
		LevelPinned:  pinned,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// initLogger writes to stderr unless the config names outputs, so that
// render and jobs keep stdout for their results.
func initLogger(cfg *config.Config) (logging.Logger, error) {
	outputs := cfg.Log.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	return logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	})
}

// GetCLIContext extracts the CLIContext stored by the root command.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.New(errors.ErrCodeInternal, "CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Execute runs the command tree and reports the error, if any, on stderr.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// PrintResult writes data as JSON or, for -o table, as a table when data
// provides one.
func PrintResult(cmd *cobra.Command, data interface{}) error {
	format := "table"
	if cliCtx, err := GetCLIContext(cmd); err == nil {
		format = cliCtx.OutputFormat
	}
	if format == "json" {
		return printJSON(cmd, data)
	}
	return printTable(cmd, data)
}

func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

type tableProvider interface {
	TableHeaders() []string
	TableRows() [][]string
}

func printTable(cmd *cobra.Command, data interface{}) error {
	if tp, ok := data.(tableProvider); ok {
		fmt.Fprint(cmd.OutOrStdout(), FormatTable(tp.TableHeaders(), tp.TableRows()))
		return nil
	}
	switch v := data.(type) {
	case string:
		fmt.Fprintln(cmd.OutOrStdout(), v)
	case fmt.Stringer:
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
	default:
		return printJSON(cmd, data)
	}
	return nil
}

// PrintError writes the user-facing message of err to stderr.  Unexpected
// errors keep their full text.
func PrintError(cmd *cobra.Command, err error) {
	if err == nil {
		return
	}
	msg := err.Error()
	if code := errors.GetCode(err); code != errors.CodeUnknown && code != errors.ErrCodeInternal {
		msg = errors.MessageOf(err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", msg)
}

// FormatTable renders headers and rows as an aligned ASCII table.
func FormatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	colWidths := make([]int, len(headers))
	for i, h := range headers {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(colWidths); i++ {
			if len(row[i]) > colWidths[i] {
				colWidths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i := range headers {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			if i == len(headers)-1 {
				sb.WriteString(val)
			} else {
				sb.WriteString(padRight(val, colWidths[i]))
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	sep := make([]string, len(headers))
	for i, w := range colWidths {
		sep[i] = strings.Repeat("-", w)
	}
	writeRow(sep)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
