package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"familytree/internal/app"
	"familytree/internal/config"
	"familytree/internal/logging"
	"familytree/internal/security"
	"familytree/internal/service"
)

type exportOptions struct {
	familyID int64
	format   string
	output   string
}

type importOptions struct {
	ownerID int64
	format  string
	input   string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "familyctl",
		Short: "Operator tooling for the family tree service",
		Long: `familyctl runs schema migrations, moves whole families in and out of
the service as JSON or YAML, and issues bearer tokens for local testing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newExportCmd(), newImportCmd(), newTokenCmd())
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := commandContext(cmd)
			defer stop()

			a, err := app.OpenDatabase(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close(ctx)

			if err := a.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a family with its persons and relationships",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}
	cmd.Flags().Int64Var(&opts.familyID, "family", 0, "ID of the family to export (required)")
	cmd.Flags().StringVar(&opts.format, "format", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "Output file (default: family_<id>_YYYYMMDD_HHMMSS.<format>, - for stdout)")
	_ = cmd.MarkFlagRequired("family")
	return cmd
}

func newImportCmd() *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an exported family as a new family",
		Long: `Creates a new family owned by --owner and replays the exported persons and
relationships into it. Every relationship passes the same validation as an
API request, so a file that would create a cycle is rejected as a whole.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}
	cmd.Flags().Int64Var(&opts.ownerID, "owner", 0, "User ID that will own the imported family (required)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Input format: json or yaml (default: from file extension)")
	cmd.Flags().StringVarP(&opts.input, "in", "i", "", "Input file, - for stdin (required)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			issuer, err := security.NewTokenIssuer(cfg.TokenSecret, cfg.TokenTTL)
			if err != nil {
				return err
			}
			token, err := issuer.Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "User ID to issue the token for (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runExport(cmd *cobra.Command, opts *exportOptions) error {
	format, err := service.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := commandContext(cmd)
	defer stop()

	a, err := app.Start(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	export, err := a.Exports.Export(ctx, opts.familyID)
	if err != nil {
		return fmt.Errorf("failed to export family %d: %w", opts.familyID, err)
	}

	path := opts.output
	if path == "" {
		path = defaultExportPath(opts.familyID, format, time.Now())
	}
	if path == "-" {
		return service.Encode(cmd.OutOrStdout(), format, export)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := service.Encode(f, format, export); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported family %q to %s\n", export.Family.Name, path)
	fmt.Fprintf(cmd.OutOrStdout(), "  Persons:       %d\n", len(export.Persons))
	fmt.Fprintf(cmd.OutOrStdout(), "  Relationships: %d\n", len(export.Relationships))
	return nil
}

func runImport(cmd *cobra.Command, opts *importOptions) error {
	name := opts.format
	if name == "" {
		name = formatFromPath(opts.input)
	}
	format, err := service.ParseFormat(name)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if opts.input != "-" {
		f, err := os.Open(opts.input)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", opts.input, err)
		}
		defer f.Close()
		in = f
	}
	data, err := service.Decode(in, format)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := commandContext(cmd)
	defer stop()

	a, err := app.Start(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	result, err := a.Exports.Import(ctx, opts.ownerID, data)
	if err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported family %q (id %d, code %s)\n",
		result.Family.Name, result.Family.ID, result.Family.Code)
	fmt.Fprintf(cmd.OutOrStdout(), "  Persons:       %d\n", result.Persons)
	fmt.Fprintf(cmd.OutOrStdout(), "  Relationships: %d\n", result.Relationships)
	return nil
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	// stdout carries command output, keep logs off it
	return cfg, logging.NewWithWriter(os.Stderr, cfg.Logging), nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

func defaultExportPath(familyID int64, format service.Format, now time.Time) string {
	return fmt.Sprintf("family_%d_%s.%s", familyID, now.Format("20060102_150405"), format)
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
