package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyrelax/internal/app"
)

type relaxOptions struct {
	Project    string
	DryRun     bool
	Check      bool
	Update     bool
	Lock       bool
	Only       []string
	Without    []string
	PoetryPath string
	NoAnsi     bool
}

func newRelaxCommand() *cobra.Command {
	opts := relaxOptions{}
	cmd := &cobra.Command{
		Use:   "relax",
		Short: "Relax caret constraints in pyproject.toml to lower bounds",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRelax(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Project, "project", "", "Project directory containing pyproject.toml")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report planned updates without calling the solver or writing")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "Verify the relaxed constraints can be solved without writing")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "Run the package installer after writing the constraints")
	cmd.Flags().BoolVar(&opts.Lock, "lock", false, "Refresh the lock file after writing the constraints")
	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "Groups to relax, all others untouched")
	cmd.Flags().StringSliceVar(&opts.Without, "without", nil, "Groups to leave untouched")
	cmd.Flags().StringVar(&opts.PoetryPath, "poetry-path", "", "Path to the poetry executable")
	cmd.Flags().BoolVar(&opts.NoAnsi, "no-ansi", false, "Pass --no-ansi to poetry invocations")
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("dry_run", cmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("check", cmd.Flags().Lookup("check"))
	_ = viper.BindPFlag("update", cmd.Flags().Lookup("update"))
	_ = viper.BindPFlag("lock", cmd.Flags().Lookup("lock"))
	_ = viper.BindPFlag("only", cmd.Flags().Lookup("only"))
	_ = viper.BindPFlag("without", cmd.Flags().Lookup("without"))
	_ = viper.BindPFlag("poetry_path", cmd.Flags().Lookup("poetry-path"))
	_ = viper.BindPFlag("no_ansi", cmd.Flags().Lookup("no-ansi"))
	return cmd
}

func runRelax(ctx context.Context, cmd *cobra.Command, opts relaxOptions) error {
	service := newAppService()
	_, err := service.Relax(ctx, app.RelaxRequest{
		ProjectDir: resolveString(cmd, opts.Project, "project", "project"),
		DryRun:     resolveBool(cmd, opts.DryRun, "dry_run", "dry-run"),
		Check:      resolveBool(cmd, opts.Check, "check", "check"),
		Update:     resolveBool(cmd, opts.Update, "update", "update"),
		Lock:       resolveBool(cmd, opts.Lock, "lock", "lock"),
		Only:       resolveStrings(cmd, opts.Only, "only", "only"),
		Without:    resolveStrings(cmd, opts.Without, "without", "without"),
		PoetryPath: resolveString(cmd, opts.PoetryPath, "poetry_path", "poetry-path"),
		NoAnsi:     resolveBool(cmd, opts.NoAnsi, "no_ansi", "no-ansi"),
	})
	return err
}
