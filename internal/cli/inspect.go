package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyrelax/internal/app"
	"pyrelax/internal/types"
)

type inspectOptions struct {
	Project string
	Format  string
	Locked  bool
	Only    []string
	Without []string
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Report constraints, caret origins, and planned relaxations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Project, "project", "", "Project directory containing pyproject.toml")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&opts.Locked, "locked", false, "Annotate entries with versions pinned in poetry.lock")
	cmd.Flags().StringSliceVar(&opts.Only, "only", nil, "Groups to include, all others hidden")
	cmd.Flags().StringSliceVar(&opts.Without, "without", nil, "Groups to hide")
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("locked", cmd.Flags().Lookup("locked"))
	_ = viper.BindPFlag("only", cmd.Flags().Lookup("only"))
	_ = viper.BindPFlag("without", cmd.Flags().Lookup("without"))
	return cmd
}

func runInspect(ctx context.Context, cmd *cobra.Command, opts inspectOptions) error {
	format, err := parseOutputFormat(resolveString(cmd, opts.Format, "format", "format"))
	if err != nil {
		return err
	}
	service := newAppService()
	_, err = service.Inspect(ctx, app.InspectRequest{
		ProjectDir: resolveString(cmd, opts.Project, "project", "project"),
		Format:     format,
		Locked:     resolveBool(cmd, opts.Locked, "locked", "locked"),
		Only:       resolveStrings(cmd, opts.Only, "only", "only"),
		Without:    resolveStrings(cmd, opts.Without, "without", "without"),
	})
	return err
}

func parseOutputFormat(value string) (types.OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(types.OutputFormatText):
		return types.OutputFormatText, nil
	case string(types.OutputFormatJSON):
		return types.OutputFormatJSON, nil
	case string(types.OutputFormatYAML):
		return types.OutputFormatYAML, nil
	default:
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid output format %q", value))
	}
}
