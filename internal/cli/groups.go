package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pyrelax/internal/app"
)

type groupsOptions struct {
	Project string
	Format  string
}

func newGroupsCommand() *cobra.Command {
	opts := groupsOptions{}
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "List dependency groups declared in the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGroups(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Project, "project", "", "Project directory containing pyproject.toml")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "Output format (text, json, yaml)")
	_ = viper.BindPFlag("project", cmd.Flags().Lookup("project"))
	_ = viper.BindPFlag("format", cmd.Flags().Lookup("format"))
	return cmd
}

func runGroups(ctx context.Context, cmd *cobra.Command, opts groupsOptions) error {
	format, err := parseOutputFormat(resolveString(cmd, opts.Format, "format", "format"))
	if err != nil {
		return err
	}
	service := newAppService()
	_, err = service.Groups(ctx, app.GroupsRequest{
		ProjectDir: resolveString(cmd, opts.Project, "project", "project"),
		Format:     format,
	})
	return err
}
