package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type updateOptions struct {
	RecentCommits int
}

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Download the latest emsdk release and refresh the release list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service := newAppService()
			result, err := service.Update(cmd.Context())
			if err != nil {
				return err
			}
			reportTot(cmd, result.Tot, result.GitMissing)
			return nil
		},
	}
}

func newUpdateTagsCommand() *cobra.Command {
	opts := updateOptions{}
	cmd := &cobra.Command{
		Use:   "update-tags",
		Short: "Refresh the newest release build known to exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			service := newAppService()
			service.Options.RecentCommits = resolveInt(cmd, opts.RecentCommits, "recent_commits", "commits")
			result, err := service.UpdateTags(cmd.Context())
			if err != nil {
				return err
			}
			reportTot(cmd, result.Tot, result.GitMissing)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.RecentCommits, "commits", 0, "Releases commits to probe for published builds (0 = default)")
	_ = viper.BindPFlag("recent_commits", cmd.Flags().Lookup("commits"))
	return cmd
}

func reportTot(cmd *cobra.Command, tot string, gitMissing bool) {
	out := cmd.OutOrStdout()
	switch {
	case gitMissing:
		fmt.Fprintln(out, renderWarn("git not found, release tags not refreshed"))
	case tot == "":
		fmt.Fprintln(out, renderWarn("no recent release build found"))
	default:
		fmt.Fprintln(out, renderOK("tip-of-tree build: "+tot))
	}
}
