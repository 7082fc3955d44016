package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"emsdk/internal/app"
	"emsdk/internal/types"
)

type listOptions struct {
	Old  bool
	Uses bool
}

func newListCommand() *cobra.Command {
	opts := listOptions{}
	cmd := &cobra.Command{
		Use:   "list [pattern...]",
		Short: "List the SDKs and tools available for download",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), cmd, opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.Old, "old", false, "Also list historical SDK versions")
	cmd.Flags().BoolVar(&opts.Uses, "uses", false, "Show the tools each entry depends on")
	_ = viper.BindPFlag("list_old", cmd.Flags().Lookup("old"))
	_ = viper.BindPFlag("list_uses", cmd.Flags().Lookup("uses"))
	return cmd
}

func runList(ctx context.Context, cmd *cobra.Command, opts listOptions, patterns []string) error {
	service := newAppService()
	result, err := service.List(ctx, app.ListRequest{
		Old:      resolveBool(cmd, opts.Old, "list_old", "old"),
		Uses:     resolveBool(cmd, opts.Uses, "list_uses", "uses"),
		Patterns: patterns,
	})
	if err != nil {
		return err
	}
	printList(cmd.OutOrStdout(), result, envScriptHint(service.Options.Shell))
	return nil
}

func printList(w io.Writer, result app.ListResult, sourceHint string) {
	if result.Precompiled && result.LatestVersion != "" {
		fmt.Fprintf(w, "The *recommended* precompiled SDK download is %s (%s).\n\n",
			bold.Render(result.LatestVersion), renderLabel(result.LatestHash))
		fmt.Fprintln(w, "To install/activate it use:")
		fmt.Fprintln(w, "         latest")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "This is equivalent to installing/activating:")
		fmt.Fprintf(w, "         %-45s%s\n", result.LatestVersion, installedLabel(result.LatestInstalled))
		fmt.Fprintln(w)
		fmt.Fprintln(w, header.Render("All recent (non-legacy) installable versions are:"))
		for _, release := range result.Releases {
			fmt.Fprintf(w, "         %-45s%s\n", release.Version, installedLabel(release.Installed))
		}
		fmt.Fprintln(w)
	}

	var precompiledSDKs, sourceSDKs, precompiledTools, sourceTools []app.ListEntry
	for _, sdk := range result.SDKs {
		if sdk.FromSource {
			sourceSDKs = append(sourceSDKs, sdk)
		} else {
			precompiledSDKs = append(precompiledSDKs, sdk)
		}
	}
	for _, tool := range result.Tools {
		if tool.FromSource {
			sourceTools = append(sourceTools, tool)
		} else {
			precompiledTools = append(precompiledTools, tool)
		}
	}

	printSection(w, "The additional following precompiled SDKs are also available for download:", precompiledSDKs)
	printSection(w, "The following SDKs can be compiled from source:", sourceSDKs)
	printSection(w, "The following precompiled tool packages are available for download:", precompiledTools)
	printSection(w, "The following tools can be compiled from source:", sourceTools)

	fmt.Fprintln(w, "Items marked with * are activated for the current user.")
	if hasShellInactive(result) {
		fmt.Fprintf(w, "Items marked with (*) are selected for use, but your current shell environment is not configured to use them. %s\n", sourceHint)
	}
	fmt.Fprintln(w, renderLabel("To access the historical archived versions, type 'emsdk list --old'"))
	fmt.Fprintln(w)
	if result.FromGit {
		fmt.Fprintln(w, renderLabel(`Run "git pull" to pull in the latest list.`))
	} else {
		fmt.Fprintln(w, renderLabel(`Run "./emsdk update" to pull in the latest list.`))
	}
}

func printSection(w io.Writer, title string, entries []app.ListEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(w, header.Render(title))
	for _, entry := range entries {
		fmt.Fprintln(w, formatEntry(entry))
	}
	fmt.Fprintln(w)
}

// formatEntry renders one line in the classic layout: an activation marker
// column, the name padded to 40 columns and the install state.
func formatEntry(entry app.ListEntry) string {
	marker := "    "
	switch {
	case entry.EnvActive:
		marker = "  " + statusOK.Render("*") + " "
	case entry.Active:
		marker = statusWarn.Render("(*)") + " "
	}
	line := fmt.Sprintf("%s    %-40s", marker, entry.Name)
	switch {
	case entry.Unavailable != "":
		line += statusError.Render("Not available: " + entry.Unavailable)
	case entry.Installed:
		line += installedLabel(true)
		if !entry.InstalledAt.IsZero() {
			line += " " + renderLabel(entry.InstalledAt.Local().Format("2006-01-02"))
		}
	}
	if len(entry.Uses) > 0 {
		line += "\n" + renderLabel("            uses: "+strings.Join(entry.Uses, ", "))
	}
	return line
}

func installedLabel(installed bool) string {
	if !installed {
		return ""
	}
	return statusOK.Render("INSTALLED")
}

func hasShellInactive(result app.ListResult) bool {
	for _, group := range [][]app.ListEntry{result.SDKs, result.Tools} {
		for _, entry := range group {
			if entry.Active && !entry.EnvActive {
				return true
			}
		}
	}
	return false
}

func envScriptHint(shell types.Shell) string {
	switch shell {
	case types.ShellCsh:
		return `Type "source ./emsdk_env.csh" to set up your current shell to use them.`
	case types.ShellPowerShell:
		return `Run "./emsdk_env.ps1" to set up your current shell to use them.`
	case types.ShellCmd:
		return `Run "emsdk_env.bat" to set up your current shell to use them.`
	default:
		return `Type "source ./emsdk_env.sh" to set up your current shell to use them.`
	}
}
