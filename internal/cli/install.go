package cli

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"emsdk/internal/app"
)

type installOptions struct {
	Jobs              int
	BuildType         string
	Generator         string
	Shallow           bool
	BuildTests        bool
	EnableAssertions  bool
	DisableAssertions bool
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install [flags] <tool or sdk>...",
		Short: "Download and install the given tools or SDKs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireNames(args, "install"); err != nil {
				return err
			}
			return runInstall(cmd.Context(), cmd, opts, args)
		},
	}
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "Parallel jobs for source builds (0 = cores minus one)")
	cmd.Flags().StringVar(&opts.BuildType, "build", "", "CMake build type: Debug, Release, RelWithDebInfo or MinSizeRel")
	cmd.Flags().StringVar(&opts.Generator, "generator", "", "CMake generator for source builds")
	cmd.Flags().BoolVar(&opts.Shallow, "shallow", false, "Clone git sources with --depth 1")
	cmd.Flags().BoolVar(&opts.BuildTests, "build-tests", false, "Build the test suites of source-built tools")
	cmd.Flags().BoolVar(&opts.EnableAssertions, "enable-assertions", false, "Force assertions on in source builds")
	cmd.Flags().BoolVar(&opts.DisableAssertions, "disable-assertions", false, "Force assertions off in source builds")
	cmd.MarkFlagsMutuallyExclusive("enable-assertions", "disable-assertions")

	_ = viper.BindPFlag("jobs", cmd.Flags().Lookup("jobs"))
	_ = viper.BindPFlag("build_type", cmd.Flags().Lookup("build"))
	_ = viper.BindPFlag("generator", cmd.Flags().Lookup("generator"))
	_ = viper.BindPFlag("shallow", cmd.Flags().Lookup("shallow"))
	_ = viper.BindPFlag("build_tests", cmd.Flags().Lookup("build-tests"))
	return cmd
}

func runInstall(ctx context.Context, cmd *cobra.Command, opts installOptions, names []string) error {
	buildType, err := canonicalBuildType(resolveString(cmd, opts.BuildType, "build_type", "build"))
	if err != nil {
		return err
	}
	service := newAppService()
	service.Options.BuildType = buildType
	service.Options.Install.Assertions = assertionsMode(opts, viper.GetString("assertions"))

	result, err := service.Install(ctx, app.InstallRequest{Names: names})
	out := cmd.OutOrStdout()
	for _, name := range result.Installed {
		fmt.Fprintln(out, renderOK("installed "+name))
	}
	for _, name := range result.Pruned {
		fmt.Fprintln(out, renderLabel("removed cached download "+name))
	}
	return err
}

// assertionsMode maps the two switches onto on, off or auto.
func assertionsMode(opts installOptions, configured string) string {
	switch {
	case opts.EnableAssertions:
		return "on"
	case opts.DisableAssertions:
		return "off"
	case configured != "":
		return configured
	default:
		return "auto"
	}
}

func newUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <tool or sdk>",
		Short: "Remove a previously installed tool or SDK",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := newAppService()
			if err := service.Uninstall(cmd.Context(), app.UninstallRequest{Name: args[0]}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderOK("uninstalled "+args[0]))
			return nil
		},
	}
}

func requireNames(names []string, command string) error {
	if len(names) > 0 {
		return nil
	}
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("missing parameter: 'emsdk %s' needs at least one tool or SDK name", command))
}
