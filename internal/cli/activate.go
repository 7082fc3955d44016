package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"emsdk/internal/app"
	"emsdk/internal/types"
)

type activateOptions struct {
	Global    bool
	Permanent bool
	Embedded  bool
	System    bool
	BuildType string
}

func newActivateCommand() *cobra.Command {
	opts := activateOptions{}
	cmd := &cobra.Command{
		Use:   "activate [flags] <tool or sdk>...",
		Short: "Make the given tools active and write the configuration record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireNames(args, "activate"); err != nil {
				return err
			}
			return runActivate(cmd.Context(), cmd, opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.Global, "global", false, "Also persist the environment for the current user")
	cmd.Flags().BoolVar(&opts.Permanent, "permanent", false, "Alias of --global")
	cmd.Flags().BoolVar(&opts.Embedded, "embedded", false, "Keep the configuration record inside the SDK root")
	cmd.Flags().BoolVar(&opts.System, "system", false, "Persist the environment machine-wide (with --global)")
	cmd.Flags().StringVar(&opts.BuildType, "build", "", "CMake build type the activated source builds were made with")
	_ = cmd.Flags().MarkHidden("permanent")

	_ = viper.BindPFlag("embedded", cmd.Flags().Lookup("embedded"))
	return cmd
}

func runActivate(ctx context.Context, cmd *cobra.Command, opts activateOptions, names []string) error {
	buildType, err := canonicalBuildType(resolveString(cmd, opts.BuildType, "build_type", "build"))
	if err != nil {
		return err
	}
	service := newAppService()
	service.Options.BuildType = buildType

	result, err := service.Activate(ctx, app.ActivateRequest{
		Names:    names,
		Embedded: resolveBool(cmd, opts.Embedded, "embedded", "embedded"),
		Global:   opts.Global || opts.Permanent,
		System:   opts.System,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Setting the following tools as active:")
	for _, name := range result.Active {
		fmt.Fprintln(out, "   "+name)
	}
	fmt.Fprintln(out)
	log.Ctx(ctx).Info().Str("path", result.ConfigPath).Msg("wrote configuration record")
	log.Ctx(ctx).Debug().Str("path", result.ScriptPath).Msg("wrote environment script")
	if opts.Global || opts.Permanent {
		fmt.Fprintln(out, renderOK("environment persisted for "+scopeName(opts.System)))
	}
	app.EmitHints(cmd.ErrOrStderr(), service.ActivationHints(result))
	return nil
}

func scopeName(system bool) string {
	if system {
		return "all users"
	}
	return "the current user"
}

type constructEnvOptions struct {
	Permanent bool
}

func newConstructEnvCommand() *cobra.Command {
	opts := constructEnvOptions{}
	cmd := &cobra.Command{
		Use:     "construct_env [outfile]",
		Aliases: []string{"construct-env"},
		Short:   "Write a shell script that applies the active tools' environment",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConstructEnv(cmd.Context(), cmd, opts, args)
		},
	}
	cmd.Flags().BoolVar(&opts.Permanent, "permanent", false, "Emit persistent assignments (SETX on cmd)")
	return cmd
}

func runConstructEnv(ctx context.Context, cmd *cobra.Command, opts constructEnvOptions, args []string) error {
	req := app.ConstructEnvRequest{Permanent: opts.Permanent}
	if len(args) == 1 {
		// Older wrapper scripts pass "perm" in place of an outfile.
		if strings.Contains(args[0], "perm") {
			req.Permanent = true
		} else {
			req.Outfile = args[0]
		}
	}
	service := newAppService()
	result, err := service.ConstructEnv(ctx, req)
	if err != nil {
		return err
	}
	printEnvChange(cmd.ErrOrStderr(), result.Change)
	log.Ctx(ctx).Debug().Str("path", result.Outfile).Msg("wrote environment script")
	return nil
}

func printEnvChange(w io.Writer, change types.EnvChangeSet) {
	if len(change.AddedPath) > 0 {
		fmt.Fprintln(w, "Adding directories to PATH:")
		for _, dir := range change.AddedPath {
			fmt.Fprintln(w, "PATH += "+dir)
		}
		fmt.Fprintln(w)
	}
	if len(change.Vars) > 0 {
		fmt.Fprintln(w, "Setting environment variables:")
		for _, v := range change.Vars {
			fmt.Fprintf(w, "%s = %s\n", v.Key, v.Value)
		}
	}
}
