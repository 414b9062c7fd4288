// Package cmd implements the command-line interface for vidbridge.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/config"
	"github.com/vidbridge/vidbridge/constant"
	"github.com/vidbridge/vidbridge/icon"
	"github.com/vidbridge/vidbridge/key"
	"github.com/vidbridge/vidbridge/log"
	"github.com/vidbridge/vidbridge/registry"
	"github.com/vidbridge/vidbridge/relay"
	"github.com/vidbridge/vidbridge/style"
	"github.com/vidbridge/vidbridge/tui"
	"github.com/vidbridge/vidbridge/version"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringP("relay", "R", "", "Websocket URL of the relay")
	lo.Must0(viper.BindPFlag(key.TransportRelayURL, rootCmd.PersistentFlags().Lookup("relay")))

	rootCmd.PersistentFlags().StringP("channel", "C", "", "Broadcast channel shared with the playback pages")
	lo.Must0(viper.BindPFlag(key.TransportChannel, rootCmd.PersistentFlags().Lookup("channel")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})
}

// rootCmd opens the controller for the configured channel.
var rootCmd = &cobra.Command{
	Use:   constant.App,
	Short: "Remote control for video playback pages",
	Long: style.New().Bold(true).Foreground(color.HiPurple).Render(constant.App) + "\n" +
		style.New().Italic(true).Foreground(color.HiCyan).Render("    - Remote control for video playback pages over a broadcast channel"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		client, reg, err := openRegistry(cmd.Context())
		handleErr(err)
		defer client.Close()
		defer reg.Close()

		reg.StartHeartbeat()

		options := tui.Options{
			Registry:       reg,
			VersionTimeout: config.Seconds(key.ControllerVersionTimeout),
		}
		handleErr(tui.Run(&options))
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// dial connects to the configured relay channel.
func dial(ctx context.Context) (*relay.Client, error) {
	base := viper.GetString(key.TransportRelayURL)
	channel := viper.GetString(key.TransportChannel)

	client, err := relay.Dial(ctx, base, channel)
	if err != nil {
		return nil, fmt.Errorf("relay %s: %w", base, err)
	}

	log.Infof("connected to channel %q on %s", channel, base)
	return client, nil
}

// openRegistry dials the relay and builds a controller registry on it.
// The heartbeat is left to the caller.
func openRegistry(ctx context.Context) (*relay.Client, *registry.Registry, error) {
	client, err := dial(ctx)
	if err != nil {
		return nil, nil, err
	}

	reg, err := registry.New(client, registry.WithInterval(config.Millis(key.ControllerHeartbeatInterval)))
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return client, reg, nil
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
