package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidbridge/vidbridge/bridge"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/config"
	"github.com/vidbridge/vidbridge/icon"
	"github.com/vidbridge/vidbridge/key"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/style"
	"github.com/vidbridge/vidbridge/util"
)

func init() {
	rootCmd.AddCommand(bridgeCmd)
	bridgeCmd.Flags().BoolP("quiet", "q", false, "Do not print instance changes")
}

// bridgeCmd tracks the playback pages of a channel and answers controllers.
var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Track live playback pages and answer controller heartbeats",
	Run: func(cmd *cobra.Command, args []string) {
		quiet := lo.Must(cmd.Flags().GetBool("quiet"))

		client, err := dial(cmd.Context())
		handleErr(err)
		defer client.Close()

		b, err := bridge.New(client, bridge.WithTTL(config.Millis(key.BridgeControllerTTL)),
			bridge.WithInstanceTTL(config.Millis(key.BridgeInstanceTTL)),
		)
		handleErr(err)
		defer b.Close()

		if !quiet {
			b.OnChange(func(instances protocol.Instances) {
				fmt.Printf("%s %s\n",
					style.Fg(color.Purple)(icon.Get(icon.Live)),
					util.Quantify(len(instances), "instance", "instances"),
				)
				for _, instance := range instances {
					fmt.Printf("  %s\n", style.Faint(instance.String()))
				}
			})
		}

		fmt.Printf("%s bridge running\n", style.Fg(color.Green)(icon.Get(icon.Success)))

		signals := make(chan os.Signal, 1)
		signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signals)

		select {
		case <-signals:
		case <-client.Done():
			handleErr(fmt.Errorf("relay connection lost"))
		}
	},
}
