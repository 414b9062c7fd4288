package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/muesli/reflow/truncate"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/config"
	"github.com/vidbridge/vidbridge/key"
	"github.com/vidbridge/vidbridge/observer"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/registry"
	"github.com/vidbridge/vidbridge/style"
	"github.com/vidbridge/vidbridge/util"
)

var errNoSnapshot = errors.New("no answer from a bridge, is one running on this channel?")

func init() {
	rootCmd.AddCommand(tabsCmd)
	tabsCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	tabsCmd.SetOut(os.Stdout)
}

// tabsCmd prints the live instances of the channel once.
var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "List the live playback pages of the channel",
	Run: func(cmd *cobra.Command, args []string) {
		asJson := lo.Must(cmd.Flags().GetBool("json"))

		client, reg, err := openRegistry(cmd.Context())
		handleErr(err)
		defer client.Close()
		defer reg.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.Seconds(key.ControllerDiscoveryTimeout))
		defer cancel()

		tabs, err := discover(ctx, reg)
		handleErr(err)

		if asJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(tabs))
			return
		}

		cmd.Println(style.Bold(util.Quantify(len(tabs), "instance", "instances")))

		width := util.TerminalWidth(80) - 12
		for _, instance := range tabs {
			cmd.Printf("  %s %s\n",
				style.Fg(color.Purple)(fmt.Sprintf("#%-8d", instance.TabID)),
				truncate.StringWithTail(instance.Src, uint(util.Max(width, 8)), "…"),
			)
		}
	},
}

// discover runs a heartbeat until the first snapshot arrives or ctx ends.
func discover(ctx context.Context, reg *registry.Registry) (protocol.Instances, error) {
	snapshots := make(chan protocol.Instances, 1)
	cb := observer.Func(func(tabs protocol.Instances) {
		select {
		case snapshots <- tabs:
		default:
		}
	})
	reg.SubscribeTabs(cb)
	defer reg.UnsubscribeTabs(cb)

	reg.StartHeartbeat()
	defer reg.StopHeartbeat()

	select {
	case tabs := <-snapshots:
		return tabs, nil
	case <-ctx.Done():
		return nil, errNoSnapshot
	}
}
