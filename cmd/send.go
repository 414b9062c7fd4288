package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/vidbridge/vidbridge/color"
	"github.com/vidbridge/vidbridge/config"
	"github.com/vidbridge/vidbridge/icon"
	"github.com/vidbridge/vidbridge/key"
	"github.com/vidbridge/vidbridge/protocol"
	"github.com/vidbridge/vidbridge/style"
	"github.com/vidbridge/vidbridge/util"
)

var sendable = []string{"play", "pause", "seek", "close"}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringP("match", "m", "", "Pick the instance whose source best matches this query")
	sendCmd.Flags().IntP("tab", "t", 0, "Pick the instance with this tab id")
	sendCmd.Flags().BoolP("all", "a", false, "Send to every live instance")
	sendCmd.MarkFlagsMutuallyExclusive("match", "tab", "all")
}

// sendCmd sends one command without opening the interface.
var sendCmd = &cobra.Command{
	Use:       "send <play|pause|seek|close> [seconds]",
	Short:     "Send a playback command to a live instance",
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: sendable,
	Example: `  vidbridge send pause --all
  vidbridge send seek 90 --match trailer`,
	Run: func(cmd *cobra.Command, args []string) {
		message, err := parseCommand(args[0], args[1:])
		handleErr(err)

		client, reg, err := openRegistry(cmd.Context())
		handleErr(err)
		defer client.Close()
		defer reg.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), config.Seconds(key.ControllerDiscoveryTimeout))
		defer cancel()

		tabs, err := discover(ctx, reg)
		handleErr(err)

		if len(tabs) == 0 {
			handleErr(errors.New("no live instances on this channel"))
		}

		if lo.Must(cmd.Flags().GetBool("all")) {
			handleErr(reg.PublishMessage(message))
			fmt.Printf("%s sent %s to %s\n",
				style.Fg(color.Green)(icon.Get(icon.Success)),
				style.Fg(color.Purple)(string(message.Command())),
				util.Quantify(len(tabs), "instance", "instances"),
			)
			return
		}

		var target mo.Option[protocol.Instance]
		switch {
		case cmd.Flags().Changed("match"):
			query := lo.Must(cmd.Flags().GetString("match"))
			target = matchInstance(tabs, query)
			if target.IsAbsent() {
				handleErr(fmt.Errorf("no instance matches %q", query))
			}
		case cmd.Flags().Changed("tab"):
			tab := lo.Must(cmd.Flags().GetInt("tab"))
			target = mo.TupleToOption(lo.Find(tabs, func(i protocol.Instance) bool { return i.TabID == tab }))
			if target.IsAbsent() {
				handleErr(fmt.Errorf("no instance with tab %d", tab))
			}
		case len(tabs) == 1:
			target = mo.Some(tabs[0])
		default:
			instance, err := promptInstance(tabs)
			handleErr(err)
			target = mo.Some(instance)
		}

		instance := target.MustGet()
		handleErr(reg.SendMessage(message, instance.TabID, instance.Src))
		fmt.Printf("%s sent %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(string(message.Command())),
			style.Bold(instance.String()),
		)
	},
}

// parseCommand turns a command name and its arguments into a message.
func parseCommand(name string, args []string) (protocol.Message, error) {
	switch name {
	case "play":
		return protocol.Play{}, nil
	case "pause":
		return protocol.Pause{}, nil
	case "close":
		return protocol.Close{}, nil
	case "seek", string(protocol.CommandCurrentTime):
		if len(args) == 0 {
			return nil, errors.New("seek needs a position in seconds")
		}
		seconds, err := strconv.ParseFloat(args[0], 64)
		if err != nil || seconds < 0 {
			return nil, fmt.Errorf("invalid position: %s", args[0])
		}
		return protocol.CurrentTime{CurrentTime: seconds}, nil
	default:
		return nil, fmt.Errorf("unknown command %s, expected one of %v", style.Fg(color.Red)(name), sendable)
	}
}

// matchInstance returns the instance whose source is the closest fuzzy
// match for query.
func matchInstance(tabs protocol.Instances, query string) mo.Option[protocol.Instance] {
	sources := lo.Map(tabs, func(i protocol.Instance, _ int) string { return i.Src })

	ranks := fuzzy.RankFindNormalizedFold(query, sources)
	if len(ranks) == 0 {
		return mo.None[protocol.Instance]()
	}

	sort.Stable(ranks)
	return mo.Some(tabs[ranks[0].OriginalIndex])
}

func promptInstance(tabs protocol.Instances) (protocol.Instance, error) {
	options := lo.Map(tabs, func(i protocol.Instance, _ int) string { return i.String() })

	var index int
	err := survey.AskOne(&survey.Select{
		Message: "Which instance?",
		Options: options,
	}, &index)
	if err != nil {
		return protocol.Instance{}, err
	}

	return tabs[index], nil
}
