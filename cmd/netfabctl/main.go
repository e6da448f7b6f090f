// Command netfabctl is the external control CLI for a running netfabd
// daemon (spec.md §6's "CLI (external collaborator)"). It speaks the
// control.Message protocol over a loopback transport and exits non-zero
// with a message on stderr on failure.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "netfabctl",
		Short:         "Control a running netfab packet-processing daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("addr", "127.0.0.1:7790", "netfabd control address")

	root.AddCommand(
		newPreloadCmd(),
		newAddCmd(),
		newSetCmd(),
		newRmCmd(),
		newBindCmd(),
		newUnbindCmd(),
		newReplaceCmd(),
		newSubscribeCmd(),
		newUnsubscribeCmd(),
	)
	return root
}
