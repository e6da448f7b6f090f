package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"code.hybscloud.com/netfab/control"
)

// send dials the daemon at --addr and dispatches msg, matching every
// subcommand's one-shot request/reply pattern (spec.md §6's CLI table).
func send(cmd *cobra.Command, msg control.Message) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	client, err := control.Dial(addr)
	if err != nil {
		return errors.Wrap(err, "netfabctl")
	}
	defer client.Close()
	return client.Send(msg)
}

func newPreloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preload <module>",
		Short: "Accepted for CLI compatibility; does nothing (builtin factories are registered by the daemon)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// preload has no effect: the daemon registers every builtin
			// factory at startup, so this subcommand exists for CLI-surface
			// parity with spec.md §6. It neither contacts the daemon nor
			// checks that the named type is known.
			return nil
		},
	}
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <type>",
		Short: "Instantiate an FB factory as name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, control.Message{Cmd: control.Add, Name1: args[0], Type: args[1]})
		},
	}
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <k=v>",
		Short: "Send a SET_OPT event to an FB",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, control.Message{Cmd: control.Set, Name1: args[0], Option: args[1]})
		},
	}
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Unpublish an FB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, control.Message{Cmd: control.Rm, Name1: args[0]})
		},
	}
}

func newBindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bind <n1> <n2>",
		Short: "Bind n2's egress port to n1, and n1's ingress port to n2",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, control.Message{Cmd: control.Bind, Name1: args[0], Name2: args[1]})
		},
	}
}

func newUnbindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unbind <n1> <n2>",
		Short: "Reverse a previous bind between n1 and n2",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, control.Message{Cmd: control.Unbind, Name1: args[0], Name2: args[1]})
		},
	}
}

func newReplaceCmd() *cobra.Command {
	var dropPriv bool
	c := &cobra.Command{
		Use:   "replace <n1> <n2>",
		Short: "Replace n1's slot with n2",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, control.Message{Cmd: control.Replace, Name1: args[0], Name2: args[1], DropPriv: dropPriv})
		},
	}
	c.Flags().BoolVar(&dropPriv, "drop", false, "do not carry private state forward (replace-drop)")
	return c
}

func newSubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <n1> <n2>",
		Short: "n2 subscribes to events from n1",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, control.Message{Cmd: control.Subscribe, Name1: args[0], Name2: args[1]})
		},
	}
}

func newUnsubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <n1> <n2>",
		Short: "Reverse a previous subscribe between n1 and n2",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, control.Message{Cmd: control.Unsubscribe, Name1: args[0], Name2: args[1]})
		},
	}
}
