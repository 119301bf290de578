package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/forum"
	"github.com/hupe1980/lyceum/internal/console"
)

var (
	chatMode   string
	chatAttach string
)

func newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chair a forum session in the terminal",
		Long: `Start an interactive forum session. Plain lines are addressed to the
current target persona; type /help for the command list.`,
		RunE: runChat,
	}

	cmd.Flags().StringVarP(&chatMode, "mode", "m", "", "Initial discourse mode (Conference, Workshop, Lab)")
	cmd.Flags().StringVarP(&chatAttach, "attach", "a", "", "Text document to stage as anchor")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	_, lyc, _, sync, err := bootstrap(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = sync() }()

	var optFns []func(o *forum.Options)
	if chatMode != "" {
		mode, err := core.ParseMode(chatMode)
		if err != nil {
			return err
		}
		optFns = append(optFns, func(o *forum.Options) { o.Mode = mode })
	}

	f := lyc.Forums().Create(optFns...)
	defer lyc.Forums().Delete(f.ID)

	c := console.New(lyc, f, cmd.OutOrStdout())

	if chatAttach != "" {
		if _, err := c.Execute(ctx, "/attach "+chatAttach); err != nil {
			return err
		}
	}

	return c.Run(ctx, cmd.InOrStdin())
}
