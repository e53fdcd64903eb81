package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	askcmder "github.com/papercomputeco/farmguru/cmd/farmguru/ask"
	guidecmder "github.com/papercomputeco/farmguru/cmd/farmguru/guide"
	servecmder "github.com/papercomputeco/farmguru/cmd/farmguru/serve"
	"github.com/papercomputeco/farmguru/cmd/farmguru/setup"
	topicscmder "github.com/papercomputeco/farmguru/cmd/farmguru/topics"
)

const rootLongDesc string = `Farm Guru guides farmers through organic certification and
selling produce, and answers questions through an AI assistant.

Run without a command to open the interactive guide.`

func newRootCmd() *cobra.Command {
	var flags setup.Flags

	cmd := &cobra.Command{
		Use:           "farmguru",
		Short:         "A guide and assistant for small farms",
		Long:          rootLongDesc,
		Version:       setup.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return guidecmder.Run(cmd.Context(), flags)
		},
	}

	setup.AddFlags(cmd, &flags)

	cmd.AddCommand(guidecmder.NewGuideCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(topicscmder.NewTopicsCmd())
	cmd.AddCommand(servecmder.NewServeCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
