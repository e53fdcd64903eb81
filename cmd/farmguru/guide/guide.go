package guidecmder

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/farmguru/cmd/farmguru/setup"
	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/content"
	"github.com/papercomputeco/farmguru/pkg/logger"
	"github.com/papercomputeco/farmguru/pkg/tui"
)

const guideLongDesc string = `Open the interactive farm guide.

Browse organic certification steps and selling rules from the menu,
and toggle "Chat with Farm Guru" to ask questions. Replies stream in
as they are written. Turning chat off forgets the conversation.

Logs go to log_file from the config file, or nowhere.

Examples:
  farmguru guide
  farmguru guide --config ./farmguru.toml`

const guideShortDesc string = "Open the interactive farm guide"

type guideCommander struct {
	flags setup.Flags
}

func NewGuideCmd() *cobra.Command {
	cmder := &guideCommander{}

	cmd := &cobra.Command{
		Use:   "guide",
		Short: guideShortDesc,
		Long:  guideLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(cmd.Context(), cmder.flags)
		},
	}

	setup.AddFlags(cmd, &cmder.flags)

	return cmd
}

// Run opens the guide with the given flags.
func Run(ctx context.Context, flags setup.Flags) error {
	cfg, _, err := setup.LoadConfig(flags)
	if err != nil {
		return err
	}

	log, closeLog, err := logger.NewFileLogger(cfg.LogFile, cfg.Debug)
	if err != nil {
		return err
	}
	defer closeLog()

	navigator, err := content.NewNavigator()
	if err != nil {
		return fmt.Errorf("could not load topics: %w", err)
	}

	completer, err := setup.NewCompleter(cfg, log)
	if err != nil {
		if !errors.Is(err, setup.ErrMissingAPIKey) {
			return err
		}
		// The guide is still useful without chat, which reports the problem
		log.Warn("chat unavailable", zap.Error(err))
		completer = unavailable{err: err}
	}

	m := tui.New(tui.Options{
		Manager:   chat.NewManager(completer, cfg.ChatConfig(), log),
		Navigator: navigator,
		Logger:    log,
		Render:    cfg.RenderOptions(0),
	})

	log.Info("guide started", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))
	return tui.Run(ctx, m)
}
