package askcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/farmguru/cmd/farmguru/setup"
	"github.com/papercomputeco/farmguru/pkg/chat"
	"github.com/papercomputeco/farmguru/pkg/llm"
	"github.com/papercomputeco/farmguru/pkg/logger"
)

const askLongDesc string = `Ask Farm Guru a question from the command line.

With a question, the reply is streamed to stdout and the command exits.
Without one, every line read from stdin is asked in turn within the same
conversation, so follow-up questions keep their context.

With --server, questions are sent to a running "farmguru serve"
instead of the configured provider.

Examples:
  farmguru ask "How do I start an Organic System Plan?"
  farmguru ask < questions.txt
  farmguru ask --server http://localhost:8080 "Can I sell jam from home?"`

const askShortDesc string = "Ask Farm Guru a question"

type askCommander struct {
	flags     setup.Flags
	serverURL string

	// completer replaces the configured provider when set
	completer llm.Completer
}

// asker runs one conversation, locally or against a server.
type asker interface {
	ask(ctx context.Context, question string, out io.Writer) error
	close(ctx context.Context) error
}

func NewAskCmd() *cobra.Command {
	return newAskCmd(&askCommander{})
}

func newAskCmd(cmder *askCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: askShortDesc,
		Long:  askLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	setup.AddFlags(cmd, &cmder.flags)
	cmd.Flags().StringVar(&cmder.serverURL, "server", "", "URL of a farmguru server to ask instead of the provider")

	return cmd
}

func (c *askCommander) run(ctx context.Context, cmd *cobra.Command, question string) error {
	a, err := c.newAsker()
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	out := cmd.OutOrStdout()

	if strings.TrimSpace(question) != "" {
		return a.ask(ctx, question, out)
	}

	return c.repl(ctx, cmd, a)
}

// repl asks every non-blank line of input. Failed questions are reported and
// the conversation continues.
func (c *askCommander) repl(ctx context.Context, cmd *cobra.Command, a asker) error {
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()
	interactive := isTerminal(in)

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "you> ")
		}
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := a.ask(ctx, line, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}

	return scanner.Err()
}

func (c *askCommander) newAsker() (asker, error) {
	if c.serverURL != "" {
		return newRemoteAsker(c.serverURL)
	}

	cfg, _, err := setup.LoadConfig(c.flags)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logger.NewFileLogger(cfg.LogFile, cfg.Debug)
	if err != nil {
		return nil, err
	}

	var manager *chat.Manager
	if c.completer != nil {
		manager = chat.NewManager(c.completer, cfg.ChatConfig(), log)
	} else {
		manager, err = setup.NewManager(cfg, log)
		if err != nil {
			closeLog()
			return nil, err
		}
	}

	return &localAsker{
		manager:  manager,
		session:  manager.NewSession(),
		closeLog: closeLog,
	}, nil
}

type localAsker struct {
	manager  *chat.Manager
	session  *chat.Session
	closeLog func() error
}

func (a *localAsker) ask(ctx context.Context, question string, out io.Writer) error {
	p := &printer{out: out}

	_, err := a.manager.Submit(ctx, a.session, question, chat.HandlerFuncs{
		Fragment: p.partial,
	})
	p.finish()
	return err
}

func (a *localAsker) close(context.Context) error {
	a.session.Close()
	return a.closeLog()
}

// printer writes a growing reply to out as it arrives.
type printer struct {
	out     io.Writer
	written int
}

func (p *printer) partial(text string) {
	if len(text) <= p.written {
		return
	}
	io.WriteString(p.out, text[p.written:])
	p.written = len(text)
}

// finish ends the reply line. Nothing was printed for failed requests.
func (p *printer) finish() {
	if p.written > 0 {
		io.WriteString(p.out, "\n")
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
