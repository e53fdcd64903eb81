package topicscmder

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/farmguru/pkg/content"
	"github.com/papercomputeco/farmguru/pkg/render"
)

const topicsLongDesc string = `Print the farm guide topics, or the guidance for one topic.

Without arguments, lists every topic and its sections. With a topic key,
prints the topic intro and the selected section (the first one by
default), rendered for the terminal unless --raw is given.

Examples:
  farmguru topics
  farmguru topics organic-certification inspection
  farmguru topics sell-produce prepared-foods --raw`

const topicsShortDesc string = "Print the farm guide topics"

type topicsCommander struct {
	raw   bool
	width int
}

func NewTopicsCmd() *cobra.Command {
	cmder := &topicsCommander{}

	cmd := &cobra.Command{
		Use:   "topics [topic] [section]",
		Short: topicsShortDesc,
		Long:  topicsLongDesc,
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print markdown without rendering")
	cmd.Flags().IntVarP(&cmder.width, "width", "w", 0, "Wrap width (default: terminal width or 80)")

	return cmd
}

func (c *topicsCommander) run(_ context.Context, cmd *cobra.Command, args []string) error {
	navigator, err := content.NewNavigator()
	if err != nil {
		return fmt.Errorf("could not load topics: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		list(out, navigator.Topics())
		return nil
	}

	topic, ok := navigator.Lookup(args[0])
	if !ok {
		return fmt.Errorf("unknown topic %q (run \"farmguru topics\" to list them)", args[0])
	}

	sectionKey := ""
	if len(args) == 2 {
		sectionKey = args[1]
		if _, ok := topic.Section(sectionKey); !ok {
			return fmt.Errorf("topic %q has no section %q", topic.Key, sectionKey)
		}
	}

	if topic.Empty() {
		fmt.Fprintf(out, "%s: coming soon.\n", topic.Title)
		return nil
	}

	md := topic.Markdown(sectionKey)
	if c.raw {
		_, err := io.WriteString(out, md)
		return err
	}

	rendered, err := render.Markdown(md, c.renderOptions(out))
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func list(out io.Writer, topics []content.Topic) {
	for _, t := range topics {
		fmt.Fprintf(out, "%-24s %s\n", t.Key, t.Title)
		for _, s := range t.Sections {
			fmt.Fprintf(out, "  %-22s %s\n", s.Key, s.Title)
		}
	}
}

// renderOptions styles output for a terminal and falls back to plain text
// when stdout is redirected.
func (c *topicsCommander) renderOptions(out io.Writer) render.Options {
	opts := render.DefaultOptions()

	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		opts = opts.WithStyle(render.StyleNoTTY)
	} else if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		opts = opts.WithWidth(w)
	}

	if c.width > 0 {
		opts = opts.WithWidth(c.width)
	}
	return opts
}
