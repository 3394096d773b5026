package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/helio-assistant/helio/export"
	"github.com/ZanzyTHEbar/helio-assistant/helio/session"
)

const chatHelp = `Commands:
  /history          list questions, most recent first
  /show N           print question and answer N
  /search TEXT      find earlier questions and answers
  /export [PATH]    save the conversation as JSON
  /import PATH      load a saved conversation
  /reset            clear the conversation
  /quit             leave
`

const searchLimit = 5

func newChatCmd(a *app) *cobra.Command {
	var (
		plain bool
		style string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive solar energy Q&A session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctrl, _, err := a.buildSession(ctx, true)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			c := &chat{
				ctrl:       ctrl,
				out:        cmd.OutOrStdout(),
				render:     &renderer{out: cmd.OutOrStdout(), style: style, plain: plain},
				exportPath: a.cfg.Export.Path,
			}
			return c.run(ctx, cmd.InOrStdin())
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print answers without markdown styling")
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style for answers")
	return cmd
}

// chat is the interactive loop on top of a session controller.
type chat struct {
	ctrl       *session.Controller
	out        io.Writer
	render     *renderer
	exportPath string
}

func (c *chat) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(c.out, "Ask me anything about solar energy. Type /help for commands.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "/") {
			if quit := c.command(ctx, strings.TrimSpace(line)); quit {
				return nil
			}
			continue
		}
		c.render.outcome(c.ctrl.Handle(ctx, line))
	}
}

// command runs a slash command and reports whether the loop should stop.
func (c *chat) command(ctx context.Context, line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprint(c.out, chatHelp)
	case "/history":
		c.history()
	case "/show":
		c.show(arg)
	case "/search":
		c.search(ctx, arg)
	case "/export":
		c.exportTo(arg)
	case "/import":
		c.importFrom(ctx, arg)
	case "/reset":
		c.ctrl.Reset(ctx)
		fmt.Fprintln(c.out, "Conversation cleared.")
	default:
		fmt.Fprintf(c.out, "Unknown command %s. Type /help for commands.\n", name)
	}
	return false
}

func (c *chat) history() {
	recent := c.ctrl.Recent()
	if len(recent) == 0 {
		fmt.Fprintln(c.out, "No questions yet.")
		return
	}
	for i, e := range recent {
		fmt.Fprintf(c.out, "%3d. %s\n", len(recent)-i, preview(e.Question))
	}
}

func (c *chat) show(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintln(c.out, "Usage: /show N")
		return
	}
	e, err := c.ctrl.EntryAt(n - 1)
	if err != nil {
		fmt.Fprintf(c.out, "No entry %d: %v\n", n, err)
		return
	}
	fmt.Fprintf(c.out, "Q: %s\n", e.Question)
	c.render.answer(e.Answer)
}

func (c *chat) search(ctx context.Context, text string) {
	if text == "" {
		fmt.Fprintln(c.out, "Usage: /search TEXT")
		return
	}
	hits, err := c.ctrl.Search(ctx, text, searchLimit)
	if err != nil {
		fmt.Fprintf(c.out, "Search failed: %v\n", err)
		return
	}
	if len(hits) == 0 {
		fmt.Fprintln(c.out, "No matches.")
		return
	}
	for _, h := range hits {
		fmt.Fprintf(c.out, "%3d. %s\n", h.Position+1, preview(h.Entry.Question))
	}
}

func (c *chat) exportTo(path string) {
	if path == "" {
		path = c.exportPath
	}
	doc := c.ctrl.Export()
	if err := export.WriteFile(path, doc); err != nil {
		fmt.Fprintf(c.out, "Export failed: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Saved %d entries to %s\n", len(doc), path)
}

func (c *chat) importFrom(ctx context.Context, path string) {
	if path == "" {
		fmt.Fprintln(c.out, "Usage: /import PATH")
		return
	}
	doc, err := export.ReadFile(path)
	if err != nil {
		fmt.Fprintf(c.out, "Import failed: %v\n", err)
		return
	}
	c.ctrl.Import(ctx, doc)
	fmt.Fprintf(c.out, "Loaded %d entries from %s\n", len(doc), path)
}
