// Package cli provides a terminal front end for a chat session: a line
// based conversation loop with slash commands for page and settings
// management.
//
// Example usage:
//
//	executor := cli.NewExecutor(session, repo, cli.NewURLTabs(),
//	    cli.WithRenderer(renderer),
//	)
//	if err := executor.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/entrhq/pagechat/pkg/chat"
	"github.com/entrhq/pagechat/pkg/extract"
	"github.com/entrhq/pagechat/pkg/logging"
	"github.com/entrhq/pagechat/pkg/settings"
	"github.com/entrhq/pagechat/pkg/types"
)

// Notification texts printed by the executor.
const (
	MsgSettingsSaved = "API settings saved successfully!"
	MsgNoActiveTab   = "No active tab found"
	MsgCopied        = "Copied last reply to clipboard"
)

// Tabs opens pages and reports the tab in front.
type Tabs interface {
	Open(ctx context.Context, url string) (extract.Tab, error)
	Active() (extract.Tab, bool)
}

// Renderer formats assistant replies for the terminal.
type Renderer interface {
	Render(markdown string) (string, error)
}

type plainRenderer struct{}

func (plainRenderer) Render(s string) (string, error) { return s + "\n", nil }

// Executor runs the conversation loop for one session.
type Executor struct {
	session  *chat.Session
	settings *settings.Repository
	tabs     Tabs
	reader   *bufio.Reader
	writer   io.Writer
	renderer Renderer
	copy     func(string) error

	lastReply string
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithReader sets the input source (default is os.Stdin).
func WithReader(r io.Reader) ExecutorOption {
	return func(e *Executor) {
		e.reader = bufio.NewReader(r)
	}
}

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// WithRenderer sets the reply renderer (default prints replies verbatim).
func WithRenderer(r Renderer) ExecutorOption {
	return func(e *Executor) {
		if r != nil {
			e.renderer = r
		}
	}
}

// WithClipboard replaces the system clipboard used by /copy.
func WithClipboard(write func(string) error) ExecutorOption {
	return func(e *Executor) {
		e.copy = write
	}
}

// NewExecutor creates a new CLI executor for session.
func NewExecutor(session *chat.Session, repo *settings.Repository, tabs Tabs, opts ...ExecutorOption) *Executor {
	e := &Executor{
		session:  session,
		settings: repo,
		tabs:     tabs,
		reader:   bufio.NewReader(os.Stdin),
		writer:   os.Stdout,
		renderer: plainRenderer{},
		copy:     clipboard.WriteAll,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run starts the conversation loop. It returns when the user quits, input
// ends or ctx is canceled.
func (e *Executor) Run(ctx context.Context) error {
	e.printWelcome()
	e.flushEvents()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Fprint(e.writer, promptStyle.Render("> "))
		input, err := e.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read input: %w", err)
		}
		eof := err == io.EOF

		input = strings.TrimSpace(input)
		if input != "" {
			if quit := e.handleInput(ctx, input); quit {
				return nil
			}
			e.flushEvents()
		}

		if eof {
			fmt.Fprintln(e.writer)
			return nil
		}
	}
}

func (e *Executor) printWelcome() {
	fmt.Fprintln(e.writer, headerStyle.Render("pagechat"))
	if active := e.session.Active(); active != nil {
		fmt.Fprintln(e.writer, tipsStyle.Render(fmt.Sprintf("Using %s (%s)", active.Name, active.Provider.Label())))
	} else {
		fmt.Fprintln(e.writer, tipsStyle.Render("No API setting configured. Add one with /add <name> <provider> <api-key> [model]"))
	}
	fmt.Fprintln(e.writer, tipsStyle.Render("Type a question about the page, or /help for commands."))
	fmt.Fprintln(e.writer)
}

// handleInput dispatches one line and reports whether the loop should end.
func (e *Executor) handleInput(ctx context.Context, input string) bool {
	if input == "exit" || input == "quit" {
		return true
	}
	if !strings.HasPrefix(input, "/") {
		e.send(ctx, input)
		return false
	}

	fields := strings.Fields(input)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		e.printHelp()
	case "/refresh":
		e.refresh(ctx)
	case "/open":
		e.open(ctx, args)
	case "/clear":
		e.session.ClearMessages(ctx)
		fmt.Fprintln(e.writer, tipsStyle.Render("Conversation cleared"))
	case "/switch":
		e.switchSetting(ctx, args)
	case "/settings":
		e.listSettings(ctx)
	case "/add":
		e.addSetting(ctx, args)
	case "/remove":
		e.removeSetting(ctx, args)
	case "/copy":
		e.copyLastReply()
	default:
		e.printError(fmt.Sprintf("Unknown command: %s (try /help)", cmd))
	}
	return false
}

func (e *Executor) printHelp() {
	lines := []string{
		"/open <url>                              open a page and read it",
		"/refresh                                 re-read the active page",
		"/clear                                   clear the conversation",
		"/switch <name>                           use another API setting",
		"/settings                                list API settings",
		"/add <name> <provider> <key> [model]     add an API setting",
		"/remove <name>                           delete an API setting",
		"/copy                                    copy the last reply",
		"/quit                                    exit",
	}
	for _, line := range lines {
		fmt.Fprintln(e.writer, tipsStyle.Render(line))
	}
}

func (e *Executor) send(ctx context.Context, text string) {
	fmt.Fprintln(e.writer, thinkingStyle.Render("Thinking..."))

	reply, err := e.session.SendMessage(ctx, text)
	if err != nil || reply == nil {
		// Errors arrive as session notifications.
		return
	}

	e.lastReply = reply.Content
	rendered, renderErr := e.renderer.Render(reply.Content)
	if renderErr != nil {
		rendered = reply.Content + "\n"
	}
	fmt.Fprintln(e.writer, assistantStyle.Render("Assistant:"))
	fmt.Fprint(e.writer, rendered)
}

func (e *Executor) refresh(ctx context.Context) {
	tab, ok := e.tabs.Active()
	if !ok {
		e.printError(MsgNoActiveTab)
		return
	}
	e.session.RefreshPageContent(ctx, tab)
}

func (e *Executor) open(ctx context.Context, args []string) {
	if len(args) != 1 {
		e.printError("Usage: /open <url>")
		return
	}
	tab, err := e.tabs.Open(ctx, args[0])
	if err != nil {
		e.printError(types.ErrorMessage(err))
		return
	}
	if result := e.session.RefreshPageContent(ctx, tab); result.Success {
		fmt.Fprintln(e.writer, tipsStyle.Render(fmt.Sprintf("Reading %q (%s)", result.Content.Title, result.Content.URL)))
	}
}

func (e *Executor) switchSetting(ctx context.Context, args []string) {
	if len(args) == 0 {
		e.printError("Usage: /switch <name>")
		return
	}
	name := strings.Join(args, " ")
	if err := e.session.SwitchProvider(ctx, name); err != nil {
		return
	}
	fmt.Fprintln(e.writer, successStyle.Render(fmt.Sprintf("Switched to %s", name)))
}

func (e *Executor) listSettings(ctx context.Context) {
	all, err := e.settings.APISettings(ctx)
	if err != nil {
		e.printError(types.ErrorMessage(err))
		return
	}
	if len(all) == 0 {
		fmt.Fprintln(e.writer, tipsStyle.Render("No API settings"))
		return
	}

	active := e.session.Active()
	for _, s := range all {
		marker := "  "
		if active != nil && active.Name == s.Name {
			marker = "* "
		}
		line := fmt.Sprintf("%s%s  %s  %s", marker, s.Name, s.Provider.Label(), logging.MaskKey(s.APIKey))
		if s.Model != "" {
			line += "  " + s.Model
		}
		fmt.Fprintln(e.writer, line)
	}
}

func (e *Executor) addSetting(ctx context.Context, args []string) {
	if len(args) < 3 || len(args) > 4 {
		e.printError("Usage: /add <name> <provider> <api-key> [model]")
		return
	}

	provider := types.ProviderID(strings.ToLower(args[1]))
	if !provider.Known() {
		e.printError(fmt.Sprintf("Unknown provider: %s", args[1]))
		return
	}

	setting := settings.APISetting{Name: args[0], Provider: provider, APIKey: args[2]}
	if len(args) == 4 {
		setting.Model = args[3]
	}

	if err := e.settings.Add(ctx, setting); err != nil {
		e.printError(types.ErrorMessage(err))
		return
	}
	e.printSuccess(MsgSettingsSaved)
	if err := e.session.ReloadSettings(ctx); err != nil {
		e.printError(types.ErrorMessage(err))
	}
}

func (e *Executor) removeSetting(ctx context.Context, args []string) {
	if len(args) == 0 {
		e.printError("Usage: /remove <name>")
		return
	}
	if err := e.settings.Remove(ctx, strings.Join(args, " ")); err != nil {
		e.printError(types.ErrorMessage(err))
		return
	}
	e.printSuccess(MsgSettingsSaved)
	if err := e.session.ReloadSettings(ctx); err != nil {
		e.printError(types.ErrorMessage(err))
	}
}

func (e *Executor) copyLastReply() {
	if e.lastReply == "" {
		e.printError("Nothing to copy yet")
		return
	}
	if err := e.copy(e.lastReply); err != nil {
		e.printError(fmt.Sprintf("Failed to copy: %v", err))
		return
	}
	e.printSuccess(MsgCopied)
}

// flushEvents prints pending session notifications.
func (e *Executor) flushEvents() {
	for {
		select {
		case event := <-e.session.Events():
			e.handleEvent(event)
		default:
			return
		}
	}
}

func (e *Executor) handleEvent(event *types.Event) {
	switch event.Type {
	case types.EventTypeSuccess:
		e.printSuccess(event.Message)
	case types.EventTypeError:
		e.printError(event.Message)
	case types.EventTypeMessageAdded, types.EventTypeSendingChange, types.EventTypeHistoryClear,
		types.EventTypePageContent, types.EventTypeProviderSwitch:
		// Rendered directly by the command that caused them.
	}
}

func (e *Executor) printSuccess(msg string) {
	fmt.Fprintln(e.writer, successStyle.Render("✓ "+msg))
}

func (e *Executor) printError(msg string) {
	fmt.Fprintln(e.writer, errorStyle.Render("✗ "+msg))
}
