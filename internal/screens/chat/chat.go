// Package chat is the conversational screen that drives the field
// completion wizard over one plan.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/gpteach/gpteach/internal/plan"
	"github.com/gpteach/gpteach/internal/router"
	"github.com/gpteach/gpteach/internal/screen"
	"github.com/gpteach/gpteach/internal/screens/preview"
	"github.com/gpteach/gpteach/internal/ui/components"
	"github.com/gpteach/gpteach/internal/ui/layout"
	"github.com/gpteach/gpteach/internal/wizard"
)

const greeting = "Hi! Tell me about the lesson you want to plan, for example: " +
	"\"Create a complete lesson plan for grade 5 math on fractions\"."

// ChatScreen runs one wizard session against doc. While an operation is in
// flight the wizard and document belong to the command goroutine; the
// screen only touches them again once the replyMsg arrives.
type ChatScreen struct {
	deps   *screen.Deps
	doc    *plan.Document
	wiz    *wizard.Wizard
	logger *zap.Logger

	input  components.TextInput
	choice components.Choice
	lines  []line

	state    wizard.State
	busy     bool
	busyOp   string
	progress components.FieldProgress
}

var (
	_ screen.Screen          = (*ChatScreen)(nil)
	_ screen.KeyHintProvider = (*ChatScreen)(nil)
	_ screen.InputCapturer   = (*ChatScreen)(nil)
)

// New creates a chat screen for doc.
func New(deps *screen.Deps, doc *plan.Document) *ChatScreen {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("plan", doc.ID))

	c := &ChatScreen{
		deps:   deps,
		doc:    doc,
		logger: logger,
		input:  components.NewTextInput("Describe your lesson...", 500),
		choice: components.NewChoice("Full plan at once", "Step by step"),
		lines:  []line{{who: assistant, text: greeting}},
	}

	var opts []wizard.Option
	opts = append(opts, wizard.WithLogger(logger))
	if deps.Events != nil {
		opts = append(opts, wizard.WithEvents(deps.Events, doc.ID))
	}
	c.wiz = wizard.New(doc, deps.Generator, deps.Outcomes, deps.Wizard, opts...)

	if deps.Generator == nil {
		msg := "The assistant is offline, so no content can be generated."
		if deps.GeneratorErr != nil {
			msg += " " + deps.GeneratorErr.Error()
		}
		c.lines = append(c.lines, line{who: notice, text: msg})
	}
	return c
}

func (c *ChatScreen) Init() tea.Cmd {
	return c.input.Init()
}

func (c *ChatScreen) Title() string {
	return layout.Truncate(c.doc.Title, 40)
}

// Capturing keeps Esc inside the screen while the input holds text.
func (c *ChatScreen) Capturing() bool {
	return c.input.Value() != ""
}

func (c *ChatScreen) KeyHints() []layout.KeyHint {
	if c.busy {
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	switch c.state {
	case wizard.StateChoosingMode:
		return []layout.KeyHint{
			{Key: "1/2", Description: "Pick mode"},
			{Key: "Ctrl+X", Description: "Cancel"},
			{Key: "Esc", Description: "Back"},
		}
	case wizard.StateAwaitingDecision:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Approve / revise"},
			{Key: "Ctrl+R", Description: "Regenerate"},
			{Key: "Ctrl+S", Description: "Skip"},
			{Key: "Ctrl+X", Description: "Cancel"},
		}
	case wizard.StateGenerating:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Retry"},
			{Key: "Ctrl+X", Description: "Cancel"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{
		{Key: "Enter", Description: "Send"},
		{Key: "Ctrl+P", Description: "Preview"},
		{Key: "Esc", Description: "Back"},
	}
}

func (c *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case replyMsg:
		return c, c.handleReply(msg)
	case tea.KeyPressMsg:
		if cmd, handled := c.handleKey(msg); handled {
			return c, cmd
		}
	}

	if c.state == wizard.StateChoosingMode && !c.busy {
		var cmd tea.Cmd
		c.choice, cmd = c.choice.Update(msg)
		if picked := c.choice.Chosen(); picked >= 0 {
			return c, c.selectMode(picked)
		}
		return c, cmd
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c *ChatScreen) handleKey(msg tea.KeyPressMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "esc":
		if c.input.Value() != "" {
			c.input.Take()
			return nil, true
		}
		return nil, false
	case "ctrl+p":
		if c.busy {
			return nil, true
		}
		doc := c.doc
		return func() tea.Msg { return router.PushScreenMsg{Screen: preview.New(doc)} }, true
	}

	if c.busy {
		return nil, true
	}

	switch msg.String() {
	case "ctrl+x":
		if c.state == wizard.StateIdle {
			return nil, true
		}
		c.wiz.Cancel()
		c.state = wizard.StateIdle
		c.progress = components.FieldProgress{}
		c.say(notice, "Session cancelled. Approved fields are kept.")
		c.input.SetPlaceholder("Describe your lesson...")
		return nil, true
	case "ctrl+r":
		if c.state == wizard.StateAwaitingDecision {
			return c.run("regenerate", c.wiz.Regenerate), true
		}
		return nil, true
	case "ctrl+s":
		if c.state == wizard.StateAwaitingDecision {
			return c.run("skip", c.wiz.Skip), true
		}
		return nil, true
	case "enter":
		return c.submit(), true
	}
	return nil, false
}

// submit interprets the current input according to the wizard state.
func (c *ChatScreen) submit() tea.Cmd {
	switch c.state {
	case wizard.StateChoosingMode:
		return c.selectMode(c.choice.Selected)

	case wizard.StateGenerating:
		return c.run("generate", c.wiz.Generate)

	case wizard.StateAwaitingDecision:
		text := c.input.Take()
		switch strings.ToLower(text) {
		case "", "approve", "ok", "yes", "y":
			return c.run("approve", c.wiz.Approve)
		case "skip":
			return c.run("skip", c.wiz.Skip)
		case "regenerate", "again", "retry":
			return c.run("regenerate", c.wiz.Regenerate)
		}
		c.say(teacher, text)
		return c.run("revise", func(ctx context.Context) (*wizard.Reply, error) {
			return c.wiz.Revise(ctx, text)
		})

	case wizard.StateCollectingInfo:
		text := c.input.Take()
		if text == "" {
			return nil
		}
		c.say(teacher, text)
		return c.run("provide-info", func(context.Context) (*wizard.Reply, error) {
			return c.wiz.ProvideInfo(text)
		})
	}

	text := c.input.Take()
	if text == "" {
		return nil
	}
	c.say(teacher, text)
	return c.run("start", func(ctx context.Context) (*wizard.Reply, error) {
		return c.wiz.Start(ctx, text)
	})
}

func (c *ChatScreen) selectMode(idx int) tea.Cmd {
	if c.deps.Generator == nil {
		c.say(notice, "The assistant is offline. Configure an API key and try again.")
		return nil
	}
	mode := wizard.ModeFull
	if idx == 1 {
		mode = wizard.ModeStep
	}
	c.say(teacher, c.choice.Options[idx])
	return c.run("select-mode", func(ctx context.Context) (*wizard.Reply, error) {
		return c.wiz.SelectMode(ctx, mode)
	})
}

// run executes op off the UI goroutine and saves the plan afterwards.
func (c *ChatScreen) run(op string, fn func(context.Context) (*wizard.Reply, error)) tea.Cmd {
	c.busy = true
	c.busyOp = op

	wiz, doc, repo := c.wiz, c.doc, c.deps.Plans
	return func() tea.Msg {
		ctx := context.Background()
		reply, err := fn(ctx)

		msg := replyMsg{op: op, reply: reply, err: err}
		if s := wiz.Session(); s != nil {
			s.Request.ApplyTo(doc)
		}
		if reply != nil && reply.Title != "" && doc.Title == plan.DefaultTitle {
			doc.Title = reply.Title
		}
		if repo != nil {
			msg.saveErr = repo.Save(ctx, doc)
		}
		return msg
	}
}

func (c *ChatScreen) handleReply(msg replyMsg) tea.Cmd {
	c.busy = false
	c.busyOp = ""
	c.state = c.wiz.State()

	if msg.saveErr != nil {
		c.logger.Error("save plan failed", zap.Error(msg.saveErr))
		c.say(notice, "Could not save the plan: "+msg.saveErr.Error())
	}

	if msg.err != nil {
		var genErr *wizard.GenerationError
		switch {
		case errors.As(msg.err, &genErr):
			c.say(notice, fmt.Sprintf("%v. Press Enter to retry or Ctrl+X to cancel.", genErr))
		case errors.Is(msg.err, wizard.ErrSessionMisuse):
			c.logger.Error("wizard misuse", zap.String("op", msg.op), zap.Error(msg.err))
		default:
			c.say(notice, msg.err.Error())
		}
		return nil
	}

	r := msg.reply
	for _, f := range r.Vanished {
		c.say(notice, fmt.Sprintf("%q was removed from the plan, moving on.", f.Label))
	}
	if r.Total > 0 {
		c.progress = components.FieldProgress{Label: "Fields", Done: r.Progress - 1, Total: r.Total}
	}

	c.say(assistant, r.Message)
	if r.Field != nil && r.Suggestion != "" {
		c.lines = append(c.lines, line{who: suggestion, field: r.Field.Label, text: plan.StripTags(r.Suggestion)})
	}

	switch {
	case r.Completed:
		c.progress = components.FieldProgress{}
		c.input.SetPlaceholder("Start another request, or Esc to leave")
	case c.state == wizard.StateAwaitingDecision:
		c.input.SetPlaceholder("Enter to approve, or type what to change")
	case c.state == wizard.StateCollectingInfo:
		c.input.SetPlaceholder("Your answer...")
	}
	return nil
}

func (c *ChatScreen) say(who speaker, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	c.lines = append(c.lines, line{who: who, text: text})
}
