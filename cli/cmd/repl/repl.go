package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/artmpl/lang"
	"github.com/ardnew/artmpl/log"
)

// editDataMsg is sent when data editing completes successfully.
type editDataMsg struct{ data map[string]any }

// editCancelledMsg is sent when the user cleared the editor content or
// declined to re-edit.
type editCancelledMsg struct{}

// editErrorMsg is sent when the edit process fails.
type editErrorMsg struct{ err error }

const (
	templatePrompt = "➜ "
	commandPrefix  = ":"
)

func helpMessage() string {
	return `
Commands (prefix with ':'):

  help     Print this help
  data     Print the current data as YAML
  edit     Edit the data in $EDITOR
  names    List the free names of the last template
  source   Print the generated program of the last template
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type a template line to render it against the data, e.g. {{ user.name }}
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Esc to restore the text from before cycling
  Use Up/Down arrows for history navigation
`
}

type inputMode int

const (
	modeTemplate inputMode = iota
	modeCommand
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	selectedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

// formatEntry renders an accepted input line for the scrollback.
func formatEntry(input string) string {
	return promptStyle.Render(templatePrompt) + inputStyle.Render(input)
}

// Config is what a REPL session renders with.
type Config struct {
	// Data is the initial data value of every render.
	Data map[string]any
	// Compile holds the options used to compile each input line.
	Compile []lang.Option
	// CacheDir holds the history file. Empty disables persistence.
	CacheDir string
	Logger   log.Logger
}

type model struct {
	ctxFunc      func() context.Context
	input        textinput.Model
	data         map[string]any
	opts         []lang.Option
	imports      map[string]any
	names        []string // top-level completion candidates
	last         *lang.Renderer
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches
	wordStart    int
	wordEnd      int
	suggIdx      int
	tabActive    bool
	preTabText   string
	preTabCursor int
	width        int
	quitting     bool
}

// Run starts an interactive session that renders each entered line as a
// template.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cfg.CacheDir),
		slog.Int("data_keys", len(cfg.Data)),
	)

	var path string
	if cfg.CacheDir != "" {
		path = filepath.Join(cfg.CacheDir, baseHistory)
	}

	history := NewHistory(path)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
	}

	p := tea.NewProgram(newModel(ctx, cfg, history), tea.WithContext(ctx))
	_, err = p.Run()

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, cfg Config, history *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(templatePrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	data := cfg.Data
	if data == nil {
		data = make(map[string]any)
	}

	imports := lang.MakeOptions(cfg.Compile...).Imports

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		data:       data,
		opts:       append(slices.Clone(cfg.Compile), lang.WithBail(true)),
		imports:    imports,
		names:      topLevel(data, imports),
		logger:     cfg.Logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(templatePrompt) - 2

		return m, nil

	case editDataMsg:
		m.data = msg.data
		m.names = topLevel(m.data, m.imports)
		m.logger.TraceContext(m.ctxFunc(), "repl edit complete",
			slog.Int("data_keys", len(m.data)))

		return m, tea.Println(resultStyle.Render("✔ data updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	input := m.input.Value()

	switch {
	case m.historyIdx < m.history.Len():
		b.WriteString(hintStyle.Render(fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())))

	case strings.TrimSpace(input) == "":
		b.WriteString(hintStyle.Render("Type a template line, or :help for commands"))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))

	default:
		if c, ok := detectCall(input, m.input.Position()); ok {
			if p, ok := params(c.name, m.imports); ok {
				b.WriteString(renderSignatureHint(c.name, p, c.arg))
			}
		}
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctxFunc(), "repl keypress",
		slog.String("key", msg.String()))

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive {
			m.tabActive = false
			refreshMatches(&m)

			return m, nil
		}

		return m.execute()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyMove(-1), nil

	case tea.KeyDown:
		return m.historyMove(1), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m)
		}

		return m, nil
	}

	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m)

	return m, cmd
}

// cycle moves the completion selection by step and substitutes the
// selected candidate for the word under the cursor.
func (m model) cycle(step int) model {
	if len(m.matches) == 0 {
		return m
	}

	if !m.tabActive {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = 0

		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	} else {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	}

	text := m.preTabText
	word := m.matches[m.suggIdx].Str
	end := min(m.wordEnd, len(text))

	m.input.SetValue(text[:m.wordStart] + word + text[end:])
	m.input.SetCursor(m.wordStart + len(word))

	return m
}

// historyMove steps through the history, returning to an empty line past
// the newest entry.
func (m model) historyMove(step int) model {
	idx := m.historyIdx + step
	if idx < 0 || idx > m.history.Len() {
		return m
	}

	m.historyIdx = idx
	m.tabActive = false
	m.matches = nil

	entry, err := m.history.Get(idx)
	if err != nil {
		m.input.SetValue("")

		return m
	}

	m.input.SetValue(entry.Line)
	m.input.CursorEnd()

	return m
}

// execute runs the current input as a command or a template.
func (m model) execute() (model, tea.Cmd) {
	line := m.input.Value()

	m.input.SetValue("")
	m.matches = nil

	if strings.TrimSpace(line) == "" {
		return m, nil
	}

	mode := modeTemplate
	if strings.HasPrefix(line, commandPrefix) {
		mode = modeCommand
	}

	if err := m.history.Add(line, mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if mode == modeCommand {
		return m.command(strings.TrimSpace(strings.TrimPrefix(line, commandPrefix)), line)
	}

	out, err := m.render(line)
	if err != nil {
		return m, tea.Println(formatEntry(line) + "\n" + errorStyle.Render(err.Error()))
	}

	return m, tea.Println(formatEntry(line) + "\n" + resultStyle.Render(out))
}

// render compiles line and renders it against the session data.
func (m *model) render(line string) (string, error) {
	ctx := m.ctxFunc()

	tmpl, err := lang.Compile(line, m.opts...)
	if err != nil {
		return "", err
	}

	m.last = tmpl

	return tmpl.RenderContext(ctx, m.data)
}

func (m model) command(name, line string) (model, tea.Cmd) {
	echo := formatEntry(line)

	switch name {
	case "help":
		return m, tea.Println(echo + helpMessage())

	case "data":
		b, err := yaml.MarshalContext(m.ctxFunc(), m.data, yaml.Indent(2))
		if err != nil {
			return m, tea.Println(echo + "\n" + errorStyle.Render(err.Error()))
		}

		return m, tea.Println(echo + "\n" + strings.TrimRight(string(b), "\n"))

	case "edit":
		c := &editDataCommand{data: m.data, ctxFunc: m.ctxFunc, logger: m.logger}

		return m, tea.Exec(c, func(err error) tea.Msg {
			switch {
			case errors.Is(err, ErrEditDeclined):
				return editCancelledMsg{}
			case err != nil:
				return editErrorMsg{err}
			case c.newData == nil:
				return editCancelledMsg{}
			}

			return editDataMsg{c.newData}
		})

	case "names":
		if m.last == nil {
			return m, tea.Println(echo + "\n" + hintStyle.Render("no template rendered yet"))
		}

		var b strings.Builder
		for _, e := range m.last.Names() {
			fmt.Fprintf(&b, "\n%s %s", e.Name, hintStyle.Render(e.Kind.String()))
		}

		return m, tea.Println(echo + b.String())

	case "source":
		if m.last == nil {
			return m, tea.Println(echo + "\n" + hintStyle.Render("no template rendered yet"))
		}

		return m, tea.Println(echo + "\n" + m.last.Source())

	case "clear":
		return m, tea.ClearScreen

	case "quit", "exit":
		m.quitting = true

		return m, tea.Quit
	}

	return m, tea.Println(echo + "\n" + errorStyle.Render("unknown command: "+name))
}
