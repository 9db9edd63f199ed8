package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const debugLogFile = "bmad-debug.log"

type focusField int

const (
	focusProject focusField = iota
	focusBrief
	focusChat
	focusCount
)

// task shortcuts, in button order
var taskKeys = []struct {
	key  string
	task Task
}{
	{"alt+1", TaskPRD},
	{"alt+2", TaskUserStories},
	{"alt+3", TaskTestCases},
}

type taskDoneMsg struct {
	id   int
	task Task
	path string
	err  error
}

type chatDoneMsg struct {
	id    int
	reply string
	err   error
}

type draftsMsg struct {
	names []string
	err   error
}

type tuiModel struct {
	ctx        context.Context
	workflow   *Workflow
	provider   LLMProvider
	settings   Settings
	transcript *Transcript
	notices    *noticeLog

	project textinput.Model
	brief   textarea.Model
	chat    textinput.Model
	spinner spinner.Model
	focus   focusField

	busy      bool
	busyLabel string
	// id of the action holding busy, 0 when idle
	inflight int
	seq      int
	drafts    []string

	// glamour output per message id
	rendered map[string]string

	width  int
	height int
}

func runTUI(cmd *cobra.Command, args []string) error {
	logOut := io.Discard
	if verbose {
		f, err := tea.LogToFile(debugLogFile, "bmad")
		if err != nil {
			return fmt.Errorf("open %s: %w", debugLogFile, err)
		}
		defer f.Close()
		logOut = f
	}

	notices := &noticeLog{}
	s, err := setup(logOut, notices)
	if err != nil {
		return err
	}
	llm, err := pickLLM(cmd.Context(), s.cfg)
	if err != nil {
		return err
	}

	m := newTUIModel(cmd.Context(), s.workflow(llm), llm, s.settings, notices)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("bmad: tui: %w", err)
	}
	return nil
}

func newTUIModel(ctx context.Context, wf *Workflow, provider LLMProvider, settings Settings, notices *noticeLog) tuiModel {
	pi := textinput.New()
	pi.Placeholder = "Project name"
	pi.CharLimit = 120
	pi.Focus()

	bi := textarea.New()
	bi.Placeholder = "Describe the project..."
	bi.ShowLineNumbers = false
	bi.SetHeight(5)

	ci := textinput.New()
	ci.Placeholder = "Type /CH <request> to ask the agent"
	ci.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	return tuiModel{
		ctx:        ctx,
		workflow:   wf,
		provider:   provider,
		settings:   settings,
		transcript: NewTranscript(),
		notices:    notices,
		project:    pi,
		brief:      bi,
		chat:       ci,
		spinner:    sp,
		rendered:   map[string]string{},
		width:      120,
		height:     40,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, loadDrafts(m.workflow.OutputDir()))
}

func (m tuiModel) currentProject() Project {
	return Project{Name: strings.TrimSpace(m.project.Value()), Brief: m.brief.Value()}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inner := max(20, m.mainWidth()-labelStyle.GetWidth()-2)
		m.project.Width = inner
		m.chat.Width = inner
		m.brief.SetWidth(inner)
		clear(m.rendered)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case taskDoneMsg:
		m.finish(msg.id)
		if msg.err != nil {
			m.notices.Error(userMessage(msg.err))
		}
		return m, loadDrafts(m.workflow.OutputDir())

	case chatDoneMsg:
		m.finish(msg.id)
		if msg.err != nil {
			m.notices.Error(userMessage(msg.err))
		}
		return m, loadDrafts(m.workflow.OutputDir())

	case draftsMsg:
		if msg.err != nil {
			m.notices.Warn(msg.err.Error())
			return m, nil
		}
		m.drafts = msg.names
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}

	return m.updateFocused(msg)
}

func (m tuiModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c":
		return m, tea.Quit

	case "tab":
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil

	case "shift+tab":
		m.setFocus((m.focus - 1 + focusCount) % focusCount)
		return m, nil

	case "enter":
		if m.focus == focusChat {
			return m.submitChat()
		}
	}

	for _, tk := range taskKeys {
		if key == tk.key {
			if m.busy {
				return m, nil
			}
			id := m.start(fmt.Sprintf(MsgGenerating, tk.task.Label, m.provider.Name(), m.provider.Model()))
			return m, tea.Batch(m.spinner.Tick, m.taskCmd(id, m.currentProject(), tk.task))
		}
	}

	return m.updateFocused(msg)
}

func (m tuiModel) submitChat() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.chat.Value())
	if input == "" || m.busy {
		return m, nil
	}
	m.chat.Reset()

	// plain input only lands in the transcript and does not hold busy
	if _, ok := parseChatRequest(input); !ok {
		return m, m.chatCmd(0, m.currentProject(), input)
	}
	id := m.start(fmt.Sprintf(MsgChatting, m.provider.Name(), m.provider.Model()))
	return m, tea.Batch(m.spinner.Tick, m.chatCmd(id, m.currentProject(), input))
}

// start marks a provider call in flight and returns its id.
func (m *tuiModel) start(label string) int {
	m.seq++
	m.inflight = m.seq
	m.busy = true
	m.busyLabel = label
	return m.inflight
}

// finish releases busy only for the action that took it.
func (m *tuiModel) finish(id int) {
	if id == 0 || id != m.inflight {
		return
	}
	m.inflight = 0
	m.busy = false
}

func (m tuiModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusProject:
		m.project, cmd = m.project.Update(msg)
	case focusBrief:
		m.brief, cmd = m.brief.Update(msg)
	case focusChat:
		m.chat, cmd = m.chat.Update(msg)
	}
	return m, cmd
}

func (m *tuiModel) setFocus(f focusField) {
	m.project.Blur()
	m.brief.Blur()
	m.chat.Blur()
	m.focus = f
	switch f {
	case focusProject:
		m.project.Focus()
	case focusBrief:
		m.brief.Focus()
	case focusChat:
		m.chat.Focus()
	}
}

func (m tuiModel) taskCmd(id int, project Project, task Task) tea.Cmd {
	return func() tea.Msg {
		path, err := m.workflow.RunTask(m.ctx, project, task)
		return taskDoneMsg{id: id, task: task, path: path, err: err}
	}
}

func (m tuiModel) chatCmd(id int, project Project, input string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.workflow.Chat(m.ctx, m.transcript, project, input)
		return chatDoneMsg{id: id, reply: reply, err: err}
	}
}

func loadDrafts(dir string) tea.Cmd {
	return func() tea.Msg {
		names, err := listDrafts(dir)
		return draftsMsg{names: names, err: err}
	}
}

func (m tuiModel) mainWidth() int {
	return max(40, m.width-sidebarWidth-4)
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(appHeading(m.provider)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.settingsLine()))
	b.WriteString("\n\n")

	b.WriteString(m.field("Project", focusProject, m.project.View()))
	b.WriteString("\n")
	b.WriteString(m.field("Brief", focusBrief, m.brief.View()))
	b.WriteString("\n\n")
	b.WriteString(m.buttons())
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Chat"))
	b.WriteString("\n")
	b.WriteString(m.viewTranscript())
	b.WriteString(m.field("You", focusChat, m.chat.View()))
	b.WriteString("\n\n")

	for _, n := range m.notices.Recent(3) {
		b.WriteString(noticeStyle(n.kind).Render(n.text))
		b.WriteString("\n")
	}

	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("alt+1/2/3: generate  tab: next field  enter: send chat  ctrl+c: quit"))

	body := lipgloss.NewStyle().Width(m.mainWidth()).Render(b.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, body, m.viewSidebar())
}

func (m tuiModel) settingsLine() string {
	if m.settings == nil {
		return "settings: not loaded"
	}
	return fmt.Sprintf("settings: %s", strings.Join(m.settings.Keys(), ", "))
}

func (m tuiModel) field(label string, f focusField, view string) string {
	style := labelStyle
	if m.focus == f {
		style = focusedLabelStyle
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, style.Render(label+":"), view)
}

func (m tuiModel) buttons() string {
	style := buttonStyle
	if m.busy {
		style = busyButtonStyle
	}
	parts := make([]string, 0, len(taskKeys))
	for i, tk := range taskKeys {
		parts = append(parts, style.Render(fmt.Sprintf("%d %s", i+1, tk.task.Title)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m tuiModel) viewTranscript() string {
	messages := m.transcript.Messages()
	if len(messages) == 0 {
		return dimStyle.Render("No messages yet.") + "\n"
	}

	var lines []string
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			lines = append(lines, userRoleStyle.Render(" you "))
			lines = append(lines, msg.Content)
		case RoleAssistant:
			lines = append(lines, assistantRoleStyle.Render(" bmad "))
			lines = append(lines, strings.Split(strings.TrimRight(m.renderReply(msg), "\n"), "\n")...)
		}
	}

	// keep the tail that fits under the form
	room := max(4, m.height-24)
	if len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m tuiModel) renderReply(msg Message) string {
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	out, err := renderMarkdown(msg.Content, m.mainWidth()-2)
	if err != nil {
		out = msg.Content
	}
	m.rendered[msg.ID] = out
	return out
}

func (m tuiModel) statusBar() string {
	if m.busy {
		return statusBarStyle.Render(m.spinner.View() + " " + m.busyLabel)
	}
	return statusBarStyle.Render("state: " + m.workflow.State().String())
}

func (m tuiModel) viewSidebar() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Local Drafts"))
	b.WriteString("\n")
	if len(m.drafts) == 0 {
		b.WriteString(dimStyle.Render(MsgNoDrafts))
	}
	for _, name := range m.drafts {
		b.WriteString("📄 " + name + "\n")
	}
	return sidebarStyle.Render(strings.TrimRight(b.String(), "\n"))
}
