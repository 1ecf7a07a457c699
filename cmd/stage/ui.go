package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	orchestration "github.com/koscakluka/ema-stage/core"
	"github.com/koscakluka/ema-stage/core/conversations"
	"github.com/koscakluka/ema-stage/core/dictation"
	"github.com/koscakluka/ema-stage/core/events"
	"github.com/muesli/reflow/wordwrap"
)

const (
	actionRefresh  = "refresh"
	actionReset    = "reset"
	actionProposal = "proposal"
	actionSelect   = "select"
	actionVote     = "vote"

	chromeLines = 6
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	objectiveStyle = lipgloss.NewStyle().Faint(true)
	scammerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	victimStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	pendingStyle   = lipgloss.NewStyle().Italic(true).Faint(true)
	alertStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// stage is the part of the orchestrator the TUI drives.
type stage interface {
	Submit(ctx context.Context, message string) error
	Refresh(ctx context.Context) error
	Reset(ctx context.Context) error
	CompleteAudienceFlow()
	Phase() orchestration.Phase
	VoiceEnabled() bool
}

// audienceAPI runs the audience vote on the backend.
type audienceAPI interface {
	SubmitProposal(ctx context.Context, proposal string) (*conversations.State, error)
	SelectChoices(ctx context.Context, proposals ...string) (*conversations.State, error)
	Vote(ctx context.Context, index int) (*conversations.State, error)
	SimulateVote(ctx context.Context) (*conversations.State, error)
}

// dictator turns the operator's voice into text.
type dictator interface {
	Start(ctx context.Context, callbacks dictation.Callbacks) error
	Stop() error
	Active() bool
}

type model struct {
	ctx      context.Context
	stage    stage
	audience audienceAPI
	// dictation is nil when dictation is disabled.
	dictation          dictator
	dictationCallbacks dictation.Callbacks
	// dictated is the text of the utterances finished in this dictation.
	dictated string

	input      textinput.Model
	transcript viewport.Model
	spinner    spinner.Model

	snapshot orchestration.ViewSnapshot
	// flow is the audience state while the audience flow is open.
	flow   *conversations.State
	status string
	alert  string
	busy   bool
	// resetting is set until the Reset action returned.
	resetting bool

	width int
}

func newModel(ctx context.Context, stage stage, audience audienceAPI) *model {
	input := textinput.New()
	input.Placeholder = "Réplique de l'arnaqueur"
	input.CharLimit = 500
	input.Focus()

	return &model{
		ctx:        ctx,
		stage:      stage,
		audience:   audience,
		input:      input,
		transcript: viewport.New(80, 20),
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		width:      80,
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.action(actionRefresh, nil))
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		m.transcript.Width = msg.Width
		m.transcript.Height = max(msg.Height-chromeLines-m.flowHeight(), 3)
		m.refreshTranscript()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.refreshTranscript()
		return m, nil

	case alertMsg:
		m.alert = msg.err.Error()
		return m, nil

	case audienceMsg:
		m.flow = msg.state
		m.status = "Vote du public"
		return m, nil

	case eventMsg:
		m.status = statusFor(msg.event, m.status)
		return m, nil

	case dictationMsg:
		m.handleDictation(msg)
		return m, nil

	case turnDoneMsg:
		m.busy = false
		return m, nil

	case actionDoneMsg:
		return m, m.handleActionDone(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+r":
		if m.resetting {
			return m, nil
		}
		m.alert = ""
		m.resetting = true
		return m, m.action(actionReset, nil)
	case "ctrl+l":
		return m, m.action(actionRefresh, nil)
	case "ctrl+d":
		m.toggleDictation()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.transcript, cmd = m.transcript.Update(msg)
		return m, cmd
	}

	if m.flow != nil {
		if cmd, handled := m.handleAudienceKey(msg); handled {
			return m, cmd
		}
	} else if msg.Type == tea.KeyEnter {
		return m, m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) toggleDictation() {
	if m.dictation == nil {
		m.status = "Dictée indisponible"
		return
	}

	if m.dictation.Active() {
		if err := m.dictation.Stop(); err != nil {
			m.alert = fmt.Sprintf("dictation: %v", err)
		}
		m.status = ""
		return
	}

	m.dictated = strings.TrimSpace(m.input.Value())
	if err := m.dictation.Start(m.ctx, m.dictationCallbacks); err != nil {
		m.alert = fmt.Sprintf("dictation: %v", err)
		return
	}
	m.status = "Dictée..."
}

// handleDictation shows dictated text after what was already typed or
// dictated.
func (m *model) handleDictation(msg dictationMsg) {
	text := strings.TrimSpace(m.dictated + " " + msg.text)
	if msg.final {
		m.dictated = text
	}
	m.input.SetValue(text)
	m.input.CursorEnd()
}

func (m *model) submit() tea.Cmd {
	message := strings.TrimSpace(m.input.Value())
	if message == "" || m.busy || m.resetting {
		return nil
	}

	m.input.Reset()
	m.dictated = ""
	m.busy = true
	m.alert = ""
	ctx, stage := m.ctx, m.stage
	return func() tea.Msg {
		return turnDoneMsg{err: stage.Submit(ctx, message)}
	}
}

// handleAudienceKey drives the audience flow. Digits vote for a selected
// choice when the input is empty.
func (m *model) handleAudienceKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	value := strings.TrimSpace(m.input.Value())

	switch msg.String() {
	case "esc":
		m.closeFlow()
		return nil, true
	case "enter":
		if value == "" {
			return nil, true
		}
		m.input.Reset()
		return m.action(actionProposal, func(ctx context.Context) (*conversations.State, error) {
			return m.audience.SubmitProposal(ctx, value)
		}), true
	case "ctrl+s":
		return m.action(actionSelect, func(ctx context.Context) (*conversations.State, error) {
			return m.audience.SelectChoices(ctx)
		}), true
	case "ctrl+v":
		return m.action(actionVote, m.audience.SimulateVote), true
	}

	if value != "" || len(msg.Runes) != 1 {
		return nil, false
	}
	index := int(msg.Runes[0] - '1')
	if index < 0 || index >= len(m.flow.SelectedChoices) {
		return nil, false
	}
	return m.action(actionVote, func(ctx context.Context) (*conversations.State, error) {
		return m.audience.Vote(ctx, index)
	}), true
}

// action runs a backend call off the program loop. A nil call runs the
// orchestrator action of the same name.
func (m *model) action(name string, call func(ctx context.Context) (*conversations.State, error)) tea.Cmd {
	ctx, stage := m.ctx, m.stage
	if call == nil {
		call = func(ctx context.Context) (*conversations.State, error) {
			switch name {
			case actionReset:
				return nil, stage.Reset(ctx)
			default:
				return nil, stage.Refresh(ctx)
			}
		}
	}

	return func() tea.Msg {
		state, err := call(ctx)
		return actionDoneMsg{action: name, state: state, err: err}
	}
}

func (m *model) handleActionDone(msg actionDoneMsg) tea.Cmd {
	if msg.action == actionReset {
		m.resetting = false
	}
	if msg.err != nil {
		if msg.action == actionRefresh && errors.Is(msg.err, orchestration.ErrTurnInFlight) {
			return nil
		}
		m.alert = fmt.Sprintf("%s: %v", msg.action, msg.err)
		return nil
	}

	switch msg.action {
	case actionReset:
		m.busy = false
		m.alert = ""
		m.status = "Simulation réinitialisée"
		if m.flow != nil {
			m.closeFlow()
		}
	case actionProposal, actionSelect:
		if m.flow != nil && msg.state != nil {
			m.flow = msg.state
		}
	case actionVote:
		winner := ""
		if msg.state != nil {
			winner = msg.state.LastWinner
		}
		m.closeFlow()
		m.status = "Choix du public : " + winner
		return m.action(actionRefresh, nil)
	}
	return nil
}

func (m *model) closeFlow() {
	m.flow = nil
	m.stage.CompleteAudienceFlow()
}

func (m *model) refreshTranscript() {
	atBottom := m.transcript.AtBottom()
	m.transcript.SetContent(renderTranscript(m.snapshot.Items, m.width))
	if atBottom || m.snapshot.Revealing {
		m.transcript.GotoBottom()
	}
}

func (m *model) flowHeight() int {
	if m.flow == nil {
		return 0
	}
	return len(m.flow.PendingProposals) + len(m.flow.SelectedChoices) + 5
}

func (m *model) View() string {
	var b strings.Builder

	b.WriteString(renderHeader(m.snapshot.State))
	b.WriteString("\n")
	b.WriteString(m.transcript.View())
	b.WriteString("\n")
	if m.flow != nil {
		b.WriteString(renderAudience(m.flow, m.width))
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m *model) statusLine() string {
	parts := []string{}
	if m.busy || m.resetting || m.stage.Phase().InFlight() {
		parts = append(parts, m.spinner.View())
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	if m.stage.VoiceEnabled() {
		parts = append(parts, "voix active")
	} else {
		parts = append(parts, "voix coupée")
	}
	line := statusStyle.Render(strings.Join(parts, " · "))
	if m.alert != "" {
		line += "  " + alertStyle.Render(m.alert)
	}
	return line
}

func renderHeader(state *conversations.State) string {
	if state == nil {
		return titleStyle.Render("Chargement...")
	}

	title := titleStyle.Render(fmt.Sprintf("%s · %s", state.ScenarioName, state.StageName))
	lines := []string{title}
	if state.CurrentObjective != "" {
		lines = append(lines, objectiveStyle.Render(state.CurrentObjective))
	}
	if state.AudienceConstraint != "" {
		lines = append(lines, objectiveStyle.Render(fmt.Sprintf("Contrainte du public (%d tours) : %s",
			state.AudienceConstraintTurnsLeft, state.AudienceConstraint)))
	}
	return strings.Join(lines, "\n")
}

// renderTranscript draws items wrapped to width. Blank committed turns are
// skipped.
func renderTranscript(items []conversations.Turn, width int) string {
	wrap := max(width-2, 20)

	var b strings.Builder
	for _, item := range items {
		if item.IsBlank() && !item.Provisional {
			continue
		}

		speaker := victimStyle.Render("Victime")
		if item.Role == conversations.RoleScammer {
			speaker = scammerStyle.Render("Arnaqueur")
		}
		b.WriteString(speaker)
		if item.Provisional && item.PendingLabel != "" {
			b.WriteString(" " + pendingStyle.Render(item.PendingLabel))
		}
		b.WriteString("\n")

		for _, line := range strings.Split(wordwrap.String(item.Content, wrap), "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderAudience(state *conversations.State, width int) string {
	lines := []string{titleStyle.Render("Vote du public")}
	for _, proposal := range state.PendingProposals {
		lines = append(lines, "- "+proposal)
	}
	for i, choice := range state.SelectedChoices {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, choice))
	}
	lines = append(lines, statusStyle.Render("entrée: proposer · ctrl+s: sélectionner · 1-9: voter · ctrl+v: vote simulé · échap: fermer"))
	return panelStyle.Width(max(width-2, 20)).Render(strings.Join(lines, "\n"))
}

// statusFor returns the status line for event, or current when the event
// does not change it.
func statusFor(event events.Event, current string) string {
	switch event := event.(type) {
	case events.TurnStarted:
		return orchestration.SendingLabel
	case events.TurnRevealing:
		return orchestration.ReplyingLabel
	case events.VoiceSkipped:
		if event.Err != nil && event.Reason != "cancelled" {
			return "Voix indisponible"
		}
	case events.TurnCommitted:
		return fmt.Sprintf("Tour %d", event.TurnCount)
	case events.TurnAborted:
		return "Tour annulé"
	}
	return current
}
