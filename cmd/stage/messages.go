package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	orchestration "github.com/koscakluka/ema-stage/core"
	"github.com/koscakluka/ema-stage/core/conversations"
	"github.com/koscakluka/ema-stage/core/dictation"
	"github.com/koscakluka/ema-stage/core/events"
)

// snapshotMsg carries a new view to draw.
type snapshotMsg struct {
	snapshot orchestration.ViewSnapshot
}

// alertMsg carries a failed turn.
type alertMsg struct {
	err error
}

// audienceMsg opens the audience flow on state.
type audienceMsg struct {
	state *conversations.State
}

// eventMsg carries a playback event for the status line.
type eventMsg struct {
	event events.Event
}

// turnDoneMsg is sent once Submit returned.
type turnDoneMsg struct {
	err error
}

// actionDoneMsg is sent once a backend action returned. state is nil for
// actions that render through the orchestrator.
type actionDoneMsg struct {
	action string
	state  *conversations.State
	err    error
}

// dictationMsg carries dictated text for the input line.
type dictationMsg struct {
	text  string
	final bool
}

// programBridge forwards the orchestrator callbacks to the TUI program.
type programBridge struct {
	program *tea.Program
}

func (b *programBridge) send(msg tea.Msg) {
	if b.program == nil {
		return
	}
	b.program.Send(msg)
}

func (b *programBridge) Render(snapshot orchestration.ViewSnapshot) {
	b.send(snapshotMsg{snapshot: snapshot})
}

func (b *programBridge) Alert(_ context.Context, err error) {
	b.send(alertMsg{err: err})
}

// OpenAudienceFlow is called on the turn goroutine, the flow itself runs on
// the program loop.
func (b *programBridge) OpenAudienceFlow(_ context.Context, state *conversations.State) {
	go b.send(audienceMsg{state: state.Clone()})
}

func (b *programBridge) dictationCallbacks() dictation.Callbacks {
	return dictation.Callbacks{
		Interim: func(text string) { b.send(dictationMsg{text: text}) },
		Final:   func(text string) { b.send(dictationMsg{text: text, final: true}) },
	}
}

// HandleEvent forwards the events shown on the status line.
func (b *programBridge) HandleEvent(event events.Event) {
	if event.Kind().Namespace() == events.NamespaceTurnState || event.Kind() == events.KindVoiceSkipped {
		b.send(eventMsg{event: event})
	}
}
