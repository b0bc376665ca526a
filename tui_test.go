package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"audioshift/events"
)

func TestEscapeCancelsSession(t *testing.T) {
	calls := 0
	m := tuiModel{phase: events.PhaseRecording, cancelSession: func() { calls++ }}

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if calls != 1 {
		t.Fatalf("cancel calls = %d, want 1", calls)
	}
	if cmd != nil {
		t.Error("esc must not quit the overlay")
	}

	if _, cmd := updated.(tuiModel).Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Error("ctrl+c should still quit")
	}
}

func TestAmplitudeWindowIsBounded(t *testing.T) {
	m := tuiModel{phase: events.PhaseRecording}
	var model tea.Model = m
	for i := 0; i < levelWindow*3; i++ {
		model, _ = model.(tuiModel).Update(events.Amplitude{Level: 0.5})
	}
	got := model.(tuiModel)
	if len(got.levels) != levelWindow {
		t.Fatalf("window len = %d, want %d", len(got.levels), levelWindow)
	}
}
