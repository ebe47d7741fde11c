package main

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/reviewviz/internal/datasource"
	"github.com/vanderheijden86/reviewviz/pkg/chart"
)

func testModel(t *testing.T) *model {
	t.Helper()
	score := 80.0
	snap := &datasource.Snapshot{
		Applications: []datasource.Application{
			{ID: "app-1", Reference: "APP-001", SubmittedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		},
		Assessors: []datasource.Assessor{{ID: "ass-1", Name: "Alice"}},
		Assignments: []datasource.Assignment{
			{AssessorID: "ass-1", ApplicationID: "app-1", Status: datasource.StatusCompleted, Score: &score, MaxScore: 100},
		},
	}

	m, err := newModel(chart.DefaultConfig(), snap, t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	t.Cleanup(func() { chart.UnregisterSurface(m.surface) })
	return m
}

func TestTickStepsSimulation(t *testing.T) {
	m := testModel(t)
	if !m.graph.Running() {
		t.Fatal("fresh model should be simulating")
	}
	if _, cmd := m.Update(tickMsg(time.Now())); cmd == nil {
		t.Error("tick should schedule the next frame")
	}
}

func TestPauseResumeKey(t *testing.T) {
	m := testModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if m.graph.Running() {
		t.Error("space should pause the simulation")
	}
	if m.status != "paused" {
		t.Errorf("status should read paused, got %q", m.status)
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	if !m.graph.Running() {
		t.Error("space again should resume")
	}
}

func TestZoomKeys(t *testing.T) {
	m := testModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	if m.graph.Zoom() <= 1 {
		t.Errorf("+ should zoom in, got %g", m.graph.Zoom())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'0'}})
	if m.graph.Zoom() != 1 {
		t.Errorf("0 should reset the view, got zoom %g", m.graph.Zoom())
	}
}

func TestPanKeys(t *testing.T) {
	m := testModel(t)

	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	x, _ := m.graph.Pan()
	if x != panStep {
		t.Errorf("left arrow should pan by %g, got %g", panStep, x)
	}
}

func TestViewMentionsStatus(t *testing.T) {
	m := testModel(t)
	view := m.View()
	if view == "" {
		t.Fatal("view should not be empty")
	}
}
