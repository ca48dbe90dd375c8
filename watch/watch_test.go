package watch

import (
	stderrors "errors"
	"reflect"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func healthDoc() map[string]any {
	return map[string]any{
		"temperature": map[string]any{"title": "Temperature", "value": 41.5, "unit": "C"},
		"errors":      map[string]any{"title": "Errors", "value": int64(3)},
		"plain":       7,
	}
}

func TestRows(t *testing.T) {
	rows := Rows(healthDoc(), []string{"errors", "temperature", "missing"})
	want := []Row{
		{Key: "errors", Label: "Errors", Value: "3"},
		{Key: "temperature", Label: "Temperature", Value: "41.5 C"},
		{Key: "missing", Label: "missing", Value: "n/a"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Rows() = %+v, want %+v", rows, want)
	}
}

func TestRowsAllKeys(t *testing.T) {
	rows := Rows(healthDoc(), nil)
	if len(rows) != 2 || rows[0].Key != "errors" || rows[1].Key != "temperature" {
		t.Errorf("Rows() = %+v", rows)
	}
}

func TestModelPollAndQuit(t *testing.T) {
	polls := 0
	m := New("SIM0001", func() (map[string]any, error) {
		polls++
		return healthDoc(), nil
	}, []string{"temperature"}, time.Second)

	if !strings.Contains(m.View(), "waiting") {
		t.Errorf("View() before data = %q", m.View())
	}

	msg := m.poll()
	if polls != 1 {
		t.Fatalf("source called %d times", polls)
	}
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("no tick scheduled after poll")
	}
	view := m.View()
	if !strings.Contains(view, "Temperature") || !strings.Contains(view, "41.5 C") {
		t.Errorf("View() = %q", view)
	}

	_, cmd = m.Update(tickMsg{})
	if cmd == nil {
		t.Fatal("tick did not poll")
	}
	if _, ok := cmd().(healthMsg); !ok || polls != 2 {
		t.Errorf("tick command did not poll the source")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}

func TestModelKeepsLastValuesOnError(t *testing.T) {
	m := New("SIM0001", nil, []string{"temperature"}, time.Second)
	m.Update(healthMsg{doc: healthDoc(), at: time.Now()})
	m.Update(healthMsg{err: stderrors.New("config_read_failure")})

	view := m.View()
	if !strings.Contains(view, "41.5 C") {
		t.Errorf("last values dropped: %q", view)
	}
	if !strings.Contains(view, "config_read_failure") {
		t.Errorf("error not shown: %q", view)
	}
	if m.polls != 2 {
		t.Errorf("polls = %d", m.polls)
	}
}
