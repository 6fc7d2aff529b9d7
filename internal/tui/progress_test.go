package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func stageModel() ProgressModel {
	m := NewProgressModel("conda", []Column{
		{Header: "STAGE", Width: 12},
		{Header: "STATUS", Width: 11},
		{Header: "DETAIL", Width: 24},
	})
	m.AddRow("platform", []string{"platform", "ok", "Linux 64-bit"})
	m.AddRow("download", []string{"download", "pending", ""})
	m.AddRow("environment", []string{"environment", "pending", "clr3"})
	return m
}

func TestRowUpdateMsg(t *testing.T) {
	m := stageModel()

	updated, _ := m.Update(RowUpdateMsg{
		Key:    "download",
		Fields: map[string]string{"STATUS": "downloading", "DETAIL": "Miniconda3-latest-Linux-x86_64.sh"},
	})
	m = updated.(ProgressModel)

	if got := m.rows[1].Fields[1]; got != "downloading" {
		t.Errorf("expected STATUS=downloading, got %q", got)
	}
	if got := m.rows[1].Fields[2]; got != "Miniconda3-latest-Linux-x86_64.sh" {
		t.Errorf("unexpected DETAIL %q", got)
	}
	if got := m.rows[2].Fields[1]; got != "pending" {
		t.Errorf("expected environment row untouched, got %q", got)
	}
}

func TestRowUpdateMsgUnknownKey(t *testing.T) {
	m := stageModel()
	updated, _ := m.Update(RowUpdateMsg{Key: "nope", Fields: map[string]string{"STATUS": "error"}})
	m = updated.(ProgressModel)
	for _, row := range m.rows {
		if row.Fields[1] == "error" {
			t.Fatalf("unknown key modified row %s", row.Key)
		}
	}
}

func TestTransferMsgRendersBar(t *testing.T) {
	m := stageModel()
	updated, _ := m.Update(TransferMsg{Key: "download", Read: 512 * 1000, Total: 1000 * 1000})
	m = updated.(ProgressModel)

	view := m.View()
	if !strings.Contains(view, "512 kB / 1.0 MB") {
		t.Errorf("expected byte counter in view, got:\n%s", view)
	}
}

func TestTransferMsgWithoutLength(t *testing.T) {
	m := stageModel()
	updated, _ := m.Update(TransferMsg{Key: "download", Read: 2048, Total: -1})
	m = updated.(ProgressModel)

	if !strings.Contains(m.View(), "2.0 kB received") {
		t.Errorf("expected received counter, got:\n%s", m.View())
	}
}

func TestTransferMsgUnknownKeyIgnored(t *testing.T) {
	m := stageModel()
	updated, _ := m.Update(TransferMsg{Key: "nope", Read: 1, Total: 2})
	m = updated.(ProgressModel)
	if len(m.transfers) != 0 {
		t.Fatalf("expected no transfers, got %d", len(m.transfers))
	}
}

func TestWorkDoneAndErrorQuit(t *testing.T) {
	m := stageModel()
	updated, cmd := m.Update(WorkDoneMsg{})
	if !updated.(ProgressModel).Done() || cmd == nil {
		t.Fatal("expected done model and quit command after WorkDoneMsg")
	}

	updated, cmd = m.Update(ErrorMsg{Err: tea.ErrProgramKilled})
	em := updated.(ProgressModel)
	if !em.Done() || em.Err() == nil || cmd == nil {
		t.Fatal("expected done model with error and quit command after ErrorMsg")
	}
	if !strings.HasPrefix(em.View(), "Error:") {
		t.Errorf("expected error view, got %q", em.View())
	}
}

func TestProgressCountsIgnoresActiveStates(t *testing.T) {
	m := stageModel()
	updated, _ := m.Update(RowUpdateMsg{Key: "download", Fields: map[string]string{"STATUS": "downloading"}})
	m = updated.(ProgressModel)

	processed, total := m.progressCounts()
	if processed != 1 || total != 3 {
		t.Errorf("expected 1/3, got %d/%d", processed, total)
	}
	if !strings.Contains(m.View(), "Working 1/3") {
		t.Error("expected footer while work is running")
	}
}

func TestViewHidesFooterWhenDone(t *testing.T) {
	m := stageModel()
	updated, _ := m.Update(WorkDoneMsg{})
	if strings.Contains(updated.(ProgressModel).View(), "Working") {
		t.Error("expected no footer once done")
	}
}

func TestTickStopsAfterDone(t *testing.T) {
	m := stageModel()
	updated, cmd := m.Update(tickMsg{})
	if updated.(ProgressModel).tick != 1 || cmd == nil {
		t.Fatal("expected tick to advance and reschedule")
	}

	updated, _ = updated.Update(WorkDoneMsg{})
	_, cmd = updated.Update(tickMsg{})
	if cmd != nil {
		t.Error("expected no tick command after done")
	}
}

func TestMarqueeText(t *testing.T) {
	tests := []struct {
		text  string
		width int
		tick  int
		want  string
	}{
		{"short", 10, 0, "short"},
		{"Miniconda3.sh", 5, 0, "Minic"},
		{"Miniconda3.sh", 5, 4, "conda"},
		{"abcdef", 4, 6, "   a"},
	}
	for _, tt := range tests {
		if got := marqueeText(tt.text, tt.width, tt.tick); got != tt.want {
			t.Errorf("marqueeText(%q, %d, %d) = %q, want %q", tt.text, tt.width, tt.tick, got, tt.want)
		}
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"/home/user/miniconda3", 10, "/home/u..."},
		{"abcd", 3, "abc"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.input, tt.limit); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
		}
	}
	if NonEmptyOrDash("  ") != "-" || NonEmptyOrDash(" x ") != "x" {
		t.Error("NonEmptyOrDash mismatch")
	}
}

func TestTransferReporterThrottles(t *testing.T) {
	var got []tea.Msg
	r := NewTransferReporter(func(msg tea.Msg) { got = append(got, msg) }, "download")

	r.Report(10, 100)
	r.Report(20, 100)
	r.Report(100, 100)

	if len(got) != 2 {
		t.Fatalf("expected first and final report, got %d", len(got))
	}
	last := got[1].(TransferMsg)
	if last.Read != 100 || last.Key != "download" {
		t.Errorf("unexpected final message %+v", last)
	}
}

func TestDetectModeNonTerminal(t *testing.T) {
	var b strings.Builder
	if got := DetectMode(&b, false, false); got != ModePlain {
		t.Errorf("expected plain for buffer, got %s", got)
	}
	if got := DetectMode(&b, false, true); got != ModeJSON {
		t.Errorf("expected json, got %s", got)
	}
}
