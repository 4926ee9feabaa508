package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPanelEmbedsTitleAtFullWidth(t *testing.T) {
	out := Panel("SD Card", "MOUNTED AT /sd", 30, 0, false)
	lines := strings.Split(out, "\n")
	if !strings.Contains(lines[0], "SD Card") {
		t.Fatalf("title missing from top border: %q", lines[0])
	}
	if w := lipgloss.Width(lines[0]); w != 30 {
		t.Fatalf("top border is %d wide, want 30: %q", w, lines[0])
	}
	if !strings.Contains(out, "MOUNTED AT /sd") {
		t.Fatal("content missing")
	}
}

func TestMessageKeepsText(t *testing.T) {
	for _, isErr := range []bool{false, true} {
		if got := Message("Configuration saved successfully!", isErr); !strings.Contains(got, "Configuration saved successfully!") {
			t.Errorf("Message(isErr=%v) = %q", isErr, got)
		}
	}
}
