package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
)

func TestRenderHeaderShowsStatus(t *testing.T) {
	h := RenderHeader("Video", "Arta Krasniqi · Peja Brewery", 120)
	if !strings.Contains(h, "SafetyHub") {
		t.Error("wide header should show the brand")
	}
	if !strings.Contains(h, "Peja Brewery") {
		t.Error("header should show the status")
	}
}

func TestRenderHeaderCompactClipsStatus(t *testing.T) {
	status := strings.Repeat("Very Long Company Name ", 5)
	h := RenderHeader("Quiz", status, 80)
	if strings.Contains(h, "SafetyHub") {
		t.Error("compact header should drop the brand name")
	}
	if !strings.Contains(h, "…") {
		t.Error("overlong status should be clipped")
	}
	for _, line := range strings.Split(h, "\n") {
		if w := lipgloss.Width(line); w > 80 {
			t.Errorf("header line wider than terminal: %d", w)
		}
	}
}

func TestRenderFooterDropsMiddleHints(t *testing.T) {
	hints := []KeyHint{{Key: "Space", Description: "Play/Pause"}}
	for i := 0; i < 10; i++ {
		hints = append(hints, KeyHint{Key: "x", Description: "Something long"})
	}
	hints = append(hints, KeyHint{Key: "Ctrl+C", Description: "Quit"})

	f := RenderFooter(hints, 80)
	if !strings.Contains(f, "Space") || !strings.Contains(f, "Ctrl+C") {
		t.Error("first and last hints must survive")
	}
	if n := strings.Count(f, "Something long"); n >= 10 {
		t.Errorf("expected hints to be dropped, got %d", n)
	}
}

func TestClip(t *testing.T) {
	if got := clip("abcdef", 4); got != "abc…" {
		t.Errorf("clip = %q", got)
	}
	if got := clip("abc", 4); got != "abc" {
		t.Errorf("clip = %q", got)
	}
	if got := clip("abc", 0); got != "" {
		t.Errorf("clip = %q", got)
	}
}
