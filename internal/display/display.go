// Package display renders vault notifications as small terminal screens.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/banshee-data/gesture.vault/internal/vault"
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 2).
			Width(36)
	titleStyleIdle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Bold(true)
	titleStyleLocked   = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	titleStyleRecord   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	titleStyleUnlocked = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	titleStyleRejected = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	warnStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
)

// Screen is the text shown for one stage.
type Screen struct {
	Title  string
	Detail string
	style  lipgloss.Style
}

// ScreenFor maps a notification to the screen shown on the device.
func ScreenFor(n vault.Notification) Screen {
	switch n.Stage {
	case vault.StageAwaitingEnrollment:
		return Screen{Title: "Gesture Vault", Detail: "Press the button and perform a gesture to set your key", style: titleStyleIdle}
	case vault.StageRecording:
		return Screen{Title: "Recording...", Detail: "Press the button again to stop", style: titleStyleRecord}
	case vault.StageEnrolled:
		return Screen{Title: "Key saved", Detail: signatureLine(n.Payload), style: titleStyleLocked}
	case vault.StageAwaitingTest:
		return Screen{Title: "Locked", Detail: "Press the button and repeat your gesture", style: titleStyleLocked}
	case vault.StageMatched:
		return Screen{Title: "Unlocked", Detail: "Gesture matched", style: titleStyleUnlocked}
	case vault.StageRejected:
		detail := "Wrong key"
		if n.Payload != "" {
			detail = "Wrong key: " + n.Payload
		}
		return Screen{Title: "Still locked", Detail: detail, style: titleStyleRejected}
	}
	return Screen{Title: string(n.Stage), Detail: n.Payload, style: titleStyleIdle}
}

func signatureLine(sig string) string {
	if sig == "" {
		return "signature: (empty)"
	}
	return "signature: " + sig
}

// Render draws n as a framed block.
func Render(n vault.Notification) string {
	s := ScreenFor(n)
	lines := []string{s.style.Render(s.Title)}
	if s.Detail != "" {
		lines = append(lines, detailStyle.Render(s.Detail))
	}
	if n.Weak {
		lines = append(lines, warnStyle.Render("Warning: empty key, any still recording unlocks"))
	}
	return frameStyle.Render(strings.Join(lines, "\n"))
}

// Terminal is a vault.Notifier that writes each screen to w.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal returns a notifier writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

var _ vault.Notifier = (*Terminal)(nil)

func (t *Terminal) Notify(n vault.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, Render(n))
}
