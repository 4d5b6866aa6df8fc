package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// statusStyles colors per-image status words. The renderer is bound to the
// command output so redirected output stays plain.
type statusStyles struct {
	ok   lipgloss.Style
	fail lipgloss.Style
}

func newStatusStyles(w io.Writer) statusStyles {
	r := lipgloss.NewRenderer(w)
	return statusStyles{
		ok:   r.NewStyle().Foreground(lipgloss.Color("2")),
		fail: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

func (s statusStyles) failCount(n int64) string {
	msg := fmt.Sprintf("%d failed", n)
	if n == 0 {
		return msg
	}
	return s.fail.Render(msg)
}
