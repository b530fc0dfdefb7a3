package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Width(22)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Width(6).
			Align(lipgloss.Right)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// printer writes command output, styled only when it goes to a terminal.
// It is safe for concurrent use.
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	styled bool
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func newPrinter(cmd *cobra.Command) *printer {
	w := cmd.OutOrStdout()
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return &printer{w: w, styled: styled}
}

func (p *printer) render(style lipgloss.Style, s string) string {
	if !p.styled {
		return s
	}
	return style.Render(s)
}

// Title prints a heading line.
func (p *printer) Title(format string, args ...any) {
	p.printf("%s\n", p.render(titleStyle, fmt.Sprintf(format, args...)))
}

// Line prints plain text.
func (p *printer) Line(format string, args ...any) {
	p.printf(format+"\n", args...)
}

// Field prints a label and its value.
func (p *printer) Field(label string, value any) {
	if p.styled {
		p.printf("%s%v\n", labelStyle.Render(label), value)
		return
	}
	p.printf("%-22s%v\n", label, value)
}

// Counted prints a value prefixed by a right-aligned count.
func (p *printer) Counted(count int, value string) {
	if p.styled {
		p.printf("%s  %s\n", countStyle.Render(fmt.Sprint(count)), value)
		return
	}
	p.printf("%6d  %s\n", count, value)
}

// Item prints a value with an optional muted annotation.
func (p *printer) Item(value, note string) {
	if note == "" {
		p.printf("%s\n", value)
		return
	}
	p.printf("%s  %s\n", value, p.render(mutedStyle, "("+note+")"))
}

// Muted prints secondary text.
func (p *printer) Muted(format string, args ...any) {
	p.printf("%s\n", p.render(mutedStyle, fmt.Sprintf(format, args...)))
}
