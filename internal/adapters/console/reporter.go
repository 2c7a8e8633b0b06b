package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"applenotes/internal/ports"
)

var (
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")) // Red
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")) // Amber
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")) // Green
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")) // Gray
)

// Reporter implements ports.Reporter on a terminal. Failures and skips
// print as styled lines; progress renders as a bar when the output is a
// TTY and as plain percentage lines otherwise.
type Reporter struct {
	out             io.Writer
	bar             progress.Model
	barEnabled      bool
	lastRenderWidth int
}

// Ensure Reporter implements ports.Reporter
var _ ports.Reporter = (*Reporter)(nil)

// New returns a reporter writing to stderr.
func New() *Reporter {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 36

	return &Reporter{
		out:        os.Stderr,
		bar:        bar,
		barEnabled: isTerminal(os.Stderr),
	}
}

// Failed reports a per-entity failure. The run continues.
func (r *Reporter) Failed(name, reason string) {
	r.clearBar()
	line := failedStyle.Render("import failed") + " " + name
	if reason != "" {
		line += " " + mutedStyle.Render(reason)
	}
	fmt.Fprintln(r.out, line)
}

// Skipped reports a policy-driven exclusion, distinct from failure.
func (r *Reporter) Skipped(name, reason string) {
	r.clearBar()
	line := skippedStyle.Render("import skipped") + " " + name
	if reason != "" {
		line += " " + mutedStyle.Render(reason)
	}
	fmt.Fprintln(r.out, line)
}

// AttachmentImported reports a successfully relocated attachment.
func (r *Reporter) AttachmentImported(path string) {
	r.clearBar()
	fmt.Fprintln(r.out, successStyle.Render("attachment imported")+" "+path)
}

// Progress reports parsed-note progress as a one-decimal percentage.
func (r *Reporter) Progress(current, total int) {
	if total <= 0 {
		return
	}
	percent := 100 * float64(current) / float64(total)

	if !r.barEnabled {
		fmt.Fprintf(r.out, "current progress: %.1f%%\n", percent)
		return
	}

	line := fmt.Sprintf("%s %5.1f%% %d/%d", r.bar.ViewAs(percent/100), percent, current, total)
	pad := ""
	if r.lastRenderWidth > len(line) {
		pad = strings.Repeat(" ", r.lastRenderWidth-len(line))
	}
	fmt.Fprintf(r.out, "\r%s%s", line, pad)
	r.lastRenderWidth = len(line)
	if current >= total {
		fmt.Fprint(r.out, "\n")
		r.lastRenderWidth = 0
	}
}

func (r *Reporter) clearBar() {
	if r.lastRenderWidth > 0 {
		fmt.Fprint(r.out, "\r"+strings.Repeat(" ", r.lastRenderWidth)+"\r")
		r.lastRenderWidth = 0
	}
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
