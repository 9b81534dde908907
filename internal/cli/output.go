package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/mattn/go-isatty"

	"github.com/nhle/tracker-sync/internal/theme"
	"github.com/nhle/tracker-sync/internal/toast"
)

// ErrUsage marks a malformed argument.
var ErrUsage = errors.New("invalid usage")

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s id must be a positive number, got %q", ErrUsage, what, s)
	}
	return id, nil
}

func (rt *runtime) printJSON(v any) error {
	enc := json.NewEncoder(rt.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (rt *runtime) printf(format string, args ...any) {
	fmt.Fprintf(rt.stdout, format, args...)
}

// flushToasts prints and dismisses every visible toast on stderr.
func (rt *runtime) flushToasts() {
	for _, t := range rt.app.Toasts.Toasts() {
		prefix := "•"
		switch t.Severity {
		case toast.Success:
			prefix = "✓"
		case toast.Error:
			prefix = "✗"
		}
		line := prefix + " " + t.Message
		if isTerminal(rt.stderr) {
			line = theme.ToastTextStyle(t.Severity).Render(line)
		}
		fmt.Fprintln(rt.stderr, line)
		rt.app.Toasts.Dismiss(t.ID)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

var (
	mdRendererMu sync.Mutex
	mdRenderers  = map[string]*glamour.TermRenderer{}
)

// renderMarkdown renders a task description for w. Plain output gets the
// no-colour style so pipes and tests see readable text.
func renderMarkdown(w io.Writer, md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}

	style := styles.NoTTYStyle
	if isTerminal(w) {
		style = styles.DarkStyle
	}
	key := style + ":" + strconv.Itoa(width)

	mdRendererMu.Lock()
	defer mdRendererMu.Unlock()

	r := mdRenderers[key]
	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return md
		}
		mdRenderers[key] = rr
		r = rr
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
