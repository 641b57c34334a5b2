package tui

import (
	"fmt"
	"io"
	"reflect"

	"github.com/charmbracelet/lipgloss"

	"github.com/kelsos/artisan/internal/logger"
	"github.com/kelsos/artisan/internal/models"
	"github.com/kelsos/artisan/internal/presenter"
)

var (
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// Console renders effects as lines of text for non-interactive use. An
// effect equal to the previous one prints nothing, so repeated status
// checks with an unchanged status stay quiet.
type Console struct {
	out  io.Writer
	last *presenter.Effect
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Render implements presenter.Renderer
func (c *Console) Render(effect presenter.Effect) {
	if c.last != nil && reflect.DeepEqual(*c.last, effect) {
		return
	}
	c.last = &effect

	switch {
	case effect.Viewer != nil:
		fmt.Fprintf(c.out, "%s %s\n", successStyle.Render(getIcon(presenter.IconSuccess)+" Model ready:"), effect.Viewer.ModelURL)
	case effect.State == models.UIStateError:
		fmt.Fprintf(c.out, "%s %s\n", errorStyle.Render(getIcon(effect.Icon)+" "+effect.Headline+":"), effect.StatusLine)
	case effect.Busy:
		line := busyStyle.Render(getIcon(effect.Icon) + " " + effect.Headline)
		if effect.StatusLine != "" {
			line += " " + mutedStyle.Render(effect.StatusLine)
		}
		fmt.Fprintln(c.out, line)
	default:
		fmt.Fprintln(c.out, mutedStyle.Render(effect.StatusLine))
	}

	if n := effect.Notification; n != nil {
		if n.Kind == presenter.NotificationError {
			logger.Warn("%s", n.Message)
		} else {
			logger.Info("%s", n.Message)
		}
	}
}
