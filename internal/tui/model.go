package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kelsos/artisan/internal/download"
	"github.com/kelsos/artisan/internal/models"
	"github.com/kelsos/artisan/internal/presenter"
)

// ToastLifetime is how long a notification stays on screen
const ToastLifetime = 3500 * time.Millisecond

// Submitter starts a generation; the session behind it renders the outcome
type Submitter interface {
	Submit(ctx context.Context, req models.GenerationRequest) error
}

// Downloader saves the model of a finished task
type Downloader func(ctx context.Context, taskID string) (*download.Result, error)

type Options struct {
	Context   context.Context
	Submitter Submitter
	Download  Downloader
	Presenter presenter.Presenter
	// Template supplies the attributes sent with every prompt typed in the form
	Template models.GenerationRequest
	// AutoSubmit submits Template.Prompt as soon as the program starts
	AutoSubmit bool
}

// EffectMsg delivers a presenter effect to the program
type EffectMsg struct {
	Effect presenter.Effect
}

type toastExpiredMsg struct {
	id int
}

type downloadFinishedMsg struct {
	result *download.Result
	err    error
}

type toast struct {
	id      int
	kind    presenter.NotificationKind
	message string
}

type Model struct {
	opts        Options
	prompt      textarea.Model
	spinner     spinner.Model
	progress    progress.Model
	effect      presenter.Effect
	toasts      []toast
	nextToastID int
	downloading bool
	savedNote   string
	width       int
	height      int
	quit        bool
}

func NewModel(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	ta := textarea.New()
	ta.Placeholder = "Describe the model, e.g. a red chair"
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetValue(opts.Template.Prompt)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	pr := progress.New(progress.WithDefaultGradient())

	return Model{
		opts:     opts,
		prompt:   ta,
		spinner:  sp,
		progress: pr,
		effect:   opts.Presenter.Present(models.UIStateIdle, presenter.Payload{}),
		width:    80,
		height:   24,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, textarea.Blink}
	if m.opts.AutoSubmit && strings.TrimSpace(m.opts.Template.Prompt) != "" {
		cmds = append(cmds, m.submitCmd())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m = m.handleWindowSizeMsg(msg)

	case EffectMsg:
		var cmd tea.Cmd
		m, cmd = m.handleEffect(msg.Effect)
		cmds = append(cmds, cmd)

	case toastExpiredMsg:
		m = m.handleToastExpired(msg)

	case downloadFinishedMsg:
		m = m.handleDownloadFinished(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		if progressModel, ok := progressModel.(progress.Model); ok {
			m.progress = progressModel
		}
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quit = true
		return m, tea.Quit
	case "enter":
		if !m.effect.SubmitEnabled {
			return m, nil
		}
		return m, m.submitCmd()
	case "ctrl+d":
		if m.effect.Viewer == nil || m.downloading || m.opts.Download == nil {
			return m, nil
		}
		m.downloading = true
		m.savedNote = ""
		return m, m.downloadCmd(m.effect.Viewer.TaskID)
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) handleWindowSizeMsg(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.progress.Width = max(msg.Width-20, 10)
	m.prompt.SetWidth(max(msg.Width-6, 20))
	return m
}

// handleEffect replaces what is on screen with the new effect
func (m Model) handleEffect(effect presenter.Effect) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	m.effect = effect
	if effect.ResetResult {
		m.savedNote = ""
	}
	cmds = append(cmds, m.progress.SetPercent(effect.Progress))

	if effect.Notification != nil {
		id := m.nextToastID
		m.nextToastID++
		m.toasts = append(m.toasts, toast{
			id:      id,
			kind:    effect.Notification.Kind,
			message: effect.Notification.Message,
		})
		cmds = append(cmds, tea.Tick(ToastLifetime, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		}))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleToastExpired(msg toastExpiredMsg) Model {
	for i, t := range m.toasts {
		if t.id == msg.id {
			m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
			break
		}
	}
	return m
}

func (m Model) handleDownloadFinished(msg downloadFinishedMsg) Model {
	m.downloading = false
	if msg.err != nil {
		m.savedNote = fmt.Sprintf("Download failed: %v", msg.err)
	} else {
		m.savedNote = fmt.Sprintf("Saved to %s", msg.result.Path)
	}
	return m
}

func (m Model) submitCmd() tea.Cmd {
	req := m.opts.Template
	req.Prompt = m.prompt.Value()
	ctx := m.opts.Context
	submitter := m.opts.Submitter

	return func() tea.Msg {
		// Validation failures are rendered by the session itself
		_ = submitter.Submit(ctx, req)
		return nil
	}
}

func (m Model) downloadCmd(taskID string) tea.Cmd {
	ctx := m.opts.Context
	fetch := m.opts.Download

	return func() tea.Msg {
		result, err := fetch(ctx, taskID)
		return downloadFinishedMsg{result: result, err: err}
	}
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder
	contentWidth := max(m.width-6, 20)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render("🧊 Artisan: AI Text-to-3D Generator"))
	s.WriteString("\n\n")

	s.WriteString(m.prompt.View())
	s.WriteString("\n")
	s.WriteString(m.submitHint())
	s.WriteString("\n\n")

	sectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(max(m.width-2, 20))

	var area strings.Builder
	if m.effect.StatusVisible {
		area.WriteString(m.statusView(contentWidth))
	}
	if m.effect.Viewer != nil {
		area.WriteString(m.viewerView(contentWidth))
	}
	if m.effect.Progress > 0 {
		area.WriteString("\n" + m.progress.View())
	}
	s.WriteString(sectionStyle.Render(area.String()))
	s.WriteString("\n")

	for _, t := range m.toasts {
		s.WriteString(toastStyle(t.kind).Render(truncate.StringWithTail(t.message, uint(contentWidth), "...")))
		s.WriteString("\n")
	}

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)

	footer := "enter: generate | ctrl+d: download | esc: quit | Logs: logs/artisan_*.log"
	s.WriteString(footerStyle.Render(footer))

	return s.String()
}

func (m Model) submitHint() string {
	if m.effect.SubmitEnabled {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("▶ Generate (enter)")
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.spinner.View() + " Generating...")
}

func (m Model) statusView(width int) string {
	var b strings.Builder

	icon := getIcon(m.effect.Icon)
	if m.effect.Busy {
		icon = m.spinner.View()
	}

	if m.effect.Headline != "" {
		headlineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
		if m.effect.State == models.UIStateError {
			headlineStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
		}
		b.WriteString(icon + " " + headlineStyle.Render(m.effect.Headline) + "\n")
	}

	if m.effect.StatusLine != "" {
		lineStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
		b.WriteString(lineStyle.Render(wordwrap.String(m.effect.StatusLine, width)) + "\n")
	}

	return b.String()
}

func (m Model) viewerView(width int) string {
	var b strings.Builder

	readyStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	b.WriteString(readyStyle.Render(getIcon(presenter.IconSuccess)+" Model ready") + "\n")

	urlStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	b.WriteString(urlStyle.Render(truncate.StringWithTail(m.effect.Viewer.ModelURL, uint(width), "...")) + "\n")

	noteStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	switch {
	case m.downloading:
		b.WriteString(noteStyle.Render(m.spinner.View()+" Downloading...") + "\n")
	case m.savedNote != "":
		b.WriteString(noteStyle.Render(wordwrap.String(m.savedNote, width)) + "\n")
	default:
		b.WriteString(noteStyle.Render("Press ctrl+d to download") + "\n")
	}

	return b.String()
}

func toastStyle(kind presenter.NotificationKind) lipgloss.Style {
	background := lipgloss.Color("62")
	if kind == presenter.NotificationError {
		background = lipgloss.Color("160")
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("231")).
		Background(background).
		Padding(0, 1)
}

func getIcon(icon presenter.Icon) string {
	switch icon {
	case presenter.IconLoader:
		return "⏳"
	case presenter.IconAlert:
		return "⚠️"
	case presenter.IconSuccess:
		return "✅"
	default:
		return ""
	}
}
