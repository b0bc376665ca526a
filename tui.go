package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"audioshift/events"
)

type tickMsg time.Time

// Palettes for the eye, indexed by pixel color id. Index 0 is
// transparent; 14 and 15 are the glass reflection highlights.
var (
	palRecording    = []string{"", "226", "220", "214", "208", "196", "160", "124", "88", "52", "236", "236", "236", "236", "255", "249"}
	palIdle         = []string{"", "231", "224", "217", "210", "160", "124", "88", "52", "236", "236", "236", "236", "236", "255", "249"}
	palTranscribing = []string{"", "230", "228", "222", "214", "208", "172", "136", "94", "58", "236", "236", "236", "236", "255", "249"}
)

type eyeStyles struct {
	fg [16]lipgloss.Style
	bg [16][16]lipgloss.Style
}

var eyeStyleSets map[events.Phase]*eyeStyles

func buildEyeStyles(pal []string) *eyeStyles {
	s := &eyeStyles{}
	for i, c := range pal {
		if c != "" {
			s.fg[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
		}
	}
	for i, fg := range pal {
		for j, bg := range pal {
			if fg != "" && bg != "" {
				s.bg[i][j] = lipgloss.NewStyle().Foreground(lipgloss.Color(fg)).Background(lipgloss.Color(bg))
			}
		}
	}
	return s
}

func init() {
	eyeStyleSets = map[events.Phase]*eyeStyles{
		events.PhaseIdle:         buildEyeStyles(palIdle),
		events.PhaseRecording:    buildEyeStyles(palRecording),
		events.PhaseTranscribing: buildEyeStyles(palTranscribing),
		events.PhaseError:        buildEyeStyles(palIdle),
	}
}

type tuiModel struct {
	phase         events.Phase
	frame         int
	duration      float64
	level         float64
	levels        []float64
	msgCount      int
	width, height int

	modeLine      string
	deviceLine    string
	cancelSession func()

	lastText  string
	noSpeech  bool
	lastStats string
	errText   string
	errHint   string

	file     events.FileProgress
	download events.ModelDownload
}

// startTUI runs the overlay and pumps bus events into it. Events are
// handed to bubbletea as messages directly; Update switches on their
// concrete types.
func startTUI(bus *events.Bus, modeLine, deviceLine string, cancelSession func()) *tea.Program {
	m := tuiModel{
		phase:         events.PhaseIdle,
		modeLine:      modeLine,
		deviceLine:    deviceLine,
		cancelSession: cancelSession,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())

	ch, cancel := bus.Subscribe(512)
	go func() {
		defer cancel()
		for ev := range ch {
			p.Send(ev)
		}
	}()
	return p
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.cancelSession != nil {
				m.cancelSession()
			}
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case events.PhaseChanged:
		prev := m.phase
		m.phase = msg.Phase
		if msg.Phase == events.PhaseRecording {
			m.duration = 0
			m.level = 0
			m.levels = m.levels[:0]
			m.errText = ""
			m.errHint = ""
		}
		if prev == events.PhaseRecording && msg.Phase != events.PhaseRecording {
			m.level = 0
		}

	case events.RecordingTick:
		m.duration = msg.Seconds

	case events.Amplitude:
		if m.phase == events.PhaseRecording {
			m.level = m.level*0.6 + msg.Level*0.4
			m.levels = append(m.levels, msg.Level)
			if len(m.levels) > levelWindow {
				m.levels = m.levels[len(m.levels)-levelWindow:]
			}
		}

	case events.Completed:
		m.msgCount++
		m.lastText = msg.Text
		m.noSpeech = msg.NoSpeech
		if msg.NoSpeech {
			m.lastText = "(no speech detected)"
		}
		m.lastStats = fmt.Sprintf("%.1fs audio in %.1fs (%.1fx)",
			float64(msg.DurationMs)/1000,
			float64(msg.ProcessingMs)/1000,
			speedup(msg.DurationMs, msg.ProcessingMs))

	case events.SessionError:
		m.errText = msg.Message
		m.errHint = msg.Hint

	case events.FileProgress:
		m.file = msg

	case events.ModelDownload:
		m.download = msg
		if msg.Progress >= 100 {
			m.download = events.ModelDownload{}
		}
	}
	return m, nil
}

// levelWindow is how many recent amplitude samples the overlay keeps.
const levelWindow = 60

func windowPeak(levels []float64) float64 {
	peak := 0.0
	for _, l := range levels {
		if l > peak {
			peak = l
		}
	}
	return peak
}

func speedup(durationMs, processingMs int64) float64 {
	if processingMs <= 0 {
		return 0
	}
	return float64(durationMs) / float64(processingMs)
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const eyeWidth = 45
	level := m.level
	if m.phase != events.PhaseRecording {
		level = 0
	}

	eye := renderEye(m.frame, level, m.phase)

	var infoLines []string
	infoLines = append(infoLines, m.statusLine())
	if m.phase == events.PhaseRecording && m.duration > 1.0 && windowPeak(m.levels) < 0.02 {
		warn := lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Render("  no voice detected")
		infoLines = append(infoLines, warn)
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	if m.modeLine != "" {
		infoLines = append(infoLines, lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(m.modeLine))
	}
	if m.deviceLine != "" {
		infoLines = append(infoLines, dimStyle.Render(m.deviceLine))
	}
	if m.phase == events.PhaseRecording || m.phase == events.PhaseTranscribing {
		infoLines = append(infoLines, dimStyle.Render("esc cancels"))
	}

	if m.download.ModelID != "" {
		dl := fmt.Sprintf("downloading %s %d%%", m.download.ModelID, m.download.Progress)
		infoLines = append(infoLines, dimStyle.Render(dl))
	}

	infoLines = append(infoLines, "")
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	infoLines = append(infoLines, boldStyle.Render("Ctrl+Shift+Space")+helpStyle.Render(" to dictate"))
	infoLines = append(infoLines, helpStyle.Render("audioshift "+version))

	for _, line := range infoLines {
		eye += line + "\n"
	}
	eyeLines := strings.Split(eye, "\n")

	logWidth := max(m.width-eyeWidth-1, 20)
	logPanel := lipgloss.NewStyle().
		Width(logWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(m.renderSidePanel(max(logWidth-2, 10)))

	eyePadded := make([]string, m.height)
	for i := range eyePadded {
		if i < len(eyeLines) {
			eyePadded[i] = eyeLines[i]
		} else {
			eyePadded[i] = strings.Repeat(" ", eyeWidth-1)
		}
	}
	eyePanel := lipgloss.NewStyle().
		Width(eyeWidth - 1).
		Height(m.height).
		Render(strings.Join(eyePadded, "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, eyePanel, logPanel)
}

func (m tuiModel) statusLine() string {
	switch m.phase {
	case events.PhaseRecording:
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			Render(fmt.Sprintf("● REC %.1fs", m.duration))
	case events.PhaseTranscribing:
		dots := strings.Repeat(".", m.frame/8%4)
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Render("◐ TRANSCRIBING" + dots)
	default:
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("○ STANDBY")
	}
}

func (m tuiModel) renderSidePanel(wrapWidth int) string {
	var b strings.Builder

	if m.errText != "" {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		for _, line := range wrapText(m.errText, wrapWidth) {
			b.WriteString(errStyle.Render(line) + "\n")
		}
		if m.errHint != "" {
			hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
			b.WriteString(hintStyle.Render("hint: "+m.errHint) + "\n")
		}
		b.WriteString("\n")
	}

	if m.lastText != "" {
		title := lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")).
			Render(fmt.Sprintf("Last transcription (#%d)", m.msgCount))
		b.WriteString(title + "\n\n")

		textStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		if m.noSpeech {
			textStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
		}
		lines := wrapText(m.lastText, wrapWidth)
		for i, line := range lines {
			b.WriteString(textStyle.Render(line))
			if i == len(lines)-1 && !m.noSpeech {
				okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
				b.WriteString(" " + okStyle.Render("[copied]"))
			}
			b.WriteString("\n")
		}
		if m.lastStats != "" {
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Render(m.lastStats) + "\n")
		}
	} else if m.errText == "" {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("No transcriptions yet"))
		b.WriteString("\n")
	}

	if m.file.Status != "" && m.file.Status != "idle" {
		b.WriteString("\n")
		b.WriteString(m.renderFileProgress(wrapWidth))
	}

	return b.String()
}

func (m tuiModel) renderFileProgress(wrapWidth int) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	var b strings.Builder
	b.WriteString(dim.Render("File: "+m.file.FileName) + "\n")
	switch m.file.Status {
	case "converting":
		b.WriteString(dim.Render("converting...") + "\n")
	case "transcribing":
		line := fmt.Sprintf("transcribing %d%% (%ds elapsed", m.file.Progress, m.file.ElapsedSecs)
		if m.file.EstimateSecs > 0 {
			line += fmt.Sprintf(", ~%ds total", m.file.EstimateSecs)
		}
		line += ")"
		b.WriteString(dim.Render(line) + "\n")
	case "completed":
		ok := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
		b.WriteString(ok.Render("saved to "+m.file.OutputPath) + "\n")
	case "error":
		bad := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		for _, line := range wrapText(m.file.Err, wrapWidth) {
			b.WriteString(bad.Render(line) + "\n")
		}
	}
	return b.String()
}

// renderEye draws the concentric-ring eye with half-block characters,
// two pixels per terminal row. Ring radii breathe with the amplitude
// while recording and with a slow sine otherwise.
func renderEye(frame int, level float64, phase events.Phase) string {
	const charsW = 44
	const charsH = 15
	const pixW = charsW
	const pixH = charsH * 2

	centerX := float64(pixW) / 2
	centerY := float64(pixH) / 2

	var breathe float64
	switch phase {
	case events.PhaseRecording:
		breathe = math.Sin(float64(frame)*0.10)*0.03 + level*10.0 - 0.05
	case events.PhaseTranscribing:
		breathe = math.Sin(float64(frame)*0.25) * 0.08
	default:
		breathe = math.Sin(float64(frame)*0.08)*0.02 - 0.05
	}

	pixels := make([][]int, pixH)
	for i := range pixels {
		pixels[i] = make([]int, pixW)
	}

	type ring struct {
		radius     float64
		breatheAmt float64
		colorIdx   int
	}
	rings := []ring{
		{0.6, 0.10, 1},
		{1.3, 0.12, 2},
		{2.0, 0.15, 3},
		{2.8, 0.35, 4},
		{3.5, 0.40, 5},
		{4.2, 0.38, 6},
		{5.0, 0.30, 7},
		{5.8, 0.15, 8},
		{6.5, 0.03, 9},
		{7.2, 0.0, 10},
		{8.0, 0.0, 11},
		{10.0, 0.0, 12},
		{12.0, 0.0, 13},
	}

	for y := 0; y < pixH; y++ {
		for x := 0; x < pixW; x++ {
			dx := float64(x) - centerX
			dy := float64(y) - centerY
			dist := math.Sqrt(dx*dx + dy*dy)
			for _, r := range rings {
				radius := min(r.radius+breathe*r.breatheAmt*20, 10.0)
				if dist < radius {
					pixels[y][x] = r.colorIdx
					break
				}
			}
		}
	}

	// Glass reflection highlights.
	type spot struct {
		ox, oy float64
		radius float64
		color  int
	}
	dSide := 9.0
	dSide2 := 7.2
	dTop := 10.0
	dTop2 := 8.2
	spots := []spot{
		{-dSide * 0.707, -dSide * 0.707, 0.7, 14},
		{-dSide2 * 0.707, -dSide2 * 0.707, 0.4, 15},
		{0, -dTop, 0.8, 14},
		{0, -dTop2, 0.6, 15},
		{dSide * 0.707, -dSide * 0.707, 0.7, 14},
		{dSide2 * 0.707, -dSide2 * 0.707, 0.4, 15},
		{0, -2.0, 0.6, 14},
	}
	for y := 0; y < pixH; y++ {
		for x := 0; x < pixW; x++ {
			px := float64(x) - centerX
			py := float64(y) - centerY
			for _, s := range spots {
				dx := px - s.ox
				dy := py - s.oy
				rLen := math.Sqrt(s.ox*s.ox + s.oy*s.oy)
				if rLen < 0.001 {
					rLen = 1
				}
				tx, ty := -s.oy/rLen, s.ox/rLen
				dt := dx*tx + dy*ty
				dn := dx*(-ty) + dy*tx
				if (dt*dt)/9.0+dn*dn < s.radius*s.radius {
					pixels[y][x] = s.color
				}
			}
		}
	}

	styles := eyeStyleSets[phase]
	if styles == nil {
		styles = eyeStyleSets[events.PhaseIdle]
	}

	var result strings.Builder
	for cy := 0; cy < charsH; cy++ {
		for cx := 0; cx < charsW; cx++ {
			topY := cy * 2
			botY := cy*2 + 1
			top := 0
			bot := 0
			if topY < pixH {
				top = pixels[topY][cx]
			}
			if botY < pixH {
				bot = pixels[botY][cx]
			}
			switch {
			case top == 0 && bot == 0:
				result.WriteString(" ")
			case top == bot:
				result.WriteString(styles.fg[top].Render("█"))
			case top != 0 && bot == 0:
				result.WriteString(styles.fg[top].Render("▀"))
			case top == 0 && bot != 0:
				result.WriteString(styles.fg[bot].Render("▄"))
			default:
				result.WriteString(styles.bg[top][bot].Render("▀"))
			}
		}
		result.WriteString("\n")
	}
	return result.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
