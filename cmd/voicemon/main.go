// Command voicemon is an interactive monitor for the voice session
// coordinator. With DEEPGRAM_API_KEY set it drives the real Deepgram adapter
// over local miniaudio capture/playback; without it, a scripted adapter
// stands in so the arbitration states, restart lockouts, session lanes and
// transcript debouncing can be watched without microphone hardware.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	voice "github.com/c111spike/blindfold-voice/core"
	"github.com/c111spike/blindfold-voice/core/audio/miniaudio"
	"github.com/c111spike/blindfold-voice/core/moves"
	"github.com/c111spike/blindfold-voice/core/speech"
	"github.com/c111spike/blindfold-voice/core/speech/deepgram"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildAdapter picks the real Deepgram stack when an API key is available.
// The scripted adapter is returned alongside so the injection keys know
// whether they have anything to drive; it is nil in live mode.
func buildAdapter() (speech.Adapter, *scriptedAdapter, func(), error) {
	if _, ok := os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
		scripted := newScriptedAdapter()
		return scripted, scripted, func() {}, nil
	}

	audioClient, err := miniaudio.NewClient()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open audio devices: %w", err)
	}
	client, err := deepgram.NewClient(audioClient, audioClient)
	if err != nil {
		audioClient.Close()
		return nil, nil, nil, fmt.Errorf("failed to build deepgram client: %w", err)
	}
	return client, nil, audioClient.Close, nil
}

func run() error {
	adapter, scripted, cleanup, err := buildAdapter()
	if err != nil {
		return err
	}
	defer cleanup()

	coordinator := voice.New(adapter)

	model := newModel(coordinator, scripted)
	program := tea.NewProgram(model, tea.WithAltScreen())
	model.send = program.Send

	err = coordinator.Start(context.Background(),
		voice.WithTranscriptCallback(func(transcript string, move *moves.Move) {
			program.Send(logMsg(fmt.Sprintf("transcript delivered: %q", transcript)))
		}),
		voice.WithPartialTranscriptCallback(func(transcript string) {
			program.Send(logMsg(fmt.Sprintf("partial: %q", transcript)))
		}),
		voice.WithStateChangedCallback(func(from, to voice.State) {
			program.Send(stateMsg{from: from, to: to})
		}),
		voice.WithMicUnavailableCallback(func(unavailable bool) {
			program.Send(busyMsg(unavailable))
		}),
		voice.WithCueCallback(func() {
			program.Send(logMsg("cue: microphone live"))
		}),
		voice.WithListeningChangedCallback(func(listening bool) {
			program.Send(listeningMsg(listening))
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to start coordinator: %w", err)
	}

	_, err = program.Run()
	coordinator.StopAndWait()
	return err
}

type logMsg string

type stateMsg struct{ from, to voice.State }

type busyMsg bool

type listeningMsg bool

type keyMap struct {
	Speak    key.Binding
	Fragment key.Binding
	Complete key.Binding
	Final    key.Binding
	Pawn     key.Binding
	Game     key.Binding
	Drill    key.Binding
	Purge    key.Binding
	PurgeAll key.Binding
	Fail     key.Binding
	Reset    key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Speak:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "speak")),
		Fragment: key.NewBinding(key.WithKeys("k"), key.WithHelp("k", `say "knight"`)),
		Complete: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", `say "knight f3"`)),
		Final:    key.NewBinding(key.WithKeys("F"), key.WithHelp("F", `commit "knight f3"`)),
		Pawn:     key.NewBinding(key.WithKeys("e"), key.WithHelp("e", `say "e4"`)),
		Game:     key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "toggle game session")),
		Drill:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "register drill")),
		Purge:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "purge")),
		PurgeAll: key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "purge all")),
		Fail:     key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "toggle start failures")),
		Reset:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset mic busy")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stateStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	busyStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	sessionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	logBorderStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type model struct {
	coordinator *voice.Coordinator
	// scripted is nil when the live Deepgram adapter is in use; the
	// injection keys then have nothing to drive.
	scripted *scriptedAdapter
	send     func(tea.Msg)

	keys keyMap
	log  viewport.Model

	lines        []string
	state        voice.State
	listening    bool
	busy         bool
	failingStart bool
	gameActive   bool
	drillCount   int
	width        int
}

func newModel(coordinator *voice.Coordinator, scripted *scriptedAdapter) *model {
	return &model{
		coordinator: coordinator,
		scripted:    scripted,
		keys:        newKeyMap(),
		log:         viewport.New(80, 16),
		state:       voice.StateListening,
		width:       80,
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.log.Width = msg.Width - 4
		m.log.Height = msg.Height - 8
		m.refreshLog()

	case logMsg:
		m.appendLine(string(msg))

	case stateMsg:
		m.state = msg.to
		m.appendLine(fmt.Sprintf("state: %s -> %s", msg.from, msg.to))

	case busyMsg:
		m.busy = bool(msg)
		if m.busy {
			m.appendLine("microphone unavailable: lockout tripped")
		} else {
			m.appendLine("microphone recovered")
		}

	case listeningMsg:
		m.listening = bool(msg)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.log, cmd = m.log.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Speak):
		m.coordinator.Speak("white plays knight f3, your move")

	case key.Matches(msg, m.keys.Fragment):
		m.injectPartial("knight")

	case key.Matches(msg, m.keys.Complete):
		m.injectPartial("knight f3")

	case key.Matches(msg, m.keys.Final):
		if m.scripted == nil {
			m.appendLine("live adapter active: speak the move out loud")
			break
		}
		m.scripted.sendFinal("knight f3")

	case key.Matches(msg, m.keys.Pawn):
		m.injectPartial("e4")

	case key.Matches(msg, m.keys.Game):
		if m.gameActive {
			m.coordinator.Unregister(voice.SessionGame)
			m.gameActive = false
			m.appendLine("unregistered game session")
		} else {
			m.coordinator.Register(voice.Session{ID: voice.SessionGame})
			m.gameActive = true
			m.appendLine("registered game session")
		}

	case key.Matches(msg, m.keys.Drill):
		m.drillCount++
		id := fmt.Sprintf("drill-%d", m.drillCount)
		m.coordinator.Register(voice.Session{ID: id})
		m.appendLine("registered " + id)

	case key.Matches(msg, m.keys.Purge):
		go m.runPurge(false)

	case key.Matches(msg, m.keys.PurgeAll):
		m.gameActive = false
		go m.runPurge(true)

	case key.Matches(msg, m.keys.Fail):
		if m.scripted == nil {
			m.appendLine("start failures are only scriptable without a live adapter")
			break
		}
		m.failingStart = !m.failingStart
		m.scripted.setFailStarts(m.failingStart)
		m.appendLine(fmt.Sprintf("start failures: %t", m.failingStart))

	case key.Matches(msg, m.keys.Reset):
		m.coordinator.ResetMicBusy()
	}
	return nil
}

// injectPartial feeds a transcript fragment through the scripted adapter; in
// live mode the recognizer hears the microphone instead.
func (m *model) injectPartial(transcript string) {
	if m.scripted == nil {
		m.appendLine("live adapter active: speak the move out loud")
		return
	}
	m.scripted.sendPartial(transcript)
}

// runPurge blocks for the silence window, so it runs off the update loop.
func (m *model) runPurge(includeProtected bool) {
	var err error
	if includeProtected {
		err = m.coordinator.PurgeAll(context.Background())
	} else {
		err = m.coordinator.Purge(context.Background())
	}
	if err != nil {
		m.send(logMsg(fmt.Sprintf("purge failed: %v", err)))
		return
	}
	m.send(logMsg(fmt.Sprintf("purge complete (protected included: %t)", includeProtected)))
}

func (m *model) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > 200 {
		m.lines = m.lines[len(m.lines)-200:]
	}
	m.refreshLog()
}

func (m *model) refreshLog() {
	content := ""
	for _, line := range m.lines {
		content += wordwrap.String(line, m.log.Width) + "\n"
	}
	m.log.SetContent(content)
	m.log.GotoBottom()
}

func (m *model) View() string {
	status := stateStyle.Render(m.state.String())
	if m.busy {
		status = busyStyle.Render("BUSY")
	}

	mic := "mic: stopped"
	if m.listening {
		mic = "mic: listening"
	}

	sessions := "sessions:"
	for _, info := range m.coordinator.Snapshot() {
		marker := ""
		if info.Pending {
			marker = " (pending)"
		}
		sessions += fmt.Sprintf(" %s[%s]%s", info.ID, info.Lane, marker)
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("voicemon"), "  ", status, "  ", mic)

	help := helpStyle.Render(
		"s speak · k fragment · f complete · F commit · e pawn · g game · d drill · " +
			"p purge · P purge all · b fail starts · r reset · q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		sessionStyle.Render(wordwrap.String(sessions, m.width)),
		logBorderStyle.Render(m.log.View()),
		help,
	) + "\n"
}
