package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"

	"github.com/homunculy/chat-client/internal/audio"
	"github.com/homunculy/chat-client/internal/client"
	"github.com/homunculy/chat-client/internal/config"
)

const (
	FooterHeight         = 1
	StatusUpdateInterval = 500 * time.Millisecond
)

// UI is the terminal chat surface: transcript, input line and a status
// footer with connection and audio pipeline health.
type UI struct {
	app        *tview.Application
	transcript *tview.TextView
	input      *tview.InputField
	footer     *tview.TextView

	player        *audio.Player
	config        *config.Config
	companionName string

	mu          sync.Mutex
	session     *client.Session
	connected   bool
	speaking    bool
	lastError   string
	stopUpdates chan struct{}
	stopOnce    sync.Once

	colors struct {
		background tcell.Color
		foreground tcell.Color
		borders    tcell.Color
		highlight  tcell.Color
		companion  tcell.Color
	}
}

func NewUI(cfg *config.Config, player *audio.Player, companionName string) *UI {
	ui := &UI{
		app:           tview.NewApplication(),
		player:        player,
		config:        cfg,
		companionName: companionName,
		stopUpdates:   make(chan struct{}),
	}

	ui.colors.background = config.GetColor(cfg.Theme.Background)
	ui.colors.foreground = config.GetColor(cfg.Theme.Foreground)
	ui.colors.borders = config.GetColor(cfg.Theme.Borders)
	ui.colors.highlight = config.GetColor(cfg.Theme.Highlight)
	ui.colors.companion = config.GetColor(cfg.Theme.Companion)

	ui.setupLayout()
	return ui
}

// SetSession wires the live chat session in once dialed.
func (ui *UI) SetSession(s *client.Session) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.session = s
	ui.connected = true
}

// Callbacks returns the session callbacks that feed this UI.
func (ui *UI) Callbacks() client.Callbacks {
	return client.Callbacks{
		OnMessageStart: func() {
			ui.setSpeaking(true)
			ui.appendf("\n[%s::b]%s:[-::-] ", ui.config.Theme.Companion, ui.companionName)
		},
		OnText: func(content string) {
			ui.appendf("%s", tview.Escape(content))
		},
		OnMessageEnd: func() {
			ui.setSpeaking(false)
			ui.appendf("\n")
		},
		OnError: func(message string) {
			ui.mu.Lock()
			ui.lastError = message
			ui.mu.Unlock()
			ui.appendf("\n[%s]server error: %s[-]\n", ui.config.Theme.StatusBad, tview.Escape(message))
		},
		OnDisconnect: func(err error) {
			ui.mu.Lock()
			ui.connected = false
			ui.mu.Unlock()
			ui.appendf("\n[%s]disconnected: %v[-]\n", ui.config.Theme.StatusBad, err)
		},
	}
}

func (ui *UI) setupLayout() {
	ui.transcript = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true).
		SetChangedFunc(func() {
			ui.transcript.ScrollToEnd()
		})
	ui.transcript.
		SetBorder(true).
		SetTitle(fmt.Sprintf(" %s ", ui.companionName)).
		SetBorderColor(ui.colors.borders).
		SetBackgroundColor(ui.colors.background)
	ui.transcript.SetTextColor(ui.colors.foreground)

	ui.input = tview.NewInputField().
		SetLabel("> ").
		SetLabelColor(ui.colors.highlight).
		SetFieldBackgroundColor(ui.colors.background).
		SetFieldTextColor(ui.colors.foreground)
	ui.input.SetBackgroundColor(ui.colors.background)
	ui.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(ui.input.GetText())
		ui.input.SetText("")
		if text == "" {
			return
		}
		ui.handleInput(text)
	})

	ui.footer = tview.NewTextView().SetDynamicColors(true)
	ui.footer.SetBackgroundColor(ui.colors.background)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.transcript, 0, 1, false).
		AddItem(ui.input, 1, 0, true).
		AddItem(ui.footer, FooterHeight, 0, false)

	ui.app.SetRoot(layout, true).SetFocus(ui.input)
	ui.app.SetInputCapture(ui.globalInputHandler)
}

func (ui *UI) globalInputHandler(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		// Cut the companion off mid-reply.
		ui.interrupt()
		return nil
	case tcell.KeyCtrlC:
		ui.Shutdown()
		return nil
	}
	return event
}

func (ui *UI) handleInput(text string) {
	switch text {
	case "/quit", "/exit":
		ui.Shutdown()
		return
	}

	ui.appendf("\n[%s::b]you:[-::-] %s\n", ui.config.Theme.Highlight, tview.Escape(text))

	ui.mu.Lock()
	session := ui.session
	ui.mu.Unlock()
	if session == nil {
		ui.appendf("[%s]not connected[-]\n", ui.config.Theme.StatusBad)
		return
	}

	if err := session.SendMessage(text); err != nil {
		log.Warn().Err(err).Msg("Failed to send message")
		ui.appendf("[%s]send failed: %v[-]\n", ui.config.Theme.StatusBad, err)
	}
}

func (ui *UI) interrupt() {
	ui.mu.Lock()
	session := ui.session
	ui.mu.Unlock()
	if session == nil {
		return
	}
	if err := session.SendInterrupt(); err != nil {
		log.Debug().Err(err).Msg("Failed to send interrupt")
	}
	ui.setSpeaking(false)
}

func (ui *UI) setSpeaking(speaking bool) {
	ui.mu.Lock()
	ui.speaking = speaking
	ui.mu.Unlock()
}

// appendf writes to the transcript from any goroutine.
func (ui *UI) appendf(format string, args ...interface{}) {
	ui.app.QueueUpdateDraw(func() {
		fmt.Fprintf(ui.transcript, format, args...)
	})
}

func (ui *UI) updateFooter() {
	ui.mu.Lock()
	connected := ui.connected
	speaking := ui.speaking
	ui.mu.Unlock()

	status := FormatStatus(connected, speaking, ui.player.Enabled(), ui.player.BufferHealth())
	ui.app.QueueUpdateDraw(func() {
		ui.footer.SetText(status)
	})
}

// FormatStatus renders the footer status line.
func FormatStatus(connected, speaking, audioEnabled bool, bufferHealth int) string {
	var parts []string

	if connected {
		parts = append(parts, "[green]● connected[-]")
	} else {
		parts = append(parts, "[red]○ offline[-]")
	}

	switch {
	case !audioEnabled:
		parts = append(parts, "[yellow]audio off[-]")
	case speaking:
		parts = append(parts, fmt.Sprintf("[green]speaking[-] buf %d%%", bufferHealth))
	default:
		parts = append(parts, "audio ready")
	}

	parts = append(parts, "[gray]Esc interrupt · /quit exit[-]")
	return " " + strings.Join(parts, "  |  ")
}

// Run blocks until the application exits.
func (ui *UI) Run() error {
	go ui.statusLoop()
	return ui.app.Run()
}

func (ui *UI) statusLoop() {
	ticker := time.NewTicker(StatusUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ui.stopUpdates:
			return
		case <-ticker.C:
			ui.updateFooter()
		}
	}
}

// Shutdown stops the status loop and the application. Safe to call from
// any goroutine, more than once.
func (ui *UI) Shutdown() {
	ui.stopOnce.Do(func() {
		close(ui.stopUpdates)
		ui.app.Stop()
	})
}
