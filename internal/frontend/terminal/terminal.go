// Package terminal implements a tcell-based host.Presenter,
// host.InputSource, and host.QuitChecker: it renders the 160x144
// framebuffer as half-block characters (two vertically-stacked pixels
// per terminal cell) and maps a fixed key layout onto the eight DMG
// buttons.
package terminal

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dmgo-emu/dmgo-core/internal/joypad"
)

const (
	width  = 160
	height = 144

	frameInterval = time.Second * 100 / 5973 // ~59.73 Hz

	// keyTimeout is slightly longer than a typical terminal key-repeat
	// interval: a button is considered held until this long passes
	// without seeing another repeat of its key event.
	keyTimeout = 100 * time.Millisecond
)

// shadeColors maps a DMG 2-bit color index (0=lightest) to a terminal
// color, matching the documented white/light-gray/dark-gray/black DMG
// palette.
var shadeColors = [4]tcell.Color{
	tcell.ColorWhite,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlack,
}

// keyMapping is the fixed key layout: arrows for the D-pad, Z/X for
// B/A, Enter for Start, and Backspace for Select.
var keyMapping = map[tcell.Key]joypad.Button{
	tcell.KeyUp:        joypad.ButtonUp,
	tcell.KeyDown:      joypad.ButtonDown,
	tcell.KeyLeft:      joypad.ButtonLeft,
	tcell.KeyRight:     joypad.ButtonRight,
	tcell.KeyEnter:     joypad.ButtonStart,
	tcell.KeyBackspace: joypad.ButtonSelect,
	tcell.KeyBackspace2: joypad.ButtonSelect,
}

var runeMapping = map[rune]joypad.Button{
	'z': joypad.ButtonB,
	'x': joypad.ButtonA,
}

// Host is a tcell screen wired up as the three host collaborator
// interfaces the tick loop needs: Present, PollInput, and
// QuitRequested.
type Host struct {
	screen tcell.Screen

	lastSeen  map[joypad.Button]time.Time
	quit      bool
	lastFrame time.Time
}

// New initializes a tcell screen in raw mode. Callers must call Close
// when done to restore the terminal.
func New() (*Host, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: initializing screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal: initializing screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()
	return &Host{screen: screen, lastSeen: make(map[joypad.Button]time.Time)}, nil
}

// Close restores the terminal to its prior state.
func (h *Host) Close() {
	h.screen.Fini()
}

// QuitRequested reports whether Esc or Ctrl+C has been seen.
func (h *Host) QuitRequested() bool {
	return h.quit
}

// Present draws frame as half-block characters, two DMG scanlines per
// terminal row, and paces presentation to roughly 59.73 Hz.
func (h *Host) Present(frame [height][width]uint8) {
	h.pollEvents()

	h.screen.Clear()
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := frame[y][x]
			bottom := uint8(0)
			if y+1 < height {
				bottom = frame[y+1][x]
			}
			h.screen.SetContent(x, y/2, '▀', nil,
				tcell.StyleDefault.Foreground(shadeColors[top]).Background(shadeColors[bottom]))
		}
	}
	h.screen.Show()

	if elapsed := time.Since(h.lastFrame); elapsed < frameInterval {
		time.Sleep(frameInterval - elapsed)
	}
	h.lastFrame = time.Now()
}

// PollInput returns the button mask seen within the last keyTimeout,
// reconstructed from each button's last-seen timestamp. A terminal
// delivers key-repeat events while a key is held and none when it is
// released, so "still held" is inferred from recency rather than an
// explicit release event.
func (h *Host) PollInput() joypad.Button {
	h.pollEvents()

	now := time.Now()
	var mask joypad.Button
	for b, seen := range h.lastSeen {
		if now.Sub(seen) < keyTimeout {
			mask |= b
		} else {
			delete(h.lastSeen, b)
		}
	}
	return mask
}

func (h *Host) pollEvents() {
	for h.screen.HasPendingEvent() {
		switch ev := h.screen.PollEvent().(type) {
		case *tcell.EventKey:
			h.processKey(ev)
		case *tcell.EventResize:
			h.screen.Sync()
		}
	}
}

func (h *Host) processKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		h.quit = true
		return
	}
	if b, ok := keyMapping[ev.Key()]; ok {
		h.lastSeen[b] = time.Now()
		return
	}
	if ev.Key() == tcell.KeyRune {
		if b, ok := runeMapping[ev.Rune()]; ok {
			h.lastSeen[b] = time.Now()
		}
	}
}
