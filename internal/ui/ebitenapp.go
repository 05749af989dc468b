package ui

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/audioout"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/cart"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/emu"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/frame"
	"github.com/FabianRolfMatthiasNoll/X65Emulator/internal/ppu"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const screenW, screenH = ppu.Width, ppu.Height

type App struct {
	cfg          Config
	settingsPath string
	m            *emu.Machine
	tex          *ebiten.Image
	overlay      *ebiten.Image
	paused       bool
	fast         bool

	keys [12]ebiten.Key // indexed like buttonNames

	audioCtx    *audio.Context
	audioPlayer *audio.Player
	audioSrc    *audioout.Stream

	// overlay/menu
	showMenu      bool
	menuMode      string // "main", "slot", "rom", "keys", "settings"
	menuIdx       int
	currentSlot   int
	romList       []string
	romSel        int
	romOff        int
	keysOff       int
	editingROMDir bool
	romDirInput   string
	curH          int

	toastMsg   string
	toastUntil time.Time
}

// NewApp prepares the window and audio player. settingsPath, if set, is
// where settings are written back.
func NewApp(cfg Config, settingsPath string, m *emu.Machine) *App {
	cfg.Defaults()
	a := &App{cfg: cfg, settingsPath: settingsPath, m: m, menuMode: "main", curH: screenH}
	a.resolveKeys()
	ebiten.SetWindowTitle(cfg.Title)
	a.applyWindowSize()
	a.audioCtx = newAudioContext(m.SampleRate())
	a.startAudio()
	m.AddAudioOutput(a)
	return a
}

func (a *App) Run() error { return ebiten.RunGame(a) }

func (a *App) resolveKeys() {
	for i, name := range buttonNames {
		var k ebiten.Key
		if err := k.UnmarshalText([]byte(a.cfg.Keys[name])); err != nil {
			_ = k.UnmarshalText([]byte(defaultKeys()[name]))
			a.toast(fmt.Sprintf("Unknown key %q for %s", a.cfg.Keys[name], name))
		}
		a.keys[i] = k
	}
}

func (a *App) applyWindowSize() {
	ebiten.SetWindowSize(screenW*a.cfg.Scale, screenH*a.cfg.Scale)
}

func (a *App) pressed(i int) bool { return ebiten.IsKeyPressed(a.keys[i]) }

// pollButtons merges keyboard and every standard-layout gamepad.
func (a *App) pollButtons() emu.Buttons {
	b := emu.Buttons{
		Up: a.pressed(0), Down: a.pressed(1), Left: a.pressed(2), Right: a.pressed(3),
		A: a.pressed(4), B: a.pressed(5), X: a.pressed(6), Y: a.pressed(7),
		L: a.pressed(8), R: a.pressed(9),
		Start: a.pressed(10), Select: a.pressed(11),
	}
	for _, id := range ebiten.AppendGamepadIDs(nil) {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		btn := func(s ebiten.StandardGamepadButton) bool { return ebiten.IsStandardGamepadButtonPressed(id, s) }
		b.Up = b.Up || btn(ebiten.StandardGamepadButtonLeftTop)
		b.Down = b.Down || btn(ebiten.StandardGamepadButtonLeftBottom)
		b.Left = b.Left || btn(ebiten.StandardGamepadButtonLeftLeft)
		b.Right = b.Right || btn(ebiten.StandardGamepadButtonLeftRight)
		b.A = b.A || btn(ebiten.StandardGamepadButtonRightRight)
		b.B = b.B || btn(ebiten.StandardGamepadButtonRightBottom)
		b.X = b.X || btn(ebiten.StandardGamepadButtonRightTop)
		b.Y = b.Y || btn(ebiten.StandardGamepadButtonRightLeft)
		b.L = b.L || btn(ebiten.StandardGamepadButtonFrontTopLeft)
		b.R = b.R || btn(ebiten.StandardGamepadButtonFrontTopRight)
		b.Start = b.Start || btn(ebiten.StandardGamepadButtonCenterRight)
		b.Select = b.Select || btn(ebiten.StandardGamepadButtonCenterLeft)
	}
	return b
}

func (a *App) Update() error {
	// Toggle menu (Escape)
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && a.menuMode == "main" && !a.editingROMDir {
		a.showMenu = !a.showMenu
		a.menuIdx = 0
		return nil
	}
	if a.showMenu {
		switch a.menuMode {
		case "slot":
			a.updateSlotMenu()
		case "rom":
			a.updateRomMenu()
		case "keys":
			a.updateKeysMenu()
		case "settings":
			a.updateSettingsMenu()
		default:
			a.updateMainMenu()
		}
		return nil
	}

	a.m.SetButtons(a.pollButtons())

	// Pause toggle (P)
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		a.paused = !a.paused
	}

	// Fast-forward (Tab): while held, run multiple frames per Ebiten update
	if fast := ebiten.IsKeyPressed(ebiten.KeyTab); fast != a.fast {
		a.fast = fast
		a.applyPlayerBufferSize()
	}

	// Reset (R), power cycle (Shift+R)
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			a.m.PowerCycle()
			a.toast("Power cycle")
		} else {
			a.m.Reset()
			a.toast("Reset")
		}
	}

	// Quick state slots
	for i, k := range []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4} {
		if inpututil.IsKeyJustPressed(k) {
			a.currentSlot = i
			a.toast(fmt.Sprintf("Slot %d", i+1))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		a.saveSlotToast()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		a.loadSlotToast()
	}

	// Mute (M)
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		a.cfg.AudioMuted = !a.cfg.AudioMuted
		if a.audioSrc != nil {
			a.audioSrc.SetMuted(a.cfg.AudioMuted)
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	}

	// Frame-step when paused (N)
	if a.paused && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		a.m.StepFrame()
	}

	// Screenshot (F12)
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		if name, err := a.saveScreenshot(); err == nil {
			a.toast("Saved " + name)
		} else {
			a.toast("Screenshot failed: " + err.Error())
		}
	}

	if !a.paused {
		n := 1
		if a.fast {
			n = 5
		}
		for i := 0; i < n; i++ {
			a.m.StepFrame()
		}
	}
	return nil
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(screenW, screenH)
		a.overlay = ebiten.NewImage(screenW, screenH)
		a.overlay.Fill(color.RGBA{0, 0, 0, 160})
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)

	if a.showMenu {
		screen.DrawImage(a.overlay, nil)
		switch a.menuMode {
		case "slot":
			a.drawSlotMenu(screen)
		case "rom":
			a.drawRomMenu(screen)
		case "keys":
			a.drawKeysMenu(screen)
		case "settings":
			a.drawSettingsMenu(screen)
		default:
			a.drawMainMenu(screen)
		}
	} else if a.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED", screenW-50, 4)
	}
	if a.toastMsg != "" && time.Now().Before(a.toastUntil) {
		ebitenutil.DebugPrintAt(screen, a.truncateText(a.toastMsg, a.maxCharsForText(4)), 4, screenH-18)
	}
}

func (a *App) Layout(outW, outH int) (int, int) { return screenW, screenH }

func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(2 * time.Second)
}

func (a *App) saveSettings() {
	if a.settingsPath == "" {
		return
	}
	if err := a.cfg.SaveSettings(a.settingsPath); err != nil {
		a.toast(err.Error())
	}
}

// SaveSettings writes the current settings back to the settings file.
func (a *App) SaveSettings() { a.saveSettings() }

func (a *App) statePath(slot int) string {
	base := a.m.ROMPath()
	if base == "" {
		base = "x65"
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + fmt.Sprintf(".state%d", slot+1)
}

func (a *App) saveSlotToast() {
	if err := a.m.SaveStateToFile(a.statePath(a.currentSlot)); err != nil {
		a.toast("Save failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Saved slot %d", a.currentSlot+1))
}

func (a *App) loadSlotToast() {
	path := a.statePath(a.currentSlot)
	if _, err := os.Stat(path); err != nil {
		a.toast("Slot is empty")
		return
	}
	if err := a.m.LoadStateFromFile(path); err != nil {
		a.toast("Load failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Loaded slot %d", a.currentSlot+1))
}

// loadCartridge swaps cartridges, persisting the old battery first.
func (a *App) loadCartridge(path string) {
	a.persistBattery()
	err := a.m.LoadROMFromFile(path)
	var pe *cart.ParseError
	switch {
	case err == nil:
		a.toast("Loaded " + filepath.Base(path))
	case errors.As(err, &pe):
		a.toast(fmt.Sprintf("Bad cartridge (code %d)", pe.Code))
	default:
		a.toast("Load failed: " + err.Error())
		return
	}
	if data, err := cart.LoadSave(cart.SavePath(path)); err == nil {
		a.m.LoadBattery(data)
	}
	ebiten.SetWindowTitle(a.cfg.Title + " - [" + filepath.Base(path) + "]")
}

func (a *App) persistBattery() {
	if a.m.ROMPath() == "" {
		return
	}
	if data, ok := a.m.SaveBattery(); ok {
		if err := cart.WriteSave(cart.SavePath(a.m.ROMPath()), data); err != nil {
			a.toast(err.Error())
		}
	}
}

func (a *App) saveScreenshot() (string, error) {
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	return name, frame.WritePNG(name, a.m.Framebuffer(), screenW, screenH, a.cfg.Scale)
}
