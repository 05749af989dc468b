package ui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// debug font cell width in pixels
const charW = 6

func (a *App) maxCharsForText(x int) int {
	n := (screenW - x) / charW
	if n < 1 {
		n = 1
	}
	return n
}

func (a *App) truncateText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func drawList(screen *ebiten.Image, lines []string, sel, y int) {
	for i, s := range lines {
		prefix := "  "
		if i == sel {
			prefix = "> "
		}
		ebitenutil.DebugPrintAt(screen, prefix+s, 10, y+i*14)
	}
}

func onOff(b bool) string {
	if b {
		return "On"
	}
	return "Off"
}

func (a *App) drawMainMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Menu:", 10, 10)
	drawList(screen, []string{
		fmt.Sprintf("Save state (slot %d)", a.currentSlot+1),
		fmt.Sprintf("Load state (slot %d)", a.currentSlot+1),
		"Select Slot",
		"Switch Cartridge",
		"Settings",
		"Keybindings",
		"Close",
	}, a.menuIdx, 24)
	hint := a.truncateText("F5: Save  F9: Load  1-4: Slot  F11: Fullscreen", a.maxCharsForText(10))
	ebitenutil.DebugPrintAt(screen, hint, 10, 24+mainMenuItems*14+4)
}

func (a *App) drawSlotMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Select Slot:", 10, 10)
	lines := make([]string, 4)
	for i := range lines {
		lines[i] = fmt.Sprintf("%d", i+1)
		if _, err := os.Stat(a.statePath(i)); err != nil {
			lines[i] += " [empty]"
		}
	}
	drawList(screen, lines, a.menuIdx, 24)
}

func (a *App) drawRomMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Select cartridge (Enter load, Esc back)", 10, 10)
	ebitenutil.DebugPrintAt(screen, a.truncateText("Dir: "+a.cfg.ROMsDir, a.maxCharsForText(10)), 10, 24)
	if len(a.romList) == 0 {
		ebitenutil.DebugPrintAt(screen, "No cartridges found", 10, 40)
		return
	}
	end := min(a.romOff+a.romRows(), len(a.romList))
	names := make([]string, 0, end-a.romOff)
	for _, p := range a.romList[a.romOff:end] {
		names = append(names, a.truncateText(filepath.Base(p), a.maxCharsForText(10)-2))
	}
	drawList(screen, names, a.romSel-a.romOff, 40)
	// scroll indicators
	if a.romOff > 0 {
		ebitenutil.DebugPrintAt(screen, "^", 2, 40)
	}
	if end < len(a.romList) {
		ebitenutil.DebugPrintAt(screen, "v", 2, 40+(a.romRows()-1)*14)
	}
}

func (a *App) drawKeysMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Keybindings (Up/Down scroll, Esc back)", 10, 10)
	rows := make([]string, 0, len(buttonNames)+12)
	for _, name := range buttonNames {
		rows = append(rows, fmt.Sprintf("%s: %s", a.cfg.Keys[name], name))
	}
	rows = append(rows,
		"P: Pause",
		"N: Step (when paused)",
		"Tab: Fast-forward",
		"R: Reset",
		"Shift+R: Power cycle",
		"M: Mute",
		"F5/F9: Save/Load state",
		"F12: Screenshot",
		"Esc: Open/Close Menu",
	)
	maxRows := (a.curH - 28) / 14
	a.keysOff = max(0, min(a.keysOff, len(rows)-maxRows))
	end := min(a.keysOff+maxRows, len(rows))
	for i := a.keysOff; i < end; i++ {
		ebitenutil.DebugPrintAt(screen, a.truncateText(rows[i], a.maxCharsForText(10)), 10, 28+(i-a.keysOff)*14)
	}
}

func (a *App) drawSettingsMenu(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, "Settings (Left/Right change, Esc back)", 10, 10)
	romDir := a.cfg.ROMsDir
	if a.editingROMDir {
		romDir = a.romDirInput + "_"
	}
	audio := "Mono"
	if a.cfg.AudioStereo {
		audio = "Stereo"
	}
	drawList(screen, []string{
		fmt.Sprintf("Scale: %dx", a.cfg.Scale),
		"Audio: " + audio,
		"Mute: " + onOff(a.cfg.AudioMuted),
		"Low-Latency Audio: " + onOff(a.cfg.AudioLowLatency),
		"Cartridge Dir: " + a.truncateText(romDir, a.maxCharsForText(10)-17),
	}, a.menuIdx, 28)
}
