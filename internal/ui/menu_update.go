package ui

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

const mainMenuItems = 7

func back() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyBackspace)
}

func (a *App) updateMainMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < mainMenuItems-1 {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		switch a.menuIdx {
		case 0:
			a.saveSlotToast()
		case 1:
			a.loadSlotToast()
		case 2:
			a.menuMode = "slot"
			a.menuIdx = a.currentSlot
		case 3:
			a.romList = a.findROMs()
			a.romSel = 0
			a.romOff = 0
			a.menuMode = "rom"
		case 4:
			a.menuMode = "settings"
			a.menuIdx = 0
			a.editingROMDir = false
		case 5:
			a.menuMode = "keys"
			a.keysOff = 0
		case 6:
			a.showMenu = false
		}
	}
	// Back with Backspace
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		a.showMenu = false
	}
}

func (a *App) updateSlotMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < 3 {
		a.menuIdx++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.currentSlot = a.menuIdx
		a.toast("Slot set")
		a.menuMode = "main"
		a.menuIdx = 2
	}
	if back() {
		a.menuMode = "main"
		a.menuIdx = 2
	}
}

// findROMs lists cartridge images under the configured directory.
func (a *App) findROMs() []string {
	var out []string
	_ = filepath.WalkDir(a.cfg.ROMsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".x65") {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out
}

func (a *App) romRows() int {
	rows := (a.curH - 40) / 14
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (a *App) updateRomMenu() {
	n := len(a.romList)
	if n == 0 {
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || back() {
			a.menuMode = "main"
		}
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.romSel > 0 {
		a.romSel--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.romSel < n-1 {
		a.romSel++
	}
	// keep the selection visible
	maxRows := a.romRows()
	if a.romSel < a.romOff {
		a.romOff = a.romSel
	}
	if a.romSel >= a.romOff+maxRows {
		a.romOff = a.romSel - maxRows + 1
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		a.loadCartridge(a.romList[a.romSel])
		a.menuMode = "main"
		a.showMenu = false
	}
	if back() {
		a.menuMode = "main"
	}
}

func (a *App) updateKeysMenu() {
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.keysOff > 0 {
		a.keysOff--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) {
		a.keysOff++
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) || back() {
		a.menuMode = "main"
	}
}

// settings rows: 0 scale, 1 audio output, 2 mute, 3 low latency, 4 cartridge dir
const settingsItems = 5

func (a *App) updateSettingsMenu() {
	if a.editingROMDir {
		a.updateROMDirInput()
		return
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) && a.menuIdx > 0 {
		a.menuIdx--
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) && a.menuIdx < settingsItems-1 {
		a.menuIdx++
	}
	left := inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft)
	right := inpututil.IsKeyJustPressed(ebiten.KeyArrowRight)
	toggle := left || right || inpututil.IsKeyJustPressed(ebiten.KeyEnter)
	switch a.menuIdx {
	case 0:
		if left && a.cfg.Scale > 1 {
			a.cfg.Scale--
			a.applyWindowSize()
			a.saveSettings()
		}
		if right && a.cfg.Scale < 8 {
			a.cfg.Scale++
			a.applyWindowSize()
			a.saveSettings()
		}
	case 1:
		if toggle {
			a.cfg.AudioStereo = !a.cfg.AudioStereo
			a.startAudio()
			a.saveSettings()
		}
	case 2:
		if toggle {
			a.cfg.AudioMuted = !a.cfg.AudioMuted
			if a.audioSrc != nil {
				a.audioSrc.SetMuted(a.cfg.AudioMuted)
			}
			a.saveSettings()
		}
	case 3:
		if toggle {
			a.cfg.AudioLowLatency = !a.cfg.AudioLowLatency
			a.applyPlayerBufferSize()
			a.saveSettings()
		}
	case 4:
		if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
			a.editingROMDir = true
			a.romDirInput = a.cfg.ROMsDir
			return
		}
	}
	if back() {
		a.menuMode = "main"
		a.menuIdx = 4
	}
}

func (a *App) updateROMDirInput() {
	a.romDirInput = string(ebiten.AppendInputChars([]rune(a.romDirInput)))
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) && len(a.romDirInput) > 0 {
		a.romDirInput = a.romDirInput[:len(a.romDirInput)-1]
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		if val := strings.TrimSpace(a.romDirInput); val != "" {
			a.cfg.ROMsDir = val
			a.saveSettings()
			a.toast("Cartridge dir set")
		}
		a.editingROMDir = false
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		a.editingROMDir = false
		a.romDirInput = a.cfg.ROMsDir
	}
}
