package cart

import (
	"fmt"
	"os"
)

// SaveFileSize is the size of a battery save file.
const SaveFileSize = 0x10000

// SavePath returns the battery file path for a cartridge path:
// "game.x65" saves to "game.x65.sav".
func SavePath(cartPath string) string { return cartPath + ".sav" }

// LoadSave reads a battery file. Files of the wrong size are rejected.
func LoadSave(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load save: %w", err)
	}
	if len(data) != SaveFileSize {
		return nil, fmt.Errorf("load save %s: size %d, want %d", path, len(data), SaveFileSize)
	}
	return data, nil
}

func WriteSave(path string, data []byte) error {
	if len(data) != SaveFileSize {
		return fmt.Errorf("write save %s: size %d, want %d", path, len(data), SaveFileSize)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write save: %w", err)
	}
	return nil
}
