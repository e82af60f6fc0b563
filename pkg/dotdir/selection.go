package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	selectionFile = "selection.json"
)

// Selection is the persisted document selection used by ask and chat.
type Selection struct {
	// DocumentID is the selected document.
	DocumentID string `json:"document_id"`

	// DocumentName is kept for display only.
	DocumentName string `json:"document_name,omitempty"`

	// TenantID scopes the selection. Empty means the configured tenant.
	TenantID string `json:"tenant_id,omitempty"`

	SelectedAt time.Time `json:"selected_at"`
}

// LoadSelection loads the selection from a target .ragdesk/selection.json.
// Returns nil, nil if nothing is selected.
func (m *Manager) LoadSelection(overrideDir string) (*Selection, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, selectionFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading selection: %w", err)
	}

	sel := &Selection{}
	if err := json.Unmarshal(data, sel); err != nil {
		return nil, fmt.Errorf("parsing selection: %w", err)
	}

	return sel, nil
}

// SaveSelection persists sel to a target .ragdesk/selection.json.
func (m *Manager) SaveSelection(sel *Selection, overrideDir string) error {
	if sel == nil {
		return errors.New("cannot save nil selection")
	}
	if sel.DocumentID == "" {
		return errors.New("selection requires a document id")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling selection: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, selectionFile), data, 0o600); err != nil {
		return fmt.Errorf("writing selection: %w", err)
	}

	return nil
}

// ClearSelection removes the selection file. Returns nil if the file doesn't
// exist.
func (m *Manager) ClearSelection(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, selectionFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing selection: %w", err)
	}

	return nil
}
