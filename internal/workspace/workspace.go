package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/texpack/internal/logfields"
)

// Manager handles the scratch workspace for one run.
type Manager struct {
	baseDir string
	tempDir string
	keep    bool // if true, Cleanup leaves the workspace behind for inspection
}

// NewManager creates a workspace manager rooted under baseDir (the system
// temp directory when empty).
func NewManager(baseDir string, keep bool) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir, keep: keep}
}

// Create creates a fresh timestamped workspace directory.
func (m *Manager) Create() error {
	timestamp := time.Now().Format("20060102-150405")
	tempDir, err := os.MkdirTemp(m.baseDir, fmt.Sprintf("texpack-%s-", timestamp))
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.tempDir = tempDir
	slog.Debug("Created workspace", logfields.Path(tempDir))
	return nil
}

// GetPath returns the path to the workspace directory.
func (m *Manager) GetPath() string {
	return m.tempDir
}

// CreateSubdir creates a subdirectory within the workspace.
func (m *Manager) CreateSubdir(name string) (string, error) {
	if m.tempDir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	subdir := filepath.Join(m.tempDir, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return subdir, nil
}

// Subpath returns the path a subdirectory would have, without creating it.
func (m *Manager) Subpath(name string) string {
	return filepath.Join(m.tempDir, name)
}

// Cleanup removes the workspace directory unless the manager was asked to
// keep it.
func (m *Manager) Cleanup() error {
	if m.tempDir == "" {
		return nil
	}
	if m.keep {
		slog.Info("Keeping workspace for inspection", logfields.Path(m.tempDir))
		return nil
	}
	if err := os.RemoveAll(m.tempDir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	slog.Debug("Cleaned up workspace", logfields.Path(m.tempDir))
	m.tempDir = ""
	return nil
}
