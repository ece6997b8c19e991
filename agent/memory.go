package agent

import (
	"errors"
	"os"
	"path/filepath"
)

// DefaultMemoryPath is where the scratchpad lives unless configured.
const DefaultMemoryPath = ".pocket/memory.md"

const defaultMemoryContent = "I am Pocket, a helpful coding assistant.\n"

// Memory is the agent's persistent scratchpad: plain text, loaded at
// construction and overwritten whole on save. Its content is injected as
// the backend's system text on every call.
type Memory struct {
	path    string
	content string
}

// OpenMemory loads the scratchpad at path, bootstrapping it with a default
// greeting when the file does not exist yet.
func OpenMemory(path string) (*Memory, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		data = []byte(defaultMemoryContent)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return &Memory{path: path, content: string(data)}, nil
}

// Path returns the backing file path.
func (m *Memory) Path() string { return m.path }

// Content returns the current scratchpad text.
func (m *Memory) Content() string { return m.content }

// Save overwrites the scratchpad. The write goes to a temp file in the
// same directory and is renamed over the backing path, so either both the
// file and the in-memory content update or neither does.
func (m *Memory) Save(content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".memory-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	m.content = content
	return nil
}
