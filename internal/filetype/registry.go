package filetype

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry maps file extensions to MIME types and preview capabilities.
// Uploads use it to stamp content types; share previews use it to decide
// how a file can be rendered.
type Registry struct {
	entries map[string]Entry
	mu      sync.RWMutex
}

// NewRegistry creates a registry from the embedded YAML file.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		entries: make(map[string]Entry),
	}

	if err := r.loadFile("filetypes"); err != nil {
		return nil, fmt.Errorf("failed to load filetype registry: %w", err)
	}

	return r, nil
}

func (r *Registry) loadFile(name string) error {
	filename := fmt.Sprintf("config/%s.yaml", name)
	data, err := configFiles.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var doc registryFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for ext, entry := range doc.Extensions {
		r.entries[strings.ToLower(ext)] = entry
	}

	return nil
}

// Lookup resolves a file name to its registry entry. Unknown extensions
// fall back to application/octet-stream with no preview.
func (r *Registry) Lookup(fileName string) Entry {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))

	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.entries[ext]; ok {
		return entry
	}
	return Entry{MIMEType: "application/octet-stream", Preview: PreviewNone}
}
