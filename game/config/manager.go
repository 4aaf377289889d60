package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/sokoban/game/engine"
	"github.com/wricardo/sokoban/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = errors.New("invalid level")
)

// Extensions are tried in this order; each may also carry a .zst suffix.
var levelExtensions = []string{".txt", ".json", ".yaml", ".yml"}

const compressedSuffix = ".zst"

//go:embed level.schema.json
var levelSchemaJSON string

var levelSchema = jsonschema.MustCompileString("level.schema.json", levelSchemaJSON)

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultLevel *engine.Level
	levels       map[string]*engine.Level
	mu           sync.RWMutex
}

// NewManager creates a new level manager
func NewManager(levelDir string) (*Manager, error) {
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.Level),
	}

	m.loadDefaultLevel()
	return m, nil
}

// Dir returns the directory levels are read from
func (m *Manager) Dir() string {
	return m.levelDir
}

// LoadLevel loads a level by name
func (m *Manager) LoadLevel(name string) (*engine.Level, error) {
	name = levelID(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrLevelNotFound, name)
	}

	m.mu.RLock()
	if level, exists := m.levels[name]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[name]; exists {
		return level, nil
	}

	path, ok := m.resolve(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLevelNotFound, name)
	}

	level, err := ReadLevelFile(path)
	if err != nil {
		return nil, err
	}
	if level.Name == "" {
		level.Name = name
	}

	m.levels[name] = level
	return level, nil
}

// ListLevels returns information about all valid levels in the directory
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	seen := make(map[string]bool)
	var levels []*service.LevelInfo

	for _, entry := range entries {
		if entry.IsDir() || !IsLevelFile(entry.Name()) {
			continue
		}

		id := levelID(entry.Name())
		if seen[id] {
			continue
		}
		seen[id] = true

		level, err := m.LoadLevel(id)
		if err != nil {
			// Skip invalid levels
			continue
		}

		// Report the file LoadLevel reads when one ID exists in several formats
		m.mu.RLock()
		path, ok := m.resolve(id)
		m.mu.RUnlock()
		filename := entry.Name()
		if ok {
			filename = filepath.Base(path)
		}

		levels = append(levels, &service.LevelInfo{
			Filename:    filename,
			LevelID:     id,
			Name:        level.Name,
			Description: level.Description,
			Rows:        level.Rows,
			Columns:     level.Columns,
			MaxEnergy:   level.MaxEnergy,
			Boxes:       countBoxes(level),
		})
	}

	sort.Slice(levels, func(i, j int) bool {
		return levels[i].LevelID < levels[j].LevelID
	})
	return levels, nil
}

// GetDefault returns the default level
func (m *Manager) GetDefault() *engine.Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// SetDefault sets the default level by name
func (m *Manager) SetDefault(name string) error {
	level, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// RefreshCache drops every cached level and reloads the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.levels = make(map[string]*engine.Level)
	m.mu.Unlock()

	m.loadDefaultLevel()
}

// SaveLevel validates a level and writes it to disk in the text format
func (m *Manager) SaveLevel(name string, level *engine.Level) error {
	name = levelID(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: bad level name %q", ErrInvalidLevel, name)
	}
	if level == nil {
		return fmt.Errorf("%w: level cannot be nil", ErrInvalidLevel)
	}
	if err := level.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}

	var buf bytes.Buffer
	if err := level.WriteText(&buf); err != nil {
		return fmt.Errorf("failed to encode level: %w", err)
	}

	path := filepath.Join(m.levelDir, name+".txt")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write level file: %w", err)
	}

	// The text format has no name field, so the file stem becomes the name
	saved := *level
	saved.Name = name
	saved.Description = ""
	saved.Layout = append([]string(nil), level.Layout...)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.levels[name] = &saved
	return nil
}

// resolve finds the file holding a level. Callers hold the lock.
func (m *Manager) resolve(name string) (string, bool) {
	for _, ext := range levelExtensions {
		for _, suffix := range []string{"", compressedSuffix} {
			path := filepath.Join(m.levelDir, name+ext+suffix)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, true
			}
		}
	}
	return "", false
}

// loadDefaultLevel loads the default level
func (m *Manager) loadDefaultLevel() {
	// Try to load classic as default
	level, err := m.LoadLevel("classic")
	if err != nil {
		// Try to load the first available level
		levels, listErr := m.ListLevels()
		if listErr == nil && len(levels) > 0 {
			level, err = m.LoadLevel(levels[0].LevelID)
		}
		if err != nil {
			level = MinimalLevel()
		}
	}

	m.mu.Lock()
	m.defaultLevel = level
	m.mu.Unlock()
}

// MinimalLevel is the built-in fallback used when the directory holds no
// valid level
func MinimalLevel() *engine.Level {
	return &engine.Level{
		Name:        "minimal",
		Description: "One box, one push",
		MaxEnergy:   5,
		Rows:        5,
		Columns:     5,
		Layout: []string{
			"#####",
			"# X #",
			"# C #",
			"# E #",
			"#####",
		},
	}
}

// IsLevelFile reports whether a file name has a level extension
func IsLevelFile(filename string) bool {
	base := strings.TrimSuffix(strings.ToLower(filename), compressedSuffix)
	for _, ext := range levelExtensions {
		if strings.HasSuffix(base, ext) {
			return true
		}
	}
	return false
}

// ReadLevelFile decodes and validates a level file of any supported format
func ReadLevelFile(path string) (*engine.Level, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLevelNotFound, path)
		}
		return nil, fmt.Errorf("failed to open level file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	name := strings.ToLower(path)
	if strings.HasSuffix(name, compressedSuffix) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed level: %w", err)
		}
		defer dec.Close()
		r = dec
		name = strings.TrimSuffix(name, compressedSuffix)
	}

	level, err := DecodeLevel(r, filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if level.Name == "" {
		level.Name = levelID(path)
	}
	return level, nil
}

// DecodeLevel reads a level in the format named by ext (".txt", ".json",
// ".yaml" or ".yml")
func DecodeLevel(r io.Reader, ext string) (*engine.Level, error) {
	switch strings.ToLower(ext) {
	case ".txt":
		level, err := engine.ParseLevel(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
		}
		return level, nil

	case ".json":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read level: %w", err)
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
		}
		if err := levelSchema.Validate(doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
		}
		var level engine.Level
		if err := json.Unmarshal(data, &level); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
		}
		return validated(&level)

	case ".yaml", ".yml":
		var level engine.Level
		if err := yaml.NewDecoder(r).Decode(&level); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
		}
		return validated(&level)
	}

	return nil, fmt.Errorf("%w: unsupported level format %q", ErrInvalidLevel, ext)
}

func validated(level *engine.Level) (*engine.Level, error) {
	if err := level.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}
	return level, nil
}

// levelID strips directories and level extensions from a file name
func levelID(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	base = strings.TrimSuffix(base, compressedSuffix)
	for _, ext := range levelExtensions {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return base[:len(base)-len(ext)]
		}
	}
	return base
}

func countBoxes(level *engine.Level) int {
	n := 0
	for _, row := range level.Layout {
		n += strings.Count(row, string(engine.Box.Char()))
	}
	return n
}
