package server

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"careertools/internal/config"
	"careertools/internal/errors"
	"careertools/internal/registry"
	"careertools/internal/types"
)

//go:embed fixtures/*.json
var embeddedFixtures embed.FS

// FixtureBackend answers every tool from canned payloads
type FixtureBackend struct {
	mu       sync.RWMutex
	payloads map[types.ToolKind]json.RawMessage
	sources  map[types.ToolKind]string
	loadedAt time.Time

	dir     string
	latency time.Duration
	logger  *errors.Logger
}

// NewFixtureBackend loads the embedded fixtures and overlays the files found in cfg.Dir
func NewFixtureBackend(cfg config.FixturesConfig, logger *errors.Logger) (*FixtureBackend, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	fb := &FixtureBackend{dir: cfg.Dir, latency: cfg.Latency, logger: logger}
	if err := fb.Reload(); err != nil {
		return nil, err
	}
	return fb, nil
}

// Reload rereads every fixture. On failure the previous payloads stay in place.
func (fb *FixtureBackend) Reload() error {
	payloads := make(map[types.ToolKind]json.RawMessage)
	sources := make(map[types.ToolKind]string)

	for _, tool := range registry.All() {
		name := string(tool.Kind) + ".json"
		raw, source, err := fb.readFixture(name)
		if err != nil {
			return err
		}
		if violations := tool.CheckPayload(raw); len(violations) > 0 {
			return errors.NewConfigError(errors.ErrCodeInvalidConfig,
				fmt.Sprintf("fixture %s does not match the %s result contract: %s",
					source, tool.Kind, strings.Join(violations, "; ")), nil)
		}
		payloads[tool.Kind] = raw
		sources[tool.Kind] = source
	}

	fb.mu.Lock()
	fb.payloads = payloads
	fb.sources = sources
	fb.loadedAt = time.Now()
	fb.mu.Unlock()

	fb.logger.Info("Fixtures loaded", "dir", fb.dir, "tools", len(payloads))
	return nil
}

// readFixture prefers the override directory and falls back to the embedded copy
func (fb *FixtureBackend) readFixture(name string) ([]byte, string, error) {
	if fb.dir != "" {
		path := filepath.Join(fb.dir, name)
		raw, err := os.ReadFile(path)
		if err == nil {
			return raw, path, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", errors.NewIOError(errors.ErrCodeFileNotReadable,
				fmt.Sprintf("Cannot read fixture: %s", path), err)
		}
	}
	raw, err := embeddedFixtures.ReadFile("fixtures/" + name)
	if err != nil {
		return nil, "", errors.NewInternalError("FIXTURE_MISSING",
			fmt.Sprintf("No embedded fixture %s", name), err)
	}
	return raw, "embedded:" + name, nil
}

// Analyze returns the fixture for tool after the configured latency
func (fb *FixtureBackend) Analyze(ctx context.Context, tool *registry.Tool, _ types.ProfileDraft) (json.RawMessage, error) {
	if fb.latency > 0 {
		timer := time.NewTimer(fb.latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	fb.mu.RLock()
	defer fb.mu.RUnlock()
	raw, ok := fb.payloads[tool.Kind]
	if !ok {
		return nil, errors.NewInternalError("FIXTURE_MISSING",
			fmt.Sprintf("No fixture loaded for %s", tool.Kind), nil)
	}
	return raw, nil
}

// Files lists the override files a watcher should follow
func (fb *FixtureBackend) Files() []string {
	if fb.dir == "" {
		return nil
	}
	files := make([]string, 0, len(registry.All()))
	for _, tool := range registry.All() {
		files = append(files, filepath.Join(fb.dir, string(tool.Kind)+".json"))
	}
	return files
}

func (fb *FixtureBackend) Name() string { return "fixtures" }

func (fb *FixtureBackend) Health() map[string]any {
	fb.mu.RLock()
	defer fb.mu.RUnlock()
	sources := make(map[string]string, len(fb.sources))
	for kind, source := range fb.sources {
		sources[string(kind)] = source
	}
	return map[string]any{
		"healthy":   len(fb.payloads) == len(registry.All()),
		"dir":       fb.dir,
		"latency":   fb.latency.String(),
		"loaded_at": fb.loadedAt,
		"sources":   sources,
	}
}
