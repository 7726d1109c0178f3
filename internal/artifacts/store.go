package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"StockCast/internal/algo"
	"StockCast/internal/domain/models"
	"StockCast/internal/pipeline"
)

// ModelKey converts a canonical symbol into a filesystem-safe artifact key
// (market-suffix dots become underscores).
func ModelKey(symbol string) string {
	return strings.ReplaceAll(symbol, ".", "_")
}

// DecodeModelKey reverses ModelKey when reconstructing a symbol from a
// filename.
func DecodeModelKey(key string) string {
	return strings.ReplaceAll(key, "_", ".")
}

// PipelineBundle is the current-format companion artifact for windowed
// model kinds: the fitted scalers plus the feature-column order they were
// fitted with.
type PipelineBundle struct {
	Scalers     *pipeline.ScalerSet `json:"scalers"`
	FeatureCols []string            `json:"feature_cols"`
}

// Store lays out artifacts in a single directory, one file set per
// (symbol, algorithm) pair.
type Store struct {
	dir string
}

// NewStore creates the artifact directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create models dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// ModelPath is the primary model file for a pair. Network kinds use the
// zip container; the rest are JSON documents.
func (s *Store) ModelPath(symbol string, a algo.Algorithm) string {
	key := ModelKey(symbol)
	if a.IsNet() {
		return filepath.Join(s.dir, fmt.Sprintf("%s_%s.model", key, a))
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.json", key, a))
}

// PipelinePath is the current-format scaler bundle file.
func (s *Store) PipelinePath(symbol string, a algo.Algorithm) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s_pipeline.json", ModelKey(symbol), a))
}

// LegacyScalerPath is the old-format close-only scaler file, still
// accepted at load time.
func (s *Store) LegacyScalerPath(symbol string, a algo.Algorithm) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s_scaler.json", ModelKey(symbol), a))
}

// SaveNet persists a trained network as a model container.
func (s *Store) SaveNet(symbol string, a algo.Algorithm, n *algo.Network) error {
	return WriteContainer(s.ModelPath(symbol, a), n.Cfg, n.FlattenWeights())
}

// LoadNet reconstructs a trained network from its container.
func (s *Store) LoadNet(symbol string, a algo.Algorithm) (*algo.Network, error) {
	path := s.ModelPath(symbol, a)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s for %s: %w", a, symbol, models.ErrModelNotFound)
	}
	cfg, weights, err := ReadContainer(path)
	if err != nil {
		return nil, err
	}
	n := algo.NewNetwork(cfg, rand.Int63())
	if err := n.LoadWeights(weights); err != nil {
		return nil, fmt.Errorf("container %s: %w: %w", path, err, models.ErrArtifactCorrupt)
	}
	return n, nil
}

// SaveJSON writes any JSON-serializable model document.
func (s *Store) SaveJSON(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadJSON reads a JSON model document into doc, mapping a missing file to
// ErrModelNotFound and a broken one to ErrArtifactCorrupt.
func (s *Store) LoadJSON(path string, doc any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", path, models.ErrModelNotFound)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("decode %s: %w: %w", path, err, models.ErrArtifactCorrupt)
	}
	return nil
}

// SaveBundle persists the pipeline bundle for a windowed model.
func (s *Store) SaveBundle(symbol string, a algo.Algorithm, b *PipelineBundle) error {
	return s.SaveJSON(s.PipelinePath(symbol, a), b)
}

// LoadBundle loads the current-format pipeline bundle, or falls back to a
// legacy scaler file rewrapped as a close-only bundle.
func (s *Store) LoadBundle(symbol string, a algo.Algorithm) (*PipelineBundle, bool, error) {
	var b PipelineBundle
	err := s.LoadJSON(s.PipelinePath(symbol, a), &b)
	if err == nil {
		if b.Scalers == nil {
			return nil, false, fmt.Errorf("bundle for %s/%s has no scalers: %w", symbol, a, models.ErrArtifactCorrupt)
		}
		return &b, false, nil
	}
	if !errors.Is(err, models.ErrModelNotFound) {
		return nil, false, err
	}

	var price pipeline.MinMaxScaler
	if err := s.LoadJSON(s.LegacyScalerPath(symbol, a), &price); err != nil {
		return nil, false, fmt.Errorf("no pipeline bundle or legacy scaler for %s/%s: %w", symbol, a, models.ErrModelNotFound)
	}
	legacy := &PipelineBundle{Scalers: pipeline.NewScalerSet()}
	legacy.Scalers.Price = price
	return legacy, true, nil
}
