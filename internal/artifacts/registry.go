package artifacts

import (
	"os"
	"sort"
	"strings"

	"StockCast/internal/algo"
)

// Registry answers existence and discovery queries by scanning the store
// directory on each call. Artifact creation is rare relative to queries,
// so a fresh scan beats maintaining an invalidation protocol.
type Registry struct {
	store *Store
}

// NewRegistry wraps a store.
func NewRegistry(store *Store) *Registry {
	return &Registry{store: store}
}

// ModelArtifactsExist reports whether a usable artifact set exists for the
// pair. Windowed kinds need the model file plus either the current-format
// pipeline bundle or the legacy scaler file; the series-fitting kinds need
// only the model file.
func (r *Registry) ModelArtifactsExist(symbol string, a algo.Algorithm) bool {
	if !fileExists(r.store.ModelPath(symbol, a)) {
		return false
	}
	if !a.IsWindowed() {
		return true
	}
	return fileExists(r.store.PipelinePath(symbol, a)) ||
		fileExists(r.store.LegacyScalerPath(symbol, a))
}

// HasAnyArtifact reports whether any algorithm has a model file for the
// symbol. Used by symbol normalization to settle suffix ambiguity.
func (r *Registry) HasAnyArtifact(symbol string) bool {
	for _, a := range algo.All {
		if fileExists(r.store.ModelPath(symbol, a)) {
			return true
		}
	}
	return false
}

// ListAvailableModels scans the store and groups trained algorithms by
// decoded symbol. Both maps keys and algorithm lists come back sorted.
func (r *Registry) ListAvailableModels() map[string][]string {
	entries, err := os.ReadDir(r.store.Dir())
	if err != nil {
		return map[string][]string{}
	}

	found := make(map[string]map[string]struct{})
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key, a, ok := parseModelFilename(e.Name())
		if !ok {
			continue
		}
		symbol := DecodeModelKey(key)
		if found[symbol] == nil {
			found[symbol] = make(map[string]struct{})
		}
		found[symbol][string(a)] = struct{}{}
	}

	out := make(map[string][]string, len(found))
	for symbol, set := range found {
		algos := make([]string, 0, len(set))
		for a := range set {
			algos = append(algos, a)
		}
		sort.Strings(algos)
		out[symbol] = algos
	}
	return out
}

// LoadBestModels picks one algorithm per symbol using a fixed preference
// order (lstm, then gru, then cnn_lstm, then first available). This is a
// documented tie-break, not a quality judgment; EvaluateModels exists for
// the latter.
func (r *Registry) LoadBestModels() map[string]string {
	available := r.ListAvailableModels()
	best := make(map[string]string, len(available))
	for symbol, algos := range available {
		best[symbol] = pickBest(algos)
	}
	return best
}

func pickBest(algos []string) string {
	for _, pref := range []string{"lstm", "gru", "cnn_lstm"} {
		for _, a := range algos {
			if a == pref {
				return pref
			}
		}
	}
	if len(algos) > 0 {
		return algos[0]
	}
	return ""
}

// parseModelFilename decodes "{key}_{algo}.model" or "{key}_{algo}.json"
// into its parts. Companion files (_pipeline.json, _scaler.json) and
// anything else are rejected. cnn_lstm is matched before lstm so the
// longer suffix wins.
func parseModelFilename(name string) (key string, a algo.Algorithm, ok bool) {
	var base string
	switch {
	case strings.HasSuffix(name, ".model"):
		base = strings.TrimSuffix(name, ".model")
	case strings.HasSuffix(name, ".json"):
		base = strings.TrimSuffix(name, ".json")
		if strings.HasSuffix(base, "_pipeline") || strings.HasSuffix(base, "_scaler") {
			return "", "", false
		}
	default:
		return "", "", false
	}

	for _, cand := range algo.All {
		suffix := "_" + string(cand)
		if strings.HasSuffix(base, suffix) && len(base) > len(suffix) {
			return strings.TrimSuffix(base, suffix), cand, true
		}
	}
	return "", "", false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
