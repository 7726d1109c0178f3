// Package artifacts persists and rediscovers trained model bundles on the
// filesystem, including compatibility handling for containers written by
// newer encoder versions.
package artifacts

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"StockCast/internal/algo"
	"StockCast/internal/domain/models"
)

const (
	containerConfigName  = "config.json"
	containerWeightsName = "weights.bin"

	// quantizationKey is emitted by a newer container encoder and is not
	// part of the schema this decoder understands. Containers carrying it
	// are repaired on load by stripping the key at every nesting level.
	quantizationKey = "quantization_config"
)

// WriteContainer stores a network model as a zip container holding the
// architecture config and a flat weights blob.
func WriteContainer(path string, cfg algo.NetConfig, weights []float64) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	cfgBytes, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode container config: %w", err)
	}
	w, err := zw.Create(containerConfigName)
	if err != nil {
		return err
	}
	if _, err := w.Write(cfgBytes); err != nil {
		return err
	}

	w, err = zw.Create(containerWeightsName)
	if err != nil {
		return err
	}
	if err := writeWeights(w, weights); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadContainer loads a network container, applying the unknown-key repair
// when the config fails strict decoding because of it. Unrelated decode
// failures surface as ErrArtifactCorrupt.
func ReadContainer(path string) (algo.NetConfig, []float64, error) {
	cfg, weights, err := readContainerFile(path)
	if err == nil {
		return cfg, weights, nil
	}
	if !strings.Contains(err.Error(), quantizationKey) {
		return algo.NetConfig{}, nil, err
	}

	// Patch the embedded config in a temporary copy and retry from there.
	tmp, repairErr := repairContainer(path)
	if repairErr != nil {
		return algo.NetConfig{}, nil, fmt.Errorf("repair %s: %w: %w", path, repairErr, models.ErrArtifactCorrupt)
	}
	defer os.Remove(tmp)
	return readContainerFile(tmp)
}

func readContainerFile(path string) (algo.NetConfig, []float64, error) {
	var cfg algo.NetConfig

	zr, err := zip.OpenReader(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("open container %s: %w: %w", path, err, models.ErrArtifactCorrupt)
	}
	defer zr.Close()

	cfgBytes, err := readZipEntry(&zr.Reader, containerConfigName)
	if err != nil {
		return cfg, nil, fmt.Errorf("container %s: %w: %w", path, err, models.ErrArtifactCorrupt)
	}
	dec := json.NewDecoder(bytes.NewReader(cfgBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, nil, fmt.Errorf("container %s config: %w", path, err)
	}

	weightBytes, err := readZipEntry(&zr.Reader, containerWeightsName)
	if err != nil {
		return cfg, nil, fmt.Errorf("container %s: %w: %w", path, err, models.ErrArtifactCorrupt)
	}
	weights, err := decodeWeights(weightBytes)
	if err != nil {
		return cfg, nil, fmt.Errorf("container %s weights: %w: %w", path, err, models.ErrArtifactCorrupt)
	}
	return cfg, weights, nil
}

// repairContainer rewrites the container into a temp file with the unknown
// key stripped from the embedded config at every nesting level.
func repairContainer(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		data, err := readZipEntry(&zr.Reader, f.Name)
		if err != nil {
			return "", err
		}
		if f.Name == containerConfigName {
			var generic any
			if err := json.Unmarshal(data, &generic); err != nil {
				return "", err
			}
			generic = stripKey(generic, quantizationKey)
			if data, err = json.MarshalIndent(generic, "", "  "); err != nil {
				return "", err
			}
		}
		w, err := zw.Create(f.Name)
		if err != nil {
			return "", err
		}
		if _, err := w.Write(data); err != nil {
			return "", err
		}
	}
	if err := zw.Close(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp("", "stockcast-model-*.model")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// stripKey removes the named key from every map at every depth.
func stripKey(v any, key string) any {
	switch t := v.(type) {
	case map[string]any:
		delete(t, key)
		for k, child := range t {
			t[k] = stripKey(child, key)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = stripKey(child, key)
		}
		return t
	}
	return v
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("entry %s missing", name)
}

func writeWeights(w io.Writer, weights []float64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(len(weights)))
	if _, err := w.Write(buf); err != nil {
		return err
	}
	for _, v := range weights {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

func decodeWeights(data []byte) ([]float64, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("weights blob truncated")
	}
	n := int(binary.LittleEndian.Uint64(data[:8]))
	if len(data) != 8+8*n {
		return nil, fmt.Errorf("weights blob has %d bytes, header claims %d values", len(data), n)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[8+8*i:]))
	}
	return out, nil
}
