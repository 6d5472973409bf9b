package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/matatu-hustle/simcore/pkg/core"
)

// TripExport is the document written on Close.
type TripExport struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Trips      []core.TripRecord `json:"trips"`
}

// exportTrips writes every recorded trip to a timestamped file. Callers hold b.mu.
func (b *Backend) exportTrips() (string, error) {
	export := TripExport{
		ExportedAt: time.Now().UTC(),
		Trips:      b.allTrips(),
	}

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", tripsFile, export.ExportedAt.Format("20060102_150405"), b.ext())
	path := filepath.Join(b.cfg.OutputDir, name)
	if err := writeFile(path, export, b.cfg.CompressOutput); err != nil {
		return "", fmt.Errorf("export trips: %w", err)
	}
	return path, nil
}

// writeFile encodes v as JSON into a temp file and renames it over path.
func writeFile(path string, v any, compress bool) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(tmp)
		w = gz
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		tmp.Close()
		return err
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readFile(path string, compressed bool) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if compressed {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}
