package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/benmeehan/iot-dashboard/internal/models"
	"github.com/benmeehan/iot-dashboard/pkg/file"
	"github.com/rs/zerolog"
)

// Exporter writes telemetry history snapshots to disk as JSON files for
// offline analysis.
type Exporter struct {
	dir        string
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewExporter creates a new Exporter writing into dir.
func NewExporter(dir string, fileClient file.FileOperations, logger zerolog.Logger) *Exporter {
	return &Exporter{
		dir:        dir,
		fileClient: fileClient,
		logger:     logger,
	}
}

// Export writes the given samples to a timestamped file and returns its
// path. The filename carries the export time in unix milliseconds so
// repeated exports never collide.
func (e *Exporter) Export(samples []models.TelemetrySample) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	// Keep the file a JSON array even when there is nothing to export.
	if samples == nil {
		samples = []models.TelemetrySample{}
	}

	path := filepath.Join(e.dir, fmt.Sprintf("telemetry-%d.json", time.Now().UnixMilli()))
	if err := e.fileClient.WriteJsonFile(path, samples); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	e.logger.Info().Str("path", path).Int("samples", len(samples)).Msg("Telemetry history exported")
	return path, nil
}
