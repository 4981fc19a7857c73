package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tidwall/pretty"

	"DipScan/internal/domain/models"
)

// JSONWriter dumps the whole report as indented JSON.
type JSONWriter struct {
	path string
}

func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

func (w *JSONWriter) Name() string { return "json" }

func (w *JSONWriter) Write(_ context.Context, report *models.ScanReport) error {
	if err := writePrettyJSON(w.path, report); err != nil {
		return fmt.Errorf("write json %s: %w", w.path, err)
	}
	return nil
}

func writePrettyJSON(path string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return writeFileAtomic(path, func(out io.Writer) error {
		_, err := out.Write(pretty.Pretty(raw))
		return err
	})
}
