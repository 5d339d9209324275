package storage

import (
	"encoding/json"
	"io"

	"github.com/tarinyoom/scarf/internal/dynamo"
)

type ExportData struct {
	Run    *RunMetadata   `json:"run"`
	Frames []dynamo.Frame `json:"frames"`
}

// ExportJSON writes a run and its frames as indented JSON. JSON cannot hold
// non-finite numbers, so diverged frames make this fail.
func ExportJSON(w io.Writer, meta *RunMetadata, frames []dynamo.Frame) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Frames: frames})
}
