package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/reachwell/reachwell/internal/coach"
	"github.com/reachwell/reachwell/internal/fsutil"
	"github.com/reachwell/reachwell/internal/security"
)

// Exporter writes rendered session artifacts to disk. Destinations are
// validated before anything is created, so an operator supplied path cannot
// land outside the working or temp directories.
type Exporter struct {
	FS fsutil.FileSystem

	// ValidatePath defaults to security.ValidateExportPath. Tests override
	// it when writing to an in-memory filesystem.
	ValidatePath func(string) error
}

// NewExporter returns an Exporter backed by the real filesystem.
func NewExporter() *Exporter {
	return &Exporter{FS: fsutil.OSFileSystem{}}
}

// WriteHTMLReport renders the session chart page to path.
func (e *Exporter) WriteHTMLReport(path string, st coach.Status, samples []coach.Sample) error {
	return e.write(path, func(w io.Writer) error {
		return RenderHTML(w, st, samples)
	})
}

// WriteTrailPNG renders the wrist trail plot to path.
func (e *Exporter) WriteTrailPNG(path string, samples []coach.Sample) error {
	return e.write(path, func(w io.Writer) error {
		return RenderTrailPNG(w, samples)
	})
}

func (e *Exporter) write(path string, render func(io.Writer) error) error {
	validate := e.ValidatePath
	if validate == nil {
		validate = security.ValidateExportPath
	}
	if err := validate(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := e.FS.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	w, err := e.FS.Create(path)
	if err != nil {
		return err
	}
	if err := render(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// DefaultArtifactName derives an artifact filename from a user ID, sanitised
// for safe use on disk.
func DefaultArtifactName(userID, ext string) string {
	return "reachwell-" + security.SanitizeFilename(userID) + ext
}
