package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/quire/internal/engine"
	"github.com/dshills/quire/internal/markup"
	"github.com/dshills/quire/internal/schema"
)

// Format names a document serialization.
type Format string

// Supported formats. Text is output only.
const (
	FormatMarkup Format = "markup"
	FormatJSON   Format = "json"
	FormatText   Format = "text"
)

// ParseFormat returns the format called s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatMarkup, FormatJSON, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatForPath picks the format from a file extension: .json files hold
// the JSON tree, anything else bracket markup.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatMarkup
}

// Document is an engine bound to the file it was read from.
type Document struct {
	// Path is empty for a document that was never saved.
	Path string

	Engine *engine.Engine

	saved uint64
}

func newDocument(path string, eng *engine.Engine) *Document {
	return &Document{Path: path, Engine: eng, saved: eng.Revision()}
}

// readContent returns the file at path as bracket markup. A missing file
// reads as an empty document.
func readContent(path string, reg *schema.Registry) (string, error) {
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return "", nil
	case err != nil:
		return "", &FileError{Op: "open", Path: path, Err: err}
	}
	if FormatForPath(path) != FormatJSON {
		return string(data), nil
	}

	doc, err := markup.NewJSONCodec(reg).Decode(data)
	if err != nil {
		return "", &FileError{Op: "parse", Path: path, Err: err}
	}
	rng, err := doc.NewRange()
	if err != nil {
		return "", &FileError{Op: "parse", Path: path, Err: err}
	}
	return markup.NewRenderer(reg).Render(doc.Root, rng), nil
}

func (d *Document) markSaved() { d.saved = d.Engine.Revision() }

// IsModified reports whether the document changed since it was read or
// last saved.
func (d *Document) IsModified() bool {
	return d.Engine.Revision() != d.saved
}

// Content serializes the document in format f.
func (d *Document) Content(f Format) (string, error) {
	switch f {
	case FormatMarkup:
		return d.Engine.Markup(), nil
	case FormatText:
		return d.Engine.Text(), nil
	case FormatJSON:
		data, err := d.Engine.JSON()
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Save writes the document to its path.
func (d *Document) Save() error {
	if d.Path == "" {
		return ErrNoFilePath
	}
	return d.SaveAs(d.Path)
}

// SaveAs writes the document to path in the format its extension names
// and makes path the document's path.
func (d *Document) SaveAs(path string) error {
	if d.Engine.IsReadOnly() {
		return ErrReadOnly
	}
	content, err := d.Content(FormatForPath(path))
	if err != nil {
		return &FileError{Op: "save", Path: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return &FileError{Op: "save", Path: path, Err: err}
	}
	d.Path = path
	d.markSaved()
	return nil
}
