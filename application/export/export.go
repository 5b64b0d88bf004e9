// Package export renders the note collection for download. Both
// renderers are pure: they take a snapshot and return bytes, leaving
// transport concerns to the HTTP layer.
package export

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"stuffmd/domain/note"
	pkgerrors "stuffmd/pkg/errors"
	"stuffmd/pkg/utils"
)

// Delimiter separates notes in the text export
const Delimiter = "\n\n====================\n\n"

// Download filenames the HTTP layer suggests via Content-Disposition
const (
	TextFilename = "STUFF-MD-export.txt"
	JSONFilename = "STUFF-MD-export.json"
)

// frontMatter is the per-note yaml header in the text export. Flow
// style keeps the tag list on one line.
type frontMatter struct {
	Tags []string `yaml:"tags,flow"`
	Date string   `yaml:"date"`
}

// AsText renders every note as a yaml front-matter block followed by the
// raw content, notes joined by the delimiter. Exporting an empty
// collection is a validation error.
func AsText(notes []*note.Note) ([]byte, error) {
	if len(notes) == 0 {
		return nil, pkgerrors.NewValidationError("no notes to export")
	}

	var buf bytes.Buffer
	for i, n := range notes {
		if i > 0 {
			buf.WriteString(Delimiter)
		}
		if err := writeNote(&buf, n); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeNote(buf *bytes.Buffer, n *note.Note) error {
	fm := frontMatter{
		Tags: n.Tags,
		Date: utils.FormatRFC3339(n.Date),
	}
	if fm.Tags == nil {
		fm.Tags = []string{}
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal front matter")
	}

	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(n.Content)
	return nil
}

// AsJSON renders the full records as a pretty-printed array
func AsJSON(notes []*note.Note) ([]byte, error) {
	if len(notes) == 0 {
		return nil, pkgerrors.NewValidationError("no notes to export")
	}

	out, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "marshal notes")
	}
	return out, nil
}
