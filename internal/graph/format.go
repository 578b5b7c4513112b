package graph

import (
	"bytes"
	"mime"
	"strings"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/vocab"
)

var mediaTypes = map[string]rdf.Format{
	vocab.MediaTypeRDFXML:   rdf.FormatRDFXML,
	"application/xml":       rdf.FormatRDFXML,
	"text/xml":              rdf.FormatRDFXML,
	vocab.MediaTypeTurtle:   rdf.FormatTurtle,
	"application/x-turtle":  rdf.FormatTurtle,
	vocab.MediaTypeTriG:     rdf.FormatTriG,
	"application/x-trig":    rdf.FormatTriG,
	vocab.MediaTypeNTriples: rdf.FormatNTriples,
	vocab.MediaTypeNQuads:   rdf.FormatNQuads,
	vocab.MediaTypeJSONLD:   rdf.FormatJSONLD,
}

// FormatForMediaType maps a Content-Type header value to an RDF syntax.
func FormatForMediaType(contentType string) (rdf.Format, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}
	format, ok := mediaTypes[mediaType]
	return format, ok
}

// MediaTypeForFormat is the inverse of FormatForMediaType.
func MediaTypeForFormat(format rdf.Format) string {
	switch format {
	case rdf.FormatRDFXML:
		return vocab.MediaTypeRDFXML
	case rdf.FormatTurtle:
		return vocab.MediaTypeTurtle
	case rdf.FormatTriG:
		return vocab.MediaTypeTriG
	case rdf.FormatNTriples:
		return vocab.MediaTypeNTriples
	case rdf.FormatNQuads:
		return vocab.MediaTypeNQuads
	case rdf.FormatJSONLD:
		return vocab.MediaTypeJSONLD
	default:
		return vocab.MediaTypeRDFXML
	}
}

// FormatForPath guesses the syntax from a file extension, falling back to
// RDF/XML which is what the service produces by default.
func FormatForPath(path string) rdf.Format {
	idx := strings.LastIndex(path, ".")
	if idx >= 0 {
		if format, ok := rdf.ParseFormat(path[idx+1:]); ok {
			return format
		}
	}
	return rdf.FormatRDFXML
}

// Encode serialises statements in the requested syntax.
func Encode(statements []rodl.Statement, format rdf.Format) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := rdf.NewWriter(&buf, format)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create rdf writer")
	}
	for _, st := range statements {
		if err := writer.Write(st.RDF()); err != nil {
			writer.Close()
			return nil, errors.Wrap(err, "failed to write statement")
		}
	}
	if err := writer.Flush(); err != nil {
		writer.Close()
		return nil, errors.Wrap(err, "failed to flush rdf writer")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close rdf writer")
	}
	return buf.Bytes(), nil
}
