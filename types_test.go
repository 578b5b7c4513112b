package rodl

import (
	"errors"
	"fmt"
	"testing"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatementEquality(t *testing.T) {
	a := NewLiteralStatement("http://x/ro1/a.txt", "http://purl.org/dc/terms/title", "A")
	b := Statement{Subject: "http://x/ro1/a.txt", Property: "http://purl.org/dc/terms/title", Object: "A", ObjectIsURI: true}
	assert.True(t, a.Equal(b))

	set := map[StatementKey]Statement{a.Key(): a}
	_, ok := set[b.Key()]
	assert.True(t, ok)
}

func TestStatementRDFConversion(t *testing.T) {
	st := rdf.Statement{
		S: rdf.BlankNode{ID: "b0"},
		P: rdf.IRI{Value: "http://purl.org/dc/terms/title"},
		O: rdf.Literal{Lexical: "hello", Lang: "en"},
	}
	s, ok := StatementFromRDF(st)
	require.True(t, ok)
	assert.True(t, s.SubjectBlank)
	assert.Equal(t, "b0", s.Subject)
	assert.True(t, s.IsLiteral())
	assert.Equal(t, "hello", s.Object)
	assert.Equal(t, "en", s.Lang)
	assert.Equal(t, st.O, s.RDF().O)

	typed := rdf.Statement{
		S: rdf.IRI{Value: "http://x/a"},
		P: rdf.IRI{Value: "http://purl.org/dc/terms/created"},
		O: rdf.Literal{Lexical: "2012-03-01T10:00:00Z", Datatype: rdf.IRI{Value: "http://www.w3.org/2001/XMLSchema#dateTime"}},
	}
	s, ok = StatementFromRDF(typed)
	require.True(t, ok)
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#dateTime", s.Datatype)
	assert.Equal(t, typed.O, s.RDF().O)
	// tag and datatype do not take part in identity
	assert.True(t, s.Equal(NewLiteralStatement("http://x/a", "http://purl.org/dc/terms/created", "2012-03-01T10:00:00Z")))

	back := NewResourceStatement("http://x/a", "http://x/p", "http://x/b").RDF()
	assert.Equal(t, rdf.IRI{Value: "http://x/a"}, back.S)
	assert.Equal(t, rdf.IRI{Value: "http://x/b"}, back.O)
}

func TestThingName(t *testing.T) {
	th := Thing{URI: "http://x/ro1/res1.txt"}
	assert.Equal(t, "res1.txt", th.Name())
}

func TestErrorsMatch(t *testing.T) {
	err := fmt.Errorf("load: %w", InvalidManifestError{URI: "http://x/ro1/", Reason: "missing type"})
	assert.True(t, errors.Is(err, ErrInvalidManifest))
	assert.False(t, errors.Is(err, ErrNotLoaded))

	var statusErr *StatusError
	err = fmt.Errorf("wrapped: %w", &StatusError{Operation: "DeleteResource", StatusCode: 500, Reason: "Internal Server Error"})
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 500, statusErr.StatusCode)
}
