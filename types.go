package rodl

import (
	"time"

	"github.com/geoknoesis/rdf-go/rdf"
)

// Person is an agent referenced by URI, usually the creator of something.
type Person struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// Equal compares people by URI only.
func (p Person) Equal(other Person) bool {
	return p.URI == other.URI
}

func (p Person) String() string {
	if p.Name != "" {
		return p.Name
	}
	return p.URI
}

// Thing is the common part of everything that lives in a research object.
type Thing struct {
	URI     string     `json:"uri"`
	Creator *Person    `json:"creator,omitempty"`
	Created *time.Time `json:"created,omitempty"`
}

// Name is the last segment of the URI, used for display and sorting.
func (t Thing) Name() string {
	return DisplayName(t.URI)
}

// Statement is a detached copy of one RDF triple. Literal objects keep their
// language tag and datatype so a re-serialised body says what it said before.
type Statement struct {
	Subject      string `json:"subject"`
	SubjectBlank bool   `json:"subjectBlank,omitempty"`
	Property     string `json:"property"`
	Object       string `json:"object"`
	ObjectIsURI  bool   `json:"objectIsURI,omitempty"`
	ObjectBlank  bool   `json:"objectBlank,omitempty"`
	Lang         string `json:"lang,omitempty"`
	Datatype     string `json:"datatype,omitempty"`
}

// StatementKey identifies a statement in a set.
type StatementKey struct {
	Subject  string
	Property string
	Object   string
}

func (s Statement) Key() StatementKey {
	return StatementKey{Subject: s.Subject, Property: s.Property, Object: s.Object}
}

// Equal follows Key: two statements are equal when subject value, property and
// object value match.
func (s Statement) Equal(other Statement) bool {
	return s.Key() == other.Key()
}

// IsLiteral reports whether the object is a literal value.
func (s Statement) IsLiteral() bool {
	return !s.ObjectIsURI && !s.ObjectBlank
}

// NewLiteralStatement builds a statement with a plain literal object.
func NewLiteralStatement(subject, property, value string) Statement {
	return Statement{Subject: subject, Property: property, Object: value}
}

// NewResourceStatement builds a statement whose object is a URI.
func NewResourceStatement(subject, property, object string) Statement {
	return Statement{Subject: subject, Property: property, Object: object, ObjectIsURI: true}
}

// StatementFromRDF projects a parsed rdf-go statement. The second result is
// false for statements that cannot be represented (quoted triples).
func StatementFromRDF(st rdf.Statement) (Statement, bool) {
	var out Statement
	switch s := st.S.(type) {
	case rdf.IRI:
		out.Subject = s.Value
	case rdf.BlankNode:
		out.Subject = s.ID
		out.SubjectBlank = true
	default:
		return Statement{}, false
	}
	out.Property = st.P.String()
	switch o := st.O.(type) {
	case rdf.IRI:
		out.Object = o.Value
		out.ObjectIsURI = true
	case rdf.BlankNode:
		out.Object = o.ID
		out.ObjectBlank = true
	case rdf.Literal:
		out.Object = o.Lexical
		out.Lang = o.Lang
		out.Datatype = o.Datatype.Value
	default:
		return Statement{}, false
	}
	return out, true
}

// RDF converts the statement back into an rdf-go statement in the default graph.
func (s Statement) RDF() rdf.Statement {
	var subject rdf.Term = rdf.IRI{Value: s.Subject}
	if s.SubjectBlank {
		subject = rdf.BlankNode{ID: s.Subject}
	}
	var object rdf.Term
	switch {
	case s.ObjectIsURI:
		object = rdf.IRI{Value: s.Object}
	case s.ObjectBlank:
		object = rdf.BlankNode{ID: s.Object}
	default:
		literal := rdf.Literal{Lexical: s.Object, Lang: s.Lang}
		if s.Lang == "" && s.Datatype != "" {
			literal.Datatype = rdf.IRI{Value: s.Datatype}
		}
		object = literal
	}
	return rdf.Statement{S: subject, P: rdf.IRI{Value: s.Property}, O: object}
}
