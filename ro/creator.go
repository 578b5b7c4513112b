package ro

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/vocab"
)

var creatorNames = cache.New(30*time.Minute, 10*time.Minute)

// CreatorLookup resolves the display name of a person in the background.
// Until it finishes Name returns the URI.
type CreatorLookup struct {
	uri  string
	done chan struct{}

	mu   sync.Mutex
	name string
	err  error
}

// ResolveCreator starts looking up the foaf:name of the person at uri.
// Names found are remembered for the life of the process.
func ResolveCreator(ctx context.Context, c *client.Client, uri string) *CreatorLookup {
	l := &CreatorLookup{uri: uri, done: make(chan struct{})}
	if name, ok := creatorNames.Get(uri); ok {
		l.name = name.(string)
		close(l.done)
		return l
	}
	go l.run(ctx, c)
	return l
}

func (l *CreatorLookup) run(ctx context.Context, c *client.Client) {
	defer close(l.done)
	ctx, span := tracer.Start(ctx, "RO.ResolveCreator")
	defer span.End()

	name, err := lookupName(ctx, c, l.uri)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		l.err = err
		return
	}
	l.name = name
	creatorNames.SetDefault(l.uri, name)
}

func lookupName(ctx context.Context, c *client.Client, uri string) (string, error) {
	doc, err := c.GetRDF(ctx, "ResolveCreator", uri, vocab.MediaTypeRDFXML+", "+vocab.MediaTypeTurtle+";q=0.8")
	if err != nil {
		return "", err
	}
	format, ok := graph.FormatForMediaType(doc.ContentType)
	if !ok {
		format = graph.FormatForPath(doc.URI)
	}
	g, err := graph.Parse(ctx, bytes.NewReader(doc.Body), format, doc.URI)
	if err != nil {
		return "", err
	}
	name, ok := g.Literal(uri, vocab.FOAFName)
	if !ok {
		return "", rodl.NotFoundError{Resource: uri + " foaf:name"}
	}
	return name, nil
}

// Done is closed when the lookup has finished, successfully or not.
func (l *CreatorLookup) Done() <-chan struct{} {
	return l.done
}

func (l *CreatorLookup) Loading() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Name returns the resolved name, or the URI while loading or after a
// failure.
func (l *CreatorLookup) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.name == "" {
		return l.uri
	}
	return l.name
}

func (l *CreatorLookup) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Person returns what is known about the person so far.
func (l *CreatorLookup) Person() *rodl.Person {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &rodl.Person{URI: l.uri, Name: l.name}
}
