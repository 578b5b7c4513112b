package ro

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/roevo"
	"github.com/wf4ever/rodl-go/rosrs"
	"github.com/wf4ever/rodl-go/vocab"
)

// kind is what an aggregated thing turns out to be, decoded once from its
// rdf:type values.
type kind int

const (
	kindResource kind = iota
	kindFolder
	kindAnnotation
	kindResearchObject
)

func decodeKind(types []string) kind {
	k := kindResource
	for _, t := range types {
		switch t {
		case vocab.ROFolder:
			return kindFolder
		case vocab.ROAggregatedAnnotation, vocab.AOAnnotation, vocab.OAAnnotation:
			k = kindAnnotation
		case vocab.ROResearchObject:
			if k == kindResource {
				k = kindResearchObject
			}
		}
	}
	return k
}

// snapshot is the state extracted from one manifest, swapped into the
// research object in one step.
type snapshot struct {
	creator       *rodl.Person
	created       *time.Time
	aggregatingRO string
	evoType       roevo.EvoType
	resources     map[string]*Resource
	folders       map[string]*Folder
	annotations   map[string]*Annotation
}

// Load fetches and parses the manifest, then the resource map of every
// folder. The research object must be typed in its own manifest, otherwise
// an InvalidManifestError is returned.
func (ro *ResearchObject) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RO.Load")
	defer span.End()

	doc, err := ro.rosrs.GetResearchObjectManifest(ctx, ro.URI)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.Load"))
		return err
	}
	g, err := rosrs.ParseDocument(ctx, doc)
	if err != nil {
		span.RecordError(err)
		return err
	}

	snap, err := ro.extract(g)
	if err != nil {
		span.RecordError(err)
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(4)
	for _, f := range snap.folders {
		eg.Go(func() error {
			entries, err := f.fetchEntries(egctx)
			if err != nil {
				return err
			}
			f.entries = entries
			f.loaded = true
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		span.RecordError(errors.Wrap(err, "RO.Load: folders"))
		return err
	}

	ro.mu.Lock()
	defer ro.mu.Unlock()
	ro.Creator = snap.creator
	ro.Created = snap.created
	ro.aggregatingRO = snap.aggregatingRO
	if snap.evoType != "" {
		ro.evoType = snap.evoType
	}
	ro.resources = snap.resources
	ro.folders = snap.folders
	ro.annotations = snap.annotations
	ro.manifestLoaded = true
	ro.loaded = true
	ro.recompute()
	return nil
}

func (ro *ResearchObject) extract(g *graph.Graph) (*snapshot, error) {
	types := g.Types(ro.URI)
	if len(types) == 0 {
		return nil, rodl.InvalidManifestError{URI: ro.URI, Reason: "research object has no rdf:type"}
	}

	snap := &snapshot{
		creator:     g.Creator(ro.URI),
		evoType:     evoTypeOf(types),
		resources:   make(map[string]*Resource),
		folders:     make(map[string]*Folder),
		annotations: make(map[string]*Annotation),
	}
	snap.created, _ = g.Time(ro.URI, vocab.DCTermsCreated)
	snap.aggregatingRO, _ = g.Object(ro.URI, vocab.OREIsAggregatedBy)

	rootFolders := make(map[string]struct{})
	for _, uri := range g.Objects(ro.URI, vocab.RORootFolder) {
		rootFolders[uri] = struct{}{}
	}

	candidates := g.Objects(ro.URI, vocab.OREAggregates)
	candidates = append(candidates, g.Subjects(vocab.RDFType, vocab.ROAggregatedAnnotation)...)
	for _, uri := range candidates {
		switch decodeKind(g.Types(uri)) {
		case kindFolder:
			if _, ok := snap.folders[uri]; ok {
				continue
			}
			f := &Folder{
				Resource: *ro.resourceFrom(g, uri),
				entries:  make(map[string]*FolderEntry),
			}
			f.resourceMap, _ = g.Object(uri, vocab.OREIsDescribedBy)
			_, f.root = rootFolders[uri]
			snap.folders[uri] = f
		case kindAnnotation:
			ann, ok := snap.annotations[uri]
			if !ok {
				ann = ro.annotationFrom(g, uri)
				snap.annotations[uri] = ann
			}
			for _, target := range annotationTargets(g, uri) {
				ann.targets[target] = struct{}{}
			}
		default:
			if _, ok := snap.resources[uri]; !ok {
				snap.resources[uri] = ro.resourceFrom(g, uri)
			}
		}
	}
	return snap, nil
}

func evoTypeOf(types []string) roevo.EvoType {
	for _, t := range types {
		switch t {
		case vocab.ROEVOLiveRO:
			return roevo.TypeLive
		case vocab.ROEVOSnapshotRO:
			return roevo.TypeSnapshot
		case vocab.ROEVOArchivedRO:
			return roevo.TypeArchive
		}
	}
	return ""
}

func (ro *ResearchObject) resourceFrom(g *graph.Graph, uri string) *Resource {
	r := &Resource{
		Thing: rodl.Thing{URI: uri, Creator: g.Creator(uri)},
		ro:    ro,
		size:  -1,
	}
	r.Created, _ = g.Time(uri, vocab.DCTermsCreated)
	for _, proxy := range g.Subjects(vocab.OREProxyFor, uri) {
		in, ok := g.Object(proxy, vocab.OREProxyIn)
		if !ok || in == ro.URI {
			r.proxyURI = proxy
			break
		}
	}
	if size, ok := g.Literal(uri, vocab.ROFilesize); ok {
		if n, err := strconv.ParseInt(size, 10, 64); err == nil {
			r.size = n
		}
	}
	return r
}

func (ro *ResearchObject) annotationFrom(g *graph.Graph, uri string) *Annotation {
	ann := &Annotation{
		Thing:   rodl.Thing{URI: uri, Creator: g.Creator(uri)},
		ro:      ro,
		targets: make(map[string]struct{}),
	}
	ann.Created, _ = g.Time(uri, vocab.DCTermsCreated)
	if body, ok := g.Object(uri, vocab.AOBody); ok {
		ann.body = body
	} else if body, ok := g.Object(uri, vocab.OAHasBody); ok {
		ann.body = body
	}
	return ann
}

func annotationTargets(g *graph.Graph, uri string) []string {
	var targets []string
	for _, property := range []string{vocab.ROAnnotatesAggregatedResource, vocab.AOAnnotatesResource, vocab.OAHasTarget} {
		targets = append(targets, g.Objects(uri, property)...)
	}
	return targets
}

// fetchEntries reads the folder resource map. It does not touch the
// research object state.
func (f *Folder) fetchEntries(ctx context.Context) (map[string]*FolderEntry, error) {
	location := f.resourceMap
	if location == "" {
		location = f.URI
	}
	doc, err := f.ro.rosrs.GetResource(ctx, location, rosrs.ManifestAccept)
	if err != nil {
		return nil, err
	}
	g, err := rosrs.ParseDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*FolderEntry)
	for _, uri := range g.Subjects(vocab.RDFType, vocab.ROFolderEntry) {
		if in, ok := g.Object(uri, vocab.OREProxyIn); ok && in != f.URI {
			continue
		}
		resource, ok := g.Object(uri, vocab.OREProxyFor)
		if !ok {
			continue
		}
		name, ok := g.Literal(uri, vocab.ROEntryName)
		if !ok {
			name = rodl.DisplayName(resource)
		}
		entries[uri] = &FolderEntry{folder: f, URI: uri, Resource: resource, Name: name}
	}
	return entries, nil
}

// Load (re)reads the folder resource map.
func (f *Folder) Load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RO.Folder.Load")
	defer span.End()

	entries, err := f.fetchEntries(ctx)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.Folder.Load"))
		return err
	}

	f.ro.mu.Lock()
	defer f.ro.mu.Unlock()
	f.entries = entries
	f.loaded = true
	f.ro.recompute()
	return nil
}
