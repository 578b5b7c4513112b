// Package ro models a research object and keeps an in-memory copy of what the
// service believes it aggregates: resources, folders and annotations.
//
// Local state is a cache of the remote state. Every mutator performs the
// remote call first and only then updates the local copy.
package ro

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/roevo"
	"github.com/wf4ever/rodl-go/rosrs"
)

var tracer = otel.Tracer("ro")

type ResearchObject struct {
	rodl.Thing

	rosrs *rosrs.Service
	roevo *roevo.Service

	mu             sync.RWMutex
	loaded         bool
	manifestLoaded bool
	aggregatingRO  string
	resources      map[string]*Resource
	folders        map[string]*Folder
	annotations    map[string]*Annotation
	rootResources  []*Resource
	rootFolders    []*Folder
	allFolders     []*Folder

	evoLoaded        bool
	evoType          roevo.EvoType
	snapshots        []string
	archives         []string
	liveRO           *ResearchObject
	previousSnapshot string
}

// New returns an unloaded research object. roevo may be nil when evolution
// information is not needed.
func New(uri string, s *rosrs.Service, evo *roevo.Service) *ResearchObject {
	return &ResearchObject{
		Thing:       rodl.Thing{URI: uri},
		rosrs:       s,
		roevo:       evo,
		resources:   make(map[string]*Resource),
		folders:     make(map[string]*Folder),
		annotations: make(map[string]*Annotation),
	}
}

// Create creates an empty research object named id on the service.
func Create(ctx context.Context, s *rosrs.Service, evo *roevo.Service, id string) (*ResearchObject, error) {
	ctx, span := tracer.Start(ctx, "RO.Create")
	defer span.End()

	created, err := s.CreateResearchObject(ctx, id)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.Create"))
		return nil, err
	}
	ro := New(created.URI, s, evo)
	ro.Creator = created.Creator
	ro.Created = created.Created
	ro.loaded = true
	ro.manifestLoaded = true
	return ro, nil
}

// Delete deletes the research object remotely and forgets its contents.
func (ro *ResearchObject) Delete(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RO.Delete")
	defer span.End()

	if err := ro.rosrs.DeleteResearchObject(ctx, ro.URI); err != nil {
		span.RecordError(errors.Wrap(err, "RO.Delete"))
		return err
	}

	ro.mu.Lock()
	defer ro.mu.Unlock()
	ro.loaded = false
	ro.manifestLoaded = false
	ro.resources = make(map[string]*Resource)
	ro.folders = make(map[string]*Folder)
	ro.annotations = make(map[string]*Annotation)
	ro.recompute()
	return nil
}

// Service returns the storage service the research object talks to.
func (ro *ResearchObject) Service() *rosrs.Service {
	return ro.rosrs
}

func (ro *ResearchObject) IsLoaded() bool {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.loaded
}

func (ro *ResearchObject) IsManifestLoaded() bool {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.manifestLoaded
}

func (ro *ResearchObject) ensureLoaded(ctx context.Context) error {
	if ro.IsLoaded() {
		return nil
	}
	return ro.Load(ctx)
}

// AggregatingRO is the research object this one is nested in, if any.
func (ro *ResearchObject) AggregatingRO() string {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.aggregatingRO
}

// Resources returns the aggregated resources that are not folders, keyed by
// URI.
func (ro *ResearchObject) Resources() map[string]*Resource {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	out := make(map[string]*Resource, len(ro.resources))
	for k, v := range ro.resources {
		out[k] = v
	}
	return out
}

// Folders returns the folders keyed by URI.
func (ro *ResearchObject) Folders() map[string]*Folder {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	out := make(map[string]*Folder, len(ro.folders))
	for k, v := range ro.folders {
		out[k] = v
	}
	return out
}

// RootResources are the resources no folder contains, sorted by name.
func (ro *ResearchObject) RootResources() []*Resource {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return append([]*Resource(nil), ro.rootResources...)
}

// RootFolders are the folders no other folder contains, sorted by name.
func (ro *ResearchObject) RootFolders() []*Folder {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return append([]*Folder(nil), ro.rootFolders...)
}

// AllFolders returns every folder sorted by path.
func (ro *ResearchObject) AllFolders() []*Folder {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return append([]*Folder(nil), ro.allFolders...)
}

// Annotations indexes annotations by the URI of each of their targets. The
// index is built from the annotations themselves on every call.
func (ro *ResearchObject) Annotations() map[string][]*Annotation {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	index := make(map[string][]*Annotation)
	for _, ann := range ro.sortedAnnotations() {
		for target := range ann.targets {
			index[target] = append(index[target], ann)
		}
	}
	return index
}

// AnnotationsFor returns the annotations of target sorted by URI.
func (ro *ResearchObject) AnnotationsFor(target string) []*Annotation {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	var out []*Annotation
	for _, ann := range ro.sortedAnnotations() {
		if _, ok := ann.targets[target]; ok {
			out = append(out, ann)
		}
	}
	return out
}

// AllAnnotations returns every annotation sorted by URI.
func (ro *ResearchObject) AllAnnotations() []*Annotation {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.sortedAnnotations()
}

func (ro *ResearchObject) sortedAnnotations() []*Annotation {
	out := make([]*Annotation, 0, len(ro.annotations))
	for _, ann := range ro.annotations {
		out = append(out, ann)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

func (ro *ResearchObject) Resource(uri string) (*Resource, error) {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	if r, ok := ro.resources[uri]; ok {
		return r, nil
	}
	return nil, rodl.NotFoundError{Resource: uri}
}

func (ro *ResearchObject) Folder(uri string) (*Folder, error) {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	if f, ok := ro.folders[uri]; ok {
		return f, nil
	}
	return nil, rodl.NotFoundError{Resource: uri}
}

func (ro *ResearchObject) Annotation(uri string) (*Annotation, error) {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	if a, ok := ro.annotations[uri]; ok {
		return a, nil
	}
	return nil, rodl.NotFoundError{Resource: uri}
}

// recompute rebuilds the derived root and folder lists. The caller holds
// the write lock.
func (ro *ResearchObject) recompute() {
	contained := make(map[string]struct{})
	for _, f := range ro.folders {
		for _, e := range f.entries {
			contained[e.Resource] = struct{}{}
		}
	}

	ro.rootResources = ro.rootResources[:0]
	for uri, r := range ro.resources {
		if _, ok := contained[uri]; !ok {
			ro.rootResources = append(ro.rootResources, r)
		}
	}
	sort.Slice(ro.rootResources, func(i, j int) bool {
		return lessByName(&ro.rootResources[i].Thing, &ro.rootResources[j].Thing)
	})

	ro.rootFolders = ro.rootFolders[:0]
	ro.allFolders = ro.allFolders[:0]
	for uri, f := range ro.folders {
		ro.allFolders = append(ro.allFolders, f)
		if _, ok := contained[uri]; !ok {
			ro.rootFolders = append(ro.rootFolders, f)
		}
	}
	sort.Slice(ro.rootFolders, func(i, j int) bool {
		return lessByName(&ro.rootFolders[i].Thing, &ro.rootFolders[j].Thing)
	})
	sort.Slice(ro.allFolders, func(i, j int) bool {
		return rodl.RelativePath(ro.URI, ro.allFolders[i].URI) < rodl.RelativePath(ro.URI, ro.allFolders[j].URI)
	})
}

func lessByName(a, b *rodl.Thing) bool {
	if an, bn := a.Name(), b.Name(); an != bn {
		return an < bn
	}
	return a.URI < b.URI
}
