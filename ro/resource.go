package ro

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/rosrs"
	"github.com/wf4ever/rodl-go/vocab"
)

// Resource is a document aggregated by a research object, either stored by
// the service or external and reached through a proxy.
type Resource struct {
	rodl.Thing

	ro       *ResearchObject
	proxyURI string
	size     int64
}

func (r *Resource) ResearchObject() *ResearchObject {
	return r.ro
}

func (r *Resource) ProxyURI() string {
	r.ro.mu.RLock()
	defer r.ro.mu.RUnlock()
	return r.proxyURI
}

// Size is the content length reported by the service, or -1 if unknown.
func (r *Resource) Size() int64 {
	r.ro.mu.RLock()
	defer r.ro.mu.RUnlock()
	return r.size
}

// Path is the URI relative to the research object.
func (r *Resource) Path() string {
	return rodl.RelativePath(r.ro.URI, r.URI)
}

// IsInternal reports whether the service stores the content itself.
func (r *Resource) IsInternal() bool {
	return strings.HasPrefix(r.URI, r.ro.URI)
}

// Annotations returns the annotations that target this resource.
func (r *Resource) Annotations() []*Annotation {
	return r.ro.AnnotationsFor(r.URI)
}

// deleteTarget is what a DELETE is sent to. External resources are removed
// through their proxy so that nothing is sent to a foreign server.
func (r *Resource) deleteTarget() string {
	if !r.IsInternal() && r.proxyURI != "" {
		return r.proxyURI
	}
	return r.URI
}

// Delete removes the resource from the research object. Annotations that
// targeted it lose the target but are kept, even when left with none.
func (r *Resource) Delete(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RO.Resource.Delete")
	defer span.End()

	if err := r.ro.ensureLoaded(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	r.ro.mu.RLock()
	target := r.deleteTarget()
	stale := r.ro.documents()
	r.ro.mu.RUnlock()

	if err := r.ro.rosrs.DeleteResource(ctx, target); err != nil {
		span.RecordError(errors.Wrap(err, "RO.Resource.Delete"))
		return err
	}
	r.ro.rosrs.Client().Invalidate(ctx, stale...)

	r.ro.mu.Lock()
	defer r.ro.mu.Unlock()
	delete(r.ro.resources, r.URI)
	r.ro.forget(r.URI)
	r.ro.recompute()
	return nil
}

// Update replaces the content of the resource.
func (r *Resource) Update(ctx context.Context, content []byte, contentType string) error {
	ctx, span := tracer.Start(ctx, "RO.Resource.Update")
	defer span.End()

	if err := r.ro.rosrs.UpdateResource(ctx, r.URI, content, contentType); err != nil {
		span.RecordError(errors.Wrap(err, "RO.Resource.Update"))
		return err
	}

	r.ro.mu.Lock()
	defer r.ro.mu.Unlock()
	r.size = int64(len(content))
	for _, ann := range r.ro.annotations {
		if ann.body == r.URI {
			ann.loaded = false
			ann.statements = nil
		}
	}
	return nil
}

// documents lists the manifest and every resource map, the documents a
// membership change makes stale. The caller holds the lock.
func (ro *ResearchObject) documents() []string {
	out := []string{ro.URI}
	for _, f := range ro.folders {
		if f.resourceMap != "" {
			out = append(out, f.resourceMap)
		}
	}
	return out
}

// forget drops every folder entry and annotation target pointing at uri.
// The caller holds the write lock.
func (ro *ResearchObject) forget(uri string) {
	for _, f := range ro.folders {
		for key, e := range f.entries {
			if e.Resource == uri {
				delete(f.entries, key)
			}
		}
	}
	for _, ann := range ro.annotations {
		delete(ann.targets, uri)
	}
}

// Folder is a resource grouping other resources. Its entries are described
// by a separate resource map document.
type Folder struct {
	Resource

	resourceMap string
	root        bool
	loaded      bool
	entries     map[string]*FolderEntry
}

// ResourceMap is the URI of the document describing the folder entries.
func (f *Folder) ResourceMap() string {
	return f.resourceMap
}

// IsRoot reports whether the research object declares this folder as its
// root folder.
func (f *Folder) IsRoot() bool {
	f.ro.mu.RLock()
	defer f.ro.mu.RUnlock()
	return f.root
}

func (f *Folder) IsLoaded() bool {
	f.ro.mu.RLock()
	defer f.ro.mu.RUnlock()
	return f.loaded
}

// Entries returns the folder entries sorted by name.
func (f *Folder) Entries() []*FolderEntry {
	f.ro.mu.RLock()
	defer f.ro.mu.RUnlock()
	return f.sortedEntries()
}

func (f *Folder) sortedEntries() []*FolderEntry {
	out := make([]*FolderEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].URI < out[j].URI
	})
	return out
}

// Subfolders returns the folders contained in this folder.
func (f *Folder) Subfolders() []*Folder {
	f.ro.mu.RLock()
	defer f.ro.mu.RUnlock()
	var out []*Folder
	for _, e := range f.sortedEntries() {
		if sub, ok := f.ro.folders[e.Resource]; ok {
			out = append(out, sub)
		}
	}
	return out
}

// Resources returns the non-folder resources contained in this folder.
func (f *Folder) Resources() []*Resource {
	f.ro.mu.RLock()
	defer f.ro.mu.RUnlock()
	var out []*Resource
	for _, e := range f.sortedEntries() {
		if r, ok := f.ro.resources[e.Resource]; ok {
			out = append(out, r)
		}
	}
	return out
}

// AddEntry puts r, which must be aggregated by the same research object,
// into the folder. An empty name defaults to the resource name.
func (f *Folder) AddEntry(ctx context.Context, r *Resource, name string) (*FolderEntry, error) {
	ctx, span := tracer.Start(ctx, "RO.Folder.AddEntry")
	defer span.End()

	if err := f.ro.ensureLoaded(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if name == "" {
		name = strings.TrimSuffix(r.Name(), "/")
	}

	created, err := f.ro.rosrs.AddFolderEntry(ctx, f.URI, r.URI, name)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.Folder.AddEntry"))
		return nil, err
	}
	f.ro.rosrs.Client().Invalidate(ctx, f.resourceMap)

	f.ro.mu.Lock()
	if created.Existing {
		if e := f.entryFor(r.URI); e != nil {
			f.ro.mu.Unlock()
			return e, nil
		}
		if created.URI == "" {
			// the service knows an entry we do not and did not say where
			f.ro.mu.Unlock()
			return f.reloadEntry(ctx, r.URI)
		}
	}
	defer f.ro.mu.Unlock()
	entry := &FolderEntry{folder: f, URI: created.URI, Resource: r.URI, Name: name}
	f.entries[entry.URI] = entry
	f.ro.recompute()
	return entry, nil
}

// entryFor finds the entry holding resource. The caller holds the lock.
func (f *Folder) entryFor(resource string) *FolderEntry {
	for _, e := range f.entries {
		if e.Resource == resource {
			return e
		}
	}
	return nil
}

func (f *Folder) reloadEntry(ctx context.Context, resource string) (*FolderEntry, error) {
	if err := f.Load(ctx); err != nil {
		return nil, err
	}
	f.ro.mu.RLock()
	defer f.ro.mu.RUnlock()
	if e := f.entryFor(resource); e != nil {
		return e, nil
	}
	return nil, rodl.NotFoundError{Resource: "entry for " + resource + " in " + f.URI}
}

// RemoveEntry takes an entry out of the folder. The resource stays
// aggregated and becomes a root resource if no other folder holds it.
func (f *Folder) RemoveEntry(ctx context.Context, entry *FolderEntry) error {
	ctx, span := tracer.Start(ctx, "RO.Folder.RemoveEntry")
	defer span.End()

	if err := f.ro.ensureLoaded(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	if err := f.ro.rosrs.DeleteFolderEntry(ctx, entry.URI); err != nil {
		span.RecordError(errors.Wrap(err, "RO.Folder.RemoveEntry"))
		return err
	}
	f.ro.rosrs.Client().Invalidate(ctx, f.resourceMap)

	f.ro.mu.Lock()
	defer f.ro.mu.Unlock()
	delete(f.entries, entry.URI)
	f.ro.recompute()
	return nil
}

// Delete removes the folder. Its resources stay aggregated.
func (f *Folder) Delete(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RO.Folder.Delete")
	defer span.End()

	if err := f.ro.ensureLoaded(ctx); err != nil {
		span.RecordError(err)
		return err
	}
	f.ro.mu.RLock()
	stale := f.ro.documents()
	f.ro.mu.RUnlock()

	if err := f.ro.rosrs.DeleteResource(ctx, f.URI); err != nil {
		span.RecordError(errors.Wrap(err, "RO.Folder.Delete"))
		return err
	}
	f.ro.rosrs.Client().Invalidate(ctx, stale...)

	f.ro.mu.Lock()
	defer f.ro.mu.Unlock()
	delete(f.ro.folders, f.URI)
	f.ro.forget(f.URI)
	f.ro.recompute()
	return nil
}

// FolderEntry places a resource into a folder under a name.
type FolderEntry struct {
	folder *Folder

	URI      string
	Resource string
	Name     string
}

func (e *FolderEntry) Folder() *Folder {
	return e.folder
}

// Equal compares entries by resource and entry URI.
func (e *FolderEntry) Equal(other *FolderEntry) bool {
	return e.Resource == other.Resource && e.URI == other.URI
}

func newResource(ro *ResearchObject, created *rosrs.Created, size int64) *Resource {
	return &Resource{
		Thing: rodl.Thing{
			URI:     created.URI,
			Creator: created.Creator,
			Created: created.Created,
		},
		ro:       ro,
		proxyURI: created.Location,
		size:     size,
	}
}

// Aggregate uploads content as a new resource at path. If the service
// already has a resource there the local copy of it is returned.
func (ro *ResearchObject) Aggregate(ctx context.Context, path string, content []byte, contentType string) (*Resource, error) {
	ctx, span := tracer.Start(ctx, "RO.Aggregate")
	defer span.End()

	if err := ro.ensureLoaded(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	created, err := ro.rosrs.AggregateInternalResource(ctx, ro.URI, path, content, contentType)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.Aggregate"))
		return nil, err
	}
	return ro.insertResource(created, int64(len(content))), nil
}

// AggregateExternal aggregates a resource living outside of the service.
func (ro *ResearchObject) AggregateExternal(ctx context.Context, uri string) (*Resource, error) {
	ctx, span := tracer.Start(ctx, "RO.AggregateExternal")
	defer span.End()

	if err := ro.ensureLoaded(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	created, err := ro.rosrs.AggregateExternalResource(ctx, ro.URI, uri)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.AggregateExternal"))
		return nil, err
	}
	return ro.insertResource(created, -1), nil
}

func (ro *ResearchObject) insertResource(created *rosrs.Created, size int64) *Resource {
	ro.mu.Lock()
	defer ro.mu.Unlock()
	if existing, ok := ro.resources[created.URI]; ok && created.Existing {
		return existing
	}
	r := newResource(ro, created, size)
	ro.resources[r.URI] = r
	ro.recompute()
	return r
}

// CreateFolder creates an empty folder at path.
func (ro *ResearchObject) CreateFolder(ctx context.Context, path string) (*Folder, error) {
	ctx, span := tracer.Start(ctx, "RO.CreateFolder")
	defer span.End()

	if err := ro.ensureLoaded(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	created, err := ro.rosrs.CreateFolder(ctx, ro.URI, path)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.CreateFolder"))
		return nil, err
	}

	ro.mu.Lock()
	defer ro.mu.Unlock()
	if existing, ok := ro.folders[created.URI]; ok && created.Existing {
		return existing, nil
	}
	f := &Folder{
		Resource: *newResource(ro, created, -1),
		loaded:   !created.Existing,
		entries:  make(map[string]*FolderEntry),
	}
	f.resourceMap, _ = created.Link(vocab.OREIsDescribedBy)
	ro.folders[f.URI] = f
	ro.recompute()
	return f, nil
}
