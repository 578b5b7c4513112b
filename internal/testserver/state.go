package testserver

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/vocab"
)

type resource struct {
	uri         string
	proxy       string
	contentType string
	content     []byte
	external    bool
}

type entry struct {
	uri      string
	resource string
	name     string
}

type folder struct {
	uri         string
	proxy       string
	resourceMap string
	entries     []*entry
}

type annotation struct {
	uri     string
	body    string
	targets []string
}

type researchObject struct {
	uri         string
	created     time.Time
	evoType     string
	snapshots   []string
	archives    []string
	liveRO      string
	resources   map[string]*resource
	folders     map[string]*folder
	annotations map[string]*annotation
	rootFolder  string
}

func newResearchObject(uri string) *researchObject {
	return &researchObject{
		uri:         uri,
		created:     time.Date(2012, 3, 1, 10, 0, 0, 0, time.UTC),
		evoType:     vocab.ROEVOLiveRO,
		resources:   make(map[string]*resource),
		folders:     make(map[string]*folder),
		annotations: make(map[string]*annotation),
	}
}

func (ro *researchObject) manifestURI() string {
	return ro.uri + ".ro/manifest.ttl"
}

func (ro *researchObject) proxyURI(n int) string {
	return ro.uri + ".ro/proxies/" + strconv.Itoa(n)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describedBy(subject, creator string, created time.Time) []rodl.Statement {
	return []rodl.Statement{
		rodl.NewResourceStatement(subject, vocab.DCTermsCreator, creator),
		rodl.NewLiteralStatement(subject, vocab.DCTermsCreated, created.Format(time.RFC3339)),
	}
}

func (ro *researchObject) manifest(user, userName string) []rodl.Statement {
	st := []rodl.Statement{
		rodl.NewResourceStatement(ro.uri, vocab.RDFType, vocab.ROResearchObject),
		rodl.NewResourceStatement(ro.uri, vocab.RDFType, ro.evoType),
		rodl.NewLiteralStatement(user, vocab.FOAFName, userName),
	}
	st = append(st, describedBy(ro.uri, user, ro.created)...)

	for _, uri := range sortedKeys(ro.resources) {
		res := ro.resources[uri]
		st = append(st,
			rodl.NewResourceStatement(ro.uri, vocab.OREAggregates, uri),
			rodl.NewResourceStatement(uri, vocab.RDFType, vocab.ROResource),
			rodl.NewResourceStatement(res.proxy, vocab.RDFType, vocab.OREProxy),
			rodl.NewResourceStatement(res.proxy, vocab.OREProxyFor, uri),
			rodl.NewResourceStatement(res.proxy, vocab.OREProxyIn, ro.uri),
		)
		st = append(st, describedBy(uri, user, ro.created)...)
		if !res.external {
			st = append(st, rodl.NewLiteralStatement(uri, vocab.ROFilesize, strconv.Itoa(len(res.content))))
		}
	}
	for _, uri := range sortedKeys(ro.folders) {
		f := ro.folders[uri]
		st = append(st,
			rodl.NewResourceStatement(ro.uri, vocab.OREAggregates, uri),
			rodl.NewResourceStatement(uri, vocab.RDFType, vocab.ROResource),
			rodl.NewResourceStatement(uri, vocab.RDFType, vocab.ROFolder),
			rodl.NewResourceStatement(uri, vocab.OREIsDescribedBy, f.resourceMap),
			rodl.NewResourceStatement(f.proxy, vocab.OREProxyFor, uri),
		)
	}
	if ro.rootFolder != "" {
		st = append(st, rodl.NewResourceStatement(ro.uri, vocab.RORootFolder, ro.rootFolder))
	}
	for _, uri := range sortedKeys(ro.annotations) {
		ann := ro.annotations[uri]
		st = append(st,
			rodl.NewResourceStatement(ro.uri, vocab.OREAggregates, uri),
			rodl.NewResourceStatement(uri, vocab.RDFType, vocab.ROAggregatedAnnotation),
			rodl.NewResourceStatement(uri, vocab.AOBody, ann.body),
		)
		for _, target := range ann.targets {
			st = append(st, rodl.NewResourceStatement(uri, vocab.ROAnnotatesAggregatedResource, target))
		}
		st = append(st, describedBy(uri, user, ro.created)...)
	}
	return st
}

func (f *folder) resourceMapStatements() []rodl.Statement {
	st := []rodl.Statement{
		rodl.NewResourceStatement(f.uri, vocab.RDFType, vocab.ROFolder),
		rodl.NewResourceStatement(f.resourceMap, vocab.RDFType, vocab.ROResourceMap),
		rodl.NewResourceStatement(f.resourceMap, vocab.OREDescribes, f.uri),
	}
	for _, e := range f.entries {
		st = append(st,
			rodl.NewResourceStatement(f.uri, vocab.OREAggregates, e.resource),
			rodl.NewResourceStatement(e.uri, vocab.RDFType, vocab.ROFolderEntry),
			rodl.NewResourceStatement(e.uri, vocab.OREProxyFor, e.resource),
			rodl.NewResourceStatement(e.uri, vocab.OREProxyIn, f.uri),
			rodl.NewLiteralStatement(e.uri, vocab.ROEntryName, e.name),
		)
	}
	return st
}

// remove drops uri from every place of the research object it can appear.
func (ro *researchObject) remove(uri string) bool {
	found := false
	for key, res := range ro.resources {
		if key == uri || res.proxy == uri {
			delete(ro.resources, key)
			uri = key
			found = true
		}
	}
	if _, ok := ro.folders[uri]; ok {
		delete(ro.folders, uri)
		if ro.rootFolder == uri {
			ro.rootFolder = ""
		}
		found = true
	}
	if _, ok := ro.annotations[uri]; ok {
		delete(ro.annotations, uri)
		found = true
	}
	for _, f := range ro.folders {
		kept := f.entries[:0]
		for _, e := range f.entries {
			if e.uri == uri || e.resource == uri {
				found = true
				continue
			}
			kept = append(kept, e)
		}
		f.entries = kept
	}
	for _, ann := range ro.annotations {
		kept := ann.targets[:0]
		for _, t := range ann.targets {
			if t != uri {
				kept = append(kept, t)
			}
		}
		ann.targets = kept
	}
	return found
}

func (ro *researchObject) folderByResourceMap(uri string) *folder {
	for _, f := range ro.folders {
		if f.resourceMap == uri {
			return f
		}
	}
	return nil
}

func (ro *researchObject) contains(uri string) bool {
	return strings.HasPrefix(uri, ro.uri)
}
