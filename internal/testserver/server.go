// Package testserver is an in-memory fake of the RODL REST API used by the
// package tests. It keeps research objects, their resources, folders and
// annotations, and serves generated manifests and resource maps.
package testserver

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/vocab"
)

const (
	// User is the URI of the account every request is made as.
	User     = "http://rodl.test/users/tester"
	UserName = "Tester"
)

// Request is one request seen by the server.
type Request struct {
	Method      string
	URI         string
	ContentType string
	Slug        string
	Links       []string
	Body        []byte
}

type document struct {
	contentType string
	body        []byte
}

type Server struct {
	mu sync.Mutex

	echo   *echo.Echo
	origin string
	base   string

	ros       map[string]*researchObject
	docs      map[string]document
	redirects map[string]string
	failures  map[string]int
	requests  []Request
	counter   int

	bareConflicts bool

	jobs map[string]*job
}

// New starts a fake service whose research objects live under base, for
// example "http://rodl.test/ROs/". Requests are served through Transport, so
// any host name works.
func New(base string) *Server {
	base = rodl.EnsureTrailingSlash(base)
	origin := base
	if idx := strings.Index(base[len("http://"):], "/"); idx >= 0 {
		origin = base[:len("http://")+idx]
	}

	s := &Server{
		echo:      echo.New(),
		origin:    origin,
		base:      base,
		ros:       make(map[string]*researchObject),
		docs:      make(map[string]document),
		redirects: make(map[string]string),
		failures:  make(map[string]int),
		jobs:      make(map[string]*job),
	}
	s.echo.Use(otelecho.Middleware("rodl-testserver"))
	s.echo.Use(s.record)
	s.echo.GET("/*", s.handleGet)
	s.echo.POST("/*", s.handlePost)
	s.echo.PUT("/*", s.handlePut)
	s.echo.DELETE("/*", s.handleDelete)
	return s
}

// Base is the URI research objects are created under.
func (s *Server) Base() string {
	return s.base
}

// Origin is scheme and host of the fake service.
func (s *Server) Origin() string {
	return s.origin
}

// Transport serves requests for any URI from the fake.
func (s *Server) Transport() http.RoundTripper {
	return roundTripper(func(req *http.Request) (*http.Response, error) {
		rec := httptest.NewRecorder()
		in := req.Clone(req.Context())
		in.Host = req.URL.Host
		in.RequestURI = req.URL.RequestURI()
		if in.Body == nil {
			in.Body = http.NoBody
		}
		s.echo.ServeHTTP(rec, in)
		resp := rec.Result()
		resp.Request = req
		return resp, nil
	})
}

type roundTripper func(*http.Request) (*http.Response, error)

func (f roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Put serves a static document at uri.
func (s *Server) Put(uri, contentType string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = document{contentType: contentType, body: body}
}

// Redirect answers GET uri with a 303 to target.
func (s *Server) Redirect(uri, target string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirects[uri] = target
}

// Fail makes every method request to uri answer status.
func (s *Server) Fail(method, uri string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+uri] = status
}

// BareConflicts makes 409 answers to folder entry requests omit Location,
// as some deployments do.
func (s *Server) BareConflicts(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bareConflicts = on
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests matched method and uri.
func (s *Server) Count(method, uri string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.URI == uri {
			n++
		}
	}
	return n
}

func absolute(r *http.Request) string {
	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "http"
	}
	host := r.URL.Host
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host + r.URL.Path
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		req.Body = io.NopCloser(bytes.NewReader(body))

		uri := absolute(req)
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:      req.Method,
			URI:         uri,
			ContentType: req.Header.Get(echo.HeaderContentType),
			Slug:        req.Header.Get("Slug"),
			Links:       req.Header.Values("Link"),
			Body:        body,
		})
		status, failing := s.failures[req.Method+" "+uri]
		s.mu.Unlock()

		if failing {
			return c.String(status, http.StatusText(status))
		}
		return next(c)
	}
}

func (s *Server) next() int {
	s.counter++
	return s.counter
}

func (s *Server) owner(uri string) *researchObject {
	var best *researchObject
	for _, ro := range s.ros {
		if ro.contains(uri) && (best == nil || len(ro.uri) > len(best.uri)) {
			best = ro
		}
	}
	return best
}

// statements parses the RDF/XML description sent with folder, entry, proxy
// and annotation requests.
func statements(c echo.Context, base string) (*graph.Graph, error) {
	req := c.Request()
	return graph.Parse(req.Context(), req.Body, rdf.FormatRDFXML, base)
}

func subjectOf(st rodl.Statement) string {
	if st.SubjectBlank {
		return "_:" + st.Subject
	}
	return st.Subject
}

func (s *Server) triples(c echo.Context, status int, st []rodl.Statement) error {
	data, err := graph.Encode(st, rdf.FormatNTriples)
	if err != nil {
		return c.String(http.StatusInternalServerError, err.Error())
	}
	return c.Blob(status, vocab.MediaTypeNTriples, data)
}

func (s *Server) created(c echo.Context, location string, links []string, subject string) error {
	c.Response().Header().Set(echo.HeaderLocation, location)
	for _, l := range links {
		c.Response().Header().Add("Link", l)
	}
	st := append(describedBy(subject, User, s.owner(subject).created), rodl.NewLiteralStatement(User, vocab.FOAFName, UserName))
	return s.triples(c, http.StatusCreated, st)
}

func (s *Server) handleGet(c echo.Context) error {
	uri := absolute(c.Request())
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.docs[uri]; ok {
		return c.Blob(http.StatusOK, doc.contentType, doc.body)
	}
	if target, ok := s.redirects[uri]; ok {
		return c.Redirect(http.StatusSeeOther, target)
	}
	if uri == s.origin+"/whoami" {
		return s.triples(c, http.StatusOK, []rodl.Statement{
			rodl.NewResourceStatement(User, vocab.RDFType, vocab.FOAFPerson),
			rodl.NewLiteralStatement(User, vocab.FOAFName, UserName),
		})
	}
	if strings.HasPrefix(uri, s.origin+"/evo/") {
		return s.handleEvoGet(c, uri)
	}

	if ro, ok := s.ros[uri]; ok {
		return c.Redirect(http.StatusSeeOther, ro.manifestURI())
	}
	ro := s.owner(uri)
	if ro == nil {
		return c.NoContent(http.StatusNotFound)
	}
	if uri == ro.manifestURI() {
		return s.triples(c, http.StatusOK, ro.manifest(User, UserName))
	}
	if f := ro.folderByResourceMap(uri); f != nil {
		return s.triples(c, http.StatusOK, f.resourceMapStatements())
	}
	if f, ok := ro.folders[uri]; ok {
		return c.Redirect(http.StatusSeeOther, f.resourceMap)
	}
	if ann, ok := ro.annotations[uri]; ok {
		return c.Redirect(http.StatusSeeOther, ann.body)
	}
	if res, ok := ro.resources[uri]; ok && !res.external {
		return c.Blob(http.StatusOK, res.contentType, res.content)
	}
	return c.NoContent(http.StatusNotFound)
}

func (s *Server) handlePost(c echo.Context) error {
	uri := absolute(c.Request())
	s.mu.Lock()
	defer s.mu.Unlock()

	if uri == s.base {
		return s.createResearchObject(c)
	}
	if strings.HasPrefix(uri, s.origin+"/evo/") {
		return s.handleEvoPost(c, uri)
	}
	if ro, ok := s.ros[uri]; ok {
		return s.aggregate(c, ro)
	}
	if ro := s.owner(uri); ro != nil {
		if f, ok := ro.folders[uri]; ok {
			return s.addEntry(c, ro, f)
		}
	}
	return c.NoContent(http.StatusNotFound)
}

func (s *Server) createResearchObject(c echo.Context) error {
	slug := c.Request().Header.Get("Slug")
	if slug == "" {
		return c.String(http.StatusBadRequest, "missing Slug")
	}
	uri := s.base + strings.Trim(slug, "/") + "/"
	if _, ok := s.ros[uri]; ok {
		return c.NoContent(http.StatusConflict)
	}
	s.ros[uri] = newResearchObject(uri)
	return s.created(c, uri, nil, uri)
}

// CreateResearchObject registers an empty research object named id.
func (s *Server) CreateResearchObject(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	uri := s.base + id + "/"
	s.ros[uri] = newResearchObject(uri)
	return uri
}

func (s *Server) aggregate(c echo.Context, ro *researchObject) error {
	req := c.Request()
	contentType := req.Header.Get(echo.HeaderContentType)
	slug := req.Header.Get("Slug")

	switch contentType {
	case vocab.MediaTypeFolder:
		uri := rodl.EnsureTrailingSlash(ro.uri + strings.Trim(slug, "/"))
		if _, ok := ro.folders[uri]; ok {
			return c.NoContent(http.StatusConflict)
		}
		g, err := statements(c, uri)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		n := s.next()
		f := &folder{
			uri:         uri,
			proxy:       ro.proxyURI(n),
			resourceMap: uri + ".folder.ttl",
		}
		for _, st := range g.Statements() {
			if st.Property == vocab.RDFType && st.Object == vocab.ROFolderEntry {
				f.entries = append(f.entries, s.entryFrom(ro, g, subjectOf(st)))
			}
		}
		ro.folders[uri] = f
		if ro.rootFolder == "" {
			ro.rootFolder = uri
		}
		return s.created(c, f.proxy, []string{
			rodl.FormatLink(uri, vocab.OREProxyFor),
			rodl.FormatLink(f.resourceMap, vocab.OREIsDescribedBy),
		}, uri)

	case vocab.MediaTypeProxy:
		g, err := statements(c, ro.uri)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		var target string
		for _, st := range g.Statements() {
			if st.Property == vocab.OREProxyFor {
				target = st.Object
			}
		}
		if target == "" {
			return c.String(http.StatusBadRequest, "missing ore:proxyFor")
		}
		res := &resource{uri: target, proxy: ro.proxyURI(s.next()), external: true}
		ro.resources[target] = res
		return s.created(c, res.proxy, []string{rodl.FormatLink(target, vocab.OREProxyFor)}, ro.uri)

	case vocab.MediaTypeAnnotation:
		g, err := statements(c, ro.uri)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		ann := &annotation{uri: ro.uri + ".ro/annotations/" + strconv.Itoa(s.next())}
		for _, st := range g.Statements() {
			switch st.Property {
			case vocab.AOBody:
				ann.body = st.Object
			case vocab.ROAnnotatesAggregatedResource:
				ann.targets = append(ann.targets, st.Object)
			}
		}
		ro.annotations[ann.uri] = ann
		return s.created(c, ann.uri, []string{rodl.FormatLink(ann.body, vocab.AOBody)}, ann.uri)
	}

	uri := ro.uri + slug
	if _, ok := ro.resources[uri]; ok {
		return c.NoContent(http.StatusConflict)
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	res := &resource{uri: uri, proxy: ro.proxyURI(s.next()), contentType: contentType, content: body}
	ro.resources[uri] = res

	targets := rodl.ParseLinks(req.Header.Values("Link"))[vocab.AOAnnotatesResource]
	if len(targets) > 0 {
		ann := &annotation{
			uri:     ro.uri + ".ro/annotations/" + strconv.Itoa(s.next()),
			body:    uri,
			targets: targets,
		}
		ro.annotations[ann.uri] = ann
		return s.created(c, ann.uri, []string{rodl.FormatLink(uri, vocab.AOBody)}, ann.uri)
	}
	return s.created(c, res.proxy, []string{rodl.FormatLink(uri, vocab.OREProxyFor)}, uri)
}

func (s *Server) entryFrom(ro *researchObject, g *graph.Graph, subject string) *entry {
	e := &entry{uri: ro.uri + ".ro/entries/" + strconv.Itoa(s.next())}
	for _, st := range g.Statements() {
		if subjectOf(st) != subject {
			continue
		}
		switch st.Property {
		case vocab.OREProxyFor:
			e.resource = st.Object
		case vocab.ROEntryName:
			e.name = st.Object
		}
	}
	return e
}

func (s *Server) addEntry(c echo.Context, ro *researchObject, f *folder) error {
	if c.Request().Header.Get(echo.HeaderContentType) != vocab.MediaTypeFolderEntry {
		return c.NoContent(http.StatusUnsupportedMediaType)
	}
	g, err := statements(c, f.uri)
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	var e *entry
	for _, st := range g.Statements() {
		if st.Property == vocab.RDFType && st.Object == vocab.ROFolderEntry {
			e = s.entryFrom(ro, g, subjectOf(st))
		}
	}
	if e == nil || e.resource == "" {
		return c.String(http.StatusBadRequest, "missing folder entry")
	}
	for _, existing := range f.entries {
		if existing.resource == e.resource {
			if !s.bareConflicts {
				c.Response().Header().Set(echo.HeaderLocation, existing.uri)
			}
			return c.NoContent(http.StatusConflict)
		}
	}
	f.entries = append(f.entries, e)
	return s.created(c, e.uri, []string{rodl.FormatLink(e.resource, vocab.OREProxyFor)}, e.uri)
}

func (s *Server) handlePut(c echo.Context) error {
	req := c.Request()
	uri := absolute(req)
	s.mu.Lock()
	defer s.mu.Unlock()

	ro := s.owner(uri)
	if ro == nil {
		return c.NoContent(http.StatusNotFound)
	}
	if ann, ok := ro.annotations[uri]; ok {
		g, err := statements(c, ro.uri)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		ann.targets = nil
		for _, st := range g.Statements() {
			switch st.Property {
			case vocab.AOBody:
				ann.body = st.Object
			case vocab.ROAnnotatesAggregatedResource:
				ann.targets = append(ann.targets, st.Object)
			}
		}
		return c.NoContent(http.StatusOK)
	}
	if res, ok := ro.resources[uri]; ok {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return c.String(http.StatusBadRequest, err.Error())
		}
		res.content = body
		res.contentType = req.Header.Get(echo.HeaderContentType)
		return c.NoContent(http.StatusOK)
	}
	return c.NoContent(http.StatusNotFound)
}

func (s *Server) handleDelete(c echo.Context) error {
	uri := absolute(c.Request())
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ros[uri]; ok {
		delete(s.ros, uri)
		return c.NoContent(http.StatusNoContent)
	}
	if _, ok := s.docs[uri]; ok {
		delete(s.docs, uri)
		return c.NoContent(http.StatusNoContent)
	}
	ro := s.owner(uri)
	if ro == nil {
		return c.NoContent(http.StatusNotFound)
	}
	for _, f := range ro.folders {
		if f.proxy == uri {
			uri = f.uri
		}
	}
	if !ro.remove(uri) {
		return c.NoContent(http.StatusNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}

// Content returns the stored content of an aggregated resource.
func (s *Server) Content(uri string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ro := s.owner(uri)
	if ro == nil {
		return nil, false
	}
	res, ok := ro.resources[uri]
	if !ok {
		return nil, false
	}
	return res.content, true
}

// Exists reports whether uri is a research object, resource, folder,
// annotation or folder entry known to the server.
func (s *Server) Exists(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ros[uri]; ok {
		return true
	}
	ro := s.owner(uri)
	if ro == nil {
		return false
	}
	if _, ok := ro.resources[uri]; ok {
		return true
	}
	if _, ok := ro.folders[uri]; ok {
		return true
	}
	if _, ok := ro.annotations[uri]; ok {
		return true
	}
	for _, f := range ro.folders {
		for _, e := range f.entries {
			if e.uri == uri {
				return true
			}
		}
	}
	return false
}

func (s *Server) String() string {
	return fmt.Sprintf("testserver(%s)", s.base)
}
