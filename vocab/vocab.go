// Package vocab holds the well-known URIs used in research object manifests,
// resource maps, annotation bodies and service descriptions.
package vocab

import "strings"

const (
	RDFNamespace     = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace    = "http://www.w3.org/2000/01/rdf-schema#"
	ORENamespace     = "http://www.openarchives.org/ore/terms/"
	RONamespace      = "http://purl.org/wf4ever/ro#"
	AONamespace      = "http://purl.org/ao/"
	OANamespace      = "http://www.w3.org/ns/oa#"
	DCTermsNamespace = "http://purl.org/dc/terms/"
	ROEVONamespace   = "http://purl.org/wf4ever/roevo#"
	FOAFNamespace    = "http://xmlns.com/foaf/0.1/"
	PROVNamespace    = "http://www.w3.org/ns/prov#"
	WFNamespace      = "http://purl.org/wf4ever/wf4ever#"
	ROSRSNamespace   = "http://purl.org/wf4ever/rosrs#"
	XSDNamespace     = "http://www.w3.org/2001/XMLSchema#"
)

const (
	RDFType     = RDFNamespace + "type"
	RDFSLabel   = RDFSNamespace + "label"
	RDFSComment = RDFSNamespace + "comment"
)

const (
	OREAggregation    = ORENamespace + "Aggregation"
	OREAggregates     = ORENamespace + "aggregates"
	OREIsAggregatedBy = ORENamespace + "isAggregatedBy"
	OREProxy          = ORENamespace + "Proxy"
	OREProxyFor       = ORENamespace + "proxyFor"
	OREProxyIn        = ORENamespace + "proxyIn"
	OREResourceMap    = ORENamespace + "ResourceMap"
	OREDescribes      = ORENamespace + "describes"
	OREIsDescribedBy  = ORENamespace + "isDescribedBy"
)

const (
	ROResearchObject              = RONamespace + "ResearchObject"
	ROResource                    = RONamespace + "Resource"
	ROFolder                      = RONamespace + "Folder"
	ROFolderEntry                 = RONamespace + "FolderEntry"
	ROAggregatedAnnotation        = RONamespace + "AggregatedAnnotation"
	ROManifest                    = RONamespace + "Manifest"
	ROResourceMap                 = RONamespace + "ResourceMap"
	RORootFolder                  = RONamespace + "rootFolder"
	ROEntryName                   = RONamespace + "entryName"
	ROAnnotatesAggregatedResource = RONamespace + "annotatesAggregatedResource"
	ROFilesize                    = RONamespace + "filesize"
)

const (
	AOAnnotation        = AONamespace + "Annotation"
	AOBody              = AONamespace + "body"
	AOAnnotatesResource = AONamespace + "annotatesResource"
	OAAnnotation        = OANamespace + "Annotation"
	OAHasBody           = OANamespace + "hasBody"
	OAHasTarget         = OANamespace + "hasTarget"
)

const (
	DCTermsCreator     = DCTermsNamespace + "creator"
	DCTermsCreated     = DCTermsNamespace + "created"
	DCTermsTitle       = DCTermsNamespace + "title"
	DCTermsDescription = DCTermsNamespace + "description"
	DCTermsIdentifier  = DCTermsNamespace + "identifier"
	DCTermsSubject     = DCTermsNamespace + "subject"
)

const (
	FOAFPerson = FOAFNamespace + "Person"
	FOAFAgent  = FOAFNamespace + "Agent"
	FOAFName   = FOAFNamespace + "name"
)

const (
	ROEVOLiveRO             = ROEVONamespace + "LiveRO"
	ROEVOSnapshotRO         = ROEVONamespace + "SnapshotRO"
	ROEVOArchivedRO         = ROEVONamespace + "ArchivedRO"
	ROEVOHasSnapshot        = ROEVONamespace + "hasSnapshot"
	ROEVOHasArchive         = ROEVONamespace + "hasArchive"
	ROEVOIsSnapshotOf       = ROEVONamespace + "isSnapshotOf"
	ROEVOIsArchiveOf        = ROEVONamespace + "isArchiveOf"
	ROEVOHasPreviousVersion = ROEVONamespace + "hasPreviousVersion"
	ROEVOSnapshotedAtTime   = ROEVONamespace + "snapshotedAtTime"
	ROEVOArchivedAtTime     = ROEVONamespace + "archivedAtTime"
	PROVHadOriginalSource   = PROVNamespace + "hadOriginalSource"
)

const (
	ROSRSPermissions   = ROSRSNamespace + "permissions"
	ROSRSModes         = ROSRSNamespace + "modes"
	ROSRSNotifications = ROSRSNamespace + "notifications"
	ROSRSCopy          = ROSRSNamespace + "copy"
	ROSRSFinalize      = ROSRSNamespace + "finalize"
	ROSRSInfo          = ROSRSNamespace + "info"
	ROSRSUsers         = ROSRSNamespace + "users"
	ROSRSAccessTokens  = ROSRSNamespace + "accesstokens"
)

// Media types understood by the RODL API.
const (
	MediaTypeAnnotation  = "application/vnd.wf4ever.annotation"
	MediaTypeFolder      = "application/vnd.wf4ever.folder"
	MediaTypeFolderEntry = "application/vnd.wf4ever.folderentry"
	MediaTypeProxy       = "application/vnd.wf4ever.proxy"
	MediaTypeRDFXML      = "application/rdf+xml"
	MediaTypeTurtle      = "text/turtle"
	MediaTypeTriG        = "application/trig"
	MediaTypeNTriples    = "application/n-triples"
	MediaTypeNQuads      = "application/n-quads"
	MediaTypeJSONLD      = "application/ld+json"
	MediaTypeJSON        = "application/json"
	MediaTypeAtom        = "application/atom+xml"
	MediaTypeText        = "text/plain"
)

// Prefixes maps the conventional prefix of each namespace.
var Prefixes = map[string]string{
	"rdf":     RDFNamespace,
	"rdfs":    RDFSNamespace,
	"ore":     ORENamespace,
	"ro":      RONamespace,
	"ao":      AONamespace,
	"oa":      OANamespace,
	"dcterms": DCTermsNamespace,
	"roevo":   ROEVONamespace,
	"foaf":    FOAFNamespace,
	"prov":    PROVNamespace,
	"wf4ever": WFNamespace,
	"rosrs":   ROSRSNamespace,
	"xsd":     XSDNamespace,
}

// Expand turns a prefixed name such as "ore:proxyFor" into a full URI. Names
// with an unknown prefix are returned unchanged.
func Expand(name string) string {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return name
	}
	ns, ok := Prefixes[prefix]
	if !ok {
		return name
	}
	return ns + local
}

// Compact is the inverse of Expand. URIs outside the known namespaces are
// returned unchanged.
func Compact(uri string) string {
	best, bestNS := "", ""
	for prefix, ns := range Prefixes {
		if strings.HasPrefix(uri, ns) && len(ns) > len(bestNS) {
			best, bestNS = prefix, ns
		}
	}
	if bestNS == "" {
		return uri
	}
	return best + ":" + strings.TrimPrefix(uri, bestNS)
}
