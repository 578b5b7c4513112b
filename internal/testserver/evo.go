package testserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/vocab"
)

type job struct {
	CopyFrom string `json:"copyfrom,omitempty"`
	Target   string `json:"target"`
	Type     string `json:"type,omitempty"`
	Finalize bool   `json:"finalize,omitempty"`
	Status   string `json:"status"`
	Reason   string `json:"reason,omitempty"`
}

// EvoURI is where the fake evolution service lives.
func (s *Server) EvoURI() string {
	return s.origin + "/evo/"
}

func (s *Server) handleEvoPost(c echo.Context, uri string) error {
	var j job
	if err := json.NewDecoder(c.Request().Body).Decode(&j); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	switch strings.TrimPrefix(uri, s.EvoURI()) {
	case "copy/":
		if _, ok := s.ros[j.CopyFrom]; !ok {
			return c.String(http.StatusBadRequest, "unknown research object "+j.CopyFrom)
		}
		j.Status = "RUNNING"
	case "finalize/":
		j.Status = "DONE"
	default:
		return c.NoContent(http.StatusNotFound)
	}
	location := s.EvoURI() + "jobs/" + strconv.Itoa(s.next())
	s.jobs[location] = &j
	c.Response().Header().Set(echo.HeaderLocation, location)
	return c.JSON(http.StatusCreated, j)
}

func (s *Server) handleEvoGet(c echo.Context, uri string) error {
	if uri == s.EvoURI()+"info" {
		return s.evolutionInformation(c, c.QueryParam("ro"))
	}
	j, ok := s.jobs[uri]
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	if j.Status == "RUNNING" {
		s.complete(j)
	}
	return c.JSON(http.StatusOK, j)
}

// complete performs the copy of a job the first time its status is read.
func (s *Server) complete(j *job) {
	live := s.ros[j.CopyFrom]
	if live == nil {
		j.Status = "FAILED"
		j.Reason = "research object disappeared"
		return
	}
	target := s.base + strings.Trim(j.Target, "/") + "/"
	if _, ok := s.ros[target]; ok {
		j.Status = "FAILED"
		j.Reason = "target exists"
		return
	}
	copied := newResearchObject(target)
	copied.liveRO = live.uri
	if j.Type == "ARCHIVE" {
		copied.evoType = vocab.ROEVOArchivedRO
		live.archives = append(live.archives, target)
	} else {
		copied.evoType = vocab.ROEVOSnapshotRO
		live.snapshots = append(live.snapshots, target)
	}
	s.ros[target] = copied
	j.Target = target
	j.Status = "DONE"
}

func (s *Server) evolutionInformation(c echo.Context, uri string) error {
	ro, ok := s.ros[uri]
	if !ok {
		return c.NoContent(http.StatusNotFound)
	}
	st := []rodl.Statement{
		rodl.NewResourceStatement(ro.uri, vocab.RDFType, ro.evoType),
	}
	for _, snapshot := range ro.snapshots {
		st = append(st,
			rodl.NewResourceStatement(ro.uri, vocab.ROEVOHasSnapshot, snapshot),
			rodl.NewResourceStatement(snapshot, vocab.ROEVOIsSnapshotOf, ro.uri),
		)
	}
	for i := 1; i < len(ro.snapshots); i++ {
		st = append(st, rodl.NewResourceStatement(ro.snapshots[i], vocab.ROEVOHasPreviousVersion, ro.snapshots[i-1]))
	}
	for _, archive := range ro.archives {
		st = append(st,
			rodl.NewResourceStatement(ro.uri, vocab.ROEVOHasArchive, archive),
			rodl.NewResourceStatement(archive, vocab.ROEVOIsArchiveOf, ro.uri),
		)
	}
	if ro.liveRO != "" {
		property := vocab.ROEVOIsSnapshotOf
		if ro.evoType == vocab.ROEVOArchivedRO {
			property = vocab.ROEVOIsArchiveOf
		}
		st = append(st, rodl.NewResourceStatement(ro.uri, property, ro.liveRO))
		if live := s.ros[ro.liveRO]; live != nil {
			for i, snapshot := range live.snapshots {
				if snapshot == ro.uri && i > 0 {
					st = append(st, rodl.NewResourceStatement(ro.uri, vocab.ROEVOHasPreviousVersion, live.snapshots[i-1]))
				}
			}
		}
	}
	return s.triples(c, http.StatusOK, st)
}
