package ro

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go/roevo"
	"github.com/wf4ever/rodl-go/vocab"
)

// ErrNoEvolutionService is returned by the evolution operations of a research
// object created without a roevo service.
var ErrNoEvolutionService = errors.New("no evolution service configured")

// LoadEvolutionInformation reads the snapshots, archives and live research
// object from the evolution service.
func (ro *ResearchObject) LoadEvolutionInformation(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RO.LoadEvolutionInformation")
	defer span.End()

	if ro.roevo == nil {
		return ErrNoEvolutionService
	}
	g, err := ro.roevo.GetEvolutionInformation(ctx, ro.URI)
	if err != nil {
		span.RecordError(errors.Wrap(err, "RO.LoadEvolutionInformation"))
		return err
	}

	evoType := evoTypeOf(g.Types(ro.URI))
	snapshots := g.Objects(ro.URI, vocab.ROEVOHasSnapshot)
	archives := g.Objects(ro.URI, vocab.ROEVOHasArchive)
	sort.Strings(snapshots)
	sort.Strings(archives)
	live, ok := g.Object(ro.URI, vocab.ROEVOIsSnapshotOf)
	if !ok {
		live, _ = g.Object(ro.URI, vocab.ROEVOIsArchiveOf)
	}
	previous, _ := g.Object(ro.URI, vocab.ROEVOHasPreviousVersion)

	ro.mu.Lock()
	defer ro.mu.Unlock()
	if evoType != "" {
		ro.evoType = evoType
	}
	ro.snapshots = snapshots
	ro.archives = archives
	ro.liveRO = nil
	if live != "" {
		ro.liveRO = New(live, ro.rosrs, ro.roevo)
	}
	ro.previousSnapshot = previous
	ro.evoLoaded = true
	return nil
}

func (ro *ResearchObject) IsEvolutionLoaded() bool {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.evoLoaded
}

// EvoType is LIVE, SNAPSHOT or ARCHIVE, or empty when unknown.
func (ro *ResearchObject) EvoType() roevo.EvoType {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.evoType
}

func (ro *ResearchObject) Snapshots() []string {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return append([]string(nil), ro.snapshots...)
}

func (ro *ResearchObject) Archives() []string {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return append([]string(nil), ro.archives...)
}

// LiveRO is the research object a snapshot or archive was copied from. It
// is returned unloaded.
func (ro *ResearchObject) LiveRO() *ResearchObject {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.liveRO
}

func (ro *ResearchObject) PreviousSnapshot() string {
	ro.mu.RLock()
	defer ro.mu.RUnlock()
	return ro.previousSnapshot
}

// Snapshot starts a snapshot of the research object named target.
func (ro *ResearchObject) Snapshot(ctx context.Context, target string, finalize bool) (*roevo.JobStatus, error) {
	if ro.roevo == nil {
		return nil, ErrNoEvolutionService
	}
	return ro.roevo.CreateSnapshot(ctx, ro.URI, target, finalize)
}

// Archive starts an archive of the research object named target.
func (ro *ResearchObject) Archive(ctx context.Context, target string, finalize bool) (*roevo.JobStatus, error) {
	if ro.roevo == nil {
		return nil, ErrNoEvolutionService
	}
	return ro.roevo.CreateArchive(ctx, ro.URI, target, finalize)
}
