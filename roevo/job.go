package roevo

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go/vocab"
)

type EvoType string

const (
	TypeLive     EvoType = "LIVE"
	TypeSnapshot EvoType = "SNAPSHOT"
	TypeArchive  EvoType = "ARCHIVE"
)

type State string

const (
	StateRunning      State = "RUNNING"
	StateDone         State = "DONE"
	StateCancelled    State = "CANCELLED"
	StateFailed       State = "FAILED"
	StateServiceError State = "SERVICE_ERROR"
)

// Terminal reports whether the job will not change any more.
func (s State) Terminal() bool {
	return s != StateRunning && s != ""
}

// Job is the description submitted to the copy and finalize endpoints.
type Job struct {
	CopyFrom string  `json:"copyfrom,omitempty"`
	Target   string  `json:"target"`
	Type     EvoType `json:"type,omitempty"`
	Finalize bool    `json:"finalize,omitempty"`
}

// JobStatus is the last known state of a submitted job. It is not updated
// in the background, call Refresh.
type JobStatus struct {
	Job
	Location string `json:"-"`
	Status   State  `json:"status"`
	Reason   string `json:"reason,omitempty"`

	service *Service
}

func (j *JobStatus) decode(data []byte) error {
	var fresh JobStatus
	if err := json.Unmarshal(data, &fresh); err != nil {
		return errors.Wrap(err, "failed to decode job status")
	}
	j.Job = fresh.Job
	j.Status = fresh.Status
	j.Reason = fresh.Reason
	return nil
}

// Refresh re-reads the job status, overwriting every field.
func (j *JobStatus) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "ROEVO.JobStatus.Refresh")
	defer span.End()

	req, err := j.service.client.NewRequest(ctx, http.MethodGet, j.Location, nil, "")
	if err != nil {
		span.RecordError(err)
		return err
	}
	req.Header.Set("Accept", vocab.MediaTypeJSON)
	resp, err := j.service.client.Do("RefreshJob", req, http.StatusOK)
	if err != nil {
		span.RecordError(errors.Wrap(err, "ROEVO.JobStatus.Refresh"))
		return err
	}
	if err := j.decode(resp.Body); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Wait refreshes the status every interval until the job reaches a terminal
// state or ctx is done. A job that is already finished returns at once.
func (j *JobStatus) Wait(ctx context.Context, interval time.Duration) error {
	if j.Status.Terminal() {
		return nil
	}
	if interval <= 0 {
		return errors.Errorf("non-positive poll interval %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for !j.Status.Terminal() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := j.Refresh(ctx); err != nil {
			return err
		}
	}
	return nil
}
