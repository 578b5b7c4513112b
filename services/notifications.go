package services

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go/client"
	"github.com/wf4ever/rodl-go/vocab"
)

// NotificationQuery narrows the notification feed. Zero fields are left
// out of the request.
type NotificationQuery struct {
	RO     string
	From   time.Time
	To     time.Time
	Source string
	Limit  int
}

func (q NotificationQuery) vars() map[string]string {
	vars := map[string]string{
		"ro":     q.RO,
		"source": q.Source,
	}
	if !q.From.IsZero() {
		vars["from"] = q.From.UTC().Format(time.RFC3339)
	}
	if !q.To.IsZero() {
		vars["to"] = q.To.UTC().Format(time.RFC3339)
	}
	if q.Limit > 0 {
		vars["limit"] = strconv.Itoa(q.Limit)
	}
	return vars
}

// Notification is one entry of the notification feed.
type Notification struct {
	ID        string
	Title     string
	Summary   string
	Link      string
	Source    string
	Published *time.Time
}

type NotificationService struct {
	client      *client.Client
	description *Description
}

func NewNotifications(c *client.Client, d *Description) *NotificationService {
	return &NotificationService{client: c, description: d}
}

// Notifications reads the Atom feed of events matching q, oldest first as
// the service returns them.
func (s *NotificationService) Notifications(ctx context.Context, q NotificationQuery) ([]Notification, error) {
	ctx, span := tracer.Start(ctx, "Notifications.Get")
	defer span.End()

	uri, err := s.description.Expand(vocab.ROSRSNotifications, q.vars())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req, err := s.client.NewRequest(ctx, http.MethodGet, uri, nil, "")
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	req.Header.Set("Accept", vocab.MediaTypeAtom)
	resp, err := s.client.Do("GetNotifications", req, http.StatusOK)
	if err != nil {
		span.RecordError(errors.Wrap(err, "Notifications.Get"))
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to parse notification feed")
	}
	out := make([]Notification, 0, len(feed.Items))
	for _, item := range feed.Items {
		n := Notification{
			ID:        item.GUID,
			Title:     item.Title,
			Summary:   item.Description,
			Link:      item.Link,
			Published: item.PublishedParsed,
		}
		if n.Published == nil {
			n.Published = item.UpdatedParsed
		}
		for _, author := range item.Authors {
			if author != nil && author.Name != "" {
				n.Source = author.Name
				break
			}
		}
		out = append(out, n)
	}
	return out, nil
}
