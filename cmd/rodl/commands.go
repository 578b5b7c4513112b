package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/wf4ever/rodl-go"
	"github.com/wf4ever/rodl-go/internal/graph"
	"github.com/wf4ever/rodl-go/ro"
	"github.com/wf4ever/rodl-go/roevo"
	"github.com/wf4ever/rodl-go/search"
)

func (a *app) run(ctx context.Context, command string, args []string) error {
	need := func(n int) error {
		if len(args) < n {
			return errors.Errorf("%s needs %d argument(s), see -h", command, n)
		}
		return nil
	}

	switch command {
	case "whoami":
		user, err := a.rosrs.WhoAmI(ctx)
		if err != nil {
			return err
		}
		if user.Name != "" {
			fmt.Printf("%s (%s)\n", user.Name, user.URI)
		} else {
			fmt.Println(user.URI)
		}
		return nil

	case "show":
		if err := need(1); err != nil {
			return err
		}
		return a.show(ctx, args[0])

	case "create":
		id := uuid.NewString()
		if len(args) > 0 {
			id = args[0]
		}
		r, err := ro.Create(ctx, a.rosrs, a.roevo, id)
		if err != nil {
			return err
		}
		fmt.Println(r.URI)
		return nil

	case "delete":
		if err := need(1); err != nil {
			return err
		}
		return ro.New(args[0], a.rosrs, a.roevo).Delete(ctx)

	case "aggregate":
		if err := need(2); err != nil {
			return err
		}
		content, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}
		contentType := mime.TypeByExtension(filepath.Ext(args[1]))
		if len(args) > 2 {
			contentType = args[2]
		}
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		r, err := ro.New(args[0], a.rosrs, a.roevo).Aggregate(ctx, filepath.Base(args[1]), content, contentType)
		if err != nil {
			return err
		}
		fmt.Println(r.URI)
		return nil

	case "annotate":
		if err := need(3); err != nil {
			return err
		}
		content, err := os.ReadFile(args[2])
		if err != nil {
			return err
		}
		contentType := graph.MediaTypeForFormat(graph.FormatForPath(args[2]))
		path := ".ro/annotations/" + uuid.NewString() + filepath.Ext(args[2])
		ann, err := ro.New(args[0], a.rosrs, a.roevo).Annotate(ctx, []string{args[1]}, path, content, contentType)
		if err != nil {
			return err
		}
		fmt.Println(ann.URI, ann.Body())
		return nil

	case "snapshot", "archive":
		if err := need(2); err != nil {
			return err
		}
		r := ro.New(args[0], a.rosrs, a.roevo)
		var job *roevo.JobStatus
		var err error
		if command == "snapshot" {
			job, err = r.Snapshot(ctx, args[1], true)
		} else {
			job, err = r.Archive(ctx, args[1], true)
		}
		if err != nil {
			return err
		}
		if err := job.Wait(ctx, time.Second); err != nil {
			return err
		}
		if job.Status != roevo.StateDone {
			return errors.Errorf("job %s ended %s: %s", job.Location, job.Status, job.Reason)
		}
		fmt.Println(job.Target)
		return nil

	case "search":
		if err := need(1); err != nil {
			return err
		}
		if a.config.Service.SolrURI == "" {
			return errors.New("search needs service.solrURI in the configuration")
		}
		result, err := search.NewSolr(a.client, a.config.Service.SolrURI).Search(ctx, search.Query{Text: strings.Join(args, " ")})
		if err != nil {
			return err
		}
		rodl.JsonPrint("results", result)
		return nil
	}
	return errors.Errorf("unknown command %q, see -h", command)
}

func (a *app) show(ctx context.Context, uri string) error {
	r := ro.New(uri, a.rosrs, a.roevo)
	if err := r.Load(ctx); err != nil {
		return err
	}

	creator := "unknown"
	if r.Creator != nil {
		lookup := ro.ResolveCreator(ctx, a.client, r.Creator.URI)
		select {
		case <-lookup.Done():
		case <-time.After(3 * time.Second):
		}
		creator = lookup.Name()
	}
	fmt.Printf("%s\n  creator: %s\n", r.URI, creator)
	if r.Created != nil {
		fmt.Printf("  created: %s\n", r.Created.Format(time.RFC3339))
	}

	for _, f := range r.RootFolders() {
		printFolder(f, 1, make(map[string]bool))
	}
	for _, res := range r.RootResources() {
		fmt.Printf("  %s\n", res.Path())
	}

	for _, ann := range r.AllAnnotations() {
		fmt.Printf("  annotation %s -> %s\n", rodl.DisplayName(ann.URI), strings.Join(ann.Targets(), ", "))
	}

	if err := r.LoadEvolutionInformation(ctx); err == nil {
		fmt.Printf("  evolution: %s, %d snapshot(s), %d archive(s)\n", r.EvoType(), len(r.Snapshots()), len(r.Archives()))
	}
	return nil
}

func printFolder(f *ro.Folder, depth int, seen map[string]bool) {
	indent := strings.Repeat("  ", depth)
	fmt.Printf("%s%s\n", indent, f.Path())
	if seen[f.URI] {
		return
	}
	seen[f.URI] = true
	for _, sub := range f.Subfolders() {
		printFolder(sub, depth+1, seen)
	}
	for _, res := range f.Resources() {
		fmt.Printf("%s  %s\n", indent, res.Name())
	}
}
