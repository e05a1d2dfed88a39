package session

import (
	"context"
	"errors"
	"time"

	"github.com/marmos91/layerscope/internal/bytesize"
	"github.com/marmos91/layerscope/internal/logger"
	"github.com/marmos91/layerscope/pkg/graph"
	"github.com/marmos91/layerscope/pkg/journal"
	"github.com/marmos91/layerscope/pkg/metrics"
)

func (s *Session) previewDelete(ctx context.Context, c PreviewDelete) (View, error) {
	plan, err := s.g.Preview(c.ID, c.Recursive)
	if err != nil {
		return nil, err
	}
	return s.planView(ctx, Delete{}.Name(), plan), nil
}

func (s *Session) planView(ctx context.Context, command string, plan *graph.Plan) *PlanView {
	_, total := s.sizes(ctx, plan.Nodes)
	view := &PlanView{
		Command:   command,
		Targets:   plan.Targets,
		Recursive: plan.Recursive,
		Items:     make([]Item, 0, len(plan.Nodes)),
		Size:      total,
	}
	for _, n := range plan.Nodes {
		view.Items = append(view.Items, itemOf(n))
	}
	return view
}

func (s *Session) delete(ctx context.Context, c Delete) (View, error) {
	ctx = s.withRun(ctx, c.Name(), c.ID)

	if !s.g.Has(c.ID) {
		return nil, graph.NewNotFoundError(c.ID)
	}
	if !c.Confirmed {
		metrics.RecordRefused(s.opts.Metrics, c.Name(), "not_confirmed")
		logger.WarnCtx(ctx, "refusing unconfirmed delete")
		return nil, ErrNotConfirmed
	}

	plan, err := s.g.Preview(c.ID, c.Recursive)
	if err != nil {
		return nil, err
	}
	sizes, _ := s.sizes(ctx, plan.Nodes)
	logger.DebugCtx(ctx, "deleting node", logger.RefCount(s.g.RefCount(c.ID)),
		logger.Recursive(c.Recursive), logger.Nodes(len(plan.Nodes)))

	start := time.Now()
	var removal *graph.Removal
	if c.Recursive {
		removal, err = s.g.RemoveRecursive(c.ID)
	} else {
		removal, err = s.g.Remove(c.ID)
	}

	var removed []graph.Node
	if removal != nil {
		removed = removal.Removed
	}
	view := s.removalView(c.Name(), []string{c.ID}, c.Recursive, removed, sizes, err)
	s.record(ctx, view, removed, sizes, time.Since(start), err)
	return view, err
}

func (s *Session) previewPrune(ctx context.Context, c PreviewPrune) (View, error) {
	kinds, err := pruneKinds(c.Kinds)
	if err != nil {
		return nil, err
	}
	plan, err := s.g.PreviewMany(s.candidates(kinds))
	if err != nil {
		return nil, err
	}
	return s.planView(ctx, Prune{}.Name(), plan), nil
}

func (s *Session) prune(ctx context.Context, c Prune) (View, error) {
	ctx = s.withRun(ctx, c.Name(), "")

	kinds, err := pruneKinds(c.Kinds)
	if err != nil {
		return nil, err
	}
	if !c.Confirmed {
		metrics.RecordRefused(s.opts.Metrics, c.Name(), "not_confirmed")
		logger.WarnCtx(ctx, "refusing unconfirmed prune")
		return nil, ErrNotConfirmed
	}

	targets := s.candidates(kinds)
	plan, err := s.g.PreviewMany(targets)
	if err != nil {
		return nil, err
	}
	sizes, _ := s.sizes(ctx, plan.Nodes)

	start := time.Now()
	var removed []graph.Node
	for _, id := range targets {
		if err = ctx.Err(); err != nil {
			break
		}
		// An earlier cascade may already have taken this candidate.
		if !s.g.Has(id) {
			continue
		}
		var removal *graph.Removal
		removal, err = s.g.RemoveRecursive(id)
		if removal != nil {
			removed = append(removed, removal.Removed...)
		}
		if err != nil {
			break
		}
	}

	view := s.removalView(c.Name(), targets, true, removed, sizes, err)
	s.record(ctx, view, removed, sizes, time.Since(start), err)
	return view, err
}

// candidates lists the dangling nodes of kinds, in kind order then id order.
func (s *Session) candidates(kinds []graph.Kind) []string {
	var ids []string
	for _, k := range kinds {
		for _, n := range s.g.Dangling(k) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// pruneKinds validates a prune selection. Roots and placeholders are never
// pruned: roots are what the user keeps, and placeholders own nothing.
func pruneKinds(kinds []graph.Kind) ([]graph.Kind, error) {
	var dangling graph.Category
	for _, c := range graph.Categories {
		if c.Dangling {
			dangling = c
		}
	}
	if len(kinds) == 0 {
		return dangling.Kinds, nil
	}
	for _, k := range kinds {
		if !k.Valid() {
			return nil, errors.New("unknown kind " + string(k))
		}
		if k.IsRoot() || k == graph.KindPlaceholder {
			return nil, errors.New("kind " + string(k) + " cannot be pruned")
		}
	}
	return kinds, nil
}

func (s *Session) removalView(command string, targets []string, recursive bool, removed []graph.Node, sizes map[string]bytesize.ByteSize, err error) *RemovalView {
	view := &RemovalView{
		Command:   command,
		Targets:   targets,
		Recursive: recursive,
		Removed:   make([]Item, 0, len(removed)),
	}
	for _, n := range removed {
		view.Removed = append(view.Removed, itemOf(n))
		view.Size += sizes[n.ID]
	}
	if err != nil {
		view.Error = err.Error()
		var cerr *graph.CascadeError
		var serr *graph.StorageError
		switch {
		case errors.As(err, &cerr):
			view.Failed = cerr.Failed
		case errors.As(err, &serr):
			view.Failed = serr.ID
		}
	}
	return view
}

// record logs, counts and journals an executed removal.
func (s *Session) record(ctx context.Context, view *RemovalView, removed []graph.Node, sizes map[string]bytesize.ByteSize, elapsed time.Duration, err error) {
	status := journal.StatusSuccess
	switch {
	case err != nil && len(removed) > 0:
		status = journal.StatusPartial
	case err != nil:
		status = journal.StatusError
	}

	metrics.ObserveRemoval(s.opts.Metrics, view.Command, status, len(removed), elapsed)

	entry := &journal.Entry{
		RunID:     s.opts.RunID,
		Command:   view.Command,
		BaseDir:   s.opts.BaseDir,
		Targets:   view.Targets,
		Recursive: view.Recursive,
		Status:    status,
		Failed:    view.Failed,
		Error:     view.Error,
	}
	for _, n := range removed {
		size := int64(sizes[n.ID])
		metrics.RecordRemovedNode(s.opts.Metrics, n.Kind.String(), size)
		logger.InfoCtx(ctx, "node removed", logger.NodeID(n.ID), logger.Kind(n.Kind), logger.Size(size))
		entry.Removed = append(entry.Removed, journal.Removed{
			ID:    n.ID,
			Kind:  n.Kind.String(),
			Paths: n.Paths,
			Bytes: size,
		})
	}

	if err != nil {
		logger.ErrorCtx(ctx, "removal stopped", logger.Removed(len(removed)), "failed", view.Failed, logger.Err(err))
	} else {
		logger.InfoCtx(ctx, "removal complete", logger.Removed(len(removed)),
			logger.Size(int64(view.Size)), logger.DurationMs(float64(elapsed.Microseconds())/1000.0))
	}

	if s.opts.Journal == nil {
		return
	}
	// The removal has happened either way; a journal failure is only logged.
	if jerr := s.opts.Journal.Append(ctx, entry); jerr != nil {
		logger.ErrorCtx(ctx, "failed to journal removal", logger.Err(jerr))
	}
}
