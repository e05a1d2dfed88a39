package scan

import (
	"context"
	"path"
	"strings"

	"github.com/marmos91/layerscope/internal/logger"
	"github.com/marmos91/layerscope/pkg/graph"
)

// overlayLinkKind prefixes identifiers of short links that matched no layer.
// They only ever appear as placeholder keys.
const overlayLinkKind = "Overlay2Link"

// scanOverlay creates one Overlay2 node per layer directory, then links each
// layer to the parents named in its lower file.
func scanOverlay(ctx context.Context, s *state) error {
	entries, err := readDir(s.fs, overlayDir)
	if err != nil {
		return err
	}

	linkToID := make(map[string]string)
	var layers []string

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsDir() || e.Name() == overlayLinkDir {
			continue
		}

		id := e.Name()
		dir := path.Join(overlayDir, id)

		link, ok, err := readTrimmed(s.fs, path.Join(dir, "link"))
		if err != nil {
			s.warn(ctx, "overlay", path.Join(dir, "link"), err)
			ok = false
		}

		var attrs map[string]string
		if ok && link != "" {
			attrs = map[string]string{graph.AttrShortLink: link}
			linkToID[link] = id
		}

		s.b.Add(graph.KindOverlay2, id, []string{dir}, attrs)
		layers = append(layers, id)
	}

	for _, id := range layers {
		if err := ctx.Err(); err != nil {
			return err
		}

		lowerPath := path.Join(overlayDir, id, "lower")
		lower, ok, err := readTrimmed(s.fs, lowerPath)
		if err != nil {
			s.warn(ctx, "overlay", lowerPath, err)
			continue
		}
		if !ok || lower == "" {
			continue
		}

		from := graph.ID(graph.KindOverlay2, id)
		for _, alias := range strings.Split(lower, ":") {
			alias = strings.TrimPrefix(strings.TrimSpace(alias), overlayLinkDir+"/")
			if alias == "" {
				continue
			}
			if parent, ok := linkToID[alias]; ok {
				s.b.Link(from, s.b.Resolve(graph.ID(graph.KindOverlay2, parent)))
				continue
			}
			logger.DebugCtx(ctx, "lower alias matches no layer", logger.NodeID(from), logger.Alias(alias))
			s.b.Link(from, s.b.Resolve(overlayLinkKind+":"+alias))
		}
	}
	return nil
}
