package scan

import (
	"context"
	"encoding/json"
	"errors"
	"path"

	"github.com/marmos91/layerscope/pkg/graph"
)

// containerConfigV2 is the part of config.v2.json this scanner needs.
type containerConfigV2 struct {
	ID    string `json:"ID"`
	Name  string `json:"Name"`
	Image string `json:"Image"`
}

// scanContainers builds Mount nodes and then Container nodes, which depend
// on their mount, their image and the overlay layers of their mount.
func scanContainers(ctx context.Context, s *state) error {
	if err := scanMounts(ctx, s); err != nil {
		return err
	}

	entries, err := readDir(s.fs, containersDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsDir() {
			continue
		}

		containerID := e.Name()
		dir := path.Join(containersDir, containerID)
		file := path.Join(dir, containerConfig)

		data, ok, err := readTrimmed(s.fs, file)
		if err == nil && !ok {
			err = errors.New("config.v2.json not found")
		}
		var cfg containerConfigV2
		if err == nil {
			err = json.Unmarshal([]byte(data), &cfg)
		}
		if err != nil {
			s.warn(ctx, "container", file, err)
			s.b.Add(graph.KindContainer, containerID, []string{dir}, nil)
			continue
		}

		attrs := map[string]string{graph.AttrImage: cfg.Image}
		if cfg.Name != "" {
			attrs[graph.AttrName] = cfg.Name
		}
		id := s.b.Add(graph.KindContainer, containerID, []string{dir}, attrs)

		if image := trimDigest(cfg.Image); image != "" {
			s.b.Link(id, s.b.Resolve(graph.ID(graph.KindImageContent, image)))
		}

		mountID := graph.ID(graph.KindMount, containerID)
		s.b.Link(id, s.b.Resolve(mountID))

		// The container also pins the writable layers of its mount directly,
		// so removing the mount record alone does not orphan them.
		if mount, ok := s.b.Lookup(mountID); ok {
			for _, key := range []string{graph.AttrInitID, graph.AttrMountID} {
				layer := graph.ID(graph.KindOverlay2, mount.Attrs[key])
				if mount.Attrs[key] != "" && s.b.Has(layer) {
					s.b.Link(id, layer)
				}
			}
		}
	}
	return nil
}

func scanMounts(ctx context.Context, s *state) error {
	entries, err := readDir(s.fs, mountsDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsDir() {
			continue
		}

		mountKey := e.Name()
		dir := path.Join(mountsDir, mountKey)

		values := make(map[string]string, 3)
		var readErr error
		for file, attr := range map[string]string{
			"init-id":  graph.AttrInitID,
			"mount-id": graph.AttrMountID,
			"parent":   graph.AttrParent,
		} {
			v, ok, err := readTrimmed(s.fs, path.Join(dir, file))
			if err != nil {
				readErr = errors.Join(readErr, err)
				continue
			}
			if ok && v != "" {
				values[attr] = v
			}
		}
		if readErr != nil {
			s.warn(ctx, "container", dir, readErr)
			s.b.Add(graph.KindMount, mountKey, []string{dir}, nil)
			continue
		}

		id := s.b.Add(graph.KindMount, mountKey, []string{dir}, values)
		for _, attr := range []string{graph.AttrInitID, graph.AttrMountID} {
			if layer, ok := values[attr]; ok {
				s.b.Link(id, s.b.Resolve(graph.ID(graph.KindOverlay2, layer)))
			}
		}
		if parent, ok := values[graph.AttrParent]; ok {
			s.b.Link(id, s.b.Resolve(graph.ID(graph.KindImageLayer, trimDigest(parent))))
		}
	}
	return nil
}
