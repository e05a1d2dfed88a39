package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/marmos91/layerscope/internal/logger"
	"github.com/marmos91/layerscope/pkg/graph"
)

// v2Metadata is one entry of a v2metadata-by-diffid file.
type v2Metadata struct {
	Digest           string `json:"Digest"`
	SourceRepository string `json:"SourceRepository"`
	HMAC             string `json:"HMAC"`
}

// imageConfig is the part of an image config this scanner needs.
type imageConfig struct {
	RootFS struct {
		Type    string   `json:"type"`
		DiffIDs []string `json:"diff_ids"`
	} `json:"rootfs"`
}

// repositories is the layout of repositories.json.
type repositories struct {
	Repositories map[string]map[string]string `json:"Repositories"`
}

// imageScan carries indexes between the phases of the image scanner.
type imageScan struct {
	*state
	// layersByDiff maps a diff id (without prefix) to the layers carrying it.
	layersByDiff map[string][]string
}

// scanImages builds DiffMetadata, ImageLayer, ImageContent and ImageRepo
// nodes, in that order, so each phase can link to the previous ones.
func scanImages(ctx context.Context, s *state) error {
	is := &imageScan{state: s, layersByDiff: make(map[string][]string)}

	for _, phase := range []func(context.Context) error{
		is.scanDiffMetadata,
		is.scanLayers,
		is.scanContent,
		is.scanRepositories,
	} {
		if err := phase(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (is *imageScan) scanDiffMetadata(ctx context.Context) error {
	entries, err := readDir(is.fs, v2MetadataDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			continue
		}

		diffID := e.Name()
		file := path.Join(v2MetadataDir, diffID)
		data, ok, err := readTrimmed(is.fs, file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if !ok {
			continue
		}

		var entriesMeta []v2Metadata
		if err := json.Unmarshal([]byte(data), &entriesMeta); err != nil {
			is.warn(ctx, "image", file, err)
			continue
		}

		paths := []string{file}
		var attrs map[string]string
		// Several entries may exist (one per push target); the first one is
		// authoritative for the digest.
		if len(entriesMeta) > 0 && entriesMeta[0].Digest != "" {
			first := entriesMeta[0]
			paths = append(paths, path.Join(diffByDigestDir, trimDigest(first.Digest)))
			attrs = map[string]string{
				graph.AttrDigest:           first.Digest,
				graph.AttrSourceRepository: first.SourceRepository,
			}
		}
		is.b.Add(graph.KindDiffMetadata, diffID, paths, attrs)
	}
	return nil
}

func (is *imageScan) scanLayers(ctx context.Context) error {
	entries, err := readDir(is.fs, layerDBDir)
	if err != nil {
		return err
	}

	parents := make(map[string]string)
	var layers []string

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.IsDir() {
			continue
		}

		layerID := e.Name()
		dir := path.Join(layerDBDir, layerID)
		attrs := make(map[string]string)

		cacheID, hasCache, err := readTrimmed(is.fs, path.Join(dir, "cache-id"))
		if err != nil {
			return fmt.Errorf("read %s/cache-id: %w", dir, err)
		}
		diff, hasDiff, err := readTrimmed(is.fs, path.Join(dir, "diff"))
		if err != nil {
			return fmt.Errorf("read %s/diff: %w", dir, err)
		}
		parent, hasParent, err := readTrimmed(is.fs, path.Join(dir, "parent"))
		if err != nil {
			return fmt.Errorf("read %s/parent: %w", dir, err)
		}

		if hasCache {
			attrs[graph.AttrCacheID] = cacheID
		}
		if hasDiff {
			attrs[graph.AttrDiffID] = diff
		}
		if hasParent && parent != "" {
			attrs[graph.AttrParent] = parent
			parents[layerID] = trimDigest(parent)
		}

		id := is.b.Add(graph.KindImageLayer, layerID, []string{dir}, attrs)
		layers = append(layers, layerID)

		if hasCache && cacheID != "" {
			is.b.Link(id, is.b.Resolve(graph.ID(graph.KindOverlay2, cacheID)))
		}
		if hasDiff && diff != "" {
			diffHex := trimDigest(diff)
			is.layersByDiff[diffHex] = append(is.layersByDiff[diffHex], layerID)
			if meta := graph.ID(graph.KindDiffMetadata, diffHex); is.b.Has(meta) {
				is.b.Link(id, meta)
			}
		}
	}

	// Parents are linked once every layer exists, so that a parent listed
	// after its child is not mistaken for a missing one.
	for _, layerID := range layers {
		parent, ok := parents[layerID]
		if !ok {
			continue
		}
		is.b.Link(graph.ID(graph.KindImageLayer, layerID), is.b.Resolve(graph.ID(graph.KindImageLayer, parent)))
	}
	return nil
}

func (is *imageScan) scanContent(ctx context.Context) error {
	entries, err := readDir(is.fs, imageContentDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() {
			continue
		}

		imageID := e.Name()
		file := path.Join(imageContentDir, imageID)
		id := is.b.Add(graph.KindImageContent, imageID,
			[]string{file, path.Join(imageMetadataDir, imageID)}, nil)

		data, _, err := readTrimmed(is.fs, file)
		if err != nil {
			is.warn(ctx, "image", file, err)
			continue
		}
		var cfg imageConfig
		if err := json.Unmarshal([]byte(data), &cfg); err != nil {
			is.warn(ctx, "image", file, err)
			continue
		}

		for i, chainID := range ChainIDs(cfg.RootFS.DiffIDs) {
			is.b.Link(id, is.b.Resolve(is.layerFor(chainID, cfg.RootFS.DiffIDs[i])))
		}
	}
	return nil
}

// layerFor returns the ImageLayer identifier for the n-th layer of an image:
// the layer stored under its chain id, otherwise the single layer carrying
// the diff id. When neither resolves, the chain id identifier is returned so
// the caller links a placeholder.
func (is *imageScan) layerFor(chainID, diffID string) string {
	byChain := graph.ID(graph.KindImageLayer, trimDigest(chainID))
	if is.b.Has(byChain) {
		return byChain
	}
	if candidates := is.layersByDiff[trimDigest(diffID)]; len(candidates) == 1 {
		return graph.ID(graph.KindImageLayer, candidates[0])
	}
	return byChain
}

func (is *imageScan) scanRepositories(ctx context.Context) error {
	data, ok, err := readTrimmed(is.fs, repositoriesFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", repositoriesFile, err)
	}
	if !ok {
		return nil
	}

	var repos repositories
	if err := json.Unmarshal([]byte(data), &repos); err != nil {
		is.warn(ctx, "image", repositoriesFile, err)
		return nil
	}

	for _, repo := range sortedKeys(repos.Repositories) {
		tags := repos.Repositories[repo]
		for _, tag := range sortedKeys(tags) {
			digest := tags[tag]
			name := RepoName(repo, tag)

			content := graph.ID(graph.KindImageContent, trimDigest(digest))
			if !is.b.Has(content) {
				logger.DebugCtx(ctx, "repository points at unknown image",
					logger.NodeID(graph.ID(graph.KindImageRepo, name)), logger.Digest(digest))
				continue
			}

			id := is.b.Add(graph.KindImageRepo, name, nil, map[string]string{graph.AttrDigest: digest})
			is.b.Link(id, content)
		}
	}
	return nil
}

// RepoName returns the display name of a repositories.json entry. The engine
// stores tag keys that already carry the repository ("nginx:latest",
// "nginx@sha256:..."); bare tags are qualified with the repository.
func RepoName(repo, tag string) string {
	if strings.HasPrefix(tag, repo+":") || strings.HasPrefix(tag, repo+"@") {
		return tag
	}
	return repo + ":" + tag
}

// ChainIDs computes the layer chain ids of an ordered diff id list:
// chain(0) = diff(0), chain(n) = sha256(chain(n-1) + " " + diff(n)).
func ChainIDs(diffIDs []string) []string {
	chain := make([]string, 0, len(diffIDs))
	for i, d := range diffIDs {
		if i == 0 {
			chain = append(chain, d)
			continue
		}
		sum := sha256.Sum256([]byte(chain[i-1] + " " + d))
		chain = append(chain, digestPrefix+hex.EncodeToString(sum[:]))
	}
	return chain
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
