package scan

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, fsys afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(path.Dir(name), 0o755))
	require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
}

func mkdir(t *testing.T, fsys afero.Fs, name string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(name, 0o755))
}

func hexOf(c byte) string {
	return strings.Repeat(string(c), 64)
}

// overlayLayer writes overlay2/<id> with an optional link and lower file.
func overlayLayer(t *testing.T, fsys afero.Fs, id, link, lower string) {
	t.Helper()
	dir := path.Join(overlayDir, id)
	mkdir(t, fsys, path.Join(dir, "diff"))
	if link != "" {
		write(t, fsys, path.Join(dir, "link"), link+"\n")
		mkdir(t, fsys, path.Join(overlayDir, overlayLinkDir))
	}
	if lower != "" {
		write(t, fsys, path.Join(dir, "lower"), lower)
	}
}

// engineFixture lays out a small but complete storage root:
//
//	overlay2: L1 (orphan), L2 on L3, L3, INIT on L3, RW on INIT and L3
//	image I1 with two layers: chain0 (cache L3) and chain1 (cache L2)
//	repository myrepo:latest -> I1, ghost:1 -> unknown image
//	container C1 on I1 with mount C1 (init INIT, rw RW)
//	container C2 with a corrupt config
type engineFixture struct {
	fs      afero.Fs
	diffs   []string
	chain   []string
	imageID string
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	fsys := afero.NewMemMapFs()
	f := &engineFixture{
		fs:      fsys,
		diffs:   []string{"sha256:" + hexOf('a'), "sha256:" + hexOf('b')},
		imageID: hexOf('1'),
	}
	f.chain = ChainIDs(f.diffs)

	overlayLayer(t, fsys, "L1", "AAA", "")
	overlayLayer(t, fsys, "L2", "BBB", "l/CCC")
	overlayLayer(t, fsys, "L3", "CCC", "")
	overlayLayer(t, fsys, "INIT", "DDD", "l/CCC")
	overlayLayer(t, fsys, "RW", "EEE", "l/DDD:l/CCC")

	write(t, fsys, path.Join(v2MetadataDir, hexOf('a')),
		`[{"Digest":"sha256:`+hexOf('d')+`","SourceRepository":"docker.io/library/myrepo","HMAC":""},`+
			`{"Digest":"sha256:`+hexOf('e')+`","SourceRepository":"registry.local/myrepo","HMAC":"x"}]`)
	write(t, fsys, path.Join(v2MetadataDir, hexOf('c')), `{broken`)

	l0 := path.Join(layerDBDir, trimDigest(f.chain[0]))
	write(t, fsys, path.Join(l0, "cache-id"), "L3")
	write(t, fsys, path.Join(l0, "diff"), f.diffs[0])
	l1 := path.Join(layerDBDir, trimDigest(f.chain[1]))
	write(t, fsys, path.Join(l1, "cache-id"), "L2")
	write(t, fsys, path.Join(l1, "diff"), f.diffs[1])
	write(t, fsys, path.Join(l1, "parent"), f.chain[0])

	write(t, fsys, path.Join(imageContentDir, f.imageID),
		`{"architecture":"amd64","rootfs":{"type":"layers","diff_ids":["`+f.diffs[0]+`","`+f.diffs[1]+`"]}}`)
	mkdir(t, fsys, path.Join(imageMetadataDir, f.imageID))

	write(t, fsys, repositoriesFile, `{"Repositories":{`+
		`"myrepo":{"myrepo:latest":"sha256:`+f.imageID+`"},`+
		`"ghost":{"ghost:1":"sha256:`+hexOf('9')+`"}}}`)

	m := path.Join(mountsDir, "C1")
	write(t, fsys, path.Join(m, "init-id"), "INIT\n")
	write(t, fsys, path.Join(m, "mount-id"), "RW\n")
	write(t, fsys, path.Join(m, "parent"), f.chain[1])

	write(t, fsys, path.Join(containersDir, "C1", containerConfig),
		`{"ID":"C1","Name":"/web","Image":"sha256:`+f.imageID+`"}`)
	write(t, fsys, path.Join(containersDir, "C2", containerConfig), `{not json`)

	return f
}

func (f *engineFixture) layer(n int) string {
	return "ImageLayer:" + trimDigest(f.chain[n])
}

// failingFs fails Open for the listed paths.
type failingFs struct {
	afero.Fs
	fail map[string]bool
}

func (f *failingFs) Open(name string) (afero.File, error) {
	if f.fail[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: errors.New("input/output error")}
	}
	return f.Fs.Open(name)
}

func chainOf(prev, diff string) string {
	sum := sha256.Sum256([]byte(prev + " " + diff))
	return "sha256:" + hex.EncodeToString(sum[:])
}
