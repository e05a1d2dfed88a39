package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Locations inside the storage root. All paths are slash separated and
// relative to the root of the afero.Fs handed to Build.
const (
	overlayDir       = "overlay2"
	overlayLinkDir   = "l"
	imageRoot        = "image/overlay2"
	layerDBDir       = imageRoot + "/layerdb/sha256"
	mountsDir        = imageRoot + "/layerdb/mounts"
	imageContentDir  = imageRoot + "/imagedb/content/sha256"
	imageMetadataDir = imageRoot + "/imagedb/metadata/sha256"
	v2MetadataDir    = imageRoot + "/distribution/v2metadata-by-diffid/sha256"
	diffByDigestDir  = imageRoot + "/distribution/diffid-by-digest/sha256"
	repositoriesFile = imageRoot + "/repositories.json"
	containersDir    = "containers"
	containerConfig  = "config.v2.json"
)

const digestPrefix = "sha256:"

// HostFs returns the filesystem rooted at baseDir on the host. A read-only
// filesystem is returned when readOnly is set, so that any removal attempt
// fails instead of touching the disk.
func HostFs(baseDir string, readOnly bool) (afero.Fs, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("storage root %s: %w", baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", baseDir)
	}

	var base afero.Fs = afero.NewOsFs()
	if readOnly {
		base = afero.NewReadOnlyFs(base)
	}
	return afero.NewBasePathFs(base, baseDir), nil
}

// readTrimmed reads a small text file and trims surrounding whitespace.
// A missing file is reported through ok=false with a nil error.
func readTrimmed(fsys afero.Fs, name string) (value string, ok bool, err error) {
	data, err := afero.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(string(data)), true, nil
}

// readDir lists a directory. A missing directory is an empty listing.
func readDir(fsys afero.Fs, dir string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	return entries, nil
}

// trimDigest strips the algorithm prefix of a content digest.
func trimDigest(d string) string {
	return strings.TrimPrefix(strings.TrimSpace(d), digestPrefix)
}
