// Package archive packages a project directory into an uncompressed tarball.
package archive

import (
	"archive/tar"
	"context"
	"crypto/md5" //nolint:gosec // G501: Content-MD5 is what the upload endpoint verifies
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nathantilsley/plt-deploy-action/internal/deploy/domain"
)

const archiveName = "project.tar"

// epoch is stamped on every entry so identical trees hash identically.
var epoch = time.Unix(0, 0)

// Adapter implements ports.ArchiverPort by writing a tarball of the project
// into a private temp directory.
type Adapter struct{}

// New creates a new archive adapter.
func New() *Adapter {
	return &Adapter{}
}

// Archive snapshots projectDir into a tarball and computes its checksum.
// Entries in overlay (slash separated paths relative to projectDir) replace
// or add files in the archive without touching the project on disk.
// The caller must invoke cleanup() when done to remove the temp files.
func (a *Adapter) Archive(
	ctx context.Context,
	projectDir string,
	overlay map[string][]byte,
) (*domain.Archive, func(), error) {
	// WalkDir does not descend into a symlinked root
	root, err := filepath.EvalSymlinks(projectDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving project dir: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "plt-deploy-*")
	if err != nil {
		return nil, nil, fmt.Errorf("creating temp dir: %w", err)
	}
	//nolint:errcheck // Cleanup function, error not actionable
	cleanup := func() { _ = os.RemoveAll(tmpDir) }

	path := filepath.Join(tmpDir, archiveName)
	checksum, err := writeArchive(ctx, path, root, normalizeOverlay(overlay))
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("stat archive: %w", err)
	}

	return &domain.Archive{
		Path:     path,
		Checksum: checksum,
		Size:     info.Size(),
	}, cleanup, nil
}

func writeArchive(ctx context.Context, path, projectDir string, overlay map[string][]byte) (string, error) {
	//nolint:gosec // G304: path is inside our own temp dir
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}
	//nolint:errcheck // Closed explicitly on the success path
	defer f.Close()

	hash := md5.New() //nolint:gosec // G401: see import
	tw := tar.NewWriter(io.MultiWriter(f, hash))

	err = filepath.WalkDir(projectDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(projectDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if _, replaced := overlay[rel]; replaced && !d.IsDir() {
			return nil
		}
		return addEntry(tw, p, rel, d)
	})
	if err != nil {
		return "", fmt.Errorf("archiving project: %w", err)
	}

	if err := addOverlay(tw, overlay); err != nil {
		return "", err
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("finalizing archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing archive: %w", err)
	}

	return base64.StdEncoding.EncodeToString(hash.Sum(nil)), nil
}

func addEntry(tw *tar.Writer, path, rel string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&os.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	} else if !info.Mode().IsRegular() && !info.IsDir() {
		// sockets, devices and pipes have no place in a bundle
		return nil
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	header.Name = "./" + rel
	if info.IsDir() {
		header.Name += "/"
	}
	normalizeHeader(header)

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	//nolint:gosec // G304: walking the project directory
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	//nolint:errcheck // Read-only file
	defer src.Close()

	_, err = io.Copy(tw, src)
	return err
}

func addOverlay(tw *tar.Writer, overlay map[string][]byte) error {
	names := make([]string, 0, len(overlay))
	for name := range overlay {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		content := overlay[name]
		header := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     "./" + name,
			Mode:     0o644,
			Size:     int64(len(content)),
		}
		normalizeHeader(header)
		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		if _, err := tw.Write(content); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}

func normalizeHeader(h *tar.Header) {
	h.ModTime = epoch
	h.AccessTime = time.Time{}
	h.ChangeTime = time.Time{}
	h.Uid, h.Gid = 0, 0
	h.Uname, h.Gname = "", ""
	h.Format = tar.FormatPAX
}

func normalizeOverlay(overlay map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(overlay))
	for name, content := range overlay {
		clean := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(name)), "./")
		out[clean] = content
	}
	return out
}
