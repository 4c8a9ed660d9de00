package fetcher

import (
	"archive/tar"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	appErr "nodeagent/pkg/errors"

	"github.com/klauspost/compress/zstd"
)

var archiveSuffixes = []string{".tar.zst", ".tzst"}

// IsArchive reports whether name looks like a zstd-compressed tarball.
func IsArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range archiveSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// ExtractArchive unpacks a .tar.zst file into dstDir. Only directories and
// regular files are materialized; entries escaping dstDir are rejected.
func ExtractArchive(srcPath, dstDir string) error {
	file, err := os.Open(srcPath)
	if err != nil {
		return appErr.Wrapf(err, appErr.ArtifactExtractFailed, "open archive failed")
	}
	defer file.Close()

	zstdReader, err := zstd.NewReader(file)
	if err != nil {
		return appErr.Wrapf(err, appErr.ArtifactExtractFailed, "create zstd reader failed")
	}
	defer zstdReader.Close()

	root := filepath.Clean(dstDir) + string(filepath.Separator)
	tr := tar.NewReader(zstdReader)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return appErr.Wrapf(err, appErr.ArtifactExtractFailed, "read tar entry failed")
		}
		if hdr.Name == "" {
			continue
		}
		cleanName := filepath.Clean(hdr.Name)
		if cleanName == "." {
			continue
		}
		if strings.HasPrefix(cleanName, "..") || filepath.IsAbs(cleanName) {
			return appErr.Newf(appErr.ArtifactExtractFailed, "invalid tar entry path '%s'", hdr.Name)
		}
		target := filepath.Join(dstDir, cleanName)
		if !strings.HasPrefix(target, root) {
			return appErr.Newf(appErr.ArtifactExtractFailed, "tar entry '%s' escapes the sandbox", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return appErr.Wrapf(err, appErr.ArtifactExtractFailed, "create dir failed")
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return appErr.Wrapf(err, appErr.ArtifactExtractFailed, "create parent dir failed")
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fs.FileMode(hdr.Mode).Perm())
			if err != nil {
				return appErr.Wrapf(err, appErr.ArtifactExtractFailed, "create file failed")
			}
			if _, err := io.Copy(out, tr); err != nil {
				_ = out.Close()
				return appErr.Wrapf(err, appErr.ArtifactExtractFailed, "write file failed")
			}
			if err := out.Close(); err != nil {
				return appErr.Wrapf(err, appErr.ArtifactExtractFailed, "close file failed")
			}
		default:
			// links and devices are not staged
		}
	}
	return nil
}
