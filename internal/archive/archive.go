// Package archive extracts the zip and tar archives the raw sources arrive
// in. Every archive is verified before its contents are used: a corrupt
// archive fails immediately and nothing partially extracted is consumed.
package archive

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/logger"
)

const stageName = "archive"

// ExtractZip extracts zipPath into extractDir and returns the extracted file
// paths sorted by archive order. Entry CRCs are validated by the zip reader
// while copying; any failure aborts the extraction.
func ExtractZip(zipPath, extractDir string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("corrupt or unreadable zip archive %s", zipPath), err, false)
	}
	defer r.Close()

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create extract dir %s", extractDir), err, false)
	}

	var extracted []string
	for _, f := range r.File {
		target, err := safeJoin(extractDir, f.Name)
		if err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, exception.NewPipelineError(stageName,
					fmt.Sprintf("failed to create directory %s", target), err, false)
			}
			continue
		}
		if err := extractZipEntry(f, target); err != nil {
			return nil, err
		}
		extracted = append(extracted, target)
	}
	logger.Infof("Extracted %d entries from %s", len(extracted), zipPath)
	return extracted, nil
}

func extractZipEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create directory for %s", target), err, false)
	}
	rc, err := f.Open()
	if err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to open zip entry %s", f.Name), err, false)
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create %s", target), err, false)
	}
	defer out.Close()

	// io.Copy reads the entry to EOF, which is where the zip reader checks
	// the entry CRC; a corrupt entry surfaces here.
	if _, err := io.Copy(out, rc); err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("corrupt zip entry %s", f.Name), err, false)
	}
	return nil
}

// ExtractTar extracts tarPath into extractDir and returns the extracted file
// paths. The archive is read to EOF; a short or corrupt archive aborts.
func ExtractTar(tarPath, extractDir string) ([]string, error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to open tar archive %s", tarPath), err, false)
	}
	defer f.Close()

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create extract dir %s", extractDir), err, false)
	}

	tr := tar.NewReader(f)
	var extracted []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, exception.NewPipelineError(stageName,
				fmt.Sprintf("corrupt tar archive %s", tarPath), err, false)
		}
		target, err := safeJoin(extractDir, hdr.Name)
		if err != nil {
			return nil, err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, exception.NewPipelineError(stageName,
					fmt.Sprintf("failed to create directory %s", target), err, false)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return nil, exception.NewPipelineError(stageName,
					fmt.Sprintf("failed to create directory for %s", target), err, false)
			}
			out, err := os.Create(target)
			if err != nil {
				return nil, exception.NewPipelineError(stageName,
					fmt.Sprintf("failed to create %s", target), err, false)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return nil, exception.NewPipelineError(stageName,
					fmt.Sprintf("corrupt tar entry %s", hdr.Name), err, false)
			}
			if err := out.Close(); err != nil {
				return nil, exception.NewPipelineError(stageName,
					fmt.Sprintf("failed to close %s", target), err, false)
			}
			extracted = append(extracted, target)
		default:
			// Symlinks and special files are not expected in data archives.
			logger.Warnf("Skipping unsupported tar entry type %d: %s", hdr.Typeflag, hdr.Name)
		}
	}
	logger.Infof("Extracted %d entries from %s", len(extracted), tarPath)
	return extracted, nil
}

// FindByExtension returns the files under dir (recursively) with the given
// extension, sorted lexically.
func FindByExtension(dir, ext string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ext) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to walk %s", dir), err, false)
	}
	sort.Strings(found)
	return found, nil
}

// safeJoin joins base and name, rejecting entries that would escape base.
func safeJoin(base, name string) (string, error) {
	target := filepath.Join(base, filepath.Clean("/"+name))
	if !strings.HasPrefix(target, filepath.Clean(base)+string(os.PathSeparator)) {
		return "", exception.NewPipelineError(stageName,
			fmt.Sprintf("archive entry escapes extraction directory: %s", name), nil, false)
	}
	return target, nil
}
