// Package indexer invokes the external indexing engine. The engine is
// treated as an opaque executable with a file-in/directory-out
// contract: it consumes a documents JSON file and emits a query module
// plus a binary payload into an output directory.
package indexer

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

var _ driven.IndexerRunner = (*Runner)(nil)

// binaryBaseName is the executable name the engine's release archives
// carry, before the OS-specific suffix.
const binaryBaseName = "gitseek-indexer"

// Runner resolves, caches and executes the platform binary of the
// indexing engine. The binary is downloaded on first use into binDir
// and reused afterwards.
type Runner struct {
	// releaseURL is the archive location, with {os} and {arch}
	// placeholders substituted by runtime.GOOS / runtime.GOARCH. A
	// plain local path pointing at an existing executable is used as
	// is, skipping download.
	releaseURL string
	binDir     string
	httpc      *http.Client
}

// NewRunner creates a runner downloading into binDir when needed.
func NewRunner(releaseURL, binDir string) *Runner {
	return &Runner{
		releaseURL: releaseURL,
		binDir:     binDir,
		httpc:      &http.Client{Timeout: 5 * time.Minute},
	}
}

// Run executes the engine for one branch's document file.
func (r *Runner) Run(ctx context.Context, documentsPath, outputDir string) (*driven.ArtifactPaths, error) {
	bin, err := r.ensureBinary(ctx)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, bin, documentsPath, outputDir)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("Running indexer: %s %s %s", bin, documentsPath, outputDir)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, domain.CancelledOr(ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("indexer: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("indexer: %w", err)
	}

	paths := &driven.ArtifactPaths{
		ModulePath:  filepath.Join(outputDir, domain.QueryModuleName),
		PayloadPath: filepath.Join(outputDir, domain.PayloadName),
	}
	if _, err := os.Stat(paths.ModulePath); err != nil {
		return nil, fmt.Errorf("indexer produced no query module: %w", err)
	}
	if _, err := os.Stat(paths.PayloadPath); err != nil {
		return nil, fmt.Errorf("indexer produced no payload: %w", err)
	}

	if err := PatchQueryModule(paths.ModulePath); err != nil {
		return nil, fmt.Errorf("patch query module: %w", err)
	}
	return paths, nil
}

// ensureBinary returns the path of a ready-to-run engine binary,
// downloading and extracting the platform release archive on first use.
func (r *Runner) ensureBinary(ctx context.Context) (string, error) {
	// A configured local executable wins over any download.
	if info, err := os.Stat(r.releaseURL); err == nil && info.Mode().IsRegular() {
		return r.releaseURL, nil
	}

	bin := filepath.Join(r.binDir, binaryName())
	if _, err := os.Stat(bin); err == nil {
		return bin, nil
	}

	url := strings.NewReplacer(
		"{os}", runtime.GOOS,
		"{arch}", runtime.GOARCH,
	).Replace(r.releaseURL)

	logger.Info("Downloading indexer from %s", url)
	if err := os.MkdirAll(r.binDir, 0o755); err != nil {
		return "", fmt.Errorf("create bin dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("request indexer archive: %w", err)
	}
	resp, err := r.httpc.Do(req)
	if err != nil {
		return "", domain.CancelledOr(fmt.Errorf("download indexer: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download indexer: unexpected status %d", resp.StatusCode)
	}

	switch {
	case strings.HasSuffix(url, ".zip"):
		err = extractZip(resp.Body, r.binDir)
	case strings.HasSuffix(url, ".tar.gz") || strings.HasSuffix(url, ".tgz"):
		err = extractTarGz(resp.Body, r.binDir)
	default:
		err = writeBinary(resp.Body, bin)
	}
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(bin); err != nil {
		return "", fmt.Errorf("indexer archive held no %s: %w", binaryName(), err)
	}
	return bin, nil
}

// binaryName is the platform executable name inside a release archive.
func binaryName() string {
	if runtime.GOOS == "windows" {
		return binaryBaseName + ".exe"
	}
	return binaryBaseName
}

func writeBinary(src io.Reader, dest string) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(dest)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}

// extractTarGz unpacks only regular files, flattening any archive-side
// directory structure into destDir.
func extractTarGz(src io.Reader, destDir string) error {
	gz, err := gzip.NewReader(src)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		dest := filepath.Join(destDir, filepath.Base(hdr.Name))
		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode)&0o777)
		if err != nil {
			return fmt.Errorf("create %s: %w", dest, err)
		}
		if _, err := io.Copy(f, tr); err != nil {
			f.Close()
			return fmt.Errorf("extract %s: %w", dest, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
}

func extractZip(src io.Reader, destDir string) error {
	// zip needs random access, so the archive is buffered first.
	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return fmt.Errorf("extract %s: %w", zf.Name, err)
		}
		dest := filepath.Join(destDir, filepath.Base(zf.Name))
		err = writeFileMode(rc, dest, zf.Mode()&0o777)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func writeFileMode(src io.Reader, dest string, mode os.FileMode) error {
	f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return f.Close()
}
