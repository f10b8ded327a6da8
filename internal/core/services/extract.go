package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/ports/driven"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

// binaryProbeSize is how many leading bytes are sampled for NUL bytes
// when deciding whether a file is binary.
const binaryProbeSize = 8000

// ExtractResult summarises one branch's document extraction.
type ExtractResult struct {
	// DocumentCount is the number of documents written.
	DocumentCount int

	// Skipped counts files excluded outright (stat failures,
	// non-regular files).
	Skipped int

	// PathOnly counts documents that degraded to a path-only body.
	PathOnly int
}

// Extractor walks a branch snapshot's tracked files and emits one JSON
// document per file, streamed incrementally so memory stays bounded to
// one file at a time.
type Extractor struct {
	settings domain.Settings
}

// NewExtractor creates an extractor with the given settings.
func NewExtractor(settings domain.Settings) *Extractor {
	settings.ApplyDefaults()
	return &Extractor{settings: settings}
}

// ExtractToFile streams the branch's documents to a JSON file at outPath.
func (e *Extractor) ExtractToFile(
	ctx context.Context, snap *driven.BranchSnapshot, outPath string,
) (*ExtractResult, error) {
	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create documents file: %w", err)
	}
	defer f.Close()

	res, err := e.Extract(ctx, snap, f)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close documents file: %w", err)
	}
	return res, nil
}

// Extract writes the branch's documents to w as a JSON array. The
// output is a syntactically valid array even when zero documents are
// produced. Individual file failures degrade to path-only documents;
// they never abort the extraction.
func (e *Extractor) Extract(
	ctx context.Context, snap *driven.BranchSnapshot, w io.Writer,
) (*ExtractResult, error) {
	logger.Section("Document Extraction")
	logger.Debug("Branch: %s, tracked files: %d", snap.Branch, len(snap.Files))

	res := &ExtractResult{}
	enc := json.NewEncoder(w)

	if _, err := io.WriteString(w, "[\n"); err != nil {
		return nil, fmt.Errorf("write documents: %w", err)
	}

	first := true
	for _, file := range snap.Files {
		select {
		case <-ctx.Done():
			return nil, domain.CancelledOr(ctx.Err())
		default:
		}

		doc, ok := e.extractOne(snap, file, res)
		if !ok {
			continue
		}

		if !first {
			if _, err := io.WriteString(w, ",\n"); err != nil {
				return nil, fmt.Errorf("write documents: %w", err)
			}
		}
		first = false

		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode document %s: %w", file, err)
		}
		res.DocumentCount++
	}

	if _, err := io.WriteString(w, "]\n"); err != nil {
		return nil, fmt.Errorf("write documents: %w", err)
	}

	logger.Info("Extracted %d documents (%d skipped, %d path-only)",
		res.DocumentCount, res.Skipped, res.PathOnly)
	return res, nil
}

// extractOne builds the document for a single tracked file. Returns
// false when the file must be skipped entirely.
func (e *Extractor) extractOne(
	snap *driven.BranchSnapshot, file string, res *ExtractResult,
) (*domain.Document, bool) {
	rel := filepath.ToSlash(file)
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(rel), "."))

	abs := filepath.Join(snap.Root, filepath.FromSlash(rel))
	info, err := os.Lstat(abs)
	if err != nil {
		logger.Debug("Skip %s: stat failed: %v", rel, err)
		res.Skipped++
		return nil, false
	}
	if !info.Mode().IsRegular() {
		logger.Debug("Skip %s: not a regular file", rel)
		res.Skipped++
		return nil, false
	}

	doc := &domain.Document{
		Title:     path.Base(rel),
		Category:  ext,
		Href:      e.hrefFor(snap.Branch, rel),
		Path:      rel,
		Branch:    snap.Branch,
		Extension: ext,
		Body:      rel,
	}

	if !e.settings.ContentAllowed(ext) || info.Size() > e.settings.SizeCeiling {
		return doc, true
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		// Read errors degrade to path-only indexing.
		logger.Debug("Path-only %s: read failed: %v", rel, err)
		res.PathOnly++
		return doc, true
	}

	probe := content
	if len(probe) > binaryProbeSize {
		probe = probe[:binaryProbeSize]
	}
	if bytes.IndexByte(probe, 0) >= 0 {
		logger.Debug("Path-only %s: binary content detected", rel)
		res.PathOnly++
		return doc, true
	}

	doc.Body = rel + "\n" + string(content)
	return doc, true
}

// hrefFor derives a browse URL for a file when owner/repo are known.
func (e *Extractor) hrefFor(branch, rel string) string {
	if e.settings.Owner == "" || e.settings.Repo == "" {
		return ""
	}
	return fmt.Sprintf("https://github.com/%s/%s/blob/%s/%s",
		e.settings.Owner, e.settings.Repo, branch, rel)
}
