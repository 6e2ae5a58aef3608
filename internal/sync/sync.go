// Package sync imports decks from a source: a single file, a directory of
// deck files, or a git repository that is cloned or pulled first.
package sync

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/flashdeck/internal/gitsource"
	"github.com/conorfennell/flashdeck/internal/importer"
)

// Importer merges one payload into the collection.
type Importer interface {
	Import(r io.Reader, format importer.Format) (importer.Result, error)
}

// FetchFunc brings a git repository up to date at localPath.
type FetchFunc func(url, localPath string) error

// Runner resolves sources and feeds their deck files to an Importer.
type Runner struct {
	Importer Importer
	ReposDir string
	Fetch    FetchFunc
	Log      *slog.Logger
}

// NewRunner creates a runner that fetches git sources with go-git.
func NewRunner(imp Importer, reposDir string, log *slog.Logger) *Runner {
	return &Runner{
		Importer: imp,
		ReposDir: reposDir,
		Log:      log,
		Fetch: func(url, localPath string) error {
			return gitsource.Sync(url, localPath, nil, log)
		},
	}
}

// Options narrows what is imported from a source.
type Options struct {
	// File is the deck path inside a git source. Defaults to the export file name.
	File string
	// Format overrides detection by file extension.
	Format importer.Format
}

// IsGitSource reports whether source names a git repository rather than a
// local path.
func IsGitSource(source string) bool {
	return strings.HasSuffix(source, ".git") ||
		strings.HasPrefix(source, "git@") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "http://")
}

// Run imports everything source points at and returns the combined result.
// A directory is walked for .json, .yaml, .yml and .md files.
func (r *Runner) Run(source string, opts Options) (importer.Result, error) {
	path := source
	if IsGitSource(source) {
		localRepoPath, err := gitURLToLocalPath(r.ReposDir, source)
		if err != nil {
			return importer.Result{}, err
		}
		if err := os.MkdirAll(filepath.Dir(localRepoPath), os.ModePerm); err != nil {
			return importer.Result{}, fmt.Errorf("failed to create repos directory: %w", err)
		}
		if err := r.Fetch(source, localRepoPath); err != nil {
			return importer.Result{}, err
		}
		file := opts.File
		if file == "" {
			file = importer.ExportFileName
		}
		path = filepath.Join(localRepoPath, filepath.FromSlash(file))
	}

	info, err := os.Stat(path)
	if err != nil {
		return importer.Result{}, fmt.Errorf("failed to open source %s: %w", path, err)
	}
	if !info.IsDir() {
		return r.importFile(path, opts.Format)
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if !d.IsDir() && isDeckFile(d.Name()) {
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil {
		return importer.Result{}, fmt.Errorf("error walking directory %s: %w", path, walkErr)
	}

	var total importer.Result
	for _, f := range files {
		res, err := r.importFile(f, opts.Format)
		if err != nil {
			// One unusable file does not stop the rest of the directory.
			r.Log.Warn("skipping deck file", "path", f, "error", err)
			continue
		}
		total.Incoming += res.Incoming
		total.Accepted += res.Accepted
		total.Dropped += res.Dropped
		total.Total = res.Total
	}

	r.Log.Info("source imported",
		"path", path,
		"files", len(files),
		"accepted", total.Accepted,
		"dropped", total.Dropped,
	)
	return total, nil
}

func (r *Runner) importFile(path string, format importer.Format) (importer.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return importer.Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if format == "" {
		format = importer.FormatFromPath(path)
	}
	res, err := r.Importer.Import(f, format)
	if err != nil {
		return importer.Result{}, fmt.Errorf("importing %s: %w", path, err)
	}
	return res, nil
}

func isDeckFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml", ".md", ".markdown":
		return true
	}
	return false
}

// gitURLToLocalPath picks the checkout directory for repoURL under baseDir.
// URLs whose path would leave baseDir are rejected.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	local, err := repoCheckoutPath(baseDir, repoURL)
	if err != nil {
		return "", err
	}
	base := filepath.Clean(baseDir)
	rel, err := filepath.Rel(base, local)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("git URL %s resolves outside %s", repoURL, base)
	}
	return local, nil
}

func repoCheckoutPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		if strings.HasSuffix(repoURL, ".git") {
			// Local bare or file:// repository.
			name := strings.TrimSuffix(filepath.Base(strings.TrimPrefix(repoURL, "file://")), ".git")
			return filepath.Join(baseDir, "local", name), nil
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
