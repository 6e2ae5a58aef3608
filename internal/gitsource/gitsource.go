// Package gitsource keeps a local checkout of a git-hosted deck repository.
package gitsource

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
)

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does. Progress output goes to progress,
// which may be nil.
func Sync(url, localPath string, progress io.Writer, log *slog.Logger) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		log.Info("cloning deck repository", "url", url, "path", localPath)
		_, err := git.PlainClone(localPath, false, &git.CloneOptions{
			URL:      url,
			Progress: progress,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
	case err == nil:
		log.Info("pulling deck repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.Pull(&git.PullOptions{
			RemoteName: "origin",
			Progress:   progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}
