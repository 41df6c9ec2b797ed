// Package gitinfo stamps generation runs with the source revision they were
// produced from.
package gitinfo

import (
	"github.com/go-git/go-git/v5"
)

// Revision describes the repository state a run was generated from.
type Revision struct {
	Hash   string `json:"hash"`
	Short  string `json:"short"`
	Branch string `json:"branch,omitempty"`
	Dirty  bool   `json:"dirty,omitempty"`
}

// Describe resolves HEAD of the repository containing dir. A missing or
// broken repository is not an error; documentation can be generated from an
// export, so the caller gets a zero Revision and decides what to log.
func Describe(dir string) (Revision, bool) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return Revision{}, false
	}

	head, err := repo.Head()
	if err != nil {
		return Revision{}, false
	}

	rev := Revision{Hash: head.Hash().String()}
	if len(rev.Hash) >= 7 {
		rev.Short = rev.Hash[:7]
	}
	if head.Name().IsBranch() {
		rev.Branch = head.Name().Short()
	}

	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			rev.Dirty = !status.IsClean()
		}
	}
	return rev, true
}
