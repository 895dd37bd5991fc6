// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package vcsbridge

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ataraxy-labs/sem/pkg/entity"
)

// emptyTreeSHA is git's well-known hash of an empty tree, used as the
// "before" side when a commit has no parent.
const emptyTreeSHA = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// GitBridge implements Bridge by shelling out to the git CLI, in the style
// of the teacher's DeltaDetector (pkg/ingestion/delta.go): every operation
// is a single git subprocess, output parsed with bufio.Scanner.
type GitBridge struct {
	repoPath string
}

func NewGitBridge(repoPath string) *GitBridge {
	return &GitBridge{repoPath: repoPath}
}

func (b *GitBridge) IsRepo() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = b.repoPath
	return cmd.Run() == nil
}

func (b *GitBridge) RepoRoot() (string, error) {
	return b.runGit(context.Background(), "rev-parse", "--show-toplevel")
}

func (b *GitBridge) CurrentBranch() (string, error) {
	return b.runGit(context.Background(), "rev-parse", "--abbrev-ref", "HEAD")
}

func (b *GitBridge) HeadSha() (string, error) {
	return b.runGit(context.Background(), "rev-parse", "HEAD")
}

// DetectScope picks the narrowest scope that has something to show:
// uncommitted worktree changes first, then staged-but-uncommitted changes,
// falling back to the last commit against its parent.
func (b *GitBridge) DetectScope(ctx context.Context) (DiffScope, error) {
	working, err := b.runGit(ctx, "diff", "--name-only")
	if err != nil {
		return DiffScope{}, err
	}
	untracked, err := b.untrackedFiles(ctx)
	if err != nil {
		return DiffScope{}, err
	}
	if working != "" || len(untracked) > 0 {
		return DiffScope{Type: Working}, nil
	}

	staged, err := b.runGit(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return DiffScope{}, err
	}
	if staged != "" {
		return DiffScope{Type: Staged}, nil
	}

	sha, err := b.HeadSha()
	if err != nil {
		return DiffScope{}, err
	}
	return DiffScope{Type: Commit, Sha: sha}, nil
}

// GetChangedFiles resolves scope to a name-status list, filters out
// .sem/-rooted paths, then fetches before/after content for every
// surviving entry as an unordered parallel batch (spec §5's "issue all
// per-file content fetches as an unordered parallel batch" guidance).
func (b *GitBridge) GetChangedFiles(ctx context.Context, scope DiffScope) ([]entity.FileChange, error) {
	entries, err := b.nameStatus(ctx, scope)
	if err != nil {
		return nil, err
	}

	changes := make([]entity.FileChange, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.path, semDir) || strings.HasPrefix(e.oldPath, semDir) {
			continue
		}
		changes = append(changes, entity.FileChange{
			FilePath:    e.path,
			Status:      e.status,
			OldFilePath: e.oldPath,
		})
	}

	if err := b.fetchContents(ctx, scope, changes); err != nil {
		return nil, err
	}

	return changes, nil
}

type nameStatusEntry struct {
	status  entity.FileStatus
	path    string
	oldPath string
}

func (b *GitBridge) nameStatus(ctx context.Context, scope DiffScope) ([]nameStatusEntry, error) {
	switch scope.Type {
	case Working:
		tracked, err := b.diffNameStatus(ctx, "HEAD")
		if err != nil {
			return nil, err
		}
		untracked, err := b.untrackedFiles(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range untracked {
			tracked = append(tracked, nameStatusEntry{status: entity.FileAdded, path: p})
		}
		return tracked, nil

	case Staged:
		return b.diffNameStatus(ctx, "--cached", "HEAD")

	case Commit:
		parent, err := b.runGit(ctx, "rev-parse", scope.Sha+"^")
		if err != nil {
			parent = emptyTreeSHA
		}
		return b.diffNameStatus(ctx, parent, scope.Sha)

	case Range:
		return b.diffNameStatus(ctx, scope.From, scope.To)

	default:
		return nil, fmt.Errorf("vcsbridge: unknown scope type %q", scope.Type)
	}
}

func (b *GitBridge) diffNameStatus(ctx context.Context, args ...string) ([]nameStatusEntry, error) {
	full := append([]string{"diff", "--name-status", "-M"}, args...)
	out, err := b.runGit(ctx, full...)
	if err != nil {
		return nil, err
	}
	return parseNameStatus(out), nil
}

func parseNameStatus(output string) []nameStatusEntry {
	var entries []nameStatusEntry
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		switch parts[0][0] {
		case 'A':
			entries = append(entries, nameStatusEntry{status: entity.FileAdded, path: parts[1]})
		case 'M':
			entries = append(entries, nameStatusEntry{status: entity.FileModified, path: parts[1]})
		case 'D':
			entries = append(entries, nameStatusEntry{status: entity.FileDeleted, path: parts[1]})
		case 'R':
			if len(parts) >= 3 {
				entries = append(entries, nameStatusEntry{status: entity.FileRenamed, oldPath: parts[1], path: parts[2]})
			}
		case 'C':
			if len(parts) >= 3 {
				entries = append(entries, nameStatusEntry{status: entity.FileAdded, path: parts[2]})
			}
		}
	}
	return entries
}

func (b *GitBridge) untrackedFiles(ctx context.Context) ([]string, error) {
	out, err := b.runGit(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// fetchContents resolves the two refs scope compares and fills every
// change's Before/AfterContent concurrently, bounded to GOMAXPROCS
// in-flight git subprocesses.
func (b *GitBridge) fetchContents(ctx context.Context, scope DiffScope, changes []entity.FileChange) error {
	beforeRef, afterRef, useWorktree, err := resolveContentRefs(ctx, b, scope)
	if err != nil {
		return err
	}

	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	var wg sync.WaitGroup
	for i := range changes {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			b.fillContent(ctx, beforeRef, afterRef, useWorktree, &changes[i])
		}(i)
	}
	wg.Wait()
	return nil
}

func resolveContentRefs(ctx context.Context, b *GitBridge, scope DiffScope) (beforeRef, afterRef string, useWorktree bool, err error) {
	switch scope.Type {
	case Working:
		return "HEAD", "", true, nil
	case Staged:
		return "HEAD", "INDEX", false, nil
	case Commit:
		parent, perr := b.runGit(ctx, "rev-parse", scope.Sha+"^")
		if perr != nil {
			parent = emptyTreeSHA
		}
		return parent, scope.Sha, false, nil
	case Range:
		return scope.From, scope.To, false, nil
	default:
		return "", "", false, fmt.Errorf("vcsbridge: unknown scope type %q", scope.Type)
	}
}

func (b *GitBridge) fillContent(ctx context.Context, beforeRef, afterRef string, useWorktree bool, fc *entity.FileChange) {
	oldPath := fc.FilePath
	if fc.Status == entity.FileRenamed && fc.OldFilePath != "" {
		oldPath = fc.OldFilePath
	}

	if fc.Status != entity.FileAdded {
		fc.BeforeContent = b.showBlob(ctx, beforeRef, oldPath)
	}
	if fc.Status != entity.FileDeleted {
		if useWorktree {
			fc.AfterContent = b.readWorktreeFile(fc.FilePath)
		} else {
			fc.AfterContent = b.showBlob(ctx, afterRef, fc.FilePath)
		}
	}
}

// showBlob returns path's content at ref, or nil if it doesn't exist
// there (added/deleted boundary) -- never an error, since a missing blob
// on one side of a diff is expected, not exceptional.
func (b *GitBridge) showBlob(ctx context.Context, ref, path string) []byte {
	spec := ref + ":" + path
	if ref == "INDEX" {
		spec = ":" + path
	}
	cmd := exec.CommandContext(ctx, "git", "show", spec) //nolint:gosec // G204: ref/path come from git's own diff output
	cmd.Dir = b.repoPath
	out, err := cmd.Output()
	if err != nil {
		return nil
	}
	return out
}

func (b *GitBridge) readWorktreeFile(path string) []byte {
	data, err := os.ReadFile(filepath.Join(b.repoPath, path)) //nolint:gosec // G304: path comes from git's own worktree status
	if err != nil {
		return nil
	}
	return data
}

// CommitsTouching lists up to depth commit shas, newest first, whose tree
// changed filePath (git log -- <path>), grounding pkg/store's blame/history.
func (b *GitBridge) CommitsTouching(ctx context.Context, filePath string, depth int) ([]string, error) {
	args := []string{"log", "--format=%H"}
	if depth > 0 {
		args = append(args, fmt.Sprintf("-n%d", depth))
	}
	args = append(args, "--", filePath)

	out, err := b.runGit(ctx, args...)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// ShowFile returns filePath's content at sha, or nil if it doesn't exist
// there.
func (b *GitBridge) ShowFile(ctx context.Context, sha, filePath string) []byte {
	return b.showBlob(ctx, sha, filePath)
}

func (b *GitBridge) runGit(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = b.repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
