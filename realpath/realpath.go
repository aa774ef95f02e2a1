// Copyright 2024 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package realpath resolves a path against a working directory, following
// symlinks, without touching anything outside the filesystem it's given
// (spec §1 lists this as an out-of-scope-for-the-core helper the source
// still ships, included here for completeness).
package realpath

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptyPath is returned when the input path is empty.
var ErrEmptyPath = errors.New("realpath: empty path is not valid")

// MaxSymlinksExceededError is returned once more than MaxSymlinks
// redirections have been followed while resolving a path.
type MaxSymlinksExceededError struct {
	MaxSymlinks uint8
}

func (e *MaxSymlinksExceededError) Error() string {
	return fmt.Sprintf("realpath: the maximum allowed number %d of symlinks in path is exceeded", e.MaxSymlinks)
}

// MissingParentError is returned when a ".." component, or a symlink's
// relative target, would need to rebase on a parent that doesn't exist
// (attempting to go above the filesystem root).
type MissingParentError struct {
	Path string
}

func (e *MissingParentError) Error() string {
	return fmt.Sprintf("realpath: parent component of %s does not exist", e.Path)
}

// Resolve resolves path against cwd (used to anchor relative inputs),
// following at most maxSymlinks symlink redirections, and returns the
// resolved absolute path.
//
// The source resolves components via tail recursion (spec §9); this
// walks the same state machine with an explicit loop and an explicit
// work queue instead, so stack depth never grows with path length or
// symlink chain length. Semantics are preserved exactly: an absolute
// symlink target resets the accumulated path to the filesystem root, a
// relative target rebases on the symlink's own parent, and either way
// the as-yet-unprocessed input components are spliced after the target
// and traversal continues.
func Resolve(path, cwd string, maxSymlinks uint8) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	var real []string
	if !strings.HasPrefix(path, "/") {
		real = splitComponents(cwd)
	}

	queue := splitComponents(path)
	var numSymlinks uint8

	for len(queue) > 0 {
		part := queue[0]
		queue = queue[1:]

		switch part {
		case "/":
			real = []string{"/"}
		case ".":
			// skip

		case "..":
			popped, err := popParent(real)
			if err != nil {
				return "", err
			}
			real = popped

		default:
			real = append(real, part)
			candidate := joinParts(real)
			if isSymlink(candidate) {
				numSymlinks++
				if numSymlinks > maxSymlinks {
					return "", &MaxSymlinksExceededError{MaxSymlinks: maxSymlinks}
				}
				target, err := os.Readlink(candidate)
				if err != nil {
					return "", fmt.Errorf("realpath: reading symlink %s: %w", candidate, err)
				}
				if strings.HasPrefix(target, "/") {
					real = []string{"/"}
				} else {
					popped, err := popParent(real)
					if err != nil {
						return "", err
					}
					real = popped
				}
				queue = append(splitComponents(target), queue...)
			}
		}
	}

	return joinParts(real), nil
}

// popParent drops the last pushed component, erroring if doing so would
// go above an empty or root-only accumulator (there is no parent to
// return to).
func popParent(real []string) ([]string, error) {
	if len(real) == 0 || (len(real) == 1 && real[0] == "/") {
		return nil, &MissingParentError{Path: joinParts(real)}
	}
	return real[:len(real)-1], nil
}

// isSymlink reports whether path names a symlink, treating any stat
// failure (including "does not exist") as "no", matching the source's
// Path::is_symlink() helper: absence is never an error here, only a
// missing parent during ".." is (spec §8 scenario 5).
func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// splitComponents breaks p into path components the way the source's
// std::path::Components iterator would: a leading "/" becomes a single
// root marker component, "." and ".." pass through literally, internal
// empty segments from repeated separators are dropped.
func splitComponents(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts)+1)
	for i, part := range parts {
		if part == "" {
			if i == 0 {
				out = append(out, "/")
			}
			continue
		}
		out = append(out, part)
	}
	return out
}

// joinParts is splitComponents' inverse.
func joinParts(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	if parts[0] == "/" {
		if len(parts) == 1 {
			return "/"
		}
		return "/" + strings.Join(parts[1:], "/")
	}
	return strings.Join(parts, "/")
}
