// Copyright © 2025 The gnls authors

package analysis

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gntools/gnls/parser"
)

// DotGNFileName is the marker file anchoring a workspace root. Any path
// written with the "//" prefix resolves against the directory holding it.
const DotGNFileName = ".gn"

// ArgsGNFileName marks a build output directory; the indexer skips any
// directory tree containing one.
const ArgsGNFileName = "args.gn"

// Workspace is a GN source tree anchored at the directory containing the
// .gn marker file.
type Workspace struct {
	Root string
	// BuildConfig is the absolute path of the BUILDCONFIG.gn file named by
	// the .gn file's buildconfig variable, empty when .gn does not name one.
	BuildConfig string
}

// FindWorkspace locates the workspace containing path by walking up the
// directory tree until a .gn file is found. It returns nil when path is not
// inside a workspace.
func FindWorkspace(path string) *Workspace {
	dir := path
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		dir = filepath.Dir(path)
	}
	for {
		marker := filepath.Join(dir, DotGNFileName)
		if info, err := os.Stat(marker); err == nil && !info.IsDir() {
			ws := &Workspace{Root: dir}
			ws.BuildConfig = ws.readBuildConfig(marker)
			return ws
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// readBuildConfig parses the .gn file and resolves its buildconfig variable.
// The .gn file uses the same syntax as build files, restricted in practice
// to literal assignments, so a literal evaluation suffices.
func (w *Workspace) readBuildConfig(marker string) string {
	content, err := os.ReadFile(marker)
	if err != nil {
		return ""
	}
	scope := evalScopeLiteral(parser.Parse(content, marker))
	v, ok := scope.Lookup("buildconfig")
	if !ok {
		return ""
	}
	raw, ok := v.AsString()
	if !ok {
		return ""
	}
	return w.ResolvePath(raw, w.Root)
}

// Contains reports whether path lies inside the workspace root.
func (w *Workspace) Contains(path string) bool {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}

// ResolvePath resolves a path written in a build file: "//"-prefixed paths
// are workspace-root-relative, everything else resolves against fromDir.
// The result is a cleaned absolute path; no filesystem access happens.
func (w *Workspace) ResolvePath(raw, fromDir string) string {
	if rooted, ok := strings.CutPrefix(raw, "//"); ok {
		return filepath.Join(w.Root, filepath.FromSlash(rooted))
	}
	return filepath.Join(fromDir, filepath.FromSlash(raw))
}

// RootRelative converts an absolute path inside the workspace back to the
// "//" form used in build files.
func (w *Workspace) RootRelative(path string) (string, bool) {
	rel, err := filepath.Rel(w.Root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	if rel == "." {
		return "//", true
	}
	return "//" + filepath.ToSlash(rel), true
}

// Label identifies a target: the directory whose BUILD.gn defines it and
// the target name. Dir is absolute.
type Label struct {
	Dir  string
	Name string
}

func (l Label) String() string {
	return fmt.Sprintf("%s:%s", l.Dir, l.Name)
}

// BuildFile returns the path of the BUILD.gn file expected to define the
// labeled target.
func (l Label) BuildFile() string {
	return filepath.Join(l.Dir, "BUILD.gn")
}

// ParseLabel parses a target label as written in a build file, relative to
// the directory of the referring file. Supported forms:
//
//	//dir:name    absolute directory and explicit name
//	//dir         name implied by the last directory component
//	:name         target in the referring file's own directory
//	dir:name      directory relative to the referring file
//
// Toolchain suffixes in parentheses are stripped.
func (w *Workspace) ParseLabel(raw, fromDir string) (Label, bool) {
	if raw == "" {
		return Label{}, false
	}
	if i := strings.IndexByte(raw, '('); i >= 0 {
		raw = raw[:i]
	}
	dirPart, name, hasName := strings.Cut(raw, ":")
	if hasName && name == "" {
		return Label{}, false
	}

	var dir string
	switch {
	case dirPart == "":
		if !hasName {
			return Label{}, false
		}
		dir = fromDir
	default:
		dir = w.ResolvePath(dirPart, fromDir)
	}
	if !hasName {
		name = filepath.Base(dir)
	}
	if !parserIdent(name) {
		return Label{}, false
	}
	return Label{Dir: dir, Name: name}, true
}

// parserIdent reports whether name is usable as a target name. Target names
// are looser than identifiers (dots, dashes), but must be non-empty and must
// not contain path or expansion syntax.
func parserIdent(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, "/\\$\" ")
}

// IsBuildFile reports whether path is a GN build file by extension and name.
func IsBuildFile(path string) bool {
	base := filepath.Base(path)
	if base == "BUILD.gn" || base == "BUILDCONFIG.gn" {
		return true
	}
	switch filepath.Ext(base) {
	case ".gn", ".gni":
		return base != ArgsGNFileName
	}
	return false
}

// BuildFiles walks the workspace tree and returns every build file, skipping
// dot-directories and any directory containing an args.gn file (a build
// output directory, per the standard GN layout). The walk tolerates
// unreadable subtrees: they are skipped, not fatal.
func (w *Workspace) BuildFiles() []string {
	var files []string
	_ = filepath.WalkDir(w.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != w.Root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(path, ArgsGNFileName)); err == nil {
				return filepath.SkipDir
			}
			return nil
		}
		if IsBuildFile(path) && filepath.Base(path) != DotGNFileName {
			files = append(files, path)
		}
		return nil
	})
	return files
}
