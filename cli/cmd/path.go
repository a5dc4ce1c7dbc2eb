package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/mung"

	"github.com/ardnew/lunar/pkg"
)

// scriptExt is appended to script names given without an extension.
const scriptExt = ".lua"

// searchPath returns the script search directories: prefix followed by the
// entries of the search path environment variable, keeping only existing
// directories.
func searchPath(prefix ...string) []string {
	list := mung.Make(
		mung.WithSubjectItems(filepath.SplitList(os.Getenv(pkg.SearchPathEnv()))...),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(isDir),
	).String()

	return filepath.SplitList(list)
}

func isDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// resolveScript locates name. A name that exists as given, or that contains
// a path separator, is used as-is. Otherwise each directory in dirs is tried
// in order, first with name and then with name plus ".lua".
func resolveScript(name string, dirs []string) (string, error) {
	if name == stdinSource || isFile(name) || strings.ContainsRune(name, filepath.Separator) {
		return name, nil
	}

	cands := []string{name}
	if filepath.Ext(name) == "" {
		cands = append(cands, name+scriptExt)
	}

	for _, dir := range dirs {
		for _, c := range cands {
			if p := filepath.Join(dir, c); isFile(p) {
				return p, nil
			}
		}
	}

	return "", ErrScriptNotFound.With(
		slog.String("name", name),
		slog.Any("path", dirs),
	)
}
