package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type outputKey struct{}

// WithOutput returns a new context.Context directing command output to w.
// Commands write to os.Stdout when no output is set.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// stdinSource is the special source name for reading from stdin.
const stdinSource = "-"

// Source is a named script input.
type Source struct {
	io.Reader

	Name string
}

// Close closes the underlying file unless it is stdin.
func (s Source) Close() error {
	if c, ok := s.Reader.(io.Closer); ok && s.Reader != os.Stdin {
		return c.Close()
	}

	return nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// openSources opens each path once, in order. Paths naming the same file
// through symlinks or relative and absolute forms are opened only for their
// first occurrence. Any number of "-" collapse into a single stdin source
// placed last.
//
// A path that cannot be opened fails the whole call; sources opened so far
// are closed.
func openSources(paths []string) (srcs []Source, err error) {
	defer func() {
		if err != nil {
			closeSources(srcs)
			srcs = nil
		}
	}()

	seen := make(map[fileKey]struct{})

	var stdinKey fileKey

	if info, err := os.Stdin.Stat(); err == nil {
		stdinKey, _ = makeFileKey(info)
	}

	hasStdin := false

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		resolved, key, err := identify(path)
		if err != nil {
			return srcs, ErrOpenSource.Wrap(err).With(slog.String("path", path))
		}

		if key != (fileKey{}) {
			if key == stdinKey {
				hasStdin = true

				continue
			}

			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		file, err := os.Open(resolved)
		if err != nil {
			return srcs, ErrOpenSource.Wrap(err).With(slog.String("path", path))
		}

		srcs = append(srcs, Source{Reader: file, Name: path})
	}

	if hasStdin {
		srcs = append(srcs, Source{Reader: os.Stdin, Name: "stdin"})
	}

	return srcs, nil
}

func closeSources(srcs []Source) {
	for _, s := range srcs {
		_ = s.Close()
	}
}

// identify resolves path to its symlink target and the device/inode pair of
// that file.
func identify(path string) (string, fileKey, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fileKey{}, err
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fileKey{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fileKey{}, err
	}

	key, _ := makeFileKey(info)

	return resolved, key, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert // Dev is int32 on darwin
}
