package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nestex/eval"
	"github.com/ardnew/nestex/lang"
	"github.com/ardnew/nestex/log"
	"github.com/ardnew/nestex/props"
)

// DefaultMarker is the marker used when none is given on the command line.
const DefaultMarker = lang.DefaultMarker

// Standard streams used by commands. Tests replace them.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

type markerKey struct{}

// WithMarker returns a new context.Context carrying the marker character s.
// It fails unless s is a single character accepted by [lang.ValidMarker].
func WithMarker(ctx context.Context, s string) (context.Context, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError || !lang.ValidMarker(r) {
		return ctx, ErrInvalidMarker.With(slog.String("marker", s))
	}

	return context.WithValue(ctx, markerKey{}, r), nil
}

// markerFrom returns the marker stored by [WithMarker], or [DefaultMarker].
func markerFrom(ctx context.Context) rune {
	if r, ok := ctx.Value(markerKey{}).(rune); ok {
		return r
	}

	return DefaultMarker
}

type (
	propertyFilesKey struct{}
	sourceFiles      struct {
		read     []io.Reader
		hasStdin bool
	}

	// SourceFiles reads a deduplicated list of input files, with standard
	// input last.
	SourceFiles interface {
		IsZero() bool
		Readers() []io.Reader
		io.Reader
		io.WriterTo
	}
)

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool { return len(s.read) == 0 && !s.hasStdin }

// Readers returns one reader per source in order, standard input last.
func (s *sourceFiles) Readers() []io.Reader {
	readers := s.read
	if s.hasStdin {
		readers = append(readers[:len(readers):len(readers)], stdin)
	}

	return readers
}

// Read implements io.Reader by reading all sources in order.
func (s *sourceFiles) Read(p []byte) (n int, err error) {
	return io.MultiReader(s.Readers()...).Read(p)
}

// WriteTo implements io.WriterTo by writing all sources to w in order.
func (s *sourceFiles) WriteTo(w io.Writer) (n int64, err error) {
	return io.Copy(w, io.MultiReader(s.Readers()...))
}

// fileKey uniquely identifies a file by its device and inode numbers, which
// catches duplicates reached through symlinks or different relative paths.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithPropertyFiles returns a new context.Context containing the property
// files named by paths. See [buildSourceFiles] for how paths are resolved.
func WithPropertyFiles(ctx context.Context, paths []string) context.Context {
	return context.WithValue(ctx, propertyFilesKey{}, buildSourceFiles(paths))
}

func propertyFilesFrom(ctx context.Context) SourceFiles {
	r, _ := ctx.Value(propertyFilesKey{}).(SourceFiles)

	return r
}

// buildSourceFiles opens the files named by sources.
//
// Files are deduplicated by resolving symlinks and comparing device/inode
// pairs. Every "-" refers to a single standard input reader placed last.
// Files that cannot be opened are skipped. It returns nil if nothing could be
// opened.
func buildSourceFiles(sources []string) SourceFiles {
	if len(sources) == 0 {
		return nil
	}

	var srcs sourceFiles

	srcs.read = make([]io.Reader, 0, len(sources))
	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, _ := makeFileKey(stdinInfo)

	for _, src := range sources {
		if src == stdinSource {
			seen[stdinKey] = struct{}{}

			continue
		}

		reader, ok := openUniqueFile(src, seen)
		if !ok {
			continue
		}

		srcs.read = append(srcs.read, reader)
	}

	// Stdin may have been named by "-" or by its device path.
	_, srcs.hasStdin = seen[stdinKey]
	delete(seen, stdinKey)

	if srcs.IsZero() {
		return nil
	}

	return &srcs
}

// openUniqueFile opens the file at path unless a file with the same
// device/inode pair is already in seen.
func openUniqueFile(path string, seen map[fileKey]struct{}) (io.Reader, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return nil, false
	}

	if _, exists := seen[key]; exists {
		return nil, false
	}

	seen[key] = struct{}{}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, false
	}

	return file, true
}

// makeFileKey creates a fileKey from info. It returns false if info is nil
// or its Sys() data is not a *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// closeAll closes every reader in r that is an [io.Closer] other than stdin.
func closeAll(r []io.Reader) {
	for _, rd := range r {
		if c, ok := rd.(io.Closer); ok && rd != stdin {
			_ = c.Close()
		}
	}
}

// properties loads and merges the property files stored in ctx. Later files
// override earlier ones.
func properties(ctx context.Context) (props.Map, error) {
	files := propertyFilesFrom(ctx)
	if files == nil {
		return props.Map{}, nil
	}

	readers := files.Readers()
	defer closeAll(readers)

	merged := props.Map{}

	for i, r := range readers {
		m, err := props.Load(ctx, r)
		if err != nil {
			return nil, ErrLoadProperties.
				With(slog.Int("file", i)).
				Wrap(err)
		}

		merged = merged.Merge(m)
	}

	log.TraceContext(ctx, "properties loaded",
		slog.Int("files", len(readers)),
		slog.Int("keys", len(merged.Keys())),
	)

	return merged, nil
}

// evaluator returns an [eval.Evaluator] using the properties stored in ctx
// and the package logger.
func evaluator(ctx context.Context) (*eval.Evaluator, error) {
	p, err := properties(ctx)
	if err != nil {
		return nil, err
	}

	return eval.New(
		eval.WithProperties(p),
		eval.WithLogger(log.Default()),
	), nil
}

// evaluate evaluates template with the marker stored in ctx. The lazy pass
// only runs with the default marker.
func evaluate(ctx context.Context, e *eval.Evaluator, template string) (string, error) {
	marker := markerFrom(ctx)
	if marker == lang.DefaultMarker {
		return e.Evaluate(ctx, template)
	}

	return e.EvaluateNode(ctx, parse(ctx, template), marker)
}

// parse parses template with the marker stored in ctx.
func parse(ctx context.Context, template string) *lang.Node {
	return lang.ParseString(ctx, template,
		lang.WithMarker(markerFrom(ctx)),
		lang.WithLogger(log.Default()),
	)
}

// readTemplate returns template if it is non-empty. Otherwise it reads the
// concatenation of sources, or standard input if no sources are named. A
// single trailing line break is removed from text read this way.
func readTemplate(template string, sources []string) (string, error) {
	if template != "" {
		return template, nil
	}

	if len(sources) == 0 {
		sources = []string{stdinSource}
	}

	files := buildSourceFiles(sources)
	if files == nil {
		return "", ErrNoTemplate.With(slog.Any("sources", sources))
	}

	readers := files.Readers()
	defer closeAll(readers)

	var sb strings.Builder
	if _, err := files.WriteTo(&sb); err != nil {
		return "", ErrReadSource.Wrap(err)
	}

	text := sb.String()
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")

	return text, nil
}
