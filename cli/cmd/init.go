package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/lunar/lang"
	"github.com/ardnew/lunar/log"
	"github.com/ardnew/lunar/pkg"
	"github.com/ardnew/lunar/profile"
)

// Init generates a default configuration script with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	src := render(ktx)

	// The generated script must load back through the resolver.
	if _, err := lang.ParseString(ctx, src, lang.WithCache(nil)); err != nil {
		panic(fmt.Sprintf("internal error: generated config does not parse: %v", err))
	}

	if err := os.WriteFile(confPath, []byte(src), 0o600); err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// render writes one global assignment per application flag that has a
// value. Flag names map to globals by replacing '-' with '_'.
func render(ktx *kong.Context) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "-- %s configuration\n", pkg.Name)
	sb.WriteString("-- Each global sets the command-line flag of the same name,\n")
	sb.WriteString("-- e.g. log_level = \"debug\" is --log-level=debug.\n\n")

	prefixIgnore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		lit, ok := literal(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		fmt.Fprintf(&sb, "%s = %s\n", strings.ReplaceAll(flag.Name, "-", "_"), lit)
	}

	return sb.String()
}

// literal renders v as a source literal. Empty strings and lists are
// skipped so the flag keeps its default.
func literal(v any) (string, bool) {
	switch v := v.(type) {
	case nil:
		return "", false

	case bool:
		return strconv.FormatBool(v), true

	case string:
		return lang.Quote(v), v != ""

	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true

	case float32:
		return lang.FormatNumber(float64(v)), true

	case float64:
		return lang.FormatNumber(v), true

	case []string:
		elems := make([]string, len(v))
		for i, s := range v {
			elems[i] = lang.Quote(s)
		}

		return "{ " + strings.Join(elems, ", ") + " }", len(v) > 0

	default:
		return lang.Quote(fmt.Sprint(v)), true
	}
}
