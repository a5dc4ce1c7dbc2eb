package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/lunar/lang/ast"
)

// Format selects an output encoding for syntax trees and values.
type Format string

const (
	FormatDebug Format = "debug"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported encodings.
func Formats() []string {
	return []string{string(FormatDebug), string(FormatJSON), string(FormatYAML)}
}

// WriteAST writes chunk to w in the given format.
func WriteAST(ctx context.Context, w io.Writer, chunk *ast.Block, format Format, indent int) error {
	if format == FormatDebug {
		_, err := fmt.Fprintln(w, chunk.String())

		return err
	}

	return Write(ctx, w, NodeMap(chunk), format, indent)
}

// Write encodes v, a tree of plain Go values, to w as JSON or YAML.
func Write(ctx context.Context, w io.Writer, v any, format Format, indent int) error {
	switch format {
	case FormatJSON:
		return EncodeJSON(w, v, indent)
	case FormatYAML:
		return EncodeYAML(ctx, w, v, indent)
	default:
		_, err := fmt.Fprintln(w, v)

		return err
	}
}

// EncodeJSON writes v as JSON to the writer.
func EncodeJSON(w io.Writer, v any, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(v, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(v)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// EncodeYAML writes v as YAML to the writer.
func EncodeYAML(ctx context.Context, w io.Writer, v any, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, v, opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}
