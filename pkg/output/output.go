// Package output renders command results on stdout.
//
// A Printer writes JSON documents and aligned tables. Messages configured by
// the user, such as the apply summary, are parsed once into a Message and
// rendered against a Summary of the batch.
package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// Options configures a Printer.
type Options struct {
	// Colors enables styled table headers.
	Colors bool

	// Compact writes JSON on a single line.
	Compact bool
}

// Printer writes results in the formats frencli supports.
type Printer struct {
	colors  bool
	compact bool
}

// NewPrinter creates a Printer. A nil opts prints without colors.
func NewPrinter(opts *Options) *Printer {
	if opts == nil {
		opts = &Options{}
	}
	return &Printer{colors: opts.Colors, compact: opts.Compact}
}

// JSON writes v followed by a newline. HTML characters are not escaped so
// paths with '<' or '&' stay readable.
func (p *Printer) JSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !p.compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
