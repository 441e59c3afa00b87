// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify surfaces human-readable notices to the user. Notices are a
// fire-and-forget side channel: failures to write are swallowed, and no
// caller branches on them.
package notify

import (
	"fmt"
	"io"
)

// Notifier receives success and error notices.
type Notifier interface {
	Successf(format string, args ...any)
	Errorf(format string, args ...any)
	Infof(format string, args ...any)
}

// Writer emits notices to w, one line each.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Notifier writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Successf emits a success notice.
func (n *Writer) Successf(format string, args ...any) {
	fmt.Fprintf(n.w, format+"\n", args...)
}

// Errorf emits an error notice.
func (n *Writer) Errorf(format string, args ...any) {
	fmt.Fprintf(n.w, "error: "+format+"\n", args...)
}

// Infof emits an informational notice.
func (n *Writer) Infof(format string, args ...any) {
	fmt.Fprintf(n.w, format+"\n", args...)
}

// Discard drops all notices. Used in tests and quiet modes.
var Discard Notifier = &Writer{w: io.Discard}
