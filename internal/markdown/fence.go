package markdown

import "strings"

// Fence is a backtick code fence occupying [Start, End) of the scanned text.
// Start is the offset of the opening backticks and End the offset just past
// the closing run.
type Fence struct {
	Start int
	End   int
	Ticks int
}

// Fences is the ordered list of fences found in a text.
type Fences []Fence

// Contains reports whether offset idx lies inside one of the fences.
func (fs Fences) Contains(idx int) bool {
	for _, f := range fs {
		if idx < f.Start {
			return false
		}
		if idx < f.End {
			return true
		}
	}
	return false
}

// FindFences locates backtick code fences. A fence opens on a line whose
// content after leading spaces or tabs starts with three or more backticks and
// closes on the next line starting with at least as many. An opener without a
// closer is not a fence.
func FindFences(text string) Fences {
	var (
		fences Fences
		open   *Fence
	)
	for _, ln := range splitLines(text) {
		indent := len(ln.text) - len(strings.TrimLeft(ln.text, " \t"))
		ticks := countBackticks(ln.text[indent:])
		if ticks < 3 {
			continue
		}
		pos := ln.start + indent
		if open == nil {
			open = &Fence{Start: pos, Ticks: ticks}
			continue
		}
		if ticks >= open.Ticks {
			open.End = pos + ticks
			fences = append(fences, *open)
			open = nil
		}
	}
	return fences
}

func countBackticks(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

// line is one physical line of a text without its terminator.
type line struct {
	text       string
	start      int  // offset of the first byte
	next       int  // offset of the first byte after the terminator
	terminated bool // false only for a trailing line without newline
}

// splitLines splits on \r\n, \r and \n while keeping byte offsets.
func splitLines(text string) []line {
	var lines []line
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, line{text: text[start:i], start: start, next: i + 1, terminated: true})
			start = i + 1
		case '\r':
			next := i + 1
			if next < len(text) && text[next] == '\n' {
				next++
			}
			lines = append(lines, line{text: text[start:i], start: start, next: next, terminated: true})
			i = next - 1
			start = next
		}
	}
	if start < len(text) {
		lines = append(lines, line{text: text[start:], start: start, next: len(text)})
	}
	return lines
}
