// Package testdump renders human-readable diffs of proclet marking and
// tally snapshots for test failure messages. Comparing two
// map[int]struct{}-shaped markings with %v is unreadable once a net has
// more than a handful of places; a line-oriented diff is not.
package testdump

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Marking renders a sorted place-number set as "{0, 1, 4}".
func Marking(places []int) string {
	sorted := append([]int(nil), places...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, p := range sorted {
		parts[i] = strconv.Itoa(p)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// DiffMarking returns a human-readable diff between a want and got
// marking, one place number per line, for use in a test failure
// message. An equal pair renders with no diff markers at all.
func DiffMarking(want, got []int) string {
	return diffLines(linesOf(want), linesOf(got))
}

// DiffTally does the same for a transition tag's tally/slate counters
// rendered as "tag=count" lines, keyed by tag so unrelated transitions
// line up regardless of iteration order.
func DiffTally(want, got map[string]int) string {
	return diffLines(tallyLines(want), tallyLines(got))
}

func linesOf(places []int) string {
	sorted := append([]int(nil), places...)
	sort.Ints(sorted)
	lines := make([]string, len(sorted))
	for i, p := range sorted {
		lines[i] = strconv.Itoa(p)
	}
	return strings.Join(lines, "\n")
}

func tallyLines(tally map[string]int) string {
	tags := make([]string, 0, len(tally))
	for tag := range tally {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	lines := make([]string, len(tags))
	for i, tag := range tags {
		lines[i] = fmt.Sprintf("%s=%d", tag, tally[tag])
	}
	return strings.Join(lines, "\n")
}

func diffLines(want, got string) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	return dmp.DiffPrettyText(diffs)
}
