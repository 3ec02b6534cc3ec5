package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/layerlint/layerlint/pkg/core"
)

// Declaration patterns, matched against comment- and string-stripped lines
// at brace depth zero.
var (
	// abstract final class BookingRepository ...
	classPattern = regexp.MustCompile(`^\s*((?:(?:abstract|base|final|interface|sealed|mixin)\s+)*)class\s+([A-Z_$][A-Za-z0-9_$]*)`)
	// mixin ValidatorMixin on Cubit ...
	mixinPattern = regexp.MustCompile(`^\s*(?:base\s+)?mixin\s+([A-Z_$][A-Za-z0-9_$]*)`)
	// enum BookingStatus ...
	enumPattern = regexp.MustCompile(`^\s*enum\s+([A-Z_$][A-Za-z0-9_$]*)`)
	// extension BookingListX on List<Booking> ...
	extensionPattern = regexp.MustCompile(`^\s*extension\s+([A-Z_$][A-Za-z0-9_$]*)\s+on\b`)
	// Widget buildHeader(...) / Future<void> submit(...) at top level
	functionPattern = regexp.MustCompile(`^\s*(?:Future<.*>|Stream<.*>|void|[A-Z_$][A-Za-z0-9_$]*(?:<.*>)?\??)\s+([a-zA-Z_$][A-Za-z0-9_$]*)\s*(?:<.*>)?\s*\(`)

	// part 'booking_screen_components.dart';
	partPattern = regexp.MustCompile(`^\s*part\s+['"]([^'"]+)['"]\s*;`)
	// part of 'booking_screen.dart'; / part of booking.screens;
	partOfPattern = regexp.MustCompile(`^\s*part\s+of\s+(?:['"]([^'"]+)['"]|([A-Za-z0-9_.]+))\s*;`)

	referencePattern = regexp.MustCompile(`\b[A-Z_$][A-Za-z0-9_$]*\b`)
)

// Dart's capitalized core types carry no layering information and would
// otherwise dominate the candidate sets.
var builtinTypes = map[string]bool{
	"String": true, "List": true, "Map": true, "Set": true, "Iterable": true,
	"Future": true, "Stream": true, "Duration": true, "DateTime": true,
	"Object": true, "Function": true, "Type": true, "Symbol": true,
	"Never": true, "Null": true, "Comparable": true, "Exception": true,
	"Error": true, "StateError": true, "ArgumentError": true, "Uri": true,
	"RegExp": true, "StringBuffer": true, "BuildContext": true, "Widget": true,
	"StatelessWidget": true, "StatefulWidget": true, "State": true, "Key": true,
}

// decl is one matched declaration before span resolution.
type decl struct {
	name      string
	kind      core.UnitKind
	startLine int // 0-based index into the cleaned lines
	endLine   int
}

// matchDecl tests a stripped line for a top-level declaration.
func matchDecl(line string) (decl, bool) {
	if m := classPattern.FindStringSubmatch(line); m != nil {
		kind := core.KindClass
		if strings.Contains(m[1], "abstract") {
			kind = core.KindAbstractClass
		}
		return decl{name: m[2], kind: kind}, true
	}
	if m := mixinPattern.FindStringSubmatch(line); m != nil {
		return decl{name: m[1], kind: core.KindMixin}, true
	}
	if m := enumPattern.FindStringSubmatch(line); m != nil {
		return decl{name: m[1], kind: core.KindEnum}, true
	}
	if m := extensionPattern.FindStringSubmatch(line); m != nil {
		return decl{name: m[1], kind: core.KindExtension}, true
	}
	if m := functionPattern.FindStringSubmatch(line); m != nil {
		return decl{name: m[1], kind: core.KindFunction}, true
	}
	return decl{}, false
}

// spanEnd scans stripped lines from the declaration line and returns the
// 0-based index of its last line: the matching close of the first opening
// brace, or the first top-level semicolon for braceless declarations.
// Running out of lines is a structural parse failure.
func spanEnd(code []string, start int) (int, *cleanError) {
	depth := 0
	opened := false

	for i := start; i < len(code); i++ {
		for _, ch := range code[i] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
				if depth < 0 {
					return 0, &cleanError{line: i + 1, reason: "unbalanced braces"}
				}
				if opened && depth == 0 {
					return i, nil
				}
			case ';':
				if !opened && depth == 0 {
					return i, nil
				}
			}
		}
	}

	return 0, &cleanError{line: start + 1, reason: "declaration never closed"}
}

// braceDelta returns the net brace depth change of a stripped line, failing
// on a close below zero.
func braceDelta(line string, depth int) (int, bool) {
	for _, ch := range line {
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return depth, false
			}
		}
	}
	return depth, true
}

// harvestReferences collects candidate type names from the stripped span,
// excluding the unit's own name and Dart's core types. Sorted, deduplicated.
func harvestReferences(code []string, start, end int, ownName string) []string {
	seen := make(map[string]bool)
	for i := start; i <= end && i < len(code); i++ {
		for _, match := range referencePattern.FindAllString(code[i], -1) {
			if match == ownName || builtinTypes[match] {
				continue
			}
			seen[match] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	refs := make([]string, 0, len(seen))
	for r := range seen {
		refs = append(refs, r)
	}
	sort.Strings(refs)
	return refs
}
