package model

import (
	"regexp"
	"strings"
)

// DateLayout is the todo.txt date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// DateLen is the length of a formatted date.
const DateLen = len(DateLayout)

const datePattern = `\d{4}-\d{2}-\d{2}`

// PriorityNone is the sentinel returned by Task.Priority when no priority is set.
// It sorts after every letter once lower-cased.
const PriorityNone = '~'

// Line patterns. Each extractor reads the first capture group of its pattern.
var (
	patternProjects       = regexp.MustCompile(`(?:^|\s)(?:\++)(\S+)`)
	patternContexts       = regexp.MustCompile(`(?:^|\s)(?:@+)(\S+)`)
	patternDone           = regexp.MustCompile(`(?m)(^[Xx]) (.*)$`)
	patternKeyValuePairs  = regexp.MustCompile(`(?i)((?:[a-z]+):(?:[a-z0-9_-]+))`)
	patternKeyValueTag    = regexp.MustCompile(`(?i)([a-z]+):([a-z0-9_-]+)`)
	patternDueDate        = regexp.MustCompile(`(^|\s)(due:)(` + datePattern + `)(\s|$)`)
	patternPriorityAny    = regexp.MustCompile(`(?:^|\n)\(([A-Za-z])\)\s`)
	patternCompletionDate = regexp.MustCompile(`(?:^|\n)(?:[Xx] )(` + datePattern + `)?`)
	patternCreationDate   = regexp.MustCompile(`(?:^|\n)(?:\([A-Za-z]\)\s)?(?:[Xx] ` + datePattern + ` )?(` + datePattern + `)`)
)

// ParseDone reports whether the line is marked done ("x " or "X " at line start).
func ParseDone(line string) bool {
	return patternDone.MatchString(line)
}

// ParsePriority returns the upper-cased priority letter, or PriorityNone.
func ParsePriority(line string) rune {
	p := firstGroup(line, patternPriorityAny, 1, "")
	if p == "" {
		return PriorityNone
	}
	return rune(strings.ToUpper(p)[0])
}

// ParseContexts returns every @context on the line in order of occurrence.
func ParseContexts(line string) []string {
	return allGroups(line, patternContexts)
}

// ParseProjects returns every +project on the line in order of occurrence.
func ParseProjects(line string) []string {
	return allGroups(line, patternProjects)
}

// ParseCreationDate returns the date that follows the optional priority and
// "done + completion date" prefixes, or "".
func ParseCreationDate(line string) string {
	return firstGroup(line, patternCreationDate, 1, "")
}

// ParseCompletionDate returns the date that follows the done marker, or "".
func ParseCompletionDate(line string) string {
	return firstGroup(line, patternCompletionDate, 1, "")
}

// ParseDueDate returns the value of the first due:YYYY-MM-DD pair, or "".
func ParseDueDate(line string) string {
	return firstGroup(line, patternDueDate, 3, "")
}

// ParseDescription strips the completion marker, priority, creation date,
// contexts, projects and key:value pairs from the line.
//
// The creation date pattern runs first: it consumes the priority and
// "x completion-date" prefixes along with the date, which it can only find
// while they are still anchored at line start.
func ParseDescription(line string) string {
	desc := patternCreationDate.ReplaceAllString(line, "")
	desc = patternCompletionDate.ReplaceAllString(desc, "")
	desc = patternPriorityAny.ReplaceAllString(desc, "")
	desc = patternContexts.ReplaceAllString(desc, "")
	desc = patternProjects.ReplaceAllString(desc, "")
	desc = patternKeyValuePairs.ReplaceAllString(desc, "")
	return desc
}

// KeyValue is one key:value pair found on a task line.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ParseKeyValues returns every key:value pair on the line in order.
func ParseKeyValues(line string) []KeyValue {
	matches := patternKeyValueTag.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return nil
	}
	pairs := make([]KeyValue, 0, len(matches))
	for _, m := range matches {
		pairs = append(pairs, KeyValue{Key: m[1], Value: m[2]})
	}
	return pairs
}

// DueStatusOn classifies a due date against today. Both must be YYYY-MM-DD;
// the fixed-width format makes string comparison chronological.
func DueStatusOn(dueDate, today string) DueState {
	if dueDate == "" {
		return DueNone
	}
	switch c := strings.Compare(dueDate, today); {
	case c > 0:
		return DueFuture
	case c < 0:
		return DueOverdue
	default:
		return DueToday
	}
}

// firstGroup returns capture group n of the first match, or def when the
// pattern does not match or the group did not participate.
func firstGroup(text string, re *regexp.Regexp, n int, def string) string {
	idx := re.FindStringSubmatchIndex(text)
	if idx == nil || 2*n+1 >= len(idx) || idx[2*n] < 0 {
		return def
	}
	return text[idx[2*n]:idx[2*n+1]]
}

// allGroups returns capture group 1 of every match.
func allGroups(text string, re *regexp.Regexp) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}
