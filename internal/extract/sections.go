package extract

import (
	"regexp"
	"strings"

	"github.com/claimpilot/claimpilot/internal/model"
)

// Splitter partitions a document OCR blob into per-label sections using the
// configured literal markers, falling back to heading-alias detection when no
// marker for a label is present.
type Splitter struct {
	markers map[model.DocLabel]string
	aliases map[model.DocLabel][]*regexp.Regexp
}

// NewSplitter compiles the marker and alias configuration.
func NewSplitter(cfg model.RulesConfig) *Splitter {
	aliases := make(map[model.DocLabel][]*regexp.Regexp, len(cfg.HeadingAliases))
	for label, patterns := range cfg.HeadingAliases {
		compiled := make([]*regexp.Regexp, 0, len(patterns))
		for _, p := range patterns {
			compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
		}
		aliases[label] = compiled
	}
	return &Splitter{markers: cfg.Markers, aliases: aliases}
}

// Split maps every label to its trimmed body text. Every label is present in
// the result; an absent document maps to the empty string, never to a missing
// key or an error.
func (s *Splitter) Split(doc string) map[model.DocLabel]string {
	sections := make(map[model.DocLabel]string, len(s.markers))
	lowerDoc := strings.ToLower(doc)

	// Locate every marker first so each body can stop at the next one.
	type markerPos struct {
		label model.DocLabel
		start int // index of the marker itself
		body  int // index just past the marker
	}
	var found []markerPos
	for _, label := range model.AllDocLabels() {
		marker := strings.ToLower(s.markers[label])
		if marker == "" {
			continue
		}
		if idx := strings.Index(lowerDoc, marker); idx >= 0 {
			found = append(found, markerPos{label: label, start: idx, body: idx + len(marker)})
		}
	}

	for _, pos := range found {
		end := len(doc)
		for _, other := range found {
			if other.start > pos.start && other.start < end {
				end = other.start
			}
		}
		sections[pos.label] = strings.TrimSpace(doc[pos.body:end])
	}

	// Alias fallback for labels with no marker hit.
	lines := strings.Split(doc, "\n")
	for _, label := range model.AllDocLabels() {
		if _, ok := sections[label]; ok {
			continue
		}
		sections[label] = s.aliasBlock(label, lines)
	}

	return sections
}

// MarkerPresence reports, per label, whether the literal section marker
// occurs in the document text. Alias-derived sections do not count here;
// the merge engine reconciles them through the text-only evidence pass.
func (s *Splitter) MarkerPresence(doc string) map[model.DocLabel]bool {
	lowerDoc := strings.ToLower(doc)
	present := make(map[model.DocLabel]bool, len(s.markers))
	for _, label := range model.AllDocLabels() {
		marker := strings.ToLower(s.markers[label])
		present[label] = marker != "" && strings.Contains(lowerDoc, marker)
	}
	return present
}

// aliasBlock finds the first line matching one of the label's heading aliases
// and collects the run of lines up to the next recognized heading.
func (s *Splitter) aliasBlock(label model.DocLabel, lines []string) string {
	start := -1
	for i, line := range lines {
		if matchAny(s.aliases[label], line) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}

	var body []string
	for j := start; j < len(lines); j++ {
		if s.anyHeading(lines[j]) {
			break
		}
		body = append(body, lines[j])
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}

func (s *Splitter) anyHeading(line string) bool {
	for _, patterns := range s.aliases {
		if matchAny(patterns, line) {
			return true
		}
	}
	return false
}

func matchAny(patterns []*regexp.Regexp, line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, p := range patterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}
