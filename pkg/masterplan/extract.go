package masterplan

import (
	"regexp"
	"strings"
)

var (
	titleRe  = regexp.MustCompile(`(?m)^#\s+(.+?)\s*-\s*Masterplan\s*$`)
	fencedRe = regexp.MustCompile("(?s)```(?:md|markdown)?\\s(.*?)```")
	headRe   = regexp.MustCompile(`(?m)^##\s+(.+?)\s*$`)
)

// Extract recovers a Document from free-form model output. The model may
// return the plan directly, surrounded by chatter, or inside a fenced
// markdown block. Returns false when no plan-shaped content is found.
func Extract(text string) (*Document, bool) {
	if doc, ok := parsePlan(text); ok {
		return doc, true
	}
	for _, m := range fencedRe.FindAllStringSubmatch(text, -1) {
		if doc, ok := parsePlan(m[1]); ok {
			return doc, true
		}
	}
	return nil, false
}

func parsePlan(text string) (*Document, bool) {
	title := titleRe.FindStringSubmatch(text)
	heads := headRe.FindAllStringSubmatchIndex(text, -1)
	if len(heads) == 0 {
		return nil, false
	}

	sections := splitSections(text, heads)

	matched := 0
	doc := New("")
	if title != nil {
		doc.AppName = strings.TrimSpace(title[1])
	}
	for heading, body := range sections {
		key, ok := keyForHeading(heading)
		if !ok {
			continue
		}
		doc.Sections[key] = strings.TrimSpace(body)
		matched++
	}

	// A couple of recognizable sections is enough to call it a masterplan;
	// drafting tolerates partial model output and re-prompts on gaps.
	if matched < 2 {
		return nil, false
	}
	return doc, true
}

func splitSections(text string, heads [][]int) map[string]string {
	sections := make(map[string]string, len(heads))
	for i, h := range heads {
		heading := text[h[2]:h[3]]
		start := h[1]
		end := len(text)
		if i+1 < len(heads) {
			end = heads[i+1][0]
		}
		sections[heading] = text[start:end]
	}
	return sections
}

// keyForHeading maps a markdown heading to a section key, tolerating the
// phrasing variations models produce.
func keyForHeading(heading string) (SectionKey, bool) {
	h := strings.ToLower(strings.TrimSpace(heading))
	switch {
	case strings.Contains(h, "overview"):
		return SectionOverview, true
	case strings.Contains(h, "audience"):
		return SectionAudience, true
	case strings.Contains(h, "core features"), strings.Contains(h, "functionality"):
		return SectionFeatures, true
	case strings.Contains(h, "technical stack"), strings.Contains(h, "tech stack"):
		return SectionStack, true
	case strings.Contains(h, "data model"):
		return SectionDataModel, true
	case strings.Contains(h, "interface design"), strings.Contains(h, "ui/ux"), strings.Contains(h, "user interface"):
		return SectionUIUX, true
	case strings.Contains(h, "security"):
		return SectionSecurity, true
	case strings.Contains(h, "phases"), strings.Contains(h, "milestones"):
		return SectionPhases, true
	case strings.Contains(h, "challenges"):
		return SectionChallenges, true
	case strings.Contains(h, "future"), strings.Contains(h, "expansion"):
		return SectionFuture, true
	}
	return "", false
}
