// SPDX-License-Identifier: Apache-2.0

// Package masterplan defines the planning document produced by the interview
// workflow: ten fixed sections rendered as markdown.
package masterplan

import (
	"fmt"
	"strings"
)

// SectionKey identifies one of the fixed masterplan sections.
type SectionKey string

const (
	SectionOverview   SectionKey = "overview"
	SectionAudience   SectionKey = "target_audience"
	SectionFeatures   SectionKey = "core_features"
	SectionStack      SectionKey = "technical_stack"
	SectionDataModel  SectionKey = "data_model"
	SectionUIUX       SectionKey = "uiux_principles"
	SectionSecurity   SectionKey = "security"
	SectionPhases     SectionKey = "development_phases"
	SectionChallenges SectionKey = "challenges"
	SectionFuture     SectionKey = "future_possibilities"
)

// SectionOrder is the fixed rendering order of the masterplan sections.
var SectionOrder = []SectionKey{
	SectionOverview,
	SectionAudience,
	SectionFeatures,
	SectionStack,
	SectionDataModel,
	SectionUIUX,
	SectionSecurity,
	SectionPhases,
	SectionChallenges,
	SectionFuture,
}

// sectionHeadings are the markdown headings used by the rendered document.
var sectionHeadings = map[SectionKey]string{
	SectionOverview:   "App Overview and Objectives",
	SectionAudience:   "Target Audience",
	SectionFeatures:   "Core Features and Functionality",
	SectionStack:      "High-level Technical Stack Recommendations",
	SectionDataModel:  "Conceptual Data Model",
	SectionUIUX:       "User Interface Design Principles",
	SectionSecurity:   "Security Considerations",
	SectionPhases:     "Development Phases or Milestones",
	SectionChallenges: "Potential Challenges and Solutions",
	SectionFuture:     "Future Expansion Possibilities",
}

// Heading returns the markdown heading for a section key.
func Heading(key SectionKey) string { return sectionHeadings[key] }

// Document is a masterplan planning artifact. Immutable once emitted by the
// workflow; revisions produce a new Document.
type Document struct {
	AppName  string
	Sections map[SectionKey]string
}

// New creates an empty document for the given app name.
func New(appName string) *Document {
	return &Document{
		AppName:  appName,
		Sections: make(map[SectionKey]string, len(SectionOrder)),
	}
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	c := New(d.AppName)
	for k, v := range d.Sections {
		c.Sections[k] = v
	}
	return c
}

// Render emits the document as markdown with the fixed section ordering.
// Missing sections render with a placeholder so the contract shape holds.
func (d *Document) Render() string {
	var b strings.Builder
	name := d.AppName
	if strings.TrimSpace(name) == "" {
		name = "Application"
	}
	fmt.Fprintf(&b, "# %s - Masterplan\n", name)
	for _, key := range SectionOrder {
		fmt.Fprintf(&b, "\n## %s\n", sectionHeadings[key])
		body := strings.TrimSpace(d.Sections[key])
		if body == "" {
			body = "_To be determined._"
		}
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

// Equal reports whether two documents render identically.
func (d *Document) Equal(other *Document) bool {
	if other == nil {
		return d == nil
	}
	return d.Render() == other.Render()
}
