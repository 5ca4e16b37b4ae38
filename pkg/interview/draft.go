// SPDX-License-Identifier: Apache-2.0

package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/planwright/planwright/pkg/errors"
	"github.com/planwright/planwright/pkg/llm"
	"github.com/planwright/planwright/pkg/masterplan"
	"github.com/planwright/planwright/pkg/resilience"
)

// synthesize produces a masterplan document from the collected requirements.
// The provider call runs under the retry and per-call timeout policies; when
// the model output contains no recognizable plan, a deterministic document is
// assembled directly from the answers so that drafting never dead-ends.
func (w *Workflow) synthesize(ctx context.Context) (*masterplan.Document, error) {
	req := llm.ChatRequest{
		Model:       w.model,
		Temperature: w.temperature,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: w.draftSystemPrompt()},
			{Role: llm.RoleUser, Content: w.draftUserPrompt()},
		},
	}

	var resp *llm.ChatResponse
	err := w.retry.Do(ctx, func() error {
		return resilience.WithTimeout(ctx, resilience.TimeoutConfig{Duration: w.callTimeout}, func() error {
			r, callErr := w.provider.Chat(ctx, req)
			if callErr != nil {
				return callErr
			}
			resp = r
			return nil
		})
	})
	if err != nil {
		return nil, errors.New(errors.CodeLLMError, "masterplan synthesis failed", err).
			WithContext("model", w.model).
			WithRecoverable(true)
	}

	doc, ok := masterplan.Extract(resp.Content)
	if !ok {
		// Keep the interview moving on malformed model output.
		w.log.Warn("draft.extract_failed",
			slog.String("run_id", w.runID),
			slog.Int("response_len", len(resp.Content)),
		)
		doc = w.fallbackDocument()
	}
	if strings.TrimSpace(doc.AppName) == "" {
		doc.AppName = w.appName()
	}
	return doc, nil
}

// draftSystemPrompt combines the persona with the formatting contract the
// extractor understands.
func (w *Workflow) draftSystemPrompt() string {
	var b strings.Builder
	b.WriteString(w.persona.SystemPrompt())
	b.WriteString("\n\nTask: ")
	b.WriteString(w.task.Description)
	b.WriteString("\nExpected output: ")
	b.WriteString(w.task.ExpectedOutput)
	b.WriteString("\n\nProduce a markdown document titled '# <app name> - Masterplan' with exactly these sections, in order:\n")
	for _, key := range masterplan.SectionOrder {
		fmt.Fprintf(&b, "## %s\n", masterplan.Heading(key))
	}
	b.WriteString("\nFill every section from the gathered requirements. Where the requirements are silent, make a clearly labeled recommendation instead of leaving the section empty.")
	return b.String()
}

// draftUserPrompt lays out the gathered requirements topic by topic.
func (w *Workflow) draftUserPrompt() string {
	var b strings.Builder
	b.WriteString("Requirements gathered during the interview:\n")
	for _, key := range w.reqs.Keys() {
		value, _ := w.reqs.Get(key)
		fmt.Fprintf(&b, "- %s: %s\n", key, value)
	}
	var skipped []string
	for _, t := range TopicOrder {
		if w.unanswered[t] {
			skipped = append(skipped, string(t))
		}
	}
	if len(skipped) > 0 {
		fmt.Fprintf(&b, "\nTopics the founder declined to answer (use sensible defaults): %s\n",
			strings.Join(skipped, ", "))
	}
	b.WriteString("\nDraft the complete masterplan now.")
	return b.String()
}

// fallbackDocument builds a plan directly from the recorded answers. Every
// answered topic lands in its corresponding section; the rest keep the
// renderer's placeholder.
func (w *Workflow) fallbackDocument() *masterplan.Document {
	doc := masterplan.New(w.appName())
	mapping := map[Topic]masterplan.SectionKey{
		TopicPurpose:      masterplan.SectionOverview,
		TopicCore:         masterplan.SectionFeatures,
		TopicInteractions: masterplan.SectionUIUX,
		TopicData:         masterplan.SectionDataModel,
		TopicPlatform:     masterplan.SectionStack,
		TopicIntegrations: masterplan.SectionStack,
		TopicSecurity:     masterplan.SectionSecurity,
		TopicScalability:  masterplan.SectionChallenges,
		TopicChallenges:   masterplan.SectionChallenges,
		TopicDiagrams:     masterplan.SectionDataModel,
	}
	for _, t := range TopicOrder {
		answer, ok := w.reqs.Get(string(t))
		if !ok {
			continue
		}
		key := mapping[t]
		if existing := doc.Sections[key]; existing != "" {
			doc.Sections[key] = existing + "\n\n" + answer
		} else {
			doc.Sections[key] = answer
		}
	}
	if _, ok := doc.Sections[masterplan.SectionAudience]; !ok {
		if purpose, has := w.reqs.Get(string(TopicPurpose)); has {
			doc.Sections[masterplan.SectionAudience] = "Derived from the stated purpose: " + snippet(purpose, 20)
		}
	}
	return doc
}

// appName derives a display name from the purpose answer: the first few words,
// title-shaped. Good enough for a draft; the review loop can rename it.
func (w *Workflow) appName() string {
	purpose, ok := w.reqs.Get(string(TopicPurpose))
	if !ok {
		return "Application"
	}
	words := strings.Fields(purpose)
	if len(words) > 4 {
		words = words[:4]
	}
	name := strings.Join(words, " ")
	name = strings.Trim(name, ".,;:!?")
	if name == "" {
		return "Application"
	}
	return name
}
