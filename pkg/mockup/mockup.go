// SPDX-License-Identifier: Apache-2.0

// Package mockup turns an approved masterplan into UI mockups and
// architecture diagrams: SVG artifacts with explanatory text, generated by an
// LLM and typically run as background jobs.
package mockup

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/planwright/planwright/pkg/errors"
	"github.com/planwright/planwright/pkg/jobs"
	"github.com/planwright/planwright/pkg/llm"
	"github.com/planwright/planwright/pkg/masterplan"
	"github.com/planwright/planwright/pkg/resilience"
)

// ArtifactType distinguishes the pieces of a generation response.
type ArtifactType string

const (
	ArtifactText ArtifactType = "text"
	ArtifactSVG  ArtifactType = "svg"
)

// Artifact is one piece of generated output: either explanatory text or an
// SVG document.
type Artifact struct {
	Type    ArtifactType `json:"type"`
	Content string       `json:"content"`
}

// Generator produces design artifacts from a masterplan.
type Generator struct {
	provider    llm.Provider
	model       string
	temperature float64
	retry       resilience.RetryConfig
	callTimeout time.Duration
	log         *slog.Logger
}

// NewGenerator creates a generator backed by the given provider.
func NewGenerator(provider llm.Provider, model string, temperature float64) *Generator {
	return &Generator{
		provider:    provider,
		model:       model,
		temperature: temperature,
		retry:       resilience.DefaultRetryConfig().WithMaxAttempts(2),
		log:         slog.Default(),
	}
}

// WithCallTimeout bounds each generation call.
func (g *Generator) WithCallTimeout(d time.Duration) *Generator {
	g.callTimeout = d
	return g
}

const mockupSystem = "You are a professional UI/UX designer. Create detailed UI/UX mockups as SVG. Use the key aspects of the masterplan; the mockups must be intuitive and user friendly. Emit clean SVG with real line breaks, not escaped newlines."

const architectureSystem = `You are a professional software architect specializing in clear, informative architecture diagrams. Create SVG diagrams illustrating the system architecture from the masterplan provided.

For each diagram:
1. First describe the architecture component in detail.
2. Then provide an SVG diagram representation.
3. Keep the SVG clean so it renders properly.
4. Use colors to differentiate components (frontend, backend, database).

Create a high-level system overview, a component diagram, and a data flow diagram.`

// Mockups generates UI mockups for the main screens of the planned app.
// sketchNotes carry descriptions of any sketches the founder supplied.
func (g *Generator) Mockups(ctx context.Context, plan *masterplan.Document, sketchNotes []string) ([]Artifact, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "I need UI/UX mockups for an application based on this masterplan:\n\n%s\n\n", plan.Render())
	b.WriteString("Create detailed SVG mockups for the main screens. For each mockup, first describe the screen's purpose, then provide the SVG.")
	for i, note := range sketchNotes {
		fmt.Fprintf(&b, "\n\nUser sketch #%d: %s. Consider this sketch when designing the mockups.", i+1, note)
	}
	return g.generate(ctx, mockupSystem, b.String())
}

// Architecture generates architecture diagrams for the planned app.
func (g *Generator) Architecture(ctx context.Context, plan *masterplan.Document) ([]Artifact, error) {
	prompt := fmt.Sprintf(`Based on this masterplan, create a high level architecture diagram for the application. Keep it clear, simple and beautiful:

%s

Generate SVG diagrams showing the high-level system architecture, component relationships, and data flow, each accompanied by explanatory text.`, plan.Render())
	return g.generate(ctx, architectureSystem, prompt)
}

func (g *Generator) generate(ctx context.Context, system, prompt string) ([]Artifact, error) {
	req := llm.ChatRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: prompt},
		},
	}

	var resp *llm.ChatResponse
	err := g.retry.Do(ctx, func() error {
		return resilience.WithTimeout(ctx, resilience.TimeoutConfig{Duration: g.callTimeout}, func() error {
			r, callErr := g.provider.Chat(ctx, req)
			if callErr != nil {
				return callErr
			}
			resp = r
			return nil
		})
	})
	if err != nil {
		return nil, errors.New(errors.CodeLLMError, "artifact generation failed", err).
			WithContext("model", g.model).
			WithRecoverable(true)
	}

	artifacts := splitArtifacts(resp.Content)
	if len(artifacts) == 0 {
		return nil, errors.New(errors.CodeLLMError, "model returned no usable artifacts", nil).
			WithContext("response_len", len(resp.Content))
	}
	return artifacts, nil
}

// StartMockupJob runs mockup generation as a background job and returns the
// job id for polling.
func (g *Generator) StartMockupJob(ctx context.Context, jm *jobs.Manager, plan *masterplan.Document, sketchNotes []string) (string, error) {
	snapshot := plan.Clone()
	return jm.Start(ctx, "mockup", func(jctx context.Context, progress func(int, string)) (map[string]any, error) {
		progress(10, "Preparing mockup generation request...")
		artifacts, err := g.Mockups(jctx, snapshot, sketchNotes)
		if err != nil {
			return nil, err
		}
		progress(90, "Mockups generated successfully")
		return map[string]any{"mockups": artifacts}, nil
	})
}

// StartArchitectureJob runs diagram generation as a background job.
func (g *Generator) StartArchitectureJob(ctx context.Context, jm *jobs.Manager, plan *masterplan.Document) (string, error) {
	snapshot := plan.Clone()
	return jm.Start(ctx, "architecture", func(jctx context.Context, progress func(int, string)) (map[string]any, error) {
		progress(10, "Preparing architecture diagram request...")
		artifacts, err := g.Architecture(jctx, snapshot)
		if err != nil {
			return nil, err
		}
		progress(90, "Diagrams generated successfully")
		return map[string]any{"diagrams": artifacts}, nil
	})
}

var svgRe = regexp.MustCompile(`(?s)<svg\b.*?</svg>`)

// splitArtifacts separates SVG documents from surrounding prose. Text chunks
// between SVGs become text artifacts; fenced code markers are stripped.
func splitArtifacts(text string) []Artifact {
	var artifacts []Artifact
	last := 0
	for _, loc := range svgRe.FindAllStringIndex(text, -1) {
		if prose := cleanProse(text[last:loc[0]]); prose != "" {
			artifacts = append(artifacts, Artifact{Type: ArtifactText, Content: prose})
		}
		// Models sometimes emit literal \n inside SVG attributes.
		svg := strings.ReplaceAll(text[loc[0]:loc[1]], `\n`, "\n")
		artifacts = append(artifacts, Artifact{Type: ArtifactSVG, Content: svg})
		last = loc[1]
	}
	if prose := cleanProse(text[last:]); prose != "" {
		artifacts = append(artifacts, Artifact{Type: ArtifactText, Content: prose})
	}
	return artifacts
}

var fenceRe = regexp.MustCompile("(?m)^```[a-z]*\\s*$")

func cleanProse(s string) string {
	s = fenceRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
