// Copyright 2026 © The Planwright Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/planwright/planwright/pkg/config"
	"github.com/planwright/planwright/pkg/interview"
	"github.com/planwright/planwright/pkg/llm"
	"github.com/planwright/planwright/pkg/memory"
	"github.com/planwright/planwright/pkg/task"
	"github.com/planwright/planwright/pkg/telemetry"
)

// runInterview drives one interview over stdin/stdout until the masterplan
// is approved, the founder quits, or input ends.
func runInterview(ctx context.Context, flags globalFlags, cfg *config.Config, args []string) {
	out := ""
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--out":
			if i+1 >= len(args) {
				fatal(fmt.Errorf("missing value for --out"))
			}
			out = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--out="):
			out = strings.TrimPrefix(args[i], "--out=")
		default:
			fatal(fmt.Errorf("unknown run flag %q", args[i]))
		}
	}

	personas, tasks, err := loadRegistries(cfg)
	if err != nil {
		fatal(err)
	}
	p, err := personas.Get("requirements_interpreter_agent")
	if err != nil {
		fatal(err)
	}
	def, err := tasks.Get(task.InterpretationTaskID)
	if err != nil {
		fatal(err)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		fatal(err)
	}
	store, cleanup, err := buildStore(cfg)
	if err != nil {
		fatal(err)
	}
	defer cleanup()

	metrics, err := telemetry.NewWorkflowMetrics()
	if err != nil {
		fatal(fmt.Errorf("init metrics: %w", err))
	}

	opts := []interview.Option{
		interview.WithProvider(provider),
		interview.WithModel(cfg.LLM.Model, cfg.LLM.Temperature),
		interview.WithConversationStore(store),
		interview.WithMetrics(metrics),
		interview.WithMaxReasks(cfg.Workflow.MaxReasks),
		interview.WithSuggestAfterTurns(cfg.Workflow.SuggestAfterTurns),
	}
	if cfg.Workflow.IdleTimeout != "" {
		d, err := time.ParseDuration(cfg.Workflow.IdleTimeout)
		if err != nil {
			fatal(fmt.Errorf("invalid workflow.idle_timeout: %w", err))
		}
		if d > 0 {
			opts = append(opts, interview.WithIdleTimeout(d))
		}
	}

	w, err := interview.New(p, def, opts...)
	if err != nil {
		fatal(err)
	}

	turn, err := w.Start(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Println(turn.Message)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		input := scanner.Text()
		if strings.TrimSpace(input) == "/quit" {
			w.Abandon(ctx)
			fmt.Println("Interview abandoned.")
			return
		}

		turn, err = w.Submit(ctx, input)
		if err != nil {
			fatal(err)
		}
		fmt.Println()
		fmt.Println(turn.Message)

		if turn.Phase == interview.PhaseDone {
			writeMasterplan(w, out)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		fatal(fmt.Errorf("read input: %w", err))
	}
	// Input ended mid-interview.
	w.Abandon(ctx)
}

func writeMasterplan(w *interview.Workflow, out string) {
	doc := w.ApprovedDocument()
	if doc == nil {
		return
	}
	if out == "" {
		out = "masterplan.md"
	}
	if err := os.WriteFile(out, []byte(doc.Render()), 0o644); err != nil {
		fatal(fmt.Errorf("write masterplan: %w", err))
	}
	fmt.Printf("\nMasterplan written to %s\n", out)
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	switch cfg.LLM.Provider {
	case "ollama", "":
		return llm.NewOllama(cfg.LLM.BaseURL), nil
	case "mock":
		return &llm.MockProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func buildStore(cfg *config.Config) (memory.ConversationStore, func(), error) {
	switch cfg.Memory.Provider {
	case "inmemory", "":
		return memory.NewInMemoryConversation(), func() {}, nil
	case "sqlite":
		store, db, err := memory.OpenSQLiteConversation(cfg.Memory.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown memory provider %q", cfg.Memory.Provider)
	}
}
