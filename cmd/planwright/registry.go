// Copyright 2026 © The Planwright Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/planwright/planwright/pkg/config"
	"github.com/planwright/planwright/pkg/jobs"
	"github.com/planwright/planwright/pkg/persona"
	"github.com/planwright/planwright/pkg/task"
)

// loadRegistries resolves the persona and task stores: file-backed when
// configured, built-in otherwise.
func loadRegistries(cfg *config.Config) (*persona.Store, *task.Store, error) {
	var (
		personas *persona.Store
		err      error
	)
	if cfg.Registry.PersonasPath != "" {
		personas, err = persona.Load(cfg.Registry.PersonasPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load personas from %s: %w", cfg.Registry.PersonasPath, err)
		}
	} else {
		personas = persona.Builtin()
	}

	var tasks *task.Store
	if cfg.Registry.TasksPath != "" {
		tasks, err = task.Load(cfg.Registry.TasksPath, personas)
		if err != nil {
			return nil, nil, fmt.Errorf("load tasks from %s: %w", cfg.Registry.TasksPath, err)
		}
	} else {
		tasks, err = task.Builtin(personas)
		if err != nil {
			return nil, nil, fmt.Errorf("load built-in tasks: %w", err)
		}
	}
	return personas, tasks, nil
}

func runPersonas(flags globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 || args[0] != "list" {
		fatal(fmt.Errorf("usage: planwright personas list"))
	}
	ensureNoArgs(args[1:])

	personas, _, err := loadRegistries(cfg)
	if err != nil {
		fatal(err)
	}

	if flags.JSON {
		type row struct {
			ID   string `json:"id"`
			Role string `json:"role"`
			Goal string `json:"goal"`
		}
		var rows []row
		for _, id := range personas.IDs() {
			p, _ := personas.Get(id)
			rows = append(rows, row{ID: p.ID, Role: p.Role, Goal: p.Goal})
		}
		printJSON(rows)
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tROLE\tGOAL")
	for _, id := range personas.IDs() {
		p, _ := personas.Get(id)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Role, truncate(p.Goal, 60))
	}
	tw.Flush()
}

func runTasks(flags globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 || args[0] != "list" {
		fatal(fmt.Errorf("usage: planwright tasks list"))
	}
	ensureNoArgs(args[1:])

	_, tasks, err := loadRegistries(cfg)
	if err != nil {
		fatal(err)
	}

	if flags.JSON {
		type row struct {
			ID      string `json:"id"`
			Persona string `json:"assigned_persona_id"`
			Desc    string `json:"description"`
		}
		var rows []row
		for _, id := range tasks.IDs() {
			t, _ := tasks.Get(id)
			rows = append(rows, row{ID: t.ID, Persona: t.AssignedPersonaID, Desc: t.Description})
		}
		printJSON(rows)
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPERSONA\tDESCRIPTION")
	for _, id := range tasks.IDs() {
		t, _ := tasks.Get(id)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.AssignedPersonaID, truncate(t.Description, 60))
	}
	tw.Flush()
}

// runValidate loads the configured registries and reports problems without
// starting anything.
func runValidate(flags globalFlags, cfg *config.Config, args []string) {
	ensureNoArgs(args)

	personas, tasks, err := loadRegistries(cfg)
	if err != nil {
		if flags.JSON {
			printJSON(map[string]string{"status": "invalid", "error": err.Error()})
		}
		fatal(err)
	}

	if flags.JSON {
		printJSON(map[string]any{
			"status":   "ok",
			"personas": personas.Len(),
			"tasks":    tasks.Len(),
		})
		return
	}
	fmt.Printf("ok: %d personas, %d tasks\n", personas.Len(), tasks.Len())
}

func runJobs(flags globalFlags, cfg *config.Config, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("usage: planwright jobs status <id> | planwright jobs clean"))
	}

	jm, err := jobs.NewManager(cfg.Jobs.Dir)
	if err != nil {
		fatal(err)
	}

	switch args[0] {
	case "status":
		if len(args) != 2 {
			fatal(fmt.Errorf("usage: planwright jobs status <id>"))
		}
		s := jm.Status(args[1])
		if flags.JSON {
			printJSON(s)
			return
		}
		fmt.Printf("%s: %s (%d%%) %s\n", s.JobID, s.State, s.Progress, s.Message)
	case "clean":
		ensureNoArgs(args[1:])
		maxAge := time.Duration(cfg.Jobs.MaxAgeHrs) * time.Hour
		removed := jm.CleanOld(maxAge)
		if flags.JSON {
			printJSON(map[string]int{"removed": removed})
			return
		}
		fmt.Printf("removed %d job files\n", removed)
	default:
		fatal(fmt.Errorf("unknown jobs subcommand %q", args[0]))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
