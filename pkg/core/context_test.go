package core

import (
	"context"
	"strings"
	"testing"
)

func TestEnsureRunID(t *testing.T) {
	ctx := context.Background()

	if _, ok := RunID(ctx); ok {
		t.Fatal("fresh context should have no run id")
	}

	ctx, id := EnsureRunID(ctx)
	if !strings.HasPrefix(id, "run-") {
		t.Errorf("generated id %q missing run- prefix", id)
	}

	ctx2, id2 := EnsureRunID(ctx)
	if id2 != id {
		t.Errorf("EnsureRunID regenerated id: %q != %q", id2, id)
	}
	if ctx2 != ctx {
		t.Error("EnsureRunID should not rewrap a context that has an id")
	}
}

func TestSessionID(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sess-1")
	id, ok := SessionID(ctx)
	if !ok || id != "sess-1" {
		t.Errorf("SessionID = %q, %v", id, ok)
	}
}
