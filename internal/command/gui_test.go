package command

import (
	"context"
	"strings"
	"testing"

	"github.com/hpungsan/loadout/internal/fit"
)

func projectedChecks(calls []string) []string {
	var out []string
	for _, c := range calls {
		if strings.HasPrefix(c, "check:projected:") {
			out = append(out, c)
		}
	}
	return out
}

func assertFinalized(t *testing.T, calls []string) {
	t.Helper()
	want := []string{"flush", "recalc", "fill", "commit", "notify:f1"}
	if len(calls) < len(want) {
		t.Fatalf("calls = %v, want finalization %v", calls, want)
	}
	tail := calls[len(calls)-len(want):]
	for i := range want {
		if tail[i] != want[i] {
			t.Fatalf("finalization = %v, want %v", tail, want)
		}
	}
}

func TestGuiChangeProjectedModuleMetas_SkipsMatchingPosition(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.projected(t, webII, fit.StateActive)
	h.projected(t, webI, fit.StateActive)
	h.projected(t, webI, fit.StateOffline)
	before := snapshot(h.fit)

	cmd := NewGuiChangeProjectedModuleMetas(h.env, "f1", []int{2, 0}, webII.ID)
	if !cmd.Do(ctx) {
		t.Fatal("Do() = false")
	}
	if !equalInts(itemIDs(h.fit.Projected), []int{webII.ID, webI.ID, webII.ID}) {
		t.Errorf("projected = %v, want only position 2 changed", itemIDs(h.fit.Projected))
	}
	if got := h.fit.Projected.At(2).State; got != fit.StateOffline {
		t.Errorf("replacement state = %v, want offline carried over", got)
	}
	if cmd.history.Len() != 2 {
		t.Errorf("internal history = %d commands, want one remove+add batch", cmd.history.Len())
	}
	assertFinalized(t, h.rec.calls)

	h.rec.reset()
	if !cmd.Undo(ctx) {
		t.Fatal("Undo() = false")
	}
	if got := snapshot(h.fit); got != before {
		t.Errorf("after Undo: %s, want %s", got, before)
	}
	assertFinalized(t, h.rec.calls)
}

func TestGuiChangeProjectedModuleMetas_DescendingOrder(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		h.projected(t, webI, fit.StateActive)
	}

	if !NewGuiChangeProjectedModuleMetas(h.env, "f1", []int{0, 2}, webII.ID).Do(context.Background()) {
		t.Fatal("Do() = false")
	}
	got := projectedChecks(h.rec.calls)
	if len(got) != 2 || got[0] != "check:projected:2" || got[1] != "check:projected:0" {
		t.Errorf("re-add order = %v, want position 2 before 0", got)
	}
}

func TestGuiChangeProjectedModuleMetas_PartialSuccess(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.projected(t, webI, fit.StateActive)
	h.projected(t, webII, fit.StateActive)
	h.projected(t, webI, fit.StateActive)
	before := snapshot(h.fit)

	cmd := NewGuiChangeProjectedModuleMetas(h.env, "f1", []int{0, 1, 2}, webII.ID)
	if !cmd.Do(ctx) {
		t.Fatal("Do() = false, want success when 2 of 3 change")
	}
	if !equalInts(itemIDs(h.fit.Projected), []int{webII.ID, webII.ID, webII.ID}) {
		t.Errorf("projected = %v", itemIDs(h.fit.Projected))
	}
	if !cmd.Undo(ctx) {
		t.Fatal("Undo() = false")
	}
	if got := snapshot(h.fit); got != before {
		t.Errorf("after Undo: %s, want %s", got, before)
	}
}

func TestGuiChangeProjectedModuleMetas_FailedBatchRollsBack(t *testing.T) {
	h := newHarness(t)
	h.projected(t, webI, fit.StateActive)
	h.projected(t, webI, fit.StateActive)
	before := snapshot(h.fit)

	// Subsystems cannot be projected, so every add half fails.
	cmd := NewGuiChangeProjectedModuleMetas(h.env, "f1", []int{0, 1}, coreA.ID)
	if cmd.Do(context.Background()) {
		t.Fatal("Do() = true, want failure")
	}
	if got := snapshot(h.fit); got != before {
		t.Errorf("fit after failed batch: %s, want %s", got, before)
	}
	if cmd.history.Len() != 0 {
		t.Errorf("internal history = %d, want 0", cmd.history.Len())
	}
	assertFinalized(t, h.rec.calls)
}

func TestGuiChangeProjectedModuleMetas_RedoAfterUndo(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.projected(t, webI, fit.StateActive)

	cmd := NewGuiChangeProjectedModuleMetas(h.env, "f1", []int{0}, webII.ID)
	if !cmd.Do(ctx) || !cmd.Undo(ctx) || !cmd.Do(ctx) {
		t.Fatal("Do/Undo/Do cycle failed")
	}
	if h.fit.Projected.Len() != 1 || h.fit.Projected.At(0).Item != webII {
		t.Errorf("projected = %v", itemIDs(h.fit.Projected))
	}
}

func TestGuiChangeLocalModuleMetas(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.local(t, launcherI, fit.StateActive).Charge = missile
	h.local(t, launcherII, fit.StateOverheated)
	before := snapshot(h.fit)

	cmd := NewGuiChangeLocalModuleMetas(h.env, "f1", []int{1, 0}, launcherII.ID)
	if !cmd.Do(ctx) {
		t.Fatal("Do() = false")
	}
	if !equalInts(itemIDs(h.fit.Modules), []int{launcherII.ID, launcherII.ID}) {
		t.Errorf("modules = %v", itemIDs(h.fit.Modules))
	}
	if h.fit.Modules.At(0).Charge != missile {
		t.Error("charge should be carried over")
	}
	assertFinalized(t, h.rec.calls)

	if !cmd.Undo(ctx) {
		t.Fatal("Undo() = false")
	}
	if got := snapshot(h.fit); got != before {
		t.Errorf("after Undo: %s, want %s", got, before)
	}
}

func TestGuiChangeLocalModuleMetas_NothingToChange(t *testing.T) {
	h := newHarness(t)
	h.local(t, launcherII, fit.StateActive)
	if NewGuiChangeLocalModuleMetas(h.env, "f1", []int{0}, launcherII.ID).Do(context.Background()) {
		t.Error("Do() = true when every position already holds the item")
	}
}

func TestGuiAddLocalModule(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	before := snapshot(h.fit)

	cmd := NewGuiAddLocalModule(h.env, "f1", launcherI.ID)
	if !cmd.Do(ctx) {
		t.Fatal("Do() = false")
	}
	assertFinalized(t, h.rec.calls)
	if n := countCalls(h.rec.calls, "commit"); n != 1 {
		t.Errorf("commits = %d, want 1 (primitives defer)", n)
	}
	if h.fit.Stats.ModuleCount != 1 {
		t.Errorf("stats not recalculated: %+v", h.fit.Stats)
	}

	if !cmd.Undo(ctx) {
		t.Fatal("Undo() = false")
	}
	if got := snapshot(h.fit); got != before {
		t.Errorf("after Undo: %s, want %s", got, before)
	}
}

func TestGuiAddLocalModule_FailureStillFinalizes(t *testing.T) {
	h := newHarness(t)
	cmd := NewGuiAddLocalModule(h.env, "f1", missile.ID)
	if cmd.Do(context.Background()) {
		t.Fatal("Do() = true for a charge")
	}
	assertFinalized(t, h.rec.calls)
}

func TestGuiRemoveLocalModules(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.local(t, launcherI, fit.StateActive)
	h.local(t, extender, fit.StateOnline)
	h.local(t, coreA, fit.StateOnline)
	before := snapshot(h.fit)

	cmd := NewGuiRemoveLocalModules(h.env, "f1", []int{0, 2})
	if !cmd.Do(ctx) {
		t.Fatal("Do() = false")
	}
	if !equalInts(itemIDs(h.fit.Modules), []int{extender.ID}) {
		t.Errorf("modules = %v", itemIDs(h.fit.Modules))
	}
	if !cmd.Undo(ctx) {
		t.Fatal("Undo() = false")
	}
	if got := snapshot(h.fit); got != before {
		t.Errorf("after Undo: %s, want %s", got, before)
	}
}

func TestGuiChangeLocalModuleStates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.local(t, launcherI, fit.StateActive)
	before := snapshot(h.fit)

	cmd := NewGuiChangeLocalModuleStates(h.env, "f1", []int{0}, fit.StateOffline)
	if !cmd.Do(ctx) {
		t.Fatal("Do() = false")
	}
	if h.fit.Modules.At(0).State != fit.StateOffline {
		t.Errorf("state = %v", h.fit.Modules.At(0).State)
	}
	if !cmd.Undo(ctx) {
		t.Fatal("Undo() = false")
	}
	if got := snapshot(h.fit); got != before {
		t.Errorf("after Undo: %s, want %s", got, before)
	}
}

func TestGuiProjectedAddRemove(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	before := snapshot(h.fit)

	add := NewGuiAddProjectedModule(h.env, "f1", webI.ID)
	if !add.Do(ctx) || h.fit.Projected.Len() != 1 {
		t.Fatal("add Do() failed")
	}
	h.projected(t, webII, fit.StateActive)
	h.projected(t, extender, fit.StateOnline)
	mid := snapshot(h.fit)

	remove := NewGuiRemoveProjectedModules(h.env, "f1", []int{0, 2})
	if !remove.Do(ctx) {
		t.Fatal("remove Do() = false")
	}
	if !equalInts(itemIDs(h.fit.Projected), []int{webII.ID}) {
		t.Errorf("projected = %v", itemIDs(h.fit.Projected))
	}
	if !remove.Undo(ctx) {
		t.Fatal("remove Undo() = false")
	}
	if got := snapshot(h.fit); got != mid {
		t.Errorf("after remove Undo: %s, want %s", got, mid)
	}

	if _, err := h.fit.Projected.Remove(2); err != nil {
		t.Fatal(err)
	}
	if _, err := h.fit.Projected.Remove(1); err != nil {
		t.Fatal(err)
	}
	if !add.Undo(ctx) {
		t.Fatal("add Undo() = false")
	}
	if got := snapshot(h.fit); got != before {
		t.Errorf("after add Undo: %s, want %s", got, before)
	}
}

func TestGuiCommand_MissingFit(t *testing.T) {
	h := newHarness(t)
	if NewGuiChangeProjectedModuleMetas(h.env, "nope", []int{0}, webII.ID).Do(context.Background()) {
		t.Error("Do() = true for a missing fit")
	}
	if NewGuiChangeLocalModuleMetas(h.env, "nope", []int{0}, webII.ID).Do(context.Background()) {
		t.Error("Do() = true for a missing fit")
	}
}
