package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/hpungsan/loadout/internal/calc"
	"github.com/hpungsan/loadout/internal/events"
	"github.com/hpungsan/loadout/internal/fit"
)

type itemMap map[int]*fit.Item

func (m itemMap) Item(id int) (*fit.Item, bool) {
	it, ok := m[id]
	return it, ok
}

var (
	hull = &fit.Item{ID: 1, Name: "Hull", Category: fit.CategoryHull, CPUOutput: 400, PowerOutput: 900,
		Slots: fit.SlotLayout{High: 2, Med: 3, Low: 2, Subsystem: 2}}

	launcherI  = &fit.Item{ID: 10, Name: "Launcher I", Category: fit.CategoryModule, Slot: fit.SlotHigh, Family: 10, Activatable: true, Overheatable: true, ChargeGroup: "Missile"}
	launcherII = &fit.Item{ID: 11, Name: "Launcher II", Category: fit.CategoryModule, Slot: fit.SlotHigh, Family: 10, MetaLevel: 5, Activatable: true, Overheatable: true, ChargeGroup: "Missile"}
	extender   = &fit.Item{ID: 20, Name: "Extender", Category: fit.CategoryModule, Slot: fit.SlotMed}
	mwd        = &fit.Item{ID: 30, Name: "MWD", Category: fit.CategoryModule, Slot: fit.SlotMed, Group: "Prop", Activatable: true, Overheatable: true, MaxGroupActive: 1}
	ab         = &fit.Item{ID: 31, Name: "AB", Category: fit.CategoryModule, Slot: fit.SlotMed, Group: "Prop", Activatable: true, Overheatable: true, MaxGroupActive: 1}
	webI       = &fit.Item{ID: 40, Name: "Web I", Category: fit.CategoryModule, Slot: fit.SlotMed, Family: 40, Activatable: true}
	webII      = &fit.Item{ID: 41, Name: "Web II", Category: fit.CategoryModule, Slot: fit.SlotMed, Family: 40, MetaLevel: 5, Activatable: true}
	coreA      = &fit.Item{ID: 50, Name: "Core A", Category: fit.CategorySubsystem, Slot: fit.SlotSubsystem, SubsystemSlot: 125, ShipIDs: []int{1}}
	coreB      = &fit.Item{ID: 51, Name: "Core B", Category: fit.CategorySubsystem, Slot: fit.SlotSubsystem, SubsystemSlot: 125, ShipIDs: []int{1}, CPUOutput: 25}
	defA       = &fit.Item{ID: 52, Name: "Defensive A", Category: fit.CategorySubsystem, Slot: fit.SlotSubsystem, SubsystemSlot: 126, ShipIDs: []int{1}}
	missile    = &fit.Item{ID: 60, Name: "Missile", Category: fit.CategoryCharge, Group: "Missile"}

	testItems = itemMap{}
)

func init() {
	for _, it := range []*fit.Item{hull, launcherI, launcherII, extender, mwd, ab, webI, webII, coreA, coreB, defA, missile} {
		testItems[it.ID] = it
	}
}

// recorder captures collaborator calls in order.
type recorder struct {
	calls []string
}

func (r *recorder) add(call string) { r.calls = append(r.calls, call) }

func (r *recorder) reset() { r.calls = nil }

type fakeFits map[string]*fit.Fit

func (f fakeFits) GetFit(_ context.Context, id string) (*fit.Fit, error) {
	if ft, ok := f[id]; ok {
		return ft, nil
	}
	return nil, errors.New("no such fit")
}

type fakeStore struct {
	rec *recorder
	err error
}

func (s *fakeStore) Flush(context.Context) error {
	s.rec.add("flush")
	return s.err
}

func (s *fakeStore) Commit(context.Context) error {
	s.rec.add("commit")
	return s.err
}

// recordingCalc delegates to the real engine and records each call.
type recordingCalc struct {
	rec    *recorder
	engine *calc.Engine
}

func (c *recordingCalc) Recalc(f *fit.Fit) {
	c.rec.add("recalc")
	c.engine.Recalc(f)
}

func (c *recordingCalc) Fill(context.Context, string) error {
	c.rec.add("fill")
	return nil
}

func (c *recordingCalc) CheckStates(f *fit.Fit, changed *fit.Module) fit.StateChanges {
	label := "check"
	if changed != nil {
		if i := f.Projected.Index(changed); i >= 0 {
			label = fmt.Sprintf("check:projected:%d", i)
		} else if i := f.Modules.Index(changed); i >= 0 {
			label = fmt.Sprintf("check:local:%d", i)
		}
	}
	c.rec.add(label)
	return c.engine.CheckStates(f, changed)
}

func (c *recordingCalc) RestoreCheckedStates(f *fit.Fit, changes fit.StateChanges) {
	c.rec.add("restore")
	c.engine.RestoreCheckedStates(f, changes)
}

type fakeNotifier struct {
	rec *recorder
}

func (n *fakeNotifier) Post(ev events.FitChanged) {
	n.rec.add("notify:" + ev.FitID)
}

type harness struct {
	env   *Env
	fit   *fit.Fit
	rec   *recorder
	store *fakeStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := &recorder{}
	f := fit.New("f1", "test", hull)
	store := &fakeStore{rec: rec}
	env := &Env{
		Fits:   fakeFits{"f1": f},
		Calc:   &recordingCalc{rec: rec, engine: calc.NewEngine(nil, nil)},
		Store:  store,
		Events: &fakeNotifier{rec: rec},
		Items:  testItems,
	}
	return &harness{env: env, fit: f, rec: rec, store: store}
}

// local attaches a module in the given state without going through commands.
func (h *harness) local(t *testing.T, item *fit.Item, state fit.State) *fit.Module {
	t.Helper()
	m := fit.NewModule(item)
	m.State = state
	if _, err := h.fit.Modules.Append(m); err != nil {
		t.Fatalf("Append(%s) error = %v", item.Name, err)
	}
	return m
}

func (h *harness) projected(t *testing.T, item *fit.Item, state fit.State) *fit.Module {
	t.Helper()
	m := fit.NewModule(item)
	m.State = state
	if _, err := h.fit.Projected.Append(m); err != nil {
		t.Fatalf("Append(%s) error = %v", item.Name, err)
	}
	return m
}

// snapshot renders both sequences: item, slot, state and charge per module.
func snapshot(f *fit.Fit) string {
	var b strings.Builder
	for _, seq := range []*fit.ModuleSeq{f.Modules, f.Projected} {
		for _, m := range seq.All() {
			charge := 0
			if m.Charge != nil {
				charge = m.Charge.ID
			}
			fmt.Fprintf(&b, "%d/%s/%s/%d,", m.Item.ID, m.Slot, m.State, charge)
		}
		b.WriteString("|")
	}
	return b.String()
}

func itemIDs(seq *fit.ModuleSeq) []int {
	var out []int
	for _, m := range seq.All() {
		out = append(out, m.Item.ID)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// assertOrder fails unless want appears in calls as an ordered subsequence.
func assertOrder(t *testing.T, calls []string, want ...string) {
	t.Helper()
	i := 0
	for _, c := range calls {
		if i < len(want) && c == want[i] {
			i++
		}
	}
	if i != len(want) {
		t.Errorf("calls %v do not contain %v in order", calls, want)
	}
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}
