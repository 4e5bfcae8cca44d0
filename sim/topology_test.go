package sim

import (
	"testing"
)

func TestConnectedComponentsSingleBlob(t *testing.T) {
	cfg := testConfig(t, 20, 20)
	e, err := NewEngine(cfg, Options{Seed: 2})
	if err != nil {
		t.Fatal(err)
	}
	id := mustSpawn(t, e, 5, 5, spreaderGenome())
	claimBlock(e, id, 4, 4, 8, 8)

	c, _ := e.World().ColonyByID(id)
	comps := e.connectedComponents(id, c.Stats.Cells)
	if len(comps) != 1 {
		t.Fatalf("got %d components for a solid block, want 1", len(comps))
	}
	if len(comps[0]) != c.Stats.CellCount {
		t.Fatalf("component has %d cells, colony has %d", len(comps[0]), c.Stats.CellCount)
	}
}

func TestConnectedComponentsDiagonalDoesNotConnect(t *testing.T) {
	cfg := testConfig(t, 20, 20)
	e, err := NewEngine(cfg, Options{Seed: 2})
	if err != nil {
		t.Fatal(err)
	}
	id := mustSpawn(t, e, 5, 5, spreaderGenome())
	// Two single cells touching only at a corner.
	e.World().Claim(e.World().Grid.Index(6, 6), id)

	c, _ := e.World().ColonyByID(id)
	comps := e.connectedComponents(id, c.Stats.Cells)
	if len(comps) != 2 {
		t.Fatalf("got %d components for diagonal cells, want 2 under 4-connectivity", len(comps))
	}
}

func TestDivisionSplitsFragmentedColony(t *testing.T) {
	cfg := testConfig(t, 30, 10)
	e, err := NewEngine(cfg, Options{Seed: 4})
	if err != nil {
		t.Fatal(err)
	}
	id := mustSpawn(t, e, 2, 2, spreaderGenome())
	claimBlock(e, id, 0, 0, 5, 5)   // 25 cells, keeps the colony
	claimBlock(e, id, 10, 0, 13, 3) // 9 cells, becomes a child
	claimBlock(e, id, 20, 0, 22, 1) // 2 cells, below the floor, dies

	e.divisionPhase()

	c, ok := e.World().ColonyByID(id)
	if !ok {
		t.Fatal("parent colony lost")
	}
	if c.Stats.CellCount != 25 {
		t.Fatalf("parent kept %d cells, want the largest fragment of 25", c.Stats.CellCount)
	}
	if e.World().Registry.ActiveCount() != 2 {
		t.Fatalf("active colonies = %d, want parent plus one child", e.World().Registry.ActiveCount())
	}
	if e.Events.Divisions != 1 {
		t.Fatalf("division events = %d, want 1", e.Events.Divisions)
	}

	var childID uint32
	ids := e.World().Registry.ActiveIDs(nil)
	for _, cid := range ids {
		if cid != id {
			childID = cid
		}
	}
	child, ok := e.World().ColonyByID(childID)
	if !ok {
		t.Fatal("child colony not resolvable")
	}
	if child.Stats.CellCount != 9 {
		t.Fatalf("child has %d cells, want 9", child.Stats.CellCount)
	}
	if child.Identity.Parent != id {
		t.Fatalf("child parent = %d, want %d", child.Identity.Parent, id)
	}
	if idx := e.World().CheckOwnership(); idx != -1 {
		t.Fatalf("dangling owner at cell %d after division", idx)
	}
}

func TestComponentCapReturnsPartialResult(t *testing.T) {
	cfg := testConfig(t, 40, 20)
	e, err := NewEngine(cfg, Options{Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	id := mustSpawn(t, e, 0, 0, spreaderGenome())

	// A checkerboard shreds the colony into 400 isolated cells, far past
	// the 127-label cap.
	w := e.World()
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if (x+y)%2 == 0 {
				w.Claim(w.Grid.Index(x, y), id)
			}
		}
	}
	c, _ := w.ColonyByID(id)
	total := c.Stats.CellCount

	comps := e.connectedComponents(id, c.Stats.Cells)
	if len(comps) != maxComponents {
		t.Fatalf("got %d components, want the %d-label cap", len(comps), maxComponents)
	}

	// The division pass keeps the largest labelled fragment, releases the
	// other labelled scraps, and leaves every unlabelled cell with its
	// owner for a later pass.
	e.divisionPhase()

	c, ok := w.ColonyByID(id)
	if !ok {
		t.Fatal("capped division deactivated the colony")
	}
	want := total - (maxComponents - 1)
	if c.Stats.CellCount != want {
		t.Fatalf("colony holds %d cells after capped division, want %d", c.Stats.CellCount, want)
	}
	if idx := w.CheckOwnership(); idx != -1 {
		t.Fatalf("dangling owner at cell %d after capped division", idx)
	}
}

func TestRecombinationMergesKin(t *testing.T) {
	cfg := testConfig(t, 20, 10)
	e, err := NewEngine(cfg, Options{Seed: 6})
	if err != nil {
		t.Fatal(err)
	}
	g := spreaderGenome()
	parent := mustSpawn(t, e, 2, 2, g)
	claimBlock(e, parent, 0, 0, 10, 10)

	// A child with an identical genome, touching the parent.
	childID, err := e.World().Registry.Create("child", parent, g, 2)
	if err != nil {
		t.Fatal(err)
	}
	claimBlock(e, childID, 10, 0, 15, 10)

	e.recombinationPhase()

	if e.Events.Merges != 1 {
		t.Fatalf("merges = %d, want 1", e.Events.Merges)
	}
	if _, ok := e.World().ColonyByID(childID); ok {
		t.Fatal("absorbed child still active")
	}
	c, ok := e.World().ColonyByID(parent)
	if !ok {
		t.Fatal("surviving colony not resolvable")
	}
	if c.Stats.CellCount != 150 {
		t.Fatalf("survivor has %d cells, want 150", c.Stats.CellCount)
	}
}

func TestRecombinationIgnoresStrangers(t *testing.T) {
	cfg := testConfig(t, 20, 10)
	e, err := NewEngine(cfg, Options{Seed: 6})
	if err != nil {
		t.Fatal(err)
	}
	a := mustSpawn(t, e, 2, 2, spreaderGenome())
	b := mustSpawn(t, e, 12, 2, spreaderGenome())
	claimBlock(e, a, 0, 0, 10, 10)
	claimBlock(e, b, 10, 0, 20, 10)

	e.recombinationPhase()

	if e.Events.Merges != 0 {
		t.Fatalf("unrelated colonies merged %d times, want 0", e.Events.Merges)
	}
}
