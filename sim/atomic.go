package sim

import (
	"sync/atomic"

	"petri/world"
)

// atomicGrid is the lock-free spread backend. Workers race claims into the
// next-owner buffer with compare-and-swap; the lowest colony id wins every
// contested cell, so the outcome is independent of goroutine scheduling.
type atomicGrid struct {
	w, h int
	next []uint32
}

func newAtomicGrid(w, h int) *atomicGrid {
	return &atomicGrid{w: w, h: h, next: make([]uint32, w*h)}
}

// claim races colony id for the cell at idx. Cells already owned in the
// current grid are never contested here; only simultaneous claims on an
// unclaimed cell collide.
func (a *atomicGrid) claim(idx int, id uint32) {
	for {
		cur := atomic.LoadUint32(&a.next[idx])
		if cur != world.Unclaimed && cur <= id {
			return
		}
		if atomic.CompareAndSwapUint32(&a.next[idx], cur, id) {
			return
		}
	}
}

// atomicSpreadPhase is the ModeAtomic replacement for scan-and-apply. The
// scan runs fully parallel and writes straight into the shared next buffer;
// one serial reconciliation pass then commits the winners through the
// normal bookkeeping path.
func (e *Engine) atomicSpreadPhase() {
	for i := range e.atomic.next {
		e.atomic.next[i] = world.Unclaimed
	}

	e.runRegionPhase(e.atomicScanRegion)

	grid := e.world.Grid
	for idx, id := range e.atomic.next {
		if id == world.Unclaimed || grid.Cells[idx].Owner != world.Unclaimed {
			continue
		}
		e.world.Claim(idx, id)
		e.Events.Claims++
		e.maybeMutateOnDivision(id, e.rng)
	}
}

// atomicScanRegion mirrors spreadScanRegion but commits successful rolls
// through the CAS buffer instead of a pending list.
func (e *Engine) atomicScanRegion(ri int) {
	r := e.regions[ri]
	sc := e.scratch[ri]
	grid := e.world.Grid

	for y := r.Y0; y < r.Y1; y++ {
		row := y * grid.W
		for x := r.X0; x < r.X1; x++ {
			idx := row + x
			cell := grid.Cells[idx]
			if cell.Owner == world.Unclaimed || !cell.Border {
				continue
			}
			snap, ok := e.snaps[cell.Owner]
			if !ok {
				continue
			}
			for dir := 0; dir < len(world.DirDX); dir++ {
				nx, ny := x+world.DirDX[dir], y+world.DirDY[dir]
				if !grid.InBounds(nx, ny) {
					continue
				}
				target := grid.Index(nx, ny)
				if grid.Cells[target].Owner != world.Unclaimed {
					continue
				}
				p := e.spreadProbability(snap, target, nx, ny, dir)
				if p > 0 && sc.rng.Float64() < p {
					e.atomic.claim(target, snap.id)
				}
			}
		}
	}
}
