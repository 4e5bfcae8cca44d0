// Package sim implements the simulation engine: growth, combat, topology,
// speciation, and the serial, region-parallel, and atomic tick backends.
package sim

import "fmt"

// Region is a rectangular grid partition processed independently during a
// parallel phase. Bounds are half-open: [X0,X1) x [Y0,Y1).
type Region struct {
	X0, Y0, X1, Y1 int
}

// Cells returns the number of cells inside the region.
func (r Region) Cells() int { return (r.X1 - r.X0) * (r.Y1 - r.Y0) }

// partitionRegions splits a w x h grid into rx * ry disjoint rectangles.
// Remainder cells go to the first regions along each axis so all cells are
// covered exactly once. The returned order is the fixed region enumeration
// used by the serial application phase.
func partitionRegions(w, h, rx, ry int) ([]Region, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("sim: grid %dx%d must be positive", w, h)
	}
	if rx <= 0 || ry <= 0 {
		return nil, fmt.Errorf("sim: region split %dx%d must be positive", rx, ry)
	}
	if rx > w {
		rx = w
	}
	if ry > h {
		ry = h
	}

	baseW, remW := w/rx, w%rx
	baseH, remH := h/ry, h%ry

	regions := make([]Region, 0, rx*ry)
	y := 0
	for j := 0; j < ry; j++ {
		rh := baseH
		if j < remH {
			rh++
		}
		x := 0
		for i := 0; i < rx; i++ {
			rw := baseW
			if i < remW {
				rw++
			}
			regions = append(regions, Region{X0: x, Y0: y, X1: x + rw, Y1: y + rh})
			x += rw
		}
		y += rh
	}
	return regions, nil
}
