package sim

import (
	"sync/atomic"
	"testing"
)

func TestPartitionRegionsCoversGridExactlyOnce(t *testing.T) {
	cases := []struct {
		w, h, rx, ry int
	}{
		{200, 150, 4, 2},
		{7, 5, 3, 3},
		{10, 10, 1, 1},
		{3, 3, 8, 8}, // more regions than columns; clamped
	}
	for _, tc := range cases {
		regions, err := partitionRegions(tc.w, tc.h, tc.rx, tc.ry)
		if err != nil {
			t.Fatalf("partition %dx%d into %dx%d: %v", tc.w, tc.h, tc.rx, tc.ry, err)
		}
		seen := make([]int, tc.w*tc.h)
		for _, r := range regions {
			for y := r.Y0; y < r.Y1; y++ {
				for x := r.X0; x < r.X1; x++ {
					seen[y*tc.w+x]++
				}
			}
		}
		for i, n := range seen {
			if n != 1 {
				t.Fatalf("partition %dx%d into %dx%d: cell %d covered %d times",
					tc.w, tc.h, tc.rx, tc.ry, i, n)
			}
		}
	}
}

func TestPartitionRegionsRejectsBadCounts(t *testing.T) {
	if _, err := partitionRegions(10, 10, 0, 2); err == nil {
		t.Fatal("expected error for zero region columns")
	}
	if _, err := partitionRegions(10, 10, 2, -1); err == nil {
		t.Fatal("expected error for negative region rows")
	}
}

func TestRegionSplitAlwaysCoversWorkers(t *testing.T) {
	for workers := -1; workers <= 16; workers++ {
		rx, ry := regionSplit(workers)
		if rx*ry < 2 {
			t.Fatalf("workers=%d: split %dx%d has fewer than 2 regions", workers, rx, ry)
		}
		if workers > 1 && rx*ry < workers {
			t.Fatalf("workers=%d: split %dx%d cannot feed every worker", workers, rx, ry)
		}
	}
}

func TestPoolRejectsNonPositiveWorkers(t *testing.T) {
	if _, err := NewPool(0); err == nil {
		t.Fatal("expected error for 0 workers")
	}
	if _, err := NewPool(-3); err == nil {
		t.Fatal("expected error for negative workers")
	}
}

func TestPoolRunsAllTasks(t *testing.T) {
	pool, err := NewPool(4)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Shutdown()

	var counter atomic.Int64
	const tasks = 200
	for i := 0; i < tasks; i++ {
		pool.Submit(func() { counter.Add(1) })
	}
	pool.Wait()
	if got := counter.Load(); got != tasks {
		t.Fatalf("ran %d tasks, want %d", got, tasks)
	}

	// The pool must be reusable across barriers.
	for i := 0; i < tasks; i++ {
		pool.Submit(func() { counter.Add(1) })
	}
	pool.Wait()
	if got := counter.Load(); got != 2*tasks {
		t.Fatalf("ran %d tasks after second barrier, want %d", got, 2*tasks)
	}
}
