package ann

import "golang.org/x/sync/errgroup"

// forEachQuery calls fn for every query row on up to workers goroutines.
// Each call writes only its own output slot.
func forEachQuery(n, workers int, fn func(i int)) {
	var g errgroup.Group
	g.SetLimit(max(1, workers))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
