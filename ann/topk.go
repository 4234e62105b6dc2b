package ann

import "container/heap"

type hit struct {
	id   int
	dist float64
}

// worst is a max-heap on (dist, id): the root is evicted first.
type worst []hit

func (h worst) Len() int { return len(h) }
func (h worst) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist > h[j].dist
	}
	return h[i].id > h[j].id
}
func (h worst) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *worst) Push(x any)   { *h = append(*h, x.(hit)) }
func (h *worst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// topK keeps the k nearest hits; ties go to the lower id.
type topK struct {
	k int
	h worst
}

func newTopK(k int) *topK {
	return &topK{k: k, h: make(worst, 0, k+1)}
}

func (t *topK) push(id int, dist float64) {
	if dist != dist {
		return
	}
	c := hit{id: id, dist: dist}
	if len(t.h) < t.k {
		heap.Push(&t.h, c)
		return
	}
	if top := t.h[0]; dist < top.dist || (dist == top.dist && id < top.id) {
		t.h[0] = c
		heap.Fix(&t.h, 0)
	}
}

// ids drains the heap in ascending order, padded to k with -1.
func (t *topK) ids() []int {
	out := make([]int, len(t.h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&t.h).(hit).id
	}
	return pad(out, t.k)
}
