package quadtree

import "container/heap"

// entry is one frontier slot. seq is the push order and breaks ties
// between equal priorities, oldest first.
type entry struct {
	quad       *Quad
	priority   float64
	splittable bool
	seq        uint64
}

// frontier is a max-heap of leaves. Splittable quads always rank above
// min-size ones, so the top is min-size only when nothing can be split.
type frontier []entry

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	a, b := f[i], f[j]
	if a.splittable != b.splittable {
		return a.splittable
	}
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	return a.seq < b.seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) { *f = append(*f, x.(entry)) }

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	e := old[n-1]
	old[n-1] = entry{}
	*f = old[:n-1]
	return e
}

func (f *frontier) push(e entry) { heap.Push(f, e) }
func (f *frontier) pop() entry   { return heap.Pop(f).(entry) }
func (f frontier) top() entry    { return f[0] }
