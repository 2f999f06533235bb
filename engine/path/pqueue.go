package path

import (
	"container/heap"
)

func NewNode[T comparable](value T) *PqItem[T] {
	return &PqItem[T]{value: value, index: -1}
}

// PqItem is a value with a priority, managed by a PriorityQueue.
type PqItem[T comparable] struct {
	value    T
	priority float64
	// index is maintained by the heap.Interface methods, -1 while not queued.
	index int
}

func (item *PqItem[T]) GetPriority() float64 {
	return item.priority
}

func (item *PqItem[T]) SetPriority(priority float64) {
	item.priority = priority
}

func (item *PqItem[T]) GetIndex() int {
	return item.index
}

func (item *PqItem[T]) SetIndex(index int) {
	item.index = index
}

func (item *PqItem[T]) GetValue() T {
	return item.value
}

type PathNode[T comparable] interface {
	GetPriority() float64
	SetPriority(float64)
	GetIndex() int
	SetIndex(int)
	GetValue() T
}

func NewPriorityQueue[T comparable](items []PathNode[T]) *PriorityQueue[T] {
	pq := make(PriorityQueue[T], len(items))
	for i, item := range items {
		pq[i] = item
		item.SetIndex(i)
	}
	heap.Init(&pq)
	return &pq
}

// PriorityQueue is a min-heap: PopMin returns the lowest priority first.
type PriorityQueue[T comparable] []PathNode[T]

func (pq *PriorityQueue[T]) Len() int { return len(*pq) }

func (pq *PriorityQueue[T]) Less(i, j int) bool {
	return (*pq)[i].GetPriority() < (*pq)[j].GetPriority()
}

func (pq *PriorityQueue[T]) Swap(i, j int) {
	(*pq)[i], (*pq)[j] = (*pq)[j], (*pq)[i]
	(*pq)[i].SetIndex(i)
	(*pq)[j].SetIndex(j)
}

// Push and Pop are for container/heap; use Add, PopMin and Update instead.
func (pq *PriorityQueue[T]) Push(x any) {
	item := x.(PathNode[T])
	item.SetIndex(len(*pq))
	*pq = append(*pq, item)
}

func (pq *PriorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.SetIndex(-1)
	*pq = old[0 : n-1]
	return item
}

func (pq *PriorityQueue[T]) Add(item PathNode[T]) {
	heap.Push(pq, item)
}

func (pq *PriorityQueue[T]) PopMin() PathNode[T] {
	return heap.Pop(pq).(PathNode[T])
}

func (pq *PriorityQueue[T]) Top() PathNode[T] {
	return (*pq)[0]
}

func (pq *PriorityQueue[T]) IsEmpty() bool {
	return pq.Len() == 0
}

// Update changes the priority of a queued item, or queues it if it is not queued.
func (pq *PriorityQueue[T]) Update(item PathNode[T], priority float64) {
	item.SetPriority(priority)
	if item.GetIndex() < 0 {
		heap.Push(pq, item)
		return
	}
	heap.Fix(pq, item.GetIndex())
}
