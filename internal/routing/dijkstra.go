package routing

import (
	"container/heap"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/passbi/transport_catalogue/internal/graph"
)

const noEdge graph.EdgeID = -1

// RouteInfo is a shortest path as returned by the solver
type RouteInfo struct {
	Weight float64
	Edges  []graph.EdgeID
}

// shortestPathTree holds the result of one single-source search
type shortestPathTree struct {
	dist []float64
	prev []graph.EdgeID // vertex -> edge it was reached by
}

// Solver answers shortest-path queries over a DirectedWeightedGraph.
// Trees for selected sources can be precomputed; other sources are searched
// on demand. A Solver is read-only once Precompute returns.
type Solver struct {
	graph *graph.DirectedWeightedGraph
	trees []*shortestPathTree // source vertex -> tree, nil when not precomputed
}

// NewSolver creates a solver with no precomputed trees
func NewSolver(g *graph.DirectedWeightedGraph) *Solver {
	return &Solver{
		graph: g,
		trees: make([]*shortestPathTree, g.VertexCount()),
	}
}

// Precompute searches from every given source using up to workers goroutines
func (s *Solver) Precompute(sources []graph.VertexID, workers int) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, source := range sources {
		g.Go(func() error {
			s.trees[source] = s.search(source)
			return nil
		})
	}
	// Searches cannot fail; Wait only joins the workers
	g.Wait()
}

// Precomputed returns the number of sources with a stored tree
func (s *Solver) Precomputed() int {
	n := 0
	for _, tree := range s.trees {
		if tree != nil {
			n++
		}
	}
	return n
}

// BuildRoute returns the cheapest path from one vertex to another.
// The second result is false when to is unreachable from from.
func (s *Solver) BuildRoute(from, to graph.VertexID) (RouteInfo, bool) {
	tree := s.trees[from]
	if tree == nil {
		tree = s.search(from)
	}

	if math.IsInf(tree.dist[to], 1) {
		return RouteInfo{}, false
	}

	edges := []graph.EdgeID{}
	for v := to; v != from; {
		id := tree.prev[v]
		edges = append(edges, id)
		v = s.graph.Edge(id).From
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}

	return RouteInfo{Weight: tree.dist[to], Edges: edges}, true
}

// search runs Dijkstra from a single source. Among equal-weight queue
// entries the lower vertex id is settled first, and a vertex keeps the first
// edge that reached it with its final weight.
func (s *Solver) search(source graph.VertexID) *shortestPathTree {
	n := s.graph.VertexCount()
	tree := &shortestPathTree{
		dist: make([]float64, n),
		prev: make([]graph.EdgeID, n),
	}
	for v := range tree.dist {
		tree.dist[v] = math.Inf(1)
		tree.prev[v] = noEdge
	}
	tree.dist[source] = 0

	settled := make([]bool, n)
	queue := &PriorityQueue{}
	heap.Init(queue)
	heap.Push(queue, &queueItem{vertex: source, dist: 0})

	for queue.Len() > 0 {
		current := heap.Pop(queue).(*queueItem)
		u := current.vertex
		if settled[u] {
			continue
		}
		settled[u] = true

		for _, id := range s.graph.IncidentEdges(u) {
			edge := s.graph.Edge(id)
			candidate := tree.dist[u] + edge.Weight
			if candidate < tree.dist[edge.To] {
				tree.dist[edge.To] = candidate
				tree.prev[edge.To] = id
				heap.Push(queue, &queueItem{vertex: edge.To, dist: candidate})
			}
		}
	}

	return tree
}

// queueItem is a tentative distance to a vertex
type queueItem struct {
	vertex graph.VertexID
	dist   float64
	index  int // for heap
}

// PriorityQueue implements heap.Interface ordered by (dist, vertex)
type PriorityQueue []*queueItem

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return pq[i].vertex < pq[j].vertex
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*queueItem)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}
