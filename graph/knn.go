package graph

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/wgangyiii/Scenario-Generation/geom"
)

// NeighborSearch finds, for each query point, candidate points near it in the
// x-y plane. Implementations must never return an edge between a query and a
// candidate with different scene ids; locality is always planar.
//
// Returned edges use Edge{Src: candidate index, Dst: query index}. A query
// with no admissible candidate simply contributes no edges.
type NeighborSearch interface {
	NearestK(queries, candidates []geom.Point3, k int, queryScene, candidateScene []int) []Edge
}

// DefaultDistCutoff is the planar cutoff used by the all-pairs fallback when
// no spatial index is in use.
const DefaultDistCutoff = 20.0

// NewNeighborSearch returns the preferred NeighborSearch implementation: the
// kd-tree index. The all-pairs CutoffSearch remains available for callers
// that want the index-free behavior.
func NewNeighborSearch() NeighborSearch {
	return KDTreeSearch{}
}

// KDTreeSearch finds exact k-nearest candidates using one kd-tree per scene.
type KDTreeSearch struct{}

type planarPoint struct {
	x, y float64
	idx  int
}

func (p planarPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(planarPoint)
	if d == 0 {
		return p.x - q.x
	}
	return p.y - q.y
}

func (p planarPoint) Dims() int { return 2 }

func (p planarPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(planarPoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

type planarPoints []planarPoint

func (p planarPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p planarPoints) Len() int                      { return len(p) }
func (p planarPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p planarPoints) Pivot(d kdtree.Dim) int {
	return planarPlane{Dim: d, planarPoints: p}.Pivot()
}

type planarPlane struct {
	kdtree.Dim
	planarPoints
}

func (p planarPlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.planarPoints[i].x < p.planarPoints[j].x
	}
	return p.planarPoints[i].y < p.planarPoints[j].y
}
func (p planarPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p planarPlane) Slice(start, end int) kdtree.SortSlicer {
	p.planarPoints = p.planarPoints[start:end]
	return p
}
func (p planarPlane) Swap(i, j int) {
	p.planarPoints[i], p.planarPoints[j] = p.planarPoints[j], p.planarPoints[i]
}

// NearestK returns edges from the k nearest same-scene candidates to every
// query. Candidates at identical distance are admitted in kd-tree order; the
// per-query result is deterministically sorted by (distance, candidate
// index) before trimming to k.
func (KDTreeSearch) NearestK(queries, candidates []geom.Point3, k int, queryScene, candidateScene []int) []Edge {
	if k <= 0 || len(queries) == 0 || len(candidates) == 0 {
		return nil
	}
	byScene := make(map[int]planarPoints)
	for i, c := range candidates {
		s := sceneOf(candidateScene, i)
		byScene[s] = append(byScene[s], planarPoint{x: c.X, y: c.Y, idx: i})
	}
	trees := make(map[int]*kdtree.Tree, len(byScene))
	for s, pts := range byScene {
		trees[s] = kdtree.New(pts, false)
	}

	edges := make([]Edge, 0, len(queries)*k)
	for qi, q := range queries {
		t, ok := trees[sceneOf(queryScene, qi)]
		if !ok {
			continue
		}
		keep := kdtree.NewNKeeper(k)
		t.NearestSet(keep, planarPoint{x: q.X, y: q.Y, idx: -1})
		found := make([]kdtree.ComparableDist, 0, k)
		for _, c := range keep.Heap {
			if c.Comparable == nil || math.IsInf(c.Dist, 1) {
				continue
			}
			found = append(found, c)
		}
		sort.Slice(found, func(i, j int) bool {
			if found[i].Dist != found[j].Dist {
				return found[i].Dist < found[j].Dist
			}
			return found[i].Comparable.(planarPoint).idx < found[j].Comparable.(planarPoint).idx
		})
		for _, c := range found {
			edges = append(edges, Edge{Src: c.Comparable.(planarPoint).idx, Dst: qi})
		}
	}
	return edges
}

// CutoffSearch is the fallback used when no spatial index is available: every
// same-scene candidate within Cutoff planar distance of the query is kept,
// with no per-query count limit.
type CutoffSearch struct {
	Cutoff float64
}

// NearestK ignores k and returns all same-scene candidates within the cutoff.
func (s CutoffSearch) NearestK(queries, candidates []geom.Point3, k int, queryScene, candidateScene []int) []Edge {
	cutoff := s.Cutoff
	if cutoff <= 0 {
		cutoff = DefaultDistCutoff
	}
	var edges []Edge
	for qi, q := range queries {
		qs := sceneOf(queryScene, qi)
		for ci, c := range candidates {
			if sceneOf(candidateScene, ci) != qs {
				continue
			}
			if geom.PlanarDist(q, c) < cutoff {
				edges = append(edges, Edge{Src: ci, Dst: qi})
			}
		}
	}
	return edges
}

func sceneOf(scene []int, i int) int {
	if scene == nil {
		return 0
	}
	return scene[i]
}
