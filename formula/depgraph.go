package formula

import (
	"sort"

	"github.com/adnsv/xlpatch/model"
)

// NodeRef identifies one formula cell across a workbook.
type NodeRef struct {
	Sheet model.SheetName
	Ref   model.ARef
}

// DependencyGraph is an arena-backed graph over a workbook's formula cells:
// nodes live in a slice, edges are stored as index slices, matching the
// "nodes in a vector, edges as indices" guidance for keeping ownership
// trivial without a pointer graph.
type DependencyGraph struct {
	nodes      []NodeRef
	sheetIndex []int // nodes[i]'s owning sheet's position in the workbook
	index      map[NodeRef]int

	formulaCount int // nodes[:formulaCount] are formula cells; later nodes are plain precedents

	precedentsOf [][]int // nodes[i] depends on these node indices
	dependentsOf [][]int // these node indices depend on nodes[i]
}

// Build extracts, for every formula cell in every sheet of wb, the set of
// precedent cell references (cells referenced directly or contained in a
// referenced range; 3-D references contribute to their own starting sheet
// only), and assembles the resulting dependency graph.
func Build(wb *model.Workbook) (*DependencyGraph, error) {
	g := &DependencyGraph{index: map[NodeRef]int{}}

	sheets := wb.Sheets()
	for si, sh := range sheets {
		for _, ref := range sh.Cells() {
			c := sh.Cell(ref)
			if c.Value.Kind != model.KindFormula {
				continue
			}
			g.nodeIndex(NodeRef{Sheet: sh.Name(), Ref: ref}, si)
		}
	}
	g.formulaCount = len(g.nodes)

	for si, sh := range sheets {
		for _, ref := range sh.Cells() {
			c := sh.Cell(ref)
			if c.Value.Kind != model.KindFormula {
				continue
			}
			nodeID := g.index[NodeRef{Sheet: sh.Name(), Ref: ref}]
			expr, err := Parse(c.Value.FormulaText)
			if err != nil {
				continue // malformed formulas contribute no precedents; evaluation reports the parse error
			}
			for _, prec := range extractPrecedents(expr, sh.Name(), wb) {
				precSheetIdx := si
				if prec.Sheet != sh.Name() {
					precSheetIdx = sheetPositionOf(sheets, prec.Sheet)
				}
				precID := g.nodeIndex(prec, precSheetIdx)
				g.precedentsOf[nodeID] = appendUnique(g.precedentsOf[nodeID], precID)
				g.dependentsOf[precID] = appendUnique(g.dependentsOf[precID], nodeID)
			}
		}
	}
	return g, nil
}

func sheetPositionOf(sheets []*model.Sheet, name model.SheetName) int {
	for i, s := range sheets {
		if s.Name() == name {
			return i
		}
	}
	return -1
}

func (g *DependencyGraph) nodeIndex(n NodeRef, sheetIdx int) int {
	if id, ok := g.index[n]; ok {
		return id
	}
	id := len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.sheetIndex = append(g.sheetIndex, sheetIdx)
	g.precedentsOf = append(g.precedentsOf, nil)
	g.dependentsOf = append(g.dependentsOf, nil)
	g.index[n] = id
	return id
}

func appendUnique(s []int, v int) []int {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

// extractPrecedents walks expr collecting every referenced cell as a
// NodeRef, expanding ranges and resolving unqualified references against
// currentSheet. Defined-name atoms are resolved through the workbook's
// defined names when possible.
func extractPrecedents(expr Expr, currentSheet model.SheetName, wb *model.Workbook) []NodeRef {
	var out []NodeRef
	var walk func(e Expr)
	walk = func(e Expr) {
		switch x := e.(type) {
		case RefExpr:
			sheet := currentSheet
			if x.HasSheet {
				sheet = model.SheetName(x.Sheet)
			}
			if !x.IsRange {
				out = append(out, NodeRef{Sheet: sheet, Ref: x.Cell.ARef()})
				return
			}
			rng := model.NewCellRange(x.Start.ARef(), x.End.ARef())
			rng.Cells(func(ref model.ARef) bool {
				out = append(out, NodeRef{Sheet: sheet, Ref: ref})
				return true
			})
		case NameRef:
			if wb == nil {
				return
			}
			if target, ok := wb.DefinedNames()[x.Name]; ok {
				if r, err := model.ParseReference(target); err == nil {
					sheet := currentSheet
					if r.Kind == model.RefQualifiedCell || r.Kind == model.RefQualifiedRange {
						sheet = model.SheetName(r.Sheet)
					}
					switch r.Kind {
					case model.RefCell, model.RefQualifiedCell:
						out = append(out, NodeRef{Sheet: sheet, Ref: r.Cell})
					case model.RefRange, model.RefQualifiedRange:
						r.Range.Cells(func(ref model.ARef) bool {
							out = append(out, NodeRef{Sheet: sheet, Ref: ref})
							return true
						})
					}
				}
			}
		case UnaryExpr:
			walk(x.X)
		case BinaryExpr:
			walk(x.X)
			walk(x.Y)
		case CallExpr:
			for _, a := range x.Args {
				walk(a)
			}
		}
	}
	walk(expr)
	return out
}

// Precedents returns the cells n's formula directly or transitively-through-
// range references.
func (g *DependencyGraph) Precedents(n NodeRef) []NodeRef {
	id, ok := g.index[n]
	if !ok {
		return nil
	}
	return g.nodesAt(g.precedentsOf[id])
}

// Dependents returns the formula cells that reference n.
func (g *DependencyGraph) Dependents(n NodeRef) []NodeRef {
	id, ok := g.index[n]
	if !ok {
		return nil
	}
	return g.nodesAt(g.dependentsOf[id])
}

func (g *DependencyGraph) nodesAt(ids []int) []NodeRef {
	out := make([]NodeRef, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// TransitiveDependents returns every cell transitively impacted by a change
// to n (breadth-first over the dependents edges), excluding n itself.
func (g *DependencyGraph) TransitiveDependents(n NodeRef) []NodeRef {
	start, ok := g.index[n]
	if !ok {
		return nil
	}
	seen := map[int]bool{start: true}
	queue := append([]int(nil), g.dependentsOf[start]...)
	var out []NodeRef
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, g.nodes[id])
		queue = append(queue, g.dependentsOf[id]...)
	}
	return out
}

// Cycle is a set of mutually dependent nodes (a strongly connected component
// of size >= 2, or a single self-referencing node).
type Cycle []NodeRef

// DetectCycles runs Tarjan's strongly-connected-components algorithm and
// returns every SCC of size >= 2, plus any self-loop, as a Cycle.
func (g *DependencyGraph) DetectCycles() []Cycle {
	n := len(g.nodes)
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []int
	counter := 0
	var sccs [][]int

	var strongconnect func(v int)
	strongconnect = func(v int) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.precedentsOf[v] {
			if index[w] == -1 {
				strongconnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongconnect(v)
		}
	}

	var cycles []Cycle
	for _, scc := range sccs {
		if len(scc) >= 2 {
			cycles = append(cycles, Cycle(g.nodesAt(scc)))
			continue
		}
		v := scc[0]
		for _, w := range g.precedentsOf[v] {
			if w == v {
				cycles = append(cycles, Cycle{g.nodes[v]})
				break
			}
		}
	}
	return cycles
}

// CircularReferenceError reports a detected cycle, named by its member
// cells in deterministic order.
type CircularReferenceError struct{ Path []NodeRef }

func (e *CircularReferenceError) Error() string {
	s := "circular reference: "
	for i, n := range e.Path {
		if i > 0 {
			s += " -> "
		}
		s += string(n.Sheet) + "!" + n.Ref.ToA1()
	}
	return s
}

// TopologicalSort orders every formula node so that each node follows all of
// its precedents, using Kahn's algorithm with a deterministic tie-break by
// (sheet index, row, column). Returns a *CircularReferenceError naming the
// first detected cycle if the graph is not a DAG.
func (g *DependencyGraph) TopologicalSort() ([]NodeRef, error) {
	n := len(g.nodes)
	inDegree := make([]int, n)
	for v := 0; v < n; v++ {
		inDegree[v] = len(g.precedentsOf[v])
	}

	ready := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if inDegree[v] == 0 {
			ready = append(ready, v)
		}
	}

	tieBreak := func(ids []int) {
		sort.Slice(ids, func(i, j int) bool {
			a, b := ids[i], ids[j]
			if g.sheetIndex[a] != g.sheetIndex[b] {
				return g.sheetIndex[a] < g.sheetIndex[b]
			}
			if g.nodes[a].Ref.Row != g.nodes[b].Ref.Row {
				return g.nodes[a].Ref.Row < g.nodes[b].Ref.Row
			}
			return g.nodes[a].Ref.Col < g.nodes[b].Ref.Col
		})
	}

	var order []int
	remaining := make([]int, n)
	copy(remaining, inDegree)
	for len(ready) > 0 {
		tieBreak(ready)
		v := ready[0]
		ready = ready[1:]
		order = append(order, v)
		for _, w := range g.dependentsOf[v] {
			remaining[w]--
			if remaining[w] == 0 {
				ready = append(ready, w)
			}
		}
	}

	if len(order) != n {
		cycles := g.DetectCycles()
		if len(cycles) > 0 {
			return nil, &CircularReferenceError{Path: cycles[0]}
		}
		return nil, &CircularReferenceError{}
	}
	formulaOrder := order[:0]
	for _, v := range order {
		if v < g.formulaCount {
			formulaOrder = append(formulaOrder, v)
		}
	}
	return g.nodesAt(formulaOrder), nil
}
