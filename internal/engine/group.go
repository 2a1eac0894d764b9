package engine

// Group is a maximal set of same-colored stones connected by orthogonal
// adjacency, together with its liberties. Liberties are kept as a set so a
// point adjacent to several group stones is counted once.
type Group struct {
	Color     Stone
	Stones    []Point
	Liberties map[Point]struct{}
}

// FindGroup walks the connected group containing (x,y) with an iterative
// breadth-first search. An empty or out-of-range cell yields an empty group.
func (e *Engine) FindGroup(x, y int) Group {
	g := Group{Liberties: make(map[Point]struct{})}
	if !e.IsOnBoard(x, y) {
		return g
	}
	color := e.board[y][x]
	if color == Empty {
		return g
	}
	g.Color = color

	start := Point{X: x, Y: y}
	visited := map[Point]struct{}{start: {}}
	queue := []Point{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		g.Stones = append(g.Stones, p)

		for _, n := range e.Neighbors(p.X, p.Y) {
			switch e.board[n.Y][n.X] {
			case Empty:
				g.Liberties[n] = struct{}{}
			case color:
				if _, seen := visited[n]; !seen {
					visited[n] = struct{}{}
					queue = append(queue, n)
				}
			}
		}
	}
	return g
}

// FindCapturedStones returns the stones that would be captured by player
// placing at (x,y): every adjacent opposing group left without liberties.
// The board is restored before returning.
func (e *Engine) FindCapturedStones(x, y int, player Stone) []Point {
	if !e.IsOnBoard(x, y) || e.board[y][x] != Empty {
		return nil
	}
	e.board[y][x] = player

	var captured []Point
	seen := make(map[Point]struct{})
	for _, n := range e.Neighbors(x, y) {
		if e.board[n.Y][n.X] != player.Opponent() {
			continue
		}
		if _, done := seen[n]; done {
			continue
		}
		g := e.FindGroup(n.X, n.Y)
		for _, s := range g.Stones {
			seen[s] = struct{}{}
		}
		if len(g.Liberties) == 0 {
			captured = append(captured, g.Stones...)
		}
	}

	e.board[y][x] = Empty
	return captured
}
