package engine

// Score is the outcome of area scoring a finished position. Winner is Empty
// when both sides score exactly the same.
type Score struct {
	Black          float64 `json:"black"`
	White          float64 `json:"white"`
	BlackStones    int     `json:"black_stones"`
	WhiteStones    int     `json:"white_stones"`
	BlackTerritory int     `json:"black_territory"`
	WhiteTerritory int     `json:"white_territory"`
	Winner         Stone   `json:"winner"`
	Margin         float64 `json:"margin"`
}

// CalculateTerritory flood-fills every maximal empty region once. A region
// counts for a color when all stones bordering it are that color; regions
// bordering both colors or none are neutral.
func (e *Engine) CalculateTerritory() (blackTerritory, whiteTerritory int) {
	visited := make(map[Point]struct{})
	for y := 0; y < e.size; y++ {
		for x := 0; x < e.size; x++ {
			start := Point{X: x, Y: y}
			if e.board[y][x] != Empty {
				continue
			}
			if _, seen := visited[start]; seen {
				continue
			}

			region := 0
			touchesBlack, touchesWhite := false, false
			visited[start] = struct{}{}
			queue := []Point{start}
			for len(queue) > 0 {
				p := queue[0]
				queue = queue[1:]
				region++
				for _, n := range e.Neighbors(p.X, p.Y) {
					switch e.board[n.Y][n.X] {
					case Black:
						touchesBlack = true
					case White:
						touchesWhite = true
					case Empty:
						if _, seen := visited[n]; !seen {
							visited[n] = struct{}{}
							queue = append(queue, n)
						}
					}
				}
			}

			if touchesBlack && !touchesWhite {
				blackTerritory += region
			} else if touchesWhite && !touchesBlack {
				whiteTerritory += region
			}
		}
	}
	return blackTerritory, whiteTerritory
}

// CalculateScore applies area scoring: stones on the board plus surrounded
// territory, with komi added to white.
func (e *Engine) CalculateScore() Score {
	s := Score{}
	for y := 0; y < e.size; y++ {
		for x := 0; x < e.size; x++ {
			switch e.board[y][x] {
			case Black:
				s.BlackStones++
			case White:
				s.WhiteStones++
			}
		}
	}
	s.BlackTerritory, s.WhiteTerritory = e.CalculateTerritory()
	s.Black = float64(s.BlackStones + s.BlackTerritory)
	s.White = float64(s.WhiteStones+s.WhiteTerritory) + e.komi

	switch {
	case s.Black > s.White:
		s.Winner = Black
		s.Margin = s.Black - s.White
	case s.White > s.Black:
		s.Winner = White
		s.Margin = s.White - s.Black
	default:
		s.Winner = Empty
	}
	return s
}
