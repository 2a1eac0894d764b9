package engine

// Stone is the content of a single board cell.
type Stone int8

const (
	Empty Stone = iota
	Black
	White
)

func (s Stone) Opponent() Stone {
	switch s {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

func (s Stone) String() string {
	switch s {
	case Black:
		return "black"
	case White:
		return "white"
	}
	return "empty"
}

// Point is a board coordinate, (0,0) at the top-left corner.
type Point struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

// MoveRecord is one entry of the move log: either a placement with its
// capture count or a pass marker.
type MoveRecord struct {
	X        int   `json:"x" bson:"x"`
	Y        int   `json:"y" bson:"y"`
	Player   Stone `json:"player" bson:"player"`
	Captured int   `json:"captured" bson:"captured"`
	Pass     bool  `json:"pass" bson:"pass"`
}
