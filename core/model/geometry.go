package model

// Position is a cell on the simulation grid.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan returns the L1 distance between two cells.
func Manhattan(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// ETA returns the number of ticks needed to cover the Manhattan distance
// between a and b at the given speed, rounded up. Speeds below 1 are treated as 1.
func ETA(a, b Position, speed int) int {
	if speed < 1 {
		speed = 1
	}
	d := Manhattan(a, b)
	return (d + speed - 1) / speed
}

// InGrid reports whether p lies inside a width x height grid anchored at (0,0).
func (p Position) InGrid(width, height int) bool {
	return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
