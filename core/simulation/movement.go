package simulation

import "github.com/kilianp07/ridesim/core/model"

// step moves from towards to by at most speed cells, spending the budget on
// the x axis first and the remainder on the y axis.
func step(from, to model.Position, speed int) model.Position {
	budget := speed
	from.X, budget = advance(from.X, to.X, budget)
	from.Y, _ = advance(from.Y, to.Y, budget)
	return from
}

func advance(cur, target, budget int) (int, int) {
	d := target - cur
	if d == 0 || budget <= 0 {
		return cur, budget
	}
	n := min(budget, absInt(d))
	if d < 0 {
		return cur - n, budget - n
	}
	return cur + n, budget - n
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
