package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/ridesim/core/model"
)

func TestStepXAxisFirst(t *testing.T) {
	cases := []struct {
		name     string
		from, to model.Position
		speed    int
		want     model.Position
	}{
		{"x only", model.Position{}, model.Position{X: 3, Y: 2}, 1, model.Position{X: 1}},
		{"spill into y", model.Position{}, model.Position{X: 1, Y: 5}, 3, model.Position{X: 1, Y: 2}},
		{"negative direction", model.Position{X: 4, Y: 4}, model.Position{X: 0, Y: 0}, 5, model.Position{X: 0, Y: 3}},
		{"stops at target", model.Position{}, model.Position{X: 1, Y: 1}, 10, model.Position{X: 1, Y: 1}},
		{"already there", model.Position{X: 2, Y: 2}, model.Position{X: 2, Y: 2}, 1, model.Position{X: 2, Y: 2}},
		{"y only", model.Position{X: 2}, model.Position{X: 2, Y: 3}, 2, model.Position{X: 2, Y: 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, step(c.from, c.to, c.speed))
		})
	}
}
