package netgraph

import "math"

const (
	// maxVelocity caps each node's speed so one hard repulsion bounce
	// cannot fling it off screen.
	maxVelocity = 10.0

	// settleThreshold is the summed node speed below which the simulation
	// stops stepping.
	settleThreshold = 0.5
)

// Step advances the simulation by one tick and reports whether it is still
// running. Forces are accumulated in three passes (pairwise repulsion, edge
// springs, center gravity), then integrated with damping and a speed clamp.
// When the summed speed across all nodes drops below the settle threshold
// the simulation parks itself until new data or a drag perturbs it. Step
// does not render; the host's frame loop draws after stepping.
func (c *Chart) Step() bool {
	if len(c.nodes) == 0 {
		return false
	}
	if !c.running {
		return false
	}

	n := len(c.nodes)
	fx := make([]float64, n)
	fy := make([]float64, n)

	// Inverse-square repulsion between every node pair. The squared
	// distance is floored at 1 so coincident nodes push apart with a
	// bounded force instead of dividing by zero.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := c.nodes[i].x - c.nodes[j].x
			dy := c.nodes[i].y - c.nodes[j].y
			distSq := math.Max(dx*dx+dy*dy, 1)
			dist := math.Sqrt(distSq)

			force := c.phys.Repulsion / distSq
			fx[i] += dx / dist * force
			fy[i] += dy / dist * force
			fx[j] -= dx / dist * force
			fy[j] -= dy / dist * force
		}
	}

	// Spring attraction along edges, scaled by edge weight. Edges whose
	// endpoints are not in the node set contribute nothing.
	for _, e := range c.edges {
		si, ok := c.index[e.Source]
		if !ok {
			continue
		}
		ti, ok := c.index[e.Target]
		if !ok {
			continue
		}

		dx := c.nodes[ti].x - c.nodes[si].x
		dy := c.nodes[ti].y - c.nodes[si].y
		force := c.phys.Attraction * e.weight()

		fx[si] += dx * force
		fy[si] += dy * force
		fx[ti] -= dx * force
		fy[ti] -= dy * force
	}

	// Weak gravity toward the canvas center keeps disconnected components
	// from drifting apart forever.
	centerX, centerY := c.cfg.Width/2, c.cfg.Height/2
	for i := 0; i < n; i++ {
		fx[i] += (centerX - c.nodes[i].x) * c.phys.Gravity
		fy[i] += (centerY - c.nodes[i].y) * c.phys.Gravity
	}

	totalMovement := 0.0
	for i := 0; i < n; i++ {
		node := &c.nodes[i]
		if node.fixed || i == c.dragging {
			node.vx, node.vy = 0, 0
			continue
		}

		node.vx = (node.vx + fx[i]) * c.phys.Damping
		node.vy = (node.vy + fy[i]) * c.phys.Damping

		// Clamp the speed magnitude, not each component, so diagonal
		// movement obeys the same cap as axis-aligned movement.
		speed := math.Hypot(node.vx, node.vy)
		if speed > maxVelocity {
			node.vx *= maxVelocity / speed
			node.vy *= maxVelocity / speed
			speed = maxVelocity
		}

		node.x += node.vx
		node.y += node.vy
		totalMovement += speed
	}

	if totalMovement < settleThreshold {
		c.running = false
	}
	return c.running
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
