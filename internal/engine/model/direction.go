package model

import "fmt"

// Direction is a cube face direction.
type Direction int

// Face directions.
const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

// AllDirections lists every direction in declaration order.
var AllDirections = []Direction{Down, Up, North, South, West, East}

var directionNames = [...]string{"down", "up", "north", "south", "west", "east"}

// String returns the lower-case direction name.
func (d Direction) String() string {
	if d < Down || d > East {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection parses a direction name.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown face direction %q", s)
}

// Normal returns the unit normal of the face.
func (d Direction) Normal() [3]float32 {
	switch d {
	case Down:
		return [3]float32{0, -1, 0}
	case Up:
		return [3]float32{0, 1, 0}
	case North:
		return [3]float32{0, 0, -1}
	case South:
		return [3]float32{0, 0, 1}
	case West:
		return [3]float32{-1, 0, 0}
	default:
		return [3]float32{1, 0, 0}
	}
}

// FromNormal returns the direction closest to n.
func FromNormal(n [3]float32) Direction {
	best, bestDot := Up, float32(-2)
	for _, d := range AllDirections {
		dn := d.Normal()
		if dot := dn[0]*n[0] + dn[1]*n[1] + dn[2]*n[2]; dot > bestDot {
			best, bestDot = d, dot
		}
	}
	return best
}
