package model

import (
	"errors"
	"fmt"
)

// ErrInvalidRotation is returned for rotations that are not multiples of 90.
var ErrInvalidRotation = errors.New("rotation must be 0, 90, 180 or 270 degrees")

// BakeSettings carries the model rotation applied while baking.
// X is applied before Y, both around the block centre.
type BakeSettings struct {
	X      int  `yaml:"x"`
	Y      int  `yaml:"y"`
	UVLock bool `yaml:"uvlock"`
}

// Rotate0 is the identity setting.
var Rotate0 = BakeSettings{}

// Validate checks the rotation angles.
func (s BakeSettings) Validate() error {
	for _, a := range []int{s.X, s.Y} {
		if a < 0 || a >= 360 || a%90 != 0 {
			return fmt.Errorf("%w: got x=%d y=%d", ErrInvalidRotation, s.X, s.Y)
		}
	}
	return nil
}

// Then composes s with an outer rotation.
func (s BakeSettings) Then(outer BakeSettings) BakeSettings {
	return BakeSettings{
		X:      (s.X + outer.X) % 360,
		Y:      (s.Y + outer.Y) % 360,
		UVLock: s.UVLock || outer.UVLock,
	}
}

// IsIdentity reports whether s rotates nothing.
func (s BakeSettings) IsIdentity() bool {
	return s.X == 0 && s.Y == 0
}

// RotatePoint rotates a model-space point (0..16 cube) around (8, 8, 8).
func (s BakeSettings) RotatePoint(p [3]float32) [3]float32 {
	x, y, z := p[0]-8, p[1]-8, p[2]-8
	for i := 0; i < s.X/90; i++ {
		y, z = -z, y
	}
	for i := 0; i < s.Y/90; i++ {
		x, z = -z, x
	}
	return [3]float32{x + 8, y + 8, z + 8}
}

// RotateNormal rotates a direction vector without translation.
func (s BakeSettings) RotateNormal(n [3]float32) [3]float32 {
	x, y, z := n[0], n[1], n[2]
	for i := 0; i < s.X/90; i++ {
		y, z = -z, y
	}
	for i := 0; i < s.Y/90; i++ {
		x, z = -z, x
	}
	return [3]float32{x, y, z}
}

// RotateDirection maps a face direction through the rotation.
func (s BakeSettings) RotateDirection(d Direction) Direction {
	return FromNormal(s.RotateNormal(d.Normal()))
}
