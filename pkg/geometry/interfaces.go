package geometry

import (
	"errors"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/material"
)

// ErrInvalidShape is returned for shapes that violate their construction invariants
var ErrInvalidShape = errors.New("invalid shape")

// Shape interface for objects that can be hit by rays.
// A hit is reported only when its parameter lies strictly inside (tMin, tMax).
type Shape interface {
	Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)
}

// Movable is implemented by shapes that can be relocated for animation
type Movable interface {
	Shape
	MoveTo(position core.Vec3) Shape
}
