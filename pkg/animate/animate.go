// Package animate moves shapes along keyframed paths and drives the
// rendering of frame sequences.
package animate

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/df07/go-recursive-raytracer/pkg/core"
	"github.com/df07/go-recursive-raytracer/pkg/geometry"
)

// ErrNoKeyframes is returned when a track is built without keyframes
var ErrNoKeyframes = errors.New("animation needs at least one keyframe")

// Keyframe pins a position to a frame number
type Keyframe struct {
	Frame    int
	Position core.Vec3
}

// Keyframes is a position track sorted by frame
type Keyframes struct {
	keys []Keyframe
}

// NewKeyframes sorts the keyframes by frame. Two keyframes on the same frame are an error.
func NewKeyframes(keys ...Keyframe) (*Keyframes, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeyframes
	}
	sorted := append([]Keyframe(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Frame == sorted[i-1].Frame {
			return nil, fmt.Errorf("duplicate keyframe at frame %d", sorted[i].Frame)
		}
	}
	return &Keyframes{keys: sorted}, nil
}

// Range returns the first and last keyed frame
func (k *Keyframes) Range() (int, int) {
	return k.keys[0].Frame, k.keys[len(k.keys)-1].Frame
}

// Position linearly interpolates between the surrounding keyframes and
// holds the first or last position outside the keyed range
func (k *Keyframes) Position(frame float64) core.Vec3 {
	first, last := k.keys[0], k.keys[len(k.keys)-1]
	if frame <= float64(first.Frame) {
		return first.Position
	}
	if frame >= float64(last.Frame) {
		return last.Position
	}

	i := sort.Search(len(k.keys), func(i int) bool { return float64(k.keys[i].Frame) > frame })
	a, b := k.keys[i-1], k.keys[i]
	t := (frame - float64(a.Frame)) / float64(b.Frame-a.Frame)

	from := mgl64.Vec3{a.Position.X, a.Position.Y, a.Position.Z}
	to := mgl64.Vec3{b.Position.X, b.Position.Y, b.Position.Z}
	p := from.Add(to.Sub(from).Mul(t))
	return core.NewVec3(p.X(), p.Y(), p.Z())
}

// Track binds a movable shape to a keyframed path
type Track struct {
	Shape geometry.Movable
	Keys  *Keyframes
}

// At returns a copy of the shape placed for the given frame
func (t Track) At(frame int) geometry.Shape {
	return t.Shape.MoveTo(t.Keys.Position(float64(frame)))
}

// Animate calls render for every frame in [first, last] in order. It stops
// at the first error, or with the context's error once ctx is done.
func Animate(ctx context.Context, first, last int, render func(ctx context.Context, frame int) error) error {
	if last < first {
		return fmt.Errorf("empty frame range %d..%d", first, last)
	}
	for frame := first; frame <= last; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := render(ctx, frame); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	return nil
}
