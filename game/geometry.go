// Package game holds the pure world geometry used by the render loop: the
// world-to-screen coordinate mapper and the camera clamp. Nothing here has
// side effects, so the render path can call it every frame without locking.
package game

// World extent in pixels. The server's coordinate space matches the world
// map image one to one.
const (
	WorldWidth  = 2048
	WorldHeight = 2048
)

// Avatar display metrics. Source frames larger than AvatarSize on either
// axis are shrunk to fit, preserving aspect ratio.
const (
	AvatarSize = 64
	// NameTagGap is the space between a name label and the avatar top.
	NameTagGap = 6
	// CullMargin is the off-screen slack kept before a player is skipped.
	CullMargin = AvatarSize
)

// Camera is the world coordinate mapped to the screen's top-left pixel.
type Camera struct {
	X, Y float64
}

// clampAxis clamps v to [0, limit]. A negative limit (viewport larger than
// the world) collapses to 0.
func clampAxis(v, limit float64) float64 {
	if limit < 0 {
		limit = 0
	}
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}

// ClampCamera clamps a desired camera offset so the viewport never shows
// space outside the world: each axis independently lands in
// [0, max(0, world-viewport)].
func ClampCamera(desiredX, desiredY, viewW, viewH, worldW, worldH float64) Camera {
	return Camera{
		X: clampAxis(desiredX, worldW-viewW),
		Y: clampAxis(desiredY, worldH-viewH),
	}
}

// CameraFor centers the viewport on the given world position and clamps the
// result to world bounds.
func CameraFor(px, py, viewW, viewH, worldW, worldH float64) Camera {
	return ClampCamera(px-viewW/2, py-viewH/2, viewW, viewH, worldW, worldH)
}

// ToScreen converts a world position to screen space under cam.
func ToScreen(wx, wy float64, cam Camera) (sx, sy float64) {
	return wx - cam.X, wy - cam.Y
}

// Visible reports whether a screen position lies within the viewport
// extended by margin on every side. Used for cheap draw-call culling; it is
// not correctness critical, so the margin errs generous.
func Visible(sx, sy, viewW, viewH, margin float64) bool {
	return sx >= -margin && sx <= viewW+margin &&
		sy >= -margin && sy <= viewH+margin
}

// FitScale returns the uniform scale that fits a w x h source into a
// maxSize square without growing it. Either source axis exceeding maxSize
// shrinks both, preserving aspect ratio.
func FitScale(w, h, maxSize float64) float64 {
	if w <= 0 || h <= 0 {
		return 1
	}
	scale := 1.0
	if w > maxSize {
		scale = maxSize / w
	}
	if h > maxSize && maxSize/h < scale {
		scale = maxSize / h
	}
	return scale
}
