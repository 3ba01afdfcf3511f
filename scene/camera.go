package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	maxPitch   = 89 * math32.Pi / 180
	defaultYaw = -90 * math32.Pi / 180

	defaultFOV  = 45
	defaultNear = 0.1
	defaultFar  = 100
)

// Camera is a yaw/pitch fly camera. Front, Right and Up are derived from
// yaw, pitch and the world up vector and are refreshed by every mutator.
// The zero value is the camera NewCamera returns, and zero FOV, Near or
// Far select their defaults.
type Camera struct {
	position mgl32.Vec3
	worldUp  mgl32.Vec3
	yaw      float32
	pitch    float32

	front mgl32.Vec3
	right mgl32.Vec3
	up    mgl32.Vec3
	ready bool

	// FOV is the vertical field of view in degrees.
	FOV       float32
	Near, Far float32
}

// NewCamera returns a camera at the origin looking down -Z.
func NewCamera() *Camera {
	return NewCameraAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, defaultYaw, 0)
}

func NewCameraAt(position, worldUp mgl32.Vec3, yaw, pitch float32) *Camera {
	c := &Camera{
		position: position,
		worldUp:  worldUp,
		yaw:      yaw,
		pitch:    clampPitch(pitch),
		FOV:      defaultFOV,
		Near:     defaultNear,
		Far:      defaultFar,
	}
	c.updateVectors()
	return c
}

func (*Camera) Kind() Kind { return KindCamera }
func (*Camera) component() {}

func clampPitch(p float32) float32 {
	return mgl32.Clamp(p, -maxPitch, maxPitch)
}

// ensure gives a zero value NewCamera's orientation.
func (c *Camera) ensure() {
	if c.ready {
		return
	}
	c.worldUp = mgl32.Vec3{0, 1, 0}
	c.yaw = defaultYaw
	c.updateVectors()
}

func (c *Camera) updateVectors() {
	c.ready = true
	sy, cy := math32.Sincos(c.yaw)
	sp, cp := math32.Sincos(c.pitch)
	c.front = mgl32.Vec3{cy * cp, sp, sy * cp}.Normalize()
	c.right = c.front.Cross(c.worldUp).Normalize()
	c.up = c.right.Cross(c.front).Normalize()
}

func (c *Camera) Position() mgl32.Vec3 { return c.position }
func (c *Camera) Pitch() float32       { return c.pitch }

func (c *Camera) Front() mgl32.Vec3 {
	c.ensure()
	return c.front
}

func (c *Camera) Right() mgl32.Vec3 {
	c.ensure()
	return c.right
}

func (c *Camera) Up() mgl32.Vec3 {
	c.ensure()
	return c.up
}

func (c *Camera) Yaw() float32 {
	c.ensure()
	return c.yaw
}

func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.ensure()
	c.position = p
	c.updateVectors()
}

// Translate moves the camera by v in world space.
func (c *Camera) Translate(v mgl32.Vec3) {
	c.SetPosition(c.position.Add(v))
}

func (c *Camera) SetYaw(rad float32) {
	c.ensure()
	c.yaw = rad
	c.updateVectors()
}

// SetPitch sets the pitch, clamped to +/-89 degrees.
func (c *Camera) SetPitch(rad float32) {
	c.ensure()
	c.pitch = clampPitch(rad)
	c.updateVectors()
}

// Rotate adds to yaw and pitch.
func (c *Camera) Rotate(dyaw, dpitch float32) {
	c.ensure()
	c.yaw += dyaw
	c.pitch = clampPitch(c.pitch + dpitch)
	c.updateVectors()
}

func (c *Camera) SetWorldUp(up mgl32.Vec3) {
	c.ensure()
	c.worldUp = up
	c.updateVectors()
}

// ViewMatrix is a right-handed look-at from the camera position along Front.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	c.ensure()
	return mgl32.LookAtV(c.position, c.position.Add(c.front), c.up)
}

// Projection is a perspective projection for the given aspect ratio.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	fov, near, far := c.FOV, c.Near, c.Far
	if fov == 0 {
		fov = defaultFOV
	}
	if near == 0 {
		near = defaultNear
	}
	if far == 0 {
		far = defaultFar
	}
	return mgl32.Perspective(mgl32.DegToRad(fov), aspect, near, far)
}
