package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have usable intrinsics parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intrinsics are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// NewIntrinsicsFromHFOV builds square-pixel intrinsics for an image of the given size and horizontal
// field of view in degrees, with the principal point at the image center.
func NewIntrinsicsFromHFOV(width, height int, hfovDeg float64) (*PinholeCameraIntrinsics, error) {
	if hfovDeg <= 0 || hfovDeg >= 180 {
		return nil, NewNoIntrinsicsError(fmt.Sprintf("invalid horizontal field of view %v", hfovDeg))
	}
	f := (float64(width) / 2) / math.Tan(DegToRad(hfovDeg)/2)
	params := &PinholeCameraIntrinsics{
		Width:  width,
		Height: height,
		Fx:     f,
		Fy:     f,
		Ppx:    float64(width-1) / 2,
		Ppy:    float64(height-1) / 2,
	}
	return params, params.CheckValid()
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width <= 0 || params.Height <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// Scaled returns intrinsics for the same camera after downscaling the image by an integer factor.
func (params *PinholeCameraIntrinsics) Scaled(factor int) *PinholeCameraIntrinsics {
	if factor <= 1 {
		cp := *params
		return &cp
	}
	k := float64(factor)
	return &PinholeCameraIntrinsics{
		Width:  params.Width / factor,
		Height: params.Height / factor,
		Fx:     params.Fx / k,
		Fy:     params.Fy / k,
		Ppx:    (params.Ppx+0.5)/k - 0.5,
		Ppy:    (params.Ppy+0.5)/k - 0.5,
	}
}

// PixelToPoint transforms a pixel with depth to a 3D point in the camera frame
// (x right, y down, z forward).
func (params *PinholeCameraIntrinsics) PixelToPoint(x, y, z float64) (float64, float64, float64) {
	if params == nil {
		return 0, 0, 0
	}
	xOverZ := (x - params.Ppx) / params.Fx
	yOverZ := (y - params.Ppy) / params.Fy
	return xOverZ * z, yOverZ * z, z
}

// PointToPixel projects a 3D camera-frame point to a pixel in the image plane.
func (params *PinholeCameraIntrinsics) PointToPixel(x, y, z float64) (float64, float64) {
	if z != 0. {
		xPx := math.Round((x/z)*params.Fx + params.Ppx)
		yPx := math.Round((y/z)*params.Fy + params.Ppy)
		return xPx, yPx
	}
	// zero depth returns negative coordinates so bounds checks filter it out
	return -1.0, -1.0
}

// CameraExtrinsics places the camera on the robot body: a height above the floor and a downward
// tilt about the body's left axis. Positive tilt looks toward the floor.
type CameraExtrinsics struct {
	HeightCM float64 `json:"height_cm"`
	TiltRad  float64 `json:"tilt_rad"`

	rotation *mat.Dense
}

// NewCameraExtrinsics returns extrinsics with the camera-to-body rotation precomputed.
func NewCameraExtrinsics(heightCM, tiltRad float64) *CameraExtrinsics {
	// optical axes (x right, y down, z forward) to level body axes (x forward, y left, z up)
	optical := mat.NewDense(3, 3, []float64{
		0, 0, 1,
		-1, 0, 0,
		0, -1, 0,
	})
	sin, cos := math.Sincos(tiltRad)
	pitch := mat.NewDense(3, 3, []float64{
		cos, 0, sin,
		0, 1, 0,
		-sin, 0, cos,
	})
	var rot mat.Dense
	rot.Mul(pitch, optical)
	return &CameraExtrinsics{HeightCM: heightCM, TiltRad: tiltRad, rotation: &rot}
}

// Rotation returns the 3x3 camera-to-body rotation.
func (ext *CameraExtrinsics) Rotation() mat.Matrix {
	if ext.rotation == nil {
		return NewCameraExtrinsics(ext.HeightCM, ext.TiltRad).rotation
	}
	return ext.rotation
}

// CameraToBody transforms a batch of camera-frame points into the body frame, where z is the
// height above the floor.
func (ext *CameraExtrinsics) CameraToBody(points []r3.Vector) []r3.Vector {
	if len(points) == 0 {
		return nil
	}
	data := make([]float64, 0, 3*len(points))
	for _, p := range points {
		data = append(data, p.X, p.Y, p.Z)
	}
	camera := mat.NewDense(len(points), 3, data)

	var body mat.Dense
	body.Mul(camera, ext.Rotation().T())

	out := make([]r3.Vector, len(points))
	for i := range out {
		out[i] = r3.Vector{
			X: body.At(i, 0),
			Y: body.At(i, 1),
			Z: body.At(i, 2) + ext.HeightCM,
		}
	}
	return out
}
