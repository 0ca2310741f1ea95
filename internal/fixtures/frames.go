package fixtures

import (
	"embed"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

//go:embed frames/*
var framesFS embed.FS

// Scene layout of frames/scene.png, an 8-bit depth frame on a zero
// background.
var (
	// ScenePerson is filled with depth 180, inside the default band.
	ScenePerson = image.Rect(100, 150, 220, 350)
	// SceneSmall is filled with depth 180 but is below the default blob area.
	SceneSmall = image.Rect(400, 300, 440, 340)
	// SceneFar is filled with depth 60, beyond the default far threshold.
	SceneFar = image.Rect(500, 50, 580, 130)
	// SceneNear is filled with depth 250, closer than the default near threshold.
	SceneNear = image.Rect(300, 100, 360, 160)
)

// LoadDepthFrame loads an embedded depth frame by name as an 8-bit
// single-channel Mat.
func LoadDepthFrame(name string) (gocv.Mat, error) {
	data, err := framesFS.ReadFile("frames/" + name)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("load frame %s: %w", name, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode frame %s: %w", name, err)
	}
	if mat.Empty() {
		return gocv.Mat{}, fmt.Errorf("decode frame %s: empty image", name)
	}

	return mat, nil
}
