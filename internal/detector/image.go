package detector

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// prepareImage downscales the image so its longer edge fits within maxDim
// and returns the bytes to upload plus the factor that maps detector
// coordinates back to the original pixel space. Images already within
// bounds pass through untouched with a factor of 1.
func prepareImage(data []byte, maxDim int) ([]byte, float64, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxDim && height <= maxDim {
		return data, 1, nil
	}

	var newWidth, newHeight int
	var scale float64
	if width > height {
		newWidth = maxDim
		newHeight = int(float64(height) * float64(maxDim) / float64(width))
		scale = float64(width) / float64(maxDim)
	} else {
		newHeight = maxDim
		newWidth = int(float64(width) * float64(maxDim) / float64(height))
		scale = float64(height) / float64(maxDim)
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, 0, fmt.Errorf("failed to encode resized image: %w", err)
	}

	return buf.Bytes(), scale, nil
}
