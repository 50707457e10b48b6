package loader

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-sprites/common"
	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"golang.org/x/image/webp"
)

// Decoder turns an image file into RGBA8 pixels ready for upload. Decoders run on worker goroutines.
type Decoder func(path string) (common.TextureStagingData, error)

// DecodeImage is the default Decoder. PNG, JPEG and BMP go through imgio; WebP is decoded directly.
//
// Parameters:
//   - path: the image file to decode
//
// Returns:
//   - common.TextureStagingData: tightly packed RGBA8 rows, top row first
//   - error: error if the file cannot be opened or decoded
func DecodeImage(path string) (common.TextureStagingData, error) {
	var (
		img image.Image
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".webp") {
		img, err = openWebP(path)
	} else {
		img, err = imgio.Open(path)
	}
	if err != nil {
		return common.TextureStagingData{}, err
	}
	return StagingFromImage(img)
}

// StagingFromImage converts any image into tightly packed RGBA8 staging data.
func StagingFromImage(img image.Image) (common.TextureStagingData, error) {
	rgba := clone.AsRGBA(img)
	bounds := rgba.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return common.TextureStagingData{}, fmt.Errorf("empty image")
	}
	return common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}

func openWebP(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return webp.Decode(f)
}
