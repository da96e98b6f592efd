package loader

import (
	"image"
	"math"

	"github.com/Carmen-Shannon/oxy-pano/common"
	"golang.org/x/image/draw"
)

// MergePanoData computes how an image of the given size maps onto the full sphere.
// Without explicit data the image is centred on a 2:1 canvas at least as wide as the image.
// Explicit data is completed from the image size and corrected when incoherent; every correction is
// logged as a warning.
//
// Parameters:
//   - width: the image width in pixels
//   - height: the image height in pixels
//   - explicit: caller supplied data, or nil
//
// Returns:
//   - common.PanoData: the coherent panorama data
func MergePanoData(width, height int, explicit *common.PanoData) common.PanoData {
	var src common.PanoData
	if explicit != nil {
		src = *explicit
	} else {
		fullWidth := max(width, height*2)
		fullHeight := int(math.Round(float64(fullWidth) / 2))
		src = common.PanoData{
			FullWidth:     fullWidth,
			FullHeight:    fullHeight,
			CroppedWidth:  width,
			CroppedHeight: height,
			CroppedX:      int(math.Round(float64(fullWidth-width) / 2)),
			CroppedY:      int(math.Round(float64(fullHeight-height) / 2)),
		}
	}

	pd := src
	pd.CroppedWidth = common.Coalesce(src.CroppedWidth, width)
	pd.CroppedHeight = common.Coalesce(src.CroppedHeight, height)

	if pd.FullWidth == 0 && pd.FullHeight != 0 {
		pd.FullWidth = pd.FullHeight * 2
	} else if pd.FullWidth == 0 || pd.FullHeight == 0 {
		pd.FullWidth = common.Coalesce(pd.FullWidth, width)
		pd.FullHeight = common.Coalesce(pd.FullHeight, height)
	}

	log := common.Logger()
	if pd.CroppedWidth != width || pd.CroppedHeight != height {
		log.Warn("loader: cropped size is not coherent with the loaded image",
			"cropped_width", pd.CroppedWidth, "cropped_height", pd.CroppedHeight,
			"width", width, "height", height)
	}
	if abs(pd.FullWidth-pd.FullHeight*2) > 1 {
		log.Warn("loader: full width should be twice full height", "full_width", pd.FullWidth, "full_height", pd.FullHeight)
		pd.FullHeight = int(math.Round(float64(pd.FullWidth) / 2))
	}
	if pd.CroppedX+pd.CroppedWidth > pd.FullWidth {
		log.Warn("loader: cropped area exceeds full width", "cropped_x", pd.CroppedX)
		pd.CroppedX = pd.FullWidth - pd.CroppedWidth
	}
	if pd.CroppedY+pd.CroppedHeight > pd.FullHeight {
		log.Warn("loader: cropped area exceeds full height", "cropped_y", pd.CroppedY)
		pd.CroppedY = pd.FullHeight - pd.CroppedHeight
	}
	if pd.CroppedX < 0 {
		log.Warn("loader: negative cropped x", "cropped_x", pd.CroppedX)
		pd.CroppedX = 0
	}
	if pd.CroppedY < 0 {
		log.Warn("loader: negative cropped y", "cropped_y", pd.CroppedY)
		pd.CroppedY = 0
	}
	return pd
}

// Downscale shrinks img proportionally so its width does not exceed maxWidth.
// Images already within the limit are returned unchanged.
//
// Parameters:
//   - img: the source image
//   - maxWidth: the width limit in pixels
//
// Returns:
//   - image.Image: the original or a scaled copy
func Downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	ratio := float64(maxWidth) / float64(b.Dx())
	w := int(math.Floor(float64(b.Dx()) * ratio))
	h := max(int(math.Floor(float64(b.Dy())*ratio)), 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
