package render

import (
	"image"
	"image/color"
	"math"
)

var (
	graticuleColor = color.NRGBA{R: 128, G: 128, B: 128, A: 100}
	coastColor     = color.NRGBA{R: 40, G: 40, B: 40, A: 220}
)

// DrawGraticule draws longitude and latitude lines at multiples of
// every degrees over the bounding box.
func DrawGraticule(img *image.NRGBA, b BBox, every float64) {
	if every <= 0 {
		every = 30
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	lonSpan := b.MaxLon - b.MinLon
	latSpan := b.MaxLat - b.MinLat

	start := math.Ceil(b.MinLon/every) * every
	for lon := start; lon <= b.MaxLon; lon += every {
		x := int((lon - b.MinLon) / lonSpan * float64(w))
		for y := 0; y < h; y++ {
			setPixel(img, x, y, graticuleColor)
		}
	}
	start = math.Ceil(b.MinLat/every) * every
	for lat := start; lat <= b.MaxLat; lat += every {
		y := int((b.MaxLat - lat) / latSpan * float64(h))
		for x := 0; x < w; x++ {
			setPixel(img, x, y, graticuleColor)
		}
	}
}

// DrawCoastlines draws a coarse world coastline over the bounding box.
// Longitudes are shifted by whole circles into the box's window, and
// segments that would jump across the seam are skipped.
func DrawCoastlines(img *image.NRGBA, b BBox) {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	lonSpan := b.MaxLon - b.MinLon
	latSpan := b.MaxLat - b.MinLat

	for _, line := range coastlines {
		px := -1
		py := -1
		prevLon := math.NaN()
		for i := 0; i+1 < len(line); i += 2 {
			lon := NormalizeLon(line[i], b.MinLon)
			lat := line[i+1]
			x := int((lon - b.MinLon) / lonSpan * float64(w))
			y := int((b.MaxLat - lat) / latSpan * float64(h))
			if px >= 0 && math.Abs(lon-prevLon) < 180 {
				drawLine(img, px, py, x, y, coastColor)
			}
			px, py, prevLon = x, y, lon
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}

func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setPixel(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// coastlines holds very coarse continental outlines as flat lon,lat
// pairs. Enough to orient a reader, not a cartographic product.
var coastlines = [][]float64{
	// North America
	{-166, 66, -156, 71, -130, 70, -128, 60, -124, 49, -124, 40, -117, 33,
		-110, 24, -105, 20, -97, 26, -90, 29, -84, 30, -81, 25, -80, 32,
		-76, 35, -70, 42, -66, 45, -60, 46, -56, 52, -65, 60, -78, 62,
		-85, 66, -95, 69, -110, 68, -125, 70},
	// South America
	{-77, 8, -80, -3, -75, -15, -70, -18, -72, -34, -74, -45, -71, -54,
		-65, -55, -63, -42, -58, -34, -48, -28, -40, -23, -35, -9, -44, -3,
		-50, 0, -52, 5, -61, 9, -64, 10, -72, 12, -77, 8},
	// Africa
	{-6, 35, -10, 30, -17, 21, -17, 15, -12, 8, -4, 5, 8, 4, 9, -2,
		12, -6, 12, -18, 14, -23, 18, -33, 20, -35, 27, -33, 33, -26,
		35, -20, 40, -15, 40, -10, 44, -1, 51, 11, 44, 11, 43, 15,
		38, 18, 33, 28, 32, 31, 23, 32, 10, 34, 0, 36, -6, 35},
	// Europe
	{-9, 37, -9, 43, -2, 44, -5, 48, 0, 49, 4, 52, 8, 54, 10, 57,
		18, 60, 25, 65, 28, 70, 40, 67, 44, 66},
	// Asia
	{44, 66, 60, 69, 75, 72, 95, 76, 110, 74, 130, 71, 150, 70, 160, 69,
		170, 66, 179, 65, 178, 62, 162, 60, 156, 51, 142, 53, 135, 44,
		128, 39, 122, 37, 121, 30, 115, 22, 108, 17, 106, 10, 100, 13,
		98, 8, 103, 2, 97, 6, 94, 16, 88, 22, 86, 20, 80, 15, 77, 8,
		73, 20, 67, 24, 62, 25, 57, 26, 53, 24, 48, 30, 35, 36, 27, 37,
		26, 40, 30, 41, 37, 41, 40, 43, 48, 42, 50, 45, 53, 47},
	// Australia
	{114, -22, 114, -34, 118, -35, 124, -33, 130, -32, 136, -35, 140, -38,
		146, -39, 150, -37, 153, -32, 153, -27, 149, -20, 145, -15, 142, -11,
		139, -17, 136, -12, 131, -12, 126, -14, 122, -18, 114, -22},
	// Greenland
	{-45, 60, -53, 66, -55, 70, -56, 76, -60, 76, -68, 77, -58, 82,
		-40, 83, -25, 82, -22, 76, -20, 70, -32, 68, -42, 62, -45, 60},
	// Antarctica
	{-60, -64, -45, -70, -20, -72, 0, -70, 30, -69, 60, -67, 90, -66,
		120, -66, 150, -68, 170, -72, 179, -78},
}
