package analyzer

import (
	"image"
	"image/draw"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// pixelStats holds global pixel statistics shared by several analyzers.
type pixelStats struct {
	avgLuminance  float64
	avgSaturation float64
	avgHue        float64
	avgR          float64
	avgG          float64
	avgB          float64
}

// computePixelStats walks the image in horizontal strips, one goroutine per
// strip, and aggregates the per-strip sums.
func computePixelStats(img image.Image) pixelStats {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return pixelStats{}
	}

	numWorkers := runtime.NumCPU()
	if height < numWorkers {
		numWorkers = height
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers

	type stripSums struct {
		lum, sat, hue, r, g, b float64
		pixels                 int
	}

	results := make(chan stripSums, numWorkers)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		startY := bounds.Min.Y + i*rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > bounds.Max.Y {
			endY = bounds.Max.Y
		}
		go func(startY, endY int) {
			defer wg.Done()

			var s stripSums
			for y := startY; y < endY; y++ {
				for x := bounds.Min.X; x < bounds.Max.X; x++ {
					rVal, gVal, bVal, _ := img.At(x, y).RGBA()
					rf := float64(rVal) / 65535.0
					gf := float64(gVal) / 65535.0
					bf := float64(bVal) / 65535.0

					h, sat, v := rgbToHSV(rf, gf, bf)
					s.hue += h
					s.sat += sat
					s.lum += v
					s.r += rf
					s.g += gf
					s.b += bf
					s.pixels++
				}
			}
			results <- s
		}(startY, endY)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var total stripSums
	for s := range results {
		total.lum += s.lum
		total.sat += s.sat
		total.hue += s.hue
		total.r += s.r
		total.g += s.g
		total.b += s.b
		total.pixels += s.pixels
	}
	if total.pixels == 0 {
		return pixelStats{}
	}

	n := float64(total.pixels)
	return pixelStats{
		avgLuminance:  total.lum / n,
		avgSaturation: total.sat / n,
		avgHue:        total.hue / n,
		avgR:          total.r / n,
		avgG:          total.g / n,
		avgB:          total.b / n,
	}
}

// toGray renders the image into a fresh grayscale buffer.
func toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// laplacianVariance measures sharpness. Kernel: [0,1,0; 1,-4,1; 0,1,0].
func laplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	// The buffer keeps the source bounds, which need not start at (0,0).
	minX, minY := bounds.Min.X, bounds.Min.Y
	data := make([]float64, 0, (width-2)*(height-2))
	for y := minY + 1; y < minY+height-1; y++ {
		for x := minX + 1; x < minX+width-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			data = append(data, -4*center+top+bottom+left+right)
		}
	}
	if len(data) == 0 {
		return 0
	}
	return stat.Variance(data, nil)
}

// sobelX computes the horizontal Sobel gradient at (x, y).
func sobelX(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) + 1*int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-1*int(gray.GrayAt(x-1, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

// sobelY computes the vertical Sobel gradient at (x, y).
func sobelY(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - 1*int(gray.GrayAt(x+1, y-1).Y) +
		1*int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

// edgeMagnitude returns the Sobel gradient magnitude at (x, y).
func edgeMagnitude(gray *image.Gray, x, y int) float64 {
	gx := sobelX(gray, x, y)
	gy := sobelY(gray, x, y)
	return math.Sqrt(float64(gx*gx + gy*gy))
}

// regionMeanGray averages the grayscale values inside the given rectangle,
// clipped to image bounds.
func regionMeanGray(gray *image.Gray, rect image.Rectangle) float64 {
	rect = rect.Intersect(gray.Bounds())
	if rect.Empty() {
		return 0
	}
	var sum float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sum += float64(gray.GrayAt(x, y).Y)
		}
	}
	return sum / float64(rect.Dx()*rect.Dy())
}

// fitLineAngle runs a least-squares fit over the points and returns the line
// angle in degrees, normalized to [-45, 45].
func fitLineAngle(xCoords, yCoords []float64) float64 {
	if len(xCoords) < 2 || len(yCoords) < 2 {
		return 0
	}

	meanX := stat.Mean(xCoords, nil)
	meanY := stat.Mean(yCoords, nil)

	var sumXY, sumX2 float64
	for i := 0; i < len(xCoords); i++ {
		dx := xCoords[i] - meanX
		dy := yCoords[i] - meanY
		sumXY += dx * dy
		sumX2 += dx * dx
	}
	if math.Abs(sumX2) < 1e-10 {
		return 0
	}

	angle := math.Atan(sumXY/sumX2) * 180 / math.Pi
	if math.IsNaN(angle) || math.IsInf(angle, 0) {
		return 0
	}
	for angle > 45 {
		angle -= 90
	}
	for angle < -45 {
		angle += 90
	}
	return angle
}

// rgbToHSV converts normalized RGB to HSV.
func rgbToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max

	if max == 0 {
		s = 0
	} else {
		s = delta / max
	}

	if delta == 0 {
		h = 0
	} else if max == r {
		h = 60 * (((g - b) / delta) + 0)
	} else if max == g {
		h = 60 * (((b - r) / delta) + 2)
	} else {
		h = 60 * (((r - g) / delta) + 4)
	}

	if h < 0 {
		h += 360
	}

	return h, s, v
}
