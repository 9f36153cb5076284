package field

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	overlayWidth   = 800
	overlayMinH    = 100
	summaryHeight  = 60
	overlayQuality = 90
)

var errNoAnalysis = errors.New("field: no analysis to render")

// WriteOverlay renders the zone grid of a as a JPEG image sized after a
// width x height frame.
func WriteOverlay(w io.Writer, a *Analysis, width, height int) error {
	img, err := Render(a, width, height)
	if err != nil {
		return err
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: overlayQuality})
}

// WriteOverlayFile is WriteOverlay to a file.
func WriteOverlayFile(path string, a *Analysis, width, height int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create overlay file: %w", err)
	}
	if err := WriteOverlay(f, a, width, height); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// canvas wraps the target image with the drawing primitives the overlay needs.
type canvas struct {
	*image.RGBA
	face font.Face
}

// Render draws each zone shaded by its FWHM relative to the center zone, a
// circle scaled by the zone FWHM, an arrow from the best to the worst corner
// and a summary strip.
func Render(a *Analysis, width, height int) (*image.RGBA, error) {
	if a == nil {
		return nil, errNoAnalysis
	}

	scale := float64(overlayWidth) / float64(width)
	imgW := overlayWidth
	imgH := max(int(float64(height)*scale), overlayMinH)
	c := canvas{RGBA: image.NewRGBA(image.Rect(0, 0, imgW, imgH+summaryHeight)), face: basicfont.Face7x13}
	draw.Draw(c.RGBA, c.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	xLo := int(float64(imgW) * fieldEdgeFraction)
	xHi := int(float64(imgW) * (1 - fieldEdgeFraction))
	yLo := int(float64(imgH) * fieldEdgeFraction)
	yHi := int(float64(imgH) * (1 - fieldEdgeFraction))
	cols := [3][2]int{{0, xLo}, {xLo, xHi}, {xHi, imgW}}
	rows := [3][2]int{{0, yLo}, {yLo, yHi}, {yHi, imgH}}
	cell := func(z Zone) image.Rectangle {
		r, col := int(z)/3, int(z)%3
		return image.Rect(cols[col][0], rows[r][0], cols[col][1], rows[r][1])
	}

	center := a.Zones[ZoneCenter].MedianFWHM
	if center <= 0 {
		center = 1
	}
	for _, z := range Zones {
		draw.Draw(c.RGBA, cell(z), image.NewUniform(fwhmColor(a.Zones[z].MedianFWHM, center)), image.Point{}, draw.Src)
	}

	grid := color.RGBA{255, 255, 255, 180}
	c.line(0, yLo, imgW-1, yLo, grid, false)
	c.line(0, yHi, imgW-1, yHi, grid, false)
	c.line(xLo, 0, xLo, imgH-1, grid, false)
	c.line(xHi, 0, xHi, imgH-1, grid, false)

	white := color.RGBA{255, 255, 255, 255}
	for _, z := range Zones {
		zs := a.Zones[z]
		r := cell(z)
		cx, cy := (r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2
		if zs.MedianFWHM > 0 {
			radius := min(max(int(zs.MedianFWHM*scale*3), 3), r.Dx()/3)
			c.circle(cx, cy, radius, color.RGBA{255, 255, 255, 200})
		}
		c.centered(zs.Label, cx, cy-14, white)
		c.centered(fmt.Sprintf("FWHM: %.2f", zs.MedianFWHM), cx, cy+2, white)
		c.centered(fmt.Sprintf("n=%d", zs.StarCount), cx, cy+16, white)
	}

	if a.BestCorner != "" && a.WorstCorner != "" {
		b, w := cell(cornerZone(a.BestCorner)), cell(cornerZone(a.WorstCorner))
		bx, by := (b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2
		wx, wy := (w.Min.X+w.Max.X)/2, (w.Min.Y+w.Max.Y)/2
		red := color.RGBA{255, 80, 80, 255}
		c.line(bx, by, wx, wy, red, true)
		c.arrowHead(bx, by, wx, wy, red)
	}

	grey := color.RGBA{220, 220, 220, 255}
	c.text(fmt.Sprintf("Tilt: %.1f%%  (worst: %s, best: %s)", a.TiltPct, a.WorstCorner, a.BestCorner), 10, imgH+15, grey)
	summary := fmt.Sprintf("Off-axis: %.1f%%  FWHM: %.2f px  stars: %d", a.OffAxisPct, a.MedianFWHM, a.Stars)
	if !a.Reliable {
		summary += "  [LOW STAR COUNT - UNRELIABLE]"
	}
	c.text(summary, 10, imgH+33, grey)
	return c.RGBA, nil
}

// fwhmColor shades from green (at or below 1.1x center) through yellow to red
// (1.6x and worse).
func fwhmColor(zone, center float64) color.RGBA {
	if zone <= 0 || center <= 0 {
		return color.RGBA{40, 40, 40, 255}
	}
	ratio := zone / center
	switch {
	case ratio <= 1.1:
		t := ratio / 1.1
		return color.RGBA{uint8(t * 30), uint8(60 + t*40), 20, 255}
	case ratio <= 1.3:
		t := (ratio - 1.1) / 0.2
		return color.RGBA{uint8(30 + t*170), uint8(100 - t*20), 20, 255}
	default:
		t := math.Min((ratio-1.3)/0.3, 1.0)
		return color.RGBA{uint8(200 + t*55), uint8(80 - t*60), uint8(20 - t*10), 255}
	}
}

func cornerZone(label string) Zone {
	for _, z := range cornerPositions {
		if z.String() == label {
			return z
		}
	}
	return ZoneCenter
}

func (c canvas) text(s string, x, y int, col color.RGBA) {
	d := &font.Drawer{Dst: c.RGBA, Src: image.NewUniform(col), Face: c.face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

func (c canvas) centered(s string, cx, cy int, col color.RGBA) {
	c.text(s, cx-font.MeasureString(c.face, s).Round()/2, cy, col)
}

// circle draws an outline with the midpoint algorithm.
func (c canvas) circle(cx, cy, radius int, col color.RGBA) {
	x, y, e := radius, 0, 0
	for x >= y {
		for _, p := range [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}} {
			c.Set(cx+p[0], cy+p[1], col)
		}
		y++
		e += 1 + 2*y
		if 2*(e-x)+1 > 0 {
			x--
			e += 1 - 2*x
		}
	}
}

// line draws a Bresenham line, optionally thickened to three pixels.
func (c canvas) line(x0, y0, x1, y1 int, col color.RGBA, thick bool) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.Set(x0, y0, col)
		if thick {
			c.Set(x0+1, y0, col)
			c.Set(x0, y0+1, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c canvas) arrowHead(x0, y0, x1, y1 int, col color.RGBA) {
	dx, dy := float64(x1-x0), float64(y1-y0)
	length := math.Hypot(dx, dy)
	if length < 1 {
		return
	}
	dx, dy = dx/length, dy/length
	const size = 15.0
	px, py := float64(x1)-dx*size, float64(y1)-dy*size
	c.line(x1, y1, int(px+dy*size*0.4), int(py-dx*size*0.4), col, true)
	c.line(x1, y1, int(px-dy*size*0.4), int(py+dx*size*0.4), col, true)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
