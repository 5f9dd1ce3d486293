package artifacts

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"codeberg.org/go-fonts/liberation/liberationsansregular"
	"github.com/psykhi/wordclouds"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"sentica-backend/internal/table"
)

const (
	cloudMaxWords = 150
	cloudWidth    = 1200
	cloudHeight   = 800
	cloudMaxFont  = 160
	cloudMinFont  = 20
)

// errCloudEmpty reports a layout that placed no word at all.
var errCloudEmpty = errors.New("word cloud placed nothing")

var (
	cloudFontOnce sync.Once
	cloudFontPath string
	cloudFontErr  error
)

// cloudFont materializes the bundled Liberation Sans face once per process,
// since wordclouds loads its font from a path.
func cloudFont() (string, error) {
	cloudFontOnce.Do(func() {
		dir, err := os.MkdirTemp("", "sentica-fonts")
		if err != nil {
			cloudFontErr = err
			return
		}
		path := filepath.Join(dir, "LiberationSans-Regular.ttf")
		if err := os.WriteFile(path, liberationsansregular.TTF, 0o644); err != nil {
			cloudFontErr = err
			return
		}
		cloudFontPath = path
	})
	return cloudFontPath, cloudFontErr
}

// renderCloud draws counts with wordclouds on the chart background. The
// library panics on font errors, so those come back as errors here.
func renderCloud(counts []table.Count) (img image.Image, err error) {
	if len(counts) == 0 {
		return nil, errCloudEmpty
	}
	font, err := cloudFont()
	if err != nil {
		return nil, fmt.Errorf("cloud font: %w", err)
	}
	if len(counts) > cloudMaxWords {
		counts = counts[:cloudMaxWords]
	}
	words := make(map[string]int, len(counts))
	for _, c := range counts {
		words[c.Key] = c.Count
	}

	defer func() {
		if r := recover(); r != nil {
			img, err = nil, fmt.Errorf("word cloud: %v", r)
		}
	}()
	img = wordclouds.NewWordcloud(words,
		wordclouds.FontFile(font),
		wordclouds.FontMaxSize(cloudMaxFont),
		wordclouds.FontMinSize(cloudMinFont),
		wordclouds.Colors(cloudPalette),
		wordclouds.BackgroundColor(bgColor),
		wordclouds.Width(cloudWidth),
		wordclouds.Height(cloudHeight),
	).Draw()
	if !inked(img, bgColor) {
		return nil, errCloudEmpty
	}
	return img, nil
}

// inked reports whether any pixel differs from the background.
func inked(img image.Image, bg color.Color) bool {
	br, bgG, bb, ba := bg.RGBA()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if r != br || g != bgG || bl != bb || a != ba {
				return true
			}
		}
	}
	return false
}

// cloudPlot frames a rendered cloud with the chart title and theme.
func cloudPlot(title string, img image.Image) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = bgColor
	p.Title.Text = title
	p.Title.TextStyle.Color = fgColor
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.HideAxes()
	b := img.Bounds()
	p.Add(plotter.NewImage(img, 0, 0, float64(b.Dx()), float64(b.Dy())))
	return p
}
