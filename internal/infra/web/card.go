package web

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cardWidth  = 800
	cardHeight = 450
)

var (
	cardBackground = color.RGBA{0x0b, 0x0b, 0x0b, 0xff}
	cardOrange     = color.RGBA{0xf9, 0x73, 0x16, 0xff}
	cardWhite      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	cardMuted      = color.RGBA{0xb0, 0xb0, 0xb0, 0xff}
)

// CardData is what the exported discount card shows.
type CardData struct {
	Brand        string
	Headline     string
	Code         string
	Registration string
	GeneratedAt  time.Time
	ValidUntil   time.Time
}

// RenderCard writes the discount card as PNG.
func RenderCard(w io.Writer, c CardData) error {
	return png.Encode(w, cardImage(c))
}

func cardImage(c CardData) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(cardBackground), image.Point{}, xdraw.Src)

	// orange frame
	fill(dst, image.Rect(0, 0, cardWidth, 8), cardOrange)
	fill(dst, image.Rect(0, cardHeight-8, cardWidth, cardHeight), cardOrange)

	drawCentered(dst, c.Brand, 36, 3, cardOrange)
	drawCentered(dst, c.Headline, 100, 2, cardWhite)

	// code panel
	codeScale := 6
	if w := textWidth(c.Code) * codeScale; w > cardWidth-80 {
		codeScale = 4
	}
	panelH := 13*codeScale + 40
	fill(dst, image.Rect(40, 150, cardWidth-40, 150+panelH), cardOrange)
	drawCentered(dst, c.Code, 150+20, codeScale, cardWhite)

	y := 150 + panelH + 30
	drawCentered(dst, "Registration: "+c.Registration, y, 2, cardWhite)
	y += 40
	drawCentered(dst, "Issued "+c.GeneratedAt.Format("02 Jan 2006 15:04"), y, 2, cardMuted)
	if !c.ValidUntil.IsZero() {
		y += 34
		drawCentered(dst, "Valid until "+c.ValidUntil.Format("02 Jan 2006"), y, 2, cardMuted)
	}
	return dst
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	xdraw.Draw(dst, r, image.NewUniform(c), image.Point{}, xdraw.Src)
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

// textImage draws s at the native 7x13 glyph size.
func textImage(s string, fg color.Color) *image.RGBA {
	face := basicfont.Face7x13
	m := face.Metrics()
	w := textWidth(s)
	if w < 1 {
		w = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, m.Height.Ceil()))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(0, m.Ascent.Ceil()),
	}
	d.DrawString(s)
	return img
}

// drawCentered scales the glyphs up with nearest-neighbour so they stay crisp.
func drawCentered(dst *image.RGBA, s string, top, scale int, fg color.Color) {
	if s == "" {
		return
	}
	src := textImage(s, fg)
	w := src.Bounds().Dx() * scale
	h := src.Bounds().Dy() * scale
	x := (dst.Bounds().Dx() - w) / 2
	if x < 0 {
		x = 0
	}
	xdraw.NearestNeighbor.Scale(dst, image.Rect(x, top, x+w, top+h), src, src.Bounds(), xdraw.Over, nil)
}
