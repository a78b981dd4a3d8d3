package terrain

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"runtime"

	"planet-lod/internal/planet"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// RenderFace samples a face on a res×res grid and colors each texel by blending
// the band texture colors. The result is scaled to out×out pixels.
func RenderFace(ctx context.Context, g *Generator, face *planet.Face, res, out int) (*image.RGBA, error) {
	if res < 1 {
		res = 1
	}
	if out < 1 {
		out = res
	}
	src := image.NewRGBA(image.Rect(0, 0, res, res))
	span := 2 * face.HalfSize()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())
	for row := range res {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v := -face.HalfSize() + span*(float64(row)+0.5)/float64(res)
			for col := range res {
				u := -face.HalfSize() + span*(float64(col)+0.5)/float64(res)
				dir := face.ToSphere(mgl64.Vec2{u, v}).Normalize()
				s := g.SampleDir(dir)
				src.SetRGBA(col, row, g.blendColor(s.Weights))
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if out == res {
		return src, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, out, out))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

func (g *Generator) blendColor(w [3]float64) color.RGBA {
	texs := [3]Texture{g.Textures.Low, g.Textures.Mid, g.Textures.High}
	var rgb [3]float64
	for i, tex := range texs {
		for c := range 3 {
			rgb[c] += w[i] * float64(tex.Color[c])
		}
	}
	return color.RGBA{R: clampByte(rgb[0]), G: clampByte(rgb[1]), B: clampByte(rgb[2]), A: 255}
}

func clampByte(v float64) uint8 {
	return uint8(min(max(v+0.5, 0), 255))
}

// WritePNG encodes an image as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
