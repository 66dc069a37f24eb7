package match

import (
	"image"
	"math"
	"math/bits"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Сумма квадратов отклонений ниже порога считается нулевой дисперсией.
// Для целочисленных пикселей любое непостоянное окно дает не меньше 0.5.
const flatThreshold = 0.25

// NCC: нормализованная кросс-корреляция с вычитанием среднего
// (семантика TM_CCOEFF_NORMED). Mode: Auto, Spatial или FFT.
type NCC struct {
	Mode string
}

// Match реализует Matcher
func (m *NCC) Match(full, template *image.Gray) (Match, error) {
	if err := checkSizes(full, template); err != nil {
		return Match{}, err
	}

	img := toGrid(full)
	tpl := prepareTemplate(template)
	if tpl.norm <= flatThreshold {
		// плоский шаблон: все оценки нулевые, первая позиция
		return newMatch(image.Point{}, template, 0), nil
	}

	integ := newIntegral(img)
	var surface *mat.Dense
	switch m.mode(img, tpl) {
	case FFT:
		surface = fftSurface(img, tpl, integ)
	default:
		surface = spatialSurface(img, tpl, integ)
	}

	loc := argmax(surface)
	score := scoreAt(img, tpl, integ, loc.X, loc.Y)
	return newMatch(loc, template, score), nil
}

func (m *NCC) mode(img grid, tpl preparedTemplate) string {
	if m.Mode == Spatial || m.Mode == FFT {
		return m.Mode
	}
	positions := float64((img.w - tpl.w + 1) * (img.h - tpl.h + 1))
	spatialCost := positions * float64(tpl.w*tpl.h)
	pq := float64(nextPow2(img.w) * nextPow2(img.h))
	fftCost := 8 * pq * math.Log2(pq)
	if spatialCost <= fftCost {
		return Spatial
	}
	return FFT
}

// grid: изображение в float64, построчно
type grid struct {
	w, h int
	data []float64
}

func toGrid(g *image.Gray) grid {
	b := g.Bounds()
	out := grid{w: b.Dx(), h: b.Dy(), data: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < out.h; y++ {
		off := g.PixOffset(b.Min.X, b.Min.Y+y)
		row := g.Pix[off : off+out.w]
		dst := out.row(y)
		for x, v := range row {
			dst[x] = float64(v)
		}
	}
	return out
}

func (g grid) row(y int) []float64 {
	return g.data[y*g.w : (y+1)*g.w]
}

type preparedTemplate struct {
	grid
	norm float64 // сумма квадратов отклонений от среднего
}

func prepareTemplate(t *image.Gray) preparedTemplate {
	g := toGrid(t)
	mean := stat.Mean(g.data, nil)
	floats.AddConst(-mean, g.data)
	return preparedTemplate{grid: g, norm: floats.Dot(g.data, g.data)}
}

// integral: интегральные изображения суммы и суммы квадратов, размер (w+1)x(h+1)
type integral struct {
	stride int
	sum    []float64
	sq     []float64
}

func newIntegral(g grid) integral {
	stride := g.w + 1
	it := integral{
		stride: stride,
		sum:    make([]float64, stride*(g.h+1)),
		sq:     make([]float64, stride*(g.h+1)),
	}
	for y := 0; y < g.h; y++ {
		var rowSum, rowSq float64
		for x, v := range g.row(y) {
			rowSum += v
			rowSq += v * v
			i := (y+1)*stride + x + 1
			it.sum[i] = it.sum[i-stride] + rowSum
			it.sq[i] = it.sq[i-stride] + rowSq
		}
	}
	return it
}

func (it integral) window(x, y, w, h int) (sum, sq float64) {
	a := y*it.stride + x
	b := a + w
	c := (y+h)*it.stride + x
	d := c + w
	return it.sum[d] - it.sum[b] - it.sum[c] + it.sum[a],
		it.sq[d] - it.sq[b] - it.sq[c] + it.sq[a]
}

// normalize переводит числитель sum(I*T') в коэффициент корреляции
func normalize(num float64, tpl preparedTemplate, integ integral, x, y int) float64 {
	n := float64(tpl.w * tpl.h)
	sum, sq := integ.window(x, y, tpl.w, tpl.h)
	variance := sq - sum*sum/n
	if variance <= flatThreshold {
		return 0
	}
	score := num / math.Sqrt(tpl.norm*variance)
	return math.Max(-1, math.Min(1, score))
}

func numeratorAt(img grid, tpl preparedTemplate, x, y int) float64 {
	var num float64
	for ty := 0; ty < tpl.h; ty++ {
		num += floats.Dot(img.row(y + ty)[x:x+tpl.w], tpl.row(ty))
	}
	return num
}

func scoreAt(img grid, tpl preparedTemplate, integ integral, x, y int) float64 {
	return normalize(numeratorAt(img, tpl, x, y), tpl, integ, x, y)
}

func spatialSurface(img grid, tpl preparedTemplate, integ integral) *mat.Dense {
	rows, cols := img.h-tpl.h+1, img.w-tpl.w+1
	surface := mat.NewDense(rows, cols, nil)
	raw := surface.RawMatrix()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			raw.Data[y*raw.Stride+x] = scoreAt(img, tpl, integ, x, y)
		}
	}
	return surface
}

// fftSurface считает числители для всех позиций сразу:
// IFFT(F(I) * conj(F(T'))) дает циклическую кросс-корреляцию.
// Размеры дополнены до степени двойки и не меньше изображения,
// поэтому для допустимых позиций заворачивания нет.
func fftSurface(img grid, tpl preparedTemplate, integ integral) *mat.Dense {
	p, q := nextPow2(img.h), nextPow2(img.w)
	f := newFFT2(p, q)

	freq := f.load(img)
	f.forward(freq)
	tplSpec := f.load(tpl.grid)
	f.forward(tplSpec)

	for i := range freq {
		c := tplSpec[i]
		freq[i] *= complex(real(c), -imag(c))
	}
	f.inverse(freq)

	scale := 1 / float64(p*q)
	rows, cols := img.h-tpl.h+1, img.w-tpl.w+1
	surface := mat.NewDense(rows, cols, nil)
	raw := surface.RawMatrix()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			num := real(freq[y*q+x]) * scale
			raw.Data[y*raw.Stride+x] = normalize(num, tpl, integ, x, y)
		}
	}
	return surface
}

// fft2: двумерное FFT построчно, затем по столбцам
type fft2 struct {
	p, q   int
	rows   *fourier.CmplxFFT
	cols   *fourier.CmplxFFT
	rowOut []complex128
	colIn  []complex128
	colOut []complex128
}

func newFFT2(p, q int) *fft2 {
	return &fft2{
		p:      p,
		q:      q,
		rows:   fourier.NewCmplxFFT(q),
		cols:   fourier.NewCmplxFFT(p),
		rowOut: make([]complex128, q),
		colIn:  make([]complex128, p),
		colOut: make([]complex128, p),
	}
}

// load раскладывает grid в матрицу p x q с нулевым дополнением
func (f *fft2) load(g grid) []complex128 {
	data := make([]complex128, f.p*f.q)
	for y := 0; y < g.h; y++ {
		for x, v := range g.row(y) {
			data[y*f.q+x] = complex(v, 0)
		}
	}
	return data
}

func (f *fft2) forward(data []complex128) {
	f.apply(data, (*fourier.CmplxFFT).Coefficients)
}

// inverse без нормировки: результат больше в p*q раз
func (f *fft2) inverse(data []complex128) {
	f.apply(data, (*fourier.CmplxFFT).Sequence)
}

func (f *fft2) apply(data []complex128, transform func(*fourier.CmplxFFT, []complex128, []complex128) []complex128) {
	for y := 0; y < f.p; y++ {
		row := data[y*f.q : (y+1)*f.q]
		transform(f.rows, f.rowOut, row)
		copy(row, f.rowOut)
	}
	for x := 0; x < f.q; x++ {
		for y := 0; y < f.p; y++ {
			f.colIn[y] = data[y*f.q+x]
		}
		transform(f.cols, f.colOut, f.colIn)
		for y := 0; y < f.p; y++ {
			data[y*f.q+x] = f.colOut[y]
		}
	}
}

// argmax возвращает первую позицию максимума в построчном порядке
func argmax(surface *mat.Dense) image.Point {
	raw := surface.RawMatrix()
	best := image.Point{}
	bestScore := math.Inf(-1)
	for y := 0; y < raw.Rows; y++ {
		for x := 0; x < raw.Cols; x++ {
			if v := raw.Data[y*raw.Stride+x]; v > bestScore {
				bestScore = v
				best = image.Point{X: x, Y: y}
			}
		}
	}
	return best
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
