package chart

import "math"

// Pearson returns the correlation of the finite (x, y) pairs and how many
// pairs were used. ok is false with fewer than two pairs or zero variance.
func Pearson(x, y []float64) (r float64, n int, ok bool) {
	var sx, sy, sxx, syy, sxy float64
	for i := 0; i < len(x) && i < len(y); i++ {
		a, b := x[i], y[i]
		if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
			continue
		}
		n++
		sx += a
		sy += b
		sxx += a * a
		syy += b * b
		sxy += a * b
	}
	if n < 2 {
		return 0, n, false
	}
	fn := float64(n)
	cov := sxy - sx*sy/fn
	vx := sxx - sx*sx/fn
	vy := syy - sy*sy/fn
	if vx <= 0 || vy <= 0 {
		return 0, n, false
	}
	return cov / math.Sqrt(vx*vy), n, true
}
