package plink

import (
	"fmt"
	"math"
)

// LD computes the linkage disequilibrium between g and each of others as the
// Pearson correlation of their dosages, or its square when r2 is set. Only
// samples called at both variants contribute. When either variant has no
// variance over those samples the result is NaN.
func LD(g *VariantGenotype, others []*VariantGenotype, r2 bool) ([]float64, error) {
	out := make([]float64, len(others))
	for i, o := range others {
		if len(o.Genotypes) != len(g.Genotypes) {
			return nil, fmt.Errorf("%s has %d samples but %s has %d", o.Variant, len(o.Genotypes), g.Variant, len(g.Genotypes))
		}

		r := correlation(g.Genotypes, o.Genotypes)
		if r2 {
			r *= r
		}
		out[i] = r
	}

	return out, nil
}

func correlation(x, y []Dosage) float64 {
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for i := range x {
		if x[i].IsMissing() || y[i].IsMissing() {
			continue
		}
		a, b := float64(x[i]), float64(y[i])
		n++
		sumX += a
		sumY += b
		sumXX += a * a
		sumYY += b * b
		sumXY += a * b
	}

	if n == 0 {
		return math.NaN()
	}

	cov := sumXY - sumX*sumY/n
	varX := sumXX - sumX*sumX/n
	varY := sumYY - sumY*sumY/n
	if varX <= 0 || varY <= 0 {
		return math.NaN()
	}

	return cov / math.Sqrt(varX*varY)
}
