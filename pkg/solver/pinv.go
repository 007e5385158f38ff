package solver

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// pinvTol is the relative singular value cutoff used when computing
// pseudoinverses. Singular values below pinvTol times the largest singular
// value are treated as zero.
const pinvTol = 1e-8

var errSVD = errors.New("solver: svd failed to converge")

// pseudoinverse returns the Moore-Penrose pseudoinverse of a, computed via a
// thin SVD with small singular values truncated. The returned rank counts the
// singular values kept.
func pseudoinverse(a mat.Matrix) (pinv *mat.Dense, rank int, err error) {
	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return nil, 0, errSVD
	}
	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	smax := 0.0
	for _, sv := range s {
		if sv > smax {
			smax = sv
		}
	}
	cut := pinvTol * smax
	k := len(s)
	sinv := make([]float64, k)
	for i, sv := range s {
		if sv > cut {
			sinv[i] = 1 / sv
			rank++
		}
	}

	// pinv = V * S^+ * U^T
	var vs mat.Dense
	vs.Scale(1, &v)
	vr, _ := v.Dims()
	for j := 0; j < k; j++ {
		for i := 0; i < vr; i++ {
			vs.Set(i, j, v.At(i, j)*sinv[j])
		}
	}
	pinv = &mat.Dense{}
	pinv.Mul(&vs, u.T())
	return pinv, rank, nil
}

// eye returns the n-by-n identity matrix.
func eye(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
