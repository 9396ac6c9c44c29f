package lda

import "gonum.org/v1/gonum/mat"

// fallbackIterations is the fixed iteration budget of the secondary solver.
// There is no convergence check; the step size is chosen so the fixed
// budget cannot diverge on a positive semi-definite system.
const fallbackIterations = 500

// solveCholesky solves sigma * w = b via Cholesky decomposition. ok is
// false when the matrix is not positive-definite, in which case the caller
// falls back to the iterative solver.
func solveCholesky(sigma *mat.SymDense, b []float64) ([]float64, bool) {
	var chol mat.Cholesky
	if !chol.Factorize(sigma) {
		return nil, false
	}

	var w mat.VecDense
	if err := chol.SolveVecTo(&w, mat.NewVecDense(len(b), b)); err != nil {
		return nil, false
	}
	return w.RawVector().Data, true
}

// solveGradientDescent minimizes 0.5*w'*sigma*w - b'*w by steepest descent
// with a fixed step of 1/trace(sigma). For positive semi-definite sigma the
// trace bounds the largest eigenvalue, so the step is always stable.
func solveGradientDescent(sigma *mat.SymDense, b []float64) []float64 {
	n := len(b)

	trace := 0.0
	for i := 0; i < n; i++ {
		trace += sigma.At(i, i)
	}
	if trace <= 0 {
		trace = 1
	}
	step := 1.0 / trace

	w := make([]float64, n)
	grad := make([]float64, n)
	for iter := 0; iter < fallbackIterations; iter++ {
		// grad = sigma*w - b
		for i := 0; i < n; i++ {
			sum := -b[i]
			for j := 0; j < n; j++ {
				sum += sigma.At(i, j) * w[j]
			}
			grad[i] = sum
		}
		for i := 0; i < n; i++ {
			w[i] -= step * grad[i]
		}
	}
	return w
}
