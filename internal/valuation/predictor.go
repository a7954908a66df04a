//go:generate mockgen -source=predictor.go -destination=mocks/mock_predictor.go -package=mocks

package valuation

import "context"

// Predictor is the external prediction collaborator. Implementations map a
// request to a predicted nightly price or fail with an error.
type Predictor interface {
	Predict(ctx context.Context, req Request) (Price, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(ctx context.Context, req Request) (Price, error)

// Predict calls f.
func (f PredictorFunc) Predict(ctx context.Context, req Request) (Price, error) {
	return f(ctx, req)
}
