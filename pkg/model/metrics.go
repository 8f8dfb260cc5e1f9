package model

import (
	"math"

	"mlpipe/pkg/serrors"
)

// Eval aggregates the regression metrics reported for a model.
type Eval struct {
	// MAE mean absolute error.
	MAE float64 `json:"mae"`

	// MSE mean square error.
	MSE float64 `json:"mse"`

	// RMSE root mean square error.
	RMSE float64 `json:"rmse"`

	// R2 coefficient of determination.
	R2 float64 `json:"r2"`
}

// Evaluate computes MAE, MSE, RMSE and R² of predictions against labels.
func Evaluate(pred, label []float64) (*Eval, error) {
	if len(pred) == 0 {
		return nil, serrors.With(serrors.ErrInvalidData, "evaluate: no predictions")
	}
	if len(pred) != len(label) {
		return nil, serrors.With(serrors.ErrInvalidData,
			"evaluate: %d predictions but %d labels", len(pred), len(label))
	}

	var maeSum, mseSum, mean float64
	for i := range pred {
		maeSum += math.Abs(label[i] - pred[i])
		mseSum += math.Pow(label[i]-pred[i], 2)
		mean += label[i]
	}
	mean /= float64(len(pred))

	tssSum := 0.0
	for i := range pred {
		tssSum += math.Pow(label[i]-mean, 2)
	}

	eval := &Eval{
		MAE:  maeSum / float64(len(pred)),
		MSE:  mseSum / float64(len(pred)),
		RMSE: math.Sqrt(mseSum / float64(len(pred))),
		R2:   1 - mseSum/tssSum,
	}

	return eval, eval.Check()
}

// Check rejects evaluations that produced NaN, which happens when labels are
// constant or the inputs were degenerate.
func (e *Eval) Check() error {
	if math.IsNaN(e.MAE) || math.IsNaN(e.MSE) || math.IsNaN(e.RMSE) || math.IsNaN(e.R2) {
		return serrors.With(serrors.ErrInvalidData, "evaluate: metrics are NaN")
	}

	return nil
}

// Map returns the metrics keyed the way they are logged to the tracker.
func (e *Eval) Map() map[string]float64 {
	return map[string]float64{
		"mae":  e.MAE,
		"mse":  e.MSE,
		"rmse": e.RMSE,
		"r2":   e.R2,
	}
}
