package dataset

import (
	"sort"
	"strconv"

	"github.com/sjwhitworth/golearn/base"

	"mlpipe/pkg/serrors"
)

// Vocabulary maps categorical column values to ordinal codes. It is built on
// the training split and persisted with the model so that serving-time
// encoding matches training-time encoding.
type Vocabulary map[string]map[string]float64

// BuildVocabulary assigns ordinal codes to the distinct values of the given
// columns. Codes are assigned in lexicographic order so the mapping is
// deterministic across runs.
func BuildVocabulary(f *Frame, columns []string) (Vocabulary, error) {
	vocab := make(Vocabulary, len(columns))
	for _, col := range columns {
		values, err := f.Column(col)
		if err != nil {
			return nil, err
		}

		distinct := make(map[string]struct{})
		for _, v := range values {
			distinct[v] = struct{}{}
		}

		ordered := make([]string, 0, len(distinct))
		for v := range distinct {
			ordered = append(ordered, v)
		}
		sort.Strings(ordered)

		codes := make(map[string]float64, len(ordered))
		for i, v := range ordered {
			codes[v] = float64(i)
		}
		vocab[col] = codes
	}

	return vocab, nil
}

// Has reports whether the column is encoded categorically.
func (v Vocabulary) Has(column string) bool {
	_, ok := v[column]

	return ok
}

// Encode returns the ordinal code for a categorical value. Values unseen
// during training encode as -1.
func (v Vocabulary) Encode(column, value string) float64 {
	if codes, ok := v[column]; ok {
		if code, ok := codes[value]; ok {
			return code
		}
	}

	return -1
}

// ToInstances converts a Frame into golearn dense instances with the given
// feature columns and a float class attribute for the target. Categorical
// features are encoded through the vocabulary; numeric features parse as
// float64 with empty values treated as zero. Rows with a missing target are
// rejected.
func ToInstances(f *Frame, features []string, target string, vocab Vocabulary) (*base.DenseInstances, error) {
	featureIdx := make([]int, len(features))
	for i, name := range features {
		idx, ok := f.ColumnIndex(name)
		if !ok {
			return nil, serrors.With(serrors.ErrInvalidData, "feature column %q not in dataset", name)
		}
		featureIdx[i] = idx
	}
	targetIdx, ok := f.ColumnIndex(target)
	if !ok {
		return nil, serrors.With(serrors.ErrInvalidData, "target column %q not in dataset", target)
	}

	inst := base.NewDenseInstances()
	for _, name := range features {
		inst.AddAttribute(base.NewFloatAttribute(name))
	}
	label := base.NewFloatAttribute(target)
	inst.AddAttribute(label)
	if err := inst.AddClassAttribute(label); err != nil {
		return nil, serrors.Wrap(serrors.ErrInternal, err, "could not set class attribute")
	}
	if err := inst.Extend(f.NumRows()); err != nil {
		return nil, serrors.Wrap(serrors.ErrInternal, err, "could not size instances")
	}

	attributes := inst.AllAttributes()
	specs := make([]base.AttributeSpec, len(attributes))
	for i, attr := range attributes {
		spec, err := inst.GetAttribute(attr)
		if err != nil {
			return nil, serrors.Wrap(serrors.ErrInternal, err, "could not resolve attribute %q", attr.GetName())
		}
		specs[i] = spec
	}

	for r, row := range f.Rows {
		for c, name := range features {
			raw := row[featureIdx[c]]
			var v float64
			if vocab.Has(name) {
				v = vocab.Encode(name, raw)
			} else if raw != "" {
				parsed, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, serrors.With(serrors.ErrInvalidData,
						"row %d: column %q value %q is not numeric", r, name, raw)
				}
				v = parsed
			}
			inst.Set(specs[c], r, base.PackFloatToBytes(v))
		}

		y, err := strconv.ParseFloat(row[targetIdx], 64)
		if err != nil {
			return nil, serrors.With(serrors.ErrInvalidData,
				"row %d: target %q value %q is not numeric", r, target, row[targetIdx])
		}
		inst.Set(specs[len(features)], r, base.PackFloatToBytes(y))
	}

	return inst, nil
}

// Matrix unpacks a golearn grid into a feature matrix and target vector. The
// class attribute (the last attribute when none is declared) becomes y.
func Matrix(grid base.FixedDataGrid) (X [][]float64, y []float64, err error) {
	attributes := grid.AllAttributes()
	if len(attributes) < 2 {
		return nil, nil, serrors.With(serrors.ErrInvalidData, "grid needs at least one feature and a target")
	}

	classIdx := len(attributes) - 1
	if classAttrs := grid.AllClassAttributes(); len(classAttrs) == 1 {
		for i, attr := range attributes {
			if attr.GetName() == classAttrs[0].GetName() {
				classIdx = i

				break
			}
		}
	}

	specs := make([]base.AttributeSpec, len(attributes))
	for i, attr := range attributes {
		spec, specErr := grid.GetAttribute(attr)
		if specErr != nil {
			return nil, nil, serrors.Wrap(serrors.ErrInternal, specErr, "could not resolve attribute %q", attr.GetName())
		}
		specs[i] = spec
	}

	_, rows := grid.Size()
	X = make([][]float64, rows)
	y = make([]float64, rows)
	for r := 0; r < rows; r++ {
		features := make([]float64, 0, len(attributes)-1)
		for i, spec := range specs {
			v := base.UnpackBytesToFloat(grid.Get(spec, r))
			if i == classIdx {
				y[r] = v

				continue
			}
			features = append(features, v)
		}
		X[r] = features
	}

	return X, y, nil
}
