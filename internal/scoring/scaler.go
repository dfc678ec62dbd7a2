package scoring

import "github.com/Dan9191/credit-risk-service/internal/artifact"

// FeatureVector is the scaled feature row ordered like the artifact's feature list
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Len returns the number of features in the vector
func (v FeatureVector) Len() int { return len(v.Values) }

// ScaleAndProject applies the fitted scaler to the artifact's scaled columns and
// keeps only the model features, in model order. rec is not modified.
func ScaleAndProject(rec FeatureRecord, a *artifact.ModelArtifact) (FeatureVector, error) {
	var missing []string

	scaled := make(map[string]float64, a.NumScaled())
	for i := 0; i < a.NumScaled(); i++ {
		name := a.ScaledFeature(i)
		v, ok := rec.Lookup(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		scaled[name] = a.ScaleValue(i, v)
	}

	vec := FeatureVector{
		Names:  make([]string, a.NumFeatures()),
		Values: make([]float64, a.NumFeatures()),
	}
	for i := 0; i < a.NumFeatures(); i++ {
		name := a.Feature(i)
		v, ok := scaled[name]
		if !ok {
			if v, ok = rec.Lookup(name); !ok {
				missing = append(missing, name)
				continue
			}
		}
		vec.Names[i] = name
		vec.Values[i] = v
	}

	if len(missing) > 0 {
		return FeatureVector{}, &SchemaMismatchError{Missing: missing}
	}
	return vec, nil
}
