package domain

// ValidateFeatures applies the pre-submission business rules to a vector.
// The temperature rule cannot trigger with the current thresholds (the hot and
// mild bands are disjoint) but stays in place in case the bands change.
func ValidateFeatures(v FeatureVector) *Failure {
	if v.OutlookRainy && v.OutlookSunny {
		return NewValidationFailure("outlook cannot be both rainy and sunny")
	}
	if v.TemperatureHot && v.TemperatureMild {
		return NewValidationFailure("temperature cannot be both hot and mild")
	}
	return nil
}
