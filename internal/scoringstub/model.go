package scoringstub

// Model maps a binary feature vector in wire order to a label (0 or 1).
type Model interface {
	Predict(features [5]int) (int, error)
}

// ModelFunc adapts a function to the Model interface.
type ModelFunc func(features [5]int) (int, error)

func (f ModelFunc) Predict(features [5]int) (int, error) { return f(features) }

// referenceLabels are the labels of the reference training table, keyed by
// [rainy, sunny, hot, mild, normal_humidity].
var referenceLabels = map[[5]int]int{
	{0, 1, 0, 1, 1}: 1,
	{0, 1, 1, 0, 1}: 1,
	{0, 1, 0, 1, 0}: 1,
	{0, 1, 1, 0, 0}: 1,
	{1, 0, 0, 1, 1}: 0,
	{1, 0, 1, 0, 1}: 0,
	{1, 0, 0, 1, 0}: 0,
	{1, 0, 1, 0, 0}: 0,
	{0, 0, 0, 1, 1}: 1,
	{0, 0, 1, 0, 1}: 1,
	{0, 0, 0, 1, 0}: 0,
	{0, 0, 1, 0, 0}: 0,
	{0, 0, 0, 0, 1}: 0,
	{0, 0, 0, 0, 0}: 0,
	{0, 1, 0, 0, 1}: 0,
	{0, 1, 0, 0, 0}: 0,
	{1, 0, 0, 0, 1}: 0,
	{1, 0, 0, 0, 0}: 0,
}

// TableModel looks vectors up in the reference table. Vectors outside the
// table (both outlooks set, or both temperature bands set) fall back to the
// rule the table was written from: no rain, not cold, and either sunny or
// normal humidity.
type TableModel struct{}

func (TableModel) Predict(features [5]int) (int, error) {
	if label, ok := referenceLabels[features]; ok {
		return label, nil
	}
	return ruleLabel(features), nil
}

func ruleLabel(f [5]int) int {
	rainy, sunny, hot, mild, normal := f[0] == 1, f[1] == 1, f[2] == 1, f[3] == 1, f[4] == 1
	if !rainy && (hot || mild) && (sunny || normal) {
		return 1
	}
	return 0
}
