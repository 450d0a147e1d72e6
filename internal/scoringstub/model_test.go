package scoringstub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableModel_ReferenceLabels(t *testing.T) {
	tests := []struct {
		features [5]int
		label    int
	}{
		{[5]int{0, 1, 0, 1, 1}, 1},
		{[5]int{0, 1, 1, 0, 0}, 1},
		{[5]int{0, 0, 1, 0, 1}, 1},
		{[5]int{0, 0, 0, 1, 0}, 0},
		{[5]int{1, 0, 1, 0, 0}, 0},
		{[5]int{0, 0, 0, 0, 0}, 0},
	}

	for _, tt := range tests {
		label, err := TableModel{}.Predict(tt.features)
		require.NoError(t, err)
		assert.Equal(t, tt.label, label, "features %v", tt.features)
	}
}

func TestRuleLabel_AgreesWithReferenceTable(t *testing.T) {
	for features, label := range referenceLabels {
		assert.Equal(t, label, ruleLabel(features), "features %v", features)
	}
}

func TestTableModel_OutsideTable(t *testing.T) {
	label, err := TableModel{}.Predict([5]int{1, 1, 0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0, label)

	label, err = TableModel{}.Predict([5]int{0, 1, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, label)
}
