package services

import (
	"errors"
	"testing"

	"cropcast/internal/apperror"
	"cropcast/internal/models"
	"cropcast/internal/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTables() *reference.Tables {
	return reference.NewTables(
		[]models.CropReferenceRecord{
			{CropName: "감자", Period: 2022, Income: 2000000},
			{
				CropName:       "감자",
				Period:         2023,
				Income:         3025000,
				IncomeRate:     "42.3",
				ValueAddedRate: "57.0",
				FarmGatePrice:  "950",
				Metrics:        []models.Metric{{Name: "총수입 (원)", Value: 6050000}},
			},
			{CropName: "배추", Period: 2023, Income: 1210000},
			{CropName: "고추", Period: 2023, Income: 5000000},
		},
		[]models.CropCode{
			{CropName: "감자", CategoryCode: 100, ItemCode: 152},
			{CropName: "배추", CategoryCode: 200, ItemCode: 211},
		},
	)
}

func TestAdjust(t *testing.T) {
	service := NewIncomeService(testTables())

	adjusted, err := service.Adjust("감자", 1000, 1.0)
	require.NoError(t, err)

	assert.Equal(t, int64(10000000), adjusted.Income)
	assert.Equal(t, 2023, adjusted.Year)
	assert.Equal(t, 2023, adjusted.Record.Period, "the year is not scaled")
	assert.Equal(t, 10000000.0, adjusted.Record.Income)
	assert.Equal(t, 20000000.0, adjusted.Record.Metrics[0].Value)
	assert.Equal(t, "42.3", adjusted.Record.IncomeRate)
	assert.Equal(t, "950", adjusted.Record.FarmGatePrice)
}

func TestAdjustTruncatesAndIsDeterministic(t *testing.T) {
	service := NewIncomeService(testTables())

	first, err := service.Adjust("배추", 100, 0.3)
	require.NoError(t, err)
	second, err := service.Adjust("배추", 100, 0.3)
	require.NoError(t, err)

	// 1210000 / 302.5 * 100 * 0.3 = 120000 (within floating point error)
	assert.InDelta(t, 120000, first.Income, 1)
	assert.Equal(t, first, second)
}

func TestAdjustDoesNotMutateReference(t *testing.T) {
	tables := testTables()
	service := NewIncomeService(tables)

	_, err := service.Adjust("감자", 605, 0.5)
	require.NoError(t, err)

	record, _ := tables.Latest("감자")
	assert.Equal(t, 6050000.0, record.Metrics[0].Value)
}

func TestAdjustUnknownCrop(t *testing.T) {
	service := NewIncomeService(testTables())

	_, err := service.Adjust("토마토", 1000, 1)
	assert.True(t, errors.Is(err, apperror.ErrUnknownCrop))
	assert.Equal(t, "Data for 토마토 could not be found.", apperror.From(err).Message)
}

func TestValidateRatios(t *testing.T) {
	tests := []struct {
		name              string
		ratios            []float64
		allowLegacyThirds bool
		wantCode          int
	}{
		{name: "Single crop", ratios: []float64{1.0}},
		{name: "Halves", ratios: []float64{0.5, 0.5}},
		{name: "Floating point sum", ratios: []float64{0.1, 0.2, 0.7}},
		{name: "Short sum", ratios: []float64{0.5, 0.4}, wantCode: apperror.CodeRatioSum},
		{name: "Over one", ratios: []float64{0.6, 0.6}, wantCode: apperror.CodeRatioSum},
		{name: "Out of range", ratios: []float64{1.2, -0.2}, wantCode: apperror.CodeRatioSum},
		{name: "Zero ratio", ratios: []float64{1.0, 0}, wantCode: apperror.CodeRatioSum},
		{name: "Legacy thirds allowed", ratios: []float64{0.3, 0.3, 0.3}, allowLegacyThirds: true},
		{name: "Legacy thirds rejected", ratios: []float64{0.3, 0.3, 0.3}, wantCode: apperror.CodeRatioSum},
		{name: "Two thirds are not legacy", ratios: []float64{0.3, 0.3}, allowLegacyThirds: true, wantCode: apperror.CodeRatioSum},
		{name: "Empty", ratios: nil, wantCode: apperror.CodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRatios(tt.ratios, tt.allowLegacyThirds)
			if tt.wantCode == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))
			appErr := apperror.From(err)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.Equal(t, 400, appErr.Status)
		})
	}
}
