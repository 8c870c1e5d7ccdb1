package services

import (
	"fmt"
	"math"

	"cropcast/internal/apperror"
	"cropcast/internal/models"
)

// ReferenceArea is the land area, in pyeong, that the reference incomes
// are reported for (10a).
const ReferenceArea = 302.5

const (
	ratioSumTolerance = 1e-9
	legacyThirdRatio  = 0.3
)

// IncomeTable resolves a crop's most recent reference record.
type IncomeTable interface {
	Latest(cropName string) (models.CropReferenceRecord, bool)
}

type IncomeService struct {
	table IncomeTable
}

func NewIncomeService(table IncomeTable) *IncomeService {
	return &IncomeService{table: table}
}

// Adjust scales the crop's latest reference record to landArea and ratio.
func (s *IncomeService) Adjust(cropName string, landArea, ratio float64) (*models.AdjustedIncome, error) {
	record, ok := s.table.Latest(cropName)
	if !ok {
		return nil, apperror.UnknownCrop(cropName)
	}

	scale := func(v float64) float64 {
		return v / ReferenceArea * landArea * ratio
	}
	adjusted := record
	adjusted.Income = scale(record.Income)
	adjusted.Metrics = make([]models.Metric, len(record.Metrics))
	for i, m := range record.Metrics {
		adjusted.Metrics[i] = models.Metric{Name: m.Name, Value: scale(m.Value)}
	}

	return &models.AdjustedIncome{
		CropName: cropName,
		Year:     record.Period,
		Income:   int64(adjusted.Income),
		Record:   adjusted,
	}, nil
}

// ValidateRatios checks that every ratio lies in (0, 1] and that they sum
// to 1. Three ratios of 0.3 each pass when allowLegacyThirds is set.
func ValidateRatios(ratios []float64, allowLegacyThirds bool) error {
	if len(ratios) == 0 {
		return apperror.Validation(apperror.CodeBadRequest, "At least one crop ratio is required.")
	}

	sum := 0.0
	for _, r := range ratios {
		if math.IsNaN(r) || r <= 0 || r > 1 {
			return apperror.Validation(apperror.CodeRatioSum, fmt.Sprintf("Crop ratio %v must be greater than 0 and at most 1.", r))
		}
		sum += r
	}

	if math.Abs(sum-1) <= ratioSumTolerance {
		return nil
	}
	if allowLegacyThirds && isLegacyThirds(ratios) {
		return nil
	}
	return apperror.Validation(apperror.CodeRatioSum, "The sum of crop ratios must be 1.")
}

func isLegacyThirds(ratios []float64) bool {
	if len(ratios) != 3 {
		return false
	}
	for _, r := range ratios {
		if math.Abs(r-legacyThirdRatio) > ratioSumTolerance {
			return false
		}
	}
	return true
}
