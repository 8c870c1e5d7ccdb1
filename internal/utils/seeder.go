package utils

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"cropcast/internal/models"
	"cropcast/internal/reference"
	"cropcast/internal/repository"
	"cropcast/internal/services"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DefaultDemoSessions = 3
	DefaultDemoLandArea = 1000.0
	deleteBatchSize     = 100
)

// CheckReferenceTables lists problems in the loaded reference data that
// would make a prediction request fail.
func CheckReferenceTables(crops []reference.CropInfo, regions []models.Region) []string {
	var problems []string
	for _, c := range crops {
		switch {
		case !c.HasIncome:
			problems = append(problems, fmt.Sprintf("crop %s has a market code but no income record", c.CropName))
		case !c.Forecastable:
			problems = append(problems, fmt.Sprintf("crop %s has income records but no market code", c.CropName))
		}
	}
	if len(regions) == 0 {
		problems = append(problems, "no regions configured")
	}
	return problems
}

// SeedDemoSessions stores count sessions for userID built from the income
// tables only: crops share the land equally and carry no price forecast.
func SeedDemoSessions(
	repo repository.PredictionSessionRepository,
	income *services.IncomeService,
	userID uint,
	cropNames []string,
	region string,
	count int,
) ([]string, error) {
	if len(cropNames) == 0 {
		return nil, fmt.Errorf("no crops to seed")
	}
	ratio := 1 / float64(len(cropNames))

	var ids []string
	for i := 0; i < count; i++ {
		session := &models.PredictionSession{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      fmt.Sprintf("demo %d %s", i+1, time.Now().Format("2006-01-02 15:04")),
			CropNames: strings.Join(cropNames, ","),
			LandArea:  DefaultDemoLandArea,
			Region:    region,
		}

		for _, name := range cropNames {
			adjusted, err := income.Adjust(name, DefaultDemoLandArea, ratio)
			if err != nil {
				return ids, err
			}
			data, err := json.Marshal(adjusted.Record)
			if err != nil {
				return ids, fmt.Errorf("failed to encode adjusted income: %w", err)
			}
			session.Results = append(session.Results, models.CropResult{
				CropName:       name,
				CropRatio:      ratio,
				LatestYear:     adjusted.Year,
				AdjustedIncome: adjusted.Income,
				AdjustedData:   datatypes.JSON(data),
				ChartData:      datatypes.JSON("[]"),
			})
			session.TotalIncome += adjusted.Income
		}

		if err := repo.SaveSession(session); err != nil {
			return ids, fmt.Errorf("failed to save demo session: %w", err)
		}
		ids = append(ids, session.ID)
	}

	log.Printf("Seeded %d demo sessions for user %d", len(ids), userID)
	return ids, nil
}

// DeleteUserSessions removes every session owned by userID.
func DeleteUserSessions(repo repository.PredictionSessionRepository, userID uint) (int, error) {
	deleted := 0
	for {
		sessions, err := repo.GetSessionsByUserID(userID, deleteBatchSize)
		if err != nil {
			return deleted, fmt.Errorf("failed to list sessions: %w", err)
		}
		if len(sessions) == 0 {
			break
		}
		for _, s := range sessions {
			if err := repo.DeleteSession(s.ID); err != nil {
				return deleted, fmt.Errorf("failed to delete session %s: %w", s.ID, err)
			}
			deleted++
		}
	}

	log.Printf("Deleted %d sessions for user %d", deleted, userID)
	return deleted, nil
}
