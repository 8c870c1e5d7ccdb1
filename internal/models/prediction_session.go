package models

import (
	"time"

	"gorm.io/datatypes"
)

type PredictionSession struct {
	ID          string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string       `gorm:"type:varchar(255);not null" json:"session_name"`
	UserID      uint         `gorm:"not null;index" json:"user_id"`
	CropNames   string       `gorm:"type:text" json:"crop_names"`
	LandArea    float64      `json:"land_area"`
	Region      string       `gorm:"type:varchar(50)" json:"region"`
	TotalIncome int64        `json:"total_income"`
	CreatedAt   time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Results     []CropResult `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"results,omitempty"`
}

func (s *PredictionSession) TableName() string {
	return "prediction_sessions"
}

// CropResult is the per-crop outcome of a prediction request. It is both the
// response item and, when sessions are persisted, the stored child row.
type CropResult struct {
	ID             uint           `gorm:"primaryKey" json:"id,omitempty"`
	SessionID      string         `gorm:"type:varchar(36);not null;index" json:"-"`
	Position       int            `gorm:"not null" json:"-"`
	CropName       string         `gorm:"type:varchar(100);not null" json:"crop_name"`
	CropRatio      float64        `json:"crop_ratio"`
	LatestYear     int            `json:"latest_year"`
	AdjustedIncome int64          `json:"adjusted_income"`
	AdjustedData   datatypes.JSON `gorm:"type:jsonb" json:"adjusted_data"`
	PredictedPrice int64          `json:"price"`
	R2Score        *float64       `json:"r2_score"`
	RMSE           float64        `json:"rmse"`
	ChartData      datatypes.JSON `gorm:"type:jsonb" json:"crop_chart_data"`
	CreatedAt      time.Time      `json:"-"`
}

func (r *CropResult) TableName() string {
	return "crop_results"
}
