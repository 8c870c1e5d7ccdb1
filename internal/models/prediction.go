package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FlexFloat accepts either a JSON number or a numeric string.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// CropNames accepts either a JSON array of names or a single comma-joined string.
type CropNames []string

func (c *CropNames) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	var names []string
	if len(data) > 0 && data[0] == '"' {
		var joined string
		if err := json.Unmarshal(data, &joined); err != nil {
			return err
		}
		names = strings.Split(joined, ",")
	} else if err := json.Unmarshal(data, &names); err != nil {
		return err
	}

	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	*c = out
	return nil
}

type IncomeRequest struct {
	LandArea    FlexFloat   `json:"land_area"`
	CropNames   CropNames   `json:"crop_names"`
	CropRatios  []FlexFloat `json:"crop_ratios"`
	Region      string      `json:"region"`
	SessionID   string      `json:"session_id,omitempty"`
	SessionName string      `json:"session_name,omitempty"`
}

// Ratios returns the crop ratios as plain floats.
func (r IncomeRequest) Ratios() []float64 {
	out := make([]float64, len(r.CropRatios))
	for i, v := range r.CropRatios {
		out[i] = float64(v)
	}
	return out
}

type IncomeResponse struct {
	SessionID   string              `json:"session_id,omitempty"`
	TotalIncome int64               `json:"total_income"`
	Results     []CropResult        `json:"results"`
	R2Scores    map[string]*float64 `json:"r2_scores"`
}

// ForecastResult is the single-step price forecast for one crop together
// with the hold-out diagnostics of the model that produced it.
type ForecastResult struct {
	PredictedPrice int64     `json:"predicted_price"`
	R2Score        *float64  `json:"r2_score"`
	RMSE           float64   `json:"rmse"`
	TrainRows      int       `json:"train_rows"`
	TestRows       int       `json:"test_rows"`
	TargetDate     time.Time `json:"target_date"`
}

type RenameSessionRequest struct {
	SessionName string `json:"session_name" binding:"required"`
}
