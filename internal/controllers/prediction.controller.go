package controllers

import (
	"log"
	"net/http"

	"cropcast/internal/apperror"
	"cropcast/internal/models"
	"cropcast/internal/services"

	"github.com/gin-gonic/gin"
)

type PredictionController struct {
	service *services.PredictionService
}

func NewPredictionController(service *services.PredictionService) *PredictionController {
	return &PredictionController{service: service}
}

// respondError writes the error envelope for err. Internal errors are
// logged with their cause and reported with a generic message.
func respondError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.Status >= http.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(appErr.Status, gin.H{
		"status":      "error",
		"message":     appErr.Message,
		"code":        appErr.Code,
		"status_code": appErr.Status,
	})
}

func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("user_id")
	userID, ok := value.(uint)
	if !exists || !ok || userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "Unauthorized",
			"error":   "User ID not found in token",
		})
		return 0, false
	}
	return userID, true
}

// PredictIncome godoc
// @Summary Estimate crop income and forecast market prices
// @Description Scales reference incomes to the requested land area and crop ratios and forecasts the next market price of every crop
// @Tags prediction
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body models.IncomeRequest true "Land area, crops, ratios and region"
// @Success 200 {object} map[string]interface{} "Prediction result"
// @Failure 400 {object} map[string]interface{} "Invalid input or ratio sum"
// @Failure 403 {object} map[string]interface{} "Session belongs to a different user"
// @Failure 404 {object} map[string]interface{} "Unknown crop or no upstream data"
// @Failure 502 {object} map[string]interface{} "Upstream service unavailable"
// @Router /prediction/income [post]
func (pc *PredictionController) PredictIncome(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.IncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.Validation(apperror.CodeBadRequest, "Invalid request body: "+err.Error()))
		return
	}

	resp, err := pc.service.PredictIncome(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"status":       "success",
		"message":      "Prediction completed successfully",
		"total_income": resp.TotalIncome,
		"results":      resp.Results,
		"r2_scores":    resp.R2Scores,
	}
	if resp.SessionID != "" {
		body["session_id"] = resp.SessionID
	}
	c.JSON(http.StatusOK, body)
}

// GetRegions godoc
// @Summary List supported regions
// @Tags prediction
// @Produce json
// @Success 200 {object} map[string]interface{} "Regions"
// @Router /prediction/regions [get]
func (pc *PredictionController) GetRegions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Regions retrieved successfully",
		"data":    pc.service.Regions(),
	})
}

// GetCrops godoc
// @Summary List crops known to the reference tables
// @Tags prediction
// @Produce json
// @Success 200 {object} map[string]interface{} "Crops"
// @Router /prediction/crops [get]
func (pc *PredictionController) GetCrops(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Crops retrieved successfully",
		"data":    pc.service.Crops(),
	})
}
