package controllers

import (
	"net/http"
	"strconv"

	"cropcast/internal/apperror"
	"cropcast/internal/models"

	"github.com/gin-gonic/gin"
)

// GetSessions godoc
// @Summary Get the user's prediction sessions
// @Tags prediction
// @Produce json
// @Security ApiKeyAuth
// @Param limit query int false "Maximum number of sessions (default 10)"
// @Success 200 {object} map[string]interface{} "Sessions retrieved successfully"
// @Failure 400 {object} map[string]interface{} "Invalid limit"
// @Router /prediction/sessions [get]
func (pc *PredictionController) GetSessions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	// Get Limit Params
	limitStr := c.Query("limit")
	limit := 0 // service default
	if limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			respondError(c, apperror.Validation(apperror.CodeBadRequest, "Limit must be a positive integer"))
			return
		}
	}

	sessions, err := pc.service.ListSessions(userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Prediction sessions retrieved successfully",
		"data":    sessions,
	})
}

// GetSession godoc
// @Summary Get a prediction session with its crop results
// @Tags prediction
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{} "Session retrieved successfully"
// @Failure 403 {object} map[string]interface{} "Forbidden"
// @Failure 404 {object} map[string]interface{} "Session not found"
// @Router /prediction/sessions/{id} [get]
func (pc *PredictionController) GetSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	session, err := pc.service.GetSession(userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Prediction session retrieved successfully",
		"data":    session,
	})
}

// RenameSession godoc
// @Summary Rename a prediction session
// @Tags prediction
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Param request body models.RenameSessionRequest true "New name"
// @Success 200 {object} map[string]interface{} "Session renamed successfully"
// @Router /prediction/sessions/{id} [patch]
func (pc *PredictionController) RenameSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req models.RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperror.Validation(apperror.CodeBadRequest, "Invalid request body: "+err.Error()))
		return
	}

	session, err := pc.service.RenameSession(userID, c.Param("id"), req.SessionName)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Prediction session renamed successfully",
		"data":    session,
	})
}

// DeleteSession godoc
// @Summary Delete a prediction session and its crop results
// @Tags prediction
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{} "Session deleted successfully"
// @Router /prediction/sessions/{id} [delete]
func (pc *PredictionController) DeleteSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := pc.service.DeleteSession(userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Prediction session deleted successfully",
	})
}
