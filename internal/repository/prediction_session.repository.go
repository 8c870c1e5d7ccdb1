package repository

import (
	"cropcast/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PredictionSessionRepository interface {
	// SaveSession upserts the session and replaces its results atomically.
	SaveSession(session *models.PredictionSession) error
	GetSessionsByUserID(userID uint, limit int) ([]models.PredictionSession, error)
	GetSessionByID(id string) (*models.PredictionSession, error)
	RenameSession(id, name string) error
	DeleteSession(id string) error
}

type predictionSessionRepository struct {
	db *gorm.DB
}

func NewPredictionSessionRepository(db *gorm.DB) PredictionSessionRepository {
	return &predictionSessionRepository{db}
}

func (r *predictionSessionRepository) SaveSession(session *models.PredictionSession) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		results := session.Results

		if err := tx.Omit(clause.Associations).Save(session).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", session.ID).Delete(&models.CropResult{}).Error; err != nil {
			return err
		}

		for i := range results {
			results[i].ID = 0
			results[i].SessionID = session.ID
			results[i].Position = i
		}
		if len(results) > 0 {
			if err := tx.Create(&results).Error; err != nil {
				return err
			}
		}
		session.Results = results
		return nil
	})
}

func (r *predictionSessionRepository) GetSessionsByUserID(userID uint, limit int) ([]models.PredictionSession, error) {
	var sessions []models.PredictionSession
	query := r.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&sessions).Error
	return sessions, err
}

func (r *predictionSessionRepository) GetSessionByID(id string) (*models.PredictionSession, error) {
	var session models.PredictionSession
	err := r.db.
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *predictionSessionRepository) RenameSession(id, name string) error {
	return r.db.Model(&models.PredictionSession{}).Where("id = ?", id).Update("name", name).Error
}

func (r *predictionSessionRepository) DeleteSession(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.CropResult{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.PredictionSession{}).Error
	})
}
