package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cropcast/internal/apperror"
	"cropcast/internal/cache"
	"cropcast/internal/market"
	"cropcast/internal/models"
	"cropcast/internal/reference"
	"cropcast/internal/repository"
	"cropcast/internal/weather"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultSessionLimit = 10
	sessionNameLayout   = "2006-01-02 15:04"
)

type ReferenceTables interface {
	IncomeTable
	Code(cropName string) (models.CropCode, bool)
	Crops() []reference.CropInfo
}

type RegionTable interface {
	Lookup(name string) (models.Region, bool)
	List() []models.Region
}

type Forecaster interface {
	Forecast(weather models.WeatherSeries, prices models.PriceSeries) (*models.ForecastResult, error)
}

// WeatherCache stores weather series per station and window end.
type WeatherCache interface {
	GetWeather(ctx context.Context, stationID string, end time.Time) (models.WeatherSeries, bool, error)
	StoreWeather(ctx context.Context, stationID string, end time.Time, series models.WeatherSeries, ttl time.Duration) error
	DeleteWeather(ctx context.Context, stationID string, end time.Time) error
}

type PredictionOptions struct {
	AllowLegacyThirds bool
	Concurrency       int
	WeatherCacheTTL   time.Duration
}

type PredictionService struct {
	tables     ReferenceTables
	regions    RegionTable
	weather    weather.Fetcher
	market     market.Fetcher
	forecaster Forecaster
	income     *IncomeService
	// repo and cache are optional.
	repo  repository.PredictionSessionRepository
	cache WeatherCache
	opts  PredictionOptions
	now   func() time.Time
}

func NewPredictionService(
	tables ReferenceTables,
	regions RegionTable,
	weatherFetcher weather.Fetcher,
	marketFetcher market.Fetcher,
	forecaster Forecaster,
	repo repository.PredictionSessionRepository,
	cache WeatherCache,
	opts PredictionOptions,
) *PredictionService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &PredictionService{
		tables:     tables,
		regions:    regions,
		weather:    weatherFetcher,
		market:     marketFetcher,
		forecaster: forecaster,
		income:     NewIncomeService(tables),
		repo:       repo,
		cache:      cache,
		opts:       opts,
		now:        time.Now,
	}
}

// PersistsSessions reports whether prediction sessions are stored.
func (s *PredictionService) PersistsSessions() bool {
	return s.repo != nil
}

// PredictIncome computes every crop's result first and only then, if all
// crops succeeded, writes the session in one transaction.
func (s *PredictionService) PredictIncome(ctx context.Context, userID uint, req models.IncomeRequest) (*models.IncomeResponse, error) {
	names := []string(req.CropNames)
	ratios := req.Ratios()
	landArea := float64(req.LandArea)

	if landArea <= 0 {
		return nil, apperror.Validation(apperror.CodeBadRequest, "land_area must be a positive number.")
	}
	if len(names) == 0 {
		return nil, apperror.Validation(apperror.CodeBadRequest, "At least one crop name is required.")
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, apperror.Validation(apperror.CodeBadRequest, fmt.Sprintf("Crop %s is listed more than once.", name))
		}
		seen[name] = true
	}
	if len(ratios) != len(names) {
		return nil, apperror.Validation(apperror.CodeBadRequest,
			fmt.Sprintf("Got %d crop ratios for %d crops.", len(ratios), len(names)))
	}
	if err := ValidateRatios(ratios, s.opts.AllowLegacyThirds); err != nil {
		return nil, err
	}
	region, ok := s.regions.Lookup(req.Region)
	if !ok {
		return nil, apperror.Validation(apperror.CodeBadRequest, fmt.Sprintf("Region %s is not supported.", req.Region))
	}

	var existing *models.PredictionSession
	if req.SessionID != "" && s.repo != nil {
		session, err := s.GetSession(userID, req.SessionID)
		if err != nil {
			return nil, err
		}
		existing = session
	}

	start, end := weather.Window(s.now())
	weatherSeries, err := s.fetchWeather(ctx, region.WeatherStationID, start, end)
	if err != nil {
		return nil, err
	}

	// Phase 1: compute.
	results := make([]models.CropResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i := range names {
		g.Go(func() error {
			result, err := s.computeCrop(gctx, names[i], landArea, ratios[i], region, weatherSeries)
			if err != nil {
				log.Printf("Failed to process crop %s for user %d: %v", names[i], userID, err)
				return err
			}
			results[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	response := &models.IncomeResponse{
		Results:  results,
		R2Scores: make(map[string]*float64, len(results)),
	}
	for _, r := range results {
		response.TotalIncome += r.AdjustedIncome
		response.R2Scores[r.CropName] = r.R2Score
	}

	// Phase 2: persist.
	if s.repo == nil {
		return response, nil
	}
	session := existing
	if session == nil {
		session = &models.PredictionSession{
			ID:     uuid.NewString(),
			UserID: userID,
			Name:   defaultSessionName(names, s.now()),
		}
	}
	if req.SessionName != "" {
		session.Name = req.SessionName
	}
	session.CropNames = strings.Join(names, ",")
	session.LandArea = landArea
	session.Region = region.Name
	session.TotalIncome = response.TotalIncome
	session.Results = results

	if err := s.repo.SaveSession(session); err != nil {
		return nil, apperror.Internal("Failed to save prediction session.", err)
	}
	log.Printf("Saved prediction session %s for user %d (%d crops, total income %d)",
		session.ID, userID, len(session.Results), session.TotalIncome)

	response.SessionID = session.ID
	response.Results = session.Results
	return response, nil
}

func (s *PredictionService) computeCrop(
	ctx context.Context,
	cropName string,
	landArea, ratio float64,
	region models.Region,
	weatherSeries models.WeatherSeries,
) (*models.CropResult, error) {
	adjusted, err := s.income.Adjust(cropName, landArea, ratio)
	if err != nil {
		return nil, err
	}
	code, ok := s.tables.Code(cropName)
	if !ok {
		return nil, apperror.UnknownCrop(cropName)
	}

	prices, err := s.market.FetchPrices(ctx, market.Query{
		CategoryCode: code.CategoryCode,
		ItemCode:     code.ItemCode,
		CountryCode:  region.MarketCountryCode,
		Start:        weatherSeries.Start(),
		End:          weatherSeries.End(),
	})
	if err != nil {
		return nil, err
	}

	forecast, err := s.forecaster.Forecast(weatherSeries, prices)
	if err != nil {
		return nil, err
	}

	adjustedData, err := json.Marshal(adjusted.Record)
	if err != nil {
		return nil, apperror.Internal("Failed to encode adjusted income.", err)
	}
	chartData, err := prices.ChartJSON()
	if err != nil {
		return nil, apperror.Internal("Failed to encode price history.", err)
	}

	return &models.CropResult{
		CropName:       cropName,
		CropRatio:      ratio,
		LatestYear:     adjusted.Year,
		AdjustedIncome: adjusted.Income,
		AdjustedData:   datatypes.JSON(adjustedData),
		PredictedPrice: forecast.PredictedPrice,
		R2Score:        forecast.R2Score,
		RMSE:           forecast.RMSE,
		ChartData:      datatypes.JSON(chartData),
	}, nil
}

// fetchWeather consults the cache first. Cache failures are only logged;
// entries that are corrupt or empty are evicted and refetched.
func (s *PredictionService) fetchWeather(ctx context.Context, stationID string, start, end time.Time) (models.WeatherSeries, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.GetWeather(ctx, stationID, end)
		switch {
		case errors.Is(err, cache.ErrCorruptEntry), err == nil && ok && len(cached) == 0:
			log.Printf("Evicting unusable weather cache entry for station %s", stationID)
			if err := s.cache.DeleteWeather(ctx, stationID, end); err != nil {
				log.Printf("Failed to evict weather cache for station %s: %v", stationID, err)
			}
		case err != nil:
			log.Printf("Weather cache lookup failed for station %s: %v", stationID, err)
		case ok:
			return cached, nil
		}
	}

	series, err := s.weather.FetchDaily(ctx, stationID, start, end)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.StoreWeather(ctx, stationID, end, series, s.opts.WeatherCacheTTL); err != nil {
			log.Printf("Failed to cache weather for station %s: %v", stationID, err)
		}
	}
	return series, nil
}

func defaultSessionName(names []string, now time.Time) string {
	return strings.Join(names, ", ") + " " + now.Format(sessionNameLayout)
}

func (s *PredictionService) sessionRepo() (repository.PredictionSessionRepository, error) {
	if s.repo == nil {
		return nil, apperror.NotFound("Session storage is disabled.")
	}
	return s.repo, nil
}

func (s *PredictionService) ListSessions(userID uint, limit int) ([]models.PredictionSession, error) {
	repo, err := s.sessionRepo()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	sessions, err := repo.GetSessionsByUserID(userID, limit)
	if err != nil {
		return nil, apperror.Internal("Failed to list prediction sessions.", err)
	}
	return sessions, nil
}

// GetSession loads a session with its results, checking that userID owns it.
func (s *PredictionService) GetSession(userID uint, id string) (*models.PredictionSession, error) {
	repo, err := s.sessionRepo()
	if err != nil {
		return nil, err
	}
	session, err := repo.GetSessionByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Session not found.")
		}
		return nil, apperror.Internal("Failed to load prediction session.", err)
	}
	if session.UserID != userID {
		return nil, apperror.Forbidden("You do not have permission to access this session.")
	}
	return session, nil
}

func (s *PredictionService) RenameSession(userID uint, id, name string) (*models.PredictionSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation(apperror.CodeBadRequest, "session_name must not be empty.")
	}
	session, err := s.GetSession(userID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RenameSession(id, name); err != nil {
		return nil, apperror.Internal("Failed to rename prediction session.", err)
	}
	session.Name = name
	return session, nil
}

func (s *PredictionService) DeleteSession(userID uint, id string) error {
	if _, err := s.GetSession(userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteSession(id); err != nil {
		return apperror.Internal("Failed to delete prediction session.", err)
	}
	return nil
}

func (s *PredictionService) Regions() []models.Region {
	return s.regions.List()
}

func (s *PredictionService) Crops() []reference.CropInfo {
	return s.tables.Crops()
}
