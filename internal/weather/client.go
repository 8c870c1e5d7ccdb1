package weather

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"cropcast/internal/apperror"
	"cropcast/internal/models"
)

const (
	// WindowDays is the length of the trailing observation window.
	WindowDays = 365

	resultCodeOK = "00"
)

// Fetcher is implemented by Client and by cached wrappers around it.
type Fetcher interface {
	FetchDaily(ctx context.Context, stationID string, start, end time.Time) (models.WeatherSeries, error)
}

// Client talks to the ASOS daily observation service.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Window returns the inclusive date range [yesterday-365d, yesterday] for now.
func Window(now time.Time) (start, end time.Time) {
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	start = end.AddDate(0, 0, -WindowDays)
	return start, end
}

type asosResponse struct {
	XMLName xml.Name `xml:"response"`
	Header  struct {
		ResultCode string `xml:"resultCode"`
		ResultMsg  string `xml:"resultMsg"`
	} `xml:"header"`
	Body struct {
		Items []asosItem `xml:"items>item"`
	} `xml:"body"`
}

type asosItem struct {
	Tm     string `xml:"tm"`
	AvgRhm string `xml:"avgRhm"`
	MinTa  string `xml:"minTa"`
	MaxTa  string `xml:"maxTa"`
	MaxWs  string `xml:"maxWs"`
	AvgTa  string `xml:"avgTa"`
	AvgWs  string `xml:"avgWs"`
	SumRn  string `xml:"sumRn"`
	DdMes  string `xml:"ddMes"`
}

// FetchDaily retrieves one row per day for the station between start and
// end inclusive.
func (c *Client) FetchDaily(ctx context.Context, stationID string, start, end time.Time) (models.WeatherSeries, error) {
	days := int(end.Sub(start).Hours()/24) + 1
	params := url.Values{}
	params.Set("serviceKey", c.serviceKey)
	params.Set("pageNo", "1")
	params.Set("numOfRows", strconv.Itoa(days))
	params.Set("dataType", "XML")
	params.Set("dataCd", "ASOS")
	params.Set("dateCd", "DAY")
	params.Set("startDt", start.Format("20060102"))
	params.Set("endDt", end.Format("20060102"))
	params.Set("stnIds", stationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperror.Internal("Failed to build weather request.", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.UpstreamUnavailable("Weather service is unreachable.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Upstream("Weather data could not be found.", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.UpstreamUnavailable("Weather service is unreachable.", err)
	}

	series, err := ParseDaily(body)
	if err != nil {
		return nil, apperror.Upstream("Weather data could not be found.", err)
	}
	if len(series) == 0 {
		return nil, apperror.Upstream("Weather data could not be found.", fmt.Errorf("station %s returned no rows", stationID))
	}

	log.Printf("Fetched %d weather rows for station %s (%s ~ %s)",
		len(series), stationID, series.Start().Format(models.DateLayout), series.End().Format(models.DateLayout))
	return series, nil
}

// ParseDaily decodes an ASOS XML payload. Measures that are missing or not
// numeric become zero, rows without a valid date are dropped, and the
// result is sorted by date with one row per day.
func ParseDaily(body []byte) (models.WeatherSeries, error) {
	var doc asosResponse
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	if code := strings.TrimSpace(doc.Header.ResultCode); code != "" && code != resultCodeOK {
		return nil, fmt.Errorf("service returned result code %s (%s)", code, strings.TrimSpace(doc.Header.ResultMsg))
	}

	seen := make(map[time.Time]bool, len(doc.Body.Items))
	series := make(models.WeatherSeries, 0, len(doc.Body.Items))
	for _, item := range doc.Body.Items {
		date, err := time.Parse(models.DateLayout, strings.TrimSpace(item.Tm))
		if err != nil {
			continue
		}
		if seen[date] {
			continue
		}
		seen[date] = true
		series = append(series, models.WeatherRow{
			Date:          date,
			AvgHumidity:   measure(item.AvgRhm),
			MinTemp:       measure(item.MinTa),
			MaxTemp:       measure(item.MaxTa),
			MaxWind:       measure(item.MaxWs),
			AvgTemp:       measure(item.AvgTa),
			AvgWind:       measure(item.AvgWs),
			Precipitation: measure(item.SumRn),
			OtherCode:     measure(item.DdMes),
		})
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series, nil
}

func measure(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
