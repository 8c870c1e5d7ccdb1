package market

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cropcast/internal/apperror"
	"cropcast/internal/models"
)

const (
	// Retail prices.
	productClassCode = "02"
	errorCodeOK      = "000"
)

type Fetcher interface {
	FetchPrices(ctx context.Context, q Query) (models.PriceSeries, error)
}

// Query selects one item of one region over a date range.
type Query struct {
	CategoryCode int
	ItemCode     int
	CountryCode  string
	Start        time.Time
	End          time.Time
}

// Client talks to the KAMIS period price service.
type Client struct {
	baseURL    string
	certKey    string
	certID     string
	httpClient *http.Client
}

func NewClient(baseURL, certKey, certID string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		certKey: certKey,
		certID:  certID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type kamisDocument struct {
	XMLName xml.Name `xml:"document"`
	Data    struct {
		ErrorCode string      `xml:"error_code"`
		Items     []kamisItem `xml:"item"`
	} `xml:"data"`
}

type kamisItem struct {
	ItemName string `xml:"itemname"`
	KindName string `xml:"kindname"`
	Yyyy     string `xml:"yyyy"`
	RegDay   string `xml:"regday"`
	Price    string `xml:"price"`
}

func (c *Client) FetchPrices(ctx context.Context, q Query) (models.PriceSeries, error) {
	params := url.Values{}
	params.Set("action", "periodProductList")
	params.Set("p_productclscode", productClassCode)
	params.Set("p_startday", q.Start.Format(models.DateLayout))
	params.Set("p_endday", q.End.Format(models.DateLayout))
	params.Set("p_itemcategorycode", strconv.Itoa(q.CategoryCode))
	params.Set("p_itemcode", strconv.Itoa(q.ItemCode))
	params.Set("p_kindcode", "")
	params.Set("p_productrankcode", "")
	params.Set("p_countrycode", q.CountryCode)
	params.Set("p_convert_kg_yn", "Y")
	params.Set("p_cert_key", c.certKey)
	params.Set("p_cert_id", c.certID)
	params.Set("p_returntype", "xml")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperror.Internal("Failed to build market price request.", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperror.UpstreamUnavailable("Market price service is unreachable.", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Upstream("Market price data could not be found.", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.UpstreamUnavailable("Market price service is unreachable.", err)
	}

	series, err := ParsePrices(body)
	if err != nil {
		return nil, apperror.Upstream("Market price data could not be found.", err)
	}
	if len(series) == 0 {
		return nil, apperror.Upstream("Market price data could not be found.",
			fmt.Errorf("item %d/%d in region %s returned no rows", q.CategoryCode, q.ItemCode, q.CountryCode))
	}

	log.Printf("Fetched %d price rows for item %d/%d (%s) in region %s",
		len(series), q.CategoryCode, q.ItemCode, series[0].Variety, q.CountryCode)
	return series, nil
}

// ParsePrices decodes a periodProductList payload. Rows without a valid
// date, price or variety are dropped first; of the rows left only the
// variety of the first one is kept.
func ParsePrices(body []byte) (models.PriceSeries, error) {
	var doc kamisDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	if code := strings.TrimSpace(doc.Data.ErrorCode); code != "" && code != errorCodeOK {
		return nil, fmt.Errorf("service returned error code %s", code)
	}

	parsed := make(models.PriceSeries, 0, len(doc.Data.Items))
	for _, item := range doc.Data.Items {
		variety := strings.TrimSpace(item.KindName)
		if variety == "" {
			continue
		}
		date, ok := parseDate(item.Yyyy, item.RegDay)
		if !ok {
			continue
		}
		price, ok := parsePrice(item.Price)
		if !ok {
			continue
		}
		parsed = append(parsed, models.PriceRow{
			Date:     date,
			ItemName: strings.TrimSpace(item.ItemName),
			Variety:  variety,
			Price:    price,
		})
	}
	if len(parsed) == 0 {
		return nil, nil
	}

	variety := parsed[0].Variety
	series := parsed[:0]
	for _, row := range parsed {
		if row.Variety == variety {
			series = append(series, row)
		}
	}
	return series, nil
}

// parseDate joins the year and the "MM/DD" registration day.
func parseDate(year, regDay string) (time.Time, bool) {
	year = strings.TrimSpace(year)
	regDay = strings.ReplaceAll(strings.TrimSpace(regDay), "/", "-")
	if year == "" || regDay == "" {
		return time.Time{}, false
	}
	date, err := time.Parse(models.DateLayout, year+"-"+regDay)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

func parsePrice(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
