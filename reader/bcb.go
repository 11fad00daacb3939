package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"salesflow/config"
	"salesflow/logger"
	"salesflow/models"
)

// SeriesCodes maps indicator series to their SGS series code.
var SeriesCodes = map[models.Series]int{
	models.SeriesExchangeRateUSD:    1,
	models.SeriesIPCA:               433,
	models.SeriesSelic:              4189,
	models.SeriesIGPM:               189,
	models.SeriesExchangeCommercial: 12,
}

const sgsDateLayout = "02/01/2006"

// Observation is one element of the SGS JSON response.
type Observation struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

// BCBClient fetches economic indicator series from the Central Bank of
// Brazil time-series API.
type BCBClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	series  []models.Series
	start   time.Time
	end     time.Time
	log     *logger.Log
}

// NewBCBClient validates the configured series and date window.
func NewBCBClient(cfg config.BCBConfig) (*BCBClient, error) {
	start, err := time.Parse("2006-01-02", cfg.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", cfg.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end date %s is before start date %s", cfg.EndDate, cfg.StartDate)
	}

	series := make([]models.Series, 0, len(cfg.Series))
	for _, name := range cfg.Series {
		s := models.Series(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := SeriesCodes[s]; !ok {
			return nil, fmt.Errorf("unknown indicator series %q", name)
		}
		series = append(series, s)
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &BCBClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		series:  series,
		start:   start,
		end:     end,
		log:     logger.GetLogger(),
	}, nil
}

func (c *BCBClient) Name() string { return "bcb" }

func (c *BCBClient) seriesURL(code int) string {
	q := url.Values{}
	q.Set("formato", "json")
	q.Set("dataInicial", c.start.Format(sgsDateLayout))
	q.Set("dataFinal", c.end.Format(sgsDateLayout))
	return fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados?%s", c.baseURL, code, q.Encode())
}

// FetchSeries downloads one series over the configured window.
func (c *BCBClient) FetchSeries(ctx context.Context, series models.Series) ([]Observation, error) {
	code, ok := SeriesCodes[series]
	if !ok {
		return nil, fmt.Errorf("unknown indicator series %q", series)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.seriesURL(code), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch series %s: %w", series, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch series %s: status %d: %s", series, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var obs []Observation
	if err := json.NewDecoder(resp.Body).Decode(&obs); err != nil {
		return nil, fmt.Errorf("decode series %s: %w", series, err)
	}
	return obs, nil
}

// Load fetches every configured series into the raw indicator table. A
// series that fails is logged and skipped; the load fails only when no
// series could be fetched.
func (c *BCBClient) Load(ctx context.Context) (models.RawDataset, error) {
	tbl, err := c.FetchIndicators(ctx)
	if err != nil {
		return nil, err
	}
	return models.RawDataset{models.TableIndicators: tbl}, nil
}

func (c *BCBClient) FetchIndicators(ctx context.Context) (*models.RawTable, error) {
	log := c.log.WithComponent("bcb_reader")
	start := time.Now()
	tbl := &models.RawTable{Name: models.TableIndicators, Columns: []string{"series_name", "data", "valor"}}

	var fetched int
	for _, s := range c.series {
		obs, err := c.FetchSeries(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).WithFields(logger.Fields{"series": s}).Warn("skipping indicator series")
			continue
		}
		fetched++
		for _, o := range obs {
			tbl.Rows = append(tbl.Rows, []string{string(s), o.Data, o.Valor})
		}
		logger.LogDataFlowEntry(log, fmt.Sprintf("sgs.%d", SeriesCodes[s]), models.TableIndicators, len(obs), string(s))
	}
	if fetched == 0 {
		return nil, &models.SchemaError{Table: models.TableIndicators, Reason: "no indicator series could be fetched"}
	}
	logger.LogPerformanceEntry(log, "bcb_reader", "fetch_indicators", time.Since(start), logger.Fields{
		"series":  fetched,
		"skipped": len(c.series) - fetched,
	})
	return tbl, nil
}
