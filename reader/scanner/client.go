// Package scanner looks up per-symbol quote details on the TradingView scanner endpoint.
package scanner

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"heatmapflow/config"
	"heatmapflow/logger"
	"heatmapflow/models"
)

type Client struct {
	http *resty.Client
	cfg  config.DetailsConfig
	log  *logger.Log
	now  func() time.Time
}

func NewClient(cfg config.DetailsConfig) *Client {
	client := resty.New()
	client.SetHeader("user-agent", cfg.UserAgent)
	client.SetTimeout(cfg.Timeout)

	return &Client{
		http: client,
		cfg:  cfg,
		log:  logger.GetLogger(),
		now:  time.Now,
	}
}

// Lookup fetches details for each symbol in order. A symbol whose request
// fails or returns a non-200 status is logged and left out of the result.
func (c *Client) Lookup(ctx context.Context, symbols []string) []models.SymbolDetails {
	start := time.Now()
	log := c.log.WithComponent("scanner_client")

	details := make([]models.SymbolDetails, 0, len(symbols))
	for _, symbol := range symbols {
		if ctx.Err() != nil {
			log.WithError(ctx.Err()).Warn("lookup cancelled")
			break
		}
		d, err := c.fetch(ctx, symbol)
		if err != nil {
			log.WithError(err).WithFields(logger.Fields{"symbol": symbol}).Warn("failed to fetch symbol details")
			continue
		}
		details = append(details, d)
	}

	logger.LogPerformanceEntry(log, "scanner_client", "lookup", time.Since(start), logger.Fields{
		"requested": len(symbols),
		"fetched":   len(details),
	})
	return details
}

func (c *Client) fetch(ctx context.Context, symbol string) (models.SymbolDetails, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetQueryParam("fields", strings.Join(c.cfg.Fields, ",")).
		Get(c.cfg.URL)
	if err != nil {
		return models.SymbolDetails{}, err
	}
	if res.StatusCode() != http.StatusOK {
		return models.SymbolDetails{}, fmt.Errorf("unexpected status %d", res.StatusCode())
	}
	return decodeDetails(symbol, res.Body(), c.now())
}

func decodeDetails(symbol string, body []byte, fetchedAt time.Time) (models.SymbolDetails, error) {
	if !gjson.ValidBytes(body) {
		return models.SymbolDetails{}, fmt.Errorf("response is not valid JSON")
	}
	payload := gjson.ParseBytes(body)
	if !payload.IsObject() {
		return models.SymbolDetails{}, fmt.Errorf("response is not an object")
	}
	name := payload.Get("name").String()
	if name == "" {
		name = symbol
	}
	return models.SymbolDetails{
		Symbol:    symbol,
		Name:      name,
		Close:     payload.Get("close").Float(),
		Change:    payload.Get("change").Float(),
		ChangeAbs: payload.Get("change_abs").Float(),
		Volume:    payload.Get("volume").Float(),
		MarketCap: payload.Get("market_cap_basic").Float(),
		FetchedAt: fetchedAt,
	}, nil
}
