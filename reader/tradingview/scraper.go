package tradingview

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"heatmapflow/config"
	"heatmapflow/logger"
	"heatmapflow/models"
	"heatmapflow/reader"
)

//go:embed extract.js
var extractScript string

var errClosed = errors.New("scraper is closed")

// Scraper drives a headless Chrome to the TradingView heatmap and pulls the
// rendered cells out of the page. The browser starts on the first Extract
// and lives until Close.
type Scraper struct {
	cfg config.SourceConfig
	log *logger.Log

	mu            sync.Mutex
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	closed        bool
}

func NewScraper(cfg config.SourceConfig) *Scraper {
	return &Scraper{
		cfg: cfg,
		log: logger.GetLogger(),
	}
}

func (s *Scraper) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.DisableGPU,
		chromedp.WindowSize(s.cfg.WindowWidth, s.cfg.WindowHeight),
	)
	if s.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(s.cfg.UserAgent))
	}
	if s.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromePath))
	}
	return opts
}

// session returns the browser context, launching Chrome if needed.
func (s *Scraper) session() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errClosed
	}
	if s.browserCtx != nil {
		return s.browserCtx, nil
	}

	log := s.log.WithComponent("tradingview_scraper")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), s.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...interface{}) {
			log.Debug(fmt.Sprintf(format, args...))
		}),
	)

	// An empty Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	s.browserCtx = browserCtx
	s.allocCancel = allocCancel
	s.browserCancel = browserCancel

	log.WithFields(logger.Fields{
		"headless": s.cfg.Headless,
		"window":   fmt.Sprintf("%dx%d", s.cfg.WindowWidth, s.cfg.WindowHeight),
	}).Info("browser session started")
	return browserCtx, nil
}

// Extract loads the heatmap for market and screener, waits for the container
// to appear and the settle delay to pass, then runs the extraction script.
// Any failure is returned as a *reader.ExtractionError.
func (s *Scraper) Extract(ctx context.Context, market, screener string) ([]models.RawRecord, error) {
	if market == "" {
		market = s.cfg.Market
	}
	if screener == "" {
		screener = s.cfg.Screener
	}
	start := time.Now()
	target := HeatmapURL(s.cfg, market, screener)
	log := s.log.WithComponent("tradingview_scraper").WithFields(logger.Fields{
		"market":   market,
		"screener": screener,
		"url":      target,
	})

	browserCtx, err := s.session()
	if err != nil {
		return nil, reader.NewExtractionError(market, screener, "session", err)
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	log.Info("navigating to heatmap")
	if err := chromedp.Run(tabCtx, chromedp.Navigate(target)); err != nil {
		return nil, reader.NewExtractionError(market, screener, "navigate", err)
	}

	waitCtx, cancelWait := context.WithTimeout(tabCtx, s.cfg.WaitTimeout)
	err = chromedp.Run(waitCtx, chromedp.WaitReady(s.cfg.WaitSelector, chromedp.ByQuery))
	cancelWait()
	if err != nil {
		return nil, reader.NewExtractionError(market, screener, "wait", fmt.Errorf("%s not ready within %s: %w", s.cfg.WaitSelector, s.cfg.WaitTimeout, err))
	}

	var raw []byte
	if err := chromedp.Run(tabCtx,
		chromedp.Sleep(s.cfg.SettleDelay),
		chromedp.Evaluate(extractScript, &raw),
	); err != nil {
		return nil, reader.NewExtractionError(market, screener, "evaluate", err)
	}

	records, err := DecodeRecords(raw)
	if err != nil {
		return nil, reader.NewExtractionError(market, screener, "decode", err)
	}

	logger.LogPerformanceEntry(log, "tradingview_scraper", "extract", time.Since(start), logger.Fields{
		"records": len(records),
	})
	logger.LogDataFlowEntry(log, "tradingview", "extractor", len(records), "heatmap_cells")
	return records, nil
}

// Close shuts the browser down. It is safe to call more than once and
// before any Extract.
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.browserCtx == nil {
		return nil
	}

	var err error
	if cerr := chromedp.Cancel(s.browserCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
		err = fmt.Errorf("failed to close browser: %w", cerr)
	}
	s.browserCancel()
	s.allocCancel()
	s.browserCtx = nil

	s.log.WithComponent("tradingview_scraper").Info("browser session closed")
	return err
}

var _ reader.Extractor = (*Scraper)(nil)
