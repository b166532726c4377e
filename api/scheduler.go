/*
scheduler.go - Periodic fraud scan scheduler

PURPOSE:
  Periodically re-scores each company's recent transaction window and raises
  aggregate fraud alerts (velocity anomaly, suspicious pattern).

DESIGN:
  - Runs a background goroutine with configurable scan interval
  - Scans every company on each tick; one company's failure never aborts
    the run for the others
  - Caller-side deduplication: an alert type with an existing active alert
    for the company is skipped, so a standing anomaly raises one alert, not
    one per tick
  - Re-entrant by construction: scoring and aggregation are pure, alert
    state lives in the store

CONFIGURATION:
  - ScanInterval: How often to scan (default: 30 seconds)
  - Enabled: Whether the scheduler is active (default: true)

USAGE:
  scheduler := NewFraudScanScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - fraud/aggregator.go: alert rules
  - handlers.go: on-demand scored window endpoint
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/welfarehub/credits-engine/core"
)

// FraudScanScheduler drives the periodic fraud scans.
type FraudScanScheduler struct {
	Handler      *Handler
	ScanInterval time.Duration
	Enabled      bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewFraudScanScheduler creates a new scheduler over the handler's stores and
// engine components.
func NewFraudScanScheduler(handler *Handler) *FraudScanScheduler {
	return &FraudScanScheduler{
		Handler:      handler,
		ScanInterval: 30 * time.Second,
		Enabled:      true,
		stop:         make(chan bool),
	}
}

// Start begins the scheduler.
func (fs *FraudScanScheduler) Start() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if !fs.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	fs.ticker = time.NewTicker(fs.ScanInterval)
	fs.wg.Add(1)

	go fs.run()

	log.Printf("[Scheduler] Started with scan interval: %v", fs.ScanInterval)
}

// Stop stops the scheduler.
func (fs *FraudScanScheduler) Stop() {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.ticker != nil {
		fs.ticker.Stop()
		close(fs.stop)
		fs.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (fs *FraudScanScheduler) run() {
	defer fs.wg.Done()

	// Run immediately on start
	fs.scanAll()

	for {
		select {
		case <-fs.ticker.C:
			fs.scanAll()
		case <-fs.stop:
			return
		}
	}
}

func (fs *FraudScanScheduler) scanAll() {
	ctx := context.Background()
	h := fs.Handler
	started := time.Now()

	companies, err := h.Directory.ListCompanies(ctx)
	if err != nil {
		log.Printf("[Scheduler] Error listing companies: %v", err)
		return
	}

	raised := 0
	skipped := 0
	for _, company := range companies {
		r, s, err := fs.scanCompany(ctx, company.ID)
		if err != nil {
			log.Printf("[Scheduler] Error scanning company %s: %v", company.ID, err)
			continue
		}
		raised += r
		skipped += s
	}

	h.Metrics.RecordScan(time.Since(started))
	if raised > 0 || skipped > 0 {
		log.Printf("[Scheduler] Completed: %d alerts raised, %d skipped (already active)", raised, skipped)
	}
}

// scanCompany scores the company's recent window and persists any new
// alerts. Returns (raised, skipped).
func (fs *FraudScanScheduler) scanCompany(ctx context.Context, companyID core.CompanyID) (int, int, error) {
	h := fs.Handler

	since := h.Clock.Now().Add(-h.Aggregator.VelocityWindow)
	window, err := h.Directory.TransactionsSince(ctx, companyID, since)
	if err != nil {
		return 0, 0, err
	}
	if len(window) == 0 {
		return 0, 0, nil
	}

	scored := h.Scorer.ScoreWindow(window)
	for _, tx := range scored {
		h.Metrics.RecordRiskScore(tx.Score)
	}

	raised := 0
	skipped := 0
	for _, alert := range h.Aggregator.Aggregate(companyID, scored) {
		active, err := h.Alerts.HasActiveAlert(ctx, companyID, alert.Type)
		if err != nil {
			return raised, skipped, err
		}
		if active {
			skipped++
			continue
		}
		if err := h.Alerts.SaveAlert(ctx, alert); err != nil {
			return raised, skipped, err
		}
		h.Metrics.RecordAlert(string(alert.Type))
		raised++
		log.Printf("[Scheduler] Alert raised for company %s: %s (%s, score %d)",
			companyID, alert.Type, alert.Severity, alert.RiskScore)
	}
	return raised, skipped, nil
}

// RunNow triggers an immediate scan (for testing/admin).
func (fs *FraudScanScheduler) RunNow() {
	fs.scanAll()
}
