// Package loadgen drives POST /chat traffic against a running chatbot for
// autoscaling and alerting experiments.
package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/basakil/brm-chatbot/pkg/models"
)

// DefaultMessages cycles through every category: loan, rate, error, default
var DefaultMessages = []string{
	"대출 상담 받고 싶어요",
	"요즘 금리가 어떻게 되나요?",
	"오류가 발생했어요",
	"적금 상품 추천해 주세요",
	"",
}

// Config controls a load run. Either Duration or Requests bounds the run;
// when both are set the first limit reached wins.
type Config struct {
	Target      string
	Rate        float64
	Concurrency int
	Duration    time.Duration
	Requests    int
	Messages    []string
	Timeout     time.Duration
}

// Report summarizes a finished run
type Report struct {
	Total    int
	Errors   int
	ByStatus map[int]int
	Min      time.Duration
	Mean     time.Duration
	Max      time.Duration
	P95      time.Duration
	Elapsed  time.Duration
}

// Generator sends chat requests at a fixed rate from a pool of workers
type Generator struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

// New validates cfg and creates a generator
func New(cfg Config, logger *slog.Logger) (*Generator, error) {
	if cfg.Target == "" {
		return nil, errors.New("target is required")
	}
	if cfg.Rate <= 0 {
		return nil, fmt.Errorf("rate must be positive, got %v", cfg.Rate)
	}
	if cfg.Duration <= 0 && cfg.Requests <= 0 {
		return nil, errors.New("either duration or requests must be set")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if len(cfg.Messages) == 0 {
		cfg.Messages = DefaultMessages
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.Target = strings.TrimSuffix(cfg.Target, "/")

	return &Generator{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

type result struct {
	status  int
	latency time.Duration
	err     error
}

// Run sends requests until the duration elapses, the request budget is spent or ctx is done
func (g *Generator) Run(ctx context.Context) (*Report, error) {
	if g.cfg.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Duration)
		defer cancel()
	}

	limiter := rate.NewLimiter(rate.Limit(g.cfg.Rate), 1)
	var (
		issued  atomic.Int64
		mu      sync.Mutex
		results []result
	)

	g.logger.Info("Starting load run",
		"target", g.cfg.Target,
		"rate", g.cfg.Rate,
		"concurrency", g.cfg.Concurrency,
		"duration", g.cfg.Duration,
		"requests", g.cfg.Requests)

	start := time.Now()
	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < g.cfg.Concurrency; i++ {
		eg.Go(func() error {
			for {
				if err := limiter.Wait(egCtx); err != nil {
					return nil
				}
				n := issued.Add(1)
				if g.cfg.Requests > 0 && n > int64(g.cfg.Requests) {
					return nil
				}
				msg := g.cfg.Messages[int(n-1)%len(g.cfg.Messages)]
				res := g.send(egCtx, msg)
				if res.err != nil && egCtx.Err() != nil {
					// run ended while the request was in flight
					return nil
				}
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := summarize(results, time.Since(start))
	g.logger.Info("Load run finished",
		"total", report.Total,
		"errors", report.Errors,
		"p95", report.P95,
		"elapsed", report.Elapsed)
	return report, nil
}

func (g *Generator) send(ctx context.Context, message string) result {
	body, err := json.Marshal(models.ChatRequest{Message: message})
	if err != nil {
		return result{err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.Target+"/chat", bytes.NewReader(body))
	if err != nil {
		return result{err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("Request failed", "error", err)
		return result{err: err, latency: time.Since(start)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return result{status: resp.StatusCode, latency: time.Since(start)}
}

func summarize(results []result, elapsed time.Duration) *Report {
	report := &Report{
		Total:    len(results),
		ByStatus: make(map[int]int),
		Elapsed:  elapsed,
	}

	latencies := make([]time.Duration, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			report.Errors++
			continue
		}
		report.ByStatus[r.status]++
		latencies = append(latencies, r.latency)
	}
	if len(latencies) == 0 {
		return report
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	report.Min = latencies[0]
	report.Max = latencies[len(latencies)-1]
	report.Mean = sum / time.Duration(len(latencies))
	report.P95 = latencies[percentileIndex(len(latencies), 0.95)]
	return report
}

// percentileIndex uses the nearest-rank method
func percentileIndex(n int, p float64) int {
	idx := int(float64(n)*p+0.999999) - 1
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
