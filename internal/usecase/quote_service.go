package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AnkanMisra/SettleOne/internal/metrics"
)

var ErrNoRouteAvailable = errors.New("no route available")

// QuoteParams are the routing parameters for a cross-chain quote.
type QuoteParams struct {
	FromChain   string
	ToChain     string
	FromToken   string
	ToToken     string
	FromAmount  string
	FromAddress string
}

// QuoteResult is the subset of a LI.FI quote the frontend consumes, plus the
// raw route payload for execution.
type QuoteResult struct {
	ToAmount      string
	EstimatedGas  string
	GasCostUSD    string
	EstimatedTime int64
	Route         json.RawMessage
}

// QuoteService fetches cross-chain routing estimates from the LI.FI API. It
// holds no session state; quotes are fully decoupled from the store.
type QuoteService struct {
	client   *http.Client
	apiURL   string
	apiKey   string
	logger   *zap.Logger
	recorder metrics.Recorder
}

// NewQuoteService creates a new quote service instance
func NewQuoteService(apiURL, apiKey string, logger *zap.Logger, recorder metrics.Recorder) *QuoteService {
	return &QuoteService{
		client:   &http.Client{Timeout: 15 * time.Second},
		apiURL:   apiURL,
		apiKey:   apiKey,
		logger:   logger,
		recorder: recorder,
	}
}

type lifiGasCost struct {
	Amount    string `json:"amount"`
	AmountUSD string `json:"amountUSD"`
}

type lifiEstimate struct {
	ToAmount          string        `json:"toAmount"`
	ExecutionDuration float64       `json:"executionDuration"`
	GasCosts          []lifiGasCost `json:"gasCosts"`
}

// GetQuote requests a quote for the given route.
func (s *QuoteService) GetQuote(ctx context.Context, params QuoteParams) (*QuoteResult, error) {
	start := time.Now()

	query := url.Values{}
	query.Set("fromChain", params.FromChain)
	query.Set("toChain", params.ToChain)
	query.Set("fromToken", params.FromToken)
	query.Set("toToken", params.ToToken)
	query.Set("fromAmount", params.FromAmount)
	if params.FromAddress != "" {
		query.Set("fromAddress", params.FromAddress)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiURL+"/quote?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if s.apiKey != "" {
		req.Header.Set("x-lifi-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.recorder.IncCounter("quote_fetched", map[string]string{"outcome": "error"})
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		s.recorder.IncCounter("quote_fetched", map[string]string{"outcome": "no_route"})
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoRouteAvailable, params.FromChain, params.ToChain)
	}
	if resp.StatusCode != http.StatusOK {
		s.recorder.IncCounter("quote_fetched", map[string]string{"outcome": "error"})
		return nil, fmt.Errorf("quote request failed: status %d", resp.StatusCode)
	}

	var route json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&route); err != nil {
		return nil, fmt.Errorf("quote response decode failed: %w", err)
	}

	var parsed struct {
		Estimate lifiEstimate `json:"estimate"`
	}
	if err := json.Unmarshal(route, &parsed); err != nil {
		return nil, fmt.Errorf("quote response decode failed: %w", err)
	}

	result := &QuoteResult{
		ToAmount:      parsed.Estimate.ToAmount,
		EstimatedGas:  "0",
		GasCostUSD:    sumGasCostUSD(parsed.Estimate.GasCosts).String(),
		EstimatedTime: int64(parsed.Estimate.ExecutionDuration),
		Route:         route,
	}
	if result.ToAmount == "" {
		result.ToAmount = "0"
	}
	if len(parsed.Estimate.GasCosts) > 0 && parsed.Estimate.GasCosts[0].Amount != "" {
		result.EstimatedGas = parsed.Estimate.GasCosts[0].Amount
	}

	s.logger.Info("quote fetched",
		zap.String("from_chain", params.FromChain),
		zap.String("to_chain", params.ToChain),
		zap.String("from_amount", params.FromAmount),
		zap.String("to_amount", result.ToAmount),
		zap.Int64("estimated_time", result.EstimatedTime))
	s.recorder.IncCounter("quote_fetched", map[string]string{"outcome": "ok"})
	s.recorder.ObserveLatency("get_quote", time.Since(start), nil)
	return result, nil
}

// sumGasCostUSD totals the USD leg costs of a route. Entries without a
// parseable USD amount are skipped.
func sumGasCostUSD(costs []lifiGasCost) decimal.Decimal {
	total := decimal.Zero
	for _, c := range costs {
		usd, err := decimal.NewFromString(c.AmountUSD)
		if err != nil {
			continue
		}
		total = total.Add(usd)
	}
	return total
}
