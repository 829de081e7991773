// REST client for Gate.io USDT-settled futures.
// Resty retries reads only; one shared rate limiter.
package connectors

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shadowmonitor/src/candles"
	"shadowmonitor/src/model"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// Default retry configuration
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 4 * time.Second

	gateMaxCandles = 2000

	// price trigger rules
	triggerRuleGTE = 1
	triggerRuleLTE = 2
)

// GateAPIError is a non-2xx answer carrying Gate's error label.
type GateAPIError struct {
	Status  int    `json:"-"`
	Label   string `json:"label"`
	Message string `json:"message"`
}

func (e *GateAPIError) Error() string {
	return fmt.Sprintf("gate HTTP %d %s: %s (%s)", e.Status, e.Label, e.Message, GetErrorMsg(e.Label))
}

// GateClient implements candle, contract and order capabilities on Gate.io.
type GateClient struct {
	apiKey     string
	apiSecret  string
	settle     string
	pathPrefix string // e.g. /api/v4, part of the signed path
	http       *resty.Client
	limiter    *rate.Limiter
	now        func() time.Time
}

func isRetryableResp(r *resty.Response, err error) bool {
	// Only reads are retried; an order may be live even when the gateway fails.
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}

	if err != nil {
		// cancellation is final
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == http.StatusTooManyRequests {
		return true
	}
	if code == http.StatusRequestTimeout {
		return true
	}
	return false
}

// NewLimiter builds the process-wide exchange limiter from config.
func NewLimiter(cfg Config) *rate.Limiter {
	rps := cfg.ExchangeRPS
	if rps <= 0 {
		rps = 10
	}
	burst := cfg.ExchangeBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func NewGateClient(cfg Config, limiter *rate.Limiter) *GateClient {
	baseURL := strings.TrimRight(cfg.GateBaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.gateio.ws/api/v4"
		logger.Warnf("No Gate base URL provided, using default: %s", baseURL)
	}

	prefix := ""
	if u, err := url.Parse(baseURL); err == nil {
		prefix = strings.TrimRight(u.Path, "/")
	}

	settle := cfg.GateSettle
	if settle == "" {
		settle = "usdt"
	}

	if limiter == nil {
		limiter = NewLimiter(cfg)
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &GateClient{
		apiKey:     cfg.GateAPIKey,
		apiSecret:  cfg.GateAPISecret,
		settle:     settle,
		pathPrefix: prefix,
		http:       httpClient,
		limiter:    limiter,
		now:        time.Now,
	}
}

// signGate builds the v4 signature:
// HMAC-SHA512(method\npath\nquery\nhex(sha512(body))\ntimestamp).
func signGate(method, path, query, body string, ts int64, secret string) string {
	bodyHash := sha512.Sum512([]byte(body))
	payload := strings.Join([]string{
		method,
		path,
		query,
		hex.EncodeToString(bodyHash[:]),
		strconv.FormatInt(ts, 10),
	}, "\n")

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *GateClient) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}, private bool, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var raw []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		raw = b
	}

	qs := query.Encode()

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json")

	if qs != "" {
		req = req.SetQueryString(qs)
	}
	if raw != nil {
		req = req.SetBody(raw).SetHeader("Content-Type", "application/json")
	}
	if private {
		if c.apiKey == "" || c.apiSecret == "" {
			return errors.New("gate api key/secret not configured")
		}
		ts := c.now().Unix()
		req = req.
			SetHeader("KEY", c.apiKey).
			SetHeader("Timestamp", strconv.FormatInt(ts, 10)).
			SetHeader("SIGN", signGate(method, c.pathPrefix+path, qs, string(raw), ts, c.apiSecret))
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return err
	}

	if resp.IsError() {
		apiErr := &GateAPIError{Status: resp.StatusCode()}
		if jsonErr := json.Unmarshal(resp.Body(), apiErr); jsonErr != nil || apiErr.Label == "" {
			apiErr.Label = "HTTP_" + strconv.Itoa(resp.StatusCode())
			apiErr.Message = string(resp.Body())
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Body(), out)
}

type gateCandle struct {
	T json.Number `json:"t"`
	V json.Number `json:"v"`
	O string      `json:"o"`
	H string      `json:"h"`
	L string      `json:"l"`
	C string      `json:"c"`
}

// FetchCandles returns the latest limit candles, in-progress one included.
func (c *GateClient) FetchCandles(ctx context.Context, symbol string, interval candles.Interval, limit int) ([]model.Candle, error) {
	if limit > gateMaxCandles {
		limit = gateMaxCandles
	}

	q := url.Values{}
	q.Set("contract", symbol)
	q.Set("interval", string(interval))
	q.Set("limit", strconv.Itoa(limit))

	var rows []gateCandle
	if err := c.doRequest(ctx, http.MethodGet, "/futures/"+c.settle+"/candlesticks", q, nil, false, &rows); err != nil {
		return nil, err
	}

	out := make([]model.Candle, 0, len(rows))
	for _, r := range rows {
		candle, err := r.toCandle()
		if err != nil {
			return nil, fmt.Errorf("decode candle %s: %w", symbol, err)
		}
		out = append(out, candle)
	}
	return out, nil
}

func (r gateCandle) toCandle() (model.Candle, error) {
	ts, err := r.T.Float64()
	if err != nil {
		return model.Candle{}, err
	}
	var vals [5]float64
	for i, s := range []string{r.O, r.H, r.L, r.C, r.V.String()} {
		if s == "" {
			continue
		}
		if vals[i], err = strconv.ParseFloat(s, 64); err != nil {
			return model.Candle{}, err
		}
	}
	return model.Candle{
		OpenTime: time.Unix(int64(ts), 0).UTC(),
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

type gateContract struct {
	Name             string `json:"name"`
	QuantoMultiplier string `json:"quanto_multiplier"`
	OrderPriceRound  string `json:"order_price_round"`
	InDelisting      bool   `json:"in_delisting"`
}

// FetchContracts lists tradable contracts; delisting ones are skipped.
func (c *GateClient) FetchContracts(ctx context.Context) ([]model.Contract, error) {
	var rows []gateContract
	if err := c.doRequest(ctx, http.MethodGet, "/futures/"+c.settle+"/contracts", nil, nil, false, &rows); err != nil {
		return nil, err
	}

	out := make([]model.Contract, 0, len(rows))
	for _, r := range rows {
		if r.InDelisting {
			continue
		}
		mult, err := strconv.ParseFloat(r.QuantoMultiplier, 64)
		if err != nil {
			mult = 0
		}
		out = append(out, model.Contract{
			Name:             r.Name,
			QuantoMultiplier: mult,
			OrderPriceRound:  r.OrderPriceRound,
		})
	}
	return out, nil
}

type gateOrderRequest struct {
	Contract   string `json:"contract"`
	Size       int64  `json:"size"`
	Price      string `json:"price"`
	Tif        string `json:"tif"`
	Text       string `json:"text,omitempty"`
	ReduceOnly bool   `json:"reduce_only,omitempty"`
}

type gateTrigger struct {
	StrategyType int    `json:"strategy_type"`
	PriceType    int    `json:"price_type"`
	Price        string `json:"price"`
	Rule         int    `json:"rule"`
	Expiration   int    `json:"expiration"`
}

type gatePriceOrderRequest struct {
	Initial gateOrderRequest `json:"initial"`
	Trigger gateTrigger      `json:"trigger"`
}

type gateIDResponse struct {
	ID json.Number `json:"id"`
}

// ClientOrderText returns a fresh text tag accepted by Gate ("t-" prefix, at most 28 chars).
func ClientOrderText() string {
	return "t-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:26]
}

// PlaceOrder submits the entry order and then its take-profit and stop-loss
// triggers. Once the entry is accepted the ack is returned even if a leg
// fails; the leg failure is reported in BracketErr. An entry left without a
// stop loss is flattened.
func (c *GateClient) PlaceOrder(ctx context.Context, order model.Order) (model.OrderAck, error) {
	size := decimal.NewFromFloat(order.OrderSize)
	if !size.IsInteger() || !size.IsPositive() {
		return model.OrderAck{}, fmt.Errorf("order size %s is not a positive whole number of contracts", size)
	}
	contracts := size.IntPart()

	signed := contracts
	switch order.Side {
	case model.SideBuy:
	case model.SideSell:
		signed = -contracts
	default:
		return model.OrderAck{}, fmt.Errorf("unknown side %q", order.Side)
	}

	text := order.ClientOrderText
	if text == "" {
		text = ClientOrderText()
	}

	entry := gateOrderRequest{
		Contract: order.Symbol,
		Size:     signed,
		Price:    "0",
		Tif:      "ioc",
		Text:     text,
	}
	if order.OrderType == model.OrderTypeLimit {
		entry.Price = decimal.NewFromFloat(order.EntryPrice).String()
		entry.Tif = "gtc"
	}

	var placed gateIDResponse
	if err := c.doRequest(ctx, http.MethodPost, "/futures/"+c.settle+"/orders", nil, entry, true, &placed); err != nil {
		return model.OrderAck{}, err
	}

	ack := model.OrderAck{OrderID: placed.ID.String(), Text: text}

	// The entry is live; finish the exits even if the caller is shutting down.
	legCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	tpRule, slRule := triggerRuleGTE, triggerRuleLTE
	if order.Side == model.SideSell {
		tpRule, slRule = triggerRuleLTE, triggerRuleGTE
	}

	var legErrs []error
	if id, err := c.placeTrigger(legCtx, order.Symbol, -signed, order.TakeProfitPrice, tpRule); err != nil {
		legErrs = append(legErrs, fmt.Errorf("take profit: %w", err))
	} else {
		ack.TakeProfitID = id
	}
	if id, err := c.placeTrigger(legCtx, order.Symbol, -signed, order.StopLossPrice, slRule); err != nil {
		legErrs = append(legErrs, fmt.Errorf("stop loss: %w", err))
	} else {
		ack.StopLossID = id
	}
	if ack.StopLossID == "" {
		if err := c.flatten(legCtx, order, ack, -signed); err != nil {
			legErrs = append(legErrs, fmt.Errorf("close unprotected entry: %w", err))
		} else {
			ack.Flattened = true
		}
	}
	ack.BracketErr = errors.Join(legErrs...)

	return ack, nil
}

// flatten undoes an entry whose stop loss could not be placed. A market
// entry is closed with a reduce-only order; a limit entry is cancelled.
// A take-profit trigger already placed is cancelled first.
func (c *GateClient) flatten(ctx context.Context, order model.Order, ack model.OrderAck, closeSize int64) error {
	log := logger.WithFields(map[string]interface{}{
		"op":       "flatten",
		"symbol":   order.Symbol,
		"order_id": ack.OrderID,
	})

	var errs []error
	if ack.TakeProfitID != "" {
		if err := c.doRequest(ctx, http.MethodDelete, "/futures/"+c.settle+"/price_orders/"+ack.TakeProfitID, nil, nil, true, nil); err != nil {
			errs = append(errs, fmt.Errorf("cancel take profit: %w", err))
		}
	}

	if order.OrderType == model.OrderTypeLimit {
		if err := c.doRequest(ctx, http.MethodDelete, "/futures/"+c.settle+"/orders/"+ack.OrderID, nil, nil, true, nil); err != nil {
			errs = append(errs, fmt.Errorf("cancel entry: %w", err))
		}
	} else {
		closeReq := gateOrderRequest{
			Contract:   order.Symbol,
			Size:       closeSize,
			Price:      "0",
			Tif:        "ioc",
			Text:       ClientOrderText(),
			ReduceOnly: true,
		}
		if err := c.doRequest(ctx, http.MethodPost, "/futures/"+c.settle+"/orders", nil, closeReq, true, nil); err != nil {
			errs = append(errs, fmt.Errorf("close position: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		log.WithError(err).Error("entry left without stop loss")
		return err
	}
	log.Warn("entry closed after stop loss placement failed")
	return nil
}

func (c *GateClient) placeTrigger(ctx context.Context, symbol string, size int64, price float64, rule int) (string, error) {
	req := gatePriceOrderRequest{
		Initial: gateOrderRequest{
			Contract:   symbol,
			Size:       size,
			Price:      "0",
			Tif:        "ioc",
			ReduceOnly: true,
		},
		Trigger: gateTrigger{
			Price: decimal.NewFromFloat(price).String(),
			Rule:  rule,
		},
	}

	var resp gateIDResponse
	if err := c.doRequest(ctx, http.MethodPost, "/futures/"+c.settle+"/price_orders", nil, req, true, &resp); err != nil {
		return "", err
	}
	return resp.ID.String(), nil
}
