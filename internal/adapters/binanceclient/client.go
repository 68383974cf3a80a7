package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"github.com/hujadis/geraship/internal/domain"
	"github.com/hujadis/geraship/internal/ports"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	defaultAccountLabel = "binance-main"
)

var _ ports.PositionSource = (*Client)(nil)

// Client is a ports.PositionSource backed by the USD-M futures position-risk
// endpoint. Every open position of the account becomes one domain.Position
// whose Address is the configured account label.
type Client struct {
	futuresClient *futures.Client
	logger        ports.Logger
	accountLabel  string

	// fetchRisk is replaced in tests.
	fetchRisk func(ctx context.Context) ([]*futures.PositionRisk, error)
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey       string
	SecretKey    string
	UseTestnet   bool
	AccountLabel string
	Logger       ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client: %w", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("position risk is a signed endpoint, API key and secret are required: %w", ports.ErrInvalidAPIKeys)
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	label := cfg.AccountLabel
	if label == "" {
		label = defaultAccountLabel
	}

	c := &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		accountLabel:  label,
	}
	c.fetchRisk = func(ctx context.Context) ([]*futures.PositionRisk, error) {
		return c.futuresClient.NewGetPositionRiskService().Do(ctx)
	}
	return c, nil
}

// Name identifies the source in logs.
func (c *Client) Name() string { return "binance" }

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022: // Signature for this request is not valid
			mappedErr = ports.ErrAuthenticationFailed
		case -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1121, -1125, -1127, -1128, -1130:
			mappedErr = ports.ErrInvalidRequest
		case -2014, -2015: // API-key format invalid / invalid key, IP or permissions
			mappedErr = ports.ErrInvalidAPIKeys
		default:
			mappedErr = ports.ErrSourceUnavailable
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	var finalErr error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case strings.Contains(err.Error(), "use of closed network connection"),
		strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "no such host"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// Ping checks the connectivity to the exchange API.
func (c *Client) Ping(ctx context.Context) error {
	op := "Ping"
	if err := c.futuresClient.NewPingService().Do(ctx); err != nil {
		return c.handleError(ctx, fmt.Errorf("ping failed: %w", err), op)
	}
	c.logger.Debug(ctx, op+" successful")
	return nil
}

// FetchPositions returns every non-zero position of the account. Either all
// positions are returned or an error; a record that cannot be parsed fails the
// whole fetch.
func (c *Client) FetchPositions(ctx context.Context) ([]domain.Position, error) {
	op := "FetchPositions"
	risks, err := c.fetchRisk(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	positions := make([]domain.Position, 0, len(risks))
	for _, risk := range risks {
		pos, ok, err := translatePositionRisk(risk, c.accountLabel)
		if err != nil {
			return nil, c.handleError(ctx, fmt.Errorf("%w: %w", ports.ErrMalformedRecord, err), op)
		}
		if !ok {
			continue
		}
		positions = append(positions, pos)
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"received": len(risks), "open": len(positions)})
	return positions, nil
}

// translatePositionRisk maps one position-risk entry. ok is false for entries
// with a zero position amount, which the endpoint returns for every symbol the
// account has touched. Binance assigns no position id, so ID stays 0.
func translatePositionRisk(risk *futures.PositionRisk, account string) (domain.Position, bool, error) {
	if risk == nil {
		return domain.Position{}, false, nil
	}
	amount, err := parseDecimal("positionAmt", risk.PositionAmt)
	if err != nil {
		return domain.Position{}, false, err
	}
	if amount.IsZero() {
		return domain.Position{}, false, nil
	}

	pos := domain.Position{
		Asset:   risk.Symbol,
		Size:    domain.Float(amount.InexactFloat64()),
		IsLong:  domain.Bool(amount.IsPositive()),
		Status:  domain.StatusActive,
		Address: account,
	}
	if pos.EntryPrice, err = optionalFloat("entryPrice", risk.EntryPrice); err != nil {
		return domain.Position{}, false, err
	}
	if pos.Leverage, err = optionalFloat("leverage", risk.Leverage); err != nil {
		return domain.Position{}, false, err
	}
	if pos.PnL, err = optionalFloat("unRealizedProfit", risk.UnRealizedProfit); err != nil {
		return domain.Position{}, false, err
	}
	return pos, true, nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", field, raw, err)
	}
	return d, nil
}

// optionalFloat treats an empty string as an absent value.
func optionalFloat(field, raw string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := parseDecimal(field, raw)
	if err != nil {
		return nil, err
	}
	return domain.Float(d.InexactFloat64()), nil
}
