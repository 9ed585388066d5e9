package execution

import (
	"context"
	"strconv"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"github.com/FrancoUysp/TT/internal/logger"
	"github.com/FrancoUysp/TT/internal/types"
	"github.com/FrancoUysp/TT/pkg/errors"
)

// BinanceDecimalPrecision is the quantity precision used when formatting
// order sizes. 8 decimals covers satoshi-level sizing for BTC-like assets.
const BinanceDecimalPrecision = 8

// BinancePort routes orders to Binance spot as market orders. It is thin
// glue over the exchange client: no margin checks, no retries, just order
// submission. Shorts here close long exposure (spot sell); derivatives
// routing belongs in a different port.
type BinancePort struct {
	client *binance.Client
	log    *logger.Logger
}

// NewBinancePort creates a port against the live or testnet endpoint.
func NewBinancePort(apiKey, secretKey string, useTestnet bool, log *logger.Logger) *BinancePort {
	binance.UseTestnet = useTestnet

	return &BinancePort{
		client: binance.NewClient(apiKey, secretKey),
		log:    log,
	}
}

// Place implements Port.
func (b *BinancePort) Place(ctx context.Context, order Order) (OrderRef, error) {
	if err := order.Validate(); err != nil {
		return "", err
	}

	side := binance.SideTypeBuy
	if order.Side == types.SideShort {
		side = binance.SideTypeSell
	}

	res, err := b.client.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(formatQuantity(order.Quantity)).
		Do(ctx)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOrderFailed, "binance order rejected", err)
	}

	b.log.Info("binance order placed",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Int64("order_id", res.OrderID),
	)

	return OrderRef(strconv.FormatInt(res.OrderID, 10)), nil
}

// Close implements Port.
func (b *BinancePort) Close(ctx context.Context, side types.Side, quantity float64, symbol string, ref OrderRef) error {
	// Closing takes the opposite side of the entry.
	closeSide := binance.SideTypeSell
	if side == types.SideShort {
		closeSide = binance.SideTypeBuy
	}

	res, err := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(closeSide).
		Type(binance.OrderTypeMarket).
		Quantity(formatQuantity(quantity)).
		Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeOrderCloseFailed, "binance close rejected", err)
	}

	b.log.Info("binance position closed",
		zap.String("symbol", symbol),
		zap.String("entry_ref", string(ref)),
		zap.Int64("order_id", res.OrderID),
	)

	return nil
}

func formatQuantity(quantity float64) string {
	return strconv.FormatFloat(quantity, 'f', BinanceDecimalPrecision, 64)
}
