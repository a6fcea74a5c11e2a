package market

import (
	"context"
	"strconv"
	"strings"
	"time"

	"DayTradeBot/internal/models"
	"DayTradeBot/internal/services/series"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
)

// Provider returns one price/volume series per requested asset. Assets the
// provider cannot serve are simply absent from the snapshot; the cycle
// treats them as insufficient data.
type Provider interface {
	Snapshot(ctx context.Context, assets []string, interval string, lookback int) map[string]series.Series
}

// Fetcher pulls klines from Binance spot and converts them into analysis
// series. Short symbols are mapped to their USDT pair (BTC -> BTCUSDT).
type Fetcher struct {
	client *binance.Client
	log    zerolog.Logger
}

func NewFetcher(client *binance.Client, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: client,
		log:    log.With().Str("component", "market").Logger(),
	}
}

// Snapshot fetches every asset once, in a single pass, so a cycle never
// mixes data from two different points in time for the same asset.
func (f *Fetcher) Snapshot(ctx context.Context, assets []string, interval string, lookback int) map[string]series.Series {
	snapshot := make(map[string]series.Series, len(assets))

	for _, asset := range assets {
		s, err := f.fetchSeries(ctx, asset, interval, lookback)
		if err != nil {
			f.log.Warn().Err(err).Str("asset", asset).Msg("kline fetch failed, asset excluded from snapshot")
			continue
		}
		snapshot[asset] = s
	}
	return snapshot
}

func (f *Fetcher) fetchSeries(ctx context.Context, asset, interval string, lookback int) (series.Series, error) {
	klines, err := f.client.NewKlinesService().
		Symbol(pairSymbol(asset)).
		Interval(interval).
		Limit(lookback).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	s := make(series.Series, 0, len(klines))
	for _, k := range klines {
		s = append(s, series.Point{
			Timestamp: time.UnixMilli(k.OpenTime),
			Price:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
		})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Candles fetches raw candles for persistence (backtest data).
func (f *Fetcher) Candles(ctx context.Context, asset, interval string, start, end time.Time) ([]models.Price, error) {
	klines, err := f.client.NewKlinesService().
		Symbol(pairSymbol(asset)).
		Interval(interval).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(500).
		Do(ctx)
	if err != nil {
		return nil, err
	}

	prices := make([]models.Price, 0, len(klines))
	for _, k := range klines {
		prices = append(prices, models.Price{
			Asset:     asset,
			Interval:  interval,
			OpenTime:  time.UnixMilli(k.OpenTime),
			CloseTime: time.UnixMilli(k.CloseTime),
			Open:      parseFloat(k.Open),
			High:      parseFloat(k.High),
			Low:       parseFloat(k.Low),
			Close:     parseFloat(k.Close),
			Volume:    parseFloat(k.Volume),
		})
	}
	return prices, nil
}

func pairSymbol(asset string) string {
	s := strings.ToUpper(asset)
	if strings.HasSuffix(s, "USDT") {
		return s
	}
	return s + "USDT"
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
