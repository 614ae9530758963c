package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	sig "edgelab-go/internal/signal"
)

// Stream consumes a live kline websocket feed and turns closed candles into
// bars for the scanning loop. Historical backtests never use it.
type Stream struct {
	url     string
	symbols []string
	log     zerolog.Logger
}

const defaultStreamURL = "wss://stream.binance.com:9443/stream"

// NewStream builds a live bar stream for the given symbols. An empty url
// falls back to the public Binance combined-stream endpoint.
func NewStream(url string, symbols []string, log zerolog.Logger) *Stream {
	if url == "" {
		url = defaultStreamURL
	}
	return &Stream{url: strings.TrimSuffix(url, "/"), symbols: symbols, log: log}
}

type klineEnvelope struct {
	Stream string    `json:"stream"`
	Data   klineData `json:"data"`
}

type klineData struct {
	Symbol string  `json:"s"`
	Kline  klineTk `json:"k"`
}

type klineTk struct {
	Start  int64  `json:"t"`
	Open   string `json:"o"`
	High   string `json:"h"`
	Low    string `json:"l"`
	Close  string `json:"c"`
	Volume string `json:"v"`
	Final  bool   `json:"x"`
}

// Run streams closed klines into out until the context ends, reconnecting
// with exponential backoff on transport errors.
func (st *Stream) Run(ctx context.Context, out chan<- sig.Bar) error {
	if len(st.symbols) == 0 {
		return fmt.Errorf("stream requires at least one symbol")
	}

	streams := make([]string, len(st.symbols))
	for i, sym := range st.symbols {
		streams[i] = strings.ToLower(sym) + "@kline_1m"
	}
	url := fmt.Sprintf("%s?streams=%s", st.url, strings.Join(streams, "/"))

	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := st.consume(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			st.log.Warn().Err(err).Msg("bar stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (st *Stream) consume(ctx context.Context, url string, out chan<- sig.Bar) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	st.log.Info().Strs("symbols", st.symbols).Msg("connected live bar stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					st.log.Warn().Err(err).Msg("stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env klineEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			st.log.Warn().Err(err).Msg("failed to decode kline message")
			continue
		}
		if !env.Data.Kline.Final {
			continue // only closed candles become bars
		}

		bar, err := parseKline(env.Data)
		if err != nil {
			st.log.Warn().Err(err).Msg("failed to parse kline")
			continue
		}
		select {
		case out <- bar:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func parseKline(data klineData) (sig.Bar, error) {
	open, err := strconv.ParseFloat(data.Kline.Open, 64)
	if err != nil {
		return sig.Bar{}, fmt.Errorf("parse open: %w", err)
	}
	high, err := strconv.ParseFloat(data.Kline.High, 64)
	if err != nil {
		return sig.Bar{}, fmt.Errorf("parse high: %w", err)
	}
	low, err := strconv.ParseFloat(data.Kline.Low, 64)
	if err != nil {
		return sig.Bar{}, fmt.Errorf("parse low: %w", err)
	}
	clos, err := strconv.ParseFloat(data.Kline.Close, 64)
	if err != nil {
		return sig.Bar{}, fmt.Errorf("parse close: %w", err)
	}
	vol, err := strconv.ParseFloat(data.Kline.Volume, 64)
	if err != nil {
		return sig.Bar{}, fmt.Errorf("parse volume: %w", err)
	}
	return sig.Bar{
		Symbol: strings.ToUpper(data.Symbol),
		Ts:     time.UnixMilli(data.Kline.Start).UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  clos,
		Volume: vol,
	}, nil
}
