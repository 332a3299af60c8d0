package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/stock-tracker/internal/models"
)

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// zigzag produces a deterministic series with both gains and losses
func zigzag(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i%4)
	}
	return out
}

func testSeries(n int) *models.PriceSeries {
	closes := zigzag(n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &models.PriceSeries{Symbol: "TEST"}
	for i, c := range closes {
		s.Bars = append(s.Bars, models.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: int64(1000 + i*10),
		})
	}
	return s
}

func TestSMA(t *testing.T) {
	t.Run("trailing window example", func(t *testing.T) {
		got := SMA([]float64{10, 11, 12, 13, 14}, 3)
		require.Len(t, got, 5)
		assert.False(t, got[0].Valid)
		assert.False(t, got[1].Valid)
		assert.InDelta(t, 11.0, got[2].Float64, 1e-9)
		assert.InDelta(t, 12.0, got[3].Float64, 1e-9)
		assert.InDelta(t, 13.0, got[4].Float64, 1e-9)
	})

	t.Run("constant series equals the constant after warm-up", func(t *testing.T) {
		got := SMA(constant(30, 42.5), 10)
		for i, v := range got {
			if i < 9 {
				assert.False(t, v.Valid, "index %d", i)
				continue
			}
			assert.InDelta(t, 42.5, v.Float64, 1e-9)
		}
	})

	t.Run("short series is all undefined", func(t *testing.T) {
		got := SMA([]float64{1, 2}, 3)
		assert.Len(t, got, 2)
		assert.Zero(t, got.CountDefined())
	})

	t.Run("non-positive window is all undefined", func(t *testing.T) {
		assert.Zero(t, SMA([]float64{1, 2, 3}, 0).CountDefined())
		assert.Zero(t, SMA([]float64{1, 2, 3}, -1).CountDefined())
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := []float64{1, 2, 3, 4}
		_ = SMA(in, 2)
		assert.Equal(t, []float64{1, 2, 3, 4}, in)
	})
}

func TestEMA(t *testing.T) {
	t.Run("seeded with SMA", func(t *testing.T) {
		got := EMA([]float64{2, 4, 6, 8}, 3)
		assert.False(t, got[1].Valid)
		assert.InDelta(t, 4.0, got[2].Float64, 1e-9)
		// alpha = 0.5
		assert.InDelta(t, 6.0, got[3].Float64, 1e-9)
	})

	t.Run("constant series equals the constant after warm-up", func(t *testing.T) {
		got := EMA(constant(50, 7), 12)
		assert.Equal(t, 11, got.FirstDefined())
		for _, v := range got[11:] {
			assert.InDelta(t, 7.0, v.Float64, 1e-9)
		}
	})

	t.Run("short series is all undefined", func(t *testing.T) {
		assert.Zero(t, EMA([]float64{1, 2, 3}, 5).CountDefined())
	})
}

func TestRSI(t *testing.T) {
	t.Run("bounded between 0 and 100", func(t *testing.T) {
		for _, fn := range []func([]float64, int) Series{RSI, RSIWilder} {
			got := fn(zigzag(200), 14)
			assert.Equal(t, 14, got.FirstDefined())
			for _, v := range got {
				if v.Valid {
					assert.GreaterOrEqual(t, v.Float64, 0.0)
					assert.LessOrEqual(t, v.Float64, 100.0)
				}
			}
		}
	})

	t.Run("only gains reads 100", func(t *testing.T) {
		values := make([]float64, 20)
		for i := range values {
			values[i] = float64(i + 1)
		}
		v, ok := RSI(values, 14).Last()
		require.True(t, ok)
		assert.Equal(t, 100.0, v)
	})

	t.Run("only losses reads 0", func(t *testing.T) {
		values := make([]float64, 20)
		for i := range values {
			values[i] = float64(100 - i)
		}
		v, ok := RSI(values, 14).Last()
		require.True(t, ok)
		assert.InDelta(t, 0.0, v, 1e-9)
	})

	t.Run("flat series reads 50", func(t *testing.T) {
		v, ok := RSIWilder(constant(30, 10), 14).Last()
		require.True(t, ok)
		assert.Equal(t, 50.0, v)
	})

	t.Run("needs period+1 values", func(t *testing.T) {
		assert.Zero(t, RSI(constant(14, 1), 14).CountDefined())
		assert.Equal(t, 1, RSI(constant(15, 1), 14).CountDefined())
	})
}

func TestMACD(t *testing.T) {
	t.Run("warm-up offsets", func(t *testing.T) {
		res := MACD(zigzag(60), MACDFast, MACDSlow, MACDSignal)
		assert.Equal(t, 25, res.Line.FirstDefined())
		assert.Equal(t, 33, res.Signal.FirstDefined())
		assert.Equal(t, 33, res.Histogram.FirstDefined())

		for i := 33; i < 60; i++ {
			assert.InDelta(t, res.Line[i].Float64-res.Signal[i].Float64, res.Histogram[i].Float64, 1e-9)
		}
	})

	t.Run("constant series is zero", func(t *testing.T) {
		res := MACD(constant(60, 5), MACDFast, MACDSlow, MACDSignal)
		v, ok := res.Line.Last()
		require.True(t, ok)
		assert.InDelta(t, 0.0, v, 1e-9)
	})

	t.Run("short series is all undefined", func(t *testing.T) {
		res := MACD(zigzag(20), MACDFast, MACDSlow, MACDSignal)
		assert.Zero(t, res.Line.CountDefined())
		assert.Zero(t, res.Signal.CountDefined())
	})
}

func TestBollinger(t *testing.T) {
	t.Run("upper >= middle >= lower", func(t *testing.T) {
		res := Bollinger(zigzag(120), BollingerPeriod, BollingerK)
		assert.Equal(t, 19, res.Middle.FirstDefined())
		for i := range res.Middle {
			if !res.Middle[i].Valid {
				continue
			}
			assert.GreaterOrEqual(t, res.Upper[i].Float64, res.Middle[i].Float64)
			assert.GreaterOrEqual(t, res.Middle[i].Float64, res.Lower[i].Float64)
		}
	})

	t.Run("middle band is the SMA", func(t *testing.T) {
		values := zigzag(40)
		res := Bollinger(values, 20, 2)
		sma := SMA(values, 20)
		for i := 19; i < 40; i++ {
			assert.InDelta(t, sma[i].Float64, res.Middle[i].Float64, 1e-9)
		}
	})

	t.Run("sample standard deviation", func(t *testing.T) {
		res := Bollinger([]float64{1, 2, 3}, 3, 1)
		// mean 2, sample std 1
		assert.InDelta(t, 3.0, res.Upper[2].Float64, 1e-9)
		assert.InDelta(t, 1.0, res.Lower[2].Float64, 1e-9)
	})

	t.Run("constant series collapses the bands", func(t *testing.T) {
		res := Bollinger(constant(25, 3), 20, 2)
		v, ok := res.Upper.Last()
		require.True(t, ok)
		assert.InDelta(t, 3.0, v, 1e-9)
	})
}

func TestOscillators(t *testing.T) {
	s := testSeries(60)
	highs, lows, closes, volumes := s.Highs(), s.Lows(), s.Closes(), s.Volumes()

	t.Run("stochastic bounded", func(t *testing.T) {
		res := Stochastic(highs, lows, closes, StochasticK, StochasticD)
		assert.Equal(t, 13, res.K.FirstDefined())
		assert.Equal(t, 15, res.D.FirstDefined())
		for _, v := range res.K {
			if v.Valid {
				assert.GreaterOrEqual(t, v.Float64, 0.0)
				assert.LessOrEqual(t, v.Float64, 100.0)
			}
		}
	})

	t.Run("williams r bounded", func(t *testing.T) {
		for _, v := range WilliamsR(highs, lows, closes, WilliamsRLen) {
			if v.Valid {
				assert.GreaterOrEqual(t, v.Float64, -100.0)
				assert.LessOrEqual(t, v.Float64, 0.0)
			}
		}
	})

	t.Run("true range uses previous close", func(t *testing.T) {
		tr := TrueRange([]float64{10, 12}, []float64{9, 11}, []float64{9.5, 11.5})
		assert.Equal(t, []float64{1, 2.5}, tr)
	})

	t.Run("atr positive", func(t *testing.T) {
		v, ok := ATR(highs, lows, closes, ATRPeriod).Last()
		require.True(t, ok)
		assert.Greater(t, v, 0.0)
	})

	t.Run("cci flat window reads zero", func(t *testing.T) {
		flat := constant(25, 10)
		v, ok := CCI(flat, flat, flat, CCIPeriod).Last()
		require.True(t, ok)
		assert.Equal(t, 0.0, v)
	})

	t.Run("vwap of a flat price is the price", func(t *testing.T) {
		flat := constant(5, 10)
		res := VWAP(flat, flat, flat, []float64{0, 100, 200, 300, 400})
		assert.False(t, res[0].Valid)
		assert.InDelta(t, 10.0, res[4].Float64, 1e-9)
	})

	t.Run("obv accumulates signed volume", func(t *testing.T) {
		res := OBV([]float64{10, 11, 10, 10}, volumes[:4])
		assert.Equal(t, volumes[0], res[0].Float64)
		assert.Equal(t, volumes[0]+volumes[1], res[1].Float64)
		assert.Equal(t, volumes[0]+volumes[1]-volumes[2], res[2].Float64)
		assert.Equal(t, res[2].Float64, res[3].Float64)
	})

	t.Run("mismatched lengths are undefined", func(t *testing.T) {
		assert.Zero(t, WilliamsR(highs[:10], lows, closes, 5).CountDefined())
	})
}

func TestSupportResistance(t *testing.T) {
	t.Run("finds pivots", func(t *testing.T) {
		highs := []float64{1, 2, 5, 2, 1, 2, 4, 2, 1}
		lows := []float64{3, 2, 4, 2, 0, 2, 4, 2, 3}
		levels := SupportResistance(highs, lows, 2, MaxLevels)
		assert.Equal(t, []float64{5, 4}, levels.Resistance)
		assert.Equal(t, []float64{0}, levels.Support)
		assert.True(t, levels.PivotHighs.Defined(2))
		assert.True(t, levels.PivotLows.Defined(4))
		assert.False(t, levels.PivotHighs.Defined(3))
	})

	t.Run("deduplicates and keeps the highest levels", func(t *testing.T) {
		highs := []float64{1, 3, 1, 3, 1, 6, 1, 5, 1, 4, 1, 2, 1}
		lows := make([]float64, len(highs))
		copy(lows, highs)
		levels := SupportResistance(highs, lows, 1, 2)
		assert.Equal(t, []float64{6, 5}, levels.Resistance)
		assert.Equal(t, []float64{1}, levels.Support)
	})

	t.Run("short series has no levels", func(t *testing.T) {
		levels := SupportResistance([]float64{1, 2}, []float64{1, 2}, 2, MaxLevels)
		assert.Empty(t, levels.Resistance)
		assert.Empty(t, levels.Support)
		assert.Len(t, levels.PivotHighs, 2)
	})
}

func TestFibonacci(t *testing.T) {
	levels := Fibonacci([]float64{110, 120, 115}, []float64{100, 105, 101})
	require.Len(t, levels, 7)
	assert.Equal(t, 120.0, levels[0].Price)
	assert.InDelta(t, 110.0, levels[3].Price, 1e-9)
	assert.Equal(t, 100.0, levels[6].Price)
	assert.Nil(t, Fibonacci(nil, nil))
}

func TestAnalyze(t *testing.T) {
	t.Run("computes the standard set", func(t *testing.T) {
		a := Analyze(testSeries(250))
		assert.Len(t, a, 19)
		for name, s := range a {
			assert.Len(t, s, 250, name)
		}
		_, ok := a[models.IndicatorSMA200].Last()
		assert.True(t, ok)
		assert.Contains(t, a.Latest(), models.IndicatorRSI14)
	})

	t.Run("short history leaves long windows undefined", func(t *testing.T) {
		a := Analyze(testSeries(30))
		assert.Zero(t, a[models.IndicatorSMA50].CountDefined())
		assert.NotContains(t, a.Latest(), models.IndicatorSMA200)
	})

	t.Run("empty series", func(t *testing.T) {
		assert.Empty(t, Analyze(&models.PriceSeries{}))
		assert.Empty(t, Analyze(nil))
	})
}

func TestSignals(t *testing.T) {
	t.Run("rsi overbought", func(t *testing.T) {
		a := Analysis{models.IndicatorRSI14: FromValues([]float64{50, 80})}
		signals := Signals(a, nil)
		require.Len(t, signals, 1)
		assert.Equal(t, models.SignalSell, signals[0].Action)
	})

	t.Run("golden cross", func(t *testing.T) {
		a := Analysis{
			models.IndicatorSMA20: FromValues([]float64{9, 11}),
			models.IndicatorSMA50: FromValues([]float64{10, 10}),
		}
		signals := Signals(a, nil)
		require.Len(t, signals, 1)
		assert.Equal(t, "MOVING_AVERAGE", signals[0].Indicator)
		assert.Equal(t, models.SignalBuy, signals[0].Action)
	})

	t.Run("close below lower band", func(t *testing.T) {
		a := Analysis{
			models.IndicatorBBUpper: FromValues([]float64{12}),
			models.IndicatorBBLower: FromValues([]float64{8}),
		}
		signals := Signals(a, []float64{7})
		require.Len(t, signals, 1)
		assert.Equal(t, models.SignalBuy, signals[0].Action)
	})

	t.Run("undefined inputs are skipped", func(t *testing.T) {
		a := Analyze(testSeries(10))
		assert.Empty(t, Signals(a, testSeries(10).Closes()))
	})
}
