package portfolio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-tracker/internal/models"
)

// HoldingsHeader is the column order of holdings CSV files
var HoldingsHeader = []string{"symbol", "quantity", "purchase_price", "purchase_date"}

// ValuationsHeader is the column order of the valuation report
var ValuationsHeader = []string{
	"symbol", "stock_name", "quantity", "purchase_price", "current_price", "purchase_date",
	"cost", "value", "gain_loss", "gain_loss_percent",
}

var columnAliases = map[string]string{
	"shares": "quantity",
	"price":  "purchase_price",
	"date":   "purchase_date",
}

// WriteHoldingsCSV writes holdings in a form ReadHoldingsCSV reads back unchanged
func WriteHoldingsCSV(w io.Writer, holdings []*models.Holding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HoldingsHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, h := range holdings {
		record := []string{
			h.Symbol,
			h.Quantity.String(),
			h.PurchasePrice.String(),
			h.PurchaseDate.Format(models.DateLayout),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write holding %s: %w", h.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadHoldingsCSV parses a holdings file. Columns are matched by header name,
// so their order does not matter; blank lines are skipped.
func ReadHoldingsCSV(r io.Reader) ([]*models.Holding, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty csv", ErrInvalidHolding)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		index[name] = i
	}
	for _, col := range HoldingsHeader[:3] {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidHolding, col)
		}
	}

	var holdings []*models.Holding
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidHolding, err)
		}
		line, _ := cr.FieldPos(0)

		h, err := parseRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrInvalidHolding, line, err)
		}
		holdings = append(holdings, h)
	}
	return holdings, nil
}

func parseRecord(record []string, index map[string]int) (*models.Holding, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	h := &models.Holding{Symbol: field("symbol")}
	if h.Symbol == "" {
		return nil, errors.New("symbol is empty")
	}

	var err error
	if h.Quantity, err = decimal.NewFromString(field("quantity")); err != nil {
		return nil, fmt.Errorf("quantity: %v", err)
	}
	if h.PurchasePrice, err = decimal.NewFromString(field("purchase_price")); err != nil {
		return nil, fmt.Errorf("purchase_price: %v", err)
	}
	if d := field("purchase_date"); d != "" {
		if h.PurchaseDate, err = time.Parse(models.DateLayout, d); err != nil {
			return nil, fmt.Errorf("purchase_date: %v", err)
		}
	}
	return h, nil
}

// WriteValuationsCSV writes the priced holdings report
func WriteValuationsCSV(w io.Writer, vals []*models.HoldingValuation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ValuationsHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, v := range vals {
		record := []string{
			v.Symbol,
			v.StockName,
			v.Quantity.String(),
			v.PurchasePrice.String(),
			v.CurrentPrice.StringFixed(2),
			v.PurchaseDate.Format(models.DateLayout),
			v.CostBasis.StringFixed(2),
			v.MarketValue.StringFixed(2),
			v.GainLoss.StringFixed(2),
			v.GainLossPercent.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write valuation %s: %w", v.Symbol, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes the user's holdings
func (s *Service) ExportCSV(username string, w io.Writer) error {
	holdings, err := s.store.GetHoldings(username)
	if err != nil {
		return err
	}
	return WriteHoldingsCSV(w, holdings)
}

// ImportCSV validates every row and stores them in one transaction. With
// replace the user's existing holdings are dropped first.
func (s *Service) ImportCSV(username string, r io.Reader, replace bool) (int, error) {
	holdings, err := ReadHoldingsCSV(r)
	if err != nil {
		return 0, err
	}

	today := s.now().UTC()
	for i, h := range holdings {
		h.Username = username
		if err := Validate(h, today); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
	}

	if replace {
		err = s.store.ReplaceHoldings(username, holdings)
	} else {
		err = s.store.InsertHoldings(username, holdings)
	}
	if err != nil {
		return 0, err
	}
	return len(holdings), nil
}

// ExportValuationsCSV writes the user's holdings priced at the market
func (s *Service) ExportValuationsCSV(ctx context.Context, username string, w io.Writer) error {
	vals, err := s.Valuations(ctx, username)
	if err != nil {
		return err
	}
	return WriteValuationsCSV(w, vals)
}
