// Copyright 2025 Fincollect

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package analysis derives per-year revenue and profitability metrics from
// the collected statements, and builds comparison tables across companies.
package analysis

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/fincollect/fincollect/db"
	"github.com/fincollect/fincollect/eastmoney/fundamentals"
	"github.com/fincollect/fincollect/table"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
	"gonum.org/v1/gonum/stat"
)

// Cell of a table Row which is a union of string or number (float64).
type Cell struct {
	IsNumber bool // which field to use as a value
	number   float64
	string   string
}

func (c Cell) String() string {
	if c.IsNumber {
		return fmt.Sprintf("%.2f", c.number)
	}
	return c.string
}

func String(s string) Cell {
	return Cell{string: s}
}

func Number(n float64) Cell {
	return Cell{IsNumber: true, number: n}
}

// Row of display cells.
type Row []Cell

var _ table.Row = Row{}

func (r Row) CSV() []string {
	res := make([]string, len(r))
	for i, c := range r {
		res[i] = c.String()
	}
	return res
}

// Metric is an optional metric value; OK is false when the inputs required
// to derive it are missing.
type Metric struct {
	Value float64
	OK    bool
}

func num(v float64) Metric { return Metric{Value: v, OK: true} }

// Cell formats the metric for display; missing values become "-".
func (m Metric) Cell() Cell {
	if !m.OK {
		return String("-")
	}
	return Number(m.Value)
}

// YearMetrics holds the derived metrics of one annual reporting period.
type YearMetrics struct {
	Year          uint16
	Revenue       Metric
	RevenueGrowth Metric // % over the previous year
	NetProfit     Metric // attributable to the parent
	ProfitGrowth  Metric // % over the previous year
	NetMargin     Metric // % of revenue
	OpCashFlow    Metric
	Capex         Metric
	FreeCashFlow  Metric // OpCashFlow - Capex
}

// revenue prefers the narrow operating income over the total, matching the
// vendor's income statement conventions for non-financial companies.
func revenue(r db.ReportRow) Metric {
	if v, ok := r.Item("OPERATE_INCOME"); ok {
		return num(v)
	}
	if v, ok := r.Item("TOTAL_OPERATE_INCOME"); ok {
		return num(v)
	}
	return Metric{}
}

func growth(curr, prev Metric) Metric {
	if !curr.OK || !prev.OK || prev.Value == 0 {
		return Metric{}
	}
	return num((curr.Value/prev.Value - 1.0) * 100.0)
}

func ratio(a, b Metric) Metric {
	if !a.OK || !b.OK || b.Value == 0 {
		return Metric{}
	}
	return num(a.Value / b.Value * 100.0)
}

// CompanyMetrics computes the annual metric series of one company from its
// collected income and cash flow statements. A missing cash flow statement
// leaves the cash metrics unset.
func CompanyMetrics(r *db.Reader, symbol string) ([]YearMetrics, error) {
	income, err := r.Reports(symbol, string(fundamentals.Income))
	if err != nil {
		return nil, errors.Annotate(err, "failed to read the income statement")
	}
	income = fundamentals.Annual(income)
	cashflow := map[uint16]db.ReportRow{}
	if r.HasReports(symbol, string(fundamentals.CashFlow)) {
		rows, err := r.Reports(symbol, string(fundamentals.CashFlow))
		if err != nil {
			return nil, errors.Annotate(err, "failed to read the cash flow statement")
		}
		for _, row := range fundamentals.Annual(rows) {
			cashflow[row.Period.Year()] = row
		}
	}
	ms := make([]YearMetrics, len(income))
	for i, row := range income {
		m := YearMetrics{Year: row.Period.Year(), Revenue: revenue(row)}
		if v, ok := row.Item("PARENT_NETPROFIT"); ok {
			m.NetProfit = num(v)
		}
		m.NetMargin = ratio(m.NetProfit, m.Revenue)
		if cf, ok := cashflow[m.Year]; ok {
			if v, ok := cf.Item("NETCASH_OPERATE"); ok {
				m.OpCashFlow = num(v)
			}
			if v, ok := cf.Item("CONSTRUCT_LONG_ASSET"); ok {
				m.Capex = num(v)
			}
			if m.OpCashFlow.OK && m.Capex.OK {
				m.FreeCashFlow = num(m.OpCashFlow.Value - m.Capex.Value)
			}
		}
		if i > 0 {
			m.RevenueGrowth = growth(m.Revenue, ms[i-1].Revenue)
			m.ProfitGrowth = growth(m.NetProfit, ms[i-1].NetProfit)
		}
		ms[i] = m
	}
	return ms, nil
}

// Stats are the sample statistics of one metric across years.
type Stats struct {
	Mean   float64
	StdDev float64
	N      int // number of years with the metric present
}

// GrowthStats computes the sample statistics of the revenue growth series.
func GrowthStats(ms []YearMetrics) Stats {
	var xs []float64
	for _, m := range ms {
		if m.RevenueGrowth.OK {
			xs = append(xs, m.RevenueGrowth.Value)
		}
	}
	if len(xs) == 0 {
		return Stats{}
	}
	s := Stats{Mean: stat.Mean(xs, nil), N: len(xs)}
	if len(xs) > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	return s
}

// MetricsTable formats the annual metric series as a table, one row per year.
func MetricsTable(ms []YearMetrics) *table.Table {
	tbl := table.NewTable("年份", "营业收入", "收入同比(%)", "归母净利润",
		"利润同比(%)", "净利率(%)", "经营净现金流", "CAPEX", "自由现金流")
	for _, m := range ms {
		tbl.AddRow(Row{
			String(fmt.Sprintf("%d", m.Year)),
			m.Revenue.Cell(),
			m.RevenueGrowth.Cell(),
			m.NetProfit.Cell(),
			m.ProfitGrowth.Cell(),
			m.NetMargin.Cell(),
			m.OpCashFlow.Cell(),
			m.Capex.Cell(),
			m.FreeCashFlow.Cell(),
		})
	}
	return tbl
}

// compareRow summarizes one company for the comparison table.
func compareRow(r *db.Reader, symbol string) (Row, error) {
	ms, err := CompanyMetrics(r, symbol)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, errors.Reason("no annual income statements for %s", symbol)
	}
	name := ""
	if cr, err := r.CompanyRow(symbol); err == nil {
		name = cr.Name
	}
	last := ms[len(ms)-1]
	stats := GrowthStats(ms)
	statsCell := func(v float64) Cell {
		if stats.N == 0 {
			return String("-")
		}
		return Number(v)
	}
	return Row{
		String(symbol),
		String(name),
		String(fmt.Sprintf("%d", last.Year)),
		last.Revenue.Cell(),
		statsCell(stats.Mean),
		statsCell(stats.StdDev),
		last.NetMargin.Cell(),
		last.FreeCashFlow.Cell(),
	}, nil
}

// Compare builds a comparison table of the companies, one row per symbol
// sorted by code. Companies that fail to process are logged and skipped.
func Compare(ctx context.Context, r *db.Reader, symbols []string) (*table.Table, error) {
	f := func(symbol string) Row {
		row, err := compareRow(r, symbol)
		if err != nil {
			logging.Warningf(ctx, "failed to process %s: %s", symbol, err.Error())
			return nil
		}
		return row
	}
	pm := iterator.ParallelMap(ctx, 2*runtime.NumCPU(), iterator.FromSlice(symbols), f)
	defer pm.Close()

	rows := iterator.Reduce[Row, []Row](pm, []Row{}, func(r Row, rows []Row) []Row {
		if r == nil {
			return rows
		}
		return append(rows, r)
	})
	sort.Slice(rows, func(i, j int) bool {
		return rows[i][0].String() < rows[j][0].String()
	})
	tbl := table.NewTable("代码", "名称", "年度", "营业收入",
		"收入同比均值(%)", "收入同比波动(%)", "净利率(%)", "自由现金流")
	for _, row := range rows {
		tbl.AddRow(row)
	}
	return tbl, nil
}
