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

package fundamentals

import (
	"context"
	"sort"

	"github.com/fincollect/fincollect/db"
	"github.com/fincollect/fincollect/eastmoney"
	"github.com/stockparfait/errors"
)

// statementPageSize is the page size of statement queries. Statements are
// reported at most quarterly, so a single page typically covers decades.
const statementPageSize = 200

// wideRow loads one reporting period of a wide format report into
// db.ReportRow. All numeric columns become line items; the vendor's metadata
// columns are strings and are skipped by construction.
type wideRow struct {
	row db.ReportRow
}

var _ eastmoney.RowLoader = &wideRow{}

func (w *wideRow) Load(r eastmoney.Row) error {
	period, err := r.Date("REPORT_DATE")
	if err != nil {
		return errors.Annotate(err, "failed to parse the reporting period")
	}
	w.row = db.ReportRow{Period: period, Items: make(map[string]float64)}
	if notice, err := r.Date("NOTICE_DATE"); err == nil {
		w.row.Notice = notice
	}
	for col, v := range r {
		if f, ok := v.(float64); ok {
			w.row.Items[col] = f
		}
	}
	return nil
}

// longRow loads one line item of a long format report, as served by the Hong
// Kong statements.
type longRow struct {
	period db.Date
	item   string
	amount float64
	hasAmt bool
}

var _ eastmoney.RowLoader = &longRow{}

func (l *longRow) Load(r eastmoney.Row) error {
	period, err := r.Date("REPORT_DATE")
	if err != nil {
		return errors.Annotate(err, "failed to parse the reporting period")
	}
	l.period = period
	var ok bool
	if l.item, ok = r.String("STD_ITEM_NAME"); !ok {
		return errors.Reason("row has no STD_ITEM_NAME")
	}
	l.amount, l.hasAmt = r.Float("AMOUNT")
	return nil
}

// statementQuery builds the report query for one symbol and statement kind.
func statementQuery(s Symbol, kind StatementKind, annual bool) (*eastmoney.ReportQuery, error) {
	specs := aShareSpecs
	if s.Market() == MarketHK {
		specs = hkSpecs
	}
	spec, ok := specs[kind]
	if !ok {
		return nil, errors.Reason("no %s report for statement kind '%s'",
			s.Market(), kind)
	}
	q := eastmoney.NewReportQuery(spec.report).
		Equal("SECUCODE", s.String()).
		PageSize(statementPageSize).
		Sort("REPORT_DATE", false)
	if annual && s.Market() == MarketHK {
		// The HK statements filter annual periods server side; fiscal years
		// there do not necessarily end on Dec 31.
		q = q.Equal("DATE_TYPE_CODE", "001")
	}
	return q, nil
}

// fetchWide downloads a wide format report as a sequence of period rows.
func fetchWide(ctx context.Context, q *eastmoney.ReportQuery) ([]db.ReportRow, error) {
	var rows []db.ReportRow
	it := q.Read(ctx)
	for {
		var w wideRow
		ok, err := it.Next(&w)
		if !ok {
			return rows, err
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, w.row)
	}
}

// fetchLong downloads a long format report and pivots it into period rows:
// line items of the same reporting period merge into a single db.ReportRow.
// Item names listed in hkUnified are renamed to their A-share codes; on a
// name collision the first value wins.
func fetchLong(ctx context.Context, q *eastmoney.ReportQuery, kind StatementKind) ([]db.ReportRow, error) {
	unified := hkUnified[kind]
	byPeriod := make(map[db.Date]*db.ReportRow)
	var order []db.Date
	it := q.Read(ctx)
	for {
		var l longRow
		ok, err := it.Next(&l)
		if !ok {
			break
		}
		if err != nil {
			return nil, err
		}
		if !l.hasAmt {
			continue
		}
		row, ok := byPeriod[l.period]
		if !ok {
			row = &db.ReportRow{Period: l.period, Items: make(map[string]float64)}
			byPeriod[l.period] = row
			order = append(order, l.period)
		}
		code := l.item
		if c, ok := unified[l.item]; ok {
			code = c
		}
		if _, ok := row.Items[code]; !ok {
			row.Items[code] = l.amount
		}
	}
	rows := make([]db.ReportRow, len(order))
	for i, period := range order {
		rows[i] = *byPeriod[period]
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Period.Before(rows[j].Period)
	})
	return rows, nil
}

// FetchStatement downloads one statement of one company, sorted by reporting
// period in ascending order. When annual is true, only annual reports are
// returned.
func FetchStatement(ctx context.Context, s Symbol, kind StatementKind, annual bool) ([]db.ReportRow, error) {
	q, err := statementQuery(s, kind, annual)
	if err != nil {
		return nil, err
	}
	var rows []db.ReportRow
	if s.Market() == MarketHK && hkSpecs[kind].longFormat {
		rows, err = fetchLong(ctx, q, kind)
	} else {
		rows, err = fetchWide(ctx, q)
	}
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch %s statement for %s",
			kind, s)
	}
	if annual && s.Market() == MarketAShare {
		rows = Annual(rows)
	}
	return rows, nil
}

// Annual filters statement rows down to the annual reporting periods, those
// ending on Dec 31.
func Annual(rows []db.ReportRow) []db.ReportRow {
	annual := make([]db.ReportRow, 0, len(rows))
	for _, r := range rows {
		if r.Period.IsAnnual() {
			annual = append(annual, r)
		}
	}
	return annual
}

// Source fetches company fundamentals from the vendor API. It is the
// production data source of the batch collector.
type Source struct {
	AnnualOnly bool
}

// Reports downloads one statement of one company.
func (s *Source) Reports(ctx context.Context, sym Symbol, kind StatementKind) ([]db.ReportRow, error) {
	return FetchStatement(ctx, sym, kind, s.AnnualOnly)
}

// CompanyNames downloads the A-share company directory as a map from the
// qualified symbol to the company's short name.
func (s *Source) CompanyNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	it := eastmoney.Companies(ctx)
	for {
		c, ok, err := it.Next()
		if err != nil {
			return nil, errors.Annotate(err, "failed to list companies")
		}
		if !ok {
			return names, nil
		}
		sym, err := ParseSymbol(c.Code)
		if err != nil {
			continue // skip instruments that are not common stock
		}
		names[sym.String()] = c.Name
	}
}
