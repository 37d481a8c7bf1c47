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

package db

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/fincollect/fincollect/table"
	"github.com/stockparfait/errors"

	"golang.org/x/exp/slices"
)

// CompanyRowHeader is the CSV header of the companies table.
func CompanyRowHeader() []string {
	return []string{"Symbol", "Name", "Exchange", "Market", "Active"}
}

// Row converts a CompanyRow to a table.Row for display or export.
func (r CompanyRow) Row(symbol string) table.Row {
	return table.RawRow{
		symbol,
		r.Name,
		r.Exchange,
		r.Market,
		strconv.FormatBool(r.Active),
	}
}

// CompanyRowConfig sets the custom headers of an input CSV file for company
// rows, for importing watchlists exported from other tools.
type CompanyRowConfig struct {
	Symbol   string
	Name     string
	Exchange string
	Market   string
	Active   string
	Header   []string // for headless CSV
}

// NewCompanyRowConfig creates a config with the default header names.
func NewCompanyRowConfig() *CompanyRowConfig {
	return &CompanyRowConfig{
		Symbol:   "Symbol",
		Name:     "Name",
		Exchange: "Exchange",
		Market:   "Market",
		Active:   "Active",
	}
}

// HasSymbol checks the header for the column corresponding to the symbol.
func (c *CompanyRowConfig) HasSymbol(header []string) bool {
	for _, h := range header {
		if h == c.Symbol {
			return true
		}
	}
	return false
}

// MapColumns maps the i'th header column to the j'th CompanyRow field.
// Headers that don't match any configured column are mapped to -1.
func (c *CompanyRowConfig) MapColumns(header []string) []int {
	m := make([]int, len(header))
	cols := []string{c.Symbol, c.Name, c.Exchange, c.Market, c.Active}
	for i, h := range header {
		m[i] = -1
		for j, n := range cols {
			if h == n {
				m[i] = j
				break
			}
		}
	}
	return m
}

func str2bool(s string) bool {
	switch strings.ToLower(s) {
	case "t", "true", "y", "yes":
		return true
	}
	return false
}

// Parse a single CSV row into a symbol and its CompanyRow.
func (c *CompanyRowConfig) Parse(row []string, colMap []int) (symbol string, cr CompanyRow) {
	cr.Active = true
	for i, r := range row {
		if i >= len(colMap) {
			break
		}
		switch colMap[i] {
		case 0:
			symbol = r
		case 1:
			cr.Name = r
		case 2:
			cr.Exchange = r
		case 3:
			cr.Market = r
		case 4:
			cr.Active = str2bool(r)
		}
	}
	return
}

// ReadCSVCompanies reads a CSV file of company rows into the companies map,
// merging with the existing entries. The header order is arbitrary, but it
// must contain at least the symbol column.
func ReadCSVCompanies(r io.Reader, c *CompanyRowConfig, companies map[string]CompanyRow) error {
	csvReader := csv.NewReader(r)
	rows, err := csvReader.ReadAll()
	if err != nil {
		return errors.Annotate(err, "failed to read CSV rows")
	}
	if len(rows) == 0 {
		return nil
	}
	header := c.Header
	if len(header) == 0 {
		header = rows[0]
		rows = rows[1:]
	}
	if !c.HasSymbol(header) {
		return errors.Reason("no symbol column '%s' in the header", c.Symbol)
	}
	colMap := c.MapColumns(header)
	for _, row := range rows {
		symbol, cr := c.Parse(row, colMap)
		if symbol == "" {
			continue
		}
		companies[symbol] = cr
	}
	return nil
}

// itemCodes returns the sorted union of line item codes across the rows.
func itemCodes(rows []ReportRow) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		for code := range r.Items {
			seen[code] = struct{}{}
		}
	}
	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// ReportTable converts statement rows to a flat table: one row per reporting
// period, one column per line item code in sorted order. The label function
// maps an item code to its display name (identity when nil). An empty input
// produces a header-only table.
func ReportTable(rows []ReportRow, label func(string) string) *table.Table {
	if label == nil {
		label = func(code string) string { return code }
	}
	codes := itemCodes(rows)
	header := make([]string, 0, len(codes)+2)
	header = append(header, "Period", "Notice")
	for _, code := range codes {
		header = append(header, label(code))
	}
	tbl := table.NewTable(header...)
	for _, r := range rows {
		row := make(table.RawRow, 0, len(codes)+2)
		notice := ""
		if !r.Notice.IsZero() {
			notice = r.Notice.String()
		}
		row = append(row, r.Period.String(), notice)
		for _, code := range codes {
			cell := ""
			if v, ok := r.Items[code]; ok {
				cell = strconv.FormatFloat(v, 'f', -1, 64)
			}
			row = append(row, cell)
		}
		tbl.AddRow(row)
	}
	return tbl
}
