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

// Package collect implements the batch downloader of company fundamentals. It
// walks a fixed ordered list of symbols, fetches the configured statements
// for each, skips per-company failures, and writes the accumulated dataset to
// the local database and optional CSV files in a single pass at the end.
package collect

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fincollect/fincollect/db"
	"github.com/fincollect/fincollect/eastmoney/fundamentals"
	"github.com/fincollect/fincollect/table"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"golang.org/x/time/rate"
)

// Fetcher is the data source of the collector. The production implementation
// is fundamentals.Source; tests substitute their own.
type Fetcher interface {
	// CompanyNames lists the company directory from symbol to short name.
	CompanyNames(ctx context.Context) (map[string]string, error)
	// Reports fetches one statement of one company.
	Reports(ctx context.Context, s fundamentals.Symbol, kind fundamentals.StatementKind) ([]db.ReportRow, error)
}

var _ Fetcher = &fundamentals.Source{}

// Config of a collection run.
type Config struct {
	Symbols    []string                     // ordered company symbols to collect
	Statements []fundamentals.StatementKind // statements per company; default: all
	Delay      time.Duration                // minimum interval between API calls
	SkipNames  bool                         // skip the company directory download
	// Names are known company names by symbol, e.g. from a watchlist file.
	// The downloaded directory takes precedence.
	Names map[string]string
}

func (c *Config) statements() []fundamentals.StatementKind {
	if len(c.Statements) == 0 {
		return fundamentals.AllStatements()
	}
	return c.Statements
}

// Dataset is the result of one collection run, accumulated in memory and
// persisted once at the end.
type Dataset struct {
	Symbols     []fundamentals.Symbol // input order, successfully fetched only
	Failed      []string              // symbols with no fetched statements, input order
	Names       map[string]string
	Reports     map[string]map[fundamentals.StatementKind][]db.ReportRow
	CollectedAt *db.Time
}

// NumReports is the total number of stored (symbol, statement, period) rows.
func (d *Dataset) NumReports() int {
	n := 0
	for _, kinds := range d.Reports {
		for _, rows := range kinds {
			n += len(rows)
		}
	}
	return n
}

// periodRange finds the earliest and the latest reporting period.
func (d *Dataset) periodRange() (start, end db.Date) {
	for _, kinds := range d.Reports {
		for _, rows := range kinds {
			for _, r := range rows {
				if start.IsZero() || r.Period.Before(start) {
					start = r.Period
				}
				if end.IsZero() || r.Period.After(end) {
					end = r.Period
				}
			}
		}
	}
	return
}

// CollectAll runs the batch collection: for each symbol in the configured
// order, fetch each configured statement, waiting out the configured delay
// before every API call. A failed fetch is logged and skipped; a symbol with
// no fetched statements is recorded as failed. Only context cancelation and
// malformed configuration abort the run.
func CollectAll(ctx context.Context, f Fetcher, cfg *Config) (*Dataset, error) {
	symbols := make([]fundamentals.Symbol, len(cfg.Symbols))
	for i, s := range cfg.Symbols {
		var err error
		if symbols[i], err = fundamentals.ParseSymbol(s); err != nil {
			return nil, errors.Annotate(err, "malformed symbol in config")
		}
	}
	limiter := rate.NewLimiter(rate.Every(cfg.Delay), 1)
	now := time.Now().UTC()
	d := &Dataset{
		Names: make(map[string]string),
		Reports: make(
			map[string]map[fundamentals.StatementKind][]db.ReportRow),
		CollectedAt: db.NewTime(now.Year(), int(now.Month()), now.Day(),
			now.Hour(), now.Minute(), now.Second()),
	}
	if !cfg.SkipNames {
		if err := limiter.Wait(ctx); err != nil {
			return nil, errors.Annotate(err, "collection canceled")
		}
		names, err := f.CompanyNames(ctx)
		if err != nil {
			logging.Warningf(ctx, "failed to list company names, continuing: %s",
				err.Error())
		} else {
			d.Names = names
		}
	}
	for sym, name := range cfg.Names {
		if _, ok := d.Names[sym]; !ok {
			d.Names[sym] = name
		}
	}
	for i, sym := range symbols {
		logging.Infof(ctx, "[%d/%d] collecting %s", i+1, len(symbols), sym)
		fetched := false
		for _, kind := range cfg.statements() {
			if err := limiter.Wait(ctx); err != nil {
				return nil, errors.Annotate(err, "collection canceled")
			}
			rows, err := f.Reports(ctx, sym, kind)
			if err != nil {
				logging.Warningf(ctx, "skipping %s statement of %s: %s",
					kind, sym, err.Error())
				continue
			}
			if d.Reports[sym.String()] == nil {
				d.Reports[sym.String()] = make(
					map[fundamentals.StatementKind][]db.ReportRow)
			}
			d.Reports[sym.String()][kind] = rows
			fetched = true
			logging.Infof(ctx, "  %s: %d periods", kind, len(rows))
		}
		if fetched {
			d.Symbols = append(d.Symbols, sym)
		} else {
			d.Failed = append(d.Failed, sym.String())
			logging.Warningf(ctx, "no statements collected for %s", sym)
		}
	}
	logging.Infof(ctx, "collected %d reports for %d of %d companies",
		d.NumReports(), len(d.Symbols), len(symbols))
	return d, nil
}

// companies converts the collected symbols to database company rows.
func (d *Dataset) companies() map[string]db.CompanyRow {
	companies := make(map[string]db.CompanyRow)
	for _, sym := range d.Symbols {
		companies[sym.String()] = db.CompanyRow{
			Name:     d.Names[sym.String()],
			Exchange: sym.Suffix,
			Market:   sym.Market(),
			Active:   true,
		}
	}
	return companies
}

// Write persists the dataset: the gob database under dbPath/dbName, and when
// csvDir is non-empty, one CSV file per collected statement plus a run
// summary. Empty datasets still produce a valid database and summary.
func (d *Dataset) Write(ctx context.Context, dbPath, dbName, csvDir string) error {
	w := db.NewWriter(dbPath, dbName)
	if err := w.WriteCompanies(d.companies()); err != nil {
		return errors.Annotate(err, "failed to write companies")
	}
	for _, sym := range d.Symbols {
		for kind, rows := range d.Reports[sym.String()] {
			if err := w.WriteReports(sym.String(), string(kind), rows); err != nil {
				return errors.Annotate(err, "failed to write %s reports for %s",
					kind, sym)
			}
		}
	}
	start, end := d.periodRange()
	meta := db.Metadata{
		Start:        start,
		End:          end,
		NumCompanies: len(d.Symbols),
		NumReports:   d.NumReports(),
		CollectedAt:  d.CollectedAt,
	}
	if err := w.WriteMetadata(meta); err != nil {
		return errors.Annotate(err, "failed to write metadata")
	}
	logging.Infof(ctx, "saved database '%s' in %s", dbName, dbPath)
	if csvDir == "" {
		return nil
	}
	if err := d.writeCSV(ctx, csvDir); err != nil {
		return errors.Annotate(err, "failed to write CSV files")
	}
	return nil
}

func (d *Dataset) writeCSV(ctx context.Context, csvDir string) error {
	if err := os.MkdirAll(csvDir, os.ModePerm); err != nil {
		return errors.Annotate(err, "failed to create directory '%s'", csvDir)
	}
	for _, sym := range d.Symbols {
		for kind, rows := range d.Reports[sym.String()] {
			tbl := db.ReportTable(rows, fundamentals.FieldLabel)
			fileName := filepath.Join(csvDir,
				fmt.Sprintf("%s_%s.csv", sym, kind))
			if err := writeTable(tbl, fileName); err != nil {
				return err
			}
		}
	}
	fileName := filepath.Join(csvDir, "summary.txt")
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file '%s'", fileName)
	}
	defer f.Close()
	if err := d.Summary().WriteText(f); err != nil {
		return errors.Annotate(err, "failed to write the summary")
	}
	logging.Infof(ctx, "saved CSV files in %s", csvDir)
	return nil
}

func writeTable(tbl *table.Table, fileName string) error {
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file '%s'", fileName)
	}
	defer f.Close()
	if err := tbl.WriteCSV(f, table.Params{}); err != nil {
		return errors.Annotate(err, "failed to write '%s'", fileName)
	}
	return nil
}

// Summary of a collection run.
type Summary struct {
	Succeeded   []string
	Failed      []string
	NumReports  int
	CollectedAt *db.Time
}

// Summary derives the run summary from the dataset.
func (d *Dataset) Summary() *Summary {
	s := &Summary{
		Failed:      d.Failed,
		NumReports:  d.NumReports(),
		CollectedAt: d.CollectedAt,
	}
	for _, sym := range d.Symbols {
		s.Succeeded = append(s.Succeeded, sym.String())
	}
	return s
}

// WriteText writes a human readable run summary.
func (s *Summary) WriteText(w io.Writer) error {
	if s.CollectedAt != nil {
		if _, err := fmt.Fprintf(w, "Collected at: %s\n", s.CollectedAt); err != nil {
			return errors.Annotate(err, "failed to write the summary")
		}
	}
	_, err := fmt.Fprintf(w, "Succeeded: %d\nFailed: %d\nReports: %d\n",
		len(s.Succeeded), len(s.Failed), s.NumReports)
	if err != nil {
		return errors.Annotate(err, "failed to write the summary")
	}
	for _, sym := range s.Succeeded {
		if _, err := fmt.Fprintf(w, "  + %s\n", sym); err != nil {
			return errors.Annotate(err, "failed to write the summary")
		}
	}
	for _, sym := range s.Failed {
		if _, err := fmt.Fprintf(w, "  - %s\n", sym); err != nil {
			return errors.Annotate(err, "failed to write the summary")
		}
	}
	return nil
}
