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

package main

import (
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"

	"github.com/fincollect/fincollect/db"
	"github.com/fincollect/fincollect/eastmoney/fundamentals"
	"github.com/fincollect/fincollect/table"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

type Flags struct {
	DBDir    string // default: ~/.fincollect
	DBName   string // required
	LogLevel logging.Level
	// Exactly one of companies or reports must be present.
	Companies bool
	Reports   string // symbol to print reports for
	Kind      string // statement kind for -reports
	CSV       bool   // dump CSV format; default: text
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("fincollect-list", flag.ExitOnError)
	fs.StringVar(&flags.DBDir, "cache",
		filepath.Join(os.Getenv("HOME"), ".fincollect"),
		"path to databases")
	fs.StringVar(&flags.DBName, "db", "", "database name (required)")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.BoolVar(&flags.Companies, "companies", false, "print all company rows")
	fs.StringVar(&flags.Reports, "reports", "", "symbol to print reports for")
	fs.StringVar(&flags.Kind, "kind", string(fundamentals.Income),
		"statement kind for -reports: indicators, balance, income, cashflow")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.DBName == "" {
		return nil, errors.Reason("missing required -db argument")
	}
	if flags.Companies == (flags.Reports != "") {
		return nil, errors.Reason("expected exactly one of -companies or -reports")
	}
	if _, err := fundamentals.ParseStatementKind(flags.Kind); err != nil {
		return nil, errors.Annotate(err, "bad -kind argument")
	}
	return &flags, err
}

func companiesTable(reader *db.Reader) (*table.Table, error) {
	symbols, err := reader.Companies()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read companies")
	}
	var rows []table.Row
	for _, s := range symbols {
		cr, err := reader.CompanyRow(s)
		if err != nil {
			return nil, errors.Annotate(err, "failed to read company row for %s", s)
		}
		rows = append(rows, cr.Row(s))
	}
	tbl := table.NewTable(db.CompanyRowHeader()...)
	tbl.AddRow(rows...)
	return tbl, nil
}

func reportsTable(reader *db.Reader, symbol, kind string) (*table.Table, error) {
	rows, err := reader.Reports(symbol, kind)
	if err != nil {
		return nil, errors.Annotate(err, "failed to read %s reports for %s",
			kind, symbol)
	}
	return db.ReportTable(rows, fundamentals.FieldLabel), nil
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	reader := db.NewReader(flags.DBDir, flags.DBName)
	var tbl *table.Table
	var err error
	switch {
	case flags.Companies:
		tbl, err = companiesTable(reader)
	case flags.Reports != "":
		tbl, err = reportsTable(reader, flags.Reports, flags.Kind)
	}
	if err != nil {
		return errors.Annotate(err, "failed to create table")
	}
	if flags.CSV {
		err = tbl.WriteCSV(w, table.Params{})
	} else {
		err = tbl.WriteText(w, table.Params{MaxColWidth: 40})
	}
	if err != nil {
		return errors.Annotate(err, "failed to print table")
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := run(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
