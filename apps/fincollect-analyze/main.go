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

	"github.com/fincollect/fincollect/analysis"
	"github.com/fincollect/fincollect/db"
	"github.com/fincollect/fincollect/table"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

type Flags struct {
	DBDir    string // default: ~/.fincollect
	DBName   string // required
	LogLevel logging.Level
	Symbol   string // annual metrics of one company; default: compare all
	CSV      bool   // dump CSV format; default: text
	XLSX     string // when set, also save the table as an Excel workbook
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("fincollect-analyze", flag.ExitOnError)
	fs.StringVar(&flags.DBDir, "cache",
		filepath.Join(os.Getenv("HOME"), ".fincollect"),
		"path to databases")
	fs.StringVar(&flags.DBName, "db", "", "database name (required)")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.StringVar(&flags.Symbol, "symbol", "",
		"print the annual metrics of this company; default: compare all companies")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")
	fs.StringVar(&flags.XLSX, "xlsx", "",
		"also save the table as an Excel workbook at this path")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	if flags.DBName == "" {
		return nil, errors.Reason("missing required -db argument")
	}
	return &flags, err
}

func analysisTable(ctx context.Context, flags *Flags) (*table.Table, error) {
	reader := db.NewReader(flags.DBDir, flags.DBName)
	if flags.Symbol != "" {
		ms, err := analysis.CompanyMetrics(reader, flags.Symbol)
		if err != nil {
			return nil, errors.Annotate(err, "failed to compute metrics for %s",
				flags.Symbol)
		}
		return analysis.MetricsTable(ms), nil
	}
	symbols, err := reader.Companies()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read companies")
	}
	tbl, err := analysis.Compare(ctx, reader, symbols)
	if err != nil {
		return nil, errors.Annotate(err, "failed to compare companies")
	}
	return tbl, nil
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	tbl, err := analysisTable(ctx, flags)
	if err != nil {
		return err
	}
	if flags.CSV {
		err = tbl.WriteCSV(w, table.Params{})
	} else {
		err = tbl.WriteText(w, table.Params{MaxColWidth: 40})
	}
	if err != nil {
		return errors.Annotate(err, "failed to print table")
	}
	if flags.XLSX == "" {
		return nil
	}
	f, err := os.OpenFile(flags.XLSX, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file '%s'", flags.XLSX)
	}
	defer f.Close()
	if err := tbl.WriteXLSX(f, table.Params{Sheet: "Analysis"}); err != nil {
		return errors.Annotate(err, "failed to write '%s'", flags.XLSX)
	}
	logging.Infof(ctx, "saved workbook %s", flags.XLSX)
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
