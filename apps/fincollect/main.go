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
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fincollect/fincollect/collect"
	"github.com/fincollect/fincollect/db"
	"github.com/fincollect/fincollect/eastmoney"
	"github.com/fincollect/fincollect/eastmoney/fundamentals"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	toml "github.com/pelletier/go-toml/v2"
)

type Flags struct {
	DBDir    string // default: ~/.fincollect
	DBName   string // default: fundamentals
	LogLevel logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("fincollect", flag.ExitOnError)
	fs.StringVar(&flags.DBDir, "cache",
		filepath.Join(os.Getenv("HOME"), ".fincollect"),
		"path to the databases and the config file")
	fs.StringVar(&flags.DBName, "db", "fundamentals", "database name")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	return &flags, err
}

type Config struct {
	Symbols    []string `toml:"symbols"`     // ordered company symbols
	SymbolsCSV string   `toml:"symbols_csv"` // watchlist CSV file with more symbols
	Statements []string `toml:"statements"`  // default: all statements
	DelaySec   float64  `toml:"delay_sec"`   // delay between API calls; default: 2
	AnnualOnly bool     `toml:"annual_only"`
	SkipNames  bool     `toml:"skip_names"` // skip the company directory download
	CSVDir     string   `toml:"csv_dir"`    // when set, also export CSV files
}

func parseConfig(dbdir string) (*Config, error) {
	filePath := filepath.Join(dbdir, "config.toml")
	if _, err := os.Stat(filePath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			sample := `symbols = ["000001", "000002", "600519"]
statements = ["indicators", "balance", "income", "cashflow"]
delay_sec = 2.0
annual_only = true
csv_dir = "data/annual_reports"
`
			err = errors.Annotate(err,
				"config file '%s' does not exist.\nPlease create config file containing:\n%s",
				filePath, sample)
			return nil, err
		} else {
			return nil, errors.Annotate(err,
				"cannot check config file for existence: '%s'", filePath)
		}
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	c := Config{DelaySec: 2.0}
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	return &c, nil
}

// readWatchlist reads a CSV watchlist file into sorted symbols and their
// known names.
func readWatchlist(filePath string) ([]string, map[string]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, nil, errors.Annotate(err, "failed to open watchlist '%s'", filePath)
	}
	defer f.Close()
	companies := make(map[string]db.CompanyRow)
	if err := db.ReadCSVCompanies(f, db.NewCompanyRowConfig(), companies); err != nil {
		return nil, nil, errors.Annotate(err, "failed to read watchlist '%s'", filePath)
	}
	symbols := make([]string, 0, len(companies))
	names := make(map[string]string)
	for symbol, cr := range companies {
		if !cr.Active {
			continue
		}
		symbols = append(symbols, symbol)
		if cr.Name != "" {
			names[symbol] = cr.Name
		}
	}
	sort.Strings(symbols)
	return symbols, names, nil
}

// collectConfig converts the app config to the collector config. A relative
// watchlist path is resolved against dbdir, next to config.toml.
func collectConfig(c *Config, dbdir string) (*collect.Config, error) {
	cfg := collect.Config{
		Symbols:   c.Symbols,
		Delay:     time.Duration(c.DelaySec * float64(time.Second)),
		SkipNames: c.SkipNames,
	}
	if c.SymbolsCSV != "" {
		filePath := c.SymbolsCSV
		if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(dbdir, filePath)
		}
		symbols, names, err := readWatchlist(filePath)
		if err != nil {
			return nil, err
		}
		listed := make(map[string]bool)
		for _, s := range cfg.Symbols {
			listed[s] = true
		}
		for _, s := range symbols {
			if !listed[s] {
				cfg.Symbols = append(cfg.Symbols, s)
			}
		}
		cfg.Names = names
	}
	for _, s := range c.Statements {
		kind, err := fundamentals.ParseStatementKind(s)
		if err != nil {
			return nil, errors.Annotate(err, "bad statement in config")
		}
		cfg.Statements = append(cfg.Statements, kind)
	}
	return &cfg, nil
}

func download(ctx context.Context, flags *Flags) error {
	config, err := parseConfig(flags.DBDir)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}
	cfg, err := collectConfig(config, flags.DBDir)
	if err != nil {
		return errors.Annotate(err, "failed to parse config")
	}

	ctx = eastmoney.UseClient(ctx)
	src := &fundamentals.Source{AnnualOnly: config.AnnualOnly}
	d, err := collect.CollectAll(ctx, src, cfg)
	if err != nil {
		return errors.Annotate(err, "failed to collect data")
	}
	if err := d.Write(ctx, flags.DBDir, flags.DBName, config.CSVDir); err != nil {
		return errors.Annotate(err, "failed to save data")
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

	if err := download(ctx, flags); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
