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
	"strings"
	"time"

	"github.com/fincollect/fincollect/cninfo"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"golang.org/x/time/rate"
)

type Flags struct {
	Symbols  []string // required
	Start    int      // first annual report year
	End      int      // last annual report year
	Dir      string   // download directory
	DelaySec float64
	LogLevel logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	var symbols string
	fs := flag.NewFlagSet("fincollect-reports", flag.ExitOnError)
	fs.StringVar(&symbols, "symbols", "",
		"comma-separated stock codes (required)")
	lastYear := time.Now().Year() - 1
	fs.IntVar(&flags.Start, "start", lastYear, "first annual report year")
	fs.IntVar(&flags.End, "end", lastYear, "last annual report year")
	fs.StringVar(&flags.Dir, "dir", "reports", "download directory")
	fs.Float64Var(&flags.DelaySec, "delay", 2.0,
		"delay between downloads in seconds")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	for _, s := range strings.Split(symbols, ",") {
		if s = strings.TrimSpace(s); s != "" {
			flags.Symbols = append(flags.Symbols, s)
		}
	}
	if len(flags.Symbols) == 0 {
		return nil, errors.Reason("missing required -symbols argument")
	}
	if flags.Start > flags.End {
		return nil, errors.Reason("-start=%d must not exceed -end=%d",
			flags.Start, flags.End)
	}
	return &flags, err
}

// download fetches the annual report PDFs of each symbol for each requested
// year. A failed download is logged and skipped, the remaining ones are still
// attempted.
func download(ctx context.Context, flags *Flags) error {
	limiter := rate.NewLimiter(rate.Every(
		time.Duration(flags.DelaySec*float64(time.Second))), 1)
	years := flags.End - flags.Start + 1
	total := len(flags.Symbols) * years
	var done, succeeded, failed int
	for _, symbol := range flags.Symbols {
		for year := flags.Start; year <= flags.End; year++ {
			if err := limiter.Wait(ctx); err != nil {
				return errors.Annotate(err, "canceled while waiting to download")
			}
			done++
			logging.Infof(ctx, "[%d/%d] downloading %d annual report of %s",
				done, total, year, symbol)
			path, err := cninfo.DownloadAnnualReport(ctx, symbol, year, flags.Dir)
			if err != nil {
				logging.Warningf(ctx, "skipping %s year %d: %s",
					symbol, year, err.Error())
				failed++
				continue
			}
			logging.Infof(ctx, "saved %s", path)
			succeeded++
		}
	}
	logging.Infof(ctx, "downloaded %d reports, %d failed", succeeded, failed)
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
