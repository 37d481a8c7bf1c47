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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fincollect/fincollect/eastmoney/fundamentals"
	"github.com/stockparfait/logging"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_fincollect")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		flags, err := parseFlags([]string{
			"-cache", "path/to/cache", "-db", "name", "-log-level", "warning"})
		So(err, ShouldBeNil)
		So(flags.DBDir, ShouldEqual, "path/to/cache")
		So(flags.DBName, ShouldEqual, "name")
		So(flags.LogLevel, ShouldEqual, logging.Warning)
	})

	Convey("parseConfig", t, func() {
		fileName := filepath.Join(tmpdir, "config.toml")
		f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		So(err, ShouldBeNil)
		defer f.Close()

		_, err = f.Write([]byte(`symbols = ["000001", "600519"]
statements = ["income", "cashflow"]
delay_sec = 0.5
annual_only = true
csv_dir = "csv"
`))
		So(err, ShouldBeNil)
		c, err := parseConfig(tmpdir)
		So(err, ShouldBeNil)
		So(c.Symbols, ShouldResemble, []string{"000001", "600519"})
		So(c.AnnualOnly, ShouldBeTrue)
		So(c.CSVDir, ShouldEqual, "csv")

		cfg, err := collectConfig(c, tmpdir)
		So(err, ShouldBeNil)
		So(cfg.Delay, ShouldEqual, 500*time.Millisecond)
		So(cfg.Statements, ShouldResemble, []fundamentals.StatementKind{
			fundamentals.Income, fundamentals.CashFlow})

		Convey("missing config suggests a sample", func() {
			_, err := parseConfig(filepath.Join(tmpdir, "nonexistent"))
			So(err, ShouldNotBeNil)
		})

		Convey("bad statement kind is an error", func() {
			c.Statements = []string{"dividends"}
			_, err := collectConfig(c, tmpdir)
			So(err, ShouldNotBeNil)
		})

		Convey("watchlist CSV adds symbols and names", func() {
			watchlist := filepath.Join(tmpdir, "watchlist.csv")
			So(os.WriteFile(watchlist, []byte(
				`Symbol,Name,Active
600519.SH,贵州茅台,true
000002.SZ,万科A,true
300750.SZ,宁德时代,false
`), 0644), ShouldBeNil)
			c.Symbols = []string{"000001.SZ", "600519.SH"}
			c.SymbolsCSV = "watchlist.csv"

			cfg, err := collectConfig(c, tmpdir)
			So(err, ShouldBeNil)
			// configured symbols first, then the new watchlist entries
			// sorted; inactive and duplicate entries are skipped
			So(cfg.Symbols, ShouldResemble, []string{
				"000001.SZ", "600519.SH", "000002.SZ"})
			So(cfg.Names, ShouldResemble, map[string]string{
				"600519.SH": "贵州茅台", "000002.SZ": "万科A"})
		})

		Convey("missing watchlist is an error", func() {
			c.SymbolsCSV = "nonexistent.csv"
			_, err := collectConfig(c, tmpdir)
			So(err, ShouldNotBeNil)
		})
	})
}
