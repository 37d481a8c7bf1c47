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
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/fincollect/fincollect/db"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	t.Parallel()

	tmpdir, tmpdirErr := os.MkdirTemp("", "test_fincollect_list")
	defer os.RemoveAll(tmpdir)

	Convey("Setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("parseFlags", t, func() {
		Convey("companies", func() {
			flags, err := parseFlags([]string{"-db", "testdb", "-companies", "-csv"})
			So(err, ShouldBeNil)
			So(flags.Companies, ShouldBeTrue)
			So(flags.CSV, ShouldBeTrue)
		})

		Convey("requires -db", func() {
			_, err := parseFlags([]string{"-companies"})
			So(err, ShouldNotBeNil)
		})

		Convey("requires exactly one mode", func() {
			_, err := parseFlags([]string{"-db", "testdb"})
			So(err, ShouldNotBeNil)
			_, err = parseFlags([]string{
				"-db", "testdb", "-companies", "-reports", "000001.SZ"})
			So(err, ShouldNotBeNil)
		})

		Convey("checks the statement kind", func() {
			_, err := parseFlags([]string{
				"-db", "testdb", "-reports", "000001.SZ", "-kind", "dividends"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("run", t, func() {
		ctx := context.Background()
		w := db.NewWriter(tmpdir, "testdb")
		So(w.WriteCompanies(map[string]db.CompanyRow{
			"000001.SZ": {Name: "平安银行", Exchange: "SZ", Market: "ashare", Active: true},
		}), ShouldBeNil)
		So(w.WriteReports("000001.SZ", "income", []db.ReportRow{
			db.TestReport(db.NewDate(2023, 12, 31), map[string]float64{
				"TOTAL_OPERATE_INCOME": 500.0}),
		}), ShouldBeNil)

		Convey("companies as CSV", func() {
			flags, err := parseFlags([]string{
				"-cache", tmpdir, "-db", "testdb", "-companies", "-csv"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(run(ctx, flags, &buf), ShouldBeNil)
			So(buf.String(), ShouldEqual, `Symbol,Name,Exchange,Market,Active
000001.SZ,平安银行,SZ,ashare,true
`)
		})

		Convey("reports as CSV", func() {
			flags, err := parseFlags([]string{
				"-cache", tmpdir, "-db", "testdb", "-reports", "000001.SZ", "-csv"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(run(ctx, flags, &buf), ShouldBeNil)
			So(buf.String(), ShouldEqual, `Period,Notice,营业总收入
2023-12-31,,500
`)
		})

		Convey("reports as text", func() {
			flags, err := parseFlags([]string{
				"-cache", tmpdir, "-db", "testdb", "-reports", "000001.SZ"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(run(ctx, flags, &buf), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "2023-12-31")
		})
	})
}
