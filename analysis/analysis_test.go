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

package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fincollect/fincollect/db"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func incomeRow(year uint16, revenue, profit float64) db.ReportRow {
	return db.TestReport(db.NewDate(year, 12, 31), map[string]float64{
		"OPERATE_INCOME":   revenue,
		"PARENT_NETPROFIT": profit,
	})
}

func cashflowRow(year uint16, opcf, capex float64) db.ReportRow {
	return db.TestReport(db.NewDate(year, 12, 31), map[string]float64{
		"NETCASH_OPERATE":      opcf,
		"CONSTRUCT_LONG_ASSET": capex,
	})
}

func TestAnalysis(t *testing.T) {
	t.Parallel()
	tmpdir, tmpdirErr := os.MkdirTemp("", "testanalysis")
	defer os.RemoveAll(tmpdir)

	Convey("Test setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("Metrics work", t, func() {
		dbPath := filepath.Join(tmpdir, "db")
		w := db.NewWriter(dbPath, "testdb")
		So(w.WriteCompanies(map[string]db.CompanyRow{
			"000001.SZ": {Name: "平安银行", Exchange: "SZ", Market: "ashare", Active: true},
			"600519.SH": {Name: "贵州茅台", Exchange: "SH", Market: "ashare", Active: true},
		}), ShouldBeNil)
		So(w.WriteReports("000001.SZ", "income", []db.ReportRow{
			incomeRow(2021, 100.0, 10.0),
			// a quarterly report to be filtered out
			db.TestReport(db.NewDate(2022, 3, 31), map[string]float64{
				"OPERATE_INCOME": 30.0}),
			incomeRow(2022, 110.0, 11.0),
			incomeRow(2023, 121.0, 12.1),
		}), ShouldBeNil)
		So(w.WriteReports("000001.SZ", "cashflow", []db.ReportRow{
			cashflowRow(2023, 20.0, 5.0),
		}), ShouldBeNil)
		So(w.WriteReports("600519.SH", "income", []db.ReportRow{
			incomeRow(2023, 1000.0, 500.0),
		}), ShouldBeNil)
		r := db.NewReader(dbPath, "testdb")

		Convey("CompanyMetrics", func() {
			ms, err := CompanyMetrics(r, "000001.SZ")
			So(err, ShouldBeNil)
			So(len(ms), ShouldEqual, 3)

			So(ms[0].Year, ShouldEqual, 2021)
			So(ms[0].Revenue, ShouldResemble, Metric{Value: 100.0, OK: true})
			So(ms[0].RevenueGrowth.OK, ShouldBeFalse)
			So(ms[0].NetMargin, ShouldResemble, Metric{Value: 10.0, OK: true})
			So(ms[0].OpCashFlow.OK, ShouldBeFalse)

			So(ms[1].RevenueGrowth.OK, ShouldBeTrue)
			So(ms[1].RevenueGrowth.Value, ShouldAlmostEqual, 10.0)

			So(ms[2].OpCashFlow, ShouldResemble, Metric{Value: 20.0, OK: true})
			So(ms[2].Capex, ShouldResemble, Metric{Value: 5.0, OK: true})
			So(ms[2].FreeCashFlow, ShouldResemble, Metric{Value: 15.0, OK: true})
		})

		Convey("GrowthStats", func() {
			ms, err := CompanyMetrics(r, "000001.SZ")
			So(err, ShouldBeNil)
			s := GrowthStats(ms)
			So(s.N, ShouldEqual, 2)
			So(testutil.Round(s.Mean, 5), ShouldEqual, 10.0)
			So(s.StdDev, ShouldAlmostEqual, 0.0, 1e-10)

			So(GrowthStats(nil), ShouldResemble, Stats{})
		})

		Convey("MetricsTable", func() {
			ms, err := CompanyMetrics(r, "000001.SZ")
			So(err, ShouldBeNil)
			tbl := MetricsTable(ms)
			So(len(tbl.Rows), ShouldEqual, 3)
			So(tbl.Rows[0].CSV()[0], ShouldEqual, "2021")
			So(tbl.Rows[0].CSV()[1], ShouldEqual, "100.00")
			So(tbl.Rows[0].CSV()[2], ShouldEqual, "-")
			So(tbl.Rows[2].CSV()[8], ShouldEqual, "15.00")
		})

		Convey("Compare skips failing symbols", func() {
			ctx := context.Background()
			tbl, err := Compare(ctx, r,
				[]string{"000001.SZ", "999999.SZ", "600519.SH"})
			So(err, ShouldBeNil)
			So(len(tbl.Rows), ShouldEqual, 2)
			So(tbl.Rows[0].CSV()[0], ShouldEqual, "000001.SZ")
			So(tbl.Rows[0].CSV()[1], ShouldEqual, "平安银行")
			So(tbl.Rows[1].CSV()[0], ShouldEqual, "600519.SH")
			// a single year has no growth series
			So(tbl.Rows[1].CSV()[4], ShouldEqual, "-")
		})

		Convey("Compare on a cold reader", func() {
			ctx := context.Background()
			var symbols []string
			for i := 0; i < 25; i++ {
				symbols = append(symbols, "000001.SZ", "600519.SH")
			}
			// the parallel workers populate the company cache concurrently
			tbl, err := Compare(ctx, db.NewReader(dbPath, "testdb"), symbols)
			So(err, ShouldBeNil)
			So(len(tbl.Rows), ShouldEqual, 50)
		})
	})
}
