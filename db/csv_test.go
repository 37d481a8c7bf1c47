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
	"bytes"
	"strings"
	"testing"

	"github.com/fincollect/fincollect/table"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	Convey("ReadCSVCompanies works", t, func() {
		companies := make(map[string]CompanyRow)

		Convey("with a header in arbitrary order", func() {
			csv := `Name,Symbol,Exchange
平安银行,000001.SZ,SZ
贵州茅台,600519.SH,SH
`
			So(ReadCSVCompanies(strings.NewReader(csv),
				NewCompanyRowConfig(), companies), ShouldBeNil)
			So(companies, ShouldResemble, map[string]CompanyRow{
				"000001.SZ": {Name: "平安银行", Exchange: "SZ", Active: true},
				"600519.SH": {Name: "贵州茅台", Exchange: "SH", Active: true},
			})
		})

		Convey("with a custom headerless config", func() {
			c := NewCompanyRowConfig()
			c.Header = []string{"Symbol", "Name", "Active"}
			csv := "00700.HK,腾讯控股,false\n"
			So(ReadCSVCompanies(strings.NewReader(csv), c, companies), ShouldBeNil)
			So(companies, ShouldResemble, map[string]CompanyRow{
				"00700.HK": {Name: "腾讯控股", Active: false},
			})
		})

		Convey("requires a symbol column", func() {
			csv := "Name,Exchange\n平安银行,SZ\n"
			So(ReadCSVCompanies(strings.NewReader(csv),
				NewCompanyRowConfig(), companies), ShouldNotBeNil)
		})

		Convey("empty input is a no-op", func() {
			So(ReadCSVCompanies(strings.NewReader(""),
				NewCompanyRowConfig(), companies), ShouldBeNil)
			So(companies, ShouldResemble, map[string]CompanyRow{})
		})
	})

	Convey("CompanyRow.Row round trips through the header", t, func() {
		cr := CompanyRow{Name: "平安银行", Exchange: "SZ", Market: "ashare", Active: true}
		row := cr.Row("000001.SZ")
		So(row.CSV(), ShouldResemble,
			[]string{"000001.SZ", "平安银行", "SZ", "ashare", "true"})
		So(len(row.CSV()), ShouldEqual, len(CompanyRowHeader()))
	})

	Convey("ReportTable works", t, func() {
		rows := []ReportRow{
			{
				Period: NewDate(2022, 12, 31),
				Notice: NewDate(2023, 4, 28),
				Items: map[string]float64{
					"TOTAL_OPERATE_INCOME": 500.0,
					"PARENT_NETPROFIT":     50.5,
				},
			},
			{
				Period: NewDate(2023, 12, 31),
				Items:  map[string]float64{"TOTAL_OPERATE_INCOME": 600.0},
			},
		}

		Convey("with the identity label", func() {
			tbl := ReportTable(rows, nil)
			var buf bytes.Buffer
			So(tbl.WriteCSV(&buf, table.Params{}), ShouldBeNil)
			So(buf.String(), ShouldEqual, `Period,Notice,PARENT_NETPROFIT,TOTAL_OPERATE_INCOME
2022-12-31,2023-04-28,50.5,500
2023-12-31,,,600
`)
		})

		Convey("with a label function", func() {
			labels := map[string]string{"TOTAL_OPERATE_INCOME": "营业总收入"}
			tbl := ReportTable(rows, func(code string) string {
				if l, ok := labels[code]; ok {
					return l
				}
				return code
			})
			So(tbl.Header, ShouldResemble,
				[]string{"Period", "Notice", "PARENT_NETPROFIT", "营业总收入"})
		})

		Convey("empty input produces a header-only table", func() {
			tbl := ReportTable(nil, nil)
			So(tbl.Header, ShouldResemble, []string{"Period", "Notice"})
			So(tbl.Rows, ShouldHaveLength, 0)
		})
	})
}
