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

package table

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTable(t *testing.T) {
	t.Parallel()

	Convey("Table works", t, func() {
		tbl := NewTable("Symbol", "Revenue")
		tbl.AddRow(RawRow{"000001", "1234.5"}, RawRow{"600519", "6789"})

		Convey("WriteCSV", func() {
			var buf bytes.Buffer
			So(tbl.WriteCSV(&buf, Params{}), ShouldBeNil)
			So(buf.String(), ShouldEqual, `Symbol,Revenue
000001,1234.5
600519,6789
`)
		})

		Convey("WriteCSV without header, limited rows", func() {
			var buf bytes.Buffer
			So(tbl.WriteCSV(&buf, Params{NoHeader: true, Rows: 1}), ShouldBeNil)
			So(buf.String(), ShouldEqual, "000001,1234.5\n")
		})

		Convey("WriteText", func() {
			var buf bytes.Buffer
			So(tbl.WriteText(&buf, Params{}), ShouldBeNil)
			So(buf.String(), ShouldEqual, `Symbol | Revenue
------ | -------
000001 |  1234.5
600519 |    6789
`)
		})

		Convey("WriteText trims long cells", func() {
			tbl := NewTable("Name")
			tbl.AddRow(RawRow{"short"}, RawRow{"much longer name"})
			var buf bytes.Buffer
			So(tbl.WriteText(&buf, Params{MaxColWidth: 8}), ShouldBeNil)
			So(buf.String(), ShouldEqual, `    Name
--------
   short
much l..
`)
		})

		Convey("WriteText checks MaxColWidth", func() {
			var buf bytes.Buffer
			So(tbl.WriteText(&buf, Params{MaxColWidth: 2}), ShouldNotBeNil)
		})

		Convey("WriteText checks row sizes", func() {
			tbl.AddRow(RawRow{"too", "many", "cells"})
			var buf bytes.Buffer
			So(tbl.WriteText(&buf, Params{}), ShouldNotBeNil)
		})

		Convey("WriteXLSX", func() {
			var buf bytes.Buffer
			So(tbl.WriteXLSX(&buf, Params{Sheet: "Revenue"}), ShouldBeNil)

			f, err := excelize.OpenReader(&buf)
			So(err, ShouldBeNil)
			defer f.Close()
			rows, err := f.GetRows("Revenue")
			So(err, ShouldBeNil)
			So(rows, ShouldResemble, [][]string{
				{"Symbol", "Revenue"},
				{"000001", "1234.5"},
				{"600519", "6789"},
			})
		})
	})
}
