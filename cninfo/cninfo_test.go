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

package cninfo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stockparfait/fetch"
	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCninfo(t *testing.T) {
	t.Parallel()
	tmpdir, tmpdirErr := os.MkdirTemp("", "testcninfo")
	defer os.RemoveAll(tmpdir)

	Convey("Test setup succeeded", t, func() {
		So(tmpdirErr, ShouldBeNil)
	})

	Convey("With a test server", t, func() {
		server := testutil.NewTestServer()
		defer server.Close()
		ctx := fetch.UseClient(context.Background(), server.Client())
		SearchURL = server.URL() + "/new/information/topSearch/query"
		StaticURL = server.URL() + "/finalpage"

		annual := Announcement{
			ID:    "1221000001",
			Title: "贵州茅台：2023年年度报告",
			Time:  "2024-04-03",
			OrgID: "gssh0600519",
			Code:  "600519",
		}
		page, err := json.Marshal(map[string][]Announcement{
			"records": {
				{ID: "1", Title: "贵州茅台：2023年年度报告摘要", Time: "2024-04-03"},
				{ID: "4", Title: "贵州茅台：2023年半年度报告", Time: "2023-08-02"},
				annual,
				{ID: "2", Title: "贵州茅台：2023年第三季度报告", Time: "2023-10-20"},
				{ID: "3", Title: "贵州茅台：2022年年度报告", Time: "2023-04-03"},
			},
		})
		So(err, ShouldBeNil)

		Convey("SearchAnnualReports filters and strips suffixes", func() {
			server.ResponseBody = []string{string(page)}
			found, err := SearchAnnualReports(ctx, "600519.SH", 2023)
			So(err, ShouldBeNil)
			So(found, ShouldResemble, []Announcement{annual})
			So(server.RequestQuery["keyWord"], ShouldResemble, []string{"600519"})
			So(server.RequestQuery["maxSecMarket"], ShouldResemble, []string{"sse"})
		})

		Convey("PDFURL", func() {
			So(annual.PDFURL(), ShouldEqual,
				StaticURL+"/20240403/1221000001.PDF")
		})

		Convey("DownloadAnnualReport", func() {
			server.ResponseBody = []string{string(page), "%PDF-1.4 fake body"}
			dir := filepath.Join(tmpdir, "reports")
			filePath, err := DownloadAnnualReport(ctx, "600519", 2023, dir)
			So(err, ShouldBeNil)
			So(filePath, ShouldEqual,
				filepath.Join(dir, "600519_2023年年度报告.pdf"))
			body, err := os.ReadFile(filePath)
			So(err, ShouldBeNil)
			So(string(body), ShouldEqual, "%PDF-1.4 fake body")

			Convey("an existing file is not overwritten", func() {
				server.ResponseBody = []string{string(page), "other body"}
				filePath, err := DownloadAnnualReport(ctx, "600519", 2023, dir)
				So(err, ShouldBeNil)
				body, err := os.ReadFile(filePath)
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "%PDF-1.4 fake body")
			})
		})

		Convey("no matching report is an error", func() {
			server.ResponseBody = []string{string(page)}
			_, err := DownloadAnnualReport(ctx, "600519", 2019,
				filepath.Join(tmpdir, "none"))
			So(err, ShouldNotBeNil)
		})
	})
}
