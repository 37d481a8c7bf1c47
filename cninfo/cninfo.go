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

// Package cninfo searches and downloads annual report PDFs from the official
// disclosure site of the mainland exchanges.
package cninfo

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
)

// SearchURL is the announcement search endpoint. It may be overwritten in
// tests.
var SearchURL = "http://www.cninfo.com.cn/new/information/topSearch/query"

// StaticURL is the base URL of the published PDF files. It may be overwritten
// in tests.
var StaticURL = "http://static.cninfo.com.cn/finalpage"

// Announcement is one disclosure search result.
type Announcement struct {
	ID    string `json:"announcementId"`
	Title string `json:"announcementTitle"`
	Time  string `json:"announcementTime"` // YYYY-MM-DD
	OrgID string `json:"orgId"`
	Code  string `json:"secCode"`
}

// PDFURL is the address of the announcement's published PDF file.
func (a Announcement) PDFURL() string {
	return StaticURL + "/" + strings.ReplaceAll(a.Time, "-", "") + "/" + a.ID + ".PDF"
}

// searchPage is the format of the search endpoint response.
type searchPage struct {
	Records []Announcement `json:"records"`
	Data    []Announcement `json:"data"`
}

func (p *searchPage) records() []Announcement {
	if len(p.Records) > 0 {
		return p.Records
	}
	return p.Data
}

// plate returns the exchange plate of a bare 6-digit code.
func plate(code string) string {
	for _, p := range []string{"600", "601", "603", "605", "688"} {
		if strings.HasPrefix(code, p) {
			return "sse"
		}
	}
	return "szse"
}

// excludedTitles filters out the variants that are not the full annual
// report. Interim reports such as "半年度报告" also contain the substring
// "年度报告" and must be ruled out explicitly.
var excludedTitles = []string{"摘要", "英文", "已取消", "半年度", "季度"}

// matchesAnnual reports whether the announcement is the full annual report
// covering the given fiscal year. The report of year Y is titled "Y年年度报告"
// and typically published in year Y+1.
func matchesAnnual(a Announcement, year int) bool {
	if !strings.Contains(a.Title, "年度报告") {
		return false
	}
	for _, ex := range excludedTitles {
		if strings.Contains(a.Title, ex) {
			return false
		}
	}
	yearStr := fmt.Sprintf("%d", year)
	if strings.Contains(a.Title, yearStr) {
		return true
	}
	return strings.HasPrefix(a.Time, fmt.Sprintf("%d", year+1))
}

// SearchAnnualReports finds the full annual report announcements of one
// company for the given fiscal year, most recent first as served by the
// endpoint.
func SearchAnnualReports(ctx context.Context, code string, year int) ([]Announcement, error) {
	code = strings.TrimSuffix(strings.TrimSuffix(code, ".SZ"), ".SH")
	query := make(url.Values)
	query["keyWord"] = []string{code}
	query["maxSecMarket"] = []string{plate(code)}
	query["minSecMarket"] = []string{plate(code)}
	var page searchPage
	if err := fetch.FetchJSON(ctx, SearchURL, &page, query, nil); err != nil {
		return nil, errors.Annotate(err, "failed to search announcements for %s", code)
	}
	var found []Announcement
	for _, a := range page.records() {
		if matchesAnnual(a, year) {
			found = append(found, a)
		}
	}
	return found, nil
}

// DownloadPDF downloads the announcement's PDF into dir under fileName. An
// already existing file is kept as is. It returns the path of the file.
func DownloadPDF(ctx context.Context, a Announcement, dir, fileName string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", errors.Annotate(err, "failed to create directory '%s'", dir)
	}
	filePath := filepath.Join(dir, fileName)
	if _, err := os.Stat(filePath); err == nil {
		logging.Infof(ctx, "%s already exists, skipping", filePath)
		return filePath, nil
	}
	resp, err := fetch.GetRetry(ctx, a.PDFURL(), nil, nil)
	if err != nil {
		return "", errors.Annotate(err, "failed to download %s", a.PDFURL())
	}
	defer resp.Body.Close()
	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", errors.Annotate(err, "failed to open file '%s'", filePath)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(filePath)
		return "", errors.Annotate(err, "failed to save '%s'", filePath)
	}
	return filePath, nil
}

// DownloadAnnualReport finds and downloads the annual report of one company
// for one fiscal year. It is an error when no report is found.
func DownloadAnnualReport(ctx context.Context, code string, year int, dir string) (string, error) {
	found, err := SearchAnnualReports(ctx, code, year)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return "", errors.Reason("no %d annual report found for %s", year, code)
	}
	fileName := fmt.Sprintf("%s_%d年年度报告.pdf", code, year)
	return DownloadPDF(ctx, found[0], dir, fileName)
}
