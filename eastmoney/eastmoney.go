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

package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/fincollect/fincollect/db"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"
)

type contextKey int

const (
	clientContextKey contextKey = iota
)

// URL is the default base URL of the datacenter report API. It may be
// overwritten in tests before creating a new client.
var URL = "https://datacenter-web.eastmoney.com/api/data/v1"

// QuoteURL is the default base URL of the quote list API serving the listed
// company directory. It may be overwritten in tests before creating a new
// client.
var QuoteURL = "https://push2.eastmoney.com/api/qt"

// Client for querying datacenter reports and the company directory. The
// endpoints are public and require no API key.
type Client struct {
	dataURL  string
	quoteURL string
}

// newClient creates a new client.
func newClient(dataURL, quoteURL string) *Client {
	return &Client{
		dataURL:  dataURL,
		quoteURL: quoteURL,
	}
}

// GetClient extracts the Client from the context, if any.
func GetClient(ctx context.Context) *Client {
	c, ok := ctx.Value(clientContextKey).(*Client)
	if !ok {
		return nil
	}
	return c
}

// UseClient creates a new client and injects it into the context.
func UseClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, clientContextKey, newClient(URL, QuoteURL))
}

// Value is an arbitrary JSON value of a report cell.
type Value interface{}

// Row is a single report row: a free-form JSON object keyed by the vendor's
// column names.
type Row map[string]Value

// String extracts a string-valued column. The second value is false when the
// column is missing, null, or not a string.
func (r Row) String(key string) (string, bool) {
	s, ok := r[key].(string)
	return s, ok
}

// Float extracts a numeric column. The second value is false when the column
// is missing, null, or not a number.
func (r Row) Float(key string) (float64, bool) {
	// encoding/json unmarshals any JSON number as float64.
	f, ok := r[key].(float64)
	return f, ok
}

// Date extracts and parses a date-valued column such as REPORT_DATE, which
// the vendor serves as a timestamp string.
func (r Row) Date(key string) (db.Date, error) {
	s, ok := r.String(key)
	if !ok {
		return db.Date{}, errors.Reason("column %s is not a date string", key)
	}
	d, err := db.NewDateFromString(s)
	if err != nil {
		return db.Date{}, errors.Annotate(err, "failed to parse column %s", key)
	}
	return d, nil
}

// RowLoader is the interface that a row type of a specific report must
// implement.
type RowLoader interface {
	Load(r Row) error
}

// RowIterator iterates over query results row by row. Paging is handled
// transparently.
type RowIterator struct {
	context context.Context
	query   *ReportQuery
	page    reportPage
	index   int  // the data element for Next() to return
	pageNum int  // which page number we're on; the vendor counts from 1
	started bool // if at least one Next call was ever made
}

// newRowIterator creates a new iterator.
func newRowIterator(ctx context.Context, query *ReportQuery) *RowIterator {
	return &RowIterator{context: ctx, query: query}
}

// nextPage fetches and populates the iterator with the next page of data.
// When there are no more pages to load, or loading a page results in an
// error, the first return value becomes false.
func (it *RowIterator) nextPage() (bool, error) {
	if it.started && it.pageNum >= it.page.Result.Pages {
		return false, nil
	}
	it.started = true
	it.pageNum++
	q := it.query.pageNumber(it.pageNum)
	// Clear the page, in case read doesn't overwrite some parts.
	it.page = reportPage{}
	if err := q.readPage(it.context, &it.page); err != nil {
		return false, errors.Annotate(err, "failed to query page %d", it.pageNum)
	}
	if !it.page.Success {
		// The endpoint reports an empty result as a failure with no data.
		if len(it.page.Result.Data) == 0 {
			return false, nil
		}
		return false, errors.Reason("query failed: code=%d message=%s",
			it.page.Code, it.page.Message)
	}
	it.index = 0
	logging.Debugf(it.context, "%s: fetched page %d of %d with %d rows",
		it.query.report, it.pageNum, it.page.Result.Pages,
		len(it.page.Result.Data))
	return true, nil
}

// Next loads the next row. If there are no more rows, the second value is
// false. Note, that error may be non-nil regardless of the end of iterator.
func (it *RowIterator) Next(row RowLoader) (bool, error) {
	if it.query == nil {
		return false, nil
	}
	// A successful page may be empty with more pages remaining; keep
	// advancing until a page has data or the pages run out.
	for !it.started || it.index >= len(it.page.Result.Data) {
		if ok, err := it.nextPage(); !ok {
			return false, err
		}
	}
	err := row.Load(it.page.Result.Data[it.index])
	it.index++
	if err != nil {
		return true, errors.Annotate(err, "failed to parse row %d in page %d",
			it.index, it.pageNum)
	}
	return true, nil
}

// ReportQuery is a builder for a datacenter report query.
type ReportQuery struct {
	report  string // the vendor report name, e.g. RPT_DMSK_FN_BALANCE
	filters []queryFilter
	options queryOptions
}

// Copy creates a deep copy of the query. It is primarily used in its builder
// methods.
func (q *ReportQuery) Copy() *ReportQuery {
	q2 := ReportQuery{report: q.report, options: q.options}
	q2.filters = make([]queryFilter, len(q.filters))
	copy(q2.filters, q.filters)
	return &q2
}

// queryFilterKind is the enum for different filters.
type queryFilterKind string

// Values for the queryFilterKind.
const (
	queryFilterEq = queryFilterKind("=")
	queryFilterGe = queryFilterKind(">=")
	queryFilterLe = queryFilterKind("<=")
)

// queryFilter is a single predicate of the query's filter expression.
type queryFilter struct {
	Kind   queryFilterKind
	Column string
	Value  string
}

// queryOptions are options common to all the reports.
type queryOptions struct {
	Columns  []string // if non-nil, return only these columns
	PageSize int      // number of results per page (0 = vendor default)
	PageNum  int      // page number to fetch, counted from 1 (0 = first)
	SortBy   string   // column to sort by
	SortDesc bool
}

// NewReportQuery creates a new query for the given vendor report name.
func NewReportQuery(report string) *ReportQuery {
	q := ReportQuery{report: report}
	return &q
}

// Equal adds an equality predicate: the value of the column must equal the
// given value. This and other builder methods always create a deep copy of
// the query, leaving the original intact.
func (q *ReportQuery) Equal(column, value string) *ReportQuery {
	q2 := q.Copy()
	q2.filters = append(q2.filters, queryFilter{queryFilterEq, column, value})
	return q2
}

// Ge adds a comparison predicate: the column's value must be >= value.
func (q *ReportQuery) Ge(column, value string) *ReportQuery {
	q2 := q.Copy()
	q2.filters = append(q2.filters, queryFilter{queryFilterGe, column, value})
	return q2
}

// Le adds a comparison predicate: the column's value must be <= value.
func (q *ReportQuery) Le(column, value string) *ReportQuery {
	q2 := q.Copy()
	q2.filters = append(q2.filters, queryFilter{queryFilterLe, column, value})
	return q2
}

// Columns constrains the query result to only these columns.
func (q *ReportQuery) Columns(columns ...string) *ReportQuery {
	q2 := q.Copy()
	q2.options.Columns = columns
	return q2
}

// PageSize sets the maximum number of results in a single response.
func (q *ReportQuery) PageSize(size int) *ReportQuery {
	if size < 0 {
		size = 0
	}
	q2 := q.Copy()
	q2.options.PageSize = size
	return q2
}

// Sort sets the column to sort the report by.
func (q *ReportQuery) Sort(column string, desc bool) *ReportQuery {
	q2 := q.Copy()
	q2.options.SortBy = column
	q2.options.SortDesc = desc
	return q2
}

// pageNumber sets the page to fetch for a paging query.
func (q *ReportQuery) pageNumber(n int) *ReportQuery {
	q2 := q.Copy()
	q2.options.PageNum = n
	return q2
}

// Values returns the query values for the query. Each call creates a new
// object, so the caller is free to modify it without affecting the query.
func (q *ReportQuery) Values() url.Values {
	v := make(url.Values)
	v["reportName"] = []string{q.report}
	columns := "ALL"
	if q.options.Columns != nil {
		columns = strings.Join(q.options.Columns, ",")
	}
	v["columns"] = []string{columns}
	if len(q.filters) > 0 {
		var sb strings.Builder
		for _, f := range q.filters {
			sb.WriteString(fmt.Sprintf(`(%s%s"%s")`, f.Column, f.Kind, f.Value))
		}
		v["filter"] = []string{sb.String()}
	}
	if q.options.PageSize != 0 {
		v["pageSize"] = []string{fmt.Sprintf("%d", q.options.PageSize)}
	}
	if q.options.PageNum != 0 {
		v["pageNumber"] = []string{fmt.Sprintf("%d", q.options.PageNum)}
	}
	if q.options.SortBy != "" {
		v["sortColumns"] = []string{q.options.SortBy}
		sortType := "1"
		if q.options.SortDesc {
			sortType = "-1"
		}
		v["sortTypes"] = []string{sortType}
	}
	return v
}

// reportResult holds the data and paging info of a report page.
type reportResult struct {
	Pages int   `json:"pages"`
	Count int   `json:"count"`
	Data  []Row `json:"data"`
}

// reportPage is the format of a single page of report data.
type reportPage struct {
	Result  reportResult `json:"result"`
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Code    int          `json:"code"`
}

// TestReportPage generates the JSON string in the format returned by the
// report API. For use in tests.
func TestReportPage(data []Row, pages int) (string, error) {
	bytes, err := json.Marshal(&reportPage{
		Result:  reportResult{Pages: pages, Count: len(data), Data: data},
		Success: true,
	})
	return string(bytes), err
}

// readPage executes the query using the Client from the context and downloads
// one page of data.
func (q *ReportQuery) readPage(ctx context.Context, page *reportPage) error {
	client := GetClient(ctx)
	if client == nil {
		return errors.Reason("ReportQuery.Read: no client in context")
	}
	uri := client.dataURL + "/get"
	if err := fetch.FetchJSON(ctx, uri, page, q.Values(), nil); err != nil {
		return errors.Annotate(err, "ReportQuery.Read: failed to fetch URL")
	}
	return nil
}

// Read sets up the iterator over the result rows, which will execute the
// query as needed and handle paging transparently.
func (q *ReportQuery) Read(ctx context.Context) *RowIterator {
	return newRowIterator(ctx, q)
}

// Company is an entry of the listed company directory.
type Company struct {
	Code string // the bare security code, e.g. "000001"
	Name string // the company's short name
}

// quote list field codes for the security code and short name.
const (
	quoteFieldCode = "f12"
	quoteFieldName = "f14"
)

// quotePage is the format of a single page of the quote list API.
type quotePage struct {
	Data struct {
		Total int `json:"total"`
		Diff  []struct {
			Code string `json:"f12"`
			Name string `json:"f14"`
		} `json:"diff"`
	} `json:"data"`
}

// TestQuotePage generates the JSON string in the format returned by the quote
// list API. For use in tests.
func TestQuotePage(total int, companies []Company) (string, error) {
	var page quotePage
	page.Data.Total = total
	for _, c := range companies {
		page.Data.Diff = append(page.Data.Diff, struct {
			Code string `json:"f12"`
			Name string `json:"f14"`
		}{Code: c.Code, Name: c.Name})
	}
	bytes, err := json.Marshal(&page)
	return string(bytes), err
}

// companyPageSize is the page size of the quote list queries.
const companyPageSize = 200

// CompanyIterator iterates over the listed company directory. Paging is
// handled transparently.
type CompanyIterator struct {
	context context.Context
	market  string // the vendor's market filter expression
	page    quotePage
	index   int
	fetched int
	pageNum int
	started bool
}

// Companies returns an iterator over all companies of the A-share exchanges.
func Companies(ctx context.Context) *CompanyIterator {
	// fs filter: SZ main board + SH main board + ChiNext + STAR.
	return &CompanyIterator{context: ctx, market: "m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23"}
}

func (it *CompanyIterator) nextPage() (bool, error) {
	if it.started && it.fetched >= it.page.Data.Total {
		return false, nil
	}
	client := GetClient(it.context)
	if client == nil {
		return false, errors.Reason("Companies: no client in context")
	}
	it.started = true
	it.pageNum++
	query := make(url.Values)
	query["pn"] = []string{fmt.Sprintf("%d", it.pageNum)}
	query["pz"] = []string{fmt.Sprintf("%d", companyPageSize)}
	query["fs"] = []string{it.market}
	query["fields"] = []string{quoteFieldCode + "," + quoteFieldName}
	it.page = quotePage{}
	uri := client.quoteURL + "/clist/get"
	if err := fetch.FetchJSON(it.context, uri, &it.page, query, nil); err != nil {
		return false, errors.Annotate(err, "failed to query company page %d", it.pageNum)
	}
	if len(it.page.Data.Diff) == 0 {
		return false, nil
	}
	it.index = 0
	it.fetched += len(it.page.Data.Diff)
	logging.Debugf(it.context, "company directory: fetched page %d with %d entries",
		it.pageNum, len(it.page.Data.Diff))
	return true, nil
}

// Next loads the next company. If there are no more entries, the second value
// is false.
func (it *CompanyIterator) Next() (Company, bool, error) {
	if !it.started || it.index >= len(it.page.Data.Diff) {
		if ok, err := it.nextPage(); !ok {
			return Company{}, false, err
		}
	}
	if it.index >= len(it.page.Data.Diff) {
		return Company{}, false, nil
	}
	d := it.page.Data.Diff[it.index]
	it.index++
	return Company{Code: d.Code, Name: d.Name}, true, nil
}
