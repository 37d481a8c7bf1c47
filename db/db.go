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
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/stockparfait/errors"
)

func writeGob(fileName string, v interface{}) error {
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file for writing: '%s'", fileName)
	}
	defer f.Close()
	enc := gob.NewEncoder(f)
	if err = enc.Encode(v); err != nil {
		return errors.Annotate(err, "failed to write to '%s'", fileName)
	}
	return nil
}

func readGob(fileName string, v interface{}) error {
	f, err := os.Open(fileName)
	if err != nil {
		return errors.Annotate(err, "failed to open file for reading: '%s'", fileName)
	}
	defer f.Close()
	dec := gob.NewDecoder(f)
	if err = dec.Decode(v); err != nil {
		return errors.Annotate(err, "failed to read from '%s'", fileName)
	}
	return nil
}

// Writer stores the collected dataset in a database under dbPath/dbName:
// companies.gob, reports/<symbol>_<kind>.gob, and metadata.json.
type Writer struct {
	dbPath string
	dbName string
}

// NewWriter creates a new Writer.
func NewWriter(dbPath, dbName string) *Writer {
	return &Writer{dbPath: dbPath, dbName: dbName}
}

func (w *Writer) dbDir() string {
	return filepath.Join(w.dbPath, w.dbName)
}

func (w *Writer) reportsDir() string {
	return filepath.Join(w.dbDir(), "reports")
}

// WriteCompanies saves the companies table, replacing the existing one.
func (w *Writer) WriteCompanies(companies map[string]CompanyRow) error {
	if err := os.MkdirAll(w.dbDir(), os.ModePerm); err != nil {
		return errors.Annotate(err, "failed to create directory '%s'", w.dbDir())
	}
	fileName := filepath.Join(w.dbDir(), "companies.gob")
	if err := writeGob(fileName, companies); err != nil {
		return errors.Annotate(err, "failed to write companies")
	}
	return nil
}

// WriteReports saves one statement of one company, replacing the existing
// rows. Kind is the statement kind's string form.
func (w *Writer) WriteReports(symbol, kind string, rows []ReportRow) error {
	if err := os.MkdirAll(w.reportsDir(), os.ModePerm); err != nil {
		return errors.Annotate(err, "failed to create directory '%s'", w.reportsDir())
	}
	fileName := filepath.Join(w.reportsDir(), symbol+"_"+kind+".gob")
	if err := writeGob(fileName, rows); err != nil {
		return errors.Annotate(err, "failed to write %s reports for %s", kind, symbol)
	}
	return nil
}

// WriteMetadata saves the database metadata as JSON.
func (w *Writer) WriteMetadata(m Metadata) error {
	if err := os.MkdirAll(w.dbDir(), os.ModePerm); err != nil {
		return errors.Annotate(err, "failed to create directory '%s'", w.dbDir())
	}
	fileName := filepath.Join(w.dbDir(), "metadata.json")
	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Annotate(err, "failed to open file for writing: '%s'", fileName)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return errors.Annotate(err, "failed to write metadata")
	}
	return nil
}

// Reader reads a database written by Writer. The companies table is cached
// after the first read. Methods are safe for concurrent use.
type Reader struct {
	dbPath        string
	dbName        string
	companiesOnce sync.Once
	companiesErr  error
	companies     map[string]CompanyRow
}

// NewReader creates a new Reader.
func NewReader(dbPath, dbName string) *Reader {
	return &Reader{dbPath: dbPath, dbName: dbName}
}

func (r *Reader) dbDir() string {
	return filepath.Join(r.dbPath, r.dbName)
}

func (r *Reader) cacheCompanies() error {
	r.companiesOnce.Do(func() {
		fileName := filepath.Join(r.dbDir(), "companies.gob")
		companies := make(map[string]CompanyRow)
		if err := readGob(fileName, &companies); err != nil {
			r.companiesErr = errors.Annotate(err, "failed to read companies")
			return
		}
		r.companies = companies
	})
	return r.companiesErr
}

// Companies returns the sorted list of symbols in the companies table.
func (r *Reader) Companies() ([]string, error) {
	if err := r.cacheCompanies(); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(r.companies))
	for s := range r.companies {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols, nil
}

// CompanyRow returns the row of a single company.
func (r *Reader) CompanyRow(symbol string) (CompanyRow, error) {
	if err := r.cacheCompanies(); err != nil {
		return CompanyRow{}, err
	}
	row, ok := r.companies[symbol]
	if !ok {
		return CompanyRow{}, errors.Reason("no such company: %s", symbol)
	}
	return row, nil
}

// Reports returns the stored statement rows of one company, in stored order.
func (r *Reader) Reports(symbol, kind string) ([]ReportRow, error) {
	fileName := filepath.Join(r.dbDir(), "reports", symbol+"_"+kind+".gob")
	var rows []ReportRow
	if err := readGob(fileName, &rows); err != nil {
		return nil, errors.Annotate(err, "failed to read %s reports for %s", kind, symbol)
	}
	return rows, nil
}

// HasReports checks whether a statement of a company exists in the database.
func (r *Reader) HasReports(symbol, kind string) bool {
	fileName := filepath.Join(r.dbDir(), "reports", symbol+"_"+kind+".gob")
	_, err := os.Stat(fileName)
	return err == nil
}

// Metadata reads the database metadata.
func (r *Reader) Metadata() (Metadata, error) {
	fileName := filepath.Join(r.dbDir(), "metadata.json")
	var m Metadata
	data, err := os.ReadFile(fileName)
	if err != nil {
		return m, errors.Annotate(err, "failed to read metadata from '%s'", fileName)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, errors.Annotate(err, "failed to parse metadata")
	}
	return m, nil
}
