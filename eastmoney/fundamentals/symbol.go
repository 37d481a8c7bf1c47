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

// Package fundamentals downloads financial statements of listed companies
// from the vendor's report API. It understands both the A-share wide report
// format and the Hong Kong long format, and normalizes both into db.ReportRow
// values keyed by the A-share line item codes.
package fundamentals

import (
	"strings"

	"github.com/stockparfait/errors"
)

// Markets served by the statement reports.
const (
	MarketAShare = "ashare"
	MarketHK     = "hk"
)

// Symbol identifies a listed company as a bare security code plus an exchange
// suffix, e.g. {"000001", "SZ"}.
type Symbol struct {
	Code   string
	Suffix string // "SZ", "SH" or "HK"
}

// szPrefixes and shPrefixes are the 6-digit code prefixes assigned to the
// Shenzhen and Shanghai exchanges, respectively.
var (
	szPrefixes = []string{"000", "001", "002", "300"}
	shPrefixes = []string{"600", "601", "603", "605", "688"}
)

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// inferSuffix guesses the exchange suffix from the bare code. Hong Kong codes
// are 5 digits; mainland codes are 6 digits with exchange-specific prefixes.
// Unrecognized 6-digit prefixes default to Shenzhen.
func inferSuffix(code string) string {
	if len(code) == 5 {
		return "HK"
	}
	if hasAnyPrefix(code, shPrefixes) {
		return "SH"
	}
	return "SZ"
}

// ParseSymbol parses a user-supplied symbol string such as "000001",
// "600519.SH" or "00700.HK". When the suffix is absent it is inferred from
// the code.
func ParseSymbol(s string) (Symbol, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	code := s
	suffix := ""
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		code = s[:i]
		suffix = s[i+1:]
	}
	if !isDigits(code) || (len(code) != 5 && len(code) != 6) {
		return Symbol{}, errors.Reason(
			"security code must be 5 or 6 digits: '%s'", s)
	}
	switch suffix {
	case "":
		suffix = inferSuffix(code)
	case "SZ", "SH":
		if len(code) != 6 {
			return Symbol{}, errors.Reason(
				"%s codes must be 6 digits: '%s'", suffix, s)
		}
	case "HK":
		if len(code) != 5 {
			return Symbol{}, errors.Reason("HK codes must be 5 digits: '%s'", s)
		}
	default:
		return Symbol{}, errors.Reason("unsupported exchange suffix: '%s'", s)
	}
	return Symbol{Code: code, Suffix: suffix}, nil
}

// String returns the fully qualified symbol, e.g. "000001.SZ". This is the
// SECUCODE format of the vendor, and the symbol format of the database.
func (s Symbol) String() string {
	return s.Code + "." + s.Suffix
}

// Market returns the market the symbol trades on.
func (s Symbol) Market() string {
	if s.Suffix == "HK" {
		return MarketHK
	}
	return MarketAShare
}
