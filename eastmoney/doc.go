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

// Package eastmoney implements a client for the EastMoney datacenter report
// API, the public JSON endpoint behind most Chinese fundamental data
// retrieval libraries.
//
// Each report is addressed by a vendor report name (e.g. RPT_DMSK_FN_BALANCE)
// and filtered with column predicates. The endpoint returns at most one page
// of rows per request together with the total page count; RowIterator
// implements transparent paging over the result.
//
// Unlike a fixed-schema table API, a report row is a free-form JSON object.
// Row provides typed accessors, and typed row structs for particular reports
// live in the subpackages.
package eastmoney
