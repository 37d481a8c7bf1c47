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

package fundamentals

import "github.com/stockparfait/errors"

// StatementKind enumerates the statements served per company.
type StatementKind string

// Values of StatementKind.
const (
	Indicators StatementKind = "indicators" // key financial indicators
	Balance    StatementKind = "balance"    // balance sheet
	Income     StatementKind = "income"     // income statement
	CashFlow   StatementKind = "cashflow"   // cash flow statement
)

// AllStatements lists all the statement kinds in their canonical order.
func AllStatements() []StatementKind {
	return []StatementKind{Indicators, Balance, Income, CashFlow}
}

// ParseStatementKind converts a configuration string to a StatementKind.
func ParseStatementKind(s string) (StatementKind, error) {
	switch StatementKind(s) {
	case Indicators:
		return Indicators, nil
	case Balance:
		return Balance, nil
	case Income:
		return Income, nil
	case CashFlow:
		return CashFlow, nil
	}
	return "", errors.Reason("unsupported statement kind: '%s'", s)
}

// reportSpec describes the vendor report serving one statement kind for one
// market.
type reportSpec struct {
	report     string // the vendor report name
	longFormat bool   // one line item per row, requires a pivot
}

// aShareSpecs maps statement kinds to the A-share vendor reports. These are
// all wide format: one reporting period per row, one line item per column.
var aShareSpecs = map[StatementKind]reportSpec{
	Indicators: {report: "RPT_F10_FINANCE_MAINFINADATA"},
	Balance:    {report: "RPT_DMSK_FN_BALANCE"},
	Income:     {report: "RPT_DMSK_FN_INCOME"},
	CashFlow:   {report: "RPT_DMSK_FN_CASHFLOW"},
}

// hkSpecs maps statement kinds to the Hong Kong vendor reports. The three
// statements are long format: one line item per row as STD_ITEM_NAME plus
// AMOUNT, requiring a pivot into the wide row format.
var hkSpecs = map[StatementKind]reportSpec{
	Indicators: {report: "RPT_HKF10_FN_MAININDICATOR"},
	Balance:    {report: "RPT_HKF10_FN_BALANCE_PC", longFormat: true},
	Income:     {report: "RPT_HKF10_FN_INCOME_PC", longFormat: true},
	CashFlow:   {report: "RPT_HKF10_FN_CASHFLOW_PC", longFormat: true},
}

// hkUnified maps Hong Kong statement item names to the unified A-share line
// item codes, per statement kind. Items not listed here keep their vendor
// item code.
var hkUnified = map[StatementKind]map[string]string{
	Income: {
		"营运收入":       "OPERATE_INCOME",
		"股东应占溢利":     "PARENT_NETPROFIT",
		"除税后溢利":      "NETPROFIT",
		"持续经营业务税后利润": "NETPROFIT",
		"毛利":         "GROSS_PROFIT",
		"营运支出":       "OPERATE_COST",
		"销售及分销费用":    "SALE_EXPENSE",
		"行政开支":       "MANAGE_EXPENSE",
		"研发费用":       "RESEARCH_EXPENSE",
		"融资成本":       "FINANCE_EXPENSE",
		"利息收入":       "INTEREST_INCOME",
		"利息支出":       "INTEREST_EXPENSE",
		"投资收益":       "INVEST_INCOME",
		"应占联营公司溢利":   "INVEST_INCOME",
		"公允价值变动收益":   "FAIRVALUE_CHANGE_INCOME",
		"经营溢利":       "OPERATE_PROFIT",
	},
	Balance: {
		"总资产":        "TOTAL_ASSETS",
		"流动资产合计":     "TOTAL_CURRENT_ASSETS",
		"非流动资产合计":    "TOTAL_NONCURRENT_ASSETS",
		"现金及等价物":     "MONETARYFUNDS",
		"存货":         "INVENTORY",
		"应收帐款":       "ACCOUNTS_RECE",
		"预付款项":       "PREPAYMENT",
		"预付款按金及其他应收款": "PREPAYMENT",
		"应付帐款":       "ACCOUNTS_PAYABLE",
		"应付票据":       "NOTE_PAYABLE",
		"预收账款":       "ADVANCE_RECEIVABLES",
		"总负债":        "TOTAL_LIABILITIES",
		"股东权益":       "TOTAL_PARENT_EQUITY",
		"净资产":        "TOTAL_PARENT_EQUITY",
		"物业厂房及设备":    "FIXED_ASSET",
		"固定资产":       "FIXED_ASSET",
		"在建工程":       "CIP",
		"无形资产":       "INTANGIBLE_ASSET",
		"商誉":         "GOODWILL",
		"短期借款":       "SHORT_LOAN",
		"长期借款":       "LONG_LOAN",
		"应付债券":       "BOND_PAYABLE",
		"应付职工薪酬":     "STAFF_SALARY_PAYABLE",
		"合同资产":       "CONTRACT_ASSET",
		"合同负债":       "CONTRACT_LIAB",
	},
	CashFlow: {
		"经营业务现金净额":         "NETCASH_OPERATE",
		"购建固定资产":           "CONSTRUCT_LONG_ASSET",
		"支付给职工以及为职工支付的现金":  "PAY_STAFF_CASH",
		"已付职工薪酬":           "PAY_STAFF_CASH",
		"固定资产折旧":           "FIXED_ASSET_DEPR",
		"折旧及摊销":            "FIXED_ASSET_DEPR",
	},
}

// fieldLabels maps the commonly used line item codes to their Chinese display
// names for CSV and text output.
var fieldLabels = map[string]string{
	// balance sheet
	"MONETARYFUNDS":           "货币资金",
	"ACCOUNTS_RECE":           "应收账款",
	"NOTE_RECE":               "应收票据",
	"PREPAYMENT":              "预付款项",
	"INVENTORY":               "存货",
	"CONTRACT_ASSET":          "合同资产",
	"TOTAL_CURRENT_ASSETS":    "流动资产总计",
	"LONG_EQUITY_INVEST":      "长期股权投资",
	"INVEST_REALESTATE":       "投资性房地产",
	"FIXED_ASSET":             "固定资产",
	"CIP":                     "在建工程",
	"INTANGIBLE_ASSET":        "无形资产",
	"GOODWILL":                "商誉",
	"DEFER_TAX_ASSET":         "递延所得税资产",
	"TOTAL_NONCURRENT_ASSETS": "非流动资产总计",
	"TOTAL_ASSETS":            "资产总计",
	"SHORT_LOAN":              "短期借款",
	"ACCOUNTS_PAYABLE":        "应付账款",
	"NOTE_PAYABLE":            "应付票据",
	"ADVANCE_RECEIVABLES":     "预收款项",
	"CONTRACT_LIAB":           "合同负债",
	"STAFF_SALARY_PAYABLE":    "应付职工薪酬",
	"TAX_PAYABLE":             "应交税费",
	"TOTAL_CURRENT_LIAB":      "流动负债总计",
	"LONG_LOAN":               "长期借款",
	"BOND_PAYABLE":            "应付债券",
	"LEASE_LIAB":              "租赁负债",
	"TOTAL_NONCURRENT_LIAB":   "非流动负债总计",
	"TOTAL_LIABILITIES":       "负债总计",
	"SHARE_CAPITAL":           "股本",
	"CAPITAL_RESERVE":         "资本公积",
	"SURPLUS_RESERVE":         "盈余公积",
	"UNASSIGN_RPOFIT":         "未分配利润",
	"TOTAL_PARENT_EQUITY":     "归属于母公司所有者权益合计",
	"MINORITY_EQUITY":         "少数股东权益",
	"TOTAL_EQUITY":            "所有者权益总计",

	// income statement
	"TOTAL_OPERATE_INCOME":    "营业总收入",
	"OPERATE_INCOME":          "营业收入",
	"INTEREST_INCOME":         "利息收入",
	"INTEREST_EXPENSE":        "利息支出",
	"TOTAL_OPERATE_COST":      "营业总成本",
	"OPERATE_COST":            "营业成本",
	"OPERATE_TAX_ADD":         "税金及附加",
	"SALE_EXPENSE":            "销售费用",
	"MANAGE_EXPENSE":          "管理费用",
	"RESEARCH_EXPENSE":        "研发费用",
	"FINANCE_EXPENSE":         "财务费用",
	"GROSS_PROFIT":            "毛利",
	"INVEST_INCOME":           "投资收益",
	"FAIRVALUE_CHANGE_INCOME": "公允价值变动收益",
	"OPERATE_PROFIT":          "营业利润",
	"TOTAL_PROFIT":            "利润总额",
	"INCOME_TAX":              "所得税费用",
	"NETPROFIT":               "净利润",
	"PARENT_NETPROFIT":        "归属于母公司所有者的净利润",
	"MINORITY_INTEREST":       "少数股东损益",
	"DEDUCT_PARENT_NETPROFIT": "扣除非经常性损益后的归属于母公司所有者的净利润",
	"BASIC_EPS":               "基本每股收益",
	"DILUTED_EPS":             "稀释每股收益",

	// cash flow statement
	"SALE_SERVICE":            "销售商品、提供劳务收到的现金",
	"RECEIVE_TAX_REFUND":      "收到的税费返还",
	"BUY_SERVICE":             "购买商品、接受劳务支付的现金",
	"PAY_STAFF_CASH":          "支付给职工以及为职工支付的现金",
	"PAY_ALL_TAX":             "支付的各项税费",
	"NETCASH_OPERATE":         "经营活动产生的现金流量净额",
	"OPERATE_NET_CASH_FLOW":   "经营活动产生的现金流量净额",
	"CONSTRUCT_LONG_ASSET":    "购建固定资产、无形资产和其他长期资产支付的现金",
	"WITHDRAW_INVEST":         "收回投资收到的现金",
	"RECEIVE_INVEST_INCOME":   "取得投资收益收到的现金",
	"NETCASH_INVEST":          "投资活动产生的现金流量净额",
	"INVEST_NET_CASH_FLOW":    "投资活动产生的现金流量净额",
	"ACCEPT_INVEST_CASH":      "吸收投资收到的现金",
	"ACCEPT_LOAN_CASH":        "取得借款收到的现金",
	"PAY_DEBT_CASH":           "偿还债务支付的现金",
	"ASSIGN_DIVIDEND_PORFIT":  "分配股利、利润或偿付利息支付的现金",
	"NETCASH_FINANCE":         "筹资活动产生的现金流量净额",
	"FINANCE_NET_CASH_FLOW":   "筹资活动产生的现金流量净额",
	"RATE_CHANGE_EFFECT":      "汇率变动对现金及现金等价物的影响",
	"NET_CASH_INCREASE":       "现金及现金等价物净增加额",
	"BEGIN_CASH":              "期初现金及现金等价物余额",
	"END_CASH":                "期末现金及现金等价物余额",
	"FIXED_ASSET_DEPR":        "固定资产折旧",

	// key indicators
	"EPSJB":        "基本每股收益",
	"BPS":          "每股净资产",
	"MGZBGJ":       "每股资本公积金",
	"MGWFPLR":      "每股未分配利润",
	"MGJYXJJE":     "每股经营现金流",
	"ROEJQ":        "净资产收益率",
	"ROEKCJQ":      "净资产收益率-扣非",
	"XSMLL":        "销售毛利率",
	"XSJLL":        "销售净利率",
	"ZCFZL":        "资产负债率",
	"LD":           "流动比率",
	"SD":           "速动比率",
	"TOTALOPERATEREVE": "营业总收入",
	"PARENTNETPROFIT":  "归母净利润",
	"KCFJCXSYJLR":      "扣非净利润",
}

// FieldLabel returns the Chinese display name of a line item code, or the
// code itself when no label is known.
func FieldLabel(code string) string {
	if label, ok := fieldLabels[code]; ok {
		return label
	}
	return code
}
