package model

import "strings"

// ETF describes one suggested universe member.
type ETF struct {
	Ticker      string `json:"ticker"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ETFCategory groups related ETFs.
type ETFCategory struct {
	Label string `json:"label"`
	ETFs  []ETF  `json:"etfs"`
}

// ETFGroup is a top-level asset class.
type ETFGroup struct {
	Label      string        `json:"label"`
	Categories []ETFCategory `json:"categories"`
}

// Catalog is the suggested FAA universe: three equity, two bond and two alternative slots.
var Catalog = []ETFGroup{
	{
		Label: "Equity (Stocks)",
		Categories: []ETFCategory{
			{Label: "US Equity", ETFs: []ETF{
				{"SPY", "SPDR S&P 500", "US Large Cap 500"},
				{"VTI", "Vanguard Total Stock", "Total US Market"},
				{"QQQ", "Invesco QQQ", "Nasdaq 100"},
				{"IWM", "iShares Russell 2000", "US Small Cap"},
				{"RSP", "Invesco S&P 500 Equal", "S&P 500 Equal Weight"},
			}},
			{Label: "Developed Markets", ETFs: []ETF{
				{"VEA", "Vanguard Developed", "Ex-US Developed"},
				{"EFA", "iShares MSCI EAFE", "Ex-US Developed"},
				{"VGK", "Vanguard European", "Europe Stock"},
				{"EWJ", "iShares MSCI Japan", "Japan Stock"},
			}},
			{Label: "Emerging Markets", ETFs: []ETF{
				{"VWO", "Vanguard Emerging", "Emerging Markets"},
				{"EEM", "iShares MSCI Emerging", "Emerging Markets"},
				{"IEMG", "iShares Core Emerging", "Emerging Markets"},
			}},
		},
	},
	{
		Label: "Fixed Income (Bonds)",
		Categories: []ETFCategory{
			{Label: "Treasury", ETFs: []ETF{
				{"SHY", "iShares 1-3 Year", "Short-Term Treasury"},
				{"BIL", "SPDR 1-3 Month", "Ultra Short Treasury"},
				{"IEF", "iShares 7-10 Year", "Mid-Term Treasury"},
				{"TLT", "iShares 20+ Year", "Long-Term Treasury"},
				{"BND", "Vanguard Total Bond", "Total Bond Market"},
			}},
			{Label: "Corporate", ETFs: []ETF{
				{"LQD", "iShares Inv Grade", "Investment Grade"},
				{"HYG", "iShares High Yield", "High Yield Bond"},
			}},
		},
	},
	{
		Label: "Alternatives",
		Categories: []ETFCategory{
			{Label: "Commodities & Precious Metals", ETFs: []ETF{
				{"GSG", "iShares S&P GSCI", "Broad Commodities"},
				{"DBC", "Invesco DB Cmdty", "Broad Commodities"},
				{"GLD", "SPDR Gold Shares", "Gold"},
				{"IAU", "iShares Gold Trust", "Gold"},
			}},
			{Label: "Real Estate", ETFs: []ETF{
				{"VNQ", "Vanguard Real Estate", "US REITs"},
				{"IYR", "iShares US Real Estate", "US Real Estate"},
			}},
		},
	},
}

// FindETF looks up a ticker in the catalog, case-insensitively.
func FindETF(ticker string) (ETF, bool) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	for _, g := range Catalog {
		for _, c := range g.Categories {
			for _, e := range c.ETFs {
				if e.Ticker == t {
					return e, true
				}
			}
		}
	}
	return ETF{}, false
}
