package usecase

import "StockCast/internal/domain/models"

// stockRegistry is the curated symbol catalog served to clients, grouped
// by market.
var stockRegistry = map[string][]models.StockInfo{
	"us": {
		{Symbol: "AAPL", Name: "Apple Inc."},
		{Symbol: "ADBE", Name: "Adobe Inc."},
		{Symbol: "AMD", Name: "Advanced Micro Devices"},
		{Symbol: "AMZN", Name: "Amazon"},
		{Symbol: "BA", Name: "Boeing"},
		{Symbol: "BAC", Name: "Bank of America"},
		{Symbol: "CRM", Name: "Salesforce"},
		{Symbol: "CSCO", Name: "Cisco Systems"},
		{Symbol: "DIS", Name: "Walt Disney"},
		{Symbol: "GOOGL", Name: "Alphabet (Google)"},
		{Symbol: "INTC", Name: "Intel Corporation"},
		{Symbol: "JNJ", Name: "Johnson & Johnson"},
		{Symbol: "JPM", Name: "JPMorgan Chase"},
		{Symbol: "KO", Name: "Coca-Cola"},
		{Symbol: "MA", Name: "Mastercard"},
		{Symbol: "MCD", Name: "McDonald's"},
		{Symbol: "META", Name: "Meta Platforms"},
		{Symbol: "MSFT", Name: "Microsoft"},
		{Symbol: "NFLX", Name: "Netflix"},
		{Symbol: "NKE", Name: "Nike"},
		{Symbol: "NVDA", Name: "NVIDIA"},
		{Symbol: "ORCL", Name: "Oracle"},
		{Symbol: "PEP", Name: "PepsiCo"},
		{Symbol: "PG", Name: "Procter & Gamble"},
		{Symbol: "PYPL", Name: "PayPal"},
		{Symbol: "TSLA", Name: "Tesla"},
		{Symbol: "V", Name: "Visa"},
		{Symbol: "WMT", Name: "Walmart"},
	},
	"india": {
		{Symbol: "ADANIENT.NS", Name: "Adani Enterprises"},
		{Symbol: "ADANIPORTS.NS", Name: "Adani Ports"},
		{Symbol: "ASIANPAINT.NS", Name: "Asian Paints"},
		{Symbol: "AXISBANK.NS", Name: "Axis Bank"},
		{Symbol: "BAJAJ-AUTO.NS", Name: "Bajaj Auto"},
		{Symbol: "BAJFINANCE.NS", Name: "Bajaj Finance"},
		{Symbol: "BHARTIARTL.NS", Name: "Bharti Airtel"},
		{Symbol: "BPCL.NS", Name: "BPCL"},
		{Symbol: "CIPLA.NS", Name: "Cipla"},
		{Symbol: "DRREDDY.NS", Name: "Dr. Reddy's"},
		{Symbol: "HCLTECH.NS", Name: "HCL Technologies"},
		{Symbol: "HDFCBANK.NS", Name: "HDFC Bank"},
		{Symbol: "HINDUNILVR.NS", Name: "Hindustan Unilever"},
		{Symbol: "ICICIBANK.NS", Name: "ICICI Bank"},
		{Symbol: "INDUSINDBK.NS", Name: "IndusInd Bank"},
		{Symbol: "INFY.NS", Name: "Infosys"},
		{Symbol: "ITC.NS", Name: "ITC Limited"},
		{Symbol: "KOTAKBANK.NS", Name: "Kotak Mahindra Bank"},
		{Symbol: "LT.NS", Name: "Larsen & Toubro"},
		{Symbol: "MARUTI.NS", Name: "Maruti Suzuki"},
		{Symbol: "NESTLEIND.NS", Name: "Nestle India"},
		{Symbol: "ONGC.NS", Name: "ONGC"},
		{Symbol: "RELIANCE.NS", Name: "Reliance Industries"},
		{Symbol: "SBIN.NS", Name: "State Bank of India"},
		{Symbol: "SUNPHARMA.NS", Name: "Sun Pharma"},
		{Symbol: "TCS.NS", Name: "Tata Consultancy Services"},
		{Symbol: "TECHM.NS", Name: "Tech Mahindra"},
		{Symbol: "TITAN.NS", Name: "Titan Company"},
		{Symbol: "WIPRO.NS", Name: "Wipro"},
	},
}
