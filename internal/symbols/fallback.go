package symbols

import "strings"

// fallbackListings is the built-in directory used when the upstream symbol
// search is unconfigured or failing. Small on purpose: enough to keep the
// search UI usable while degraded.
var fallbackListings = []Identity{
	{RawSymbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "MSFT", Name: "Microsoft Corporation", Exchange: "NASDAQ", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "GOOG", Name: "Alphabet Inc.", Exchange: "NASDAQ", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "AMZN", Name: "Amazon.com Inc.", Exchange: "NASDAQ", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "NVDA", Name: "NVIDIA Corporation", Exchange: "NASDAQ", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "META", Name: "Meta Platforms Inc.", Exchange: "NASDAQ", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "TSLA", Name: "Tesla Inc.", Exchange: "NASDAQ", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "JPM", Name: "JPMorgan Chase & Co.", Exchange: "NYSE", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "KO", Name: "The Coca-Cola Company", Exchange: "NYSE", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "DIS", Name: "The Walt Disney Company", Exchange: "NYSE", AssetType: AssetTypeStock, Country: "US", Currency: "USD"},
	{RawSymbol: "SAP", Name: "SAP SE", Exchange: "NYSE", AssetType: AssetTypeStock, Country: "Germany", Currency: "USD"},
	{RawSymbol: "TSM", Name: "Taiwan Semiconductor Manufacturing", Exchange: "NYSE", AssetType: AssetTypeStock, Country: "Taiwan", Currency: "USD"},
	{RawSymbol: "ASML", Name: "ASML Holding N.V.", Exchange: "NASDAQ", AssetType: AssetTypeStock, Country: "Netherlands", Currency: "USD"},
	{RawSymbol: "SPY", Name: "SPDR S&P 500 ETF Trust", Exchange: "NYSEARCA", AssetType: AssetTypeETF, Country: "US", Currency: "USD"},
	{RawSymbol: "QQQ", Name: "Invesco QQQ Trust", Exchange: "NASDAQ", AssetType: AssetTypeETF, Country: "US", Currency: "USD"},
	{RawSymbol: "VTI", Name: "Vanguard Total Stock Market ETF", Exchange: "NYSEARCA", AssetType: AssetTypeETF, Country: "US", Currency: "USD"},
	{RawSymbol: "BTC-USD", Name: "Bitcoin USD", Exchange: "CRYPTO", AssetType: AssetTypeCrypto, Country: "", Currency: "USD"},
	{RawSymbol: "ETH-USD", Name: "Ethereum USD", Exchange: "CRYPTO", AssetType: AssetTypeCrypto, Country: "", Currency: "USD"},
}

// searchFallback filters the built-in list by case-insensitive substring
// match on symbol or name. Results carry Source=fallback so degraded
// answers are never mistaken for live directory data.
func searchFallback(query string) []Identity {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []Identity{}
	}

	matches := make([]Identity, 0)
	for _, listing := range fallbackListings {
		if !strings.Contains(strings.ToLower(listing.RawSymbol), needle) &&
			!strings.Contains(strings.ToLower(listing.Name), needle) {
			continue
		}

		identity := listing
		identity.CanonicalSymbol = Normalize(identity.RawSymbol)
		identity.ChartSymbol = ToChartSymbol(identity.RawSymbol, identity.Exchange)
		identity.IsADR = IsADR(identity.Exchange, identity.Country)
		identity.Source = SourceFallback
		matches = append(matches, identity)
	}
	return matches
}
