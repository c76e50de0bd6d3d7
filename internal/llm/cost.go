package llm

// costPerToken stores per-1K-token input pricing in USD for known embedding models.
var costPerToken = map[string]float64{
	"text-embedding-ada-002": 0.0001,
	"text-embedding-3-small": 0.00002,
	"text-embedding-3-large": 0.00013,
}

func CalculateCost(model string, inputTokens int) float64 {
	price, ok := costPerToken[model]
	if !ok {
		return 0
	}
	return float64(inputTokens) / 1000.0 * price
}
