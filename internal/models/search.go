package models

// SearchResult is one ranked hit from a collection. It is built fresh for
// every query and never stored.
type SearchResult struct {
	Text            string            `json:"text"`
	Metadata        map[string]string `json:"metadata"`
	Distance        float64           `json:"distance"`
	SimilarityScore float64           `json:"similarity_score"`
	Rank            int               `json:"rank"`
	Collection      string            `json:"collection"`
}
