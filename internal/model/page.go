package model

// ResultPage is one page of search results together with the backend's
// pagination metadata.
type ResultPage[T any] struct {
	Items        []T
	TotalResults int
	CurrentPage  int
	PerPage      int
	TotalPages   int
}

// PageMetadata is the pagination block of the search wire format.
type PageMetadata struct {
	TotalResults int `json:"total_results"`
	CurrentPage  int `json:"current_page"`
	PerPage      int `json:"per_page"`
	TotalPages   int `json:"total_pages"`
}

// SearchResponse is the search wire format, used both when decoding the
// backend answer and when answering gateway clients.
type SearchResponse struct {
	OccurrenceResults []OccurrenceSummary `json:"occurrence_results"`
	Metadata          PageMetadata        `json:"metadata"`
}

// Page converts the wire format into a ResultPage. A missing result list
// becomes an empty one.
func (r SearchResponse) Page() ResultPage[OccurrenceSummary] {
	items := r.OccurrenceResults
	if items == nil {
		items = []OccurrenceSummary{}
	}
	return ResultPage[OccurrenceSummary]{
		Items:        items,
		TotalResults: r.Metadata.TotalResults,
		CurrentPage:  r.Metadata.CurrentPage,
		PerPage:      r.Metadata.PerPage,
		TotalPages:   r.Metadata.TotalPages,
	}
}

// NewSearchResponse converts a validated page back into the wire format.
func NewSearchResponse(p ResultPage[OccurrenceSummary]) SearchResponse {
	items := p.Items
	if items == nil {
		items = []OccurrenceSummary{}
	}
	return SearchResponse{
		OccurrenceResults: items,
		Metadata: PageMetadata{
			TotalResults: p.TotalResults,
			CurrentPage:  p.CurrentPage,
			PerPage:      p.PerPage,
			TotalPages:   p.TotalPages,
		},
	}
}
