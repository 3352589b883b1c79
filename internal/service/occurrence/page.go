package occurrence

import (
	"fmt"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

// Names of the checks reported in PageConsistencyError.Invariant.
const (
	CheckTotalNonNegative   = "total_results_non_negative"
	CheckCurrentPage        = "current_page_positive"
	CheckPerPage            = "per_page_positive"
	CheckItemsWithinPerPage = "items_within_per_page"
	CheckTotalPages         = "total_pages_match"
	CheckEmptyResult        = "empty_result_has_no_items"
)

// ExpectedTotalPages is ceil(total/perPage), or 0 when perPage is not positive.
func ExpectedTotalPages(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// ValidatePage checks a backend result page against its own metadata and
// returns it unchanged when consistent.
func ValidatePage[T any](p model.ResultPage[T]) (model.ResultPage[T], error) {
	if p.TotalResults < 0 {
		return p, &apperrors.PageConsistencyError{
			Invariant: CheckTotalNonNegative,
			Detail:    fmt.Sprintf("total_results=%d", p.TotalResults),
		}
	}
	if p.CurrentPage < 1 {
		return p, &apperrors.PageConsistencyError{
			Invariant: CheckCurrentPage,
			Detail:    fmt.Sprintf("current_page=%d", p.CurrentPage),
		}
	}
	// An empty page may come back without a page size.
	if p.PerPage < 1 && p.TotalResults > 0 {
		return p, &apperrors.PageConsistencyError{
			Invariant: CheckPerPage,
			Detail:    fmt.Sprintf("per_page=%d total_results=%d", p.PerPage, p.TotalResults),
		}
	}
	if len(p.Items) > p.PerPage {
		return p, &apperrors.PageConsistencyError{
			Invariant: CheckItemsWithinPerPage,
			Detail:    fmt.Sprintf("items=%d per_page=%d", len(p.Items), p.PerPage),
		}
	}
	if want := ExpectedTotalPages(p.TotalResults, p.PerPage); p.TotalPages != want {
		return p, &apperrors.PageConsistencyError{
			Invariant: CheckTotalPages,
			Detail:    fmt.Sprintf("total_pages=%d expected=%d", p.TotalPages, want),
		}
	}
	if p.TotalResults == 0 && len(p.Items) != 0 {
		return p, &apperrors.PageConsistencyError{
			Invariant: CheckEmptyResult,
			Detail:    fmt.Sprintf("items=%d", len(p.Items)),
		}
	}
	return p, nil
}
