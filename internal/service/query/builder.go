package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jwalitptl/specimen-gateway/internal/model"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
)

const defaultPerPage = 10

// Config controls normalization. An empty AllowedCriteria accepts any key.
type Config struct {
	DefaultPerPage  int
	MaxPerPage      int
	AllowedCriteria []string
}

// Builder turns raw user criteria into a FilterQuery. It holds only
// immutable configuration and is safe for concurrent use.
type Builder struct {
	defaultPerPage int
	maxPerPage     int
	allowed        map[string]struct{}
}

func NewBuilder(cfg Config) *Builder {
	b := &Builder{
		defaultPerPage: cfg.DefaultPerPage,
		maxPerPage:     cfg.MaxPerPage,
	}
	if b.defaultPerPage <= 0 {
		b.defaultPerPage = defaultPerPage
	}
	if len(cfg.AllowedCriteria) > 0 {
		b.allowed = make(map[string]struct{}, len(cfg.AllowedCriteria))
		for _, k := range cfg.AllowedCriteria {
			b.allowed[k] = struct{}{}
		}
	}
	return b
}

// Build normalizes raw criteria. Blank values are dropped, kept values are
// trimmed and the "page"/"per_page" keys are read as pagination. Positive
// page and perPage arguments take precedence over the raw keys.
func (b *Builder) Build(raw map[string]string, page, perPage int) (model.FilterQuery, error) {
	criteria := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == model.PageKey || k == model.PerPageKey {
			continue
		}
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		criteria[k] = v
	}

	if b.allowed != nil {
		var rejected []string
		for k := range criteria {
			if _, ok := b.allowed[k]; !ok {
				rejected = append(rejected, k)
			}
		}
		if len(rejected) > 0 {
			sort.Strings(rejected)
			return model.FilterQuery{}, &apperrors.FilterValidationError{Keys: rejected}
		}
	}

	if len(criteria) == 0 {
		return model.FilterQuery{}, &apperrors.EmptyQueryError{}
	}

	if page <= 0 {
		page = positiveInt(raw[model.PageKey])
	}
	if page <= 0 {
		page = 1
	}

	if perPage <= 0 {
		perPage = positiveInt(raw[model.PerPageKey])
	}
	if perPage <= 0 {
		perPage = b.defaultPerPage
	}
	if b.maxPerPage > 0 && perPage > b.maxPerPage {
		perPage = b.maxPerPage
	}

	return model.FilterQuery{
		Criteria: criteria,
		Page:     page,
		PerPage:  perPage,
	}, nil
}

// positiveInt returns 0 for anything that is not a positive integer.
func positiveInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
