package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/damon-houk/thrift-ledger/internal/domain/entity"
)

// SortField selects the column a listing is ordered by
type SortField string

const (
	// SortNone keeps the stored newest-first order. Query parsing never
	// yields it; an omitted sort field means date.
	SortNone          SortField = ""
	SortByDate        SortField = "date"
	SortByAmount      SortField = "amount"
	SortByDescription SortField = "description"
)

// SortOrder is the direction of a listing
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ListOptions narrows and orders a ledger listing
type ListOptions struct {
	// Search matches a case-insensitive substring of the description
	Search string
	SortBy SortField
	Order  SortOrder
}

// ParseListOptions builds options from raw query values.
// Omitted values default to date descending.
func ParseListOptions(search, sortBy, order string) (ListOptions, error) {
	opts := ListOptions{Search: strings.TrimSpace(search)}

	switch f := SortField(strings.ToLower(strings.TrimSpace(sortBy))); f {
	case SortNone:
		opts.SortBy = SortByDate
	case SortByDate, SortByAmount, SortByDescription:
		opts.SortBy = f
	default:
		return ListOptions{}, fmt.Errorf("unknown sort field %q", sortBy)
	}

	switch o := SortOrder(strings.ToLower(strings.TrimSpace(order))); o {
	case "":
		opts.Order = Descending
	case Ascending, Descending:
		opts.Order = o
	default:
		return ListOptions{}, fmt.Errorf("unknown sort order %q", order)
	}

	return opts, nil
}

// Apply returns the matching transactions in the requested order.
// The input slice is not modified.
func (o ListOptions) Apply(txs []entity.Transaction) []entity.Transaction {
	needle := strings.ToLower(o.Search)

	out := make([]entity.Transaction, 0, len(txs))
	for _, tx := range txs {
		if needle == "" || strings.Contains(strings.ToLower(tx.Description), needle) {
			out = append(out, tx)
		}
	}

	if o.SortBy == SortNone {
		return out
	}

	cmp := o.compare()
	if o.Order == Descending {
		asc := cmp
		cmp = func(a, b entity.Transaction) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, cmp)

	return out
}

func (o ListOptions) compare() func(a, b entity.Transaction) int {
	switch o.SortBy {
	case SortByAmount:
		return func(a, b entity.Transaction) int { return a.Amount.Cmp(b.Amount) }
	case SortByDescription:
		return func(a, b entity.Transaction) int {
			return strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
		}
	default:
		return func(a, b entity.Transaction) int { return a.Date.Compare(b.Date.Time) }
	}
}
