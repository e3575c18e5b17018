package handler

import (
	"net/http"
	"strconv"

	"github.com/Brandonkhumalo/ShopSync/internal/repository"
)

// parseMillisQuery reads an optional epoch-millisecond query parameter.
func parseMillisQuery(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// parseDateRange reads the start_date/end_date pair used by sales
// listing and reporting.
func parseDateRange(r *http.Request) (repository.DateRange, error) {
	start, err := parseMillisQuery(r, "start_date")
	if err != nil {
		return repository.DateRange{}, err
	}
	end, err := parseMillisQuery(r, "end_date")
	if err != nil {
		return repository.DateRange{}, err
	}
	return repository.DateRange{Start: start, End: end}, nil
}
