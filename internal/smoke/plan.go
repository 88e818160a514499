package smoke

import (
	"context"
	"fmt"

	"github.com/okian/tourism/internal/domain/model"
)

// Plan discovers the years and regions the service offers and returns one
// check per combination.
func Plan(ctx context.Context, c *Client, limit int) ([]Check, error) {
	resp, err := c.Dashboard(ctx, model.Filters{}, limit)
	if err != nil {
		return nil, fmt.Errorf("discover filters: %w", err)
	}
	return Combinations(resp.Data.Years, resp.Data.Regions, limit), nil
}

// Combinations crosses years with regions. The "All" sentinel is added
// when regions lack it.
func Combinations(years []int, regions []string, limit int) []Check {
	rs := regions
	hasAll := false
	for _, r := range regions {
		if r == model.AllRegions {
			hasAll = true
			break
		}
	}
	if !hasAll {
		rs = append([]string{model.AllRegions}, regions...)
	}

	out := make([]Check, 0, len(years)*len(rs))
	for _, y := range years {
		for _, r := range rs {
			out = append(out, Check{
				Filters: model.Filters{Year: model.IntPtr(y), Region: r},
				Limit:   limit,
			})
		}
	}
	return out
}
