package store

import "testing"

func TestListOptionsNormalize(t *testing.T) {
	cases := []struct {
		name      string
		in        ListOptions
		wantPage  int
		wantLimit int
	}{
		{"zero values", ListOptions{}, 1, 20},
		{"negative page", ListOptions{Page: -3, Limit: 10}, 1, 10},
		{"limit above cap", ListOptions{Page: 2, Limit: 500}, 2, 100},
		{"already sane", ListOptions{Page: 4, Limit: 25}, 4, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Normalize()
			if tc.in.Page != tc.wantPage {
				t.Errorf("page = %d, want %d", tc.in.Page, tc.wantPage)
			}
			if tc.in.Limit != tc.wantLimit {
				t.Errorf("limit = %d, want %d", tc.in.Limit, tc.wantLimit)
			}
		})
	}
}

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(ListOptions{Page: 2, Limit: 20}, 45)

	if p.TotalPages != 3 {
		t.Errorf("totalPages = %d, want 3", p.TotalPages)
	}
	if p.TotalItems != 45 {
		t.Errorf("totalItems = %d, want 45", p.TotalItems)
	}
	if !p.HasNextPage {
		t.Error("expected hasNextPage on page 2 of 3")
	}
	if !p.HasPrevPage {
		t.Error("expected hasPrevPage on page 2")
	}

	last := BuildPagination(ListOptions{Page: 3, Limit: 20}, 45)
	if last.HasNextPage {
		t.Error("did not expect hasNextPage on the last page")
	}

	empty := BuildPagination(ListOptions{Page: 1, Limit: 20}, 0)
	if empty.TotalPages != 0 || empty.HasNextPage || empty.HasPrevPage {
		t.Errorf("empty result pagination = %+v", empty)
	}
}

func TestOrderClause(t *testing.T) {
	allowed := map[string]bool{"name": true, "value": true, "created_at": true}

	cases := []struct {
		sort string
		want string
	}{
		{"", "created_at DESC"},
		{"name", "name ASC"},
		{"-value", "value DESC"},
		{"password_hash", "created_at DESC"},
		{"-password_hash", "created_at DESC"},
		{"name; DROP TABLE leads", "created_at DESC"},
	}

	for _, tc := range cases {
		if got := orderClause(tc.sort, allowed); got != tc.want {
			t.Errorf("orderClause(%q) = %q, want %q", tc.sort, got, tc.want)
		}
	}
}
