package handlers

import "testing"

func TestParsePaginationParamsDefaults(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 1 || limit != 20 {
		t.Fatalf("expected defaults 1/20, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsValues(t *testing.T) {
	page, limit, err := parsePaginationParams("3", "50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page != 3 || limit != 50 {
		t.Fatalf("expected 3/50, got %d/%d", page, limit)
	}
}

func TestParsePaginationParamsRejectsInvalid(t *testing.T) {
	for _, pair := range [][2]string{{"0", "10"}, {"-1", "10"}, {"x", "10"}, {"1", "0"}, {"1", "y"}} {
		if _, _, err := parsePaginationParams(pair[0], pair[1]); err == nil {
			t.Fatalf("expected error for page=%q limit=%q", pair[0], pair[1])
		}
	}
}
