package product

import (
	"testing"
)

func TestSearchKeyword(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    string
	}{
		{
			name:    "explicit keyword wins",
			product: Product{Title: "Wireless Earbuds Pro X3", Keyword: "wireless earbuds"},
			want:    "wireless earbuds",
		},
		{
			name:    "falls back to title",
			product: Product{Title: "Wireless Earbuds Pro X3"},
			want:    "Wireless Earbuds Pro X3",
		},
		{
			name:    "whitespace keyword falls back to title",
			product: Product{Title: "Posture Corrector", Keyword: "   "},
			want:    "Posture Corrector",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.product.SearchKeyword(); got != tt.want {
				t.Errorf("SearchKeyword() = %q, want %q", got, tt.want)
			}
		})
	}
}
