package crawler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateProductURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		domain string
		want   error
	}{
		{raw: mainURL, domain: "trendyol.com"},
		{raw: "https://WWW.TRENDYOL.COM/x-p-1", domain: "trendyol.com"},
		{raw: "", domain: "trendyol.com", want: ErrEmptyURL},
		{raw: "   ", domain: "trendyol.com", want: ErrEmptyURL},
		{raw: "https://www.hepsiburada.com/x-p-1", domain: "trendyol.com", want: ErrForeignDomain},
		{raw: "trendyol.com/x-p-1", domain: "trendyol.com", want: ErrInvalidURL},
		{raw: "ftp://trendyol.com/x", domain: "trendyol.com", want: ErrInvalidURL},
		{raw: "https://shop.example.com/x", domain: ""},
	}
	for _, tt := range tests {
		err := ValidateProductURL(tt.raw, tt.domain)
		if tt.want == nil {
			require.NoError(t, err, tt.raw)
			continue
		}
		require.ErrorIs(t, err, tt.want, tt.raw)
	}
}
