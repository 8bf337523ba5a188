package ipasset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionTerms(t *testing.T) {
	tests := []struct {
		name    string
		sel     Selection
		flavors []Flavor
		wantErr bool
	}{
		{
			name:    "open use",
			sel:     Selection{Licenses: []LicenseType{OpenUse}},
			flavors: []Flavor{FlavorCreativeCommonsAttribution},
		},
		{
			name:    "open use and non-commercial remix collapse",
			sel:     Selection{Licenses: []LicenseType{OpenUse, NonCommercialRemix}},
			flavors: []Flavor{FlavorCreativeCommonsAttribution},
		},
		{
			name: "all four",
			sel: Selection{
				Licenses:        []LicenseType{OpenUse, CommercialUse, CommercialRemix, NonCommercialRemix},
				CommercialUse:   &CommercialConfig{PriceIP: 1},
				CommercialRemix: &CommercialConfig{PriceIP: 2, RevenueSharePct: 10},
			},
			flavors: []Flavor{FlavorCreativeCommonsAttribution, FlavorCommercialUse, FlavorCommercialRemix},
		},
		{
			name:    "empty",
			sel:     Selection{},
			wantErr: true,
		},
		{
			name:    "unknown",
			sel:     Selection{Licenses: []LicenseType{"ALL_RIGHTS_RESERVED"}},
			wantErr: true,
		},
		{
			name:    "commercial use without price",
			sel:     Selection{Licenses: []LicenseType{CommercialUse}},
			wantErr: true,
		},
		{
			name: "commercial remix share out of range",
			sel: Selection{
				Licenses:        []LicenseType{CommercialRemix},
				CommercialRemix: &CommercialConfig{PriceIP: 1, RevenueSharePct: 150},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, err := tt.sel.Terms()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLicense)
				return
			}
			require.NoError(t, err)

			var flavors []Flavor
			for _, term := range terms {
				flavors = append(flavors, term.Flavor)
				assert.Equal(t, WIPTokenAddress, term.Currency)
			}
			assert.Equal(t, tt.flavors, flavors)
		})
	}
}

func TestCommercialRemixTerms(t *testing.T) {
	terms, err := Selection{
		Licenses:        []LicenseType{CommercialRemix},
		CommercialRemix: &CommercialConfig{PriceIP: 0.5, RevenueSharePct: 15},
	}.Terms()
	require.NoError(t, err)
	require.Len(t, terms, 1)

	assert.Equal(t, "500000000000000000", terms[0].DefaultMintingFee)
	assert.Equal(t, 15.0, terms[0].CommercialRevShare)
	assert.Equal(t, RoyaltyPolicyLAP, terms[0].RoyaltyPolicy)
	assert.Equal(t, 100, terms[0].MaxLicenseTokens)
}

func TestToWei(t *testing.T) {
	assert.Equal(t, "1000000000000000000", toWei(1))
	assert.Equal(t, "1500000000000000000", toWei(1.5))
	assert.Equal(t, "100000000000000", toWei(0.0001))
	assert.Equal(t, "0", toWei(0))
}
