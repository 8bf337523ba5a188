package ipasset

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	// WIPTokenAddress is the wrapped IP token used as license currency.
	WIPTokenAddress = "0x1514000000000000000000000000000000000000"
	// RoyaltyPolicyLAP is the royalty policy attached to commercial terms.
	RoyaltyPolicyLAP = "0xBe54FB168b3c982b7AaE60dB6CF75Bd8447b390E"

	remixMaxLicenseTokens = 100
)

// ErrInvalidLicense is returned for a license selection that cannot be mapped to terms.
var ErrInvalidLicense = errors.New("invalid license selection")

type LicenseType string

const (
	OpenUse            LicenseType = "OPEN_USE"
	NonCommercialRemix LicenseType = "NON_COMMERCIAL_REMIX"
	CommercialUse      LicenseType = "COMMERCIAL_USE"
	CommercialRemix    LicenseType = "COMMERCIAL_REMIX"
)

type Flavor string

const (
	FlavorCreativeCommonsAttribution Flavor = "creative_commons_attribution"
	FlavorCommercialUse              Flavor = "commercial_use"
	FlavorCommercialRemix            Flavor = "commercial_remix"
)

// CommercialConfig prices a commercial license. Price is in IP tokens.
type CommercialConfig struct {
	PriceIP         float64 `json:"price_ip"`
	RevenueSharePct float64 `json:"revenue_share_pct"`
}

// Selection is the set of licenses an author offers for a story.
type Selection struct {
	Licenses        []LicenseType     `json:"licenses"`
	CommercialUse   *CommercialConfig `json:"commercial_use,omitempty"`
	CommercialRemix *CommercialConfig `json:"commercial_remix,omitempty"`
}

// Terms is one license terms entry attached at registration.
type Terms struct {
	Flavor             Flavor  `json:"flavor"`
	Currency           string  `json:"currency"`
	DefaultMintingFee  string  `json:"default_minting_fee,omitempty"` // wei
	CommercialRevShare float64 `json:"commercial_rev_share,omitempty"`
	RoyaltyPolicy      string  `json:"royalty_policy,omitempty"`
	MaxLicenseTokens   int     `json:"max_license_tokens,omitempty"`
}

// Terms maps the selection onto license terms. Selections that resolve to
// the same flavor are attached once.
func (s Selection) Terms() ([]Terms, error) {
	if len(s.Licenses) == 0 {
		return nil, fmt.Errorf("%w: at least one license is required", ErrInvalidLicense)
	}

	var terms []Terms
	for _, license := range lo.Uniq(s.Licenses) {
		switch license {
		case OpenUse, NonCommercialRemix:
			terms = append(terms, Terms{
				Flavor:   FlavorCreativeCommonsAttribution,
				Currency: WIPTokenAddress,
			})

		case CommercialUse:
			if s.CommercialUse == nil || s.CommercialUse.PriceIP <= 0 {
				return nil, fmt.Errorf("%w: %s requires a positive price", ErrInvalidLicense, license)
			}
			terms = append(terms, Terms{
				Flavor:            FlavorCommercialUse,
				Currency:          WIPTokenAddress,
				DefaultMintingFee: toWei(s.CommercialUse.PriceIP),
				RoyaltyPolicy:     RoyaltyPolicyLAP,
			})

		case CommercialRemix:
			cfg := s.CommercialRemix
			if cfg == nil || cfg.PriceIP <= 0 {
				return nil, fmt.Errorf("%w: %s requires a positive price", ErrInvalidLicense, license)
			}
			if cfg.RevenueSharePct < 0 || cfg.RevenueSharePct > 100 {
				return nil, fmt.Errorf("%w: revenue share must be between 0 and 100", ErrInvalidLicense)
			}
			terms = append(terms, Terms{
				Flavor:             FlavorCommercialRemix,
				Currency:           WIPTokenAddress,
				DefaultMintingFee:  toWei(cfg.PriceIP),
				CommercialRevShare: cfg.RevenueSharePct,
				RoyaltyPolicy:      RoyaltyPolicyLAP,
				MaxLicenseTokens:   remixMaxLicenseTokens,
			})

		default:
			return nil, fmt.Errorf("%w: unknown license %q", ErrInvalidLicense, license)
		}
	}

	return lo.UniqBy(terms, func(t Terms) Flavor { return t.Flavor }), nil
}

// toWei converts a token amount to its 18-decimal integer representation.
func toWei(amount float64) string {
	return decimal.NewFromFloat(amount).Shift(18).Truncate(0).String()
}
