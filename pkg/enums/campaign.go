package enums

import "fmt"

// CampaignType maps to the advertising channel types the bidder touches.
type CampaignType string

const (
	CampaignTypeSearch   CampaignType = "SEARCH"
	CampaignTypeShopping CampaignType = "SHOPPING"
)

var validCampaignTypes = []CampaignType{
	CampaignTypeSearch,
	CampaignTypeShopping,
}

// IsValid reports whether the value matches a supported channel type.
func (c CampaignType) IsValid() bool {
	for _, candidate := range validCampaignTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCampaignType converts raw input into CampaignType.
func ParseCampaignType(value string) (CampaignType, error) {
	for _, candidate := range validCampaignTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid campaign type %q", value)
}

// BiddingStrategyType mirrors the platform's bidding strategy enum. Unknown
// values are kept verbatim.
type BiddingStrategyType string

const (
	BiddingManualCPC       BiddingStrategyType = "MANUAL_CPC"
	BiddingManualCPM       BiddingStrategyType = "MANUAL_CPM"
	BiddingManualCPV       BiddingStrategyType = "MANUAL_CPV"
	BiddingTargetCPA       BiddingStrategyType = "TARGET_CPA"
	BiddingMaximizeConvs   BiddingStrategyType = "MAXIMIZE_CONVERSIONS"
	BiddingTargetROAS      BiddingStrategyType = "TARGET_ROAS"
	BiddingTargetSpend     BiddingStrategyType = "TARGET_SPEND"
	BiddingEnhancedCPC     BiddingStrategyType = "ENHANCED_CPC"
	BiddingUnspecifiedType BiddingStrategyType = "UNSPECIFIED"
)

var manualBiddingStrategies = []BiddingStrategyType{
	BiddingManualCPC,
	BiddingManualCPM,
	BiddingManualCPV,
}

// IsManual reports whether bids are set by hand, which is when ad schedule
// modifiers take effect.
func (b BiddingStrategyType) IsManual() bool {
	for _, candidate := range manualBiddingStrategies {
		if candidate == b {
			return true
		}
	}
	return false
}
