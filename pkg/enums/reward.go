package enums

import "fmt"

// RewardCategory groups rewards in the catalog.
type RewardCategory string

const (
	RewardCategoryDiscount RewardCategory = "DISCOUNT"
	RewardCategoryService  RewardCategory = "SERVICE"
	RewardCategoryPriority RewardCategory = "PRIORITY"
	RewardCategoryMerch    RewardCategory = "MERCHANDISE"
)

var validRewardCategories = []RewardCategory{
	RewardCategoryDiscount,
	RewardCategoryService,
	RewardCategoryPriority,
	RewardCategoryMerch,
}

func (c RewardCategory) IsValid() bool {
	for _, candidate := range validRewardCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// RedemptionStatus tracks a redemption code's usability.
type RedemptionStatus string

const (
	RedemptionStatusActive  RedemptionStatus = "ACTIVE"
	RedemptionStatusUsed    RedemptionStatus = "USED"
	RedemptionStatusExpired RedemptionStatus = "EXPIRED"
)

var validRedemptionStatuses = []RedemptionStatus{
	RedemptionStatusActive,
	RedemptionStatusUsed,
	RedemptionStatusExpired,
}

func (s RedemptionStatus) IsValid() bool {
	for _, candidate := range validRedemptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseRedemptionStatus(value string) (RedemptionStatus, error) {
	for _, candidate := range validRedemptionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid redemption status %q", value)
}
