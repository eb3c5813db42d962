package enums

import "fmt"

// PointTransactionType classifies a ledger entry.
type PointTransactionType string

const (
	PointTransactionEarned   PointTransactionType = "EARNED"
	PointTransactionBonus    PointTransactionType = "BONUS"
	PointTransactionRedeemed PointTransactionType = "REDEEMED"
)

var validPointTransactionTypes = []PointTransactionType{
	PointTransactionEarned,
	PointTransactionBonus,
	PointTransactionRedeemed,
}

func (t PointTransactionType) IsValid() bool {
	for _, candidate := range validPointTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParsePointTransactionType(value string) (PointTransactionType, error) {
	for _, candidate := range validPointTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid point transaction type %q", value)
}
