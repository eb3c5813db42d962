package enums

import "fmt"

// CancellationActor records which party cancelled a booking.
type CancellationActor string

const (
	CancelledByCustomer   CancellationActor = "customer"
	CancelledByTechnician CancellationActor = "technician"
	CancelledByAdmin      CancellationActor = "admin"
)

var validCancellationActors = []CancellationActor{
	CancelledByCustomer,
	CancelledByTechnician,
	CancelledByAdmin,
}

func (a CancellationActor) IsValid() bool {
	for _, candidate := range validCancellationActors {
		if candidate == a {
			return true
		}
	}
	return false
}

func ParseCancellationActor(value string) (CancellationActor, error) {
	for _, candidate := range validCancellationActors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cancellation actor %q", value)
}

// CancellationActorForRole maps an account role to the party it cancels as.
func CancellationActorForRole(role UserRole) (CancellationActor, error) {
	switch role {
	case UserRoleCustomer:
		return CancelledByCustomer, nil
	case UserRoleTechnician:
		return CancelledByTechnician, nil
	case UserRoleAdmin:
		return CancelledByAdmin, nil
	}
	return "", fmt.Errorf("role %q cannot cancel bookings", role)
}
