package services

import "fmt"

// Principal is the authenticated caller. It is passed explicitly to every
// operation that checks ownership.
type Principal struct {
	UserID uint
}

func (p Principal) owns(ownerID uint) bool {
	return p.UserID != 0 && p.UserID == ownerID
}

func (p Principal) mustOwn(ownerID uint, what string, id uint) error {
	if !p.owns(ownerID) {
		return fmt.Errorf("%w: %s %d does not belong to user %d", ErrForbidden, what, id, p.UserID)
	}
	return nil
}
