package services

import (
	"errors"

	mysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrCapacityConflict = errors.New("room is not available anymore")
	ErrInvalidState     = errors.New("invalid state transition")
	ErrBookingExpired   = errors.New("booking has already expired")
	ErrValidation       = errors.New("validation failed")
	ErrPayment          = errors.New("payment provider error")
)

// isDuplicateKey covers gorm's translated error and the raw MySQL 1062.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == 1062
}
