package repository

import "github.com/pkg/errors"

var (
	// ErrNotUpdated is returned by conditional updates whose WHERE clause matched no row
	ErrNotUpdated = errors.New("no rows updated")
	// ErrActiveSubscriptionExists is returned by Activate when the user is already covered
	ErrActiveSubscriptionExists = errors.New("active subscription exists")
)
