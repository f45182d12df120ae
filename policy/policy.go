// Package policy holds the role and status rules shared by the routes.
package policy

import (
	"context"
	"errors"

	"chefbazar/models"
	"chefbazar/utils"
)

type Action int

const (
	CreateMeal Action = iota
	PlaceOrder
	AdminArea
)

func (a Action) String() string {
	switch a {
	case CreateMeal:
		return "create-meal"
	case PlaceOrder:
		return "place-order"
	case AdminArea:
		return "admin-area"
	}
	return "unknown"
}

// Check allows or denies action for the caller. A denial is ErrForbidden.
func Check(caller *models.User, action Action) error {
	if caller == nil {
		return utils.ErrForbidden
	}
	switch action {
	case CreateMeal:
		if caller.IsFraud() {
			return utils.ErrForbidden
		}
		if caller.Role != models.RoleChef && caller.Role != models.RoleAdmin {
			return utils.ErrForbidden
		}
		return nil
	case PlaceOrder:
		if caller.IsFraud() {
			return utils.ErrForbidden
		}
		return nil
	case AdminArea:
		if caller.Role != models.RoleAdmin {
			return utils.ErrForbidden
		}
		return nil
	}
	return utils.ErrForbidden
}

type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// LoadCaller fetches the caller's record. A verified email with no user
// document yet is treated as a fresh active user.
func LoadCaller(ctx context.Context, users UserFinder, email string) (*models.User, error) {
	u, err := users.FindUserByEmail(ctx, email)
	if errors.Is(err, utils.ErrNotFound) {
		return &models.User{Email: email, Role: models.RoleUser, Status: models.StatusActive}, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
