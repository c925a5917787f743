package domain

import "errors"

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrPlanExists   = errors.New("plan already exists")
	ErrPlanInactive = errors.New("plan inactive")
	ErrInvalidPlan  = errors.New("invalid plan")
)
