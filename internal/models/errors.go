package models

import (
	"errors"
)

var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no")
)

// Validation errors. These are rejected before any write happens.
var (
	ErrOwnerInvalid             = errors.New("a resource must be owned by either a user or a household, not both")
	ErrAmountNotPositive        = errors.New("amounts must be larger than zero")
	ErrFrequencyInvalid         = errors.New("the frequency must be one of: weekly, biweekly, monthly, quarterly, yearly")
	ErrPriorityInvalid          = errors.New("the priority must be one of: essential, high, medium, low")
	ErrContributionRuleInvalid  = errors.New("exactly one of monthlyContribution and contributionPercent must be set")
	ErrContributionPercentRange = errors.New("the contribution percentage must be between 0 and 100")
)

// Invariant violations detected by the atomic adjustment primitives.
// These indicate a concurrency conflict: the requested delta would have
// produced an invalid state, the caller may retry with a smaller delta.
var (
	ErrAllocatedNegative = errors.New("the allocated amount of an envelope can not become negative")
	ErrSpentNegative     = errors.New("the spent amount of an envelope can not become negative")
	ErrPoolNegative      = errors.New("the available pool can not become negative")
)

// Errors that database constraints are translated into.
var (
	ErrAllocationMonthNotUnique = errors.New("an envelope can only have one allocation row per month")
	ErrPeriodMonthNotUnique     = errors.New("an owner can only have one budget period per month")
	ErrGoalEnvelopeNotUnique    = errors.New("an envelope can only have one savings goal")
	ErrEnvelopeNameNotUnique    = errors.New("the envelope name is already in use for this owner")
)
