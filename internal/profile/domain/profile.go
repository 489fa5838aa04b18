package domain

import (
	"errors"
	"fmt"
	"time"
)

// Plan is the subscription tier recorded on a profile. Empty means the user
// has not chosen a plan yet.
type Plan string

const (
	PlanNone Plan = ""
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// ErrUnknownPlan is returned for plan values outside the catalog.
var ErrUnknownPlan = errors.New("unknown plan")

// ParsePlan returns the Plan for s, or ErrUnknownPlan for unknown values.
func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case PlanFree, PlanPro:
		return Plan(s), nil
	default:
		return PlanNone, fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
}

// Profile is the per-user onboarding and plan record, keyed 1:1 by the user id.
// A profile exists only after a successful registration; nothing creates one
// implicitly.
type Profile struct {
	ID        string
	Username  string   // empty if unset
	Birthdate string   // ISO date (YYYY-MM-DD), empty if unset
	Likes     []string // nil until the user picks interests
	Plan      Plan     // PlanNone until the user picks a plan
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy. Likes is the only reference field.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Likes != nil {
		c.Likes = append([]string(nil), p.Likes...)
	}
	return &c
}

// Update describes a partial profile write. Nil fields are left unchanged.
type Update struct {
	Username  *string
	Birthdate *string
	Likes     *[]string
	Plan      *Plan
}
