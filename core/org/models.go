package org

import (
	"time"

	"github.com/zawadi/chekechea/core"
)

// Org is the tenant. Every other row in the system carries its ID.
type Org struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewOrg contains information needed to create a new Org.
type NewOrg struct {
	Name     string `json:"name" validate:"required"`
	Slug     string `json:"slug" validate:"required,min=3,alphanum_"`
	Timezone string `json:"timezone"`
}

func (no *NewOrg) Validate(svc ServiceInterface) error {
	no.Name = core.CleanString(no.Name)
	no.Slug = core.CleanString(no.Slug, true /* lower */)
	no.Timezone = core.CleanString(no.Timezone)
	if no.Timezone == "" {
		no.Timezone = "UTC"
	}

	if err := core.Validate.Struct(no); err != nil {
		return err
	}
	return svc.CheckUniqueness(no.Slug)
}

// UpdateOrg defines what information may be provided to modify an existing Org.
type UpdateOrg struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

func (uo *UpdateOrg) Validate(origOrg Org) error {
	name := core.CleanString(uo.Name)
	if name != "" {
		uo.Name = name
	} else {
		uo.Name = origOrg.Name
	}

	tz := core.CleanString(uo.Timezone)
	if tz != "" {
		uo.Timezone = tz
	} else {
		uo.Timezone = origOrg.Timezone
	}
	return core.Validate.Struct(uo)
}

// GetFilter selects a single Org. ID wins over Slug.
type GetFilter struct {
	ID   string
	Slug string
}
