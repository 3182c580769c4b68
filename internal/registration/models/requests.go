package models

import (
	dErrors "ekaa/pkg/domain-errors"
)

// Client-facing messages for the public submission endpoint.
const (
	MessageSubmitted      = "Registration successful! One of our team from EKAA will contact you within 48 hours."
	MessageRequiredFields = "Name, email, and phone are required."
)

// SubmitRequest is the JSON payload posted by the public form. Pointers keep
// an absent field distinguishable from an empty one, though both are rejected.
type SubmitRequest struct {
	Name              *string  `json:"name"`
	Email             *string  `json:"email"`
	Phone             *string  `json:"phone"`
	ConnectedWith     *string  `json:"connectedWith"`
	SelectedTrainings []string `json:"selectedTrainings"`
}

// Validate enforces presence of name, email and phone. Values are deliberately
// not trimmed or format-checked: any literal non-empty string passes.
func (r *SubmitRequest) Validate() error {
	if r == nil || isEmpty(r.Name) || isEmpty(r.Email) || isEmpty(r.Phone) {
		return dErrors.New(dErrors.CodeValidation, MessageRequiredFields)
	}
	return nil
}

// ToRegistration builds the row to persist. Call Validate first.
func (r *SubmitRequest) ToRegistration() *Registration {
	return &Registration{
		Name:              *r.Name,
		Email:             *r.Email,
		Phone:             *r.Phone,
		ConnectedWith:     r.ConnectedWith,
		SelectedTrainings: JoinTrainings(r.SelectedTrainings),
	}
}

// SubmitResponse is the body for both accepted and rejected submissions.
type SubmitResponse struct {
	Message string `json:"message"`
}

// ListResponse is the admin listing body.
type ListResponse struct {
	Registrations []*Registration `json:"registrations"`
	Count         int             `json:"count"`
}

func isEmpty(s *string) bool {
	return s == nil || *s == ""
}
