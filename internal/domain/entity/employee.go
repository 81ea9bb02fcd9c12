package entity

import "time"

// Job title bucket matched by the super-admin role alias
const TitleAdmin = "Admin"

// RoleSuperAdmin is the role name aliased onto the Admin title bucket
const RoleSuperAdmin = "super-admin"

// Employee is one entry of the company directory
type Employee struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	AppRole     string    `json:"app_role"`
	JobTitle    string    `json:"job_title"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Actor returns the employee's identity for approval actions
func (e *Employee) Actor() Actor {
	return Actor{
		ID:          e.ID,
		DisplayName: e.DisplayName,
		AppRole:     e.AppRole,
		JobTitle:    e.JobTitle,
	}
}
