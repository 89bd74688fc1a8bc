// Package models defines the approval domain: rules, requests, decisions, users and the items they govern.
package models

// ItemType tags the kind of business item a change targets.
type ItemType string

const (
	ItemTypeTodo    ItemType = "TODO"
	ItemTypeInvoice ItemType = "INVOICE"
)

// Operation is the mutating action requested against an item.
type Operation string

const (
	OperationCreate Operation = "CREATE"
	OperationUpdate Operation = "UPDATE"
	OperationDelete Operation = "DELETE"
)

func (o Operation) Valid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	default:
		return false
	}
}

// Role is the authorization role held by a user.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	default:
		return false
	}
}
