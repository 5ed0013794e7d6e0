// Package auth holds role predicates, login tokens and request authentication.
//
// The role predicates decide what a user is shown and offered. They are not a
// security boundary on their own: every data path that must be protected also
// checks them in the service layer, behind an authenticated session.
package auth

import "github.com/mycelian/nurture-tracker/internal/model"

func IsManager(u model.User) bool { return u.Role == model.RoleManager }

func IsEmployee(u model.User) bool { return u.Role == model.RoleEmployee }

// CanEditDocument allows managers and the document's author.
func CanEditDocument(u model.User, doc model.Document) bool {
	return IsManager(u) || (doc.CreatedBy != "" && doc.CreatedBy == u.ID)
}

// CanViewCustomer allows managers and the employee who added the customer.
func CanViewCustomer(u model.User, c model.Customer) bool {
	return IsManager(u) || (c.OwnerID != "" && c.OwnerID == u.ID)
}

func CanManageUsers(u model.User) bool { return IsManager(u) }

// VisibleCustomers filters list down to what u may see, preserving order.
func VisibleCustomers(u model.User, list []model.Customer) []model.Customer {
	out := make([]model.Customer, 0, len(list))
	for _, c := range list {
		if CanViewCustomer(u, c) {
			out = append(out, c)
		}
	}
	return out
}
