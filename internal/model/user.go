package model

import "time"

// Role values stored in users.role.  A "business" user posts bulk
// requests, a "seller" lists products and pledges supply against bulk
// requests, a "customer" browses the catalog.
const (
    RoleBusiness = "business"
    RoleCustomer = "customer"
    RoleSeller   = "seller"
)

// ValidRole reports whether s is one of the known role values.
func ValidRole(s string) bool {
    return s == RoleBusiness || s == RoleCustomer || s == RoleSeller
}

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column.  Handlers define separate
// response types with JSON tags; the password hash must never leave the
// repository layer in a response.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique login name.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – one of business, customer, seller.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Username     string    // users.username
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
