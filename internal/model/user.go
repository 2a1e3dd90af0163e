package model

import "time"

// Roles stored in users.role.  Guests book and manage their own stays;
// staff run the front desk (confirm, check in, check out, cancel any
// stay).
const (
    RoleGuest = "GUEST"
    RoleStaff = "STAFF"
)

// User represents an account as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  FullName     – display name used on reservations.
//  PasswordHash – bcrypt hashed password.
//  Role         – GUEST or STAFF.
//  IsActive     – whether the account may sign in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    FullName     string    // users.full_name
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
