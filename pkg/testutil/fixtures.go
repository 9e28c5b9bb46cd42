package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserFixture represents test user data
type UserFixture struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Status       string
	RoleID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoleFixture represents test role data
type RoleFixture struct {
	ID          string
	Name        string
	DisplayName string
	Level       int
	Permissions []string
}

// ProductFixture represents test product data
type ProductFixture struct {
	ID           string
	Name         string
	Quantity     float64
	Unit         string
	ValidityDate time.Time
	ReceiptDate  time.Time
	ReceiptType  string
	CategoryID   *string
	GroupID      *string
	SubgroupID   *string
	DonorID      *string
	SupplierID   *string
	CreatedAt    time.Time
}

// ReferenceFixture represents a reference entry (category, group, donor, ...)
type ReferenceFixture struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

// nextSeq returns the next sequence number for unique values
func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// User creates a user fixture with defaults
func (f *FixtureFactory) User(opts ...func(*UserFixture)) UserFixture {
	seq := f.nextSeq()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)

	user := UserFixture{
		ID:           uuid.New().String(),
		Email:        fmt.Sprintf("user%d@test.smartstock.org", seq),
		PasswordHash: string(hash),
		Name:         fmt.Sprintf("Test User %d", seq),
		Status:       "active",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	for _, opt := range opts {
		opt(&user)
	}

	return user
}

// WithEmail sets the user email
func WithEmail(email string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Email = email
	}
}

// WithUserName sets the user's display name
func WithUserName(name string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Name = name
	}
}

// WithStatus sets the user status
func WithStatus(status string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.Status = status
	}
}

// WithPassword sets the user password (hashed)
func WithPassword(password string) func(*UserFixture) {
	return func(u *UserFixture) {
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		u.PasswordHash = string(hash)
	}
}

// WithRoleID sets the user's role ID
func WithRoleID(roleID string) func(*UserFixture) {
	return func(u *UserFixture) {
		u.RoleID = roleID
	}
}

// Role creates a role fixture with defaults
func (f *FixtureFactory) Role(opts ...func(*RoleFixture)) RoleFixture {
	seq := f.nextSeq()

	role := RoleFixture{
		ID:          uuid.New().String(),
		Name:        fmt.Sprintf("role_%d", seq),
		DisplayName: fmt.Sprintf("Role %d", seq),
		Level:       50,
		Permissions: []string{"inventory.read"},
	}

	for _, opt := range opts {
		opt(&role)
	}

	return role
}

// AdminRole creates an admin role fixture
func (f *FixtureFactory) AdminRole() RoleFixture {
	return RoleFixture{
		ID:          uuid.New().String(),
		Name:        "admin",
		DisplayName: "Administrador",
		Level:       100,
		Permissions: []string{"*"},
	}
}

// OperatorRole creates an operator role fixture
func (f *FixtureFactory) OperatorRole() RoleFixture {
	return RoleFixture{
		ID:          uuid.New().String(),
		Name:        "operator",
		DisplayName: "Operador",
		Level:       50,
		Permissions: []string{"inventory.read", "inventory.write", "reports.read"},
	}
}

// Product creates a product fixture with defaults
func (f *FixtureFactory) Product(opts ...func(*ProductFixture)) ProductFixture {
	seq := f.nextSeq()
	now := time.Now()

	product := ProductFixture{
		ID:           uuid.New().String(),
		Name:         fmt.Sprintf("Produto Teste %d", seq),
		Quantity:     10,
		Unit:         "KG",
		ValidityDate: now.AddDate(0, 6, 0),
		ReceiptDate:  now,
		ReceiptType:  "DONATION",
		CreatedAt:    now,
	}

	for _, opt := range opts {
		opt(&product)
	}

	return product
}

// WithProductName sets the product name
func WithProductName(name string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Name = name
	}
}

// WithQuantity sets the product quantity and unit
func WithQuantity(quantity float64, unit string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.Quantity = quantity
		p.Unit = unit
	}
}

// WithValidityDate sets the product validity date
func WithValidityDate(date time.Time) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.ValidityDate = date
	}
}

// WithReceiptType sets the product receipt type
func WithReceiptType(receiptType string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.ReceiptType = receiptType
	}
}

// WithGroupID sets the product group
func WithGroupID(groupID string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.GroupID = &groupID
	}
}

// WithDonorID sets the product donor
func WithDonorID(donorID string) func(*ProductFixture) {
	return func(p *ProductFixture) {
		p.DonorID = &donorID
	}
}

// Reference creates a reference entry fixture with defaults
func (f *FixtureFactory) Reference(opts ...func(*ReferenceFixture)) ReferenceFixture {
	seq := f.nextSeq()

	ref := ReferenceFixture{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("Referencia %d", seq),
		CreatedAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&ref)
	}

	return ref
}

// WithReferenceName sets the reference entry name
func WithReferenceName(name string) func(*ReferenceFixture) {
	return func(r *ReferenceFixture) {
		r.Name = name
	}
}
