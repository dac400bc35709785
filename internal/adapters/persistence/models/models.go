package models

import (
	"time"

	"github.com/Taistois/mims/internal/core/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"size:100;not null" json:"name"`
	Email     string      `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Phone     string      `gorm:"size:20" json:"phone"`
	Password  string      `gorm:"size:255;not null" json:"-"`
	Role      domain.Role `gorm:"size:20;not null;index" json:"role"`
	CreatedAt time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// Actor returns the user as an authenticated actor.
func (u *User) Actor() *domain.Actor {
	return &domain.Actor{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Insurance Tables
// ============================================================

// Member represents members table (1:1 with a member-role user)
type Member struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	UserID      uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	NationalID  string     `gorm:"size:50;uniqueIndex;not null" json:"national_id"`
	Address     string     `gorm:"type:text" json:"address"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	User        *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

// Policy represents policies table
type Policy struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	MemberID       uint                `gorm:"index;not null" json:"member_id"`
	PolicyType     string              `gorm:"size:50;not null" json:"policy_type"`
	PremiumAmount  decimal.Decimal     `gorm:"type:decimal(15,2);not null" json:"premium_amount"`
	CoverageAmount decimal.Decimal     `gorm:"type:decimal(15,2);not null" json:"coverage_amount"`
	StartDate      time.Time           `gorm:"not null" json:"start_date"`
	EndDate        time.Time           `gorm:"not null" json:"end_date"`
	Status         domain.PolicyStatus `gorm:"size:20;not null;default:'active'" json:"status"`
	CreatedAt      time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
	Member         *Member             `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Policy) TableName() string {
	return "policies"
}

// Claim represents claims table. MemberID is copied from the policy at creation
// so member-scoped queries need no join.
type Claim struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	PolicyID    uint               `gorm:"index;not null" json:"policy_id"`
	MemberID    uint               `gorm:"index;not null" json:"member_id"`
	Description string             `gorm:"type:text" json:"description"`
	ClaimAmount decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"claim_amount"`
	ClaimType   string             `gorm:"size:50;not null;default:'general'" json:"claim_type"`
	Status      domain.ClaimStatus `gorm:"size:20;not null;index" json:"status"`
	SubmittedAt time.Time          `gorm:"not null;index" json:"submitted_at"`
	UpdatedAt   time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	Policy      *Policy            `gorm:"foreignKey:PolicyID;constraint:OnDelete:CASCADE" json:"-"`
	Member      *Member            `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Claim) TableName() string {
	return "claims"
}

// Loan represents loans table
type Loan struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	MemberID     uint              `gorm:"index;not null" json:"member_id"`
	Amount       decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"amount"`
	InterestRate decimal.Decimal   `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	Duration     int               `gorm:"not null" json:"duration"`
	Status       domain.LoanStatus `gorm:"size:20;not null;index" json:"status"`
	DueDate      time.Time         `gorm:"not null;index" json:"due_date"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
	Member       *Member           `gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Loan) TableName() string {
	return "loans"
}

// Payment represents payments table. Exactly one of ClaimID/LoanID is set,
// matching Kind; use NewClaimPayment / NewLoanRepayment to build one.
type Payment struct {
	ID             uint                 `gorm:"primaryKey" json:"id"`
	Kind           domain.PaymentKind   `gorm:"size:20;not null;index" json:"kind"`
	ClaimID        *uint                `gorm:"index" json:"claim_id,omitempty"`
	LoanID         *uint                `gorm:"index" json:"loan_id,omitempty"`
	MemberID       uint                 `gorm:"index;not null" json:"member_id"`
	Amount         decimal.Decimal      `gorm:"type:decimal(15,2);not null" json:"amount"`
	Method         string               `gorm:"size:50;not null" json:"method"`
	Status         domain.PaymentStatus `gorm:"size:20;not null;index" json:"status"`
	IdempotencyKey *string              `gorm:"size:64;uniqueIndex" json:"idempotency_key,omitempty"`
	PaymentDate    time.Time            `gorm:"not null" json:"payment_date"`
	CreatedAt      time.Time            `gorm:"autoCreateTime" json:"created_at"`
	Claim          *Claim               `gorm:"foreignKey:ClaimID;constraint:OnDelete:CASCADE" json:"-"`
	Loan           *Loan                `gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}

// NewClaimPayment builds a disbursement against a claim.
func NewClaimPayment(claim *Claim, amount decimal.Decimal, method string, status domain.PaymentStatus) *Payment {
	id := claim.ID
	return &Payment{
		Kind:        domain.PaymentKindClaim,
		ClaimID:     &id,
		MemberID:    claim.MemberID,
		Amount:      amount,
		Method:      method,
		Status:      status,
		PaymentDate: time.Now(),
	}
}

// NewLoanRepayment builds a successful repayment against a loan.
func NewLoanRepayment(loan *Loan, amount decimal.Decimal, method string, idempotencyKey string) *Payment {
	id := loan.ID
	p := &Payment{
		Kind:        domain.PaymentKindLoan,
		LoanID:      &id,
		MemberID:    loan.MemberID,
		Amount:      amount,
		Method:      method,
		Status:      domain.PaymentStatusSuccess,
		PaymentDate: time.Now(),
	}
	if idempotencyKey != "" {
		p.IdempotencyKey = &idempotencyKey
	}
	return p
}

// Valid reports whether the foreign keys agree with the kind.
func (p *Payment) Valid() bool {
	switch p.Kind {
	case domain.PaymentKindClaim:
		return p.ClaimID != nil && p.LoanID == nil
	case domain.PaymentKindLoan:
		return p.LoanID != nil && p.ClaimID == nil
	}
	return false
}

// Notification represents notifications table
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Message   string     `gorm:"type:text;not null" json:"message"`
	IsRead    bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Notification) TableName() string {
	return "notifications"
}

// ============================================================
// Migration
// ============================================================

// AutoMigrate runs auto migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Member{},
		&Policy{},
		&Claim{},
		&Loan{},
		&Payment{},
		&Notification{},
	)
}
