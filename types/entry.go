package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind distinguishes the two expense-entry variants handled by Backlot.
type EntryKind string

const (
	EntryKindMileage   EntryKind = "MILEAGE"
	EntryKindKitRental EntryKind = "KIT_RENTAL"
)

func (k EntryKind) IsValid() bool {
	switch k {
	case EntryKindMileage, EntryKindKitRental:
		return true
	default:
		return false
	}
}

// InitialStatus returns the status a freshly created entry of this kind
// starts in. Mileage entries begin as drafts; kit rentals have no draft
// stage and go straight to pending.
func (k EntryKind) InitialStatus() EntryStatus {
	if k == EntryKindKitRental {
		return EntryStatusPending
	}
	return EntryStatusDraft
}

type EntryStatus string

const (
	EntryStatusDraft      EntryStatus = "DRAFT"      // Mileage only, not yet submitted
	EntryStatusPending    EntryStatus = "PENDING"    // Awaiting approver decision
	EntryStatusApproved   EntryStatus = "APPROVED"   // Mileage only
	EntryStatusActive     EntryStatus = "ACTIVE"     // Kit rental in progress
	EntryStatusCompleted  EntryStatus = "COMPLETED"  // Kit rental returned
	EntryStatusRejected   EntryStatus = "REJECTED"   // Terminal
	EntryStatusReimbursed EntryStatus = "REIMBURSED" // Terminal
)

func (s EntryStatus) String() string {
	return string(s)
}

func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusDraft, EntryStatusPending, EntryStatusApproved,
		EntryStatusActive, EntryStatusCompleted, EntryStatusRejected,
		EntryStatusReimbursed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are defined out of s.
func (s EntryStatus) IsTerminal() bool {
	return s == EntryStatusRejected || s == EntryStatusReimbursed
}

// IsEditable reports whether the owning user may still edit or delete an
// entry in this status. Once an approver has acted, the entry is locked.
func (s EntryStatus) IsEditable() bool {
	return s == EntryStatusDraft || s == EntryStatusPending
}

// IsValidTransition checks whether an entry of the given kind may move from
// s to newStatus. The two kinds share the pending/rejected/reimbursed core
// but differ in the pre- and post-approval phases.
func (s EntryStatus) IsValidTransition(kind EntryKind, newStatus EntryStatus) bool {
	var transitions map[EntryStatus][]EntryStatus
	switch kind {
	case EntryKindMileage:
		transitions = map[EntryStatus][]EntryStatus{
			EntryStatusDraft:      {EntryStatusPending},
			EntryStatusPending:    {EntryStatusApproved, EntryStatusRejected},
			EntryStatusApproved:   {EntryStatusReimbursed},
			EntryStatusRejected:   {}, // Terminal
			EntryStatusReimbursed: {}, // Terminal
		}
	case EntryKindKitRental:
		transitions = map[EntryStatus][]EntryStatus{
			EntryStatusPending:    {EntryStatusActive, EntryStatusRejected},
			EntryStatusActive:     {EntryStatusCompleted},
			EntryStatusCompleted:  {EntryStatusReimbursed},
			EntryStatusRejected:   {}, // Terminal
			EntryStatusReimbursed: {}, // Terminal
		}
	default:
		return false
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}
	for _, next := range allowed {
		if next == newStatus {
			return true
		}
	}
	return false
}

// RentalRateType selects how a kit rental's total is derived.
type RentalRateType string

const (
	RentalRateFlat   RentalRateType = "FLAT"
	RentalRateDaily  RentalRateType = "DAILY"
	RentalRateWeekly RentalRateType = "WEEKLY"
)

func (r RentalRateType) IsValid() bool {
	switch r {
	case RentalRateFlat, RentalRateDaily, RentalRateWeekly:
		return true
	default:
		return false
	}
}

// ExpenseEntry is a single declared expense (mileage trip or kit rental)
// owned by one crew member within one project. TotalAmount is always derived
// from the amount fields server-side; client-supplied totals are ignored.
type ExpenseEntry struct {
	ID              string          `json:"id"`
	ProjectID       string          `json:"projectId"`
	OwnerUserID     string          `json:"ownerUserId"`
	Kind            EntryKind       `json:"kind"`
	Status          EntryStatus     `json:"status"`
	Description     string          `json:"description"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Currency        string          `json:"currency"`

	// Mileage fields
	TravelDate   *time.Time      `json:"travelDate,omitempty"`
	StartAddress string          `json:"startAddress,omitempty"`
	EndAddress   string          `json:"endAddress,omitempty"`
	Miles        decimal.Decimal `json:"miles,omitempty"`
	RatePerMile  decimal.Decimal `json:"ratePerMile,omitempty"`
	IsRoundTrip  bool            `json:"isRoundTrip,omitempty"`

	// Kit rental fields
	KitName     string          `json:"kitName,omitempty"`
	RentalType  RentalRateType  `json:"rentalType,omitempty"`
	FlatAmount  decimal.Decimal `json:"flatAmount,omitempty"`
	DailyRate   decimal.Decimal `json:"dailyRate,omitempty"`
	WeeklyRate  decimal.Decimal `json:"weeklyRate,omitempty"`
	RentalStart *time.Time      `json:"rentalStart,omitempty"`
	RentalEnd   *time.Time      `json:"rentalEnd,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateEntryParams carries the client-settable fields for a new entry.
// ID, status and total are assigned server-side.
type CreateEntryParams struct {
	ProjectID   string    `json:"projectId"`
	OwnerUserID string    `json:"ownerUserId"`
	Kind        EntryKind `json:"kind" binding:"required"`
	Description string    `json:"description"`
	Currency    string    `json:"currency"`

	TravelDate   *time.Time      `json:"travelDate,omitempty"`
	StartAddress string          `json:"startAddress,omitempty"`
	EndAddress   string          `json:"endAddress,omitempty"`
	Miles        decimal.Decimal `json:"miles,omitempty"`
	RatePerMile  decimal.Decimal `json:"ratePerMile,omitempty"`
	IsRoundTrip  bool            `json:"isRoundTrip,omitempty"`

	KitName     string          `json:"kitName,omitempty"`
	RentalType  RentalRateType  `json:"rentalType,omitempty"`
	FlatAmount  decimal.Decimal `json:"flatAmount,omitempty"`
	DailyRate   decimal.Decimal `json:"dailyRate,omitempty"`
	WeeklyRate  decimal.Decimal `json:"weeklyRate,omitempty"`
	RentalStart *time.Time      `json:"rentalStart,omitempty"`
	RentalEnd   *time.Time      `json:"rentalEnd,omitempty"`
}

// UpdateEntryParams carries partial updates; nil fields are left untouched.
// Only legal while the entry is still editable (draft or pending).
type UpdateEntryParams struct {
	Description *string `json:"description,omitempty"`

	TravelDate   *time.Time       `json:"travelDate,omitempty"`
	StartAddress *string          `json:"startAddress,omitempty"`
	EndAddress   *string          `json:"endAddress,omitempty"`
	Miles        *decimal.Decimal `json:"miles,omitempty"`
	RatePerMile  *decimal.Decimal `json:"ratePerMile,omitempty"`
	IsRoundTrip  *bool            `json:"isRoundTrip,omitempty"`

	KitName     *string          `json:"kitName,omitempty"`
	RentalType  *RentalRateType  `json:"rentalType,omitempty"`
	FlatAmount  *decimal.Decimal `json:"flatAmount,omitempty"`
	DailyRate   *decimal.Decimal `json:"dailyRate,omitempty"`
	WeeklyRate  *decimal.Decimal `json:"weeklyRate,omitempty"`
	RentalStart *time.Time       `json:"rentalStart,omitempty"`
	RentalEnd   *time.Time       `json:"rentalEnd,omitempty"`
}

// EntryFilter narrows a list query. Zero values mean "all".
type EntryFilter struct {
	Kind   EntryKind   `json:"kind,omitempty"`
	Status EntryStatus `json:"status,omitempty"`
}

// StatusTotal is one row of the per-status summary rendered above entry lists.
type StatusTotal struct {
	Status EntryStatus     `json:"status"`
	Count  int             `json:"count"`
	Total  decimal.Decimal `json:"total"`
}

// EntrySummary aggregates a project's entry collection for one kind.
// It is always re-derived from the latest fetched collection.
type EntrySummary struct {
	Totals          []StatusTotal   `json:"totals"`
	DraftReadyCount int             `json:"draftReadyCount"`
	GrandTotal      decimal.Decimal `json:"grandTotal"`
}
