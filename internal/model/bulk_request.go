package model

import "time"

// RequestStatus enumerates the lifecycle of a bulk request.
type RequestStatus string

const (
    RequestOpen            RequestStatus = "open"             // accepting pledges
    RequestPartiallyFilled RequestStatus = "partially_filled" // some quantity pledged
    RequestFullyFilled     RequestStatus = "fully_filled"     // pledged quantity covers the need
    RequestClosed          RequestStatus = "closed"           // manually closed by the buyer
    RequestExpired         RequestStatus = "expired"          // delivery deadline passed
)

// ValidRequestStatus reports whether s names a known request status.
func ValidRequestStatus(s string) bool {
    switch RequestStatus(s) {
    case RequestOpen, RequestPartiallyFilled, RequestFullyFilled, RequestClosed, RequestExpired:
        return true
    }
    return false
}

// PledgeStatus enumerates the lifecycle of a single pledge.
type PledgeStatus string

const (
    PledgePending   PledgeStatus = "pending"   // waiting for the buyer's decision
    PledgeAccepted  PledgeStatus = "accepted"  // buyer accepted the pledge
    PledgeRejected  PledgeStatus = "rejected"  // buyer rejected the pledge
    PledgeFulfilled PledgeStatus = "fulfilled" // delivery confirmed by the buyer
    PledgeCancelled PledgeStatus = "cancelled" // farmer withdrew the pledge
)

// pledgeTransitions is the full set of legal pledge state changes.
// rejected, fulfilled and cancelled are terminal.
var pledgeTransitions = map[PledgeStatus]map[PledgeStatus]bool{
    PledgePending:  {PledgeAccepted: true, PledgeRejected: true, PledgeCancelled: true},
    PledgeAccepted: {PledgeFulfilled: true, PledgeCancelled: true},
}

// CanTransition reports whether a pledge may move from its current
// status to the target status.
func (s PledgeStatus) CanTransition(to PledgeStatus) bool {
    return pledgeTransitions[s][to]
}

// Counted reports whether a pledge in this status contributes its
// quantity to the parent request's quantity_pledged aggregate.  Only
// accepted supply counts; a fulfilled pledge is accepted supply that
// has been delivered, so it keeps counting.
func (s PledgeStatus) Counted() bool {
    return s == PledgeAccepted || s == PledgeFulfilled
}

// DeriveStatus computes the status a bulk request should be in, given
// its quantities, deadline and previously stored status.  The stored
// column is a cache of this function: it is re-evaluated on every read
// and on every pledge-mutating write so the two can never drift.
//
// closed is sticky: it is only entered by explicit buyer action and is
// never overridden.  A fully pledged request stays fully_filled even
// past its deadline.
func DeriveStatus(quantityNeeded, quantityPledged float64, deadline time.Time, stored RequestStatus, now time.Time) RequestStatus {
    if stored == RequestClosed {
        return RequestClosed
    }
    if quantityPledged >= quantityNeeded {
        return RequestFullyFilled
    }
    if now.After(deadline) {
        return RequestExpired
    }
    if quantityPledged > 0 {
        return RequestPartiallyFilled
    }
    return RequestOpen
}

// BulkRequest is a buyer's standing demand for a quantity of a product
// by a deadline.  Mirrors the `bulk_requests` table.  A request
// exclusively owns its pledges; deleting it cascades to them.
//
// Fields:
//  ID                   – primary key identifier.
//  Title                – request title, unique per buyer (exact match).
//  Description          – optional details.
//  ProductName          – name of the product needed.
//  CategoryID           – optional category association.
//  QuantityNeeded       – total quantity requested, must be positive.
//  Unit                 – unit of measurement ("kg", "tons", "pieces").
//  MaxPricePerUnit      – optional price ceiling per unit.
//  TotalBudget          – optional total budget.
//  DeliveryDeadline     – when goods must be delivered by.
//  DeliveryLocation     – where goods must be delivered.
//  DeliveryInstructions – optional special instructions.
//  Status               – cached DeriveStatus result.
//  QuantityPledged      – running sum of counted pledge quantities.
//  BuyerID              – business user who posted the request.
//  CreatedAt            – creation timestamp.
//  UpdatedAt            – last update timestamp.
type BulkRequest struct {
    ID                   uint64        // bulk_requests.id
    Title                string        // bulk_requests.title
    Description          *string       // bulk_requests.description (nullable)
    ProductName          string        // bulk_requests.product_name
    CategoryID           *uint64       // bulk_requests.category_id (nullable)
    QuantityNeeded       float64       // bulk_requests.quantity_needed
    Unit                 string        // bulk_requests.unit
    MaxPricePerUnit      *float64      // bulk_requests.max_price_per_unit (nullable)
    TotalBudget          *float64      // bulk_requests.total_budget (nullable)
    DeliveryDeadline     time.Time     // bulk_requests.delivery_deadline
    DeliveryLocation     string        // bulk_requests.delivery_location
    DeliveryInstructions *string       // bulk_requests.delivery_instructions (nullable)
    Status               RequestStatus // bulk_requests.status
    QuantityPledged      float64       // bulk_requests.quantity_pledged
    BuyerID              uint64        // bulk_requests.buyer_id
    CreatedAt            time.Time     // bulk_requests.created_at
    UpdatedAt            time.Time     // bulk_requests.updated_at
}

// QuantityRemaining returns how much of the requested quantity is still
// unpledged, floored at zero when the request is over-pledged.
func (r *BulkRequest) QuantityRemaining() float64 {
    if rem := r.QuantityNeeded - r.QuantityPledged; rem > 0 {
        return rem
    }
    return 0
}

// IsFullyPledged reports whether counted pledges cover the need.
func (r *BulkRequest) IsFullyPledged() bool {
    return r.QuantityPledged >= r.QuantityNeeded
}

// CurrentStatus re-derives the request status against now without
// mutating the stored value.
func (r *BulkRequest) CurrentStatus(now time.Time) RequestStatus {
    return DeriveStatus(r.QuantityNeeded, r.QuantityPledged, r.DeliveryDeadline, r.Status, now)
}

// BulkRequestPledge is a farmer's offer to supply part of a bulk
// request's quantity.  Mirrors the `bulk_request_pledges` table.
//
// Fields:
//  ID                    – primary key identifier.
//  BulkRequestID         – parent request (cascade-deleted with it).
//  FarmerID              – seller who made the pledge.
//  QuantityPledged       – offered quantity, must be positive.
//  PricePerUnit          – offered price per unit.
//  EstimatedDeliveryDate – when the farmer expects to deliver.
//  DeliveryNotes         – optional notes.
//  Status                – pledge lifecycle state.
//  CreatedAt             – creation timestamp.
//  UpdatedAt             – last update timestamp.
type BulkRequestPledge struct {
    ID                    uint64       // bulk_request_pledges.id
    BulkRequestID         uint64       // bulk_request_pledges.bulk_request_id
    FarmerID              uint64       // bulk_request_pledges.farmer_id
    QuantityPledged       float64      // bulk_request_pledges.quantity_pledged
    PricePerUnit          float64      // bulk_request_pledges.price_per_unit
    EstimatedDeliveryDate time.Time    // bulk_request_pledges.estimated_delivery_date
    DeliveryNotes         *string      // bulk_request_pledges.delivery_notes (nullable)
    Status                PledgeStatus // bulk_request_pledges.status
    CreatedAt             time.Time    // bulk_request_pledges.created_at
    UpdatedAt             time.Time    // bulk_request_pledges.updated_at
}

// TotalAmount is the pledge's quantity times its unit price.
func (p *BulkRequestPledge) TotalAmount() float64 {
    return p.QuantityPledged * p.PricePerUnit
}
