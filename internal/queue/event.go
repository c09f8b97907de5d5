// Package queue defines message payloads exchanged over the message broker.
package queue

// PledgeAcceptedEvent is published when a buyer accepts a farmer's pledge.
// It carries enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type PledgeAcceptedEvent struct {
	PledgeID        uint64  `json:"pledge_id"`
	BulkRequestID   uint64  `json:"bulk_request_id"`
	BuyerID         uint64  `json:"buyer_id"`
	FarmerID        uint64  `json:"farmer_id"`
	ProductName     string  `json:"product_name"`
	Unit            string  `json:"unit"`
	QuantityPledged float64 `json:"quantity_pledged"`
	PricePerUnit    float64 `json:"price_per_unit"`
	TotalAmount     float64 `json:"total_amount"`
	RequestStatus   string  `json:"request_status"`
	AcceptedAt      string  `json:"accepted_at"`
}
