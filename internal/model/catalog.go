package model

import "time"

// Category groups products and, optionally, bulk requests.  Mirrors the
// `categories` table.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – category name.
//  Description – optional free-text description.
//  IsActive    – whether the category is usable for new products.
type Category struct {
    ID          uint64  // categories.id
    Name        string  // categories.name
    Description *string // categories.description (nullable)
    IsActive    bool    // categories.is_active
}

// Product is a sell-side listing owned by exactly one seller.  Mirrors
// the `products` table.  A product may be associated with a category but
// is not owned by it; deleting a product never touches the category.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – product name, unique per owner (exact match).
//  Description – optional free-text description.
//  Price       – unit price, must be positive.
//  PhotoURL    – optional photo reference.
//  IsActive    – listing visibility flag.
//  CategoryID  – optional category association.
//  OwnerID     – seller who owns the listing.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Product struct {
    ID          uint64    // products.id
    Name        string    // products.name
    Description *string   // products.description (nullable)
    Price       float64   // products.price
    PhotoURL    *string   // products.photo_url (nullable)
    IsActive    bool      // products.is_active
    CategoryID  *uint64   // products.category_id (nullable)
    OwnerID     uint64    // products.owner_id
    CreatedAt   time.Time // products.created_at
    UpdatedAt   time.Time // products.updated_at
}
