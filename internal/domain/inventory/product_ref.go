package inventory

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kardexhq/backend/internal/domain/shared"
)

// RefKind discriminates what a ProductRef points at.
type RefKind string

const (
	RefKindProduct RefKind = "product"
	RefKindVariant RefKind = "variant"
)

// IsValid checks if the ref kind is one of the known values
func (k RefKind) IsValid() bool {
	return k == RefKindProduct || k == RefKindVariant
}

// ProductRef identifies exactly one of a product or a product variant.
// The zero value is invalid, and construction goes through the factory
// functions, so a ref in circulation always points at exactly one thing —
// the both-set/both-null states of a two-column encoding cannot occur.
type ProductRef struct {
	kind RefKind
	id   uuid.UUID
}

// NewProductRef creates a reference to a product
func NewProductRef(productID uuid.UUID) (ProductRef, error) {
	if productID == uuid.Nil {
		return ProductRef{}, shared.NewDomainError(shared.ErrConstraintViolation.Code, "product id cannot be nil")
	}
	return ProductRef{kind: RefKindProduct, id: productID}, nil
}

// NewVariantRef creates a reference to a product variant
func NewVariantRef(variantID uuid.UUID) (ProductRef, error) {
	if variantID == uuid.Nil {
		return ProductRef{}, shared.NewDomainError(shared.ErrConstraintViolation.Code, "variant id cannot be nil")
	}
	return ProductRef{kind: RefKindVariant, id: variantID}, nil
}

// MustProductRef creates a product reference and panics on error
func MustProductRef(productID uuid.UUID) ProductRef {
	ref, err := NewProductRef(productID)
	if err != nil {
		panic(err)
	}
	return ref
}

// MustVariantRef creates a variant reference and panics on error
func MustVariantRef(variantID uuid.UUID) ProductRef {
	ref, err := NewVariantRef(variantID)
	if err != nil {
		panic(err)
	}
	return ref
}

// ProductRefFromColumns reconstitutes a ProductRef from the two nullable
// columns the storage layer keeps. Exactly one of the ids must be set.
func ProductRefFromColumns(productID, variantID *uuid.UUID) (ProductRef, error) {
	switch {
	case productID != nil && variantID != nil:
		return ProductRef{}, shared.NewDomainError(shared.ErrConstraintViolation.Code, "stock line cannot reference both a product and a variant")
	case productID != nil:
		return NewProductRef(*productID)
	case variantID != nil:
		return NewVariantRef(*variantID)
	default:
		return ProductRef{}, shared.NewDomainError(shared.ErrConstraintViolation.Code, "stock line must reference a product or a variant")
	}
}

// Kind returns what the reference points at
func (r ProductRef) Kind() RefKind {
	return r.kind
}

// ID returns the referenced product or variant id
func (r ProductRef) ID() uuid.UUID {
	return r.id
}

// IsZero reports whether the ref was never constructed
func (r ProductRef) IsZero() bool {
	return r.kind == "" || r.id == uuid.Nil
}

// IsProduct reports whether the ref points at a product
func (r ProductRef) IsProduct() bool {
	return r.kind == RefKindProduct
}

// IsVariant reports whether the ref points at a variant
func (r ProductRef) IsVariant() bool {
	return r.kind == RefKindVariant
}

// Equals compares two refs by kind and id
func (r ProductRef) Equals(other ProductRef) bool {
	return r.kind == other.kind && r.id == other.id
}

// Columns splits the ref back into the two nullable ids used by storage
func (r ProductRef) Columns() (productID, variantID *uuid.UUID) {
	switch r.kind {
	case RefKindProduct:
		id := r.id
		return &id, nil
	case RefKindVariant:
		id := r.id
		return nil, &id
	default:
		return nil, nil
	}
}

// String returns "kind:id"
func (r ProductRef) String() string {
	if r.IsZero() {
		return "unset"
	}
	return fmt.Sprintf("%s:%s", r.kind, r.id)
}

// MarshalJSON implements json.Marshaler
func (r ProductRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind RefKind   `json:"kind"`
		ID   uuid.UUID `json:"id"`
	}{Kind: r.kind, ID: r.id})
}

// UnmarshalJSON implements json.Unmarshaler
func (r *ProductRef) UnmarshalJSON(data []byte) error {
	var v struct {
		Kind RefKind   `json:"kind"`
		ID   uuid.UUID `json:"id"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if !v.Kind.IsValid() {
		return fmt.Errorf("invalid product ref kind %q", v.Kind)
	}
	if v.ID == uuid.Nil {
		return fmt.Errorf("product ref id cannot be nil")
	}
	r.kind = v.Kind
	r.id = v.ID
	return nil
}
