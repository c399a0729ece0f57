package store

import (
	"context"
	"fmt"

	kerrors "github.com/PolarWolf314/instivault/internal/errors"
)

const (
	// IDField is the record field used as the primary key within a collection.
	IDField = "id"

	// OwnerField is the record field holding the owning identity.
	OwnerField = "ownerEmail"
)

// Collections lists the domain collections the dashboard keeps, in export order.
var Collections = []string{
	"students",
	"enquiries",
	"payments",
	"courses",
	"batches",
	"schemes",
	"staff",
	"staffAttendance",
	"attendance",
}

// Record is one opaque domain row. The store only interprets IDField and OwnerField.
type Record map[string]any

// ID returns the record id as a string, or "" if it has none.
func (r Record) ID() string {
	return stringField(r, IDField)
}

// Owner returns the owning identity, or "" if unset.
func (r Record) Owner() string {
	return stringField(r, OwnerField)
}

func stringField(r Record, field string) string {
	switch v := r[field].(type) {
	case string:
		return v
	case nil:
		return ""
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Filter restricts a Select. Owner is required; ID optionally narrows to one record.
type Filter struct {
	Owner string
	ID    string
}

// RecordStore is the contract instivault needs from the dashboard's data store.
// Every operation is scoped to an owner identity.
type RecordStore interface {
	// Select returns the records in collection matching filter, ordered by id.
	Select(ctx context.Context, collection string, filter Filter) ([]Record, error)

	// Insert adds rec to collection. rec must carry OwnerField; a missing id is generated.
	Insert(ctx context.Context, collection string, rec Record) error

	// Update merges patch into the record with id owned by owner.
	// Returns ErrRecordNotFound if no such record exists.
	Update(ctx context.Context, collection, owner, id string, patch Record) error

	// Delete removes the record with id owned by owner.
	// Returns ErrRecordNotFound if no such record exists.
	Delete(ctx context.Context, collection, owner, id string) error

	// Upsert inserts or replaces every record in recs. Each record must carry
	// OwnerField. The write is atomic for the collection.
	Upsert(ctx context.Context, collection string, recs []Record) error
}

func validateCollection(collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: collection name is empty", kerrors.ErrInvalidRecord)
	}
	return nil
}
