package checkout

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/stockplace/stockplace-backend/pkg/errors"
)

// Metadata keys attached to checkout sessions. The webhook dispatcher routes
// on their presence, so both sides must agree on them exactly.
const (
	MetaStorageID       = "storageId"
	MetaSpaceToRent     = "spaceToRent"
	MetaStartDate       = "startDate"
	MetaEndDate         = "endDate"
	MetaRenterID        = "renterId"
	MetaProductID       = "productId"
	MetaQuantity        = "quantity"
	MetaUnitPriceCents  = "unitPriceCents"
	MetaBuyerID         = "buyerId"
	MetaSellerID        = "sellerId"
	MetaTotalPriceCents = "totalPriceCents"
)

const metaDateLayout = "2006-01-02"

// RentalMetadata is the decoded rental payload of a completed session.
type RentalMetadata struct {
	StorageSpaceID  uuid.UUID
	SpaceToRent     int
	StartDate       time.Time
	EndDate         time.Time
	RenterID        uuid.UUID
	TotalPriceCents int64
}

// OrderMetadata is the decoded purchase payload of a completed session.
type OrderMetadata struct {
	StorageSpaceID  uuid.UUID
	ProductID       uuid.UUID
	Quantity        int
	UnitPriceCents  int
	BuyerID         uuid.UUID
	SellerID        uuid.UUID
	TotalPriceCents int64
}

// ParseRentalMetadata decodes the rental keys from session metadata.
func ParseRentalMetadata(meta map[string]string) (RentalMetadata, error) {
	var out RentalMetadata
	var err error

	if out.StorageSpaceID, err = metaUUID(meta, MetaStorageID); err != nil {
		return out, err
	}
	if out.RenterID, err = metaUUID(meta, MetaRenterID); err != nil {
		return out, err
	}
	if out.SpaceToRent, err = metaInt(meta, MetaSpaceToRent); err != nil {
		return out, err
	}
	if out.StartDate, err = metaDate(meta, MetaStartDate); err != nil {
		return out, err
	}
	if out.EndDate, err = metaDate(meta, MetaEndDate); err != nil {
		return out, err
	}
	if out.TotalPriceCents, err = metaInt64(meta, MetaTotalPriceCents); err != nil {
		return out, err
	}
	return out, nil
}

// ParseOrderMetadata decodes the purchase keys from session metadata.
func ParseOrderMetadata(meta map[string]string) (OrderMetadata, error) {
	var out OrderMetadata
	var err error

	if out.StorageSpaceID, err = metaUUID(meta, MetaStorageID); err != nil {
		return out, err
	}
	if out.ProductID, err = metaUUID(meta, MetaProductID); err != nil {
		return out, err
	}
	if out.BuyerID, err = metaUUID(meta, MetaBuyerID); err != nil {
		return out, err
	}
	if out.SellerID, err = metaUUID(meta, MetaSellerID); err != nil {
		return out, err
	}
	if out.Quantity, err = metaInt(meta, MetaQuantity); err != nil {
		return out, err
	}
	if out.UnitPriceCents, err = metaInt(meta, MetaUnitPriceCents); err != nil {
		return out, err
	}
	if out.TotalPriceCents, err = metaInt64(meta, MetaTotalPriceCents); err != nil {
		return out, err
	}
	return out, nil
}

func metaUUID(meta map[string]string, key string) (uuid.UUID, error) {
	raw, ok := meta[key]
	if !ok || raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "metadata key "+key+" missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "metadata key "+key+" invalid")
	}
	return id, nil
}

func metaInt(meta map[string]string, key string) (int, error) {
	v, err := metaInt64(meta, key)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func metaInt64(meta map[string]string, key string) (int64, error) {
	raw, ok := meta[key]
	if !ok || raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "metadata key "+key+" missing")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "metadata key "+key+" invalid")
	}
	if v <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "metadata key "+key+" must be positive")
	}
	return v, nil
}

func metaDate(meta map[string]string, key string) (time.Time, error) {
	raw, ok := meta[key]
	if !ok || raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "metadata key "+key+" missing")
	}
	d, err := time.ParseInLocation(metaDateLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "metadata key "+key+" invalid")
	}
	return d, nil
}
