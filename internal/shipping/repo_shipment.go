package shipping

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShipmentRepo struct{ DB *pgxpool.Pool }

func (r *ShipmentRepo) GetByOrder(ctx context.Context, orderID string) (Shipment, error) {
	sql, args, err := psql.Select(
		"id", "order_id", "courier", "service_type", "tracking_number", "status",
		"main_courier", "main_service_type", "alt_courier", "alt_service_type",
		"created_at", "updated_at",
	).From("shipments").Where(sq.Eq{"order_id": orderID}).ToSql()
	if err != nil {
		return Shipment{}, errors.Wrap(err, "build query")
	}

	var (
		s                    Shipment
		altCourier, altSvc   *string
		courierCol, svcCol   *string
		trackingCol          *string
		mainCourier, mainSvc string
	)
	err = r.DB.QueryRow(ctx, sql, args...).Scan(
		&s.ID, &s.OrderID, &courierCol, &svcCol, &trackingCol, &s.Status,
		&mainCourier, &mainSvc, &altCourier, &altSvc,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Shipment{}, &NotFoundError{Resource: "shipment", ID: orderID}
		}
		return Shipment{}, errors.Wrap(err, "get shipment")
	}
	s.Courier = deref(courierCol)
	s.ServiceType = deref(svcCol)
	s.TrackingNumber = deref(trackingCol)
	s.Selection = AdminSelection{Main: CourierSelection{Courier: mainCourier, ServiceType: mainSvc}}
	if altCourier != nil && *altCourier != "" {
		s.Selection.Alternative = &CourierSelection{Courier: *altCourier, ServiceType: deref(altSvc)}
	}
	return s, nil
}

// AssignCouriers upserts the admin's main/alternative pair onto the order's
// shipment. Re-assignment is only possible while the shipment is still DRAFT.
func (r *ShipmentRepo) AssignCouriers(ctx context.Context, orderID string, sel AdminSelection) (string, error) {
	var altCourier, altSvc *string
	if sel.Alternative != nil {
		altCourier = &sel.Alternative.Courier
		altSvc = &sel.Alternative.ServiceType
	}

	id := uuid.NewString()
	ct, err := r.DB.Exec(ctx, `
		INSERT INTO shipments (id, order_id, status, main_courier, main_service_type, alt_courier, alt_service_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (order_id) DO UPDATE
		SET main_courier=$4, main_service_type=$5, alt_courier=$6, alt_service_type=$7, updated_at=now()
		WHERE shipments.status = $3
	`, id, orderID, ShipmentDraft, sel.Main.Courier, sel.Main.ServiceType, altCourier, altSvc)
	if err != nil {
		return "", errors.Wrap(err, "assign couriers")
	}
	if ct.RowsAffected() == 0 {
		return "", &ConflictError{Message: "shipment already booked, selection can no longer change"}
	}

	// the upsert may have kept the existing row's id
	s, err := r.GetByOrder(ctx, orderID)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

// MarkBooked is the compare-and-swap that closes the double-booking race:
// only one caller can move the shipment out of DRAFT.
func (r *ShipmentRepo) MarkBooked(ctx context.Context, shipmentID, courierName, serviceType, trackingNumber string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE shipments
		SET status=$2, courier=$3, service_type=$4, tracking_number=$5, updated_at=now()
		WHERE id=$1 AND status = $6
	`, shipmentID, ShipmentBooked, courierName, serviceType, trackingNumber, ShipmentDraft)
	if err != nil {
		return false, errors.Wrap(err, "mark booked")
	}
	return ct.RowsAffected() == 1, nil
}

// Transition applies a status-machine step with a conditional update.
func (r *ShipmentRepo) Transition(ctx context.Context, shipmentID string, from, to ShipmentStatus) (bool, error) {
	if !CanTransitionShipment(from, to) {
		return false, nil
	}
	ct, err := r.DB.Exec(ctx,
		`UPDATE shipments SET status=$2, updated_at=now() WHERE id=$1 AND status=$3`,
		shipmentID, to, from)
	if err != nil {
		return false, errors.Wrap(err, "transition shipment")
	}
	return ct.RowsAffected() == 1, nil
}
