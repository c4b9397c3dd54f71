package calendarRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shutterbook/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// MongoCalendarStore implements CalendarStore using MongoDB.
type MongoCalendarStore struct {
	bookingColl *mongo.Collection
	blockedColl *mongo.Collection
	lockColl    *mongo.Collection
}

// NewMongoCalendarStore constructs a new instance of MongoCalendarStore.
func NewMongoCalendarStore(db *mongo.Database) *MongoCalendarStore {
	return &MongoCalendarStore{
		bookingColl: db.Collection("bookings"),
		blockedColl: db.Collection("blocked"),
		lockColl:    db.Collection("calendar_locks"),
	}
}

func busyFilter(resourceID string, startField, endField string, from, to time.Time) bson.M {
	return bson.M{
		"resource_id": resourceID,
		startField:    bson.M{"$lt": to},
		endField:      bson.M{"$gt": from},
	}
}

// ReadBusyIntervals returns confirmed bookings (buffered) and active blocks overlapping [from, to).
func (repo *MongoCalendarStore) ReadBusyIntervals(ctx context.Context, resourceID string, from, to time.Time) ([]models.BusyInterval, error) {
	bookingFilter := busyFilter(resourceID, "buffered_start", "buffered_end", from, to)
	bookingFilter["status"] = models.BookingConfirmed

	cursor, err := repo.bookingColl.Find(ctx, bookingFilter,
		options.Find().SetProjection(bson.M{"id": 1, "buffered_start": 1, "buffered_end": 1}))
	if err != nil {
		return nil, fmt.Errorf("error fetching booked intervals: %w", err)
	}
	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding booked intervals: %w", err)
	}

	blockFilter := busyFilter(resourceID, "start", "end", from, to)
	blockFilter["removed"] = false
	cursor, err = repo.blockedColl.Find(ctx, blockFilter)
	if err != nil {
		return nil, fmt.Errorf("error fetching blocked intervals: %w", err)
	}
	var blocks []models.Blocked
	if err := cursor.All(ctx, &blocks); err != nil {
		return nil, fmt.Errorf("error decoding blocked intervals: %w", err)
	}

	busy := make([]models.BusyInterval, 0, len(bookings)+len(blocks))
	for _, b := range bookings {
		busy = append(busy, models.BusyInterval{
			Start: b.BufferedStart, End: b.BufferedEnd, ResourceID: resourceID,
			Source: models.BusySourceBooking, SourceID: b.ID,
		})
	}
	for _, bl := range blocks {
		busy = append(busy, models.BusyInterval{
			Start: bl.Start, End: bl.End, ResourceID: resourceID,
			Source: models.BusySourceBlock, SourceID: bl.ID,
		})
	}
	return busy, nil
}

// ReserveIfFree runs the overlap check and the insert in one transaction.
// Every reservation first bumps the resource's lock document, so two
// concurrent reservations on the same resource hit a write conflict and the
// loser is retried by WithTransaction, where it then sees the winner's booking.
func (repo *MongoCalendarStore) ReserveIfFree(ctx context.Context, booking *models.Booking) error {
	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		_, err := repo.lockColl.UpdateOne(sc,
			bson.M{"resource_id": booking.ResourceID},
			bson.M{"$inc": bson.M{"version": 1}, "$set": bson.M{"updated_at": time.Now()}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return nil, fmt.Errorf("lock resource calendar: %w", err)
		}

		bookingFilter := busyFilter(booking.ResourceID, "buffered_start", "buffered_end", booking.BufferedStart, booking.BufferedEnd)
		bookingFilter["status"] = models.BookingConfirmed
		n, err := repo.bookingColl.CountDocuments(sc, bookingFilter, options.Count().SetLimit(1))
		if err != nil {
			return nil, fmt.Errorf("check overlapping bookings: %w", err)
		}
		if n > 0 {
			return nil, ErrReservationConflict
		}

		blockFilter := busyFilter(booking.ResourceID, "start", "end", booking.BufferedStart, booking.BufferedEnd)
		blockFilter["removed"] = false
		n, err = repo.blockedColl.CountDocuments(sc, blockFilter, options.Count().SetLimit(1))
		if err != nil {
			return nil, fmt.Errorf("check overlapping blocks: %w", err)
		}
		if n > 0 {
			return nil, ErrReservationConflict
		}

		stored := *booking
		stored.Status = models.BookingConfirmed
		if _, err := repo.bookingColl.InsertOne(sc, stored); err != nil {
			return nil, fmt.Errorf("insert booking failed: %w", err)
		}
		return nil, nil
	}, txnOpts)
	if err != nil {
		if errors.Is(err, ErrReservationConflict) {
			return ErrReservationConflict
		}
		return fmt.Errorf("booking transaction failed: %w", err)
	}

	booking.Status = models.BookingConfirmed
	return nil
}

func (repo *MongoCalendarStore) MarkConfirmationSent(ctx context.Context, bookingID string) error {
	res, err := repo.bookingColl.UpdateOne(ctx,
		bson.M{"id": bookingID},
		bson.M{"$set": bson.M{"confirmation_email_sent": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark confirmation sent: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoCalendarStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"id": bookingID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking %s: %w", bookingID, err)
	}
	return &booking, nil
}

func (repo *MongoCalendarStore) ListBookingsByUser(ctx context.Context, userID string, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := repo.bookingColl.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings for user %s: %w", userID, err)
	}
	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}

func (repo *MongoCalendarStore) CancelBooking(ctx context.Context, bookingID string, from models.BookingStatus, reason string, at time.Time) error {
	res, err := repo.bookingColl.UpdateOne(ctx,
		bson.M{"id": bookingID, "status": from},
		bson.M{"$set": bson.M{
			"status":        models.BookingCancelled,
			"cancelled_at":  at,
			"cancel_reason": reason,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := repo.bookingColl.CountDocuments(ctx, bson.M{"id": bookingID})
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStaleStatus
}

// CreateBlock takes the same resource lock as ReserveIfFree so that a block
// and a reservation on the same resource cannot interleave.
func (repo *MongoCalendarStore) CreateBlock(ctx context.Context, block *models.Blocked) error {
	client := repo.blockedColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if _, err := repo.lockColl.UpdateOne(sc,
			bson.M{"resource_id": block.ResourceID},
			bson.M{"$inc": bson.M{"version": 1}, "$set": bson.M{"updated_at": time.Now()}},
			options.Update().SetUpsert(true),
		); err != nil {
			return nil, fmt.Errorf("lock resource calendar: %w", err)
		}
		_, err := repo.blockedColl.InsertOne(sc, block)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("error creating block: %w", err)
	}
	return nil
}

func (repo *MongoCalendarStore) RemoveBlock(ctx context.Context, blockID string) error {
	res, err := repo.blockedColl.UpdateOne(ctx,
		bson.M{"id": blockID, "removed": false},
		bson.M{"$set": bson.M{"removed": true}},
	)
	if err != nil {
		return fmt.Errorf("error removing block: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
