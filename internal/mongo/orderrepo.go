package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cafetab/cafetab/internal/billing"
	"github.com/cafetab/cafetab/internal/order"
)

type OrderRepo struct {
	collection *mongo.Collection
}

func NewOrderRepo(db *mongo.Database) *OrderRepo {
	return &OrderRepo{
		collection: db.Collection("orders"),
	}
}

func (r *OrderRepo) EnsureIndexes(ctx context.Context) error {
	numberIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "order_number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, numberIndexModel); err != nil {
		return fmt.Errorf("cannot create order_number index: %w", err)
	}

	// Sparse so orders submitted without a request id stay out of the
	// uniqueness constraint.
	requestIndexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "request_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, requestIndexModel); err != nil {
		return fmt.Errorf("cannot create request_id index: %w", err)
	}

	tableIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "table_id", Value: 1}, {Key: "billing_period_id", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, tableIndexModel); err != nil {
		return fmt.Errorf("cannot create table_id index: %w", err)
	}

	periodIndexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "billing_period_id", Value: 1}, {Key: "status", Value: 1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, periodIndexModel); err != nil {
		return fmt.Errorf("cannot create billing_period_id index: %w", err)
	}

	return nil
}

func (r *OrderRepo) Create(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	if _, err := r.collection.InsertOne(ctx, o); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("cannot create order: %w", order.ErrDuplicateKey)
		}
		return fmt.Errorf("cannot create order: %w", err)
	}

	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) GetByRequestID(ctx context.Context, requestID string) (*order.Order, error) {
	var o order.Order
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&o)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot get order by request id: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) Save(ctx context.Context, o *order.Order) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}

	filter := bson.M{"_id": o.ID}
	update := bson.M{"$set": o}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("cannot update order: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("order not found")
	}

	return nil
}

func (r *OrderRepo) ListByTableAndPeriod(ctx context.Context, tableID, periodID uuid.UUID) ([]*order.Order, error) {
	filter := bson.M{"table_id": tableID, "billing_period_id": periodID}
	return r.list(ctx, filter)
}

func (r *OrderRepo) ListByPeriod(ctx context.Context, periodID uuid.UUID) ([]*order.Order, error) {
	return r.list(ctx, bson.M{"billing_period_id": periodID})
}

func (r *OrderRepo) ListByPeriodAndStatuses(ctx context.Context, periodID uuid.UUID, statuses []string) ([]*order.Order, error) {
	filter := bson.M{
		"billing_period_id": periodID,
		"status":            bson.M{"$in": statuses},
	}
	return r.list(ctx, filter)
}

func (r *OrderRepo) ListByPeriodSince(ctx context.Context, periodID uuid.UUID, since time.Time) ([]*order.Order, error) {
	filter := bson.M{
		"billing_period_id": periodID,
		"created_at":        bson.M{"$gte": since},
	}
	return r.list(ctx, filter)
}

func (r *OrderRepo) list(ctx context.Context, filter bson.M) ([]*order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*order.Order
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("cannot decode orders: %w", err)
	}

	return result, nil
}

func (r *OrderRepo) CountNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	filter := bson.M{"order_number": primitive.Regex{Pattern: "^" + prefix}}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("cannot count orders by number prefix: %w", err)
	}
	return count, nil
}

func (r *OrderRepo) NumberExists(ctx context.Context, number string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"order_number": number})
	if err != nil {
		return false, fmt.Errorf("cannot check order number: %w", err)
	}
	return count > 0, nil
}

func (r *OrderRepo) CountByPeriodAndStatuses(ctx context.Context, periodID uuid.UUID, statuses []string) (int64, error) {
	return r.count(ctx, bson.M{
		"billing_period_id": periodID,
		"status":            bson.M{"$in": statuses},
	})
}

func (r *OrderRepo) CountByPeriodSince(ctx context.Context, periodID uuid.UUID, since time.Time) (int64, error) {
	return r.count(ctx, bson.M{
		"billing_period_id": periodID,
		"created_at":        bson.M{"$gte": since},
	})
}

func (r *OrderRepo) CountByPeriodStatusesSince(ctx context.Context, periodID uuid.UUID, statuses []string, since time.Time) (int64, error) {
	return r.count(ctx, bson.M{
		"billing_period_id": periodID,
		"status":            bson.M{"$in": statuses},
		"created_at":        bson.M{"$gte": since},
	})
}

func (r *OrderRepo) count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("cannot count orders: %w", err)
	}
	return count, nil
}

// TotalsForPeriod sums every order referencing the period, regardless of
// status. Reconciling cancellations against the tab is a staff decision, not
// an aggregation rule.
func (r *OrderRepo) TotalsForPeriod(ctx context.Context, periodID uuid.UUID) (float64, int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"billing_period_id": periodID,
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$total_amount"},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot aggregate period totals: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
		Count int     `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, fmt.Errorf("cannot decode period totals: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Total, rows[0].Count, nil
}

// OrdersForPeriod lists all of the period's orders in reporting shape for the
// detailed bill. Each entry carries its status, so a cancelled order is
// visible as such on the printout.
func (r *OrderRepo) OrdersForPeriod(ctx context.Context, periodID uuid.UUID) ([]billing.BillOrder, error) {
	orders, err := r.list(ctx, bson.M{"billing_period_id": periodID})
	if err != nil {
		return nil, err
	}

	result := make([]billing.BillOrder, 0, len(orders))
	for _, o := range orders {
		bo := billing.BillOrder{
			ID:           o.ID,
			OrderNumber:  o.OrderNumber,
			CustomerName: o.CustomerName,
			TableNumber:  o.TableNumber,
			TotalAmount:  o.TotalAmount,
			Status:       o.Status,
			CreatedAt:    o.CreatedAt.Format(time.RFC3339),
		}
		for _, line := range o.Lines {
			bo.Lines = append(bo.Lines, billing.BillLine{
				Name:     line.Name,
				Price:    line.Price,
				Quantity: line.Quantity,
				Subtotal: line.Subtotal(),
			})
		}
		result = append(result, bo)
	}
	return result, nil
}
