package store

import (
	"time"

	"commerce-graph/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TopSellersPipeline ranks sellers by the summed total of their completed
// orders and joins the seller profile.
func TopSellersPipeline(limit int) mongo.Pipeline {
	return rankingPipeline("$seller", UsersCollection, "seller", "totalSales", limit)
}

// TopClientsPipeline ranks clients by the summed total of their completed
// orders and joins the client record.
func TopClientsPipeline(limit int) mongo.Pipeline {
	return rankingPipeline("$client", ClientsCollection, "client", "totalSpent", limit)
}

func rankingPipeline(groupBy, from, as, sumField string, limit int) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "status", Value: models.OrderStatusCompleted}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: groupBy},
			{Key: sumField, Value: bson.D{{Key: "$sum", Value: "$total"}}},
			{Key: "totalOrders", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: from},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: as},
		}}},
		{{Key: "$unwind", Value: "$" + as}},
	}

	if from == UsersCollection {
		pipeline = append(pipeline, bson.D{{Key: "$unset", Value: as + ".password"}})
	}

	return append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: sumField, Value: -1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: as, Value: 1},
			{Key: "totalOrders", Value: 1},
			{Key: sumField, Value: 1},
		}}},
	)
}

// RevenuePipeline sums the total of a seller's completed orders created at
// or after since. A zero since covers all time.
func RevenuePipeline(seller primitive.ObjectID, since time.Time) mongo.Pipeline {
	match := bson.D{
		{Key: "seller", Value: seller},
		{Key: "status", Value: models.OrderStatusCompleted},
	}
	if !since.IsZero() {
		match = append(match, bson.E{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}})
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "revenue", Value: bson.D{{Key: "$sum", Value: "$total"}}},
		}}},
	}
}

// OrderStatusCountsPipeline counts a seller's orders per status
func OrderStatusCountsPipeline(seller primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "seller", Value: seller}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

// StartOfMonth returns midnight on the first day of t's month, in t's location
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
