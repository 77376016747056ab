// Package database - Index bổ sung cho pipeline (compound với sort order hỗn hợp)
// không thể định nghĩa qua model tags.
package database

import (
	"context"
	"strings"

	"bid_flow/internal/global"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreatePipelineAdditionalIndexes tạo các index bổ sung cho pipeline và work items.
// Gọi sau CreateIndexes cho từng collection.
func CreatePipelineAdditionalIndexes(ctx context.Context, db *mongo.Database) error {
	// work_items: (status, priority desc, createdAt asc) — agent claim scan
	workItems := db.Collection(global.MongoDB_ColNames.WorkItems)
	if _, err := workItems.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "priority", Value: -1},
			{Key: "createdAt", Value: 1},
		},
		Options: options.Index().SetName("work_item_claim_scan"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// work_items: (pipelineId, status) — monitor reconciliation theo phase
	if _, err := workItems.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "pipelineId", Value: 1},
			{Key: "status", Value: 1},
		},
		Options: options.Index().SetName("work_item_pipeline_status"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// submission_events: (pipelineId, createdAt asc) — timeline của pipeline
	events := db.Collection(global.MongoDB_ColNames.SubmissionEvents)
	if _, err := events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "pipelineId", Value: 1},
			{Key: "createdAt", Value: 1},
		},
		Options: options.Index().SetName("submission_event_timeline"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// submission_pipelines: (status, updatedAt asc) — reaper scan pipeline mồ côi
	pipelines := db.Collection(global.MongoDB_ColNames.SubmissionPipelines)
	if _, err := pipelines.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "updatedAt", Value: 1},
		},
		Options: options.Index().SetName("pipeline_reaper_scan"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	// notification_queue: (status, nextRetryAt asc) — processor dequeue
	notifications := db.Collection(global.MongoDB_ColNames.NotificationQueue)
	if _, err := notifications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "nextRetryAt", Value: 1},
		},
		Options: options.Index().SetName("notification_dequeue"),
	}); err != nil && !isIndexExistsError(err) {
		return err
	}

	return nil
}

func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "already exists") || strings.Contains(s, "duplicate")
}
