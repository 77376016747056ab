package database

import (
	"context"
	"fmt"
	"time"

	"bid_flow/config"
	"bid_flow/internal/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetInstance opens a MongoDB client using the connection URI from the
// configuration and verifies it with a ping before handing it back.
//
// Parameters:
// - c: Application configuration carrying MongoDB_ConnectionURI.
//
// Returns:
// - *mongo.Client: A client that already answered a ping.
//
// Notes:
// - Connect and ping each run under their own timeout.
func GetInstance(c *config.Configuration) (*mongo.Client, error) {
	if c.MongoDB_ConnectionURI == "" {
		return nil, fmt.Errorf("database connection URL is empty")
	}

	// Pool và timeout chỉnh ở đây, URI chỉ mang địa chỉ
	clientOptions := options.Client().ApplyURI(c.MongoDB_ConnectionURI).
		SetMaxPoolSize(50).                 // Trần 50 connection
		SetMinPoolSize(10).                 // Pool giữ sẵn tối thiểu 10
		SetConnectTimeout(5 * time.Second). // Quá 5s chưa bắt tay xong là lỗi
		SetSocketTimeout(10 * time.Second)  // Trần chờ đọc ghi socket

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping ngắn để chắc server trả lời thật chứ không chỉ mở được socket
	ctxPing, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelPing()

	err = client.Ping(ctxPing, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.GetAppLogger().Info("Successfully connected to MongoDB")
	return client, nil
}

// CloseInstance disconnects the client and logs the outcome.
func CloseInstance(client *mongo.Client) error {
	if err := client.Disconnect(context.TODO()); err != nil {
		logger.GetAppLogger().WithError(err).Error("Failed to disconnect MongoDB client")
		return err
	}
	logger.GetAppLogger().Info("Successfully disconnected from MongoDB")
	return nil
}
