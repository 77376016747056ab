package agentsvc

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	agentdto "bid_flow/internal/api/agent/dto"
	agentmodels "bid_flow/internal/api/agent/models"
	basesvc "bid_flow/internal/api/base/service"
	"bid_flow/internal/common"
	"bid_flow/internal/global"
	"bid_flow/internal/utility"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AutomationAgentService xử lý logic cho automation agent registry
type AutomationAgentService struct {
	*basesvc.BaseServiceMongoImpl[agentmodels.AutomationAgent]
}

// NewAutomationAgentService tạo mới AutomationAgentService
func NewAutomationAgentService() (*AutomationAgentService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.AutomationAgents)
	if !exist {
		return nil, fmt.Errorf("failed to get automation_agents collection")
	}
	return &AutomationAgentService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[agentmodels.AutomationAgent](collection),
	}, nil
}

// FindOrCreateByAgentID tìm hoặc tạo automation agent theo agentId
func (s *AutomationAgentService) FindOrCreateByAgentID(ctx context.Context, input *agentdto.AgentRegisterInput) (*agentmodels.AutomationAgent, error) {
	filter := bson.M{"agentId": input.AgentID}
	agent, err := s.BaseServiceMongoImpl.FindOne(ctx, filter, nil)
	if err == nil {
		return &agent, nil
	}
	now := time.Now().UnixMilli()
	newAgent := agentmodels.AutomationAgent{
		ID:           primitive.NewObjectID(),
		AgentID:      input.AgentID,
		Name:         input.Name,
		Description:  input.Description,
		Capabilities: input.Capabilities,
		AgentVersion: input.AgentVersion,
		Status:       "offline",
		HealthStatus: "unhealthy",
		FirstSeenAt:  now,
		LastSeenAt:   now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	inserted, err := s.BaseServiceMongoImpl.InsertOne(ctx, newAgent)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	return &inserted, nil
}

// Register đăng ký agent với server và cấp JWT token mới.
// Mỗi lần register cấp lại token - token cũ mất hiệu lực (tra cứu theo field token).
func (s *AutomationAgentService) Register(ctx context.Context, input *agentdto.AgentRegisterInput) (*agentmodels.AutomationAgent, error) {
	agent, err := s.FindOrCreateByAgentID(ctx, input)
	if err != nil {
		return nil, err
	}

	// Agent bị khóa thì không cấp token
	if agent.IsBlock {
		return nil, common.NewError(
			common.ErrCodeAuthAgent,
			"Agent đã bị khóa: "+agent.BlockNote,
			common.StatusForbidden,
			nil,
		)
	}

	// Cấp JWT token mới
	now := time.Now().UnixMilli()
	rdNumber := rand.Intn(100_000)
	tokenMap, err := utility.CreateToken(global.MongoDB_ServerConfig.JwtSecret, agent.AgentID, strconv.FormatInt(now, 16), strconv.Itoa(rdNumber))
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeInternalServer,
			"Không thể tạo token cho agent",
			common.StatusInternalServerError,
			err,
		)
	}

	updateData := &basesvc.UpdateData{
		Set: map[string]interface{}{
			"token":      tokenMap["token"],
			"status":     "online",
			"lastSeenAt": now,
		},
	}
	if input.Name != "" {
		updateData.Set["name"] = input.Name
	}
	if input.Description != "" {
		updateData.Set["description"] = input.Description
	}
	if len(input.Capabilities) > 0 {
		updateData.Set["capabilities"] = input.Capabilities
	}
	if input.AgentVersion != "" {
		updateData.Set["agentVersion"] = input.AgentVersion
	}

	updated, err := s.BaseServiceMongoImpl.UpdateById(ctx, agent.ID, updateData)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// HandleCheckIn xử lý check-in định kỳ từ agent: cập nhật status, health, metrics.
// Trả về response gồm serverTime để agent đồng bộ thời gian.
func (s *AutomationAgentService) HandleCheckIn(ctx context.Context, agentId string, checkInData map[string]interface{}) (map[string]interface{}, error) {
	agent, err := s.BaseServiceMongoImpl.FindOne(ctx, bson.M{"agentId": agentId}, nil)
	if err != nil {
		return nil, common.ErrAgentUnknown
	}

	now := time.Now().UnixMilli()
	update := bson.M{
		"$set": bson.M{
			"status":        getString(checkInData, "status", "online"),
			"healthStatus":  getString(checkInData, "healthStatus", agent.HealthStatus),
			"lastCheckInAt": now,
			"lastSeenAt":    now,
			"updatedAt":     now,
		},
	}
	if systemInfo := getMap(checkInData, "systemInfo"); systemInfo != nil {
		update["$set"].(bson.M)["systemInfo"] = systemInfo
	}
	if metrics := getMap(checkInData, "metrics"); metrics != nil {
		update["$set"].(bson.M)["metrics"] = metrics
	}
	if agentVersion := getString(checkInData, "agentVersion", ""); agentVersion != "" {
		update["$set"].(bson.M)["agentVersion"] = agentVersion
	}

	_, err = s.BaseServiceMongoImpl.UpdateOne(ctx, bson.M{"_id": agent.ID}, update, nil)
	if err != nil {
		return nil, err
	}

	response := map[string]interface{}{
		"agentId":    agentId,
		"serverTime": now,
	}
	return response, nil
}

// MarkOffline đánh dấu agent offline (gọi khi agent gửi shutdown hoặc hết heartbeat).
func (s *AutomationAgentService) MarkOffline(ctx context.Context, agentId string) error {
	now := time.Now().UnixMilli()
	update := bson.M{
		"$set": bson.M{
			"status":     "offline",
			"lastSeenAt": now,
			"updatedAt":  now,
		},
	}
	_, err := s.BaseServiceMongoImpl.UpdateOne(ctx, bson.M{"agentId": agentId}, update, nil)
	return err
}

func getString(m map[string]interface{}, key string, defaultValue string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return nil
}
