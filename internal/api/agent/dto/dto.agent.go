package agentdto

// AgentCreateInput là input để tạo automation agent (ops tạo trước, agent register sau)
type AgentCreateInput struct {
	AgentID      string   `json:"agentId" validate:"required"`
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	AgentVersion string   `json:"agentVersion,omitempty"`
}

// AgentUpdateInput là input để cập nhật automation agent
type AgentUpdateInput struct {
	Name         *string                `json:"name,omitempty"`
	Description  *string                `json:"description,omitempty"`
	Capabilities *[]string              `json:"capabilities,omitempty"`
	AgentVersion *string                `json:"agentVersion,omitempty"`
	Status       *string                `json:"status,omitempty" validate:"omitempty,oneof=online offline draining"`
	HealthStatus *string                `json:"healthStatus,omitempty" validate:"omitempty,oneof=healthy degraded unhealthy"`
	SystemInfo   map[string]interface{} `json:"systemInfo,omitempty"`
	Metrics      map[string]interface{} `json:"metrics,omitempty"`
}

// AgentRegisterInput là input khi agent đăng ký với server (cấp JWT token)
type AgentRegisterInput struct {
	AgentID      string   `json:"agentId" validate:"required"`
	Name         string   `json:"name,omitempty"`
	Description  string   `json:"description,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	AgentVersion string   `json:"agentVersion,omitempty"`
}
