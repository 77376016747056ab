package workitemdto

// WorkItemCreateInput là input để ops tạo work item thủ công
// (ví dụ phát lại một bước upload bị lỗi). Pipeline tạo work item
// qua service, không đi qua DTO này.
type WorkItemCreateInput struct {
	PipelineID      string                 `json:"pipelineId" validate:"required"`
	SubmissionID    string                 `json:"submissionId" validate:"required" transform:"str_objectid"`
	Phase           string                 `json:"phase" validate:"required,phase"`
	TaskType        string                 `json:"taskType" validate:"required"`
	InputPayload    map[string]interface{} `json:"inputPayload,omitempty"`
	ExpectedOutputs []string               `json:"expectedOutputs,omitempty"`
	Priority        int                    `json:"priority,omitempty" validate:"omitempty,min=0,max=100"`
	Deadline        int64                  `json:"deadline,omitempty"`
}

// WorkItemUpdateInput là input để ops cập nhật work item
type WorkItemUpdateInput struct {
	Status   *string                 `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed failed cancelled"`
	Priority *int                    `json:"priority,omitempty" validate:"omitempty,min=0,max=100"`
	Deadline *int64                  `json:"deadline,omitempty"`
	Result   *map[string]interface{} `json:"result,omitempty"`
	Error    *string                 `json:"error,omitempty"`
}

// WorkItemClaimInput dữ liệu đầu vào khi agent claim pending work items.
// TaskTypes rỗng nghĩa là agent nhận mọi loại task.
type WorkItemClaimInput struct {
	AgentID   string   `json:"agentId" validate:"required"`
	TaskTypes []string `json:"taskTypes,omitempty"`
	Limit     int      `json:"limit,omitempty" validate:"omitempty,min=1,max=100" transform:"int,default=1"`
}

// WorkItemReportInput dữ liệu đầu vào khi agent báo cáo kết quả work item
type WorkItemReportInput struct {
	WorkItemID string                 `json:"workItemId,omitempty"` // Có thể truyền qua URL params :workItemId thay vì body
	AgentID    string                 `json:"agentId" validate:"required"`
	Status     string                 `json:"status" validate:"required,oneof=completed failed"`
	Result     map[string]interface{} `json:"result,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// WorkItemHeartbeatInput dữ liệu đầu vào khi agent update heartbeat/progress
type WorkItemHeartbeatInput struct {
	WorkItemID string                 `json:"workItemId,omitempty"`
	Progress   map[string]interface{} `json:"progress,omitempty"`
}

// WorkItemIDParams params từ URL cho các route thao tác trên một work item
type WorkItemIDParams struct {
	WorkItemID string `uri:"workItemId,omitempty" validate:"omitempty"`
}

// ReleaseStuckQuery query params khi release stuck work items
type ReleaseStuckQuery struct {
	TimeoutSeconds int64 `query:"timeoutSeconds" validate:"omitempty,min=60"`
}
