// Package pipeline là orchestrator của submission pipeline: máy trạng thái
// phase, phân loại lỗi retry, registry pipeline active và completion monitor.
// Mỗi pipeline đưa một proposal hoàn chỉnh đi qua chuỗi phase tự động hóa
// cố định (preflight → authenticating → filling → uploading → submitting →
// verifying) do các automation agent bên ngoài thực thi qua work items.
package pipeline

import (
	"time"

	workitemmodels "bid_flow/internal/api/workitem/models"
)

// Tên các phase theo thứ tự chuẩn. failed không phải phase mà là status
// của pipeline; currentPhase giữ nguyên phase đang lỗi khi status = failed.
const (
	PhaseQueued         = "queued"
	PhasePreflight      = "preflight"
	PhaseAuthenticating = "authenticating"
	PhaseFilling        = "filling"
	PhaseUploading      = "uploading"
	PhaseSubmitting     = "submitting"
	PhaseVerifying      = "verifying"
	PhaseCompleted      = "completed"
)

// PhaseSpec mô tả một phase của pipeline: checkpoint progress khi bắt đầu,
// loại work item phát ra, các key agent phải trả về, timeout tuyệt đối và
// thời lượng dự kiến (để tính estimatedCompletion).
type PhaseSpec struct {
	Name            string
	Baseline        int           // Progress khi vào phase
	TaskType        string        // Loại work item, rỗng với queued/completed
	ExpectedOutputs []string      // Các key bắt buộc trong result của agent
	Timeout         time.Duration // Hạn tuyệt đối trước khi phase bị coi là timed out
	Budget          time.Duration // Thời lượng dự kiến của phase
	NextStep        string        // Mô tả bước này cho người dùng
}

// phaseOrder là thứ tự chuẩn của các phase. Pipeline chỉ đi tiến qua danh
// sách này; quay lại duy nhất trường hợp retry cùng phase.
var phaseOrder = []PhaseSpec{
	{
		Name:     PhaseQueued,
		Baseline: 0,
		NextStep: "Pipeline đã vào hàng đợi, chuẩn bị kiểm tra preflight",
	},
	{
		Name:            PhasePreflight,
		Baseline:        10,
		TaskType:        workitemmodels.TaskTypePreflightCheck,
		ExpectedOutputs: []string{"requirementsValidated", "fieldMappings", "documentChecklist"},
		Timeout:         15 * time.Minute,
		Budget:          2 * time.Minute,
		NextStep:        "Kiểm tra yêu cầu của portal, ánh xạ form fields và lập checklist tài liệu",
	},
	{
		Name:            PhaseAuthenticating,
		Baseline:        25,
		TaskType:        workitemmodels.TaskTypePortalAuthentication,
		ExpectedOutputs: []string{"sessionHandle", "authenticatedAt"},
		Timeout:         5 * time.Minute,
		Budget:          3 * time.Minute,
		NextStep:        "Đăng nhập portal (bao gồm bước MFA nếu có) và thiết lập phiên làm việc",
	},
	{
		Name:            PhaseFilling,
		Baseline:        45,
		TaskType:        workitemmodels.TaskTypeFormFilling,
		ExpectedOutputs: []string{"formsFilled", "fieldsPopulated"},
		Timeout:         15 * time.Minute,
		Budget:          5 * time.Minute,
		NextStep:        "Điền nội dung proposal vào các form nộp thầu trên portal",
	},
	{
		Name:            PhaseUploading,
		Baseline:        65,
		TaskType:        workitemmodels.TaskTypeDocumentUpload,
		ExpectedOutputs: []string{"uploadedFiles", "uploadAcknowledged"},
		Timeout:         15 * time.Minute,
		Budget:          5 * time.Minute,
		NextStep:        "Upload các tài liệu đính kèm và chờ portal xác nhận",
	},
	{
		Name:            PhaseSubmitting,
		Baseline:        80,
		TaskType:        workitemmodels.TaskTypeSubmissionExecution,
		ExpectedOutputs: []string{"confirmationToken", "submittedAt"},
		Timeout:         10 * time.Minute,
		Budget:          2 * time.Minute,
		NextStep:        "Thực hiện thao tác nộp cuối cùng và lấy mã xác nhận",
	},
	{
		Name:            PhaseVerifying,
		Baseline:        95,
		TaskType:        workitemmodels.TaskTypeSubmissionVerification,
		ExpectedOutputs: []string{"receiptNumber", "receiptData"},
		Timeout:         15 * time.Minute,
		Budget:          3 * time.Minute,
		NextStep:        "Lấy biên nhận từ portal và đối chiếu số tham chiếu",
	},
	{
		Name:     PhaseCompleted,
		Baseline: 100,
		NextStep: "Hoàn tất - biên nhận đã được lưu vào submission và proposal",
	},
}

// PhaseByName trả về spec của phase theo tên
func PhaseByName(name string) (PhaseSpec, bool) {
	for _, spec := range phaseOrder {
		if spec.Name == name {
			return spec, true
		}
	}
	return PhaseSpec{}, false
}

// PhaseIndex trả về vị trí của phase trong thứ tự chuẩn, -1 nếu không hợp lệ
func PhaseIndex(name string) int {
	for i, spec := range phaseOrder {
		if spec.Name == name {
			return i
		}
	}
	return -1
}

// NextPhase trả về phase kế tiếp trong thứ tự chuẩn.
// Trả về false nếu name không hợp lệ hoặc đã là phase cuối.
func NextPhase(name string) (PhaseSpec, bool) {
	idx := PhaseIndex(name)
	if idx < 0 || idx >= len(phaseOrder)-1 {
		return PhaseSpec{}, false
	}
	return phaseOrder[idx+1], true
}

// IsValidPhase kiểm tra tên phase có nằm trong thứ tự chuẩn không
func IsValidPhase(name string) bool {
	return PhaseIndex(name) >= 0
}

// IsAutomationPhase kiểm tra phase có phát work item không
// (mọi phase trừ queued và completed)
func IsAutomationPhase(name string) bool {
	spec, ok := PhaseByName(name)
	return ok && spec.TaskType != ""
}

// RemainingBudget tính tổng thời lượng dự kiến còn lại kể từ phase hiện tại
// (tính cả phase hiện tại vì nó chưa xong). Dùng cho estimatedCompletion.
func RemainingBudget(currentPhase string) time.Duration {
	idx := PhaseIndex(currentPhase)
	if idx < 0 {
		return 0
	}
	var total time.Duration
	for _, spec := range phaseOrder[idx:] {
		total += spec.Budget
	}
	return total
}

// NextStepsFrom trả về danh sách mô tả các bước còn lại kể từ phase hiện tại
func NextStepsFrom(currentPhase string) []string {
	idx := PhaseIndex(currentPhase)
	if idx < 0 {
		return nil
	}
	steps := make([]string, 0, len(phaseOrder)-idx)
	for _, spec := range phaseOrder[idx:] {
		steps = append(steps, spec.NextStep)
	}
	return steps
}
