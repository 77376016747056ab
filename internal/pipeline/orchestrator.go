package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	auditmodels "bid_flow/internal/api/audit/models"
	auditsvc "bid_flow/internal/api/audit/service"
	portalmodels "bid_flow/internal/api/portal/models"
	portalsvc "bid_flow/internal/api/portal/service"
	proposalmodels "bid_flow/internal/api/proposal/models"
	proposalsvc "bid_flow/internal/api/proposal/service"
	rfpmodels "bid_flow/internal/api/rfp/models"
	rfpsvc "bid_flow/internal/api/rfp/service"
	submissiondto "bid_flow/internal/api/submission/dto"
	submissionmodels "bid_flow/internal/api/submission/models"
	submissionsvc "bid_flow/internal/api/submission/service"
	workitemmodels "bid_flow/internal/api/workitem/models"
	workitemsvc "bid_flow/internal/api/workitem/service"
	"bid_flow/internal/common"
	"bid_flow/internal/global"
	"bid_flow/internal/logger"
	"bid_flow/internal/notification"
	"bid_flow/internal/secure"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Các store mà máy trạng thái phụ thuộc, thu hẹp đúng những thao tác
// orchestrator gọi. Service Mongo thật thỏa mãn sẵn các interface này;
// test trong package thay bằng bản in-memory để lái pipeline qua các
// đường transition/retry/failure mà không cần database.
type pipelineStore interface {
	UpsertSnapshot(ctx context.Context, pipeline submissionmodels.SubmissionPipeline) (submissionmodels.SubmissionPipeline, error)
	FindByPipelineID(ctx context.Context, pipelineID string) (submissionmodels.SubmissionPipeline, error)
	HasActiveForSubmission(ctx context.Context, submissionID primitive.ObjectID) (bool, error)
	FindOrphanedInProgress(ctx context.Context, activePipelineIDs []string) ([]submissionmodels.SubmissionPipeline, error)
}

type eventStore interface {
	RecordEvent(ctx context.Context, event submissionmodels.SubmissionEvent)
}

type submissionStore interface {
	FindOneById(ctx context.Context, id primitive.ObjectID) (submissionmodels.Submission, error)
	MarkInProgress(ctx context.Context, id primitive.ObjectID) (submissionmodels.Submission, error)
	MarkSubmitted(ctx context.Context, id primitive.ObjectID, receiptData map[string]interface{}) (submissionmodels.Submission, error)
	MarkFailed(ctx context.Context, id primitive.ObjectID) (submissionmodels.Submission, error)
}

type proposalStore interface {
	FindOneById(ctx context.Context, id primitive.ObjectID) (proposalmodels.Proposal, error)
	MarkSubmitted(ctx context.Context, id primitive.ObjectID, receiptData map[string]interface{}) (proposalmodels.Proposal, error)
	MarkFailed(ctx context.Context, id primitive.ObjectID) (proposalmodels.Proposal, error)
}

type opportunityStore interface {
	FindOneById(ctx context.Context, id primitive.ObjectID) (rfpmodels.RfpOpportunity, error)
}

type portalStore interface {
	FindOneById(ctx context.Context, id primitive.ObjectID) (portalmodels.Portal, error)
}

type workItemStore interface {
	CreateWorkItem(ctx context.Context, item workitemmodels.WorkItem) (*workitemmodels.WorkItem, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]workitemmodels.WorkItem, error)
	CompleteByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	CancelPendingByPipeline(ctx context.Context, pipelineID string) (int64, error)
}

type auditRecorder interface {
	RecordAction(ctx context.Context, entityType, entityID, action string, details map[string]interface{}, actor string)
}

type outcomeNotifier interface {
	NotifyPipelineOutcome(ctx context.Context, outcome notification.PipelineOutcome)
}

// Orchestrator là facade của submission pipeline: initiate/getStatus/cancel/
// suspend/resume/force-advance. Giữ registry in-memory có thẩm quyền của các
// pipeline đang chạy và mirror mọi mutation xuống MongoDB (best-effort).
type Orchestrator struct {
	registry *ActiveRegistry
	monitor  *Monitor

	pipelines     pipelineStore
	events        eventStore
	submissions   submissionStore
	proposals     proposalStore
	opportunities opportunityStore
	portals       portalStore
	workItems     workItemStore
	audit         auditRecorder
	notifier      outcomeNotifier

	defaultMaxRetries int
	retryBackoff      time.Duration
}

var (
	orchestratorInstance *Orchestrator
	orchestratorOnce     sync.Once
	orchestratorErr      error
)

// GetOrchestrator trả về instance duy nhất của Orchestrator (singleton pattern).
// Gọi lần đầu sau khi các collection đã được đăng ký vào global registry.
func GetOrchestrator() (*Orchestrator, error) {
	orchestratorOnce.Do(func() {
		orchestratorInstance, orchestratorErr = newOrchestrator()
	})
	return orchestratorInstance, orchestratorErr
}

// newOrchestrator khởi tạo orchestrator cùng toàn bộ service phụ thuộc
func newOrchestrator() (*Orchestrator, error) {
	pipelineService, err := submissionsvc.NewSubmissionPipelineService()
	if err != nil {
		return nil, fmt.Errorf("failed to create submission pipeline service: %w", err)
	}
	eventService, err := submissionsvc.NewSubmissionEventService()
	if err != nil {
		return nil, fmt.Errorf("failed to create submission event service: %w", err)
	}
	submissionService, err := submissionsvc.NewSubmissionService()
	if err != nil {
		return nil, fmt.Errorf("failed to create submission service: %w", err)
	}
	proposalService, err := proposalsvc.NewProposalService()
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal service: %w", err)
	}
	opportunityService, err := rfpsvc.NewRfpOpportunityService()
	if err != nil {
		return nil, fmt.Errorf("failed to create rfp opportunity service: %w", err)
	}
	portalService, err := portalsvc.NewPortalService()
	if err != nil {
		return nil, fmt.Errorf("failed to create portal service: %w", err)
	}
	workItemService, err := workitemsvc.NewWorkItemService()
	if err != nil {
		return nil, fmt.Errorf("failed to create work item service: %w", err)
	}
	auditService, err := auditsvc.NewAuditLogService()
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log service: %w", err)
	}
	notifier, err := notification.NewNotifier()
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}

	maxRetries := 3
	backoff := 30 * time.Second
	pollInterval := 5 * time.Second
	if cfg := global.MongoDB_ServerConfig; cfg != nil {
		if cfg.Pipeline_DefaultMaxRetries > 0 {
			maxRetries = cfg.Pipeline_DefaultMaxRetries
		}
		if cfg.Pipeline_RetryBackoffSec > 0 {
			backoff = time.Duration(cfg.Pipeline_RetryBackoffSec) * time.Second
		}
		if cfg.Pipeline_PollIntervalSec > 0 {
			pollInterval = time.Duration(cfg.Pipeline_PollIntervalSec) * time.Second
		}
	}

	orch := &Orchestrator{
		registry:          NewActiveRegistry(),
		pipelines:         pipelineService,
		events:            eventService,
		submissions:       submissionService,
		proposals:         proposalService,
		opportunities:     opportunityService,
		portals:           portalService,
		workItems:         workItemService,
		audit:             auditService,
		notifier:          notifier,
		defaultMaxRetries: maxRetries,
		retryBackoff:      backoff,
	}
	orch.monitor = newMonitor(orch, pollInterval)
	return orch, nil
}

// StartMonitor đăng ký completion monitor với event bus. Gọi một lần khi khởi động.
func (o *Orchestrator) StartMonitor() {
	o.monitor.Start()
}

// ActivePipelineIDs trả về id các pipeline đang được process này quản lý.
// Pipeline reaper dùng để phân biệt pipeline mồ côi sau restart.
func (o *Orchestrator) ActivePipelineIDs() []string {
	return o.registry.IDs()
}

// ReapOrphaned đánh dấu failed các pipeline mồ côi: bản durable còn ở trạng
// thái chạy dở nhưng không có trong registry in-memory (process trước chết
// giữa chừng). Registry là nguồn thẩm quyền nên không thể resume pipeline
// của process khác - đánh dấu failed rõ ràng tốt hơn treo vô hạn.
func (o *Orchestrator) ReapOrphaned(ctx context.Context) (int, error) {
	orphans, err := o.pipelines.FindOrphanedInProgress(ctx, o.registry.IDs())
	if err != nil {
		return 0, err
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	log := logger.GetAppLogger()
	const reason = "orchestrator restarted"
	for i := range orphans {
		record := orphans[i]
		record.Status = submissionmodels.PipelineStatusFailed
		record.ErrorData = map[string]interface{}{
			"reason":     reason,
			"kind":       string(FailurePermanent),
			"phase":      record.CurrentPhase,
			"retryCount": record.RetryCount,
		}
		record.UpdatedAt = time.Now().UnixMilli()
		if _, err := o.pipelines.UpsertSnapshot(ctx, record); err != nil {
			log.WithFields(map[string]interface{}{
				"pipelineId": record.PipelineID,
				"error":      err.Error(),
			}).Error("🚀 [PIPELINE] Không đánh dấu được pipeline mồ côi là failed")
			continue
		}

		o.events.RecordEvent(ctx, submissionmodels.SubmissionEvent{
			PipelineID:   record.PipelineID,
			SubmissionID: record.SubmissionID,
			EventType:    submissionmodels.EventPipelineFailed,
			Phase:        record.CurrentPhase,
			Level:        submissionmodels.EventLevelError,
			Message:      fmt.Sprintf("Pipeline thất bại ở phase %s: %s", record.CurrentPhase, reason),
			Details: map[string]interface{}{
				"kind": string(FailurePermanent),
			},
		})
		o.audit.RecordAction(ctx, auditmodels.AuditEntitySubmissionPipeline, record.PipelineID, "pipeline_failed", map[string]interface{}{
			"phase":  record.CurrentPhase,
			"reason": reason,
		}, "orchestrator")

		if _, err := o.workItems.CancelPendingByPipeline(ctx, record.PipelineID); err != nil {
			log.WithFields(map[string]interface{}{
				"pipelineId": record.PipelineID,
				"error":      err.Error(),
			}).Warn("🚀 [PIPELINE] Không hủy được work items của pipeline mồ côi")
		}
		if _, err := o.submissions.MarkFailed(ctx, record.SubmissionID); err != nil {
			log.WithFields(map[string]interface{}{
				"submissionId": record.SubmissionID.Hex(),
				"error":        err.Error(),
			}).Warn("🚀 [PIPELINE] Không cập nhật được submission của pipeline mồ côi")
		}
		if _, err := o.proposals.MarkFailed(ctx, record.ProposalID); err != nil {
			log.WithFields(map[string]interface{}{
				"proposalId": record.ProposalID.Hex(),
				"error":      err.Error(),
			}).Warn("🚀 [PIPELINE] Không cập nhật được proposal của pipeline mồ côi")
		}

		o.notifier.NotifyPipelineOutcome(ctx, notification.PipelineOutcome{
			PipelineID:   record.PipelineID,
			SubmissionID: record.SubmissionID.Hex(),
			Status:       "failed",
			Phase:        record.CurrentPhase,
			Progress:     record.Progress,
			Reason:       reason,
			Details: map[string]interface{}{
				"opportunityTitle": metadataString(record.Metadata, "opportunityTitle"),
				"portalName":       metadataString(record.Metadata, "portalName"),
			},
		})

		log.WithFields(map[string]interface{}{
			"pipelineId": record.PipelineID,
			"phase":      record.CurrentPhase,
			"status":     "failed",
		}).Warn("🚀 [PIPELINE] Đã dọn pipeline mồ côi sau restart")
	}
	return len(orphans), nil
}

// InitiateResult là snapshot trả về ngay khi initiate thành công
type InitiateResult struct {
	Success             bool     `json:"success"`
	PipelineID          string   `json:"pipelineId"`
	CurrentPhase        string   `json:"currentPhase"`
	Progress            int      `json:"progress"`
	Status              string   `json:"status"`
	EstimatedCompletion int64    `json:"estimatedCompletion"` // UnixMilli
	NextSteps           []string `json:"nextSteps"`
}

// StatusSnapshot là trạng thái đầy đủ của một pipeline cho getStatus/active list
type StatusSnapshot struct {
	submissionmodels.SubmissionPipeline
	Active              bool     `json:"active"`
	EstimatedCompletion int64    `json:"estimatedCompletion,omitempty"`
	NextSteps           []string `json:"nextSteps,omitempty"`
}

// priorityWeight quy đổi mức ưu tiên của caller thành trọng số sắp xếp work item
func priorityWeight(priority string) int {
	switch priority {
	case "low":
		return 1
	case "high":
		return 10
	case "urgent":
		return 20
	default:
		return 5 // normal
	}
}

// Initiate khởi động pipeline nộp thầu cho một submission. Kiểm tra
// submission, proposal, opportunity và portal tồn tại (fail fast với lỗi
// mô tả rõ entity nào thiếu), tạo pipeline ở queued/pending, ghi audit +
// event, chuyển submission sang in_progress rồi bắt đầu phase preflight.
func (o *Orchestrator) Initiate(ctx context.Context, input *submissiondto.PipelineInitiateInput) (*InitiateResult, error) {
	log := logger.GetAppLogger()

	submissionID, err := primitive.ObjectIDFromHex(input.SubmissionID)
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("submissionId không phải ObjectID hợp lệ: %s", input.SubmissionID),
			common.StatusBadRequest,
			err,
		)
	}

	// Validate các entity được tham chiếu - fail fast, không retry
	submission, err := o.submissions.FindOneById(ctx, submissionID)
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationReference,
			fmt.Sprintf("Submission không tồn tại: %s", input.SubmissionID),
			common.StatusNotFound,
			err,
		)
	}
	proposal, err := o.proposals.FindOneById(ctx, submission.ProposalID)
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationReference,
			fmt.Sprintf("Proposal không tồn tại: %s", submission.ProposalID.Hex()),
			common.StatusNotFound,
			err,
		)
	}
	opportunity, err := o.opportunities.FindOneById(ctx, submission.OpportunityID)
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationReference,
			fmt.Sprintf("RFP opportunity không tồn tại: %s", submission.OpportunityID.Hex()),
			common.StatusNotFound,
			err,
		)
	}
	portal, err := o.portals.FindOneById(ctx, submission.PortalID)
	if err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationReference,
			fmt.Sprintf("Portal không tồn tại: %s", submission.PortalID.Hex()),
			common.StatusNotFound,
			err,
		)
	}

	// Bất biến: mỗi submission chỉ có một pipeline active. In-memory là
	// nguồn thẩm quyền và được registry.Add giữ nguyên tử bên dưới; durable
	// check chặn thêm trường hợp process trước còn để lại pipeline chạy dở
	// chưa bị reaper dọn.
	hasActive, err := o.pipelines.HasActiveForSubmission(ctx, submissionID)
	if err != nil {
		log.WithFields(map[string]interface{}{
			"submissionId": submissionID.Hex(),
			"error":        err.Error(),
		}).Warn("🚀 [PIPELINE] Không kiểm tra được pipeline durable của submission, tiếp tục theo registry in-memory")
	} else if hasActive {
		return nil, common.ErrPipelineDuplicate
	}

	maxRetries := o.defaultMaxRetries
	if input.RetryOptions != nil && input.RetryOptions.MaxRetries != nil {
		maxRetries = *input.RetryOptions.MaxRetries
	}
	priority := input.Priority
	if priority == "" {
		priority = "normal"
	}

	metadata := make(map[string]interface{})
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	metadata["priority"] = priority
	metadata["portalName"] = portal.Name
	metadata["portalCode"] = portal.Code
	metadata["portalBaseUrl"] = portal.BaseURL
	metadata["portalAuthType"] = portal.AuthType
	metadata["portalRequiresMfa"] = portal.RequiresMFA
	metadata["opportunityTitle"] = opportunity.Title
	metadata["proposalTitle"] = proposal.Title
	if input.Deadline > 0 {
		metadata["deadline"] = input.Deadline
	}
	if input.BrowserOptions != nil {
		metadata["browserOptions"] = input.BrowserOptions
	}
	if len(portal.FieldMappings) > 0 {
		metadata["portalFieldMappings"] = portal.FieldMappings
	}
	if len(proposal.Files) > 0 {
		documents := make([]map[string]interface{}, 0, len(proposal.Files))
		for _, f := range proposal.Files {
			documents = append(documents, map[string]interface{}{
				"name":        f.Name,
				"path":        f.Path,
				"contentType": f.ContentType,
				"purpose":     f.Purpose,
			})
		}
		metadata["documents"] = documents
	}

	// Credentials được mã hóa ngay tại đây; từ điểm này trở đi không còn
	// plaintext trong bộ nhớ của pipeline lẫn database
	credentialsEnc := ""
	if input.Credentials != nil {
		creds := map[string]interface{}{
			"username": input.Credentials.Username,
			"password": input.Credentials.Password,
		}
		if input.Credentials.MFACode != "" {
			creds["mfaCode"] = input.Credentials.MFACode
		}
		if input.Credentials.APIKey != "" {
			creds["apiKey"] = input.Credentials.APIKey
		}
		credentialsEnc, err = secure.EncryptCredentialsMap(creds)
		if err != nil {
			return nil, common.NewError(
				common.ErrCodeInternalServer,
				"Không thể mã hóa credentials portal",
				common.StatusInternalServerError,
				err,
			)
		}
		metadata[secure.CredentialsFieldEnc] = credentialsEnc
	}

	now := time.Now().UnixMilli()
	p := &ActivePipeline{
		Record: submissionmodels.SubmissionPipeline{
			PipelineID:    uuid.NewString(),
			SubmissionID:  submissionID,
			SessionID:     input.SessionID,
			OpportunityID: submission.OpportunityID,
			ProposalID:    submission.ProposalID,
			PortalID:      submission.PortalID,
			CurrentPhase:  PhaseQueued,
			Status:        submissionmodels.PipelineStatusPending,
			Progress:      0,
			WorkItemIDs:   []string{},
			Results:       map[string]map[string]interface{}{},
			RetryCount:    0,
			MaxRetries:    maxRetries,
			Metadata:      metadata,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		CredentialsEnc: credentialsEnc,
	}

	// Add nguyên tử: submission đã có pipeline active thì bên đến sau thua,
	// kể cả khi hai Initiate cùng vượt qua durable check ở trên
	if !o.registry.Add(p) {
		return nil, common.ErrPipelineDuplicate
	}

	log.WithFields(map[string]interface{}{
		"pipelineId":   p.Record.PipelineID,
		"submissionId": submissionID.Hex(),
		"portal":       portal.Name,
		"priority":     priority,
		"maxRetries":   maxRetries,
	}).Info("🚀 [PIPELINE] Khởi tạo pipeline nộp thầu")

	p.mu.Lock()
	defer p.mu.Unlock()

	o.persistLocked(ctx, p)
	o.audit.RecordAction(ctx, auditmodels.AuditEntitySubmissionPipeline, p.Record.PipelineID, "pipeline_initiated", map[string]interface{}{
		"submissionId": submissionID.Hex(),
		"portal":       portal.Name,
		"priority":     priority,
		"maxRetries":   maxRetries,
	}, "ops")
	o.emitEventLocked(ctx, p, submissionmodels.EventPipelineStarted, PhaseQueued,
		submissionmodels.EventLevelInfo, "Pipeline nộp thầu đã khởi tạo", map[string]interface{}{
			"portal":   portal.Name,
			"priority": priority,
		})

	if _, err := o.submissions.MarkInProgress(ctx, submissionID); err != nil {
		log.WithFields(map[string]interface{}{
			"submissionId": submissionID.Hex(),
			"error":        err.Error(),
		}).Error("🚀 [PIPELINE] Không cập nhật được trạng thái submission sang in_progress")
	}

	// Bắt đầu ngay phase đầu tiên
	preflight, _ := PhaseByName(PhasePreflight)
	o.executePhaseLocked(ctx, p, preflight, false)

	return &InitiateResult{
		Success:             true,
		PipelineID:          p.Record.PipelineID,
		CurrentPhase:        p.Record.CurrentPhase,
		Progress:            p.Record.Progress,
		Status:              p.Record.Status,
		EstimatedCompletion: estimatedCompletion(p.Record.CurrentPhase, p.Record.Status, p.Record.UpdatedAt),
		NextSteps:           NextStepsFrom(p.Record.CurrentPhase),
	}, nil
}

// GetStatus trả về snapshot của pipeline: bản in-memory nếu đang chạy,
// fallback bản durable cho pipeline lịch sử, ErrPipelineNotFound nếu không có.
func (o *Orchestrator) GetStatus(ctx context.Context, pipelineID string) (*StatusSnapshot, error) {
	if p, exists := o.registry.Get(pipelineID); exists {
		record := p.Snapshot()
		return buildSnapshot(record, true), nil
	}

	record, err := o.pipelines.FindByPipelineID(ctx, pipelineID)
	if err != nil {
		if err == common.ErrNotFound {
			return nil, common.ErrPipelineNotFound
		}
		return nil, err
	}
	return buildSnapshot(record, false), nil
}

// ActiveList trả về snapshot của tất cả pipeline đang chạy, cũ nhất trước
func (o *Orchestrator) ActiveList() []*StatusSnapshot {
	pipelines := o.registry.List()
	snapshots := make([]*StatusSnapshot, 0, len(pipelines))
	for _, p := range pipelines {
		snapshots = append(snapshots, buildSnapshot(p.Snapshot(), true))
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt < snapshots[j].CreatedAt
	})
	return snapshots
}

// Cancel hủy pipeline đang chạy: status=failed với marker cancelled trong
// errorData, event pipeline_cancelled, gỡ khỏi registry. Không can thiệp
// work item đang được agent thực thi (cooperative); item còn pending được
// đánh dấu cancelled để agent không claim nữa. Trả về false nếu pipeline
// không active.
func (o *Orchestrator) Cancel(ctx context.Context, pipelineID string, reason string) (bool, error) {
	p, exists := o.registry.Get(pipelineID)
	if !exists {
		return false, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Record.Status == submissionmodels.PipelineStatusCompleted ||
		p.Record.Status == submissionmodels.PipelineStatusFailed {
		return false, nil
	}

	if reason == "" {
		reason = "Pipeline bị hủy bởi operator"
	}

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"pipelineId": pipelineID,
		"phase":      p.Record.CurrentPhase,
		"reason":     reason,
	}).Info("🚀 [PIPELINE] Hủy pipeline")

	p.stopTimersLocked()
	o.failPipelineLocked(ctx, p, Failure{Kind: FailurePermanent, Reason: reason}, nil, true)
	return true, nil
}

// Suspend tạm dừng pipeline: dừng watch/timer của phase hiện tại và giữ
// nguyên work items. Agent đang chạy dở vẫn có thể báo cáo kết quả; kết quả
// chỉ được xử lý sau khi Resume re-arm watch.
func (o *Orchestrator) Suspend(ctx context.Context, pipelineID string) error {
	p, exists := o.registry.Get(pipelineID)
	if !exists {
		return common.ErrPipelineNotActive
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Record.Status != submissionmodels.PipelineStatusInProgress &&
		p.Record.Status != submissionmodels.PipelineStatusPending {
		return common.ErrPipelineNotActive
	}

	pendingRetry := p.retryTimer != nil
	p.stopTimersLocked()
	p.pendingRetry = pendingRetry

	p.Record.Status = submissionmodels.PipelineStatusSuspended
	p.Record.UpdatedAt = time.Now().UnixMilli()
	o.persistLocked(ctx, p)
	o.emitEventLocked(ctx, p, submissionmodels.EventPipelineSuspended, p.Record.CurrentPhase,
		submissionmodels.EventLevelWarning, "Pipeline tạm dừng theo yêu cầu operator", map[string]interface{}{
			"pendingRetry": pendingRetry,
		})
	o.audit.RecordAction(ctx, auditmodels.AuditEntitySubmissionPipeline, pipelineID, "pipeline_suspended", map[string]interface{}{
		"phase": p.Record.CurrentPhase,
	}, "ops")

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"pipelineId": pipelineID,
		"phase":      p.Record.CurrentPhase,
	}).Info("🚀 [PIPELINE] Pipeline đã tạm dừng")
	return nil
}

// Resume tiếp tục pipeline đã suspend. Nếu suspend cắt ngang một retry đang
// chờ backoff thì thực thi lại phase ngay; ngược lại re-arm watch trên các
// work items hiện có của phase với timeout mới nguyên vẹn.
func (o *Orchestrator) Resume(ctx context.Context, pipelineID string) error {
	p, exists := o.registry.Get(pipelineID)
	if !exists {
		return common.ErrPipelineNotActive
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Record.Status != submissionmodels.PipelineStatusSuspended {
		return common.ErrPipelineNotActive
	}

	p.Record.Status = submissionmodels.PipelineStatusInProgress
	p.Record.UpdatedAt = time.Now().UnixMilli()
	o.persistLocked(ctx, p)
	o.emitEventLocked(ctx, p, submissionmodels.EventPipelineResumed, p.Record.CurrentPhase,
		submissionmodels.EventLevelInfo, "Pipeline tiếp tục chạy", nil)
	o.audit.RecordAction(ctx, auditmodels.AuditEntitySubmissionPipeline, pipelineID, "pipeline_resumed", map[string]interface{}{
		"phase": p.Record.CurrentPhase,
	}, "ops")

	spec, ok := PhaseByName(p.Record.CurrentPhase)
	switch {
	case p.pendingRetry:
		p.pendingRetry = false
		if ok {
			o.executePhaseLocked(ctx, p, spec, true)
		}
	case ok && spec.TaskType != "" && len(p.phaseItemIDs) > 0:
		p.gen++
		p.watch = o.monitor.arm(p, p.gen, spec, p.phaseItemIDs)
	case ok && spec.TaskType != "":
		// Không còn work items để theo dõi (trường hợp bất thường) - phát lại phase
		o.executePhaseLocked(ctx, p, spec, false)
	}

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"pipelineId": pipelineID,
		"phase":      p.Record.CurrentPhase,
	}).Info("🚀 [PIPELINE] Pipeline đã tiếp tục")
	return nil
}

// HandlePhaseCompletion là contract callback của completion monitor, đồng
// thời là extension point cho ops force-advance một phase bị kẹt: các work
// item liệt kê được chốt completed, kết quả merge vào phase hiện tại và
// pipeline chuyển sang nextPhaseName (bắt buộc là phase kế tiếp theo thứ tự
// chuẩn - không cho phép nhảy cóc).
func (o *Orchestrator) HandlePhaseCompletion(ctx context.Context, pipelineID string, workItemIDs []string, nextPhaseName string) error {
	p, exists := o.registry.Get(pipelineID)
	if !exists {
		return common.ErrPipelineNotActive
	}

	nextSpec, ok := PhaseByName(nextPhaseName)
	if !ok {
		return common.NewError(
			common.ErrCodeValidationInput,
			fmt.Sprintf("nextPhase không hợp lệ: %s", nextPhaseName),
			common.StatusBadRequest,
			nil,
		)
	}

	ids := make([]primitive.ObjectID, 0, len(workItemIDs))
	for _, raw := range workItemIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("workItemId không phải ObjectID hợp lệ: %s", raw),
				common.StatusBadRequest,
				err,
			)
		}
		ids = append(ids, id)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Record.Status != submissionmodels.PipelineStatusInProgress {
		return common.ErrPipelineNotActive
	}

	expected, ok := NextPhase(p.Record.CurrentPhase)
	if !ok || expected.Name != nextSpec.Name {
		return common.NewError(
			common.ErrCodePipelineState,
			fmt.Sprintf("Không thể chuyển từ phase %s sang %s: phase kế tiếp hợp lệ là %s",
				p.Record.CurrentPhase, nextPhaseName, expected.Name),
			common.StatusConflict,
			nil,
		)
	}

	p.stopTimersLocked()
	p.pendingRetry = false

	if len(ids) == 0 {
		ids = p.phaseItemIDs
	}
	if count, err := o.workItems.CompleteByIDs(ctx, ids); err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"pipelineId": pipelineID,
			"error":      err.Error(),
		}).Warn("🚀 [PIPELINE] Không chốt được work items khi force-advance")
	} else if count > 0 {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"pipelineId": pipelineID,
			"completed":  count,
		}).Info("🚀 [PIPELINE] Đã chốt work items khi force-advance")
	}

	items, err := o.workItems.FindByIDs(ctx, ids)
	if err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"pipelineId": pipelineID,
			"error":      err.Error(),
		}).Warn("🚀 [PIPELINE] Không đọc được kết quả work items khi force-advance")
	}

	currentSpec, _ := PhaseByName(p.Record.CurrentPhase)
	o.advancePhaseLocked(ctx, p, currentSpec, items, true)
	return nil
}

// ============================================================
// Các bước nội bộ của máy trạng thái (caller phải giữ p.mu)
// ============================================================

// executePhaseLocked thực thi một phase: set currentPhase + baseline →
// persist → event phase_started → tạo work item → arm completion monitor.
// isRetry đánh dấu đợt thực thi lại sau backoff (input giữ nguyên).
func (o *Orchestrator) executePhaseLocked(ctx context.Context, p *ActivePipeline, phase PhaseSpec, isRetry bool) {
	log := logger.GetAppLogger()

	p.Record.CurrentPhase = phase.Name
	p.Record.Progress = phase.Baseline
	p.Record.Status = submissionmodels.PipelineStatusInProgress
	p.Record.UpdatedAt = time.Now().UnixMilli()
	o.persistLocked(ctx, p)

	message := fmt.Sprintf("Bắt đầu phase %s", phase.Name)
	if isRetry {
		message = fmt.Sprintf("Thực thi lại phase %s (retry %d/%d)", phase.Name, p.Record.RetryCount, p.Record.MaxRetries)
	}
	o.emitEventLocked(ctx, p, submissionmodels.EventPhaseStarted, phase.Name,
		submissionmodels.EventLevelInfo, message, map[string]interface{}{
			"taskType": phase.TaskType,
			"retry":    isRetry,
		})

	item := workitemmodels.WorkItem{
		PipelineID:      p.Record.PipelineID,
		SubmissionID:    p.Record.SubmissionID,
		Phase:           phase.Name,
		TaskType:        phase.TaskType,
		InputPayload:    o.buildPhaseInputsLocked(p, phase),
		ExpectedOutputs: phase.ExpectedOutputs,
		Priority:        priorityWeight(metadataString(p.Record.Metadata, "priority")),
		Deadline:        phaseDeadline(p.Record.Metadata, phase),
		Status:          workitemmodels.WorkItemStatusPending,
	}
	created, err := o.workItems.CreateWorkItem(ctx, item)
	if err != nil {
		log.WithFields(map[string]interface{}{
			"pipelineId": p.Record.PipelineID,
			"phase":      phase.Name,
			"error":      err.Error(),
		}).Error("🚀 [PIPELINE] Không tạo được work item cho phase")
		// Không phát được việc cho agent: xử lý như lỗi phase để đi qua
		// classifier (lỗi hạ tầng được retry trong giới hạn budget)
		o.handlePhaseFailureLocked(ctx, p, phase,
			Failure{Kind: FailureServerError, Reason: fmt.Sprintf("failed to create work item: %v", err)}, nil)
		return
	}

	p.Record.WorkItemIDs = append(p.Record.WorkItemIDs, created.ID.Hex())
	p.phaseItemIDs = []primitive.ObjectID{created.ID}
	p.Record.UpdatedAt = time.Now().UnixMilli()
	o.persistLocked(ctx, p)

	p.gen++
	p.watch = o.monitor.arm(p, p.gen, phase, p.phaseItemIDs)

	log.WithFields(map[string]interface{}{
		"pipelineId": p.Record.PipelineID,
		"phase":      phase.Name,
		"workItemId": created.ID.Hex(),
		"taskType":   phase.TaskType,
		"retry":      isRetry,
	}).Info("🚀 [PIPELINE] Phase đã bắt đầu, chờ agent xử lý work item")
}

// handlePhaseSettled nhận báo cáo từ completion monitor khi mọi work item
// của phase đạt trạng thái terminal. gen chặn callback của watch cũ.
func (o *Orchestrator) handlePhaseSettled(p *ActivePipeline, gen int, phase PhaseSpec, items []workitemmodels.WorkItem, failedItems []workitemmodels.WorkItem) {
	ctx := context.Background()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen {
		return
	}
	p.stopTimersLocked()

	if len(failedItems) > 0 {
		first := failedItems[0]
		reason := first.Error
		if reason == "" {
			if first.Status == workitemmodels.WorkItemStatusCancelled {
				reason = "work item cancelled"
			} else {
				reason = "work item failed"
			}
		}
		o.handlePhaseFailureLocked(ctx, p, phase, ClassifyReason(reason), failedItems)
		return
	}

	o.advancePhaseLocked(ctx, p, phase, items, false)
}

// handlePhaseTimeout nhận tín hiệu timeout tuyệt đối của phase từ monitor.
// Xử lý giống một work item failure với failure kind timeout.
func (o *Orchestrator) handlePhaseTimeout(p *ActivePipeline, gen int, phase PhaseSpec) {
	ctx := context.Background()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen {
		return
	}
	p.stopTimersLocked()

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"pipelineId": p.Record.PipelineID,
		"phase":      phase.Name,
		"timeout":    phase.Timeout.String(),
		"retryCount": p.Record.RetryCount,
	}).Warn("🚀 [PIPELINE] Phase vượt quá hạn tuyệt đối")

	items, err := o.workItems.FindByIDs(ctx, p.phaseItemIDs)
	if err != nil {
		items = nil
	}
	o.handlePhaseFailureLocked(ctx, p, phase, NewTimeoutFailure(), items)
}

// advancePhaseLocked chốt phase hiện tại thành công: merge kết quả các work
// item (shallow union), emit phase_completed rồi chuyển sang phase kế tiếp
// hoặc hoàn tất pipeline nếu vừa xong verifying.
func (o *Orchestrator) advancePhaseLocked(ctx context.Context, p *ActivePipeline, completedPhase PhaseSpec, items []workitemmodels.WorkItem, forced bool) {
	merged := make(map[string]interface{})
	agents := make([]string, 0, len(items))
	for _, item := range items {
		for k, v := range item.Result {
			merged[k] = v
		}
		if item.AgentID != "" {
			agents = append(agents, item.AgentID)
		}
	}
	if p.Record.Results == nil {
		p.Record.Results = map[string]map[string]interface{}{}
	}
	p.Record.Results[completedPhase.Name] = merged
	p.Record.UpdatedAt = time.Now().UnixMilli()
	o.persistLocked(ctx, p)

	details := map[string]interface{}{
		"outputs": len(merged),
	}
	if len(agents) > 0 {
		details["agents"] = agents
	}
	if forced {
		details["forced"] = true
	}
	o.emitEventLocked(ctx, p, submissionmodels.EventPhaseCompleted, completedPhase.Name,
		submissionmodels.EventLevelInfo, fmt.Sprintf("Hoàn thành phase %s", completedPhase.Name), details)

	next, ok := NextPhase(completedPhase.Name)
	if !ok {
		return
	}
	if next.Name == PhaseCompleted {
		o.completePipelineLocked(ctx, p)
		return
	}
	o.executePhaseLocked(ctx, p, next, false)
}

// handlePhaseFailureLocked là Retry & Failure Classifier: failure kind
// retryable và còn retry budget thì tăng retryCount, reset progress về
// baseline phase hiện tại, chờ backoff cố định rồi thực thi lại; ngược
// lại pipeline thất bại vĩnh viễn.
func (o *Orchestrator) handlePhaseFailureLocked(ctx context.Context, p *ActivePipeline, phase PhaseSpec, failure Failure, failedItems []workitemmodels.WorkItem) {
	log := logger.GetAppLogger()
	log.WithFields(map[string]interface{}{
		"pipelineId": p.Record.PipelineID,
		"phase":      phase.Name,
		"kind":       string(failure.Kind),
		"reason":     failure.Reason,
		"retryCount": p.Record.RetryCount,
		"maxRetries": p.Record.MaxRetries,
	}).Error("🚀 [PIPELINE] Phase thất bại")

	if failure.Kind.Retryable() && p.Record.RetryCount < p.Record.MaxRetries {
		p.Record.RetryCount++
		p.Record.Progress = phase.Baseline
		p.Record.UpdatedAt = time.Now().UnixMilli()
		o.persistLocked(ctx, p)

		backoffSec := int(o.retryBackoff / time.Second)
		o.emitEventLocked(ctx, p, submissionmodels.EventRetry, phase.Name,
			submissionmodels.EventLevelWarning,
			fmt.Sprintf("Phase %s lỗi (%s), thử lại lần %d/%d sau %d giây",
				phase.Name, failure.Reason, p.Record.RetryCount, p.Record.MaxRetries, backoffSec),
			map[string]interface{}{
				"kind":       string(failure.Kind),
				"reason":     failure.Reason,
				"backoffSec": backoffSec,
			})

		gen := p.gen
		p.retryTimer = time.AfterFunc(o.retryBackoff, func() {
			o.executeRetry(p, gen, phase)
		})
		return
	}

	o.failPipelineLocked(ctx, p, failure, failedItems, false)
}

// executeRetry chạy khi backoff trôi qua: thực thi lại phase với input
// giữ nguyên. gen chặn retry đã bị cancel/suspend vô hiệu hóa.
func (o *Orchestrator) executeRetry(p *ActivePipeline, gen int, phase PhaseSpec) {
	ctx := context.Background()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.gen != gen {
		return
	}
	p.retryTimer = nil
	p.pendingRetry = false
	o.executePhaseLocked(ctx, p, phase, true)
}

// failPipelineLocked kết thúc pipeline ở trạng thái failed: lưu errorData
// đầy đủ, emit event + audit, hủy work item còn pending, cập nhật
// submission/proposal, gửi notification và gỡ khỏi registry.
func (o *Orchestrator) failPipelineLocked(ctx context.Context, p *ActivePipeline, failure Failure, failedItems []workitemmodels.WorkItem, cancelled bool) {
	log := logger.GetAppLogger()

	p.Record.Status = submissionmodels.PipelineStatusFailed
	p.Record.UpdatedAt = time.Now().UnixMilli()
	p.Record.ErrorData = map[string]interface{}{
		"reason":     failure.Reason,
		"kind":       string(failure.Kind),
		"phase":      p.Record.CurrentPhase,
		"retryCount": p.Record.RetryCount,
	}
	if cancelled {
		p.Record.ErrorData["cancelled"] = true
	}
	if len(failedItems) > 0 {
		p.Record.ErrorData["failedWorkItems"] = failedItemsSnapshot(failedItems)
	}
	o.persistLocked(ctx, p)

	if cancelled {
		o.emitEventLocked(ctx, p, submissionmodels.EventPipelineCancelled, p.Record.CurrentPhase,
			submissionmodels.EventLevelWarning, failure.Reason, map[string]interface{}{
				"retryCount": p.Record.RetryCount,
			})
		o.audit.RecordAction(ctx, auditmodels.AuditEntitySubmissionPipeline, p.Record.PipelineID, "pipeline_cancelled", map[string]interface{}{
			"phase":  p.Record.CurrentPhase,
			"reason": failure.Reason,
		}, "ops")
	} else {
		o.emitEventLocked(ctx, p, submissionmodels.EventError, p.Record.CurrentPhase,
			submissionmodels.EventLevelError, failure.Reason, map[string]interface{}{
				"kind":       string(failure.Kind),
				"retryCount": p.Record.RetryCount,
			})
		o.emitEventLocked(ctx, p, submissionmodels.EventPipelineFailed, p.Record.CurrentPhase,
			submissionmodels.EventLevelError,
			fmt.Sprintf("Pipeline thất bại ở phase %s: %s", p.Record.CurrentPhase, failure.Reason),
			map[string]interface{}{
				"kind":       string(failure.Kind),
				"retryCount": p.Record.RetryCount,
			})
		o.audit.RecordAction(ctx, auditmodels.AuditEntitySubmissionPipeline, p.Record.PipelineID, "pipeline_failed", map[string]interface{}{
			"phase":      p.Record.CurrentPhase,
			"reason":     failure.Reason,
			"kind":       string(failure.Kind),
			"retryCount": p.Record.RetryCount,
		}, "orchestrator")
	}

	// Work item còn pending được đánh dấu cancelled để agent không claim;
	// item đang in_progress để agent báo cáo nốt, kết quả sẽ rơi vào watch
	// đã dừng nên không tác động gì
	if count, err := o.workItems.CancelPendingByPipeline(ctx, p.Record.PipelineID); err != nil {
		log.WithFields(map[string]interface{}{
			"pipelineId": p.Record.PipelineID,
			"error":      err.Error(),
		}).Warn("🚀 [PIPELINE] Không hủy được work items còn pending")
	} else if count > 0 {
		log.WithFields(map[string]interface{}{
			"pipelineId": p.Record.PipelineID,
			"cancelled":  count,
		}).Info("🚀 [PIPELINE] Đã hủy work items còn pending")
	}

	if _, err := o.submissions.MarkFailed(ctx, p.Record.SubmissionID); err != nil {
		log.WithFields(map[string]interface{}{
			"submissionId": p.Record.SubmissionID.Hex(),
			"error":        err.Error(),
		}).Error("🚀 [PIPELINE] Không cập nhật được trạng thái submission sang failed")
	}
	if _, err := o.proposals.MarkFailed(ctx, p.Record.ProposalID); err != nil {
		log.WithFields(map[string]interface{}{
			"proposalId": p.Record.ProposalID.Hex(),
			"error":      err.Error(),
		}).Error("🚀 [PIPELINE] Không cập nhật được trạng thái proposal sang failed")
	}

	status := "failed"
	if cancelled {
		status = "cancelled"
	}
	o.notifier.NotifyPipelineOutcome(ctx, notification.PipelineOutcome{
		PipelineID:   p.Record.PipelineID,
		SubmissionID: p.Record.SubmissionID.Hex(),
		Status:       status,
		Phase:        p.Record.CurrentPhase,
		Progress:     p.Record.Progress,
		Reason:       failure.Reason,
		Details: map[string]interface{}{
			"opportunityTitle": metadataString(p.Record.Metadata, "opportunityTitle"),
			"portalName":       metadataString(p.Record.Metadata, "portalName"),
			"retryCount":       p.Record.RetryCount,
		},
	})

	o.registry.Remove(p.Record.PipelineID)
}

// completePipelineLocked kết thúc pipeline thành công: progress 100,
// biên nhận từ phase verifying được gắn vào cả submission lẫn proposal,
// event pipeline_completed + audit + notification, gỡ khỏi registry.
func (o *Orchestrator) completePipelineLocked(ctx context.Context, p *ActivePipeline) {
	log := logger.GetAppLogger()

	p.Record.CurrentPhase = PhaseCompleted
	p.Record.Progress = 100
	p.Record.Status = submissionmodels.PipelineStatusCompleted
	p.Record.UpdatedAt = time.Now().UnixMilli()
	o.persistLocked(ctx, p)

	receiptData := p.Record.Results[PhaseVerifying]
	o.emitEventLocked(ctx, p, submissionmodels.EventPipelineCompleted, PhaseCompleted,
		submissionmodels.EventLevelInfo, "Pipeline hoàn tất, biên nhận đã được lưu", map[string]interface{}{
			"receiptNumber": receiptData["receiptNumber"],
		})
	o.audit.RecordAction(ctx, auditmodels.AuditEntitySubmissionPipeline, p.Record.PipelineID, "pipeline_completed", map[string]interface{}{
		"submissionId":  p.Record.SubmissionID.Hex(),
		"receiptNumber": receiptData["receiptNumber"],
	}, "orchestrator")

	if _, err := o.submissions.MarkSubmitted(ctx, p.Record.SubmissionID, receiptData); err != nil {
		log.WithFields(map[string]interface{}{
			"submissionId": p.Record.SubmissionID.Hex(),
			"error":        err.Error(),
		}).Error("🚀 [PIPELINE] Không cập nhật được submission sang submitted")
	}
	if _, err := o.proposals.MarkSubmitted(ctx, p.Record.ProposalID, receiptData); err != nil {
		log.WithFields(map[string]interface{}{
			"proposalId": p.Record.ProposalID.Hex(),
			"error":      err.Error(),
		}).Error("🚀 [PIPELINE] Không cập nhật được proposal sang submitted")
	}

	o.notifier.NotifyPipelineOutcome(ctx, notification.PipelineOutcome{
		PipelineID:   p.Record.PipelineID,
		SubmissionID: p.Record.SubmissionID.Hex(),
		Status:       "completed",
		Phase:        PhaseCompleted,
		Progress:     100,
		Details: map[string]interface{}{
			"opportunityTitle": metadataString(p.Record.Metadata, "opportunityTitle"),
			"portalName":       metadataString(p.Record.Metadata, "portalName"),
			"receiptNumber":    receiptData["receiptNumber"],
		},
	})

	log.WithFields(map[string]interface{}{
		"pipelineId":   p.Record.PipelineID,
		"submissionId": p.Record.SubmissionID.Hex(),
	}).Info("🚀 [PIPELINE] Pipeline hoàn tất")

	o.registry.Remove(p.Record.PipelineID)
}

// persistLocked mirror bản in-memory xuống MongoDB. Best-effort: lỗi chỉ
// được log, không rollback mutation in-memory vì bản in-memory là nguồn
// thẩm quyền của process đang chạy.
func (o *Orchestrator) persistLocked(ctx context.Context, p *ActivePipeline) {
	snapshot := p.snapshotLocked()
	if _, err := o.pipelines.UpsertSnapshot(ctx, snapshot); err != nil {
		logger.GetAppLogger().WithFields(map[string]interface{}{
			"pipelineId": p.Record.PipelineID,
			"phase":      p.Record.CurrentPhase,
			"error":      err.Error(),
		}).Error("🚀 [PIPELINE] Không mirror được pipeline xuống MongoDB")
	}
}

// emitEventLocked ghi một event vào timeline (append-only, best-effort)
func (o *Orchestrator) emitEventLocked(ctx context.Context, p *ActivePipeline, eventType, phase, level, message string, details map[string]interface{}) {
	o.events.RecordEvent(ctx, submissionmodels.SubmissionEvent{
		PipelineID:   p.Record.PipelineID,
		SubmissionID: p.Record.SubmissionID,
		EventType:    eventType,
		Phase:        phase,
		Level:        level,
		Message:      message,
		Details:      details,
	})
}

// buildPhaseInputsLocked dựng input payload cho work item của một phase:
// ngữ cảnh pipeline + shallow union kết quả các phase trước theo thứ tự.
// Phase authenticating nhận thêm blob credentials đã mã hóa; blob chỉ được
// giải mã tại response claim trả cho agent.
func (o *Orchestrator) buildPhaseInputsLocked(p *ActivePipeline, phase PhaseSpec) map[string]interface{} {
	inputs := map[string]interface{}{
		"pipelineId":    p.Record.PipelineID,
		"submissionId":  p.Record.SubmissionID.Hex(),
		"opportunityId": p.Record.OpportunityID.Hex(),
		"proposalId":    p.Record.ProposalID.Hex(),
		"portalId":      p.Record.PortalID.Hex(),
		"phase":         phase.Name,
	}
	if p.Record.SessionID != "" {
		inputs["sessionId"] = p.Record.SessionID
	}
	for _, key := range []string{"portalName", "portalCode", "portalBaseUrl", "portalAuthType", "portalRequiresMfa", "portalFieldMappings", "browserOptions", "documents", "deadline"} {
		if v, ok := p.Record.Metadata[key]; ok {
			inputs[key] = v
		}
	}

	// Kết quả các phase trước, shallow union theo thứ tự chuẩn
	phaseIdx := PhaseIndex(phase.Name)
	for _, spec := range phaseOrder {
		if PhaseIndex(spec.Name) >= phaseIdx {
			break
		}
		if results, ok := p.Record.Results[spec.Name]; ok {
			for k, v := range results {
				inputs[k] = v
			}
		}
	}

	if phase.Name == PhaseAuthenticating && p.CredentialsEnc != "" {
		inputs[secure.CredentialsFieldEnc] = p.CredentialsEnc
	}
	return inputs
}

// ============================================================
// Helpers
// ============================================================

// buildSnapshot gắn các trường dẫn xuất (active, estimatedCompletion,
// nextSteps) lên record của pipeline
func buildSnapshot(record submissionmodels.SubmissionPipeline, active bool) *StatusSnapshot {
	return &StatusSnapshot{
		SubmissionPipeline:  record,
		Active:              active,
		EstimatedCompletion: estimatedCompletion(record.CurrentPhase, record.Status, record.UpdatedAt),
		NextSteps:           NextStepsFrom(record.CurrentPhase),
	}
}

// estimatedCompletion ước lượng thời điểm hoàn tất: mốc mutation gần nhất
// của pipeline + tổng thời lượng dự kiến các phase còn lại. Neo vào
// updatedAt thay vì thời điểm gọi để hai lần getStatus liên tiếp không có
// mutation xen giữa trả về cùng một giá trị. 0 với pipeline đã kết thúc.
func estimatedCompletion(currentPhase, status string, updatedAt int64) int64 {
	switch status {
	case submissionmodels.PipelineStatusPending,
		submissionmodels.PipelineStatusInProgress,
		submissionmodels.PipelineStatusSuspended:
	default:
		return 0
	}
	remaining := RemainingBudget(currentPhase)
	if remaining <= 0 {
		return 0
	}
	if updatedAt <= 0 {
		updatedAt = time.Now().UnixMilli()
	}
	return updatedAt + remaining.Milliseconds()
}

// phaseDeadline tính deadline cho work item của phase: now + timeout phase,
// bị chặn trên bởi deadline tuyệt đối của pipeline nếu caller đặt sớm hơn
func phaseDeadline(metadata map[string]interface{}, phase PhaseSpec) int64 {
	deadline := time.Now().Add(phase.Timeout).UnixMilli()
	if raw, ok := metadata["deadline"]; ok {
		if pipelineDeadline, ok := raw.(int64); ok && pipelineDeadline > 0 && pipelineDeadline < deadline {
			deadline = pipelineDeadline
		}
	}
	return deadline
}

// metadataString đọc một giá trị string từ metadata, rỗng nếu không có
func metadataString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

// failedItemsSnapshot rút gọn các work item lỗi để lưu vào errorData
func failedItemsSnapshot(items []workitemmodels.WorkItem) []map[string]interface{} {
	snapshots := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		snapshots = append(snapshots, map[string]interface{}{
			"workItemId": item.ID.Hex(),
			"taskType":   item.TaskType,
			"status":     item.Status,
			"error":      item.Error,
			"agentId":    item.AgentID,
		})
	}
	return snapshots
}
