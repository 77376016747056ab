package pipeline

import (
	"sync"
	"time"

	submissionmodels "bid_flow/internal/api/submission/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivePipeline là bản in-memory có thẩm quyền của một pipeline đang chạy.
// Mutex per-pipeline đảm bảo các callback (sweep, push, timeout, retry backoff,
// API call) được tuần tự hóa cho cùng một pipeline; các pipeline khác nhau
// độc lập hoàn toàn. gen tăng mỗi lần phase được (re-)arm để callback của
// watch cũ không tác động vào trạng thái mới.
type ActivePipeline struct {
	mu sync.Mutex

	Record         submissionmodels.SubmissionPipeline
	CredentialsEnc string // Blob credentials đã mã hóa AES-GCM, không bao giờ plaintext

	phaseItemIDs []primitive.ObjectID // Work items của đợt thực thi phase hiện tại
	gen          int                  // Generation của watch đang chạy
	watch        *phaseWatch          // Watch của phase hiện tại, nil nếu không có
	retryTimer   *time.Timer          // Timer backoff của retry đang chờ, nil nếu không có
	pendingRetry bool                 // true nếu suspend cắt ngang một retry đang chờ backoff
}

// Snapshot trả về bản copy nhất quán của record để trả ra ngoài.
// Map top-level được clone để caller không nhìn thấy mutation về sau.
func (p *ActivePipeline) Snapshot() submissionmodels.SubmissionPipeline {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *ActivePipeline) snapshotLocked() submissionmodels.SubmissionPipeline {
	record := p.Record

	record.WorkItemIDs = append([]string(nil), p.Record.WorkItemIDs...)

	if p.Record.Results != nil {
		results := make(map[string]map[string]interface{}, len(p.Record.Results))
		for phase, payload := range p.Record.Results {
			merged := make(map[string]interface{}, len(payload))
			for k, v := range payload {
				merged[k] = v
			}
			results[phase] = merged
		}
		record.Results = results
	}
	if p.Record.ErrorData != nil {
		errorData := make(map[string]interface{}, len(p.Record.ErrorData))
		for k, v := range p.Record.ErrorData {
			errorData[k] = v
		}
		record.ErrorData = errorData
	}
	if p.Record.Metadata != nil {
		metadata := make(map[string]interface{}, len(p.Record.Metadata))
		for k, v := range p.Record.Metadata {
			metadata[k] = v
		}
		record.Metadata = metadata
	}

	return record
}

// stopTimersLocked dừng watch và retry timer đang chạy. Gọi khi pipeline
// kết thúc, bị cancel hoặc suspend. Caller phải đang giữ p.mu.
func (p *ActivePipeline) stopTimersLocked() {
	p.gen++
	if p.watch != nil {
		p.watch.stop()
		p.watch = nil
	}
	if p.retryTimer != nil {
		p.retryTimer.Stop()
		p.retryTimer = nil
	}
}

// ActiveRegistry giữ tập pipeline đang chạy theo pipeline id, chỉ được
// truy cập qua Orchestrator. Index phụ submission → pipeline id nằm dưới
// cùng một khóa với map chính: mỗi submission chỉ có tối đa một pipeline
// active, và chính Add giữ bất biến đó. Vòng đời rõ ràng: Add khi
// initiate, Remove khi pipeline đạt trạng thái kết thúc; bản ghi durable
// trong MongoDB vẫn còn mãi để getStatus tra cứu lịch sử.
type ActiveRegistry struct {
	mu           sync.RWMutex
	byID         map[string]*ActivePipeline
	bySubmission map[primitive.ObjectID]string // submission → pipeline id active
}

// NewActiveRegistry tạo registry rỗng
func NewActiveRegistry() *ActiveRegistry {
	return &ActiveRegistry{
		byID:         make(map[string]*ActivePipeline),
		bySubmission: make(map[primitive.ObjectID]string),
	}
}

// Add đăng ký pipeline mới. Trả về false nếu pipeline id đã tồn tại hoặc
// submission đã có pipeline active khác. Check và ghi cả hai map trong
// cùng một critical section: hai Initiate đồng thời cho cùng submission
// chỉ có đúng một bên thắng.
func (r *ActiveRegistry) Add(p *ActivePipeline) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[p.Record.PipelineID]; exists {
		return false
	}
	if _, exists := r.bySubmission[p.Record.SubmissionID]; exists {
		return false
	}
	r.byID[p.Record.PipelineID] = p
	r.bySubmission[p.Record.SubmissionID] = p.Record.PipelineID
	return true
}

// Get tra cứu pipeline đang chạy theo pipeline id
func (r *ActiveRegistry) Get(pipelineID string) (*ActivePipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, exists := r.byID[pipelineID]
	return p, exists
}

// Remove gỡ pipeline khỏi working set (pipeline đã kết thúc) và giải
// phóng slot active của submission tương ứng
func (r *ActiveRegistry) Remove(pipelineID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, exists := r.byID[pipelineID]
	if !exists {
		return
	}
	delete(r.byID, pipelineID)
	if r.bySubmission[p.Record.SubmissionID] == pipelineID {
		delete(r.bySubmission, p.Record.SubmissionID)
	}
}

// List trả về tất cả pipeline đang chạy (thứ tự không đảm bảo)
func (r *ActiveRegistry) List() []*ActivePipeline {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]*ActivePipeline, 0, len(r.byID))
	for _, p := range r.byID {
		items = append(items, p)
	}
	return items
}

// IDs trả về pipeline id của tất cả pipeline đang chạy
func (r *ActiveRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	return ids
}

// Count trả về số pipeline đang chạy
func (r *ActiveRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// FindBySubmission tìm pipeline active của một submission qua index phụ
func (r *ActiveRegistry) FindBySubmission(submissionID primitive.ObjectID) (*ActivePipeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, exists := r.bySubmission[submissionID]
	if !exists {
		return nil, false
	}
	p, exists := r.byID[id]
	return p, exists
}
