// Package initsvc chứa InitService dùng để seed dữ liệu mặc định (portal hệ thống).
// Tách ra package riêng để tránh import cycle giữa portal/service và cmd/server.
package initsvc

import (
	"context"
	"fmt"

	agentsvc "bid_flow/internal/api/agent/service"
	basesvc "bid_flow/internal/api/base/service"
	portalmodels "bid_flow/internal/api/portal/models"
	portalsvc "bid_flow/internal/api/portal/service"
	"bid_flow/internal/common"
	"bid_flow/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
)

// InitService là cấu trúc chứa các phương thức khởi tạo dữ liệu ban đầu cho hệ thống.
// Hiện tại chỉ seed danh sách portal hệ thống; agent tự đăng ký qua API nên không cần seed.
type InitService struct {
	portalService *portalsvc.PortalService // Service xử lý portal
}

// NewInitService tạo mới một đối tượng InitService
// Returns:
//   - *InitService: Instance mới của InitService
//   - error: Lỗi nếu có trong quá trình khởi tạo
func NewInitService() (*InitService, error) {
	portalService, err := portalsvc.NewPortalService()
	if err != nil {
		return nil, fmt.Errorf("failed to create portal service: %v", err)
	}

	// Đăng ký callback kiểm tra ops cho base service (tránh import cycle base -> agent)
	basesvc.SetIsAdminFromContextFunc(agentsvc.IsOpsFromContext)

	return &InitService{
		portalService: portalService,
	}, nil
}

// defaultPortals trả về danh sách portal hệ thống seed sẵn khi khởi động.
// Các portal này là dữ liệu tham khảo: field mapping và upload config có thể
// được operator chỉnh lại qua API update (trừ các bản ghi IsSystem).
func defaultPortals() []portalmodels.Portal {
	return []portalmodels.Portal{
		{
			Name:        "SAM.gov",
			Code:        "sam_gov",
			BaseURL:     "https://sam.gov",
			AuthType:    portalmodels.PortalAuthTypeMFA,
			RequiresMFA: true,
			FieldMappings: map[string]string{
				"title":          "#opportunity-response-title",
				"executiveBrief": "#response-summary textarea",
				"pricingTotal":   "input[name='total-proposed-price']",
				"dunsNumber":     "input[name='uei-number']",
			},
			UploadConfig: map[string]interface{}{
				"maxFileSizeMb":     100,
				"maxFiles":          20,
				"allowedExtensions": []string{"pdf", "docx", "xlsx", "zip"},
			},
			Instructions: "Đăng nhập bằng tài khoản entity đã đăng ký UEI. MFA bắt buộc qua Login.gov.",
			IsActive:     true,
		},
		{
			Name:     "DemandStar",
			Code:     "demandstar",
			BaseURL:  "https://www.demandstar.com",
			AuthType: portalmodels.PortalAuthTypeBasic,
			FieldMappings: map[string]string{
				"title":          "#bid-response-name",
				"executiveBrief": "#bid-response-notes",
			},
			UploadConfig: map[string]interface{}{
				"maxFileSizeMb":     50,
				"maxFiles":          10,
				"allowedExtensions": []string{"pdf", "docx"},
			},
			IsActive: true,
		},
		{
			Name:     "BeaconBid",
			Code:     "beaconbid",
			BaseURL:  "https://www.beaconbid.com",
			AuthType: portalmodels.PortalAuthTypeBasic,
			FieldMappings: map[string]string{
				"title":          "input[data-field='submission-title']",
				"executiveBrief": "div[data-field='cover-letter'] textarea",
				"pricingTotal":   "input[data-field='price-total']",
			},
			UploadConfig: map[string]interface{}{
				"maxFileSizeMb":     25,
				"maxFiles":          15,
				"allowedExtensions": []string{"pdf", "docx", "xlsx"},
			},
			IsActive: true,
		},
	}
}

// InitDefaultPortals seed các portal hệ thống nếu chưa tồn tại (so theo code).
// Returns:
//   - int: Số portal mới được tạo
//   - error: Lỗi nếu có trong quá trình seed
func (h *InitService) InitDefaultPortals() (int, error) {
	// Context cho phép insert system data trong quá trình init
	ctx := basesvc.WithSystemDataInsertAllowed(context.TODO())
	log := logger.GetAppLogger()

	created := 0
	for _, seed := range defaultPortals() {
		// Kiểm tra portal đã tồn tại chưa (theo code, kể cả khi đã bị deactivate)
		_, err := h.portalService.FindOne(ctx, bson.M{"code": seed.Code}, nil)
		if err == nil {
			continue
		}
		if err != common.ErrNotFound {
			return created, fmt.Errorf("failed to check existing portal %s: %v", seed.Code, err)
		}

		seed.IsSystem = true
		if _, err := h.portalService.InsertOne(ctx, seed); err != nil {
			return created, fmt.Errorf("failed to seed portal %s: %v", seed.Code, err)
		}
		log.Infof("Đã seed portal hệ thống: %s (%s)", seed.Name, seed.Code)
		created++
	}

	return created, nil
}
