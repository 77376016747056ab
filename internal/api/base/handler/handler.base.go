package basehdl

// Package basehdl là lớp handler nền cho mọi endpoint HTTP:
// CRUD generic cộng các tiện ích parse/validate request và dựng response.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	basesvc "bid_flow/internal/api/base/service"
	"bid_flow/internal/common"
	"bid_flow/internal/global"
	"bid_flow/internal/utility"
)

// FilterOptions giới hạn những gì client được phép đưa vào filter
type FilterOptions struct {
	DeniedFields     []string // Các trường bị cấm filter
	AllowedOperators []string // Các operator MongoDB được phép
	MaxFields        int      // Số lượng field tối đa trong một filter
}

// BaseHandler gói các thao tác CRUD chung cho handler Fiber.
// Dùng generic nên một bộ code phục vụ được mọi model.
//
// Type parameters:
// - T: Kiểu document của model
// - CreateInput: DTO khi tạo mới
// - UpdateInput: DTO khi cập nhật
type BaseHandler[T any, CreateInput any, UpdateInput any] struct {
	BaseService   basesvc.BaseServiceMongo[T] // Service xử lý logic nghiệp vụ với MongoDB
	filterOptions FilterOptions               // Cấu hình validate filter
}

// NewBaseHandler khởi tạo BaseHandler quanh service được đưa vào, kèm cấu hình filter mặc định
func NewBaseHandler[T any, CreateInput any, UpdateInput any](baseService basesvc.BaseServiceMongo[T]) *BaseHandler[T, CreateInput, UpdateInput] {
	return &BaseHandler[T, CreateInput, UpdateInput]{
		BaseService: baseService,
		filterOptions: FilterOptions{
			DeniedFields: []string{
				"password",
				"token",
				"secret",
				"key",
				"hash",
				"credentialsEncrypted",
			},
			AllowedOperators: []string{
				"$eq",
				"$gt",
				"$gte",
				"$lt",
				"$lte",
				"$in",
				"$nin",
				"$exists",
			},
			MaxFields: 10,
		},
	}
}

// ValidateInput thực hiện validate chi tiết dữ liệu đầu vào
func (h *BaseHandler[T, CreateInput, UpdateInput]) ValidateInput(input interface{}) error {
	// Validator đăng ký ở global chạy trước
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err)
	}

	// Sau đó soát thêm các tag giới hạn tự định nghĩa
	val := reflect.ValueOf(input)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	// Không phải struct thì không còn gì để soát
	if val.Kind() != reflect.Struct {
		return nil
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		// Trường string: soát tag maxLength
		if field.Kind() == reflect.String {
			if maxTag := fieldType.Tag.Get("maxLength"); maxTag != "" {
				maxLen, err := strconv.Atoi(maxTag)
				if err == nil && len(field.String()) > maxLen {
					return common.NewError(
						common.ErrCodeValidationInput,
						fmt.Sprintf("Trường %s vượt quá độ dài cho phép (%d ký tự)", fieldType.Name, maxLen),
						common.StatusBadRequest,
						nil,
					)
				}
			}
		}

		// Trường số: soát tag min/max
		if field.Kind() == reflect.Int || field.Kind() == reflect.Int64 {
			if minTag := fieldType.Tag.Get("min"); minTag != "" {
				min, err := strconv.ParseInt(minTag, 10, 64)
				if err == nil && field.Int() < min {
					return common.NewError(
						common.ErrCodeValidationInput,
						fmt.Sprintf("Trường %s phải lớn hơn hoặc bằng %d", fieldType.Name, min),
						common.StatusBadRequest,
						nil,
					)
				}
			}

			if maxTag := fieldType.Tag.Get("max"); maxTag != "" {
				max, err := strconv.ParseInt(maxTag, 10, 64)
				if err == nil && field.Int() > max {
					return common.NewError(
						common.ErrCodeValidationInput,
						fmt.Sprintf("Trường %s phải nhỏ hơn hoặc bằng %d", fieldType.Name, max),
						common.StatusBadRequest,
						nil,
					)
				}
			}
		}
	}

	return nil
}

// ParseRequestBody đọc body JSON vào input rồi validate.
// Decoder bật UseNumber() để giá trị số không bị ép về float64.
//
// Parameters:
// - c: Fiber context
// - input: Con trỏ struct nhận dữ liệu
//
// Returns:
// - error: Lỗi parse hoặc lỗi validate
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParseRequestBody(c fiber.Ctx, input interface{}) error {
	// Decode body vào input
	body := c.Body()
	reader := bytes.NewReader(body)
	decoder := json.NewDecoder(reader)
	decoder.UseNumber()
	if err := decoder.Decode(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, common.MsgValidationError, common.StatusBadRequest, err)
	}

	// Soát tiếp phần nội dung
	if err := h.ValidateInput(input); err != nil {
		return err
	}

	return nil
}

// ParseRequestParams bind các tham số URI vào input qua Fiber rồi validate.
//
// Parameters:
// - c: Fiber context
// - input: Con trỏ struct nhận dữ liệu
//
// Returns:
// - error: Lỗi bind hoặc lỗi validate
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParseRequestParams(c fiber.Ctx, input interface{}) error {
	// Bind từ URI
	if err := c.Bind().URI(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, common.MsgValidationError, common.StatusBadRequest, err)
	}

	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err)
	}

	return nil
}

// ParseQueryParams parse và validate các tham số từ query string (tag `query`).
//
// Parameters:
// - c: Fiber context
// - input: Con trỏ tới struct sẽ chứa dữ liệu được parse
//
// Returns:
// - error: Lỗi nếu có trong quá trình parse hoặc validate
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParseQueryParams(c fiber.Ctx, input interface{}) error {
	// Bind từ query string
	if err := c.Bind().Query(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, common.MsgValidationError, common.StatusBadRequest, err)
	}

	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err)
	}

	return nil
}

// ProcessFilter xử lý và validate filter từ request
func (h *BaseHandler[T, CreateInput, UpdateInput]) ProcessFilter(c fiber.Ctx) (map[string]interface{}, error) {
	var filter map[string]interface{}

	// filter nằm trong query string dưới dạng chuỗi JSON
	filterStr := c.Query("filter", "{}")
	if err := json.Unmarshal([]byte(filterStr), &filter); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Filter không đúng định dạng JSON. Chi tiết lỗi: %v. Giá trị filter nhận được: %s", err, filterStr),
			common.StatusBadRequest,
			err,
		)
	}

	// Đổi các string dạng ObjectId về ObjectID thật trước khi đưa cho driver
	filter = h.normalizeFilter(filter)

	// Soát filter theo cấu hình
	if err := h.validateFilter(filter); err != nil {
		return nil, err
	}

	return filter, nil
}

// normalizeFilter đổi các string mang format ObjectId trong filter về primitive.ObjectID.
// Nhận diện field theo hậu tố "Id"/"ID", không phân biệt hoa thường.
func (h *BaseHandler[T, CreateInput, UpdateInput]) normalizeFilter(filter map[string]interface{}) map[string]interface{} {
	if filter == nil {
		return filter
	}

	normalized := make(map[string]interface{})
	for field, value := range filter {
		// Hậu tố id quyết định có thử đổi ObjectID hay không
		fieldLower := strings.ToLower(field)
		isIDField := strings.HasSuffix(fieldLower, "id") && len(fieldLower) > 2

		normalized[field] = h.normalizeFilterValue(value, isIDField)
	}

	return normalized
}

// normalizeFilterValue xử lý một giá trị trong filter, đệ quy cho mảng và map lồng nhau
func (h *BaseHandler[T, CreateInput, UpdateInput]) normalizeFilterValue(value interface{}, isIDField bool) interface{} {
	if value == nil {
		return value
	}

	// Extended JSON {"$oid": "..."} đổi thẳng về ObjectID
	if mapValue, ok := value.(map[string]interface{}); ok {
		if oidValue, hasOid := mapValue["$oid"]; hasOid {
			if oidStr, ok := oidValue.(string); ok {
				if primitive.IsValidObjectID(oidStr) {
					objID, err := primitive.ObjectIDFromHex(oidStr)
					if err == nil {
						return objID
					}
				}
			}
			// $oid hỏng thì giữ nguyên
			return value
		}
	}

	// String trên field id: thử đổi, không được thì trả lại string
	if strValue, ok := value.(string); ok && isIDField {
		if primitive.IsValidObjectID(strValue) {
			objID, err := primitive.ObjectIDFromHex(strValue)
			if err == nil {
				return objID
			}
		}
		return strValue
	}

	// Mảng: đệ quy từng phần tử
	if arrValue, ok := value.([]interface{}); ok {
		normalizedArr := make([]interface{}, len(arrValue))
		for i, item := range arrValue {
			normalizedArr[i] = h.normalizeFilterValue(item, isIDField)
		}
		return normalizedArr
	}

	// Map operator ($eq, $in...): đệ quy tiếp vào từng value
	if mapValue, ok := value.(map[string]interface{}); ok {
		normalizedMap := make(map[string]interface{})
		for key, val := range mapValue {
			// Riêng $in/$nin phải đổi từng phần tử trong mảng
			if (key == "$in" || key == "$nin") && isIDField {
				if arrVal, ok := val.([]interface{}); ok {
					normalizedArr := make([]interface{}, len(arrVal))
					for i, item := range arrVal {
						if strItem, ok := item.(string); ok && primitive.IsValidObjectID(strItem) {
							objID, err := primitive.ObjectIDFromHex(strItem)
							if err == nil {
								normalizedArr[i] = objID
							} else {
								normalizedArr[i] = item
							}
						} else {
							normalizedArr[i] = item
						}
					}
					normalizedMap[key] = normalizedArr
				} else {
					normalizedMap[key] = val
				}
			} else {
				// Operator còn lại đệ quy bình thường
				normalizedMap[key] = h.normalizeFilterValue(val, isIDField)
			}
		}
		return normalizedMap
	}

	return value
}

// validateFilter chặn filter vi phạm cấu hình: field cấm, operator lạ, quá nhiều field
func (h *BaseHandler[T, CreateInput, UpdateInput]) validateFilter(filter map[string]interface{}) error {
	// Phòng khi handler được tạo tay mà chưa set filterOptions
	deniedFields := h.filterOptions.DeniedFields
	if len(deniedFields) == 0 {
		deniedFields = []string{
			"password",
			"token",
			"secret",
			"key",
			"hash",
		}
	}

	allowedOperators := h.filterOptions.AllowedOperators
	if len(allowedOperators) == 0 {
		allowedOperators = []string{
			"$eq",
			"$gt",
			"$gte",
			"$lt",
			"$lte",
			"$in",
			"$nin",
			"$exists",
		}
	}

	maxFields := h.filterOptions.MaxFields
	if maxFields == 0 {
		maxFields = 10 // Giá trị mặc định
	}

	// Giới hạn số field
	if len(filter) > maxFields {
		return common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Filter vượt quá số lượng trường cho phép. Tối đa %d trường, hiện tại có %d trường. Vui lòng giảm số lượng trường trong filter.", maxFields, len(filter)),
			common.StatusBadRequest,
			nil,
		)
	}

	// Soát từng field một
	for field, value := range filter {
		// Field nhạy cảm thì chặn
		if utility.Contains(deniedFields, field) {
			return common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Trường '%s' không được phép sử dụng trong filter vì lý do bảo mật. Vui lòng sử dụng các trường khác.", field),
				common.StatusBadRequest,
				nil,
			)
		}

		// Value dạng map thì soát từng operator
		if mapValue, ok := value.(map[string]interface{}); ok {
			for op := range mapValue {
				if strings.HasPrefix(op, "$") && !utility.Contains(allowedOperators, op) {
					return common.NewError(
						common.ErrCodeValidationFormat,
						fmt.Sprintf("Toán tử MongoDB '%s' không được phép sử dụng. Các toán tử được phép: %v", op, allowedOperators),
						common.StatusBadRequest,
						nil,
					)
				}
			}
		}
	}

	return nil
}

// processMongoOptions đọc options (projection/sort/limit/skip) từ query string và dựng options cho driver
func (h *BaseHandler[T, CreateInput, UpdateInput]) processMongoOptions(c fiber.Ctx, isFindOne bool) (interface{}, error) {
	var rawOptions map[string]interface{}

	// options cũng là chuỗi JSON trong query string
	optionsStr := c.Query("options", "{}")
	if err := json.Unmarshal([]byte(optionsStr), &rawOptions); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationFormat,
			fmt.Sprintf("Options không đúng định dạng JSON. Chi tiết lỗi: %v. Giá trị options nhận được: %s", err, optionsStr),
			common.StatusBadRequest,
			err,
		)
	}

	// Soát trước khi dựng
	if err := h.validateMongoOptions(rawOptions); err != nil {
		return nil, err
	}

	// Đường lui khi không giữ được thứ tự key: đọc sort từ map
	parseSortMap := func(sortMap map[string]interface{}) bson.D {
		sortBson := bson.D{}
		for field, value := range sortMap {
			var sortValue int
			if v, ok := value.(float64); ok {
				sortValue = int(v)
			} else if v, ok := value.(int); ok {
				sortValue = v
			} else {
				continue
			}
			// Chỉ nhận 1/-1
			if sortValue != 1 && sortValue != -1 {
				continue
			}
			sortBson = append(sortBson, bson.E{Key: field, Value: sortValue})
		}
		return sortBson
	}

	// Sort nhiều field cần đúng thứ tự client khai báo, mà map của Go thì không giữ thứ tự key.
	// Tách riêng phần sort từ chuỗi JSON gốc và đọc lại bằng json.Decoder theo từng token.
	parseSortWithOrder := func(sortMap map[string]interface{}, optionsJSON string) (bson.D, error) {
		sortBson := bson.D{}

		var tempOptions map[string]json.RawMessage
		if err := json.Unmarshal([]byte(optionsJSON), &tempOptions); err != nil {
			// Không tách được thì đành dùng map
			return parseSortMap(sortMap), nil
		}

		sortRaw, ok := tempOptions["sort"]
		if !ok {
			// options không khai sort
			return sortBson, nil
		}

		decoder := json.NewDecoder(bytes.NewReader(sortRaw))
		decoder.UseNumber() // Number giữ nguyên precision

		// Token mở '{'
		token, err := decoder.Token()
		if err != nil || token != json.Delim('{') {
			// Không phải object: quay về đường map
			return parseSortMap(sortMap), nil
		}

		// Từng cặp key-value theo thứ tự xuất hiện trong chuỗi
		for decoder.More() {
			keyToken, err := decoder.Token()
			if err != nil {
				break
			}
			field, ok := keyToken.(string)
			if !ok {
				continue
			}

			// Value phải là số
			valueToken, err := decoder.Token()
			if err != nil {
				break
			}

			var sortValue int
			switch v := valueToken.(type) {
			case json.Number:
				intVal, err := v.Int64()
				if err != nil {
					// Không phải int thì thử float
					floatVal, err := v.Float64()
					if err != nil {
						continue
					}
					intVal = int64(floatVal)
				}
				sortValue = int(intVal)
			case float64:
				sortValue = int(v)
			case int:
				sortValue = v
			default:
				continue
			}

			// Ngoài 1/-1 bỏ qua field này
			if sortValue != 1 && sortValue != -1 {
				continue
			}

			sortBson = append(sortBson, bson.E{Key: field, Value: sortValue})
		}

		// Token đóng '}'
		_, _ = decoder.Token()

		// Không nhặt được field nào: quay về đường map
		if len(sortBson) == 0 {
			return parseSortMap(sortMap), nil
		}

		return sortBson, nil
	}

	// Dựng options cho driver theo loại truy vấn
	if isFindOne {
		opts := mongoopts.FindOne()
		if projection, ok := rawOptions["projection"].(map[string]interface{}); ok {
			opts.SetProjection(projection)
		}
		if sort, ok := rawOptions["sort"].(map[string]interface{}); ok {
			sortBson, err := parseSortWithOrder(sort, optionsStr)
			if err != nil {
				return nil, common.NewError(
					common.ErrCodeValidationFormat,
					fmt.Sprintf("Lỗi khi parse sort options: %v", err),
					common.StatusBadRequest,
					err,
				)
			}
			opts.SetSort(sortBson)
		}
		return opts, nil
	}

	opts := mongoopts.Find()
	if projection, ok := rawOptions["projection"].(map[string]interface{}); ok {
		opts.SetProjection(projection)
	}
	if sort, ok := rawOptions["sort"].(map[string]interface{}); ok {
		sortBson, err := parseSortWithOrder(sort, optionsStr)
		if err != nil {
			return nil, common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Lỗi khi parse sort options: %v", err),
				common.StatusBadRequest,
				err,
			)
		}
		opts.SetSort(sortBson)
	}
	if limit, ok := rawOptions["limit"].(float64); ok {
		opts.SetLimit(int64(limit))
	}
	if skip, ok := rawOptions["skip"].(float64); ok {
		opts.SetSkip(int64(skip))
	}
	return opts, nil
}

// validateMongoOptions soát whitelist option và các ràng buộc giá trị
func (h *BaseHandler[T, CreateInput, UpdateInput]) validateMongoOptions(options map[string]interface{}) error {
	// Fallback danh sách field cấm như validateFilter
	deniedFields := h.filterOptions.DeniedFields
	if len(deniedFields) == 0 {
		deniedFields = []string{
			"password",
			"token",
			"secret",
			"key",
			"hash",
		}
	}

	// Chỉ nhận đúng bốn option này
	allowedOptions := map[string]bool{
		"projection": true,
		"sort":       true,
		"limit":      true,
		"skip":       true,
	}

	// Option lạ là chặn ngay
	for key := range options {
		if !allowedOptions[key] {
			return common.NewError(
				common.ErrCodeValidationFormat,
				fmt.Sprintf("Option '%s' không được hỗ trợ. Các options được phép: projection, sort, limit, skip", key),
				common.StatusBadRequest,
				nil,
			)
		}
	}

	// projection không được lộ field nhạy cảm
	if projection, ok := options["projection"].(map[string]interface{}); ok {
		for field := range projection {
			if utility.Contains(deniedFields, field) {
				return common.NewError(
					common.ErrCodeValidationFormat,
					fmt.Sprintf("Trường '%s' không được phép sử dụng trong projection vì lý do bảo mật", field),
					common.StatusBadRequest,
					nil,
				)
			}
		}
	}

	// sort: field hợp lệ và giá trị 1/-1
	if sort, ok := options["sort"].(map[string]interface{}); ok {
		for field, value := range sort {
			if utility.Contains(deniedFields, field) {
				return common.NewError(
					common.ErrCodeValidationFormat,
					fmt.Sprintf("Trường '%s' không được phép sử dụng trong sort vì lý do bảo mật", field),
					common.StatusBadRequest,
					nil,
				)
			}
			if v, ok := value.(float64); !ok || (v != 1 && v != -1) {
				return common.NewError(
					common.ErrCodeValidationFormat,
					fmt.Sprintf("Giá trị sort cho trường '%s' phải là 1 (tăng dần) hoặc -1 (giảm dần), giá trị hiện tại: %v", field, value),
					common.StatusBadRequest,
					nil,
				)
			}
		}
	}

	// limit phải dương và có trần
	if limit, ok := options["limit"].(float64); ok {
		if limit <= 0 {
			return common.NewError(
				common.ErrCodeValidationFormat,
				"Giá trị limit phải lớn hơn 0",
				common.StatusBadRequest,
				nil,
			)
		}
		if limit > 1000 {
			return common.NewError(
				common.ErrCodeValidationFormat,
				"Giá trị limit không được vượt quá 1000 để đảm bảo hiệu năng hệ thống",
				common.StatusBadRequest,
				nil,
			)
		}
	}

	// skip không được âm
	if skip, ok := options["skip"].(float64); ok {
		if skip < 0 {
			return common.NewError(
				common.ErrCodeValidationFormat,
				"Giá trị skip không được âm",
				common.StatusBadRequest,
				nil,
			)
		}
	}

	return nil
}

// ParsePagination đọc page/limit từ query string.
// Giá trị hỏng hoặc nhỏ hơn 1 rơi về mặc định page=1, limit=10.
func (h *BaseHandler[T, CreateInput, UpdateInput]) ParsePagination(c fiber.Ctx) (int64, int64) {
	page, err := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.ParseInt(c.Query("limit", "10"), 10, 64)
	if err != nil || limit < 1 {
		limit = 10
	}

	return page, limit
}

// GetIDFromContext lấy :id từ URI params
func (h *BaseHandler[T, CreateInput, UpdateInput]) GetIDFromContext(c fiber.Ctx) string {
	return c.Params("id")
}

// TransformCreateInputToModel dựng Model (T) từ CreateInput (DTO).
// Field đổi kiểu qua struct tag `transform` (ví dụ string → ObjectID),
// option `map=<tên field>` cho phép DTO và Model đặt tên khác nhau.
//
// Parameters:
// - input: DTO tạo mới
//
// Returns:
// - *T: Model dựng từ DTO
// - error: Lỗi transform nếu có
func (h *BaseHandler[T, CreateInput, UpdateInput]) TransformCreateInputToModel(input *CreateInput) (*T, error) {
	// Model đích
	model := new(T)

	// Mở reflect trên cả DTO lẫn Model
	inputVal := reflect.ValueOf(input)
	if inputVal.Kind() == reflect.Ptr {
		inputVal = inputVal.Elem()
	}
	if inputVal.Kind() != reflect.Struct {
		return nil, fmt.Errorf("CreateInput phải là struct hoặc pointer đến struct")
	}

	modelVal := reflect.ValueOf(model)
	if modelVal.Kind() == reflect.Ptr {
		modelVal = modelVal.Elem()
	}
	if modelVal.Kind() != reflect.Struct {
		return nil, fmt.Errorf("Model phải là struct hoặc pointer đến struct")
	}

	inputType := inputVal.Type()
	modelType := modelVal.Type()

	// Đi qua từng field của DTO
	for i := 0; i < inputVal.NumField(); i++ {
		inputField := inputVal.Field(i)
		inputFieldType := inputType.Field(i)

		// Field unexported thì bỏ qua
		if !inputField.CanInterface() {
			continue
		}

		fieldValue := inputField.Interface()

		if err := h.setModelFieldFromInput(modelVal, modelType, inputFieldType, fieldValue); err != nil {
			return nil, err
		}
	}

	return model, nil
}

// TransformUpdateInputToModel transform UpdateInput (DTO) sang Model (T) cho partial update.
// Field pointer nil trong DTO nghĩa là request không gửi field đó → bỏ qua (giữ nguyên giá trị trong DB).
// Các field có giá trị được transform giống TransformCreateInputToModel (struct tag `transform`).
//
// Parameters:
// - input: UpdateInput (DTO) cần transform
//
// Returns:
// - *T: Model chỉ chứa các field được gửi lên
// - error: Lỗi nếu có trong quá trình transform
func (h *BaseHandler[T, CreateInput, UpdateInput]) TransformUpdateInputToModel(input *UpdateInput) (*T, error) {
	// Model đích
	model := new(T)

	inputVal := reflect.ValueOf(input)
	if inputVal.Kind() == reflect.Ptr {
		inputVal = inputVal.Elem()
	}
	if inputVal.Kind() != reflect.Struct {
		return nil, fmt.Errorf("UpdateInput phải là struct hoặc pointer đến struct")
	}

	modelVal := reflect.ValueOf(model)
	if modelVal.Kind() == reflect.Ptr {
		modelVal = modelVal.Elem()
	}
	if modelVal.Kind() != reflect.Struct {
		return nil, fmt.Errorf("Model phải là struct hoặc pointer đến struct")
	}

	inputType := inputVal.Type()
	modelType := modelVal.Type()

	for i := 0; i < inputVal.NumField(); i++ {
		inputField := inputVal.Field(i)
		inputFieldType := inputType.Field(i)

		// Field unexported thì bỏ qua
		if !inputField.CanInterface() {
			continue
		}

		// Field pointer nil = request không gửi field này → bỏ qua (partial update)
		if inputField.Kind() == reflect.Ptr {
			if inputField.IsNil() {
				continue
			}
			inputField = inputField.Elem()
		}

		fieldValue := inputField.Interface()

		if err := h.setModelFieldFromInput(modelVal, modelType, inputFieldType, fieldValue); err != nil {
			return nil, err
		}
	}

	return model, nil
}

// setModelFieldFromInput transform và set một field từ DTO vào Model (dùng chung cho Create/Update)
func (h *BaseHandler[T, CreateInput, UpdateInput]) setModelFieldFromInput(modelVal reflect.Value, modelType reflect.Type, inputFieldType reflect.StructField, fieldValue interface{}) error {
	// Kiểm tra có transform tag không
	transformTag := inputFieldType.Tag.Get("transform")
	if transformTag != "" {
		// Parse transform tag
		transformConfig, err := utility.ParseTransformTag(transformTag)
		if err != nil {
			return fmt.Errorf("lỗi parse transform tag cho field %s: %w", inputFieldType.Name, err)
		}

		// Xác định field target trong Model
		targetFieldName := inputFieldType.Name // Mặc định: cùng tên
		if transformConfig.MapTo != "" {
			// Có map option → dùng tên field từ map
			targetFieldName = transformConfig.MapTo
		}

		// Tìm field trong Model
		modelField, found := modelType.FieldByName(targetFieldName)
		if !found {
			// Không tìm thấy field trong Model
			if transformConfig.Optional {
				// Optional field → bỏ qua
				return nil
			}
			return fmt.Errorf("không tìm thấy field '%s' trong Model (map từ field '%s' trong DTO)", targetFieldName, inputFieldType.Name)
		}

		// Transform giá trị
		transformedValue, err := utility.TransformFieldValue(fieldValue, transformConfig, modelField.Type)
		if err != nil {
			if transformConfig.Optional {
				// Optional field → bỏ qua lỗi
				return nil
			}
			return fmt.Errorf("lỗi transform field '%s' sang '%s': %w", inputFieldType.Name, targetFieldName, err)
		}

		// Set giá trị vào Model field
		modelFieldVal := modelVal.FieldByName(targetFieldName)
		if !modelFieldVal.IsValid() || !modelFieldVal.CanSet() {
			return fmt.Errorf("không thể set giá trị vào field '%s' trong Model", targetFieldName)
		}

		// Convert và set giá trị
		if transformedValue != nil {
			transformedVal := reflect.ValueOf(transformedValue)
			if transformedVal.Type().AssignableTo(modelFieldVal.Type()) {
				modelFieldVal.Set(transformedVal)
			} else if transformedVal.Type().ConvertibleTo(modelFieldVal.Type()) {
				modelFieldVal.Set(transformedVal.Convert(modelFieldVal.Type()))
			} else {
				return fmt.Errorf("không thể convert giá trị từ type %v sang type %v cho field '%s'", transformedVal.Type(), modelFieldVal.Type(), targetFieldName)
			}
		}
		return nil
	}

	// Không có transform tag → copy trực tiếp nếu field cùng tên và type tương thích
	targetFieldName := inputFieldType.Name
	_, found := modelType.FieldByName(targetFieldName)
	if !found {
		// Không có field cùng tên trong Model → bỏ qua
		return nil
	}

	// Kiểm tra type tương thích
	modelFieldVal := modelVal.FieldByName(targetFieldName)
	if !modelFieldVal.IsValid() || !modelFieldVal.CanSet() {
		return nil
	}

	// Copy giá trị nếu type tương thích
	inputValReflect := reflect.ValueOf(fieldValue)
	if inputValReflect.Type().AssignableTo(modelFieldVal.Type()) {
		modelFieldVal.Set(inputValReflect)
	} else if inputValReflect.Type().ConvertibleTo(modelFieldVal.Type()) {
		modelFieldVal.Set(inputValReflect.Convert(modelFieldVal.Type()))
	}
	// Nếu không tương thích → bỏ qua (có thể cần transform tag)
	return nil
}
