package utility

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// transformTagConfig là kết quả đọc tag transform trên một field DTO.
type transformTagConfig struct {
	Type     string // Kiểu chuyển đổi: str_objectid, str_objectid_ptr, str_time, str_int64, str_bool, str_number
	Format   string // Layout thời gian khi Type là str_time
	Default  string // Giá trị thế vào khi input rỗng
	Optional bool   // Thiếu giá trị thì bỏ qua field, không báo lỗi
	Required bool   // Thiếu giá trị là lỗi
	MapTo    string // Tên field đích trong Model khi khác tên field DTO (ví dụ: map=PipelineID)
}

// ParseTransformTag đọc chuỗi tag transform thành config, dành cho code ngoài package.
// Cú pháp: "<kiểu>[,format=...][,default=...][,map=...][,optional|required]"
// trong đó <kiểu> đặt theo dạng <kiểu nguồn>_<kiểu đích>. Các tag hay gặp:
//   - transform:"str_objectid"      chuỗi hex 24 ký tự thành primitive.ObjectID
//   - transform:"str_objectid_ptr"  như trên nhưng trả con trỏ, chuỗi rỗng thành nil
//   - transform:"str_time"          chuỗi thời gian thành timestamp mili giây
//   - transform:"str_time,format=2006-01-02"  chỉ định layout khi parse
//   - transform:"str_int64" / "str_bool" / "str_number"  ép kiểu số hoặc bool
//   - transform:"str_objectid,optional"  thiếu giá trị thì bỏ qua field
func ParseTransformTag(tag string) (*transformTagConfig, error) {
	return parseTransformTag(tag)
}

// parseTransformTag là phần lõi, dùng nội bộ trong package.
func parseTransformTag(tag string) (*transformTagConfig, error) {
	config := &transformTagConfig{
		Type:   "", // Rỗng nghĩa là giữ nguyên giá trị
		Format: "2006-01-02T15:04:05",
	}

	if tag == "" {
		return config, nil
	}

	// Tách theo dấu phẩy: kiểu đứng trước, option theo sau
	parts := strings.Split(tag, ",")
	if len(parts) == 0 {
		return nil, fmt.Errorf("transform tag không hợp lệ: %s", tag)
	}

	typeStr := strings.TrimSpace(parts[0])
	if typeStr != "" {
		config.Type = typeStr
	}

	for i := 1; i < len(parts); i++ {
		part := strings.TrimSpace(parts[i])
		if part == "" {
			continue
		}

		// Hai flag đứng một mình, không mang giá trị
		if part == "optional" {
			config.Optional = true
			continue
		}
		if part == "required" {
			config.Required = true
			continue
		}

		// Các option còn lại theo dạng key=value
		if strings.Contains(part, "=") {
			kv := strings.SplitN(part, "=", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.TrimSpace(kv[0])
			value := strings.TrimSpace(kv[1])

			switch key {
			case "format":
				config.Format = value
			case "default":
				config.Default = value
			case "map":
				// Đổi tên field đích bên Model
				config.MapTo = value
			}
		}
	}

	return config, nil
}

// TransformFieldValue đổi giá trị một field DTO sang kiểu của field Model tương ứng.
// Đây là bước chạy cho từng field khi dựng Model từ CreateInput/UpdateInput.
func TransformFieldValue(value interface{}, config *transformTagConfig, targetFieldType reflect.Type) (interface{}, error) {
	// Không có giá trị: xử lý theo default/optional/required
	if value == nil {
		if config.Default != "" {
			// Thế default vào rồi chuyển kiểu như giá trị thường
			return applyTransform(config.Default, config, targetFieldType)
		}
		if config.Optional {
			// optional: coi như field không được gửi lên
			return nil, nil
		}
		if config.Required {
			return nil, fmt.Errorf("field đánh dấu required nhưng không có giá trị")
		}
		// Không default, không flag: trả nil để field giữ zero value
		return nil, nil
	}

	// Chuỗi rỗng cũng tính là thiếu giá trị
	if strValue, ok := value.(string); ok {
		if strValue == "" {
			if config.Default != "" {
				return applyTransform(config.Default, config, targetFieldType)
			}
			if config.Optional {
				return nil, nil
			}
			if config.Required {
				return nil, fmt.Errorf("field đánh dấu required nhưng giá trị rỗng")
			}
			return nil, nil
		}
	}

	// Có giá trị thật: chuyển kiểu
	return applyTransform(value, config, targetFieldType)
}

// applyTransform chọn converter theo config.Type.
func applyTransform(value interface{}, config *transformTagConfig, targetFieldType reflect.Type) (interface{}, error) {
	switch config.Type {
	case "str_objectid":
		return transformToObjectID(value)
	case "str_objectid_ptr":
		return transformToObjectIDPtr(value)
	case "str_time":
		return transformToTime(value, config.Format)
	case "str_number":
		return transformToNumber(value)
	case "str_int64":
		return transformToInt64(value)
	case "str_bool":
		return transformToBool(value)
	case "":
		fallthrough
	default:
		// Kiểu lạ hoặc không khai báo: giữ nguyên giá trị
		return value, nil
	}
}

// transformToObjectID đọc chuỗi hex 24 ký tự thành ObjectID, chuỗi rỗng thành NilObjectID.
func transformToObjectID(value interface{}) (primitive.ObjectID, error) {
	if value == nil {
		return primitive.NilObjectID, nil
	}

	strValue, ok := value.(string)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("cần string để đổi sang ObjectID, nhận %T", value)
	}

	if strValue == "" {
		return primitive.NilObjectID, nil
	}

	objID, err := primitive.ObjectIDFromHex(strValue)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("chuỗi '%s' không phải ObjectID hợp lệ: %w", strValue, err)
	}

	return objID, nil
}

// transformToObjectIDPtr như transformToObjectID nhưng trả con trỏ: nil hoặc chuỗi rỗng thành nil.
func transformToObjectIDPtr(value interface{}) (*primitive.ObjectID, error) {
	if value == nil {
		return nil, nil
	}

	strValue, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("cần string để đổi sang ObjectID, nhận %T", value)
	}

	if strValue == "" {
		return nil, nil
	}

	objID, err := primitive.ObjectIDFromHex(strValue)
	if err != nil {
		return nil, fmt.Errorf("chuỗi '%s' không phải ObjectID hợp lệ: %w", strValue, err)
	}

	return &objID, nil
}

// transformToTime parse chuỗi thời gian theo layout rồi trả timestamp mili giây.
func transformToTime(value interface{}, format string) (int64, error) {
	if value == nil {
		return 0, nil
	}

	strValue, ok := value.(string)
	if !ok {
		return 0, fmt.Errorf("cần string để đổi sang timestamp, nhận %T", value)
	}

	if strValue == "" {
		return 0, nil
	}

	// Layout lấy từ tag, mặc định 2006-01-02T15:04:05
	t, err := time.Parse(format, strValue)
	if err != nil {
		return 0, fmt.Errorf("chuỗi thời gian '%s' không khớp layout '%s': %w", strValue, format, err)
	}

	return t.UnixMilli(), nil
}

// transformToNumber đưa giá trị về int64 khi là số nguyên, float64 khi có phần lẻ.
func transformToNumber(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	switch v := value.(type) {
	case string:
		// Ưu tiên số nguyên
		if intVal, err := strconv.ParseInt(v, 10, 64); err == nil {
			return intVal, nil
		}
		// Không được thì thử số thực
		if floatVal, err := strconv.ParseFloat(v, 64); err == nil {
			return floatVal, nil
		}
		// Không phải số: giữ nguyên chuỗi
		return v, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		// float64 từ JSON decode nhưng không có phần lẻ: đưa về int64
		if v == float64(int64(v)) {
			return int64(v), nil
		}
		return v, nil
	default:
		// Kiểu khác thì ép qua chuỗi
		return fmt.Sprintf("%v", value), nil
	}
}

// transformToInt64 ép mọi kiểu số phổ biến (và chuỗi số) về int64.
func transformToInt64(value interface{}) (int64, error) {
	if value == nil {
		return 0, nil
	}

	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("kiểu %T không đổi được sang int64", value)
	}
}

// transformToBool ép bool, chuỗi hoặc số về bool; số khác 0 là true.
func transformToBool(value interface{}) (bool, error) {
	if value == nil {
		return false, nil
	}

	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case float64:
		return v != 0, nil
	default:
		return false, fmt.Errorf("kiểu %T không đổi được sang bool", value)
	}
}
