package utility

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// ToMap đưa một struct về map[string]interface{} bằng cách marshal rồi
// unmarshal qua BSON. Key của map lấy theo bson tag nên kết quả ghi thẳng
// vào driver được, không lệch tên field như khi đi đường JSON.
func ToMap(s interface{}) (map[string]interface{}, error) {
	var stringInterfaceMap map[string]interface{}
	itr, err := bson.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("bson marshal failed: %w", err)
	}
	err = bson.Unmarshal(itr, &stringInterfaceMap)
	if err != nil {
		return nil, fmt.Errorf("bson unmarshal failed: %w", err)
	}
	return stringInterfaceMap, err
}
