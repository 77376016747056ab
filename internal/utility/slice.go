package utility

// Contains báo một phần tử có mặt trong slice hay không.
func Contains[T comparable](slice []T, item T) bool {
	for _, v := range slice {
		if v == item {
			return true
		}
	}
	return false
}
