package cms

import "fmt"

// StatusError CMS 返回的非 2xx 响应
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("CMS 返回状态码 %d", e.Status)
}

func (e *StatusError) HTTPStatus() int {
	return e.Status
}

func (e *StatusError) ResponseBody() []byte {
	return e.Body
}

// notFound 本地/Firestore 后端模拟 404 响应
func notFound(skillID string) *StatusError {
	return &StatusError{
		Status: 404,
		Body:   []byte(fmt.Sprintf(`{"error":{"message":"skill %s not found"}}`, skillID)),
	}
}
