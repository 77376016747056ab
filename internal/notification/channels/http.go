package channels

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
)

// httpTimeout là timeout mặc định cho các lời gọi HTTP ra ngoài của notification
const httpTimeout = 10 * time.Second

// postJSON gửi POST với body JSON bằng fasthttp, trả về status code và body response.
// Deadline lấy theo ctx nếu ctx có deadline sớm hơn httpTimeout.
func postJSON(ctx context.Context, url string, payload interface{}) (int, []byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(jsonData)

	deadline := time.Now().Add(httpTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := fasthttp.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, err
	}

	// Copy body vì resp được release khi hàm return
	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}
