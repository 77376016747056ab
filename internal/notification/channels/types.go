package channels

// Message là nội dung thông báo đã render, sẵn sàng gửi qua mọi kênh
type Message struct {
	Subject string
	Content string
	Actions []Action
}

// Action là một link hành động gắn kèm thông báo (nút bấm trên email/Telegram)
type Action struct {
	Label string
	URL   string
}
