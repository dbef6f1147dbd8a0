package i18n

// chineseMessages contains all Simplified Chinese translations.
var chineseMessages = map[string]string{
	// Error messages
	"error.empty_input":    "输入内容不能为空",
	"error.invalid_body":   "请求体必须是包含 \"input\" 字段的 JSON 对象",
	"error.rate_limited":   "请求过于频繁，请一分钟后再试。",
	"error.body_too_large": "请求体超过 %d 字节上限",

	// Task results
	"task.links_found":       "成功解析出 %d 个 Apple Music 链接 (%s)",
	"task.type_count":        "%d个%s",
	"task.summary_separator": ", ",
	"task.needs_search":      "未检测到 Apple Music 链接，将进行搜索处理（功能待实现）",

	// API description
	"api.endpoint.tasks":  "处理 Apple Music 链接或搜索请求",
	"api.endpoint.health": "健康检查",
}
