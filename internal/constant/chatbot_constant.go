package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	// Reference chips stamped on outgoing user messages
	ReferenceNodePrefix = "노드: "
	ReferenceRowPrefix  = "행: "

	// Offline demo answer, used when no completion endpoint is configured.
	// Args: question, context summary.
	ChatDemoResponseTemplate = "LLM API URL이 설정되지 않아 데모 응답을 반환합니다.\n질문: %s\n컨텍스트: %s"
	ChatDemoEmptyContext     = "없음"
	ChatDemoSummarySeparator = " | "

	// Substituted when the service answers without content
	ChatEmptyResponsePlaceholder = "응답 본문이 비어 있습니다."

	// Assistant-role error turns
	ChatRequestFailedTemplate    = "LLM API 호출 실패: %d"
	ChatRequestUnreachableText   = "LLM API 호출 실패: 서버에 연결할 수 없습니다."
	ChatResolutionFailedTemplate = "모델 확인 실패: %s"
	ChatSendFailedTemplate       = "응답 생성 실패: %s"

	DefaultTemperature = 0.2

	// System instruction; the serialized selection context is appended after it.
	ChatSystemPrompt = `You are the assistant of a manufacturing process monitoring workspace.
The operator selects graph nodes (equipment, processes, inspections) and rows of the process table,
then asks questions about them.

RULES:
- Ground every answer in the SELECTED CONTEXT below. If nothing is selected, say so and answer generally.
- Refer to nodes by label and to rows by id.
- Prediction values are failure probabilities between 0 and 1.
- Answer in the language of the question. Keep it short; use lists for multiple rows.

SELECTED CONTEXT (JSON):
`
)
