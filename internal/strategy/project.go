package strategy

import "github.com/tidwall/gjson"

const (
	textConnected        = "Connected. Initializing..."
	textReady            = "Session Initialized. Ready."
	textBadResult        = "Error: Could not parse result."
	textConnectionFailed = "Error: Connection failed."
	textPreparing        = "Initializing Simulation..."
	textRunning          = "Running Monte Carlo..."
)

// toolResultText extracts result.content from a tool_result payload.
// Non-string content is forwarded as its raw JSON.
func toolResultText(data string) (string, bool) {
	if !gjson.Valid(data) {
		return textBadResult, false
	}
	content := gjson.Get(data, "result.content")
	if !content.Exists() {
		return textBadResult, false
	}
	if content.Type == gjson.String {
		return content.Str, true
	}
	return content.Raw, true
}

// logText returns the message field of a JSON log payload, or the payload
// itself when it is not JSON or carries no message.
func logText(data string) string {
	if !gjson.Valid(data) {
		return data
	}
	if msg := gjson.Get(data, "message"); msg.Exists() {
		return msg.String()
	}
	return data
}

func errorText(data string) string {
	return "Error: " + data
}

func postFailedText(err error) string {
	return errorText("POST failed: " + err.Error())
}

// callResultText renders the text parts of a tools/call response result.
func callResultText(result []byte) (string, bool) {
	var out string
	gjson.GetBytes(result, "content").ForEach(func(_, part gjson.Result) bool {
		if part.Get("type").String() == "text" {
			if out != "" {
				out += "\n"
			}
			out += part.Get("text").String()
		}
		return true
	})
	return out, out != ""
}

// notificationText renders the params of a notifications/message request.
func notificationText(params []byte) string {
	for _, path := range []string{"data", "message"} {
		if v := gjson.GetBytes(params, path); v.Exists() {
			if v.Type == gjson.String {
				return v.Str
			}
			return v.Raw
		}
	}
	return string(params)
}
