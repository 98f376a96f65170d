package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/KruglovEgor/RestoStats/internal/domain"
)

// envelope - конверт ответа бэкенда {success, data, message}
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// maxUnwrapDepth ограничивает число вложенных уровней data.
// Бэкенд отдаёт data либо data.data (performance-complete).
const maxUnwrapDepth = 2

// Unwrap извлекает полезную нагрузку из конверта.
// Поддерживаются {success, data: X} и {success, data: {data: X}}; тело без
// конверта возвращается как есть. Несовпадение формы не считается ошибкой:
// в этом случае возвращается nil и получатель остаётся со значением по умолчанию.
// Ошибка возвращается только для success=false.
func Unwrap(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, nil
	}
	if body[0] != '{' {
		return body, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil
	}
	if env.Success != nil && !*env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request was not successful"
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrBackend, msg)
	}
	if env.Data == nil {
		if env.Success == nil {
			// конверта нет
			return body, nil
		}
		return nil, nil
	}

	payload := env.Data
	for depth := 1; depth < maxUnwrapDepth; depth++ {
		inner, ok := nestedData(payload)
		if !ok {
			break
		}
		payload = inner
	}

	if bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return nil, nil
	}
	return payload, nil
}

// nestedData возвращает поле data, если payload - объект только с data
// (и, возможно, служебными success/message)
func nestedData(payload json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, false
	}
	inner, ok := fields["data"]
	if !ok {
		return nil, false
	}
	for name := range fields {
		switch name {
		case "data", "success", "message":
		default:
			return nil, false
		}
	}
	return inner, true
}

// decodePayload декодирует развёрнутую нагрузку в out
func decodePayload(body []byte, out any) error {
	payload, err := Unwrap(body)
	if err != nil {
		return err
	}
	if out == nil || payload == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			// форма ответа не совпала: остаётся значение по умолчанию
			return nil
		}
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrBackend, err)
	}
	return nil
}
