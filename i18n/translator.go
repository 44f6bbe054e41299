// Package i18n supplies the default human-facing messages for constraint
// codes. Constraints built without an explicit message pull their text from
// here, so swapping the translator relabels every built-in at once.
package i18n

import "strings"

// Translator retrieves localized messages for constraint codes.
// data provides optional parameters substituted into the message template
// (for example, "type" or "operand").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var tmpl string
	switch t.lang {
	case "ja":
		switch code {
		case "invalid_type":
			tmpl = "{type}でなければなりません。"
		case "invalid_enum":
			tmpl = "有効な選択肢でなければなりません。"
		case "required_keys":
			tmpl = "{keys}を設定してください"
		case "not_set":
			tmpl = "設定してはいけません。"
		case "parse_error":
			tmpl = "値を解析できません。"
		}
		if tmpl == "" {
			tmpl = englishTemplate(code)
		}
	default: // "en"
		tmpl = englishTemplate(code)
	}
	return substitute(tmpl, data)
}

func englishTemplate(code string) string {
	switch code {
	case "invalid_type":
		return "Must be {type}."
	case "invalid_enum":
		return "Must be a valid choice."
	case "comparison":
		return "Must be {relation} {operand}."
	case "pattern":
		return "Must match regex {pattern}"
	case "required_keys":
		return "Must set {keys}"
	case "each_item":
		return "Each item {rule}"
	case "predicate":
		return "Must pass `{name}` constraint."
	case "not_set":
		return "Must not be set."
	case "required_value":
		return "Must be set."
	case "parse_error":
		return "Cannot parse value."
	default:
		return code
	}
}

// substitute replaces {key} placeholders with the matching data values.
func substitute(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	out := tmpl
	for k, v := range data {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// Default returns the Translator for the given language ("en", "ja").
func Default(lang string) Translator { return dictTranslator{lang: lang} }

var current Translator = dictTranslator{lang: "en"}

// SetDefault replaces the process-wide Translator used by T.
func SetDefault(t Translator) {
	if t != nil {
		current = t
	}
}

// T is a shorthand for the default Translator's Message.
func T(code string, data map[string]string) string {
	return current.Message(code, data)
}
