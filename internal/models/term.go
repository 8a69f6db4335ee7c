package models

// Script is the script family a term was harvested from.
type Script int

const (
	ScriptOther Script = iota
	ScriptLatin
	ScriptCJK
)

func (s Script) String() string {
	switch s {
	case ScriptLatin:
		return "latin"
	case ScriptCJK:
		return "cjk"
	default:
		return "other"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Script) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode as ScriptOther.
func (s *Script) UnmarshalText(text []byte) error {
	switch string(text) {
	case "latin":
		*s = ScriptLatin
	case "cjk":
		*s = ScriptCJK
	default:
		*s = ScriptOther
	}
	return nil
}

// Term is a candidate search term extracted from raw query text.
type Term struct {
	Text   string `json:"text"`
	Script Script `json:"script"`
}

// TermTexts returns the texts of terms in order.
func TermTexts(terms []Term) []string {
	if len(terms) == 0 {
		return nil
	}
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = t.Text
	}
	return out
}
