package diagram

import "strings"

// RelationType identifies a ConDec constraint template.
type RelationType string

// Binary relation kinds.
const (
	RespExistence RelationType = "resp_existence"
	Coexistence   RelationType = "coexistence"
	Response      RelationType = "response"
	Precedence    RelationType = "precedence"
	Succession    RelationType = "succession"

	AltResponse   RelationType = "alt_response"
	AltPrecedence RelationType = "alt_precedence"
	AltSuccession RelationType = "alt_succession"

	ChainResponse   RelationType = "chain_response"
	ChainPrecedence RelationType = "chain_precedence"
	ChainSuccession RelationType = "chain_succession"

	RespAbsence    RelationType = "resp_absence"
	NotCoexistence RelationType = "not_coexistence"

	NegResponse        RelationType = "neg_response"
	NegPrecedence      RelationType = "neg_precedence"
	NegSuccession      RelationType = "neg_succession"
	NegAltResponse     RelationType = "neg_alt_response"
	NegAltPrecedence   RelationType = "neg_alt_precedence"
	NegAltSuccession   RelationType = "neg_alt_succession"
	NegChainResponse   RelationType = "neg_chain_response"
	NegChainPrecedence RelationType = "neg_chain_precedence"
	NegChainSuccession RelationType = "neg_chain_succession"
)

// N-ary relation kinds.
const (
	Choice   RelationType = "choice"
	ExChoice RelationType = "Ex_choice"
)

// BinaryTypes lists every binary relation kind in palette order.
var BinaryTypes = []RelationType{
	RespExistence, Coexistence, Response, Precedence, Succession,
	AltResponse, AltPrecedence, AltSuccession,
	ChainResponse, ChainPrecedence, ChainSuccession,
	RespAbsence, NotCoexistence,
	NegResponse, NegPrecedence, NegSuccession,
	NegAltResponse, NegAltPrecedence, NegAltSuccession,
	NegChainResponse, NegChainPrecedence, NegChainSuccession,
}

// NaryTypes lists the n-ary relation kinds.
var NaryTypes = []RelationType{Choice, ExChoice}

// IsNary reports whether t is a choice kind.
func (t RelationType) IsNary() bool {
	return t == Choice || t == ExChoice
}

// IsKnown reports whether t is a defined binary or n-ary kind.
func (t RelationType) IsKnown() bool {
	if t.IsNary() {
		return true
	}
	for _, b := range BinaryTypes {
		if t == b {
			return true
		}
	}
	return false
}

// IsNegative reports whether t forbids rather than requires behaviour.
// Negative kinds never count toward cardinality constraints.
func (t RelationType) IsNegative() bool {
	return strings.HasPrefix(string(t), "neg_") || t == NotCoexistence || t == RespAbsence
}

// IsPrecedenceFamily reports whether t is a positive precedence kind.
func (t RelationType) IsPrecedenceFamily() bool {
	return t == Precedence || t == AltPrecedence || t == ChainPrecedence
}

// Positive returns the positive kind a negative kind negates; positive and
// n-ary kinds are returned as is.
func (t RelationType) Positive() RelationType {
	switch t {
	case RespAbsence:
		return RespExistence
	case NotCoexistence:
		return Coexistence
	}
	return RelationType(strings.TrimPrefix(string(t), "neg_"))
}

var baseLabels = map[string]string{
	"resp_existence":  "Resp. Existence",
	"coexistence":     "Coexistence",
	"response":        "Response",
	"precedence":      "Precedence",
	"succession":      "Succession",
	"resp_absence":    "Resp. Absence",
	"not_coexistence": "Not Coexistence",
	"choice":          "Choice",
	"Ex_choice":       "Exclusive Choice",
}

// Label returns the human-readable name of the relation kind, e.g.
// "Neg. Chain Response".
func (t RelationType) Label() string {
	rest := string(t)
	neg := strings.HasPrefix(rest, "neg_")
	if neg {
		rest = strings.TrimPrefix(rest, "neg_")
	}

	prefix := ""
	switch {
	case strings.HasPrefix(rest, "alt_"):
		prefix = "Alt "
		rest = strings.TrimPrefix(rest, "alt_")
	case strings.HasPrefix(rest, "chain_"):
		prefix = "Chain "
		rest = strings.TrimPrefix(rest, "chain_")
	}
	if neg {
		prefix = "Neg. " + prefix
	}

	base, ok := baseLabels[rest]
	if !ok && rest != "" {
		words := strings.ReplaceAll(rest, "_", " ")
		base = strings.ToUpper(words[:1]) + words[1:]
	}
	return prefix + base
}
