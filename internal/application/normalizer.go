package application

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ahrav/outcmp/internal/domain"
)

// LabelCRLFToLF is recorded for line-ending normalization.
const LabelCRLFToLF = "crlf_to_lf"

// lineEndings rewrites CRLF and lone CR to LF in a single pass.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Normalize applies Unicode normalization to the given form and then
// rewrites every line ending to LF. It is pure and idempotent, and accepts
// any byte sequence including invalid UTF-8.
//
// The labels depend only on form, so normalizing an already normalized
// text yields the same labels as the first pass.
func Normalize(text string, form domain.UnicodeForm) domain.NormalizedText {
	f := normForm(form)

	out := text
	if !f.IsNormalString(out) {
		out = f.String(out)
	}
	if strings.IndexByte(out, '\r') >= 0 {
		out = lineEndings.Replace(out)
	}

	return domain.NormalizedText{
		Original: text,
		Text:     out,
		Labels:   []string{normLabel(form), LabelCRLFToLF},
	}
}

func normForm(form domain.UnicodeForm) norm.Form {
	switch form {
	case domain.FormNFD:
		return norm.NFD
	case domain.FormNFKC:
		return norm.NFKC
	case domain.FormNFKD:
		return norm.NFKD
	default:
		return norm.NFC
	}
}

func normLabel(form domain.UnicodeForm) string {
	switch form {
	case domain.FormNFD, domain.FormNFKC, domain.FormNFKD:
		return form.Label()
	default:
		return domain.FormNFC.Label()
	}
}
