package validation

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/net/html"
)

// EmptyParagraph is what the rich-text editor emits for an empty document.
const EmptyParagraph = "<p><br></p>"

const (
	MaxTags   = 20
	MinTagLen = 2
	MaxTagLen = 20
)

// PlainText strips the markup from s and returns the text content with
// entities decoded.
func PlainText(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// ParseTags splits a comma-separated tag string, trimming every segment and
// dropping empty ones.
func ParseTags(s string) []string {
	var tags []string
	for _, seg := range strings.Split(s, ",") {
		if seg = strings.TrimSpace(seg); seg != "" {
			tags = append(tags, seg)
		}
	}
	return tags
}

func hasRichText(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return strings.TrimSpace(v) != "" && v != EmptyParagraph
}

func hasPlainTextMin(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	// richtext already reported this one
	if strings.TrimSpace(v) == "" || v == EmptyParagraph {
		return true
	}
	min, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(PlainText(v))) >= min
}

func hasMaxTags(fl validator.FieldLevel) bool {
	max, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(ParseTags(fl.Field().String())) <= max
}

func hasTagLengths(fl validator.FieldLevel) bool {
	for _, tag := range ParseTags(fl.Field().String()) {
		n := utf8.RuneCountInString(tag)
		if n < MinTagLen || n > MaxTagLen {
			return false
		}
	}
	return true
}
