package rendering

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeXML_EmptyString(t *testing.T) {
	assert.Equal(t, "", EscapeXML(""))
}

func TestEscapeXML_NoSpecialCharacters(t *testing.T) {
	text := "Asha Rao, 14 MG Road"
	assert.Equal(t, text, EscapeXML(text))
}

func TestEscapeXML_Ampersand(t *testing.T) {
	assert.Equal(t, "Rao &amp; Sons", EscapeXML("Rao & Sons"))
}

func TestEscapeXML_AngleBrackets(t *testing.T) {
	assert.Equal(t, "&lt;w:t&gt;", EscapeXML("<w:t>"))
}

func TestEscapeXML_Quotes(t *testing.T) {
	assert.Equal(t, "&quot;Om&quot; &apos;Sai&apos;", EscapeXML(`"Om" 'Sai'`))
}

func TestEscapeXML_ControlCharacters(t *testing.T) {
	assert.Equal(t, "ab\tc\nd", EscapeXML("a\x00b\tc\nd\x1b"))
}

func TestEscapeXML_UnicodeCharacters(t *testing.T) {
	text := "श्री गणेश ट्रस्ट"
	assert.Equal(t, text, EscapeXML(text))
}
