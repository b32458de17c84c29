package dto

import (
	"testing"

	"github.com/lynkbyte/evolution-bridge/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := SendMessageRequest{
		Instance:   "  support  ",
		Type:       " text ",
		Connection: "  backup ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "support", req.Instance)
	assert.Equal(t, "text", req.Type)
	assert.Equal(t, "backup", req.Connection)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := SendMessageRequest{
		Instance: "support<script>alert('x')</script>",
		Type:     "text",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Instance, "&lt;script&gt;")
	assert.NotContains(t, req.Instance, "<script>")
}

func TestSanitizeStruct_LeavesMessageBodyAlone(t *testing.T) {
	body := "hello <b>there</b>  "
	req := SendMessageRequest{
		Type:    "text",
		Message: map[string]any{"number": "5511999999999", "text": body},
	}
	SanitizeStruct(&req)

	// Message content is forwarded to WhatsApp verbatim.
	assert.Equal(t, body, req.Message["text"])
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	s := "  padded  "
	v := struct {
		Note *string
	}{Note: &s}
	SanitizeStruct(&v)

	assert.Equal(t, "padded", *v.Note)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	v := struct {
		Note *string
	}{}
	SanitizeStruct(&v)
	assert.Nil(t, v.Note)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"support",
		"my-instance",
		"INSTANCE_02",
		"a.b.c",
		"sales123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"my instance", // space
		"inst<name>",  // angle brackets
		"inst;DROP",   // semicolon
		"",            // empty
		"inst/../etc", // path traversal
		"inst\nname",  // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}

// --- Conversion tests ---

func TestSendMessageRequest_ToDomain(t *testing.T) {
	req := SendMessageRequest{
		Instance:   "support",
		Type:       "media",
		Message:    map[string]any{"number": "5511999999999", "mediatype": "image"},
		Connection: "backup",
	}

	msg := req.ToDomain()

	assert.Equal(t, "support", msg.InstanceName)
	assert.Equal(t, domain.MessageTypeMedia, msg.Type)
	assert.Equal(t, "5511999999999", msg.Recipient())
	assert.Equal(t, "backup", msg.Connection)
}
