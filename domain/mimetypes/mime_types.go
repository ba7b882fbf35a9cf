// Package mimetypes maps attachment content to a message kind.
package mimetypes

import (
	"mime"
	"strings"

	"chat-client/domain"
	"chat-client/errors"
	"github.com/gabriel-vasile/mimetype"
)

// KindOfDeclared maps a caller-declared MIME type (e.g. "audio/mpeg")
// to a message kind without looking at the payload.
func KindOfDeclared(declared string) (domain.Kind, error) {
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", errors.ErrUnsupportedAttachment
	}
	switch {
	case strings.HasPrefix(mt, "audio/"):
		return domain.KindAudio, nil
	case strings.HasPrefix(mt, "video/"):
		return domain.KindVideo, nil
	default:
		return "", errors.ErrUnsupportedAttachment
	}
}

// KindOf sniffs the attachment bytes and returns the message kind the
// resulting media URL must be sent with. Only audio and video payloads
// are accepted as attachments.
func KindOf(data []byte) (domain.Kind, string, error) {
	detected := mimetype.Detect(data)
	mime := detected.String()

	switch {
	case hasPrefix(detected, "audio/"):
		return domain.KindAudio, mime, nil
	case hasPrefix(detected, "video/"):
		return domain.KindVideo, mime, nil
	default:
		return "", mime, errors.ErrUnsupportedAttachment
	}
}

// hasPrefix walks the detection hierarchy so that containers such as
// application/ogg still resolve to their media family via parents.
func hasPrefix(m *mimetype.MIME, prefix string) bool {
	for ; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), prefix) {
			return true
		}
	}
	return false
}
