package mimetypes

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-client/domain"
	"chat-client/errors"
)

func Test_KindOf_Detects_Media_Families(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want domain.Kind
	}{
		{
			name: "mp3 with id3 tag is audio",
			data: []byte{0x49, 0x44, 0x33, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			want: domain.KindAudio,
		},
		{
			name: "wav container is audio",
			data: []byte("RIFF\x24\x00\x00\x00WAVEfmt "),
			want: domain.KindAudio,
		},
		{
			name: "mp4 container is video",
			data: []byte("\x00\x00\x00\x18ftypisom\x00\x00\x02\x00isomiso2"),
			want: domain.KindVideo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			kind, mime, err := KindOf(tt.data)
			req.NoError(err)
			req.Equal(tt.want, kind)
			req.NotEmpty(mime)
		})
	}
}

func Test_KindOf_Rejects_Non_Media_Payloads(t *testing.T) {
	req := require.New(t)

	_, _, err := KindOf([]byte("just some plain text"))
	req.ErrorIs(err, errors.ErrUnsupportedAttachment)
}

func Test_KindOfDeclared(t *testing.T) {
	req := require.New(t)

	kind, err := KindOfDeclared("audio/mpeg")
	req.NoError(err)
	req.Equal(domain.KindAudio, kind)

	kind, err = KindOfDeclared("video/mp4; codecs=\"avc1\"")
	req.NoError(err)
	req.Equal(domain.KindVideo, kind)

	_, err = KindOfDeclared("image/png")
	req.ErrorIs(err, errors.ErrUnsupportedAttachment)

	_, err = KindOfDeclared("")
	req.ErrorIs(err, errors.ErrUnsupportedAttachment)
}
