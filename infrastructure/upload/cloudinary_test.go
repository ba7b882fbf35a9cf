package upload

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-client/errors"
)

func newTestUploader(t *testing.T, handler http.Handler) CloudinaryClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCloudinaryClient(srv.URL, "unsigned-preset", 2*time.Second, slog.Default())
}

func Test_Upload_Sends_Multipart_File_And_Preset(t *testing.T) {
	req := require.New(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.NoError(r.ParseMultipartForm(1 << 20))
		req.Equal("unsigned-preset", r.FormValue("upload_preset"))

		file, _, err := r.FormFile("file")
		req.NoError(err)
		content := make([]byte, 3)
		_, err = file.Read(content)
		req.NoError(err)
		req.Equal([]byte("ID3"), content)

		_, _ = w.Write([]byte(`{"secure_url":"https://cdn.example/v1/a.mp3"}`))
	})

	uploader := newTestUploader(t, handler)
	url, err := uploader.Upload(context.Background(), []byte("ID3"))
	req.NoError(err)
	req.Equal("https://cdn.example/v1/a.mp3", url)
}

func Test_Upload_Rejects_Empty_Input_Without_Calling_Endpoint(t *testing.T) {
	req := require.New(t)

	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	uploader := newTestUploader(t, handler)
	_, err := uploader.Upload(context.Background(), nil)
	req.ErrorIs(err, errors.ErrEmptyUpload)
	req.ErrorIs(err, errors.ErrUpload)
	req.False(called)
}

func Test_Upload_Fails_On_Server_Error(t *testing.T) {
	req := require.New(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	uploader := newTestUploader(t, handler)
	_, err := uploader.Upload(context.Background(), []byte("payload"))
	req.ErrorIs(err, errors.ErrUpload)
}

func Test_Upload_Fails_When_Response_Lacks_Media_URL(t *testing.T) {
	req := require.New(t)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"public_id":"a"}`))
	})

	uploader := newTestUploader(t, handler)
	_, err := uploader.Upload(context.Background(), []byte("payload"))
	req.ErrorIs(err, errors.ErrMissingMediaURL)
	req.ErrorIs(err, errors.ErrUpload)
}
