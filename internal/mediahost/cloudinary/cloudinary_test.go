package cloudinary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/jon4hz/indiflix/internal/config"
	"github.com/jon4hz/indiflix/internal/mediahost"
	"github.com/jon4hz/indiflix/internal/streamurl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	uploadParams  uploader.UploadParams
	uploadResult  *uploader.UploadResult
	uploadErr     error
	destroyParams uploader.DestroyParams
	destroyResult *uploader.DestroyResult
	destroyErr    error
}

func (f *fakeAPI) Upload(_ context.Context, _ interface{}, params uploader.UploadParams) (*uploader.UploadResult, error) {
	f.uploadParams = params
	return f.uploadResult, f.uploadErr
}

func (f *fakeAPI) Destroy(_ context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.destroyParams = params
	return f.destroyResult, f.destroyErr
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(&config.CloudinaryConfig{CloudName: "demo"})
	assert.ErrorIs(t, err, mediahost.ErrNotConfigured)

	c, err := New(&config.CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "indiflix"})
	require.NoError(t, err)
	assert.Equal(t, "indiflix", c.folder)
}

func TestUpload(t *testing.T) {
	fake := &fakeAPI{uploadResult: &uploader.UploadResult{
		PublicID:  "indiflix/abc",
		Version:   1700000000,
		SecureURL: "https://res.cloudinary.com/demo/video/upload/v1700000000/indiflix/abc.mp4",
		Bytes:     2048,
	}}
	c := &Client{api: fake, folder: "indiflix"}

	asset, err := c.Upload(context.Background(), streamurl.ResourceTypeVideo, mediahost.File{
		Reader:   strings.NewReader("data"),
		Filename: "movie.mp4",
		Size:     4,
	})
	require.NoError(t, err)

	assert.Equal(t, "video", fake.uploadParams.ResourceType)
	assert.Equal(t, "indiflix", fake.uploadParams.Folder)
	assert.NotEmpty(t, fake.uploadParams.PublicID)
	assert.Equal(t, &mediahost.Asset{
		URL:          "https://res.cloudinary.com/demo/video/upload/v1700000000/indiflix/abc.mp4",
		PublicID:     "indiflix/abc",
		Version:      "1700000000",
		ResourceType: streamurl.ResourceTypeVideo,
		Bytes:        2048,
	}, asset)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeAPI
		file mediahost.File
	}{
		{
			name: "no reader",
			fake: &fakeAPI{},
		},
		{
			name: "transport error",
			fake: &fakeAPI{uploadErr: errors.New("connection reset")},
			file: mediahost.File{Reader: strings.NewReader("x")},
		},
		{
			name: "api error",
			fake: &fakeAPI{uploadResult: &uploader.UploadResult{Error: api.ErrorResp{Message: "Invalid video file"}}},
			file: mediahost.File{Reader: strings.NewReader("x")},
		},
		{
			name: "missing url",
			fake: &fakeAPI{uploadResult: &uploader.UploadResult{PublicID: "x"}},
			file: mediahost.File{Reader: strings.NewReader("x")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{api: tt.fake}
			_, err := c.Upload(context.Background(), streamurl.ResourceTypeImage, tt.file)
			assert.Error(t, err)
		})
	}
}

func TestDestroy(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeAPI
		wantErr bool
	}{
		{name: "ok", fake: &fakeAPI{destroyResult: &uploader.DestroyResult{Result: "ok"}}},
		{name: "not found is fine", fake: &fakeAPI{destroyResult: &uploader.DestroyResult{Result: "not found"}}},
		{name: "transport error", fake: &fakeAPI{destroyErr: errors.New("timeout")}, wantErr: true},
		{name: "api error", fake: &fakeAPI{destroyResult: &uploader.DestroyResult{Error: api.ErrorResp{Message: "bad"}}}, wantErr: true},
		{name: "unexpected result", fake: &fakeAPI{destroyResult: &uploader.DestroyResult{Result: "error"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{api: tt.fake}
			err := c.Destroy(context.Background(), "indiflix/abc", streamurl.ResourceTypeVideo)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "indiflix/abc", tt.fake.destroyParams.PublicID)
			assert.Equal(t, "video", tt.fake.destroyParams.ResourceType)
		})
	}
}
